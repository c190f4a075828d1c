package matrix

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
)

// Directory is an ordered view over one matrix's approval levels, keyed by
// sequence number. Sequences are not assumed to be dense; lookups tolerate
// gaps and only ever match exact values.
type Directory struct {
	matrixID string
	levels   []models.ApprovalLevel
}

// NewDirectory builds a Directory for the given matrix. A nil matrix or a
// matrix without levels is a NotFound error, never an empty directory: an
// empty default would make every authorization check silently fail and stall
// the document.
func NewDirectory(m *models.ApprovalMatrix) (*Directory, error) {
	if m == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "approval matrix not found")
	}
	if len(m.Levels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("approval matrix %q has no levels", m.Name))
	}

	levels := make([]models.ApprovalLevel, len(m.Levels))
	copy(levels, m.Levels)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Sequence < levels[j].Sequence })

	return &Directory{matrixID: m.ID.String(), levels: levels}, nil
}

// Level resolves the level at the exact sequence number.
func (d *Directory) Level(sequence int) (*models.ApprovalLevel, error) {
	for i := range d.levels {
		if d.levels[i].Sequence == sequence {
			return &d.levels[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no approval level at sequence %d", sequence))
}

// NextLevel returns the level with the smallest sequence strictly greater
// than the given one, or nil when the sequence is already the maximum.
func (d *Directory) NextLevel(sequence int) *models.ApprovalLevel {
	for i := range d.levels {
		if d.levels[i].Sequence > sequence {
			return &d.levels[i]
		}
	}
	return nil
}

// IsTerminal reports whether no level with a greater sequence exists.
func (d *Directory) IsTerminal(sequence int) bool {
	return d.NextLevel(sequence) == nil
}

// First returns the level with the lowest sequence.
func (d *Directory) First() *models.ApprovalLevel {
	return &d.levels[0]
}

// Levels returns the levels in ascending sequence order.
func (d *Directory) Levels() []models.ApprovalLevel {
	return d.levels
}

// LevelsUpTo returns all levels with sequence less than or equal to the given
// sequence, in ascending order.
func (d *Directory) LevelsUpTo(sequence int) []models.ApprovalLevel {
	var out []models.ApprovalLevel
	for _, level := range d.levels {
		if level.Sequence <= sequence {
			out = append(out, level)
		}
	}
	return out
}

// LevelPermits checks one level's approver designation against a user and
// their role set. Unparseable user designations fail closed.
func LevelPermits(level *models.ApprovalLevel, userID uuid.UUID, roles []string) bool {
	if level == nil {
		return false
	}
	switch level.ApproverType {
	case enums.ApproverTypeRole:
		for _, role := range roles {
			if role == level.ApproverValue {
				return true
			}
		}
		return false
	case enums.ApproverTypeUser:
		approver, err := uuid.Parse(level.ApproverValue)
		if err != nil {
			return false
		}
		return approver == userID
	default:
		return false
	}
}
