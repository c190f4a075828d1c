package matrix

import (
	"testing"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
)

func buildMatrix(sequences ...int) *models.ApprovalMatrix {
	m := &models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00001",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
	}
	for _, seq := range sequences {
		m.Levels = append(m.Levels, models.ApprovalLevel{
			MatrixID:      m.ID,
			Sequence:      seq,
			LevelName:     "Level",
			ApproverType:  enums.ApproverTypeRole,
			ApproverValue: "Accounts Manager",
		})
	}
	return m
}

func TestNewDirectoryRejectsNilMatrix(t *testing.T) {
	_, err := NewDirectory(nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewDirectoryRejectsEmptyLevels(t *testing.T) {
	_, err := NewDirectory(buildMatrix())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for level-less matrix, got %v", err)
	}
}

func TestLevelMatchesExactSequenceOnly(t *testing.T) {
	d, err := NewDirectory(buildMatrix(1, 3, 7))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}

	level, err := d.Level(3)
	if err != nil {
		t.Fatalf("lookup sequence 3: %v", err)
	}
	if level.Sequence != 3 {
		t.Fatalf("expected sequence 3, got %d", level.Sequence)
	}

	_, err = d.Level(2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for gap sequence, got %v", err)
	}
}

func TestNextLevelSkipsGaps(t *testing.T) {
	d, err := NewDirectory(buildMatrix(1, 3, 7))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}

	next := d.NextLevel(1)
	if next == nil || next.Sequence != 3 {
		t.Fatalf("expected next of 1 to be 3, got %+v", next)
	}
	next = d.NextLevel(3)
	if next == nil || next.Sequence != 7 {
		t.Fatalf("expected next of 3 to be 7, got %+v", next)
	}
	if d.NextLevel(7) != nil {
		t.Fatal("expected nil next for the maximum sequence")
	}
	// The probe does not have to be a defined sequence.
	next = d.NextLevel(4)
	if next == nil || next.Sequence != 7 {
		t.Fatalf("expected next of 4 to be 7, got %+v", next)
	}
}

func TestIsTerminal(t *testing.T) {
	d, err := NewDirectory(buildMatrix(1, 2, 3))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	if d.IsTerminal(1) || d.IsTerminal(2) {
		t.Fatal("intermediate levels must not be terminal")
	}
	if !d.IsTerminal(3) {
		t.Fatal("highest sequence must be terminal")
	}
}

func TestDirectorySortsUnorderedLevels(t *testing.T) {
	d, err := NewDirectory(buildMatrix(5, 1, 3))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	if d.First().Sequence != 1 {
		t.Fatalf("expected first sequence 1, got %d", d.First().Sequence)
	}
	levels := d.Levels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1].Sequence >= levels[i].Sequence {
			t.Fatalf("levels not sorted ascending: %d before %d", levels[i-1].Sequence, levels[i].Sequence)
		}
	}
}

func TestLevelsUpTo(t *testing.T) {
	d, err := NewDirectory(buildMatrix(1, 2, 4))
	if err != nil {
		t.Fatalf("new directory: %v", err)
	}
	upTo := d.LevelsUpTo(2)
	if len(upTo) != 2 {
		t.Fatalf("expected 2 levels up to sequence 2, got %d", len(upTo))
	}
	if got := d.LevelsUpTo(10); len(got) != 3 {
		t.Fatalf("expected all levels for high bound, got %d", len(got))
	}
}
