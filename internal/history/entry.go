package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
)

// Stage identifies one approval level as seen by the audit trail.
type Stage struct {
	Number int
	Name   string
}

// EntryParams is the input for one audit row. IsApproved accepts bool, numeric,
// or string forms because callers range from typed services to legacy payloads.
type EntryParams struct {
	DocType      string
	ApprovedBy   uuid.UUID
	CurrentStage Stage
	NextStage    *Stage
	NextActionBy string
	IsApproved   any
	Action       string
	Remark       string
}

// ParseApprovalFlag coerces the loose is_approved input into a bool. Strings
// "1", "true", "yes" and "y" (case-insensitive) are true; any other string is
// false. Numerics are true when non-zero.
func ParseApprovalFlag(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case int32:
		return v != 0
	case int64:
		return v != 0
	case float32:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y":
			return true
		}
		return false
	default:
		return false
	}
}

// BuildEntry validates params and derives one immutable audit row. The
// derivation rules are load-bearing: final approval is "approved with no next
// stage", which zeroes the next stage and forces next_action_by empty; a
// non-approval parks the document on the current stage.
func BuildEntry(documentID uuid.UUID, params EntryParams, now time.Time) (*models.ApprovalHistoryEntry, error) {
	if documentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	if strings.TrimSpace(params.DocType) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document type required")
	}
	if params.ApprovedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "acting user required")
	}
	if params.CurrentStage.Number < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("current stage number %d is not a valid stage", params.CurrentStage.Number))
	}
	if strings.TrimSpace(params.CurrentStage.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current stage name required")
	}
	if params.NextStage != nil && params.NextStage.Number < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("next stage number %d is not a valid stage", params.NextStage.Number))
	}

	approved := ParseApprovalFlag(params.IsApproved)
	finalApproval := approved && params.NextStage == nil

	entry := &models.ApprovalHistoryEntry{
		DocumentID:        documentID,
		ForDocType:        strings.TrimSpace(params.DocType),
		ApprovalStage:     params.CurrentStage.Number,
		ApprovalStageName: params.CurrentStage.Name,
		ApprovedBy:        params.ApprovedBy,
		Action:            params.Action,
		Remark:            params.Remark,
		ApprovalDate:      now,
	}

	switch {
	case finalApproval:
		entry.ApprovalStatus = 1
		entry.NextApprovalStage = nil
		entry.NextActionBy = ""
	case approved:
		entry.ApprovalStatus = 0
		next := params.NextStage.Number
		entry.NextApprovalStage = &next
		entry.NextActionBy = params.NextActionBy
	default:
		entry.ApprovalStatus = 0
		current := params.CurrentStage.Number
		entry.NextApprovalStage = &current
		entry.NextActionBy = ""
	}

	return entry, nil
}
