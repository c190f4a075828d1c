package approvals

import (
	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// DecideParams is one approve/reject action against one carrier document.
type DecideParams struct {
	DocumentID uuid.UUID
	ActingUser uuid.UUID
	Action     enums.DecisionAction
	Comments   string
}

// BulkDecideParams applies the same action to a list of documents. Each
// document transitions in its own transaction.
type BulkDecideParams struct {
	DocumentIDs []uuid.UUID
	ActingUser  uuid.UUID
	Action      enums.DecisionAction
	Comments    string
}

// BulkError records one failed document in a bulk request.
type BulkError struct {
	DocumentID uuid.UUID `json:"document_id"`
	Error      string    `json:"error"`
}

// BulkResult aggregates per-document outcomes of a bulk request.
type BulkResult struct {
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Errors       []BulkError `json:"errors"`
}
