package documents

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// CreateParams carries the caller-supplied fields of a new carrier document.
// The approval matrix, level seed and workflow state are derived, never given.
type CreateParams struct {
	DocumentType enums.DocumentType
	Title        string
	VendorName   string
	Amount       decimal.Decimal
	Currency     string
	InvoiceType  *string
	OwnerID      uuid.UUID
}

// ListParams configures a visibility-scoped document listing.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned documents and the cursor for the next page.
type ListResult struct {
	Items  []models.CarrierDocument `json:"items"`
	Cursor string                   `json:"cursor"`
}
