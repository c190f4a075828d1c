package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// CarrierDocument is a business document travelling through an approval matrix.
// Its approval state is the triple (CurrentLevel, ApprovalStatus, WorkflowState)
// and is mutated only by the stage engine.
type CarrierDocument struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentType enums.DocumentType `gorm:"column:document_type;type:document_type;not null"`
	Title        string             `gorm:"column:title;not null"`
	VendorName   string             `gorm:"column:vendor_name"`
	Amount       decimal.Decimal    `gorm:"column:amount;type:numeric(14,2);not null;default:0"`
	Currency     string             `gorm:"column:currency;not null;default:'USD'"`
	OwnerID      uuid.UUID          `gorm:"column:owner_id;type:uuid;not null"`

	MatrixID       uuid.UUID            `gorm:"column:matrix_id;type:uuid;not null"`
	Matrix         *ApprovalMatrix      `gorm:"foreignKey:MatrixID"`
	CurrentLevel   int                  `gorm:"column:current_level;not null"`
	ApprovalStatus enums.ApprovalStatus `gorm:"column:approval_status;type:approval_status;not null;default:'pending'"`
	WorkflowState  string               `gorm:"column:workflow_state;not null;default:'Pending'"`
	NextApprover   string               `gorm:"column:next_approver"`
	Finalized      bool                 `gorm:"column:finalized;not null;default:false"`

	ChangeRequestDescription *string    `gorm:"column:change_request_description"`
	ChangeRequestedBy        *uuid.UUID `gorm:"column:change_requested_by;type:uuid"`
	ChangeRequestedAt        *time.Time `gorm:"column:change_requested_at"`

	// LockVersion guards concurrent transitions; every engine save is a
	// compare-and-swap on this column.
	LockVersion int `gorm:"column:lock_version;not null;default:0"`

	History   []ApprovalHistoryEntry `gorm:"foreignKey:DocumentID"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// HasPendingChangeRequest reports whether an out-of-band change request is open.
func (d *CarrierDocument) HasPendingChangeRequest() bool {
	return d != nil && d.ChangeRequestDescription != nil
}
