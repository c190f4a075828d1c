package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// ApprovalMatrix is the ordered definition of who must approve a document type
// and in what order. A matrix is bound to a carrier document at creation time
// and never re-selected for that document afterwards.
type ApprovalMatrix struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string             `gorm:"column:name;not null;uniqueIndex"`
	DocumentType enums.DocumentType `gorm:"column:document_type;type:document_type;not null"`
	InvoiceType  *string            `gorm:"column:invoice_type"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	IsDefault    bool               `gorm:"column:is_default;not null;default:false"`
	Levels       []ApprovalLevel    `gorm:"foreignKey:MatrixID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
