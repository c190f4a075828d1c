package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalHistoryEntry is one append-only audit row for an approval action.
// Rows are never updated or deleted; the ApprovalStatus column keeps the
// legacy 0/1 shape expected by downstream consumers of the audit trail.
type ApprovalHistoryEntry struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID        uuid.UUID `gorm:"column:document_id;type:uuid;not null;index"`
	ForDocType        string    `gorm:"column:for_doc_type;not null"`
	ApprovalStage     int       `gorm:"column:approval_stage;not null"`
	ApprovalStageName string    `gorm:"column:approval_stage_name;not null"`
	ApprovedBy        uuid.UUID `gorm:"column:approved_by;type:uuid;not null"`
	Action            string    `gorm:"column:action;not null"`
	Remark            string    `gorm:"column:remark"`
	ApprovalStatus    int       `gorm:"column:approval_status;not null;default:0"`
	NextApprovalStage *int      `gorm:"column:next_approval_stage"`
	NextActionBy      string    `gorm:"column:next_action_by"`
	ApprovalDate      time.Time `gorm:"column:approval_date;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
}
