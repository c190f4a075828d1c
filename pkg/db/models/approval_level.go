package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// ApprovalLevel is one step of an approval matrix. Sequence values are unique
// within a matrix and renumbered to display order on every matrix save; the
// level with the highest sequence is the terminal level.
type ApprovalLevel struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MatrixID           uuid.UUID          `gorm:"column:matrix_id;type:uuid;not null;uniqueIndex:ux_approval_levels_matrix_sequence,priority:1"`
	Sequence           int                `gorm:"column:sequence;not null;uniqueIndex:ux_approval_levels_matrix_sequence,priority:2"`
	LevelName          string             `gorm:"column:level_name;not null"`
	ApproverType       enums.ApproverType `gorm:"column:approver_type;type:approver_type;not null"`
	ApproverValue      string             `gorm:"column:approver_value;not null"`
	StatusWhenApproved string             `gorm:"column:status_when_approved"`
	StatusWhenRejected string             `gorm:"column:status_when_rejected"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
