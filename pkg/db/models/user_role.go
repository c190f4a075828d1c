package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole assigns a role string to a user. Role names are free-form so that
// approval levels can reference any role an administrator configures.
type UserRole struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_user_roles_user_role,priority:1"`
	Role      string    `gorm:"column:role;not null;uniqueIndex:ux_user_roles_user_role,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
