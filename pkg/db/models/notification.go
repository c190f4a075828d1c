package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

// Notification stores an in-app notification addressed to a user or a role.
// Exactly one of RecipientUserID / RecipientRole is set.
type Notification struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientUserID *uuid.UUID             `gorm:"column:recipient_user_id;type:uuid"`
	RecipientRole   *string                `gorm:"column:recipient_role"`
	DocumentID      *uuid.UUID             `gorm:"column:document_id;type:uuid"`
	Type            enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title           string                 `gorm:"column:title;type:text;not null"`
	Message         string                 `gorm:"column:message;type:text;not null"`
	ReadAt          *time.Time             `gorm:"column:read_at;type:timestamptz"`
	CreatedAt       time.Time              `gorm:"column:created_at;type:timestamptz;default:now()"`
}
