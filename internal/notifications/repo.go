package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, recipient recipientFilter, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipient recipientFilter, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// recipientFilter addresses rows delivered to a user directly or through any
// of the roles they hold.
type recipientFilter struct {
	UserID uuid.UUID
	Roles  []string
}

type listNotificationsParams struct {
	Recipient  recipientFilter
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) recipientPredicate(query *gorm.DB, recipient recipientFilter) *gorm.DB {
	pred := r.db.Session(&gorm.Session{NewDB: true}).Where("recipient_user_id = ?", recipient.UserID)
	if len(recipient.Roles) > 0 {
		pred = pred.Or("recipient_role IN ?", recipient.Roles)
	}
	return query.Where(pred)
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.recipientPredicate(r.db.WithContext(ctx).Model(&models.Notification{}), params.Recipient)
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, nil, err
	}

	if len(notifications) > normalized {
		next := notifications[normalized]
		notifications = notifications[:normalized]
		return notifications, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return notifications, nil, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, recipient recipientFilter, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.recipientPredicate(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ? AND read_at IS NULL", notificationID),
		recipient,
	).UpdateColumn("read_at", now)
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if result.RowsAffected > 0 {
		mark.Found = true
		return mark, nil
	}

	var count int64
	err := r.recipientPredicate(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", notificationID),
		recipient,
	).Count(&count).Error
	if err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, recipient recipientFilter, now time.Time) (int64, error) {
	result := r.recipientPredicate(
		r.db.WithContext(ctx).Model(&models.Notification{}).Where("read_at IS NULL"),
		recipient,
	).UpdateColumn("read_at", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
