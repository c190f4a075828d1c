package changerequests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
)

// Repository persists the change-request annotation on carrier documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetDocument(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error)
	SetChangeRequest(ctx context.Context, id uuid.UUID, description string, requestedBy uuid.UUID, at time.Time) error
	ClearChangeRequest(ctx context.Context, id uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a change-request repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) GetDocument(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error) {
	var doc models.CarrierDocument
	err := r.db.WithContext(ctx).
		Preload("Matrix.Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repositoryImpl) SetChangeRequest(ctx context.Context, id uuid.UUID, description string, requestedBy uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CarrierDocument{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"change_request_description": description,
			"change_requested_by":        requestedBy,
			"change_requested_at":        at,
		}).Error
}

func (r *repositoryImpl) ClearChangeRequest(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CarrierDocument{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"change_request_description": nil,
			"change_requested_by":        nil,
			"change_requested_at":        nil,
		}).Error
}
