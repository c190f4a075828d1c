package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/pagination"
)

// Repository exposes persistence helpers for carrier documents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, doc *models.CarrierDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error)
	List(ctx context.Context, scope visibility.Scope, params listDocumentsParams) ([]models.CarrierDocument, *pagination.Cursor, error)
}

type listDocumentsParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a documents repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, doc *models.CarrierDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error) {
	var doc models.CarrierDocument
	err := r.db.WithContext(ctx).
		Preload("Matrix.Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repositoryImpl) List(ctx context.Context, scope visibility.Scope, params listDocumentsParams) ([]models.CarrierDocument, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := scope(r.db.WithContext(ctx).Model(&models.CarrierDocument{}))
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var docs []models.CarrierDocument
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&docs).Error; err != nil {
		return nil, nil, err
	}

	if len(docs) > normalized {
		next := docs[normalized]
		docs = docs[:normalized]
		return docs, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return docs, nil, nil
}
