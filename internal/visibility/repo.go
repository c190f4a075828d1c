package visibility

import (
	"context"

	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
)

// Repository runs carrier-document queries under a visibility scope.
type Repository interface {
	CountDocuments(ctx context.Context, scope Scope) (int64, error)
	ListDocuments(ctx context.Context, scope Scope) ([]models.CarrierDocument, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a visibility repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) CountDocuments(ctx context.Context, scope Scope) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.CarrierDocument{})
	err := scope(query).Count(&count).Error
	return count, err
}

func (r *repositoryImpl) ListDocuments(ctx context.Context, scope Scope) ([]models.CarrierDocument, error) {
	var docs []models.CarrierDocument
	query := r.db.WithContext(ctx).Model(&models.CarrierDocument{}).Order("created_at ASC")
	if err := scope(query).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}
