package approvals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
)

// ErrVersionConflict signals a lost optimistic-lock race on a carrier document.
var ErrVersionConflict = errors.New("carrier document version conflict")

// Repository exposes the document reads and the guarded write the stage engine
// needs. All other document persistence lives in the documents package.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetDocument(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error)
	SaveTransition(ctx context.Context, doc *models.CarrierDocument, expectedVersion int) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an engine repository bound to the provided database.
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

// SaveTransition writes the workflow fields guarded by a compare-and-swap on
// lock_version. A concurrent transition that committed first makes the match
// fail with ErrVersionConflict; nothing is written in that case.
func (r *repositoryImpl) SaveTransition(ctx context.Context, doc *models.CarrierDocument, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CarrierDocument{}).
		Where("id = ? AND lock_version = ?", doc.ID, expectedVersion).
		Updates(map[string]any{
			"current_level":   doc.CurrentLevel,
			"approval_status": doc.ApprovalStatus,
			"workflow_state":  doc.WorkflowState,
			"next_approver":   doc.NextApprover,
			"finalized":       doc.Finalized,
			"lock_version":    expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	doc.LockVersion = expectedVersion + 1
	return nil
}
