package matrix

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
)

// Repository exposes persistence helpers for approval matrices.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, m *models.ApprovalMatrix) error
	Update(ctx context.Context, m *models.ApprovalMatrix) error
	ReplaceLevels(ctx context.Context, matrixID uuid.UUID, levels []models.ApprovalLevel) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error)
	List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindDefault(ctx context.Context, docType string, invoiceType *string) (*models.ApprovalMatrix, error)
	Count(ctx context.Context) (int64, error)
	ClearDefault(ctx context.Context, docType string, exceptID uuid.UUID) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a matrix repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, m *models.ApprovalMatrix) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repositoryImpl) Update(ctx context.Context, m *models.ApprovalMatrix) error {
	return r.db.WithContext(ctx).
		Model(&models.ApprovalMatrix{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"name":          m.Name,
			"document_type": m.DocumentType,
			"invoice_type":  m.InvoiceType,
			"is_active":     m.IsActive,
			"is_default":    m.IsDefault,
		}).Error
}

// ReplaceLevels swaps the full level set of a matrix. Level rows are owned by
// the matrix, so replacement is delete-then-insert inside the caller's
// transaction.
func (r *repositoryImpl) ReplaceLevels(ctx context.Context, matrixID uuid.UUID, levels []models.ApprovalLevel) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("matrix_id = ?", matrixID).Delete(&models.ApprovalLevel{}).Error; err != nil {
		return err
	}
	if len(levels) == 0 {
		return nil
	}
	for i := range levels {
		levels[i].MatrixID = matrixID
	}
	return db.Create(&levels).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error) {
	var m models.ApprovalMatrix
	err := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repositoryImpl) List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error) {
	query := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Order("created_at ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var matrices []models.ApprovalMatrix
	if err := query.Find(&matrices).Error; err != nil {
		return nil, err
	}
	return matrices, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ApprovalMatrix{}, "id = ?", id).Error
}

// FindDefault resolves the matrix used for new documents of a type. An exact
// (document_type, invoice_type) default wins over the document-type default.
func (r *repositoryImpl) FindDefault(ctx context.Context, docType string, invoiceType *string) (*models.ApprovalMatrix, error) {
	base := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("document_type = ? AND is_active = ? AND is_default = ?", docType, true, true)

	var m models.ApprovalMatrix
	if invoiceType != nil {
		err := base.Session(&gorm.Session{}).Where("invoice_type = ?", *invoiceType).First(&m).Error
		if err == nil {
			return &m, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	err := base.Session(&gorm.Session{}).Where("invoice_type IS NULL").First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ApprovalMatrix{}).Count(&count).Error
	return count, err
}

// ClearDefault unsets the default flag on every other matrix for the type so
// at most one default exists per document type.
func (r *repositoryImpl) ClearDefault(ctx context.Context, docType string, exceptID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ApprovalMatrix{}).
		Where("document_type = ? AND id <> ?", docType, exceptID).
		Update("is_default", false).Error
}
