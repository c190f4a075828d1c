package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
)

// Repository persists audit rows. Rows are insert-only; there is deliberately
// no update or delete method.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertEntry(ctx context.Context, entry *models.ApprovalHistoryEntry) error
	ListForDocument(ctx context.Context, documentID uuid.UUID) ([]models.ApprovalHistoryEntry, error)
	CountForDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit-trail repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) InsertEntry(ctx context.Context, entry *models.ApprovalHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) ListForDocument(ctx context.Context, documentID uuid.UUID) ([]models.ApprovalHistoryEntry, error) {
	var entries []models.ApprovalHistoryEntry
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repositoryImpl) CountForDocument(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ApprovalHistoryEntry{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	return count, err
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Recorder appends validated audit rows for carrier documents.
type Recorder struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewRecorder wires recorder dependencies.
func NewRecorder(repo Repository, tx txRunner) (*Recorder, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	return &Recorder{repo: repo, tx: tx, now: time.Now}, nil
}

// Append builds and persists one audit row in its own transaction.
func (r *Recorder) Append(ctx context.Context, doc *models.CarrierDocument, params EntryParams) (*models.ApprovalHistoryEntry, error) {
	var entry *models.ApprovalHistoryEntry
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		appended, err := r.AppendTx(ctx, tx, doc, params)
		if err != nil {
			return err
		}
		entry = appended
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AppendTx builds and persists one audit row inside the caller's transaction.
// The stage engine uses this so the row commits or rolls back together with the
// document state change.
func (r *Recorder) AppendTx(ctx context.Context, tx *gorm.DB, doc *models.CarrierDocument, params EntryParams) (*models.ApprovalHistoryEntry, error) {
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier document required")
	}
	if err := ensureHistoryChildTable(); err != nil {
		return nil, err
	}

	entry, err := BuildEntry(doc.ID, params, r.now())
	if err != nil {
		return nil, withEntryContext(err, doc, params)
	}
	if err := r.repo.WithTx(tx).InsertEntry(ctx, entry); err != nil {
		return nil, withEntryContext(
			pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append approval history entry"), doc, params)
	}
	return entry, nil
}

// withEntryContext attaches sanitized diagnostic context. Only identifiers and
// stage numbers are included, never document contents.
func withEntryContext(err error, doc *models.CarrierDocument, params EntryParams) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	details := map[string]any{
		"document_id":   doc.ID.String(),
		"document_type": params.DocType,
		"current_stage": params.CurrentStage.Number,
		"action":        params.Action,
	}
	if params.NextStage != nil {
		details["next_stage"] = params.NextStage.Number
	}
	return typed.WithDetails(details)
}

var (
	historySchemaOnce sync.Once
	historySchemaErr  error
)

// ensureHistoryChildTable verifies the carrier-document model still declares
// its history association. A model refactor that drops the child table would
// otherwise surface as an opaque insert failure much later.
func ensureHistoryChildTable() error {
	historySchemaOnce.Do(func() {
		parsed, err := schema.Parse(&models.CarrierDocument{}, &sync.Map{}, schema.NamingStrategy{})
		if err != nil {
			historySchemaErr = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse carrier document schema")
			return
		}
		if _, ok := parsed.Relationships.Relations["History"]; !ok {
			historySchemaErr = pkgerrors.New(pkgerrors.CodeInternal,
				"carrier document schema declares no history child table")
		}
	})
	return historySchemaErr
}
