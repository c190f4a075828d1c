package documents

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

func setupDocumentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS approval_matrices (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  document_type TEXT NOT NULL,
  invoice_type TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS approval_levels (
  id TEXT PRIMARY KEY,
  matrix_id TEXT NOT NULL,
  sequence INTEGER NOT NULL,
  level_name TEXT NOT NULL,
  approver_type TEXT NOT NULL,
  approver_value TEXT NOT NULL,
  status_when_approved TEXT,
  status_when_rejected TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carrier_documents (
  id TEXT PRIMARY KEY,
  document_type TEXT NOT NULL,
  title TEXT NOT NULL,
  vendor_name TEXT,
  amount NUMERIC NOT NULL DEFAULT 0,
  currency TEXT NOT NULL DEFAULT 'USD',
  owner_id TEXT NOT NULL,
  matrix_id TEXT NOT NULL,
  current_level INTEGER NOT NULL,
  approval_status TEXT NOT NULL DEFAULT 'pending',
  workflow_state TEXT NOT NULL DEFAULT 'Pending',
  next_approver TEXT,
  finalized INTEGER NOT NULL DEFAULT 0,
  change_request_description TEXT,
  change_requested_by TEXT,
  change_requested_at DATETIME,
  lock_version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS approval_history_entries (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  for_doc_type TEXT NOT NULL,
  approval_stage INTEGER NOT NULL,
  approval_stage_name TEXT NOT NULL,
  approved_by TEXT NOT NULL,
  action TEXT NOT NULL,
  remark TEXT,
  approval_status INTEGER NOT NULL DEFAULT 0,
  next_approval_stage INTEGER,
  next_action_by TEXT,
  approval_date DATETIME NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedMatrixRow(t *testing.T, db *gorm.DB) *models.ApprovalMatrix {
	t.Helper()
	m := &models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00001",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
		Levels: []models.ApprovalLevel{
			{ID: uuid.New(), Sequence: 1, LevelName: "Manager Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Manager", StatusWhenApproved: "Mgr-OK"},
			{ID: uuid.New(), Sequence: 2, LevelName: "Finance Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Finance", StatusWhenApproved: "Fin-OK"},
		},
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func passthroughScope(db *gorm.DB) *gorm.DB { return db }

func TestRepositoryCreateAndGetByID(t *testing.T) {
	db := setupDocumentsTestDB(t)
	repo := NewRepository(db)
	m := seedMatrixRow(t, db)

	doc := &models.CarrierDocument{
		ID:             uuid.New(),
		DocumentType:   enums.DocumentTypeInvoice,
		Title:          "INV-1001",
		OwnerID:        uuid.New(),
		MatrixID:       m.ID,
		CurrentLevel:   1,
		ApprovalStatus: enums.ApprovalStatusPending,
		WorkflowState:  "Pending",
	}
	require.NoError(t, repo.Create(context.Background(), doc))

	entry := &models.ApprovalHistoryEntry{
		ID:                uuid.New(),
		DocumentID:        doc.ID,
		ForDocType:        "invoice",
		ApprovalStage:     1,
		ApprovalStageName: "Manager Review",
		ApprovedBy:        uuid.New(),
		Action:            "Approved",
		ApprovalDate:      time.Now(),
	}
	require.NoError(t, db.Create(entry).Error)

	loaded, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Matrix)
	assert.Len(t, loaded.Matrix.Levels, 2)
	assert.Equal(t, 1, loaded.Matrix.Levels[0].Sequence, "levels preloaded in sequence order")
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "Approved", loaded.History[0].Action)
}

func TestRepositoryGetByIDMissing(t *testing.T) {
	db := setupDocumentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListPaginates(t *testing.T) {
	db := setupDocumentsTestDB(t)
	repo := NewRepository(db)
	m := seedMatrixRow(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		doc := &models.CarrierDocument{
			ID:             uuid.New(),
			DocumentType:   enums.DocumentTypeInvoice,
			Title:          "INV",
			OwnerID:        uuid.New(),
			MatrixID:       m.ID,
			CurrentLevel:   1,
			ApprovalStatus: enums.ApprovalStatusPending,
			WorkflowState:  "Pending",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), doc))
	}

	first, next, err := repo.List(context.Background(), passthroughScope, listDocumentsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, next, "a third row must produce a next cursor")
	assert.True(t, first[0].CreatedAt.After(first[1].CreatedAt), "newest first")

	second, last, err := repo.List(context.Background(), passthroughScope, listDocumentsParams{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Nil(t, last)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.NotEqual(t, first[1].ID, second[0].ID)
}

func TestRepositoryListAppliesScope(t *testing.T) {
	db := setupDocumentsTestDB(t)
	repo := NewRepository(db)
	m := seedMatrixRow(t, db)
	owner := uuid.New()

	for _, ownerID := range []uuid.UUID{owner, uuid.New()} {
		doc := &models.CarrierDocument{
			ID:             uuid.New(),
			DocumentType:   enums.DocumentTypeInvoice,
			Title:          "INV",
			OwnerID:        ownerID,
			MatrixID:       m.ID,
			CurrentLevel:   1,
			ApprovalStatus: enums.ApprovalStatusPending,
			WorkflowState:  "Pending",
		}
		require.NoError(t, repo.Create(context.Background(), doc))
	}

	ownerOnly := func(q *gorm.DB) *gorm.DB { return q.Where("owner_id = ?", owner) }
	rows, _, err := repo.List(context.Background(), ownerOnly, listDocumentsParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, owner, rows[0].OwnerID)
}
