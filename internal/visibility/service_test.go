package visibility

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
)

func setupVisibilityTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	carrierDocuments := `
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
);`
	require.NoError(t, db.Exec(carrierDocuments).Error)
	return db
}

type stubRoleDirectory struct {
	roles map[uuid.UUID][]string
}

func (s *stubRoleDirectory) RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.roles[userID], nil
}

type stubMatrixSource struct {
	matrices []models.ApprovalMatrix
}

func (s *stubMatrixSource) List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error) {
	return s.matrices, nil
}

func (s *stubMatrixSource) GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error) {
	for i := range s.matrices {
		if s.matrices[i].ID == id {
			return &s.matrices[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func visibilityMatrix() models.ApprovalMatrix {
	m := models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00001",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
	}
	m.Levels = []models.ApprovalLevel{
		{MatrixID: m.ID, Sequence: 1, LevelName: "Manager Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Manager", StatusWhenApproved: "Mgr-OK"},
		{MatrixID: m.ID, Sequence: 2, LevelName: "Finance Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Finance", StatusWhenApproved: "Fin-OK", StatusWhenRejected: "Fin-Rejected"},
		{MatrixID: m.ID, Sequence: 3, LevelName: "Director Signoff", ApproverType: enums.ApproverTypeRole, ApproverValue: "Director", StatusWhenApproved: "Approved"},
	}
	return m
}

type visibilityFixture struct {
	svc      Service
	db       *gorm.DB
	matrix   models.ApprovalMatrix
	admin    uuid.UUID
	vendor   uuid.UUID
	manager  uuid.UUID
	finance  uuid.UUID
	director uuid.UUID
	outsider uuid.UUID
}

func newVisibilityFixture(t *testing.T) *visibilityFixture {
	t.Helper()

	db := setupVisibilityTestDB(t)
	f := &visibilityFixture{
		db:       db,
		matrix:   visibilityMatrix(),
		admin:    uuid.New(),
		vendor:   uuid.New(),
		manager:  uuid.New(),
		finance:  uuid.New(),
		director: uuid.New(),
		outsider: uuid.New(),
	}
	roles := &stubRoleDirectory{roles: map[uuid.UUID][]string{
		f.admin:    {"admin"},
		f.vendor:   {"vendor"},
		f.manager:  {"Manager"},
		f.finance:  {"Finance"},
		f.director: {"Director"},
		f.outsider: {"Clerk"},
	}}
	svc, err := NewService(NewRepository(db), roles, &stubMatrixSource{matrices: []models.ApprovalMatrix{f.matrix}})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *visibilityFixture) seedDocument(t *testing.T, owner uuid.UUID, level int, status enums.ApprovalStatus, state string) *models.CarrierDocument {
	t.Helper()
	doc := &models.CarrierDocument{
		ID:             uuid.New(),
		DocumentType:   enums.DocumentTypeInvoice,
		Title:          "INV-" + uuid.NewString()[:8],
		OwnerID:        owner,
		MatrixID:       f.matrix.ID,
		CurrentLevel:   level,
		ApprovalStatus: status,
		WorkflowState:  state,
	}
	require.NoError(t, f.db.Create(doc).Error)
	doc.Matrix = &f.matrix
	return doc
}

func (f *visibilityFixture) visibleCount(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	scope, err := f.svc.ListScope(context.Background(), userID)
	require.NoError(t, err)
	var count int64
	require.NoError(t, scope(f.db.Model(&models.CarrierDocument{})).Count(&count).Error)
	return count
}

func TestListScopeFailClosed(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, f.vendor, 1, enums.ApprovalStatusPending, "Pending")
	f.seedDocument(t, f.vendor, 2, enums.ApprovalStatusPending, "Mgr-OK")

	assert.EqualValues(t, 0, f.visibleCount(t, f.outsider),
		"user with no qualifying role must see nothing")
}

func TestListScopeAdminSeesEverything(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, f.vendor, 1, enums.ApprovalStatusPending, "Pending")
	f.seedDocument(t, uuid.New(), 3, enums.ApprovalStatusApproved, "Approved")

	assert.EqualValues(t, 2, f.visibleCount(t, f.admin))
}

func TestListScopeOwnerSeesOwnDocuments(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, f.vendor, 2, enums.ApprovalStatusPending, "Mgr-OK")
	f.seedDocument(t, uuid.New(), 1, enums.ApprovalStatusPending, "Pending")

	assert.EqualValues(t, 1, f.visibleCount(t, f.vendor))
}

func TestListScopeReachableStatesPerLevel(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, uuid.New(), 1, enums.ApprovalStatusPending, "Pending")
	f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusPending, "Mgr-OK")
	f.seedDocument(t, uuid.New(), 3, enums.ApprovalStatusPending, "Fin-OK")
	f.seedDocument(t, uuid.New(), 3, enums.ApprovalStatusApproved, "Approved")
	f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusRejected, "Fin-Rejected")

	// Manager reaches Pending and Mgr-OK only.
	assert.EqualValues(t, 2, f.visibleCount(t, f.manager))
	// Finance additionally reaches Fin-OK.
	assert.EqualValues(t, 3, f.visibleCount(t, f.finance))
	// Director holds the terminal level: everything above plus the global
	// terminal states and the terminal level's configured outcomes.
	assert.EqualValues(t, 4, f.visibleCount(t, f.director))
}

func TestListScopeUnionAcrossLevels(t *testing.T) {
	f := newVisibilityFixture(t)
	multi := uuid.New()
	roles := &stubRoleDirectory{roles: map[uuid.UUID][]string{
		multi: {"Manager", "Director"},
	}}
	svc, err := NewService(NewRepository(f.db), roles, &stubMatrixSource{matrices: []models.ApprovalMatrix{f.matrix}})
	require.NoError(t, err)

	f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusPending, "Mgr-OK")
	f.seedDocument(t, uuid.New(), 3, enums.ApprovalStatusApproved, "Approved")

	scope, err := svc.ListScope(context.Background(), multi)
	require.NoError(t, err)
	var count int64
	require.NoError(t, scope(f.db.Model(&models.CarrierDocument{})).Count(&count).Error)
	assert.EqualValues(t, 2, count, "visibility is the union of all matching levels")
}

func TestCanView(t *testing.T) {
	f := newVisibilityFixture(t)
	doc := f.seedDocument(t, f.vendor, 2, enums.ApprovalStatusPending, "Mgr-OK")

	can, err := f.svc.CanView(context.Background(), doc, f.admin)
	require.NoError(t, err)
	assert.True(t, can, "admin override")

	can, err = f.svc.CanView(context.Background(), doc, f.vendor)
	require.NoError(t, err)
	assert.True(t, can, "owner with vendor role")

	can, err = f.svc.CanView(context.Background(), doc, f.manager)
	require.NoError(t, err)
	assert.True(t, can, "Mgr-OK is reachable for the manager level")

	can, err = f.svc.CanView(context.Background(), doc, f.outsider)
	require.NoError(t, err)
	assert.False(t, can, "no qualifying role")

	farAlong := f.seedDocument(t, uuid.New(), 3, enums.ApprovalStatusPending, "Fin-OK")
	can, err = f.svc.CanView(context.Background(), farAlong, f.manager)
	require.NoError(t, err)
	assert.False(t, can, "Fin-OK is beyond the manager level's reachable set")
}

func TestPendingForUser(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, uuid.New(), 1, enums.ApprovalStatusPending, "Pending")
	atFinance := f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusPending, "Mgr-OK")
	f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusRejected, "Fin-Rejected")

	pending, err := f.svc.PendingForUser(context.Background(), f.finance)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, atFinance.ID, pending[0].ID)

	none, err := f.svc.PendingForUser(context.Background(), f.outsider)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAccessSummary(t *testing.T) {
	f := newVisibilityFixture(t)
	f.seedDocument(t, uuid.New(), 1, enums.ApprovalStatusPending, "Pending")
	f.seedDocument(t, uuid.New(), 2, enums.ApprovalStatusPending, "Mgr-OK")

	summary, err := f.svc.AccessSummary(context.Background(), f.manager)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.TotalAccessible)
	assert.EqualValues(t, 1, summary.PendingForUser)
	assert.Equal(t, []string{"Manager"}, summary.Roles)

	empty, err := f.svc.AccessSummary(context.Background(), f.outsider)
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.TotalAccessible)
	assert.EqualValues(t, 0, empty.PendingForUser)
}
