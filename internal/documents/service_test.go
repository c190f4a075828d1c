package documents

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/pagination"
)

type stubDocumentsRepo struct {
	docs       map[uuid.UUID]*models.CarrierDocument
	created    []*models.CarrierDocument
	listResult []models.CarrierDocument
	listNext   *pagination.Cursor
}

func newStubDocumentsRepo() *stubDocumentsRepo {
	return &stubDocumentsRepo{docs: map[uuid.UUID]*models.CarrierDocument{}}
}

func (s *stubDocumentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubDocumentsRepo) Create(ctx context.Context, doc *models.CarrierDocument) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	s.docs[doc.ID] = doc
	s.created = append(s.created, doc)
	return nil
}

func (s *stubDocumentsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (s *stubDocumentsRepo) List(ctx context.Context, scope visibility.Scope, params listDocumentsParams) ([]models.CarrierDocument, *pagination.Cursor, error) {
	return s.listResult, s.listNext, nil
}

type stubMatrixSelector struct {
	matrix *models.ApprovalMatrix
	err    error
}

func (s *stubMatrixSelector) SelectForDocument(ctx context.Context, docType enums.DocumentType, invoiceType *string) (*models.ApprovalMatrix, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.matrix, nil
}

type stubVisibility struct {
	canView bool
}

func (s *stubVisibility) CanView(ctx context.Context, doc *models.CarrierDocument, userID uuid.UUID) (bool, error) {
	return s.canView, nil
}

func (s *stubVisibility) ListScope(ctx context.Context, userID uuid.UUID) (visibility.Scope, error) {
	return func(db *gorm.DB) *gorm.DB { return db }, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func documentTestMatrix() *models.ApprovalMatrix {
	m := &models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00001",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
	}
	m.Levels = []models.ApprovalLevel{
		{MatrixID: m.ID, Sequence: 1, LevelName: "Manager Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Manager", StatusWhenApproved: "Mgr-OK"},
		{MatrixID: m.ID, Sequence: 2, LevelName: "Finance Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Finance"},
	}
	return m
}

func newDocumentsService(t *testing.T, repo Repository, selector matrixSelector, vis documentVisibility, outboxStub *stubOutboxPublisher) Service {
	t.Helper()
	svc, err := NewService(repo, selector, vis, stubTxRunner{}, outboxStub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCreateSeedsFirstLevel(t *testing.T) {
	repo := newStubDocumentsRepo()
	outboxStub := &stubOutboxPublisher{}
	svc := newDocumentsService(t, repo, &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{}, outboxStub)

	doc, err := svc.Create(context.Background(), CreateParams{
		DocumentType: enums.DocumentTypeInvoice,
		Title:        "INV-1001",
		OwnerID:      uuid.New(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.CurrentLevel != 1 {
		t.Fatalf("expected first level seed, got %d", doc.CurrentLevel)
	}
	if doc.ApprovalStatus != enums.ApprovalStatusPending || doc.WorkflowState != "Pending" {
		t.Fatalf("expected pending seed, got %s %q", doc.ApprovalStatus, doc.WorkflowState)
	}
	if doc.NextApprover != "Manager" {
		t.Fatalf("expected first approver Manager, got %q", doc.NextApprover)
	}
	if doc.Currency != "USD" {
		t.Fatalf("expected default currency USD, got %q", doc.Currency)
	}
	if len(outboxStub.events) != 2 {
		t.Fatalf("expected created plus notification event, got %d", len(outboxStub.events))
	}
	if outboxStub.events[0].EventType != enums.EventCarrierDocumentCreated {
		t.Fatalf("expected created event first, got %s", outboxStub.events[0].EventType)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newDocumentsService(t, newStubDocumentsRepo(), &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{}, &stubOutboxPublisher{})

	cases := []struct {
		name   string
		params CreateParams
	}{
		{"invalid type", CreateParams{DocumentType: "memo", Title: "x", OwnerID: uuid.New()}},
		{"blank title", CreateParams{DocumentType: enums.DocumentTypeInvoice, Title: " ", OwnerID: uuid.New()}},
		{"missing owner", CreateParams{DocumentType: enums.DocumentTypeInvoice, Title: "x"}},
	}
	for _, tc := range cases {
		_, err := svc.Create(context.Background(), tc.params)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCreatePropagatesMissingMatrix(t *testing.T) {
	selector := &stubMatrixSelector{err: pkgerrors.New(pkgerrors.CodeNotFound, "no active default matrix")}
	svc := newDocumentsService(t, newStubDocumentsRepo(), selector, &stubVisibility{}, &stubOutboxPublisher{})

	_, err := svc.Create(context.Background(), CreateParams{
		DocumentType: enums.DocumentTypeInvoice,
		Title:        "INV-1001",
		OwnerID:      uuid.New(),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetEnforcesVisibility(t *testing.T) {
	repo := newStubDocumentsRepo()
	doc := &models.CarrierDocument{ID: uuid.New(), DocumentType: enums.DocumentTypeInvoice, Title: "INV"}
	repo.docs[doc.ID] = doc

	hidden := newDocumentsService(t, repo, &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{canView: false}, &stubOutboxPublisher{})
	_, err := hidden.Get(context.Background(), doc.ID, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	open := newDocumentsService(t, repo, &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{canView: true}, &stubOutboxPublisher{})
	loaded, err := open.Get(context.Background(), doc.ID, uuid.New())
	if err != nil || loaded.ID != doc.ID {
		t.Fatalf("expected document back, got %v %v", loaded, err)
	}
}

func TestGetMissingDocument(t *testing.T) {
	svc := newDocumentsService(t, newStubDocumentsRepo(), &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{canView: true}, &stubOutboxPublisher{})
	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEncodesNextCursor(t *testing.T) {
	repo := newStubDocumentsRepo()
	next := &pagination.Cursor{ID: uuid.New()}
	repo.listResult = []models.CarrierDocument{{ID: uuid.New()}}
	repo.listNext = next
	svc := newDocumentsService(t, repo, &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{canView: true}, &stubOutboxPublisher{})

	result, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Cursor == "" {
		t.Fatalf("expected one item and a cursor, got %+v", result)
	}
	decoded, err := pagination.ParseCursor(result.Cursor)
	if err != nil || decoded.ID != next.ID {
		t.Fatalf("cursor mismatch: %v %v", decoded, err)
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	svc := newDocumentsService(t, newStubDocumentsRepo(), &stubMatrixSelector{matrix: documentTestMatrix()}, &stubVisibility{canView: true}, &stubOutboxPublisher{})
	_, err := svc.List(context.Background(), ListParams{UserID: uuid.New(), Cursor: "bad"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
