package matrix

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
)

type stubMatrixRepo struct {
	matrices       map[uuid.UUID]*models.ApprovalMatrix
	count          int64
	defaultMatrix  *models.ApprovalMatrix
	clearedDocType string
	replacedLevels []models.ApprovalLevel
}

func newStubMatrixRepo() *stubMatrixRepo {
	return &stubMatrixRepo{matrices: map[uuid.UUID]*models.ApprovalMatrix{}}
}

func (s *stubMatrixRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubMatrixRepo) Create(ctx context.Context, m *models.ApprovalMatrix) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.matrices[m.ID] = m
	s.count++
	return nil
}

func (s *stubMatrixRepo) Update(ctx context.Context, m *models.ApprovalMatrix) error {
	if _, ok := s.matrices[m.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.matrices[m.ID] = m
	return nil
}

func (s *stubMatrixRepo) ReplaceLevels(ctx context.Context, matrixID uuid.UUID, levels []models.ApprovalLevel) error {
	s.replacedLevels = levels
	return nil
}

func (s *stubMatrixRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error) {
	m, ok := s.matrices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (s *stubMatrixRepo) List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error) {
	var out []models.ApprovalMatrix
	for _, m := range s.matrices {
		if !includeInactive && !m.IsActive {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (s *stubMatrixRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.matrices, id)
	return nil
}

func (s *stubMatrixRepo) FindDefault(ctx context.Context, docType string, invoiceType *string) (*models.ApprovalMatrix, error) {
	if s.defaultMatrix == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.defaultMatrix, nil
}

func (s *stubMatrixRepo) Count(ctx context.Context) (int64, error) { return s.count, nil }

func (s *stubMatrixRepo) ClearDefault(ctx context.Context, docType string, exceptID uuid.UUID) error {
	s.clearedDocType = docType
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func validSaveParams() SaveParams {
	return SaveParams{
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
		IsDefault:    true,
		Levels: []LevelParams{
			{LevelName: "Accounts Review", ApproverType: enums.ApproverTypeRole, ApproverValue: "Accounts Manager", StatusWhenApproved: "Reviewed"},
			{LevelName: "Finance Signoff", ApproverType: enums.ApproverTypeRole, ApproverValue: "Finance Controller"},
		},
	}
}

func TestCreateGeneratesNameAndRenumbersLevels(t *testing.T) {
	repo := newStubMatrixRepo()
	repo.count = 4
	outboxStub := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, outboxStub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	created, err := svc.Create(context.Background(), uuid.New(), validSaveParams())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "AM-00005" {
		t.Fatalf("expected generated name AM-00005, got %q", created.Name)
	}
	for i, level := range created.Levels {
		if level.Sequence != i+1 {
			t.Fatalf("expected contiguous sequence %d, got %d", i+1, level.Sequence)
		}
	}
	if repo.clearedDocType != string(enums.DocumentTypeInvoice) {
		t.Fatalf("expected default cleared for invoice, got %q", repo.clearedDocType)
	}
	if len(outboxStub.events) != 1 || outboxStub.events[0].EventType != enums.EventApprovalMatrixActivated {
		t.Fatalf("expected one activation event, got %+v", outboxStub.events)
	}
}

func TestCreateValidatesLevels(t *testing.T) {
	svc, err := NewService(newStubMatrixRepo(), stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*SaveParams)
	}{
		{"no levels", func(p *SaveParams) { p.Levels = nil }},
		{"blank level name", func(p *SaveParams) { p.Levels[0].LevelName = "  " }},
		{"invalid approver type", func(p *SaveParams) { p.Levels[1].ApproverType = "group" }},
		{"blank approver value", func(p *SaveParams) { p.Levels[1].ApproverValue = "" }},
		{"invalid document type", func(p *SaveParams) { p.DocumentType = "memo" }},
	}
	for _, tc := range cases {
		params := validSaveParams()
		tc.mutate(&params)
		_, err := svc.Create(context.Background(), uuid.New(), params)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestUpdateRenumbersAndEmitsOnActivation(t *testing.T) {
	repo := newStubMatrixRepo()
	existing := &models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00001",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     false,
	}
	repo.matrices[existing.ID] = existing
	outboxStub := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, outboxStub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	params := validSaveParams()
	params.IsDefault = false
	updated, err := svc.Update(context.Background(), uuid.New(), existing.ID, params)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "AM-00001" {
		t.Fatalf("update must not regenerate the name, got %q", updated.Name)
	}
	if len(repo.replacedLevels) != 2 {
		t.Fatalf("expected levels replaced, got %d", len(repo.replacedLevels))
	}
	for i, level := range repo.replacedLevels {
		if level.Sequence != i+1 {
			t.Fatalf("expected renumbered sequence %d, got %d", i+1, level.Sequence)
		}
	}
	if len(outboxStub.events) != 1 {
		t.Fatalf("expected activation event on inactive to active flip, got %d", len(outboxStub.events))
	}
}

func TestUpdateAlreadyActiveDoesNotReEmit(t *testing.T) {
	repo := newStubMatrixRepo()
	existing := &models.ApprovalMatrix{
		ID:           uuid.New(),
		Name:         "AM-00002",
		DocumentType: enums.DocumentTypeInvoice,
		IsActive:     true,
	}
	repo.matrices[existing.ID] = existing
	outboxStub := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, outboxStub)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	params := validSaveParams()
	params.IsDefault = false
	if _, err := svc.Update(context.Background(), uuid.New(), existing.ID, params); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(outboxStub.events) != 0 {
		t.Fatalf("expected no event for already active matrix, got %d", len(outboxStub.events))
	}
}

func TestUpdateMissingMatrixReturnsNotFound(t *testing.T) {
	svc, err := NewService(newStubMatrixRepo(), stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.Update(context.Background(), uuid.New(), uuid.New(), validSaveParams())
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", gotErr)
	}
}

func TestSelectForDocumentReturnsNotFoundWhenNoDefault(t *testing.T) {
	svc, err := NewService(newStubMatrixRepo(), stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.SelectForDocument(context.Background(), enums.DocumentTypeInvoice, nil)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", gotErr)
	}
}

func TestSelectForDocumentRejectsInvalidType(t *testing.T) {
	svc, err := NewService(newStubMatrixRepo(), stubTxRunner{}, &stubOutboxPublisher{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, gotErr := svc.SelectForDocument(context.Background(), "memo", nil)
	if typed := pkgerrors.As(gotErr); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", gotErr)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(nil, stubTxRunner{}, &stubOutboxPublisher{}); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if _, err := NewService(newStubMatrixRepo(), nil, &stubOutboxPublisher{}); err == nil {
		t.Fatal("expected error for nil tx runner")
	}
	if _, err := NewService(newStubMatrixRepo(), stubTxRunner{}, nil); err == nil {
		t.Fatal("expected error for nil outbox publisher")
	}
}
