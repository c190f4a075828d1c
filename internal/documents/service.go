package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox/payloads"
	"github.com/meridianerp/vendorhub-backend/pkg/pagination"
)

// Service defines carrier-document lifecycle operations outside the stage
// engine: creation, detail reads and visibility-scoped listings.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.CarrierDocument, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.CarrierDocument, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type matrixSelector interface {
	SelectForDocument(ctx context.Context, docType enums.DocumentType, invoiceType *string) (*models.ApprovalMatrix, error)
}

type documentVisibility interface {
	CanView(ctx context.Context, doc *models.CarrierDocument, userID uuid.UUID) (bool, error)
	ListScope(ctx context.Context, userID uuid.UUID) (visibility.Scope, error)
}

type service struct {
	repo       Repository
	matrices   matrixSelector
	visibility documentVisibility
	tx         txRunner
	outbox     outboxPublisher
}

// NewService wires document dependencies.
func NewService(repo Repository, matrices matrixSelector, vis documentVisibility, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "documents repository required")
	}
	if matrices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matrix selector required")
	}
	if vis == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "visibility service required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, matrices: matrices, visibility: vis, tx: tx, outbox: outboxSvc}, nil
}

// Create binds a new document to its matrix and parks it on the first level.
// The matrix choice is permanent for the document; edits to the matrix later
// never re-route an in-flight document.
func (s *service) Create(ctx context.Context, params CreateParams) (*models.CarrierDocument, error) {
	if err := validateCreateParams(params); err != nil {
		return nil, err
	}

	m, err := s.matrices.SelectForDocument(ctx, params.DocumentType, params.InvoiceType)
	if err != nil {
		return nil, err
	}
	dir, err := matrix.NewDirectory(m)
	if err != nil {
		return nil, err
	}
	first := dir.First()

	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "USD"
	}

	doc := &models.CarrierDocument{
		DocumentType:   params.DocumentType,
		Title:          strings.TrimSpace(params.Title),
		VendorName:     strings.TrimSpace(params.VendorName),
		Amount:         params.Amount,
		Currency:       currency,
		OwnerID:        params.OwnerID,
		MatrixID:       m.ID,
		CurrentLevel:   first.Sequence,
		ApprovalStatus: enums.ApprovalStatusPending,
		WorkflowState:  "Pending",
		NextApprover:   first.ApproverValue,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, doc); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create carrier document")
		}

		actor := &outbox.ActorRef{UserID: params.OwnerID}
		created := outbox.DomainEvent{
			EventType:     enums.EventCarrierDocumentCreated,
			AggregateType: enums.AggregateCarrierDocument,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.CarrierDocumentCreatedEvent{
				DocumentID:   doc.ID,
				DocumentType: doc.DocumentType,
				MatrixID:     m.ID,
				OwnerID:      doc.OwnerID,
			},
		}
		if err := s.outbox.Emit(ctx, tx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit document created event")
		}

		notification := payloads.NotificationRequestedEvent{
			DocumentID: doc.ID,
			Type:       enums.NotificationApprovalPending,
		}
		if first.ApproverType == enums.ApproverTypeUser {
			if recipient, parseErr := uuid.Parse(first.ApproverValue); parseErr == nil {
				notification.RecipientID = &recipient
			}
		} else {
			notification.RecipientRole = first.ApproverValue
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data:          notification,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit approver notification event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc.Matrix = m
	return doc, nil
}

// Get loads a document with its history, gated by the visibility rules.
func (s *service) Get(ctx context.Context, id, userID uuid.UUID) (*models.CarrierDocument, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "carrier document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carrier document")
	}

	can, err := s.visibility.CanView(ctx, doc, userID)
	if err != nil {
		return nil, err
	}
	if !can {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "document is not visible to this user")
	}
	return doc, nil
}

// List returns the user's visible documents, newest first, cursor paginated.
func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	scope, err := s.visibility.ListScope(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	query := listDocumentsParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, scope, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list carrier documents")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func validateCreateParams(params CreateParams) error {
	if !params.DocumentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid document type %q", params.DocumentType))
	}
	if strings.TrimSpace(params.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if params.OwnerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if params.Amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative")
	}
	return nil
}
