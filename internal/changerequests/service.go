package changerequests

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox/payloads"
)

// Service handles the change-request side channel. A change request annotates
// a document without touching the stage machine's state; the engine never
// consults it when applying decisions.
type Service interface {
	Open(ctx context.Context, documentID, requestedBy uuid.UUID, description string) (*models.CarrierDocument, error)
	Complete(ctx context.Context, documentID, actingUser uuid.UUID) (*models.CarrierDocument, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires change-request dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "change request repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

// Open flags the document with a pending change request and notifies the
// approver of the current level.
func (s *service) Open(ctx context.Context, documentID, requestedBy uuid.UUID, description string) (*models.CarrierDocument, error) {
	description = strings.TrimSpace(description)
	if documentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	if requestedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requesting user required")
	}
	if description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "change description required")
	}

	var updated *models.CarrierDocument
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		doc, err := repo.GetDocument(ctx, documentID)
		if err != nil {
			return notFoundOrDependency(err, "carrier document not found")
		}
		if doc.HasPendingChangeRequest() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a change request is already open for this document")
		}

		now := time.Now().UTC()
		if err := repo.SetChangeRequest(ctx, doc.ID, description, requestedBy, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flag change request")
		}
		doc.ChangeRequestDescription = &description
		doc.ChangeRequestedBy = &requestedBy
		doc.ChangeRequestedAt = &now

		actor := &outbox.ActorRef{UserID: requestedBy}
		opened := outbox.DomainEvent{
			EventType:     enums.EventChangeRequestOpened,
			AggregateType: enums.AggregateCarrierDocument,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.ChangeRequestOpenedEvent{
				DocumentID:  doc.ID,
				OwnerID:     doc.OwnerID,
				RequestedBy: requestedBy,
				Description: description,
			},
		}
		if err := s.outbox.Emit(ctx, tx, opened); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit change request opened event")
		}
		if err := s.outbox.Emit(ctx, tx, s.approverNotification(doc, actor)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit approver notification event")
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Complete clears the flag and notifies the original requester.
func (s *service) Complete(ctx context.Context, documentID, actingUser uuid.UUID) (*models.CarrierDocument, error) {
	if documentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	if actingUser == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "acting user required")
	}

	var updated *models.CarrierDocument
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		doc, err := repo.GetDocument(ctx, documentID)
		if err != nil {
			return notFoundOrDependency(err, "carrier document not found")
		}
		if !doc.HasPendingChangeRequest() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no open change request on this document")
		}
		requester := doc.ChangeRequestedBy

		if err := repo.ClearChangeRequest(ctx, doc.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear change request")
		}
		doc.ChangeRequestDescription = nil
		doc.ChangeRequestedBy = nil
		doc.ChangeRequestedAt = nil

		now := time.Now().UTC()
		actor := &outbox.ActorRef{UserID: actingUser}
		completed := outbox.DomainEvent{
			EventType:     enums.EventChangeRequestCompleted,
			AggregateType: enums.AggregateCarrierDocument,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.ChangeRequestCompletedEvent{
				DocumentID:  doc.ID,
				OwnerID:     doc.OwnerID,
				CompletedAt: now,
			},
		}
		if err := s.outbox.Emit(ctx, tx, completed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit change request completed event")
		}

		notification := payloads.NotificationRequestedEvent{
			DocumentID:  doc.ID,
			RecipientID: requester,
			Type:        enums.NotificationChangeRequestCompleted,
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
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit requester notification event")
		}
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// approverNotification addresses the approver of the document's current level.
// When the level cannot be resolved (terminal documents, config drift) the
// owner is notified instead so the request never disappears silently.
func (s *service) approverNotification(doc *models.CarrierDocument, actor *outbox.ActorRef) outbox.DomainEvent {
	notification := payloads.NotificationRequestedEvent{
		DocumentID:  doc.ID,
		RecipientID: &doc.OwnerID,
		Type:        enums.NotificationChangeRequested,
	}

	if dir, err := matrix.NewDirectory(doc.Matrix); err == nil {
		if level, err := dir.Level(doc.CurrentLevel); err == nil {
			if level.ApproverType == enums.ApproverTypeUser {
				if recipient, parseErr := uuid.Parse(level.ApproverValue); parseErr == nil {
					notification.RecipientID = &recipient
				}
			} else {
				notification.RecipientID = nil
				notification.RecipientRole = level.ApproverValue
			}
		}
	}

	return outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   doc.ID,
		Actor:         actor,
		Version:       1,
		Data:          notification,
	}
}

func notFoundOrDependency(err error, message string) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
