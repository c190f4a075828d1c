package approvals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/history"
	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/metrics"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox/payloads"
)

// Service is the stage engine: it applies approve/reject decisions to carrier
// documents, appends the audit row, and advances or finalizes the workflow.
type Service interface {
	Decide(ctx context.Context, params DecideParams) (*models.CarrierDocument, error)
	DecideBulk(ctx context.Context, params BulkDecideParams) (*BulkResult, error)
	CanUserApprove(ctx context.Context, documentID, userID uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type entryRecorder interface {
	AppendTx(ctx context.Context, tx *gorm.DB, doc *models.CarrierDocument, params history.EntryParams) (*models.ApprovalHistoryEntry, error)
}

type roleDirectory interface {
	RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type service struct {
	repo     Repository
	recorder entryRecorder
	roles    roleDirectory
	tx       txRunner
	outbox   outboxPublisher
	metrics  *metrics.ApprovalMetrics
}

// NewService wires the stage engine dependencies. Metrics may be nil.
func NewService(repo Repository, recorder entryRecorder, roles roleDirectory, tx txRunner, outboxSvc outboxPublisher, m *metrics.ApprovalMetrics) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "approvals repository required")
	}
	if recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history recorder required")
	}
	if roles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role directory required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, recorder: recorder, roles: roles, tx: tx, outbox: outboxSvc, metrics: m}, nil
}

// Decide applies one approve/reject action. The authorization check, the audit
// append, the state change and the outbox events commit as one transaction; a
// failure at any step leaves the document untouched.
func (s *service) Decide(ctx context.Context, params DecideParams) (*models.CarrierDocument, error) {
	started := time.Now()

	if err := validateDecideParams(params.DocumentID, params.ActingUser, params.Action); err != nil {
		s.metrics.IncDecisionFailure(params.Action.String(), string(pkgerrors.CodeValidation))
		return nil, err
	}

	roles, err := s.roles.RolesOf(ctx, params.ActingUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve acting user roles")
	}

	var updated *models.CarrierDocument
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		doc, err := repo.GetDocument(ctx, params.DocumentID)
		if err != nil {
			return notFoundOrDependency(err, "carrier document not found")
		}
		if doc.ApprovalStatus.IsFinal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document is already %s and accepts no further decisions", doc.ApprovalStatus))
		}

		dir, err := matrix.NewDirectory(doc.Matrix)
		if err != nil {
			return err
		}
		level, err := dir.Level(doc.CurrentLevel)
		if err != nil {
			return err
		}
		if !matrix.LevelPermits(level, params.ActingUser, roles) {
			return pkgerrors.New(pkgerrors.CodeForbidden,
				fmt.Sprintf("user is not the approver of record for level %q", level.LevelName))
		}

		expectedVersion := doc.LockVersion
		var entryParams history.EntryParams
		var events []outbox.DomainEvent

		switch params.Action {
		case enums.DecisionApprove:
			entryParams, events = s.applyApprove(doc, dir, level, params)
		case enums.DecisionReject:
			entryParams, events = s.applyReject(doc, level, params)
		}

		if _, err := s.recorder.AppendTx(ctx, tx, doc, entryParams); err != nil {
			return err
		}
		if err := repo.SaveTransition(ctx, doc, expectedVersion); err != nil {
			if err == ErrVersionConflict {
				return pkgerrors.New(pkgerrors.CodeConflict,
					"document was modified concurrently, reload and retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save approval transition")
		}
		for _, event := range events {
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit approval event")
			}
		}
		updated = doc
		return nil
	})
	if txErr != nil {
		s.metrics.IncDecisionFailure(params.Action.String(), failureReason(txErr))
		return nil, txErr
	}

	s.metrics.IncDecision(params.Action.String(), updated.DocumentType.String())
	s.metrics.ObserveDecisionDuration(params.Action.String(), time.Since(started))
	return updated, nil
}

// applyApprove mutates doc for an approval and returns the audit-entry params
// plus the outbox events describing the transition.
func (s *service) applyApprove(doc *models.CarrierDocument, dir *matrix.Directory, level *models.ApprovalLevel, params DecideParams) (history.EntryParams, []outbox.DomainEvent) {
	workflowState := strings.TrimSpace(level.StatusWhenApproved)
	if workflowState == "" {
		workflowState = fmt.Sprintf("Approved by %s", level.LevelName)
	}

	entryParams := history.EntryParams{
		DocType:      doc.DocumentType.String(),
		ApprovedBy:   params.ActingUser,
		CurrentStage: history.Stage{Number: level.Sequence, Name: level.LevelName},
		IsApproved:   true,
		Action:       "Approved",
		Remark:       params.Comments,
	}
	actor := &outbox.ActorRef{UserID: params.ActingUser}

	next := dir.NextLevel(level.Sequence)
	if next == nil {
		doc.ApprovalStatus = enums.ApprovalStatusApproved
		doc.WorkflowState = "Approved"
		doc.NextApprover = ""
		doc.Finalized = true

		return entryParams, []outbox.DomainEvent{
			{
				EventType:     enums.EventApprovalFinalized,
				AggregateType: enums.AggregateCarrierDocument,
				AggregateID:   doc.ID,
				Actor:         actor,
				Version:       1,
				Data: payloads.ApprovalFinalizedEvent{
					DocumentID:    doc.ID,
					MatrixID:      doc.MatrixID,
					FinalLevel:    level.Sequence,
					WorkflowState: doc.WorkflowState,
					ApprovedBy:    params.ActingUser,
					FinalizedAt:   time.Now().UTC(),
				},
			},
			notificationEvent(doc, actor, payloads.NotificationRequestedEvent{
				DocumentID:  doc.ID,
				RecipientID: &doc.OwnerID,
				Type:        enums.NotificationApprovalFinalized,
			}),
		}
	}

	fromLevel := level.Sequence
	doc.CurrentLevel = next.Sequence
	doc.NextApprover = next.ApproverValue
	doc.ApprovalStatus = enums.ApprovalStatusPending
	doc.WorkflowState = workflowState

	entryParams.NextStage = &history.Stage{Number: next.Sequence, Name: next.LevelName}
	entryParams.NextActionBy = next.ApproverValue

	notification := payloads.NotificationRequestedEvent{
		DocumentID: doc.ID,
		Type:       enums.NotificationApprovalPending,
	}
	if next.ApproverType == enums.ApproverTypeUser {
		if recipient, err := uuid.Parse(next.ApproverValue); err == nil {
			notification.RecipientID = &recipient
		}
	} else {
		notification.RecipientRole = next.ApproverValue
	}

	return entryParams, []outbox.DomainEvent{
		{
			EventType:     enums.EventApprovalStageAdvanced,
			AggregateType: enums.AggregateCarrierDocument,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.ApprovalStageAdvancedEvent{
				DocumentID:    doc.ID,
				MatrixID:      doc.MatrixID,
				FromLevel:     fromLevel,
				ToLevel:       next.Sequence,
				WorkflowState: doc.WorkflowState,
				NextActionBy:  doc.NextApprover,
				ApprovedBy:    params.ActingUser,
			},
		},
		notificationEvent(doc, actor, notification),
	}
}

// applyReject mutates doc for a rejection. Rejection is terminal; no stage
// progression happens afterwards without a change request.
func (s *service) applyReject(doc *models.CarrierDocument, level *models.ApprovalLevel, params DecideParams) (history.EntryParams, []outbox.DomainEvent) {
	workflowState := strings.TrimSpace(level.StatusWhenRejected)
	if workflowState == "" {
		workflowState = fmt.Sprintf("Rejected by %s", level.LevelName)
	}

	doc.ApprovalStatus = enums.ApprovalStatusRejected
	doc.WorkflowState = workflowState
	doc.NextApprover = ""

	entryParams := history.EntryParams{
		DocType:      doc.DocumentType.String(),
		ApprovedBy:   params.ActingUser,
		CurrentStage: history.Stage{Number: level.Sequence, Name: level.LevelName},
		IsApproved:   false,
		Action:       "Rejected",
		Remark:       params.Comments,
	}
	actor := &outbox.ActorRef{UserID: params.ActingUser}

	return entryParams, []outbox.DomainEvent{
		{
			EventType:     enums.EventApprovalRejected,
			AggregateType: enums.AggregateCarrierDocument,
			AggregateID:   doc.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.ApprovalRejectedEvent{
				DocumentID:    doc.ID,
				MatrixID:      doc.MatrixID,
				Level:         level.Sequence,
				WorkflowState: workflowState,
				RejectedBy:    params.ActingUser,
				Remark:        params.Comments,
			},
		},
		notificationEvent(doc, actor, payloads.NotificationRequestedEvent{
			DocumentID:  doc.ID,
			RecipientID: &doc.OwnerID,
			Type:        enums.NotificationApprovalRejected,
		}),
	}
}

// DecideBulk applies the action independently to each document. One document's
// failure never rolls back another's committed transition.
func (s *service) DecideBulk(ctx context.Context, params BulkDecideParams) (*BulkResult, error) {
	if len(params.DocumentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one document id required")
	}
	// Only actor and action are batch-level. A bad document id is that
	// document's failure, never the batch's.
	if err := validateDecision(params.ActingUser, params.Action); err != nil {
		return nil, err
	}
	s.metrics.ObserveBulkBatchSize(len(params.DocumentIDs))

	result := &BulkResult{}
	for _, id := range params.DocumentIDs {
		_, err := s.Decide(ctx, DecideParams{
			DocumentID: id,
			ActingUser: params.ActingUser,
			Action:     params.Action,
			Comments:   params.Comments,
		})
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, BulkError{DocumentID: id, Error: bulkErrorMessage(err)})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// CanUserApprove reports whether the user is the approver of record for the
// document's current level. Lookup failures propagate; they are never folded
// into a false answer.
func (s *service) CanUserApprove(ctx context.Context, documentID, userID uuid.UUID) (bool, error) {
	if documentID == uuid.Nil || userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "document id and user id required")
	}

	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return false, notFoundOrDependency(err, "carrier document not found")
	}
	if doc.ApprovalStatus.IsFinal() {
		return false, nil
	}
	dir, err := matrix.NewDirectory(doc.Matrix)
	if err != nil {
		return false, err
	}
	level, err := dir.Level(doc.CurrentLevel)
	if err != nil {
		return false, err
	}
	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user roles")
	}
	return matrix.LevelPermits(level, userID, roles), nil
}

func notificationEvent(doc *models.CarrierDocument, actor *outbox.ActorRef, data payloads.NotificationRequestedEvent) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventNotificationRequested,
		AggregateType: enums.AggregateNotification,
		AggregateID:   doc.ID,
		Actor:         actor,
		Version:       1,
		Data:          data,
	}
}

func validateDecideParams(documentID, actingUser uuid.UUID, action enums.DecisionAction) error {
	if documentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "document id required")
	}
	return validateDecision(actingUser, action)
}

func validateDecision(actingUser uuid.UUID, action enums.DecisionAction) error {
	if actingUser == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "acting user required")
	}
	if !action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid decision action %q", action))
	}
	return nil
}

func failureReason(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "unknown"
}

func bulkErrorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}

func notFoundOrDependency(err error, message string) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
