package matrix

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox/payloads"
)

// Service defines administrative operations over approval matrices and the
// matrix selection used at document creation time.
type Service interface {
	Create(ctx context.Context, actor uuid.UUID, params SaveParams) (*models.ApprovalMatrix, error)
	Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, params SaveParams) (*models.ApprovalMatrix, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error)
	List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SelectForDocument(ctx context.Context, docType enums.DocumentType, invoiceType *string) (*models.ApprovalMatrix, error)
	DirectoryFor(ctx context.Context, matrixID uuid.UUID) (*Directory, error)
}

// SaveParams carries the editable matrix fields. Levels are given in display
// order; sequences are renumbered contiguously from 1 on every save.
type SaveParams struct {
	DocumentType enums.DocumentType
	InvoiceType  *string
	IsActive     bool
	IsDefault    bool
	Levels       []LevelParams
}

// LevelParams is one level definition in display order.
type LevelParams struct {
	LevelName          string
	ApproverType       enums.ApproverType
	ApproverValue      string
	StatusWhenApproved string
	StatusWhenRejected string
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

// NewService wires matrix dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matrix repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if outboxSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outboxSvc}, nil
}

func (s *service) Create(ctx context.Context, actor uuid.UUID, params SaveParams) (*models.ApprovalMatrix, error) {
	if err := validateSaveParams(params); err != nil {
		return nil, err
	}

	var created *models.ApprovalMatrix
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, err := repo.Count(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count matrices")
		}

		m := &models.ApprovalMatrix{
			Name:         fmt.Sprintf("AM-%05d", count+1),
			DocumentType: params.DocumentType,
			InvoiceType:  params.InvoiceType,
			IsActive:     params.IsActive,
			IsDefault:    params.IsDefault,
			Levels:       renumberLevels(params.Levels),
		}
		if err := repo.Create(ctx, m); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create matrix")
		}
		if m.IsDefault {
			if err := repo.ClearDefault(ctx, string(m.DocumentType), m.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear previous default")
			}
		}
		if m.IsActive {
			if err := s.emitActivated(ctx, tx, m, actor); err != nil {
				return err
			}
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, params SaveParams) (*models.ApprovalMatrix, error) {
	if err := validateSaveParams(params); err != nil {
		return nil, err
	}

	var updated *models.ApprovalMatrix
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return notFoundOrDependency(err, "approval matrix not found")
		}

		wasActive := existing.IsActive
		existing.DocumentType = params.DocumentType
		existing.InvoiceType = params.InvoiceType
		existing.IsActive = params.IsActive
		existing.IsDefault = params.IsDefault

		if err := repo.Update(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update matrix")
		}
		levels := renumberLevels(params.Levels)
		if err := repo.ReplaceLevels(ctx, existing.ID, levels); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace matrix levels")
		}
		existing.Levels = levels

		if existing.IsDefault {
			if err := repo.ClearDefault(ctx, string(existing.DocumentType), existing.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear previous default")
			}
		}
		if existing.IsActive && !wasActive {
			if err := s.emitActivated(ctx, tx, existing, actor); err != nil {
				return err
			}
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrDependency(err, "approval matrix not found")
	}
	return m, nil
}

func (s *service) List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error) {
	matrices, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matrices")
	}
	return matrices, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFoundOrDependency(err, "approval matrix not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete matrix")
	}
	return nil
}

// SelectForDocument picks the matrix bound to a new document. Selection only
// ever happens at creation time; existing documents keep their matrix.
func (s *service) SelectForDocument(ctx context.Context, docType enums.DocumentType, invoiceType *string) (*models.ApprovalMatrix, error) {
	if !docType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid document type %q", docType))
	}
	m, err := s.repo.FindDefault(ctx, string(docType), invoiceType)
	if err != nil {
		return nil, notFoundOrDependency(err, fmt.Sprintf("no active default matrix for document type %q", docType))
	}
	return m, nil
}

// DirectoryFor loads a matrix and exposes it as a stage directory.
func (s *service) DirectoryFor(ctx context.Context, matrixID uuid.UUID) (*Directory, error) {
	m, err := s.repo.GetByID(ctx, matrixID)
	if err != nil {
		return nil, notFoundOrDependency(err, "approval matrix not found")
	}
	return NewDirectory(m)
}

func (s *service) emitActivated(ctx context.Context, tx *gorm.DB, m *models.ApprovalMatrix, actor uuid.UUID) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventApprovalMatrixActivated,
		AggregateType: enums.AggregateApprovalMatrix,
		AggregateID:   m.ID,
		Actor:         &outbox.ActorRef{UserID: actor},
		Version:       1,
		Data: payloads.ApprovalMatrixActivatedEvent{
			MatrixID:     m.ID,
			DocumentType: m.DocumentType,
			LevelCount:   len(m.Levels),
			ActivatedBy:  actor,
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit matrix activated event")
	}
	return nil
}

// renumberLevels assigns contiguous ascending sequences matching display
// order, so stored sequences always mirror the order an administrator sees.
func renumberLevels(params []LevelParams) []models.ApprovalLevel {
	levels := make([]models.ApprovalLevel, 0, len(params))
	for i, p := range params {
		levels = append(levels, models.ApprovalLevel{
			Sequence:           i + 1,
			LevelName:          strings.TrimSpace(p.LevelName),
			ApproverType:       p.ApproverType,
			ApproverValue:      strings.TrimSpace(p.ApproverValue),
			StatusWhenApproved: strings.TrimSpace(p.StatusWhenApproved),
			StatusWhenRejected: strings.TrimSpace(p.StatusWhenRejected),
		})
	}
	return levels
}

func validateSaveParams(params SaveParams) error {
	if !params.DocumentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid document type %q", params.DocumentType))
	}
	if len(params.Levels) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "matrix requires at least one approval level")
	}
	for i, level := range params.Levels {
		if strings.TrimSpace(level.LevelName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("level %d: level name required", i+1))
		}
		if !level.ApproverType.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("level %d: invalid approver type %q", i+1, level.ApproverType))
		}
		if strings.TrimSpace(level.ApproverValue) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("level %d: approver value required", i+1))
		}
	}
	return nil
}

func notFoundOrDependency(err error, message string) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
