package visibility

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
)

// Scope restricts a carrier-document query to what one user may see.
type Scope func(db *gorm.DB) *gorm.DB

// AccessSummary describes a user's reach over the document set.
type AccessSummary struct {
	TotalAccessible int64    `json:"total_accessible"`
	PendingForUser  int64    `json:"pending_for_user"`
	Roles           []string `json:"roles"`
}

// Service derives per-user document visibility from matrix definitions and
// workflow state.
type Service interface {
	CanView(ctx context.Context, doc *models.CarrierDocument, userID uuid.UUID) (bool, error)
	ListScope(ctx context.Context, userID uuid.UUID) (Scope, error)
	PendingForUser(ctx context.Context, userID uuid.UUID) ([]models.CarrierDocument, error)
	AccessSummary(ctx context.Context, userID uuid.UUID) (*AccessSummary, error)
}

type roleDirectory interface {
	RolesOf(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type matrixSource interface {
	List(ctx context.Context, includeInactive bool) ([]models.ApprovalMatrix, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalMatrix, error)
}

type service struct {
	repo     Repository
	roles    roleDirectory
	matrices matrixSource
}

// NewService wires visibility dependencies.
func NewService(repo Repository, roles roleDirectory, matrices matrixSource) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "visibility repository required")
	}
	if roles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role directory required")
	}
	if matrices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matrix source required")
	}
	return &service{repo: repo, roles: roles, matrices: matrices}, nil
}

// CanView answers the single-document permission question. Admins see
// everything; vendors see their own documents; everyone else sees a document
// only when its workflow state is reachable for a level they approve.
func (s *service) CanView(ctx context.Context, doc *models.CarrierDocument, userID uuid.UUID) (bool, error) {
	if doc == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "carrier document required")
	}
	if userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user roles")
	}
	if hasRole(roles, enums.SystemRoleAdmin.String()) {
		return true, nil
	}
	if doc.OwnerID == userID && hasRole(roles, enums.SystemRoleVendor.String()) {
		return true, nil
	}

	m := doc.Matrix
	if m == nil {
		m, err = s.matrices.GetByID(ctx, doc.MatrixID)
		if err != nil {
			return false, notFoundOrDependency(err, "approval matrix not found")
		}
	}
	dir, err := matrix.NewDirectory(m)
	if err != nil {
		return false, err
	}

	for _, level := range dir.Levels() {
		level := level
		if !matrix.LevelPermits(&level, userID, roles) {
			continue
		}
		states := reachableStates(dir, level.Sequence)
		for _, state := range states {
			if state == doc.WorkflowState {
				return true, nil
			}
		}
	}
	return false, nil
}

// ListScope builds the bulk-query counterpart of CanView as a parameterized
// disjunction. A user with no qualifying role gets an impossible predicate,
// never an unrestricted one.
func (s *service) ListScope(ctx context.Context, userID uuid.UUID) (Scope, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user roles")
	}
	if hasRole(roles, enums.SystemRoleAdmin.String()) {
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	}

	matrices, err := s.matrices.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matrices")
	}

	type matrixClause struct {
		matrixID uuid.UUID
		states   []string
	}
	var clauses []matrixClause
	for i := range matrices {
		dir, err := matrix.NewDirectory(&matrices[i])
		if err != nil {
			// A matrix without levels governs nothing.
			continue
		}
		var states []string
		for _, level := range dir.Levels() {
			level := level
			if !matrix.LevelPermits(&level, userID, roles) {
				continue
			}
			states = mergeStates(states, reachableStates(dir, level.Sequence))
		}
		if len(states) > 0 {
			clauses = append(clauses, matrixClause{matrixID: matrices[i].ID, states: states})
		}
	}

	ownerVisible := hasRole(roles, enums.SystemRoleVendor.String())
	if !ownerVisible && len(clauses) == 0 {
		return func(db *gorm.DB) *gorm.DB { return db.Where("1 = 0") }, nil
	}

	return func(db *gorm.DB) *gorm.DB {
		pred := db.Session(&gorm.Session{NewDB: true}).Where("1 = 0")
		if ownerVisible {
			pred = pred.Or("owner_id = ?", userID)
		}
		for _, clause := range clauses {
			pred = pred.Or("matrix_id = ? AND workflow_state IN ?", clause.matrixID, clause.states)
		}
		return db.Where(pred)
	}, nil
}

// PendingForUser lists the documents parked on a level the user approves.
func (s *service) PendingForUser(ctx context.Context, userID uuid.UUID) ([]models.CarrierDocument, error) {
	scope, err := s.pendingScope(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListDocuments(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending documents")
	}
	return docs, nil
}

// AccessSummary reports the user's total reach and actionable queue size.
func (s *service) AccessSummary(ctx context.Context, userID uuid.UUID) (*AccessSummary, error) {
	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user roles")
	}

	listScope, err := s.ListScope(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountDocuments(ctx, listScope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count accessible documents")
	}

	pendingScope, err := s.pendingScope(ctx, userID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.CountDocuments(ctx, pendingScope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending documents")
	}

	if roles == nil {
		roles = []string{}
	}
	return &AccessSummary{TotalAccessible: total, PendingForUser: pending, Roles: roles}, nil
}

// pendingScope matches pending documents whose current level names the user as
// approver.
func (s *service) pendingScope(ctx context.Context, userID uuid.UUID) (Scope, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	roles, err := s.roles.RolesOf(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve user roles")
	}
	matrices, err := s.matrices.List(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list matrices")
	}

	type levelClause struct {
		matrixID uuid.UUID
		sequence int
	}
	var clauses []levelClause
	for i := range matrices {
		for j := range matrices[i].Levels {
			level := &matrices[i].Levels[j]
			if matrix.LevelPermits(level, userID, roles) {
				clauses = append(clauses, levelClause{matrixID: matrices[i].ID, sequence: level.Sequence})
			}
		}
	}
	if len(clauses) == 0 {
		return func(db *gorm.DB) *gorm.DB { return db.Where("1 = 0") }, nil
	}

	return func(db *gorm.DB) *gorm.DB {
		pred := db.Session(&gorm.Session{NewDB: true}).Where("1 = 0")
		for _, clause := range clauses {
			pred = pred.Or("matrix_id = ? AND current_level = ?", clause.matrixID, clause.sequence)
		}
		return db.
			Where("approval_status = ?", enums.ApprovalStatusPending).
			Where(pred)
	}, nil
}

// reachableStates is the set of workflow states in which a document is visible
// to the approver of the given level: the initial pending state, every state
// producible by approvals up to and including the level, and, on the terminal
// level, the global terminal states plus the level's configured outcomes.
func reachableStates(dir *matrix.Directory, sequence int) []string {
	states := []string{"Pending"}
	for _, level := range dir.LevelsUpTo(sequence) {
		states = append(states, approvedState(level))
	}
	if dir.IsTerminal(sequence) {
		terminal, err := dir.Level(sequence)
		if err == nil {
			states = append(states, "Approved", "Rejected")
			if rejected := strings.TrimSpace(terminal.StatusWhenRejected); rejected != "" {
				states = append(states, rejected)
			}
		}
	}
	return dedupeStates(states)
}

func approvedState(level models.ApprovalLevel) string {
	if state := strings.TrimSpace(level.StatusWhenApproved); state != "" {
		return state
	}
	return fmt.Sprintf("Approved by %s", level.LevelName)
}

func mergeStates(existing, extra []string) []string {
	return dedupeStates(append(existing, extra...))
}

func dedupeStates(states []string) []string {
	seen := make(map[string]struct{}, len(states))
	out := states[:0]
	for _, state := range states {
		if _, ok := seen[state]; ok {
			continue
		}
		seen[state] = struct{}{}
		out = append(out, state)
	}
	return out
}

func hasRole(roles []string, role string) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func notFoundOrDependency(err error, message string) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}
