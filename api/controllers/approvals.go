package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/api/responses"
	"github.com/meridianerp/vendorhub-backend/api/validators"
	"github.com/meridianerp/vendorhub-backend/internal/approvals"
	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
)

// DecisionBody is one approve/reject action on a document.
type DecisionBody struct {
	Action   string `json:"action" validate:"required,oneof=approve reject"`
	Comments string `json:"comments"`
}

// BulkDecisionBody applies the same action to several documents.
type BulkDecisionBody struct {
	DocumentIDs []uuid.UUID `json:"document_ids" validate:"required,min=1"`
	Action      string      `json:"action" validate:"required,oneof=approve reject"`
	Comments    string      `json:"comments"`
}

// DecideDocument applies an approval decision to one document.
func DecideDocument(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		documentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document id"))
			return
		}

		var body DecisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Decide(r.Context(), approvals.DecideParams{
			DocumentID: documentID,
			ActingUser: userID,
			Action:     enums.DecisionAction(body.Action),
			Comments:   body.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// DecideBulk applies the same decision to a batch of documents. Each document
// succeeds or fails on its own.
func DecideBulk(svc approvals.Service, maxDocuments int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body BulkDecisionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if maxDocuments > 0 && len(body.DocumentIDs) > maxDocuments {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("at most %d documents per bulk request", maxDocuments)))
			return
		}

		result, err := svc.DecideBulk(r.Context(), approvals.BulkDecideParams{
			DocumentIDs: body.DocumentIDs,
			ActingUser:  userID,
			Action:      enums.DecisionAction(body.Action),
			Comments:    body.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CanApproveDocument reports whether the caller is the approver of record for
// the document's current level.
func CanApproveDocument(svc approvals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "approvals service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		documentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document id"))
			return
		}

		can, err := svc.CanUserApprove(r.Context(), documentID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"can_approve": can})
	}
}

// PendingApprovals lists the documents waiting on the caller's decision.
func PendingApprovals(svc visibility.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visibility service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.PendingForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": docs, "count": len(docs)})
	}
}

// AccessSummary reports the caller's reach over the document set.
func AccessSummary(svc visibility.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visibility service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.AccessSummary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
