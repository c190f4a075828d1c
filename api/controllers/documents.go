package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridianerp/vendorhub-backend/api/responses"
	"github.com/meridianerp/vendorhub-backend/api/validators"
	"github.com/meridianerp/vendorhub-backend/internal/documents"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
)

// DocumentBody carries the caller-supplied fields of a new carrier document.
type DocumentBody struct {
	DocumentType string          `json:"document_type" validate:"required"`
	Title        string          `json:"title" validate:"required"`
	VendorName   string          `json:"vendor_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	InvoiceType  *string         `json:"invoice_type"`
}

// CreateDocument submits a new document into its approval workflow. The
// caller becomes the owner.
func CreateDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		owner, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body DocumentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		doc, err := svc.Create(r.Context(), documents.CreateParams{
			DocumentType: enums.DocumentType(body.DocumentType),
			Title:        body.Title,
			VendorName:   body.VendorName,
			Amount:       body.Amount,
			Currency:     body.Currency,
			InvoiceType:  body.InvoiceType,
			OwnerID:      owner,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, doc)
	}
}

// GetDocument returns one document, gated by visibility rules.
func GetDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document id"))
			return
		}

		doc, err := svc.Get(r.Context(), id, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// ListDocuments returns the caller's visible documents, newest first.
func ListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := documents.ListParams{UserID: userID}
		if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
			value, err := strconv.Atoi(limitStr)
			if err != nil || value <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}
		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
