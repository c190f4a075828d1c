package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridianerp/vendorhub-backend/api/responses"
	"github.com/meridianerp/vendorhub-backend/api/validators"
	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
)

// MatrixLevelBody is one level definition in display order.
type MatrixLevelBody struct {
	LevelName          string `json:"level_name" validate:"required"`
	ApproverType       string `json:"approver_type" validate:"required"`
	ApproverValue      string `json:"approver_value" validate:"required"`
	StatusWhenApproved string `json:"status_when_approved"`
	StatusWhenRejected string `json:"status_when_rejected"`
}

// MatrixBody carries the editable fields of an approval matrix.
type MatrixBody struct {
	DocumentType string            `json:"document_type" validate:"required"`
	InvoiceType  *string           `json:"invoice_type"`
	IsActive     bool              `json:"is_active"`
	IsDefault    bool              `json:"is_default"`
	Levels       []MatrixLevelBody `json:"levels" validate:"required,min=1,dive"`
}

func (b MatrixBody) toParams() matrix.SaveParams {
	levels := make([]matrix.LevelParams, 0, len(b.Levels))
	for _, level := range b.Levels {
		levels = append(levels, matrix.LevelParams{
			LevelName:          level.LevelName,
			ApproverType:       enums.ApproverType(level.ApproverType),
			ApproverValue:      level.ApproverValue,
			StatusWhenApproved: level.StatusWhenApproved,
			StatusWhenRejected: level.StatusWhenRejected,
		})
	}
	return matrix.SaveParams{
		DocumentType: enums.DocumentType(b.DocumentType),
		InvoiceType:  b.InvoiceType,
		IsActive:     b.IsActive,
		IsDefault:    b.IsDefault,
		Levels:       levels,
	}
}

// CreateMatrix creates an approval matrix. Admin only.
func CreateMatrix(svc matrix.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matrix service unavailable"))
			return
		}

		actor, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body MatrixBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, body.toParams())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// UpdateMatrix replaces the matrix definition, levels included.
func UpdateMatrix(svc matrix.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matrix service unavailable"))
			return
		}

		actor, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid matrix id"))
			return
		}

		var body MatrixBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), actor, id, body.toParams())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// GetMatrix returns one matrix with its ordered levels.
func GetMatrix(svc matrix.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matrix service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid matrix id"))
			return
		}

		m, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, m)
	}
}

// ListMatrices lists matrices, active ones by default.
func ListMatrices(svc matrix.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matrix service unavailable"))
			return
		}

		includeInactive := false
		if raw := strings.TrimSpace(r.URL.Query().Get("includeInactive")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid includeInactive value"))
				return
			}
			includeInactive = value
		}

		matrices, err := svc.List(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, matrices)
	}
}

// DeleteMatrix removes a matrix. Documents already bound to it keep routing
// through the snapshot they hold.
func DeleteMatrix(svc matrix.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matrix service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid matrix id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
