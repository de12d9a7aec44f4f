package controllers

import (
	"net/http"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

type updateProductionRequest struct {
	DesignProofStatus     *string `json:"design_proof_status,omitempty" validate:"omitempty,oneof=pending approved rejected revision_requested expired"`
	ProductionProofStatus *string `json:"production_proof_status,omitempty" validate:"omitempty,oneof=pending approved rejected revision_requested expired"`
	BlockedReason         *string `json:"blocked_reason,omitempty" validate:"omitempty,max=2000"`
	ClearBlockedReason    bool    `json:"clear_blocked_reason,omitempty"`
}

// UpdateProduction amends the production overlay for (order, assignment).
// Only fields present in the request are touched.
func UpdateProduction(svc production.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateProductionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), production.UpdateInput{
			OrderID:               orderID,
			AssignmentID:          assignmentID,
			DesignProofStatus:     req.DesignProofStatus,
			ProductionProofStatus: req.ProductionProofStatus,
			BlockedReason:         req.BlockedReason,
			ClearBlockedReason:    req.ClearBlockedReason,
			UpdatedBy:             actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// GetProduction returns the overlay for one (order, assignment) pair.
func GetProduction(svc production.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Get(r.Context(), orderID, assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// ListOrderProduction returns the overlays for every assignment on an order.
func ListOrderProduction(svc production.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
