package controllers

import (
	"net/http"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/tracking"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

type addTrackingRequest struct {
	TrackingNumber string  `json:"tracking_number" validate:"required,max=120"`
	Carrier        string  `json:"carrier" validate:"required,max=120"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// AddTracking registers a carrier tracking entry on an assignment.
func AddTracking(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addTrackingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Add(r.Context(), tracking.AddInput{
			AssignmentID:   assignmentID,
			TrackingNumber: validators.SanitizeString(req.TrackingNumber, 120),
			Carrier:        validators.SanitizeString(req.Carrier, 120),
			Notes:          req.Notes,
			CreatedBy:      actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

type updateTrackingStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateTrackingStatus moves a tracking entry through the shipment graph.
func UpdateTrackingStatus(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trackingID, err := validators.ParseUUIDParam(r, "trackingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateTrackingStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseTrackingStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		entry, err := svc.UpdateStatus(r.Context(), tracking.UpdateStatusInput{
			TrackingID: trackingID,
			NewStatus:  status,
			Notes:      req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// ListOrderTracking returns every tracking entry across an order's assignments.
func ListOrderTracking(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
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

// ListAssignmentTracking returns the tracking entries on one assignment.
func ListAssignmentTracking(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForAssignment(r.Context(), assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
