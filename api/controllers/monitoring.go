package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/api/middleware"
	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// ListAlerts returns open alerts. Vendor actors only see alerts scoped to
// their own vendor; admins see everything.
func ListAlerts(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var vendorFilter *uuid.UUID
		if enums.ActorRole(middleware.RoleFromContext(ctx)) == enums.ActorRoleVendor {
			vendorID, err := uuid.Parse(middleware.VendorIDFromContext(ctx))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
				return
			}
			vendorFilter = &vendorID
		} else if raw := r.URL.Query().Get("vendor_id"); raw != "" {
			vendorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor id"))
				return
			}
			vendorFilter = &vendorID
		}

		alerts, err := svc.ListAlerts(ctx, vendorFilter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, alerts)
	}
}

// MarkAlertRead acknowledges an alert without resolving it.
func MarkAlertRead(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := validators.ParseUUIDParam(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRead(r.Context(), alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// ResolveAlert closes an alert manually.
func ResolveAlert(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		alertID, err := validators.ParseUUIDParam(r, "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResolveAlert(r.Context(), alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "resolved"})
	}
}

// GetThresholds returns the active staleness thresholds.
func GetThresholds(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thresholds, err := svc.Thresholds(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, thresholds)
	}
}

type updateThresholdsRequest struct {
	UnassignedOrderHours     *int `json:"unassigned_order_hours,omitempty" validate:"omitempty,gt=0"`
	AssignedNotAcceptedHours *int `json:"assigned_not_accepted_hours,omitempty" validate:"omitempty,gt=0"`
	AcceptedNotStartedHours  *int `json:"accepted_not_started_hours,omitempty" validate:"omitempty,gt=0"`
	InProgressTooLongDays    *int `json:"in_progress_too_long_days,omitempty" validate:"omitempty,gt=0"`
	NoTrackingAfterDays      *int `json:"no_tracking_after_days,omitempty" validate:"omitempty,gt=0"`
	StaleTrackingDays        *int `json:"stale_tracking_days,omitempty" validate:"omitempty,gt=0"`
	ProofExpiryWarningHours  *int `json:"proof_expiry_warning_hours,omitempty" validate:"omitempty,gt=0"`
}

// UpdateThresholds amends the staleness thresholds. Only fields present in
// the request change.
func UpdateThresholds(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateThresholdsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateThresholds(r.Context(), monitoring.UpdateThresholdsInput{
			UnassignedOrderHours:     req.UnassignedOrderHours,
			AssignedNotAcceptedHours: req.AssignedNotAcceptedHours,
			AcceptedNotStartedHours:  req.AcceptedNotStartedHours,
			InProgressTooLongDays:    req.InProgressTooLongDays,
			NoTrackingAfterDays:      req.NoTrackingAfterDays,
			StaleTrackingDays:        req.StaleTrackingDays,
			ProofExpiryWarningHours:  req.ProofExpiryWarningHours,
			UpdatedBy:                actorID(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// TriggerScan runs a monitoring pass on demand. The cron worker runs the
// same scan on its own cadence.
func TriggerScan(svc monitoring.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Scan(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
