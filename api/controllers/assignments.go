package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/api/middleware"
	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
)

type createAssignmentRequest struct {
	VendorID string  `json:"vendor_id" validate:"required,uuid"`
	Type     string  `json:"type" validate:"required,oneof=full partial"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items    []struct {
		OrderItemID string `json:"order_item_id" validate:"required,uuid"`
		Quantity    int    `json:"quantity" validate:"required,gt=0"`
	} `json:"items,omitempty" validate:"omitempty,dive"`
}

// CreateAssignment assigns an order (fully or partially) to a vendor.
func CreateAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createAssignmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor id"))
			return
		}

		input := assignments.AssignInput{
			OrderID:    orderID,
			VendorID:   vendorID,
			Type:       enums.AssignmentType(req.Type),
			AssignedBy: actorID(r),
			Notes:      req.Notes,
		}
		for _, item := range req.Items {
			itemID, parseErr := uuid.Parse(item.OrderItemID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid order item id"))
				return
			}
			input.Items = append(input.Items, assignments.ItemAllocation{
				OrderItemID: itemID,
				Quantity:    item.Quantity,
			})
		}

		created, err := svc.Assign(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type updateAssignmentStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateAssignmentStatus moves an assignment through its lifecycle.
func UpdateAssignmentStatus(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateAssignmentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseAssignmentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), assignments.UpdateStatusInput{
			AssignmentID: assignmentID,
			NewStatus:    status,
			ActorID:      actorID(r),
			Notes:        req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// CancelItemAllocation releases a single item split back to the order.
func CancelItemAllocation(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemAssignmentID, err := validators.ParseUUIDParam(r, "itemAssignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelItemAllocation(r.Context(), itemAssignmentID, actorID(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// GetAssignment returns one assignment with its item splits.
func GetAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseUUIDParam(r, "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, err := svc.Get(r.Context(), assignmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

// ListOrderAssignments returns every assignment on an order.
func ListOrderAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

// ListVendorAssignments pages through a vendor's assignments.
func ListVendorAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, next, err := svc.ListForVendor(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"assignments": list,
			"next_cursor": next,
		})
	}
}

// OrderRemaining reports per-item unallocated quantities for an order.
func OrderRemaining(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		remaining, err := svc.Remaining(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, remaining)
	}
}

func actorID(r *http.Request) uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
