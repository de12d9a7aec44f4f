package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/api/middleware"
	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// ListNotifications returns the actor's recent notifications. Vendor actors
// read their vendor's feed; admins read their own user feed.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recipient := middleware.UserIDFromContext(ctx)
		if enums.ActorRole(middleware.RoleFromContext(ctx)) == enums.ActorRoleVendor {
			recipient = middleware.VendorIDFromContext(ctx)
		}
		recipientID, err := uuid.Parse(recipient)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "recipient context missing"))
			return
		}

		list, err := svc.ListForRecipient(ctx, recipientID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
