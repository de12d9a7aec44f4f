package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// VendorScope pins vendor-role actors to their own vendor resources.
// Routes carrying a {vendorID} path parameter must match the token's
// vendor claim; admin and system actors pass through untouched.
func VendorScope(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if enums.ActorRole(RoleFromContext(ctx)) != enums.ActorRoleVendor {
				next.ServeHTTP(w, r)
				return
			}

			own := VendorIDFromContext(ctx)
			if own == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing"))
				return
			}

			if requested := chi.URLParam(r, "vendorID"); requested != "" && requested != own {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "vendor scope mismatch"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
