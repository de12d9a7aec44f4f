package controllers

import (
	"net/http"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/pkg/db"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/redis"
)

func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the dependencies the API cannot serve without.
func HealthReady(env string, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
