package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vendorbridge/backoffice-backend/api/controllers"
	"github.com/vendorbridge/backoffice-backend/api/middleware"
	"github.com/vendorbridge/backoffice-backend/internal/activity"
	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/finance"
	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/internal/tracking"
	"github.com/vendorbridge/backoffice-backend/pkg/config"
	"github.com/vendorbridge/backoffice-backend/pkg/db"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Assignments   assignments.Service
	Tracking      tracking.Service
	Production    production.Service
	Proofs        proofs.Service
	Monitoring    monitoring.Service
	Finance       finance.Service
	Notifications notifications.Service
	Orders        orders.Repository
	Activity      activity.Repository
}

// NewRouter assembles the back-office HTTP surface. Everything under
// /api/v1 requires a bearer token; /proofs/token is public and throttled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// A typed nil confuses the interface nil checks downstream, so only
	// hand the client over when it exists.
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		idemStore = redisClient
		limiterStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, database, redisClient, logg))
	})

	proofPolicy := middleware.NewPublicRateLimitPolicy(
		"proof",
		cfg.Proofs.RateLimitWindow,
		cfg.Proofs.RateLimitIP,
		cfg.Proofs.RateLimitToken,
	)

	// Customer-facing proof approval surface. The token in the URL is the
	// only credential.
	r.Route("/proofs/token/{token}", func(r chi.Router) {
		r.Use(middleware.PublicRateLimit(proofPolicy, limiterStore, logg))
		r.Get("/", controllers.PublicGetProof(svcs.Proofs, logg))
		r.Post("/", controllers.PublicResolveProof(svcs.Proofs, logg))
	})

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))
		r.Use(middleware.VendorScope(logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/notifications", controllers.ListNotifications(svcs.Notifications, logg))

		r.Route("/orders/{orderID}", func(r chi.Router) {
			r.Get("/", controllers.GetOrder(svcs.Orders, logg))
			r.Get("/history", controllers.OrderHistory(svcs.Activity, logg))
			r.Get("/remaining", controllers.OrderRemaining(svcs.Assignments, logg))
			r.Get("/assignments", controllers.ListOrderAssignments(svcs.Assignments, logg))
			r.With(adminOnly(logg)).Post("/assignments", controllers.CreateAssignment(svcs.Assignments, logg))
			r.Get("/tracking", controllers.ListOrderTracking(svcs.Tracking, logg))
			r.Get("/proofs", controllers.ListOrderProofs(svcs.Proofs, logg))
			r.Get("/production", controllers.ListOrderProduction(svcs.Production, logg))
		})

		r.Route("/assignments/{assignmentID}", func(r chi.Router) {
			r.Get("/", controllers.GetAssignment(svcs.Assignments, logg))
			r.Post("/status", controllers.UpdateAssignmentStatus(svcs.Assignments, logg))
			r.Get("/tracking", controllers.ListAssignmentTracking(svcs.Tracking, logg))
			r.Post("/tracking", controllers.AddTracking(svcs.Tracking, logg))
			r.Post("/proofs", controllers.CreateProof(svcs.Proofs, logg))
		})

		r.With(adminOnly(logg)).Post("/item-assignments/{itemAssignmentID}/cancel", controllers.CancelItemAllocation(svcs.Assignments, logg))

		r.Post("/tracking/{trackingID}/status", controllers.UpdateTrackingStatus(svcs.Tracking, logg))

		r.Get("/proofs/{proofID}", controllers.GetProof(svcs.Proofs, logg))

		r.Route("/production/{orderID}/{assignmentID}", func(r chi.Router) {
			r.Get("/", controllers.GetProduction(svcs.Production, logg))
			r.Put("/", controllers.UpdateProduction(svcs.Production, logg))
		})

		r.Route("/vendors/{vendorID}", func(r chi.Router) {
			r.Get("/assignments", controllers.ListVendorAssignments(svcs.Assignments, logg))
			r.Get("/transactions", controllers.ListVendorTransactions(svcs.Finance, logg))
			r.Get("/balance", controllers.VendorBalance(svcs.Finance, logg))
			r.Get("/payouts", controllers.ListVendorPayouts(svcs.Finance, logg))
		})

		r.Route("/monitoring", func(r chi.Router) {
			r.Get("/alerts", controllers.ListAlerts(svcs.Monitoring, logg))
			r.Post("/alerts/{alertID}/read", controllers.MarkAlertRead(svcs.Monitoring, logg))
			r.With(adminOnly(logg)).Post("/alerts/{alertID}/resolve", controllers.ResolveAlert(svcs.Monitoring, logg))
			r.With(adminOnly(logg)).Get("/thresholds", controllers.GetThresholds(svcs.Monitoring, logg))
			r.With(adminOnly(logg)).Put("/thresholds", controllers.UpdateThresholds(svcs.Monitoring, logg))
			r.With(adminOnly(logg)).Post("/scan", controllers.TriggerScan(svcs.Monitoring, logg))
		})

		r.Route("/finance", func(r chi.Router) {
			r.Use(adminOnly(logg))
			r.Post("/transactions", controllers.RecordTransaction(svcs.Finance, logg))
			r.Post("/transactions/{transactionID}/complete", controllers.CompleteTransaction(svcs.Finance, logg))
			r.Post("/payouts", controllers.CreatePayout(svcs.Finance, logg))
			r.Get("/payouts/{payoutID}", controllers.GetPayout(svcs.Finance, logg))
			r.Post("/payouts/{payoutID}/status", controllers.UpdatePayoutStatus(svcs.Finance, logg))
		})
	})

	return r
}

func adminOnly(logg *logger.Logger) func(http.Handler) http.Handler {
	return middleware.RequireRoles(logg, enums.ActorRoleAdmin, enums.ActorRoleSystem)
}
