package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vendorbridge/backoffice-backend/api/routes"
	"github.com/vendorbridge/backoffice-backend/internal/activity"
	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/finance"
	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/internal/tracking"
	"github.com/vendorbridge/backoffice-backend/internal/vendors"
	"github.com/vendorbridge/backoffice-backend/pkg/config"
	"github.com/vendorbridge/backoffice-backend/pkg/db"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/migrate"
	"github.com/vendorbridge/backoffice-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gormDB := dbClient.DB()

	notifySvc, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	assignRepo := assignments.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	activityRepo := activity.NewRepository(gormDB)
	vendorsRepo := vendors.NewRepository(gormDB)

	assignSvc, err := assignments.NewService(assignments.ServiceParams{
		DB:            gormDB,
		Repo:          assignRepo,
		Orders:        ordersRepo,
		Vendors:       vendorsRepo,
		Activity:      activityRepo,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	trackSvc, err := tracking.NewService(tracking.ServiceParams{
		Repo:        tracking.NewRepository(gormDB),
		Assignments: assignRepo,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}

	prodSvc, err := production.NewService(production.ServiceParams{
		Repo:   production.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create production service", err)
		os.Exit(1)
	}

	proofSvc, err := proofs.NewService(proofs.ServiceParams{
		Repo:          proofs.NewRepository(gormDB),
		Assignments:   assignRepo,
		Orders:        ordersRepo,
		Production:    prodSvc,
		Notifications: notifySvc,
		TokenTTL:      cfg.Proofs.TokenTTL,
		PublicBaseURL: cfg.Proofs.PublicBaseURL,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create proofs service", err)
		os.Exit(1)
	}

	monitorSvc, err := monitoring.NewService(monitoring.ServiceParams{
		Repo:          monitoring.NewRepository(gormDB),
		Thresholds:    monitoring.NewThresholdsRepository(gormDB),
		Orders:        ordersRepo,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create monitoring service", err)
		os.Exit(1)
	}

	financeSvc, err := finance.NewService(finance.ServiceParams{
		DB:            gormDB,
		Repo:          finance.NewRepository(gormDB),
		Vendors:       vendorsRepo,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Assignments:   assignSvc,
			Tracking:      trackSvc,
			Production:    prodSvc,
			Proofs:        proofSvc,
			Monitoring:    monitorSvc,
			Finance:       financeSvc,
			Notifications: notifySvc,
			Orders:        ordersRepo,
			Activity:      activityRepo,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
