package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/cron"
	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/pkg/config"
	"github.com/vendorbridge/backoffice-backend/pkg/db"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/metrics"
	"github.com/vendorbridge/backoffice-backend/pkg/migrate"
	"github.com/vendorbridge/backoffice-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "monitor-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "monitor-worker"

	logg = logger.New(logger.Options{
		ServiceName: "monitor-worker",
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
	metricsCollector := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	notifySvc, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(gormDB),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	monitorSvc, err := monitoring.NewService(monitoring.ServiceParams{
		Repo:          monitoring.NewRepository(gormDB),
		Thresholds:    monitoring.NewThresholdsRepository(gormDB),
		Orders:        orders.NewRepository(gormDB),
		Notifications: notifySvc,
		Metrics:       metricsCollector,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create monitoring service", err)
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
		Assignments:   assignments.NewRepository(gormDB),
		Orders:        orders.NewRepository(gormDB),
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

	lock, err := cron.NewRedisLock(redisClient, cfg.Monitor.LockKey, cfg.Monitor.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(&cron.MonitoringScanJob{Monitoring: monitorSvc, Logger: logg})
	if cfg.Monitor.SweepExpired {
		registry.Register(&cron.ProofExpirySweepJob{Proofs: proofSvc, Logger: logg})
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Monitor.EffectiveInterval(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Monitor.EffectiveInterval().String(),
	})
	logg.Info(ctx, "starting monitor worker")

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Monitor.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			logg.Error(ctx, "error shutting down metrics server", err)
		}
	}()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "monitor worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "monitor worker shutting down gracefully")
}
