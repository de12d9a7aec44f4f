package cron

import (
	"context"

	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// MonitoringScanJob runs one staleness scan per cycle.
type MonitoringScanJob struct {
	Monitoring monitoring.Service
	Logger     *logger.Logger
}

func (j *MonitoringScanJob) Name() string { return "monitoring_scan" }

func (j *MonitoringScanJob) Run(ctx context.Context) error {
	result, err := j.Monitoring.Scan(ctx)
	if err != nil {
		return err
	}
	ctx = j.Logger.WithFields(ctx, map[string]any{
		"new_alerts":    result.NewAlerts,
		"seen_alerts":   result.SeenAlerts,
		"auto_resolved": result.AutoResolved,
	})
	j.Logger.Info(ctx, "monitoring scan finished")
	return nil
}

// ProofExpirySweepJob persists the expired status for overdue pending
// proofs. Lazy evaluation stays authoritative; the sweep just keeps stored
// rows from drifting indefinitely.
type ProofExpirySweepJob struct {
	Proofs proofs.Service
	Logger *logger.Logger
}

func (j *ProofExpirySweepJob) Name() string { return "proof_expiry_sweep" }

func (j *ProofExpirySweepJob) Run(ctx context.Context) error {
	count, err := j.Proofs.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		j.Logger.Info(j.Logger.WithField(ctx, "expired", count), "proof expiry sweep flipped proofs")
	}
	return nil
}
