package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/metrics"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// ScanResult summarizes one monitoring pass.
type ScanResult struct {
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
	NewAlerts    int            `json:"new_alerts"`
	SeenAlerts   int            `json:"seen_alerts"`
	AutoResolved int64          `json:"auto_resolved"`
	OpenByType   map[string]int `json:"open_by_type"`
}

// UpdateThresholdsInput carries partial staleness configuration changes.
// Nil fields keep their current values.
type UpdateThresholdsInput struct {
	UnassignedOrderHours     *int
	AssignedNotAcceptedHours *int
	AcceptedNotStartedHours  *int
	InProgressTooLongDays    *int
	NoTrackingAfterDays      *int
	StaleTrackingDays        *int
	ProofExpiryWarningHours  *int
	UpdatedBy                uuid.UUID
}

// Service is the staleness monitoring engine. Scan detects overdue
// conditions idempotently: re-detection bumps the existing alert instead of
// duplicating it, and conditions that clear are auto-resolved.
type Service interface {
	Scan(ctx context.Context) (*ScanResult, error)
	ListAlerts(ctx context.Context, vendorID *uuid.UUID) ([]models.MonitoringAlert, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	ResolveAlert(ctx context.Context, id uuid.UUID) error
	Thresholds(ctx context.Context) (*models.MonitorThresholds, error)
	UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*models.MonitorThresholds, error)
}

type service struct {
	repo          Repository
	thresholds    ThresholdsRepository
	orders        orders.Repository
	notifications notifications.Service
	metrics       *metrics.JobMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// ServiceParams configure the monitoring engine.
type ServiceParams struct {
	Repo          Repository
	Thresholds    ThresholdsRepository
	Orders        orders.Repository
	Notifications notifications.Service
	Metrics       *metrics.JobMetrics
	Logger        *logger.Logger
}

// NewService wires the monitoring engine dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "monitoring repository required")
	}
	if params.Thresholds == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "thresholds repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:          params.Repo,
		thresholds:    params.Thresholds,
		orders:        params.Orders,
		notifications: params.Notifications,
		metrics:       params.Metrics,
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

type detected struct {
	alertType    enums.AlertType
	entityID     uuid.UUID
	orderID      uuid.UUID
	assignmentID *uuid.UUID
	vendorID     *uuid.UUID
	message      string
}

func (s *service) Scan(ctx context.Context) (*ScanResult, error) {
	started := s.now().UTC()
	cfg, err := s.thresholds.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load thresholds")
	}

	var conditions []detected
	for _, check := range []func(context.Context, *models.MonitorThresholds, time.Time) ([]detected, error){
		s.checkUnassigned,
		s.checkNotAccepted,
		s.checkNotStarted,
		s.checkStaleInProgress,
		s.checkMissingTracking,
		s.checkStaleTracking,
		s.checkOverdueProofs,
	} {
		found, err := check(ctx, cfg, started)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, found...)
	}

	result := &ScanResult{
		StartedAt:  started,
		OpenByType: make(map[string]int, len(enums.AlertTypes())),
	}
	var upsertErrs error
	for _, c := range conditions {
		alert := &models.MonitoringAlert{
			AlertType:    c.alertType,
			EntityID:     c.entityID,
			OrderID:      c.orderID,
			AssignmentID: c.assignmentID,
			VendorID:     c.vendorID,
			Message:      c.message,
			FirstSeenAt:  started,
			LastSeenAt:   started,
		}
		isNew, err := s.repo.UpsertOpen(ctx, alert)
		if err != nil {
			// one bad row should not lose the rest of the batch
			upsertErrs = multierr.Append(upsertErrs, fmt.Errorf("upsert %s alert for %s: %w", c.alertType, c.entityID, err))
			continue
		}
		result.OpenByType[c.alertType.String()]++
		if isNew {
			result.NewAlerts++
			s.notifyAlert(ctx, alert)
		} else {
			result.SeenAlerts++
		}
	}
	if upsertErrs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, upsertErrs, "persist alerts")
	}

	resolved, err := s.repo.ResolveStaleBefore(ctx, started)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cleared alerts")
	}
	result.AutoResolved = resolved
	result.Duration = s.now().UTC().Sub(started)

	if s.metrics != nil {
		for _, alertType := range enums.AlertTypes() {
			s.metrics.SetOpenAlerts(alertType.String(), result.OpenByType[alertType.String()])
		}
	}
	s.logg.Info(s.logg.WithField(ctx, "new_alerts", result.NewAlerts), "monitoring scan complete")
	return result, nil
}

func (s *service) checkUnassigned(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.UnassignedOrderHours) * time.Hour)
	rows, err := s.orders.ListUnassignedBefore(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan unassigned orders")
	}
	out := make([]detected, 0, len(rows))
	for _, order := range rows {
		out = append(out, detected{
			alertType: enums.AlertTypeUnassigned,
			entityID:  order.ID,
			orderID:   order.ID,
			message:   fmt.Sprintf("order %s unassigned for over %dh", order.OrderNumber, cfg.UnassignedOrderHours),
		})
	}
	return out, nil
}

func (s *service) checkNotAccepted(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.AssignedNotAcceptedHours) * time.Hour)
	rows, err := s.repo.AssignmentsInStatusSince(ctx, enums.AssignmentStatusAssigned, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan unaccepted assignments")
	}
	return assignmentConditions(rows, enums.AlertTypeNotAccepted,
		fmt.Sprintf("assignment not accepted within %dh", cfg.AssignedNotAcceptedHours)), nil
}

func (s *service) checkNotStarted(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.AcceptedNotStartedHours) * time.Hour)
	rows, err := s.repo.AssignmentsInStatusSince(ctx, enums.AssignmentStatusAccepted, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan unstarted assignments")
	}
	return assignmentConditions(rows, enums.AlertTypeNotStarted,
		fmt.Sprintf("accepted assignment not started within %dh", cfg.AcceptedNotStartedHours)), nil
}

func (s *service) checkStaleInProgress(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.InProgressTooLongDays) * 24 * time.Hour)
	rows, err := s.repo.AssignmentsInStatusSince(ctx, enums.AssignmentStatusInProgress, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stale in-progress assignments")
	}
	return assignmentConditions(rows, enums.AlertTypeStaleInProgress,
		fmt.Sprintf("assignment in progress for over %dd", cfg.InProgressTooLongDays)), nil
}

func (s *service) checkMissingTracking(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.NoTrackingAfterDays) * 24 * time.Hour)
	rows, err := s.repo.AssignmentsMissingTracking(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan assignments without tracking")
	}
	return assignmentConditions(rows, enums.AlertTypeMissingTracking,
		fmt.Sprintf("no tracking added within %dd of starting", cfg.NoTrackingAfterDays)), nil
}

func (s *service) checkStaleTracking(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	cutoff := now.Add(-time.Duration(cfg.StaleTrackingDays) * 24 * time.Hour)
	rows, err := s.repo.StaleTracking(ctx, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stale tracking")
	}
	out := make([]detected, 0, len(rows))
	for _, entry := range rows {
		assignmentID := entry.AssignmentID
		out = append(out, detected{
			alertType:    enums.AlertTypeStaleTracking,
			entityID:     entry.ID,
			orderID:      entry.OrderID,
			assignmentID: &assignmentID,
			message:      fmt.Sprintf("tracking %s had no update for over %dd", entry.TrackingNumber, cfg.StaleTrackingDays),
		})
	}
	return out, nil
}

func (s *service) checkOverdueProofs(ctx context.Context, cfg *models.MonitorThresholds, now time.Time) ([]detected, error) {
	warnUntil := now.Add(time.Duration(cfg.ProofExpiryWarningHours) * time.Hour)
	rows, err := s.repo.ProofsExpiringBefore(ctx, warnUntil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan expiring proofs")
	}
	out := make([]detected, 0, len(rows))
	for _, proof := range rows {
		assignmentID := proof.AssignmentID
		out = append(out, detected{
			alertType:    enums.AlertTypeOverdueProof,
			entityID:     proof.ID,
			orderID:      proof.OrderID,
			assignmentID: &assignmentID,
			message:      fmt.Sprintf("proof approval expires at %s with no customer response", proof.ExpiresAt.Format(time.RFC3339)),
		})
	}
	return out, nil
}

func assignmentConditions(rows []models.VendorAssignment, alertType enums.AlertType, message string) []detected {
	out := make([]detected, 0, len(rows))
	for _, a := range rows {
		assignmentID := a.ID
		vendorID := a.VendorID
		out = append(out, detected{
			alertType:    alertType,
			entityID:     a.ID,
			orderID:      a.OrderID,
			assignmentID: &assignmentID,
			vendorID:     &vendorID,
			message:      message,
		})
	}
	return out
}

func (s *service) notifyAlert(ctx context.Context, alert *models.MonitoringAlert) {
	if s.notifications == nil {
		return
	}
	s.notifications.Emit(ctx, notifications.EmitInput{
		Kind:          enums.NotificationKindMonitoringAlert,
		RecipientType: "admin",
		RecipientID:   alert.VendorID,
		Subject:       fmt.Sprintf("Monitoring alert: %s", alert.AlertType),
		Payload: types.JSONMap{
			"alert_id":   alert.ID.String(),
			"alert_type": alert.AlertType.String(),
			"order_id":   alert.OrderID.String(),
			"message":    alert.Message,
		},
	})
}

func (s *service) ListAlerts(ctx context.Context, vendorID *uuid.UUID) ([]models.MonitoringAlert, error) {
	alerts, err := s.repo.ListOpen(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}
	return alerts, nil
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findAlert(ctx, id); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark alert read")
	}
	return nil
}

func (s *service) ResolveAlert(ctx context.Context, id uuid.UUID) error {
	alert, err := s.findAlert(ctx, id)
	if err != nil {
		return err
	}
	if alert.ResolvedAt != nil {
		return pkgerrors.New(pkgerrors.CodeResolved, "alert already resolved")
	}
	if err := s.repo.Resolve(ctx, id, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve alert")
	}
	return nil
}

func (s *service) findAlert(ctx context.Context, id uuid.UUID) (*models.MonitoringAlert, error) {
	alert, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load alert")
	}
	return alert, nil
}

func (s *service) Thresholds(ctx context.Context) (*models.MonitorThresholds, error) {
	cfg, err := s.thresholds.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load thresholds")
	}
	return cfg, nil
}

func (s *service) UpdateThresholds(ctx context.Context, input UpdateThresholdsInput) (*models.MonitorThresholds, error) {
	updates := map[string]any{"updated_by": input.UpdatedBy}
	for field, value := range map[string]*int{
		"unassigned_order_hours":      input.UnassignedOrderHours,
		"assigned_not_accepted_hours": input.AssignedNotAcceptedHours,
		"accepted_not_started_hours":  input.AcceptedNotStartedHours,
		"in_progress_too_long_days":   input.InProgressTooLongDays,
		"no_tracking_after_days":      input.NoTrackingAfterDays,
		"stale_tracking_days":         input.StaleTrackingDays,
		"proof_expiry_warning_hours":  input.ProofExpiryWarningHours,
	} {
		if value == nil {
			continue
		}
		if *value <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be positive", field)
		}
		updates[field] = *value
	}

	cfg, err := s.thresholds.Update(ctx, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update thresholds")
	}
	return cfg, nil
}
