package monitoring

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// Repository manages monitoring alerts and the staleness query surface the
// scan runs against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// UpsertOpen records a detected condition. If an unresolved alert
	// already exists for (entity, type) only LastSeenAt moves; otherwise a
	// new row is inserted. Returns true when the alert is new.
	UpsertOpen(ctx context.Context, alert *models.MonitoringAlert) (bool, error)
	// ResolveStaleBefore closes unresolved alerts the latest scan did not
	// re-observe, meaning their condition cleared.
	ResolveStaleBefore(ctx context.Context, scanStarted time.Time) (int64, error)
	Find(ctx context.Context, id uuid.UUID) (*models.MonitoringAlert, error)
	ListOpen(ctx context.Context, vendorID *uuid.UUID) ([]models.MonitoringAlert, error)
	CountOpen(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	Resolve(ctx context.Context, id uuid.UUID, at time.Time) error

	// Scan queries. Each returns the rows currently violating one
	// staleness threshold.
	AssignmentsInStatusSince(ctx context.Context, status enums.AssignmentStatus, cutoff time.Time) ([]models.VendorAssignment, error)
	AssignmentsMissingTracking(ctx context.Context, cutoff time.Time) ([]models.VendorAssignment, error)
	StaleTracking(ctx context.Context, cutoff time.Time) ([]models.OrderTracking, error)
	ProofsExpiringBefore(ctx context.Context, warnUntil time.Time) ([]models.ProofApproval, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a monitoring repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) UpsertOpen(ctx context.Context, alert *models.MonitoringAlert) (bool, error) {
	var existing models.MonitoringAlert
	err := r.db.WithContext(ctx).
		Where("entity_id = ? AND alert_type = ? AND resolved_at IS NULL", alert.EntityID, alert.AlertType).
		First(&existing).Error
	if err == nil {
		updateErr := r.db.WithContext(ctx).
			Model(&models.MonitoringAlert{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"last_seen_at": alert.LastSeenAt,
				"message":      alert.Message,
			}).Error
		return false, updateErr
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	return true, r.db.WithContext(ctx).Create(alert).Error
}

func (r *repository) ResolveStaleBefore(ctx context.Context, scanStarted time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MonitoringAlert{}).
		Where("resolved_at IS NULL AND last_seen_at < ?", scanStarted).
		Update("resolved_at", scanStarted)
	return result.RowsAffected, result.Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.MonitoringAlert, error) {
	var alert models.MonitoringAlert
	if err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *repository) ListOpen(ctx context.Context, vendorID *uuid.UUID) ([]models.MonitoringAlert, error) {
	query := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("first_seen_at ASC")
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}
	var alerts []models.MonitoringAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *repository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MonitoringAlert{}).
		Where("resolved_at IS NULL").
		Count(&count).Error
	return count, err
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.MonitoringAlert{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at).Error
}

func (r *repository) Resolve(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.MonitoringAlert{}).
		Where("id = ?", id).
		Update("resolved_at", at).Error
}

func (r *repository) AssignmentsInStatusSince(ctx context.Context, status enums.AssignmentStatus, cutoff time.Time) ([]models.VendorAssignment, error) {
	var assignments []models.VendorAssignment
	err := r.db.WithContext(ctx).
		Where("status = ? AND status_changed_at < ?", status, cutoff).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) AssignmentsMissingTracking(ctx context.Context, cutoff time.Time) ([]models.VendorAssignment, error) {
	var assignments []models.VendorAssignment
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", enums.AssignmentStatusInProgress, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM order_trackings ot WHERE ot.assignment_id = vendor_assignments.id)").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// StaleTracking returns shipments that left the vendor but have not been
// delivered within the threshold, measured from the shipped date.
func (r *repository) StaleTracking(ctx context.Context, cutoff time.Time) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	err := r.db.WithContext(ctx).
		Where("status = ? AND shipped_date < ?", enums.TrackingStatusShipped, cutoff).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ProofsExpiringBefore returns pending proofs whose expiry falls before the
// warning horizon. Rows already past expiry still match until something
// persists a decision or the sweep flips them.
func (r *repository) ProofsExpiringBefore(ctx context.Context, warnUntil time.Time) ([]models.ProofApproval, error) {
	var proofs []models.ProofApproval
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ProofStatusPending, warnUntil).
		Find(&proofs).Error
	if err != nil {
		return nil, err
	}
	return proofs, nil
}
