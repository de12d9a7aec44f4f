package models

import (
	"time"

	"github.com/google/uuid"
)

// MonitorThresholds is the single-row staleness configuration the scan reads.
// Admins update it through the API; the worker reads it every cycle.
type MonitorThresholds struct {
	ID                         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UnassignedOrderHours       int        `gorm:"column:unassigned_order_hours;not null;default:24"`
	AssignedNotAcceptedHours   int        `gorm:"column:assigned_not_accepted_hours;not null;default:24"`
	AcceptedNotStartedHours    int        `gorm:"column:accepted_not_started_hours;not null;default:48"`
	InProgressTooLongDays      int        `gorm:"column:in_progress_too_long_days;not null;default:7"`
	NoTrackingAfterDays        int        `gorm:"column:no_tracking_after_days;not null;default:5"`
	StaleTrackingDays          int        `gorm:"column:stale_tracking_days;not null;default:10"`
	ProofExpiryWarningHours    int        `gorm:"column:proof_expiry_warning_hours;not null;default:24"`
	UpdatedBy                  *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt                  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
