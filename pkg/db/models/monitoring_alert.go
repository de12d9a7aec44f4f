package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// MonitoringAlert records one staleness condition detected by the scan.
// At most one unresolved row exists per (entity, alert_type); repeat scans
// bump LastSeenAt instead of inserting duplicates.
type MonitoringAlert struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AlertType    enums.AlertType `gorm:"column:alert_type;type:text;not null;uniqueIndex:idx_alert_entity_type,priority:2,where:resolved_at IS NULL"`
	EntityID     uuid.UUID       `gorm:"column:entity_id;type:uuid;not null;uniqueIndex:idx_alert_entity_type,priority:1,where:resolved_at IS NULL"`
	OrderID      uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	AssignmentID *uuid.UUID      `gorm:"column:assignment_id;type:uuid"`
	VendorID     *uuid.UUID      `gorm:"column:vendor_id;type:uuid;index"`
	Message      string          `gorm:"column:message;not null"`
	ReadAt       *time.Time      `gorm:"column:read_at"`
	ResolvedAt   *time.Time      `gorm:"column:resolved_at"`
	FirstSeenAt  time.Time       `gorm:"column:first_seen_at;not null"`
	LastSeenAt   time.Time       `gorm:"column:last_seen_at;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
