package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// OrderTracking is a carrier tracking entry for one vendor assignment.
// Status moves via manual updates or carrier-poll callbacks through the same
// entrypoint.
type OrderTracking struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	AssignmentID   uuid.UUID            `gorm:"column:assignment_id;type:uuid;not null;index"`
	TrackingNumber string               `gorm:"column:tracking_number;not null"`
	Carrier        string               `gorm:"column:carrier;not null"`
	Status         enums.TrackingStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes          *string              `gorm:"column:notes"`
	CreatedBy      uuid.UUID            `gorm:"column:created_by;type:uuid;not null"`
	ShippedDate    *time.Time           `gorm:"column:shipped_date"`
	DeliveredDate  *time.Time           `gorm:"column:delivered_date"`
	StatusUpdated  time.Time            `gorm:"column:status_updated_at;not null"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
