package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatusHistory is the append-only audit trail of derived order status
// changes. Rows are never updated or deleted; the latest row is the order's
// recorded business status.
type OrderStatusHistory struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	AssignmentID *uuid.UUID `gorm:"column:assignment_id;type:uuid"`
	OldStatus    string     `gorm:"column:old_status;not null"`
	NewStatus    string     `gorm:"column:new_status;not null"`
	ChangedBy    uuid.UUID  `gorm:"column:changed_by;type:uuid;not null"`
	Notes        *string    `gorm:"column:notes"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}
