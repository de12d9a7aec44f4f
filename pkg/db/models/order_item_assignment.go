package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// OrderItemAssignment allocates part of an order item's quantity to one
// vendor assignment. Across all active rows for an item the allocated
// quantity never exceeds the item's quantity.
type OrderItemAssignment struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AssignmentID   uuid.UUID                  `gorm:"column:assignment_id;type:uuid;not null;index"`
	OrderItemID    uuid.UUID                  `gorm:"column:order_item_id;type:uuid;not null;index"`
	Quantity       int                        `gorm:"column:quantity;not null"`
	AssignedAmount decimal.Decimal            `gorm:"column:assigned_amount;type:numeric(12,2);not null"`
	Status         enums.ItemAssignmentStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CancelledAt    *time.Time                 `gorm:"column:cancelled_at"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
