package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// OrderItem is a line of an ingested order. Quantity is the unit of
// allocation for partial vendor assignment.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ExternalItemID string          `gorm:"column:external_item_id;not null"`
	Name           string          `gorm:"column:name;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	ProductRef     *string         `gorm:"column:product_ref"`
	ProductData    types.JSONMap   `gorm:"column:product_data;type:jsonb;serializer:json"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
