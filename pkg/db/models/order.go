package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// Order is an ingested storefront order. Immutable within this core except
// for store-reported statuses mirrored by the ingestion boundary.
type Order struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID           uuid.UUID       `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_orders_store_external,priority:1"`
	ExternalOrderID   string          `gorm:"column:external_order_id;not null;uniqueIndex:idx_orders_store_external,priority:2"`
	OrderNumber       string          `gorm:"column:order_number;not null"`
	CustomerName      string          `gorm:"column:customer_name;not null"`
	CustomerEmail     string          `gorm:"column:customer_email;not null"`
	ShippingAddress   *types.Address  `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	BillingAddress    *types.Address  `gorm:"column:billing_address;type:jsonb;serializer:json"`
	TotalAmount       decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency          string          `gorm:"column:currency;not null;default:'USD'"`
	OrderStatus       string          `gorm:"column:order_status;not null"`
	FulfillmentStatus string          `gorm:"column:fulfillment_status;not null;default:'unfulfilled'"`
	PaymentStatus     string          `gorm:"column:payment_status;not null;default:'pending'"`
	OrderDate         time.Time       `gorm:"column:order_date;not null"`
	Cancelled         bool            `gorm:"column:cancelled;not null;default:false"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
