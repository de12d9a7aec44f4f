package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// Vendor mirrors the vendor directory entry this core consumes: approval
// status and commission rates. Onboarding itself happens elsewhere.
type Vendor struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyName           string             `gorm:"column:company_name;not null"`
	Email                 string             `gorm:"column:email;not null"`
	Status                enums.VendorStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DefaultCommissionRate decimal.Decimal    `gorm:"column:default_commission_rate;type:numeric(5,4);not null"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorProductRate is a per-product commission override for a vendor.
// When present it takes precedence over the vendor default.
type VendorProductRate struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID       uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null"`
	ProductRef     string          `gorm:"column:product_ref;not null"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
