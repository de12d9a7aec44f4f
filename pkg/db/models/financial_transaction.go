package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// FinancialTransaction is an append-only signed ledger entry on a vendor
// account. New facts, not overwritten state, model every balance change.
type FinancialTransaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID        uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null;index"`
	TransactionType enums.TransactionType   `gorm:"column:transaction_type;type:text;not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(12,2);not null"`
	Status          enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ReferenceID     *uuid.UUID              `gorm:"column:reference_id;type:uuid"`
	Description     string                  `gorm:"column:description;not null"`
	TransactionDate time.Time               `gorm:"column:transaction_date;not null"`
	PayoutDate      *time.Time              `gorm:"column:payout_date"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
}
