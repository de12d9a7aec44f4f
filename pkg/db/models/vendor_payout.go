package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/vendorbridge/backoffice-backend/pkg/db/types"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// VendorPayout batches completed transactions into one settlement event.
// Status is the only mutable field; transitions follow the payout graph.
type VendorPayout struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID             uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Amount               decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Status               enums.PayoutStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	IncludedTransactions dbtypes.UUIDArray  `gorm:"column:included_transactions;type:uuid[];not null"`
	FailureReason        *string            `gorm:"column:failure_reason"`
	CreatedBy            uuid.UUID          `gorm:"column:created_by;type:uuid;not null"`
	CompletedAt          *time.Time         `gorm:"column:completed_at"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
