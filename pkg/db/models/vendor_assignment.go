package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// VendorAssignment is one vendor's responsibility for all or part of an
// order. A full assignment must be the only non-cancelled assignment on its
// order; partial assignments may coexist.
type VendorAssignment struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index;index:idx_vendor_assignments_sole_full,unique,where:assignment_type = 'full' AND status <> 'cancelled'"`
	VendorID         uuid.UUID              `gorm:"column:vendor_id;type:uuid;not null;index"`
	AssignmentType   enums.AssignmentType   `gorm:"column:assignment_type;type:text;not null"`
	Status           enums.AssignmentStatus `gorm:"column:status;type:text;not null;default:'assigned'"`
	CommissionAmount decimal.Decimal        `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	AssignedAmount   decimal.Decimal        `gorm:"column:assigned_amount;type:numeric(12,2);not null"`
	AssignedBy       uuid.UUID              `gorm:"column:assigned_by;type:uuid;not null"`
	Notes            *string                `gorm:"column:notes"`
	AssignedAt       time.Time              `gorm:"column:assigned_at;not null"`
	AcceptedAt       *time.Time             `gorm:"column:accepted_at"`
	StartedAt        *time.Time             `gorm:"column:started_at"`
	CompletedAt      *time.Time             `gorm:"column:completed_at"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at"`
	StatusChangedAt  time.Time              `gorm:"column:status_changed_at;not null"`
	Items            []OrderItemAssignment  `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
