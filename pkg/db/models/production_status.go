package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductionStatus is the per-(order, assignment) overlay of proof and
// production progress. Proof resolution updates it; admins and vendors may
// also set the fields manually.
type ProductionStatus struct {
	ID                    uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID               uuid.UUID  `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_production_order_assignment,priority:1"`
	AssignmentID          uuid.UUID  `gorm:"column:assignment_id;type:uuid;not null;uniqueIndex:idx_production_order_assignment,priority:2"`
	DesignProofStatus     *string    `gorm:"column:design_proof_status"`
	ProductionProofStatus *string    `gorm:"column:production_proof_status"`
	BlockedReason         *string    `gorm:"column:blocked_reason"`
	UpdatedBy             *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt             time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
