package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// ProofApproval is a time-boxed customer approval request for a design or
// production proof. The stored status may still read pending after expiry;
// effective status is always evaluated lazily against ExpiresAt.
type ProofApproval struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID   uuid.UUID         `gorm:"column:order_item_id;type:uuid;not null"`
	AssignmentID  uuid.UUID         `gorm:"column:assignment_id;type:uuid;not null;index"`
	ProofType     enums.ProofType   `gorm:"column:proof_type;type:text;not null"`
	Status        enums.ProofStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ApprovalToken string            `gorm:"column:approval_token;not null;uniqueIndex"`
	CustomerEmail string            `gorm:"column:customer_email;not null"`
	CustomerName  *string           `gorm:"column:customer_name"`
	ResponseNotes *string           `gorm:"column:response_notes"`
	CreatedBy     uuid.UUID         `gorm:"column:created_by;type:uuid;not null"`
	SentAt        *time.Time        `gorm:"column:sent_at"`
	RespondedAt   *time.Time        `gorm:"column:responded_at"`
	ExpiresAt     time.Time         `gorm:"column:expires_at;not null"`
	Images        []ProofImage      `gorm:"foreignKey:ProofApprovalID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ProofImage is file metadata for one proof image. Bytes live in external
// storage; only the URL is kept here.
type ProofImage struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProofApprovalID uuid.UUID `gorm:"column:proof_approval_id;type:uuid;not null;index"`
	OrderItemID     uuid.UUID `gorm:"column:order_item_id;type:uuid;not null"`
	URL             string    `gorm:"column:url;not null"`
	FileName        string    `gorm:"column:file_name;not null"`
	ContentType     string    `gorm:"column:content_type;not null"`
	SizeBytes       int64     `gorm:"column:size_bytes;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
