package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// Notification is an outbound message handed to the external dispatch
// boundary. Delivery failure is recorded here and never rolls back the state
// change that produced the notification.
type Notification struct {
	ID             uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind           enums.NotificationKind   `gorm:"column:kind;type:text;not null"`
	RecipientType  string                   `gorm:"column:recipient_type;not null"`
	RecipientID    *uuid.UUID               `gorm:"column:recipient_id;type:uuid;index"`
	RecipientEmail *string                  `gorm:"column:recipient_email"`
	Subject        string                   `gorm:"column:subject;not null"`
	Payload        types.JSONMap            `gorm:"column:payload;type:jsonb;serializer:json"`
	Status         enums.NotificationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	ErrorMessage   *string                  `gorm:"column:error_message"`
	SentAt         *time.Time               `gorm:"column:sent_at"`
	CreatedAt      time.Time                `gorm:"column:created_at;autoCreateTime"`
}
