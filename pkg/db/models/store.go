package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is an external storefront whose orders are ingested into the back
// office. Rows are owned by the ingestion boundary.
type Store struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Platform  string    `gorm:"column:platform;not null"`
	Active    bool      `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
