package activity

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
)

// Repository appends and reads the order status history trail. Rows are
// facts: there is no update or delete surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Append(ctx context.Context, entry *models.OrderStatusHistory) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusHistory, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a history repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Append(ctx context.Context, entry *models.OrderStatusHistory) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var entries []models.OrderStatusHistory
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Latest(ctx context.Context, orderID uuid.UUID) (*models.OrderStatusHistory, error) {
	var entry models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
