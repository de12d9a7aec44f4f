package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// Repository reads ingestion-owned orders and derives their business status.
// This core never mutates order rows; state lives in assignments and the
// status history trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error)
	// DerivedStatus computes the order-level business status from the
	// statuses of the order's assignments.
	DerivedStatus(ctx context.Context, orderID uuid.UUID) (enums.OrderBusinessStatus, error)
	// ListUnassignedBefore returns non-cancelled orders that were ingested
	// before the cutoff and have no non-cancelled assignment.
	ListUnassignedBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindWithItems(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) DerivedStatus(ctx context.Context, orderID uuid.UUID) (enums.OrderBusinessStatus, error) {
	var statuses []enums.AssignmentStatus
	if err := r.db.WithContext(ctx).
		Model(&models.VendorAssignment{}).
		Where("order_id = ?", orderID).
		Pluck("status", &statuses).Error; err != nil {
		return "", err
	}
	return enums.DeriveOrderBusinessStatus(statuses), nil
}

func (r *repository) ListUnassignedBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("cancelled = ?", false).
		Where("created_at < ?", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM vendor_assignments va WHERE va.order_id = orders.id AND va.status <> ?)",
			enums.AssignmentStatusCancelled).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
