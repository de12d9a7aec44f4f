package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
)

// Repository manages persistence for carrier tracking entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.OrderTracking, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.OrderTracking, error)
	Create(ctx context.Context, entry *models.OrderTracking) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ExistsForAssignment(ctx context.Context, assignmentID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a tracking repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.OrderTracking, error) {
	var entry models.OrderTracking
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.OrderTracking, error) {
	var entries []models.OrderTracking
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) Create(ctx context.Context, entry *models.OrderTracking) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderTracking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ExistsForAssignment(ctx context.Context, assignmentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderTracking{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
