package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
)

// Repository manages persistence for vendor assignments and their item
// allocations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error)
	FindWithItems(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorAssignment, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.VendorAssignment, string, error)
	Create(ctx context.Context, assignment *models.VendorAssignment) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// LockOrderItems loads the given order items with a row-level write lock
	// so the allocation check and insert serialize against concurrent
	// partial assignments.
	LockOrderItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.OrderItem, error)
	// ActiveAllocations sums non-cancelled allocated quantity per order item.
	ActiveAllocations(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error)
	FindItemAssignment(ctx context.Context, id uuid.UUID) (*models.OrderItemAssignment, error)
	CancelItemAssignment(ctx context.Context, id uuid.UUID, at time.Time) error
	CancelItemAssignmentsForAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an assignments repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error) {
	var assignment models.VendorAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) FindWithItems(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error) {
	var assignment models.VendorAssignment
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&assignment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorAssignment, error) {
	var assignments []models.VendorAssignment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.VendorAssignment, string, error) {
	limit := pagination.LimitWithBuffer(params.Limit)

	query := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, "", err
		}
		if cursor != nil {
			query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
		}
	}

	var assignments []models.VendorAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(assignments) == limit {
		last := assignments[limit-2]
		assignments = assignments[:limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return assignments, next, nil
}

func (r *repository) Create(ctx context.Context, assignment *models.VendorAssignment) error {
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	for i := range assignment.Items {
		if assignment.Items[i].ID == uuid.Nil {
			assignment.Items[i].ID = uuid.New()
		}
		assignment.Items[i].AssignmentID = assignment.ID
	}
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorAssignment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) LockOrderItems(ctx context.Context, itemIDs []uuid.UUID) ([]models.OrderItem, error) {
	query := r.db.WithContext(ctx)
	// SQLite serializes writers on its own and rejects FOR UPDATE.
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var items []models.OrderItem
	if err := query.
		Where("id IN ?", itemIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ActiveAllocations(ctx context.Context, itemIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	type allocationRow struct {
		OrderItemID uuid.UUID
		Total       int
	}
	var rows []allocationRow
	if err := r.db.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Select("order_item_id, COALESCE(SUM(quantity), 0) AS total").
		Where("order_item_id IN ? AND status = ?", itemIDs, enums.ItemAssignmentStatusActive).
		Group("order_item_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	allocations := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		allocations[row.OrderItemID] = row.Total
	}
	return allocations, nil
}

func (r *repository) FindItemAssignment(ctx context.Context, id uuid.UUID) (*models.OrderItemAssignment, error) {
	var item models.OrderItemAssignment
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CancelItemAssignment(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Where("id = ? AND status = ?", id, enums.ItemAssignmentStatusActive).
		Updates(map[string]any{
			"status":       enums.ItemAssignmentStatusCancelled,
			"cancelled_at": at,
		}).Error
}

func (r *repository) CancelItemAssignmentsForAssignment(ctx context.Context, assignmentID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItemAssignment{}).
		Where("assignment_id = ? AND status = ?", assignmentID, enums.ItemAssignmentStatusActive).
		Updates(map[string]any{
			"status":       enums.ItemAssignmentStatusCancelled,
			"cancelled_at": at,
		}).Error
}
