package production

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
)

// Repository manages the per-(order, assignment) production overlay rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, orderID, assignmentID uuid.UUID) (*models.ProductionStatus, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProductionStatus, error)
	// Upsert writes the given fields for the (order, assignment) pair,
	// creating the row on first touch.
	Upsert(ctx context.Context, row *models.ProductionStatus, fields []string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a production status repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, orderID, assignmentID uuid.UUID) (*models.ProductionStatus, error) {
	var row models.ProductionStatus
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND assignment_id = ?", orderID, assignmentID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProductionStatus, error) {
	var rows []models.ProductionStatus
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Upsert(ctx context.Context, row *models.ProductionStatus, fields []string) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns(append(fields, "updated_at")),
		}).
		Create(row).Error
}
