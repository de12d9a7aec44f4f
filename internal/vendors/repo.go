package vendors

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
)

// Repository reads the vendor directory: approval status and commission
// rates. Vendor onboarding is owned elsewhere; this core only consumes it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	// EffectiveCommissionRate resolves the rate for a vendor and optional
	// product reference. A per-product override wins over the vendor default.
	EffectiveCommissionRate(ctx context.Context, vendorID uuid.UUID, productRef *string) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a vendor directory repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) EffectiveCommissionRate(ctx context.Context, vendorID uuid.UUID, productRef *string) (decimal.Decimal, error) {
	if productRef != nil && *productRef != "" {
		var override models.VendorProductRate
		err := r.db.WithContext(ctx).
			Where("vendor_id = ? AND product_ref = ?", vendorID, *productRef).
			First(&override).Error
		if err == nil {
			return override.CommissionRate, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, err
		}
	}

	var vendor models.Vendor
	if err := r.db.WithContext(ctx).
		Select("default_commission_rate").
		First(&vendor, "id = ?", vendorID).Error; err != nil {
		return decimal.Zero, err
	}
	return vendor.DefaultCommissionRate, nil
}
