package monitoring

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
)

// ThresholdsRepository reads and writes the single staleness configuration
// row. Get seeds defaults on first access.
type ThresholdsRepository interface {
	Get(ctx context.Context) (*models.MonitorThresholds, error)
	Update(ctx context.Context, updates map[string]any) (*models.MonitorThresholds, error)
}

type thresholdsRepository struct {
	db *gorm.DB
}

// NewThresholdsRepository returns the thresholds repository.
func NewThresholdsRepository(db *gorm.DB) ThresholdsRepository {
	return &thresholdsRepository{db: db}
}

func (r *thresholdsRepository) Get(ctx context.Context) (*models.MonitorThresholds, error) {
	var row models.MonitorThresholds
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.MonitorThresholds{
			ID:                       uuid.New(),
			UnassignedOrderHours:     24,
			AssignedNotAcceptedHours: 24,
			AcceptedNotStartedHours:  48,
			InProgressTooLongDays:    7,
			NoTrackingAfterDays:      5,
			StaleTrackingDays:        10,
			ProofExpiryWarningHours:  24,
		}
		if createErr := r.db.WithContext(ctx).Create(&row).Error; createErr != nil {
			return nil, createErr
		}
		return &row, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *thresholdsRepository) Update(ctx context.Context, updates map[string]any) (*models.MonitorThresholds, error) {
	current, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.MonitorThresholds{}).
		Where("id = ?", current.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.Get(ctx)
}
