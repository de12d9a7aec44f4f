package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
)

// Repository manages the financial ledger and payout batches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTransaction(ctx context.Context, txn *models.FinancialTransaction) error
	FindTransaction(ctx context.Context, id uuid.UUID) (*models.FinancialTransaction, error)
	FindTransactions(ctx context.Context, ids []uuid.UUID) ([]models.FinancialTransaction, error)
	ListTransactionsByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.FinancialTransaction, string, error)
	MarkTransactionsPaid(ctx context.Context, ids []uuid.UUID, payoutDate time.Time) error

	CreatePayout(ctx context.Context, payout *models.VendorPayout) error
	FindPayout(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error)
	ListPayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error)
	// ActivePayoutsByVendor returns the vendor's payouts that still claim
	// their transactions, i.e. everything except failed ones.
	ActivePayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error)
	UpdatePayout(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a finance repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.FinancialTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransaction(ctx context.Context, id uuid.UUID) (*models.FinancialTransaction, error) {
	var txn models.FinancialTransaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindTransactions(ctx context.Context, ids []uuid.UUID) ([]models.FinancialTransaction, error) {
	var txns []models.FinancialTransaction
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListTransactionsByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.FinancialTransaction, string, error) {
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

	var txns []models.FinancialTransaction
	if err := query.Find(&txns).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(txns) == limit {
		last := txns[limit-2]
		txns = txns[:limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return txns, next, nil
}

func (r *repository) MarkTransactionsPaid(ctx context.Context, ids []uuid.UUID, payoutDate time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":      enums.TransactionStatusPaid,
			"payout_date": payoutDate,
		}).Error
}

func (r *repository) CreatePayout(ctx context.Context, payout *models.VendorPayout) error {
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindPayout(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error) {
	var payout models.VendorPayout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListPayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	var payouts []models.VendorPayout
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ActivePayoutsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	var payouts []models.VendorPayout
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status <> ?", vendorID, enums.PayoutStatusFailed).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) UpdatePayout(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorPayout{}).
		Where("id = ?", id).
		Updates(updates).Error
}
