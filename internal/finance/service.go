package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/vendors"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	dbtypes "github.com/vendorbridge/backoffice-backend/pkg/db/types"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// RecordTransactionInput appends one ledger entry to a vendor account.
type RecordTransactionInput struct {
	VendorID        uuid.UUID
	Type            enums.TransactionType
	Amount          decimal.Decimal
	Status          enums.TransactionStatus
	ReferenceID     *uuid.UUID
	Description     string
	TransactionDate *time.Time
}

// CreatePayoutInput batches completed transactions into one payout.
type CreatePayoutInput struct {
	VendorID       uuid.UUID
	TransactionIDs []uuid.UUID
	CreatedBy      uuid.UUID
}

// UpdatePayoutStatusInput moves a payout through its settlement graph.
type UpdatePayoutStatusInput struct {
	PayoutID      uuid.UUID
	NewStatus     enums.PayoutStatus
	FailureReason *string
}

// Balance summarizes a vendor's ledger position.
type Balance struct {
	VendorID uuid.UUID       `json:"vendor_id"`
	Pending  decimal.Decimal `json:"pending"`
	Payable  decimal.Decimal `json:"payable"`
	Paid     decimal.Decimal `json:"paid"`
}

// Service is the financial ledger: append-only vendor transactions and the
// payout batches that settle them.
type Service interface {
	RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.FinancialTransaction, error)
	CompleteTransaction(ctx context.Context, id uuid.UUID) (*models.FinancialTransaction, error)
	ListTransactions(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.FinancialTransaction, string, error)
	VendorBalance(ctx context.Context, vendorID uuid.UUID) (*Balance, error)

	CreatePayout(ctx context.Context, input CreatePayoutInput) (*models.VendorPayout, error)
	UpdatePayoutStatus(ctx context.Context, input UpdatePayoutStatusInput) (*models.VendorPayout, error)
	GetPayout(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error)
	ListPayouts(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error)
}

type service struct {
	db            *gorm.DB
	repo          Repository
	vendors       vendors.Repository
	notifications notifications.Service
	logg          *logger.Logger
	now           func() time.Time
}

// ServiceParams configure the financial ledger.
type ServiceParams struct {
	DB            *gorm.DB
	Repo          Repository
	Vendors       vendors.Repository
	Notifications notifications.Service
	Logger        *logger.Logger
}

// NewService wires the ledger dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database handle required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "finance repository required")
	}
	if params.Vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		db:            params.DB,
		repo:          params.Repo,
		vendors:       params.Vendors,
		notifications: params.Notifications,
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

func (s *service) RecordTransaction(ctx context.Context, input RecordTransactionInput) (*models.FinancialTransaction, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown transaction type %q", input.Type)
	}
	if input.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction amount cannot be zero")
	}
	if input.Description == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction description required")
	}
	if _, err := s.vendors.Find(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	status := input.Status
	if status == "" {
		status = enums.TransactionStatusPending
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown transaction status %q", status)
	}

	date := s.now().UTC()
	if input.TransactionDate != nil {
		date = input.TransactionDate.UTC()
	}
	txn := &models.FinancialTransaction{
		VendorID:        input.VendorID,
		TransactionType: input.Type,
		Amount:          input.Amount,
		Status:          status,
		ReferenceID:     input.ReferenceID,
		Description:     input.Description,
		TransactionDate: date,
	}
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}
	return txn, nil
}

func (s *service) CompleteTransaction(ctx context.Context, id uuid.UUID) (*models.FinancialTransaction, error) {
	txn, err := s.repo.FindTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
	}
	if txn.Status != enums.TransactionStatusPending {
		return nil, pkgerrors.Newf(pkgerrors.CodeTransition,
			"cannot complete a %s transaction", txn.Status)
	}
	result := s.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Where("id = ? AND status = ?", txn.ID, enums.TransactionStatusPending).
		Update("status", enums.TransactionStatusCompleted)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "complete transaction")
	}
	if result.RowsAffected == 0 {
		// Lost the race to a concurrent completion or payout.
		return nil, pkgerrors.New(pkgerrors.CodeTransition, "transaction is no longer pending")
	}
	return s.repo.FindTransaction(ctx, txn.ID)
}

func (s *service) ListTransactions(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.FinancialTransaction, string, error) {
	txns, next, err := s.repo.ListTransactionsByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, next, nil
}

func (s *service) VendorBalance(ctx context.Context, vendorID uuid.UUID) (*Balance, error) {
	type row struct {
		Status enums.TransactionStatus
		Total  decimal.Decimal
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.FinancialTransaction{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("vendor_id = ?", vendorID).
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger")
	}

	balance := &Balance{
		VendorID: vendorID,
		Pending:  decimal.Zero,
		Payable:  decimal.Zero,
		Paid:     decimal.Zero,
	}
	for _, r := range rows {
		switch r.Status {
		case enums.TransactionStatusPending:
			balance.Pending = r.Total
		case enums.TransactionStatusCompleted:
			balance.Payable = r.Total
		case enums.TransactionStatusPaid:
			balance.Paid = r.Total
		}
	}
	return balance, nil
}

func (s *service) CreatePayout(ctx context.Context, input CreatePayoutInput) (*models.VendorPayout, error) {
	if len(input.TransactionIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout requires at least one transaction")
	}

	var created *models.VendorPayout
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		txns, err := repo.FindTransactions(ctx, input.TransactionIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transactions")
		}
		if len(txns) != len(input.TransactionIDs) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more transactions not found")
		}

		amount := decimal.Zero
		for _, txn := range txns {
			if txn.VendorID != input.VendorID {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"transaction %s belongs to another vendor", txn.ID)
			}
			if txn.Status != enums.TransactionStatusCompleted {
				return pkgerrors.Newf(pkgerrors.CodeValidation,
					"transaction %s is %s, only completed transactions are payable", txn.ID, txn.Status)
			}
			amount = amount.Add(txn.Amount)
		}
		if !amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
		}

		// A transaction can belong to at most one live payout.
		active, err := repo.ActivePayoutsByVendor(ctx, input.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active payouts")
		}
		for _, payout := range active {
			for _, id := range input.TransactionIDs {
				if payout.IncludedTransactions.Contains(id) {
					return pkgerrors.Newf(pkgerrors.CodeConflict,
						"transaction %s is already included in payout %s", id, payout.ID).
						WithDetails(map[string]any{
							"transaction_id": id.String(),
							"payout_id":      payout.ID.String(),
						})
				}
			}
		}

		created = &models.VendorPayout{
			VendorID:             input.VendorID,
			Amount:               amount,
			Status:               enums.PayoutStatusPending,
			IncludedTransactions: dbtypes.UUIDArray(input.TransactionIDs),
			CreatedBy:            input.CreatedBy,
		}
		if err := repo.CreatePayout(ctx, created); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payout")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyPayout(ctx, created)
	return created, nil
}

func (s *service) UpdatePayoutStatus(ctx context.Context, input UpdatePayoutStatusInput) (*models.VendorPayout, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown payout status %q", input.NewStatus)
	}

	var updated *models.VendorPayout
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindPayout(ctx, input.PayoutID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if !payout.Status.CanTransitionTo(input.NewStatus) {
			return pkgerrors.Newf(pkgerrors.CodeTransition,
				"cannot transition payout from %s to %s", payout.Status, input.NewStatus).
				WithDetails(map[string]any{
					"current_status":   payout.Status.String(),
					"requested_status": input.NewStatus.String(),
				})
		}

		now := s.now().UTC()
		updates := map[string]any{"status": input.NewStatus}
		switch input.NewStatus {
		case enums.PayoutStatusCompleted:
			updates["completed_at"] = now
		case enums.PayoutStatusFailed:
			if input.FailureReason != nil {
				updates["failure_reason"] = *input.FailureReason
			}
		}
		if err := repo.UpdatePayout(ctx, payout.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payout")
		}

		// Settlement marks every included transaction paid and appends the
		// payout leg to the ledger.
		if input.NewStatus == enums.PayoutStatusCompleted {
			if err := repo.MarkTransactionsPaid(ctx, payout.IncludedTransactions, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark transactions paid")
			}
			payoutID := payout.ID
			leg := &models.FinancialTransaction{
				VendorID:        payout.VendorID,
				TransactionType: enums.TransactionTypePayout,
				Amount:          payout.Amount.Neg(),
				Status:          enums.TransactionStatusPaid,
				ReferenceID:     &payoutID,
				Description:     fmt.Sprintf("payout %s settled", payout.ID),
				TransactionDate: now,
				PayoutDate:      &now,
			}
			if err := repo.CreateTransaction(ctx, leg); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout transaction")
			}
		}

		updated, err = repo.FindPayout(ctx, payout.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payout")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notifyPayout(ctx, updated)
	return updated, nil
}

func (s *service) GetPayout(ctx context.Context, id uuid.UUID) (*models.VendorPayout, error) {
	payout, err := s.repo.FindPayout(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
	}
	return payout, nil
}

func (s *service) ListPayouts(ctx context.Context, vendorID uuid.UUID) ([]models.VendorPayout, error) {
	payouts, err := s.repo.ListPayoutsByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payouts")
	}
	return payouts, nil
}

func (s *service) notifyPayout(ctx context.Context, payout *models.VendorPayout) {
	if s.notifications == nil || payout == nil {
		return
	}
	s.notifications.Emit(ctx, notifications.EmitInput{
		Kind:          enums.NotificationKindPayoutStatus,
		RecipientType: "vendor",
		RecipientID:   &payout.VendorID,
		Subject:       fmt.Sprintf("Payout %s is %s", payout.ID, payout.Status),
		Payload: types.JSONMap{
			"payout_id": payout.ID.String(),
			"status":    payout.Status.String(),
			"amount":    payout.Amount.String(),
		},
	})
}
