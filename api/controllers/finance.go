package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	"github.com/vendorbridge/backoffice-backend/api/validators"
	"github.com/vendorbridge/backoffice-backend/internal/finance"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
)

type recordTransactionRequest struct {
	VendorID        string     `json:"vendor_id" validate:"required,uuid"`
	Type            string     `json:"type" validate:"required"`
	Amount          string     `json:"amount" validate:"required"`
	Status          *string    `json:"status,omitempty"`
	ReferenceID     *string    `json:"reference_id,omitempty" validate:"omitempty,uuid"`
	Description     string     `json:"description" validate:"required,max=2000"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
}

// RecordTransaction appends one entry to a vendor's ledger.
func RecordTransaction(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordTransactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor id"))
			return
		}

		txType, err := enums.ParseTransactionType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction type"))
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal string"))
			return
		}

		input := finance.RecordTransactionInput{
			VendorID:        vendorID,
			Type:            txType,
			Amount:          amount,
			Description:     req.Description,
			TransactionDate: req.TransactionDate,
		}
		if req.Status != nil {
			status, parseErr := enums.ParseTransactionStatus(*req.Status)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid transaction status"))
				return
			}
			input.Status = status
		}
		if req.ReferenceID != nil {
			refID, parseErr := uuid.Parse(*req.ReferenceID)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid reference id"))
				return
			}
			input.ReferenceID = &refID
		}

		created, err := svc.RecordTransaction(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// CompleteTransaction marks a pending transaction payable.
func CompleteTransaction(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		txID, err := validators.ParseUUIDParam(r, "transactionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.CompleteTransaction(r.Context(), txID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ListVendorTransactions pages through a vendor's ledger.
func ListVendorTransactions(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, next, err := svc.ListTransactions(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"transactions": list,
			"next_cursor":  next,
		})
	}
}

// VendorBalance summarizes a vendor's pending, payable, and paid totals.
func VendorBalance(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.VendorBalance(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

type createPayoutRequest struct {
	VendorID       string   `json:"vendor_id" validate:"required,uuid"`
	TransactionIDs []string `json:"transaction_ids" validate:"required,min=1,dive,uuid"`
}

// CreatePayout batches completed transactions into a payout.
func CreatePayout(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendorID, err := uuid.Parse(req.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid vendor id"))
			return
		}

		input := finance.CreatePayoutInput{
			VendorID:  vendorID,
			CreatedBy: actorID(r),
		}
		for _, raw := range req.TransactionIDs {
			txID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id"))
				return
			}
			input.TransactionIDs = append(input.TransactionIDs, txID)
		}

		created, err := svc.CreatePayout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

type updatePayoutStatusRequest struct {
	Status        string  `json:"status" validate:"required"`
	FailureReason *string `json:"failure_reason,omitempty" validate:"omitempty,max=2000"`
}

// UpdatePayoutStatus moves a payout through its settlement graph.
func UpdatePayoutStatus(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := validators.ParseUUIDParam(r, "payoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updatePayoutStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePayoutStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payout status"))
			return
		}

		updated, err := svc.UpdatePayoutStatus(r.Context(), finance.UpdatePayoutStatusInput{
			PayoutID:      payoutID,
			NewStatus:     status,
			FailureReason: req.FailureReason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// GetPayout returns one payout batch.
func GetPayout(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payoutID, err := validators.ParseUUIDParam(r, "payoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payout, err := svc.GetPayout(r.Context(), payoutID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payout)
	}
}

// ListVendorPayouts returns every payout for a vendor.
func ListVendorPayouts(svc finance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vendorID, err := validators.ParseUUIDParam(r, "vendorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPayouts(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
