package proofs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

// Repository manages persistence for proof approvals and their images.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, id uuid.UUID) (*models.ProofApproval, error)
	FindByToken(ctx context.Context, token string) (*models.ProofApproval, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProofApproval, error)
	Create(ctx context.Context, proof *models.ProofApproval) error
	// Resolve applies the decision only while the row is still pending.
	// Returns false when another request resolved it first.
	Resolve(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	// ListPendingExpiringBefore returns stored-pending proofs whose expiry
	// falls before the cutoff.
	ListPendingExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.ProofApproval, error)
	// MarkExpired flips stored-pending proofs past their expiry to expired.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a proofs repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.ProofApproval, error) {
	var proof models.ProofApproval
	if err := r.db.WithContext(ctx).
		Preload("Images").
		First(&proof, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.ProofApproval, error) {
	var proof models.ProofApproval
	if err := r.db.WithContext(ctx).
		Preload("Images").
		First(&proof, "approval_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProofApproval, error) {
	var proofs []models.ProofApproval
	if err := r.db.WithContext(ctx).
		Preload("Images").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&proofs).Error; err != nil {
		return nil, err
	}
	return proofs, nil
}

func (r *repository) Create(ctx context.Context, proof *models.ProofApproval) error {
	if proof.ID == uuid.Nil {
		proof.ID = uuid.New()
	}
	for i := range proof.Images {
		if proof.Images[i].ID == uuid.Nil {
			proof.Images[i].ID = uuid.New()
		}
		proof.Images[i].ProofApprovalID = proof.ID
	}
	return r.db.WithContext(ctx).Create(proof).Error
}

func (r *repository) Resolve(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProofApproval{}).
		Where("id = ? AND status = ?", id, enums.ProofStatusPending).
		Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *repository) ListPendingExpiringBefore(ctx context.Context, cutoff time.Time) ([]models.ProofApproval, error) {
	var proofs []models.ProofApproval
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.ProofStatusPending, cutoff).
		Find(&proofs).Error; err != nil {
		return nil, err
	}
	return proofs, nil
}

func (r *repository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProofApproval{}).
		Where("status = ? AND expires_at < ?", enums.ProofStatusPending, now).
		Update("status", enums.ProofStatusExpired)
	return result.RowsAffected, result.Error
}
