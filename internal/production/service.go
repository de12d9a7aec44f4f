package production

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// UpdateInput is a manual edit of the production overlay. Nil fields are
// left untouched.
type UpdateInput struct {
	OrderID               uuid.UUID
	AssignmentID          uuid.UUID
	DesignProofStatus     *string
	ProductionProofStatus *string
	BlockedReason         *string
	ClearBlockedReason    bool
	UpdatedBy             uuid.UUID
}

// Service tracks proof and production progress per (order, assignment).
// Proof resolution feeds it automatically; admins and vendors edit it
// directly as well.
type Service interface {
	Get(ctx context.Context, orderID, assignmentID uuid.UUID) (*models.ProductionStatus, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProductionStatus, error)
	Update(ctx context.Context, input UpdateInput) (*models.ProductionStatus, error)
	// ApplyProofDecision records a resolved proof on the overlay. A
	// revision request blocks production until the vendor re-submits,
	// carrying the customer's notes as the blocked reason.
	ApplyProofDecision(ctx context.Context, orderID, assignmentID uuid.UUID, proofType enums.ProofType, decision enums.ProofStatus, notes *string) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// ServiceParams configure the production status tracker.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

// NewService wires the production tracker dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "production repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo: params.Repo,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

func (s *service) Get(ctx context.Context, orderID, assignmentID uuid.UUID) (*models.ProductionStatus, error) {
	row, err := s.repo.Find(ctx, orderID, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "production status not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load production status")
	}
	return row, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.ProductionStatus, error) {
	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list production statuses")
	}
	return rows, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.ProductionStatus, error) {
	if input.OrderID == uuid.Nil || input.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id and assignment id required")
	}

	row := &models.ProductionStatus{
		OrderID:      input.OrderID,
		AssignmentID: input.AssignmentID,
		UpdatedBy:    &input.UpdatedBy,
	}
	fields := []string{"updated_by"}
	if input.DesignProofStatus != nil {
		row.DesignProofStatus = input.DesignProofStatus
		fields = append(fields, "design_proof_status")
	}
	if input.ProductionProofStatus != nil {
		row.ProductionProofStatus = input.ProductionProofStatus
		fields = append(fields, "production_proof_status")
	}
	if input.BlockedReason != nil || input.ClearBlockedReason {
		row.BlockedReason = input.BlockedReason
		fields = append(fields, "blocked_reason")
	}

	if err := s.repo.Upsert(ctx, row, fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert production status")
	}
	return s.Get(ctx, input.OrderID, input.AssignmentID)
}

func (s *service) ApplyProofDecision(ctx context.Context, orderID, assignmentID uuid.UUID, proofType enums.ProofType, decision enums.ProofStatus, notes *string) error {
	status := decision.String()
	row := &models.ProductionStatus{
		OrderID:      orderID,
		AssignmentID: assignmentID,
	}
	var fields []string
	switch proofType {
	case enums.ProofTypeDesign:
		row.DesignProofStatus = &status
		fields = append(fields, "design_proof_status")
	case enums.ProofTypeProduction:
		row.ProductionProofStatus = &status
		fields = append(fields, "production_proof_status")
	default:
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown proof type %q", proofType)
	}

	fields = append(fields, "blocked_reason")
	if decision == enums.ProofStatusRevisionRequested {
		reason := "awaiting proof revision"
		if notes != nil && strings.TrimSpace(*notes) != "" {
			reason = strings.TrimSpace(*notes)
		}
		row.BlockedReason = &reason
	}

	if err := s.repo.Upsert(ctx, row, fields); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record proof decision")
	}
	return nil
}
