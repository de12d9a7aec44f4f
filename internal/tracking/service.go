package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// AddInput creates a tracking entry against an assignment.
type AddInput struct {
	AssignmentID   uuid.UUID
	TrackingNumber string
	Carrier        string
	Notes          *string
	CreatedBy      uuid.UUID
}

// UpdateStatusInput moves a tracking entry through the shipment graph.
// Manual admin updates and carrier-poll callbacks both go through it.
type UpdateStatusInput struct {
	TrackingID uuid.UUID
	NewStatus  enums.TrackingStatus
	Notes      *string
}

// Service is the tracking register: carrier tracking entries hang off
// assignments that have actually reached production.
type Service interface {
	Add(ctx context.Context, input AddInput) (*models.OrderTracking, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.OrderTracking, error)
	Get(ctx context.Context, id uuid.UUID) (*models.OrderTracking, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error)
	ListForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.OrderTracking, error)
}

type service struct {
	repo        Repository
	assignments assignments.Repository
	logg        *logger.Logger
	now         func() time.Time
}

// ServiceParams configure the tracking register.
type ServiceParams struct {
	Repo        Repository
	Assignments assignments.Repository
	Logger      *logger.Logger
}

// NewService wires the tracking register dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tracking repository required")
	}
	if params.Assignments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        params.Repo,
		assignments: params.Assignments,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

func (s *service) Add(ctx context.Context, input AddInput) (*models.OrderTracking, error) {
	if strings.TrimSpace(input.TrackingNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	if strings.TrimSpace(input.Carrier) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carrier required")
	}

	assignment, err := s.assignments.Find(ctx, input.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}

	// Tracking only makes sense once the vendor has the work: accepted or
	// in progress, nothing earlier and nothing terminal.
	if assignment.Status != enums.AssignmentStatusAccepted && assignment.Status != enums.AssignmentStatusInProgress {
		return nil, pkgerrors.Newf(pkgerrors.CodeAssignmentState,
			"tracking cannot be added to a %s assignment", assignment.Status).
			WithDetails(map[string]any{"assignment_status": assignment.Status.String()})
	}

	entry := &models.OrderTracking{
		OrderID:        assignment.OrderID,
		AssignmentID:   assignment.ID,
		TrackingNumber: strings.TrimSpace(input.TrackingNumber),
		Carrier:        strings.TrimSpace(input.Carrier),
		Status:         enums.TrackingStatusPending,
		Notes:          input.Notes,
		CreatedBy:      input.CreatedBy,
		StatusUpdated:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tracking entry")
	}
	return entry, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.OrderTracking, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown tracking status %q", input.NewStatus)
	}

	entry, err := s.repo.Find(ctx, input.TrackingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracking entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking entry")
	}
	if !entry.Status.CanTransitionTo(input.NewStatus) {
		return nil, pkgerrors.Newf(pkgerrors.CodeTransition,
			"cannot transition tracking from %s to %s", entry.Status, input.NewStatus).
			WithDetails(map[string]any{
				"current_status":   entry.Status.String(),
				"requested_status": input.NewStatus.String(),
			})
	}

	now := s.now().UTC()
	updates := map[string]any{
		"status":            input.NewStatus,
		"status_updated_at": now,
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	switch input.NewStatus {
	case enums.TrackingStatusShipped:
		if entry.ShippedDate == nil {
			updates["shipped_date"] = now
		}
	case enums.TrackingStatusDelivered:
		updates["delivered_date"] = now
	}
	if err := s.repo.Update(ctx, entry.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking entry")
	}

	updated, err := s.repo.Find(ctx, entry.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload tracking entry")
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.OrderTracking, error) {
	entry, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tracking entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tracking entry")
	}
	return entry, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderTracking, error) {
	entries, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracking entries")
	}
	return entries, nil
}

func (s *service) ListForAssignment(ctx context.Context, assignmentID uuid.UUID) ([]models.OrderTracking, error) {
	entries, err := s.repo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tracking entries")
	}
	return entries, nil
}
