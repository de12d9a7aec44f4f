package assignments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/activity"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/vendors"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
	"github.com/vendorbridge/backoffice-backend/pkg/pagination"
	"github.com/vendorbridge/backoffice-backend/pkg/types"
)

// ItemAllocation requests part of one order item for a partial assignment.
type ItemAllocation struct {
	OrderItemID uuid.UUID `json:"order_item_id" validate:"required"`
	Quantity    int       `json:"quantity" validate:"required,gt=0"`
}

// AssignInput carries everything needed to create a vendor assignment.
// Items is required for partial assignments and ignored for full ones.
type AssignInput struct {
	OrderID    uuid.UUID
	VendorID   uuid.UUID
	Type       enums.AssignmentType
	AssignedBy uuid.UUID
	Notes      *string
	Items      []ItemAllocation
}

// UpdateStatusInput drives a single assignment lifecycle transition.
type UpdateStatusInput struct {
	AssignmentID uuid.UUID
	NewStatus    enums.AssignmentStatus
	ActorID      uuid.UUID
	Notes        *string
}

// ItemRemaining reports how much of an order item is still unallocated.
type ItemRemaining struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Allocated   int       `json:"allocated"`
	Remaining   int       `json:"remaining"`
}

// Service is the assignment engine: it creates full and partial vendor
// assignments, moves them through their lifecycle, and maintains the
// per-item allocation ledger.
type Service interface {
	Assign(ctx context.Context, input AssignInput) (*models.VendorAssignment, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.VendorAssignment, error)
	CancelItemAllocation(ctx context.Context, itemAssignmentID, actorID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorAssignment, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.VendorAssignment, string, error)
	Remaining(ctx context.Context, orderID uuid.UUID) ([]ItemRemaining, error)
}

type service struct {
	db            *gorm.DB
	repo          Repository
	orders        orders.Repository
	vendors       vendors.Repository
	activity      activity.Repository
	notifications notifications.Service
	logg          *logger.Logger
	now           func() time.Time
}

// ServiceParams configure the assignment engine.
type ServiceParams struct {
	DB            *gorm.DB
	Repo          Repository
	Orders        orders.Repository
	Vendors       vendors.Repository
	Activity      activity.Repository
	Notifications notifications.Service
	Logger        *logger.Logger
}

// NewService wires the assignment engine dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database handle required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignments repository required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders repository required")
	}
	if params.Vendors == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendors repository required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		db:            params.DB,
		repo:          params.Repo,
		orders:        params.Orders,
		vendors:       params.Vendors,
		activity:      params.Activity,
		notifications: params.Notifications,
		logg:          params.Logger,
		now:           time.Now,
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignInput) (*models.VendorAssignment, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown assignment type %q", input.Type)
	}
	if input.Type == enums.AssignmentTypePartial && len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partial assignment requires at least one item allocation")
	}

	vendor, err := s.vendors.Find(ctx, input.VendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if vendor.Status != enums.VendorStatusActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "vendor %s is not active", vendor.ID).
			WithDetails(map[string]any{"vendor_status": vendor.Status.String()})
	}

	order, err := s.orders.FindWithItems(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Cancelled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is cancelled")
	}

	var created *models.VendorAssignment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		activityRepo := s.activity.WithTx(tx)

		existing, err := repo.ListByOrder(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list existing assignments")
		}
		if err := checkCoexistence(input.Type, existing); err != nil {
			return err
		}

		oldStatus := enums.DeriveOrderBusinessStatus(assignmentStatuses(existing))

		allocations, err := s.resolveAllocations(ctx, repo, order, input)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		assignment := &models.VendorAssignment{
			OrderID:         order.ID,
			VendorID:        vendor.ID,
			AssignmentType:  input.Type,
			Status:          enums.AssignmentStatusAssigned,
			AssignedBy:      input.AssignedBy,
			Notes:           input.Notes,
			AssignedAt:      now,
			StatusChangedAt: now,
		}

		assigned := decimal.Zero
		commission := decimal.Zero
		for i := range allocations {
			item := allocations[i].item
			amount := item.UnitPrice.Mul(decimal.NewFromInt(int64(allocations[i].quantity)))
			rate, err := s.vendors.WithTx(tx).EffectiveCommissionRate(ctx, vendor.ID, item.ProductRef)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve commission rate")
			}
			assigned = assigned.Add(amount)
			commission = commission.Add(amount.Mul(rate).Round(2))
			assignment.Items = append(assignment.Items, models.OrderItemAssignment{
				OrderItemID:    item.ID,
				Quantity:       allocations[i].quantity,
				AssignedAmount: amount,
				Status:         enums.ItemAssignmentStatusActive,
			})
		}
		assignment.AssignedAmount = assigned
		assignment.CommissionAmount = commission

		if err := repo.Create(ctx, assignment); err != nil {
			// The partial unique index backs the coexistence check against
			// a concurrent full assignment on the same order.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkgerrors.New(pkgerrors.CodeConflict, "order already has a full assignment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}

		newStatus, err := ordersRepo.DerivedStatus(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive order status")
		}
		if newStatus != oldStatus {
			entry := &models.OrderStatusHistory{
				OrderID:      order.ID,
				AssignmentID: &assignment.ID,
				OldStatus:    oldStatus.String(),
				NewStatus:    newStatus.String(),
				ChangedBy:    input.AssignedBy,
			}
			if err := activityRepo.Append(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}
		}

		created = assignment
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifications != nil {
		s.notifications.Emit(ctx, notifications.EmitInput{
			Kind:          enums.NotificationKindAssignmentCreated,
			RecipientType: "vendor",
			RecipientID:   &vendor.ID,
			Subject:       fmt.Sprintf("New %s assignment for order %s", created.AssignmentType, order.OrderNumber),
			Payload: types.JSONMap{
				"assignment_id": created.ID.String(),
				"order_id":      order.ID.String(),
			},
		})
	}
	return created, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.VendorAssignment, error) {
	if !input.NewStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown assignment status %q", input.NewStatus)
	}

	var updated *models.VendorAssignment
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		activityRepo := s.activity.WithTx(tx)

		assignment, err := repo.Find(ctx, input.AssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if !assignment.Status.CanTransitionTo(input.NewStatus) {
			return pkgerrors.Newf(pkgerrors.CodeTransition,
				"cannot transition assignment from %s to %s", assignment.Status, input.NewStatus).
				WithDetails(map[string]any{
					"current_status":   assignment.Status.String(),
					"requested_status": input.NewStatus.String(),
				})
		}

		oldStatus, err := ordersRepo.DerivedStatus(ctx, assignment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive order status")
		}

		now := s.now().UTC()
		updates := map[string]any{
			"status":            input.NewStatus,
			"status_changed_at": now,
		}
		switch input.NewStatus {
		case enums.AssignmentStatusAccepted:
			updates["accepted_at"] = now
		case enums.AssignmentStatusInProgress:
			updates["started_at"] = now
		case enums.AssignmentStatusCompleted:
			updates["completed_at"] = now
		case enums.AssignmentStatusCancelled:
			updates["cancelled_at"] = now
		}
		if err := repo.Update(ctx, assignment.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
		}

		// Cancelling an assignment releases its item allocations back to
		// the order's remaining pool.
		if input.NewStatus == enums.AssignmentStatusCancelled {
			if err := repo.CancelItemAssignmentsForAssignment(ctx, assignment.ID, now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release item allocations")
			}
		}

		newStatus, err := ordersRepo.DerivedStatus(ctx, assignment.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "derive order status")
		}
		if newStatus != oldStatus {
			entry := &models.OrderStatusHistory{
				OrderID:      assignment.OrderID,
				AssignmentID: &assignment.ID,
				OldStatus:    oldStatus.String(),
				NewStatus:    newStatus.String(),
				ChangedBy:    input.ActorID,
				Notes:        input.Notes,
			}
			if err := activityRepo.Append(ctx, entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
			}
		}

		updated, err = repo.Find(ctx, assignment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload assignment")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if s.notifications != nil {
		s.notifications.Emit(ctx, notifications.EmitInput{
			Kind:          enums.NotificationKindAssignmentStatus,
			RecipientType: "vendor",
			RecipientID:   &updated.VendorID,
			Subject:       fmt.Sprintf("Assignment %s is now %s", updated.ID, updated.Status),
			Payload: types.JSONMap{
				"assignment_id": updated.ID.String(),
				"order_id":      updated.OrderID.String(),
				"status":        updated.Status.String(),
			},
		})
	}
	return updated, nil
}

func (s *service) CancelItemAllocation(ctx context.Context, itemAssignmentID, actorID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItemAssignment(ctx, itemAssignmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "item allocation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item allocation")
		}
		if item.Status == enums.ItemAssignmentStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeConflict, "item allocation already cancelled")
		}

		parent, err := repo.Find(ctx, item.AssignmentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load parent assignment")
		}
		if parent.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeAssignmentState,
				"cannot release items from a %s assignment", parent.Status).
				WithDetails(map[string]any{"assignment_status": parent.Status.String()})
		}

		return repo.CancelItemAssignment(ctx, item.ID, s.now().UTC())
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error) {
	assignment, err := s.repo.FindWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	return assignment, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorAssignment, error) {
	assignments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return assignments, nil
}

func (s *service) ListForVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.VendorAssignment, string, error) {
	assignments, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor assignments")
	}
	return assignments, next, nil
}

func (s *service) Remaining(ctx context.Context, orderID uuid.UUID) ([]ItemRemaining, error) {
	order, err := s.orders.FindWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	itemIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		itemIDs = append(itemIDs, item.ID)
	}
	allocations := map[uuid.UUID]int{}
	if len(itemIDs) > 0 {
		allocations, err = s.repo.ActiveAllocations(ctx, itemIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum allocations")
		}
	}

	remaining := make([]ItemRemaining, 0, len(order.Items))
	for _, item := range order.Items {
		allocated := allocations[item.ID]
		remaining = append(remaining, ItemRemaining{
			OrderItemID: item.ID,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Allocated:   allocated,
			Remaining:   item.Quantity - allocated,
		})
	}
	return remaining, nil
}

type resolvedAllocation struct {
	item     models.OrderItem
	quantity int
}

// resolveAllocations validates the requested allocations against the
// order's items under a row lock and returns the concrete per-item splits.
// For full assignments every item is taken at its full quantity.
func (s *service) resolveAllocations(ctx context.Context, repo Repository, order *models.Order, input AssignInput) ([]resolvedAllocation, error) {
	itemsByID := make(map[uuid.UUID]models.OrderItem, len(order.Items))
	for _, item := range order.Items {
		itemsByID[item.ID] = item
	}

	if input.Type == enums.AssignmentTypeFull {
		allocations := make([]resolvedAllocation, 0, len(order.Items))
		for _, item := range order.Items {
			allocations = append(allocations, resolvedAllocation{item: item, quantity: item.Quantity})
		}
		return allocations, nil
	}

	itemIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]bool, len(input.Items))
	for _, req := range input.Items {
		if req.Quantity <= 0 {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must be positive for item %s", req.OrderItemID)
		}
		if seen[req.OrderItemID] {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "duplicate allocation for item %s", req.OrderItemID)
		}
		if _, ok := itemsByID[req.OrderItemID]; !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "item %s does not belong to order %s", req.OrderItemID, order.ID)
		}
		seen[req.OrderItemID] = true
		itemIDs = append(itemIDs, req.OrderItemID)
	}

	// Lock the targeted item rows so concurrent partial assignments
	// serialize on the allocation check.
	locked, err := repo.LockOrderItems(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock order items")
	}
	lockedByID := make(map[uuid.UUID]models.OrderItem, len(locked))
	for _, item := range locked {
		lockedByID[item.ID] = item
	}

	allocated, err := repo.ActiveAllocations(ctx, itemIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum allocations")
	}

	allocations := make([]resolvedAllocation, 0, len(input.Items))
	for _, req := range input.Items {
		item := lockedByID[req.OrderItemID]
		remaining := item.Quantity - allocated[item.ID]
		if req.Quantity > remaining {
			return nil, pkgerrors.Newf(pkgerrors.CodeOverAllocation,
				"requested quantity %d exceeds remaining %d for item %s", req.Quantity, remaining, item.ID).
				WithDetails(map[string]any{
					"order_item_id": item.ID.String(),
					"requested":     req.Quantity,
					"remaining":     remaining,
				})
		}
		allocations = append(allocations, resolvedAllocation{item: item, quantity: req.Quantity})
	}
	return allocations, nil
}

// checkCoexistence enforces the exclusivity rules between full and partial
// assignments on one order.
func checkCoexistence(requested enums.AssignmentType, existing []models.VendorAssignment) error {
	for _, a := range existing {
		if a.Status == enums.AssignmentStatusCancelled {
			continue
		}
		if requested == enums.AssignmentTypeFull {
			return pkgerrors.New(pkgerrors.CodeConflict,
				"order already has a non-cancelled assignment; a full assignment must be the only one").
				WithDetails(map[string]any{"existing_assignment_id": a.ID.String()})
		}
		if a.AssignmentType == enums.AssignmentTypeFull {
			return pkgerrors.New(pkgerrors.CodeConflict,
				"order is fully assigned; cancel the full assignment before splitting").
				WithDetails(map[string]any{"existing_assignment_id": a.ID.String()})
		}
	}
	return nil
}

func assignmentStatuses(assignments []models.VendorAssignment) []enums.AssignmentStatus {
	statuses := make([]enums.AssignmentStatus, 0, len(assignments))
	for _, a := range assignments {
		statuses = append(statuses, a.Status)
	}
	return statuses
}
