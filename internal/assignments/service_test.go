package assignments

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/activity"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/testutil"
	"github.com/vendorbridge/backoffice-backend/internal/vendors"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	logg := logger.New(logger.Options{Level: zerolog.Disabled})

	svc, err := NewService(ServiceParams{
		DB:       db,
		Repo:     NewRepository(db),
		Orders:   orders.NewRepository(db),
		Vendors:  vendors.NewRepository(db),
		Activity: activity.NewRepository(db),
		Logger:   logg,
	})
	require.NoError(t, err)
	return svc
}

func TestAssignFull(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.15")
	order := testutil.NewOrder(t, db, store, "1001",
		testutil.ItemSpec{Name: "Mug", Quantity: 10, UnitPrice: "10.00"},
		testutil.ItemSpec{Name: "Shirt", Quantity: 5, UnitPrice: "20.00"},
	)

	assignment, err := svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendor.ID,
		Type:       enums.AssignmentTypeFull,
		AssignedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusAssigned, assignment.Status)
	assert.True(t, assignment.AssignedAmount.Equal(decimal.RequireFromString("200.00")), "assigned %s", assignment.AssignedAmount)
	assert.True(t, assignment.CommissionAmount.Equal(decimal.RequireFromString("30.00")), "commission %s", assignment.CommissionAmount)
	require.Len(t, assignment.Items, 2)

	// The order's derived status flips to assigned and leaves a history row.
	status, err := orders.NewRepository(db).DerivedStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderBusinessStatusAssigned, status)

	history, err := activity.NewRepository(db).ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "unassigned", history[0].OldStatus)
	assert.Equal(t, "assigned", history[0].NewStatus)
}

func TestAssignFullRejectedWhenOrderAlreadyAssigned(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendorA := testutil.NewVendor(t, db, "Vendor A", "0.10")
	vendorB := testutil.NewVendor(t, db, "Vendor B", "0.10")
	order := testutil.NewOrder(t, db, store, "1002",
		testutil.ItemSpec{Name: "Mug", Quantity: 4, UnitPrice: "10.00"},
	)

	_, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendorA.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendorB.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	// Partial splits are also blocked while a full assignment is live.
	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorB.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestSoleFullAssignmentEnforcedByDatabase(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendorA := testutil.NewVendor(t, db, "Vendor A", "0.10")
	vendorB := testutil.NewVendor(t, db, "Vendor B", "0.10")
	order := testutil.NewOrder(t, db, store, "1006",
		testutil.ItemSpec{Name: "Mug", Quantity: 4, UnitPrice: "10.00"},
	)

	_, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendorA.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.NoError(t, err)

	// A write that skips the service check, as a concurrent assign would,
	// still hits the partial unique index.
	now := time.Now().UTC()
	dup := &models.VendorAssignment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		VendorID:         vendorB.ID,
		AssignmentType:   enums.AssignmentTypeFull,
		Status:           enums.AssignmentStatusAssigned,
		CommissionAmount: decimal.RequireFromString("4.00"),
		AssignedAmount:   decimal.RequireFromString("40.00"),
		AssignedBy:       uuid.New(),
		AssignedAt:       now,
		StatusChangedAt:  now,
	}
	err = db.Create(dup).Error
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// A cancelled full row does not hold the slot.
	require.NoError(t, db.Model(&models.VendorAssignment{}).
		Where("order_id = ?", order.ID).
		Update("status", enums.AssignmentStatusCancelled).Error)
	require.NoError(t, db.Create(dup).Error)
}

func TestAssignPartialSplitAndOverAllocation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendorA := testutil.NewVendor(t, db, "Vendor A", "0.10")
	vendorB := testutil.NewVendor(t, db, "Vendor B", "0.20")
	order := testutil.NewOrder(t, db, store, "1003",
		testutil.ItemSpec{Name: "Poster", Quantity: 10, UnitPrice: "5.00"},
	)
	item := order.Items[0]

	first, err := svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorA.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 6}},
	})
	require.NoError(t, err)
	assert.True(t, first.AssignedAmount.Equal(decimal.RequireFromString("30.00")))

	// 6 of 10 are taken; asking for 5 more must fail with the ledger intact.
	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorB.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 5}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOverAllocation))
	assert.Contains(t, err.Error(), "exceeds remaining 4")

	remaining, err := svc.Remaining(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 6, remaining[0].Allocated)
	assert.Equal(t, 4, remaining[0].Remaining)

	// The rest fits exactly.
	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorB.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	remaining, err = svc.Remaining(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining[0].Remaining)
}

func TestAssignPartialValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "1004",
		testutil.ItemSpec{Name: "Poster", Quantity: 3, UnitPrice: "5.00"},
	)

	_, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendor.ID, Type: enums.AssignmentTypePartial, AssignedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendor.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAssignRejectsInactiveVendor(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	require.NoError(t, db.Model(&models.Vendor{}).Where("id = ?", vendor.ID).
		Update("status", enums.VendorStatusSuspended).Error)
	order := testutil.NewOrder(t, db, store, "1005",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)

	_, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendor.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestAssignUsesProductRateOverride(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	ref := "SKU-42"
	require.NoError(t, db.Create(&models.VendorProductRate{
		ID:             uuid.New(),
		VendorID:       vendor.ID,
		ProductRef:     ref,
		CommissionRate: decimal.RequireFromString("0.25"),
	}).Error)
	order := testutil.NewOrder(t, db, store, "1006",
		testutil.ItemSpec{Name: "Special", Quantity: 2, UnitPrice: "50.00", ProductRef: &ref},
	)

	assignment, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendor.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, assignment.CommissionAmount.Equal(decimal.RequireFromString("25.00")), "commission %s", assignment.CommissionAmount)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "1007",
		testutil.ItemSpec{Name: "Mug", Quantity: 2, UnitPrice: "10.00"},
	)

	assignment, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendor.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.NoError(t, err)

	actor := uuid.New()
	for _, next := range []enums.AssignmentStatus{
		enums.AssignmentStatusAccepted,
		enums.AssignmentStatusInProgress,
		enums.AssignmentStatusCompleted,
	} {
		assignment, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
			AssignmentID: assignment.ID, NewStatus: next, ActorID: actor,
		})
		require.NoError(t, err)
		assert.Equal(t, next, assignment.Status)
	}
	assert.NotNil(t, assignment.AcceptedAt)
	assert.NotNil(t, assignment.StartedAt)
	assert.NotNil(t, assignment.CompletedAt)

	status, err := orders.NewRepository(db).DerivedStatus(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderBusinessStatusCompleted, status)

	// assigned -> in_progress history row, then in_progress -> completed.
	history, err := activity.NewRepository(db).ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "completed", history[len(history)-1].NewStatus)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: assignment.ID, NewStatus: enums.AssignmentStatusCancelled, ActorID: actor,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTransition))
}

func TestUpdateStatusRejectsSkippedStep(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "1008",
		testutil.ItemSpec{Name: "Mug", Quantity: 2, UnitPrice: "10.00"},
	)
	assignment, err := svc.Assign(context.Background(), AssignInput{
		OrderID: order.ID, VendorID: vendor.ID, Type: enums.AssignmentTypeFull, AssignedBy: uuid.New(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: assignment.ID, NewStatus: enums.AssignmentStatusCompleted, ActorID: uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTransition))
}

func TestCancelAssignmentReleasesAllocations(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendorA := testutil.NewVendor(t, db, "Vendor A", "0.10")
	vendorB := testutil.NewVendor(t, db, "Vendor B", "0.10")
	order := testutil.NewOrder(t, db, store, "1009",
		testutil.ItemSpec{Name: "Poster", Quantity: 10, UnitPrice: "5.00"},
	)
	item := order.Items[0]

	first, err := svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorA.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 8}},
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		AssignmentID: first.ID, NewStatus: enums.AssignmentStatusCancelled, ActorID: uuid.New(),
	})
	require.NoError(t, err)

	// All 8 units return to the pool.
	remaining, err := svc.Remaining(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining[0].Remaining)

	_, err = svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendorB.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 10}},
	})
	require.NoError(t, err)
}

func TestCancelItemAllocation(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "1010",
		testutil.ItemSpec{Name: "Poster", Quantity: 10, UnitPrice: "5.00"},
	)
	item := order.Items[0]

	assignment, err := svc.Assign(context.Background(), AssignInput{
		OrderID:    order.ID,
		VendorID:   vendor.ID,
		Type:       enums.AssignmentTypePartial,
		AssignedBy: uuid.New(),
		Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: 7}},
	})
	require.NoError(t, err)
	require.Len(t, assignment.Items, 1)

	actor := uuid.New()
	require.NoError(t, svc.CancelItemAllocation(context.Background(), assignment.Items[0].ID, actor))

	remaining, err := svc.Remaining(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, remaining[0].Remaining)

	err = svc.CancelItemAllocation(context.Background(), assignment.Items[0].ID, actor)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

// Random assign/cancel sequences must never push the allocated total past the
// item quantity, and every rejected request must leave the ledger untouched.
func TestAllocationInvariantUnderRandomOps(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "1011",
		testutil.ItemSpec{Name: "Sticker Sheet", Quantity: 20, UnitPrice: "1.00"},
	)
	item := order.Items[0]

	rng := rand.New(rand.NewSource(7))
	allocated := 0
	var live []uuid.UUID // active item allocation ids

	for i := 0; i < 60; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			idx := rng.Intn(len(live))
			require.NoError(t, svc.CancelItemAllocation(context.Background(), live[idx], uuid.New()))
			var row models.OrderItemAssignment
			require.NoError(t, db.First(&row, "id = ?", live[idx]).Error)
			allocated -= row.Quantity
			live = append(live[:idx], live[idx+1:]...)
			continue
		}

		qty := rng.Intn(10) + 1
		assignment, err := svc.Assign(context.Background(), AssignInput{
			OrderID:    order.ID,
			VendorID:   vendor.ID,
			Type:       enums.AssignmentTypePartial,
			AssignedBy: uuid.New(),
			Items:      []ItemAllocation{{OrderItemID: item.ID, Quantity: qty}},
		})
		if allocated+qty > item.Quantity {
			require.Error(t, err, "op %d: %d allocated, asked %d", i, allocated, qty)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeOverAllocation))
		} else {
			require.NoError(t, err, "op %d: %d allocated, asked %d", i, allocated, qty)
			allocated += qty
			live = append(live, assignment.Items[0].ID)
		}

		remaining, err := svc.Remaining(context.Background(), order.ID)
		require.NoError(t, err)
		require.Equal(t, allocated, remaining[0].Allocated, "op %d", i)
		require.LessOrEqual(t, remaining[0].Allocated, item.Quantity, "op %d", i)
	}
}
