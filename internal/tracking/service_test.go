package tracking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/testutil"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		Assignments: assignments.NewRepository(db),
		Logger:      logger.New(logger.Options{Level: zerolog.Disabled}),
	})
	require.NoError(t, err)
	return svc
}

func seedAssignment(t *testing.T, db *gorm.DB, status enums.AssignmentStatus) *models.VendorAssignment {
	t.Helper()

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "2001",
		testutil.ItemSpec{Name: "Mug", Quantity: 2, UnitPrice: "10.00"},
	)
	return testutil.NewAssignment(t, db, order, vendor, enums.AssignmentTypeFull, status)
}

func TestAddTracking(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	assignment := seedAssignment(t, db, enums.AssignmentStatusInProgress)

	entry, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "ups",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusPending, entry.Status)
	assert.Equal(t, assignment.OrderID, entry.OrderID)

	listed, err := svc.ListForAssignment(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestAddTrackingRejectedBeforeAcceptance(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	assignment := seedAssignment(t, db, enums.AssignmentStatusAssigned)

	_, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "ups",
		CreatedBy:      uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAssignmentState))
}

func TestAddTrackingRejectedOnTerminalAssignment(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	assignment := seedAssignment(t, db, enums.AssignmentStatusCompleted)

	_, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "ups",
		CreatedBy:      uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAssignmentState))
}

func TestUpdateTrackingStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	assignment := seedAssignment(t, db, enums.AssignmentStatusInProgress)

	entry, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "9400100000000000000000",
		Carrier:        "usps",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)

	entry, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: entry.ID, NewStatus: enums.TrackingStatusShipped,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusShipped, entry.Status)
	require.NotNil(t, entry.ShippedDate)

	entry, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: entry.ID, NewStatus: enums.TrackingStatusDelivered,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.DeliveredDate)

	// Delivered is terminal.
	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: entry.ID, NewStatus: enums.TrackingStatusException,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTransition))
}

func TestUpdateTrackingExceptionRecovery(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)
	assignment := seedAssignment(t, db, enums.AssignmentStatusAccepted)

	entry, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "TBA000000000000",
		Carrier:        "amazon",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)

	entry, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: entry.ID, NewStatus: enums.TrackingStatusException,
	})
	require.NoError(t, err)

	entry, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: entry.ID, NewStatus: enums.TrackingStatusShipped,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.TrackingStatusShipped, entry.Status)
	require.NotNil(t, entry.ShippedDate)

	// Skipping straight from pending to delivered is not legal.
	fresh, err := svc.Add(context.Background(), AddInput{
		AssignmentID:   assignment.ID,
		TrackingNumber: "TBA000000000001",
		Carrier:        "amazon",
		CreatedBy:      uuid.New(),
	})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(context.Background(), UpdateStatusInput{
		TrackingID: fresh.ID, NewStatus: enums.TrackingStatusDelivered,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeTransition))
}
