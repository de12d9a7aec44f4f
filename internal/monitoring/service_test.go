package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/testutil"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

func newTestService(t *testing.T, db *gorm.DB) *service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(db),
		Thresholds: NewThresholdsRepository(db),
		Orders:     orders.NewRepository(db),
		Logger:     logger.New(logger.Options{Level: zerolog.Disabled}),
	})
	require.NoError(t, err)
	return svc.(*service)
}

func backdate(t *testing.T, db *gorm.DB, table string, id uuid.UUID, column string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Table(table).
		Where("id = ?", id).
		Update(column, time.Now().UTC().Add(-age)).Error)
}

func TestScanDetectsUnassignedOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	order := testutil.NewOrder(t, db, store, "4001",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	backdate(t, db, "orders", order.ID, "created_at", 48*time.Hour)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.NewAlerts)
	assert.Equal(t, 1, result.OpenByType["unassigned"])

	alerts, err := svc.ListAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, enums.AlertTypeUnassigned, alerts[0].AlertType)
	assert.Equal(t, order.ID, alerts[0].EntityID)
}

func TestScanIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	order := testutil.NewOrder(t, db, store, "4002",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	backdate(t, db, "orders", order.ID, "created_at", 48*time.Hour)

	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.NewAlerts)

	// Same condition on the next pass bumps the alert instead of
	// duplicating it.
	second, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.NewAlerts)
	assert.Equal(t, 1, second.SeenAlerts)

	alerts, err := svc.ListAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].LastSeenAt.After(alerts[0].FirstSeenAt) ||
		alerts[0].LastSeenAt.Equal(alerts[0].FirstSeenAt))
}

func TestScanAutoResolvesClearedConditions(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "4003",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	backdate(t, db, "orders", order.ID, "created_at", 48*time.Hour)

	first, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.NewAlerts)

	// Assigning the order clears the condition; the next scan resolves
	// the alert.
	testutil.NewAssignment(t, db, order, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusAssigned)
	svc.now = func() time.Time { return time.Now().Add(time.Minute) }

	second, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.AutoResolved)

	alerts, err := svc.ListAlerts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestScanDetectsAssignmentStaleness(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "4004",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	assignment := testutil.NewAssignment(t, db, order, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusAssigned)
	backdate(t, db, "vendor_assignments", assignment.ID, "status_changed_at", 30*time.Hour)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OpenByType["not_accepted"])

	vendorAlerts, err := svc.ListAlerts(context.Background(), &vendor.ID)
	require.NoError(t, err)
	require.Len(t, vendorAlerts, 1)
	assert.Equal(t, enums.AlertTypeNotAccepted, vendorAlerts[0].AlertType)
}

func TestScanDetectsMissingAndStaleTracking(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")

	// In progress for 6 days with no tracking entry.
	orderA := testutil.NewOrder(t, db, store, "4005",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	missing := testutil.NewAssignment(t, db, orderA, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusInProgress)
	started := time.Now().UTC().Add(-6 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.VendorAssignment{}).Where("id = ?", missing.ID).
		Updates(map[string]any{"started_at": started, "status_changed_at": started}).Error)

	// Shipped 12 days ago with no movement since.
	orderB := testutil.NewOrder(t, db, store, "4006",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	shipped := testutil.NewAssignment(t, db, orderB, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusInProgress)
	shippedAt := time.Now().UTC().Add(-12 * 24 * time.Hour)
	entry := &models.OrderTracking{
		ID:             uuid.New(),
		OrderID:        orderB.ID,
		AssignmentID:   shipped.ID,
		TrackingNumber: "1Z999",
		Carrier:        "ups",
		Status:         enums.TrackingStatusShipped,
		CreatedBy:      uuid.New(),
		ShippedDate:    &shippedAt,
		StatusUpdated:  shippedAt,
	}
	require.NoError(t, db.Create(entry).Error)

	// A pending entry with no movement is not a stale shipment.
	pending := &models.OrderTracking{
		ID:             uuid.New(),
		OrderID:        orderB.ID,
		AssignmentID:   shipped.ID,
		TrackingNumber: "1Z000",
		Carrier:        "ups",
		Status:         enums.TrackingStatusPending,
		CreatedBy:      uuid.New(),
		StatusUpdated:  shippedAt,
	}
	require.NoError(t, db.Create(pending).Error)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OpenByType["missing_tracking"])
	assert.Equal(t, 1, result.OpenByType["stale_tracking"])
}

func TestScanWarnsOnExpiringProof(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "4007",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	assignment := testutil.NewAssignment(t, db, order, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusInProgress)

	proof := &models.ProofApproval{
		ID:            uuid.New(),
		OrderID:       order.ID,
		OrderItemID:   order.Items[0].ID,
		AssignmentID:  assignment.ID,
		ProofType:     enums.ProofTypeDesign,
		Status:        enums.ProofStatusPending,
		ApprovalToken: uuid.NewString(),
		CustomerEmail: "pat@example.com",
		CreatedBy:     uuid.New(),
		ExpiresAt:     time.Now().UTC().Add(6 * time.Hour),
	}
	require.NoError(t, db.Create(proof).Error)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OpenByType["overdue_proof"])
}

func TestScanAlertsOnProofAlreadyExpired(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	vendor := testutil.NewVendor(t, db, "Vendor A", "0.10")
	order := testutil.NewOrder(t, db, store, "4017",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	assignment := testutil.NewAssignment(t, db, order, vendor, enums.AssignmentTypeFull, enums.AssignmentStatusInProgress)

	// Still pending in storage because expiry is applied lazily. The scan
	// must keep flagging it until a decision or sweep lands.
	proof := &models.ProofApproval{
		ID:            uuid.New(),
		OrderID:       order.ID,
		OrderItemID:   order.Items[0].ID,
		AssignmentID:  assignment.ID,
		ProofType:     enums.ProofTypeDesign,
		Status:        enums.ProofStatusPending,
		ApprovalToken: uuid.NewString(),
		CustomerEmail: "pat@example.com",
		CreatedBy:     uuid.New(),
		ExpiresAt:     time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(proof).Error)

	result, err := svc.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.OpenByType["overdue_proof"])
}

func TestMarkReadAndResolveAlert(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	store := testutil.NewStore(t, db, "Acme Prints")
	order := testutil.NewOrder(t, db, store, "4008",
		testutil.ItemSpec{Name: "Mug", Quantity: 1, UnitPrice: "10.00"},
	)
	backdate(t, db, "orders", order.ID, "created_at", 48*time.Hour)

	_, err := svc.Scan(context.Background())
	require.NoError(t, err)
	alerts, err := svc.ListAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	require.NoError(t, svc.MarkRead(context.Background(), alerts[0].ID))
	require.NoError(t, svc.ResolveAlert(context.Background(), alerts[0].ID))

	err = svc.ResolveAlert(context.Background(), alerts[0].ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeResolved))

	err = svc.MarkRead(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestUpdateThresholds(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newTestService(t, db)

	cfg, err := svc.Thresholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.UnassignedOrderHours)

	hours := 12
	cfg, err = svc.UpdateThresholds(context.Background(), UpdateThresholdsInput{
		UnassignedOrderHours: &hours,
		UpdatedBy:            uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.UnassignedOrderHours)
	assert.Equal(t, 48, cfg.AcceptedNotStartedHours)

	bad := -1
	_, err = svc.UpdateThresholds(context.Background(), UpdateThresholdsInput{
		StaleTrackingDays: &bad,
		UpdatedBy:         uuid.New(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
