// Package testutil provides shared database fixtures for package tests.
// Tests run against in-memory SQLite with a hand-written schema that mirrors
// the Postgres migrations closely enough for repository queries.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  platform TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  company_name TEXT NOT NULL,
  email TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  default_commission_rate NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS vendor_product_rates (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  product_ref TEXT NOT NULL,
  commission_rate NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  external_order_id TEXT NOT NULL,
  order_number TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  customer_email TEXT NOT NULL,
  shipping_address TEXT,
  billing_address TEXT,
  total_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  order_status TEXT NOT NULL,
  fulfillment_status TEXT NOT NULL DEFAULT 'unfulfilled',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  order_date DATETIME NOT NULL,
  cancelled INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (store_id, external_order_id)
);`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  external_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  product_ref TEXT,
  product_data TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS vendor_assignments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  assignment_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'assigned',
  commission_amount NUMERIC NOT NULL,
  assigned_amount NUMERIC NOT NULL,
  assigned_by TEXT NOT NULL,
  notes TEXT,
  assigned_at DATETIME NOT NULL,
  accepted_at DATETIME,
  started_at DATETIME,
  completed_at DATETIME,
  cancelled_at DATETIME,
  status_changed_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vendor_assignments_sole_full
  ON vendor_assignments (order_id)
  WHERE assignment_type = 'full' AND status <> 'cancelled';`,
	`CREATE TABLE IF NOT EXISTS order_item_assignments (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  assigned_amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS order_trackings (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  assignment_id TEXT NOT NULL,
  tracking_number TEXT NOT NULL,
  carrier TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  notes TEXT,
  created_by TEXT NOT NULL,
  shipped_date DATETIME,
  delivered_date DATETIME,
  status_updated_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS proof_approvals (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  assignment_id TEXT NOT NULL,
  proof_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  approval_token TEXT NOT NULL UNIQUE,
  customer_email TEXT NOT NULL,
  customer_name TEXT,
  response_notes TEXT,
  created_by TEXT NOT NULL,
  sent_at DATETIME,
  responded_at DATETIME,
  expires_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS proof_images (
  id TEXT PRIMARY KEY,
  proof_approval_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  url TEXT NOT NULL,
  file_name TEXT NOT NULL,
  content_type TEXT NOT NULL,
  size_bytes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS production_statuses (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  assignment_id TEXT NOT NULL,
  design_proof_status TEXT,
  production_proof_status TEXT,
  blocked_reason TEXT,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_id, assignment_id)
);`,
	`CREATE TABLE IF NOT EXISTS order_status_histories (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  assignment_id TEXT,
  old_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  changed_by TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS financial_transactions (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  transaction_type TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  reference_id TEXT,
  description TEXT NOT NULL,
  transaction_date DATETIME NOT NULL,
  payout_date DATETIME,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS vendor_payouts (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  included_transactions TEXT NOT NULL,
  failure_reason TEXT,
  created_by TEXT NOT NULL,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS monitoring_alerts (
  id TEXT PRIMARY KEY,
  alert_type TEXT NOT NULL,
  entity_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  assignment_id TEXT,
  vendor_id TEXT,
  message TEXT NOT NULL,
  read_at DATETIME,
  resolved_at DATETIME,
  first_seen_at DATETIME NOT NULL,
  last_seen_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_alert_entity_type
  ON monitoring_alerts (entity_id, alert_type) WHERE resolved_at IS NULL;`,
	`CREATE TABLE IF NOT EXISTS monitor_thresholds (
  id TEXT PRIMARY KEY,
  unassigned_order_hours INTEGER NOT NULL DEFAULT 24,
  assigned_not_accepted_hours INTEGER NOT NULL DEFAULT 24,
  accepted_not_started_hours INTEGER NOT NULL DEFAULT 48,
  in_progress_too_long_days INTEGER NOT NULL DEFAULT 7,
  no_tracking_after_days INTEGER NOT NULL DEFAULT 5,
  stale_tracking_days INTEGER NOT NULL DEFAULT 10,
  proof_expiry_warning_hours INTEGER NOT NULL DEFAULT 24,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  recipient_type TEXT NOT NULL,
  recipient_id TEXT,
  recipient_email TEXT,
  subject TEXT NOT NULL,
  payload TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  error_message TEXT,
  sent_at DATETIME,
  created_at DATETIME
);`,
}

// OpenDB returns a fresh in-memory database with the full schema applied.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// NewVendor seeds an active vendor with the given default commission rate.
func NewVendor(t *testing.T, db *gorm.DB, name string, rate string) *models.Vendor {
	t.Helper()

	vendor := &models.Vendor{
		ID:                    uuid.New(),
		CompanyName:           name,
		Email:                 fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Status:                enums.VendorStatusActive,
		DefaultCommissionRate: decimal.RequireFromString(rate),
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}

// NewStore seeds an active storefront row.
func NewStore(t *testing.T, db *gorm.DB, name string) *models.Store {
	t.Helper()

	store := &models.Store{
		ID:       uuid.New(),
		Name:     name,
		Platform: "shopify",
		Active:   true,
	}
	require.NoError(t, db.Create(store).Error)
	return store
}

// ItemSpec describes one order item to seed.
type ItemSpec struct {
	Name       string
	Quantity   int
	UnitPrice  string
	ProductRef *string
}

// NewOrder seeds an order with the given items and returns it with Items
// populated in insertion order.
func NewOrder(t *testing.T, db *gorm.DB, store *models.Store, number string, items ...ItemSpec) *models.Order {
	t.Helper()

	total := decimal.Zero
	order := &models.Order{
		ID:              uuid.New(),
		StoreID:         store.ID,
		ExternalOrderID: uuid.NewString(),
		OrderNumber:     number,
		CustomerName:    "Pat Doe",
		CustomerEmail:   "pat@example.com",
		Currency:        "USD",
		OrderStatus:     "open",
		OrderDate:       time.Now().UTC(),
	}
	for _, spec := range items {
		unit := decimal.RequireFromString(spec.UnitPrice)
		line := unit.Mul(decimal.NewFromInt(int64(spec.Quantity)))
		total = total.Add(line)
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.New(),
			ExternalItemID: uuid.NewString(),
			Name:           spec.Name,
			Quantity:       spec.Quantity,
			UnitPrice:      unit,
			TotalPrice:     line,
			ProductRef:     spec.ProductRef,
		})
	}
	order.TotalAmount = total
	require.NoError(t, db.Create(order).Error)
	return order
}

// NewAssignment seeds a vendor assignment directly, bypassing the engine.
func NewAssignment(t *testing.T, db *gorm.DB, order *models.Order, vendor *models.Vendor, at enums.AssignmentType, status enums.AssignmentStatus) *models.VendorAssignment {
	t.Helper()

	now := time.Now().UTC()
	assignment := &models.VendorAssignment{
		ID:               uuid.New(),
		OrderID:          order.ID,
		VendorID:         vendor.ID,
		AssignmentType:   at,
		Status:           status,
		CommissionAmount: decimal.Zero,
		AssignedAmount:   order.TotalAmount,
		AssignedBy:       uuid.New(),
		AssignedAt:       now,
		StatusChangedAt:  now,
	}
	require.NoError(t, db.Create(assignment).Error)
	return assignment
}
