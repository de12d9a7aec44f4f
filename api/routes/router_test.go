package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vendorbridge/backoffice-backend/api/middleware"
	"github.com/vendorbridge/backoffice-backend/internal/activity"
	"github.com/vendorbridge/backoffice-backend/internal/assignments"
	"github.com/vendorbridge/backoffice-backend/internal/finance"
	"github.com/vendorbridge/backoffice-backend/internal/monitoring"
	"github.com/vendorbridge/backoffice-backend/internal/notifications"
	"github.com/vendorbridge/backoffice-backend/internal/orders"
	"github.com/vendorbridge/backoffice-backend/internal/production"
	"github.com/vendorbridge/backoffice-backend/internal/proofs"
	"github.com/vendorbridge/backoffice-backend/internal/testutil"
	"github.com/vendorbridge/backoffice-backend/internal/tracking"
	"github.com/vendorbridge/backoffice-backend/internal/vendors"
	"github.com/vendorbridge/backoffice-backend/pkg/config"
	"github.com/vendorbridge/backoffice-backend/pkg/db/models"
	"github.com/vendorbridge/backoffice-backend/pkg/enums"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "backoffice-test"}

type routerFixture struct {
	handler http.Handler
	db      *gorm.DB
	order   *models.Order
	vendor  *models.Vendor
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	db := testutil.OpenDB(t)
	logg := logger.New(logger.Options{Level: zerolog.Disabled})

	notifySvc, err := notifications.NewService(notifications.ServiceParams{
		Repo:   notifications.NewRepository(db),
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}

	assignRepo := assignments.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	activityRepo := activity.NewRepository(db)

	assignSvc, err := assignments.NewService(assignments.ServiceParams{
		DB:            db,
		Repo:          assignRepo,
		Orders:        ordersRepo,
		Vendors:       vendors.NewRepository(db),
		Activity:      activityRepo,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		t.Fatalf("assignments service: %v", err)
	}

	trackSvc, err := tracking.NewService(tracking.ServiceParams{
		Repo:        tracking.NewRepository(db),
		Assignments: assignRepo,
		Logger:      logg,
	})
	if err != nil {
		t.Fatalf("tracking service: %v", err)
	}

	prodSvc, err := production.NewService(production.ServiceParams{
		Repo:   production.NewRepository(db),
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("production service: %v", err)
	}

	proofSvc, err := proofs.NewService(proofs.ServiceParams{
		Repo:          proofs.NewRepository(db),
		Assignments:   assignRepo,
		Orders:        ordersRepo,
		Production:    prodSvc,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		t.Fatalf("proofs service: %v", err)
	}

	monitorSvc, err := monitoring.NewService(monitoring.ServiceParams{
		Repo:          monitoring.NewRepository(db),
		Thresholds:    monitoring.NewThresholdsRepository(db),
		Orders:        ordersRepo,
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		t.Fatalf("monitoring service: %v", err)
	}

	financeSvc, err := finance.NewService(finance.ServiceParams{
		DB:            db,
		Repo:          finance.NewRepository(db),
		Vendors:       vendors.NewRepository(db),
		Notifications: notifySvc,
		Logger:        logg,
	})
	if err != nil {
		t.Fatalf("finance service: %v", err)
	}

	cfg := &config.Config{}
	cfg.App.Env = "dev"
	cfg.JWT = testJWT

	handler := NewRouter(cfg, logg, nil, nil, Services{
		Assignments:   assignSvc,
		Tracking:      trackSvc,
		Production:    prodSvc,
		Proofs:        proofSvc,
		Monitoring:    monitorSvc,
		Finance:       financeSvc,
		Notifications: notifySvc,
		Orders:        ordersRepo,
		Activity:      activityRepo,
	})

	vendor := testutil.NewVendor(t, db, "Acme Prints", "0.15")
	store := testutil.NewStore(t, db, "Main Street")
	productRef := "mylar-4x6"
	order := testutil.NewOrder(t, db, store, "ORD-1001", testutil.ItemSpec{
		Name: "Mylar Bag", Quantity: 10, UnitPrice: "4.00", ProductRef: &productRef,
	})

	return &routerFixture{handler: handler, db: db, order: order, vendor: vendor}
}

func mintToken(t *testing.T, role enums.ActorRole, vendorID *uuid.UUID) string {
	t.Helper()
	now := time.Now()
	claims := middleware.AccessClaims{
		UserID:   uuid.New(),
		Role:     role,
		VendorID: vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testJWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWT.Secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestRouterRejectsMissingToken(t *testing.T) {
	fx := newRouterFixture(t)

	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRouterPublicSurfaces(t *testing.T) {
	fx := newRouterFixture(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		resp := httptest.NewRecorder()
		fx.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestRouterServesOrderDetail(t *testing.T) {
	fx := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+fx.order.ID.String()+"/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin, nil))
	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		Data struct {
			BusinessStatus string `json:"business_status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode order detail: %v", err)
	}
	if payload.Data.BusinessStatus != string(enums.OrderBusinessStatusUnassigned) {
		t.Fatalf("unexpected business status %q", payload.Data.BusinessStatus)
	}
}

func TestRouterCreatesAssignmentEndToEnd(t *testing.T) {
	fx := newRouterFixture(t)

	body := `{"vendor_id":"` + fx.vendor.ID.String() + `","type":"full"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+fx.order.ID.String()+"/assignments", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin, nil))
	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterProofLifecycle(t *testing.T) {
	fx := newRouterFixture(t)
	assignment := testutil.NewAssignment(t, fx.db, fx.order, fx.vendor, enums.AssignmentTypeFull, enums.AssignmentStatusInProgress)

	body := `{"order_item_id":"` + fx.order.Items[0].ID.String() + `",` +
		`"proof_type":"design_proof","customer_email":"pat@example.com",` +
		`"images":[{"url":"https://cdn.example.com/proof.png","file_name":"proof.png","content_type":"image/png","size_bytes":2048}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/"+assignment.ID.String()+"/proofs", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleAdmin, nil))
	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create proof: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Data struct {
			Proof struct {
				ApprovalToken string
			} `json:"proof"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode proof: %v", err)
	}
	if created.Data.Proof.ApprovalToken == "" {
		t.Fatal("expected an approval token")
	}

	// The customer rejects over the public token surface, no auth header.
	resolveBody := `{"decision":"rejected","notes":"wrong artwork"}`
	req = httptest.NewRequest(http.MethodPost, "/proofs/token/"+created.Data.Proof.ApprovalToken+"/", jsonBody(resolveBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("resolve proof: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var resolved struct {
		Data struct {
			Status string
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&resolved); err != nil {
		t.Fatalf("decode resolution: %v", err)
	}
	if resolved.Data.Status != string(enums.ProofStatusRejected) {
		t.Fatalf("unexpected status %q", resolved.Data.Status)
	}
}

func TestRouterVendorScopeMismatch(t *testing.T) {
	fx := newRouterFixture(t)

	otherVendor := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendors/"+fx.vendor.ID.String()+"/balance", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleVendor, &otherVendor))
	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRouterVendorCannotAssign(t *testing.T) {
	fx := newRouterFixture(t)

	vendorID := fx.vendor.ID
	body := `{"vendor_id":"` + vendorID.String() + `","type":"full"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+fx.order.ID.String()+"/assignments", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.ActorRoleVendor, &vendorID))
	resp := httptest.NewRecorder()
	fx.handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}
