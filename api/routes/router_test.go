package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/internal/cancellation"
	"github.com/vendora-hq/fulfillment-backend/internal/checkout"
	"github.com/vendora-hq/fulfillment-backend/internal/commission"
	"github.com/vendora-hq/fulfillment-backend/internal/forwarding"
	internalorders "github.com/vendora-hq/fulfillment-backend/internal/orders"
	pkgauth "github.com/vendora-hq/fulfillment-backend/pkg/auth"
	"github.com/vendora-hq/fulfillment-backend/pkg/config"
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCheckoutService struct {
	create func(ctx context.Context, input checkout.CreateOrderInput) (*models.Order, error)
}

func (s stubCheckoutService) CreateOrder(ctx context.Context, input checkout.CreateOrderInput) (*models.Order, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return &models.Order{ID: uuid.New()}, nil
}

type stubOrdersService struct {
	list func(ctx context.Context, input internalorders.ListInput) (*internalorders.OrderList, error)
}

func (s stubOrdersService) ListOrders(ctx context.Context, input internalorders.ListInput) (*internalorders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, input)
	}
	return &internalorders.OrderList{}, nil
}

func (s stubOrdersService) GetOrder(ctx context.Context, input internalorders.GetOrderInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

func (s stubOrdersService) TransitionUnit(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

type stubForwardingService struct{}

func (stubForwardingService) Forward(ctx context.Context, input forwarding.ForwardInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID}, nil
}

type stubCancellationService struct{}

// CancelByCustomer implements [cancellation.Service].
func (stubCancellationService) CancelByCustomer(ctx context.Context, input cancellation.CustomerCancelInput) (*models.Order, error) {
	panic("unimplemented")
}

// CancelOrder implements [cancellation.Service].
func (stubCancellationService) CancelOrder(ctx context.Context, input cancellation.OrderCancelInput) (*models.Order, error) {
	panic("unimplemented")
}

// CancelUnit implements [cancellation.Service].
func (stubCancellationService) CancelUnit(ctx context.Context, input cancellation.UnitCancelInput) (*models.Order, error) {
	panic("unimplemented")
}

// CancelLineItems implements [cancellation.Service].
func (stubCancellationService) CancelLineItems(ctx context.Context, input cancellation.LineItemCancelInput) (*models.Order, error) {
	panic("unimplemented")
}

type stubCommissionService struct{}

func (stubCommissionService) Report(ctx context.Context, input commission.ReportInput) (*commission.RecordList, error) {
	return &commission.RecordList{}, nil
}

func (stubCommissionService) MarkSettled(ctx context.Context, input commission.SettleInput) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret: "secret",
			Issuer: "issuer",
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil, // *redis.Client
		nil, // *prometheus.Registry; /metrics stays unmounted
		stubCheckoutService{},
		stubOrdersService{},
		stubForwardingService{},
		stubCancellationService{},
		stubCommissionService{},
	)
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order list got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminActor(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/admin/v1/orders/" + uuid.NewString() + "/forward"

	vendor := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	vendor.Header.Set("Content-Type", "application/json")
	vendor.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, vendor)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor forward got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	admin.Header.Set("Content-Type", "application/json")
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin forward got %d", resp.Code)
	}
}

func TestCheckoutRejectsNonCustomer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor checkout got %d", resp.Code)
	}
}

func TestCheckoutRejectsInvalidPayload(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"customer_name":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid checkout payload got %d", resp.Code)
	}
}

func TestCheckoutAcceptsValidPayload(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	body := `{
		"customer_name": "Ada Lovelace",
		"customer_email": "ada@example.com",
		"customer_address": "12 Analytical Way",
		"payment_proof_ref": "uploads/proof-1.png",
		"items": [{"product_ref": "sku-100", "qty": 2, "unit_price_cents": 1500}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid checkout got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCommissionReportVisibleToVendors(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/commissions", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vendor commission report got %d", resp.Code)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	path := "/api/v1/orders/" + uuid.NewString() + "/units/admin/transition"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"to":"teleported"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorTypeAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status got %d", resp.Code)
	}
}

func buildToken(t *testing.T, cfg *config.Config, actorType enums.ActorType) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		ActorID:   uuid.New(),
		ActorType: actorType,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
