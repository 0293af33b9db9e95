package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/payments"
	"github.com/motorunner/api/internal/platform/auth"
	"github.com/motorunner/api/internal/services"
)

const testSecret = "router-test-secret"

type stubPricingService struct {
	priceLineFn func(ctx context.Context, cmd services.PriceLineCommand) (services.LinePricing, error)
}

func (s *stubPricingService) PriceLine(ctx context.Context, cmd services.PriceLineCommand) (services.LinePricing, error) {
	if s.priceLineFn == nil {
		return services.LinePricing{}, errors.New("unexpected PriceLine call")
	}
	return s.priceLineFn(ctx, cmd)
}

type stubPromotionService struct {
	applyFn func(ctx context.Context, cmd services.ApplyPromotionCommand) (services.PromotionApplication, error)
	listFn  func(ctx context.Context, activeOnly bool) ([]domain.Promotion, error)
}

func (s *stubPromotionService) Apply(ctx context.Context, cmd services.ApplyPromotionCommand) (services.PromotionApplication, error) {
	if s.applyFn == nil {
		return services.PromotionApplication{}, errors.New("unexpected Apply call")
	}
	return s.applyFn(ctx, cmd)
}

func (s *stubPromotionService) Create(context.Context, services.UpsertPromotionCommand) (domain.Promotion, error) {
	return domain.Promotion{}, errors.New("unexpected Create call")
}

func (s *stubPromotionService) Update(context.Context, services.UpsertPromotionCommand) (domain.Promotion, error) {
	return domain.Promotion{}, errors.New("unexpected Update call")
}

func (s *stubPromotionService) Deactivate(context.Context, string) (domain.Promotion, error) {
	return domain.Promotion{}, errors.New("unexpected Deactivate call")
}

func (s *stubPromotionService) List(ctx context.Context, activeOnly bool) ([]domain.Promotion, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return s.listFn(ctx, activeOnly)
}

type stubCartService struct {
	getFn func(ctx context.Context, userEmail string) (domain.Cart, error)
}

func (s *stubCartService) Get(ctx context.Context, userEmail string) (domain.Cart, error) {
	if s.getFn == nil {
		return domain.Cart{}, errors.New("unexpected Get call")
	}
	return s.getFn(ctx, userEmail)
}

func (s *stubCartService) Replace(context.Context, services.ReplaceCartCommand) (domain.Cart, error) {
	return domain.Cart{}, errors.New("unexpected Replace call")
}

func (s *stubCartService) Clear(context.Context, string) error {
	return errors.New("unexpected Clear call")
}

type stubCheckoutService struct {
	authorizeFn func(ctx context.Context, cmd services.AuthorizeCheckoutCommand) (services.CheckoutAuthorization, error)
	completeFn  func(ctx context.Context, cmd services.CompleteCheckoutCommand) (domain.Order, error)
}

func (s *stubCheckoutService) Authorize(ctx context.Context, cmd services.AuthorizeCheckoutCommand) (services.CheckoutAuthorization, error) {
	if s.authorizeFn == nil {
		return services.CheckoutAuthorization{}, errors.New("unexpected Authorize call")
	}
	return s.authorizeFn(ctx, cmd)
}

func (s *stubCheckoutService) Complete(ctx context.Context, cmd services.CompleteCheckoutCommand) (domain.Order, error) {
	if s.completeFn == nil {
		return domain.Order{}, errors.New("unexpected Complete call")
	}
	return s.completeFn(ctx, cmd)
}

type stubOrderService struct {
	getByNumberFn func(ctx context.Context, orderNumber string, requester services.Requester) (domain.Order, error)
	transitionFn  func(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error)
}

func (s *stubOrderService) Create(context.Context, services.CreateOrderCommand) (domain.Order, error) {
	return domain.Order{}, errors.New("unexpected Create call")
}

func (s *stubOrderService) GetByNumber(ctx context.Context, orderNumber string, requester services.Requester) (domain.Order, error) {
	if s.getByNumberFn == nil {
		return domain.Order{}, errors.New("unexpected GetByNumber call")
	}
	return s.getByNumberFn(ctx, orderNumber, requester)
}

func (s *stubOrderService) List(context.Context, services.ListOrdersQuery) ([]domain.Order, error) {
	return nil, errors.New("unexpected List call")
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.TransitionOrderCommand) (domain.Order, error) {
	if s.transitionFn == nil {
		return domain.Order{}, errors.New("unexpected TransitionStatus call")
	}
	return s.transitionFn(ctx, cmd)
}

type stubQuoteService struct {
	createFn func(ctx context.Context, cmd services.CreateQuoteCommand) (services.QuoteResult, error)
}

func (s *stubQuoteService) Create(ctx context.Context, cmd services.CreateQuoteCommand) (services.QuoteResult, error) {
	if s.createFn == nil {
		return services.QuoteResult{}, errors.New("unexpected Create call")
	}
	return s.createFn(ctx, cmd)
}

func (s *stubQuoteService) Get(context.Context, string, services.Requester) (services.QuoteResult, error) {
	return services.QuoteResult{}, errors.New("unexpected Get call")
}

func (s *stubQuoteService) ListByDealer(context.Context, services.Requester) ([]services.QuoteResult, error) {
	return nil, errors.New("unexpected ListByDealer call")
}

type routerFixture struct {
	pricing    *stubPricingService
	promotions *stubPromotionService
	carts      *stubCartService
	checkout   *stubCheckoutService
	orders     *stubOrderService
	quotes     *stubQuoteService
}

func newRouter(t *testing.T) (http.Handler, *routerFixture) {
	t.Helper()
	authenticator, err := auth.NewAuthenticator(testSecret)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}

	f := &routerFixture{
		pricing:    &stubPricingService{},
		promotions: &stubPromotionService{},
		carts:      &stubCartService{},
		checkout:   &stubCheckoutService{},
		orders:     &stubOrderService{},
		quotes:     &stubQuoteService{},
	}
	router, err := NewRouter(RouterDeps{
		Authenticator: authenticator,
		Pricing:       f.pricing,
		Promotions:    f.promotions,
		Carts:         f.carts,
		Checkout:      f.checkout,
		Orders:        f.orders,
		Quotes:        f.quotes,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router, f
}

func signToken(t *testing.T, email, role string) string {
	t.Helper()
	claims := auth.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/api/v1/health", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}

func TestPricingQuoteAnonymousGetsRetail(t *testing.T) {
	router, f := newRouter(t)
	f.pricing.priceLineFn = func(_ context.Context, cmd services.PriceLineCommand) (services.LinePricing, error) {
		if cmd.Role != domain.RoleAnonymous {
			t.Fatalf("role = %q, want anonymous", cmd.Role)
		}
		return services.LinePricing{
			Bike: domain.Bike{ID: cmd.BikeID, Name: "Road 500", Price: 500_000, Currency: "USD"},
			Pricing: domain.PricingResult{
				BikeID: cmd.BikeID, Role: cmd.Role, Quantity: cmd.Quantity,
				BasePrice: 500_000, UnitPrice: 500_000, Tier: "retail",
				Subtotal: 500_000 * int64(cmd.Quantity), Currency: "USD",
			},
		}, nil
	}

	resp := doRequest(t, router, http.MethodPost, "/api/v1/pricing/quote", "", `{"bikeId":"bike_road","quantity":2}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var payload priceLineResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Tier != "retail" || payload.Subtotal != 1_000_000 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestPricingQuoteDealerRoleFlowsThrough(t *testing.T) {
	router, f := newRouter(t)
	f.pricing.priceLineFn = func(_ context.Context, cmd services.PriceLineCommand) (services.LinePricing, error) {
		if cmd.Role != domain.RoleDealer {
			t.Fatalf("role = %q, want dealer", cmd.Role)
		}
		return services.LinePricing{Bike: domain.Bike{ID: cmd.BikeID}}, nil
	}

	token := signToken(t, "dealer@example.com", "dealer")
	resp := doRequest(t, router, http.MethodPost, "/api/v1/pricing/quote", token, `{"bikeId":"bike_road","quantity":8}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
}

func TestCartRequiresAuthentication(t *testing.T) {
	router, _ := newRouter(t)

	resp := doRequest(t, router, http.MethodGet, "/api/v1/cart", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestCartGetUsesIdentityEmail(t *testing.T) {
	router, f := newRouter(t)
	f.carts.getFn = func(_ context.Context, userEmail string) (domain.Cart, error) {
		if userEmail != "rider@example.com" {
			t.Fatalf("userEmail = %q", userEmail)
		}
		return domain.Cart{UserEmail: userEmail, Lines: []domain.CartLine{}}, nil
	}

	token := signToken(t, "rider@example.com", "customer")
	resp := doRequest(t, router, http.MethodGet, "/api/v1/cart", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
}

func TestPromotionApplyUnknownCodeMapsToNotFound(t *testing.T) {
	router, f := newRouter(t)
	f.promotions.applyFn = func(context.Context, services.ApplyPromotionCommand) (services.PromotionApplication, error) {
		return services.PromotionApplication{}, fmt.Errorf("%w: NOPE", services.ErrPromoNotFound)
	}

	resp := doRequest(t, router, http.MethodPost, "/api/v1/promotions/apply", "", `{"code":"NOPE","subtotal":1000}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestCheckoutAuthorizeReturnsMockIntent(t *testing.T) {
	router, f := newRouter(t)
	f.checkout.authorizeFn = func(_ context.Context, cmd services.AuthorizeCheckoutCommand) (services.CheckoutAuthorization, error) {
		return services.CheckoutAuthorization{
			IntentID: "mock_1714564800_abcdef123456",
			Mock:     true,
			Totals:   domain.OrderTotals{Subtotal: 1_000_000, Tax: 100_000, Shipping: 9_900, Total: 1_109_900},
			Currency: "USD",
		}, nil
	}

	token := signToken(t, "rider@example.com", "customer")
	resp := doRequest(t, router, http.MethodPost, "/api/v1/checkout/authorize", token, `{}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}

	var payload authorizeCheckoutResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Mock || payload.Totals.Total != 1_109_900 {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestCheckoutDeclinedPaymentMapsTo402(t *testing.T) {
	router, f := newRouter(t)
	f.checkout.completeFn = func(context.Context, services.CompleteCheckoutCommand) (domain.Order, error) {
		return domain.Order{}, fmt.Errorf("halt: %w", payments.ErrPaymentDeclined)
	}

	token := signToken(t, "rider@example.com", "customer")
	body := `{"intentId":"pi_123","shippingAddress":{"recipient":"R","line1":"L","city":"C","postalCode":"P","country":"US"}}`
	resp := doRequest(t, router, http.MethodPost, "/api/v1/checkout/complete", token, body)
	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402, body = %s", resp.Code, resp.Body.String())
	}
}

func TestOrderStatusTransitionForbiddenForCustomers(t *testing.T) {
	router, _ := newRouter(t)

	token := signToken(t, "rider@example.com", "customer")
	resp := doRequest(t, router, http.MethodPatch, "/api/v1/orders/MR-2026-000042/status", token, `{"status":"processing"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestOrderStatusTransitionConflictFor409(t *testing.T) {
	router, f := newRouter(t)
	f.orders.transitionFn = func(context.Context, services.TransitionOrderCommand) (domain.Order, error) {
		return domain.Order{}, fmt.Errorf("%w: delivered -> cancelled", services.ErrOrderInvalidTransition)
	}

	token := signToken(t, "staff@example.com", "admin")
	resp := doRequest(t, router, http.MethodPatch, "/api/v1/orders/MR-2026-000042/status", token, `{"status":"cancelled"}`)
	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}
}

func TestQuoteCreateRequiresDealerRole(t *testing.T) {
	router, _ := newRouter(t)

	token := signToken(t, "rider@example.com", "customer")
	resp := doRequest(t, router, http.MethodPost, "/api/v1/quotes", token, `{"lines":[{"bikeId":"bike_road","quantity":5}]}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestQuoteCreateAsDealer(t *testing.T) {
	router, f := newRouter(t)
	f.quotes.createFn = func(_ context.Context, cmd services.CreateQuoteCommand) (services.QuoteResult, error) {
		if cmd.Dealer.Email != "dealer@example.com" {
			t.Fatalf("dealer email = %q", cmd.Dealer.Email)
		}
		return services.QuoteResult{Quote: domain.Quote{ID: "qte_1", Dealer: cmd.Dealer}}, nil
	}

	token := signToken(t, "dealer@example.com", "dealer")
	resp := doRequest(t, router, http.MethodPost, "/api/v1/quotes", token, `{"lines":[{"bikeId":"bike_road","quantity":5}]}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	router, _ := newRouter(t)

	claims := auth.Claims{
		Email: "rider@example.com",
		Role:  "customer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	resp := doRequest(t, router, http.MethodGet, "/api/v1/cart", token, "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "token_expired") {
		t.Fatalf("body = %s, want token_expired code", resp.Body.String())
	}
}
