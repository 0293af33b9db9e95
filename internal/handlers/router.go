package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/motorunner/api/internal/platform/auth"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/platform/observability"
	"github.com/motorunner/api/internal/services"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Logger        *zap.Logger
	Authenticator *auth.Authenticator
	ProjectID     string
	Version       string
	Readiness     func(r *http.Request) error

	Pricing    services.PricingService
	Promotions services.PromotionService
	Carts      services.CartService
	Checkout   services.CheckoutService
	Orders     services.OrderService
	Quotes     services.QuoteService
}

// NewRouter assembles the chi router with the full middleware stack and all
// API routes mounted under /api/v1.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	if deps.Authenticator == nil {
		return nil, errors.New("router: authenticator is required")
	}
	for name, svc := range map[string]any{
		"pricing":    deps.Pricing,
		"promotions": deps.Promotions,
		"carts":      deps.Carts,
		"checkout":   deps.Checkout,
		"orders":     deps.Orders,
		"quotes":     deps.Quotes,
	} {
		if svc == nil {
			return nil, errors.New("router: " + name + " service is required")
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	health := NewHealthHandler(deps.Version, deps.Readiness)
	pricing := NewPricingHandler(deps.Pricing)
	promotions := NewPromotionHandler(deps.Promotions)
	carts := NewCartHandler(deps.Carts)
	checkout := NewCheckoutHandler(deps.Checkout)
	orders := NewOrderHandler(deps.Orders)
	quotes := NewQuoteHandler(deps.Quotes)

	buyerRoles := []string{auth.RoleCustomer, auth.RoleDealer}
	anyRole := []string{auth.RoleCustomer, auth.RoleDealer, auth.RoleMerchandiser, auth.RoleAdmin}
	staffRoles := []string{auth.RoleAdmin, auth.RoleMerchandiser}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware(deps.ProjectID))
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(observability.RecoveryMiddleware(logger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", health.Check)
	r.Get("/readyz", health.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.Check)

		r.Group(func(r chi.Router) {
			r.Use(deps.Authenticator.OptionalAuth())
			r.Post("/pricing/quote", pricing.Quote)
			r.Post("/promotions/apply", promotions.Apply)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(deps.Authenticator.RequireAuth(buyerRoles...))
			r.Get("/", carts.Get)
			r.Put("/", carts.Replace)
			r.Delete("/", carts.Clear)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(deps.Authenticator.RequireAuth(buyerRoles...))
			r.Post("/authorize", checkout.Authorize)
			r.Post("/complete", checkout.Complete)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.Authenticator.RequireAuth(anyRole...))
				r.Get("/", orders.List)
				r.Get("/{orderNumber}", orders.GetByNumber)
			})
			r.Group(func(r chi.Router) {
				r.Use(deps.Authenticator.RequireAuth(staffRoles...))
				r.Patch("/{orderNumber}/status", orders.TransitionStatus)
			})
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(deps.Authenticator.RequireAuth(auth.RoleDealer))
				r.Post("/", quotes.Create)
				r.Get("/", quotes.List)
			})
			r.Group(func(r chi.Router) {
				r.Use(deps.Authenticator.RequireAuth(auth.RoleDealer, auth.RoleAdmin, auth.RoleMerchandiser))
				r.Get("/{quoteID}", quotes.Get)
			})
		})

		r.Route("/admin/promotions", func(r chi.Router) {
			r.Use(deps.Authenticator.RequireAuth(staffRoles...))
			r.Post("/", promotions.Create)
			r.Get("/", promotions.List)
			r.Patch("/{promotionID}", promotions.Update)
			r.Delete("/{promotionID}", promotions.Deactivate)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(r.Context(), w, httpx.NewError("method_not_allowed", "method not allowed", http.StatusMethodNotAllowed))
	})

	return r, nil
}
