package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/motorunner/api/internal/handlers"
	"github.com/motorunner/api/internal/payments"
	"github.com/motorunner/api/internal/platform/auth"
	"github.com/motorunner/api/internal/platform/config"
	"github.com/motorunner/api/internal/platform/observability"
	firestorerepo "github.com/motorunner/api/internal/repositories/firestore"
	"github.com/motorunner/api/internal/services"
)

const shutdownGrace = 15 * time.Second

var version = "dev"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		os.Stderr.WriteString("failed to initialise logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("API_AUTH_JWT_SECRET is required")
	}

	registry, err := firestorerepo.NewRegistry(cfg.Firestore)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := registry.Close(closeCtx); err != nil {
			logger.Warn("closing firestore", zap.Error(err))
		}
	}()

	authenticator, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, auth.WithAudience(cfg.Auth.Audience))
	if err != nil {
		return err
	}

	// With no Stripe key the negotiator issues mock authorizations, which keeps
	// local and staging environments working end to end.
	var provider payments.Provider
	if cfg.Stripe.APIKey != "" {
		provider, err = payments.NewStripeProvider(payments.StripeProviderConfig{
			APIKey: cfg.Stripe.APIKey,
			Logger: observability.ServiceLogHook(logger.Named("stripe")),
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("stripe api key not configured, payment authorizations will be mocked")
	}
	negotiator, err := payments.NewNegotiator(payments.NegotiatorDeps{
		Provider: provider,
		Logger:   observability.ServiceLogHook(logger.Named("payments")),
	})
	if err != nil {
		return err
	}

	pricingService, err := services.NewPricingService(services.PricingServiceDeps{
		Bikes:  registry.Bikes(),
		Logger: observability.ServiceLogHook(logger.Named("pricing")),
	})
	if err != nil {
		return err
	}
	promotionService, err := services.NewPromotionService(services.PromotionServiceDeps{
		Promotions: registry.Promotions(),
		Logger:     observability.ServiceLogHook(logger.Named("promotions")),
	})
	if err != nil {
		return err
	}
	cartService, err := services.NewCartService(services.CartServiceDeps{
		Carts:  registry.Carts(),
		Bikes:  registry.Bikes(),
		Logger: observability.ServiceLogHook(logger.Named("cart")),
	})
	if err != nil {
		return err
	}
	counterService, err := services.NewCounterService(services.CounterServiceDeps{
		Counters: registry.Counters(),
		Prefix:   cfg.Checkout.OrderNumberPrefix,
	})
	if err != nil {
		return err
	}
	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:           registry.Orders(),
		Bikes:            registry.Bikes(),
		UnitOfWork:       registry,
		Counter:          counterService,
		Logger:           observability.ServiceLogHook(logger.Named("orders")),
		DeliveryLeadDays: cfg.Checkout.DeliveryLeadDays,
	})
	if err != nil {
		return err
	}
	quoteService, err := services.NewQuoteService(services.QuoteServiceDeps{
		Quotes:       registry.Quotes(),
		Bikes:        registry.Bikes(),
		Logger:       observability.ServiceLogHook(logger.Named("quotes")),
		ValidityDays: cfg.Checkout.QuoteValidityDays,
		ShippingFee:  cfg.Checkout.ShippingFee,
	})
	if err != nil {
		return err
	}
	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:       cartService,
		Bikes:       registry.Bikes(),
		Promotions:  promotionService,
		Orders:      orderService,
		Negotiator:  negotiator,
		Logger:      observability.ServiceLogHook(logger.Named("checkout")),
		Currency:    cfg.Checkout.Currency,
		ShippingFee: cfg.Checkout.ShippingFee,
	})
	if err != nil {
		return err
	}

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Logger:        logger,
		Authenticator: authenticator,
		ProjectID:     cfg.Firestore.ProjectID,
		Version:       version,
		Readiness: func(r *http.Request) error {
			return registry.Ping(r.Context())
		},
		Pricing:    pricingService,
		Promotions: promotionService,
		Carts:      cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Quotes:     quoteService,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr), zap.String("version", version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
