package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/payments"
	"github.com/motorunner/api/internal/repositories"
)

var (
	// ErrCheckoutInvalidInput signals invalid checkout parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutEmptyCart indicates checkout was attempted on an empty cart.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutPromoInvalid indicates the supplied promo code cannot be applied.
	ErrCheckoutPromoInvalid = errors.New("checkout: promo code invalid")
	// ErrCheckoutAmountMismatch indicates the cart was re-priced to a different
	// total than the open payment authorization. The client must re-authorize.
	ErrCheckoutAmountMismatch = errors.New("checkout: authorization does not match current cart total")
	// ErrCheckoutReconciliationRequired indicates the payment settled but the
	// order could not be committed. The intent id in the error message is the
	// reconciliation handle.
	ErrCheckoutReconciliationRequired = errors.New("checkout: payment captured but order not committed")
)

// PaymentNegotiator is the slice of the payment arbiter checkout depends on.
type PaymentNegotiator interface {
	CreateAuthorization(ctx context.Context, req payments.CreateAuthorizationRequest) (payments.Authorization, error)
	ConfirmAuthorization(ctx context.Context, req payments.ConfirmRequest) (payments.Confirmation, error)
}

// CheckoutServiceDeps bundles collaborators required to construct the checkout service.
type CheckoutServiceDeps struct {
	Carts       CartService
	Bikes       repositories.BikeRepository
	Promotions  PromotionService
	Orders      OrderService
	Negotiator  PaymentNegotiator
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
	Currency    string
	ShippingFee int64
}

type checkoutService struct {
	carts       CartService
	bikes       repositories.BikeRepository
	promotions  PromotionService
	orders      OrderService
	negotiator  PaymentNegotiator
	clock       func() time.Time
	logger      func(context.Context, string, map[string]any)
	currency    string
	shippingFee int64
}

// NewCheckoutService wires dependencies into a concrete CheckoutService implementation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart service is required")
	}
	if deps.Bikes == nil {
		return nil, errors.New("checkout service: bike repository is required")
	}
	if deps.Promotions == nil {
		return nil, errors.New("checkout service: promotion service is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order service is required")
	}
	if deps.Negotiator == nil {
		return nil, errors.New("checkout service: payment negotiator is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &checkoutService{
		carts:       deps.Carts,
		bikes:       deps.Bikes,
		promotions:  deps.Promotions,
		orders:      deps.Orders,
		negotiator:  deps.Negotiator,
		clock:       func() time.Time { return clock().UTC() },
		logger:      logger,
		currency:    currency,
		shippingFee: deps.ShippingFee,
	}, nil
}

// pricedCart holds the server-side pricing of a cart at a point in time.
type pricedCart struct {
	items  []domain.OrderItem
	totals domain.OrderTotals
}

// Authorize prices the user's cart server-side and opens a payment
// authorization for the grand total. The client-supplied side never
// contributes amounts.
func (s *checkoutService) Authorize(ctx context.Context, cmd AuthorizeCheckoutCommand) (CheckoutAuthorization, error) {
	userEmail := normalizeEmail(cmd.UserEmail)
	if userEmail == "" {
		return CheckoutAuthorization{}, fmt.Errorf("%w: user email is required", ErrCheckoutInvalidInput)
	}

	priced, err := s.priceCart(ctx, userEmail, cmd.Role, cmd.PromoCode)
	if err != nil {
		return CheckoutAuthorization{}, err
	}

	auth, err := s.negotiator.CreateAuthorization(ctx, payments.CreateAuthorizationRequest{
		Amount:         priced.totals.Total,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Order for %s", userEmail),
		IdempotencyKey: checkoutIdempotencyKey(userEmail, priced),
		Metadata: map[string]string{
			"user_email": userEmail,
		},
	})
	if err != nil {
		return CheckoutAuthorization{}, err
	}

	s.logger(ctx, "checkout.authorized", map[string]any{
		"user":   userEmail,
		"amount": priced.totals.Total,
		"mock":   auth.Mock,
	})

	return CheckoutAuthorization{
		IntentID:     auth.ID,
		ClientSecret: auth.ClientSecret,
		Mock:         auth.Mock,
		Totals:       priced.totals,
		Currency:     s.currency,
	}, nil
}

// Complete re-prices the cart, settles the payment authorization, and commits
// the order. The cart is cleared only after the order is durably stored; a
// cart-clear failure is logged but does not fail the checkout.
func (s *checkoutService) Complete(ctx context.Context, cmd CompleteCheckoutCommand) (domain.Order, error) {
	userEmail := normalizeEmail(cmd.UserEmail)
	if userEmail == "" {
		return domain.Order{}, fmt.Errorf("%w: user email is required", ErrCheckoutInvalidInput)
	}
	intentID := strings.TrimSpace(cmd.IntentID)
	if intentID == "" {
		return domain.Order{}, fmt.Errorf("%w: payment intent id is required", ErrCheckoutInvalidInput)
	}
	if err := validateShippingAddress(cmd.ShippingAddress); err != nil {
		return domain.Order{}, err
	}

	priced, err := s.priceCart(ctx, userEmail, cmd.Role, cmd.PromoCode)
	if err != nil {
		return domain.Order{}, err
	}

	confirmation, err := s.negotiator.ConfirmAuthorization(ctx, payments.ConfirmRequest{
		IntentID:       intentID,
		IdempotencyKey: checkoutIdempotencyKey(userEmail, priced),
		Amount:         priced.totals.Total,
		Currency:       s.currency,
	})
	if err != nil {
		if errors.Is(err, payments.ErrAmountMismatch) {
			s.logger(ctx, "checkout.amount_mismatch", map[string]any{
				"user":     userEmail,
				"intentId": intentID,
				"total":    priced.totals.Total,
			})
			return domain.Order{}, fmt.Errorf("%w: %v", ErrCheckoutAmountMismatch, err)
		}
		return domain.Order{}, err
	}
	if confirmation.Status != payments.StatusSucceeded {
		return domain.Order{}, fmt.Errorf("%w: intent %s in status %s", payments.ErrPaymentDeclined, intentID, confirmation.Status)
	}

	order, err := s.orders.Create(ctx, CreateOrderCommand{
		UserEmail:       userEmail,
		Items:           priced.items,
		Totals:          priced.totals,
		Currency:        s.currency,
		PromoCode:       cmd.PromoCode,
		ShippingAddress: cmd.ShippingAddress,
		PaymentIntentID: intentID,
		PaymentMock:     confirmation.Mock,
	})
	if err != nil {
		// Money has moved; surface a reconciliation handle instead of a
		// generic persistence error.
		s.logger(ctx, "checkout.reconciliation_required", map[string]any{
			"user":     userEmail,
			"intentId": intentID,
			"error":    err.Error(),
		})
		return domain.Order{}, fmt.Errorf("%w: intent %s: %v", ErrCheckoutReconciliationRequired, intentID, err)
	}

	if err := s.carts.Clear(ctx, userEmail); err != nil {
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"user":  userEmail,
			"error": err.Error(),
		})
	}

	s.logger(ctx, "checkout.completed", map[string]any{
		"user":        userEmail,
		"orderNumber": order.OrderNumber,
		"total":       order.Totals.Total,
		"mock":        order.PaymentMock,
	})
	return order, nil
}

// priceCart loads the cart and computes items and totals from the catalog and
// the caller's role. All amounts are recomputed here on every call.
func (s *checkoutService) priceCart(ctx context.Context, userEmail string, role domain.Role, promoCode string) (pricedCart, error) {
	cart, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		return pricedCart{}, err
	}
	if len(cart.Lines) == 0 {
		return pricedCart{}, fmt.Errorf("%w: %s", ErrCheckoutEmptyCart, userEmail)
	}

	ids := make([]string, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		ids = append(ids, line.BikeID)
	}
	bikes, err := s.bikes.FindByIDs(ctx, ids)
	if err != nil {
		return pricedCart{}, mapBikeRepositoryError(err)
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	var subtotal int64
	for _, line := range cart.Lines {
		bike, ok := bikes[line.BikeID]
		if !ok {
			return pricedCart{}, fmt.Errorf("%w: %s", ErrCartBikeNotFound, line.BikeID)
		}
		pricing, err := domain.ComputePricing(bike, line.Quantity, role)
		if err != nil {
			return pricedCart{}, fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
		}
		items = append(items, domain.OrderItem{
			BikeID:    bike.ID,
			Name:      bike.Name,
			Quantity:  line.Quantity,
			UnitPrice: pricing.UnitPrice,
			Subtotal:  pricing.Subtotal,
		})
		subtotal += pricing.Subtotal
	}

	var discount int64
	if code := NormalizePromoCode(promoCode); code != "" {
		application, err := s.promotions.Apply(ctx, ApplyPromotionCommand{Code: code, Subtotal: subtotal})
		if err != nil {
			if errors.Is(err, ErrPromoNotFound) || errors.Is(err, ErrPromoInactive) || errors.Is(err, ErrPromoInvalidInput) {
				return pricedCart{}, fmt.Errorf("%w: %v", ErrCheckoutPromoInvalid, err)
			}
			return pricedCart{}, err
		}
		discount = application.Discount
	}

	net := subtotal - discount
	tax := domain.ComputeTax(net)
	totals := domain.OrderTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Shipping: s.shippingFee,
		Total:    net + tax + s.shippingFee,
	}
	return pricedCart{items: items, totals: totals}, nil
}

// checkoutIdempotencyKey derives a stable key from the cart contents so
// retried authorizations for the same cart state reuse the same intent.
func checkoutIdempotencyKey(userEmail string, priced pricedCart) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", userEmail, priced.totals.Total)
	for _, item := range priced.items {
		fmt.Fprintf(h, "|%s:%d:%d", item.BikeID, item.Quantity, item.UnitPrice)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func validateShippingAddress(addr domain.Address) error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(addr.Recipient) == "" {
		missing = append(missing, "recipient")
	}
	if strings.TrimSpace(addr.Line1) == "" {
		missing = append(missing, "line1")
	}
	if strings.TrimSpace(addr.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		missing = append(missing, "postalCode")
	}
	if strings.TrimSpace(addr.Country) == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: shipping address missing %s", ErrCheckoutInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}
