package services

import (
	"context"
	"time"

	domain "github.com/motorunner/api/internal/domain"
)

// PricingService exposes role-aware price computation for a single catalog line.
type PricingService interface {
	PriceLine(ctx context.Context, cmd PriceLineCommand) (LinePricing, error)
}

// PriceLineCommand identifies the bike, quantity, and buyer role to price.
type PriceLineCommand struct {
	BikeID   string
	Quantity int
	Role     domain.Role
}

// LinePricing reports the priced line together with the catalog snapshot used.
type LinePricing struct {
	Bike    domain.Bike
	Pricing domain.PricingResult
}

// PromotionService validates promo codes against a subtotal and manages the
// promotion catalog for back-office staff.
type PromotionService interface {
	Apply(ctx context.Context, cmd ApplyPromotionCommand) (PromotionApplication, error)
	Create(ctx context.Context, cmd UpsertPromotionCommand) (domain.Promotion, error)
	Update(ctx context.Context, cmd UpsertPromotionCommand) (domain.Promotion, error)
	Deactivate(ctx context.Context, promotionID string) (domain.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Promotion, error)
}

// ApplyPromotionCommand pairs a promo code with the subtotal it discounts.
type ApplyPromotionCommand struct {
	Code     string
	Subtotal int64
}

// PromotionApplication reports the resolved promotion and the discount amount,
// already capped at the subtotal.
type PromotionApplication struct {
	Promotion domain.Promotion
	Discount  int64
}

// UpsertPromotionCommand carries admin-supplied promotion fields.
type UpsertPromotionCommand struct {
	ID          string
	Code        string
	Type        domain.PromoType
	Discount    int64
	Description string
	Active      *bool
}

// CartService owns the per-user cart lifecycle.
type CartService interface {
	Get(ctx context.Context, userEmail string) (domain.Cart, error)
	Replace(ctx context.Context, cmd ReplaceCartCommand) (domain.Cart, error)
	Clear(ctx context.Context, userEmail string) error
}

// ReplaceCartCommand swaps the full set of cart lines for a user.
type ReplaceCartCommand struct {
	UserEmail string
	Lines     []CartLineInput
}

// CartLineInput is a single requested (bike, quantity) pair.
type CartLineInput struct {
	BikeID   string
	Quantity int
}

// CheckoutService orchestrates the two-step checkout: payment authorization
// followed by order commitment.
type CheckoutService interface {
	Authorize(ctx context.Context, cmd AuthorizeCheckoutCommand) (CheckoutAuthorization, error)
	Complete(ctx context.Context, cmd CompleteCheckoutCommand) (domain.Order, error)
}

// AuthorizeCheckoutCommand opens a payment authorization for the user's cart.
type AuthorizeCheckoutCommand struct {
	UserEmail string
	Role      domain.Role
	PromoCode string
}

// CheckoutAuthorization is returned to the client to drive payment confirmation.
type CheckoutAuthorization struct {
	IntentID     string
	ClientSecret string
	Mock         bool
	Totals       domain.OrderTotals
	Currency     string
}

// CompleteCheckoutCommand settles the authorization and commits the order.
type CompleteCheckoutCommand struct {
	UserEmail       string
	Role            domain.Role
	IntentID        string
	PromoCode       string
	ShippingAddress domain.Address
}

// OrderService persists committed orders and drives the fulfillment state machine.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string, requester Requester) (domain.Order, error)
	List(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error)
	TransitionStatus(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error)
}

// Requester identifies the caller for ownership checks.
type Requester struct {
	Email string
	Role  domain.Role
}

// CreateOrderCommand carries the fully priced order ready for commitment.
// Totals are computed server-side by checkout; items are snapshots.
type CreateOrderCommand struct {
	UserEmail       string
	Items           []domain.OrderItem
	Totals          domain.OrderTotals
	Currency        string
	PromoCode       string
	ShippingAddress domain.Address
	PaymentIntentID string
	PaymentMock     bool
}

// ListOrdersQuery narrows order listings. Elevated requesters may list across
// all users by leaving UserEmail empty.
type ListOrdersQuery struct {
	Requester Requester
	UserEmail string
	Status    []domain.OrderStatus
	Limit     int
}

// TransitionOrderCommand moves an order to a new fulfillment status.
type TransitionOrderCommand struct {
	OrderNumber  string
	TargetStatus domain.OrderStatus
	Requester    Requester
}

// QuoteService prepares and reads dealer pricing snapshots.
type QuoteService interface {
	Create(ctx context.Context, cmd CreateQuoteCommand) (QuoteResult, error)
	Get(ctx context.Context, quoteID string, requester Requester) (QuoteResult, error)
	ListByDealer(ctx context.Context, requester Requester) ([]QuoteResult, error)
}

// CreateQuoteCommand requests a quote for the given dealer and lines.
type CreateQuoteCommand struct {
	Dealer domain.DealerInfo
	Role   domain.Role
	Lines  []CartLineInput
}

// QuoteResult pairs a quote with its advisory expiry state at read time.
type QuoteResult struct {
	Quote   domain.Quote
	Expired bool
}

// CounterService issues collision-safe sequential order numbers.
type CounterService interface {
	NextOrderNumber(ctx context.Context, now time.Time) (string, error)
}
