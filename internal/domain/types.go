package domain

import (
	"strings"
	"time"
)

// Role enumerates the storefront account roles recognised by the engine.
type Role string

const (
	// RoleAnonymous represents an unauthenticated visitor.
	RoleAnonymous Role = "anonymous"
	// RoleCustomer represents a retail buyer.
	RoleCustomer Role = "customer"
	// RoleDealer represents a wholesale buyer eligible for volume discounts.
	RoleDealer Role = "dealer"
	// RoleMerchandiser represents catalog staff with elevated read access.
	RoleMerchandiser Role = "merchandiser"
	// RoleAdmin represents back-office staff with full access.
	RoleAdmin Role = "admin"
)

// ParseRole normalises a role string, defaulting to anonymous.
func ParseRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleCustomer:
		return RoleCustomer
	case RoleDealer:
		return RoleDealer
	case RoleMerchandiser:
		return RoleMerchandiser
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleAnonymous
	}
}

// Elevated reports whether the role may read records owned by other users.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleMerchandiser
}

// Bike is a catalog entry. Price is in minor currency units (cents).
type Bike struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	Price       int64
	Currency    string
	Stock       int
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CartLine is a single (bike, quantity) pair inside a user's cart.
type CartLine struct {
	BikeID   string
	Quantity int
	AddedAt  time.Time
}

// Cart is the per-user mutable collection of cart lines. A cart is owned by
// exactly one user and destroyed on order commit or explicit clear.
type Cart struct {
	UserEmail string
	Lines     []CartLine
	UpdatedAt time.Time
}

// PromoType distinguishes the two supported promotion mechanics.
type PromoType string

const (
	// PromoTypePercentage discounts a percentage of the subtotal.
	PromoTypePercentage PromoType = "percentage"
	// PromoTypeFixed discounts a fixed amount, capped at the subtotal.
	PromoTypeFixed PromoType = "fixed"
)

// Promotion is an admin-managed discount code. Checkout reads promotions but
// never mutates them.
type Promotion struct {
	ID          string
	Code        string
	Type        PromoType
	Discount    int64
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Address is the shipping destination captured at checkout.
type Address struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	// OrderStatusConfirmed is the initial state assigned at checkout completion.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped indicates the order left the warehouse.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before shipping.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is a line item snapshotted at commit time. Name and UnitPrice are
// denormalised copies; later catalog changes must not alter them.
type OrderItem struct {
	BikeID    string
	Name      string
	Quantity  int
	UnitPrice int64
	Subtotal  int64
}

// OrderTotals holds the rolled-up monetary fields in minor currency units.
type OrderTotals struct {
	Subtotal int64
	Discount int64
	Tax      int64
	Shipping int64
	Total    int64
}

// Order is the record committed at checkout completion. Status and UpdatedAt
// are the only fields mutated after creation; orders are never deleted.
type Order struct {
	ID                string
	OrderNumber       string
	UserEmail         string
	Items             []OrderItem
	Totals            OrderTotals
	Currency          string
	PromoCode         string
	ShippingAddress   Address
	PaymentMethod     string
	PaymentIntentID   string
	PaymentMock       bool
	Status            OrderStatus
	EstimatedDelivery time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// QuoteItem snapshots a bike and quantity inside a dealer quote.
type QuoteItem struct {
	BikeID    string
	Name      string
	Brand     string
	Quantity  int
	BasePrice int64
	UnitPrice int64
	Subtotal  int64
}

// DealerInfo identifies the dealer a quote was prepared for.
type DealerInfo struct {
	Name  string
	Email string
}

// Quote is a non-binding, read-only pricing snapshot offered to dealers.
// Expiry is advisory: expired quotes stay readable for audit.
type Quote struct {
	ID        string
	Dealer    DealerInfo
	Items     []QuoteItem
	Totals    OrderTotals
	Currency  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the quote's validity window has passed at the given
// instant.
func (q Quote) Expired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}
