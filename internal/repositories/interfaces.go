package repositories

import (
	"context"
	"fmt"
	"time"

	domain "github.com/motorunner/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Bikes() BikeRepository
	Carts() CartRepository
	Orders() OrderRepository
	Quotes() QuoteRepository
	Promotions() PromotionRepository
	Counters() CounterRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BikeRepository reads catalog entries and guards stock mutation.
type BikeRepository interface {
	FindByID(ctx context.Context, bikeID string) (domain.Bike, error)
	FindByIDs(ctx context.Context, bikeIDs []string) (map[string]domain.Bike, error)
	// DecrementStock atomically subtracts quantity from the bike's stock only
	// when the remaining stock covers it; otherwise it returns an
	// InsufficientStockError and leaves the document untouched.
	DecrementStock(ctx context.Context, bikeID string, quantity int, now time.Time) (domain.Bike, error)
	RestoreStock(ctx context.Context, bikeID string, quantity int, now time.Time) error
}

// CartRepository owns per-user cart persistence. Carts are keyed by the
// owning user's email.
type CartRepository interface {
	Get(ctx context.Context, userEmail string) (domain.Cart, error)
	Replace(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Clear(ctx context.Context, userEmail string) error
}

// OrderRepository persists order documents and provides query helpers for users and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// QuoteRepository persists dealer quote snapshots.
type QuoteRepository interface {
	Insert(ctx context.Context, quote domain.Quote) error
	FindByID(ctx context.Context, quoteID string) (domain.Quote, error)
	ListByDealer(ctx context.Context, dealerEmail string) ([]domain.Quote, error)
}

// PromotionRepository maintains promotion definitions.
type PromotionRepository interface {
	Insert(ctx context.Context, promotion domain.Promotion) error
	Update(ctx context.Context, promotion domain.Promotion) error
	FindByID(ctx context.Context, promotionID string) (domain.Promotion, error)
	FindByCode(ctx context.Context, code string) (domain.Promotion, error)
	List(ctx context.Context, filter PromotionListFilter) ([]domain.Promotion, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// OrderListFilter narrows order listings. An empty UserEmail lists across all
// users (elevated callers only; services enforce that).
type OrderListFilter struct {
	UserEmail string
	Status    []domain.OrderStatus
	Limit     int
}

// PromotionListFilter narrows promotion listings.
type PromotionListFilter struct {
	ActiveOnly bool
	Limit      int
}

// InsufficientStockError reports a conditional stock decrement that could not
// be satisfied. The document is left unchanged when this is returned.
type InsufficientStockError struct {
	BikeID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("bike %s: insufficient stock: requested %d, available %d", e.BikeID, e.Requested, e.Available)
}
