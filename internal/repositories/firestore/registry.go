package firestore

import (
	"context"
	"errors"

	"github.com/motorunner/api/internal/platform/config"
	platform "github.com/motorunner/api/internal/platform/firestore"
	"github.com/motorunner/api/internal/repositories"
)

// Collection names used by the Firestore-backed repositories.
const (
	collectionBikes      = "bikes"
	collectionCarts      = "carts"
	collectionOrders     = "orders"
	collectionQuotes     = "quotes"
	collectionPromotions = "promotions"
	collectionCounters   = "counters"
)

// Registry wires the Firestore provider into concrete repository implementations.
type Registry struct {
	provider *platform.Provider

	bikes      *BikeRepository
	carts      *CartRepository
	orders     *OrderRepository
	quotes     *QuoteRepository
	promotions *PromotionRepository
	counters   *CounterRepository
}

// NewRegistry constructs the repository registry backed by the given Firestore configuration.
func NewRegistry(cfg config.FirestoreConfig, opts ...platform.ProviderOption) (*Registry, error) {
	provider := platform.NewProvider(cfg, opts...)
	return NewRegistryWithProvider(provider)
}

// NewRegistryWithProvider constructs the registry around an existing provider,
// which the registry takes ownership of closing.
func NewRegistryWithProvider(provider *platform.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	return &Registry{
		provider:   provider,
		bikes:      newBikeRepository(provider),
		carts:      newCartRepository(provider),
		orders:     newOrderRepository(provider),
		quotes:     newQuoteRepository(provider),
		promotions: newPromotionRepository(provider),
		counters:   newCounterRepository(provider),
	}, nil
}

// Ping forces client initialisation so readiness probes can surface
// misconfiguration before traffic arrives.
func (r *Registry) Ping(ctx context.Context) error {
	_, err := r.provider.Client(ctx)
	return err
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) Bikes() repositories.BikeRepository           { return r.bikes }
func (r *Registry) Carts() repositories.CartRepository           { return r.carts }
func (r *Registry) Orders() repositories.OrderRepository         { return r.orders }
func (r *Registry) Quotes() repositories.QuoteRepository         { return r.quotes }
func (r *Registry) Promotions() repositories.PromotionRepository { return r.promotions }
func (r *Registry) Counters() repositories.CounterRepository     { return r.counters }

// RunInTx executes fn as a unit of work. Stock mutation and counter draws are
// individually transactional at the document level; the callback itself runs
// without an outer transaction and callers compensate on partial failure.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
