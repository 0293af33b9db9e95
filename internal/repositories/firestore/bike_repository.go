package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"

	domain "github.com/motorunner/api/internal/domain"
	platform "github.com/motorunner/api/internal/platform/firestore"
	"github.com/motorunner/api/internal/repositories"
)

type bikeDoc struct {
	Name        string    `firestore:"name"`
	Brand       string    `firestore:"brand"`
	Category    string    `firestore:"category"`
	Price       int64     `firestore:"price"`
	Currency    string    `firestore:"currency"`
	Stock       int       `firestore:"stock"`
	Description string    `firestore:"description"`
	ImageURL    string    `firestore:"imageUrl"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d bikeDoc) toDomain(id string) domain.Bike {
	return domain.Bike{
		ID:          id,
		Name:        d.Name,
		Brand:       d.Brand,
		Category:    d.Category,
		Price:       d.Price,
		Currency:    d.Currency,
		Stock:       d.Stock,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// BikeRepository reads catalog documents and guards stock mutation.
type BikeRepository struct {
	provider *platform.Provider
	base     *platform.BaseRepository[bikeDoc]
}

func newBikeRepository(provider *platform.Provider) *BikeRepository {
	return &BikeRepository{
		provider: provider,
		base:     platform.NewBaseRepository[bikeDoc](provider, collectionBikes),
	}
}

func (r *BikeRepository) FindByID(ctx context.Context, bikeID string) (domain.Bike, error) {
	doc, err := r.base.Get(ctx, bikeID)
	if err != nil {
		return domain.Bike{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindByIDs fetches the given bikes, silently skipping ids with no document.
// Callers decide whether a missing id is an error.
func (r *BikeRepository) FindByIDs(ctx context.Context, bikeIDs []string) (map[string]domain.Bike, error) {
	found := make(map[string]domain.Bike, len(bikeIDs))
	for _, id := range bikeIDs {
		if _, ok := found[id]; ok {
			continue
		}
		doc, err := r.base.Get(ctx, id)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return nil, err
		}
		found[doc.ID] = doc.Data.toDomain(doc.ID)
	}
	return found, nil
}

// DecrementStock subtracts quantity inside a transaction, failing with
// InsufficientStockError when the remaining stock does not cover the request.
func (r *BikeRepository) DecrementStock(ctx context.Context, bikeID string, quantity int, now time.Time) (domain.Bike, error) {
	if quantity <= 0 {
		return domain.Bike{}, platform.WrapError("bikes.decrement", fmt.Errorf("quantity must be positive, got %d", quantity))
	}

	ref, err := r.base.DocumentRef(ctx, bikeID)
	if err != nil {
		return domain.Bike{}, err
	}

	var updated domain.Bike
	err = r.provider.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := platform.DecodeSnapshot[bikeDoc](snapshot)
		if err != nil {
			return err
		}
		if doc.Data.Stock < quantity {
			return &repositories.InsufficientStockError{
				BikeID:    bikeID,
				Requested: quantity,
				Available: doc.Data.Stock,
			}
		}
		if err := tx.Update(ref, []fs.Update{
			{Path: "stock", Value: doc.Data.Stock - quantity},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}
		doc.Data.Stock -= quantity
		doc.Data.UpdatedAt = now
		updated = doc.Data.toDomain(doc.ID)
		return nil
	})
	if err != nil {
		return domain.Bike{}, err
	}
	return updated, nil
}

// RestoreStock adds quantity back, compensating a checkout that failed after
// earlier lines were decremented.
func (r *BikeRepository) RestoreStock(ctx context.Context, bikeID string, quantity int, now time.Time) error {
	if quantity <= 0 {
		return platform.WrapError("bikes.restore", fmt.Errorf("quantity must be positive, got %d", quantity))
	}

	ref, err := r.base.DocumentRef(ctx, bikeID)
	if err != nil {
		return err
	}

	return r.provider.RunTransaction(ctx, func(_ context.Context, tx *fs.Transaction) error {
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := platform.DecodeSnapshot[bikeDoc](snapshot)
		if err != nil {
			return err
		}
		return tx.Update(ref, []fs.Update{
			{Path: "stock", Value: doc.Data.Stock + quantity},
			{Path: "updatedAt", Value: now},
		})
	})
}
