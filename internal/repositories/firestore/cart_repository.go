package firestore

import (
	"context"
	"errors"
	"time"

	domain "github.com/motorunner/api/internal/domain"
	platform "github.com/motorunner/api/internal/platform/firestore"
	"github.com/motorunner/api/internal/repositories"
)

type cartLineDoc struct {
	BikeID   string    `firestore:"bikeId"`
	Quantity int       `firestore:"quantity"`
	AddedAt  time.Time `firestore:"addedAt"`
}

type cartDoc struct {
	Lines     []cartLineDoc `firestore:"lines"`
	UpdatedAt time.Time     `firestore:"updatedAt"`
}

func (d cartDoc) toDomain(userEmail string) domain.Cart {
	lines := make([]domain.CartLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, domain.CartLine{
			BikeID:   line.BikeID,
			Quantity: line.Quantity,
			AddedAt:  line.AddedAt,
		})
	}
	return domain.Cart{UserEmail: userEmail, Lines: lines, UpdatedAt: d.UpdatedAt}
}

func toCartDoc(cart domain.Cart) cartDoc {
	lines := make([]cartLineDoc, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLineDoc{
			BikeID:   line.BikeID,
			Quantity: line.Quantity,
			AddedAt:  line.AddedAt,
		})
	}
	return cartDoc{Lines: lines, UpdatedAt: cart.UpdatedAt}
}

// CartRepository persists carts keyed by the owning user's email.
type CartRepository struct {
	base *platform.BaseRepository[cartDoc]
}

func newCartRepository(provider *platform.Provider) *CartRepository {
	return &CartRepository{
		base: platform.NewBaseRepository[cartDoc](provider, collectionCarts),
	}
}

func (r *CartRepository) Get(ctx context.Context, userEmail string) (domain.Cart, error) {
	doc, err := r.base.Get(ctx, userEmail)
	if err != nil {
		return domain.Cart{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *CartRepository) Replace(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if _, err := r.base.Set(ctx, cart.UserEmail, toCartDoc(cart)); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Clear removes the cart document. Clearing a cart that does not exist is fine.
func (r *CartRepository) Clear(ctx context.Context, userEmail string) error {
	err := r.base.Delete(ctx, userEmail)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return nil
		}
	}
	return err
}
