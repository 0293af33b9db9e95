package firestore

import (
	"context"
	"time"

	fs "cloud.google.com/go/firestore"

	domain "github.com/motorunner/api/internal/domain"
	platform "github.com/motorunner/api/internal/platform/firestore"
)

type quoteItemDoc struct {
	BikeID    string `firestore:"bikeId"`
	Name      string `firestore:"name"`
	Brand     string `firestore:"brand"`
	Quantity  int    `firestore:"quantity"`
	BasePrice int64  `firestore:"basePrice"`
	UnitPrice int64  `firestore:"unitPrice"`
	Subtotal  int64  `firestore:"subtotal"`
}

type dealerInfoDoc struct {
	Name  string `firestore:"name"`
	Email string `firestore:"email"`
}

type quoteDoc struct {
	Dealer    dealerInfoDoc  `firestore:"dealer"`
	Items     []quoteItemDoc `firestore:"items"`
	Totals    orderTotalsDoc `firestore:"totals"`
	Currency  string         `firestore:"currency"`
	CreatedAt time.Time      `firestore:"createdAt"`
	ExpiresAt time.Time      `firestore:"expiresAt"`
}

func toQuoteDoc(quote domain.Quote) quoteDoc {
	items := make([]quoteItemDoc, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, quoteItemDoc{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Brand:     item.Brand,
			Quantity:  item.Quantity,
			BasePrice: item.BasePrice,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return quoteDoc{
		Dealer: dealerInfoDoc{Name: quote.Dealer.Name, Email: quote.Dealer.Email},
		Items:  items,
		Totals: orderTotalsDoc{
			Subtotal: quote.Totals.Subtotal,
			Discount: quote.Totals.Discount,
			Tax:      quote.Totals.Tax,
			Shipping: quote.Totals.Shipping,
			Total:    quote.Totals.Total,
		},
		Currency:  quote.Currency,
		CreatedAt: quote.CreatedAt,
		ExpiresAt: quote.ExpiresAt,
	}
}

func (d quoteDoc) toDomain(id string) domain.Quote {
	items := make([]domain.QuoteItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.QuoteItem{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Brand:     item.Brand,
			Quantity:  item.Quantity,
			BasePrice: item.BasePrice,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return domain.Quote{
		ID:     id,
		Dealer: domain.DealerInfo{Name: d.Dealer.Name, Email: d.Dealer.Email},
		Items:  items,
		Totals: domain.OrderTotals{
			Subtotal: d.Totals.Subtotal,
			Discount: d.Totals.Discount,
			Tax:      d.Totals.Tax,
			Shipping: d.Totals.Shipping,
			Total:    d.Totals.Total,
		},
		Currency:  d.Currency,
		CreatedAt: d.CreatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// QuoteRepository persists dealer quote snapshots.
type QuoteRepository struct {
	base *platform.BaseRepository[quoteDoc]
}

func newQuoteRepository(provider *platform.Provider) *QuoteRepository {
	return &QuoteRepository{
		base: platform.NewBaseRepository[quoteDoc](provider, collectionQuotes),
	}
}

func (r *QuoteRepository) Insert(ctx context.Context, quote domain.Quote) error {
	_, err := r.base.Create(ctx, quote.ID, toQuoteDoc(quote))
	return err
}

func (r *QuoteRepository) FindByID(ctx context.Context, quoteID string) (domain.Quote, error) {
	doc, err := r.base.Get(ctx, quoteID)
	if err != nil {
		return domain.Quote{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *QuoteRepository) ListByDealer(ctx context.Context, dealerEmail string) ([]domain.Quote, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		return query.Where("dealer.email", "==", dealerEmail).OrderBy("createdAt", fs.Desc)
	})
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.Quote, 0, len(docs))
	for _, doc := range docs {
		quotes = append(quotes, doc.Data.toDomain(doc.ID))
	}
	return quotes, nil
}
