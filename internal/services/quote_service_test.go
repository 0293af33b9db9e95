package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/motorunner/api/internal/domain"
)

func newTestQuoteService(t *testing.T, quotes *stubQuoteRepo, bikes *stubBikeRepo) QuoteService {
	t.Helper()
	svc, err := NewQuoteService(QuoteServiceDeps{
		Quotes:       quotes,
		Bikes:        bikes,
		Clock:        fixedClock,
		IDGenerator:  func() string { return "01HTESTQUOTE" },
		ValidityDays: 30,
		ShippingFee:  9_900,
	})
	if err != nil {
		t.Fatalf("NewQuoteService: %v", err)
	}
	return svc
}

func TestCreateQuoteSnapshotsDealerPricing(t *testing.T) {
	var inserted domain.Quote
	quotes := &stubQuoteRepo{
		insertFn: func(_ context.Context, quote domain.Quote) error {
			inserted = quote
			return nil
		},
	}
	bikes := catalogOf(domain.Bike{
		ID: "bike_road", Name: "Road 500", Brand: "Motorunner",
		Price: 1_000_000, Currency: "USD", Stock: 50,
	})
	svc := newTestQuoteService(t, quotes, bikes)

	result, err := svc.Create(context.Background(), CreateQuoteCommand{
		Dealer: domain.DealerInfo{Name: "City Cycles", Email: "Dealer@Example.com"},
		Role:   domain.RoleDealer,
		Lines:  []CartLineInput{{BikeID: "bike_road", Quantity: 12}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	quote := result.Quote
	if !strings.HasPrefix(quote.ID, "qte_") {
		t.Fatalf("id = %q, want qte_ prefix", quote.ID)
	}
	if quote.Dealer.Email != "dealer@example.com" {
		t.Fatalf("dealer email = %q, want normalised dealer@example.com", quote.Dealer.Email)
	}
	// 12 units land in the 20% tier: 800_000 per unit.
	item := quote.Items[0]
	if item.BasePrice != 1_000_000 || item.UnitPrice != 800_000 {
		t.Fatalf("item pricing = %+v, want base 1000000 unit 800000", item)
	}
	if quote.Totals.Subtotal != 9_600_000 {
		t.Fatalf("subtotal = %d, want 9600000", quote.Totals.Subtotal)
	}
	if quote.Totals.Tax != 960_000 {
		t.Fatalf("tax = %d, want 960000", quote.Totals.Tax)
	}
	if quote.Totals.Total != 9_600_000+960_000+9_900 {
		t.Fatalf("total = %d", quote.Totals.Total)
	}
	wantExpiry := fixedNow.AddDate(0, 0, 30)
	if !quote.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expiresAt = %v, want %v", quote.ExpiresAt, wantExpiry)
	}
	if result.Expired {
		t.Fatal("fresh quote must not be flagged expired")
	}
	if inserted.ID != quote.ID {
		t.Fatalf("inserted id %q does not match returned %q", inserted.ID, quote.ID)
	}
}

func TestCreateQuoteRejectsNonDealerRoles(t *testing.T) {
	svc := newTestQuoteService(t, &stubQuoteRepo{}, &stubBikeRepo{})

	for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleAnonymous, domain.RoleAdmin} {
		_, err := svc.Create(context.Background(), CreateQuoteCommand{
			Dealer: domain.DealerInfo{Email: "dealer@example.com"},
			Role:   role,
			Lines:  []CartLineInput{{BikeID: "bike_road", Quantity: 1}},
		})
		if !errors.Is(err, ErrQuoteForbidden) {
			t.Fatalf("role %s: error = %v, want ErrQuoteForbidden", role, err)
		}
	}
}

func TestCreateQuoteRejectsUnknownBike(t *testing.T) {
	svc := newTestQuoteService(t, &stubQuoteRepo{}, catalogOf())

	_, err := svc.Create(context.Background(), CreateQuoteCommand{
		Dealer: domain.DealerInfo{Email: "dealer@example.com"},
		Role:   domain.RoleDealer,
		Lines:  []CartLineInput{{BikeID: "bike_ghost", Quantity: 1}},
	})
	if !errors.Is(err, ErrQuoteBikeNotFound) {
		t.Fatalf("error = %v, want ErrQuoteBikeNotFound", err)
	}
}

func TestGetFlagsExpiredQuoteButStillReturnsIt(t *testing.T) {
	quotes := &stubQuoteRepo{
		findByIDFn: func(context.Context, string) (domain.Quote, error) {
			return domain.Quote{
				ID:        "qte_old",
				Dealer:    domain.DealerInfo{Email: "dealer@example.com"},
				ExpiresAt: fixedNow.Add(-24 * time.Hour),
			}, nil
		},
	}
	svc := newTestQuoteService(t, quotes, &stubBikeRepo{})

	result, err := svc.Get(context.Background(), "qte_old", Requester{Email: "dealer@example.com", Role: domain.RoleDealer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Expired {
		t.Fatal("expected quote to be flagged expired")
	}
	if result.Quote.ID != "qte_old" {
		t.Fatalf("quote id = %q, want qte_old", result.Quote.ID)
	}
}

func TestGetDeniesOtherDealers(t *testing.T) {
	quotes := &stubQuoteRepo{
		findByIDFn: func(context.Context, string) (domain.Quote, error) {
			return domain.Quote{ID: "qte_1", Dealer: domain.DealerInfo{Email: "dealer@example.com"}}, nil
		},
	}
	svc := newTestQuoteService(t, quotes, &stubBikeRepo{})

	_, err := svc.Get(context.Background(), "qte_1", Requester{Email: "rival@example.com", Role: domain.RoleDealer})
	if !errors.Is(err, ErrQuoteForbidden) {
		t.Fatalf("error = %v, want ErrQuoteForbidden", err)
	}

	if _, err := svc.Get(context.Background(), "qte_1", Requester{Email: "staff@example.com", Role: domain.RoleMerchandiser}); err != nil {
		t.Fatalf("elevated read failed: %v", err)
	}
}

func TestListByDealerMarksExpiry(t *testing.T) {
	quotes := &stubQuoteRepo{
		listByDealerFn: func(_ context.Context, dealerEmail string) ([]domain.Quote, error) {
			return []domain.Quote{
				{ID: "qte_fresh", Dealer: domain.DealerInfo{Email: dealerEmail}, ExpiresAt: fixedNow.Add(24 * time.Hour)},
				{ID: "qte_stale", Dealer: domain.DealerInfo{Email: dealerEmail}, ExpiresAt: fixedNow.Add(-24 * time.Hour)},
			}, nil
		},
	}
	svc := newTestQuoteService(t, quotes, &stubBikeRepo{})

	results, err := svc.ListByDealer(context.Background(), Requester{Email: "dealer@example.com", Role: domain.RoleDealer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Expired {
		t.Fatal("fresh quote flagged expired")
	}
	if !results[1].Expired {
		t.Fatal("stale quote not flagged expired")
	}
}
