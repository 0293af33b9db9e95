package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/motorunner/api/internal/domain"
)

func newPricingService(t *testing.T, bikes *stubBikeRepo) PricingService {
	t.Helper()
	svc, err := NewPricingService(PricingServiceDeps{Bikes: bikes, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewPricingService: %v", err)
	}
	return svc
}

func TestPriceLineRetailForCustomer(t *testing.T) {
	bikes := catalogOf(domain.Bike{ID: "bike_road", Name: "Road 500", Price: 500_000, Currency: "USD"})
	svc := newPricingService(t, bikes)

	line, err := svc.PriceLine(context.Background(), PriceLineCommand{
		BikeID:   "bike_road",
		Quantity: 3,
		Role:     domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Pricing.Tier != "retail" {
		t.Fatalf("tier = %q, want retail", line.Pricing.Tier)
	}
	if line.Pricing.UnitPrice != 500_000 || line.Pricing.DiscountPercent != 0 {
		t.Fatalf("unit price = %d, discount = %d", line.Pricing.UnitPrice, line.Pricing.DiscountPercent)
	}
	if line.Pricing.Subtotal != 1_500_000 {
		t.Fatalf("subtotal = %d, want 1500000", line.Pricing.Subtotal)
	}
}

func TestPriceLineDealerTiers(t *testing.T) {
	bikes := catalogOf(domain.Bike{ID: "bike_road", Price: 1_000_000, Currency: "USD"})
	svc := newPricingService(t, bikes)

	cases := []struct {
		name        string
		quantity    int
		wantPercent int64
		wantUnit    int64
	}{
		{name: "small order", quantity: 3, wantPercent: 10, wantUnit: 900_000},
		{name: "mid order", quantity: 8, wantPercent: 15, wantUnit: 850_000},
		{name: "large order", quantity: 15, wantPercent: 20, wantUnit: 800_000},
		{name: "bulk order", quantity: 30, wantPercent: 25, wantUnit: 750_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := svc.PriceLine(context.Background(), PriceLineCommand{
				BikeID:   "bike_road",
				Quantity: tc.quantity,
				Role:     domain.RoleDealer,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if line.Pricing.DiscountPercent != tc.wantPercent {
				t.Fatalf("discount = %d, want %d", line.Pricing.DiscountPercent, tc.wantPercent)
			}
			if line.Pricing.UnitPrice != tc.wantUnit {
				t.Fatalf("unit price = %d, want %d", line.Pricing.UnitPrice, tc.wantUnit)
			}
			wantSubtotal := tc.wantUnit * int64(tc.quantity)
			if line.Pricing.Subtotal != wantSubtotal {
				t.Fatalf("subtotal = %d, want %d", line.Pricing.Subtotal, wantSubtotal)
			}
		})
	}
}

func TestPriceLineValidation(t *testing.T) {
	svc := newPricingService(t, catalogOf())

	if _, err := svc.PriceLine(context.Background(), PriceLineCommand{BikeID: " ", Quantity: 1}); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("blank bike id: error = %v, want ErrPricingInvalidInput", err)
	}
	if _, err := svc.PriceLine(context.Background(), PriceLineCommand{BikeID: "bike_road", Quantity: 0}); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("zero quantity: error = %v, want ErrPricingInvalidInput", err)
	}
}

func TestPriceLineUnknownBike(t *testing.T) {
	svc := newPricingService(t, catalogOf())

	_, err := svc.PriceLine(context.Background(), PriceLineCommand{BikeID: "bike_ghost", Quantity: 1, Role: domain.RoleCustomer})
	if !errors.Is(err, ErrPricingBikeNotFound) {
		t.Fatalf("error = %v, want ErrPricingBikeNotFound", err)
	}
}

func TestPriceLineBackendOutage(t *testing.T) {
	bikes := &stubBikeRepo{
		findByIDFn: func(context.Context, string) (domain.Bike, error) {
			return domain.Bike{}, unavailableErr("firestore down")
		},
	}
	svc := newPricingService(t, bikes)

	_, err := svc.PriceLine(context.Background(), PriceLineCommand{BikeID: "bike_road", Quantity: 1, Role: domain.RoleCustomer})
	if !errors.Is(err, ErrPricingUnavailable) {
		t.Fatalf("error = %v, want ErrPricingUnavailable", err)
	}
}
