package domain

import (
	"errors"
	"fmt"
)

// ErrPricingInvalidQuantity signals a non-positive quantity passed to pricing.
var ErrPricingInvalidQuantity = errors.New("pricing: quantity must be positive")

// DealerTier maps a quantity bracket to a fixed wholesale discount.
type DealerTier struct {
	Label      string
	MinQty     int
	PercentOff int64
}

// dealerTiers is evaluated on the total requested quantity, not cumulative
// purchase history. Brackets are inclusive on the lower bound; the last tier
// is open-ended.
var dealerTiers = []DealerTier{
	{Label: "1-5", MinQty: 1, PercentOff: 10},
	{Label: "6-10", MinQty: 6, PercentOff: 15},
	{Label: "11-20", MinQty: 11, PercentOff: 20},
	{Label: "21+", MinQty: 21, PercentOff: 25},
}

// DealerTierFor selects the discount tier for the given quantity. Quantities
// below the first bracket fall back to the first tier so callers never see a
// zero tier for a valid dealer quantity.
func DealerTierFor(quantity int) DealerTier {
	selected := dealerTiers[0]
	for _, tier := range dealerTiers {
		if quantity >= tier.MinQty {
			selected = tier
		}
	}
	return selected
}

// PricingResult carries the outcome of pricing a single line. All monetary
// fields are minor currency units. Derived, never persisted standalone.
type PricingResult struct {
	BikeID          string
	Role            Role
	Quantity        int
	BasePrice       int64
	UnitPrice       int64
	DiscountPercent int64
	DiscountPerUnit int64
	Tier            string
	Subtotal        int64
	Savings         int64
	Currency        string
}

// ComputePricing applies the role-based discount policy to one bike line.
// Pure and idempotent: repeated calls with the same inputs yield identical
// results. Non-dealer roles always pay the catalog price.
func ComputePricing(bike Bike, quantity int, role Role) (PricingResult, error) {
	if quantity <= 0 {
		return PricingResult{}, fmt.Errorf("%w: got %d", ErrPricingInvalidQuantity, quantity)
	}
	if bike.Price < 0 {
		return PricingResult{}, fmt.Errorf("pricing: bike %s has negative price", bike.ID)
	}

	result := PricingResult{
		BikeID:    bike.ID,
		Role:      role,
		Quantity:  quantity,
		BasePrice: bike.Price,
		UnitPrice: bike.Price,
		Tier:      "retail",
		Currency:  bike.Currency,
	}

	if role == RoleDealer {
		tier := DealerTierFor(quantity)
		result.Tier = tier.Label
		result.DiscountPercent = tier.PercentOff
		result.DiscountPerUnit = bike.Price * tier.PercentOff / 100
		result.UnitPrice = bike.Price - result.DiscountPerUnit
	}

	qty := int64(quantity)
	result.Subtotal = result.UnitPrice * qty
	result.Savings = result.DiscountPerUnit * qty
	return result, nil
}

// TaxRatePercent is the flat sales tax applied to the discounted subtotal.
const TaxRatePercent = 10

// ComputeTax rounds half-up on the discounted subtotal. Never negative.
func ComputeTax(netSubtotal int64) int64 {
	if netSubtotal <= 0 {
		return 0
	}
	return (netSubtotal*TaxRatePercent + 50) / 100
}
