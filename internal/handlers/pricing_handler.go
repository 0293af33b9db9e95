package handlers

import (
	"net/http"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/platform/auth"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// PricingHandler exposes role-aware line pricing.
type PricingHandler struct {
	pricing services.PricingService
}

func NewPricingHandler(pricing services.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

type priceLineRequest struct {
	BikeID   string `json:"bikeId"`
	Quantity int    `json:"quantity"`
}

type priceLineResponse struct {
	BikeID          string `json:"bikeId"`
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	Tier            string `json:"tier"`
	DiscountPercent int64  `json:"discountPercent"`
	BasePrice       int64  `json:"basePrice"`
	UnitPrice       int64  `json:"unitPrice"`
	DiscountPerUnit int64  `json:"discountPerUnit"`
	Subtotal        int64  `json:"subtotal"`
	Savings         int64  `json:"savings"`
	Currency        string `json:"currency"`
}

// Quote prices a single line for the caller's role. Anonymous callers see
// retail pricing; authenticated dealers get their volume tier.
func (h *PricingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req priceLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	role := domain.RoleAnonymous
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		role = domain.ParseRole(identity.Role)
	}

	result, err := h.pricing.PriceLine(ctx, services.PriceLineCommand{
		BikeID:   req.BikeID,
		Quantity: req.Quantity,
		Role:     role,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, priceLineResponse{
		BikeID:          result.Bike.ID,
		Name:            result.Bike.Name,
		Quantity:        req.Quantity,
		Tier:            result.Pricing.Tier,
		DiscountPercent: result.Pricing.DiscountPercent,
		BasePrice:       result.Bike.Price,
		UnitPrice:       result.Pricing.UnitPrice,
		DiscountPerUnit: result.Pricing.DiscountPerUnit,
		Subtotal:        result.Pricing.Subtotal,
		Savings:         result.Pricing.Savings,
		Currency:        result.Bike.Currency,
	})
}
