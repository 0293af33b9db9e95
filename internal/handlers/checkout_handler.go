package handlers

import (
	"net/http"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// CheckoutHandler drives the two-step checkout flow.
type CheckoutHandler struct {
	checkout services.CheckoutService
}

func NewCheckoutHandler(checkout services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type authorizeCheckoutRequest struct {
	PromoCode string `json:"promoCode"`
}

type authorizeCheckoutResponse struct {
	IntentID     string        `json:"intentId"`
	ClientSecret string        `json:"clientSecret,omitempty"`
	Mock         bool          `json:"mock"`
	Totals       totalsPayload `json:"totals"`
	Currency     string        `json:"currency"`
}

// Authorize prices the cart and opens a payment authorization.
func (h *CheckoutHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	var req authorizeCheckoutRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(ctx, w, "invalid request body")
			return
		}
	}

	authorization, err := h.checkout.Authorize(ctx, services.AuthorizeCheckoutCommand{
		UserEmail: identity.Email,
		Role:      domain.ParseRole(identity.Role),
		PromoCode: req.PromoCode,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authorizeCheckoutResponse{
		IntentID:     authorization.IntentID,
		ClientSecret: authorization.ClientSecret,
		Mock:         authorization.Mock,
		Totals:       toTotalsPayload(authorization.Totals),
		Currency:     authorization.Currency,
	})
}

type completeCheckoutRequest struct {
	IntentID        string         `json:"intentId"`
	PromoCode       string         `json:"promoCode"`
	ShippingAddress addressPayload `json:"shippingAddress"`
}

// Complete settles the authorization and commits the order.
func (h *CheckoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	var req completeCheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	order, err := h.checkout.Complete(ctx, services.CompleteCheckoutCommand{
		UserEmail:       identity.Email,
		Role:            domain.ParseRole(identity.Role),
		IntentID:        req.IntentID,
		PromoCode:       req.PromoCode,
		ShippingAddress: req.ShippingAddress.toDomain(),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrderPayload(order))
}
