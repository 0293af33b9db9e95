package handlers

import (
	"net/http"

	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// CartHandler exposes the authenticated user's cart.
type CartHandler struct {
	carts services.CartService
}

func NewCartHandler(carts services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.Get(ctx, identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCartPayload(cart))
}

type replaceCartRequest struct {
	Lines []struct {
		BikeID   string `json:"bikeId"`
		Quantity int    `json:"quantity"`
	} `json:"lines"`
}

// Replace swaps the entire cart contents in one call.
func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	var req replaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	lines := make([]services.CartLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.CartLineInput{BikeID: line.BikeID, Quantity: line.Quantity})
	}

	cart, err := h.carts.Replace(ctx, services.ReplaceCartCommand{
		UserEmail: identity.Email,
		Lines:     lines,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCartPayload(cart))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.Clear(ctx, identity.Email); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
