package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// QuoteHandler exposes dealer quote snapshots.
type QuoteHandler struct {
	quotes services.QuoteService
}

func NewQuoteHandler(quotes services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quotes: quotes}
}

type createQuoteRequest struct {
	DealerName string `json:"dealerName"`
	Lines      []struct {
		BikeID   string `json:"bikeId"`
		Quantity int    `json:"quantity"`
	} `json:"lines"`
}

// Create snapshots dealer pricing for the requested lines.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	var req createQuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	lines := make([]services.CartLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.CartLineInput{BikeID: line.BikeID, Quantity: line.Quantity})
	}

	dealerName := req.DealerName
	if dealerName == "" {
		dealerName = identity.Name
	}

	result, err := h.quotes.Create(ctx, services.CreateQuoteCommand{
		Dealer: domain.DealerInfo{Name: dealerName, Email: identity.Email},
		Role:   domain.ParseRole(identity.Role),
		Lines:  lines,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toQuotePayload(result))
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	result, err := h.quotes.Get(ctx, chi.URLParam(r, "quoteID"), services.Requester{
		Email: identity.Email,
		Role:  domain.ParseRole(identity.Role),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toQuotePayload(result))
}

func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	results, err := h.quotes.ListByDealer(ctx, services.Requester{
		Email: identity.Email,
		Role:  domain.ParseRole(identity.Role),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]quotePayload, 0, len(results))
	for _, result := range results {
		payloads = append(payloads, toQuotePayload(result))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"quotes": payloads})
}
