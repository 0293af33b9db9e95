package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// OrderHandler exposes order reads and the fulfillment state machine.
type OrderHandler struct {
	orders services.OrderService
}

func NewOrderHandler(orders services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List returns the caller's orders; elevated callers may filter by user or
// list across all users.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	query := services.ListOrdersQuery{
		Requester: services.Requester{Email: identity.Email, Role: domain.ParseRole(identity.Role)},
		UserEmail: r.URL.Query().Get("user"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, value := range strings.Split(raw, ",") {
			if value = strings.TrimSpace(value); value != "" {
				query.Status = append(query.Status, domain.OrderStatus(strings.ToLower(value)))
			}
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeBadRequest(ctx, w, "limit must be a non-negative integer")
			return
		}
		query.Limit = limit
	}

	orders, err := h.orders.List(ctx, query)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, toOrderPayload(order))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": payloads})
}

func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetByNumber(ctx, chi.URLParam(r, "orderNumber"), services.Requester{
		Email: identity.Email,
		Role:  domain.ParseRole(identity.Role),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrderPayload(order))
}

type transitionOrderRequest struct {
	Status string `json:"status"`
}

// TransitionStatus advances an order to the requested fulfillment status.
func (h *OrderHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := identityOrUnauthorized(ctx, w)
	if !ok {
		return
	}

	var req transitionOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}
	target := domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if target == "" {
		writeBadRequest(ctx, w, "status is required")
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.TransitionOrderCommand{
		OrderNumber:  chi.URLParam(r, "orderNumber"),
		TargetStatus: target,
		Requester:    services.Requester{Email: identity.Email, Role: domain.ParseRole(identity.Role)},
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrderPayload(order))
}
