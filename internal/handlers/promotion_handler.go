package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// PromotionHandler exposes public promo validation and the admin catalog.
type PromotionHandler struct {
	promotions services.PromotionService
}

func NewPromotionHandler(promotions services.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

type applyPromotionRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

type applyPromotionResponse struct {
	Code     string `json:"code"`
	Type     string `json:"type"`
	Discount int64  `json:"discount"`
	Subtotal int64  `json:"subtotal"`
}

// Apply validates a promo code against a subtotal without mutating anything.
func (h *PromotionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req applyPromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	application, err := h.promotions.Apply(ctx, services.ApplyPromotionCommand{
		Code:     req.Code,
		Subtotal: req.Subtotal,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, applyPromotionResponse{
		Code:     application.Promotion.Code,
		Type:     string(application.Promotion.Type),
		Discount: application.Discount,
		Subtotal: req.Subtotal,
	})
}

type upsertPromotionRequest struct {
	Code        string `json:"code"`
	Type        string `json:"type"`
	Discount    int64  `json:"discount"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertPromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	promotion, err := h.promotions.Create(ctx, services.UpsertPromotionCommand{
		Code:        req.Code,
		Type:        domain.PromoType(strings.ToLower(strings.TrimSpace(req.Type))),
		Discount:    req.Discount,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toPromotionPayload(promotion))
}

func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertPromotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(ctx, w, "invalid request body")
		return
	}

	promotion, err := h.promotions.Update(ctx, services.UpsertPromotionCommand{
		ID:          chi.URLParam(r, "promotionID"),
		Code:        req.Code,
		Type:        domain.PromoType(strings.ToLower(strings.TrimSpace(req.Type))),
		Discount:    req.Discount,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPromotionPayload(promotion))
}

// Deactivate retires a promo code; the record stays for order references.
func (h *PromotionHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	promotion, err := h.promotions.Deactivate(ctx, chi.URLParam(r, "promotionID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPromotionPayload(promotion))
}

func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("active") == "true"
	promotions, err := h.promotions.List(ctx, activeOnly)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payloads := make([]promotionPayload, 0, len(promotions))
	for _, promotion := range promotions {
		payloads = append(payloads, toPromotionPayload(promotion))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"promotions": payloads})
}
