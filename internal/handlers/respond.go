package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/motorunner/api/internal/payments"
	"github.com/motorunner/api/internal/platform/auth"
	"github.com/motorunner/api/internal/platform/httpx"
	"github.com/motorunner/api/internal/services"
)

// decodeJSON parses the request body into dst, limiting it to 1 MiB.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// identityOrUnauthorized pulls the authenticated identity from the context,
// writing a 401 when the auth middleware did not run.
func identityOrUnauthorized(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

func writeBadRequest(ctx context.Context, w http.ResponseWriter, message string) {
	httpx.WriteError(ctx, w, httpx.NewError("validation_error", message, http.StatusBadRequest))
}

// writeServiceError translates service-layer sentinels into the JSON error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPricingInvalidInput),
		errors.Is(err, services.ErrPromoInvalidInput),
		errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrQuoteInvalidInput),
		errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("validation_error", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", err.Error(), http.StatusBadRequest))

	case errors.Is(err, services.ErrPricingBikeNotFound),
		errors.Is(err, services.ErrCartBikeNotFound),
		errors.Is(err, services.ErrQuoteBikeNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrQuoteNotFound),
		errors.Is(err, services.ErrPromoNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))

	case errors.Is(err, services.ErrCheckoutPromoInvalid),
		errors.Is(err, services.ErrPromoInactive):
		httpx.WriteError(ctx, w, httpx.NewError("promo_invalid", err.Error(), http.StatusUnprocessableEntity))

	case errors.Is(err, payments.ErrPaymentDeclined):
		httpx.WriteError(ctx, w, httpx.NewError("payment_declined", err.Error(), http.StatusPaymentRequired))

	case errors.Is(err, payments.ErrProviderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("payment_provider_unavailable", err.Error(), http.StatusBadGateway))

	case errors.Is(err, services.ErrOrderForbidden),
		errors.Is(err, services.ErrQuoteForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", err.Error(), http.StatusForbidden))

	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status_transition", err.Error(), http.StatusConflict))

	case errors.Is(err, services.ErrOrderInsufficientStock),
		errors.Is(err, services.ErrCartInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))

	case errors.Is(err, services.ErrCheckoutAmountMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("amount_mismatch", err.Error(), http.StatusConflict))

	case errors.Is(err, services.ErrPromoConflict),
		errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("conflict", err.Error(), http.StatusConflict))

	case errors.Is(err, services.ErrPricingUnavailable),
		errors.Is(err, services.ErrPromoUnavailable),
		errors.Is(err, services.ErrCartUnavailable),
		errors.Is(err, services.ErrOrderUnavailable),
		errors.Is(err, services.ErrQuoteUnavailable),
		errors.Is(err, services.ErrCounterUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", err.Error(), http.StatusServiceUnavailable))

	case errors.Is(err, services.ErrCheckoutReconciliationRequired):
		httpx.WriteError(ctx, w, httpx.NewError("reconciliation_required", err.Error(), http.StatusInternalServerError).
			WithDetails(map[string]any{"reconciliation": true}))

	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}
