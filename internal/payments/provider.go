package payments

import (
	"context"
	"errors"
)

// Status enumerates the normalised authorization states shared across providers.
type Status string

const (
	// StatusRequiresConfirmation indicates the authorization awaits customer confirmation.
	StatusRequiresConfirmation Status = "requires_confirmation"
	// StatusSucceeded indicates the provider reports the payment as successfully captured.
	StatusSucceeded Status = "succeeded"
	// StatusFailed indicates the provider reports a failure and no further action is possible.
	StatusFailed Status = "failed"
)

var (
	// ErrPaymentDeclined signals a card or validation failure. Checkout halts;
	// the caller must not fall back to a mock authorization.
	ErrPaymentDeclined = errors.New("payments: payment declined")
	// ErrProviderUnavailable signals a transient provider outage.
	ErrProviderUnavailable = errors.New("payments: provider unavailable")
	// ErrAmountMismatch signals the open authorization no longer matches the
	// amount the caller expects to settle. Nothing has been captured yet.
	ErrAmountMismatch = errors.New("payments: authorized amount mismatch")
)

// Logger defines the logging contract for payment operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// CreateAuthorizationRequest captures the payload required to open a payment authorization.
type CreateAuthorizationRequest struct {
	Amount         int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// Authorization represents an open payment authorization returned to the client.
type Authorization struct {
	ID           string
	ClientSecret string
	Status       Status
	Amount       int64
	Currency     string
	Mock         bool
}

// ConfirmRequest contains the data required to confirm an authorization.
// A positive Amount makes the provider verify the open authorization still
// carries that amount before settling; zero skips the check.
type ConfirmRequest struct {
	IntentID       string
	IdempotencyKey string
	Amount         int64
	Currency       string
}

// Confirmation reports the provider state after a confirm attempt.
type Confirmation struct {
	ID     string
	Status Status
	Mock   bool
}

// Provider defines the contract for payment service adapters.
type Provider interface {
	CreateAuthorization(ctx context.Context, req CreateAuthorizationRequest) (Authorization, error)
	ConfirmAuthorization(ctx context.Context, req ConfirmRequest) (Confirmation, error)
}
