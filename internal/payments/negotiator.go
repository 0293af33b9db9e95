package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MockIntentPrefix marks authorization ids issued by the degraded path.
const MockIntentPrefix = "mock_"

// NegotiatorDeps wires the Negotiator's dependencies. Provider may be nil when
// no payment credentials are configured; every authorization is then mocked.
type NegotiatorDeps struct {
	Provider Provider
	Clock    func() time.Time
	Logger   Logger
	// SuffixFn generates the random tail of mock intent ids. Defaults to a UUID.
	SuffixFn func() string
}

// Negotiator arbitrates between the real payment provider and the deterministic
// mock path used when the provider is absent or unreachable.
type Negotiator struct {
	provider Provider
	clock    func() time.Time
	logger   Logger
	suffixFn func() string
}

// NewNegotiator constructs a Negotiator from its dependencies.
func NewNegotiator(deps NegotiatorDeps) (*Negotiator, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	suffixFn := deps.SuffixFn
	if suffixFn == nil {
		suffixFn = func() string { return uuid.NewString() }
	}

	return &Negotiator{
		provider: deps.Provider,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger:   logger,
		suffixFn: suffixFn,
	}, nil
}

// Mocked reports whether the negotiator runs without a real provider.
func (n *Negotiator) Mocked() bool {
	return n == nil || n.provider == nil
}

// IsMockIntent reports whether the id belongs to a mock authorization.
func IsMockIntent(id string) bool {
	return strings.HasPrefix(id, MockIntentPrefix)
}

// CreateAuthorization opens a payment authorization. Provider outages degrade
// to a mock authorization; declines are surfaced and halt the flow.
func (n *Negotiator) CreateAuthorization(ctx context.Context, req CreateAuthorizationRequest) (Authorization, error) {
	if n == nil {
		return Authorization{}, errors.New("payments: negotiator is nil")
	}
	if req.Amount <= 0 {
		return Authorization{}, fmt.Errorf("payments: authorization amount must be positive, got %d", req.Amount)
	}

	if n.provider == nil {
		auth := n.mockAuthorization(req)
		n.logger(ctx, "payments.mock.authorized", map[string]any{
			"intentId": auth.ID,
			"amount":   auth.Amount,
			"reason":   "credentials_missing",
		})
		return auth, nil
	}

	auth, err := n.provider.CreateAuthorization(ctx, req)
	if err == nil {
		return auth, nil
	}
	if errors.Is(err, ErrPaymentDeclined) {
		return Authorization{}, err
	}
	if errors.Is(err, ErrProviderUnavailable) {
		auth := n.mockAuthorization(req)
		n.logger(ctx, "payments.mock.authorized", map[string]any{
			"intentId": auth.ID,
			"amount":   auth.Amount,
			"reason":   "provider_unavailable",
			"error":    err.Error(),
		})
		return auth, nil
	}
	return Authorization{}, err
}

// ConfirmAuthorization settles a previously created authorization. Mock ids
// confirm synchronously; a provider outage on a real intent is fatal because a
// mock settlement could never reconcile against the real charge.
func (n *Negotiator) ConfirmAuthorization(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if n == nil {
		return Confirmation{}, errors.New("payments: negotiator is nil")
	}
	intentID := strings.TrimSpace(req.IntentID)
	if intentID == "" {
		return Confirmation{}, errors.New("payments: intent id is required")
	}

	if IsMockIntent(intentID) {
		n.logger(ctx, "payments.mock.confirmed", map[string]any{"intentId": intentID})
		return Confirmation{ID: intentID, Status: StatusSucceeded, Mock: true}, nil
	}

	if n.provider == nil {
		return Confirmation{}, fmt.Errorf("%w: no provider configured for real intent %s", ErrProviderUnavailable, intentID)
	}
	return n.provider.ConfirmAuthorization(ctx, req)
}

func (n *Negotiator) mockAuthorization(req CreateAuthorizationRequest) Authorization {
	suffix := strings.ReplaceAll(n.suffixFn(), "-", "")
	if len(suffix) > 12 {
		suffix = suffix[:12]
	}
	id := fmt.Sprintf("%s%d_%s", MockIntentPrefix, n.clock().Unix(), suffix)
	return Authorization{
		ID:       id,
		Status:   StatusRequiresConfirmation,
		Amount:   req.Amount,
		Currency: strings.ToUpper(req.Currency),
		Mock:     true,
	}
}
