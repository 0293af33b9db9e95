package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

type stubProvider struct {
	createFn  func(ctx context.Context, req CreateAuthorizationRequest) (Authorization, error)
	confirmFn func(ctx context.Context, req ConfirmRequest) (Confirmation, error)
}

func (s *stubProvider) CreateAuthorization(ctx context.Context, req CreateAuthorizationRequest) (Authorization, error) {
	if s.createFn == nil {
		return Authorization{}, errors.New("unexpected CreateAuthorization call")
	}
	return s.createFn(ctx, req)
}

func (s *stubProvider) ConfirmAuthorization(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if s.confirmFn == nil {
		return Confirmation{}, errors.New("unexpected ConfirmAuthorization call")
	}
	return s.confirmFn(ctx, req)
}

func newTestNegotiator(t *testing.T, provider Provider) *Negotiator {
	t.Helper()
	negotiator, err := NewNegotiator(NegotiatorDeps{
		Provider: provider,
		Clock:    func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
		SuffixFn: func() string { return "abcdef123456" },
	})
	if err != nil {
		t.Fatalf("NewNegotiator: %v", err)
	}
	return negotiator
}

func TestCreateAuthorizationWithoutProviderFallsBackToMock(t *testing.T) {
	negotiator := newTestNegotiator(t, nil)

	auth, err := negotiator.CreateAuthorization(context.Background(), CreateAuthorizationRequest{
		Amount:   9_600_000,
		Currency: "usd",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !auth.Mock {
		t.Fatal("expected mock authorization")
	}
	if !strings.HasPrefix(auth.ID, MockIntentPrefix) {
		t.Fatalf("id = %q, want %q prefix", auth.ID, MockIntentPrefix)
	}
	if auth.Amount != 9_600_000 {
		t.Fatalf("amount = %d, want 9600000", auth.Amount)
	}
	if auth.Currency != "USD" {
		t.Fatalf("currency = %q, want USD", auth.Currency)
	}
}

func TestCreateAuthorizationOutageFallsBackToMock(t *testing.T) {
	provider := &stubProvider{
		createFn: func(context.Context, CreateAuthorizationRequest) (Authorization, error) {
			return Authorization{}, fmt.Errorf("stripe: create payment intent: %w: connection refused", ErrProviderUnavailable)
		},
	}
	negotiator := newTestNegotiator(t, provider)

	auth, err := negotiator.CreateAuthorization(context.Background(), CreateAuthorizationRequest{
		Amount:   50_000,
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !auth.Mock || !IsMockIntent(auth.ID) {
		t.Fatalf("expected mock fallback, got %+v", auth)
	}
}

func TestCreateAuthorizationDeclineHaltsCheckout(t *testing.T) {
	provider := &stubProvider{
		createFn: func(context.Context, CreateAuthorizationRequest) (Authorization, error) {
			return Authorization{}, fmt.Errorf("stripe: create payment intent: %w: card declined", ErrPaymentDeclined)
		},
	}
	negotiator := newTestNegotiator(t, provider)

	_, err := negotiator.CreateAuthorization(context.Background(), CreateAuthorizationRequest{
		Amount:   50_000,
		Currency: "USD",
	})
	if !errors.Is(err, ErrPaymentDeclined) {
		t.Fatalf("error = %v, want ErrPaymentDeclined", err)
	}
}

func TestCreateAuthorizationRejectsNonPositiveAmount(t *testing.T) {
	negotiator := newTestNegotiator(t, nil)
	if _, err := negotiator.CreateAuthorization(context.Background(), CreateAuthorizationRequest{Amount: 0, Currency: "USD"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestConfirmAuthorizationMockIntentSucceedsSynchronously(t *testing.T) {
	provider := &stubProvider{
		confirmFn: func(context.Context, ConfirmRequest) (Confirmation, error) {
			return Confirmation{}, errors.New("provider must not be called for mock intents")
		},
	}
	negotiator := newTestNegotiator(t, provider)

	confirmation, err := negotiator.ConfirmAuthorization(context.Background(), ConfirmRequest{IntentID: "mock_1714564800_abcdef123456"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmation.Status != StatusSucceeded || !confirmation.Mock {
		t.Fatalf("confirmation = %+v, want succeeded mock", confirmation)
	}
}

func TestConfirmAuthorizationOutageIsFatal(t *testing.T) {
	provider := &stubProvider{
		confirmFn: func(context.Context, ConfirmRequest) (Confirmation, error) {
			return Confirmation{}, fmt.Errorf("stripe: confirm payment intent: %w: timeout", ErrProviderUnavailable)
		},
	}
	negotiator := newTestNegotiator(t, provider)

	_, err := negotiator.ConfirmAuthorization(context.Background(), ConfirmRequest{IntentID: "pi_12345"})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("error = %v, want ErrProviderUnavailable", err)
	}
}

func TestConfirmAuthorizationRealIntentDelegates(t *testing.T) {
	provider := &stubProvider{
		confirmFn: func(_ context.Context, req ConfirmRequest) (Confirmation, error) {
			return Confirmation{ID: req.IntentID, Status: StatusSucceeded}, nil
		},
	}
	negotiator := newTestNegotiator(t, provider)

	confirmation, err := negotiator.ConfirmAuthorization(context.Background(), ConfirmRequest{IntentID: "pi_12345"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirmation.ID != "pi_12345" || confirmation.Status != StatusSucceeded || confirmation.Mock {
		t.Fatalf("confirmation = %+v", confirmation)
	}
}
