package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripePaymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Confirm(id string, params *stripe.PaymentIntentConfirmParams) (*stripe.PaymentIntent, error)
}

// StripeClients bundles the Stripe API surfaces the provider depends on so
// tests can inject fakes.
type StripeClients struct {
	Intents stripePaymentIntentAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   Logger
	Clients  *StripeClients
}

// StripeProvider implements the Provider interface using Stripe Payment Intents.
type StripeProvider struct {
	api    StripeClients
	logger Logger
}

// NewStripeProvider constructs a Stripe Provider using the given configuration.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients StripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = StripeClients{Intents: sc.PaymentIntents}
	}
	if clients.Intents == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{api: clients, logger: logger}, nil
}

// CreateAuthorization opens a Stripe Payment Intent for the given amount.
func (p *StripeProvider) CreateAuthorization(ctx context.Context, req CreateAuthorizationRequest) (Authorization, error) {
	if p == nil {
		return Authorization{}, errors.New("stripe: provider is nil")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = make(map[string]string, len(req.Metadata))
		for k, v := range req.Metadata {
			params.Metadata[k] = v
		}
	}

	intent, err := p.api.Intents.New(params)
	if err != nil {
		return Authorization{}, classifyStripeError("create payment intent", err)
	}

	p.logger(ctx, "payments.stripe.intent.created", map[string]any{
		"paymentIntent": intent.ID,
		"amount":        intent.Amount,
		"currency":      intent.Currency,
	})

	return Authorization{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       stripeIntentStatus(intent),
		Amount:       intent.Amount,
		Currency:     strings.ToUpper(string(intent.Currency)),
	}, nil
}

// ConfirmAuthorization confirms a Stripe Payment Intent. When the request
// names an expected amount the open intent is fetched first and a divergence
// aborts the confirm, so a stale authorization never settles.
func (p *StripeProvider) ConfirmAuthorization(ctx context.Context, req ConfirmRequest) (Confirmation, error) {
	if p == nil {
		return Confirmation{}, errors.New("stripe: provider is nil")
	}

	if req.Amount > 0 {
		getParams := &stripe.PaymentIntentParams{}
		getParams.Context = ctx
		open, err := p.api.Intents.Get(req.IntentID, getParams)
		if err != nil {
			return Confirmation{}, classifyStripeError("get payment intent", err)
		}
		if open.Amount != req.Amount {
			return Confirmation{}, fmt.Errorf("%w: intent %s holds %d, expected %d", ErrAmountMismatch, open.ID, open.Amount, req.Amount)
		}
		if req.Currency != "" && !strings.EqualFold(string(open.Currency), req.Currency) {
			return Confirmation{}, fmt.Errorf("%w: intent %s in %s, expected %s", ErrAmountMismatch, open.ID, open.Currency, req.Currency)
		}
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	intent, err := p.api.Intents.Confirm(req.IntentID, params)
	if err != nil {
		return Confirmation{}, classifyStripeError("confirm payment intent", err)
	}

	p.logger(ctx, "payments.stripe.intent.confirmed", map[string]any{
		"paymentIntent": intent.ID,
		"status":        intent.Status,
	})

	status := stripeIntentStatus(intent)
	if status == StatusFailed {
		return Confirmation{}, fmt.Errorf("%w: intent %s status %s", ErrPaymentDeclined, intent.ID, intent.Status)
	}

	return Confirmation{ID: intent.ID, Status: status}, nil
}

func stripeIntentStatus(intent *stripe.PaymentIntent) Status {
	if intent == nil {
		return StatusFailed
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	default:
		return StatusRequiresConfirmation
	}
}

// classifyStripeError folds Stripe failures into the two categories checkout
// distinguishes: declines halt the flow, outages allow a degraded path.
func classifyStripeError(op string, err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("stripe: %s: %w: %v", op, ErrPaymentDeclined, stripeErr.Msg)
		case stripe.ErrorTypeAPI:
			return fmt.Errorf("stripe: %s: %w: %v", op, ErrProviderUnavailable, stripeErr.Msg)
		}
		return fmt.Errorf("stripe: %s: %w: %v", op, ErrProviderUnavailable, stripeErr.Msg)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("stripe: %s: %w: %v", op, ErrProviderUnavailable, err)
}
