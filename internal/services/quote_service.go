package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/repositories"
)

const quoteIDPrefix = "qte_"

var (
	// ErrQuoteInvalidInput signals invalid quote parameters.
	ErrQuoteInvalidInput = errors.New("quote: invalid input")
	// ErrQuoteForbidden indicates the requester may not create or read quotes.
	ErrQuoteForbidden = errors.New("quote: access denied")
	// ErrQuoteNotFound indicates no quote exists for the given id.
	ErrQuoteNotFound = errors.New("quote: not found")
	// ErrQuoteBikeNotFound indicates a quote line references a missing bike.
	ErrQuoteBikeNotFound = errors.New("quote: bike not found")
	// ErrQuoteUnavailable indicates the quote backend is unreachable.
	ErrQuoteUnavailable = errors.New("quote: repository unavailable")
)

// QuoteServiceDeps bundles collaborators required to construct the quote service.
type QuoteServiceDeps struct {
	Quotes       repositories.QuoteRepository
	Bikes        repositories.BikeRepository
	Clock        func() time.Time
	IDGenerator  func() string
	Logger       func(ctx context.Context, event string, fields map[string]any)
	ValidityDays int
	ShippingFee  int64
}

type quoteService struct {
	quotes       repositories.QuoteRepository
	bikes        repositories.BikeRepository
	clock        func() time.Time
	newID        func() string
	logger       func(context.Context, string, map[string]any)
	validityDays int
	shippingFee  int64
}

// NewQuoteService wires dependencies into a concrete QuoteService implementation.
func NewQuoteService(deps QuoteServiceDeps) (QuoteService, error) {
	if deps.Quotes == nil {
		return nil, errors.New("quote service: quote repository is required")
	}
	if deps.Bikes == nil {
		return nil, errors.New("quote service: bike repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	validityDays := deps.ValidityDays
	if validityDays <= 0 {
		validityDays = 30
	}

	return &quoteService{
		quotes:       deps.Quotes,
		bikes:        deps.Bikes,
		clock:        func() time.Time { return clock().UTC() },
		newID:        idGen,
		logger:       logger,
		validityDays: validityDays,
		shippingFee:  deps.ShippingFee,
	}, nil
}

// Create snapshots dealer pricing for the requested lines. The snapshot is
// immutable: later catalog price changes do not alter a stored quote.
func (s *quoteService) Create(ctx context.Context, cmd CreateQuoteCommand) (QuoteResult, error) {
	if cmd.Role != domain.RoleDealer {
		return QuoteResult{}, fmt.Errorf("%w: quotes are reserved for dealer accounts", ErrQuoteForbidden)
	}
	dealerEmail := normalizeEmail(cmd.Dealer.Email)
	if dealerEmail == "" {
		return QuoteResult{}, fmt.Errorf("%w: dealer email is required", ErrQuoteInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return QuoteResult{}, fmt.Errorf("%w: at least one line is required", ErrQuoteInvalidInput)
	}

	ids := make([]string, 0, len(cmd.Lines))
	for _, line := range cmd.Lines {
		bikeID := strings.TrimSpace(line.BikeID)
		if bikeID == "" {
			return QuoteResult{}, fmt.Errorf("%w: bike id is required", ErrQuoteInvalidInput)
		}
		if line.Quantity <= 0 {
			return QuoteResult{}, fmt.Errorf("%w: quantity for bike %s must be positive", ErrQuoteInvalidInput, bikeID)
		}
		ids = append(ids, bikeID)
	}

	bikes, err := s.bikes.FindByIDs(ctx, ids)
	if err != nil {
		return QuoteResult{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	items := make([]domain.QuoteItem, 0, len(cmd.Lines))
	var subtotal int64
	currency := ""
	for _, line := range cmd.Lines {
		bikeID := strings.TrimSpace(line.BikeID)
		bike, ok := bikes[bikeID]
		if !ok {
			return QuoteResult{}, fmt.Errorf("%w: %s", ErrQuoteBikeNotFound, bikeID)
		}
		pricing, err := domain.ComputePricing(bike, line.Quantity, domain.RoleDealer)
		if err != nil {
			return QuoteResult{}, fmt.Errorf("%w: %v", ErrQuoteInvalidInput, err)
		}
		items = append(items, domain.QuoteItem{
			BikeID:    bike.ID,
			Name:      bike.Name,
			Brand:     bike.Brand,
			Quantity:  line.Quantity,
			BasePrice: bike.Price,
			UnitPrice: pricing.UnitPrice,
			Subtotal:  pricing.Subtotal,
		})
		subtotal += pricing.Subtotal
		if currency == "" {
			currency = bike.Currency
		}
	}

	tax := domain.ComputeTax(subtotal)
	quote := domain.Quote{
		ID: quoteIDPrefix + s.newID(),
		Dealer: domain.DealerInfo{
			Name:  strings.TrimSpace(cmd.Dealer.Name),
			Email: dealerEmail,
		},
		Items: items,
		Totals: domain.OrderTotals{
			Subtotal: subtotal,
			Tax:      tax,
			Shipping: s.shippingFee,
			Total:    subtotal + tax + s.shippingFee,
		},
		Currency:  currency,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, s.validityDays),
	}

	if err := s.quotes.Insert(ctx, quote); err != nil {
		return QuoteResult{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "quote.created", map[string]any{
		"quoteId": quote.ID,
		"dealer":  quote.Dealer.Email,
		"lines":   len(quote.Items),
		"total":   quote.Totals.Total,
	})
	return QuoteResult{Quote: quote}, nil
}

// Get reads a quote directly by id. Expiry is advisory: expired quotes remain
// readable, flagged in the result.
func (s *quoteService) Get(ctx context.Context, quoteID string, requester Requester) (QuoteResult, error) {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return QuoteResult{}, fmt.Errorf("%w: quote id is required", ErrQuoteInvalidInput)
	}

	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return QuoteResult{}, s.mapRepositoryError(err)
	}
	if !requester.Role.Elevated() && normalizeEmail(requester.Email) != quote.Dealer.Email {
		return QuoteResult{}, fmt.Errorf("%w: %s", ErrQuoteForbidden, quoteID)
	}
	return QuoteResult{Quote: quote, Expired: quote.Expired(s.clock())}, nil
}

func (s *quoteService) ListByDealer(ctx context.Context, requester Requester) ([]QuoteResult, error) {
	dealerEmail := normalizeEmail(requester.Email)
	if dealerEmail == "" {
		return nil, fmt.Errorf("%w: requester email is required", ErrQuoteInvalidInput)
	}

	quotes, err := s.quotes.ListByDealer(ctx, dealerEmail)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	now := s.clock()
	results := make([]QuoteResult, 0, len(quotes))
	for _, quote := range quotes {
		results = append(results, QuoteResult{Quote: quote, Expired: quote.Expired(now)})
	}
	return results, nil
}

func (s *quoteService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrQuoteNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
		}
	}
	return err
}
