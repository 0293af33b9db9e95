package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/repositories"
)

var (
	// ErrCartInvalidInput signals invalid cart parameters.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartBikeNotFound indicates a cart line references a missing bike.
	ErrCartBikeNotFound = errors.New("cart: bike not found")
	// ErrCartInsufficientStock indicates a line quantity exceeds live stock.
	ErrCartInsufficientStock = errors.New("cart: quantity exceeds available stock")
	// ErrCartUnavailable indicates the cart backend is unreachable.
	ErrCartUnavailable = errors.New("cart: repository unavailable")
)

// CartServiceDeps bundles collaborators required to construct the cart service.
type CartServiceDeps struct {
	Carts  repositories.CartRepository
	Bikes  repositories.BikeRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts  repositories.CartRepository
	bikes  repositories.BikeRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewCartService wires dependencies into a concrete CartService implementation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Bikes == nil {
		return nil, errors.New("cart service: bike repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts: deps.Carts,
		bikes: deps.Bikes,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Get returns the user's cart, or an empty cart when none has been saved yet.
func (s *cartService) Get(ctx context.Context, userEmail string) (domain.Cart, error) {
	userEmail = normalizeEmail(userEmail)
	if userEmail == "" {
		return domain.Cart{}, fmt.Errorf("%w: user email is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Cart{UserEmail: userEmail, Lines: []domain.CartLine{}}, nil
		}
		return domain.Cart{}, s.mapRepositoryError(err)
	}
	if cart.Lines == nil {
		cart.Lines = []domain.CartLine{}
	}
	return cart, nil
}

// Replace swaps the full line set after validating every referenced bike.
// Duplicate bike lines are merged by summing quantities.
func (s *cartService) Replace(ctx context.Context, cmd ReplaceCartCommand) (domain.Cart, error) {
	userEmail := normalizeEmail(cmd.UserEmail)
	if userEmail == "" {
		return domain.Cart{}, fmt.Errorf("%w: user email is required", ErrCartInvalidInput)
	}

	now := s.clock()
	merged := make([]domain.CartLine, 0, len(cmd.Lines))
	index := make(map[string]int, len(cmd.Lines))
	for _, line := range cmd.Lines {
		bikeID := strings.TrimSpace(line.BikeID)
		if bikeID == "" {
			return domain.Cart{}, fmt.Errorf("%w: bike id is required", ErrCartInvalidInput)
		}
		if line.Quantity <= 0 {
			return domain.Cart{}, fmt.Errorf("%w: quantity for bike %s must be positive", ErrCartInvalidInput, bikeID)
		}
		if at, ok := index[bikeID]; ok {
			merged[at].Quantity += line.Quantity
			continue
		}
		index[bikeID] = len(merged)
		merged = append(merged, domain.CartLine{BikeID: bikeID, Quantity: line.Quantity, AddedAt: now})
	}

	if len(merged) > 0 {
		ids := make([]string, 0, len(merged))
		for _, line := range merged {
			ids = append(ids, line.BikeID)
		}
		bikes, err := s.bikes.FindByIDs(ctx, ids)
		if err != nil {
			return domain.Cart{}, s.mapRepositoryError(err)
		}
		for _, line := range merged {
			bike, ok := bikes[line.BikeID]
			if !ok {
				return domain.Cart{}, fmt.Errorf("%w: %s", ErrCartBikeNotFound, line.BikeID)
			}
			// Stock is checked again atomically at order commit; this bound
			// keeps obviously unfillable carts from being saved.
			if line.Quantity > bike.Stock {
				return domain.Cart{}, fmt.Errorf("%w: bike %s has %d in stock, requested %d", ErrCartInsufficientStock, line.BikeID, bike.Stock, line.Quantity)
			}
		}
	}

	cart, err := s.carts.Replace(ctx, domain.Cart{
		UserEmail: userEmail,
		Lines:     merged,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Cart{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "cart.replaced", map[string]any{
		"user":  userEmail,
		"lines": len(merged),
	})
	return cart, nil
}

func (s *cartService) Clear(ctx context.Context, userEmail string) error {
	userEmail = normalizeEmail(userEmail)
	if userEmail == "" {
		return fmt.Errorf("%w: user email is required", ErrCartInvalidInput)
	}
	if err := s.carts.Clear(ctx, userEmail); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "cart.cleared", map[string]any{"user": userEmail})
	return nil
}

func (s *cartService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCartBikeNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
		}
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
