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
	// ErrPricingInvalidInput signals the caller provided invalid pricing parameters.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
	// ErrPricingBikeNotFound indicates the referenced bike does not exist.
	ErrPricingBikeNotFound = errors.New("pricing: bike not found")
	// ErrPricingUnavailable indicates the catalog backend is unreachable.
	ErrPricingUnavailable = errors.New("pricing: catalog unavailable")
)

// PricingServiceDeps bundles collaborators required to construct the pricing service.
type PricingServiceDeps struct {
	Bikes  repositories.BikeRepository
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type pricingService struct {
	bikes  repositories.BikeRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewPricingService wires dependencies into a concrete PricingService implementation.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	if deps.Bikes == nil {
		return nil, errors.New("pricing service: bike repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &pricingService{
		bikes: deps.Bikes,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

func (s *pricingService) PriceLine(ctx context.Context, cmd PriceLineCommand) (LinePricing, error) {
	bikeID := strings.TrimSpace(cmd.BikeID)
	if bikeID == "" {
		return LinePricing{}, fmt.Errorf("%w: bike id is required", ErrPricingInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return LinePricing{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrPricingInvalidInput, cmd.Quantity)
	}

	bike, err := s.bikes.FindByID(ctx, bikeID)
	if err != nil {
		return LinePricing{}, mapBikeRepositoryError(err)
	}

	result, err := domain.ComputePricing(bike, cmd.Quantity, cmd.Role)
	if err != nil {
		if errors.Is(err, domain.ErrPricingInvalidQuantity) {
			return LinePricing{}, fmt.Errorf("%w: %v", ErrPricingInvalidInput, err)
		}
		return LinePricing{}, err
	}

	s.logger(ctx, "pricing.line.computed", map[string]any{
		"bikeId":   bike.ID,
		"role":     string(cmd.Role),
		"quantity": cmd.Quantity,
		"tier":     result.Tier,
		"subtotal": result.Subtotal,
	})

	return LinePricing{Bike: bike, Pricing: result}, nil
}

func mapBikeRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrPricingBikeNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
		}
	}
	return err
}
