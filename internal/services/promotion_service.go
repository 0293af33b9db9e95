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

const promotionIDPrefix = "prm_"

var (
	// ErrPromoInvalidInput signals invalid promotion parameters.
	ErrPromoInvalidInput = errors.New("promotion: invalid input")
	// ErrPromoNotFound indicates no promotion exists for the given code.
	ErrPromoNotFound = errors.New("promotion: code not found")
	// ErrPromoInactive indicates the promotion exists but is deactivated.
	ErrPromoInactive = errors.New("promotion: code inactive")
	// ErrPromoConflict indicates a duplicate code or concurrent modification.
	ErrPromoConflict = errors.New("promotion: conflict")
	// ErrPromoUnavailable indicates the promotion backend is unreachable.
	ErrPromoUnavailable = errors.New("promotion: repository unavailable")
)

// PromotionServiceDeps bundles dependencies required to construct a PromotionService implementation.
type PromotionServiceDeps struct {
	Promotions  repositories.PromotionRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type promotionService struct {
	repo   repositories.PromotionRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewPromotionService wires a PromotionService backed by the provided repository.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Promotions == nil {
		return nil, errors.New("promotion service: repository is required")
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

	return &promotionService{
		repo:   deps.Promotions,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Apply resolves the code and computes the discount for the given subtotal.
// Repeated calls with the same (code, subtotal) pair yield identical results.
func (s *promotionService) Apply(ctx context.Context, cmd ApplyPromotionCommand) (PromotionApplication, error) {
	code := NormalizePromoCode(cmd.Code)
	if code == "" {
		return PromotionApplication{}, fmt.Errorf("%w: code is required", ErrPromoInvalidInput)
	}
	if cmd.Subtotal < 0 {
		return PromotionApplication{}, fmt.Errorf("%w: subtotal must not be negative", ErrPromoInvalidInput)
	}

	promotion, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return PromotionApplication{}, s.mapRepositoryError(err)
	}
	if !promotion.Active {
		return PromotionApplication{}, fmt.Errorf("%w: %s", ErrPromoInactive, code)
	}

	discount := PromotionDiscount(promotion, cmd.Subtotal)
	s.logger(ctx, "promotion.applied", map[string]any{
		"code":     promotion.Code,
		"type":     string(promotion.Type),
		"subtotal": cmd.Subtotal,
		"discount": discount,
	})

	return PromotionApplication{Promotion: promotion, Discount: discount}, nil
}

func (s *promotionService) Create(ctx context.Context, cmd UpsertPromotionCommand) (domain.Promotion, error) {
	code := NormalizePromoCode(cmd.Code)
	if err := validatePromotionFields(code, cmd.Type, cmd.Discount); err != nil {
		return domain.Promotion{}, err
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return domain.Promotion{}, fmt.Errorf("%w: code %s already exists", ErrPromoConflict, code)
	} else if mapped := s.mapRepositoryError(err); !errors.Is(mapped, ErrPromoNotFound) {
		return domain.Promotion{}, mapped
	}

	now := s.clock()
	active := true
	if cmd.Active != nil {
		active = *cmd.Active
	}
	promotion := domain.Promotion{
		ID:          promotionIDPrefix + s.newID(),
		Code:        code,
		Type:        cmd.Type,
		Discount:    cmd.Discount,
		Description: strings.TrimSpace(cmd.Description),
		Active:      active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, promotion); err != nil {
		return domain.Promotion{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "promotion.created", map[string]any{"id": promotion.ID, "code": promotion.Code})
	return promotion, nil
}

func (s *promotionService) Update(ctx context.Context, cmd UpsertPromotionCommand) (domain.Promotion, error) {
	promotionID := strings.TrimSpace(cmd.ID)
	if promotionID == "" {
		return domain.Promotion{}, fmt.Errorf("%w: promotion id is required", ErrPromoInvalidInput)
	}

	promotion, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		return domain.Promotion{}, s.mapRepositoryError(err)
	}

	if code := NormalizePromoCode(cmd.Code); code != "" {
		promotion.Code = code
	}
	if cmd.Type != "" {
		promotion.Type = cmd.Type
	}
	if cmd.Discount > 0 {
		promotion.Discount = cmd.Discount
	}
	if desc := strings.TrimSpace(cmd.Description); desc != "" {
		promotion.Description = desc
	}
	if cmd.Active != nil {
		promotion.Active = *cmd.Active
	}
	if err := validatePromotionFields(promotion.Code, promotion.Type, promotion.Discount); err != nil {
		return domain.Promotion{}, err
	}
	promotion.UpdatedAt = s.clock()

	if err := s.repo.Update(ctx, promotion); err != nil {
		return domain.Promotion{}, s.mapRepositoryError(err)
	}
	return promotion, nil
}

// Deactivate retires a code without deleting it so committed orders keep a
// resolvable reference.
func (s *promotionService) Deactivate(ctx context.Context, promotionID string) (domain.Promotion, error) {
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return domain.Promotion{}, fmt.Errorf("%w: promotion id is required", ErrPromoInvalidInput)
	}

	promotion, err := s.repo.FindByID(ctx, promotionID)
	if err != nil {
		return domain.Promotion{}, s.mapRepositoryError(err)
	}
	if !promotion.Active {
		return promotion, nil
	}

	promotion.Active = false
	promotion.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, promotion); err != nil {
		return domain.Promotion{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "promotion.deactivated", map[string]any{"id": promotion.ID, "code": promotion.Code})
	return promotion, nil
}

func (s *promotionService) List(ctx context.Context, activeOnly bool) ([]domain.Promotion, error) {
	promotions, err := s.repo.List(ctx, repositories.PromotionListFilter{ActiveOnly: activeOnly})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return promotions, nil
}

func (s *promotionService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrPromoNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrPromoConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrPromoUnavailable, err)
		}
	}
	return err
}

// NormalizePromoCode folds a user-entered code into its canonical stored form.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromotionDiscount computes the discount a promotion grants against a
// subtotal. Fixed discounts are capped at the subtotal so the result can
// never drive the order total negative.
func PromotionDiscount(promotion domain.Promotion, subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	switch promotion.Type {
	case domain.PromoTypePercentage:
		return subtotal * promotion.Discount / 100
	case domain.PromoTypeFixed:
		if promotion.Discount > subtotal {
			return subtotal
		}
		return promotion.Discount
	default:
		return 0
	}
}

func validatePromotionFields(code string, promoType domain.PromoType, discount int64) error {
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrPromoInvalidInput)
	}
	switch promoType {
	case domain.PromoTypePercentage:
		if discount <= 0 || discount > 100 {
			return fmt.Errorf("%w: percentage discount must be within 1-100, got %d", ErrPromoInvalidInput, discount)
		}
	case domain.PromoTypeFixed:
		if discount <= 0 {
			return fmt.Errorf("%w: fixed discount must be positive, got %d", ErrPromoInvalidInput, discount)
		}
	default:
		return fmt.Errorf("%w: unknown promotion type %q", ErrPromoInvalidInput, promoType)
	}
	return nil
}
