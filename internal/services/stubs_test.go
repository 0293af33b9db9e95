package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/repositories"
)

// repoError is a categorised repository failure for driving service error mapping.
type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

func notFoundErr(msg string) error    { return &repoError{msg: msg, notFound: true} }
func unavailableErr(msg string) error { return &repoError{msg: msg, unavailable: true} }

type stubBikeRepo struct {
	findByIDFn       func(ctx context.Context, bikeID string) (domain.Bike, error)
	findByIDsFn      func(ctx context.Context, bikeIDs []string) (map[string]domain.Bike, error)
	decrementStockFn func(ctx context.Context, bikeID string, quantity int, now time.Time) (domain.Bike, error)
	restoreStockFn   func(ctx context.Context, bikeID string, quantity int, now time.Time) error
}

func (s *stubBikeRepo) FindByID(ctx context.Context, bikeID string) (domain.Bike, error) {
	if s.findByIDFn == nil {
		return domain.Bike{}, errors.New("unexpected FindByID call")
	}
	return s.findByIDFn(ctx, bikeID)
}

func (s *stubBikeRepo) FindByIDs(ctx context.Context, bikeIDs []string) (map[string]domain.Bike, error) {
	if s.findByIDsFn == nil {
		return nil, errors.New("unexpected FindByIDs call")
	}
	return s.findByIDsFn(ctx, bikeIDs)
}

func (s *stubBikeRepo) DecrementStock(ctx context.Context, bikeID string, quantity int, now time.Time) (domain.Bike, error) {
	if s.decrementStockFn == nil {
		return domain.Bike{}, errors.New("unexpected DecrementStock call")
	}
	return s.decrementStockFn(ctx, bikeID, quantity, now)
}

func (s *stubBikeRepo) RestoreStock(ctx context.Context, bikeID string, quantity int, now time.Time) error {
	if s.restoreStockFn == nil {
		return errors.New("unexpected RestoreStock call")
	}
	return s.restoreStockFn(ctx, bikeID, quantity, now)
}

type stubCartRepo struct {
	getFn     func(ctx context.Context, userEmail string) (domain.Cart, error)
	replaceFn func(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	clearFn   func(ctx context.Context, userEmail string) error
}

func (s *stubCartRepo) Get(ctx context.Context, userEmail string) (domain.Cart, error) {
	if s.getFn == nil {
		return domain.Cart{}, errors.New("unexpected Get call")
	}
	return s.getFn(ctx, userEmail)
}

func (s *stubCartRepo) Replace(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if s.replaceFn == nil {
		return domain.Cart{}, errors.New("unexpected Replace call")
	}
	return s.replaceFn(ctx, cart)
}

func (s *stubCartRepo) Clear(ctx context.Context, userEmail string) error {
	if s.clearFn == nil {
		return errors.New("unexpected Clear call")
	}
	return s.clearFn(ctx, userEmail)
}

type stubOrderRepo struct {
	insertFn            func(ctx context.Context, order domain.Order) error
	updateFn            func(ctx context.Context, order domain.Order) error
	findByIDFn          func(ctx context.Context, orderID string) (domain.Order, error)
	findByOrderNumberFn func(ctx context.Context, orderNumber string) (domain.Order, error)
	listFn              func(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFn(ctx, order)
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	if s.updateFn == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFn(ctx, order)
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByIDFn == nil {
		return domain.Order{}, errors.New("unexpected FindByID call")
	}
	return s.findByIDFn(ctx, orderID)
}

func (s *stubOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if s.findByOrderNumberFn == nil {
		return domain.Order{}, errors.New("unexpected FindByOrderNumber call")
	}
	return s.findByOrderNumberFn(ctx, orderNumber)
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return s.listFn(ctx, filter)
}

type stubQuoteRepo struct {
	insertFn       func(ctx context.Context, quote domain.Quote) error
	findByIDFn     func(ctx context.Context, quoteID string) (domain.Quote, error)
	listByDealerFn func(ctx context.Context, dealerEmail string) ([]domain.Quote, error)
}

func (s *stubQuoteRepo) Insert(ctx context.Context, quote domain.Quote) error {
	if s.insertFn == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFn(ctx, quote)
}

func (s *stubQuoteRepo) FindByID(ctx context.Context, quoteID string) (domain.Quote, error) {
	if s.findByIDFn == nil {
		return domain.Quote{}, errors.New("unexpected FindByID call")
	}
	return s.findByIDFn(ctx, quoteID)
}

func (s *stubQuoteRepo) ListByDealer(ctx context.Context, dealerEmail string) ([]domain.Quote, error) {
	if s.listByDealerFn == nil {
		return nil, errors.New("unexpected ListByDealer call")
	}
	return s.listByDealerFn(ctx, dealerEmail)
}

type stubPromotionRepo struct {
	insertFn     func(ctx context.Context, promotion domain.Promotion) error
	updateFn     func(ctx context.Context, promotion domain.Promotion) error
	findByIDFn   func(ctx context.Context, promotionID string) (domain.Promotion, error)
	findByCodeFn func(ctx context.Context, code string) (domain.Promotion, error)
	listFn       func(ctx context.Context, filter repositories.PromotionListFilter) ([]domain.Promotion, error)
}

func (s *stubPromotionRepo) Insert(ctx context.Context, promotion domain.Promotion) error {
	if s.insertFn == nil {
		return errors.New("unexpected Insert call")
	}
	return s.insertFn(ctx, promotion)
}

func (s *stubPromotionRepo) Update(ctx context.Context, promotion domain.Promotion) error {
	if s.updateFn == nil {
		return errors.New("unexpected Update call")
	}
	return s.updateFn(ctx, promotion)
}

func (s *stubPromotionRepo) FindByID(ctx context.Context, promotionID string) (domain.Promotion, error) {
	if s.findByIDFn == nil {
		return domain.Promotion{}, errors.New("unexpected FindByID call")
	}
	return s.findByIDFn(ctx, promotionID)
}

func (s *stubPromotionRepo) FindByCode(ctx context.Context, code string) (domain.Promotion, error) {
	if s.findByCodeFn == nil {
		return domain.Promotion{}, errors.New("unexpected FindByCode call")
	}
	return s.findByCodeFn(ctx, code)
}

func (s *stubPromotionRepo) List(ctx context.Context, filter repositories.PromotionListFilter) ([]domain.Promotion, error) {
	if s.listFn == nil {
		return nil, errors.New("unexpected List call")
	}
	return s.listFn(ctx, filter)
}

type stubCounterRepo struct {
	nextFn func(ctx context.Context, counterID string, step int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn == nil {
		return 0, errors.New("unexpected Next call")
	}
	return s.nextFn(ctx, counterID, step)
}

// passthroughUnitOfWork runs the callback directly without a real transaction.
type passthroughUnitOfWork struct{}

func (passthroughUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var fixedNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func catalogOf(bikes ...domain.Bike) *stubBikeRepo {
	byID := make(map[string]domain.Bike, len(bikes))
	for _, bike := range bikes {
		byID[bike.ID] = bike
	}
	return &stubBikeRepo{
		findByIDFn: func(_ context.Context, bikeID string) (domain.Bike, error) {
			bike, ok := byID[bikeID]
			if !ok {
				return domain.Bike{}, notFoundErr("bike " + bikeID + " not found")
			}
			return bike, nil
		},
		findByIDsFn: func(_ context.Context, bikeIDs []string) (map[string]domain.Bike, error) {
			found := make(map[string]domain.Bike, len(bikeIDs))
			for _, id := range bikeIDs {
				if bike, ok := byID[id]; ok {
					found[id] = bike
				}
			}
			return found, nil
		},
	}
}
