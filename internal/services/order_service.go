package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/repositories"
)

const (
	orderIDPrefix = "ord_"

	// orderNumberAttempts bounds retries when an allocated order number
	// collides with an existing document.
	orderNumberAttempts = 3

	// paymentMethodStripe names the payment provider on every order, mocked
	// or not. Degraded-mode payments are flagged through PaymentMock and the
	// mock intent id prefix instead.
	paymentMethodStripe = "stripe"
)

var (
	// ErrOrderInvalidInput signals invalid order parameters.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates no order exists for the given number.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the requester may not access the order.
	ErrOrderForbidden = errors.New("order: access denied")
	// ErrOrderInvalidTransition indicates a disallowed status change.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderInsufficientStock indicates a line could not be covered by stock.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderConflict indicates a write conflict while committing the order.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the order backend is unreachable.
	ErrOrderUnavailable = errors.New("order: repository unavailable")
)

// statusTransitions defines the fulfillment state machine. Cancellation is
// only reachable before shipping; delivered and cancelled are terminal.
var statusTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusConfirmed:  {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusDelivered},
	domain.OrderStatusDelivered:  {},
	domain.OrderStatusCancelled:  {},
}

func canTransition(from, to domain.OrderStatus) bool {
	allowed, ok := statusTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders           repositories.OrderRepository
	Bikes            repositories.BikeRepository
	UnitOfWork       repositories.UnitOfWork
	Counter          CounterService
	Clock            func() time.Time
	IDGenerator      func() string
	Logger           func(ctx context.Context, event string, fields map[string]any)
	DeliveryLeadDays int
}

type orderService struct {
	orders           repositories.OrderRepository
	bikes            repositories.BikeRepository
	uow              repositories.UnitOfWork
	counter          CounterService
	clock            func() time.Time
	newID            func() string
	logger           func(context.Context, string, map[string]any)
	deliveryLeadDays int
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Bikes == nil {
		return nil, errors.New("order service: bike repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("order service: unit of work is required")
	}
	if deps.Counter == nil {
		return nil, errors.New("order service: counter service is required")
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
	leadDays := deps.DeliveryLeadDays
	if leadDays <= 0 {
		leadDays = 7
	}

	return &orderService{
		orders:           deps.Orders,
		bikes:            deps.Bikes,
		uow:              deps.UnitOfWork,
		counter:          deps.Counter,
		clock:            func() time.Time { return clock().UTC() },
		newID:            idGen,
		logger:           logger,
		deliveryLeadDays: leadDays,
	}, nil
}

// Create commits a fully priced order: it allocates an order number, decrements
// stock for every line, and inserts the document in a single transaction. Stock
// already decremented is restored when a later line cannot be covered.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	userEmail := normalizeEmail(cmd.UserEmail)
	if userEmail == "" {
		return domain.Order{}, fmt.Errorf("%w: user email is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: at least one item is required", ErrOrderInvalidInput)
	}
	for _, item := range cmd.Items {
		if strings.TrimSpace(item.BikeID) == "" || item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item must reference a bike with positive quantity", ErrOrderInvalidInput)
		}
	}
	if cmd.Totals.Total < 0 {
		return domain.Order{}, fmt.Errorf("%w: total must not be negative", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.PaymentIntentID) == "" {
		return domain.Order{}, fmt.Errorf("%w: payment intent id is required", ErrOrderInvalidInput)
	}

	now := s.clock()
	orderNumber, err := s.allocateOrderNumber(ctx, now)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:                orderIDPrefix + s.newID(),
		OrderNumber:       orderNumber,
		UserEmail:         userEmail,
		Items:             cmd.Items,
		Totals:            cmd.Totals,
		Currency:          strings.ToUpper(strings.TrimSpace(cmd.Currency)),
		PromoCode:         NormalizePromoCode(cmd.PromoCode),
		ShippingAddress:   cmd.ShippingAddress,
		PaymentMethod:     paymentMethodStripe,
		PaymentIntentID:   cmd.PaymentIntentID,
		PaymentMock:       cmd.PaymentMock,
		Status:            domain.OrderStatusConfirmed,
		EstimatedDelivery: now.AddDate(0, 0, s.deliveryLeadDays),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.uow.RunInTx(ctx, func(txCtx context.Context) error {
		decremented := make([]domain.OrderItem, 0, len(order.Items))
		for _, item := range order.Items {
			if _, err := s.bikes.DecrementStock(txCtx, item.BikeID, item.Quantity, now); err != nil {
				s.restoreStock(txCtx, decremented, now)
				return err
			}
			decremented = append(decremented, item)
		}
		if err := s.orders.Insert(txCtx, order); err != nil {
			s.restoreStock(txCtx, decremented, now)
			return err
		}
		return nil
	})
	if err != nil {
		var stockErr *repositories.InsufficientStockError
		if errors.As(err, &stockErr) {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderInsufficientStock, stockErr)
		}
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.created", map[string]any{
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"user":        order.UserEmail,
		"total":       order.Totals.Total,
		"mock":        order.PaymentMock,
	})
	return order, nil
}

func (s *orderService) GetByNumber(ctx context.Context, orderNumber string, requester Requester) (domain.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return domain.Order{}, fmt.Errorf("%w: order number is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	if !s.canAccess(order, requester) {
		return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderForbidden, orderNumber)
	}
	return order, nil
}

// List returns orders visible to the requester. Non-elevated requesters are
// always scoped to their own orders regardless of the query's UserEmail.
func (s *orderService) List(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	filter := repositories.OrderListFilter{
		UserEmail: normalizeEmail(query.UserEmail),
		Status:    query.Status,
		Limit:     query.Limit,
	}
	if !query.Requester.Role.Elevated() {
		requesterEmail := normalizeEmail(query.Requester.Email)
		if requesterEmail == "" {
			return nil, fmt.Errorf("%w: requester email is required", ErrOrderInvalidInput)
		}
		filter.UserEmail = requesterEmail
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

// TransitionStatus advances an order along the fulfillment state machine.
// Only elevated requesters may transition; the order document itself is
// otherwise immutable.
func (s *orderService) TransitionStatus(ctx context.Context, cmd TransitionOrderCommand) (domain.Order, error) {
	orderNumber := strings.TrimSpace(cmd.OrderNumber)
	if orderNumber == "" {
		return domain.Order{}, fmt.Errorf("%w: order number is required", ErrOrderInvalidInput)
	}
	if !cmd.Requester.Role.Elevated() {
		return domain.Order{}, fmt.Errorf("%w: status changes require elevated access", ErrOrderForbidden)
	}

	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	if !canTransition(order.Status, cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.Status, cmd.TargetStatus)
	}

	previous := order.Status
	order.Status = cmd.TargetStatus
	order.UpdatedAt = s.clock()
	if err := s.orders.Update(ctx, order); err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "order.status.changed", map[string]any{
		"orderNumber": order.OrderNumber,
		"from":        string(previous),
		"to":          string(order.Status),
		"by":          normalizeEmail(cmd.Requester.Email),
	})
	return order, nil
}

// allocateOrderNumber draws from the counter and re-checks uniqueness against
// the order collection. A hit means the counter document was reset or edited
// out of band, so draw again rather than fail the checkout.
func (s *orderService) allocateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		orderNumber, err := s.counter.NextOrderNumber(ctx, now)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
		_, err = s.orders.FindByOrderNumber(ctx, orderNumber)
		if err == nil {
			continue
		}
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return orderNumber, nil
		}
		return "", s.mapRepositoryError(err)
	}
	return "", fmt.Errorf("%w: could not allocate a unique order number", ErrOrderConflict)
}

func (s *orderService) restoreStock(ctx context.Context, items []domain.OrderItem, now time.Time) {
	for _, item := range items {
		if err := s.bikes.RestoreStock(ctx, item.BikeID, item.Quantity, now); err != nil {
			s.logger(ctx, "order.stock.restore_failed", map[string]any{
				"bikeId":   item.BikeID,
				"quantity": item.Quantity,
				"error":    err.Error(),
			})
		}
	}
}

func (s *orderService) canAccess(order domain.Order, requester Requester) bool {
	if requester.Role.Elevated() {
		return true
	}
	return normalizeEmail(requester.Email) == order.UserEmail
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}
