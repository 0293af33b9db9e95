package firestore

import (
	"context"
	"errors"
	"time"

	fs "cloud.google.com/go/firestore"

	domain "github.com/motorunner/api/internal/domain"
	platform "github.com/motorunner/api/internal/platform/firestore"
	"github.com/motorunner/api/internal/repositories"
)

type orderItemDoc struct {
	BikeID    string `firestore:"bikeId"`
	Name      string `firestore:"name"`
	Quantity  int    `firestore:"quantity"`
	UnitPrice int64  `firestore:"unitPrice"`
	Subtotal  int64  `firestore:"subtotal"`
}

type orderTotalsDoc struct {
	Subtotal int64 `firestore:"subtotal"`
	Discount int64 `firestore:"discount"`
	Tax      int64 `firestore:"tax"`
	Shipping int64 `firestore:"shipping"`
	Total    int64 `firestore:"total"`
}

type addressDoc struct {
	Recipient  string `firestore:"recipient"`
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
	Phone      string `firestore:"phone"`
}

type orderDoc struct {
	OrderNumber       string         `firestore:"orderNumber"`
	UserEmail         string         `firestore:"userEmail"`
	Items             []orderItemDoc `firestore:"items"`
	Totals            orderTotalsDoc `firestore:"totals"`
	Currency          string         `firestore:"currency"`
	PromoCode         string         `firestore:"promoCode"`
	ShippingAddress   addressDoc     `firestore:"shippingAddress"`
	PaymentMethod     string         `firestore:"paymentMethod"`
	PaymentIntentID   string         `firestore:"paymentIntentId"`
	PaymentMock       bool           `firestore:"paymentMock"`
	Status            string         `firestore:"status"`
	EstimatedDelivery time.Time      `firestore:"estimatedDelivery"`
	CreatedAt         time.Time      `firestore:"createdAt"`
	UpdatedAt         time.Time      `firestore:"updatedAt"`
}

func toOrderDoc(order domain.Order) orderDoc {
	items := make([]orderItemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDoc{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return orderDoc{
		OrderNumber: order.OrderNumber,
		UserEmail:   order.UserEmail,
		Items:       items,
		Totals: orderTotalsDoc{
			Subtotal: order.Totals.Subtotal,
			Discount: order.Totals.Discount,
			Tax:      order.Totals.Tax,
			Shipping: order.Totals.Shipping,
			Total:    order.Totals.Total,
		},
		Currency:  order.Currency,
		PromoCode: order.PromoCode,
		ShippingAddress: addressDoc{
			Recipient:  order.ShippingAddress.Recipient,
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
			Phone:      order.ShippingAddress.Phone,
		},
		PaymentMethod:     order.PaymentMethod,
		PaymentIntentID:   order.PaymentIntentID,
		PaymentMock:       order.PaymentMock,
		Status:            string(order.Status),
		EstimatedDelivery: order.EstimatedDelivery,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

func (d orderDoc) toDomain(id string) domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return domain.Order{
		ID:          id,
		OrderNumber: d.OrderNumber,
		UserEmail:   d.UserEmail,
		Items:       items,
		Totals: domain.OrderTotals{
			Subtotal: d.Totals.Subtotal,
			Discount: d.Totals.Discount,
			Tax:      d.Totals.Tax,
			Shipping: d.Totals.Shipping,
			Total:    d.Totals.Total,
		},
		Currency:  d.Currency,
		PromoCode: d.PromoCode,
		ShippingAddress: domain.Address{
			Recipient:  d.ShippingAddress.Recipient,
			Line1:      d.ShippingAddress.Line1,
			Line2:      d.ShippingAddress.Line2,
			City:       d.ShippingAddress.City,
			State:      d.ShippingAddress.State,
			PostalCode: d.ShippingAddress.PostalCode,
			Country:    d.ShippingAddress.Country,
			Phone:      d.ShippingAddress.Phone,
		},
		PaymentMethod:     d.PaymentMethod,
		PaymentIntentID:   d.PaymentIntentID,
		PaymentMock:       d.PaymentMock,
		Status:            domain.OrderStatus(d.Status),
		EstimatedDelivery: d.EstimatedDelivery,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

// OrderRepository persists committed orders.
type OrderRepository struct {
	base *platform.BaseRepository[orderDoc]
}

func newOrderRepository(provider *platform.Provider) *OrderRepository {
	return &OrderRepository{
		base: platform.NewBaseRepository[orderDoc](provider, collectionOrders),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	_, err := r.base.Create(ctx, order.ID, toOrderDoc(order))
	return err
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	_, err := r.base.Set(ctx, order.ID, toOrderDoc(order))
	return err
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		return query.Where("orderNumber", "==", orderNumber).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, platform.NotFoundError("orders.findbynumber", errors.New("order "+orderNumber+" not found"))
	}
	return docs[0].Data.toDomain(docs[0].ID), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	docs, err := r.base.Query(ctx, func(query fs.Query) fs.Query {
		if filter.UserEmail != "" {
			query = query.Where("userEmail", "==", filter.UserEmail)
		}
		if len(filter.Status) > 0 {
			statuses := make([]string, 0, len(filter.Status))
			for _, status := range filter.Status {
				statuses = append(statuses, string(status))
			}
			query = query.Where("status", "in", statuses)
		}
		query = query.OrderBy("createdAt", fs.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}
