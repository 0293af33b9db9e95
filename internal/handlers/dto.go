package handlers

import (
	"time"

	domain "github.com/motorunner/api/internal/domain"
	"github.com/motorunner/api/internal/services"
)

type cartLinePayload struct {
	BikeID   string     `json:"bikeId"`
	Quantity int        `json:"quantity"`
	AddedAt  *time.Time `json:"addedAt,omitempty"`
}

type cartPayload struct {
	UserEmail string            `json:"userEmail"`
	Lines     []cartLinePayload `json:"lines"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
}

func toCartPayload(cart domain.Cart) cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		payload := cartLinePayload{BikeID: line.BikeID, Quantity: line.Quantity}
		if !line.AddedAt.IsZero() {
			addedAt := line.AddedAt
			payload.AddedAt = &addedAt
		}
		lines = append(lines, payload)
	}
	payload := cartPayload{UserEmail: cart.UserEmail, Lines: lines}
	if !cart.UpdatedAt.IsZero() {
		updatedAt := cart.UpdatedAt
		payload.UpdatedAt = &updatedAt
	}
	return payload
}

type totalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

func toTotalsPayload(totals domain.OrderTotals) totalsPayload {
	return totalsPayload{
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Tax:      totals.Tax,
		Shipping: totals.Shipping,
		Total:    totals.Total,
	}
}

type addressPayload struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

func (p addressPayload) toDomain() domain.Address {
	return domain.Address{
		Recipient:  p.Recipient,
		Line1:      p.Line1,
		Line2:      p.Line2,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Country:    p.Country,
		Phone:      p.Phone,
	}
}

func toAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		Recipient:  addr.Recipient,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		City:       addr.City,
		State:      addr.State,
		PostalCode: addr.PostalCode,
		Country:    addr.Country,
		Phone:      addr.Phone,
	}
}

type orderItemPayload struct {
	BikeID    string `json:"bikeId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

type orderPayload struct {
	ID                string             `json:"id"`
	OrderNumber       string             `json:"orderNumber"`
	UserEmail         string             `json:"userEmail"`
	Items             []orderItemPayload `json:"items"`
	Totals            totalsPayload      `json:"totals"`
	Currency          string             `json:"currency"`
	PromoCode         string             `json:"promoCode,omitempty"`
	ShippingAddress   addressPayload     `json:"shippingAddress"`
	PaymentMethod     string             `json:"paymentMethod"`
	PaymentMock       bool               `json:"paymentMock"`
	Status            string             `json:"status"`
	EstimatedDelivery time.Time          `json:"estimatedDelivery"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func toOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return orderPayload{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		UserEmail:         order.UserEmail,
		Items:             items,
		Totals:            toTotalsPayload(order.Totals),
		Currency:          order.Currency,
		PromoCode:         order.PromoCode,
		ShippingAddress:   toAddressPayload(order.ShippingAddress),
		PaymentMethod:     order.PaymentMethod,
		PaymentMock:       order.PaymentMock,
		Status:            string(order.Status),
		EstimatedDelivery: order.EstimatedDelivery,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

type quoteItemPayload struct {
	BikeID    string `json:"bikeId"`
	Name      string `json:"name"`
	Brand     string `json:"brand,omitempty"`
	Quantity  int    `json:"quantity"`
	BasePrice int64  `json:"basePrice"`
	UnitPrice int64  `json:"unitPrice"`
	Subtotal  int64  `json:"subtotal"`
}

type quotePayload struct {
	ID         string             `json:"id"`
	DealerName string             `json:"dealerName,omitempty"`
	Dealer     string             `json:"dealerEmail"`
	Items      []quoteItemPayload `json:"items"`
	Totals     totalsPayload      `json:"totals"`
	Currency   string             `json:"currency"`
	CreatedAt  time.Time          `json:"createdAt"`
	ExpiresAt  time.Time          `json:"expiresAt"`
	Expired    bool               `json:"expired"`
}

func toQuotePayload(result services.QuoteResult) quotePayload {
	quote := result.Quote
	items := make([]quoteItemPayload, 0, len(quote.Items))
	for _, item := range quote.Items {
		items = append(items, quoteItemPayload{
			BikeID:    item.BikeID,
			Name:      item.Name,
			Brand:     item.Brand,
			Quantity:  item.Quantity,
			BasePrice: item.BasePrice,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return quotePayload{
		ID:         quote.ID,
		DealerName: quote.Dealer.Name,
		Dealer:     quote.Dealer.Email,
		Items:      items,
		Totals:     toTotalsPayload(quote.Totals),
		Currency:   quote.Currency,
		CreatedAt:  quote.CreatedAt,
		ExpiresAt:  quote.ExpiresAt,
		Expired:    result.Expired,
	}
}

type promotionPayload struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Discount    int64     `json:"discount"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPromotionPayload(promotion domain.Promotion) promotionPayload {
	return promotionPayload{
		ID:          promotion.ID,
		Code:        promotion.Code,
		Type:        string(promotion.Type),
		Discount:    promotion.Discount,
		Description: promotion.Description,
		Active:      promotion.Active,
		CreatedAt:   promotion.CreatedAt,
		UpdatedAt:   promotion.UpdatedAt,
	}
}
