package httpserver

import (
	"encoding/json"
	"time"

	"storefront/internal/domain"
)

type lineItemView struct {
	ProductID string      `json:"productId"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	Size      string      `json:"size"`
	Image     string      `json:"image,omitempty"`
}

type orderView struct {
	ID              string                 `json:"id"`
	DocumentID      string                 `json:"_id"`
	UserID          *string                `json:"userId"`
	Items           []lineItemView         `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Subtotal        json.Number            `json:"subtotal"`
	DeliveryFee     json.Number            `json:"deliveryFee"`
	TotalAmount     json.Number            `json:"totalAmount"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Payment         bool                   `json:"payment"`
	PaymentStatus   domain.PaymentStatus   `json:"paymentStatus"`
	OrderStatus     domain.OrderStatus     `json:"orderStatus"`
	PaymentInfo     domain.PaymentInfo     `json:"paymentInfo"`
	Date            int64                  `json:"date"`
	CreatedAt       time.Time              `json:"createdAt"`
}

// money renders cents as a JSON number in base currency units.
func money(cents int64) json.Number {
	return json.Number(domain.FromCents(cents).StringFixed(2))
}

func newOrderView(o *domain.Order) orderView {
	items := make([]lineItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, lineItemView{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     money(item.PriceCents),
			Quantity:  item.Quantity,
			Size:      item.Size,
			Image:     item.Image,
		})
	}
	return orderView{
		ID:              o.ID,
		DocumentID:      o.ID,
		UserID:          o.CustomerID,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		Subtotal:        money(o.SubtotalCents),
		DeliveryFee:     money(o.DeliveryFeeCents),
		TotalAmount:     money(o.TotalCents),
		PaymentMethod:   o.PaymentMethod,
		Payment:         o.PaymentStatus == domain.PaymentPaid,
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		PaymentInfo:     o.PaymentInfo,
		Date:            o.CreatedAt.UnixMilli(),
		CreatedAt:       o.CreatedAt,
	}
}

func newOrderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}
