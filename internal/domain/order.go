package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentFailed  PaymentStatus = "Failed"
)

// OrderStatus is the fulfilment progression driven by administrators.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "Order Placed"
	StatusPacking        OrderStatus = "Packing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for delivery"
	StatusDelivered      OrderStatus = "Delivered"
)

// OrderStatuses lists the fulfilment states in progression order.
var OrderStatuses = []OrderStatus{
	StatusPlaced,
	StatusPacking,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
}

// ErrTotalMismatch is returned when totalAmount != subtotal + deliveryFee.
var ErrTotalMismatch = errors.New("order total does not equal subtotal plus delivery fee")

// ParseOrderStatus accepts exactly one of the five known status strings.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	for _, s := range OrderStatuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", Invalid("invalid order status %q", raw)
}

func (s OrderStatus) rank() int {
	for i, known := range OrderStatuses {
		if known == s {
			return i
		}
	}
	return -1
}

type LineItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
	Size       string `json:"size"`
	Image      string `json:"image"`
}

// TotalCents is price times quantity.
func (l LineItem) TotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country"`
}

// Normalize trims every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		FirstName: strings.TrimSpace(a.FirstName),
		LastName:  strings.TrimSpace(a.LastName),
		Email:     strings.TrimSpace(a.Email),
		Phone:     strings.TrimSpace(a.Phone),
		Street:    strings.TrimSpace(a.Street),
		City:      strings.TrimSpace(a.City),
		State:     strings.TrimSpace(a.State),
		Zipcode:   strings.TrimSpace(a.Zipcode),
		Country:   strings.TrimSpace(a.Country),
	}
}

// Validate requires every address field.
func (a ShippingAddress) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipcode", a.Zipcode},
		{"country", a.Country},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Invalid("address fields required: %s", strings.Join(missing, ", "))
	}
	return nil
}

// FullName joins first and last name.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

type PaymentInfo struct {
	Reference            string     `json:"reference,omitempty"`
	VerifiedAt           *time.Time `json:"verifiedAt,omitempty"`
	GatewayTransactionID string     `json:"gatewayTransactionId,omitempty"`
}

// Order is one checkout transaction. Line items are snapshots taken at
// creation and never re-read from the catalog.
type Order struct {
	ID               string          `json:"id"`
	CustomerID       *string         `json:"customerId"`
	Items            []LineItem      `json:"items"`
	ShippingAddress  ShippingAddress `json:"shippingAddress"`
	SubtotalCents    int64           `json:"subtotalCents"`
	DeliveryFeeCents int64           `json:"deliveryFeeCents"`
	TotalCents       int64           `json:"totalCents"`
	PaymentMethod    string          `json:"paymentMethod"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	OrderStatus      OrderStatus     `json:"orderStatus"`
	PaymentInfo      PaymentInfo     `json:"paymentInfo"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Validate enforces the invariants checked on every persist.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return Invalid("order must contain at least one item")
	}
	var subtotal int64
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return Invalid("quantity must be at least 1 for product %s", item.ProductID)
		}
		if item.PriceCents < 0 {
			return Invalid("price must not be negative for product %s", item.ProductID)
		}
		subtotal += item.TotalCents()
	}
	if subtotal != o.SubtotalCents {
		return fmt.Errorf("subtotal %d does not match line items %d: %w", o.SubtotalCents, subtotal, ErrTotalMismatch)
	}
	if o.DeliveryFeeCents < 0 {
		return Invalid("delivery fee must not be negative")
	}
	if o.TotalCents != o.SubtotalCents+o.DeliveryFeeCents {
		return ErrTotalMismatch
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	if o.OrderStatus.rank() < 0 {
		return Invalid("invalid order status %q", o.OrderStatus)
	}
	switch o.PaymentStatus {
	case PaymentPending, PaymentPaid, PaymentFailed:
	default:
		return Invalid("invalid payment status %q", o.PaymentStatus)
	}
	return nil
}

// AdvanceStatus moves the order forward. Skipping ahead is allowed; staying
// put or moving backward is not, and fulfilment starts only once paid.
func (o *Order) AdvanceStatus(next OrderStatus) error {
	if next.rank() < 0 {
		return Invalid("invalid order status %q", next)
	}
	if o.PaymentStatus != PaymentPaid {
		return fmt.Errorf("order %s is %s: %w", o.ID, o.PaymentStatus, ErrInvalidTransition)
	}
	if next.rank() <= o.OrderStatus.rank() {
		return fmt.Errorf("%s -> %s: %w", o.OrderStatus, next, ErrInvalidTransition)
	}
	o.OrderStatus = next
	return nil
}

// StockLines sums quantities per product across sizes, in first-seen order.
func (o *Order) StockLines() []StockLine {
	return StockLinesFor(o.Items)
}

// StockLinesFor aggregates line items per product.
func StockLinesFor(items []LineItem) []StockLine {
	idx := map[string]int{}
	var out []StockLine
	for _, item := range items {
		if i, ok := idx[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		idx[item.ProductID] = len(out)
		out = append(out, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return out
}

// BelongsTo reports whether the order was placed by customerID. Guest orders belong to nobody.
func (o *Order) BelongsTo(customerID string) bool {
	return o.CustomerID != nil && customerID != "" && *o.CustomerID == customerID
}
