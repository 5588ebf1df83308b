package notify

import (
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// OrderReceived is the shop owner's text for a new order.
func OrderReceived(o domain.Order, currency string) string {
	var b strings.Builder
	b.WriteString("NEW ORDER RECEIVED\n")
	fmt.Fprintf(&b, "Order ID: %s\n", o.ID)
	fmt.Fprintf(&b, "Total: %s %s\n", currency, domain.FromCents(o.TotalCents).StringFixed(2))
	fmt.Fprintf(&b, "Customer: %s (%s)\n", o.ShippingAddress.FullName(), o.ShippingAddress.Phone)
	b.WriteString("Items:")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "\n- %s x%d", item.Name, item.Quantity)
		if item.Size != "" {
			fmt.Fprintf(&b, " (%s)", item.Size)
		}
	}
	return b.String()
}

// OrderDelivered is the customer's text once an order is delivered.
func OrderDelivered(o domain.Order) string {
	name := o.ShippingAddress.FirstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s, your order %s has been delivered. Thank you for shopping with us!", name, o.ID)
}

// OrderPlaced tells the shop owner an order is waiting for payment.
func OrderPlaced(o domain.Order, currency string) string {
	return fmt.Sprintf("Order %s placed, awaiting payment. Total: %s %s, %d item(s).",
		o.ID, currency, domain.FromCents(o.TotalCents).StringFixed(2), len(o.Items))
}
