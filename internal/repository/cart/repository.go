package cart

import (
	"context"

	"storefront/internal/domain"
)

// Repository holds each customer's server-side cart keyed by product and size.
type Repository interface {
	// Get returns the customer's cart; a customer with no lines gets an empty cart.
	Get(ctx context.Context, customerID string) (domain.CartData, error)
	// AddItem increments the quantity of one product size.
	AddItem(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error)
	// SetQuantity replaces a quantity; zero or less removes the size.
	SetQuantity(ctx context.Context, customerID, productID, size string, quantity int) (domain.CartData, error)
	// Merge adds every quantity in incoming to the stored cart.
	Merge(ctx context.Context, customerID string, incoming domain.CartData) (domain.CartData, error)
	Clear(ctx context.Context, customerID string) error
}
