package inventory

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Ledger owns product stock. Stock only decreases through Decrement or Commit,
// both guarded so stock never goes negative. Reservations are soft holds taken
// at order placement; they expire on their own and never touch stock.
type Ledger interface {
	// Free reports the units of productID not held by an unexpired
	// reservation. It never goes below zero.
	Free(ctx context.Context, productID string) (int, error)
	// Reserve holds every line for orderID or none of them.
	Reserve(ctx context.Context, orderID string, lines []domain.StockLine, ttl time.Duration) error
	// Release drops orderID's reservations. Releasing nothing is not an error.
	Release(ctx context.Context, orderID string) error
	// Decrement removes quantity units, failing with a *domain.StockError if stock is short.
	Decrement(ctx context.Context, productID string, quantity int) error
	// Commit decrements every line and releases orderID's reservations, all or nothing.
	Commit(ctx context.Context, orderID string, lines []domain.StockLine) error
	// PurgeExpired deletes reservations that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
