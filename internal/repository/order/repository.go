package order

import (
	"context"
	"time"

	"storefront/internal/domain"
)

// Repository persists orders together with their line item snapshots.
type Repository interface {
	// Create validates and stores a Pending order and reserves stock for its
	// lines in the same transaction. The stored order is returned with id and
	// timestamps set.
	Create(ctx context.Context, order *domain.Order, reservationTTL time.Duration) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)
	// List returns every order, newest first.
	List(ctx context.Context) ([]domain.Order, error)
	// ListByCustomer returns the customer's orders, newest first. Guest orders never match.
	ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// UpdateStatus moves a paid order from one fulfilment status to another.
	// It fails with domain.ErrInvalidTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	// CommitPayment decrements stock for every line, drops the order's
	// reservations and marks it Paid, atomically. domain.ErrAlreadyPaid is
	// returned when another call got there first.
	CommitPayment(ctx context.Context, id string, info domain.PaymentInfo) (*domain.Order, error)
	// Delete removes the order and returns what was removed.
	Delete(ctx context.Context, id string) (*domain.Order, error)
	// ExpirePending marks Pending orders created before cutoff as Failed,
	// releases their reservations and returns their ids.
	ExpirePending(ctx context.Context, cutoff time.Time) ([]string, error)
}
