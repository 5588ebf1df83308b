package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, products *product.Memory, key string, stock int) domain.Product {
	t.Helper()
	p, err := products.Upsert(context.Background(), domain.Product{Key: key, Name: key, PriceCents: 5000, Stock: stock})
	require.NoError(t, err)
	return *p
}

func stockOf(t *testing.T, products *product.Memory, id string) int {
	t.Helper()
	p, err := products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestReserveCountsAgainstOtherOrders(t *testing.T) {
	ctx := context.Background()
	products := product.NewMemory()
	shirt := seedProduct(t, products, "shirt", 3)
	ledger := NewMemory(products)

	require.NoError(t, ledger.Reserve(ctx, "o1", []domain.StockLine{{ProductID: shirt.ID, Quantity: 2}}, time.Minute))

	free, err := ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, free)

	err = ledger.Reserve(ctx, "o2", []domain.StockLine{{ProductID: shirt.ID, Quantity: 2}}, time.Minute)
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockOf(t, products, shirt.ID), "reservations never touch stock")

	require.NoError(t, ledger.Release(ctx, "o1"))
	free, err = ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, free)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	products := product.NewMemory()
	a := seedProduct(t, products, "a", 5)
	b := seedProduct(t, products, "b", 1)
	ledger := NewMemory(products)

	err := ledger.Reserve(ctx, "o1", []domain.StockLine{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 2},
	}, time.Minute)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	free, err := ledger.Free(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, free)
}

func TestExpiredReservationsStopCounting(t *testing.T) {
	ctx := context.Background()
	products := product.NewMemory()
	shirt := seedProduct(t, products, "shirt", 2)
	ledger := NewMemory(products)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return clock }

	require.NoError(t, ledger.Reserve(ctx, "o1", []domain.StockLine{{ProductID: shirt.ID, Quantity: 2}}, time.Minute))
	clock = clock.Add(2 * time.Minute)

	free, err := ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, free)

	n, err := ledger.PurgeExpired(ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCommitDecrementsAndReleases(t *testing.T) {
	ctx := context.Background()
	products := product.NewMemory()
	shirt := seedProduct(t, products, "shirt", 5)
	ledger := NewMemory(products)
	lines := []domain.StockLine{{ProductID: shirt.ID, Quantity: 2}}

	require.NoError(t, ledger.Reserve(ctx, "o1", lines, time.Minute))
	require.NoError(t, ledger.Commit(ctx, "o1", lines))

	assert.Equal(t, 3, stockOf(t, products, shirt.ID))
	free, err := ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, free, "committed order no longer holds a reservation")
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	products := product.NewMemory()
	shirt := seedProduct(t, products, "shirt", 1)
	ledger := NewMemory(products)

	require.ErrorIs(t, ledger.Decrement(ctx, shirt.ID, 2), domain.ErrInsufficientStock)
	require.NoError(t, ledger.Decrement(ctx, shirt.ID, 1))
	require.ErrorIs(t, ledger.Decrement(ctx, shirt.ID, 1), domain.ErrInsufficientStock)
	assert.Equal(t, 0, stockOf(t, products, shirt.ID))
}

func TestUnknownProduct(t *testing.T) {
	ledger := NewMemory(product.NewMemory())
	_, err := ledger.Free(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
