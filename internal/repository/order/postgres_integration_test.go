//go:build integration

package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
	"storefront/internal/repository/inventory"
	"storefront/internal/repository/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	ledger := inventory.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	shirt, err := products.Upsert(ctx, domain.Product{Key: "shirt", Name: "Shirt", PriceCents: 5000, Stock: 5, Sizes: []string{"M"}})
	require.NoError(t, err)

	customer := "cust-1"
	created, err := repo.Create(ctx, pendingOrder(shirt.ID, 2, &customer), time.Minute)
	require.NoError(t, err)
	require.Len(t, created.Items, 1)

	free, err := ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Less(t, free, 4, "placement holds two units")

	byRef, err := repo.GetByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byRef.ID)
	assert.Equal(t, created.ShippingAddress, byRef.ShippingAddress)

	now := time.Now().UTC()
	paid, err := repo.CommitPayment(ctx, created.ID, domain.PaymentInfo{Reference: "ref-1", VerifiedAt: &now, GatewayTransactionID: "tx-9"})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, paid.PaymentStatus)

	_, err = repo.CommitPayment(ctx, created.ID, domain.PaymentInfo{Reference: "ref-1"})
	require.ErrorIs(t, err, domain.ErrAlreadyPaid)

	p, err := products.GetByID(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	_, err = repo.UpdateStatus(ctx, created.ID, domain.StatusPlaced, domain.StatusDelivered)
	require.NoError(t, err)
	_, err = repo.UpdateStatus(ctx, created.ID, domain.StatusPlaced, domain.StatusPacking)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	mine, err := repo.ListByCustomer(ctx, customer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.StatusDelivered, mine[0].OrderStatus)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresConcurrentCommitsNeverOversell(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	shirt, err := products.Upsert(ctx, domain.Product{Key: "shirt", Name: "Shirt", PriceCents: 5000, Stock: 3})
	require.NoError(t, err)

	// Short reservations let several orders exist for the same units.
	var ids []string
	for i := 0; i < 3; i++ {
		o, err := repo.Create(ctx, pendingOrder(shirt.ID, 2, nil), time.Millisecond)
		require.NoError(t, err)
		ids = append(ids, o.ID)
		time.Sleep(5 * time.Millisecond)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		paid int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.CommitPayment(ctx, id, domain.PaymentInfo{}); err == nil {
				mu.Lock()
				paid++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, paid)
	p, err := products.GetByID(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

func TestPostgresExpirePending(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	ledger := inventory.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	shirt, err := products.Upsert(ctx, domain.Product{Key: "shirt", Name: "Shirt", PriceCents: 5000, Stock: 2})
	require.NoError(t, err)
	created, err := repo.Create(ctx, pendingOrder(shirt.ID, 2, nil), time.Hour)
	require.NoError(t, err)

	ids, err := repo.ExpirePending(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, ids)

	free, err := ledger.Free(ctx, shirt.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, free, 2)
}
