//go:build integration

package cart

import (
	"context"
	"testing"

	"storefront/internal/db/dbtest"
	"storefront/internal/domain"
	"storefront/internal/repository/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCart(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	products := product.NewPostgres(pool, nil)
	repo := NewPostgres(pool, nil)

	a, err := products.Upsert(ctx, domain.Product{Key: "a", Name: "A", PriceCents: 100, Stock: 1})
	require.NoError(t, err)
	b, err := products.Upsert(ctx, domain.Product{Key: "b", Name: "B", PriceCents: 100, Stock: 1})
	require.NoError(t, err)

	_, err = repo.AddItem(ctx, "u1", a.ID, "M", 1)
	require.NoError(t, err)
	got, err := repo.AddItem(ctx, "u1", a.ID, "M", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got[a.ID]["M"])

	got, err = repo.Merge(ctx, "u1", domain.CartData{a.ID: {"M": 3}, b.ID: {"S": 1}})
	require.NoError(t, err)
	assert.Equal(t, domain.CartData{a.ID: {"M": 5}, b.ID: {"S": 1}}, got)

	got, err = repo.SetQuantity(ctx, "u1", b.ID, "S", 0)
	require.NoError(t, err)
	assert.NotContains(t, got, b.ID)

	require.NoError(t, repo.Clear(ctx, "u1"))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
