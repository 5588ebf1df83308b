//go:build integration

package migrate_test

import (
	"context"
	"testing"

	"storefront/internal/db/dbtest"
	"storefront/internal/migrate"

	"github.com/stretchr/testify/require"
)

func TestApplyRollbackRoundTrip(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()

	require.NoError(t, migrate.Apply(ctx, pool, nil), "re-applying an up-to-date schema")

	version, dirty, err := migrate.Version(ctx, pool)
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)

	require.NoError(t, migrate.Rollback(ctx, pool, 1, nil))
	version, _, err = migrate.Version(ctx, pool)
	require.NoError(t, err)
	require.EqualValues(t, 0, version)

	require.NoError(t, migrate.Apply(ctx, pool, nil))
	var tables int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('products','orders','order_items','stock_reservations','cart_items')`).Scan(&tables))
	require.Equal(t, 5, tables)
}
