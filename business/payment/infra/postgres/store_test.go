package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fd1az/pool-service/business/payment/app"
	"github.com/fd1az/pool-service/business/payment/infra/storetest"
)

// setupTestDB starts a PostgreSQL container and applies the embedded migrations.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("payments"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool), "failed to apply migrations")
	// Migrations must be safe to re-run at every boot.
	require.NoError(t, Migrate(ctx, pool), "failed to re-apply migrations")

	return pool
}

func TestStore(t *testing.T) {
	pool := setupTestDB(t)

	storetest.Run(t, func(t *testing.T) app.Store {
		_, err := pool.Exec(context.Background(),
			`TRUNCATE packages, user_styles, user_purchases, user_transactions`)
		require.NoError(t, err)
		// The pool is closed by setupTestDB's cleanup, not per subtest.
		return &Store{pool: pool}
	})
}
