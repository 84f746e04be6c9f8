package payment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/pool-service/business/payment/infra/memory"
	"github.com/fd1az/pool-service/business/payment/infra/sqlite"
	"github.com/fd1az/pool-service/internal/config"
)

func TestOpenStore_Drivers(t *testing.T) {
	ctx := context.Background()

	store, err := OpenStore(ctx, config.StorageConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)

	store, err = OpenStore(ctx, config.StorageConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "pay.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.Close())

	_, err = OpenStore(ctx, config.StorageConfig{Driver: "mongo"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
