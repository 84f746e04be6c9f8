// Package payment implements the pay-to-learn bounded context: the package
// catalog, user styles and the purchase and transaction ledgers.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/fd1az/pool-service/business/payment/app"
	paymentDI "github.com/fd1az/pool-service/business/payment/di"
	"github.com/fd1az/pool-service/business/payment/infra/memory"
	"github.com/fd1az/pool-service/business/payment/infra/postgres"
	"github.com/fd1az/pool-service/business/payment/infra/sqlite"
	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/di"
	"github.com/fd1az/pool-service/internal/logger"
	"github.com/fd1az/pool-service/internal/monolith"
)

const connectTimeout = 10 * time.Second

// Module implements the payment bounded context.
type Module struct{}

// OpenStore opens the backend named by cfg.Driver and applies its schema
// when cfg.Migrate is set.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (app.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		pool, err := postgres.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if cfg.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return postgres.NewStore(pool), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// RegisterServices registers all payment services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, paymentDI.Store, func(sr di.ServiceRegistry) app.Store {
		cfg := sr.Get("config").(*config.Config)

		store, err := OpenStore(context.Background(), cfg.Storage)
		if err != nil {
			panic("failed to open payment store: " + err.Error())
		}
		return store
	})

	di.RegisterToken(c, paymentDI.PayToLearnService, func(sr di.ServiceRegistry) *app.PayToLearnService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewPayToLearnService(paymentDI.GetStore(sr), log)
	})

	di.RegisterToken(c, paymentDI.TransactionService, func(sr di.ServiceRegistry) *app.TransactionService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewTransactionService(paymentDI.GetStore(sr), log)
	})

	return nil
}

// Startup opens the store so connection and migration errors surface at boot,
// and closes it on shutdown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	store := paymentDI.GetStore(mono.Services())
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("payment store: %w", err)
	}
	mono.OnClose(monolith.CloserFunc(func() {
		if err := store.Close(); err != nil {
			mono.Logger().Warn(ctx, "failed to close payment store", "error", err)
		}
	}))

	mono.Logger().Info(ctx, "payment module started", "driver", mono.Config().Storage.Driver)
	return nil
}
