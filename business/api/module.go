// Package api wires the HTTP surface over the liquidity and payment contexts.
package api

import (
	"context"
	"errors"
	"net/http"

	apiDI "github.com/fd1az/pool-service/business/api/di"
	"github.com/fd1az/pool-service/business/api/rest"
	liquidityDI "github.com/fd1az/pool-service/business/liquidity/di"
	paymentDI "github.com/fd1az/pool-service/business/payment/di"
	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/di"
	"github.com/fd1az/pool-service/internal/logger"
	"github.com/fd1az/pool-service/internal/monolith"
)

// Module serves the HTTP API. It must start after the liquidity and payment
// modules are registered.
type Module struct{}

// RegisterServices registers the HTTP server with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, apiDI.Server, func(sr di.ServiceRegistry) *rest.Server {
		log := sr.Get("logger").(logger.LoggerInterface)
		return rest.NewServer(
			liquidityDI.GetLiquidityService(sr),
			paymentDI.GetPayToLearnService(sr),
			paymentDI.GetTransactionService(sr),
			log,
		)
	})
	return nil
}

// Startup starts listening and registers a graceful shutdown.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config().HTTP
	server := apiDI.GetServer(mono.Services())
	Serve(ctx, mono, cfg, server.Handler(cfg.AllowedOrigins))
	return nil
}

// Serve runs an http.Server for h on cfg.Addr in the background and
// registers its shutdown with mono.
func Serve(ctx context.Context, mono monolith.Monolith, cfg config.HTTPConfig, h http.Handler) {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	log := mono.Logger()

	go func() {
		log.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "http server failed", "error", err)
		}
	}()

	mono.OnClose(monolith.CloserFunc(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn(ctx, "http server shutdown", "error", err)
		}
	}))
}
