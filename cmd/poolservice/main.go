// Package main is the entry point for the pool service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/fd1az/pool-service/business/api"
	"github.com/fd1az/pool-service/business/liquidity"
	"github.com/fd1az/pool-service/business/payment"
	paymentDI "github.com/fd1az/pool-service/business/payment/di"
	"github.com/fd1az/pool-service/internal/apm"
	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/health"
	"github.com/fd1az/pool-service/internal/logger"
	"github.com/fd1az/pool-service/internal/metrics"
	"github.com/fd1az/pool-service/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pool-service %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting pool service",
		"version", version,
		"environment", cfg.App.Environment,
		"storage", cfg.Storage.Driver,
	)

	if cfg.Telemetry.Enabled {
		traceProvider := apm.NewTraceProvider(log, apm.TracerOptions{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    apm.Exporter(cfg.Telemetry.TraceExporter),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		})
		defer func() {
			if err := traceProvider.Stop(); err != nil {
				log.Warn(ctx, "failed to stop trace provider", "error", err)
			}
		}()

		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		meterProvider, err := metrics.NewMetricProvider(ctx, registry, metrics.WithServiceName(cfg.Telemetry.ServiceName))
		if err != nil {
			return fmt.Errorf("failed to create metric provider: %w", err)
		}
		defer meterProvider.Shutdown(context.Background())

		metricsServer := metrics.NewServer(cfg.Telemetry.PrometheusPort, registry, log)
		metricsServer.Start(ctx)
		defer metricsServer.Stop(context.Background())
	}

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Order matters: the API resolves services from the other two.
	modules := []monolith.Module{
		&liquidity.Module{},
		&payment.Module{},
		&api.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	healthServer.RegisterCheck("store", paymentDI.GetStore(mono.Services()).Ping)
	healthServer.RegisterCheck("sui-rpc", func(ctx context.Context) error {
		var chainID string
		return mono.SuiClient().CallContext(ctx, &chainID, "sui_getChainIdentifier")
	})
	healthServer.Start(ctx)
	log.Info(ctx, "health server started", "port", cfg.Health.Port)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		healthServer.Stop(stopCtx)
	}()

	log.Info(ctx, "all modules started", "addr", cfg.HTTP.Addr())
	<-ctx.Done()
	log.Info(ctx, "shutting down")
	return nil
}
