// Package liquidity implements the liquidity bounded context: DEX positions,
// pool statistics and unclaimed fee estimates across Bluefin and FlowX.
package liquidity

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/business/liquidity/app"
	liquidityDI "github.com/fd1az/pool-service/business/liquidity/di"
	"github.com/fd1az/pool-service/business/liquidity/infra/bluefin"
	"github.com/fd1az/pool-service/business/liquidity/infra/flowx"
	"github.com/fd1az/pool-service/internal/config"
	"github.com/fd1az/pool-service/internal/di"
	"github.com/fd1az/pool-service/internal/httpclient"
	"github.com/fd1az/pool-service/internal/logger"
	"github.com/fd1az/pool-service/internal/monolith"
	"github.com/fd1az/pool-service/internal/ratelimit"
)

// clientOptions adds body recording on the provider's spans when enabled.
func clientOptions(cfg config.TelemetryConfig, tracer trace.Tracer, opts ...httpclient.ClientOption) []httpclient.ClientOption {
	if cfg.RecordBodies {
		opts = append(opts, httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse))
	}
	return opts
}

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, liquidityDI.BluefinProvider, func(sr di.ServiceRegistry) *bluefin.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		suiClient := sr.Get("suiClient").(*rpc.Client)

		tracer := otel.Tracer(bluefin.TracerName)
		chain, err := bluefin.NewChain(suiClient, bluefin.ChainConfig{
			BasePackage: cfg.Bluefin.BasePackage,
			PageSize:    cfg.Sui.PageSize,
			Timeout:     cfg.Sui.Timeout,
		}, ratelimit.New("sui-rpc", cfg.Sui.RequestsPerSecond, 1), log, tracer, otel.Meter(bluefin.MeterName))
		if err != nil {
			panic("failed to create sui chain reader: " + err.Error())
		}

		client, err := httpclient.NewInstrumentedClient(clientOptions(cfg.Telemetry, tracer,
			httpclient.WithProviderName("bluefin"),
			httpclient.WithBaseURL(cfg.Bluefin.APIURL),
			httpclient.WithRequestTimeout(cfg.Bluefin.Timeout),
			httpclient.WithRateLimiter(ratelimit.New("bluefin-api", cfg.Bluefin.RequestsPerSecond, 1)),
			httpclient.WithCircuitBreaker(),
		)...)
		if err != nil {
			panic("failed to create bluefin http client: " + err.Error())
		}

		return bluefin.NewProvider(chain, bluefin.NewPoolsAPI(client, tracer), nil, log, tracer)
	})

	di.RegisterToken(c, liquidityDI.FlowXProvider, func(sr di.ServiceRegistry) *flowx.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		tracer := otel.Tracer(flowx.TracerName)
		client, err := httpclient.NewInstrumentedClient(clientOptions(cfg.Telemetry, tracer,
			httpclient.WithProviderName("flowx"),
			httpclient.WithBaseURL(cfg.FlowX.APIURL),
			httpclient.WithRequestTimeout(cfg.FlowX.Timeout),
			httpclient.WithRateLimiter(ratelimit.New("flowx-api", cfg.FlowX.RequestsPerSecond, cfg.FlowX.BatchConcurrency)),
			httpclient.WithCircuitBreaker(),
		)...)
		if err != nil {
			panic("failed to create flowx http client: " + err.Error())
		}

		return flowx.NewProvider(flowx.NewAPI(client, tracer), cfg.FlowX.BatchConcurrency, log, tracer)
	})

	di.RegisterToken(c, liquidityDI.LiquidityService, func(sr di.ServiceRegistry) *app.LiquidityService {
		log := sr.Get("logger").(logger.LoggerInterface)
		blue := liquidityDI.GetBluefinProvider(sr)
		flow := liquidityDI.GetFlowXProvider(sr)
		return app.NewLiquidityService(log, flow, blue, flow)
	})

	return nil
}

// Startup resolves the liquidity service so wiring errors surface at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	liquidityDI.GetLiquidityService(mono.Services())
	mono.Logger().Info(ctx, "liquidity module started")
	return nil
}
