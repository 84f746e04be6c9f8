// Package bluefin implements the PositionProvider interface for the Bluefin spot DEX on Sui.
package bluefin

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/pool-service/business/liquidity/app"
	"github.com/fd1az/pool-service/business/liquidity/domain"
	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/clmm"
	"github.com/fd1az/pool-service/internal/logger"
)

// Instrumentation names for the tracer and meter handed to the adapter.
const (
	TracerName = "bluefin"
	MeterName  = "bluefin"
)

var _ app.PositionProvider = (*Provider)(nil)

// ChainReader reads Bluefin objects from chain.
type ChainReader interface {
	OwnedPositions(ctx context.Context, owner string) ([]RawPosition, error)
	Pool(ctx context.Context, poolID string) (RawPool, error)
}

// PoolsReader reads pool statistics from the Bluefin API.
type PoolsReader interface {
	PoolInfo(ctx context.Context, poolID string) (json.RawMessage, error)
	PoolsInfo(ctx context.Context, poolIDs []string) ([]json.RawMessage, error)
}

// Provider serves Bluefin positions from chain and pool stats from the REST API.
type Provider struct {
	chain   ChainReader
	pools   PoolsReader
	resolve clmm.Resolver
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewProvider creates a Bluefin provider. A nil resolver uses clmm.CoinAmountsFromLiquidity.
func NewProvider(chain ChainReader, pools PoolsReader, resolve clmm.Resolver, log logger.LoggerInterface, tracer trace.Tracer) *Provider {
	if resolve == nil {
		resolve = clmm.CoinAmountsFromLiquidity
	}
	return &Provider{
		chain:   chain,
		pools:   pools,
		resolve: resolve,
		logger:  log,
		tracer:  tracer,
	}
}

func (p *Provider) Dex() domain.Dex { return domain.DexBluefin }

// LiquidityPositions reads the wallet's positions and resolves each pool in turn.
func (p *Provider) LiquidityPositions(ctx context.Context, address string) ([]domain.NormalizedPosition, error) {
	ctx, span := p.tracer.Start(ctx, "bluefin.liquidity_positions",
		trace.WithAttributes(attribute.String("address", address)),
	)
	defer span.End()

	raw, err := p.chain.OwnedPositions(ctx, address)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	positions := make([]domain.NormalizedPosition, 0, len(raw))
	for _, pos := range raw {
		pool, err := p.chain.Pool(ctx, pos.PoolID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		normalized, err := MapPosition(p.resolve, pos, pool)
		if err != nil {
			return nil, apperror.New(apperror.CodeMalformedPosition,
				apperror.WithContext(pos.ID), apperror.WithCause(err))
		}
		positions = append(positions, normalized)
	}

	p.logger.Debug(ctx, "Resolved bluefin positions", "address", address, "count", len(positions))
	return positions, nil
}

// PoolStats returns the pool object reported by the Bluefin API.
func (p *Provider) PoolStats(ctx context.Context, poolID string) (any, error) {
	pool, err := p.pools.PoolInfo(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// BatchPoolStats fetches all pools in a single request.
func (p *Provider) BatchPoolStats(ctx context.Context, poolIDs []string) ([]any, error) {
	pools, err := p.pools.PoolsInfo(ctx, poolIDs)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(pools))
	for i, pool := range pools {
		out[i] = pool
	}
	return out, nil
}
