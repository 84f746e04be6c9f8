package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/pool-service/business/liquidity/domain"
	"github.com/fd1az/pool-service/internal/apperror"
	"github.com/fd1az/pool-service/internal/logger"
)

var tracer = otel.Tracer("liquidity.app")

// LiquidityService validates requests and routes them to the DEX adapters.
type LiquidityService struct {
	providers map[domain.Dex]PositionProvider
	profit    ProfitEstimator
	log       logger.LoggerInterface
}

// NewLiquidityService creates a LiquidityService. The profit estimator is the
// FlowX adapter in production.
func NewLiquidityService(log logger.LoggerInterface, profit ProfitEstimator, providers ...PositionProvider) *LiquidityService {
	byDex := make(map[domain.Dex]PositionProvider, len(providers))
	for _, p := range providers {
		byDex[p.Dex()] = p
	}
	return &LiquidityService{
		providers: byDex,
		profit:    profit,
		log:       log,
	}
}

func requireAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return apperror.Validation(apperror.CodeMissingWalletAddress, "")
	}
	return nil
}

func (s *LiquidityService) provider(dex domain.Dex) (PositionProvider, error) {
	p, ok := s.providers[dex]
	if !ok {
		return nil, apperror.Validation(apperror.CodeUnknownSource, string(dex))
	}
	return p, nil
}

func (s *LiquidityService) providerFor(source string) (PositionProvider, error) {
	dex, err := domain.ParseDex(source)
	if err != nil {
		return nil, apperror.New(apperror.CodeUnknownSource, apperror.WithCause(err))
	}
	return s.provider(dex)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Positions returns the wallet's positions on one DEX.
func (s *LiquidityService) Positions(ctx context.Context, dex domain.Dex, address string) (_ []domain.NormalizedPosition, err error) {
	if err := requireAddress(address); err != nil {
		return nil, err
	}
	p, err := s.provider(dex)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "liquidity.positions", trace.WithAttributes(
		attribute.String("dex", string(dex)),
		attribute.String("address", address),
	))
	defer func() { endSpan(span, err) }()

	positions, err := p.LiquidityPositions(ctx, address)
	if err != nil {
		s.log.Error(ctx, "Fetching liquidity positions failed", "dex", dex, "address", address, "error", err)
		return nil, err
	}
	if positions == nil {
		positions = []domain.NormalizedPosition{}
	}
	span.SetAttributes(attribute.Int("positions", len(positions)))
	return positions, nil
}

// CombinedPositions queries Bluefin and FlowX concurrently. Either failure
// fails the whole call.
func (s *LiquidityService) CombinedPositions(ctx context.Context, address string) (*domain.CombinedPositions, error) {
	if err := requireAddress(address); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "liquidity.combined_positions", trace.WithAttributes(
		attribute.String("address", address),
	))
	var err error
	defer func() { endSpan(span, err) }()

	result := &domain.CombinedPositions{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		positions, err := s.Positions(gctx, domain.DexBluefin, address)
		result.Bluefin = positions
		return err
	})
	g.Go(func() error {
		positions, err := s.Positions(gctx, domain.DexFlowX, address)
		result.FlowX = positions
		return err
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// PositionValue estimates unclaimed fees in USD for a wallet.
func (s *LiquidityService) PositionValue(ctx context.Context, address string) (*domain.ProfitSummary, error) {
	if err := requireAddress(address); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "liquidity.position_value")
	summary, err := s.profit.EstimateTotalProfit(ctx, address)
	endSpan(span, err)
	if err != nil {
		s.log.Error(ctx, "Estimating position value failed", "address", address, "error", err)
		return nil, err
	}
	return summary, nil
}

// PoolStats returns one pool from the requested source (bluefin when empty).
func (s *LiquidityService) PoolStats(ctx context.Context, source, poolID string) (any, error) {
	if strings.TrimSpace(poolID) == "" {
		return nil, apperror.Validation(apperror.CodeRequiredField, "pool address")
	}
	p, err := s.providerFor(source)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "liquidity.pool_stats", trace.WithAttributes(
		attribute.String("dex", string(p.Dex())),
		attribute.String("pool_id", poolID),
	))
	stats, err := p.PoolStats(ctx, poolID)
	endSpan(span, err)
	if err != nil {
		s.log.Warn(ctx, "Fetching pool stats failed", "dex", p.Dex(), "pool_id", poolID, "error", err)
		return nil, err
	}
	return stats, nil
}

// BatchPoolStats returns several pools from the requested source.
func (s *LiquidityService) BatchPoolStats(ctx context.Context, source string, poolIDs []string) ([]any, error) {
	if len(poolIDs) == 0 {
		return nil, apperror.Validation(apperror.CodeInvalidPoolIDs, "")
	}
	p, err := s.providerFor(source)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "liquidity.batch_pool_stats", trace.WithAttributes(
		attribute.String("dex", string(p.Dex())),
		attribute.Int("pools", len(poolIDs)),
	))
	stats, err := p.BatchPoolStats(ctx, poolIDs)
	endSpan(span, err)
	if err != nil {
		s.log.Warn(ctx, "Fetching batch pool stats failed", "dex", p.Dex(), "pools", len(poolIDs), "error", err)
		return nil, err
	}
	if stats == nil {
		stats = []any{}
	}
	return stats, nil
}
