// Package flowx implements the PositionProvider and ProfitEstimator interfaces
// for the FlowX CLMM DEX on Sui.
package flowx

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/pool-service/business/liquidity/app"
	"github.com/fd1az/pool-service/business/liquidity/domain"
	"github.com/fd1az/pool-service/internal/logger"
)

// TracerName names the tracer handed to the adapter.
const TracerName = "flowx"

var (
	_ app.PositionProvider = (*Provider)(nil)
	_ app.ProfitEstimator  = (*Provider)(nil)
)

// Reader reads positions and pools from FlowX.
type Reader interface {
	Positions(ctx context.Context, owner string) ([]RawPosition, error)
	Pool(ctx context.Context, poolID string) (*RawPool, error)
}

// Provider serves FlowX positions, pool stats and fee estimates.
type Provider struct {
	api         Reader
	concurrency int
	logger      logger.LoggerInterface
	tracer      trace.Tracer
}

// NewProvider creates a FlowX provider. concurrency bounds batch pool
// lookups; values below 1 are treated as 1.
func NewProvider(api Reader, concurrency int, log logger.LoggerInterface, tracer trace.Tracer) *Provider {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Provider{
		api:         api,
		concurrency: concurrency,
		logger:      log,
		tracer:      tracer,
	}
}

func (p *Provider) Dex() domain.Dex { return domain.DexFlowX }

func (p *Provider) LiquidityPositions(ctx context.Context, address string) ([]domain.NormalizedPosition, error) {
	ctx, span := p.tracer.Start(ctx, "flowx.liquidity_positions",
		trace.WithAttributes(attribute.String("address", address)),
	)
	defer span.End()

	raw, err := p.api.Positions(ctx, address)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	positions := make([]domain.NormalizedPosition, len(raw))
	for i, pos := range raw {
		positions[i] = MapPosition(pos)
	}

	p.logger.Debug(ctx, "Resolved flowx positions", "address", address, "count", len(positions))
	return positions, nil
}

// PoolStats returns the summarized state of one pool.
func (p *Provider) PoolStats(ctx context.Context, poolID string) (any, error) {
	pool, err := p.api.Pool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	return MapPoolStats(pool), nil
}

// BatchPoolStats looks up each pool independently. A failed lookup takes
// its slot as a BatchItemError; the batch itself never fails.
func (p *Provider) BatchPoolStats(ctx context.Context, poolIDs []string) ([]any, error) {
	ctx, span := p.tracer.Start(ctx, "flowx.batch_pool_stats",
		trace.WithAttributes(
			attribute.Int("pools", len(poolIDs)),
			attribute.Int("concurrency", p.concurrency),
		),
	)
	defer span.End()

	results := make([]any, len(poolIDs))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range poolIDs {
		g.Go(func() error {
			pool, err := p.api.Pool(ctx, id)
			if err != nil {
				p.logger.Warn(ctx, "FlowX pool lookup failed", "pool_id", id, "error", err)
				results[i] = domain.NewBatchItemError(id)
				return nil
			}
			results[i] = MapPoolStats(pool)
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// EstimateTotalProfit values the unclaimed fees of every position the wallet
// holds. Amounts that are absent or not numeric count as zero, as do coins
// without a USD price.
func (p *Provider) EstimateTotalProfit(ctx context.Context, address string) (*domain.ProfitSummary, error) {
	ctx, span := p.tracer.Start(ctx, "flowx.estimate_total_profit",
		trace.WithAttributes(attribute.String("address", address)),
	)
	defer span.End()

	raw, err := p.api.Positions(ctx, address)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	summary := &domain.ProfitSummary{Positions: make([]domain.PositionProfit, 0, len(raw))}
	total := decimal.Zero
	for _, pos := range raw {
		row, usd := positionProfit(pos)
		summary.Positions = append(summary.Positions, row)
		total = total.Add(usd)
	}
	summary.TotalUnclaimedFeesUSD = total.InexactFloat64()

	return summary, nil
}

func positionProfit(pos RawPosition) (domain.PositionProfit, decimal.Decimal) {
	coinX, coinY := pos.Pool.coin(0), pos.Pool.coin(1)

	owedX := pos.CoinsOwedX.Decimal()
	owedY := pos.CoinsOwedY.Decimal()
	usdX := owedX.Mul(coinX.DerivedPriceInUSD.Decimal())
	usdY := owedY.Mul(coinY.DerivedPriceInUSD.Decimal())

	row := domain.PositionProfit{
		TokenA:           coinX.CoinType,
		TokenB:           coinY.CoinType,
		UnclaimedX:       owedX.InexactFloat64(),
		UnclaimedY:       owedY.InexactFloat64(),
		UnclaimedXSymbol: coinX.CoinType,
		UnclaimedYSymbol: coinY.CoinType,
		UnclaimedXUSD:    usdX.InexactFloat64(),
		UnclaimedYUSD:    usdY.InexactFloat64(),
	}
	if pos.Pool != nil {
		row.PoolID = pos.Pool.ID
	}
	return row, usdX.Add(usdY)
}
