package flowx

import (
	"encoding/json"

	"github.com/fd1az/pool-service/business/liquidity/domain"
)

// MapPosition converts an API position into a NormalizedPosition. The pool
// is optional; when it is absent every pool-derived field keeps its default.
func MapPosition(pos RawPosition) domain.NormalizedPosition {
	pool := pos.Pool
	apr := pool.apr()
	day := pool.day()

	out := domain.NormalizedPosition{
		PositionID:           pos.ID,
		Owner:                pos.Owner,
		Dex:                  domain.DexFlowX,
		Liquidity:            pos.Liquidity.String(),
		TokenA:               pool.coin(0).CoinType,
		TokenB:               pool.coin(1).CoinType,
		AmountA:              pool.reserve(0),
		AmountB:              pool.reserve(1),
		TickLower:            pos.TickLower.OptionalInt32(),
		TickUpper:            pos.TickUpper.OptionalInt32(),
		Apr:                  apr.Total.Float(),
		AprBreakdown:         domain.AprBreakdown{Native: apr.FeeApr.Float(), Rewards: apr.RewardApr.Float()},
		PriceRange:           domain.PriceRange{Min: day.PriceMin.Float(), Max: day.PriceMax.Float()},
		CoinsOwedX:           pos.CoinsOwedX.String(),
		CoinsOwedY:           pos.CoinsOwedY.String(),
		FeeGrowthInsideXLast: pos.FeeGrowthInsideXLast.String(),
		FeeGrowthInsideYLast: pos.FeeGrowthInsideYLast.String(),
		RewardInfos:          pos.RewardInfos,
	}

	if pool != nil {
		out.PoolID = pool.ID
		out.PoolSymbol = pool.Name
		out.PoolLiquidity = pool.Liquidity.String()
		out.TvlUSD = pool.Tvl.Float()
		fee := pool.Fee.OptionalFloat()
		out.FeeTier = fee
		out.FeeRate = fee
	}
	if out.RewardInfos == nil {
		out.RewardInfos = []json.RawMessage{}
	}

	return out.WithDefaults()
}

// MapPoolStats summarizes a pool for the stats routes.
func MapPoolStats(pool *RawPool) domain.PoolStats {
	out := domain.PoolStats{
		ID:        pool.ID,
		Fee:       pool.Fee.Float(),
		Liquidity: pool.Liquidity.String(),
		Reserves:  make([]string, len(pool.Reserves)),
		Coins:     make([]domain.PoolCoin, len(pool.Coins)),
	}
	for i, r := range pool.Reserves {
		out.Reserves[i] = r.String()
	}
	for i, c := range pool.Coins {
		out.Coins[i] = domain.PoolCoin{
			CoinType:          c.CoinType,
			DerivedPriceInUSD: c.DerivedPriceInUSD.OptionalFloat(),
		}
	}
	return out
}
