package bluefin

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/fd1az/pool-service/business/liquidity/domain"
	"github.com/fd1az/pool-service/internal/clmm"
)

func parseUint(field, v string) (*uint256.Int, error) {
	n, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}

func optionalFloat(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// amounts resolves token amounts. Missing inputs leave both amounts empty.
func amounts(resolve clmm.Resolver, pos RawPosition, pool RawPool) (string, string, error) {
	if pos.Liquidity == "" || pool.CurrentSqrtPrice == "" || pos.TickLower == nil || pos.TickUpper == nil {
		return "", "", nil
	}

	liquidity, err := parseUint("liquidity", pos.Liquidity)
	if err != nil {
		return "", "", err
	}
	current, err := parseUint("current_sqrt_price", pool.CurrentSqrtPrice)
	if err != nil {
		return "", "", err
	}

	out, err := clmm.AmountsAtTicks(resolve, liquidity, current, *pos.TickLower, *pos.TickUpper, false)
	if err != nil {
		return "", "", err
	}
	return out.A.Dec(), out.B.Dec(), nil
}

// MapPosition converts a chain position and its pool into a NormalizedPosition.
func MapPosition(resolve clmm.Resolver, pos RawPosition, pool RawPool) (domain.NormalizedPosition, error) {
	amountA, amountB, err := amounts(resolve, pos, pool)
	if err != nil {
		return domain.NormalizedPosition{}, fmt.Errorf("position %s: %w", pos.ID, err)
	}

	tokenA, tokenB := pool.CoinTypeA, pool.CoinTypeB
	if tokenA == "" {
		tokenA = pos.CoinTypeA
	}
	if tokenB == "" {
		tokenB = pos.CoinTypeB
	}

	feeRate := pool.FeeRate
	if pos.FeeRate != "" {
		feeRate = pos.FeeRate
	}
	fee := optionalFloat(feeRate)

	out := domain.NormalizedPosition{
		PoolID:               pos.PoolID,
		PositionID:           pos.ID,
		Owner:                pos.Owner,
		Dex:                  domain.DexBluefin,
		PoolSymbol:           tokenA + " - " + tokenB,
		Liquidity:            pos.Liquidity,
		PoolLiquidity:        pool.Liquidity,
		TokenA:               tokenA,
		TokenB:               tokenB,
		AmountA:              amountA,
		AmountB:              amountB,
		FeeTier:              fee,
		FeeRate:              fee,
		TickLower:            pos.TickLower,
		TickUpper:            pos.TickUpper,
		CoinsOwedX:           pos.TokenAFee,
		CoinsOwedY:           pos.TokenBFee,
		FeeGrowthInsideXLast: pos.FeeGrowthCoinA,
		FeeGrowthInsideYLast: pos.FeeGrowthCoinB,
		RewardInfos:          []json.RawMessage{},
	}
	if fee != nil {
		out.AprBreakdown.Native = *fee
	}
	if pos.TickLower != nil {
		out.PriceRange.Min = clmm.TickToPrice(*pos.TickLower)
	}
	if pos.TickUpper != nil {
		out.PriceRange.Max = clmm.TickToPrice(*pos.TickUpper)
	}
	if tokenA == "" && tokenB == "" {
		out.PoolSymbol = ""
	}

	return out.WithDefaults(), nil
}
