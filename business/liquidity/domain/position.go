// Package domain contains the core domain types for the liquidity context.
package domain

import (
	"encoding/json"
	"fmt"
)

// Dex identifies the protocol a record came from.
type Dex string

const (
	DexBluefin Dex = "bluefin"
	DexFlowX   Dex = "flowx"
)

// ParseDex maps a source parameter to a Dex, defaulting to Bluefin when empty.
func ParseDex(source string) (Dex, error) {
	switch Dex(source) {
	case "":
		return DexBluefin, nil
	case DexBluefin, DexFlowX:
		return Dex(source), nil
	default:
		return "", fmt.Errorf("unknown source %q", source)
	}
}

// AprBreakdown splits APR into fee and reward components.
type AprBreakdown struct {
	Native  float64 `json:"native"`
	Rewards float64 `json:"rewards"`
}

// PriceRange is the price interval covered by a position.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// NormalizedPosition is the provider-independent liquidity position record.
// Integer quantities are decimal strings so no precision is lost.
type NormalizedPosition struct {
	PoolID        string `json:"poolId"`
	PoolAddress   string `json:"poolAddress"`
	PositionID    string `json:"positionId"`
	Owner         string `json:"owner"`
	Dex           Dex    `json:"dex"`
	PoolSymbol    string `json:"poolSymbol"`
	Liquidity     string `json:"liquidity"`
	PoolLiquidity string `json:"poolLiquidity"`
	TokenA        string `json:"tokenA"`
	TokenB        string `json:"tokenB"`
	AmountA       string `json:"amountA"`
	AmountB       string `json:"amountB"`

	FeeTier   *float64 `json:"feeTier,omitempty"`
	FeeRate   *float64 `json:"feeRate,omitempty"`
	TickLower *int32   `json:"tickLower,omitempty"`
	TickUpper *int32   `json:"tickUpper,omitempty"`

	AllocationPct float64      `json:"allocationPct"`
	Apr           float64      `json:"apr"`
	AprBreakdown  AprBreakdown `json:"aprBreakdown"`
	TvlUSD        float64      `json:"tvlUsd"`
	PriceRange    PriceRange   `json:"priceRange"`

	CoinsOwedX           string `json:"coinsOwedX"`
	CoinsOwedY           string `json:"coinsOwedY"`
	FeeGrowthInsideXLast string `json:"feeGrowthInsideXLast"`
	FeeGrowthInsideYLast string `json:"feeGrowthInsideYLast"`

	RewardInfos []json.RawMessage `json:"rewardInfos"`
}

// WithDefaults returns p with list fields that must never be null filled in.
func (p NormalizedPosition) WithDefaults() NormalizedPosition {
	if p.RewardInfos == nil {
		p.RewardInfos = []json.RawMessage{}
	}
	if p.PoolAddress == "" {
		p.PoolAddress = p.PoolID
	}
	return p
}

// CombinedPositions is the fixed-shape result of querying both providers.
type CombinedPositions struct {
	Bluefin []NormalizedPosition `json:"bluefin"`
	FlowX   []NormalizedPosition `json:"flowx"`
}
