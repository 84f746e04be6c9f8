package domain

import "encoding/json"

// BatchItemErrorMessage is reported in place of a pool that failed to load.
const BatchItemErrorMessage = "Failed to fetch pool"

// PoolCoin is one side of a pool with its USD price when known.
type PoolCoin struct {
	CoinType          string   `json:"coinType"`
	DerivedPriceInUSD *float64 `json:"derivedPriceInUSD,omitempty"`
}

// PoolStats is the summarized state of a FlowX pool.
type PoolStats struct {
	ID        string     `json:"id"`
	Fee       float64    `json:"fee"`
	Liquidity string     `json:"liquidity"`
	Reserves  []string   `json:"reserves"`
	Coins     []PoolCoin `json:"coins"`
}

// BatchItemError takes the slot of a pool whose lookup failed.
type BatchItemError struct {
	PoolID string `json:"poolId"`
	Error  string `json:"error"`
}

// NewBatchItemError builds the fixed per-item failure record.
func NewBatchItemError(poolID string) BatchItemError {
	return BatchItemError{PoolID: poolID, Error: BatchItemErrorMessage}
}

// RawPool is a provider pool object passed through without reshaping.
type RawPool = json.RawMessage
