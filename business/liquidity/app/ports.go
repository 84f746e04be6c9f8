// Package app contains application services and port definitions for the liquidity context.
package app

import (
	"context"

	"github.com/fd1az/pool-service/business/liquidity/domain"
)

// PositionProvider is implemented by each DEX adapter.
type PositionProvider interface {
	// Dex identifies the provider.
	Dex() domain.Dex

	// LiquidityPositions returns every position owned by address, in provider order.
	// A wallet without positions yields an empty slice.
	LiquidityPositions(ctx context.Context, address string) ([]domain.NormalizedPosition, error)

	// PoolStats returns the current state of one pool.
	PoolStats(ctx context.Context, poolID string) (any, error)

	// BatchPoolStats returns the state of several pools. Whether one failure
	// fails the batch or only its slot is provider-defined.
	BatchPoolStats(ctx context.Context, poolIDs []string) ([]any, error)
}

// ProfitEstimator values unclaimed fees for a wallet.
type ProfitEstimator interface {
	EstimateTotalProfit(ctx context.Context, address string) (*domain.ProfitSummary, error)
}
