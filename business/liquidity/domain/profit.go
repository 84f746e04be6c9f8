package domain

// PositionProfit is the unclaimed fee valuation of one position.
type PositionProfit struct {
	PoolID           string  `json:"poolId"`
	TokenA           string  `json:"tokenA"`
	TokenB           string  `json:"tokenB"`
	UnclaimedX       float64 `json:"unclaimedX"`
	UnclaimedY       float64 `json:"unclaimedY"`
	UnclaimedXSymbol string  `json:"unclaimedXSymbol"`
	UnclaimedYSymbol string  `json:"unclaimedYSymbol"`
	UnclaimedXUSD    float64 `json:"unclaimedXUSD"`
	UnclaimedYUSD    float64 `json:"unclaimedYUSD"`
}

// ProfitSummary aggregates unclaimed fees across a wallet's positions.
type ProfitSummary struct {
	Positions             []PositionProfit `json:"positions"`
	TotalUnclaimedFeesUSD float64          `json:"totalUnclaimedFeesUSD"`
}
