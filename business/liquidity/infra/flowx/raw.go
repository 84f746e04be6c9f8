package flowx

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// flexNumber holds a JSON number or numeric string as text. Non-numeric
// strings are kept so callers can decide how to coerce them; any other JSON
// value decodes as absent.
type flexNumber string

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = flexNumber(strings.TrimSpace(s))
	default:
		// Booleans, objects and arrays read as absent.
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			*n = ""
			return nil
		}
		*n = flexNumber(num.String())
	}
	return nil
}

func (n flexNumber) String() string { return string(n) }

// Decimal coerces to a decimal; absent or non-numeric values are zero.
func (n flexNumber) Decimal() decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Float coerces to float64; absent or non-numeric values are zero.
func (n flexNumber) Float() float64 {
	return n.Decimal().InexactFloat64()
}

// OptionalFloat is nil when the value is absent or non-numeric.
func (n flexNumber) OptionalFloat() *float64 {
	if n == "" {
		return nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// OptionalInt32 is nil when the value is absent or not an integer tick.
func (n flexNumber) OptionalInt32() *int32 {
	if n == "" {
		return nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil || !d.IsInteger() {
		return nil
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt32)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return nil
	}
	v := int32(d.IntPart())
	return &v
}

type apiCoin struct {
	CoinType          string     `json:"coinType"`
	DerivedPriceInUSD flexNumber `json:"derivedPriceInUSD"`
}

type apiApr struct {
	Total     flexNumber `json:"total"`
	FeeApr    flexNumber `json:"feeApr"`
	RewardApr flexNumber `json:"rewardApr"`
}

type apiDayStats struct {
	Apr      *apiApr    `json:"apr"`
	PriceMin flexNumber `json:"priceMin"`
	PriceMax flexNumber `json:"priceMax"`
}

// RawPool is a FlowX CLMM pool as served by the API.
type RawPool struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Fee       flexNumber   `json:"fee"`
	Liquidity flexNumber   `json:"liquidity"`
	Tvl       flexNumber   `json:"tvl"`
	Reserves  []flexNumber `json:"reserves"`
	Coins     []apiCoin    `json:"coins"`
	Day       *apiDayStats `json:"day"`
}

func (p *RawPool) coin(i int) apiCoin {
	if p == nil || i >= len(p.Coins) {
		return apiCoin{}
	}
	return p.Coins[i]
}

func (p *RawPool) reserve(i int) string {
	if p == nil || i >= len(p.Reserves) {
		return ""
	}
	return p.Reserves[i].String()
}

func (p *RawPool) apr() apiApr {
	if p == nil || p.Day == nil || p.Day.Apr == nil {
		return apiApr{}
	}
	return *p.Day.Apr
}

func (p *RawPool) day() apiDayStats {
	if p == nil || p.Day == nil {
		return apiDayStats{}
	}
	return *p.Day
}

// RawPosition is a FlowX CLMM position with its pool embedded.
type RawPosition struct {
	ID                   string            `json:"id"`
	Owner                string            `json:"owner"`
	Liquidity            flexNumber        `json:"liquidity"`
	TickLower            flexNumber        `json:"tickLower"`
	TickUpper            flexNumber        `json:"tickUpper"`
	CoinsOwedX           flexNumber        `json:"coinsOwedX"`
	CoinsOwedY           flexNumber        `json:"coinsOwedY"`
	FeeGrowthInsideXLast flexNumber        `json:"feeGrowthInsideXLast"`
	FeeGrowthInsideYLast flexNumber        `json:"feeGrowthInsideYLast"`
	RewardInfos          []json.RawMessage `json:"rewardInfos"`
	Pool                 *RawPool          `json:"pool"`
}

// envelope accepts both a bare payload and one wrapped in {"data": ...}.
func unwrapData(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return trimmed
}
