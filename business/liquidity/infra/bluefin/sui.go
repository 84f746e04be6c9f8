package bluefin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// moveNumber is a Move integer as it appears in Sui JSON: u64 and wider are
// strings, narrower ints are numbers. It is kept as a decimal string.
type moveNumber string

func (n *moveNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	for _, c := range data {
		if c < '0' || c > '9' {
			return fmt.Errorf("not an unsigned integer: %q", data)
		}
	}
	*n = moveNumber(data)
	return nil
}

func (n moveNumber) String() string { return string(n) }

// moveI32 decodes the i32::I32 struct, whose value is stored as two's-complement u32 bits.
type moveI32 struct {
	Value int32
	Set   bool
}

func (i *moveI32) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw moveNumber
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Fields struct {
				Bits moveNumber `json:"bits"`
			} `json:"fields"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		raw = wrapper.Fields.Bits
	} else if err := raw.UnmarshalJSON(data); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	bits, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return fmt.Errorf("i32 bits: %w", err)
	}
	i.Value = int32(uint32(bits))
	i.Set = true
	return nil
}

type uid struct {
	ID string `json:"id"`
}

type objectOwner struct {
	AddressOwner string `json:"AddressOwner"`
}

type moveContent struct {
	DataType string          `json:"dataType"`
	Type     string          `json:"type"`
	Fields   json.RawMessage `json:"fields"`
}

type objectData struct {
	ObjectID string          `json:"objectId"`
	Type     string          `json:"type"`
	Owner    json.RawMessage `json:"owner"`
	Content  *moveContent    `json:"content"`
}

type objectResponse struct {
	Data  *objectData     `json:"data"`
	Error json.RawMessage `json:"error,omitempty"`
}

type ownedObjectsPage struct {
	Data        []objectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

type positionFields struct {
	ID             uid        `json:"id"`
	PoolID         string     `json:"pool_id"`
	CoinTypeA      string     `json:"coin_type_a"`
	CoinTypeB      string     `json:"coin_type_b"`
	LowerTick      moveI32    `json:"lower_tick"`
	UpperTick      moveI32    `json:"upper_tick"`
	Liquidity      moveNumber `json:"liquidity"`
	FeeGrowthCoinA moveNumber `json:"fee_growth_coin_a"`
	FeeGrowthCoinB moveNumber `json:"fee_growth_coin_b"`
	TokenAFee      moveNumber `json:"token_a_fee"`
	TokenBFee      moveNumber `json:"token_b_fee"`
	FeeRate        moveNumber `json:"fee_rate"`
}

type poolFields struct {
	ID               uid        `json:"id"`
	Name             string     `json:"name"`
	CurrentSqrtPrice moveNumber `json:"current_sqrt_price"`
	CurrentTickIndex moveI32    `json:"current_tick_index"`
	Liquidity        moveNumber `json:"liquidity"`
	FeeRate          moveNumber `json:"fee_rate"`
}

// RawPosition is a Bluefin position object read from chain.
type RawPosition struct {
	ID             string
	PoolID         string
	Owner          string
	CoinTypeA      string
	CoinTypeB      string
	TickLower      *int32
	TickUpper      *int32
	Liquidity      string
	FeeGrowthCoinA string
	FeeGrowthCoinB string
	TokenAFee      string
	TokenBFee      string
	FeeRate        string
}

// RawPool is a Bluefin pool object read from chain.
type RawPool struct {
	ID               string
	CoinTypeA        string
	CoinTypeB        string
	CurrentSqrtPrice string
	CurrentTick      int32
	Liquidity        string
	FeeRate          string
}

func optionalTick(t moveI32) *int32 {
	if !t.Set {
		return nil
	}
	v := t.Value
	return &v
}

func decodePosition(obj *objectData) (RawPosition, error) {
	if obj == nil || obj.Content == nil {
		return RawPosition{}, fmt.Errorf("position object has no content")
	}
	var f positionFields
	if err := json.Unmarshal(obj.Content.Fields, &f); err != nil {
		return RawPosition{}, fmt.Errorf("decode position %s: %w", obj.ObjectID, err)
	}

	var owner objectOwner
	if len(obj.Owner) > 0 {
		// Shared or immutable owners decode to the zero value.
		_ = json.Unmarshal(obj.Owner, &owner)
	}

	id := f.ID.ID
	if id == "" {
		id = obj.ObjectID
	}

	return RawPosition{
		ID:             id,
		PoolID:         f.PoolID,
		Owner:          owner.AddressOwner,
		CoinTypeA:      normalizeCoinType(f.CoinTypeA),
		CoinTypeB:      normalizeCoinType(f.CoinTypeB),
		TickLower:      optionalTick(f.LowerTick),
		TickUpper:      optionalTick(f.UpperTick),
		Liquidity:      f.Liquidity.String(),
		FeeGrowthCoinA: f.FeeGrowthCoinA.String(),
		FeeGrowthCoinB: f.FeeGrowthCoinB.String(),
		TokenAFee:      f.TokenAFee.String(),
		TokenBFee:      f.TokenBFee.String(),
		FeeRate:        f.FeeRate.String(),
	}, nil
}

func decodePool(obj *objectData) (RawPool, error) {
	if obj == nil || obj.Content == nil {
		return RawPool{}, fmt.Errorf("pool object has no content")
	}
	var f poolFields
	if err := json.Unmarshal(obj.Content.Fields, &f); err != nil {
		return RawPool{}, fmt.Errorf("decode pool %s: %w", obj.ObjectID, err)
	}

	typeName := obj.Content.Type
	if typeName == "" {
		typeName = obj.Type
	}
	params := typeParams(typeName)

	pool := RawPool{
		ID:               obj.ObjectID,
		CurrentSqrtPrice: f.CurrentSqrtPrice.String(),
		CurrentTick:      f.CurrentTickIndex.Value,
		Liquidity:        f.Liquidity.String(),
		FeeRate:          f.FeeRate.String(),
	}
	if len(params) >= 2 {
		pool.CoinTypeA = normalizeCoinType(params[0])
		pool.CoinTypeB = normalizeCoinType(params[1])
	}
	return pool, nil
}

// typeParams returns the top-level generic arguments of a Move type,
// e.g. "0x1::pool::Pool<0x2::sui::SUI, 0x3::x::Y<0x4::z::Z>>" yields two entries.
func typeParams(typeName string) []string {
	start := strings.IndexByte(typeName, '<')
	if start < 0 || !strings.HasSuffix(typeName, ">") {
		return nil
	}
	inner := typeName[start+1 : len(typeName)-1]

	var (
		params []string
		depth  int
		from   int
	)
	for i, c := range inner {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[from:i]))
				from = i + 1
			}
		}
	}
	if last := strings.TrimSpace(inner[from:]); last != "" {
		params = append(params, last)
	}
	return params
}

// normalizeCoinType prefixes the address part of a type name with 0x.
// Move TypeName strings are stored without it.
func normalizeCoinType(t string) string {
	if t == "" || strings.HasPrefix(t, "0x") {
		return t
	}
	if strings.Contains(t, "::") {
		return "0x" + t
	}
	return t
}
