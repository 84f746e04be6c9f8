// Package clmm implements concentrated-liquidity price math in Q64.64 fixed point.
package clmm

import (
	"errors"
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

const (
	MinTick int32 = -443636
	MaxTick int32 = 443636
)

var (
	ErrTickOutOfRange = errors.New("tick out of range")
	ErrInvalidRange   = errors.New("lower bound must be below upper bound")
	ErrNilLiquidity   = errors.New("liquidity is required")
)

// Q64 is 2^64, the sqrt price of tick 0.
var Q64 = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

// Positive ticks accumulate in Q96 and are shifted down to Q64 at the end.
var positiveFactors = mustDecimals(
	"79236085330515764027303304731",
	"79244008939048815603706035061",
	"79259858533276714757314932305",
	"79291567232598584799939703904",
	"79355022692464371645785046466",
	"79482085999252804386437311141",
	"79736823300114093921829183326",
	"80248749790819932309965073892",
	"81282483887344747381513967011",
	"83390072131320151908154831281",
	"87770609709833776024991924138",
	"97234110755111693312479820773",
	"119332217159966728226237229890",
	"179736315981702064433883588727",
	"407748233172238350107850275304",
	"2098478828474011932436660412517",
	"55581415166113811149459800483533",
	"38992368544603139932233054999993551",
)

var negativeFactors = mustDecimals(
	"18444899583751176498",
	"18443055278223354162",
	"18439367220385604838",
	"18431993317065449817",
	"18417254355718160513",
	"18387811781193591352",
	"18329067761203520168",
	"18212142134806087854",
	"17980523815641551639",
	"17526086738831147013",
	"16651378430235024244",
	"15030750278693429944",
	"12247334978882834399",
	"8131365268884726200",
	"3584323654723342297",
	"696457651847595233",
	"26294789957452057",
	"37481735321082",
)

var (
	positiveOdd  = uint256.MustFromDecimal("79232123823359799118286999567")
	positiveEven = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	negativeOdd  = uint256.MustFromDecimal("18445821805675392311")
)

func mustDecimals(values ...string) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.MustFromDecimal(v)
	}
	return out
}

// SqrtPriceX64AtTick returns sqrt(1.0001^tick) * 2^64.
func SqrtPriceX64AtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	if tick >= 0 {
		return sqrtPriceAtPositiveTick(uint32(tick)), nil
	}
	return sqrtPriceAtNegativeTick(uint32(-tick)), nil
}

func sqrtPriceAtPositiveTick(abs uint32) *uint256.Int {
	ratio := new(uint256.Int).Set(positiveEven)
	if abs&1 != 0 {
		ratio.Set(positiveOdd)
	}
	for i, factor := range positiveFactors {
		if abs&(2<<i) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 96)
		}
	}
	return ratio.Rsh(ratio, 32)
}

func sqrtPriceAtNegativeTick(abs uint32) *uint256.Int {
	ratio := new(uint256.Int).Set(Q64)
	if abs&1 != 0 {
		ratio.Set(negativeOdd)
	}
	for i, factor := range negativeFactors {
		if abs&(2<<i) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 64)
		}
	}
	return ratio
}

// TickToPrice returns the raw token B per token A price at tick, 1.0001^tick.
func TickToPrice(tick int32) float64 {
	return math.Pow(1.0001, float64(tick))
}
