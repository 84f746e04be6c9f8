package clmm

import (
	"errors"

	"github.com/holiman/uint256"
)

var errOverflow = errors.New("clmm: amount overflows 256 bits")

// Amounts are raw token amounts in base units.
type Amounts struct {
	A *uint256.Int
	B *uint256.Int
}

// Resolver turns a position's liquidity and bounds into token amounts.
type Resolver func(liquidity, current, lower, upper *uint256.Int, roundUp bool) (Amounts, error)

// CoinAmountsFromLiquidity splits liquidity between the two tokens given
// the current, lower and upper sqrt prices in Q64.64.
//
//	current < lower:          all in token A
//	lower <= current < upper: split
//	current >= upper:         all in token B
func CoinAmountsFromLiquidity(liquidity, current, lower, upper *uint256.Int, roundUp bool) (Amounts, error) {
	if liquidity == nil || current == nil || lower == nil || upper == nil {
		return Amounts{}, ErrNilLiquidity
	}
	if !lower.Lt(upper) {
		return Amounts{}, ErrInvalidRange
	}

	switch {
	case current.Lt(lower):
		a, err := deltaA(liquidity, lower, upper, roundUp)
		if err != nil {
			return Amounts{}, err
		}
		return Amounts{A: a, B: new(uint256.Int)}, nil
	case current.Lt(upper):
		a, err := deltaA(liquidity, current, upper, roundUp)
		if err != nil {
			return Amounts{}, err
		}
		b, err := deltaB(liquidity, lower, current, roundUp)
		if err != nil {
			return Amounts{}, err
		}
		return Amounts{A: a, B: b}, nil
	default:
		b, err := deltaB(liquidity, lower, upper, roundUp)
		if err != nil {
			return Amounts{}, err
		}
		return Amounts{A: new(uint256.Int), B: b}, nil
	}
}

// deltaA = L * (hi - lo) * 2^64 / (lo * hi)
func deltaA(liquidity, lo, hi *uint256.Int, roundUp bool) (*uint256.Int, error) {
	diff := new(uint256.Int).Sub(hi, lo)
	if diff.BitLen() > 192 {
		return nil, errOverflow
	}
	shifted := new(uint256.Int).Lsh(diff, 64)

	denominator, overflow := new(uint256.Int).MulOverflow(lo, hi)
	if overflow {
		return nil, errOverflow
	}
	if denominator.IsZero() {
		return new(uint256.Int), nil
	}

	out, overflow := new(uint256.Int).MulDivOverflow(liquidity, shifted, denominator)
	if overflow {
		return nil, errOverflow
	}
	if roundUp && !new(uint256.Int).MulMod(liquidity, shifted, denominator).IsZero() {
		out.AddUint64(out, 1)
	}
	return out, nil
}

// deltaB = L * (hi - lo) / 2^64
func deltaB(liquidity, lo, hi *uint256.Int, roundUp bool) (*uint256.Int, error) {
	diff := new(uint256.Int).Sub(hi, lo)
	product, overflow := new(uint256.Int).MulOverflow(liquidity, diff)
	if overflow {
		return nil, errOverflow
	}

	out := new(uint256.Int).Rsh(product, 64)
	if roundUp && product.Uint64() != 0 {
		out.AddUint64(out, 1)
	}
	return out, nil
}

// AmountsAtTicks resolves amounts for a position bounded by tick indexes.
func AmountsAtTicks(resolve Resolver, liquidity, current *uint256.Int, tickLower, tickUpper int32, roundUp bool) (Amounts, error) {
	lower, err := SqrtPriceX64AtTick(tickLower)
	if err != nil {
		return Amounts{}, err
	}
	upper, err := SqrtPriceX64AtTick(tickUpper)
	if err != nil {
		return Amounts{}, err
	}
	if resolve == nil {
		resolve = CoinAmountsFromLiquidity
	}
	return resolve(liquidity, current, lower, upper, roundUp)
}
