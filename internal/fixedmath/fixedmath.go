// Package fixedmath implements the 256-bit fixed-point arithmetic that
// underlies the simulator: tick/sqrt-price conversions and the
// liquidity/amount/swap formulas of a Uniswap-v3-style concentrated
// liquidity pool. All quantities flow through github.com/holiman/uint256.Int
// (U256); prices are carried as Q64.64 fixed point (scale = 2^64).
//
// Every function here is pure and stateless: no function retains or mutates
// state across calls, matching the "no global mutable state" design note.
package fixedmath

import (
	"errors"
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrArithmeticOverflow is returned when a U256 multiplication or
	// addition would wrap around 2^256.
	ErrArithmeticOverflow = errors.New("fixedmath: arithmetic overflow")
	// ErrDivByZero is returned when a formula's denominator is zero --
	// an empty tick range or a zero-liquidity bucket.
	ErrDivByZero = errors.New("fixedmath: division by zero")
)

// Q64 is the fixed-point scale (2^64) used throughout the sqrt-price and
// fee-growth domains.
var Q64 = new(uint256.Int).Lsh(uint256.NewInt(1), 64)

const tickBase = 1.0001

// mul multiplies two U256 values, failing on overflow rather than wrapping.
func mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return z, nil
}

// mulDiv computes floor(x*y/d) using a 512-bit intermediate product so the
// multiplication itself never overflows, matching the Uniswap-style
// mulDiv primitive this simulator's formulas all reduce to.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivByZero
	}
	res, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return res, nil
}

// div computes floor(x/y).
func div(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrDivByZero
	}
	return new(uint256.Int).Div(x, y), nil
}

// TickToSqrtPrice evaluates sqrtPrice(tick) = 1.0001^(tick/2) * 2^64 using a
// double-precision shortcut. spec.md tolerates up to 1e-4 relative error
// across the supported tick range; an exact integer algorithm (repeated
// squaring of precomputed per-bit multipliers, as Uniswap v3 itself does) is
// an equally valid implementation the spec explicitly allows.
func TickToSqrtPrice(tick int32) (*uint256.Int, error) {
	sqrt := math.Pow(tickBase, float64(tick)/2)
	scaled := new(big.Float).Mul(big.NewFloat(sqrt), new(big.Float).SetInt(Q64.ToBig()))
	i, _ := scaled.Int(nil)
	if i.Sign() < 0 || i.BitLen() > 256 {
		return nil, ErrArithmeticOverflow
	}
	out, overflow := uint256.FromBig(i)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return out, nil
}

// PriceToTick inverts TickToSqrtPrice: given a human price (tokenB per
// tokenA, already decimal-adjusted by decimalDiff = decimalsA - decimalsB),
// returns floor(2*ln(sqrt(price/10^decimalDiff)) / ln(1.0001)).
func PriceToTick(price float64, decimalDiff int) int32 {
	adjusted := price / math.Pow(10, float64(decimalDiff))
	t := 2 * math.Log(math.Sqrt(adjusted)) / math.Log(tickBase)
	return int32(math.Floor(t))
}

// SqrtPriceToPrice converts a Q64.64 sqrt-price back to a human float price
// (tokenB per tokenA). Used only for reporting/telemetry, never in the
// integer swap path.
func SqrtPriceToPrice(sqrt *uint256.Int) float64 {
	f := new(big.Float).SetInt(sqrt.ToBig())
	scale := new(big.Float).SetInt(Q64.ToBig())
	ratio, _ := new(big.Float).Quo(f, scale).Float64()
	return ratio * ratio
}

// CalcLiquidityA returns the liquidity supported by amountA of token A over
// [sqrtLower, sqrtUpper]: amountA*sqrtLower*sqrtUpper / (2^64*(sqrtUpper-sqrtLower)).
func CalcLiquidityA(amountA, sqrtLower, sqrtUpper *uint256.Int) (*uint256.Int, error) {
	if sqrtUpper.Cmp(sqrtLower) <= 0 {
		return nil, ErrDivByZero
	}
	width := new(uint256.Int).Sub(sqrtUpper, sqrtLower)
	denom, err := mul(Q64, width)
	if err != nil {
		return nil, err
	}
	num, err := mul(amountA, sqrtLower)
	if err != nil {
		return nil, err
	}
	return mulDiv(num, sqrtUpper, denom)
}

// CalcLiquidityB returns the liquidity supported by amountB of token B over
// [sqrtLower, sqrtUpper]: amountB*2^64 / (sqrtUpper-sqrtLower).
func CalcLiquidityB(amountB, sqrtLower, sqrtUpper *uint256.Int) (*uint256.Int, error) {
	if sqrtUpper.Cmp(sqrtLower) <= 0 {
		return nil, ErrDivByZero
	}
	width := new(uint256.Int).Sub(sqrtUpper, sqrtLower)
	return mulDiv(amountB, Q64, width)
}

// CalcLiquidity dispatches to CalcLiquidityA/CalcLiquidityB depending on
// where the current sqrt-price sits relative to the range, per spec.md
// §4.1: at the boundaries only one side is binding; inside the range the
// smaller of the two implied liquidities governs (the excess of the other
// token is left idle).
func CalcLiquidity(amountA, amountB, sqrt, sqrtLower, sqrtUpper *uint256.Int) (*uint256.Int, error) {
	switch {
	case sqrt.Cmp(sqrtLower) <= 0:
		return CalcLiquidityA(amountA, sqrtLower, sqrtUpper)
	case sqrt.Cmp(sqrtUpper) >= 0:
		return CalcLiquidityB(amountB, sqrtLower, sqrtUpper)
	default:
		la, err := CalcLiquidityA(amountA, sqrt, sqrtUpper)
		if err != nil {
			return nil, err
		}
		lb, err := CalcLiquidityB(amountB, sqrtLower, sqrt)
		if err != nil {
			return nil, err
		}
		if la.Cmp(lb) < 0 {
			return la, nil
		}
		return lb, nil
	}
}

// CalcTokenA returns the amount of token A represented by liquidity over
// [sqrt, sqrtUpper]: liquidity*(sqrtUpper-sqrt)*2^64 / (sqrt*sqrtUpper).
func CalcTokenA(liquidity, sqrt, sqrtUpper *uint256.Int) (*uint256.Int, error) {
	if sqrt.IsZero() || sqrtUpper.IsZero() {
		return nil, ErrDivByZero
	}
	if sqrtUpper.Cmp(sqrt) <= 0 {
		return uint256.NewInt(0), nil
	}
	diff := new(uint256.Int).Sub(sqrtUpper, sqrt)
	num, err := mul(liquidity, diff)
	if err != nil {
		return nil, err
	}
	num, err = mul(num, Q64)
	if err != nil {
		return nil, err
	}
	denom, err := mul(sqrt, sqrtUpper)
	if err != nil {
		return nil, err
	}
	return div(num, denom)
}

// CalcTokenB returns the amount of token B represented by liquidity over
// [sqrtLower, sqrt]: liquidity*(sqrt-sqrtLower) / 2^64.
func CalcTokenB(liquidity, sqrt, sqrtLower *uint256.Int) (*uint256.Int, error) {
	if sqrt.Cmp(sqrtLower) <= 0 {
		return uint256.NewInt(0), nil
	}
	diff := new(uint256.Int).Sub(sqrt, sqrtLower)
	return mulDiv(liquidity, diff, Q64)
}

// CalcAmounts is the dual of CalcLiquidity: given liquidity and a sqrt-price
// range, returns the (amountA, amountB) actually represented, splitting
// across the three below/inside/above regions.
func CalcAmounts(liquidity, sqrt, sqrtLower, sqrtUpper *uint256.Int) (amountA, amountB *uint256.Int, err error) {
	switch {
	case sqrt.Cmp(sqrtLower) <= 0:
		a, err := CalcTokenA(liquidity, sqrtLower, sqrtUpper)
		if err != nil {
			return nil, nil, err
		}
		return a, uint256.NewInt(0), nil
	case sqrt.Cmp(sqrtUpper) >= 0:
		b, err := CalcTokenB(liquidity, sqrtUpper, sqrtLower)
		if err != nil {
			return nil, nil, err
		}
		return uint256.NewInt(0), b, nil
	default:
		a, err := CalcTokenA(liquidity, sqrt, sqrtUpper)
		if err != nil {
			return nil, nil, err
		}
		b, err := CalcTokenB(liquidity, sqrt, sqrtLower)
		if err != nil {
			return nil, nil, err
		}
		return a, b, nil
	}
}

// NextSqrtPrice advances the sqrt-price by a swap input of deltaIn against
// active liquidity L, per spec.md §4.1:
//
//	isSell (A in):  sqrt' = L*sqrt / (L + deltaIn*sqrt/2^64)
//	else   (B in):  sqrt' = sqrt + deltaIn*2^64/L
func NextSqrtPrice(sqrt, liquidity, deltaIn *uint256.Int, isSell bool) (*uint256.Int, error) {
	if liquidity.IsZero() {
		return nil, ErrDivByZero
	}
	if isSell {
		term, err := mulDiv(deltaIn, sqrt, Q64)
		if err != nil {
			return nil, err
		}
		denom := new(uint256.Int).Add(liquidity, term)
		if denom.IsZero() {
			return nil, ErrDivByZero
		}
		return mulDiv(liquidity, sqrt, denom)
	}
	delta, err := mulDiv(deltaIn, Q64, liquidity)
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(sqrt, delta)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return sum, nil
}
