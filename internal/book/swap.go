package book

import (
	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/holiman/uint256"
)

// SwapResult is the outcome of a single simulated swap.
type SwapResult struct {
	AmountOut *uint256.Int
	NewSqrt   *uint256.Int
	NewTick   int32
	Partial   bool // true if InsufficientLiquidity truncated the fill
}

// SimulateSwap runs the core swap state machine of spec.md §4.2: it walks
// the tick buckets from the current price, consuming amountIn one bucket at
// a time, until the input is exhausted or the book runs out of liquidity.
// It mutates no book state directly except `b.state` (tick/sqrt-price/
// active liquidity) and does so only once the full walk succeeds or
// partially fills -- the intermediate walk operates on local copies so a
// failure never leaves the book half-updated.
func (b *Book) SimulateSwap(amountIn *uint256.Int, isSell bool) (SwapResult, error) {
	remaining := new(uint256.Int).Set(amountIn)
	amountOut := uint256.NewInt(0)
	tick := b.state.CurrentTick
	sqrt := new(uint256.Int).Set(b.state.CurrentSqrtPrice)

	for {
		bucket := b.bucketAt(tick)
		liquidity := bucket.Liquidity

		sqrtLower, err := fixedmath.TickToSqrtPrice(bucket.Lower)
		if err != nil {
			return SwapResult{}, err
		}
		sqrtUpper, err := fixedmath.TickToSqrtPrice(bucket.Upper)
		if err != nil {
			return SwapResult{}, err
		}

		if liquidity.IsZero() {
			if stepped := b.stepToNextBucket(&tick, &sqrt, isSell, sqrtLower, sqrtUpper); !stepped {
				return b.partialFill(amountOut, sqrt, tick), ErrInsufficientLiquidity
			}
			continue
		}

		var maxInToEdge *uint256.Int
		if isSell {
			maxInToEdge, err = fixedmath.CalcTokenA(liquidity, sqrtLower, sqrt)
		} else {
			maxInToEdge, err = fixedmath.CalcTokenA(liquidity, sqrt, sqrtUpper)
		}
		if err != nil {
			return SwapResult{}, err
		}

		if remaining.Cmp(maxInToEdge) <= 0 {
			newSqrt, err := fixedmath.NextSqrtPrice(sqrt, liquidity, remaining, isSell)
			if err != nil {
				return SwapResult{}, err
			}
			var out *uint256.Int
			if isSell {
				out, err = fixedmath.CalcTokenB(liquidity, sqrt, newSqrt)
			} else {
				out, err = fixedmath.CalcTokenA(liquidity, sqrt, newSqrt)
			}
			if err != nil {
				return SwapResult{}, err
			}
			amountOut = new(uint256.Int).Add(amountOut, out)
			sqrt = newSqrt
			remaining = uint256.NewInt(0)
			break
		}

		var out *uint256.Int
		if isSell {
			out, err = fixedmath.CalcTokenB(liquidity, sqrt, sqrtLower)
		} else {
			out, err = fixedmath.CalcTokenA(liquidity, sqrt, sqrtUpper)
		}
		if err != nil {
			return SwapResult{}, err
		}
		amountOut = new(uint256.Int).Add(amountOut, out)
		remaining = new(uint256.Int).Sub(remaining, maxInToEdge)

		if stepped := b.stepToNextBucket(&tick, &sqrt, isSell, sqrtLower, sqrtUpper); !stepped {
			return b.partialFill(amountOut, sqrt, tick), ErrInsufficientLiquidity
		}
	}

	b.commitSwap(sqrt, tick)
	return SwapResult{AmountOut: amountOut, NewSqrt: sqrt, NewTick: tick}, nil
}

// stepToNextBucket advances tick/sqrt to the next bucket edge in the swap
// direction, returning false if that would cross the configured bounds.
func (b *Book) stepToNextBucket(tick *int32, sqrt **uint256.Int, isSell bool, sqrtLower, sqrtUpper *uint256.Int) bool {
	if isSell {
		next := *tick - b.cfg.TickSpacing
		if next < b.cfg.MinTick {
			return false
		}
		*tick = next
		*sqrt = sqrtLower
	} else {
		next := *tick + b.cfg.TickSpacing
		if next > b.cfg.MaxTick {
			return false
		}
		*tick = next
		*sqrt = sqrtUpper
	}
	return true
}

func (b *Book) partialFill(amountOut, sqrt *uint256.Int, tick int32) SwapResult {
	b.commitSwap(sqrt, tick)
	return SwapResult{AmountOut: amountOut, NewSqrt: sqrt, NewTick: tick, Partial: true}
}

func (b *Book) commitSwap(sqrt *uint256.Int, tick int32) {
	b.state.CurrentSqrtPrice = sqrt
	b.state.CurrentTick = tick
	b.state.ActiveLiquidity = new(uint256.Int).Set(b.bucketAt(tick).Liquidity)
}

// FeeResult carries the fee split of a SimulateSwapWithFees call.
type FeeResult struct {
	SwapResult
	Fees *uint256.Int
}

// SimulateSwapWithFees splits amountIn into a fee and a net swap amount per
// spec.md §4.2, runs SimulateSwap on the net amount, then folds the fee
// into the global per-liquidity fee-growth accumulator for the side that
// paid it. Per DESIGN.md's resolution of spec.md §9's Open Question (b),
// fees are attributed to the input token (Uniswap v3 convention): a sell of
// A pays fees in A.
func (b *Book) SimulateSwapWithFees(amountIn *uint256.Int, isSell bool) (FeeResult, error) {
	fees := new(uint256.Int).Div(new(uint256.Int).Mul(amountIn, uint256.NewInt(uint64(b.state.FeeRateBps))), uint256.NewInt(10000))
	net := new(uint256.Int).Sub(amountIn, fees)

	activeLiquidity := b.state.ActiveLiquidity
	result, err := b.SimulateSwap(net, isSell)
	if err != nil && !result.Partial {
		return FeeResult{}, err
	}

	if !activeLiquidity.IsZero() && !fees.IsZero() {
		growth, gerr := new(uint256.Int).MulDivOverflow(fees, fixedmath.Q64, activeLiquidity)
		if gerr {
			return FeeResult{}, fixedmath.ErrArithmeticOverflow
		}
		if isSell {
			b.state.FeeGrowthGlobalA = new(uint256.Int).Add(b.state.FeeGrowthGlobalA, growth)
		} else {
			b.state.FeeGrowthGlobalB = new(uint256.Int).Add(b.state.FeeGrowthGlobalB, growth)
		}
	}

	b.state.SwapCount++
	b.state.VolumeTotal = new(uint256.Int).Add(b.state.VolumeTotal, amountIn)
	if !activeLiquidity.IsZero() {
		b.state.VolumeInPosition = new(uint256.Int).Add(b.state.VolumeInPosition, amountIn)
	}

	return FeeResult{SwapResult: result, Fees: fees}, err
}

// SetBlockTime records the block time of the most recently applied event,
// for DataLogger telemetry.
func (b *Book) SetBlockTime(t int64) { b.state.LastBlockTime = t }
