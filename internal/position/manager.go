package position

import (
	"math/big"

	"github.com/clmmsim/backtester/internal/book"
	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/pool"
	"github.com/holiman/uint256"
)

// Manager executes strategy actions (CreatePosition/ClosePosition) against
// a Wallet and a Book, per spec.md §4.3. Tolerance and slippage are fields
// of pool.Config, not package globals, so independent concurrent backtests
// never share mutable rebalance state (spec.md §5).
type Manager struct {
	cfg *pool.Config
}

// New builds a Manager bound to cfg's slippage/tolerance constants.
func New(cfg *pool.Config) *Manager {
	return &Manager{cfg: cfg}
}

func toFloat(x *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return f
}

func floatToU256(f float64) *uint256.Int {
	if f < 0 {
		f = 0
	}
	bi, _ := big.NewFloat(f).Int(nil)
	v, overflow := uint256.FromBig(bi)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return v
}

// CreatePosition implements spec.md §4.3's algorithm: compute the target
// ratio r for the range, compare against the wallet's current ratio r0,
// swap the minimum needed to close the gap (subject to a tolerance band
// and a slippage haircut on the swap output), mint the position from what
// remains, and credit unused residue back to the wallet.
func (m *Manager) CreatePosition(b *book.Book, w *Wallet, id string, lower, upper int32) error {
	sqrt := b.CurrentSqrtPrice()
	sqrtLower, err := fixedmath.TickToSqrtPrice(lower)
	if err != nil {
		return err
	}
	sqrtUpper, err := fixedmath.TickToSqrtPrice(upper)
	if err != nil {
		return err
	}

	// Step 1: target ratio r. Bounded in [0,1]; computed in float64 per
	// spec.md §9's explicit allowance for floating-point ratio shortcuts.
	var r float64
	switch {
	case sqrt.Cmp(sqrtUpper) >= 0:
		r = 0
	case sqrt.Cmp(sqrtLower) <= 0:
		r = 1
	default:
		num := toFloat(new(uint256.Int).Sub(sqrtUpper, sqrt))
		den := toFloat(new(uint256.Int).Sub(sqrtUpper, sqrtLower))
		r = num / den
	}

	// Step 2: current value in token A, current ratio r0.
	price := fixedmath.SqrtPriceToPrice(sqrt)
	a := toFloat(w.AmountA)
	bAmt := toFloat(w.AmountB)
	value := a
	if price > 0 {
		value += bAmt / price
	}
	var r0 float64
	if value > 0 {
		r0 = a / value
	}

	finalA, finalB := new(uint256.Int).Set(w.AmountA), new(uint256.Int).Set(w.AmountB)

	// Step 3: tolerance band -- skip the swap leg entirely.
	diff := r0 - r
	if diff < 0 {
		diff = -diff
	}
	if diff >= m.cfg.RebalanceTolerance {
		if r0 > r {
			// Step 4: sell A for B.
			var aNeeded *uint256.Int
			if r == 0 {
				aNeeded = uint256.NewInt(0)
			} else {
				bHyp := floatToU256((1 - r) * value * price)
				l, err := fixedmath.CalcLiquidityB(bHyp, sqrtLower, sqrt)
				if err != nil {
					return err
				}
				aNeeded, err = fixedmath.CalcTokenA(l, sqrt, sqrtUpper)
				if err != nil {
					return err
				}
			}
			if aNeeded.Cmp(finalA) > 0 {
				aNeeded = finalA
			}
			sellAmount := new(uint256.Int).Sub(finalA, aNeeded)
			if !sellAmount.IsZero() {
				result, err := b.SimulateSwap(sellAmount, true)
				if err != nil && !result.Partial {
					return err
				}
				out := applySlippage(result.AmountOut, m.cfg.SlippageBps)
				finalA = new(uint256.Int).Sub(finalA, sellAmount)
				finalB = new(uint256.Int).Add(finalB, out)
			}
		} else if r0 < r {
			// Step 5: sell B for A (symmetric).
			var bNeeded *uint256.Int
			if r == 1 {
				bNeeded = uint256.NewInt(0)
			} else {
				aHyp := floatToU256(r * value)
				l, err := fixedmath.CalcLiquidityA(aHyp, sqrt, sqrtUpper)
				if err != nil {
					return err
				}
				bNeeded, err = fixedmath.CalcTokenB(l, sqrt, sqrtLower)
				if err != nil {
					return err
				}
			}
			if bNeeded.Cmp(finalB) > 0 {
				bNeeded = finalB
			}
			sellAmount := new(uint256.Int).Sub(finalB, bNeeded)
			if !sellAmount.IsZero() {
				result, err := b.SimulateSwap(sellAmount, false)
				if err != nil && !result.Partial {
					return err
				}
				out := applySlippage(result.AmountOut, m.cfg.SlippageBps)
				finalB = new(uint256.Int).Sub(finalB, sellAmount)
				finalA = new(uint256.Int).Add(finalA, out)
			}
		}
	}

	// Step 6: mint the position from (finalA, finalB), credit residue.
	liquidity, err := fixedmath.CalcLiquidity(finalA, finalB, sqrt, sqrtLower, sqrtUpper)
	if err != nil {
		return err
	}
	aLP, bLP, err := fixedmath.CalcAmounts(liquidity, sqrt, sqrtLower, sqrtUpper)
	if err != nil {
		return err
	}

	if aLP.Cmp(finalA) > 0 || bLP.Cmp(finalB) > 0 {
		return ErrInsufficientBalance
	}
	w.AmountA = finalA
	w.AmountB = finalB
	if err := w.debitA(aLP); err != nil {
		return err
	}
	if err := w.debitB(bLP); err != nil {
		return err
	}

	return b.AddPosition(book.Position{
		ID:        id,
		LowerTick: lower,
		UpperTick: upper,
		Liquidity: liquidity,
	})
}

// ClosePosition implements spec.md §4.3: collect fees, remove the
// position, compute the withdrawn amounts at the *current* sqrt-price
// (not the price at creation), and credit the wallet.
func (m *Manager) ClosePosition(b *book.Book, w *Wallet, id string) error {
	feesA, feesB, err := b.CollectFees(id)
	if err != nil {
		return err
	}
	p, err := b.RemovePosition(id)
	if err != nil {
		return err
	}

	sqrt := b.CurrentSqrtPrice()
	sqrtLower, err := fixedmath.TickToSqrtPrice(p.LowerTick)
	if err != nil {
		return err
	}
	sqrtUpper, err := fixedmath.TickToSqrtPrice(p.UpperTick)
	if err != nil {
		return err
	}
	aOut, bOut, err := fixedmath.CalcAmounts(p.Liquidity, sqrt, sqrtLower, sqrtUpper)
	if err != nil {
		return err
	}

	w.creditA(aOut)
	w.creditB(bOut)
	w.creditA(feesA)
	w.creditB(feesB)
	w.FeesCollectedA = new(uint256.Int).Add(w.FeesCollectedA, feesA)
	w.FeesCollectedB = new(uint256.Int).Add(w.FeesCollectedB, feesB)
	return nil
}

// applySlippage haircuts a swap output by slippageBps/10000, per spec.md §4.3.
func applySlippage(amountOut *uint256.Int, slippageBps int32) *uint256.Int {
	factor := uint256.NewInt(uint64(10000 - slippageBps))
	return new(uint256.Int).Div(new(uint256.Int).Mul(amountOut, factor), uint256.NewInt(10000))
}
