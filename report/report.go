// Package report computes fees-earned and profit-and-loss-versus-hold
// figures for a completed backtest run, grounded on the teacher's
// pkg/backtest/result.go (Result/ValuePoint/calculateMetrics) and its use
// of shopspring/decimal-backed primitives for human-facing arithmetic. The
// CLMM-specific "value vs. a pure hold baseline" comparison itself has no
// teacher analogue (the teacher's Result only reports absolute portfolio
// value), so it is built fresh in the teacher's idiom: value conversions
// use the fixedmath/uint256 domain internally, then cross into
// primitives.Decimal only at the reporting boundary.
package report

import (
	"fmt"
	"math/big"

	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/primitives"
	"github.com/holiman/uint256"
)

// ValuePoint is a single wallet-value sample, taken once per replayed
// event, mirroring the teacher's backtest.ValuePoint.
type ValuePoint struct {
	TxID    int64
	Time    primitives.Time
	ValueA  primitives.Decimal // wallet value expressed in token A units
}

// Report is the outcome of a completed run.
type Report struct {
	InitialAmountA primitives.Decimal
	InitialAmountB primitives.Decimal
	FinalAmountA   primitives.Decimal
	FinalAmountB   primitives.Decimal

	FeesCollectedA primitives.Decimal
	FeesCollectedB primitives.Decimal

	InitialValueA primitives.Decimal
	FinalValueA   primitives.Decimal
	HoldValueA    primitives.Decimal

	PnLVsHoldA       primitives.Decimal
	PnLVsHoldPercent primitives.Decimal

	ValueHistory []ValuePoint
}

func u256ToDecimal(x *uint256.Int) primitives.Decimal {
	f, _ := new(big.Float).SetInt(x.ToBig()).Float64()
	return primitives.NewDecimalFromFloat(f)
}

// ValueInA converts a (amountA, amountB) balance to a single value
// expressed in token A units at the given sqrt-price: a + b/price.
func ValueInA(amountA, amountB *uint256.Int, sqrtPrice *uint256.Int) primitives.Decimal {
	price := fixedmath.SqrtPriceToPrice(sqrtPrice)
	a := u256ToDecimal(amountA)
	if price == 0 {
		return a
	}
	b := u256ToDecimal(amountB)
	bInA, err := b.Div(primitives.NewDecimalFromFloat(price))
	if err != nil {
		return a
	}
	return a.Add(bInA)
}

// Build computes the final Report from the initial/final wallet state, the
// fee income collected, the final sqrt-price, and the accumulated value
// history.
func Build(
	initialA, initialB, finalA, finalB *uint256.Int,
	feesA, feesB *uint256.Int,
	startSqrtPrice, finalSqrtPrice *uint256.Int,
	history []ValuePoint,
) (*Report, error) {
	if finalSqrtPrice == nil || startSqrtPrice == nil {
		return nil, fmt.Errorf("report: start and final sqrt price are required")
	}

	initialValue := ValueInA(initialA, initialB, startSqrtPrice)
	finalValue := ValueInA(finalA, finalB, finalSqrtPrice)
	// Hold baseline: the initial holdings, never deployed to the pool,
	// marked to the final price -- the counterfactual the PnL compares
	// the LP strategy's actual outcome against.
	holdValue := ValueInA(initialA, initialB, finalSqrtPrice)

	pnl := finalValue.Sub(holdValue)
	var pnlPct primitives.Decimal
	if !holdValue.IsZero() {
		pct, err := pnl.Div(holdValue)
		if err == nil {
			pnlPct = pct.Mul(primitives.NewDecimal(100))
		}
	}

	return &Report{
		InitialAmountA:   u256ToDecimal(initialA),
		InitialAmountB:   u256ToDecimal(initialB),
		FinalAmountA:     u256ToDecimal(finalA),
		FinalAmountB:     u256ToDecimal(finalB),
		FeesCollectedA:   u256ToDecimal(feesA),
		FeesCollectedB:   u256ToDecimal(feesB),
		InitialValueA:    initialValue,
		FinalValueA:      finalValue,
		HoldValueA:       holdValue,
		PnLVsHoldA:       pnl,
		PnLVsHoldPercent: pnlPct,
		ValueHistory:     history,
	}, nil
}

// Summary returns a human-readable report, mirroring the teacher's
// Result.Summary().
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Backtest Report:\n"+
			"  Initial Value (token A terms): %s\n"+
			"  Final Value (token A terms):   %s\n"+
			"  Hold Baseline Value:           %s\n"+
			"  PnL vs Hold:                   %s (%s%%)\n"+
			"  Fees Collected: A=%s B=%s\n"+
			"  Samples: %d",
		r.InitialValueA.String(),
		r.FinalValueA.String(),
		r.HoldValueA.String(),
		r.PnLVsHoldA.String(),
		r.PnLVsHoldPercent.String(),
		r.FeesCollectedA.String(),
		r.FeesCollectedB.String(),
		len(r.ValueHistory),
	)
}
