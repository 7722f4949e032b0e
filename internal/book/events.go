package book

import (
	"fmt"

	"github.com/clmmsim/backtester/eventsource"
)

// ApplyEvent applies one (already-oriented -- see replay.invertEvent for
// backward mode) pool event to the book: a Swap runs
// SimulateSwapWithFees; Increase/DecreaseLiquidity adjust bucket liquidity
// directly (used for raw liquidity-provision events from third parties,
// not this backtest's own positions, which flow through AddPosition/
// RemovePosition instead). Malformed liquidity events (missing tick
// bounds) are reported via the returned bool so the caller can log and
// skip, per spec.md §7.
func (b *Book) ApplyEvent(ev eventsource.Event) (applied bool, err error) {
	b.SetBlockTime(ev.BlockTime)

	switch ev.Kind {
	case eventsource.Swap:
		isSell := ev.TokenIn == eventsource.TokenA
		_, err := b.SimulateSwapWithFees(ev.AmountIn, isSell)
		if err != nil && err != ErrInsufficientLiquidity {
			return false, err
		}
		return true, nil

	case eventsource.IncreaseLiquidity, eventsource.DecreaseLiquidity:
		if !ev.HasTickBounds() {
			return false, nil
		}
		increase := ev.Kind == eventsource.IncreaseLiquidity
		if err := b.UpdateLiquidity(ev.Lower, ev.Upper, ev.Liquidity, increase); err != nil {
			return false, fmt.Errorf("book: apply liquidity event %d: %w", ev.TxID, err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("book: unknown event kind %v", ev.Kind)
	}
}
