package replay

import "github.com/clmmsim/backtester/eventsource"

// invertEvent implements spec.md §4.4's backward-mode inversion, grounded
// on original_source/src/backtester/backtest_utils.rs's sync_backwards:
// IncreaseLiquidity becomes a decrement (and vice versa); a Swap is
// reversed by swapping AmountIn/AmountOut and flipping the input side.
func invertEvent(ev eventsource.Event) eventsource.Event {
	switch ev.Kind {
	case eventsource.IncreaseLiquidity:
		ev.Kind = eventsource.DecreaseLiquidity
	case eventsource.DecreaseLiquidity:
		ev.Kind = eventsource.IncreaseLiquidity
	case eventsource.Swap:
		ev.AmountIn, ev.AmountOut = ev.AmountOut, ev.AmountIn
		if ev.TokenIn == eventsource.TokenA {
			ev.TokenIn = eventsource.TokenB
		} else {
			ev.TokenIn = eventsource.TokenA
		}
	}
	return ev
}
