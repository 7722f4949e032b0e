package replay

import "github.com/clmmsim/backtester/eventsource"

// Config controls one replay run, analogous to the teacher's
// backtest.Config/DefaultConfig() pair (pkg/backtest/engine.go).
type Config struct {
	// Direction selects forward replay (Ascending, the normal mode, with
	// the strategy lifecycle fully engaged) or backward "sync from
	// latest" replay (Descending, a pure state-reconstruction pass per
	// spec.md §4.4 -- the strategy is never called in this mode).
	Direction eventsource.Direction

	// StartCursor, if non-nil, seeds the first page's cursor explicitly.
	// If nil in Descending mode, the engine seeds it from
	// Source.LatestSwap.
	StartCursor *eventsource.Cursor

	// EnableDetailedLogging mirrors the teacher's
	// Config.EnableDetailedLogging: when true, every applied event and
	// executed action is logged at Debug level in addition to being
	// recorded by the DataLogger.
	EnableDetailedLogging bool
}

// DefaultConfig returns forward replay from the beginning of the stream.
func DefaultConfig() Config {
	return Config{Direction: eventsource.Ascending}
}
