// Package strategy defines the pluggable strategy lifecycle (C5) and the
// Action vocabulary a strategy uses to open, close, and implicitly
// rebalance its liquidity positions. The interface is deliberately minimal
// -- strategies never touch the wallet directly, matching the teacher's
// pkg/strategy.Strategy design, generalized here from a single Rebalance
// call into the full init/update/finalize lifecycle
// original_source/src/backtester/backtester_core.rs's Strategy trait
// requires.
package strategy

import (
	"context"

	"github.com/holiman/uint256"
)

// BookView is the read-only slice of internal/book.Book a strategy is
// allowed to observe. internal/book.Book satisfies this interface
// structurally; strategy never imports internal/book, avoiding an import
// cycle with internal/position (which needs both).
type BookView interface {
	CurrentTick() int32
	CurrentSqrtPrice() *uint256.Int
	ActiveLiquidity() *uint256.Int
	FeeRateBps() int16
	TickSpacing() int32
	SwapCount() int64
	VolumeTotal() *uint256.Int
	VolumeInPosition() *uint256.Int
}

// Action is a strategy's output: either CreatePosition or ClosePosition.
// Implementations carry no behavior of their own -- PositionManager type
// switches on the concrete type, mirroring the teacher's
// strategy/action.go Action interface plus concrete structs pattern.
type Action interface {
	isAction()
}

// CreatePosition requests a new liquidity position over [Lower, Upper),
// funded from the entire wallet balance, per spec.md §3.
type CreatePosition struct {
	ID    string
	Lower int32
	Upper int32
}

func (CreatePosition) isAction() {}

// ClosePosition requests the named position be collected and removed.
type ClosePosition struct {
	ID string
}

func (ClosePosition) isAction() {}

// Strategy is polymorphic over the three lifecycle hooks plus Range, per
// spec.md §4.5.
type Strategy interface {
	// Init is called once before any event is replayed.
	Init(ctx context.Context) ([]Action, error)

	// Update is called once per replayed market event, after the event has
	// been applied to the book, with a read-only view of the post-event
	// state.
	Update(ctx context.Context, view BookView, txID int64) ([]Action, error)

	// Finalize is called once after the last event (or on cancellation).
	Finalize(ctx context.Context) ([]Action, error)

	// Range reports the strategy's current target tick range. Before a
	// position is opened, NoRebalanceStrategy already reports its fixed
	// range, while SimpleRebalanceStrategy reports (0, 0).
	Range() (lower, upper int32)
}
