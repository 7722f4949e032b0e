// Package eventsource defines the abstract, paginated stream of on-chain
// pool events the replay engine consumes (C6), plus two concrete
// implementations: an in-memory slice-backed source for tests and demos,
// and a gorm/sqlite-backed source demonstrating how a persistence-backed
// collaborator would satisfy the same interface. Chain ingestion (RPC,
// decoders, archive downloaders) remains out of scope per spec.md §1 --
// these implementations only read back events already materialized as Go
// values or rows.
package eventsource

import (
	"context"
	"errors"

	"github.com/holiman/uint256"
)

// TokenSide identifies which token of the pool moved in on a swap.
type TokenSide int

const (
	TokenA TokenSide = iota
	TokenB
)

// EventKind discriminates the three event shapes a pool emits.
type EventKind int

const (
	Swap EventKind = iota
	IncreaseLiquidity
	DecreaseLiquidity
)

func (k EventKind) String() string {
	switch k {
	case Swap:
		return "Swap"
	case IncreaseLiquidity:
		return "IncreaseLiquidity"
	case DecreaseLiquidity:
		return "DecreaseLiquidity"
	default:
		return "Unknown"
	}
}

// Event is a single totally-ordered (by TxID) pool event, as spec.md §3/§6
// describes it. Only the fields relevant to Kind are populated; the zero
// value of the others is ignored.
type Event struct {
	TxID      int64
	Signature string
	PoolID    string
	BlockTime int64
	Kind      EventKind

	// Swap payload.
	TokenIn   TokenSide
	AmountIn  *uint256.Int
	AmountOut *uint256.Int

	// IncreaseLiquidity/DecreaseLiquidity payload. A nil Liquidity, or an
	// Upper that is not above Lower (e.g. both zero when the bounds are
	// missing), signals a malformed event that the replay engine skips with
	// a warning, per spec.md §7.
	Lower     int32
	Upper     int32
	Liquidity *uint256.Int
}

// HasTickBounds reports whether a liquidity event carries usable tick
// bounds. Swap events always report true (the check does not apply).
func (e Event) HasTickBounds() bool {
	if e.Kind == Swap {
		return true
	}
	return e.Liquidity != nil && e.Upper > e.Lower
}

// Direction selects ascending or descending pagination by TxID.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Cursor is the pagination position: the next TxID to fetch (inclusive)
// and the direction to continue in. A nil cursor requests the first page.
type Cursor struct {
	TxID      int64
	Direction Direction
}

// ErrFetchTimeout is surfaced when a Source implementation's own I/O layer
// times out. The replay engine treats it as fatal to the current run, per
// spec.md §5's "Timeouts" note.
var ErrFetchTimeout = errors.New("eventsource: fetch timeout")

// Source is the abstract contract the replay engine depends on. A
// persistence- or RPC-backed implementation is an external collaborator;
// only the interface and a demo in-memory/sqlite implementation live here.
type Source interface {
	// FetchEvents returns up to batchSize events for poolID starting at
	// cursor.TxID inclusive (or the first page, if cursor is nil), ordered monotonically
	// by TxID in cursor.Direction.
	FetchEvents(ctx context.Context, poolID string, cursor *Cursor, batchSize int64) ([]Event, error)

	// LatestSwap returns the most recent swap for poolID, used to seed
	// backward ("sync from latest") replay. Returns (nil, nil) if the pool
	// has no swaps yet.
	LatestSwap(ctx context.Context, poolID string) (*Event, error)
}
