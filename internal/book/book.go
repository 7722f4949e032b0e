// Package book implements the LiquidityBook (C2): a tick-bucketed liquidity
// array, the position registry, fee-growth accounting, and the core swap
// state machine, per spec.md §4.2. It is the single owner of all
// TickBuckets and the position map; PositionManager (internal/position)
// mutates it through AddPosition/RemovePosition/CollectFees/SimulateSwap but
// never reaches into its internals directly.
package book

import (
	"fmt"

	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/pool"
	"github.com/holiman/uint256"
)

// Book owns the dense tick array and position registry for one pool.
type Book struct {
	cfg *pool.Config

	buckets   []TickBucket
	positions map[string]*Position
	state     PoolState
}

// New builds an empty Book over cfg's bucket range, with the pool starting
// at startTick/startSqrtPrice and zero liquidity everywhere.
func New(cfg *pool.Config, startTick int32, startSqrtPrice *uint256.Int) (*Book, error) {
	if !cfg.InBounds(startTick) {
		return nil, ErrTickOutOfRange
	}
	n := cfg.BucketCount()
	buckets := make([]TickBucket, n)
	for i := range buckets {
		lower := cfg.MinTick + int32(i)*cfg.TickSpacing
		buckets[i] = TickBucket{
			Lower:     lower,
			Upper:     lower + cfg.TickSpacing,
			Liquidity: uint256.NewInt(0),
		}
	}
	return &Book{
		cfg:       cfg,
		buckets:   buckets,
		positions: make(map[string]*Position),
		state: PoolState{
			CurrentTick:            startTick,
			CurrentSqrtPrice:       startSqrtPrice,
			ActiveLiquidity:        uint256.NewInt(0),
			FeeRateBps:             cfg.FeeRateBps,
			FeeGrowthGlobalA:       uint256.NewInt(0),
			FeeGrowthGlobalB:       uint256.NewInt(0),
			TotalLiquidityProvided: uint256.NewInt(0),
			VolumeTotal:            uint256.NewInt(0),
			VolumeInPosition:       uint256.NewInt(0),
		},
	}, nil
}

// floorDiv computes floor(a/b) for b > 0, unlike Go's truncating '/'.
func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// bucketIndex returns the clamped bucket index covering tick.
func (b *Book) bucketIndex(tick int32) int {
	idx := int(floorDiv(tick-b.cfg.MinTick, b.cfg.TickSpacing))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(b.buckets) {
		idx = len(b.buckets) - 1
	}
	return idx
}

func (b *Book) bucketAt(tick int32) *TickBucket {
	return &b.buckets[b.bucketIndex(tick)]
}

// CurrentTick, CurrentSqrtPrice, ActiveLiquidity, FeeRateBps, TickSpacing,
// SwapCount, VolumeTotal and VolumeInPosition together satisfy
// strategy.BookView by structural typing -- Book is never
// imported by the strategy package, only passed to it as that interface.

func (b *Book) CurrentTick() int32               { return b.state.CurrentTick }
func (b *Book) CurrentSqrtPrice() *uint256.Int    { return b.state.CurrentSqrtPrice }
func (b *Book) ActiveLiquidity() *uint256.Int     { return b.state.ActiveLiquidity }
func (b *Book) FeeRateBps() int16                 { return b.state.FeeRateBps }
func (b *Book) TickSpacing() int32                { return b.cfg.TickSpacing }
func (b *Book) SwapCount() int64                  { return b.state.SwapCount }
func (b *Book) VolumeTotal() *uint256.Int         { return b.state.VolumeTotal }
func (b *Book) VolumeInPosition() *uint256.Int    { return b.state.VolumeInPosition }
func (b *Book) LastBlockTime() int64              { return b.state.LastBlockTime }
func (b *Book) Position(id string) (Position, bool) {
	p, ok := b.positions[id]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// validateRange checks the shared preconditions of UpdateLiquidity/AddPosition.
func (b *Book) validateRange(lower, upper int32) error {
	if lower >= upper {
		return ErrInvalidRange
	}
	if !b.cfg.OnSpacing(lower) || !b.cfg.OnSpacing(upper) {
		return ErrTickNotOnSpacing
	}
	if !b.cfg.InBounds(lower) || !b.cfg.InBounds(upper) {
		return ErrTickOutOfRange
	}
	return nil
}

// UpdateLiquidity credits (increase=true) or debits (increase=false) delta
// to every bucket whose interval overlaps [lower, upper) -- the full-credit
// model spec.md §4.2/§9 resolves this Open Question in favor of: a position
// is active at every tick inside its range, so every covered bucket
// receives the full delta, not an even split.
func (b *Book) UpdateLiquidity(lower, upper int32, delta *uint256.Int, increase bool) error {
	if err := b.validateRange(lower, upper); err != nil {
		return err
	}

	lowerIdx := b.bucketIndex(lower)
	upperIdx := b.bucketIndex(upper - b.cfg.TickSpacing)

	for i := lowerIdx; i <= upperIdx; i++ {
		if increase {
			b.buckets[i].Liquidity = new(uint256.Int).Add(b.buckets[i].Liquidity, delta)
		} else {
			if b.buckets[i].Liquidity.Cmp(delta) < 0 {
				return fmt.Errorf("book: liquidity underflow in bucket %d", i)
			}
			b.buckets[i].Liquidity = new(uint256.Int).Sub(b.buckets[i].Liquidity, delta)
		}
	}

	if b.state.CurrentTick >= lower && b.state.CurrentTick < upper {
		if increase {
			b.state.ActiveLiquidity = new(uint256.Int).Add(b.state.ActiveLiquidity, delta)
		} else {
			b.state.ActiveLiquidity = new(uint256.Int).Sub(b.state.ActiveLiquidity, delta)
		}
	}

	if increase {
		b.state.TotalLiquidityProvided = new(uint256.Int).Add(b.state.TotalLiquidityProvided, delta)
	} else {
		b.state.TotalLiquidityProvided = new(uint256.Int).Sub(b.state.TotalLiquidityProvided, delta)
	}
	return nil
}

// AddPosition inserts a new position and applies its liquidity to the book.
// feeGrowth checkpoints are initialized to the current global accumulators
// so the position owes nothing for fees accrued before it existed.
func (b *Book) AddPosition(p Position) error {
	if _, exists := b.positions[p.ID]; exists {
		return fmt.Errorf("book: position %q already exists", p.ID)
	}
	if err := b.UpdateLiquidity(p.LowerTick, p.UpperTick, p.Liquidity, true); err != nil {
		return err
	}
	stored := p
	stored.FeeGrowthInsideLastA = new(uint256.Int).Set(b.state.FeeGrowthGlobalA)
	stored.FeeGrowthInsideLastB = new(uint256.Int).Set(b.state.FeeGrowthGlobalB)
	if stored.FeesOwedA == nil {
		stored.FeesOwedA = uint256.NewInt(0)
	}
	if stored.FeesOwedB == nil {
		stored.FeesOwedB = uint256.NewInt(0)
	}
	b.positions[p.ID] = &stored
	return nil
}

// RemovePosition settles pending fees into FeesOwed, removes the position's
// liquidity from the book, and returns the position's final snapshot
// (including the settled, not-yet-collected fees) to the caller.
func (b *Book) RemovePosition(id string) (Position, error) {
	p, ok := b.positions[id]
	if !ok {
		return Position{}, ErrPositionNotFound
	}
	b.accrue(p)
	if err := b.UpdateLiquidity(p.LowerTick, p.UpperTick, p.Liquidity, false); err != nil {
		return Position{}, err
	}
	delete(b.positions, id)
	return *p, nil
}

// accrue folds the fee growth accumulated since the position's last
// checkpoint into FeesOwed (kept Q64.64-scaled, undivided, until
// CollectFees converts it to a real token amount -- see DESIGN.md).
func (b *Book) accrue(p *Position) {
	deltaA := new(uint256.Int).Sub(b.state.FeeGrowthGlobalA, p.FeeGrowthInsideLastA)
	deltaB := new(uint256.Int).Sub(b.state.FeeGrowthGlobalB, p.FeeGrowthInsideLastB)
	owedA := new(uint256.Int).Mul(p.Liquidity, deltaA)
	owedB := new(uint256.Int).Mul(p.Liquidity, deltaB)
	p.FeesOwedA = new(uint256.Int).Add(p.FeesOwedA, owedA)
	p.FeesOwedB = new(uint256.Int).Add(p.FeesOwedB, owedB)
	p.FeeGrowthInsideLastA = new(uint256.Int).Set(b.state.FeeGrowthGlobalA)
	p.FeeGrowthInsideLastB = new(uint256.Int).Set(b.state.FeeGrowthGlobalB)
}

// CollectFees folds pending growth into the position, converts the
// Q64.64-scaled owed balances into real token amounts, and zeros them.
func (b *Book) CollectFees(id string) (feesA, feesB *uint256.Int, err error) {
	p, ok := b.positions[id]
	if !ok {
		return nil, nil, ErrPositionNotFound
	}
	b.accrue(p)
	feesA = new(uint256.Int).Div(p.FeesOwedA, fixedmath.Q64)
	feesB = new(uint256.Int).Div(p.FeesOwedB, fixedmath.Q64)
	p.FeesOwedA = uint256.NewInt(0)
	p.FeesOwedB = uint256.NewInt(0)
	return feesA, feesB, nil
}
