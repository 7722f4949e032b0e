package strategy

import (
	"context"
	"fmt"
)

// SimpleRebalanceStrategy keeps a position of fixed width `Range` centered
// on the current tick, re-centering (close + create) whenever the current
// tick drifts outside the active position's bounds, grounded on
// original_source/src/backtester/simple_rebalance_strategy.rs.
type SimpleRebalanceStrategy struct {
	idPrefix string
	rng      int32
	spacing  int32

	lower    int32
	upper    int32
	gen      int
	hasOpen  bool
}

// NewSimpleRebalanceStrategy builds a SimpleRebalanceStrategy with total
// width rng (in ticks), rounded outward to tickSpacing.
func NewSimpleRebalanceStrategy(idPrefix string, rng, tickSpacing int32) *SimpleRebalanceStrategy {
	return &SimpleRebalanceStrategy{idPrefix: idPrefix, rng: rng, spacing: tickSpacing}
}

func (s *SimpleRebalanceStrategy) centeredRange(tick int32) (int32, int32) {
	half := s.rng / 2
	lower := tick - half
	upper := tick + half
	lower -= ((lower % s.spacing) + s.spacing) % s.spacing
	if rem := ((upper % s.spacing) + s.spacing) % s.spacing; rem != 0 {
		upper += s.spacing - rem
	}
	if upper <= lower {
		upper = lower + s.spacing
	}
	return lower, upper
}

func (s *SimpleRebalanceStrategy) currentID() string {
	return fmt.Sprintf("%s-%d", s.idPrefix, s.gen)
}

func (s *SimpleRebalanceStrategy) Init(ctx context.Context) ([]Action, error) {
	return nil, nil
}

func (s *SimpleRebalanceStrategy) Update(ctx context.Context, view BookView, txID int64) ([]Action, error) {
	tick := view.CurrentTick()

	if !s.hasOpen {
		lower, upper := s.centeredRange(tick)
		s.lower, s.upper = lower, upper
		s.hasOpen = true
		return []Action{CreatePosition{ID: s.currentID(), Lower: lower, Upper: upper}}, nil
	}

	if tick >= s.lower && tick < s.upper {
		return nil, nil
	}

	closeID := s.currentID()
	s.gen++
	lower, upper := s.centeredRange(tick)
	s.lower, s.upper = lower, upper
	return []Action{
		ClosePosition{ID: closeID},
		CreatePosition{ID: s.currentID(), Lower: lower, Upper: upper},
	}, nil
}

func (s *SimpleRebalanceStrategy) Finalize(ctx context.Context) ([]Action, error) {
	if !s.hasOpen {
		return nil, nil
	}
	return []Action{ClosePosition{ID: s.currentID()}}, nil
}

func (s *SimpleRebalanceStrategy) Range() (int32, int32) {
	return s.lower, s.upper
}
