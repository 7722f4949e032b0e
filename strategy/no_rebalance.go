package strategy

import "context"

// NoRebalanceStrategy opens a single fixed-range position at Init and never
// touches it again until Finalize closes it, grounded on
// original_source/src/backtester/no_rebalance_strategy.rs.
type NoRebalanceStrategy struct {
	id          string
	lower       int32
	upper       int32
	initialized bool
}

// NewNoRebalanceStrategy builds a NoRebalanceStrategy targeting [lower, upper).
func NewNoRebalanceStrategy(id string, lower, upper int32) *NoRebalanceStrategy {
	return &NoRebalanceStrategy{id: id, lower: lower, upper: upper}
}

func (s *NoRebalanceStrategy) Init(ctx context.Context) ([]Action, error) {
	s.initialized = true
	return []Action{CreatePosition{ID: s.id, Lower: s.lower, Upper: s.upper}}, nil
}

func (s *NoRebalanceStrategy) Update(ctx context.Context, view BookView, txID int64) ([]Action, error) {
	return nil, nil
}

func (s *NoRebalanceStrategy) Finalize(ctx context.Context) ([]Action, error) {
	if !s.initialized {
		return nil, nil
	}
	return []Action{ClosePosition{ID: s.id}}, nil
}

func (s *NoRebalanceStrategy) Range() (int32, int32) {
	return s.lower, s.upper
}
