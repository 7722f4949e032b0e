package eventsource

import (
	"context"
	"sort"
)

// Memory is an in-process, slice-backed Source. Events are held sorted by
// TxID ascending; FetchEvents serves pages in either direction from that
// single sorted slice. Used by tests in place of a real chain-data
// collaborator.
type Memory struct {
	events []Event
}

// NewMemory builds a Memory source from an unordered event slice, sorting
// it by TxID once up front.
func NewMemory(events []Event) *Memory {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TxID < sorted[j].TxID })
	return &Memory{events: sorted}
}

// FetchEvents implements Source.
func (m *Memory) FetchEvents(_ context.Context, poolID string, cursor *Cursor, batchSize int64) ([]Event, error) {
	if batchSize <= 0 {
		return nil, nil
	}

	direction := Ascending
	startTxID := int64(-1)
	hasStart := false
	if cursor != nil {
		direction = cursor.Direction
		startTxID = cursor.TxID
		hasStart = true
	}

	// cursor.TxID is the next value to fetch, inclusive (spec.md §4.4).
	out := make([]Event, 0, batchSize)
	switch direction {
	case Ascending:
		idx := 0
		if hasStart {
			idx = sort.Search(len(m.events), func(i int) bool { return m.events[i].TxID >= startTxID })
		}
		for ; idx < len(m.events) && int64(len(out)) < batchSize; idx++ {
			if m.events[idx].PoolID != poolID {
				continue
			}
			out = append(out, m.events[idx])
		}
	case Descending:
		idx := len(m.events) - 1
		if hasStart {
			idx = sort.Search(len(m.events), func(i int) bool { return m.events[i].TxID > startTxID }) - 1
		}
		for ; idx >= 0 && int64(len(out)) < batchSize; idx-- {
			if m.events[idx].PoolID != poolID {
				continue
			}
			out = append(out, m.events[idx])
		}
	}
	return out, nil
}

// LatestSwap implements Source.
func (m *Memory) LatestSwap(_ context.Context, poolID string) (*Event, error) {
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].PoolID == poolID && m.events[i].Kind == Swap {
			e := m.events[i]
			return &e, nil
		}
	}
	return nil, nil
}
