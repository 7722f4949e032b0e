// Package replay implements the ReplayEngine (C4): it consumes an
// EventSource and interleaves market events with strategy calls, per
// spec.md §4.4. Directly grounded on the teacher's
// pkg/backtest/engine.go Engine.Run(ctx, strategy, snapshots) shape --
// a Config/DefaultConfig pair, a constructor pair, and a Run method that
// checks ctx.Done() once per page and logs via logrus the way
// hoanguyenkh-uniswap-v3-simulator's sync loop does.
package replay

import (
	"context"
	"fmt"

	"github.com/clmmsim/backtester/datalogger"
	"github.com/clmmsim/backtester/eventsource"
	"github.com/clmmsim/backtester/internal/book"
	"github.com/clmmsim/backtester/internal/position"
	"github.com/clmmsim/backtester/pool"
	"github.com/clmmsim/backtester/primitives"
	"github.com/clmmsim/backtester/report"
	"github.com/clmmsim/backtester/strategy"
	"github.com/sirupsen/logrus"
)

// Engine replays one pool's event stream against a Book/Wallet pair,
// calling a Strategy's lifecycle hooks and executing its actions through a
// position.Manager.
type Engine struct {
	poolCfg *pool.Config
	cfg     Config
	log     *logrus.Entry
}

// NewEngine builds an Engine bound to poolCfg and cfg.
func NewEngine(poolCfg *pool.Config, cfg Config) *Engine {
	return &Engine{
		poolCfg: poolCfg,
		cfg:     cfg,
		log:     logrus.WithField("component", "replay.Engine"),
	}
}

// NewEngineWithDefaults builds an Engine with DefaultConfig().
func NewEngineWithDefaults(poolCfg *pool.Config) *Engine {
	return NewEngine(poolCfg, DefaultConfig())
}

// Run executes the full replay: strategy.Init, the event loop, and
// strategy.Finalize, returning a populated report.Report. In Descending
// (backward) mode the strategy is not called at all -- Init, Update and
// Finalize are skipped and the events only rebuild book state. b and w are
// mutated in place; the caller retains ownership of both so it can inspect
// final state beyond what Report exposes.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, source eventsource.Source, b *book.Book, w *position.Wallet, logger *datalogger.Logger) (*report.Report, error) {
	manager := position.New(e.poolCfg)

	startSqrt := b.CurrentSqrtPrice()
	startA := w.AmountA.Clone()
	startB := w.AmountB.Clone()

	forward := e.cfg.Direction == eventsource.Ascending

	if forward {
		if err := e.runActions(b, w, manager, logger, 0, actionSource(strat.Init)); err != nil {
			return nil, fmt.Errorf("replay: strategy init: %w", err)
		}
	}

	history := make([]report.ValuePoint, 0, 1024)
	canceled := false

	cursor := e.cfg.StartCursor
	if cursor == nil && e.cfg.Direction == eventsource.Descending {
		seed, err := source.LatestSwap(ctx, e.poolCfg.ID)
		if err != nil {
			return nil, fmt.Errorf("replay: seed backward cursor: %w", err)
		}
		if seed != nil {
			cursor = &eventsource.Cursor{TxID: seed.TxID, Direction: eventsource.Descending}
		}
	}

	for {
		select {
		case <-ctx.Done():
			canceled = true
		default:
		}
		if canceled {
			break
		}

		events, err := source.FetchEvents(ctx, e.poolCfg.ID, cursor, e.poolCfg.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("replay: fetch events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		for _, raw := range events {
			ev := raw
			if e.cfg.Direction == eventsource.Descending {
				ev = invertEvent(raw)
			}

			applied, err := b.ApplyEvent(ev)
			if err != nil {
				return nil, fmt.Errorf("replay: apply event %d: %w", ev.TxID, err)
			}
			if !applied {
				e.log.WithField("txId", ev.TxID).Warn("skipping malformed event")
				continue
			}

			if e.cfg.EnableDetailedLogging {
				e.log.WithFields(logrus.Fields{"txId": ev.TxID, "kind": ev.Kind.String()}).Debug("applied event")
			}

			if ev.Kind == eventsource.Swap {
				logger.Log(e.swapRecord(b, w, ev))
			}

			if e.cfg.Direction == eventsource.Ascending {
				if err := e.runActions(b, w, manager, logger, ev.TxID, func(ctx context.Context) ([]strategy.Action, error) {
					return strat.Update(ctx, b, ev.TxID)
				}); err != nil {
					return nil, fmt.Errorf("replay: strategy update at tx %d: %w", ev.TxID, err)
				}
			}

			history = append(history, report.ValuePoint{
				TxID:   ev.TxID,
				Time:   primitives.Unix(ev.BlockTime, 0),
				ValueA: report.ValueInA(w.AmountA, w.AmountB, b.CurrentSqrtPrice()),
			})
		}

		// spec.md §4.4: next cursor = last event's txId-1 (descending) or
		// txId+1 (ascending); FetchEvents treats cursor.TxID as the next
		// value to fetch, inclusive.
		last := events[len(events)-1]
		if e.cfg.Direction == eventsource.Ascending {
			cursor = &eventsource.Cursor{TxID: last.TxID + 1, Direction: eventsource.Ascending}
		} else {
			cursor = &eventsource.Cursor{TxID: last.TxID - 1, Direction: eventsource.Descending}
		}

		if int64(len(events)) < e.poolCfg.BatchSize {
			break
		}
	}

	// In forward mode Finalize always runs, including on cancellation, so
	// the wallet accounting closes cleanly (spec.md §5).
	if forward {
		if err := e.runActions(b, w, manager, logger, 0, actionSource(strat.Finalize)); err != nil {
			return nil, fmt.Errorf("replay: strategy finalize: %w", err)
		}
	}

	rpt, err := report.Build(startA, startB, w.AmountA, w.AmountB, w.FeesCollectedA, w.FeesCollectedB, startSqrt, b.CurrentSqrtPrice(), history)
	if err != nil {
		return nil, err
	}
	if canceled {
		e.log.Info("replay canceled; strategy finalized and report built from partial history")
	}
	return rpt, nil
}

// actionSource adapts a strategy hook with the (ctx) -> ([]Action, error)
// shape shared by Init/Finalize.
func actionSource(hook func(context.Context) ([]strategy.Action, error)) func(context.Context) ([]strategy.Action, error) {
	return hook
}

// runActions invokes hook, then executes the returned actions in order
// against b/w via manager, logging each to logger.
func (e *Engine) runActions(b *book.Book, w *position.Wallet, manager *position.Manager, logger *datalogger.Logger, txID int64, hook func(context.Context) ([]strategy.Action, error)) error {
	actions, err := hook(context.Background())
	if err != nil {
		return err
	}
	for _, action := range actions {
		if err := e.executeAction(b, w, manager, action); err != nil {
			return err
		}
		logger.Log(e.record(b, w, txID, action))
		if e.cfg.EnableDetailedLogging {
			e.log.WithFields(logrus.Fields{"txId": txID, "action": fmt.Sprintf("%T", action)}).Debug("executed action")
		}
	}
	return nil
}

func (e *Engine) executeAction(b *book.Book, w *position.Wallet, manager *position.Manager, action strategy.Action) error {
	switch a := action.(type) {
	case strategy.CreatePosition:
		return manager.CreatePosition(b, w, a.ID, a.Lower, a.Upper)
	case strategy.ClosePosition:
		return manager.ClosePosition(b, w, a.ID)
	default:
		return fmt.Errorf("replay: unknown action type %T", action)
	}
}

// swapRecord builds a KindSwap record for an applied market Swap event,
// per spec.md §4.7/§6 ("one record per executed action and one per swap").
func (e *Engine) swapRecord(b *book.Book, w *position.Wallet, ev eventsource.Event) datalogger.Record {
	return datalogger.Record{
		Kind:         datalogger.KindSwap,
		TxID:         ev.TxID,
		CurrentTick:  b.CurrentTick(),
		SqrtPriceQ64: b.CurrentSqrtPrice().String(),
		WalletA:      w.AmountA.String(),
		WalletB:      w.AmountB.String(),
		FeesA:        w.FeesCollectedA.String(),
		FeesB:        w.FeesCollectedB.String(),
		BlockTime:    b.LastBlockTime(),
		SwapCount:    b.SwapCount(),
		VolumeTotal:  b.VolumeTotal().String(),
		VolumeInPos:  b.VolumeInPosition().String(),
	}
}

func (e *Engine) record(b *book.Book, w *position.Wallet, txID int64, action strategy.Action) datalogger.Record {
	r := datalogger.Record{
		TxID:         txID,
		CurrentTick:  b.CurrentTick(),
		SqrtPriceQ64: b.CurrentSqrtPrice().String(),
		WalletA:      w.AmountA.String(),
		WalletB:      w.AmountB.String(),
		FeesA:        w.FeesCollectedA.String(),
		FeesB:        w.FeesCollectedB.String(),
		BlockTime:    b.LastBlockTime(),
		SwapCount:    b.SwapCount(),
		VolumeTotal:  b.VolumeTotal().String(),
		VolumeInPos:  b.VolumeInPosition().String(),
	}
	switch a := action.(type) {
	case strategy.CreatePosition:
		r.Kind = datalogger.KindCreatePosition
		r.PositionID = a.ID
		r.LowerTick = a.Lower
		r.UpperTick = a.Upper
	case strategy.ClosePosition:
		r.Kind = datalogger.KindClosePosition
		r.PositionID = a.ID
	}
	return r
}
