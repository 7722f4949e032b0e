package replay_test

import (
	"context"
	"testing"

	"github.com/clmmsim/backtester/datalogger"
	"github.com/clmmsim/backtester/eventsource"
	"github.com/clmmsim/backtester/internal/book"
	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/internal/position"
	"github.com/clmmsim/backtester/pool"
	"github.com/clmmsim/backtester/replay"
	"github.com/clmmsim/backtester/strategy"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/daoleno/uniswapv3-sdk/constants"
)

func newReplayFixture(t *testing.T) (*pool.Config, *book.Book, *position.Wallet) {
	t.Helper()
	cfg, err := pool.New("pool-1", 1,
		common.HexToAddress("0x1"), 6, "A",
		common.HexToAddress("0x2"), 6, "B",
		constants.FeeAmount(500))
	require.NoError(t, err)
	cfg.TickSpacing = 1
	cfg.FeeRateBps = 300
	cfg.RebalanceTolerance = 1.0

	sqrt, err := fixedmath.TickToSqrtPrice(0)
	require.NoError(t, err)
	b, err := book.New(cfg, 0, sqrt)
	require.NoError(t, err)

	w := position.NewWallet(uint256.NewInt(1_000_000), uint256.NewInt(1_000_000), 6, 6)
	return cfg, b, w
}

func swapEvent(txID int64, amountIn uint64, isSell bool) eventsource.Event {
	side := eventsource.TokenA
	if !isSell {
		side = eventsource.TokenB
	}
	return eventsource.Event{
		TxID:      txID,
		PoolID:    "pool-1",
		Kind:      eventsource.Swap,
		TokenIn:   side,
		AmountIn:  uint256.NewInt(amountIn),
		AmountOut: uint256.NewInt(amountIn),
	}
}

func TestEngineRunForwardNoRebalance(t *testing.T) {
	cfg, b, w := newReplayFixture(t)
	source := eventsource.NewMemory([]eventsource.Event{
		swapEvent(1, 10_000, true),
		swapEvent(2, 10_000, false),
	})

	strat := strategy.NewNoRebalanceStrategy("p1", -1000, 1000)
	engine := replay.NewEngineWithDefaults(cfg)
	logger := datalogger.New()

	rpt, err := engine.Run(context.Background(), strat, source, b, w, logger)
	require.NoError(t, err)
	require.NotNil(t, rpt)

	require.True(t, rpt.FeesCollectedA.IsPositive() || rpt.FeesCollectedA.IsZero())
	// CreatePosition (Init), one Swap record per applied event, ClosePosition (Finalize).
	entries := logger.Entries()
	require.Len(t, entries, 4)
	require.Equal(t, datalogger.KindCreatePosition, entries[0].Kind)
	require.Equal(t, datalogger.KindSwap, entries[1].Kind)
	require.Equal(t, datalogger.KindSwap, entries[2].Kind)
	require.Equal(t, datalogger.KindClosePosition, entries[3].Kind)
}

func TestEngineRunBackwardSeedsFromLatestSwap(t *testing.T) {
	cfg, b, w := newReplayFixture(t)
	source := eventsource.NewMemory([]eventsource.Event{
		swapEvent(1, 5_000, true),
		swapEvent(2, 5_000, false),
		swapEvent(3, 5_000, true),
	})

	strat := strategy.NewNoRebalanceStrategy("p1", -1000, 1000)
	engine := replay.NewEngine(cfg, replay.Config{Direction: eventsource.Descending})
	logger := datalogger.New()

	rpt, err := engine.Run(context.Background(), strat, source, b, w, logger)
	require.NoError(t, err)
	require.NotNil(t, rpt)
}

func TestEngineRunCanceledStillFinalizes(t *testing.T) {
	cfg, b, w := newReplayFixture(t)
	source := eventsource.NewMemory([]eventsource.Event{
		swapEvent(1, 5_000, true),
	})

	strat := strategy.NewNoRebalanceStrategy("p1", -1000, 1000)
	engine := replay.NewEngineWithDefaults(cfg)
	logger := datalogger.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rpt, err := engine.Run(ctx, strat, source, b, w, logger)
	require.NoError(t, err)
	require.NotNil(t, rpt)

	entries := logger.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, datalogger.KindCreatePosition, entries[0].Kind)
	require.Equal(t, datalogger.KindClosePosition, entries[1].Kind)
}
