package eventsource_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/clmmsim/backtester/eventsource"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestSQLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	store, err := eventsource.OpenSQLStore(path)
	require.NoError(t, err)

	events := []eventsource.Event{
		{TxID: 1, PoolID: "pool-1", Kind: eventsource.Swap, TokenIn: eventsource.TokenA, AmountIn: uint256.NewInt(100), AmountOut: uint256.NewInt(98)},
		{TxID: 2, PoolID: "pool-1", Kind: eventsource.IncreaseLiquidity, Lower: -10, Upper: 10, Liquidity: uint256.NewInt(500)},
		{TxID: 3, PoolID: "pool-1", Kind: eventsource.Swap, TokenIn: eventsource.TokenB, AmountIn: uint256.NewInt(50), AmountOut: uint256.NewInt(49)},
	}
	require.NoError(t, store.Seed(context.Background(), events))

	page, err := store.FetchEvents(context.Background(), "pool-1", nil, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, "100", page[0].AmountIn.String())
	require.Equal(t, int32(-10), page[1].Lower)
	require.Equal(t, "500", page[1].Liquidity.String())

	latest, err := store.LatestSwap(context.Background(), "pool-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, int64(3), latest.TxID)
}

func TestSQLStoreFetchEventsCursorPaginates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events2.db")
	store, err := eventsource.OpenSQLStore(path)
	require.NoError(t, err)

	events := make([]eventsource.Event, 0, 4)
	for i := int64(1); i <= 4; i++ {
		events = append(events, eventsource.Event{
			TxID: i, PoolID: "pool-1", Kind: eventsource.Swap,
			TokenIn: eventsource.TokenA, AmountIn: uint256.NewInt(uint64(i)),
		})
	}
	require.NoError(t, store.Seed(context.Background(), events))

	page1, err := store.FetchEvents(context.Background(), "pool-1", nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, int64(1), page1[0].TxID)
	require.Equal(t, int64(2), page1[1].TxID)

	cursor := &eventsource.Cursor{TxID: page1[1].TxID + 1, Direction: eventsource.Ascending}
	page2, err := store.FetchEvents(context.Background(), "pool-1", cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.Equal(t, int64(3), page2[0].TxID)
	require.Equal(t, int64(4), page2[1].TxID)
}

func TestSQLStoreLatestSwapNoneReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events3.db")
	store, err := eventsource.OpenSQLStore(path)
	require.NoError(t, err)

	latest, err := store.LatestSwap(context.Background(), "pool-1")
	require.NoError(t, err)
	require.Nil(t, latest)
}
