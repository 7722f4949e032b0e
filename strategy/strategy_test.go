package strategy_test

import (
	"context"
	"testing"

	"github.com/clmmsim/backtester/strategy"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookView is a minimal strategy.BookView stand-in so strategy tests
// never need a real internal/book.Book.
type fakeBookView struct {
	tick int32
}

func (f fakeBookView) CurrentTick() int32            { return f.tick }
func (f fakeBookView) CurrentSqrtPrice() *uint256.Int { return uint256.NewInt(0) }
func (f fakeBookView) ActiveLiquidity() *uint256.Int  { return uint256.NewInt(0) }
func (f fakeBookView) FeeRateBps() int16              { return 0 }
func (f fakeBookView) TickSpacing() int32             { return 10 }
func (f fakeBookView) SwapCount() int64               { return 0 }
func (f fakeBookView) VolumeTotal() *uint256.Int      { return uint256.NewInt(0) }
func (f fakeBookView) VolumeInPosition() *uint256.Int { return uint256.NewInt(0) }

func TestNoRebalanceLifecycle(t *testing.T) {
	s := strategy.NewNoRebalanceStrategy("p1", -100, 100)
	ctx := context.Background()

	actions, err := s.Init(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	create, ok := actions[0].(strategy.CreatePosition)
	require.True(t, ok)
	assert.Equal(t, "p1", create.ID)

	actions, err = s.Update(ctx, fakeBookView{tick: 50}, 1)
	require.NoError(t, err)
	assert.Nil(t, actions)

	actions, err = s.Finalize(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	close_, ok := actions[0].(strategy.ClosePosition)
	require.True(t, ok)
	assert.Equal(t, "p1", close_.ID)

	lower, upper := s.Range()
	assert.Equal(t, int32(-100), lower)
	assert.Equal(t, int32(100), upper)
}

func TestNoRebalanceFinalizeWithoutInitIsNoop(t *testing.T) {
	s := strategy.NewNoRebalanceStrategy("p1", -100, 100)
	actions, err := s.Finalize(context.Background())
	require.NoError(t, err)
	assert.Nil(t, actions)
}

func TestSimpleRebalanceOpensThenRecenters(t *testing.T) {
	s := strategy.NewSimpleRebalanceStrategy("lp", 100, 10)
	ctx := context.Background()

	actions, err := s.Init(ctx)
	require.NoError(t, err)
	assert.Nil(t, actions)

	actions, err = s.Update(ctx, fakeBookView{tick: 0}, 1)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	first, ok := actions[0].(strategy.CreatePosition)
	require.True(t, ok)

	lower, upper := s.Range()
	require.True(t, lower <= 0 && upper > 0)

	// Still inside the range: no action.
	actions, err = s.Update(ctx, fakeBookView{tick: 5}, 2)
	require.NoError(t, err)
	assert.Nil(t, actions)

	// Drift far outside the range: close then reopen with a new ID.
	actions, err = s.Update(ctx, fakeBookView{tick: 500}, 3)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	closeAction, ok := actions[0].(strategy.ClosePosition)
	require.True(t, ok)
	assert.Equal(t, first.ID, closeAction.ID)
	reopenAction, ok := actions[1].(strategy.CreatePosition)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, reopenAction.ID)
}

func TestSimpleRebalanceFinalizeClosesOpenPosition(t *testing.T) {
	s := strategy.NewSimpleRebalanceStrategy("lp", 100, 10)
	ctx := context.Background()
	_, err := s.Update(ctx, fakeBookView{tick: 0}, 1)
	require.NoError(t, err)

	actions, err := s.Finalize(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	_, ok := actions[0].(strategy.ClosePosition)
	assert.True(t, ok)
}

func TestSimpleRebalanceFinalizeWithoutOpenIsNoop(t *testing.T) {
	s := strategy.NewSimpleRebalanceStrategy("lp", 100, 10)
	actions, err := s.Finalize(context.Background())
	require.NoError(t, err)
	assert.Nil(t, actions)
}
