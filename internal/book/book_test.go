package book_test

import (
	"testing"

	"github.com/clmmsim/backtester/internal/book"
	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/stretchr/testify/assert"
)

func testConfig(t *testing.T, feeRateBps int16) *pool.Config {
	t.Helper()
	cfg, err := pool.New("pool-1", 1,
		common.HexToAddress("0x1"), 6, "A",
		common.HexToAddress("0x2"), 6, "B",
		constants.FeeAmount(500))
	require.NoError(t, err)
	cfg.FeeRateBps = feeRateBps
	cfg.TickSpacing = 1
	return cfg
}

func newTestBook(t *testing.T, feeRateBps int16, startTick int32) *book.Book {
	t.Helper()
	cfg := testConfig(t, feeRateBps)
	sqrt, err := fixedmath.TickToSqrtPrice(startTick)
	require.NoError(t, err)
	b, err := book.New(cfg, startTick, sqrt)
	require.NoError(t, err)
	return b
}

// S1 (fee accrual, sell): Book with one position {lower=-10, upper=10,
// L=10^12}, currentTick=4, feeRate=300 (3%). Swap 1000 A in. Expect fees =
// 30, A-fees accrued > 0, B-fees = 0.
func TestS1FeeAccrualSell(t *testing.T) {
	b := newTestBook(t, 300, 4)
	require.NoError(t, b.AddPosition(book.Position{
		ID: "p1", LowerTick: -10, UpperTick: 10, Liquidity: uint256.NewInt(1_000_000_000_000),
	}))

	result, err := b.SimulateSwapWithFees(uint256.NewInt(1000), true)
	require.NoError(t, err)
	assert.Equal(t, "30", result.Fees.String())

	feesA, feesB, err := b.CollectFees("p1")
	require.NoError(t, err)
	assert.True(t, feesA.Sign() > 0, "expected positive A fees")
	assert.Equal(t, "0", feesB.String())
}

// S2 (fee accrual, buy): same book, swap 200 B in. Expect fees = 6, B-fees
// accrued > 0, A-fees = 0.
func TestS2FeeAccrualBuy(t *testing.T) {
	b := newTestBook(t, 300, 4)
	require.NoError(t, b.AddPosition(book.Position{
		ID: "p1", LowerTick: -10, UpperTick: 10, Liquidity: uint256.NewInt(1_000_000_000_000),
	}))

	result, err := b.SimulateSwapWithFees(uint256.NewInt(200), false)
	require.NoError(t, err)
	assert.Equal(t, "6", result.Fees.String())

	feesA, feesB, err := b.CollectFees("p1")
	require.NoError(t, err)
	assert.True(t, feesB.Sign() > 0, "expected positive B fees")
	assert.Equal(t, "0", feesA.String())
}

func TestNonNegativeLiquidityInvariant(t *testing.T) {
	b := newTestBook(t, 0, 0)
	require.NoError(t, b.AddPosition(book.Position{
		ID: "p1", LowerTick: -100, UpperTick: 100, Liquidity: uint256.NewInt(500),
	}))
	_, err := b.RemovePosition("p1")
	require.NoError(t, err)

	_, err = b.RemovePosition("p1")
	assert.ErrorIs(t, err, book.ErrPositionNotFound)
}

func TestRangeGatingInsufficientLiquidity(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.MinTick, cfg.MaxTick = -10, 10
	sqrt, err := fixedmath.TickToSqrtPrice(0)
	require.NoError(t, err)
	b, err := book.New(cfg, 0, sqrt)
	require.NoError(t, err)

	_, err = b.SimulateSwap(uint256.NewInt(1), true)
	assert.ErrorIs(t, err, book.ErrInsufficientLiquidity)
}

func TestMonotonicPriceResponse(t *testing.T) {
	b := newTestBook(t, 0, 0)
	require.NoError(t, b.AddPosition(book.Position{
		ID: "p1", LowerTick: -1000, UpperTick: 1000, Liquidity: uint256.NewInt(1_000_000_000_000),
	}))

	before := b.CurrentSqrtPrice()
	sellResult, err := b.SimulateSwap(uint256.NewInt(1_000_000), true)
	require.NoError(t, err)
	assert.True(t, sellResult.NewSqrt.Cmp(before) < 0)
}

func TestUpdateLiquidityValidation(t *testing.T) {
	b := newTestBook(t, 0, 0)
	err := b.UpdateLiquidity(10, 5, uint256.NewInt(1), true)
	assert.ErrorIs(t, err, book.ErrInvalidRange)
}
