package book

import (
	"testing"

	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/pool"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/stretchr/testify/assert"
)

// S3 (fee collection reset): a position pre-loaded with feesOwedA =
// 50000*2^64, feesOwedB = 75000*2^64 (the Q64.64-scaled, undivided form
// accrue() leaves them in). CollectFees must return (50000, 75000) and
// zero the owed balances.
func TestS3FeeCollectionReset(t *testing.T) {
	cfg, err := pool.New("pool-1", 1,
		common.HexToAddress("0x1"), 6, "A",
		common.HexToAddress("0x2"), 6, "B",
		constants.FeeAmount(500))
	require.NoError(t, err)
	cfg.TickSpacing = 1

	sqrt, err := fixedmath.TickToSqrtPrice(0)
	require.NoError(t, err)
	b, err := New(cfg, 0, sqrt)
	require.NoError(t, err)

	require.NoError(t, b.AddPosition(Position{
		ID: "p1", LowerTick: -10, UpperTick: 10, Liquidity: uint256.NewInt(1),
	}))

	scaled50000 := new(uint256.Int).Mul(uint256.NewInt(50000), fixedmath.Q64)
	scaled75000 := new(uint256.Int).Mul(uint256.NewInt(75000), fixedmath.Q64)
	b.positions["p1"].FeesOwedA = scaled50000
	b.positions["p1"].FeesOwedB = scaled75000

	feesA, feesB, err := b.CollectFees("p1")
	require.NoError(t, err)
	assert.Equal(t, "50000", feesA.String())
	assert.Equal(t, "75000", feesB.String())

	feesA2, feesB2, err := b.CollectFees("p1")
	require.NoError(t, err)
	assert.Equal(t, "0", feesA2.String())
	assert.Equal(t, "0", feesB2.String())
}
