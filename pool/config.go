// Package pool holds the static, immutable configuration for a single CLMM
// pool being backtested: token identity, tick spacing, fee rate, and the
// simulator's operating bounds. It is constructed once per run and threaded
// read-only through internal/book, internal/position, and replay, mirroring
// the teacher's pattern of a configuration struct built once by NewPool and
// closed over by every downstream component
// (pkg/implementations/concentrated_liquidity/pool.go).
package pool

import (
	"fmt"

	core "github.com/daoleno/uniswap-sdk-core/entities"
	"github.com/daoleno/uniswapv3-sdk/constants"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the immutable description of one pool.
type Config struct {
	ID string

	TokenA *core.Token
	TokenB *core.Token

	Fee         constants.FeeAmount
	TickSpacing int32

	MinTick int32
	MaxTick int32

	FeeRateBps         int16
	SlippageBps        int32
	RebalanceTolerance float64
	BatchSize          int64
}

// Default bounds and tolerances per spec.md §6's configuration surface.
const (
	DefaultMinTick            int32   = -500000
	DefaultMaxTick            int32   = 500000
	DefaultSlippageBps        int32   = 100
	DefaultRebalanceTolerance float64 = 0.05
	DefaultBatchSize          int64   = 1000
)

// New builds a Config for a pool between tokenA and tokenB, using the
// daoleno/uniswapv3-sdk fee-tier-to-tick-spacing table the teacher's Pool
// constructor already relies on.
func New(id string, chainID uint, tokenAAddr common.Address, tokenADecimals uint, tokenASymbol string,
	tokenBAddr common.Address, tokenBDecimals uint, tokenBSymbol string, fee constants.FeeAmount) (*Config, error) {

	spacing, ok := constants.TickSpacings[fee]
	if !ok {
		return nil, fmt.Errorf("pool: unsupported fee tier %d", fee)
	}

	tokenA := core.NewToken(chainID, tokenAAddr, tokenADecimals, tokenASymbol, tokenASymbol)
	tokenB := core.NewToken(chainID, tokenBAddr, tokenBDecimals, tokenBSymbol, tokenBSymbol)

	return &Config{
		ID:                 id,
		TokenA:             tokenA,
		TokenB:             tokenB,
		Fee:                fee,
		TickSpacing:        int32(spacing),
		MinTick:            DefaultMinTick,
		MaxTick:            DefaultMaxTick,
		// constants.FeeAmount is hundredths-of-a-bip (500 = 0.05%); spec.md
		// §3's feeRate is plain bps (v means v/10000), so divide by 100.
		FeeRateBps:         int16(fee) / 100,
		SlippageBps:        DefaultSlippageBps,
		RebalanceTolerance: DefaultRebalanceTolerance,
		BatchSize:          DefaultBatchSize,
	}, nil
}

// DecimalDiff returns decimalsA - decimalsB, the adjustment FixedMath's
// PriceToTick needs to translate a human price into tick space.
func (c *Config) DecimalDiff() int {
	return int(c.TokenA.Decimals()) - int(c.TokenB.Decimals())
}

// OnSpacing reports whether tick is a multiple of the pool's tick spacing.
func (c *Config) OnSpacing(tick int32) bool {
	return tick%c.TickSpacing == 0
}

// InBounds reports whether tick lies within [MinTick, MaxTick].
func (c *Config) InBounds(tick int32) bool {
	return tick >= c.MinTick && tick <= c.MaxTick
}

// BucketCount returns N = (maxTick-minTick)/tickSpacing, the dense array
// size internal/book allocates.
func (c *Config) BucketCount() int {
	return int((c.MaxTick - c.MinTick) / c.TickSpacing)
}
