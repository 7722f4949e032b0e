package book

import "github.com/holiman/uint256"

// TickBucket is the atomic unit of the liquidity array: a half-open
// interval [Lower, Lower+tickSpacing). Liquidity is gross liquidity active
// anywhere within the bucket -- every position whose range overlaps the
// bucket contributes its full liquidity (spec.md §9's "full-credit" choice,
// see DESIGN.md).
type TickBucket struct {
	Lower     int32
	Upper     int32
	Liquidity *uint256.Int
}

// Position is a user-owned liquidity range, per spec.md §3.
type Position struct {
	ID        string
	LowerTick int32
	UpperTick int32
	Liquidity *uint256.Int

	FeeGrowthInsideLastA *uint256.Int
	FeeGrowthInsideLastB *uint256.Int
	FeesOwedA            *uint256.Int
	FeesOwedB            *uint256.Int
}

// PoolState is the dynamic, mutable state of the pool, per spec.md §3.
type PoolState struct {
	CurrentTick      int32
	CurrentSqrtPrice *uint256.Int
	ActiveLiquidity  *uint256.Int
	FeeRateBps       int16

	FeeGrowthGlobalA *uint256.Int
	FeeGrowthGlobalB *uint256.Int

	TotalLiquidityProvided *uint256.Int

	// Telemetry (spec.md §4.4/§4.7): cumulative swap counters and volume,
	// split between in-range and out-of-range activity.
	SwapCount          int64
	VolumeTotal        *uint256.Int
	VolumeInPosition   *uint256.Int
	LastBlockTime      int64
}
