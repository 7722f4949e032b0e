package report_test

import (
	"testing"

	"github.com/clmmsim/backtester/internal/fixedmath"
	"github.com/clmmsim/backtester/report"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestBuildReportsPnLVsHold(t *testing.T) {
	startSqrt, err := fixedmath.TickToSqrtPrice(0)
	require.NoError(t, err)
	finalSqrt, err := fixedmath.TickToSqrtPrice(0)
	require.NoError(t, err)

	initialA := uint256.NewInt(1000)
	initialB := uint256.NewInt(1000)
	finalA := uint256.NewInt(900)
	finalB := uint256.NewInt(1200)
	feesA := uint256.NewInt(10)
	feesB := uint256.NewInt(20)

	rpt, err := report.Build(initialA, initialB, finalA, finalB, feesA, feesB, startSqrt, finalSqrt, nil)
	require.NoError(t, err)

	require.False(t, rpt.InitialValueA.IsZero())
	require.False(t, rpt.FinalValueA.IsZero())
	require.False(t, rpt.HoldValueA.IsZero())
	// Price 1 at tick 0: final value 2100 against a hold value of 2000.
	require.Equal(t, "100", rpt.PnLVsHoldA.String())
	require.NotEmpty(t, rpt.Summary())
}

func TestBuildRejectsNilSqrtPrice(t *testing.T) {
	_, err := report.Build(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0), uint256.NewInt(0), nil, nil, nil)
	require.Error(t, err)
}

func TestValueInAHandlesZeroPrice(t *testing.T) {
	v := report.ValueInA(uint256.NewInt(5), uint256.NewInt(10), uint256.NewInt(0))
	require.False(t, v.IsNegative())
}
