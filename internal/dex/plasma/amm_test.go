package plasma

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseAmm has no active price snapshot at slot >= 4.
func baseAmm() AmmState {
	return AmmState{
		FeeInBps:                30,
		ProtocolAllocationInPct: 50,
		BaseReserve:             1_000_000,
		QuoteReserve:            500_000,
		BaseReserveSnapshot:     1_000_000,
		QuoteReserveSnapshot:    500_000,
	}
}

func TestSimulateBuyExactIn(t *testing.T) {
	res, err := baseAmm().SimulateBuyExactIn(1_000, 1_000)
	require.NoError(t, err)

	// fee = ceil(1000*30/10000) = 3, out = 1_000_000*997/500_997
	assert.Equal(t, SideBuy, res.Side)
	assert.Equal(t, uint64(1_000), res.QuoteAmountToTransfer)
	assert.Equal(t, uint64(1_990), res.BaseAmountToTransfer)
	assert.Equal(t, uint64(1), res.ProtocolFees)
	assert.Equal(t, uint64(2), res.LpFees)
	assert.Equal(t, uint64(3), res.FeeInQuote())
	assert.Equal(t, uint64(1_000), res.AmountIn())
	assert.Equal(t, uint64(1_990), res.AmountOut())
}

func TestSimulateSellExactIn(t *testing.T) {
	res, err := baseAmm().SimulateSellExactIn(1_000, 2_000)
	require.NoError(t, err)

	// gross = 500_000*2000/1_002_000 = 998, fee = ceil(2.994) = 3
	assert.Equal(t, SideSell, res.Side)
	assert.Equal(t, uint64(2_000), res.BaseAmountToTransfer)
	assert.Equal(t, uint64(995), res.QuoteAmountToTransfer)
	assert.Equal(t, uint64(3), res.FeeInQuote())
}

func TestSimulateZeroInput(t *testing.T) {
	amm := baseAmm()
	buy, err := amm.SimulateBuyExactIn(10, 0)
	require.NoError(t, err)
	assert.Zero(t, buy.AmountOut())

	sell, err := amm.SimulateSellExactIn(10, 0)
	require.NoError(t, err)
	assert.Zero(t, sell.AmountOut())
}

func TestSimulateErrors(t *testing.T) {
	empty := baseAmm()
	empty.BaseReserve = 0

	badFee := baseAmm()
	badFee.FeeInBps = BpsDenominator

	badAlloc := baseAmm()
	badAlloc.ProtocolAllocationInPct = 101

	tests := []struct {
		name string
		run  func() (SwapResult, error)
		side Side
		want error
	}{
		{"zero reserves", func() (SwapResult, error) { return empty.SimulateBuyExactIn(10, 100) }, SideBuy, ErrZeroReserves},
		{"fee at 100%", func() (SwapResult, error) { return badFee.SimulateSellExactIn(10, 100) }, SideSell, ErrInvalidFee},
		{"allocation over 100%", func() (SwapResult, error) { return badAlloc.SimulateBuyExactIn(10, 100) }, SideBuy, ErrInvalidFee},
		{"buy whole base reserve", func() (SwapResult, error) { return baseAmm().SimulateBuyExactOut(10, 1_000_000) }, SideBuy, ErrInsufficientLiquidity},
		{"sell for whole quote reserve", func() (SwapResult, error) { return baseAmm().SimulateSellExactOut(10, 499_000) }, SideSell, ErrInsufficientLiquidity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var se *SimulationError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.side, se.Side)
		})
	}
}

func TestSimulateSlotWindow(t *testing.T) {
	// A buy earlier in the window moved the reserves; the snapshot still
	// holds the prices from the start of the window.
	amm := baseAmm()
	amm.SlotSnapshot = 100
	amm.BaseReserve = 900_000
	amm.QuoteReserve = 555_556

	sameWindow, err := amm.SimulateSellExactIn(103, 2_000)
	require.NoError(t, err)
	nextWindow, err := amm.SimulateSellExactIn(104, 2_000)
	require.NoError(t, err)

	// capped at 2000 * 500_000/1_000_000 = 1000 gross, 3 fee
	assert.Equal(t, uint64(997), sameWindow.QuoteAmountToTransfer)
	// live reserves: 555_556*2000/902_000 = 1231 gross, 4 fee
	assert.Equal(t, uint64(1_227), nextWindow.QuoteAmountToTransfer)
	assert.Less(t, sameWindow.QuoteAmountToTransfer, nextWindow.QuoteAmountToTransfer)

	again, err := amm.SimulateSellExactIn(103, 2_000)
	require.NoError(t, err)
	assert.Equal(t, sameWindow, again)
}

func TestSimulateExactOutCoversRequest(t *testing.T) {
	windowed := baseAmm()
	windowed.SlotSnapshot = 1_000
	windowed.BaseReserve = 950_000
	windowed.QuoteReserve = 526_316

	states := map[string]AmmState{"live": baseAmm(), "windowed": windowed}
	amounts := []uint64{1, 7, 999, 12_345, 100_000}

	for name, amm := range states {
		t.Run(name, func(t *testing.T) {
			for _, want := range amounts {
				buy, err := amm.SimulateBuyExactOut(1_001, want)
				require.NoError(t, err)
				assert.Equal(t, want, buy.BaseAmountToTransfer)

				check, err := amm.SimulateBuyExactIn(1_001, buy.QuoteAmountToTransfer)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, check.BaseAmountToTransfer, want)

				sell, err := amm.SimulateSellExactOut(1_001, want)
				require.NoError(t, err)
				assert.Equal(t, want, sell.QuoteAmountToTransfer)

				checkSell, err := amm.SimulateSellExactIn(1_001, sell.BaseAmountToTransfer)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, checkSell.QuoteAmountToTransfer, want)
			}
		})
	}
}

func TestSplitFee(t *testing.T) {
	tests := []struct {
		pct          uint64
		fee          uint64
		lp, protocol uint64
	}{
		{0, 100, 100, 0},
		{50, 101, 51, 50},
		{100, 77, 0, 77},
	}
	for _, tt := range tests {
		amm := baseAmm()
		amm.ProtocolAllocationInPct = tt.pct
		lp, protocol, err := amm.splitFee(tt.fee)
		require.NoError(t, err)
		assert.Equal(t, tt.lp, lp)
		assert.Equal(t, tt.protocol, protocol)
	}
}

func TestSpotPrice(t *testing.T) {
	p, err := baseAmm().SpotPrice()
	require.NoError(t, err)
	assert.Equal(t, "0.5", p.String())
}
