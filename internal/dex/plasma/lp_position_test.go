package plasma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

func TestVestingWindow(t *testing.T) {
	assert.Equal(t, uint64(0), VestingWindow(3))
	assert.Equal(t, uint64(8), VestingWindow(10))
	assert.Equal(t, uint64(100), VestingWindow(100))
}

func TestVestedShares(t *testing.T) {
	pos := LpPosition{
		LpShares:             5_000,
		WithdrawableLpShares: 4_000,
		PendingSharesToVest:  VestingTranche{StartSlot: 100, Shares: 1_000},
	}
	tests := []struct {
		name   string
		slot   uint64
		window uint64
		want   uint64
	}{
		{"before start", 99, 10, 0},
		{"at start", 100, 10, 0},
		{"halfway through rounded window", 104, 10, 500},
		{"window end", 108, 10, 1_000},
		{"long after", 10_000, 10, 1_000},
		{"no vesting", 50, 0, 1_000},
		{"window below one leader window", 101, 3, 1_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pos.VestedShares(tt.slot, tt.window))
		})
	}

	assert.Equal(t, uint64(4_500), pos.WithdrawableShares(104, 10))
	assert.Equal(t, uint64(5_000), pos.WithdrawableShares(200, 10))
	assert.Zero(t, LpPosition{}.VestedShares(100, 10))
}

func TestPendingFees(t *testing.T) {
	rf, err := fixed.FromFraction(3, 2)
	require.NoError(t, err)

	pos := LpPosition{RewardFactorSnapshot: fixed.One, LpShares: 1_000, UncollectedFees: 7}
	fees, err := pos.PendingFees(rf)
	require.NoError(t, err)
	assert.Equal(t, uint64(507), fees)

	same, err := pos.PendingFees(fixed.One)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), same)

	_, err = pos.PendingFees(fixed.Zero)
	assert.ErrorIs(t, err, fixed.ErrOutOfRange)
}
