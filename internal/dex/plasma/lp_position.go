// internal/dex/plasma/lp_position.go
package plasma

import (
	"fmt"
	"math/bits"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

// VestingWindow rounds a configured vesting length down to a multiple of
// LeaderSlotWindow, as the program does at pool creation.
func VestingWindow(numSlots uint64) uint64 {
	return numSlots - numSlots%LeaderSlotWindow
}

// VestedShares returns how much of the pending tranche has vested at slot.
// Shares vest linearly over window slots starting at the tranche's slot.
func (l LpPosition) VestedShares(slot, window uint64) uint64 {
	t := l.PendingSharesToVest
	window = VestingWindow(window)
	if t.Shares == 0 {
		return 0
	}
	if window == 0 {
		return t.Shares
	}
	if slot <= t.StartSlot {
		return 0
	}
	elapsed := slot - t.StartSlot
	if elapsed >= window {
		return t.Shares
	}
	// bounded by t.Shares, cannot overflow
	v, _ := mulDiv(t.Shares, elapsed, window, false)
	return v
}

// WithdrawableShares returns the shares the owner can remove at slot.
func (l LpPosition) WithdrawableShares(slot, window uint64) uint64 {
	w := l.WithdrawableLpShares + l.VestedShares(slot, window)
	if w < l.WithdrawableLpShares || w > l.LpShares {
		return l.LpShares
	}
	return w
}

// PendingFees returns the uncollected fees including those accrued since
// the position's reward factor snapshot.
func (l LpPosition) PendingFees(rewardFactor fixed.I80F48) (uint64, error) {
	delta, err := rewardFactor.Sub(l.RewardFactorSnapshot)
	if err != nil {
		return 0, err
	}
	if delta.IsNegative() {
		return 0, fmt.Errorf("%w: reward factor %s below snapshot %s",
			fixed.ErrOutOfRange, rewardFactor, l.RewardFactorSnapshot)
	}
	accrued, err := delta.MulNum(l.LpShares)
	if err != nil {
		return 0, err
	}
	total, carry := bits.Add64(l.UncollectedFees, accrued, 0)
	if carry != 0 {
		return 0, fixed.ErrOverflow
	}
	return total, nil
}
