// internal/dex/plasma/amm.go
package plasma

import (
	"fmt"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

// Pricing follows the constant product x*y=k with the fee charged in the
// quote token. Within one leader slot window the execution price can never
// beat the spot price recorded at the start of that window, which removes
// the profit of a same-window sandwich. Once the slot leaves the window the
// recorded snapshot is stale and the live reserves are used instead.

// SlotWindow returns the leader slot window containing slot.
func SlotWindow(slot uint64) uint64 {
	return slot / LeaderSlotWindow
}

// snapshotReserves returns the reserves that bound the execution price at slot.
func (a AmmState) snapshotReserves(slot uint64) (base, quote uint64, ok bool) {
	if SlotWindow(slot) != SlotWindow(a.SlotSnapshot) {
		return 0, 0, false
	}
	if a.BaseReserveSnapshot == 0 || a.QuoteReserveSnapshot == 0 {
		return 0, 0, false
	}
	return a.BaseReserveSnapshot, a.QuoteReserveSnapshot, true
}

func (a AmmState) validate() error {
	if a.FeeInBps >= BpsDenominator {
		return fmt.Errorf("%w: fee %d bps", ErrInvalidFee, a.FeeInBps)
	}
	if a.ProtocolAllocationInPct > PctDenominator {
		return fmt.Errorf("%w: protocol allocation %d%%", ErrInvalidFee, a.ProtocolAllocationInPct)
	}
	if a.BaseReserve == 0 || a.QuoteReserve == 0 {
		return ErrZeroReserves
	}
	return nil
}

// splitFee splits a quote fee into the LP and protocol parts.
func (a AmmState) splitFee(fee uint64) (lp, protocol uint64, err error) {
	alloc, err := fixed.FromFraction(a.ProtocolAllocationInPct, PctDenominator)
	if err != nil {
		return 0, 0, err
	}
	protocol, err = alloc.MulNum(fee)
	if err != nil {
		return 0, 0, err
	}
	return fee - protocol, protocol, nil
}

// SpotPrice returns the quote-per-base price of the live reserves.
func (a AmmState) SpotPrice() (fixed.I80F48, error) {
	return fixed.FromFraction(a.QuoteReserve, a.BaseReserve)
}

// SimulateBuyExactIn simulates spending quoteIn quote tokens on base tokens.
func (a AmmState) SimulateBuyExactIn(slot, quoteIn uint64) (SwapResult, error) {
	res, err := a.buyExactIn(slot, quoteIn)
	if err != nil {
		return SwapResult{}, &SimulationError{Side: SideBuy, Err: err}
	}
	return res, nil
}

// SimulateSellExactIn simulates selling baseIn base tokens for quote tokens.
func (a AmmState) SimulateSellExactIn(slot, baseIn uint64) (SwapResult, error) {
	res, err := a.sellExactIn(slot, baseIn)
	if err != nil {
		return SwapResult{}, &SimulationError{Side: SideSell, Err: err}
	}
	return res, nil
}

// SimulateBuyExactOut simulates buying exactly baseOut base tokens.
func (a AmmState) SimulateBuyExactOut(slot, baseOut uint64) (SwapResult, error) {
	res, err := a.buyExactOut(slot, baseOut)
	if err != nil {
		return SwapResult{}, &SimulationError{Side: SideBuy, Err: err}
	}
	return res, nil
}

// SimulateSellExactOut simulates receiving exactly quoteOut quote tokens.
func (a AmmState) SimulateSellExactOut(slot, quoteOut uint64) (SwapResult, error) {
	res, err := a.sellExactOut(slot, quoteOut)
	if err != nil {
		return SwapResult{}, &SimulationError{Side: SideSell, Err: err}
	}
	return res, nil
}

func (a AmmState) buyExactIn(slot, quoteIn uint64) (SwapResult, error) {
	res := SwapResult{Side: SideBuy}
	if err := a.validate(); err != nil {
		return res, err
	}
	if quoteIn == 0 {
		return res, nil
	}

	fee, err := mulDiv(quoteIn, a.FeeInBps, BpsDenominator, true)
	if err != nil {
		return res, err
	}
	net := quoteIn - fee

	out, err := constantProductOut(a.QuoteReserve, a.BaseReserve, net)
	if err != nil {
		return res, err
	}
	if sb, sq, ok := a.snapshotReserves(slot); ok {
		capped, err := mulDiv(net, sb, sq, false)
		if err != nil {
			return res, err
		}
		out = min(out, capped)
	}
	if out >= a.BaseReserve {
		return res, fmt.Errorf("%w: out %d, base reserve %d", ErrInsufficientLiquidity, out, a.BaseReserve)
	}

	lp, protocol, err := a.splitFee(fee)
	if err != nil {
		return res, err
	}
	res.QuoteAmountToTransfer = quoteIn
	res.BaseAmountToTransfer = out
	res.LpFees = lp
	res.ProtocolFees = protocol
	return res, nil
}

func (a AmmState) sellExactIn(slot, baseIn uint64) (SwapResult, error) {
	res := SwapResult{Side: SideSell}
	if err := a.validate(); err != nil {
		return res, err
	}
	if baseIn == 0 {
		return res, nil
	}

	gross, err := constantProductOut(a.BaseReserve, a.QuoteReserve, baseIn)
	if err != nil {
		return res, err
	}
	if sb, sq, ok := a.snapshotReserves(slot); ok {
		capped, err := mulDiv(baseIn, sq, sb, false)
		if err != nil {
			return res, err
		}
		gross = min(gross, capped)
	}
	if gross >= a.QuoteReserve {
		return res, fmt.Errorf("%w: out %d, quote reserve %d", ErrInsufficientLiquidity, gross, a.QuoteReserve)
	}

	fee, err := mulDiv(gross, a.FeeInBps, BpsDenominator, true)
	if err != nil {
		return res, err
	}
	lp, protocol, err := a.splitFee(fee)
	if err != nil {
		return res, err
	}
	res.BaseAmountToTransfer = baseIn
	res.QuoteAmountToTransfer = gross - fee
	res.LpFees = lp
	res.ProtocolFees = protocol
	return res, nil
}

func (a AmmState) buyExactOut(slot, baseOut uint64) (SwapResult, error) {
	if err := a.validate(); err != nil {
		return SwapResult{Side: SideBuy}, err
	}
	if baseOut == 0 {
		return SwapResult{Side: SideBuy}, nil
	}
	if baseOut >= a.BaseReserve {
		return SwapResult{Side: SideBuy}, fmt.Errorf("%w: want %d, base reserve %d",
			ErrInsufficientLiquidity, baseOut, a.BaseReserve)
	}

	net, err := constantProductIn(a.QuoteReserve, a.BaseReserve, baseOut)
	if err != nil {
		return SwapResult{Side: SideBuy}, err
	}
	if sb, sq, ok := a.snapshotReserves(slot); ok {
		atSnapshot, err := mulDiv(baseOut, sq, sb, true)
		if err != nil {
			return SwapResult{Side: SideBuy}, err
		}
		net = max(net, atSnapshot)
	}
	quoteIn, err := grossUp(net, a.FeeInBps)
	if err != nil {
		return SwapResult{Side: SideBuy}, err
	}

	res, err := a.buyExactIn(slot, quoteIn)
	if err != nil {
		return res, err
	}
	if res.BaseAmountToTransfer < baseOut {
		return res, fmt.Errorf("%w: solved input %d yields %d < %d",
			ErrInsufficientLiquidity, quoteIn, res.BaseAmountToTransfer, baseOut)
	}
	res.BaseAmountToTransfer = baseOut
	return res, nil
}

func (a AmmState) sellExactOut(slot, quoteOut uint64) (SwapResult, error) {
	if err := a.validate(); err != nil {
		return SwapResult{Side: SideSell}, err
	}
	if quoteOut == 0 {
		return SwapResult{Side: SideSell}, nil
	}

	gross, err := grossUp(quoteOut, a.FeeInBps)
	if err != nil {
		return SwapResult{Side: SideSell}, err
	}
	if gross >= a.QuoteReserve {
		return SwapResult{Side: SideSell}, fmt.Errorf("%w: want %d gross, quote reserve %d",
			ErrInsufficientLiquidity, gross, a.QuoteReserve)
	}

	baseIn, err := constantProductIn(a.BaseReserve, a.QuoteReserve, gross)
	if err != nil {
		return SwapResult{Side: SideSell}, err
	}
	if sb, sq, ok := a.snapshotReserves(slot); ok {
		atSnapshot, err := mulDiv(gross, sb, sq, true)
		if err != nil {
			return SwapResult{Side: SideSell}, err
		}
		baseIn = max(baseIn, atSnapshot)
	}

	res, err := a.sellExactIn(slot, baseIn)
	if err != nil {
		return res, err
	}
	if res.QuoteAmountToTransfer < quoteOut {
		return res, fmt.Errorf("%w: solved input %d yields %d < %d",
			ErrInsufficientLiquidity, baseIn, res.QuoteAmountToTransfer, quoteOut)
	}
	res.QuoteAmountToTransfer = quoteOut
	return res, nil
}
