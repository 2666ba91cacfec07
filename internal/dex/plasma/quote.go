// internal/dex/plasma/quote.go
package plasma

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Simulator runs the pool's swap math for one direction at a given slot.
// AmmState is the production implementation.
type Simulator interface {
	SimulateBuyExactIn(slot, quoteIn uint64) (SwapResult, error)
	SimulateSellExactIn(slot, baseIn uint64) (SwapResult, error)
}

// ExactOutSimulator is implemented by simulators that can solve for the input.
type ExactOutSimulator interface {
	SimulateBuyExactOut(slot, baseOut uint64) (SwapResult, error)
	SimulateSellExactOut(slot, quoteOut uint64) (SwapResult, error)
}

var ErrExactOutUnsupported = errors.New("simulator does not support exact-out")

// SwapMode mirrors the aggregator's quote mode.
type SwapMode uint8

const (
	SwapModeExactIn SwapMode = iota
	SwapModeExactOut
)

// Quote is the result handed back to the aggregator.
type Quote struct {
	InAmount  uint64
	OutAmount uint64
}

// ResolveSide maps the input mint to a trade direction: paying with the
// quote mint buys base, paying with the base mint sells it.
func ResolveSide(h *PoolHeader, inputMint solana.PublicKey) (Side, error) {
	switch inputMint {
	case h.QuoteParams.MintKey:
		return SideBuy, nil
	case h.BaseParams.MintKey:
		return SideSell, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownMint, inputMint)
	}
}

// QuoteExactIn quotes amount of inputMint against snap. The simulation
// always runs at the snapshot's slot so the quote is reproducible.
func QuoteExactIn(snap *PoolSnapshot, sim Simulator, inputMint solana.PublicKey, amount uint64) (Quote, error) {
	side, err := ResolveSide(snap.Header(), inputMint)
	if err != nil {
		return Quote{}, err
	}

	var res SwapResult
	if side == SideBuy {
		res, err = sim.SimulateBuyExactIn(snap.Slot, amount)
	} else {
		res, err = sim.SimulateSellExactIn(snap.Slot, amount)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s exact in %d: %w", side, amount, err)
	}
	return Quote{InAmount: amount, OutAmount: res.AmountOut()}, nil
}

// QuoteExactOut quotes the input needed to receive amountOut.
func QuoteExactOut(snap *PoolSnapshot, sim Simulator, inputMint solana.PublicKey, amountOut uint64) (Quote, error) {
	eo, ok := sim.(ExactOutSimulator)
	if !ok {
		return Quote{}, ErrExactOutUnsupported
	}
	side, err := ResolveSide(snap.Header(), inputMint)
	if err != nil {
		return Quote{}, err
	}

	var res SwapResult
	if side == SideBuy {
		res, err = eo.SimulateBuyExactOut(snap.Slot, amountOut)
	} else {
		res, err = eo.SimulateSellExactOut(snap.Slot, amountOut)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("quote %s exact out %d: %w", side, amountOut, err)
	}
	return Quote{InAmount: res.AmountIn(), OutAmount: amountOut}, nil
}
