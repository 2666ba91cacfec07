// internal/dex/plasma/params.go
package plasma

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
)

func (p SwapParams) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u8(uint8(p.Side))
	w.u8(uint8(p.SwapType.Kind))
	w.u64(p.SwapType.Amount)
	w.u64(p.SwapType.Bound)
	return w.err
}

func (p *SwapParams) UnmarshalWithDecoder(dec *bin.Decoder) error {
	side, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	if Side(side) != SideBuy && Side(side) != SideSell {
		return fmt.Errorf("invalid side %d", side)
	}
	kind, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	if SwapKind(kind) != SwapKindExactIn && SwapKind(kind) != SwapKindExactOut {
		return fmt.Errorf("invalid swap type %d", kind)
	}
	r := layoutReader{dec: dec}
	p.Side = Side(side)
	p.SwapType = SwapType{Kind: SwapKind(kind), Amount: r.u64(), Bound: r.u64()}
	return r.err
}

func (p FeeRecipientParams) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.key(p.Recipient)
	w.u64(p.Shares)
	return w.err
}

func (p InitializePoolParams) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u64(p.LpFeeInBps)
	w.u64(p.ProtocolFeeAllocationInPct)
	for _, r := range p.FeeRecipients {
		w.value(r)
	}
	w.optionU64(p.NumSlotsToVestLpShares)
	return w.err
}

func (p AddLiquidityParams) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u64(p.DesiredBaseAmountIn)
	w.u64(p.DesiredQuoteAmountIn)
	w.optionU64(p.InitialLpShares)
	return w.err
}

type removeLiquidityParams uint64

func (p removeLiquidityParams) MarshalWithEncoder(enc *bin.Encoder) error {
	return enc.WriteUint64(uint64(p), bin.LE)
}

const swapParamsLen = 1 + 1 + 8 + 8

// DecodeSwapInstruction parses the payload of a swap instruction.
func DecodeSwapInstruction(data []byte) (*SwapParams, error) {
	if len(data) == 0 || data[0] != SwapDiscriminator {
		return nil, fmt.Errorf("not a swap instruction")
	}
	body := data[1:]
	switch {
	case len(body) < swapParamsLen:
		return nil, fmt.Errorf("%w: swap payload %d bytes", ErrTruncated, len(body))
	case len(body) > swapParamsLen:
		return nil, fmt.Errorf("%w: swap payload %d bytes", ErrTrailingBytes, len(body))
	}
	var p SwapParams
	if err := p.UnmarshalWithDecoder(bin.NewBorshDecoder(body)); err != nil {
		return nil, fmt.Errorf("decode swap params: %w", err)
	}
	return &p, nil
}
