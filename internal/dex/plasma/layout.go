// internal/dex/plasma/layout.go
package plasma

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

// layoutWriter keeps the first encoder error so field lists read top to bottom.
type layoutWriter struct {
	enc *bin.Encoder
	err error
}

func (w *layoutWriter) raw(b []byte) {
	if w.err == nil {
		w.err = w.enc.WriteBytes(b, false)
	}
}

func (w *layoutWriter) u8(v uint8) {
	if w.err == nil {
		w.err = w.enc.WriteUint8(v)
	}
}

func (w *layoutWriter) u32(v uint32) {
	if w.err == nil {
		w.err = w.enc.WriteUint32(v, bin.LE)
	}
}

func (w *layoutWriter) u64(v uint64) {
	if w.err == nil {
		w.err = w.enc.WriteUint64(v, bin.LE)
	}
}

func (w *layoutWriter) i64(v int64) {
	if w.err == nil {
		w.err = w.enc.WriteInt64(v, bin.LE)
	}
}

func (w *layoutWriter) key(k solana.PublicKey) {
	w.raw(k[:])
}

func (w *layoutWriter) optionU64(v *uint64) {
	if w.err != nil {
		return
	}
	if w.err = w.enc.WriteOption(v != nil); w.err == nil && v != nil {
		w.u64(*v)
	}
}

func (w *layoutWriter) value(m bin.BinaryMarshaler) {
	if w.err == nil {
		w.err = m.MarshalWithEncoder(w.enc)
	}
}

type layoutReader struct {
	dec *bin.Decoder
	err error
}

func (r *layoutReader) raw(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	b, err := r.dec.ReadNBytes(n)
	if err != nil {
		r.err = err
		return make([]byte, n)
	}
	return b
}

func (r *layoutReader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(bin.LE)
	r.err = err
	return v
}

func (r *layoutReader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(bin.LE)
	r.err = err
	return v
}

func (r *layoutReader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(bin.LE)
	r.err = err
	return v
}

func (r *layoutReader) key() solana.PublicKey {
	return solana.PublicKeyFromBytes(r.raw(solana.PublicKeyLength))
}

func (r *layoutReader) fixed() fixed.I80F48 {
	var v fixed.I80F48
	r.value(&v)
	return v
}

func (r *layoutReader) value(u bin.BinaryUnmarshaler) {
	if r.err == nil {
		r.err = u.UnmarshalWithDecoder(r.dec)
	}
}

func (p TokenParams) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u32(p.Decimals)
	w.u32(p.VaultBump)
	w.key(p.MintKey)
	w.key(p.VaultKey)
	return w.err
}

func (p *TokenParams) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	p.Decimals = r.u32()
	p.VaultBump = r.u32()
	p.MintKey = r.key()
	p.VaultKey = r.key()
	return r.err
}

func (f ProtocolFeeRecipient) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.key(f.Recipient)
	w.u64(f.Shares)
	w.u64(f.TotalAccumulatedQuoteFees)
	w.u64(f.CollectedQuoteFees)
	return w.err
}

func (f *ProtocolFeeRecipient) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	f.Recipient = r.key()
	f.Shares = r.u64()
	f.TotalAccumulatedQuoteFees = r.u64()
	f.CollectedQuoteFees = r.u64()
	return r.err
}

func (f ProtocolFeeRecipients) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	for _, rcp := range f.Recipients {
		w.value(rcp)
	}
	for _, p := range f.Padding {
		w.u64(p)
	}
	return w.err
}

func (f *ProtocolFeeRecipients) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	for i := range f.Recipients {
		r.value(&f.Recipients[i])
	}
	for i := range f.Padding {
		f.Padding[i] = r.u64()
	}
	return r.err
}

func (h PoolHeader) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.raw(h.Discriminator[:])
	w.u64(h.SequenceNumber)
	w.value(h.BaseParams)
	w.value(h.QuoteParams)
	w.value(h.FeeRecipients)
	w.u64(h.SwapSequenceNumber)
	for _, p := range h.Padding {
		w.u64(p)
	}
	return w.err
}

func (h *PoolHeader) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	copy(h.Discriminator[:], r.raw(len(h.Discriminator)))
	h.SequenceNumber = r.u64()
	r.value(&h.BaseParams)
	r.value(&h.QuoteParams)
	r.value(&h.FeeRecipients)
	h.SwapSequenceNumber = r.u64()
	for i := range h.Padding {
		h.Padding[i] = r.u64()
	}
	return r.err
}

func (a AmmState) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u64(a.FeeInBps)
	w.u64(a.ProtocolAllocationInPct)
	w.u64(a.LpVestingWindow)
	w.value(a.RewardFactor)
	w.u64(a.TotalLpShares)
	w.u64(a.SlotSnapshot)
	w.u64(a.BaseReserveSnapshot)
	w.u64(a.QuoteReserveSnapshot)
	w.u64(a.BaseReserve)
	w.u64(a.QuoteReserve)
	w.u64(a.CumulativeQuoteLpFees)
	return w.err
}

func (a *AmmState) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	a.FeeInBps = r.u64()
	a.ProtocolAllocationInPct = r.u64()
	a.LpVestingWindow = r.u64()
	a.RewardFactor = r.fixed()
	a.TotalLpShares = r.u64()
	a.SlotSnapshot = r.u64()
	a.BaseReserveSnapshot = r.u64()
	a.QuoteReserveSnapshot = r.u64()
	a.BaseReserve = r.u64()
	a.QuoteReserve = r.u64()
	a.CumulativeQuoteLpFees = r.u64()
	return r.err
}

func (p PoolAccount) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.value(p.Header)
	w.value(p.Amm)
	return w.err
}

func (p *PoolAccount) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	r.value(&p.Header)
	r.value(&p.Amm)
	return r.err
}

func (l LpPosition) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.value(l.RewardFactorSnapshot)
	w.u64(l.LpShares)
	w.u64(l.WithdrawableLpShares)
	w.u64(l.UncollectedFees)
	w.u64(l.CollectedFees)
	w.u64(l.PendingSharesToVest.StartSlot)
	w.u64(l.PendingSharesToVest.Shares)
	return w.err
}

func (l *LpPosition) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	l.RewardFactorSnapshot = r.fixed()
	l.LpShares = r.u64()
	l.WithdrawableLpShares = r.u64()
	l.UncollectedFees = r.u64()
	l.CollectedFees = r.u64()
	l.PendingSharesToVest.StartSlot = r.u64()
	l.PendingSharesToVest.Shares = r.u64()
	return r.err
}

func (c Clock) MarshalWithEncoder(enc *bin.Encoder) error {
	w := layoutWriter{enc: enc}
	w.u64(c.Slot)
	w.i64(c.EpochStartTimestamp)
	w.u64(c.Epoch)
	w.u64(c.LeaderScheduleEpoch)
	w.i64(c.UnixTimestamp)
	return w.err
}

func (c *Clock) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := layoutReader{dec: dec}
	c.Slot = r.u64()
	c.EpochStartTimestamp = r.i64()
	c.Epoch = r.u64()
	c.LeaderScheduleEpoch = r.u64()
	c.UnixTimestamp = r.i64()
	return r.err
}

// encode serializes v with the canonical length-prefix-free encoding.
func encode(v bin.BinaryMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeExact decodes exactly size bytes into v, rejecting short and long input.
func decodeExact(data []byte, size int, v bin.BinaryUnmarshaler) error {
	if len(data) < size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrTruncated, len(data), size)
	}
	if len(data) > size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrTrailingBytes, len(data), size)
	}
	if err := v.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return nil
}

// Encode returns the 624-byte account image.
func (p PoolAccount) Encode() ([]byte, error) {
	return encode(p)
}

// Encode returns the 528-byte header image.
func (h PoolHeader) Encode() ([]byte, error) {
	return encode(h)
}

// DecodePoolHeader decodes a standalone header, checking its discriminator.
func DecodePoolHeader(data []byte) (*PoolHeader, error) {
	if err := checkDiscriminator(data); err != nil {
		return nil, &DecodeError{Account: "pool header", Err: err}
	}
	var h PoolHeader
	if err := decodeExact(data, PoolHeaderLen, &h); err != nil {
		return nil, &DecodeError{Account: "pool header", Err: err}
	}
	return &h, nil
}

// DecodePoolAccount decodes a pool account. The discriminator is checked
// before the length so a foreign account is reported as such.
func DecodePoolAccount(data []byte) (*PoolAccount, error) {
	if err := checkDiscriminator(data); err != nil {
		return nil, &DecodeError{Account: "pool", Err: err}
	}
	var p PoolAccount
	if err := decodeExact(data, PoolLen, &p); err != nil {
		return nil, &DecodeError{Account: "pool", Err: err}
	}
	if err := p.Header.checkFeeRecipients(); err != nil {
		return nil, &DecodeError{Account: "pool", Err: err}
	}
	return &p, nil
}

func checkDiscriminator(data []byte) error {
	if len(data) < len(PoolDiscriminator) {
		return fmt.Errorf("%w: got %d bytes", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:len(PoolDiscriminator)], PoolDiscriminator[:]) {
		return fmt.Errorf("%w: %v", ErrWrongDiscriminator, data[:len(PoolDiscriminator)])
	}
	return nil
}

func (h *PoolHeader) checkFeeRecipients() error {
	for i, r := range h.FeeRecipients.Recipients {
		if r.CollectedQuoteFees > r.TotalAccumulatedQuoteFees {
			return fmt.Errorf("%w: recipient %d collected %d of %d",
				ErrFeeInvariant, i, r.CollectedQuoteFees, r.TotalAccumulatedQuoteFees)
		}
	}
	return nil
}

// DecodeLpPosition decodes a 64-byte LP position account.
func DecodeLpPosition(data []byte) (*LpPosition, error) {
	var l LpPosition
	if err := decodeExact(data, LpPositionLen, &l); err != nil {
		return nil, &DecodeError{Account: "lp position", Err: err}
	}
	return &l, nil
}

// DecodeClock decodes the clock sysvar. Trailing bytes are ignored, the
// sysvar may grow.
func DecodeClock(data []byte) (*Clock, error) {
	if len(data) < ClockLen {
		return nil, &DecodeError{Account: "clock", Err: fmt.Errorf("%w: %w: got %d bytes", ErrClock, ErrTruncated, len(data))}
	}
	var c Clock
	if err := c.UnmarshalWithDecoder(bin.NewBinDecoder(data[:ClockLen])); err != nil {
		return nil, &DecodeError{Account: "clock", Err: fmt.Errorf("%w: %v", ErrClock, err)}
	}
	return &c, nil
}
