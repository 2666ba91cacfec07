// internal/dex/plasma/fixed/i80f48.go
package fixed

import (
	"encoding/binary"
	"math/big"
	"strings"

	bin "github.com/gagliardetto/binary"
)

const (
	// FracBits is the number of fractional bits.
	FracBits = 48
	// Size is the encoded size in bytes.
	Size = 16
)

var (
	minBits = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxBits = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	two64   = new(big.Int).Lsh(big.NewInt(1), 64)
	one48   = new(big.Int).Lsh(big.NewInt(1), FracBits)
)

// I80F48 is a signed fixed-point number with 80 integer and 48 fractional bits.
// The zero value is 0.
type I80F48 struct {
	hi int64
	lo uint64
}

// Zero is 0.
var Zero = I80F48{}

// One is 1.
var One = FromNum(1)

// FromNum widens an unsigned integer without loss.
func FromNum(v uint64) I80F48 {
	return I80F48{hi: int64(v >> (64 - FracBits)), lo: v << FracBits}
}

// FromFraction returns numerator/denominator truncated to 48 fractional bits.
func FromFraction(numerator, denominator uint64) (I80F48, error) {
	if denominator == 0 {
		return Zero, ErrDivisionByZero
	}
	n := new(big.Int).SetUint64(numerator)
	n.Lsh(n, FracBits)
	n.Quo(n, new(big.Int).SetUint64(denominator))
	return fromBig(n)
}

// FromBits reinterprets a raw bit pattern split into high and low words.
func FromBits(hi int64, lo uint64) I80F48 {
	return I80F48{hi: hi, lo: lo}
}

// FromBytes decodes a 16-byte little-endian bit pattern.
func FromBytes(b [Size]byte) I80F48 {
	return I80F48{
		lo: binary.LittleEndian.Uint64(b[:8]),
		hi: int64(binary.LittleEndian.Uint64(b[8:])),
	}
}

// Bits returns the raw bit pattern split into high and low words.
func (f I80F48) Bits() (hi int64, lo uint64) {
	return f.hi, f.lo
}

// Bytes returns the 16-byte little-endian bit pattern.
func (f I80F48) Bytes() [Size]byte {
	var b [Size]byte
	binary.LittleEndian.PutUint64(b[:8], f.lo)
	binary.LittleEndian.PutUint64(b[8:], uint64(f.hi))
	return b
}

// toBig decodes the bit pattern into hi*2^64 + lo.
func (f I80F48) toBig() *big.Int {
	v := big.NewInt(f.hi)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(f.lo))
}

func fromBig(v *big.Int) (I80F48, error) {
	if v.Cmp(minBits) < 0 || v.Cmp(maxBits) > 0 {
		return Zero, ErrOverflow
	}
	lo := new(big.Int).Mod(v, two64)
	hi := new(big.Int).Sub(v, lo)
	hi.Rsh(hi, 64)
	return I80F48{hi: hi.Int64(), lo: lo.Uint64()}, nil
}

// Add returns f+g.
func (f I80F48) Add(g I80F48) (I80F48, error) {
	return fromBig(new(big.Int).Add(f.toBig(), g.toBig()))
}

// Sub returns f-g.
func (f I80F48) Sub(g I80F48) (I80F48, error) {
	return fromBig(new(big.Int).Sub(f.toBig(), g.toBig()))
}

// Mul returns f*g. The full product is shifted right arithmetically, so
// the result is rounded toward negative infinity.
func (f I80F48) Mul(g I80F48) (I80F48, error) {
	p := new(big.Int).Mul(f.toBig(), g.toBig())
	return fromBig(p.Rsh(p, FracBits))
}

// Div returns f/g truncated toward zero.
func (f I80F48) Div(g I80F48) (I80F48, error) {
	if g.IsZero() {
		return Zero, ErrDivisionByZero
	}
	n := f.toBig()
	n.Lsh(n, FracBits)
	return fromBig(n.Quo(n, g.toBig()))
}

// Neg returns -f. Negating the minimum value overflows.
func (f I80F48) Neg() (I80F48, error) {
	return fromBig(new(big.Int).Neg(f.toBig()))
}

// MulNum multiplies by an integer and floors the result to u64.
func (f I80F48) MulNum(v uint64) (uint64, error) {
	p, err := f.Mul(FromNum(v))
	if err != nil {
		return 0, err
	}
	return p.Floor()
}

// Floor rounds toward negative infinity and narrows to u64.
func (f I80F48) Floor() (uint64, error) {
	v := f.toBig()
	v.Rsh(v, FracBits)
	if v.Sign() < 0 || v.Cmp(two64) >= 0 {
		return 0, ErrOutOfRange
	}
	return v.Uint64(), nil
}

// Cmp compares the decoded values: -1 if f < g, 0 if equal, +1 if f > g.
func (f I80F48) Cmp(g I80F48) int {
	return f.toBig().Cmp(g.toBig())
}

func (f I80F48) Equal(g I80F48) bool { return f.Cmp(g) == 0 }

func (f I80F48) Less(g I80F48) bool { return f.Cmp(g) < 0 }

func (f I80F48) IsZero() bool { return f.hi == 0 && f.lo == 0 }

func (f I80F48) IsNegative() bool { return f.hi < 0 }

// String renders the exact decimal value. 48 binary fractional digits
// always terminate within 48 decimal places.
func (f I80F48) String() string {
	r := new(big.Rat).SetFrac(f.toBig(), one48)
	s := r.FloatString(FracBits)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Float64 is a lossy conversion for logging and metrics.
func (f I80F48) Float64() float64 {
	v, _ := new(big.Rat).SetFrac(f.toBig(), one48).Float64()
	return v
}

func (f I80F48) MarshalWithEncoder(encoder *bin.Encoder) error {
	b := f.Bytes()
	return encoder.WriteBytes(b[:], false)
}

func (f *I80F48) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	raw, err := decoder.ReadNBytes(Size)
	if err != nil {
		return err
	}
	var b [Size]byte
	copy(b[:], raw)
	*f = FromBytes(b)
	return nil
}
