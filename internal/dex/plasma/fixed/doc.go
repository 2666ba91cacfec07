// Package fixed implements I80F48, the signed 128-bit fixed-point number
// used by the Plasma program for all pool accounting.
//
// A value is stored as its raw two's-complement bit pattern: 80 integer
// bits and 48 fractional bits. The bit pattern is what goes on the wire;
// every arithmetic operation is computed exactly and fails with an error
// instead of wrapping when the result leaves the representable range.
//
//	one := fixed.FromNum(1)
//	half, _ := fixed.FromFraction(1, 2)
//	v, _ := one.Add(half) // 1.5
package fixed
