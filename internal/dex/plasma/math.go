// internal/dex/plasma/math.go
package plasma

import (
	"math/big"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

// mulDiv returns a*b/c computed in 128+ bits, rounded down or up.
// c must be non-zero.
func mulDiv(a, b, c uint64, roundUp bool) (uint64, error) {
	n := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	d := new(big.Int).SetUint64(c)
	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if roundUp && r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if !q.IsUint64() {
		return 0, fixed.ErrOverflow
	}
	return q.Uint64(), nil
}

// constantProductOut returns floor(reserveOut*amountIn / (reserveIn+amountIn)).
func constantProductOut(reserveIn, reserveOut, amountIn uint64) (uint64, error) {
	num := new(big.Int).Mul(new(big.Int).SetUint64(reserveOut), new(big.Int).SetUint64(amountIn))
	den := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), new(big.Int).SetUint64(amountIn))
	out := num.Quo(num, den)
	if !out.IsUint64() {
		return 0, fixed.ErrOverflow
	}
	return out.Uint64(), nil
}

// constantProductIn returns ceil(reserveIn*amountOut / (reserveOut-amountOut)).
// amountOut must be below reserveOut.
func constantProductIn(reserveIn, reserveOut, amountOut uint64) (uint64, error) {
	return mulDiv(reserveIn, amountOut, reserveOut-amountOut, true)
}

// grossUp returns the smallest x with x - ceil(x*bps/10000) >= net.
func grossUp(net, feeBps uint64) (uint64, error) {
	return mulDiv(net, BpsDenominator, BpsDenominator-feeBps, true)
}
