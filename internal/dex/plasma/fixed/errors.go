// internal/dex/plasma/fixed/errors.go
package fixed

import (
	"errors"
	"fmt"
)

// ErrArithmetic is matched by every error produced by this package.
var ErrArithmetic = errors.New("fixed-point arithmetic error")

var (
	ErrOverflow       = fmt.Errorf("%w: overflow", ErrArithmetic)
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)
	ErrOutOfRange     = fmt.Errorf("%w: value out of u64 range", ErrArithmetic)
)
