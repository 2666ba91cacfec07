// internal/dex/plasma/errors.go
package plasma

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Decode failures.
var (
	ErrWrongDiscriminator = errors.New("wrong account discriminator")
	ErrTruncated          = errors.New("account data truncated")
	ErrTrailingBytes      = errors.New("unexpected trailing bytes")
	ErrVaultMismatch      = errors.New("vault does not match derived address")
	ErrFeeInvariant       = errors.New("collected fees exceed accumulated fees")
	ErrTokenAccount       = errors.New("invalid token account")
	ErrClock              = errors.New("invalid clock sysvar")
)

// Refresh and quoting failures.
var (
	ErrMissingAccount        = errors.New("required account missing")
	ErrUnknownMint           = errors.New("mint does not belong to pool")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrZeroReserves          = errors.New("pool has zero reserves")
	ErrInvalidFee            = errors.New("invalid fee configuration")
	ErrNotInitialized        = errors.New("adapter has no snapshot")
)

// DecodeError reports account bytes that could not be decoded.
type DecodeError struct {
	Account string
	Key     solana.PublicKey
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Key.IsZero() {
		return fmt.Sprintf("decode %s: %v", e.Account, e.Err)
	}
	return fmt.Sprintf("decode %s %s: %v", e.Account, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingAccountError reports an address absent from a refresh batch.
type MissingAccountError struct {
	Account string
	Key     solana.PublicKey
}

func (e *MissingAccountError) Error() string {
	return fmt.Sprintf("missing %s account %s", e.Account, e.Key)
}

func (e *MissingAccountError) Unwrap() error {
	return ErrMissingAccount
}

// SimulationError reports a trade rejected by the pool simulation.
type SimulationError struct {
	Side Side
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulate %s: %v", e.Side, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

func newDecodeError(account string, key solana.PublicKey, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return &DecodeError{Account: account, Key: key, Err: de.Err}
	}
	return &DecodeError{Account: account, Key: key, Err: err}
}
