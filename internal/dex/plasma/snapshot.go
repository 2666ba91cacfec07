// internal/dex/plasma/snapshot.go
package plasma

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PoolSnapshot is the state of one pool observed at one slot. It is never
// mutated after construction; a refresh produces a new value.
type PoolSnapshot struct {
	Address          solana.PublicKey
	Account          PoolAccount
	BaseVaultAmount  uint64
	QuoteVaultAmount uint64
	Slot             uint64
}

// NewSnapshot builds the initial snapshot from the pool account alone.
// Vault amounts stay zero until the first Refresh.
func NewSnapshot(address solana.PublicKey, data []byte, slot uint64, cfg Config) (*PoolSnapshot, error) {
	acc, err := DecodePoolAccount(data)
	if err != nil {
		return nil, newDecodeError("pool", address, err)
	}
	if err := acc.Header.VerifyVaults(cfg.ProgramID, address); err != nil {
		return nil, &DecodeError{Account: "pool", Key: address, Err: err}
	}
	return &PoolSnapshot{
		Address: address,
		Account: *acc,
		Slot:    slot,
	}, nil
}

func (s *PoolSnapshot) Header() *PoolHeader { return &s.Account.Header }

func (s *PoolSnapshot) BaseMint() solana.PublicKey { return s.Account.Header.BaseParams.MintKey }

func (s *PoolSnapshot) QuoteMint() solana.PublicKey { return s.Account.Header.QuoteParams.MintKey }

// AccountsToUpdate lists the addresses Refresh needs, in a fixed order:
// pool, base vault, quote vault, clock sysvar.
func (s *PoolSnapshot) AccountsToUpdate(cfg Config) []solana.PublicKey {
	return []solana.PublicKey{
		s.Address,
		s.Account.Header.BaseParams.VaultKey,
		s.Account.Header.QuoteParams.VaultKey,
		cfg.ClockSysvarID,
	}
}

// Refresh decodes a fresh set of accounts into a new snapshot. All four
// accounts must come from the same slot. On error nothing is produced and
// prev stays the caller's current snapshot.
func Refresh(prev *PoolSnapshot, accounts AccountMap, cfg Config) (*PoolSnapshot, error) {
	if prev == nil {
		return nil, ErrNotInitialized
	}
	h := &prev.Account.Header

	poolData, err := accounts.lookup("pool", prev.Address)
	if err != nil {
		return nil, err
	}
	baseData, err := accounts.lookup("base vault", h.BaseParams.VaultKey)
	if err != nil {
		return nil, err
	}
	quoteData, err := accounts.lookup("quote vault", h.QuoteParams.VaultKey)
	if err != nil {
		return nil, err
	}
	clockData, err := accounts.lookup("clock", cfg.ClockSysvarID)
	if err != nil {
		return nil, err
	}

	pool, err := DecodePoolAccount(poolData)
	if err != nil {
		return nil, newDecodeError("pool", prev.Address, err)
	}
	if pool.Header.BaseParams != h.BaseParams || pool.Header.QuoteParams != h.QuoteParams {
		if err := pool.Header.VerifyVaults(cfg.ProgramID, prev.Address); err != nil {
			return nil, &DecodeError{Account: "pool", Key: prev.Address, Err: err}
		}
	}

	baseAmount, err := vaultAmount("base vault", h.BaseParams.VaultKey, baseData, pool.Header.BaseParams.MintKey)
	if err != nil {
		return nil, err
	}
	quoteAmount, err := vaultAmount("quote vault", h.QuoteParams.VaultKey, quoteData, pool.Header.QuoteParams.MintKey)
	if err != nil {
		return nil, err
	}

	clock, err := DecodeClock(clockData)
	if err != nil {
		return nil, newDecodeError("clock", cfg.ClockSysvarID, err)
	}

	return &PoolSnapshot{
		Address:          prev.Address,
		Account:          *pool,
		BaseVaultAmount:  baseAmount,
		QuoteVaultAmount: quoteAmount,
		Slot:             clock.Slot,
	}, nil
}

func vaultAmount(role string, key solana.PublicKey, data []byte, mint solana.PublicKey) (uint64, error) {
	acc, err := DecodeTokenAccount(data)
	if err != nil {
		return 0, newDecodeError(role, key, err)
	}
	if acc.Mint != mint {
		return 0, &DecodeError{
			Account: role,
			Key:     key,
			Err:     fmt.Errorf("%w: mint %s, pool expects %s", ErrTokenAccount, acc.Mint, mint),
		}
	}
	return acc.Amount, nil
}
