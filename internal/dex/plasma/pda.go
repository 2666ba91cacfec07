// internal/dex/plasma/pda.go
package plasma

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DeriveVaultPDA derives the token vault of pool for mint.
func DeriveVaultPDA(programID, pool, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(VaultSeed), pool.Bytes(), mint.Bytes()}, programID)
}

// DeriveLpPositionPDA derives the LP position of trader in pool.
func DeriveLpPositionPDA(programID, pool, trader solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(LpPositionSeed), pool.Bytes(), trader.Bytes()}, programID)
}

// DeriveLogAuthorityPDA derives the program's event log authority.
func DeriveLogAuthorityPDA(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(LogSeed)}, programID)
}

// VerifyVaults re-derives both vaults from (pool, mint) and compares them,
// including bumps, to the stored values. A header whose vaults do not
// re-derive is a spoofed or foreign account.
func (h *PoolHeader) VerifyVaults(programID, pool solana.PublicKey) error {
	sides := []struct {
		name   string
		params TokenParams
	}{
		{"base", h.BaseParams},
		{"quote", h.QuoteParams},
	}
	for _, s := range sides {
		vault, bump, err := DeriveVaultPDA(programID, pool, s.params.MintKey)
		if err != nil {
			return fmt.Errorf("derive %s vault: %w", s.name, err)
		}
		if vault != s.params.VaultKey || uint32(bump) != s.params.VaultBump {
			return fmt.Errorf("%w: %s vault %s (bump %d), derived %s (bump %d)",
				ErrVaultMismatch, s.name, s.params.VaultKey, s.params.VaultBump, vault, bump)
		}
	}
	return nil
}
