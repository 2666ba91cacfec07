// internal/dex/plasma/config.go
package plasma

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the mainnet deployment of the Plasma program.
var ProgramID = solana.MustPublicKeyFromBase58("srAMMzfVHVAtgSJc8iH6CfKzuWuUTzLHVCE81QU1rgi")

// Config holds the program identifiers used for address derivation and
// instruction encoding. They are never read from package globals inside
// the decoder or encoder, so a test deployment can be targeted.
type Config struct {
	ProgramID       solana.PublicKey
	TokenProgramID  solana.PublicKey
	SystemProgramID solana.PublicKey
	ClockSysvarID   solana.PublicKey
}

// DefaultConfig returns the mainnet identifiers.
func DefaultConfig() Config {
	return Config{
		ProgramID:       ProgramID,
		TokenProgramID:  solana.TokenProgramID,
		SystemProgramID: solana.SystemProgramID,
		ClockSysvarID:   solana.SysVarClockPubkey,
	}
}

// Validate checks that identifiers are set. The system program id is all
// zero bytes on every cluster, so a zero value there is the real address.
func (c Config) Validate() error {
	for _, id := range []struct {
		name string
		key  solana.PublicKey
	}{
		{"program_id", c.ProgramID},
		{"token_program_id", c.TokenProgramID},
		{"clock_sysvar_id", c.ClockSysvarID},
	} {
		if id.key.IsZero() {
			return fmt.Errorf("plasma config: %s is not set", id.name)
		}
	}
	if !c.SystemProgramID.Equals(solana.SystemProgramID) {
		return fmt.Errorf("plasma config: system_program_id must be %s", solana.SystemProgramID)
	}
	return nil
}
