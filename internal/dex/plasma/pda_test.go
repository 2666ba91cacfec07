package plasma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePDAs(t *testing.T) {
	cfg := testConfig()

	v1, b1, err := DeriveVaultPDA(cfg.ProgramID, testPool, testBaseMint)
	require.NoError(t, err)
	v2, b2, err := DeriveVaultPDA(cfg.ProgramID, testPool, testBaseMint)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, b1, b2)

	quoteVault, _, err := DeriveVaultPDA(cfg.ProgramID, testPool, testQuoteMint)
	require.NoError(t, err)
	assert.NotEqual(t, v1, quoteVault)

	mainnet, _, err := DeriveVaultPDA(ProgramID, testPool, testBaseMint)
	require.NoError(t, err)
	assert.NotEqual(t, v1, mainnet, "program id must take part in derivation")

	lp, _, err := DeriveLpPositionPDA(cfg.ProgramID, testPool, testTrader)
	require.NoError(t, err)
	otherLp, _, err := DeriveLpPositionPDA(cfg.ProgramID, testPool, testOther)
	require.NoError(t, err)
	assert.NotEqual(t, lp, otherLp)

	log, _, err := DeriveLogAuthorityPDA(cfg.ProgramID)
	require.NoError(t, err)
	assert.False(t, log.IsZero())
}

func TestVerifyVaults(t *testing.T) {
	cfg := testConfig()
	acc := testPoolAccount(t, cfg)
	require.NoError(t, acc.Header.VerifyVaults(cfg.ProgramID, testPool))

	spoofed := acc.Header
	spoofed.QuoteParams.VaultKey = testOther
	assert.ErrorIs(t, spoofed.VerifyVaults(cfg.ProgramID, testPool), ErrVaultMismatch)

	badBump := acc.Header
	badBump.BaseParams.VaultBump++
	assert.ErrorIs(t, badBump.VerifyVaults(cfg.ProgramID, testPool), ErrVaultMismatch)

	assert.ErrorIs(t, acc.Header.VerifyVaults(cfg.ProgramID, testOther), ErrVaultMismatch)
	assert.ErrorIs(t, acc.Header.VerifyVaults(ProgramID, testPool), ErrVaultMismatch)
}
