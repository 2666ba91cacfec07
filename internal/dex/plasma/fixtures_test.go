package plasma

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

func testKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

var (
	testPool      = testKey(0x11)
	testBaseMint  = testKey(0x22)
	testQuoteMint = testKey(0x33)
	testTrader    = testKey(0x44)
	testOther     = testKey(0x55)
)

// testConfig targets a non-mainnet program id.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProgramID = testKey(0x99)
	return cfg
}

func testTokenParams(t *testing.T, cfg Config, mint solana.PublicKey, decimals uint32) TokenParams {
	t.Helper()
	vault, bump, err := DeriveVaultPDA(cfg.ProgramID, testPool, mint)
	require.NoError(t, err)
	return TokenParams{Decimals: decimals, VaultBump: uint32(bump), MintKey: mint, VaultKey: vault}
}

func testPoolAccount(t *testing.T, cfg Config) PoolAccount {
	t.Helper()
	acc := PoolAccount{
		Header: PoolHeader{
			Discriminator:      PoolDiscriminator,
			SequenceNumber:     7,
			BaseParams:         testTokenParams(t, cfg, testBaseMint, 6),
			QuoteParams:        testTokenParams(t, cfg, testQuoteMint, 9),
			SwapSequenceNumber: 3,
		},
		Amm: AmmState{
			FeeInBps:                30,
			ProtocolAllocationInPct: 50,
			LpVestingWindow:         100,
			RewardFactor:            fixed.One,
			TotalLpShares:           1_000,
			SlotSnapshot:            0,
			BaseReserveSnapshot:     1_000_000,
			QuoteReserveSnapshot:    500_000,
			BaseReserve:             1_000_000,
			QuoteReserve:            500_000,
		},
	}
	acc.Header.FeeRecipients.Recipients[0] = ProtocolFeeRecipient{
		Recipient:                 testKey(0x66),
		Shares:                    10_000,
		TotalAccumulatedQuoteFees: 500,
		CollectedQuoteFees:        200,
	}
	return acc
}

func encodePool(t *testing.T, acc PoolAccount) []byte {
	t.Helper()
	data, err := acc.Encode()
	require.NoError(t, err)
	require.Len(t, data, PoolLen)
	return data
}

func tokenAccountData(t *testing.T, mint solana.PublicKey, amount uint64, state token.AccountState) []byte {
	t.Helper()
	var buf bytes.Buffer
	acc := token.Account{Mint: mint, Owner: testPool, Amount: amount, State: state}
	require.NoError(t, acc.MarshalWithEncoder(bin.NewBinEncoder(&buf)))
	require.Len(t, buf.Bytes(), TokenAccountLen)
	return buf.Bytes()
}

func clockData(t *testing.T, slot uint64) []byte {
	t.Helper()
	var buf bytes.Buffer
	c := Clock{Slot: slot, EpochStartTimestamp: 1_700_000_000, Epoch: 600, LeaderScheduleEpoch: 601, UnixTimestamp: 1_700_000_400}
	require.NoError(t, c.MarshalWithEncoder(bin.NewBinEncoder(&buf)))
	require.Len(t, buf.Bytes(), ClockLen)
	return buf.Bytes()
}

// testAccounts returns a complete refresh batch for acc at slot.
func testAccounts(t *testing.T, cfg Config, acc PoolAccount, baseAmount, quoteAmount, slot uint64) AccountMap {
	t.Helper()
	return AccountMap{
		testPool:                        encodePool(t, acc),
		acc.Header.BaseParams.VaultKey:  tokenAccountData(t, acc.Header.BaseParams.MintKey, baseAmount, token.Initialized),
		acc.Header.QuoteParams.VaultKey: tokenAccountData(t, acc.Header.QuoteParams.MintKey, quoteAmount, token.Initialized),
		cfg.ClockSysvarID:               clockData(t, slot),
	}
}

func testSnapshot(t *testing.T, cfg Config) *PoolSnapshot {
	t.Helper()
	snap, err := NewSnapshot(testPool, encodePool(t, testPoolAccount(t, cfg)), 1_000, cfg)
	require.NoError(t, err)
	return snap
}

func testAdapter(t *testing.T, cfg Config, opts ...Option) *Adapter {
	t.Helper()
	a, err := NewAdapter(testPool, encodePool(t, testPoolAccount(t, cfg)), 1_000, cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	return a
}
