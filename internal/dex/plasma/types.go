// internal/dex/plasma/types.go
package plasma

import (
	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma/fixed"
)

// TokenParams describes one side of the pool.
type TokenParams struct {
	Decimals  uint32
	VaultBump uint32
	MintKey   solana.PublicKey
	VaultKey  solana.PublicKey
}

// ProtocolFeeRecipient tracks one recipient of the protocol fee share.
type ProtocolFeeRecipient struct {
	Recipient                 solana.PublicKey
	Shares                    uint64
	TotalAccumulatedQuoteFees uint64
	CollectedQuoteFees        uint64
}

// Uncollected returns the fees accrued but not yet collected.
func (r ProtocolFeeRecipient) Uncollected() uint64 {
	return r.TotalAccumulatedQuoteFees - r.CollectedQuoteFees
}

type ProtocolFeeRecipients struct {
	Recipients [NumFeeRecipients]ProtocolFeeRecipient
	Padding    [12]uint64
}

// PoolHeader is the fixed 528-byte prefix of a pool account.
type PoolHeader struct {
	Discriminator      [8]byte
	SequenceNumber     uint64
	BaseParams         TokenParams
	QuoteParams        TokenParams
	FeeRecipients      ProtocolFeeRecipients
	SwapSequenceNumber uint64
	Padding            [12]uint64
}

// AmmState is the constant-product state that follows the header.
type AmmState struct {
	FeeInBps                uint64
	ProtocolAllocationInPct uint64
	LpVestingWindow         uint64
	RewardFactor            fixed.I80F48
	TotalLpShares           uint64
	SlotSnapshot            uint64
	BaseReserveSnapshot     uint64
	QuoteReserveSnapshot    uint64
	BaseReserve             uint64
	QuoteReserve            uint64
	CumulativeQuoteLpFees   uint64
}

// PoolAccount is the full 624-byte pool account.
type PoolAccount struct {
	Header PoolHeader
	Amm    AmmState
}

// VestingTranche is a batch of LP shares that vests linearly from StartSlot.
type VestingTranche struct {
	StartSlot uint64
	Shares    uint64
}

// LpPosition is one liquidity provider's position in a pool.
type LpPosition struct {
	RewardFactorSnapshot fixed.I80F48
	LpShares             uint64
	WithdrawableLpShares uint64
	UncollectedFees      uint64
	CollectedFees        uint64
	PendingSharesToVest  VestingTranche
}

// Clock is the subset of the clock sysvar layout read by the adapter.
type Clock struct {
	Slot                uint64
	EpochStartTimestamp int64
	Epoch               uint64
	LeaderScheduleEpoch uint64
	UnixTimestamp       int64
}

// Side is the trade direction relative to the base token.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// SwapKind selects which side of the trade is fixed.
type SwapKind uint8

const (
	SwapKindExactIn SwapKind = iota
	SwapKindExactOut
)

func (k SwapKind) String() string {
	if k == SwapKindExactOut {
		return "exact_out"
	}
	return "exact_in"
}

// SwapType is the program's trade-size enum. For exact-in Amount is the
// input and Bound the minimum output; for exact-out Amount is the output
// and Bound the maximum input.
type SwapType struct {
	Kind   SwapKind
	Amount uint64
	Bound  uint64
}

func ExactIn(amountIn, minAmountOut uint64) SwapType {
	return SwapType{Kind: SwapKindExactIn, Amount: amountIn, Bound: minAmountOut}
}

func ExactOut(amountOut, maxAmountIn uint64) SwapType {
	return SwapType{Kind: SwapKindExactOut, Amount: amountOut, Bound: maxAmountIn}
}

// SwapParams is the payload of the swap instruction.
type SwapParams struct {
	Side     Side
	SwapType SwapType
}

// FeeRecipientParams configures a protocol fee recipient at pool creation.
type FeeRecipientParams struct {
	Recipient solana.PublicKey
	Shares    uint64
}

// InitializePoolParams is the payload of the initialize_pool instruction.
type InitializePoolParams struct {
	LpFeeInBps                 uint64
	ProtocolFeeAllocationInPct uint64
	FeeRecipients              [NumFeeRecipients]FeeRecipientParams
	// Rounded down on-chain to a multiple of LeaderSlotWindow.
	NumSlotsToVestLpShares *uint64
}

// AddLiquidityParams is the payload of the add_liquidity instruction.
type AddLiquidityParams struct {
	DesiredBaseAmountIn  uint64
	DesiredQuoteAmountIn uint64
	InitialLpShares      *uint64
}

// SwapResult is the outcome of a simulated swap.
type SwapResult struct {
	Side                  Side
	BaseAmountToTransfer  uint64
	QuoteAmountToTransfer uint64
	LpFees                uint64
	ProtocolFees          uint64
}

// FeeInQuote is the total fee charged in the quote token.
func (r SwapResult) FeeInQuote() uint64 {
	return r.LpFees + r.ProtocolFees
}

// AmountIn returns the amount the trader pays.
func (r SwapResult) AmountIn() uint64 {
	if r.Side == SideBuy {
		return r.QuoteAmountToTransfer
	}
	return r.BaseAmountToTransfer
}

// AmountOut returns the amount the trader receives.
func (r SwapResult) AmountOut() uint64 {
	if r.Side == SideBuy {
		return r.BaseAmountToTransfer
	}
	return r.QuoteAmountToTransfer
}
