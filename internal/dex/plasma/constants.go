// internal/dex/plasma/constants.go
package plasma

// Instruction discriminators.
const (
	SwapDiscriminator                 uint8 = 0
	AddLiquidityDiscriminator         uint8 = 1
	RemoveLiquidityDiscriminator      uint8 = 2
	InitializeLpPositionDiscriminator uint8 = 5
	InitializePoolDiscriminator       uint8 = 6
	TransferLiquidityDiscriminator    uint8 = 9
)

// PoolDiscriminator tags a pool account.
var PoolDiscriminator = [8]byte{116, 210, 187, 119, 196, 196, 52, 137}

// Account sizes in bytes.
const (
	PoolLen         = 624
	PoolHeaderLen   = 528
	AmmStateLen     = PoolLen - PoolHeaderLen
	TokenParamsLen  = 72
	FeeRecipientLen = 56
	LpPositionLen   = 64
	TokenAccountLen = 165
	ClockLen        = 40
)

// NumFeeRecipients is the fixed size of the protocol fee recipient table.
const NumFeeRecipients = 3

// PDA seeds.
const (
	VaultSeed      = "vault"
	LpPositionSeed = "lp_position"
	LogSeed        = "log"
)

const (
	// LeaderSlotWindow is the number of consecutive slots a leader produces.
	// Price snapshots and vesting windows are aligned to it.
	LeaderSlotWindow = 4

	BpsDenominator = 10_000
	PctDenominator = 100
)

// Label identifies the venue towards the aggregator.
const Label = "Plasma"
