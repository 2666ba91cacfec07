// internal/dex/plasma/instructions.go
package plasma

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Builder encodes Plasma instructions. It is stateless apart from the
// identifiers it was created with; the same call always yields the same bytes.
type Builder struct {
	cfg          Config
	logAuthority solana.PublicKey
}

// NewBuilder derives the log authority once for cfg.ProgramID.
func NewBuilder(cfg Config) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logAuthority, _, err := DeriveLogAuthorityPDA(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("derive log authority: %w", err)
	}
	return &Builder{cfg: cfg, logAuthority: logAuthority}, nil
}

func (b *Builder) LogAuthority() solana.PublicKey { return b.logAuthority }

func (b *Builder) Config() Config { return b.cfg }

func (b *Builder) vaults(pool, baseMint, quoteMint solana.PublicKey) (solana.PublicKey, solana.PublicKey, error) {
	baseVault, _, err := DeriveVaultPDA(b.cfg.ProgramID, pool, baseMint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("derive base vault: %w", err)
	}
	quoteVault, _, err := DeriveVaultPDA(b.cfg.ProgramID, pool, quoteMint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("derive quote vault: %w", err)
	}
	return baseVault, quoteVault, nil
}

func (b *Builder) lpPosition(pool, owner solana.PublicKey) (solana.PublicKey, error) {
	key, _, err := DeriveLpPositionPDA(b.cfg.ProgramID, pool, owner)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive lp position: %w", err)
	}
	return key, nil
}

// header returns the two accounts every instruction starts with.
func (b *Builder) header() []*solana.AccountMeta {
	return []*solana.AccountMeta{
		solana.NewAccountMeta(b.cfg.ProgramID, false, false),
		solana.NewAccountMeta(b.logAuthority, false, false),
	}
}

// payload prefixes the discriminator to the encoded params.
func payload(discriminator uint8, params bin.BinaryMarshaler) ([]byte, error) {
	if params == nil {
		return []byte{discriminator}, nil
	}
	body, err := encode(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return append([]byte{discriminator}, body...), nil
}

// InitializePool creates a pool and its two vaults.
func (b *Builder) InitializePool(
	pool, creator, baseMint, quoteMint solana.PublicKey,
	params InitializePoolParams,
) (*solana.GenericInstruction, error) {
	baseVault, quoteVault, err := b.vaults(pool, baseMint, quoteMint)
	if err != nil {
		return nil, err
	}
	data, err := payload(InitializePoolDiscriminator, params)
	if err != nil {
		return nil, err
	}
	accounts := append(b.header(),
		solana.NewAccountMeta(pool, true, false),
		solana.NewAccountMeta(creator, true, true),
		solana.NewAccountMeta(baseMint, false, false),
		solana.NewAccountMeta(quoteMint, false, false),
		solana.NewAccountMeta(baseVault, true, false),
		solana.NewAccountMeta(quoteVault, true, false),
		solana.NewAccountMeta(b.cfg.SystemProgramID, false, false),
		solana.NewAccountMeta(b.cfg.TokenProgramID, false, false),
	)
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}

// InitializeLpPosition creates owner's LP position, paid for by payer.
func (b *Builder) InitializeLpPosition(pool, payer, owner solana.PublicKey) (*solana.GenericInstruction, error) {
	lp, err := b.lpPosition(pool, owner)
	if err != nil {
		return nil, err
	}
	data, err := payload(InitializeLpPositionDiscriminator, nil)
	if err != nil {
		return nil, err
	}
	accounts := append(b.header(),
		solana.NewAccountMeta(pool, true, false),
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(owner, false, false),
		solana.NewAccountMeta(lp, true, false),
		solana.NewAccountMeta(b.cfg.SystemProgramID, false, false),
	)
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}

func (b *Builder) liquidityAccounts(
	pool, trader, baseMint, quoteMint, baseAccount, quoteAccount solana.PublicKey,
) ([]*solana.AccountMeta, error) {
	lp, err := b.lpPosition(pool, trader)
	if err != nil {
		return nil, err
	}
	baseVault, quoteVault, err := b.vaults(pool, baseMint, quoteMint)
	if err != nil {
		return nil, err
	}
	return append(b.header(),
		solana.NewAccountMeta(pool, true, false),
		solana.NewAccountMeta(trader, false, true),
		solana.NewAccountMeta(lp, true, false),
		solana.NewAccountMeta(baseAccount, true, false),
		solana.NewAccountMeta(quoteAccount, true, false),
		solana.NewAccountMeta(baseVault, true, false),
		solana.NewAccountMeta(quoteVault, true, false),
		solana.NewAccountMeta(b.cfg.TokenProgramID, false, false),
	), nil
}

// AddLiquidity deposits into trader's LP position.
func (b *Builder) AddLiquidity(
	pool, trader, baseMint, quoteMint, baseAccount, quoteAccount solana.PublicKey,
	params AddLiquidityParams,
) (*solana.GenericInstruction, error) {
	accounts, err := b.liquidityAccounts(pool, trader, baseMint, quoteMint, baseAccount, quoteAccount)
	if err != nil {
		return nil, err
	}
	data, err := payload(AddLiquidityDiscriminator, params)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}

// RemoveLiquidity burns shares from trader's LP position.
func (b *Builder) RemoveLiquidity(
	pool, trader, baseMint, quoteMint, baseAccount, quoteAccount solana.PublicKey,
	shares uint64,
) (*solana.GenericInstruction, error) {
	accounts, err := b.liquidityAccounts(pool, trader, baseMint, quoteMint, baseAccount, quoteAccount)
	if err != nil {
		return nil, err
	}
	data, err := payload(RemoveLiquidityDiscriminator, removeLiquidityParams(shares))
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}

// TransferLiquidity moves src's LP position to dst.
func (b *Builder) TransferLiquidity(pool, src, dst solana.PublicKey) (*solana.GenericInstruction, error) {
	srcLp, err := b.lpPosition(pool, src)
	if err != nil {
		return nil, err
	}
	dstLp, err := b.lpPosition(pool, dst)
	if err != nil {
		return nil, err
	}
	data, err := payload(TransferLiquidityDiscriminator, nil)
	if err != nil {
		return nil, err
	}
	accounts := append(b.header(),
		solana.NewAccountMeta(pool, true, false),
		solana.NewAccountMeta(src, true, true),
		solana.NewAccountMeta(srcLp, true, false),
		solana.NewAccountMeta(dstLp, true, false),
	)
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}

// Swap trades against the pool. The slippage bound in params is carried
// as is; the program enforces it.
func (b *Builder) Swap(
	pool, trader, baseMint, quoteMint, baseAccount, quoteAccount solana.PublicKey,
	params SwapParams,
) (*solana.GenericInstruction, error) {
	baseVault, quoteVault, err := b.vaults(pool, baseMint, quoteMint)
	if err != nil {
		return nil, err
	}
	data, err := payload(SwapDiscriminator, params)
	if err != nil {
		return nil, err
	}
	accounts := append(b.header(),
		solana.NewAccountMeta(pool, true, false),
		solana.NewAccountMeta(trader, false, true),
		solana.NewAccountMeta(baseAccount, true, false),
		solana.NewAccountMeta(quoteAccount, true, false),
		solana.NewAccountMeta(baseVault, true, false),
		solana.NewAccountMeta(quoteVault, true, false),
		solana.NewAccountMeta(b.cfg.TokenProgramID, false, false),
	)
	return solana.NewInstruction(b.cfg.ProgramID, accounts, data), nil
}
