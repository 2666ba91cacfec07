// internal/dex/plasma/adapter.go
package plasma

import (
	"fmt"
	"sync/atomic"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// QuoteParams is the aggregator's quote request.
type QuoteParams struct {
	Amount     uint64
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	SwapMode   SwapMode
}

// SwapRequest is a finalized trade chosen by the aggregator.
type SwapRequest struct {
	InAmount                uint64
	OutAmount               uint64
	SourceMint              solana.PublicKey
	DestinationMint         solana.PublicKey
	SourceTokenAccount      solana.PublicKey
	DestinationTokenAccount solana.PublicKey
	TokenTransferAuthority  solana.PublicKey
	SwapMode                SwapMode
}

// Swap is the trade description reported back to the aggregator. Its exact
// shape belongs to the aggregator, so it is produced by a SwapVariant.
type Swap interface {
	SwapLabel() string
}

// PlasmaSwap is the default Swap: the program's own swap parameters.
type PlasmaSwap struct {
	Params SwapParams
}

func (PlasmaSwap) SwapLabel() string { return Label }

// SwapVariant builds the aggregator-facing Swap for an encoded trade.
type SwapVariant func(req SwapRequest, params SwapParams) Swap

// DefaultSwapVariant reports the encoded swap parameters unchanged.
func DefaultSwapVariant(_ SwapRequest, params SwapParams) Swap {
	return PlasmaSwap{Params: params}
}

// SwapAndAccountMetas is everything needed to put the trade into a transaction.
type SwapAndAccountMetas struct {
	Swap         Swap
	ProgramID    solana.PublicKey
	AccountMetas []*solana.AccountMeta
	Data         []byte
}

// SimulatorFactory picks the simulator for a snapshot.
type SimulatorFactory func(*PoolSnapshot) Simulator

func ammSimulator(s *PoolSnapshot) Simulator { return s.Account.Amm }

// Adapter exposes one pool to an order-routing aggregator. The current
// snapshot is swapped atomically on Update, so concurrent quotes always see
// one complete snapshot.
type Adapter struct {
	cfg       Config
	builder   *Builder
	snap      atomic.Pointer[PoolSnapshot]
	simulator SimulatorFactory
	variant   SwapVariant
	logger    *zap.Logger
}

type Option func(*Adapter)

func WithSimulator(f SimulatorFactory) Option {
	return func(a *Adapter) { a.simulator = f }
}

func WithSwapVariant(v SwapVariant) Option {
	return func(a *Adapter) { a.variant = v }
}

// NewAdapter builds an adapter from the pool account's data and the slot it
// was read at. Vault amounts are zero until the first Update.
func NewAdapter(
	pool solana.PublicKey,
	data []byte,
	slot uint64,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) (*Adapter, error) {
	builder, err := NewBuilder(cfg)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(pool, data, slot, cfg)
	if err != nil {
		return nil, err
	}

	a := &Adapter{
		cfg:       cfg,
		builder:   builder,
		simulator: ammSimulator,
		variant:   DefaultSwapVariant,
		logger:    logger.Named("plasma").With(zap.String("pool", pool.String())),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.snap.Store(snap)

	a.logger.Debug("Adapter created",
		zap.String("base_mint", snap.BaseMint().String()),
		zap.String("quote_mint", snap.QuoteMint().String()),
		zap.Uint64("slot", slot))
	return a, nil
}

func (a *Adapter) Label() string { return Label }

func (a *Adapter) ProgramID() solana.PublicKey { return a.cfg.ProgramID }

func (a *Adapter) Key() solana.PublicKey { return a.snap.Load().Address }

// Snapshot returns the current snapshot. Callers must not modify it.
func (a *Adapter) Snapshot() *PoolSnapshot { return a.snap.Load() }

// ReserveMints returns the base and quote mints.
func (a *Adapter) ReserveMints() []solana.PublicKey {
	s := a.snap.Load()
	return []solana.PublicKey{s.BaseMint(), s.QuoteMint()}
}

// AccountsToUpdate returns the addresses Update expects, all read at one slot.
func (a *Adapter) AccountsToUpdate() []solana.PublicKey {
	return a.snap.Load().AccountsToUpdate(a.cfg)
}

// Update refreshes the snapshot from accounts. On error the previous
// snapshot remains current. A refresh observed at an older slot than the
// current snapshot is dropped, so overlapping updates never move the
// snapshot backwards.
func (a *Adapter) Update(accounts AccountMap) error {
	prev := a.snap.Load()
	next, err := Refresh(prev, accounts, a.cfg)
	if err != nil {
		a.logger.Warn("Pool refresh failed", zap.Uint64("slot", prev.Slot), zap.Error(err))
		return err
	}

	for {
		cur := a.snap.Load()
		if next.Slot < cur.Slot {
			a.logger.Debug("Stale refresh dropped",
				zap.Uint64("slot", next.Slot),
				zap.Uint64("current_slot", cur.Slot))
			return nil
		}
		if a.snap.CompareAndSwap(cur, next) {
			break
		}
	}

	a.logger.Debug("Pool refreshed",
		zap.Uint64("slot", next.Slot),
		zap.Uint64("base_vault", next.BaseVaultAmount),
		zap.Uint64("quote_vault", next.QuoteVaultAmount),
		zap.Uint64("sequence", next.Account.Header.SequenceNumber))
	return nil
}

// Quote prices a trade against the current snapshot.
func (a *Adapter) Quote(p QuoteParams) (Quote, error) {
	snap := a.snap.Load()
	if err := checkPair(snap, p.InputMint, p.OutputMint); err != nil {
		return Quote{}, err
	}
	sim := a.simulator(snap)
	if p.SwapMode == SwapModeExactOut {
		return QuoteExactOut(snap, sim, p.InputMint, p.Amount)
	}
	return QuoteExactIn(snap, sim, p.InputMint, p.Amount)
}

// SwapAndAccountMetas encodes the swap instruction for req. The source mint
// picks the side; the token accounts are ordered base then quote.
func (a *Adapter) SwapAndAccountMetas(req SwapRequest) (*SwapAndAccountMetas, error) {
	snap := a.snap.Load()
	if err := checkPair(snap, req.SourceMint, req.DestinationMint); err != nil {
		return nil, err
	}
	side, err := ResolveSide(snap.Header(), req.SourceMint)
	if err != nil {
		return nil, err
	}

	baseAccount, quoteAccount := req.SourceTokenAccount, req.DestinationTokenAccount
	if side == SideBuy {
		baseAccount, quoteAccount = req.DestinationTokenAccount, req.SourceTokenAccount
	}

	swapType := ExactIn(req.InAmount, req.OutAmount)
	if req.SwapMode == SwapModeExactOut {
		swapType = ExactOut(req.OutAmount, req.InAmount)
	}
	params := SwapParams{Side: side, SwapType: swapType}

	ix, err := a.builder.Swap(
		snap.Address,
		req.TokenTransferAuthority,
		snap.BaseMint(),
		snap.QuoteMint(),
		baseAccount,
		quoteAccount,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("build swap instruction: %w", err)
	}
	data, err := ix.Data()
	if err != nil {
		return nil, err
	}

	return &SwapAndAccountMetas{
		Swap:         a.variant(req, params),
		ProgramID:    ix.ProgramID(),
		AccountMetas: ix.Accounts(),
		Data:         data,
	}, nil
}

// Clone returns an independent adapter sharing the current snapshot value.
func (a *Adapter) Clone() *Adapter {
	c := &Adapter{
		cfg:       a.cfg,
		builder:   a.builder,
		simulator: a.simulator,
		variant:   a.variant,
		logger:    a.logger,
	}
	c.snap.Store(a.snap.Load())
	return c
}

// checkPair rejects mints outside the pool. A zero output mint is not checked.
func checkPair(snap *PoolSnapshot, input, output solana.PublicKey) error {
	base, quote := snap.BaseMint(), snap.QuoteMint()
	if input != base && input != quote {
		return fmt.Errorf("%w: input %s", ErrUnknownMint, input)
	}
	if output.IsZero() {
		return nil
	}
	if output == input || (output != base && output != quote) {
		return fmt.Errorf("%w: output %s", ErrUnknownMint, output)
	}
	return nil
}
