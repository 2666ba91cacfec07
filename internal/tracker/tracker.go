// internal/tracker/tracker.go
package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma"
	"github.com/rovshanmuradov/plasma-amm/internal/utils/metrics"
)

// DefaultConcurrency ограничивает число одновременных обновлений пулов
const DefaultConcurrency = 8

// AccountFetcher загружает сырые данные аккаунтов. Реализуется solbc.Client.
type AccountFetcher interface {
	FetchAccounts(ctx context.Context, keys []solana.PublicKey) (plasma.AccountMap, uint64, error)
	FindProgramAccounts(ctx context.Context, program solana.PublicKey, discriminator []byte, dataSize uint64) (plasma.AccountMap, error)
}

// Recorder получает результаты обновлений. Реализуется metrics.Collector.
type Recorder interface {
	RecordRefresh(pool string, success bool)
	UpdatePoolState(pool string, state metrics.PoolState)
}

// Tracker держит набор адаптеров Plasma и периодически обновляет их снапшоты.
type Tracker struct {
	fetcher     AccountFetcher
	cfg         plasma.Config
	interval    time.Duration
	concurrency int
	logger      *zap.Logger
	metrics     Recorder
	options     []plasma.Option

	mu       sync.RWMutex
	adapters map[solana.PublicKey]*plasma.Adapter
}

// New создает трекер. Опции передаются каждому создаваемому адаптеру.
func New(
	fetcher AccountFetcher,
	cfg plasma.Config,
	interval time.Duration,
	logger *zap.Logger,
	opts ...plasma.Option,
) *Tracker {
	return &Tracker{
		fetcher:     fetcher,
		cfg:         cfg,
		interval:    interval,
		concurrency: DefaultConcurrency,
		logger:      logger.Named("tracker"),
		options:     opts,
		adapters:    make(map[solana.PublicKey]*plasma.Adapter),
	}
}

// SetMetrics подключает сборщик метрик.
func (t *Tracker) SetMetrics(r Recorder) {
	t.metrics = r
}

// SetConcurrency задает лимит параллельных обновлений; n <= 0 снимает лимит.
func (t *Tracker) SetConcurrency(n int) {
	t.concurrency = n
}

// Track загружает пул, создает для него адаптер и сразу обновляет снапшот
// вместе с хранилищами и часами.
func (t *Tracker) Track(ctx context.Context, pool solana.PublicKey) (*plasma.Adapter, error) {
	if a, ok := t.Adapter(pool); ok {
		return a, nil
	}

	accounts, slot, err := t.fetcher.FetchAccounts(ctx, []solana.PublicKey{pool})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool %s: %w", pool, err)
	}
	data, ok := accounts[pool]
	if !ok {
		return nil, &plasma.MissingAccountError{Account: "pool", Key: pool}
	}

	return t.add(ctx, pool, data, slot)
}

// Discover находит все пулы программы и начинает их отслеживать.
// Пулы, которые не удалось декодировать, пропускаются с предупреждением.
func (t *Tracker) Discover(ctx context.Context) (int, error) {
	accounts, err := t.fetcher.FindProgramAccounts(ctx, t.cfg.ProgramID, plasma.PoolDiscriminator[:], plasma.PoolLen)
	if err != nil {
		return 0, fmt.Errorf("failed to discover pools: %w", err)
	}

	added := 0
	for _, pool := range sortedKeys(accounts) {
		if _, ok := t.Adapter(pool); ok {
			continue
		}
		if _, err := t.add(ctx, pool, accounts[pool], 0); err != nil {
			t.logger.Warn("Skipping pool", zap.String("pool", pool.String()), zap.Error(err))
			continue
		}
		added++
	}

	t.logger.Info("Pool discovery finished",
		zap.Int("found", len(accounts)),
		zap.Int("added", added))
	return added, nil
}

func (t *Tracker) add(ctx context.Context, pool solana.PublicKey, data []byte, slot uint64) (*plasma.Adapter, error) {
	a, err := plasma.NewAdapter(pool, data, slot, t.cfg, t.logger, t.options...)
	if err != nil {
		return nil, err
	}
	if err := t.Refresh(ctx, a); err != nil {
		return nil, err
	}

	t.mu.Lock()
	if existing, ok := t.adapters[pool]; ok {
		t.mu.Unlock()
		return existing, nil
	}
	t.adapters[pool] = a
	t.mu.Unlock()

	t.logger.Info("Tracking pool",
		zap.String("pool", pool.String()),
		zap.String("base_mint", a.Snapshot().BaseMint().String()),
		zap.String("quote_mint", a.Snapshot().QuoteMint().String()))
	return a, nil
}

// Untrack прекращает отслеживание пула.
func (t *Tracker) Untrack(pool solana.PublicKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.adapters[pool]
	delete(t.adapters, pool)
	return ok
}

// Adapter возвращает адаптер пула.
func (t *Tracker) Adapter(pool solana.PublicKey) (*plasma.Adapter, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.adapters[pool]
	return a, ok
}

// Adapters возвращает все адаптеры, отсортированные по адресу пула.
func (t *Tracker) Adapters() []*plasma.Adapter {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*plasma.Adapter, 0, len(t.adapters))
	for _, a := range t.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].Key(), out[j].Key()
		return bytes.Compare(ki[:], kj[:]) < 0
	})
	return out
}

// AdaptersForPair возвращает пулы, торгующие парой mint'ов в любом порядке.
func (t *Tracker) AdaptersForPair(mintA, mintB solana.PublicKey) []*plasma.Adapter {
	var out []*plasma.Adapter
	for _, a := range t.Adapters() {
		snap := a.Snapshot()
		base, quote := snap.BaseMint(), snap.QuoteMint()
		if (base.Equals(mintA) && quote.Equals(mintB)) || (base.Equals(mintB) && quote.Equals(mintA)) {
			out = append(out, a)
		}
	}
	return out
}

// Refresh загружает аккаунты одного пула и применяет их к адаптеру.
// При ошибке адаптер сохраняет предыдущий снапшот.
func (t *Tracker) Refresh(ctx context.Context, a *plasma.Adapter) error {
	pool := a.Key().String()

	accounts, slot, err := t.fetcher.FetchAccounts(ctx, a.AccountsToUpdate())
	if err == nil {
		err = a.Update(accounts)
	}

	if t.metrics != nil {
		t.metrics.RecordRefresh(pool, err == nil)
	}
	if err != nil {
		return fmt.Errorf("refresh pool %s at slot %d: %w", pool, slot, err)
	}

	if t.metrics != nil {
		t.metrics.UpdatePoolState(pool, poolState(a.Snapshot()))
	}
	return nil
}

func poolState(snap *plasma.PoolSnapshot) metrics.PoolState {
	amm := snap.Account.Amm
	state := metrics.PoolState{
		Slot:         snap.Slot,
		BaseReserve:  amm.BaseReserve,
		QuoteReserve: amm.QuoteReserve,
	}
	if price, err := amm.SpotPrice(); err == nil {
		state.SpotPrice = price.Float64()
	}
	for _, r := range snap.Account.Header.FeeRecipients.Recipients {
		state.UncollectedProtocolFees += r.Uncollected()
	}
	return state
}

// RefreshAll параллельно обновляет все пулы. Ошибка одного пула не
// прерывает остальные; возвращается объединение всех ошибок.
func (t *Tracker) RefreshAll(ctx context.Context) error {
	start := time.Now()
	adapters := t.Adapters()

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gCtx := errgroup.WithContext(ctx)
	if t.concurrency > 0 {
		g.SetLimit(t.concurrency)
	}
	for _, a := range adapters {
		g.Go(func() error {
			if err := t.Refresh(gCtx, a); err != nil {
				t.logger.Warn("Pool refresh failed", zap.Error(err))
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	t.logger.Debug("Pools refreshed",
		zap.Int("pools", len(adapters)),
		zap.Int("failed", len(errs)),
		zap.Duration("duration", time.Since(start)))
	return errors.Join(errs...)
}

// Run обновляет пулы с заданным интервалом до отмены контекста.
func (t *Tracker) Run(ctx context.Context) error {
	t.logger.Info("Starting pool tracker",
		zap.Int("pools", len(t.Adapters())),
		zap.Duration("interval", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = t.RefreshAll(ctx)
		case <-ctx.Done():
			t.logger.Debug("Pool tracker stopped")
			return ctx.Err()
		}
	}
}

func sortedKeys(m plasma.AccountMap) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}
