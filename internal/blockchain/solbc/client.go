// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma"
)

// MaxAccountsPerRequest - лимит getMultipleAccounts публичных RPC узлов
const MaxAccountsPerRequest = 100

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// Options задает поведение запросов клиента
type Options struct {
	Commitment rpc.CommitmentType
	Timeout    time.Duration
	MaxRetries uint // повторы после первой попытки; 0 - без повторов
	RetryDelay time.Duration
	BatchSize  int
}

// DefaultOptions возвращает настройки для публичных mainnet узлов
func DefaultOptions() Options {
	return Options{
		Commitment: rpc.CommitmentConfirmed,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
		BatchSize:  MaxAccountsPerRequest,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Commitment == "" {
		o.Commitment = d.Commitment
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.BatchSize <= 0 || o.BatchSize > MaxAccountsPerRequest {
		o.BatchSize = MaxAccountsPerRequest
	}
	return o
}

// LatencyRecorder получает время выполнения каждого RPC запроса
type LatencyRecorder interface {
	RecordRPCLatency(method, endpoint string, duration time.Duration, success bool)
}

// Client загружает сырые данные аккаунтов, чередуя RPC узлы
type Client struct {
	pool    pool
	opts    Options
	logger  *zap.Logger
	metrics LatencyRecorder
}

// NewClient создает клиент для списка RPC URL
func NewClient(urls []string, logger *zap.Logger, opts Options) (*Client, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no RPC endpoints provided")
	}
	nodes := make([]*Node, 0, len(urls))
	for _, url := range urls {
		nodes = append(nodes, NewNode(url, rpc.New(url)))
	}
	return NewClientWithNodes(nodes, logger, opts), nil
}

// NewClientWithNodes создает клиент поверх готовых узлов
func NewClientWithNodes(nodes []*Node, logger *zap.Logger, opts Options) *Client {
	return &Client{
		pool:   pool{nodes: nodes},
		opts:   opts.normalized(),
		logger: logger.Named("solbc"),
	}
}

// SetMetrics подключает сборщик метрик. Вызывать до первого FetchAccounts.
func (c *Client) SetMetrics(m LatencyRecorder) {
	c.metrics = m
}

// Nodes возвращает узлы клиента вместе с их статистикой
func (c *Client) Nodes() []*Node {
	return c.pool.nodes
}

// FetchAccounts загружает данные всех ключей и возвращает слот, в котором они
// были прочитаны. Ключи запрашиваются батчами; каждый следующий батч
// привязывается к слоту первого через MinContextSlot. Несуществующие
// аккаунты в результат не попадают.
func (c *Client) FetchAccounts(ctx context.Context, keys []solana.PublicKey) (plasma.AccountMap, uint64, error) {
	accounts := make(plasma.AccountMap, len(keys))
	if len(keys) == 0 {
		return accounts, 0, nil
	}

	var slot uint64
	for start := 0; start < len(keys); start += c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(keys))
		batch := keys[start:end]

		res, err := c.fetchBatch(ctx, batch, slot)
		if err != nil {
			return nil, 0, err
		}
		if slot == 0 {
			slot = res.Context.Slot
		} else if res.Context.Slot != slot {
			return nil, 0, fmt.Errorf("%w: %d and %d", ErrSlotMismatch, slot, res.Context.Slot)
		}

		if len(res.Value) != len(batch) {
			return nil, 0, fmt.Errorf("%w: requested %d accounts, got %d",
				ErrInvalidResponse, len(batch), len(res.Value))
		}
		for i, acc := range res.Value {
			if acc == nil || acc.Data == nil {
				continue
			}
			accounts[batch[i]] = acc.Data.GetBinary()
		}
	}

	return accounts, slot, nil
}

func (c *Client) fetchBatch(
	ctx context.Context,
	batch []solana.PublicKey,
	minSlot uint64,
) (*rpc.GetMultipleAccountsResult, error) {
	opts := &rpc.GetMultipleAccountsOpts{
		Commitment: c.opts.Commitment,
		Encoding:   solana.EncodingBase64,
	}
	if minSlot > 0 {
		opts.MinContextSlot = &minSlot
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.opts.RetryDelay
	policy.MaxInterval = c.opts.RetryDelay * 4

	operation := func() (*rpc.GetMultipleAccountsResult, error) {
		node, err := c.pool.pick()
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		start := time.Now()
		res, err := node.client.GetMultipleAccountsWithOpts(reqCtx, batch, opts)
		elapsed := time.Since(start)
		node.updateMetrics(err == nil, elapsed)
		if c.metrics != nil {
			c.metrics.RecordRPCLatency("getMultipleAccounts", node.URL, elapsed, err == nil)
		}

		switch {
		case errors.Is(err, rpc.ErrNotFound):
			return nil, backoff.Permanent(&Error{Err: ErrInvalidResponse, NodeURL: node.URL, Method: "getMultipleAccounts"})
		case err != nil:
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			node.SetActive(false)
			return nil, &Error{Err: err, NodeURL: node.URL, Method: "getMultipleAccounts"}
		case res == nil:
			return nil, backoff.Permanent(&Error{Err: ErrInvalidResponse, NodeURL: node.URL, Method: "getMultipleAccounts"})
		}
		return res, nil
	}

	notify := func(err error, d time.Duration) {
		c.logger.Warn("Account fetch failed, retrying",
			zap.Error(err),
			zap.Int("batch_size", len(batch)),
			zap.Duration("retry_in", d))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.opts.MaxRetries+1),
		backoff.WithNotify(notify),
	)
}
