// internal/blockchain/solbc/program_accounts.go
package solbc

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/plasma-amm/internal/dex/plasma"
)

// FindProgramAccounts возвращает аккаунты программы размером ровно dataSize
// байт, данные которых начинаются с discriminator.
func (c *Client) FindProgramAccounts(
	ctx context.Context,
	program solana.PublicKey,
	discriminator []byte,
	dataSize uint64,
) (plasma.AccountMap, error) {
	opts := &rpc.GetProgramAccountsOpts{
		Commitment: c.opts.Commitment,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: dataSize},
			{Memcmp: &rpc.RPCFilterMemcmp{Offset: 0, Bytes: discriminator}},
		},
	}

	node, err := c.pool.pick()
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	res, err := node.client.GetProgramAccountsWithOpts(reqCtx, program, opts)
	elapsed := time.Since(start)
	node.updateMetrics(err == nil, elapsed)
	if c.metrics != nil {
		c.metrics.RecordRPCLatency("getProgramAccounts", node.URL, elapsed, err == nil)
	}
	if err != nil {
		return nil, &Error{Err: err, NodeURL: node.URL, Method: "getProgramAccounts"}
	}

	accounts := make(plasma.AccountMap, len(res))
	for _, keyed := range res {
		if keyed == nil || keyed.Account == nil || keyed.Account.Data == nil {
			continue
		}
		accounts[keyed.Pubkey] = keyed.Account.Data.GetBinary()
	}

	c.logger.Debug("Program accounts loaded",
		zap.String("program", program.String()),
		zap.Int("count", len(accounts)),
		zap.Duration("latency", elapsed))
	return accounts, nil
}
