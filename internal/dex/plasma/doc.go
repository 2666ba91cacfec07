/*
Package plasma implements the off-chain side of the Plasma constant-product
pool program: account layouts and decoding, deterministic quoting against a
decoded pool, and encoding of the program's instructions.

# Pool snapshot

A PoolSnapshot is an immutable value built from the pool account, both vault
token accounts and the clock sysvar, all observed at the same slot:

	snap, err := plasma.Refresh(prev, accounts, cfg)
	if err != nil {
		// prev is still valid
	}

# Quoting

Quotes are computed by a Simulator. The default one is the pool's own AMM
state, but tests and alternative deployments can inject their own:

	res, err := plasma.QuoteExactIn(snap, snap.Account.Amm, inputMint, amount)

# Instructions

Builder derives program addresses and emits account metas and payloads for
every supported program instruction:

	b, err := plasma.NewBuilder(cfg)
	if err != nil {
		return err
	}
	ix, err := b.Swap(pool, trader, baseMint, quoteMint, baseATA, quoteATA, params)

# Aggregator adapter

Adapter wraps the above behind the interface an order-routing aggregator
expects: accounts to keep fresh, Update, Quote and SwapAndAccountMetas.
*/
package plasma
