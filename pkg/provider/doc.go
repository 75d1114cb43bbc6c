// Package provider implements an EIP-1193 provider backed by a remote,
// browser-hosted wallet.
//
// Requests are routed by method name. Signer methods (account access,
// message and typed-data signing, transactions, chain switching) are served
// by opening the wallet's signer window and waiting for the result the window
// reports over the provider's websocket channel. Every other method is
// forwarded to the JSON-RPC endpoint configured for the current chain.
//
// At most one signer operation is in flight. Starting another before the
// first completes replaces it; the earlier caller is no longer notified and
// returns when its context ends.
//
// Example:
//
//	p, err := provider.New(provider.Config{
//	    Env: provider.EnvProd,
//	    RPC: map[uint64]string{1: "https://rpc.example"},
//	}, provider.WithUI(ui))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	accounts, err := provider.Call[[]common.Address](ctx, p, "eth_requestAccounts")
package provider
