package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
)

// UpstreamDialer connects to a JSON-RPC endpoint.
type UpstreamDialer func(ctx context.Context, rawURL string) (*gethrpc.Client, error)

// upstreams holds one JSON-RPC client per configured chain, dialed on first use.
type upstreams struct {
	urls map[uint64]string
	dial UpstreamDialer
	lg   log.Logger

	mu      sync.Mutex
	clients map[uint64]*gethrpc.Client
}

func newUpstreams(urls map[uint64]string, dial UpstreamDialer, lg log.Logger) *upstreams {
	if dial == nil {
		dial = gethrpc.DialContext
	}
	return &upstreams{
		urls:    urls,
		dial:    dial,
		lg:      lg.WithName("upstream"),
		clients: make(map[uint64]*gethrpc.Client),
	}
}

func (u *upstreams) client(ctx context.Context, chainID uint64) (*gethrpc.Client, error) {
	rawURL, ok := u.urls[chainID]
	if !ok {
		return nil, ErrNoUpstream
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if c, ok := u.clients[chainID]; ok {
		return c, nil
	}

	c, err := u.dial(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial upstream for chain %d: %w", chainID, err)
	}
	u.clients[chainID] = c
	u.lg.Debug("upstream dialed", "chainId", chainID)
	return c, nil
}

// call forwards method and params to the upstream of chainID. The result and
// any JSON-RPC error are returned as produced by the upstream.
func (u *upstreams) call(ctx context.Context, chainID uint64, method string, reqParams any) (json.RawMessage, error) {
	args, err := positionalArgs(reqParams)
	if err != nil {
		return nil, err
	}

	c, err := u.client(ctx, chainID)
	if err != nil {
		return nil, err
	}

	var result json.RawMessage
	if err := c.CallContext(ctx, &result, method, args...); err != nil {
		return nil, err
	}
	return result, nil
}

func (u *upstreams) close() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for id, c := range u.clients {
		c.Close()
		delete(u.clients, id)
	}
}

// positionalArgs turns EIP-1193 params into JSON-RPC arguments. An array is
// spread, an object is passed as the single argument, nil means no arguments.
func positionalArgs(reqParams any) ([]any, error) {
	if reqParams == nil {
		return nil, nil
	}

	var raw []byte
	switch p := reqParams.(type) {
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(reqParams)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", params.ErrInvalidParams, err)
		}
		raw = b
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("%w: %w", params.ErrInvalidParams, err)
		}
		args := make([]any, len(elems))
		for i, e := range elems {
			args[i] = e
		}
		return args, nil
	case '{':
		return []any{json.RawMessage(raw)}, nil
	default:
		return nil, fmt.Errorf("%w: params must be an array or an object", params.ErrInvalidParams)
	}
}
