package provider

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/SIVIRA/unwallet-provider-js/pkg/cache"
	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
	"github.com/SIVIRA/unwallet-provider-js/pkg/window"
)

type options struct {
	lg        log.Logger
	ui        window.UI
	conn      rpc.Conn
	wsConfig  rpc.WebsocketConnConfig
	store     cache.Store
	metrics   *Metrics
	tracer    trace.Tracer
	endpoints *Endpoints
	dial      UpstreamDialer
}

// Option customizes a Provider.
type Option func(*options)

// WithLogger sets the logger. The default discards output.
func WithLogger(lg log.Logger) Option {
	return func(o *options) { o.lg = lg }
}

// WithUI sets the host UI signer windows are opened in. Required.
func WithUI(ui window.UI) Option {
	return func(o *options) { o.ui = ui }
}

// WithConn replaces the websocket channel to the wallet.
func WithConn(conn rpc.Conn) Option {
	return func(o *options) { o.conn = conn }
}

// WithWebsocketConfig tunes the default websocket channel.
func WithWebsocketConfig(cfg rpc.WebsocketConnConfig) Option {
	return func(o *options) { o.wsConfig = cfg }
}

// WithCacheStore sets where accounts are cached when caching is allowed.
// The default is an in-memory store.
func WithCacheStore(store cache.Store) Option {
	return func(o *options) { o.store = store }
}

// WithMetrics sets the metrics. The default registers on a private registry.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithEndpoints overrides the endpoints selected by Config.Env.
func WithEndpoints(e Endpoints) Option {
	return func(o *options) { o.endpoints = &e }
}

// WithUpstreamDialer replaces how JSON-RPC upstreams are dialed.
func WithUpstreamDialer(dial UpstreamDialer) Option {
	return func(o *options) { o.dial = dial }
}
