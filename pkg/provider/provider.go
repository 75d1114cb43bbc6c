package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SIVIRA/unwallet-provider-js/pkg/cache"
	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/params"
	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
	"github.com/SIVIRA/unwallet-provider-js/pkg/window"
)

const (
	tracerName = "github.com/SIVIRA/unwallet-provider-js/pkg/provider"

	// cacheTimeout bounds cache access outside a caller's context.
	cacheTimeout = 5 * time.Second
)

// RequestArguments is an EIP-1193 request. Params is an array or an object.
type RequestArguments struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Provider is an EIP-1193 provider backed by the remote wallet.
type Provider struct {
	cfg       Config
	endpoints Endpoints
	lg        log.Logger
	conn      rpc.Conn
	launcher  *window.Launcher
	store     cache.Store
	metrics   *Metrics
	tracer    trace.Tracer
	upstream  *upstreams
	slot      *pendingSlot
	events    *emitter
	handlers  map[string]handlerFunc

	connectMu sync.Mutex // serializes session establishment

	mu       sync.RWMutex // protects accounts
	accounts Accounts
}

// New creates a Provider. It fails with ErrConfiguration when cfg is invalid
// or no UI is given. Cached accounts are restored when caching is allowed.
func New(cfg Config, opts ...Option) (*Provider, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{wsConfig: rpc.DefaultWebsocketConnConfig}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ui == nil {
		return nil, fmt.Errorf("%w: a UI is required", ErrConfiguration)
	}
	if o.lg == nil {
		o.lg = log.NewNoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NewMetricsWithRegistry(prometheus.NewRegistry())
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.store == nil {
		o.store = cache.NewMemoryStore()
	}

	ep, _ := EndpointsFor(cfg.Env)
	if o.endpoints != nil {
		ep = *o.endpoints
	}

	lg := o.lg.WithName("provider").WithKV("env", string(cfg.Env))
	if o.conn == nil {
		o.conn = rpc.NewWebsocketConn(ep.WSURL, o.wsConfig, lg)
	}

	p := &Provider{
		cfg:       cfg,
		endpoints: ep,
		lg:        lg,
		conn:      o.conn,
		launcher:  window.NewLauncher(o.ui, lg),
		store:     o.store,
		metrics:   o.metrics,
		tracer:    o.tracer,
		upstream:  newUpstreams(cfg.RPC, o.dial, lg),
		slot:      newPendingSlot(lg.WithName("slot"), o.metrics.PendingOperations),
		events:    newEmitter(),
		handlers:  handlersFor(cfg),
	}

	p.conn.OnMessage(p.handleMessage)
	p.conn.OnDisconnect(p.handleDisconnect)

	if cfg.AllowAccountsCaching {
		p.restoreAccounts()
	}

	return p, nil
}

// Request serves an EIP-1193 request. Signer methods are handled locally;
// everything else is forwarded to the upstream of the current chain.
func (p *Provider) Request(ctx context.Context, args RequestArguments) (json.RawMessage, error) {
	ctx, span := p.tracer.Start(ctx, "provider.Request", trace.WithAttributes(
		attribute.String("rpc.method", args.Method),
	))
	defer span.End()

	lg := p.lg.WithKV("method", args.Method)
	ctx = log.SetContextLogger(ctx, lg)

	route, result, err := p.dispatch(ctx, args)
	span.SetAttributes(attribute.String("provider.route", route))
	p.metrics.Requests.WithLabelValues(args.Method, route, outcomeLabel(err)).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.FromContext(ctx).Debug("request failed", "route", route, "error", err)
		return nil, err
	}
	return result, nil
}

func (p *Provider) dispatch(ctx context.Context, args RequestArguments) (string, json.RawMessage, error) {
	if args.Method == "" {
		return "invalid", nil, fmt.Errorf("%w: method is required", params.ErrInvalidParams)
	}

	if !IsSignerMethod(args.Method) {
		result, err := p.upstream.call(ctx, p.ChainID(), args.Method, args.Params)
		return "upstream", result, err
	}

	handler, ok := p.handlers[args.Method]
	if !ok {
		return "local", nil, fmt.Errorf("%w: %s is disabled", ErrUnsupportedMethod, args.Method)
	}

	result, err := handler(ctx, p, args.Params)
	if err != nil {
		return "local", nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return "local", nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return "local", raw, nil
}

// Call sends a request and decodes its result into T.
func Call[T any](ctx context.Context, p *Provider, method string, reqParams ...any) (T, error) {
	var out T

	args := RequestArguments{Method: method}
	if len(reqParams) > 0 {
		args.Params = reqParams
	}

	raw, err := p.Request(ctx, args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrUnexpectedResult, err)
	}
	return out, nil
}

// Enable requests account access. It is the legacy form of eth_requestAccounts.
func (p *Provider) Enable(ctx context.Context) ([]common.Address, error) {
	return Call[[]common.Address](ctx, p, MethodRequestAccounts)
}

// Accounts returns the current accounts snapshot.
func (p *Provider) Accounts() Accounts {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.accounts.clone()
}

// ChainID returns the current chain: the accounts' chain if known, else the
// configured one. Zero means unknown.
func (p *Provider) ChainID() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.currentChainIDLocked()
}

func (p *Provider) currentChainIDLocked() uint64 {
	if p.accounts.ChainID != 0 {
		return p.accounts.ChainID
	}
	return p.cfg.ChainID
}

// Session returns the wallet channel session.
func (p *Provider) Session() rpc.Session {
	return p.conn.Session()
}

// Endpoints returns the wallet endpoints in use.
func (p *Provider) Endpoints() Endpoints {
	return p.endpoints
}

// On registers a listener for an event type. Listeners run synchronously on
// the goroutine that emits the event.
func (p *Provider) On(typ EventType, l Listener) ListenerHandle {
	return p.events.on(typ, l)
}

// RemoveListener unregisters a listener. It reports whether it was registered.
func (p *Provider) RemoveListener(typ EventType, h ListenerHandle) bool {
	return p.events.remove(typ, h)
}

// Subscribe delivers every event to ch. Emission blocks until ch accepts the
// event, so ch should be buffered and drained.
func (p *Provider) Subscribe(ch chan<- Event) event.Subscription {
	return p.events.subscribe(ch)
}

// Close closes the wallet channel and upstream clients. A signer operation
// still pending fails with ErrDisconnected.
func (p *Provider) Close() error {
	err := p.conn.Close()
	p.metrics.ChannelConnected.Set(0)
	p.slot.Reject(fmt.Errorf("%w: provider closed", ErrDisconnected))
	p.upstream.close()
	return err
}

// ensureSession connects the wallet channel unless already connected.
func (p *Provider) ensureSession(ctx context.Context) (rpc.Session, error) {
	p.connectMu.Lock()
	defer p.connectMu.Unlock()

	if p.conn.IsConnected() {
		return p.conn.Session(), nil
	}

	err := p.conn.Connect(ctx)
	p.metrics.ChannelConnectsTotal.WithLabelValues(outcomeLabel(err)).Inc()
	if err != nil {
		return rpc.Session{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	p.metrics.ChannelConnected.Set(1)
	return p.conn.Session(), nil
}

type flowResult struct {
	value json.RawMessage
	err   error
}

// runFlow opens the signer window for kind and waits for the result the
// window reports over the channel.
func (p *Provider) runFlow(ctx context.Context, kind flowKind, query url.Values) (json.RawMessage, error) {
	session, err := p.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	done := make(chan flowResult, 1)
	id := p.slot.Begin(kind,
		func(value json.RawMessage) { done <- flowResult{value: value} },
		func(err error) { done <- flowResult{err: err} },
	)

	// The session may have been lost before the operation was registered.
	if !p.conn.IsConnected() {
		p.slot.Abandon(id)
		p.metrics.SignerFlows.WithLabelValues(string(kind), "disconnected").Inc()
		return nil, ErrDisconnected
	}

	u := p.signerURL(kind, session.ConnectionID, query)
	lg := log.FromContext(ctx)
	lg.Info("opening signer window", "kind", kind, "operationId", id)
	p.launcher.OpenSignerWindow(u)

	select {
	case res := <-done:
		p.metrics.SignerFlows.WithLabelValues(string(kind), outcomeLabel(res.err)).Inc()
		if res.err != nil {
			lg.Info("signer flow failed", "kind", kind, "error", res.err)
		}
		return res.value, res.err
	case <-ctx.Done():
		p.slot.Abandon(id)
		p.metrics.SignerFlows.WithLabelValues(string(kind), "abandoned").Inc()
		return nil, ctx.Err()
	}
}

// signerURL builds {BaseURL}{path}?connectionID=<id>&<query>.
func (p *Provider) signerURL(kind flowKind, connectionID string, query url.Values) *url.URL {
	u, err := url.Parse(p.endpoints.BaseURL)
	if err != nil {
		u = &url.URL{}
	}
	u.Path = kind.path()

	q := url.Values{}
	for k, v := range query {
		q[k] = slices.Clone(v)
	}
	q.Set("connectionID", connectionID)
	u.RawQuery = q.Encode()
	return u
}

// handleMessage receives every non-handshake channel message.
func (p *Provider) handleMessage(msg rpc.Message) {
	p.metrics.MessagesReceived.WithLabelValues(msg.Type.String()).Inc()

	if !msg.Type.IsTerminal() {
		p.events.emit(Event{
			Type:    EventMessage,
			Payload: ProviderMessage{Type: msg.Type.String(), Data: msg.Data.Value},
		})
		return
	}

	if msg.IsCancel() {
		p.slot.Reject(ErrUserRejected)
		return
	}
	p.slot.Resolve(msg.Type, msg.Data.Value)
}

// handleDisconnect invalidates the session state after the channel is lost.
func (p *Provider) handleDisconnect(err error) {
	p.lg.Warn("wallet channel disconnected", "error", err)
	p.metrics.ChannelConnected.Set(0)

	p.mu.Lock()
	p.accounts = Accounts{}
	p.mu.Unlock()

	if p.cfg.AllowAccountsCaching {
		ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
		if err := p.store.Delete(ctx, accountsKey(p.cfg.Env)); err != nil {
			p.lg.Warn("failed to delete cached accounts", "error", err)
		}
		cancel()
	}

	p.slot.Reject(fmt.Errorf("%w: %w", ErrDisconnected, err))
	p.events.emit(Event{Type: EventDisconnect, Payload: disconnectedError()})
}

// setAccounts replaces the accounts snapshot, caches it and emits the
// resulting events.
func (p *Provider) setAccounts(ctx context.Context, accounts Accounts, connected bool) {
	p.mu.Lock()
	prev := p.accounts
	prevChainID := p.currentChainIDLocked()
	p.accounts = accounts.clone()
	chainID := p.currentChainIDLocked()
	p.mu.Unlock()

	p.lg.Info("accounts updated", "chainId", chainID, "count", len(accounts.Addresses))
	p.cacheAccounts(ctx, accounts)

	if connected {
		info := ConnectInfo{}
		if chainID != 0 {
			info.ChainID = chainIDHex(chainID)
		}
		p.events.emit(Event{Type: EventConnect, Payload: info})
	}
	if !slices.Equal(prev.Addresses, accounts.Addresses) {
		p.events.emit(Event{Type: EventAccountsChanged, Payload: slices.Clone(accounts.Addresses)})
	}
	// chainChanged only reports a move to a known chain.
	if chainID != prevChainID && chainID != 0 {
		p.events.emit(Event{Type: EventChainChanged, Payload: chainIDHex(chainID)})
	}
}

// setChainID moves the accounts snapshot to chainID.
func (p *Provider) setChainID(ctx context.Context, chainID uint64) {
	accounts := p.Accounts()
	accounts.ChainID = chainID
	p.setAccounts(ctx, accounts, false)
}

func (p *Provider) cacheAccounts(ctx context.Context, accounts Accounts) {
	if !p.cfg.AllowAccountsCaching {
		return
	}

	value, err := json.Marshal(accounts)
	if err != nil {
		p.lg.Warn("failed to encode accounts for cache", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()

	if err := p.store.Save(ctx, accountsKey(p.cfg.Env), value); err != nil {
		p.lg.Warn("failed to cache accounts", "error", err)
	}
}

// restoreAccounts loads cached accounts without emitting events.
func (p *Provider) restoreAccounts() {
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()

	key := accountsKey(p.cfg.Env)
	value, err := p.store.Load(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return
	} else if err != nil {
		p.lg.Warn("failed to load cached accounts", "error", err)
		return
	}

	var accounts Accounts
	if err := json.Unmarshal(value, &accounts); err != nil {
		p.lg.Warn("discarding malformed cached accounts", "error", err)
		if err := p.store.Delete(ctx, key); err != nil {
			p.lg.Warn("failed to delete cached accounts", "error", err)
		}
		return
	}

	p.mu.Lock()
	p.accounts = accounts
	p.mu.Unlock()

	p.lg.Info("cached accounts restored", "chainId", accounts.ChainID, "count", len(accounts.Addresses))
}
