package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
)

// WebsocketConnConfig contains configuration options for the websocket channel
type WebsocketConnConfig struct {
	// HandshakeTimeout bounds both the websocket upgrade and the wait for the
	// connection id reply
	HandshakeTimeout time.Duration

	// PingInterval is how often to send ping control frames; zero disables pings
	PingInterval time.Duration

	// WriteTimeout bounds writes whose context carries no deadline
	WriteTimeout time.Duration
}

// DefaultWebsocketConnConfig provides the defaults used by the provider
var DefaultWebsocketConnConfig = WebsocketConnConfig{
	HandshakeTimeout: 10 * time.Second,
	PingInterval:     30 * time.Second,
	WriteTimeout:     5 * time.Second,
}

// socket holds one websocket and the resources tied to its lifetime
type socket struct {
	conn        *websocket.Conn
	ctx         context.Context
	cancel      context.CancelFunc
	handshakeCh chan string // receives the connection id
	closedCh    chan error  // receives the transport error while connecting
}

// WebsocketConn implements Conn over a gorilla websocket.
type WebsocketConn struct {
	url string
	cfg WebsocketConnConfig
	lg  log.Logger

	mu           sync.RWMutex // protects session, active and handlers
	session      Session
	active       *socket
	onMessage    MessageHandler
	onDisconnect DisconnectHandler

	writeMu sync.Mutex // serializes websocket writes
}

var _ Conn = (*WebsocketConn)(nil)

// NewWebsocketConn creates a disconnected channel to url. A nil logger discards output.
func NewWebsocketConn(url string, cfg WebsocketConnConfig, lg log.Logger) *WebsocketConn {
	if lg == nil {
		lg = log.NewNoopLogger()
	}

	return &WebsocketConn{
		url: url,
		cfg: cfg,
		lg:  lg.WithName("ws-conn"),
	}
}

// Connect dials the server, sends the handshake and blocks until the
// connection id arrives, the socket fails, ctx ends or the handshake times out.
func (c *WebsocketConn) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.session.State {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.mu.Unlock()
		return ErrConnecting
	}
	c.session = Session{State: StateConnecting}
	c.mu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout:  c.cfg.HandshakeTimeout,
		EnableCompression: true,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.session = Session{State: StateDisconnected}
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrDialingWebsocket, err)
	}

	sockCtx, cancel := context.WithCancel(context.Background())
	sock := &socket{
		conn:        conn,
		ctx:         sockCtx,
		cancel:      cancel,
		handshakeCh: make(chan string, 1),
		closedCh:    make(chan error, 1),
	}

	c.mu.Lock()
	c.active = sock
	c.mu.Unlock()

	go c.readMessages(sock)

	if err := c.SendHandshake(ctx); err != nil {
		c.detach(sock, nil)
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	var timeout <-chan time.Time
	if c.cfg.HandshakeTimeout > 0 {
		timer := time.NewTimer(c.cfg.HandshakeTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var connectionID string
	select {
	case connectionID = <-sock.handshakeCh:
	case <-sock.ctx.Done():
		select {
		case err := <-sock.closedCh:
			return fmt.Errorf("%w: %w", ErrHandshake, err)
		default:
			return fmt.Errorf("%w: %w", ErrHandshake, ErrNotConnected)
		}
	case <-ctx.Done():
		c.detach(sock, nil)
		return ctx.Err()
	case <-timeout:
		c.detach(sock, nil)
		return ErrHandshakeTimeout
	}

	c.mu.Lock()
	if c.active != sock {
		// Closed while the reply was in flight.
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.session = Session{ConnectionID: connectionID, State: StateConnected}
	c.mu.Unlock()

	c.lg.Info("connected", "connectionId", connectionID)

	if c.cfg.PingInterval > 0 {
		go c.pingPeriodically(sock)
	}
	return nil
}

// IsConnected returns true if the handshake has completed and the socket is open
func (c *WebsocketConn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session.State == StateConnected && c.active != nil && c.active.ctx.Err() == nil
}

// Session returns the current session snapshot
func (c *WebsocketConn) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session
}

// SendHandshake asks the server for a connection id
func (c *WebsocketConn) SendHandshake(ctx context.Context) error {
	return c.Send(ctx, Request{Action: ActionGetConnectionID})
}

// Send writes msg as a JSON text frame. Writes are serialized.
func (c *WebsocketConn) Send(ctx context.Context, msg any) error {
	c.mu.RLock()
	sock := c.active
	c.mu.RUnlock()

	if sock == nil || sock.ctx.Err() != nil {
		return ErrNotConnected
	}

	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshalingMessage, err)
	}

	deadline, ok := ctx.Deadline()
	if !ok && c.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(c.cfg.WriteTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := sock.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %w", ErrSendingMessage, err)
	}
	if err := sock.conn.WriteMessage(websocket.TextMessage, msgJSON); err != nil {
		return fmt.Errorf("%w: %w", ErrSendingMessage, err)
	}
	return nil
}

// OnMessage sets the handler for inbound messages
func (c *WebsocketConn) OnMessage(h MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onMessage = h
}

// OnDisconnect sets the handler for session loss
func (c *WebsocketConn) OnDisconnect(h DisconnectHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onDisconnect = h
}

// Close tears down the socket. The DisconnectHandler is not invoked.
func (c *WebsocketConn) Close() error {
	c.mu.RLock()
	sock := c.active
	c.mu.RUnlock()

	if sock == nil {
		return nil
	}

	c.detach(sock, nil)
	return nil
}

// detach clears the session if sock is still the active socket and closes it.
// A non-nil cause is handed to a Connect call still waiting on sock.
// It reports whether the session was established and whether sock was active.
func (c *WebsocketConn) detach(sock *socket, cause error) (wasConnected, wasActive bool) {
	c.mu.Lock()
	if c.active == sock {
		wasActive = true
		wasConnected = c.session.State == StateConnected
		c.active = nil
		c.session = Session{State: StateDisconnected}

		if !wasConnected && cause != nil {
			select {
			case sock.closedCh <- cause:
			default:
			}
		}
	}
	c.mu.Unlock()

	sock.cancel()
	_ = sock.conn.Close()

	return wasConnected, wasActive
}

// handleClosure reacts to a transport failure on sock
func (c *WebsocketConn) handleClosure(sock *socket, err error) {
	wasConnected, _ := c.detach(sock, err)
	if !wasConnected {
		return
	}

	c.lg.Warn("session lost", "error", err)

	c.mu.RLock()
	handler := c.onDisconnect
	c.mu.RUnlock()

	if handler != nil {
		handler(err)
	}
}

// readMessages reads frames until the socket fails, consuming handshake
// replies and forwarding everything else to the message handler
func (c *WebsocketConn) readMessages(sock *socket) {
	for {
		_, messageBytes, err := sock.conn.ReadMessage()
		if sock.ctx.Err() != nil {
			c.lg.Debug("read loop exiting due to socket close")
			return
		} else if _, ok := err.(net.Error); ok {
			c.handleClosure(sock, fmt.Errorf("%w: %w", ErrConnectionTimeout, err))
			return
		} else if closeErr := (*websocket.CloseError)(nil); errors.As(err, &closeErr) {
			c.handleClosure(sock, fmt.Errorf("%w: %w", ErrConnectionClosed, err))
			return
		} else if err != nil {
			c.handleClosure(sock, fmt.Errorf("%w: %w", ErrReadingMessage, err))
			return
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil || msg.Type == "" {
			c.lg.Warn("malformed message", "message", string(messageBytes), "error", err)
			continue
		}

		if msg.Type == MessageTypeConnectionID {
			c.handleConnectionID(sock, msg)
			continue
		}

		c.lg.Debug("message received", "type", msg.Type)

		c.mu.RLock()
		handler := c.onMessage
		c.mu.RUnlock()

		if handler != nil {
			handler(msg)
		}
	}
}

func (c *WebsocketConn) handleConnectionID(sock *socket, msg Message) {
	var connectionID string
	if err := msg.DecodeValue(&connectionID); err != nil || connectionID == "" {
		c.lg.Warn("invalid connection id", "value", string(msg.Data.Value), "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != sock {
		return
	}

	if c.session.State == StateConnected {
		c.session = Session{ConnectionID: connectionID, State: StateConnected}
		c.lg.Info("connection id reassigned", "connectionId", connectionID)
		return
	}

	select {
	case sock.handshakeCh <- connectionID:
	default:
	}
}

// pingPeriodically sends ping control frames until the socket closes
func (c *WebsocketConn) pingPeriodically(sock *socket) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sock.ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := sock.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.PingInterval))
			c.writeMu.Unlock()

			if err != nil {
				c.lg.Error("error sending ping", "error", err)
				c.handleClosure(sock, fmt.Errorf("%w: %w", ErrSendingPing, err))
				return
			}
		}
	}
}
