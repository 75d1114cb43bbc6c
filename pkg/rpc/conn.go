package rpc

import (
	"context"
)

// State is the lifecycle state of a Conn.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session is an immutable snapshot of the channel state.
// A Conn replaces its session wholesale on every transition.
type Session struct {
	ConnectionID string
	State        State
}

// MessageHandler receives every inbound message except the handshake reply.
// Handlers run on the read goroutine, in arrival order.
type MessageHandler func(msg Message)

// DisconnectHandler is invoked once when an established session is lost.
type DisconnectHandler func(err error)

// Conn is the real-time channel to the wallet server.
type Conn interface {
	// Connect opens the channel and completes the connection-id handshake.
	// It is a no-op when already connected.
	Connect(ctx context.Context) error

	// IsConnected returns true if the handshake has completed and the socket is open.
	IsConnected() bool

	// Session returns the current session snapshot.
	Session() Session

	// SendHandshake sends the getConnectionID request over the open socket.
	SendHandshake(ctx context.Context) error

	// Send marshals msg as JSON and writes it to the socket.
	Send(ctx context.Context, msg any) error

	// OnMessage sets the handler for inbound messages.
	OnMessage(h MessageHandler)

	// OnDisconnect sets the handler for session loss.
	OnDisconnect(h DisconnectHandler)

	// Close tears down the socket without invoking the DisconnectHandler.
	Close() error
}
