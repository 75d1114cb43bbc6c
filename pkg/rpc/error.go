package rpc

import (
	"fmt"
)

// Connection errors
var (
	ErrConnecting        = fmt.Errorf("connection already in progress")
	ErrNotConnected      = fmt.Errorf("not connected to server")
	ErrConnectionTimeout = fmt.Errorf("websocket connection timeout")
	ErrConnectionClosed  = fmt.Errorf("websocket connection closed")
	ErrReadingMessage    = fmt.Errorf("error reading message")
	ErrDialingWebsocket  = fmt.Errorf("error dialing websocket server")
	ErrSendingPing       = fmt.Errorf("error sending ping")
)

// Handshake errors
var (
	ErrHandshake        = fmt.Errorf("connection handshake failed")
	ErrHandshakeTimeout = fmt.Errorf("%w: timed out waiting for connection id", ErrHandshake)
)

// Message errors
var (
	ErrMarshalingMessage = fmt.Errorf("error marshaling message")
	ErrSendingMessage    = fmt.Errorf("error sending message")
	ErrEmptyValue        = fmt.Errorf("message value is empty")
)
