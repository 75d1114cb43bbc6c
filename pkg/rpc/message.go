package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action names an outbound request to the wallet server.
type Action string

const (
	// ActionGetConnectionID asks the server to assign a connection id.
	ActionGetConnectionID Action = "getConnectionID"
)

// String returns the action name.
func (a Action) String() string {
	return string(a)
}

// Request is an outbound control message.
type Request struct {
	Action Action `json:"action"`
}

// MessageType names an inbound message.
type MessageType string

const (
	MessageTypeConnectionID    MessageType = "connectionID"
	MessageTypeAccounts        MessageType = "accounts"
	MessageTypeSignature       MessageType = "signature"
	MessageTypeTransactionHash MessageType = "transactionHash"
	MessageTypeSuccess         MessageType = "success"
)

// String returns the message type name.
func (t MessageType) String() string {
	return string(t)
}

// IsTerminal reports whether a message of this type completes a signer flow.
func (t MessageType) IsTerminal() bool {
	switch t {
	case MessageTypeAccounts, MessageTypeSignature, MessageTypeTransactionHash, MessageTypeSuccess:
		return true
	default:
		return false
	}
}

// Message is an inbound message from the wallet server.
type Message struct {
	Type MessageType `json:"type"`
	Data MessageData `json:"data"`
}

// MessageData carries the value of a Message.
type MessageData struct {
	Value json.RawMessage `json:"value"`
}

// NewMessage builds a Message whose value is the JSON encoding of value.
// A nil value produces an explicit null.
func NewMessage(typ MessageType, value any) (Message, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMarshalingMessage, err)
	}

	return Message{Type: typ, Data: MessageData{Value: raw}}, nil
}

// IsCancel reports whether the message carries no value, which the signer
// window uses to signal that the user cancelled.
func (m Message) IsCancel() bool {
	v := bytes.TrimSpace(m.Data.Value)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// DecodeValue unmarshals the message value into v.
func (m Message) DecodeValue(v any) error {
	if m.IsCancel() {
		return ErrEmptyValue
	}

	return json.Unmarshal(m.Data.Value, v)
}
