package provider

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/event"
)

// EventType names an EIP-1193 event.
type EventType string

const (
	EventConnect         EventType = "connect"
	EventDisconnect      EventType = "disconnect"
	EventChainChanged    EventType = "chainChanged"
	EventAccountsChanged EventType = "accountsChanged"
	EventMessage         EventType = "message"
)

// Event is one emitted event. Payload types by event:
//
//	connect          ConnectInfo
//	disconnect       *ProviderRpcError
//	chainChanged     string (hex chain id)
//	accountsChanged  []common.Address
//	message          ProviderMessage
type Event struct {
	Type    EventType
	Payload any
}

// ConnectInfo is the payload of the connect event.
type ConnectInfo struct {
	ChainID string `json:"chainId"`
}

// ProviderMessage is the payload of the message event.
type ProviderMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Listener receives the payload of an event.
type Listener func(payload any)

// ListenerHandle identifies a registered listener for RemoveListener.
type ListenerHandle uint64

type listenerEntry struct {
	handle   ListenerHandle
	listener Listener
}

// emitter dispatches events to listeners and feed subscribers.
type emitter struct {
	mu        sync.RWMutex
	next      ListenerHandle
	listeners map[EventType][]listenerEntry
	feed      event.Feed
}

func newEmitter() *emitter {
	return &emitter{listeners: make(map[EventType][]listenerEntry)}
}

func (e *emitter) on(typ EventType, l Listener) ListenerHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	e.listeners[typ] = append(e.listeners[typ], listenerEntry{handle: e.next, listener: l})
	return e.next
}

func (e *emitter) remove(typ EventType, h ListenerHandle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.listeners[typ]
	i := slices.IndexFunc(entries, func(le listenerEntry) bool { return le.handle == h })
	if i < 0 {
		return false
	}
	e.listeners[typ] = slices.Delete(slices.Clone(entries), i, i+1)
	return true
}

func (e *emitter) subscribe(ch chan<- Event) event.Subscription {
	return e.feed.Subscribe(ch)
}

// emit calls listeners in registration order, then delivers to subscribers.
// Feed delivery blocks until every subscriber channel accepts the event.
func (e *emitter) emit(ev Event) {
	e.mu.RLock()
	entries := e.listeners[ev.Type]
	e.mu.RUnlock()

	for _, le := range entries {
		le.listener(ev.Payload)
	}
	e.feed.Send(ev)
}
