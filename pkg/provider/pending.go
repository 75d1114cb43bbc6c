package provider

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SIVIRA/unwallet-provider-js/pkg/log"
	"github.com/SIVIRA/unwallet-provider-js/pkg/rpc"
)

// pendingOperation is the completion pair of the signer flow in flight.
type pendingOperation struct {
	id        uuid.UUID
	kind      flowKind
	onSuccess func(value json.RawMessage)
	onFailure func(err error)
}

// pendingSlot holds at most one pendingOperation. Resolve and Reject take the
// operation out of the slot before invoking it, so each operation completes
// at most once and late messages find the slot empty.
type pendingSlot struct {
	mu    sync.Mutex
	op    *pendingOperation
	lg    log.Logger
	gauge prometheus.Gauge
}

func newPendingSlot(lg log.Logger, gauge prometheus.Gauge) *pendingSlot {
	return &pendingSlot{lg: lg, gauge: gauge}
}

// Begin stores a new operation, replacing any previous one, and returns its id.
func (s *pendingSlot) Begin(kind flowKind, onSuccess func(json.RawMessage), onFailure func(error)) uuid.UUID {
	op := &pendingOperation{
		id:        uuid.New(),
		kind:      kind,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}

	s.mu.Lock()
	prev := s.op
	s.op = op
	s.mu.Unlock()

	if prev != nil {
		s.lg.Warn("pending operation replaced", "previous", prev.kind, "previousId", prev.id, "kind", kind)
	}
	s.setGauge(1)
	return op.id
}

// Resolve completes the current operation with value.
// It reports whether an operation was pending.
func (s *pendingSlot) Resolve(msgType rpc.MessageType, value json.RawMessage) bool {
	op := s.take()
	if op == nil {
		s.lg.Debug("message absorbed by empty slot", "type", msgType)
		return false
	}

	if expected := op.kind.resultType(); expected != msgType {
		s.lg.Warn("result type does not match pending operation", "kind", op.kind, "expected", expected, "type", msgType)
	}
	op.onSuccess(value)
	return true
}

// Reject fails the current operation with err.
// It reports whether an operation was pending.
func (s *pendingSlot) Reject(err error) bool {
	op := s.take()
	if op == nil {
		s.lg.Debug("rejection absorbed by empty slot", "error", err)
		return false
	}

	op.onFailure(err)
	return true
}

// Abandon clears the slot if id is still the current operation.
func (s *pendingSlot) Abandon(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.op == nil || s.op.id != id {
		return false
	}
	s.op = nil
	s.setGauge(0)
	return true
}

// Pending reports whether an operation is waiting for its result.
func (s *pendingSlot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.op != nil
}

func (s *pendingSlot) take() *pendingOperation {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := s.op
	s.op = nil
	if op != nil {
		s.setGauge(0)
	}
	return op
}

func (s *pendingSlot) setGauge(v float64) {
	if s.gauge != nil {
		s.gauge.Set(v)
	}
}
