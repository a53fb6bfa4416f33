// Package correlation implements the host's correlation map (C4): the
// table of outstanding host-to-Wox requests, each keyed by request id and
// carrying a one-shot completion that the dispatch engine resolves when
// the matching response frame arrives.
package correlation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Result is what a waiter resolves to: either a raw JSON value or an error
// string lifted from the response envelope's Error field.
type Result struct {
	Value json.RawMessage
	Err   string
}

// Map is the process-singleton correlation table. Its mutex is held only
// across map lookup/insert/delete, never across I/O or plugin callbacks,
// per spec.md §5.
type Map struct {
	mu      sync.Mutex
	waiters map[string]chan Result
}

// New returns an empty correlation map.
func New() *Map {
	return &Map{waiters: make(map[string]chan Result)}
}

// NewRequestId mints a fresh collision-resistant request id (spec.md §3
// invariant 5: 128-bit random ids).
func NewRequestId() string {
	return uuid.NewString()
}

// Register reserves id, returning a channel the caller can block on (or
// select against, if a timeout is in play per SPEC_FULL.md §13). The
// caller must call Register before sending the outbound frame, so that a
// response racing ahead of the caller's own wait can never be missed.
func (m *Map) Register(id string) <-chan Result {
	ch := make(chan Result, 1)
	m.mu.Lock()
	m.waiters[id] = ch
	m.mu.Unlock()
	return ch
}

// Abandon removes a waiter without completing it, used when sending the
// outbound frame itself failed after Register reserved the id.
func (m *Map) Abandon(id string) {
	m.mu.Lock()
	delete(m.waiters, id)
	m.mu.Unlock()
}

// Complete resolves the waiter for id with result, removing it atomically.
// A response whose id is not registered is reported to the caller via the
// bool return so it can be logged and dropped (spec.md §4.4); it is not an
// error condition for the map itself.
func (m *Map) Complete(id string, result Result) bool {
	m.mu.Lock()
	ch, ok := m.waiters[id]
	if ok {
		delete(m.waiters, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	ch <- result
	return true
}

// Len reports the number of outstanding waiters, used by tests to verify
// testable property 1 ("the correlation map contains no entry for that id
// afterward").
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// Wait blocks on ch until it resolves or ctx is done. Wait has no timeout
// of its own: a caller that wants one (SPEC_FULL.md §13 hardening) passes
// a ctx with a deadline; with a plain ctx a lost response blocks forever,
// matching spec.md §5's documented behavior. When ctx is done the waiter
// is abandoned from the map so it cannot be completed later into a
// receiver that has gone away — Complete's send on ch is safe regardless
// since ch is buffered with capacity 1.
func (m *Map) Wait(ctx context.Context, id string, ch <-chan Result) (json.RawMessage, error) {
	select {
	case res := <-ch:
		if res.Err != "" {
			return nil, fmt.Errorf("%s", res.Err)
		}
		return res.Value, nil
	case <-ctx.Done():
		m.Abandon(id)
		return nil, ctx.Err()
	}
}
