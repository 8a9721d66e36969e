package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a single-slot buffer where the latest value always wins.
// It is NOT a queue. It holds at most one pending value.
// Put() overwrites any existing value. Take() blocks until one is available.
type Mailbox[T any] struct {
	mu    sync.Mutex
	item  *T
	ready chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Put stores v, replacing any pending value. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.item = &v
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Take blocks until a value is available or ctx is done, then returns it
// and clears the slot.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	for {
		if v := m.TryTake(); v != nil {
			return *v, true
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the pending value, or nil if empty.
// It never blocks.
func (m *Mailbox[T]) TryTake() *T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.item == nil {
		return nil
	}

	v := m.item
	m.item = nil
	return v
}

// Pending reports whether a value is currently waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.item != nil
}
