package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Listener receives changes addressed to the user it subscribed for.
type Listener func(Change) error

// Hub is an injectable registry of live listeners keyed by user ID.
// The zero value is not usable; create with NewHub.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[int64]map[uint64]Listener
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{listeners: make(map[int64]map[uint64]Listener)}
}

// Subscribe registers l for userID and returns a function removing it.
// The returned function is safe to call more than once.
func (h *Hub) Subscribe(userID int64, l Listener) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.listeners[userID] == nil {
		h.listeners[userID] = make(map[uint64]Listener)
	}
	h.listeners[userID][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[userID], id)
			if len(h.listeners[userID]) == 0 {
				delete(h.listeners, userID)
			}
		})
	}
}

// Emit delivers c to every listener of c.UserID. All listeners are called
// even if some fail; their errors are joined.
func (h *Hub) Emit(_ context.Context, c Change) error {
	h.mu.RLock()
	targets := make([]Listener, 0, len(h.listeners[c.UserID]))
	for _, l := range h.listeners[c.UserID] {
		targets = append(targets, l)
	}
	h.mu.RUnlock()

	var errs []error
	for _, l := range targets {
		if err := l(c); err != nil {
			errs = append(errs, fmt.Errorf("listener for user %d: %w", c.UserID, err))
		}
	}
	return errors.Join(errs...)
}

// ListenerCount returns the number of listeners registered for userID.
func (h *Hub) ListenerCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[userID])
}
