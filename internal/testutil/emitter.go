package testutil

import (
	"context"
	"sync"

	"github.com/roach88/collabevents/internal/notify"
)

// RecordingEmitter captures emitted changes in order. Set Err to make every
// Emit fail after recording.
type RecordingEmitter struct {
	mu      sync.Mutex
	changes []notify.Change
	Err     error
}

// Emit records c.
func (r *RecordingEmitter) Emit(_ context.Context, c notify.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.Err
}

// Changes returns a copy of everything recorded so far.
func (r *RecordingEmitter) Changes() []notify.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// Reset discards recorded changes.
func (r *RecordingEmitter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = nil
}
