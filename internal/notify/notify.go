// Package notify delivers structured change events to interested
// principals after a mutation commits.
//
// Delivery is fire-and-forget: a failing or slow listener never affects the
// mutation that produced the change. Persisted notification rows are written
// by the engine inside the mutation's transaction; this package only handles
// live delivery.
package notify

import (
	"context"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

// Change is one live notification addressed to a single principal.
type Change struct {
	ChangeID  string            `json:"change_id"`
	UserID    int64             `json:"user_id"`
	Type      domain.ChangeType `json:"type"`
	EventID   int64             `json:"event_id"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Version   int               `json:"version,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Emitter is the outbound boundary of the engine.
type Emitter interface {
	Emit(ctx context.Context, c Change) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, c Change) error

// Emit calls f.
func (f EmitterFunc) Emit(ctx context.Context, c Change) error {
	return f(ctx, c)
}

// Discard drops every change.
var Discard Emitter = EmitterFunc(func(context.Context, Change) error { return nil })
