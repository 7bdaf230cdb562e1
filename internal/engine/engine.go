package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/calendar"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/policy"
	"github.com/roach88/collabevents/internal/store"
)

// Engine orchestrates event mutations.
type Engine struct {
	store   *store.Store
	emitter notify.Emitter
	clock   Clock
	ids     ChangeIDGenerator

	// rollbackConflictCheck re-validates the restored interval against the
	// owner's other events. Off by default: a rollback restores exactly
	// what was recorded.
	rollbackConflictCheck bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithChangeIDs overrides the change ID generator.
func WithChangeIDs(g ChangeIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithRollbackConflictCheck makes RollbackEvent reject a restore whose
// interval overlaps another event of the owner.
func WithRollbackConflictCheck(enabled bool) Option {
	return func(e *Engine) {
		e.rollbackConflictCheck = enabled
	}
}

// New creates an Engine. A nil emitter discards live changes.
func New(s *store.Store, emitter notify.Emitter, opts ...Option) *Engine {
	if emitter == nil {
		emitter = notify.Discard
	}
	e := &Engine{
		store:   s,
		emitter: emitter,
		clock:   SystemClock{},
		ids:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// eventReader is satisfied by both *store.Store and *store.Tx.
type eventReader interface {
	GetEvent(ctx context.Context, id int64) (domain.Event, error)
	ListPermissions(ctx context.Context, eventID int64) ([]domain.Permission, error)
}

// authorize loads the event and its grants and checks capability c.
func authorize(ctx context.Context, r eventReader, p domain.Principal, id int64, c domain.Capability) (domain.Event, []domain.Permission, error) {
	ev, err := r.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Event{}, nil, policy.Authorize(nil, p, nil, c).Err(id)
	}
	if err != nil {
		return domain.Event{}, nil, err
	}

	grants, err := r.ListPermissions(ctx, id)
	if err != nil {
		return domain.Event{}, nil, err
	}

	if err := policy.Authorize(&ev, p, grants, c).Err(id); err != nil {
		return domain.Event{}, nil, err
	}
	return ev, grants, nil
}

// validate checks the structural invariants and the recurrence rule.
func validate(f domain.EventFields) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.IsRecurring {
		return calendar.ValidateRecurrence(*f.RecurrencePattern)
	}
	return nil
}

// recipients returns the owner and every grantee, ascending and unique.
func recipients(ev domain.Event, grants []domain.Permission) []int64 {
	ids := []int64{ev.OwnerID}
	for _, g := range grants {
		if g.EventID == ev.ID {
			ids = append(ids, g.UserID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// notifyUsers writes one notification row per user and returns the
// matching live changes for emission after commit.
func notifyUsers(ctx context.Context, tx *store.Tx, users []int64, base notify.Change) ([]notify.Change, error) {
	changes := make([]notify.Change, 0, len(users))
	for _, uid := range users {
		eventID := base.EventID
		_, err := tx.InsertNotification(ctx, domain.Notification{
			UserID:    uid,
			EventID:   &eventID,
			Type:      base.Type,
			Message:   base.Message,
			ChangeID:  base.ChangeID,
			CreatedAt: base.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		c := base
		c.UserID = uid
		changes = append(changes, c)
	}
	return changes, nil
}

// emit delivers committed changes. Failures are logged, never returned.
func (e *Engine) emit(ctx context.Context, changes []notify.Change) {
	for _, c := range changes {
		if err := e.emitter.Emit(ctx, c); err != nil {
			slog.Warn("emit change failed",
				"change_id", c.ChangeID,
				"user", c.UserID,
				"type", c.Type,
				"event", c.EventID,
				"error", err,
			)
		}
	}
}

// fail converts an error into one of the engine's kinds. Errors that
// already carry a kind pass through; anything else is a storage failure.
func fail(op string, p domain.Principal, err error) error {
	if kind := apperr.KindOf(err); kind != "" {
		slog.Debug("operation rejected", "op", op, "actor", p.ID, "kind", kind, "error", err)
		return err
	}
	slog.Error("operation failed", "op", op, "actor", p.ID, "error", err)
	return apperr.Storage(op, err)
}

// now returns the clock's time in UTC.
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}

func eventMessage(format string, ev domain.Event, args ...any) string {
	return fmt.Sprintf(format, append([]any{ev.Title}, args...)...)
}
