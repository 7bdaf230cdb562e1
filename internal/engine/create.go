package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/conflict"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/store"
)

// CreateEvent creates an event owned by p.
//
// The interval must not overlap another event of p. No version is recorded
// for the initial state; the first version appears with the first update.
// The owner receives an event_created notification.
func (e *Engine) CreateEvent(ctx context.Context, p domain.Principal, fields domain.EventFields) (domain.Event, error) {
	created, err := e.CreateEvents(ctx, p, []domain.EventFields{fields})
	if err != nil {
		return domain.Event{}, err
	}
	return created[0], nil
}

// CreateEvents creates several events owned by p in one transaction. Either
// every event is created or none is. Events in the batch are conflict-checked
// against each other as well as against existing events. Errors carry an
// "index" detail naming the offending entry.
func (e *Engine) CreateEvents(ctx context.Context, p domain.Principal, batch []domain.EventFields) ([]domain.Event, error) {
	if len(batch) == 0 {
		return nil, apperr.Validation("no events to create")
	}

	normalized := make([]domain.EventFields, len(batch))
	for i, f := range batch {
		normalized[i] = f.Normalize()
		if err := validate(normalized[i]); err != nil {
			return nil, fail("create event", p, withIndex(err, i, len(batch)))
		}
	}

	now := e.now()
	var (
		created []domain.Event
		changes []notify.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		for i, f := range normalized {
			ev, c, err := e.createInTx(ctx, tx, p, f, now)
			if err != nil {
				return withIndex(err, i, len(batch))
			}
			created = append(created, ev)
			changes = append(changes, c...)
		}
		return nil
	})
	if err != nil {
		return nil, fail("create event", p, err)
	}

	for _, ev := range created {
		slog.Info("event created", "event", ev.ID, "actor", p.ID)
	}
	e.emit(ctx, changes)
	return created, nil
}

func (e *Engine) createInTx(ctx context.Context, tx *store.Tx, p domain.Principal, f domain.EventFields, now time.Time) (domain.Event, []notify.Change, error) {
	if err := conflict.New(tx).Check(ctx, p.ID, f.Start, f.End, 0); err != nil {
		return domain.Event{}, nil, err
	}

	ev := domain.NewEvent(p.ID, f, now)
	id, err := tx.InsertEvent(ctx, ev)
	if errors.Is(err, store.ErrOverlap) {
		return domain.Event{}, nil, apperr.New(apperr.KindConflict, "overlaps an existing event")
	}
	if err != nil {
		return domain.Event{}, nil, err
	}
	ev.ID = id

	changes, err := notifyUsers(ctx, tx, []int64{p.ID}, notify.Change{
		ChangeID:  e.ids.Generate(),
		Type:      domain.ChangeCreated,
		EventID:   ev.ID,
		Title:     ev.Title,
		Message:   eventMessage("Event %q created", ev),
		Timestamp: now,
	})
	if err != nil {
		return domain.Event{}, nil, err
	}
	return ev, changes, nil
}

// withIndex tags a kinded error with the batch position. Single-entry
// batches are left untouched.
func withIndex(err error, index, size int) error {
	var ae *apperr.Error
	if size <= 1 || !errors.As(err, &ae) {
		return err
	}

	details := make(map[string]string, len(ae.Details)+1)
	for k, v := range ae.Details {
		details[k] = v
	}
	details["index"] = fmt.Sprint(index)
	return &apperr.Error{Kind: ae.Kind, Message: ae.Message, Details: details, Err: ae.Err}
}
