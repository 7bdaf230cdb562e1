package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/conflict"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/store"
	"github.com/roach88/collabevents/internal/versions"
)

// UpdateEvent applies a partial update on behalf of p, who needs the edit
// capability.
//
// Absent patch fields keep their current value. The prospective state is
// validated and conflict-checked (excluding the event itself) before
// anything is written; only an accepted update snapshots the previous
// state as a new version. The owner and every grantee receive an
// event_updated notification.
func (e *Engine) UpdateEvent(ctx context.Context, p domain.Principal, id int64, patch domain.EventPatch) (domain.Event, error) {
	now := e.now()

	var (
		updated domain.Event
		version domain.EventVersion
		changes []notify.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		ev, grants, err := authorize(ctx, tx, p, id, domain.CapEdit)
		if err != nil {
			return err
		}

		if patch.IsEmpty() {
			return apperr.Validation("update sets no fields")
		}

		f := patch.Apply(ev)
		if err := validate(f); err != nil {
			return err
		}
		if err := conflict.New(tx).Check(ctx, ev.OwnerID, f.Start, f.End, ev.ID); err != nil {
			return err
		}

		changeID := e.ids.Generate()
		version, err = versions.Snapshot(ctx, tx, ev, p.ID, changeID, now)
		if err != nil {
			return err
		}

		updated = ev.WithFields(f)
		updated.UpdatedAt = now
		if err := tx.UpdateEvent(ctx, updated); err != nil {
			return err
		}

		changes, err = notifyUsers(ctx, tx, recipients(ev, grants), notify.Change{
			ChangeID:  changeID,
			Type:      domain.ChangeUpdated,
			EventID:   ev.ID,
			Title:     updated.Title,
			Message:   eventMessage("Event %q updated", updated),
			Version:   version.Number,
			Timestamp: now,
		})
		return err
	})
	if err != nil {
		return domain.Event{}, fail("update event", p, err)
	}

	slog.Info("event updated", "event", updated.ID, "version", version.Number, "actor", p.ID)
	e.emit(ctx, changes)
	return updated, nil
}
