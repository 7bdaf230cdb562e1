package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/collabevents/internal/conflict"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/store"
	"github.com/roach88/collabevents/internal/versions"
)

// RollbackEvent restores the versioned fields recorded in versionID. Only
// the owner may roll back.
//
// The current state is snapshotted first, so the rollback is itself a
// version and can be undone. Recurrence settings are not versioned and are
// left unchanged.
func (e *Engine) RollbackEvent(ctx context.Context, p domain.Principal, id, versionID int64) (domain.Event, error) {
	now := e.now()

	var (
		restored domain.Event
		target   domain.EventVersion
		version  domain.EventVersion
		changes  []notify.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		ev, grants, err := authorize(ctx, tx, p, id, domain.CapOwn)
		if err != nil {
			return err
		}

		target, err = versions.Get(ctx, tx, id, versionID)
		if err != nil {
			return err
		}

		if e.rollbackConflictCheck {
			snap := target.Snapshot
			if err := conflict.New(tx).Check(ctx, ev.OwnerID, snap.Start, snap.End, ev.ID); err != nil {
				return err
			}
		}

		changeID := e.ids.Generate()
		version, err = versions.Snapshot(ctx, tx, ev, p.ID, changeID, now)
		if err != nil {
			return err
		}

		restored = target.Snapshot.Restore(ev)
		restored.UpdatedAt = now
		if err := tx.UpdateEvent(ctx, restored); err != nil {
			return err
		}

		changes, err = notifyUsers(ctx, tx, recipients(ev, grants), notify.Change{
			ChangeID:  changeID,
			Type:      domain.ChangeRolledBack,
			EventID:   ev.ID,
			Title:     restored.Title,
			Message:   eventMessage("Event %q rolled back to version %d", restored, target.Number),
			Version:   version.Number,
			Timestamp: now,
		})
		return err
	})
	if err != nil {
		return domain.Event{}, fail("rollback event", p, err)
	}

	slog.Info("event rolled back",
		"event", restored.ID,
		"target_version", target.Number,
		"version", version.Number,
		"actor", p.ID,
	)
	e.emit(ctx, changes)
	return restored, nil
}
