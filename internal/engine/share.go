package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/notify"
	"github.com/roach88/collabevents/internal/store"
)

// ShareEvent grants roles on an event. Only the owner may share.
//
// Each grant is upserted by (event, user): re-granting overwrites the
// previous role. Only viewer and editor can be granted, and the owner
// cannot be a grantee. Each grantee receives an event_shared notification.
func (e *Engine) ShareEvent(ctx context.Context, p domain.Principal, id int64, grants []domain.Grant) ([]domain.Permission, error) {
	now := e.now()

	var (
		perms   []domain.Permission
		changes []notify.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		ev, _, err := authorize(ctx, tx, p, id, domain.CapOwn)
		if err != nil {
			return err
		}
		if err := validateGrants(ev, grants); err != nil {
			return err
		}

		changeID := e.ids.Generate()
		perms = make([]domain.Permission, 0, len(grants))
		changes = make([]notify.Change, 0, len(grants))
		for _, g := range grants {
			perm, err := tx.UpsertPermission(ctx, domain.Permission{
				EventID:   ev.ID,
				UserID:    g.UserID,
				Role:      g.Role,
				UpdatedAt: now,
			})
			if err != nil {
				return err
			}
			perms = append(perms, perm)

			c, err := notifyUsers(ctx, tx, []int64{g.UserID}, notify.Change{
				ChangeID:  changeID,
				Type:      domain.ChangeShared,
				EventID:   ev.ID,
				Title:     ev.Title,
				Message:   eventMessage("Event %q shared with you as %s", ev, g.Role),
				Timestamp: now,
			})
			if err != nil {
				return err
			}
			changes = append(changes, c...)
		}
		return nil
	})
	if err != nil {
		return nil, fail("share event", p, err)
	}

	slog.Info("event shared", "event", id, "grants", len(perms), "actor", p.ID)
	e.emit(ctx, changes)
	return perms, nil
}

func validateGrants(ev domain.Event, grants []domain.Grant) error {
	if len(grants) == 0 {
		return apperr.Validation("no grants given")
	}

	seen := make(map[int64]bool, len(grants))
	for i, g := range grants {
		details := map[string]string{"index": fmt.Sprint(i), "user_id": fmt.Sprint(g.UserID)}
		switch {
		case g.UserID <= 0:
			return apperr.WithDetails(apperr.KindValidation, "user_id must be positive", details)
		case g.UserID == ev.OwnerID:
			return apperr.WithDetails(apperr.KindValidation, "the owner cannot be granted a role", details)
		case !g.Role.Grantable():
			return apperr.WithDetails(apperr.KindValidation, fmt.Sprintf("role %s cannot be granted", g.Role), details)
		case seen[g.UserID]:
			return apperr.WithDetails(apperr.KindValidation, "user listed more than once", details)
		}
		seen[g.UserID] = true
	}
	return nil
}
