package engine

import (
	"context"
	"errors"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/calendar"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/store"
	"github.com/roach88/collabevents/internal/versions"
)

// GetEvent returns an event p may view.
func (e *Engine) GetEvent(ctx context.Context, p domain.Principal, id int64) (domain.Event, error) {
	ev, _, err := authorize(ctx, e.store, p, id, domain.CapView)
	if err != nil {
		return domain.Event{}, fail("get event", p, err)
	}
	return ev, nil
}

// ListEvents returns the events p owns or was granted, by start time.
func (e *Engine) ListEvents(ctx context.Context, p domain.Principal) ([]domain.Event, error) {
	events, err := e.store.ListEventsForUser(ctx, p.ID)
	if err != nil {
		return nil, fail("list events", p, err)
	}
	return events, nil
}

// Permissions returns the explicit grants on an event p may view.
func (e *Engine) Permissions(ctx context.Context, p domain.Principal, id int64) ([]domain.Permission, error) {
	_, grants, err := authorize(ctx, e.store, p, id, domain.CapView)
	if err != nil {
		return nil, fail("list permissions", p, err)
	}
	return grants, nil
}

// History returns every version of an event in ascending order.
func (e *Engine) History(ctx context.Context, p domain.Principal, id int64) ([]domain.EventVersion, error) {
	if _, _, err := authorize(ctx, e.store, p, id, domain.CapView); err != nil {
		return nil, fail("event history", p, err)
	}

	list, err := versions.List(ctx, e.store, id)
	if err != nil {
		return nil, fail("event history", p, err)
	}
	return list, nil
}

// Version returns one version of an event.
func (e *Engine) Version(ctx context.Context, p domain.Principal, id, versionID int64) (domain.EventVersion, error) {
	if _, _, err := authorize(ctx, e.store, p, id, domain.CapView); err != nil {
		return domain.EventVersion{}, fail("get version", p, err)
	}

	v, err := versions.Get(ctx, e.store, id, versionID)
	if err != nil {
		return domain.EventVersion{}, fail("get version", p, err)
	}
	return v, nil
}

// Diff compares two versions of an event, from a to b.
func (e *Engine) Diff(ctx context.Context, p domain.Principal, id, versionA, versionB int64) (domain.FieldDiff, error) {
	if _, _, err := authorize(ctx, e.store, p, id, domain.CapView); err != nil {
		return nil, fail("diff versions", p, err)
	}

	a, err := versions.Get(ctx, e.store, id, versionA)
	if err != nil {
		return nil, fail("diff versions", p, err)
	}
	b, err := versions.Get(ctx, e.store, id, versionB)
	if err != nil {
		return nil, fail("diff versions", p, err)
	}
	return versions.Diff(a, b), nil
}

// ExportEvent renders an event p may view as an iCalendar document. The
// SEQUENCE property is the number of recorded versions.
func (e *Engine) ExportEvent(ctx context.Context, p domain.Principal, id int64) (string, error) {
	ev, _, err := authorize(ctx, e.store, p, id, domain.CapView)
	if err != nil {
		return "", fail("export event", p, err)
	}

	seq, err := e.store.MaxVersionNumber(ctx, id)
	if err != nil {
		return "", fail("export event", p, err)
	}

	doc, err := calendar.Export(ev, seq, calendar.DefaultProductID)
	if err != nil {
		return "", fail("export event", p, err)
	}
	return doc, nil
}

// Notifications returns p's notifications, newest first.
func (e *Engine) Notifications(ctx context.Context, p domain.Principal, unreadOnly bool) ([]domain.Notification, error) {
	notes, err := e.store.ListNotifications(ctx, p.ID, unreadOnly)
	if err != nil {
		return nil, fail("list notifications", p, err)
	}
	return notes, nil
}

// MarkNotificationRead flags one of p's notifications as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, p domain.Principal, id int64) error {
	err := e.store.MarkNotificationRead(ctx, p.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		err = apperr.NotFound("notification %d not found", id)
	}
	if err != nil {
		return fail("mark notification read", p, err)
	}
	return nil
}

// PurgeReadNotifications deletes read notifications older than the
// retention window and returns how many were removed.
func (e *Engine) PurgeReadNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := e.store.PurgeReadNotifications(ctx, e.now().Add(-retention))
	if err != nil {
		return 0, apperr.Storage("purge notifications", err)
	}
	return n, nil
}
