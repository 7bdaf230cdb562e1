package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
)

func TestGetEvent_Capabilities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "Standup", hm(10, 0), hm(11, 0))
	f.mustShare(t, u1, ev.ID, domain.Grant{UserID: u2.ID, Role: domain.RoleViewer})

	_, err := f.engine.GetEvent(ctx, u2, ev.ID)
	assert.NoError(t, err)

	_, err = f.engine.GetEvent(ctx, u3, ev.ID)
	assert.True(t, apperr.IsForbidden(err))

	_, err = f.engine.GetEvent(ctx, u1, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestListEvents_OwnedAndShared(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.mustCreate(t, u2, "Mine", hm(15, 0), hm(16, 0))
	shared := f.mustCreate(t, u1, "Shared", hm(9, 0), hm(10, 0))
	f.mustCreate(t, u1, "Hidden", hm(11, 0), hm(12, 0))
	f.mustShare(t, u1, shared.ID, domain.Grant{UserID: u2.ID, Role: domain.RoleViewer})

	events, err := f.engine.ListEvents(ctx, u2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, shared.ID, events[0].ID)
	assert.Equal(t, mine.ID, events[1].ID)
}

func TestHistoryAndDiff_RequireView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "Standup", hm(10, 0), hm(11, 0))

	_, err := f.engine.History(ctx, u3, ev.ID)
	assert.True(t, apperr.IsForbidden(err))

	_, err = f.engine.Diff(ctx, u3, ev.ID, 1, 2)
	assert.True(t, apperr.IsForbidden(err))

	_, err = f.engine.History(ctx, u1, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDiff_Properties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "A", hm(10, 0), hm(11, 0))

	_, err := f.engine.UpdateEvent(ctx, u1, ev.ID, domain.EventPatch{Title: domain.Some("B")})
	require.NoError(t, err)
	_, err = f.engine.UpdateEvent(ctx, u1, ev.ID, domain.EventPatch{
		Title: domain.Some("C"), End: domain.Some(hm(12, 0)),
	})
	require.NoError(t, err)

	history, err := f.engine.History(ctx, u1, ev.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	v1, v2 := history[0].ID, history[1].ID

	self, err := f.engine.Diff(ctx, u1, ev.ID, v1, v1)
	require.NoError(t, err)
	assert.Empty(t, self)

	ab, err := f.engine.Diff(ctx, u1, ev.ID, v1, v2)
	require.NoError(t, err)
	assert.Equal(t, domain.FieldDiff{domain.FieldTitle: {From: "A", To: "B"}}, ab)

	ba, err := f.engine.Diff(ctx, u1, ev.ID, v2, v1)
	require.NoError(t, err)
	assert.Equal(t, domain.FieldDiff{domain.FieldTitle: {From: "B", To: "A"}}, ba)

	_, err = f.engine.Diff(ctx, u1, ev.ID, v1, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestVersion_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "A", hm(10, 0), hm(11, 0))
	_, err := f.engine.UpdateEvent(ctx, u1, ev.ID, domain.EventPatch{Title: domain.Some("B")})
	require.NoError(t, err)

	history, err := f.engine.History(ctx, u1, ev.ID)
	require.NoError(t, err)

	v, err := f.engine.Version(ctx, u1, ev.ID, history[0].ID)
	require.NoError(t, err)
	assert.Equal(t, history[0], v)
}

func TestNotifications_MarkReadAndPurge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, u1, "A", hm(10, 0), hm(11, 0))

	notes, err := f.engine.Notifications(ctx, u1, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	err = f.engine.MarkNotificationRead(ctx, u2, notes[0].ID)
	assert.True(t, apperr.IsNotFound(err), "other users cannot mark it")

	require.NoError(t, f.engine.MarkNotificationRead(ctx, u1, notes[0].ID))
	unread, err := f.engine.Notifications(ctx, u1, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	purged, err := f.engine.PurgeReadNotifications(ctx, time.Nanosecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestEmitFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	f.emitter.Err = errors.New("listener gone")

	ev, err := f.engine.CreateEvent(context.Background(), u1, fields("A", hm(10, 0), hm(11, 0)))
	require.NoError(t, err)

	got, err := f.engine.GetEvent(context.Background(), u1, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
}

func TestCanceledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.engine.CreateEvent(ctx, u1, fields("A", hm(10, 0), hm(11, 0)))
	require.Error(t, err)
	assert.True(t, apperr.IsStorage(err))

	events, err := f.engine.ListEvents(context.Background(), u1)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExportEvent_SequenceIsVersionCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "Standup", hm(10, 0), hm(11, 0))

	doc, err := f.engine.ExportEvent(ctx, u1, ev.ID)
	require.NoError(t, err)
	assert.Contains(t, doc, "SEQUENCE:0")

	_, err = f.engine.UpdateEvent(ctx, u1, ev.ID, domain.EventPatch{Title: domain.Some("Retro")})
	require.NoError(t, err)

	doc, err = f.engine.ExportEvent(ctx, u1, ev.ID)
	require.NoError(t, err)
	assert.Contains(t, doc, "SEQUENCE:1")
	assert.Contains(t, doc, "SUMMARY:Retro")

	_, err = f.engine.ExportEvent(ctx, u3, ev.ID)
	assert.True(t, apperr.IsForbidden(err))
}
