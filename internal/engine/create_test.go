package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
)

func TestCreateEvent_ConflictExample(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e1 := f.mustCreate(t, u1, "E1", hm(10, 0), hm(11, 0))

	_, err := f.engine.CreateEvent(ctx, u1, fields("E2", hm(10, 30), hm(11, 30)))
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, map[string]string{"event_id": "1", "title": "E1"}, apperr.DetailsOf(err))
	assert.Equal(t, int64(1), e1.ID)

	e3, err := f.engine.CreateEvent(ctx, u1, fields("E3", hm(11, 0), hm(12, 0)))
	require.NoError(t, err, "touching boundary is not a conflict")
	assert.Equal(t, "E3", e3.Title)
}

func TestCreateEvent_OtherOwnerNoConflict(t *testing.T) {
	f := newFixture(t)

	f.mustCreate(t, u1, "Mine", hm(10, 0), hm(11, 0))
	f.mustCreate(t, u2, "Theirs", hm(10, 0), hm(11, 0))
}

func TestCreateEvent_NotifiesOwnerAndNoVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ev := f.mustCreate(t, u1, "Standup", hm(9, 0), hm(9, 15))

	assert.Equal(t, u1.ID, ev.OwnerID)
	assert.Equal(t, 0, f.versionCount(t, ev.ID))

	changes := f.emitter.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeCreated, changes[0].Type)
	assert.Equal(t, u1.ID, changes[0].UserID)
	assert.Equal(t, ev.ID, changes[0].EventID)

	notes, err := f.engine.Notifications(ctx, u1, false)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.ChangeCreated, notes[0].Type)
	assert.Equal(t, changes[0].ChangeID, notes[0].ChangeID)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.EventFields
	}{
		{"end before start", fields("x", hm(11, 0), hm(10, 0))},
		{"empty interval", fields("x", hm(10, 0), hm(10, 0))},
		{"blank title", fields(" ", hm(10, 0), hm(11, 0))},
		{"bad recurrence", domain.EventFields{
			Title: "x", Start: hm(10, 0), End: hm(11, 0),
			IsRecurring: true, RecurrencePattern: domain.StringPtr("fortnightly"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateEvent(ctx, u1, tt.in)
			assert.True(t, apperr.IsValidation(err), "got %v", err)
		})
	}

	events, err := f.engine.ListEvents(ctx, u1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, f.emitter.Changes())
}

func TestCreateEvent_OutOfRangeTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	far := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := f.engine.CreateEvent(ctx, u1, fields("far", far, far.Add(time.Hour)))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err), "got %v", err)
	assert.Equal(t, "start_time", apperr.DetailsOf(err)["field"])

	edge := time.Date(2262, 4, 11, 23, 0, 0, 0, time.UTC)
	_, err = f.engine.CreateEvent(ctx, u1, fields("edge", edge, edge.Add(2*time.Hour)))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err), "got %v", err)
	assert.Equal(t, "end_time", apperr.DetailsOf(err)["field"])

	events, err := f.engine.ListEvents(ctx, u1)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateEvent_OutOfRangeTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, u1, "Standup", hm(10, 0), hm(11, 0))

	far := time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err := f.engine.UpdateEvent(ctx, u1, ev.ID, domain.EventPatch{
		Start: domain.Some(far),
		End:   domain.Some(far.Add(time.Hour)),
	})
	assert.True(t, apperr.IsValidation(err), "got %v", err)
	assert.Equal(t, 0, f.versionCount(t, ev.ID))

	got, err := f.engine.GetEvent(ctx, u1, ev.ID)
	require.NoError(t, err)
	assert.True(t, got.Start.Equal(hm(10, 0)))
}

func TestCreateEvent_Recurring(t *testing.T) {
	f := newFixture(t)

	ev, err := f.engine.CreateEvent(context.Background(), u1, domain.EventFields{
		Title: "Weekly sync", Start: hm(10, 0), End: hm(11, 0),
		IsRecurring: true, RecurrencePattern: domain.StringPtr("weekly"),
	})
	require.NoError(t, err)
	assert.True(t, ev.IsRecurring)
	assert.Equal(t, "weekly", *ev.RecurrencePattern)
}

func TestCreateEvents_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateEvents(ctx, u1, []domain.EventFields{
		fields("A", hm(9, 0), hm(10, 0)),
		fields("B", hm(10, 0), hm(11, 0)),
		fields("C", hm(10, 30), hm(12, 0)),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, "2", apperr.DetailsOf(err)["index"])

	events, err := f.engine.ListEvents(ctx, u1)
	require.NoError(t, err)
	assert.Empty(t, events, "failed batch leaves nothing behind")
	assert.Empty(t, f.emitter.Changes())

	notes, err := f.engine.Notifications(ctx, u1, false)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestCreateEvents_ValidationIndex(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateEvents(context.Background(), u1, []domain.EventFields{
		fields("A", hm(9, 0), hm(10, 0)),
		fields("", hm(10, 0), hm(11, 0)),
	})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "1", apperr.DetailsOf(err)["index"])
	assert.Equal(t, "title", apperr.DetailsOf(err)["field"])
}

func TestCreateEvents_Success(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateEvents(context.Background(), u1, []domain.EventFields{
		fields("A", hm(9, 0), hm(10, 0)),
		fields("B", hm(10, 0), hm(11, 0)),
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].ID, created[1].ID)
	assert.Len(t, f.emitter.Changes(), 2)
}

func TestCreateEvents_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateEvents(context.Background(), u1, nil)
	assert.True(t, apperr.IsValidation(err))
}
