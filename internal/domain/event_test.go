package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/apperr"
)

var (
	t10 = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	t11 = time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	t12 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	farFuture = time.Date(2300, 1, 1, 10, 0, 0, 0, time.UTC)
	nearLimit = time.Date(2262, 4, 11, 23, 0, 0, 0, time.UTC)
)

func TestEventFields_Validate(t *testing.T) {
	valid := EventFields{Title: "Standup", Start: t10, End: t11}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		f     EventFields
		field string
	}{
		{"empty title", EventFields{Title: "  ", Start: t10, End: t11}, "title"},
		{"missing times", EventFields{Title: "x"}, "start_time"},
		{"end before start", EventFields{Title: "x", Start: t11, End: t10}, "end_time"},
		{"zero length", EventFields{Title: "x", Start: t10, End: t10}, "end_time"},
		{"recurring without pattern", EventFields{Title: "x", Start: t10, End: t11, IsRecurring: true}, "recurrence_pattern"},
		{"start after 2262", EventFields{Title: "x", Start: farFuture, End: farFuture.Add(time.Hour)}, "start_time"},
		{"end crosses 2262", EventFields{Title: "x", Start: nearLimit, End: nearLimit.Add(2 * time.Hour)}, "end_time"},
		{"start before 1678", EventFields{Title: "x", Start: time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC), End: t10}, "start_time"},
		{"pattern without recurring", EventFields{Title: "x", Start: t10, End: t11, RecurrencePattern: StringPtr("daily")}, "recurrence_pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Validate()
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
			assert.Equal(t, tt.field, apperr.DetailsOf(err)["field"])
		})
	}
}

func TestStorable(t *testing.T) {
	assert.True(t, Storable(t10))
	assert.True(t, Storable(nearLimit))
	assert.True(t, Storable(time.Date(1700, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, Storable(farFuture))
	assert.False(t, Storable(nearLimit.Add(time.Hour)))
	assert.False(t, Storable(time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestEventFields_Normalize(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	f := EventFields{
		Title:    "  Café meetup ",
		Start:    time.Date(2025, 3, 10, 12, 0, 0, 0, loc),
		End:      time.Date(2025, 3, 10, 13, 0, 0, 0, loc),
		Location: StringPtr(" Room 1 "),
	}.Normalize()

	assert.Equal(t, "Café meetup", f.Title)
	assert.Equal(t, t10, f.Start)
	assert.Equal(t, time.UTC, f.Start.Location())
	assert.Equal(t, "Room 1", *f.Location)
}

func TestEventPatch_ApplyKeepsAbsentFields(t *testing.T) {
	ev := NewEvent(1, EventFields{Title: "Standup", Description: "daily sync", Start: t10, End: t11, Location: StringPtr("Room 1")}, t10)

	got := EventPatch{End: Some(t12)}.Apply(ev)

	assert.Equal(t, "Standup", got.Title)
	assert.Equal(t, "daily sync", got.Description)
	assert.Equal(t, t10, got.Start)
	assert.Equal(t, t12, got.End)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Room 1", *got.Location)
}

func TestEventPatch_ExplicitEmptyValues(t *testing.T) {
	ev := NewEvent(1, EventFields{Title: "Standup", Description: "daily sync", Start: t10, End: t11, Location: StringPtr("Room 1")}, t10)

	got := EventPatch{
		Description: Some(""),
		Location:    Some[*string](nil),
	}.Apply(ev)

	assert.Equal(t, "", got.Description)
	assert.Nil(t, got.Location)
	assert.Equal(t, "Standup", got.Title)
}

func TestEventPatch_JSONPresence(t *testing.T) {
	var p EventPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":"","location":null}`), &p))

	assert.True(t, p.Description.Set)
	assert.Equal(t, "", p.Description.Value)
	assert.True(t, p.Location.Set)
	assert.Nil(t, p.Location.Value)
	assert.False(t, p.Title.Set)
	assert.False(t, p.Start.Set)
	assert.False(t, p.IsEmpty())

	var empty EventPatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.IsEmpty())
}

func TestEventPatch_JSONTimes(t *testing.T) {
	var p EventPatch
	require.NoError(t, json.Unmarshal([]byte(`{"start_time":"2025-03-10T10:00:00Z"}`), &p))

	start, ok := p.Start.Get()
	require.True(t, ok)
	assert.True(t, start.Equal(t10))
}

func TestOptional_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Optional[string] `json:"a"`
		B Optional[string] `json:"b"`
	}{A: Some("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(data))
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	ev := NewEvent(1, EventFields{Title: "Standup", Start: t10, End: t11, Location: StringPtr("Room 1")}, t10)
	snap := SnapshotOf(ev)

	changed := ev.WithFields(EventFields{Title: "Retro", Start: t11, End: t12})
	restored := snap.Restore(changed)

	assert.Equal(t, "Standup", restored.Title)
	assert.Equal(t, t10, restored.Start)
	assert.Equal(t, t11, restored.End)
	require.NotNil(t, restored.Location)
	assert.Equal(t, "Room 1", *restored.Location)
}

func TestSnapshotOf_CopiesLocation(t *testing.T) {
	ev := NewEvent(1, EventFields{Title: "Standup", Start: t10, End: t11, Location: StringPtr("Room 1")}, t10)
	snap := SnapshotOf(ev)

	*ev.Location = "Room 2"
	assert.Equal(t, "Room 1", *snap.Location)
}
