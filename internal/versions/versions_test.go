package versions

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/store"
)

var base = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func insertEvent(t *testing.T, s *store.Store, owner int64, title string) domain.Event {
	t.Helper()
	ev := domain.NewEvent(owner, domain.EventFields{Title: title, Start: base, End: base.Add(time.Hour)}, base)
	id, err := s.InsertEvent(context.Background(), ev)
	require.NoError(t, err)
	ev.ID = id
	return ev
}

func TestSnapshot_NumbersStartAtOne(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ev := insertEvent(t, s, 1, "Standup")

	n, err := NextNumber(ctx, s, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := Snapshot(ctx, s, ev, 2, "c1", base)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, int64(2), v.UpdatedBy)
	assert.Equal(t, "Standup", v.Snapshot.Title)
	assert.NotEmpty(t, v.ContentHash)
	assert.NotZero(t, v.ID)

	n, err = NextNumber(ctx, s, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSnapshot_ConcurrentWritersNoGaps(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ev := insertEvent(t, s, 1, "Standup")

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithTx(ctx, func(tx *store.Tx) error {
				_, err := Snapshot(ctx, tx, ev, 1, "c", base)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := List(ctx, s, ev.ID)
	require.NoError(t, err)
	require.Len(t, list, writers)
	for i, v := range list {
		assert.Equal(t, i+1, v.Number)
	}
}

func TestGet_WrongEvent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	a := insertEvent(t, s, 1, "A")
	b := insertEvent(t, s, 2, "B")

	v, err := Snapshot(ctx, s, a, 1, "c1", base)
	require.NoError(t, err)

	got, err := Get(ctx, s, a.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = Get(ctx, s, b.ID, v.ID)
	assert.True(t, apperr.IsNotFound(err))

	_, err = Get(ctx, s, a.ID, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDiff_SelfIsEmpty(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ev := insertEvent(t, s, 1, "Standup")

	v, err := Snapshot(ctx, s, ev, 1, "c1", base)
	require.NoError(t, err)

	assert.Empty(t, Diff(v, v))
}

func TestDiff_ChangedFieldsOnly(t *testing.T) {
	a := domain.Snapshot{Title: "Standup", Start: base, End: base.Add(time.Hour)}
	b := domain.Snapshot{Title: "Standup", Start: base, End: base.Add(2 * time.Hour), Location: domain.StringPtr("Room 1")}

	d := DiffSnapshots(a, b)
	assert.Equal(t, domain.FieldDiff{
		domain.FieldEndTime:  {From: base.Add(time.Hour), To: base.Add(2 * time.Hour)},
		domain.FieldLocation: {From: nil, To: "Room 1"},
	}, d)
}

func TestDiff_Symmetric(t *testing.T) {
	a := domain.EventVersion{Snapshot: domain.Snapshot{Title: "A", Description: "x", Start: base, End: base.Add(time.Hour)}}
	b := domain.EventVersion{Snapshot: domain.Snapshot{Title: "B", Description: "y", Start: base.Add(time.Hour), End: base.Add(3 * time.Hour)}}

	ab := Diff(a, b)
	ba := Diff(b, a)
	require.Len(t, ab, 4)
	for field, change := range ab {
		assert.Equal(t, change.From, ba[field].To, field)
		assert.Equal(t, change.To, ba[field].From, field)
	}
}

func TestDiff_SameInstantDifferentZone(t *testing.T) {
	zone := time.FixedZone("UTC+1", 3600)
	a := domain.Snapshot{Title: "A", Start: base, End: base.Add(time.Hour)}
	b := domain.Snapshot{Title: "A", Start: base.In(zone), End: base.Add(time.Hour).In(zone)}

	assert.Empty(t, DiffSnapshots(a, b))
}

func TestDiff_EmptyVsNilLocation(t *testing.T) {
	a := domain.Snapshot{Title: "A", Start: base, End: base.Add(time.Hour)}
	b := a
	b.Location = domain.StringPtr("")

	assert.Equal(t, domain.FieldDiff{domain.FieldLocation: {From: nil, To: ""}}, DiffSnapshots(a, b))
}
