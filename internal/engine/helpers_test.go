package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/store"
	"github.com/roach88/collabevents/internal/testutil"
)

var (
	day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	u1 = domain.Principal{ID: 1}
	u2 = domain.Principal{ID: 2}
	u3 = domain.Principal{ID: 3}
)

// hm returns day at hh:mm UTC.
func hm(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

type fixture struct {
	engine  *Engine
	store   *store.Store
	emitter *testutil.RecordingEmitter
	clock   *testutil.DeterministicClock
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rec := &testutil.RecordingEmitter{}
	clock := testutil.NewDeterministicClock(day.Add(-24*time.Hour), time.Minute)
	all := append([]Option{
		WithClock(clock),
		WithChangeIDs(testutil.NewSequenceIDs("change")),
	}, opts...)

	return &fixture{
		engine:  New(s, rec, all...),
		store:   s,
		emitter: rec,
		clock:   clock,
	}
}

func fields(title string, start, end time.Time) domain.EventFields {
	return domain.EventFields{Title: title, Start: start, End: end}
}

func (f *fixture) mustCreate(t *testing.T, p domain.Principal, title string, start, end time.Time) domain.Event {
	t.Helper()
	ev, err := f.engine.CreateEvent(context.Background(), p, fields(title, start, end))
	require.NoError(t, err)
	return ev
}

func (f *fixture) mustShare(t *testing.T, owner domain.Principal, id int64, grants ...domain.Grant) {
	t.Helper()
	_, err := f.engine.ShareEvent(context.Background(), owner, id, grants)
	require.NoError(t, err)
}

func (f *fixture) versionCount(t *testing.T, id int64) int {
	t.Helper()
	list, err := f.store.ListVersions(context.Background(), id)
	require.NoError(t, err)
	return len(list)
}
