package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// createTestStore creates a new temp-file store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// at returns baseTime plus h hours.
func at(h int) time.Time {
	return baseTime.Add(time.Duration(h) * time.Hour)
}

// eventAt builds an unsaved event for owner spanning [at(startH), at(endH)).
func eventAt(owner int64, title string, startH, endH int) domain.Event {
	return domain.NewEvent(owner, domain.EventFields{
		Title: title,
		Start: at(startH),
		End:   at(endH),
	}, baseTime)
}

// createTestEvent inserts an event for owner spanning [at(startH), at(endH)).
func createTestEvent(t *testing.T, s *Store, owner int64, title string, startH, endH int) domain.Event {
	t.Helper()
	ev := eventAt(owner, title, startH, endH)

	id, err := s.InsertEvent(context.Background(), ev)
	if err != nil {
		t.Fatalf("InsertEvent() failed: %v", err)
	}
	ev.ID = id
	return ev
}
