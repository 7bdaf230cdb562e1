// Package versions records and compares immutable event snapshots.
//
// A version is taken immediately before every update or rollback, so
// version N holds the state the event had before its Nth mutation. Numbers
// start at 1 per event and have no gaps: Snapshot reads the current maximum
// and inserts max+1 through the same Writer, which the engine backs with a
// single write transaction.
package versions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
	"github.com/roach88/collabevents/internal/store"
)

// Writer appends versions.
type Writer interface {
	MaxVersionNumber(ctx context.Context, eventID int64) (int, error)
	InsertVersion(ctx context.Context, v domain.EventVersion) (int64, error)
}

// Reader reads versions back.
type Reader interface {
	GetVersion(ctx context.Context, id int64) (domain.EventVersion, error)
	ListVersions(ctx context.Context, eventID int64) ([]domain.EventVersion, error)
}

// NextNumber returns 1 + the highest existing version number of the
// event, or 1 if it has none.
func NextNumber(ctx context.Context, w Writer, eventID int64) (int, error) {
	n, err := w.MaxVersionNumber(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// Snapshot persists the current versioned fields of ev as its next version.
func Snapshot(ctx context.Context, w Writer, ev domain.Event, actorID int64, changeID string, at time.Time) (domain.EventVersion, error) {
	number, err := NextNumber(ctx, w, ev.ID)
	if err != nil {
		return domain.EventVersion{}, fmt.Errorf("snapshot event %d: %w", ev.ID, err)
	}

	snap := domain.SnapshotOf(ev)
	hash, err := snap.ContentHash()
	if err != nil {
		return domain.EventVersion{}, fmt.Errorf("snapshot event %d: %w", ev.ID, err)
	}

	v := domain.EventVersion{
		EventID:     ev.ID,
		Number:      number,
		Snapshot:    snap,
		UpdatedBy:   actorID,
		UpdatedAt:   at.UTC(),
		ChangeID:    changeID,
		ContentHash: hash,
	}
	v.ID, err = w.InsertVersion(ctx, v)
	if err != nil {
		return domain.EventVersion{}, fmt.Errorf("snapshot event %d: %w", ev.ID, err)
	}
	return v, nil
}

// Get returns version versionID of event eventID. A version that does not
// exist or belongs to another event is reported as not_found.
func Get(ctx context.Context, r Reader, eventID, versionID int64) (domain.EventVersion, error) {
	v, err := r.GetVersion(ctx, versionID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && v.EventID != eventID) {
		return domain.EventVersion{}, apperr.WithDetails(apperr.KindNotFound, "version not found", map[string]string{
			"event_id":   fmt.Sprint(eventID),
			"version_id": fmt.Sprint(versionID),
		})
	}
	if err != nil {
		return domain.EventVersion{}, err
	}
	return v, nil
}

// List returns every version of the event in ascending number order.
func List(ctx context.Context, r Reader, eventID int64) ([]domain.EventVersion, error) {
	return r.ListVersions(ctx, eventID)
}
