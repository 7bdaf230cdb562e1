// Package conflict detects scheduling overlaps between events of the same
// owner.
package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
)

// Overlaps reports whether the half-open intervals [s1, e1) and [s2, e2)
// intersect. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// Source lists an owner's events intersecting an interval, ordered by ID.
// Both *store.Store and *store.Tx satisfy it.
type Source interface {
	OverlappingEvents(ctx context.Context, ownerID int64, start, end time.Time, excludeID int64) ([]domain.Event, error)
}

// Detector checks candidate intervals against stored events.
type Detector struct {
	src Source
}

// New creates a Detector reading from src.
func New(src Source) *Detector {
	return &Detector{src: src}
}

// Check returns nil when [start, end) is free for ownerID, or a conflict
// error naming the lowest-ID colliding event. excludeID (non-zero) omits the
// event being updated.
func (d *Detector) Check(ctx context.Context, ownerID int64, start, end time.Time, excludeID int64) error {
	hit, found, err := d.FindConflict(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return Error(hit)
}

// FindConflict returns the lowest-ID event colliding with [start, end).
func (d *Detector) FindConflict(ctx context.Context, ownerID int64, start, end time.Time, excludeID int64) (domain.Event, bool, error) {
	events, err := d.src.OverlappingEvents(ctx, ownerID, start, end, excludeID)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("conflict check: %w", err)
	}

	var (
		hit   domain.Event
		found bool
	)
	for _, ev := range events {
		if ev.ID == excludeID || !Overlaps(start, end, ev.Start, ev.End) {
			continue
		}
		if !found || ev.ID < hit.ID {
			hit, found = ev, true
		}
	}
	return hit, found, nil
}

// Error builds the conflict error reported for a colliding event.
func Error(ev domain.Event) error {
	return apperr.WithDetails(apperr.KindConflict,
		fmt.Sprintf("overlaps event %d %q", ev.ID, ev.Title),
		map[string]string{
			"event_id": fmt.Sprint(ev.ID),
			"title":    ev.Title,
		})
}
