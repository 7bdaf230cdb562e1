package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

const eventColumns = `id, owner_id, title, description, start_ns, end_ns, location,
	is_recurring, recurrence_pattern, created_ns, updated_ns`

// InsertEvent stores a new event and returns its assigned ID.
// Returns ErrOverlap if the insert collides with another event of the
// same owner.
func (c conn) InsertEvent(ctx context.Context, ev domain.Event) (int64, error) {
	res, err := c.q.ExecContext(ctx, `
		INSERT INTO events
		(owner_id, title, description, start_ns, end_ns, location,
		 is_recurring, recurrence_pattern, created_ns, updated_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.OwnerID,
		ev.Title,
		ev.Description,
		toNanos(ev.Start),
		toNanos(ev.End),
		nullString(ev.Location),
		boolInt(ev.IsRecurring),
		nullString(ev.RecurrencePattern),
		toNanos(ev.CreatedAt),
		toNanos(ev.UpdatedAt),
	)
	if err != nil {
		if isOverlapError(err) {
			return 0, fmt.Errorf("insert event: %w", ErrOverlap)
		}
		return 0, fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// GetEvent returns the event with the given ID, or ErrNotFound.
func (c conn) GetEvent(ctx context.Context, id int64) (domain.Event, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

// UpdateEvent overwrites the mutable fields of an existing event.
// Returns ErrNotFound if no row has the event's ID.
func (c conn) UpdateEvent(ctx context.Context, ev domain.Event) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, start_ns = ?, end_ns = ?, location = ?,
		    is_recurring = ?, recurrence_pattern = ?, updated_ns = ?
		WHERE id = ?
	`,
		ev.Title,
		ev.Description,
		toNanos(ev.Start),
		toNanos(ev.End),
		nullString(ev.Location),
		boolInt(ev.IsRecurring),
		nullString(ev.RecurrencePattern),
		toNanos(ev.UpdatedAt),
		ev.ID,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %d: %w", ev.ID, ErrNotFound)
	}
	return nil
}

// OverlappingEvents returns the events of ownerID whose interval
// intersects [start, end), ordered by ID ascending. Touching endpoints do
// not intersect. excludeID (if non-zero) is left out of the result.
func (c conn) OverlappingEvents(ctx context.Context, ownerID int64, start, end time.Time, excludeID int64) ([]domain.Event, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE owner_id = ?
		  AND start_ns < ?
		  AND ? < end_ns
		  AND id != ?
		ORDER BY id ASC
	`, ownerID, toNanos(end), toNanos(start), excludeID)
	if err != nil {
		return nil, fmt.Errorf("query overlapping events: %w", err)
	}
	return collectEvents(rows)
}

// ListEventsForUser returns the events userID owns or has been granted a
// role on, ordered by start time then ID.
func (c conn) ListEventsForUser(ctx context.Context, userID int64) ([]domain.Event, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM events
		WHERE owner_id = ?
		   OR id IN (SELECT event_id FROM event_permissions WHERE user_id = ?)
		ORDER BY start_ns ASC, id ASC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]domain.Event, error) {
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

func scanEvent(row rowScanner) (domain.Event, error) {
	var (
		ev                   domain.Event
		startNs, endNs       int64
		createdNs, updatedNs int64
		location, pattern    sql.NullString
		isRecurring          int
	)
	err := row.Scan(
		&ev.ID,
		&ev.OwnerID,
		&ev.Title,
		&ev.Description,
		&startNs,
		&endNs,
		&location,
		&isRecurring,
		&pattern,
		&createdNs,
		&updatedNs,
	)
	if err != nil {
		return domain.Event{}, err
	}

	ev.Start = fromNanos(startNs)
	ev.End = fromNanos(endNs)
	ev.Location = stringPtr(location)
	ev.IsRecurring = isRecurring != 0
	ev.RecurrencePattern = stringPtr(pattern)
	ev.CreatedAt = fromNanos(createdNs)
	ev.UpdatedAt = fromNanos(updatedNs)
	return ev, nil
}
