package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/collabevents/internal/domain"
)

const versionColumns = `id, event_id, version_number, title, description, start_ns, end_ns,
	location, updated_by, updated_ns, change_id, content_hash`

// MaxVersionNumber returns the highest version number recorded for an
// event, or 0 if it has none. Call it inside the same transaction as the
// following InsertVersion.
func (c conn) MaxVersionNumber(ctx context.Context, eventID int64) (int, error) {
	var n int
	err := c.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version_number), 0)
		FROM event_versions
		WHERE event_id = ?
	`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max version number: %w", err)
	}
	return n, nil
}

// InsertVersion appends a version record and returns its ID.
// UNIQUE(event_id, version_number) rejects duplicate numbers.
func (c conn) InsertVersion(ctx context.Context, v domain.EventVersion) (int64, error) {
	res, err := c.q.ExecContext(ctx, `
		INSERT INTO event_versions
		(event_id, version_number, title, description, start_ns, end_ns,
		 location, updated_by, updated_ns, change_id, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.EventID,
		v.Number,
		v.Snapshot.Title,
		v.Snapshot.Description,
		toNanos(v.Snapshot.Start),
		toNanos(v.Snapshot.End),
		nullString(v.Snapshot.Location),
		v.UpdatedBy,
		toNanos(v.UpdatedAt),
		v.ChangeID,
		v.ContentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}
	return id, nil
}

// GetVersion returns the version with the given ID, or ErrNotFound.
func (c conn) GetVersion(ctx context.Context, id int64) (domain.EventVersion, error) {
	row := c.q.QueryRowContext(ctx, `SELECT `+versionColumns+` FROM event_versions WHERE id = ?`, id)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EventVersion{}, fmt.Errorf("version %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.EventVersion{}, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// ListVersions returns every version of an event in ascending
// version_number order. Returns an empty slice (not nil) if none exist.
func (c conn) ListVersions(ctx context.Context, eventID int64) ([]domain.EventVersion, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT `+versionColumns+`
		FROM event_versions
		WHERE event_id = ?
		ORDER BY version_number ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []domain.EventVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

func scanVersion(row rowScanner) (domain.EventVersion, error) {
	var (
		v              domain.EventVersion
		startNs, endNs int64
		updatedNs      int64
		location       sql.NullString
	)
	err := row.Scan(
		&v.ID,
		&v.EventID,
		&v.Number,
		&v.Snapshot.Title,
		&v.Snapshot.Description,
		&startNs,
		&endNs,
		&location,
		&v.UpdatedBy,
		&updatedNs,
		&v.ChangeID,
		&v.ContentHash,
	)
	if err != nil {
		return domain.EventVersion{}, err
	}

	v.Snapshot.Start = fromNanos(startNs)
	v.Snapshot.End = fromNanos(endNs)
	v.Snapshot.Location = stringPtr(location)
	v.UpdatedAt = fromNanos(updatedNs)
	return v, nil
}
