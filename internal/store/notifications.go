package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/collabevents/internal/domain"
)

// InsertNotification stores a notification and returns its ID.
func (c conn) InsertNotification(ctx context.Context, n domain.Notification) (int64, error) {
	var eventID sql.NullInt64
	if n.EventID != nil {
		eventID = sql.NullInt64{Int64: *n.EventID, Valid: true}
	}

	res, err := c.q.ExecContext(ctx, `
		INSERT INTO notifications (user_id, event_id, type, message, change_id, is_read, created_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		n.UserID,
		eventID,
		string(n.Type),
		n.Message,
		n.ChangeID,
		boolInt(n.IsRead),
		toNanos(n.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

// ListNotifications returns a user's notifications, newest first.
func (c conn) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]domain.Notification, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, user_id, event_id, type, message, change_id, is_read, created_ns
		FROM notifications
		WHERE user_id = ?
		  AND (? = 0 OR is_read = 0)
		ORDER BY id DESC
	`, userID, boolInt(unreadOnly))
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notes := []domain.Notification{}
	for rows.Next() {
		var (
			n         domain.Notification
			eventID   sql.NullInt64
			typ       string
			isRead    int
			createdNs int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &eventID, &typ, &n.Message, &n.ChangeID, &isRead, &createdNs); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if eventID.Valid {
			id := eventID.Int64
			n.EventID = &id
		}
		n.Type = domain.ChangeType(typ)
		n.IsRead = isRead != 0
		n.CreatedAt = fromNanos(createdNs)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notes, nil
}

// MarkNotificationRead flags one of userID's notifications as read.
// Returns ErrNotFound if the notification does not exist or belongs to
// another user.
func (c conn) MarkNotificationRead(ctx context.Context, userID, id int64) error {
	res, err := c.q.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeReadNotifications deletes read notifications created before the
// cutoff and returns how many were removed.
func (c conn) PurgeReadNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := c.q.ExecContext(ctx, `
		DELETE FROM notifications WHERE is_read = 1 AND created_ns < ?
	`, toNanos(before))
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return n, nil
}
