package store

import (
	"context"
	"fmt"

	"github.com/roach88/collabevents/internal/domain"
)

// ListPermissions returns the explicit grants on an event, ordered by user.
func (c conn) ListPermissions(ctx context.Context, eventID int64) ([]domain.Permission, error) {
	rows, err := c.q.QueryContext(ctx, `
		SELECT id, event_id, user_id, role, updated_ns
		FROM event_permissions
		WHERE event_id = ?
		ORDER BY user_id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	perms := []domain.Permission{}
	for rows.Next() {
		var (
			p         domain.Permission
			role      string
			updatedNs int64
		)
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &role, &updatedNs); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		p.Role, err = domain.ParseRole(role)
		if err != nil {
			return nil, fmt.Errorf("scan permission %d: %w", p.ID, err)
		}
		p.UpdatedAt = fromNanos(updatedNs)
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return perms, nil
}

// UpsertPermission grants p.Role to p.UserID on p.EventID. An existing row
// for the same (event, user) pair is overwritten. Returns the stored row.
func (c conn) UpsertPermission(ctx context.Context, p domain.Permission) (domain.Permission, error) {
	role, err := p.Role.MarshalText()
	if err != nil {
		return domain.Permission{}, fmt.Errorf("upsert permission: %w", err)
	}

	err = c.q.QueryRowContext(ctx, `
		INSERT INTO event_permissions (event_id, user_id, role, updated_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_id, user_id) DO UPDATE
		SET role = excluded.role, updated_ns = excluded.updated_ns
		RETURNING id
	`, p.EventID, p.UserID, string(role), toNanos(p.UpdatedAt)).Scan(&p.ID)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("upsert permission: %w", err)
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
