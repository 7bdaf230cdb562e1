// Package policy decides which principal may perform which operation on an
// event.
//
// The owner is implicit (Event.OwnerID) and holds every capability.
// Everyone else is limited to their explicit grant:
//
//	view: owner or any grant
//	edit: owner or an editor grant
//	own:  owner only
//
// A grant row carrying the legacy "owner" value counts as editor; it never
// confers ownership.
package policy

import (
	"fmt"

	"github.com/roach88/collabevents/internal/apperr"
	"github.com/roach88/collabevents/internal/domain"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	// Role is the effective role of the principal on the event.
	Role domain.Role
	// Allowed reports whether the requested capability was granted.
	Allowed bool
	// Reason explains a denial; empty when allowed.
	Reason string
	// Missing is set when the event does not exist.
	Missing bool
}

// Resolve returns the effective role of p on ev given the event's grants.
func Resolve(ev domain.Event, p domain.Principal, grants []domain.Permission) domain.Role {
	if p.ID == ev.OwnerID {
		return domain.RoleOwner
	}
	for _, g := range grants {
		if g.EventID != ev.ID || g.UserID != p.ID {
			continue
		}
		if g.Role == domain.RoleOwner {
			return domain.RoleEditor
		}
		return g.Role
	}
	return domain.RoleNone
}

// Authorize checks whether p holds capability c on ev. A nil event denies
// with Missing set.
func Authorize(ev *domain.Event, p domain.Principal, grants []domain.Permission, c domain.Capability) Decision {
	if ev == nil {
		return Decision{Missing: true, Reason: "event not found"}
	}

	role := Resolve(*ev, p, grants)
	if role.Allows(c) {
		return Decision{Role: role, Allowed: true}
	}

	reason := fmt.Sprintf("%s capability required", c)
	if role != domain.RoleNone {
		reason = fmt.Sprintf("role %s lacks %s capability", role, c)
	}
	return Decision{Role: role, Reason: reason}
}

// Err converts a denial into the engine error kind: not_found for a missing
// event, forbidden otherwise. Returns nil when allowed.
func (d Decision) Err(eventID int64) error {
	switch {
	case d.Allowed:
		return nil
	case d.Missing:
		return apperr.WithDetails(apperr.KindNotFound, "event not found", map[string]string{
			"event_id": fmt.Sprint(eventID),
		})
	default:
		return apperr.WithDetails(apperr.KindForbidden, d.Reason, map[string]string{
			"event_id": fmt.Sprint(eventID),
		})
	}
}
