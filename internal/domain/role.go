package domain

import (
	"fmt"
	"strings"
)

// Role is the effective access level a principal holds on an event.
type Role uint8

const (
	// RoleNone means no access.
	RoleNone Role = iota
	// RoleViewer may read the event and its history.
	RoleViewer
	// RoleEditor may additionally update the event.
	RoleEditor
	// RoleOwner is implicit through Event.OwnerID and is never granted.
	RoleOwner
)

var roleNames = map[Role]string{
	RoleNone:   "none",
	RoleViewer: "viewer",
	RoleEditor: "editor",
	RoleOwner:  "owner",
}

// ParseRole parses the textual role used by storage and transports.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewer":
		return RoleViewer, nil
	case "editor":
		return RoleEditor, nil
	case "owner":
		return RoleOwner, nil
	case "none", "":
		return RoleNone, nil
	default:
		return RoleNone, fmt.Errorf("unknown role %q", s)
	}
}

// String returns the textual role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if _, ok := roleNames[r]; !ok {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Grantable reports whether the role may be stored as a permission row.
func (r Role) Grantable() bool {
	return r == RoleViewer || r == RoleEditor
}

// Allows reports whether the role carries the capability.
func (r Role) Allows(c Capability) bool {
	switch c {
	case CapView:
		return r >= RoleViewer
	case CapEdit:
		return r >= RoleEditor
	case CapOwn:
		return r == RoleOwner
	default:
		return false
	}
}

// Capability is the permission level an operation requires.
type Capability uint8

const (
	// CapView reads an event, its history and diffs.
	CapView Capability = iota + 1
	// CapEdit updates an event's fields.
	CapEdit
	// CapOwn shares, rolls back and manages permissions.
	CapOwn
)

// String returns the capability name.
func (c Capability) String() string {
	switch c {
	case CapView:
		return "view"
	case CapEdit:
		return "edit"
	case CapOwn:
		return "own"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}
