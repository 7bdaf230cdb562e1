// Package domain provides the entity types shared by every collabevents
// package: events, permissions, version snapshots, notifications and the
// closed role/capability enums.
//
// This package contains type definitions and pure helpers only. It imports
// nothing internal except apperr, so it stays the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - Roles and capabilities are closed enums, never compared as strings
//   - Partial updates use Optional[T] so "absent" and "empty" are distinct
//   - Timestamps are UTC; intervals are half-open [Start, End)
//   - Snapshot content hashes use canonical JSON (see canonical.go)
package domain
