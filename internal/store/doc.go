// Package store provides SQLite-backed durable storage for collaborative
// events.
//
// Tables:
//   - events: the mutable event rows (never hard-deleted)
//   - event_permissions: explicit viewer/editor grants, one per (event, user)
//   - event_versions: append-only pre-mutation snapshots
//   - notifications: persisted per-user messages
//
// # Invariants
//
// Version numbers are per event, start at 1 and have no gaps. The engine
// reads MaxVersionNumber and calls InsertVersion inside one WithTx call;
// every transaction starts with BEGIN IMMEDIATE, so a second writer cannot
// compute the same number before the first commits. UNIQUE(event_id,
// version_number) backs this up, and triggers reject UPDATE and DELETE on
// event_versions.
//
// Intervals are half-open: [start, end). Two events of the same owner
// overlap iff s1 < e2 AND s2 < e1.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - _txlock=immediate: Take the write lock at BEGIN
package store
