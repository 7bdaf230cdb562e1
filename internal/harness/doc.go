// Package harness runs scripted scenarios against the event engine.
//
// A scenario drives a real engine over a fresh in-memory store, records a
// trace of every call, its outcome and the live changes it emitted, and
// then checks expectations against the trace and the final database state.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: share_then_update
//	description: "What this scenario validates"
//	options:
//	  rollback_conflict_check: false
//	setup:
//	  - action: create
//	    as: 1
//	    args: { title: Standup, start_time: "2025-03-10T09:00:00Z", end_time: "2025-03-10T09:30:00Z" }
//	flow:
//	  - invoke: update
//	    as: 2
//	    args: { event: 1, title: Daily Standup }
//	    expect:
//	      case: forbidden
//	assertions:
//	  - type: change_count
//	    change_type: event_updated
//	    count: 0
//	  - type: final_state
//	    table: events
//	    where: { id: 1 }
//	    expect: { title: Standup }
//
// Actions are create, update, share, rollback, get, list, history, diff,
// notifications and mark_read. Rollback and diff address versions by their
// per-event number. Update args other than "event" and "clear" form the
// patch; "clear" lists optional fields to reset.
//
// A completion's case is "ok" or the error kind the engine returned. Setup
// steps must complete with "ok"; flow steps without an expect clause must
// too.
//
// # Assertion Types
//
//   - trace_contains: an invocation of action with matching args (subset)
//   - trace_order: invocations appear in the given order
//   - trace_count: an action is invoked exactly N times
//   - change_count: N live changes, filtered by change_type and user
//   - final_state: one table row matching where carries the expect values
//
// # Deterministic Testing
//
// The engine runs with a fixed-step clock and sequential change IDs, so a
// scenario always yields the same trace. Traces serialize to canonical JSON
// for golden comparison (see RunWithGolden and MarshalTrace).
package harness
