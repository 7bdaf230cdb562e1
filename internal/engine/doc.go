// Package engine implements the event mutation and versioning engine.
//
// Every mutation runs as one store transaction with a fixed order:
//
//  1. load the event (not_found if absent)
//  2. authorize the principal (forbidden without the capability)
//  3. validate and conflict-check the prospective state
//  4. snapshot the pre-mutation state as the next version
//  5. apply the mutation and write notification rows
//  6. commit, then emit live changes
//
// Nothing is written when any step before commit fails, so a rejected
// update never leaves an orphan version behind. Live delivery happens only
// after commit and never fails the mutation.
//
// CONCURRENCY:
//
// Transactions start with BEGIN IMMEDIATE on a single-connection pool, so
// two writers to the same event are serialized and version numbers stay
// gap-free. The Engine itself holds no mutable state and is safe for
// concurrent use.
package engine
