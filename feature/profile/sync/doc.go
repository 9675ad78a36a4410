// Package sync implements the profile synchronization engine: the
// event-driven path that keeps the denormalized profile row converging to
// the canonical identity record.
//
// # Idempotency over ordering
//
// The event bus gives no ordering guarantee for events of the same identity
// dispatched concurrently. The engine therefore never trusts event payloads
// beyond the id: every handler re-reads the committed identity row and
// merges, so the last applied write wins per field regardless of arrival
// order.
//
// # Creation races
//
// Two concurrent creators for the same identity are resolved by the store's
// uniqueness constraint: the loser observes a duplicate-key error, reloads
// the winning row and merges the mirrored subset onto it. Either way the
// call terminates with exactly one profile row carrying the current
// mirrored values.
package sync
