// Package eventbus provides the in-process publish/subscribe dispatcher used
// to propagate identity mutations to the profile sync listener.
//
// # Delivery model
//
// Events are dispatched asynchronously on a small bounded worker pool that is
// dedicated to this bus, so a burst of sync work cannot starve unrelated
// async work elsewhere in the process. When the dispatch queue is full the
// publishing goroutine runs the handler itself (caller-runs back-pressure):
// memory stays bounded at the cost of added publish latency under overload.
//
// There is no ordering guarantee between two events dispatched concurrently.
// Correctness relies on handlers being idempotent and re-reading fresh state
// before acting.
//
// # After-commit publishing
//
// Batch buffers events produced inside a database transaction and flushes
// them only after the transaction commits (RunInTransaction). A handler can
// therefore always observe the committed row when it re-reads, and a handler
// failure can never roll back the business operation that triggered it.
package eventbus
