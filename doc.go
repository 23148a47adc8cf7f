// Package taskqueue provides an in-process task-execution engine: callers
// enqueue zero-argument tasks and a fixed pool of worker slots, one dedicated
// goroutine each, executes them in parallel.
//
// Model
//   - Pending tasks are held in an unbounded FIFO store; insertion order is
//     the only ordering guarantee.
//   - A dedicated scheduler goroutine assigns pending tasks to idle slots in
//     slot-creation order and signals drain to Wait callers.
//   - A slot runs exactly one task at a time; tasks run truly in parallel
//     across slots.
//
// Observation
// Waiting, Running, Empty, Busy and Complete expose the queue state; Wait
// (or WaitContext) blocks until no task is pending and none is running.
// Calling Wait on an already-complete queue returns immediately.
//
// Cancellation
// Only tasks not yet handed to a slot can be removed: TryRemove drops the
// first pending entry equal to its argument and requires a comparable task
// type; Clear discards all pending tasks. In-flight tasks always run to
// completion, including during Close.
//
// Panics
// A panicking task is recovered, still counted as completed, and reported on
// the Errors channel wrapped in ErrTaskPanicked.
//
// Defaults
// Unless overridden, a new queue uses the host concurrency hint for the slot
// count, a 1024-entry errors buffer, a no-op logger, and no-op metrics.
package taskqueue
