// Package buildops runs build operations (configuration steps, task
// executions, dependency resolution, artifact downloads) as tracked units
// of work with a stable identity, a parent link, and a start/finish
// lifecycle, and reorganizes the progress/log events they emit into
// contiguous per-operation blocks.
//
// Constructors
//   - NewExecutor(Config, ...Option): builds an Executor backed by a
//     bounded or dynamic worker pool (see subpackage pool); the Listener is
//     supplied with the WithListener option.
//   - NewSession(Config, ...Option): convenience wrapper pairing an Executor
//     with a session id and a structured logger.
//
// Execution
//   - Run / Call execute an operation synchronously on the caller's
//     goroutine.
//   - RunAll dispatches a batch of operations across the executor's pool,
//     preserving the caller's current operation as the batch's default
//     parent.
//
// Current operation
// Go has no goroutine-local storage, so the "current operation" slot is
// carried explicitly through context.Context (see currentop.go) rather
// than through a thread-local.
//
// Output grouping
// Subpackage grouping consumes the event stream produced by running
// operations and buffers everything beneath a TASK or CONFIGURE_PROJECT
// operation until that operation completes, emitting one contiguous batch.
package buildops
