package buildops

import (
	"context"
	"fmt"

	"github.com/ygrebnov/buildops/queue"
)

// RunAll runs a caller-supplied scheduling callback as a build operation,
// exposing a *queue.Queue bound to the executor's own pool. The callback
// enqueues jobs onto the queue; RunAll waits for every enqueued job to
// finish before returning. The current operation captured from ctx, if any,
// becomes the default parent for every job the callback enqueues, captured
// once, at call time, before any job runs.
//
// If builder is nil, a default "Run all" descriptor is used.
func (e *Executor) RunAll(
	ctx context.Context,
	builder *DescriptorBuilder,
	schedule func(q *queue.Queue) error,
) error {
	if builder == nil {
		builder = NewDescriptorBuilder("Run all")
	}

	// Captured here, before e.execute rewrites ctx to carry this call's own
	// "Run all" operation as current: jobs enqueued onto the queue must be
	// parented under whatever was current when the caller invoked RunAll,
	// not under the wrapper operation RunAll runs as.
	baseCtx := withManaged(ctx)

	w := queueWorker{executor: e, schedule: schedule, baseCtx: baseCtx}
	_, err := e.execute(ctx, builder, w)
	return err
}

// queueWorker is the parent-preserving envelope RunAll runs as: it owns the
// queue's lifecycle (construction, handing it to the caller's schedule
// callback, and waiting for completion) all inside a single build operation.
type queueWorker struct {
	executor *Executor
	schedule func(q *queue.Queue) error
	baseCtx  context.Context
}

func (w queueWorker) Execute(_ context.Context, _ *Context) error {
	q := queue.New(w.baseCtx, w.executor.pool, w.executor.cfg.QueueTasksBufferSize)

	if err := w.schedule(q); err != nil {
		q.Fail(fmt.Errorf("%s: queue population failed: %w", Namespace, err))
		q.Cancel()
	}

	return q.WaitForCompletion()
}
