package buildops

import "context"

// RunnableOperation is a build operation that produces no result.
type RunnableOperation interface {
	Description() *DescriptorBuilder
	Run(ctx context.Context, opCtx *Context) error
}

// CallableOperation is a build operation that produces a result of type T.
type CallableOperation[T any] interface {
	Description() *DescriptorBuilder
	Call(ctx context.Context, opCtx *Context) (T, error)
}

// Worker is a pluggable execution strategy, allowing callers to adapt
// existing work (not authored against RunnableOperation/CallableOperation)
// into something the executor can run.
type Worker interface {
	Execute(ctx context.Context, opCtx *Context) error
}

// WorkerFunc adapts a plain function into a Worker.
type WorkerFunc func(ctx context.Context, opCtx *Context) error

func (f WorkerFunc) Execute(ctx context.Context, opCtx *Context) error { return f(ctx, opCtx) }

// runnableFunc adapts a RunnableOperation into a Worker.
type runnableFunc struct {
	op RunnableOperation
}

func (r runnableFunc) Execute(ctx context.Context, opCtx *Context) error {
	return r.op.Run(ctx, opCtx)
}

// callableFunc adapts a CallableOperation into a Worker, storing its result
// into opCtx via SetResult.
type callableFunc[T any] struct {
	op CallableOperation[T]
}

func (c callableFunc[T]) Execute(ctx context.Context, opCtx *Context) error {
	result, err := c.op.Call(ctx, opCtx)
	if err != nil {
		return err
	}
	opCtx.SetResult(result)
	return nil
}
