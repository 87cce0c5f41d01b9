package buildops

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ygrebnov/buildops/metrics"
	"github.com/ygrebnov/buildops/pool"
)

// Executor runs build operations, on the caller's own goroutine (Run, Call)
// or across a bounded pool (RunAll), maintaining parent/child lineage and
// notifying a Listener of start/finish events.
type Executor struct {
	cfg            Config
	listener       Listener
	clock          Clock
	progressLogger ProgressLogger
	logger         *zap.Logger
	metrics        metrics.Provider

	gen idGenerator

	pool pool.Pool

	stopped sync.Once
	stopCh  chan struct{}
}

// NewExecutor builds an Executor. cfg may be the zero value; unset fields
// fall back to defaultConfig().
func NewExecutor(cfg Config, opts ...Option) *Executor {
	o := executorOptions{
		cfg:            cfg,
		listener:       NoopListener{},
		clock:          SystemClock{},
		progressLogger: NoopProgressLogger{},
		logger:         zap.NewNop(),
		metrics:        metrics.NoopProvider{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var p pool.Pool
	newWorkerFn := func() interface{} { return new(jobSlot) }
	if o.cfg.MaxWorkers > 0 {
		p = pool.NewFixed(o.cfg.MaxWorkers, newWorkerFn)
	} else {
		p = pool.NewDynamic(newWorkerFn)
	}

	return &Executor{
		cfg:            o.cfg,
		listener:       o.listener,
		clock:          o.clock,
		progressLogger: o.progressLogger,
		logger:         o.logger,
		metrics:        o.metrics,
		pool:           p,
		stopCh:         make(chan struct{}),
	}
}

// jobSlot is the pooled element RunAll's queue checks out per job; it
// carries no state of its own. The pool exists purely to bound how many
// goroutines execute queued jobs concurrently.
type jobSlot struct{}

func (e *Executor) isStopped() bool {
	select {
	case <-e.stopCh:
		return true
	default:
		return false
	}
}

// Stop marks the executor as stopped. Operations already running are not
// interrupted, but from then on every Run, Call, RunWorker and RunAll call,
// including nested calls made by running operations, returns ErrStopped
// without starting an operation. The pool itself has no shutdown step.
func (e *Executor) Stop() {
	e.stopped.Do(func() { close(e.stopCh) })
}

// CreateRunningRootOperation creates the artificial root operation (id 0),
// immediately running, used by tools that need to pretend a build is
// ongoing. Precondition: ctx carries no current operation.
func (e *Executor) CreateRunningRootOperation(ctx context.Context, displayName string) (context.Context, error) {
	if _, ok := currentOperationFrom(ctx); ok {
		return ctx, newInvalidStateError("cannot create artificial root: a current operation already exists")
	}

	d := Descriptor{ID: RootOperationID, DisplayName: displayName}
	s := newState(d, e.clock.Now())
	s.setRunning(true)

	return withCurrentOperation(ctx, s), nil
}

// Run executes op synchronously on the calling goroutine.
func (e *Executor) Run(ctx context.Context, op RunnableOperation) error {
	_, err := e.execute(ctx, op.Description(), runnableFunc{op: op})
	return err
}

// Call executes op synchronously on the calling goroutine and returns its
// result. It is a free function, not a method, because Go methods cannot
// carry their own type parameters.
func Call[T any](ctx context.Context, e *Executor, op CallableOperation[T]) (T, error) {
	result, err := e.execute(ctx, op.Description(), callableFunc[T]{op: op})
	typed, _ := result.(T)
	return typed, err
}

// RunWorker executes an arbitrary Worker strategy as a build operation
// described by builder, the pluggable-adapter escape hatch for callers whose
// work isn't authored against RunnableOperation or CallableOperation.
func (e *Executor) RunWorker(ctx context.Context, builder *DescriptorBuilder, w Worker) (any, error) {
	return e.execute(ctx, builder, w)
}

// execute is the shared twelve-step envelope behind Run, Call, RunWorker,
// and RunAll's own wrapper operation (queue jobs get it only when they call
// Run, Call or RunWorker themselves): resolve parent, mint a descriptor,
// verify the parent is still running, notify started, invoke the body,
// re-verify the parent, notify finished, then rethrow.
func (e *Executor) execute(ctx context.Context, builder *DescriptorBuilder, w Worker) (result any, rethrow error) {
	if e.isStopped() {
		return nil, ErrStopped
	}

	ctx, parentID, parentState, closeUnmanaged, err := e.resolveParent(ctx)
	if err != nil {
		return nil, err
	}

	// Step 2-4: mint id, build descriptor, check parent still running.
	descriptor := builder.build(&e.gen, parentID)
	if parentState != nil && !parentState.Running() {
		return nil, &ParentNotRunningError{
			ChildDisplayName:  descriptor.DisplayName,
			ParentDisplayName: parentState.Descriptor().DisplayName,
		}
	}

	start := e.clock.Now()
	state := newState(descriptor, start)

	// Step 5: mark running, swap into the current-operation slot.
	state.setRunning(true)
	childCtx := withCurrentOperation(ctx, state)

	// Step 6: emit started.
	e.metrics.Counter("buildops_operations_started_total").Add(1)
	e.metrics.UpDownCounter("buildops_operations_in_flight").Add(1)
	e.listener.Started(descriptor, StartEvent{StartTime: start})

	// Step 7: open progress-logger scope, if named.
	var scope ProgressScope
	if descriptor.ProgressDisplayName != "" {
		scope = e.progressLogger.Open(descriptor)
	}

	// Step 8-9: invoke the body, capturing any failure.
	opCtx := &Context{}
	failure := e.invoke(childCtx, w, opCtx)

	// Step 10: close progress logger, re-check parent still running.
	if scope != nil {
		scope.Close()
	}
	end := e.clock.Now()

	if parentState != nil && !parentState.Running() {
		earlyErr := &ParentCompletedEarlyError{
			ChildDisplayName:  descriptor.DisplayName,
			ParentDisplayName: parentState.Descriptor().DisplayName,
		}
		// The body may already have failed on its own; join rather than
		// overwrite so the original cause survives in both the finished
		// event and the rethrow.
		if failure != nil {
			failure = errors.Join(failure, earlyErr)
		} else {
			failure = earlyErr
		}
		opCtx.Failed(failure)
	}

	// Step 11: emit finished, always, before rethrow.
	resultValue, _ := opCtx.Result()
	e.listener.Finished(descriptor, FinishEvent{
		StartTime: start,
		EndTime:   end,
		Failure:   opCtx.Failure(),
		Result:    resultValue,
	})

	e.metrics.Counter("buildops_operations_finished_total").Add(1)
	e.metrics.UpDownCounter("buildops_operations_in_flight").Add(-1)
	e.metrics.Histogram("buildops_operation_duration_seconds").Record(end.Sub(start).Seconds())
	if opCtx.Failure() != nil {
		e.metrics.Counter("buildops_operations_failed_total").Add(1)
	}

	// Step 12: restore slot (implicit: childCtx is not propagated to the
	// caller), clear running, rethrow.
	state.setRunning(false)

	// This call fabricated the unmanaged parent it is itself nested under;
	// it is now returning to the executor entry point with no further
	// nested operation, so the unmanaged parent closes here.
	if closeUnmanaged != nil {
		closeUnmanaged()
	}

	if failure != nil {
		return resultValue, failure
	}
	return resultValue, opCtx.Failure()
}

// invoke runs the worker body, recovering a panic into a failure the same
// way a thrown exception would be captured in languages with exceptions.
func (e *Executor) invoke(ctx context.Context, w Worker, opCtx *Context) (failure error) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s: operation panicked: %v", Namespace, r)
			opCtx.Failed(err)
			failure = err
			e.logger.Error("operation panicked", zap.Any("recovered", r))
		}
	}()

	if err := w.Execute(ctx, opCtx); err != nil {
		opCtx.Failed(err)
		return err
	}
	return nil
}

// resolveParent implements envelope step 1: it resolves the default parent
// (the context's current operation) or fabricates a synthetic unmanaged
// parent when ctx carries neither a current operation nor the managed
// marker set by RunAll's dispatch. It returns the (possibly updated) ctx,
// the resolved parent id and state (nil, nil if this is a top-level
// operation with no parent), and a closer to invoke once this same envelope
// call returns, if it fabricated an unmanaged parent.
func (e *Executor) resolveParent(
	ctx context.Context,
) (context.Context, *OperationID, *State, func(), error) {
	if state, ok := currentOperationFrom(ctx); ok {
		id := state.Descriptor().ID
		return ctx, &id, state, nil, nil
	}

	if isManaged(ctx) {
		// Reachable from a RunAll dispatch with no parent captured; treat
		// as a top-level operation with no parent.
		return ctx, nil, nil, nil, nil
	}

	return e.fabricateUnmanagedParent(ctx)
}

func (e *Executor) fabricateUnmanagedParent(
	ctx context.Context,
) (context.Context, *OperationID, *State, func(), error) {
	id := e.gen.nextUnmanagedID()
	start := e.clock.Now()
	d := Descriptor{
		ID:          id,
		DisplayName: fmt.Sprintf("Unmanaged thread operation #%d (goroutine)", -int64(id)),
	}
	s := newUnmanagedState(d, start)
	s.setRunning(true)

	e.logger.Debug("fabricated unmanaged thread parent", operationFields(d)...)
	e.listener.Started(d, StartEvent{StartTime: start})

	closeUnmanaged := func() {
		end := e.clock.Now()
		e.listener.Finished(d, FinishEvent{StartTime: start, EndTime: end})
		s.setRunning(false)
	}

	ctx = withCurrentOperation(ctx, s)
	return ctx, &id, s, closeUnmanaged, nil
}
