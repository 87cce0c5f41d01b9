package buildops

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	mu       sync.Mutex
	started  []Descriptor
	finished []Descriptor
	events   []FinishEvent
}

func (r *recordingListener) Started(d Descriptor, _ StartEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, d)
}

func (r *recordingListener) Finished(d Descriptor, e FinishEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, d)
	r.events = append(r.events, e)
}

type fakeOp struct {
	name   string
	opType OperationType
	run    func(ctx context.Context, opCtx *Context) error
}

func (f fakeOp) Description() *DescriptorBuilder {
	return NewDescriptorBuilder(f.name).OfType(f.opType)
}
func (f fakeOp) Run(ctx context.Context, opCtx *Context) error {
	return f.run(ctx, opCtx)
}

type fakeCallable struct {
	name string
	call func(ctx context.Context, opCtx *Context) (string, error)
}

func (f fakeCallable) Description() *DescriptorBuilder { return NewDescriptorBuilder(f.name) }
func (f fakeCallable) Call(ctx context.Context, opCtx *Context) (string, error) {
	return f.call(ctx, opCtx)
}

func TestExecutor_Run_Success(t *testing.T) {
	l := &recordingListener{}
	e := NewExecutor(Config{}, WithListener(l))

	err := e.Run(context.Background(), fakeOp{name: "compile", run: func(ctx context.Context, opCtx *Context) error {
		return nil
	}})

	require.NoError(t, err)
	require.Len(t, l.started, 1)
	require.Len(t, l.finished, 1)
	require.Equal(t, "compile", l.started[0].DisplayName)
	require.NoError(t, l.events[0].Failure)
}

func TestExecutor_Run_Failure(t *testing.T) {
	l := &recordingListener{}
	e := NewExecutor(Config{}, WithListener(l))

	boom := errors.New("boom")
	err := e.Run(context.Background(), fakeOp{name: "compile", run: func(ctx context.Context, opCtx *Context) error {
		return boom
	}})

	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, l.events[0].Failure, boom)
}

func TestExecutor_Run_PanicRecovered(t *testing.T) {
	e := NewExecutor(Config{})

	err := e.Run(context.Background(), fakeOp{name: "compile", run: func(ctx context.Context, opCtx *Context) error {
		panic("kaboom")
	}})

	require.Error(t, err)
	require.Contains(t, err.Error(), "kaboom")
}

func TestCall_ReturnsResult(t *testing.T) {
	e := NewExecutor(Config{})

	result, err := Call[string](context.Background(), e, fakeCallable{
		name: "fetch",
		call: func(ctx context.Context, opCtx *Context) (string, error) {
			return "value", nil
		},
	})

	require.NoError(t, err)
	require.Equal(t, "value", result)
}

func TestExecutor_NestedRun_ParentChildLineage(t *testing.T) {
	l := &recordingListener{}
	e := NewExecutor(Config{}, WithListener(l))

	err := e.Run(context.Background(), fakeOp{name: "parent", run: func(ctx context.Context, opCtx *Context) error {
		return e.Run(ctx, fakeOp{name: "child", run: func(ctx context.Context, opCtx *Context) error {
			return nil
		}})
	}})

	require.NoError(t, err)
	require.Len(t, l.started, 2)

	parentDesc := l.started[0]
	childDesc := l.started[1]
	require.Nil(t, parentDesc.ParentID)
	require.NotNil(t, childDesc.ParentID)
	require.Equal(t, parentDesc.ID, *childDesc.ParentID)
}

func TestExecutor_UnmanagedThreadParentFabricated(t *testing.T) {
	l := &recordingListener{}
	e := NewExecutor(Config{}, WithListener(l))

	err := e.Run(context.Background(), fakeOp{name: "reentrant", run: func(ctx context.Context, opCtx *Context) error {
		return nil
	}})
	require.NoError(t, err)

	// Two started events: the fabricated unmanaged parent, then the op itself.
	require.Len(t, l.started, 2)
	require.True(t, l.started[0].ID < 0)
	require.Equal(t, l.started[0].ID, *l.started[1].ParentID)

	// Both finished, unmanaged parent last.
	require.Len(t, l.finished, 2)
	require.Equal(t, l.started[1].ID, l.finished[0].ID)
	require.Equal(t, l.started[0].ID, l.finished[1].ID)
}

func TestExecutor_ParentNotRunning(t *testing.T) {
	e := NewExecutor(Config{})

	d := Descriptor{ID: 1, DisplayName: "parent"}
	parentState := newState(d, time.Now())
	// parentState left not running.
	ctx := withCurrentOperation(context.Background(), parentState)

	err := e.Run(ctx, fakeOp{name: "child", run: func(ctx context.Context, opCtx *Context) error {
		return nil
	}})

	var notRunning *ParentNotRunningError
	require.ErrorAs(t, err, &notRunning)
}

func TestExecutor_ParentCompletedEarly_PreservesOriginalFailure(t *testing.T) {
	e := NewExecutor(Config{})

	d := Descriptor{ID: 1, DisplayName: "parent"}
	parentState := newState(d, time.Now())
	parentState.setRunning(true)
	ctx := withCurrentOperation(context.Background(), parentState)

	boom := errors.New("boom")
	err := e.Run(ctx, fakeOp{name: "child", run: func(ctx context.Context, opCtx *Context) error {
		// Simulate the parent completing while this body is still running.
		parentState.setRunning(false)
		return boom
	}})

	require.ErrorIs(t, err, boom)

	var early *ParentCompletedEarlyError
	require.ErrorAs(t, err, &early)
}

func TestExecutor_Stop_RejectsNewOperations(t *testing.T) {
	e := NewExecutor(Config{})
	e.Stop()

	err := e.Run(context.Background(), fakeOp{name: "compile", run: func(ctx context.Context, opCtx *Context) error {
		return nil
	}})

	require.ErrorIs(t, err, ErrStopped)
}

func TestExecutor_CreateRunningRootOperation(t *testing.T) {
	e := NewExecutor(Config{})

	ctx, err := e.CreateRunningRootOperation(context.Background(), "build")
	require.NoError(t, err)

	state, err := GetCurrentOperation(ctx)
	require.NoError(t, err)
	require.Equal(t, RootOperationID, state.Descriptor().ID)
	require.True(t, state.Running())
}

func TestExecutor_CreateRunningRootOperation_FailsIfAlreadyNested(t *testing.T) {
	e := NewExecutor(Config{})

	ctx, err := e.CreateRunningRootOperation(context.Background(), "build")
	require.NoError(t, err)

	_, err = e.CreateRunningRootOperation(ctx, "build again")
	require.Error(t, err)
}
