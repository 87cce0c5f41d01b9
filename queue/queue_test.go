package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/buildops/pool"
)

func newTestQueue(capacity uint) *Queue {
	p := pool.NewFixed(capacity, func() interface{} { return new(struct{}) })
	return New(context.Background(), p, 0)
}

func TestQueue_WaitForCompletion_NoFailures(t *testing.T) {
	q := newTestQueue(4)

	var ran int32
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}

	require.NoError(t, q.WaitForCompletion())
	require.Equal(t, int32(5), atomic.LoadInt32(&ran))
}

func TestQueue_WaitForCompletion_SingleFailure(t *testing.T) {
	q := newTestQueue(2)

	boom := errors.New("boom")
	require.NoError(t, q.Enqueue(func(ctx context.Context) error { return nil }))
	require.NoError(t, q.Enqueue(func(ctx context.Context) error { return boom }))

	err := q.WaitForCompletion()
	require.ErrorIs(t, err, boom)
}

func TestQueue_WaitForCompletion_MultiCause(t *testing.T) {
	q := newTestQueue(4)

	e1 := errors.New("e1")
	e2 := errors.New("e2")
	require.NoError(t, q.Enqueue(func(ctx context.Context) error { return e1 }))
	require.NoError(t, q.Enqueue(func(ctx context.Context) error { return e2 }))

	err := q.WaitForCompletion()
	var mc *MultiCauseError
	require.ErrorAs(t, err, &mc)
	require.Len(t, mc.Causes, 2)
	require.Contains(t, []string{"e1\nAND\ne2", "e2\nAND\ne1"}, mc.Error())
}

func TestQueue_Cancel_DropsNotYetRunningJobs(t *testing.T) {
	q := newTestQueue(1)

	started := make(chan struct{})
	block := make(chan struct{})
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}))

	<-started

	var secondRan int32
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		atomic.AddInt32(&secondRan, 1)
		return nil
	}))

	q.Cancel()
	close(block)

	require.NoError(t, q.WaitForCompletion())
	require.Equal(t, int32(0), atomic.LoadInt32(&secondRan))
}

func TestQueue_Fail_FoldsIntoCombinedFailures(t *testing.T) {
	q := newTestQueue(2)

	require.NoError(t, q.Enqueue(func(ctx context.Context) error { return errors.New("job") }))
	q.Fail(errors.New("population"))

	err := q.WaitForCompletion()
	var mc *MultiCauseError
	require.ErrorAs(t, err, &mc)
	require.Len(t, mc.Causes, 2)
}

func TestQueue_EnqueueAfterCancel_NeverRuns(t *testing.T) {
	q := newTestQueue(2)
	q.Cancel()

	var ran int32
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}))

	require.NoError(t, q.WaitForCompletion())
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestQueue_BufferSize_BoundsConcurrentHandoff(t *testing.T) {
	p := pool.NewFixed(4, func() interface{} { return new(struct{}) })
	q := New(context.Background(), p, 1)

	started := make(chan struct{})
	block := make(chan struct{})
	require.NoError(t, q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-block
		return nil
	}))
	<-started

	enqueued := make(chan struct{})
	go func() {
		require.NoError(t, q.Enqueue(func(ctx context.Context) error { return nil }))
		close(enqueued)
	}()

	select {
	case <-enqueued:
		t.Fatal("second Enqueue returned before the buffer had a free slot")
	case <-time.After(20 * time.Millisecond):
	}

	close(block)

	select {
	case <-enqueued:
	case <-time.After(time.Second):
		t.Fatal("second Enqueue never unblocked after the first job completed")
	}

	require.NoError(t, q.WaitForCompletion())
}
