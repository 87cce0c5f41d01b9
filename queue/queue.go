// Package queue implements the bounded, parallel job dispatcher the executor
// hands runAll callbacks. Jobs are submitted on demand through Enqueue and run
// across a shared worker pool via errgroup.Group, with per-job failures
// collected rather than discarded. An optional buffer size bounds how many
// jobs may be handed off to the pool concurrently, independent of the pool's
// own size.
package queue

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/buildops/pool"
)

// Job is a unit of work submitted to a Queue. The context it receives carries
// the queue's captured default parent operation.
type Job func(ctx context.Context) error

// Queue is a bounded parallel dispatcher. Jobs are executed as soon as a pool
// slot is available, up to the bound enforced by pool. The zero value is not
// usable; construct with New.
type Queue struct {
	ctx  context.Context
	pool pool.Pool

	// handoff gates how many jobs may be queued for a pool slot at once. Nil
	// when the queue was constructed with a zero buffer size, in which case
	// Enqueue never blocks and jobs queue for the pool unbounded.
	handoff chan struct{}

	g errgroup.Group

	mu       sync.Mutex
	failures []error

	cancelled atomic.Bool
}

// New creates a Queue bound to p, running jobs with ctx as their base
// context. bufferSize sets the capacity of the handoff channel Enqueue uses
// to hand jobs to pool workers; zero leaves the handoff unbounded, so Enqueue
// never blocks.
func New(ctx context.Context, p pool.Pool, bufferSize uint) *Queue {
	q := &Queue{ctx: ctx, pool: p}
	if bufferSize > 0 {
		q.handoff = make(chan struct{}, bufferSize)
	}
	return q
}

// Enqueue submits job for execution. If the queue was constructed with a
// nonzero buffer size and that many jobs are already queued for or holding a
// pool slot, Enqueue blocks until one frees up; otherwise it never blocks,
// and job runs on its own goroutine as soon as a pool slot frees up. A job
// submitted after Cancel is dropped without running.
func (q *Queue) Enqueue(job Job) error {
	if q.cancelled.Load() {
		return nil
	}

	if q.handoff != nil {
		q.handoff <- struct{}{}
	}

	q.g.Go(func() error {
		if q.handoff != nil {
			defer func() { <-q.handoff }()
		}

		if q.cancelled.Load() {
			return nil
		}

		worker := q.pool.Get()
		defer q.pool.Put(worker)

		if q.cancelled.Load() {
			return nil
		}

		if err := job(q.ctx); err != nil {
			q.addFailure(err)
		}
		return nil
	})

	return nil
}

// Cancel marks the queue so that jobs not yet holding a pool slot are
// dropped. Jobs already running are left to finish.
func (q *Queue) Cancel() {
	q.cancelled.Store(true)
}

// Fail records an externally observed failure, used by the executor to fold
// a queue-population failure into the same multi-cause accounting as job
// failures.
func (q *Queue) Fail(err error) {
	q.addFailure(err)
}

func (q *Queue) addFailure(err error) {
	q.mu.Lock()
	q.failures = append(q.failures, err)
	q.mu.Unlock()
}

// WaitForCompletion blocks until every submitted job has either completed or
// been dropped. It returns nil if no job failed, the single failure directly
// if exactly one did, or a *MultiCauseError joining every failure's message
// if more than one did.
func (q *Queue) WaitForCompletion() error {
	_ = q.g.Wait() // job goroutines never return an error of their own; failures are collected via addFailure.

	q.mu.Lock()
	failures := append([]error(nil), q.failures...)
	q.mu.Unlock()

	switch len(failures) {
	case 0:
		return nil
	case 1:
		return failures[0]
	default:
		return &MultiCauseError{Causes: failures}
	}
}

// MultiCauseError aggregates two or more job failures accrued by a single
// Queue. Its message joins each cause's message with the literal separator
// "\nAND\n".
type MultiCauseError struct {
	Causes []error
}

func (e *MultiCauseError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return strings.Join(msgs, "\nAND\n")
}

// Unwrap exposes every cause to errors.Is/errors.As.
func (e *MultiCauseError) Unwrap() []error {
	return e.Causes
}
