// Package bulk implements the async bulk executor: a fixed-size worker pool
// that runs long-running container-wide operations (RemoveIf,
// TransformValues, RemoveDuplicates, MoveTo) off the caller's goroutine,
// returning a Future the caller can wait on or cancel. Grounded on the
// teacher's channel-dispatched event Broker and ticker-driven worker loop,
// adapted here to a classic bounded worker pool since bulk jobs are
// request/response rather than publish/subscribe.
package bulk

import (
	"context"
	"sync"

	"github.com/cuemby/pcontainers/pkg/pcerrors"
	"github.com/cuemby/pcontainers/pkg/plog"
)

type job struct {
	ctx context.Context
	fn  func(ctx context.Context) (any, error)
	fut *Future
}

// Executor runs submitted jobs on a fixed pool of worker goroutines.
type Executor struct {
	jobs   chan job
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewExecutor starts an Executor with the given number of workers (at least
// 1).
func NewExecutor(workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	e := &Executor{
		jobs:   make(chan job, workers*4),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.run()
	}
	return e
}

func (e *Executor) run() {
	defer e.wg.Done()
	for {
		select {
		case j, ok := <-e.jobs:
			if !ok {
				return
			}
			tasksQueued.Dec()
			tasksInFlight.Inc()
			result, err := j.fn(j.ctx)
			tasksInFlight.Dec()
			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			tasksCompletedTotal.WithLabelValues(outcome).Inc()
			j.fut.finish(result, err)
		case <-e.stopCh:
			return
		}
	}
}

// submit enqueues fn and returns its Future. If the Executor is already
// closed, fn never runs and the Future finishes immediately with
// pcerrors.ErrCancelled.
func (e *Executor) submit(fn func(ctx context.Context) (any, error)) *Future {
	fut, ctx := newFuture()
	select {
	case <-e.stopCh:
		fut.finish(nil, pcerrors.ErrCancelled)
		return fut
	default:
	}
	tasksQueued.Inc()
	select {
	case e.jobs <- job{ctx: ctx, fn: fn, fut: fut}:
	case <-e.stopCh:
		tasksQueued.Dec()
		fut.finish(nil, pcerrors.ErrCancelled)
	}
	return fut
}

// Close stops accepting new work and waits for every worker goroutine to
// exit. Jobs already queued when Close is called may or may not run to
// completion; a submit made after Close has been called gets a Future that
// finishes with pcerrors.ErrCancelled instead.
func (e *Executor) Close() {
	close(e.stopCh)
	e.wg.Wait()
	plog.WithComponent("bulk").Debug().Msg("executor closed")
}
