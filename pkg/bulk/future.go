package bulk

import (
	"context"
	"sync"
)

// Future is the handle returned by every Submit* call: a pending bulk
// operation that can be waited on, inspected once finished, or cancelled
// cooperatively.
type Future struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result any
	err    error
}

func newFuture() (*Future, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &Future{done: make(chan struct{}), cancel: cancel}, ctx
}

func (f *Future) finish(result any, err error) {
	f.mu.Lock()
	f.result, f.err = result, err
	f.mu.Unlock()
	close(f.done)
}

// Wait blocks until the operation finishes or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result blocks until the operation finishes, then returns its result and
// error. The concrete type of result matches the Submit* call that produced
// this Future (e.g. int for SubmitRemoveIf's removed count).
func (f *Future) Result() (any, error) {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// Cancel requests cooperative cancellation. Operations submitted through
// SubmitRemoveIf and SubmitTransformValues observe it at their next
// per-entry boundary and unwind with pcerrors.ErrCancelled, aborting their
// write transaction so the dict is left unchanged. SubmitRemoveDuplicates
// and SubmitMoveTo do not check for cancellation: once started they run to
// completion or failure regardless of Cancel.
func (f *Future) Cancel() { f.cancel() }
