package bulk

import (
	"context"

	"github.com/cuemby/pcontainers/pkg/kv"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// SubmitRemoveIf runs d.RemoveIf on a worker, checking for cooperative
// cancellation before each predicate call. The Future's Result is the
// (int, error) pair RemoveIf would have returned synchronously.
func SubmitRemoveIf(e *Executor, d *kv.RawDict, pred func(k, v []byte) (bool, error)) *Future {
	return e.submit(func(ctx context.Context) (any, error) {
		return d.RemoveIf(ctx, func(k, v []byte) (bool, error) {
			if ctx.Err() != nil {
				return false, pcerrors.ErrCancelled
			}
			return pred(k, v)
		})
	})
}

// SubmitTransformValues runs d.TransformValues on a worker, checking for
// cooperative cancellation before each call to fn.
func SubmitTransformValues(e *Executor, d *kv.RawDict, fn func(k, v []byte) ([]byte, error)) *Future {
	return e.submit(func(ctx context.Context) (any, error) {
		err := d.TransformValues(ctx, func(k, v []byte) ([]byte, error) {
			if ctx.Err() != nil {
				return nil, pcerrors.ErrCancelled
			}
			return fn(k, v)
		})
		return nil, err
	})
}

// SubmitRemoveDuplicates runs d.RemoveDuplicates on a worker. Deduplication
// has no caller-supplied callback to check cancellation between, so once
// started it runs to completion or failure rather than aborting early on
// Cancel.
func SubmitRemoveDuplicates(e *Executor, d *kv.RawDict) *Future {
	return e.submit(func(ctx context.Context) (any, error) {
		return nil, d.RemoveDuplicates(ctx)
	})
}

// SubmitMoveTo runs d.MoveTo(other) on a worker. Like RemoveDuplicates, the
// drain has no per-entry callback to check cancellation between.
func SubmitMoveTo(e *Executor, d *kv.RawDict, other *kv.RawDict) *Future {
	return e.submit(func(ctx context.Context) (any, error) {
		return nil, d.MoveTo(ctx, other)
	})
}
