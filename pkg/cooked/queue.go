package cooked

import (
	"context"
	"fmt"

	"github.com/cuemby/pcontainers/pkg/chain"
	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/kv"
)

// Queue is a typed FIFO of V, backed by a RawQueue and a value transform
// chain.
type Queue[V any] struct {
	raw      *kv.RawQueue
	valChain *chain.Chain
}

// NewQueue opens name as a Queue inside e. A nil valChain defaults to the
// identity chain.
func NewQueue[V any](e *env.Environment, name string, valChain *chain.Chain) (*Queue[V], error) {
	raw, err := kv.NewRawQueue(e, name)
	if err != nil {
		return nil, err
	}
	if valChain == nil {
		valChain = chain.Identity()
	}
	return &Queue[V]{raw: raw, valChain: valChain}, nil
}

// Env returns the parent Environment.
func (q *Queue[V]) Env() *env.Environment { return q.raw.Env() }

func (q *Queue[V]) encode(v V) ([]byte, error) {
	b, err := q.valChain.Forward(any(v))
	if err != nil {
		return nil, fmt.Errorf("pcontainers: encode value: %w", err)
	}
	return b, nil
}

func (q *Queue[V]) decode(b []byte) (V, error) {
	var out V
	if err := decodeInto(q.valChain, b, &out); err != nil {
		return out, fmt.Errorf("pcontainers: decode value: %w", err)
	}
	return out, nil
}

// Push appends V to the tail of the queue.
func (q *Queue[V]) Push(ctx context.Context, v V) error {
	rv, err := q.encode(v)
	if err != nil {
		return err
	}
	return q.raw.Push(ctx, rv)
}

// PopFront removes and returns the value at the head of the queue. Fails
// with pcerrors.ErrEmptyDatabase if the queue is empty.
func (q *Queue[V]) PopFront(ctx context.Context) (V, error) {
	var zero V
	rv, err := q.raw.PopFront(ctx)
	if err != nil {
		return zero, err
	}
	return q.decode(rv)
}

// PeekFront returns the value at the head of the queue without removing it.
func (q *Queue[V]) PeekFront(ctx context.Context) (V, error) {
	var zero V
	rv, err := q.raw.PeekFront(ctx)
	if err != nil {
		return zero, err
	}
	return q.decode(rv)
}

// PeekBack returns the value at the tail of the queue without removing it.
func (q *Queue[V]) PeekBack(ctx context.Context) (V, error) {
	var zero V
	rv, err := q.raw.PeekBack(ctx)
	if err != nil {
		return zero, err
	}
	return q.decode(rv)
}

// Len returns the number of queued entries.
func (q *Queue[V]) Len(ctx context.Context) (int, error) { return q.raw.Len(ctx) }
