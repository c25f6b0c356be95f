package cooked

import (
	"context"

	"github.com/cuemby/pcontainers/pkg/kv"
)

// Iterator is a lazy, decoding cursor over a Dict or Queue. Call Next until
// it returns false, then check Err for a decode failure; always Close when
// done.
type Iterator[K any, V any] struct {
	raw *kv.Iterator
	d   *Dict[K, V]

	key K
	val V
	err error
}

// Keys returns a lazy iterator over keys in raw key order.
func (d *Dict[K, V]) Keys(ctx context.Context, reverse bool) (*Iterator[K, V], error) {
	raw, err := d.raw.Keys(ctx, reverse)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{raw: raw, d: d}, nil
}

// Values returns a lazy iterator over values in raw key order.
func (d *Dict[K, V]) Values(ctx context.Context, reverse bool) (*Iterator[K, V], error) {
	raw, err := d.raw.Values(ctx, reverse)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{raw: raw, d: d}, nil
}

// Items returns a lazy iterator over (K, V) pairs in raw key order.
func (d *Dict[K, V]) Items(ctx context.Context, reverse bool) (*Iterator[K, V], error) {
	raw, err := d.raw.Items(ctx, reverse)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{raw: raw, d: d}, nil
}

// Next advances the iterator, decoding the next key and value. It returns
// false once exhausted or on the first decode error (check Err).
func (it *Iterator[K, V]) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.raw.Next() {
		return false
	}
	k, err := it.d.decodeKey(it.raw.Key())
	if err != nil {
		it.err = err
		return false
	}
	v, err := it.d.decodeVal(it.raw.Value())
	if err != nil {
		it.err = err
		return false
	}
	it.key, it.val = k, v
	return true
}

// Key returns the current decoded key.
func (it *Iterator[K, V]) Key() K { return it.key }

// Value returns the current decoded value.
func (it *Iterator[K, V]) Value() V { return it.val }

// Err returns the first decode error encountered, if any.
func (it *Iterator[K, V]) Err() error { return it.err }

// Close releases the iterator's pinned read transaction.
func (it *Iterator[K, V]) Close() error { return it.raw.Close() }

// QueueIterator is a lazy, decoding cursor over a Queue.
type QueueIterator[V any] struct {
	raw *kv.Iterator
	q   *Queue[V]

	val V
	err error
}

// Values returns a lazy iterator over queued values: forward is enqueue
// (FIFO) order, reverse is LIFO order.
func (q *Queue[V]) Values(ctx context.Context, reverse bool) (*QueueIterator[V], error) {
	raw, err := q.raw.Values(ctx, reverse)
	if err != nil {
		return nil, err
	}
	return &QueueIterator[V]{raw: raw, q: q}, nil
}

// Next advances the iterator, decoding the next value.
func (it *QueueIterator[V]) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.raw.Next() {
		return false
	}
	v, err := it.q.decode(it.raw.Value())
	if err != nil {
		it.err = err
		return false
	}
	it.val = v
	return true
}

// Value returns the current decoded value.
func (it *QueueIterator[V]) Value() V { return it.val }

// Err returns the first decode error encountered, if any.
func (it *QueueIterator[V]) Err() error { return it.err }

// Close releases the iterator's pinned read transaction.
func (it *QueueIterator[V]) Close() error { return it.raw.Close() }
