package kv

import (
	"context"
	"encoding/binary"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// RawQueue is a FIFO whose keys are a monotonically increasing 64-bit
// integer sequence encoded as fixed-width big-endian bytes, so that
// lexicographic byte order equals numeric order and therefore enqueue
// order.
type RawQueue struct {
	db *env.Database
}

// NewRawQueue opens name as a RawQueue inside e.
func NewRawQueue(e *env.Environment, name string) (*RawQueue, error) {
	db, err := env.OpenDatabase(e, name)
	if err != nil {
		return nil, err
	}
	return &RawQueue{db: db}, nil
}

// Env returns the parent Environment.
func (q *RawQueue) Env() *env.Environment { return q.db.Env() }

func encodeSeq(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func decodeSeq(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// Push appends V to the tail of the queue.
func (q *RawQueue) Push(ctx context.Context, v []byte) error {
	w, ctx, err := env.BeginWrite(ctx, q.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(q.db.Name())
	if err != nil {
		return w.Finish(err)
	}
	c := b.Cursor()
	lastKey, _ := c.Last()
	var next uint64
	if lastKey != nil {
		next = decodeSeq(lastKey) + 1
	}
	return w.Finish(w.Put(q.db.NameString(), encodeSeq(next), v))
}

// PopFront removes and returns the value at the head of the queue. Fails
// with pcerrors.ErrEmptyDatabase if the queue is empty.
func (q *RawQueue) PopFront(ctx context.Context) ([]byte, error) {
	w, ctx, err := env.BeginWrite(ctx, q.Env())
	if err != nil {
		return nil, err
	}
	b, err := w.Bucket(q.db.Name())
	if err != nil {
		return nil, w.Finish(err)
	}
	c := b.Cursor()
	k, v := c.First()
	if k == nil {
		return nil, w.Finish(pcerrors.ErrEmptyDatabase)
	}
	out := append([]byte(nil), v...)
	return out, w.Finish(w.Delete(q.db.NameString(), k))
}

// PeekFront returns the value at the head of the queue without removing
// it.
func (q *RawQueue) PeekFront(ctx context.Context) ([]byte, error) {
	var out []byte
	err := withReadBucket(ctx, q.Env(), q.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return pcerrors.ErrEmptyDatabase
		}
		k, v := b.Cursor().First()
		if k == nil {
			return pcerrors.ErrEmptyDatabase
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PeekBack returns the value at the tail of the queue without removing it.
func (q *RawQueue) PeekBack(ctx context.Context) ([]byte, error) {
	var out []byte
	err := withReadBucket(ctx, q.Env(), q.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return pcerrors.ErrEmptyDatabase
		}
		k, v := b.Cursor().Last()
		if k == nil {
			return pcerrors.ErrEmptyDatabase
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Len returns the number of queued entries.
func (q *RawQueue) Len(ctx context.Context) (int, error) {
	var n int
	err := withReadBucket(ctx, q.Env(), q.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return nil
		}
		// Cursor count, not b.Stats(), so pushes inside a write batch are
		// included (see RawDict.Len).
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Values returns a lazy iterator over queued values: forward is enqueue
// (FIFO) order, reverse is LIFO order.
func (q *RawQueue) Values(ctx context.Context, reverse bool) (*Iterator, error) {
	return newIterator(ctx, q.Env(), q.db.Name(), reverse)
}
