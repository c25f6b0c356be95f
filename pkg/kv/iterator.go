package kv

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/env"
)

// Iterator is a lazy, restartable-only-by-recreating cursor over a RawDict
// or RawQueue. Outside any write scope it pins a read transaction for its
// whole lifetime, so it observes a single consistent snapshot: concurrent
// mutations made after the iterator was created are invisible to it.
// Created inside a WriteBatch/write scope, it instead borrows that scope's
// WriteTxn bucket and sees the batch's own tentative writes; it owns no
// transaction of its own in that case, so Close is a no-op. Callers must
// Close the iterator when done (including after exhausting it via Next
// returning false) to release any pinned read transaction.
type Iterator struct {
	rtxn    *env.ReadTxn
	cur     *bbolt.Cursor
	reverse bool
	started bool
	done    bool
	key     []byte
	val     []byte
}

func newIterator(ctx context.Context, dbEnv *env.Environment, bucketName []byte, reverse bool) (*Iterator, error) {
	if w, ok := env.TxnFromContext(ctx, dbEnv); ok {
		b, err := w.Bucket(bucketName)
		if err != nil {
			return nil, err
		}
		return &Iterator{cur: b.Cursor(), reverse: reverse}, nil
	}

	rtxn, err := env.BeginRead(dbEnv)
	if err != nil {
		return nil, err
	}
	b := rtxn.Bucket(bucketName)
	if b == nil {
		return &Iterator{rtxn: rtxn, done: true}, nil
	}
	return &Iterator{rtxn: rtxn, cur: b.Cursor(), reverse: reverse}, nil
}

// Next advances the iterator. It returns false once exhausted.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}

	var k, v []byte
	if !it.started {
		it.started = true
		if it.reverse {
			k, v = it.cur.Last()
		} else {
			k, v = it.cur.First()
		}
	} else {
		if it.reverse {
			k, v = it.cur.Prev()
		} else {
			k, v = it.cur.Next()
		}
	}

	if k == nil {
		it.done = true
		it.key, it.val = nil, nil
		return false
	}
	it.key = append([]byte(nil), k...)
	it.val = append([]byte(nil), v...)
	return true
}

// Key returns the current key.
func (it *Iterator) Key() []byte { return it.key }

// Value returns the current value.
func (it *Iterator) Value() []byte { return it.val }

// Close releases the iterator's pinned read transaction.
func (it *Iterator) Close() error {
	if it.rtxn == nil {
		return nil
	}
	err := it.rtxn.Close()
	it.rtxn = nil
	return err
}
