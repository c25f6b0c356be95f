package kv

import (
	"context"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/env"
)

// withReadBucket resolves bucketName for a read, preferring the in-scope
// WriteTxn stashed in ctx (so a read issued inside a WriteBatch observes
// that batch's own tentative writes) and otherwise falling back to a fresh
// ReadTxn. Using the write txn's bucket also avoids opening a second,
// concurrent bbolt transaction from the same goroutine that already holds
// one open for writing.
func withReadBucket(ctx context.Context, dbEnv *env.Environment, bucketName []byte, fn func(b *bbolt.Bucket) error) error {
	if w, ok := env.TxnFromContext(ctx, dbEnv); ok {
		b, err := w.Bucket(bucketName)
		if err != nil {
			return err
		}
		return fn(b)
	}

	rtxn, err := env.BeginRead(dbEnv)
	if err != nil {
		return err
	}
	defer rtxn.Close()
	return fn(rtxn.Bucket(bucketName))
}
