package env

import (
	"context"
	"errors"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// ReadTxn is a snapshot of the Environment opened for reading. Never blocks
// on writers and is never blocked by them. Scoped to the call that created
// it: do not share a ReadTxn across goroutines or retain it past the
// operation or iterator it backs.
type ReadTxn struct {
	env *Environment
	tx  *bbolt.Tx
}

// WriteTxn is either the single live write transaction on an Environment
// (depth 0) or a nested scope folded into it (depth > 0). Nesting is
// emulated on top of bbolt, which allows only one real *bbolt.Tx writer at a
// time: a nested WriteTxn mutates the same underlying transaction directly
// but records an undo log so that aborting the nested scope reverts only
// its own writes, leaving the parent's prior writes intact.
type WriteTxn struct {
	env    *Environment
	tx     *bbolt.Tx // non-nil only at depth 0
	parent *WriteTxn
	depth  int
	undo   []undoOp
	done   bool
}

type undoOp struct {
	bucket   string
	key      []byte
	hadValue bool
	prevVal  []byte
}

// BeginRead starts a read transaction. Fails with pcerrors.ErrReadersFull if
// the Environment's MaxReaders option is set and already saturated.
func BeginRead(e *Environment) (*ReadTxn, error) {
	if err := e.checkUsable(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.opts.MaxReaders > 0 && e.readCount >= e.opts.MaxReaders {
		e.mu.Unlock()
		return nil, pcerrors.ErrReadersFull
	}
	e.readCount++
	e.mu.Unlock()

	tx, err := e.db.Begin(false)
	if err != nil {
		e.mu.Lock()
		e.readCount--
		e.mu.Unlock()
		return nil, translateErr(e, err)
	}
	return &ReadTxn{env: e, tx: tx}, nil
}

// Commit ends a ReadTxn. Read transactions are always "committed" (never
// abort anything); Commit and Abort are both just Close for symmetry with
// WriteTxn.
func (r *ReadTxn) Commit() error { return r.Close() }

// Abort ends a ReadTxn, identical to Commit/Close: reads never mutate state.
func (r *ReadTxn) Abort() error { return r.Close() }

// Close releases the read transaction's snapshot.
func (r *ReadTxn) Close() error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Rollback()
	r.tx = nil
	r.env.mu.Lock()
	r.env.readCount--
	r.env.mu.Unlock()
	return err
}

// Bucket returns the named bucket within this read transaction, or nil if
// it does not exist.
func (r *ReadTxn) Bucket(name []byte) *bbolt.Bucket { return r.tx.Bucket(name) }

type writeTxnKey struct{ env *Environment }

// BeginWrite acquires a write transaction on e. If ctx already carries a
// live WriteTxn for e (because the caller is inside an outer WriteBatch or
// a nested container operation), the returned WriteTxn is a nested scope
// folded into that transaction instead of a new independent one -- per the
// spec, write transactions on the same environment "nest only if the caller
// already holds a write transaction on the same environment" in the current
// logical scope, which this package tracks via ctx rather than OS-thread
// identity (Go has no portable thread-affinity primitive; ctx-scoping is
// the idiomatic substitute).
func BeginWrite(ctx context.Context, e *Environment) (*WriteTxn, context.Context, error) {
	if err := e.checkUsable(); err != nil {
		return nil, ctx, err
	}
	if e.opts.ReadOnly {
		return nil, ctx, pcerrors.ErrAccess
	}

	if parent, ok := ctx.Value(writeTxnKey{env: e}).(*WriteTxn); ok && !parent.done {
		child := &WriteTxn{env: e, parent: parent, depth: parent.depth + 1}
		return child, context.WithValue(ctx, writeTxnKey{env: e}, child), nil
	}

	e.writeMu.Lock()
	tx, err := e.db.Begin(true)
	if err != nil {
		e.writeMu.Unlock()
		return nil, ctx, translateErr(e, err)
	}
	w := &WriteTxn{env: e, tx: tx, depth: 0}
	return w, context.WithValue(ctx, writeTxnKey{env: e}, w), nil
}

// boltTx returns the real *bbolt.Tx backing this WriteTxn, walking up to the
// depth-0 ancestor if necessary.
func (w *WriteTxn) boltTx() *bbolt.Tx {
	t := w
	for t.tx == nil {
		t = t.parent
	}
	return t.tx
}

// Bucket returns the named bucket, creating it if absent.
func (w *WriteTxn) Bucket(name []byte) (*bbolt.Bucket, error) {
	b, err := w.boltTx().CreateBucketIfNotExists(name)
	if err != nil {
		return nil, translateErr(w.env, err)
	}
	return b, nil
}

// recordUndo saves the pre-mutation state of key in bucket so a nested
// abort can restore it. No-op at depth 0, since a full Rollback handles it.
func (w *WriteTxn) recordUndo(bucket string, b *bbolt.Bucket, key []byte) {
	if w.depth == 0 {
		return
	}
	prev := b.Get(key)
	op := undoOp{bucket: bucket, key: append([]byte(nil), key...)}
	if prev != nil {
		op.hadValue = true
		op.prevVal = append([]byte(nil), prev...)
	}
	w.undo = append(w.undo, op)
}

// Put writes key/value into the named bucket through this transaction,
// recording undo state if this is a nested scope.
func (w *WriteTxn) Put(bucketName string, key, value []byte) error {
	b, err := w.Bucket([]byte(bucketName))
	if err != nil {
		return err
	}
	w.recordUndo(bucketName, b, key)
	if err := b.Put(key, value); err != nil {
		return translateErr(w.env, err)
	}
	return nil
}

// Delete removes key from the named bucket through this transaction.
func (w *WriteTxn) Delete(bucketName string, key []byte) error {
	b, err := w.Bucket([]byte(bucketName))
	if err != nil {
		return err
	}
	w.recordUndo(bucketName, b, key)
	if err := b.Delete(key); err != nil {
		return translateErr(w.env, err)
	}
	return nil
}

// Commit ends the transaction. At depth 0 this commits the real bbolt
// transaction and releases the writer lock. At depth > 0 it simply folds
// the nested scope's writes into the parent: the mutations already landed on
// the shared real transaction, and the scope's undo log is handed to a
// nested parent so that aborting the parent still reverts them.
func (w *WriteTxn) Commit() error {
	if w.done {
		return pcerrors.ErrBadTransaction
	}
	w.done = true
	if w.parent != nil && w.parent.depth > 0 {
		w.parent.undo = append(w.parent.undo, w.undo...)
	}
	w.undo = nil
	if w.depth > 0 {
		return nil
	}
	err := w.tx.Commit()
	w.env.writeMu.Unlock()
	return translateErr(w.env, err)
}

// Abort ends the transaction. At depth 0 the real bbolt transaction is
// rolled back wholesale. At depth > 0, only this scope's writes are
// reverted by replaying its undo log in reverse against the shared real
// transaction; the parent's prior state survives.
func (w *WriteTxn) Abort() error {
	if w.done {
		return pcerrors.ErrBadTransaction
	}
	w.done = true
	if w.depth == 0 {
		err := w.tx.Rollback()
		w.env.writeMu.Unlock()
		return translateErr(w.env, err)
	}

	tx := w.boltTx()
	for i := len(w.undo) - 1; i >= 0; i-- {
		op := w.undo[i]
		b, err := tx.CreateBucketIfNotExists([]byte(op.bucket))
		if err != nil {
			return translateErr(w.env, err)
		}
		if op.hadValue {
			if err := b.Put(op.key, op.prevVal); err != nil {
				return translateErr(w.env, err)
			}
		} else {
			if err := b.Delete(op.key); err != nil {
				return translateErr(w.env, err)
			}
		}
	}
	w.undo = nil
	return nil
}

// Finish commits on success (err == nil) or aborts and returns err
// unchanged. The standard scoped-operation idiom: every container method
// calls Finish in a defer-free tail position after its cursor work.
func (w *WriteTxn) Finish(err error) error {
	if err != nil {
		if abortErr := w.Abort(); abortErr != nil && !errors.Is(abortErr, pcerrors.ErrBadTransaction) {
			return fmt.Errorf("%w (during abort after: %v)", abortErr, err)
		}
		return err
	}
	return w.Commit()
}

func translateErr(e *Environment, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return fmt.Errorf("%w: %v", pcerrors.ErrNotInitialized, err)
	case errors.Is(err, bbolt.ErrDatabaseOpen):
		return fmt.Errorf("%w: %v", pcerrors.ErrInvalid, err)
	case errors.Is(err, bbolt.ErrInvalid):
		return fmt.Errorf("%w: %v", pcerrors.ErrInvalid, err)
	case errors.Is(err, bbolt.ErrChecksum), errors.Is(err, bbolt.ErrVersionMismatch):
		e.MarkUnusable(err)
		return fmt.Errorf("%w: %v", pcerrors.ErrCorrupted, err)
	case errors.Is(err, bbolt.ErrTxNotWritable), errors.Is(err, bbolt.ErrTxClosed):
		return fmt.Errorf("%w: %v", pcerrors.ErrBadTransaction, err)
	case errors.Is(err, bbolt.ErrBucketNotFound):
		return fmt.Errorf("%w: %v", pcerrors.ErrBadDbi, err)
	case errors.Is(err, bbolt.ErrKeyRequired):
		return fmt.Errorf("%w: %v", pcerrors.ErrEmptyKey, err)
	case errors.Is(err, bbolt.ErrKeyTooLarge), errors.Is(err, bbolt.ErrValueTooLarge):
		return fmt.Errorf("%w: %v", pcerrors.ErrBadValSize, err)
	default:
		return err
	}
}

// WriteBatch opens a single write transaction scoped to fn: fn may run an
// ordered sequence of raw-container mutations, all visible to each other,
// and the whole batch commits on fn's clean return or aborts on any error
// fn returns. A WriteBatch called while ctx already carries a write
// transaction on e joins that outer transaction instead of starting a new
// one, per spec.
func WriteBatch(ctx context.Context, e *Environment, fn func(ctx context.Context) error) error {
	w, ctx, err := BeginWrite(ctx, e)
	if err != nil {
		return err
	}
	return w.Finish(fn(ctx))
}

// TxnFromContext retrieves the in-scope WriteTxn for e, if any.
func TxnFromContext(ctx context.Context, e *Environment) (*WriteTxn, bool) {
	w, ok := ctx.Value(writeTxnKey{env: e}).(*WriteTxn)
	return w, ok && !w.done
}
