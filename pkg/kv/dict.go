// Package kv implements the raw container layer: RawDict, an ordered
// bytes->bytes mapping, and RawQueue, a FIFO of bytes, both views over a
// Named Database Handle from pkg/env. Every operation borrows a
// transaction from pkg/env, runs cursor work, and commits or aborts.
package kv

import (
	"bytes"
	"context"
	"crypto/sha256"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// RawDict is an ordered mapping of non-empty byte-string keys to
// byte-string values (empty values are permitted; empty keys are
// rejected before any storage access).
type RawDict struct {
	db *env.Database
}

// NewRawDict opens name as a RawDict inside e.
func NewRawDict(e *env.Environment, name string) (*RawDict, error) {
	db, err := env.OpenDatabase(e, name)
	if err != nil {
		return nil, err
	}
	return &RawDict{db: db}, nil
}

// Env returns the parent Environment.
func (d *RawDict) Env() *env.Environment { return d.db.Env() }

// Keys returns a lazy forward (or, if reverse, backward) iterator over
// keys. Outside a write scope the iterator pins a snapshot; concurrent
// mutations are invisible. Called inside a WriteBatch on this dict's
// environment, it instead sees that batch's own tentative writes.
func (d *RawDict) Keys(ctx context.Context, reverse bool) (*Iterator, error) {
	return newIterator(ctx, d.Env(), d.db.Name(), reverse)
}

// Values returns a lazy iterator over values in key order.
func (d *RawDict) Values(ctx context.Context, reverse bool) (*Iterator, error) {
	return newIterator(ctx, d.Env(), d.db.Name(), reverse)
}

// Items returns a lazy iterator over (K, V) pairs in key order.
func (d *RawDict) Items(ctx context.Context, reverse bool) (*Iterator, error) {
	return newIterator(ctx, d.Env(), d.db.Name(), reverse)
}

func checkKey(k []byte) error {
	if len(k) == 0 {
		return pcerrors.ErrEmptyKey
	}
	return nil
}

// Get returns the value stored at K.
func (d *RawDict) Get(ctx context.Context, k []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}
	var out []byte
	err := withReadBucket(ctx, d.Env(), d.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return pcerrors.ErrNotFound
		}
		v := b.Get(k)
		if v == nil {
			return pcerrors.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOr returns the value stored at K, or def if K is absent.
func (d *RawDict) GetOr(ctx context.Context, k, def []byte) ([]byte, error) {
	v, err := d.Get(ctx, k)
	if err == pcerrors.ErrNotFound {
		return def, nil
	}
	return v, err
}

// Put stores V at K, overwriting any prior value.
func (d *RawDict) Put(ctx context.Context, k, v []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	return w.Finish(w.Put(d.db.NameString(), k, v))
}

// SetDefault returns the existing value at K if present, otherwise stores
// and returns V.
func (d *RawDict) SetDefault(ctx context.Context, k, v []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return nil, err
	}

	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return nil, w.Finish(err)
	}
	if existing := b.Get(k); existing != nil {
		out := append([]byte(nil), existing...)
		return out, w.Finish(nil)
	}
	if err := w.Put(d.db.NameString(), k, v); err != nil {
		return nil, w.Finish(err)
	}
	return v, w.Finish(nil)
}

// Remove deletes K. Fails with pcerrors.ErrNotFound if K is absent.
func (d *RawDict) Remove(ctx context.Context, k []byte) error {
	if err := checkKey(k); err != nil {
		return err
	}
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return w.Finish(err)
	}
	if b.Get(k) == nil {
		return w.Finish(pcerrors.ErrNotFound)
	}
	return w.Finish(w.Delete(d.db.NameString(), k))
}

// Pop deletes K and returns its prior value.
func (d *RawDict) Pop(ctx context.Context, k []byte) ([]byte, error) {
	if err := checkKey(k); err != nil {
		return nil, err
	}
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return nil, err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return nil, w.Finish(err)
	}
	existing := b.Get(k)
	if existing == nil {
		return nil, w.Finish(pcerrors.ErrNotFound)
	}
	out := append([]byte(nil), existing...)
	return out, w.Finish(w.Delete(d.db.NameString(), k))
}

// PopItem removes and returns the (K, V) pair at the current head of
// ordering. Fails with pcerrors.ErrEmptyDatabase if empty.
func (d *RawDict) PopItem(ctx context.Context) (k, v []byte, err error) {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return nil, nil, err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return nil, nil, w.Finish(err)
	}
	c := b.Cursor()
	fk, fv := c.First()
	if fk == nil {
		return nil, nil, w.Finish(pcerrors.ErrEmptyDatabase)
	}
	k = append([]byte(nil), fk...)
	v = append([]byte(nil), fv...)
	return k, v, w.Finish(w.Delete(d.db.NameString(), fk))
}

// Contains reports whether K is present. An empty key is simply absent.
func (d *RawDict) Contains(ctx context.Context, k []byte) (bool, error) {
	if len(k) == 0 {
		return false, nil
	}
	var found bool
	err := withReadBucket(ctx, d.Env(), d.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return nil
		}
		found = b.Get(k) != nil
		return nil
	})
	return found, err
}

// Len returns the number of entries.
func (d *RawDict) Len(ctx context.Context) (int, error) {
	var n int
	err := withReadBucket(ctx, d.Env(), d.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return nil
		}
		// Count through a cursor rather than b.Stats(): Stats reads only
		// committed pages, so inside a write batch it would miss the
		// batch's own tentative writes.
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes every entry.
func (d *RawDict) Clear(ctx context.Context) error {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return w.Finish(err)
	}
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.First() {
		if err := w.Delete(d.db.NameString(), k); err != nil {
			return w.Finish(err)
		}
		c = b.Cursor()
	}
	return w.Finish(nil)
}

// Erase deletes every key in [from, to): the smallest key >= from through
// the largest key < to. If from > to, or no keys fall in range, Erase
// commits a no-op.
func (d *RawDict) Erase(ctx context.Context, from, to []byte) error {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return w.Finish(err)
	}
	if bytes.Compare(from, to) > 0 {
		return w.Finish(nil)
	}
	c := b.Cursor()
	for k, _ := c.Seek(from); k != nil && bytes.Compare(k, to) < 0; k, _ = c.Seek(from) {
		if err := w.Delete(d.db.NameString(), k); err != nil {
			return w.Finish(err)
		}
		c = b.Cursor()
	}
	return w.Finish(nil)
}

// Pair is a key/value pair returned by the materialized iteration methods.
type Pair struct {
	Key   []byte
	Value []byte
}

// NoIterKeys returns every key, fully materialized and ordered ascending.
func (d *RawDict) NoIterKeys(ctx context.Context) ([][]byte, error) {
	var out [][]byte
	err := d.scan(ctx, func(k, v []byte) error {
		out = append(out, append([]byte(nil), k...))
		return nil
	})
	return out, err
}

// NoIterValues returns every value, ordered by ascending key.
func (d *RawDict) NoIterValues(ctx context.Context) ([][]byte, error) {
	var out [][]byte
	err := d.scan(ctx, func(k, v []byte) error {
		out = append(out, append([]byte(nil), v...))
		return nil
	})
	return out, err
}

// NoIterItems returns every (K, V) pair, ordered by ascending key.
func (d *RawDict) NoIterItems(ctx context.Context) ([]Pair, error) {
	var out []Pair
	err := d.scan(ctx, func(k, v []byte) error {
		out = append(out, Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		return nil
	})
	return out, err
}

func (d *RawDict) scan(ctx context.Context, fn func(k, v []byte) error) error {
	return withReadBucket(ctx, d.Env(), d.db.Name(), func(b *bbolt.Bucket) error {
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update applies every (K, V) pair in pairs. Any individual error aborts
// the whole update, leaving the dict unchanged.
func (d *RawDict) Update(ctx context.Context, pairs []Pair) error {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := checkKey(p.Key); err != nil {
			return w.Finish(err)
		}
		if err := w.Put(d.db.NameString(), p.Key, p.Value); err != nil {
			return w.Finish(err)
		}
	}
	return w.Finish(nil)
}

// RemoveIf deletes every entry for which pred returns true, and returns the
// count removed. A predicate error aborts the whole operation.
func (d *RawDict) RemoveIf(ctx context.Context, pred func(k, v []byte) (bool, error)) (int, error) {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return 0, err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return 0, w.Finish(err)
	}

	var toDelete [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		match, perr := pred(k, v)
		if perr != nil {
			return 0, w.Finish(perr)
		}
		if match {
			toDelete = append(toDelete, append([]byte(nil), k...))
		}
	}
	for _, k := range toDelete {
		if err := w.Delete(d.db.NameString(), k); err != nil {
			return 0, w.Finish(err)
		}
	}
	return len(toDelete), w.Finish(nil)
}

// TransformValues replaces every value V with fn(K, V). If fn errors at any
// entry, the whole transaction aborts and the dict is left unchanged.
func (d *RawDict) TransformValues(ctx context.Context, fn func(k, v []byte) ([]byte, error)) error {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return w.Finish(err)
	}

	type update struct{ k, v []byte }
	var updates []update
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		nv, ferr := fn(k, v)
		if ferr != nil {
			return w.Finish(ferr)
		}
		updates = append(updates, update{k: append([]byte(nil), k...), v: nv})
	}
	for _, u := range updates {
		if err := w.Put(d.db.NameString(), u.k, u.v); err != nil {
			return w.Finish(err)
		}
	}
	return w.Finish(nil)
}

// RemoveDuplicates streams the dict in key order, hashing values, and
// removes every entry whose value fingerprint was already seen. Because
// the stream is key-ascending, the smallest key for each distinct value is
// always the first seen and therefore survives.
func (d *RawDict) RemoveDuplicates(ctx context.Context) error {
	w, ctx, err := env.BeginWrite(ctx, d.Env())
	if err != nil {
		return err
	}
	b, err := w.Bucket(d.db.Name())
	if err != nil {
		return w.Finish(err)
	}

	seen := make(map[[sha256.Size]byte]struct{})
	var toDelete [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		h := sha256.Sum256(v)
		if _, ok := seen[h]; ok {
			toDelete = append(toDelete, append([]byte(nil), k...))
			continue
		}
		seen[h] = struct{}{}
	}
	for _, k := range toDelete {
		if err := w.Delete(d.db.NameString(), k); err != nil {
			return w.Finish(err)
		}
	}
	return w.Finish(nil)
}

// MoveTo drains this dict into other. When both dicts share an
// Environment, the move is atomic: a single write transaction covers the
// whole drain. Otherwise it runs as two transactions (materialize and
// write other, then clear this dict), leaving this dict empty on success.
// On a key collision, other's existing value is overwritten.
func (d *RawDict) MoveTo(ctx context.Context, other *RawDict) error {
	if d.Env() == other.Env() {
		w, ctx, err := env.BeginWrite(ctx, d.Env())
		if err != nil {
			return err
		}
		srcB, err := w.Bucket(d.db.Name())
		if err != nil {
			return w.Finish(err)
		}
		var pairs []Pair
		c := srcB.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			pairs = append(pairs, Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		}
		for _, p := range pairs {
			if err := w.Put(other.db.NameString(), p.Key, p.Value); err != nil {
				return w.Finish(err)
			}
			if err := w.Delete(d.db.NameString(), p.Key); err != nil {
				return w.Finish(err)
			}
		}
		return w.Finish(nil)
	}

	pairs, err := d.NoIterItems(ctx)
	if err != nil {
		return err
	}
	if err := other.Update(ctx, pairs); err != nil {
		return err
	}
	return d.Clear(ctx)
}

// WriteBatch runs fn against a single write transaction covering every raw
// mutation it performs; it commits on fn's clean return or aborts on any
// error fn returns. A WriteBatch opened while ctx already carries an outer
// write transaction on this dict's environment joins that transaction.
func (d *RawDict) WriteBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	return env.WriteBatch(ctx, d.Env(), fn)
}
