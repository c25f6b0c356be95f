// Package cooked implements typed Dict and Queue containers, composing the
// raw byte-string containers of pkg/kv with a pkg/chain transform applied to
// keys and another applied to values. A Dict[K, V] looks and behaves like a
// typed map; underneath, every key and value round-trips through its chain
// on the way to and from the raw bucket.
package cooked

import (
	"context"
	"fmt"
	"reflect"

	"github.com/cuemby/pcontainers/pkg/chain"
	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/kv"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// Dict is a typed ordered mapping from K to V, backed by a RawDict and a
// pair of transform chains.
type Dict[K any, V any] struct {
	raw      *kv.RawDict
	keyChain *chain.Chain
	valChain *chain.Chain
}

// NewDict opens name as a Dict inside e. A nil keyChain or valChain defaults
// to the identity chain, matching the behavior of a raw container.
func NewDict[K any, V any](e *env.Environment, name string, keyChain, valChain *chain.Chain) (*Dict[K, V], error) {
	raw, err := kv.NewRawDict(e, name)
	if err != nil {
		return nil, err
	}
	if keyChain == nil {
		keyChain = chain.Identity()
	}
	if valChain == nil {
		valChain = chain.Identity()
	}
	return &Dict[K, V]{raw: raw, keyChain: keyChain, valChain: valChain}, nil
}

// Env returns the parent Environment.
func (d *Dict[K, V]) Env() *env.Environment { return d.raw.Env() }

// Equal reports whether other applies the same key and value chains, making
// their raw encodings interchangeable.
func (d *Dict[K, V]) Equal(other *Dict[K, V]) bool {
	if other == nil {
		return false
	}
	return d.keyChain.Equal(other.keyChain) && d.valChain.Equal(other.valChain)
}

func (d *Dict[K, V]) encodeKey(k K) ([]byte, error) {
	b, err := d.keyChain.Forward(any(k))
	if err != nil {
		return nil, fmt.Errorf("pcontainers: encode key: %w", err)
	}
	return b, nil
}

func (d *Dict[K, V]) encodeVal(v V) ([]byte, error) {
	b, err := d.valChain.Forward(any(v))
	if err != nil {
		return nil, fmt.Errorf("pcontainers: encode value: %w", err)
	}
	return b, nil
}

func (d *Dict[K, V]) decodeKey(b []byte) (K, error) {
	var out K
	if err := decodeInto(d.keyChain, b, &out); err != nil {
		return out, fmt.Errorf("pcontainers: decode key: %w", err)
	}
	return out, nil
}

func (d *Dict[K, V]) decodeVal(b []byte) (V, error) {
	var out V
	if err := decodeInto(d.valChain, b, &out); err != nil {
		return out, fmt.Errorf("pcontainers: decode value: %w", err)
	}
	return out, nil
}

// decodeInto decodes b through c into out (a pointer to the target type).
// When c's serializer can decode directly into a concrete destination
// (chain.TypedInverter), that path is used so numeric and structured types
// round-trip exactly instead of landing as the generic shape a
// Serializer.Inverse-returned any would produce (e.g. every JSON number
// becoming float64). Otherwise it falls back to Inverse plus a type
// assertion, which is exact for the identity chain (T must be []byte) and
// for any Serializer that returns values already shaped like T.
func decodeInto(c *chain.Chain, b []byte, out any) error {
	if c.IsIdentity() {
		payload, err := c.InverseBytes(b)
		if err != nil {
			return err
		}
		ptr, ok := out.(*[]byte)
		if !ok {
			return fmt.Errorf("pcontainers: identity chain requires a []byte-typed container, got %T", out)
		}
		*ptr = payload
		return nil
	}
	if ti, ok := c.Serializer.(chain.TypedInverter); ok {
		payload, err := c.InverseBytes(b)
		if err != nil {
			return err
		}
		return ti.InverseInto(payload, out)
	}
	raw, err := c.Inverse(b)
	if err != nil {
		return err
	}
	return assignAny(raw, out)
}

func assignAny(raw any, out any) error {
	if ptr, ok := out.(*any); ok {
		*ptr = raw
		return nil
	}
	dst := reflect.ValueOf(out).Elem()
	src := reflect.ValueOf(raw)
	if !src.IsValid() || !src.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("pcontainers: decoded value is %T, not assignable to %s", raw, dst.Type())
	}
	dst.Set(src)
	return nil
}

// Get returns the value stored at K.
func (d *Dict[K, V]) Get(ctx context.Context, k K) (V, error) {
	var zero V
	rk, err := d.encodeKey(k)
	if err != nil {
		return zero, err
	}
	rv, err := d.raw.Get(ctx, rk)
	if err != nil {
		return zero, err
	}
	return d.decodeVal(rv)
}

// GetOr returns the value stored at K, or def if K is absent.
func (d *Dict[K, V]) GetOr(ctx context.Context, k K, def V) (V, error) {
	v, err := d.Get(ctx, k)
	if err == pcerrors.ErrNotFound {
		return def, nil
	}
	return v, err
}

// Put stores V at K, overwriting any prior value.
func (d *Dict[K, V]) Put(ctx context.Context, k K, v V) error {
	rk, err := d.encodeKey(k)
	if err != nil {
		return err
	}
	rv, err := d.encodeVal(v)
	if err != nil {
		return err
	}
	return d.raw.Put(ctx, rk, rv)
}

// SetDefault returns the existing value at K if present, otherwise stores
// and returns V.
func (d *Dict[K, V]) SetDefault(ctx context.Context, k K, v V) (V, error) {
	var zero V
	rk, err := d.encodeKey(k)
	if err != nil {
		return zero, err
	}
	rv, err := d.encodeVal(v)
	if err != nil {
		return zero, err
	}
	out, err := d.raw.SetDefault(ctx, rk, rv)
	if err != nil {
		return zero, err
	}
	return d.decodeVal(out)
}

// Remove deletes K. Fails with pcerrors.ErrNotFound if K is absent.
func (d *Dict[K, V]) Remove(ctx context.Context, k K) error {
	rk, err := d.encodeKey(k)
	if err != nil {
		return err
	}
	return d.raw.Remove(ctx, rk)
}

// Pop deletes K and returns its prior value.
func (d *Dict[K, V]) Pop(ctx context.Context, k K) (V, error) {
	var zero V
	rk, err := d.encodeKey(k)
	if err != nil {
		return zero, err
	}
	rv, err := d.raw.Pop(ctx, rk)
	if err != nil {
		return zero, err
	}
	return d.decodeVal(rv)
}

// PopItem removes and returns the (K, V) pair at the current head of
// ordering. Fails with pcerrors.ErrEmptyDatabase if empty.
func (d *Dict[K, V]) PopItem(ctx context.Context) (k K, v V, err error) {
	var zk K
	var zv V
	rk, rv, err := d.raw.PopItem(ctx)
	if err != nil {
		return zk, zv, err
	}
	k, err = d.decodeKey(rk)
	if err != nil {
		return zk, zv, err
	}
	v, err = d.decodeVal(rv)
	if err != nil {
		return zk, zv, err
	}
	return k, v, nil
}

// Contains reports whether K is present.
func (d *Dict[K, V]) Contains(ctx context.Context, k K) (bool, error) {
	rk, err := d.encodeKey(k)
	if err != nil {
		return false, err
	}
	return d.raw.Contains(ctx, rk)
}

// Len returns the number of entries.
func (d *Dict[K, V]) Len(ctx context.Context) (int, error) { return d.raw.Len(ctx) }

// Clear removes every entry.
func (d *Dict[K, V]) Clear(ctx context.Context) error { return d.raw.Clear(ctx) }

// Erase deletes every key in [from, to) by raw encoding order. It is
// restricted to an identity key chain: a non-identity key chain does not in
// general preserve the ordering of K, so a half-open range over raw bytes
// would not correspond to any meaningful range over K.
func (d *Dict[K, V]) Erase(ctx context.Context, from, to K) error {
	if !d.keyChain.IsIdentity() {
		return pcerrors.ErrUnsupported
	}
	rf, err := d.encodeKey(from)
	if err != nil {
		return err
	}
	rt, err := d.encodeKey(to)
	if err != nil {
		return err
	}
	return d.raw.Erase(ctx, rf, rt)
}

// Pair is a key/value pair returned by the materialized iteration methods.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// NoIterItems returns every (K, V) pair, ordered by ascending raw key.
func (d *Dict[K, V]) NoIterItems(ctx context.Context) ([]Pair[K, V], error) {
	rawPairs, err := d.raw.NoIterItems(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Pair[K, V], 0, len(rawPairs))
	for _, rp := range rawPairs {
		k, err := d.decodeKey(rp.Key)
		if err != nil {
			return nil, err
		}
		v, err := d.decodeVal(rp.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair[K, V]{Key: k, Value: v})
	}
	return out, nil
}

// NoIterKeys returns every key, fully materialized and ordered by ascending
// raw key.
func (d *Dict[K, V]) NoIterKeys(ctx context.Context) ([]K, error) {
	rawKeys, err := d.raw.NoIterKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]K, 0, len(rawKeys))
	for _, rk := range rawKeys {
		k, err := d.decodeKey(rk)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// NoIterValues returns every value, ordered by ascending raw key.
func (d *Dict[K, V]) NoIterValues(ctx context.Context) ([]V, error) {
	rawVals, err := d.raw.NoIterValues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, len(rawVals))
	for _, rv := range rawVals {
		v, err := d.decodeVal(rv)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies every (K, V) pair in pairs. Any individual error aborts
// the whole update, leaving the dict unchanged.
func (d *Dict[K, V]) Update(ctx context.Context, pairs []Pair[K, V]) error {
	rawPairs := make([]kv.Pair, 0, len(pairs))
	for _, p := range pairs {
		rk, err := d.encodeKey(p.Key)
		if err != nil {
			return err
		}
		rv, err := d.encodeVal(p.Value)
		if err != nil {
			return err
		}
		rawPairs = append(rawPairs, kv.Pair{Key: rk, Value: rv})
	}
	return d.raw.Update(ctx, rawPairs)
}

// RemoveIf deletes every entry for which pred returns true, and returns the
// count removed. A predicate or decode error aborts the whole operation.
func (d *Dict[K, V]) RemoveIf(ctx context.Context, pred func(k K, v V) (bool, error)) (int, error) {
	return d.raw.RemoveIf(ctx, func(rk, rv []byte) (bool, error) {
		k, err := d.decodeKey(rk)
		if err != nil {
			return false, err
		}
		v, err := d.decodeVal(rv)
		if err != nil {
			return false, err
		}
		return pred(k, v)
	})
}

// TransformValues replaces every value V with fn(K, V). If fn or a decode
// step errors at any entry, the whole transaction aborts and the dict is
// left unchanged.
func (d *Dict[K, V]) TransformValues(ctx context.Context, fn func(k K, v V) (V, error)) error {
	return d.raw.TransformValues(ctx, func(rk, rv []byte) ([]byte, error) {
		k, err := d.decodeKey(rk)
		if err != nil {
			return nil, err
		}
		v, err := d.decodeVal(rv)
		if err != nil {
			return nil, err
		}
		nv, err := fn(k, v)
		if err != nil {
			return nil, err
		}
		return d.encodeVal(nv)
	})
}

// RemoveDuplicates removes every entry whose encoded value was already seen
// earlier in ascending key order, so the smallest key per distinct value
// survives. Duplicate detection runs over the raw encoded bytes, so it is
// meaningful only when valChain is deterministic. The identity, string and
// JSON serializers are; gob and MessagePack encode map entries in map
// iteration order, so equal map values need not encode to equal bytes.
func (d *Dict[K, V]) RemoveDuplicates(ctx context.Context) error {
	return d.raw.RemoveDuplicates(ctx)
}

// MoveTo drains this dict into other. Both dicts must apply the same key
// and value chains, since the move operates on raw encoded bytes without
// re-encoding.
func (d *Dict[K, V]) MoveTo(ctx context.Context, other *Dict[K, V]) error {
	if !d.Equal(other) {
		return pcerrors.ErrUnsupported
	}
	return d.raw.MoveTo(ctx, other.raw)
}

// WriteBatch runs fn against a single write transaction covering every
// mutation it performs through d (and any other container sharing the
// env passed in ctx); it commits on fn's clean return or aborts otherwise.
func (d *Dict[K, V]) WriteBatch(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.raw.WriteBatch(ctx, fn)
}
