package cooked_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/chain"
	"github.com/cuemby/pcontainers/pkg/cooked"
	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

func newTempEnv(t *testing.T) *env.Environment {
	t.Helper()
	e, err := env.MakeTemp(env.DefaultOptions(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func stringChain() *chain.Chain { return chain.New(chain.StringSerializer{}, nil, nil) }

func TestDict_IdentityRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[[]byte, []byte](e, "d", nil, nil)
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, []byte("k"), []byte("v")))
	got, err := d.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestDict_IdentityRejectsNonBytesValue(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[string, int](e, "d", stringChain(), nil)
	require.NoError(t, err)

	err = d.Put(ctx, "k", 5)
	assert.ErrorIs(t, err, pcerrors.ErrNotBytes)
}

// S5 — cooked round trip through JSON serialize, HMAC sign, LZ4 compress,
// plus tamper detection on the value chain.
func TestDict_JSONHMACLZ4RoundTripAndTamperDetection(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)

	signer, err := chain.NewHMACSigner([]byte("dict-secret"), "sha256")
	require.NoError(t, err)
	valChain := chain.New(chain.JSONSerializer{}, signer, chain.LZ4Compresser{})

	d, err := cooked.NewDict[string, map[string]any](e, "d", stringChain(), valChain)
	require.NoError(t, err)

	v := map[string]any{"name": "widget", "qty": float64(5)}
	require.NoError(t, d.Put(ctx, "item-1", v))

	got, err := d.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, v, got)

	// Tamper with the stored bytes directly through the raw dict's
	// environment to simulate on-disk corruption, then verify Get fails
	// closed rather than returning a silently wrong value.
	w, ctx2, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)
	b, err := w.Bucket([]byte("d"))
	require.NoError(t, err)
	stored := b.Get([]byte("item-1"))
	require.NotNil(t, stored)
	tampered := append([]byte(nil), stored...)
	tampered[len(tampered)-1] ^= 0xFF
	require.NoError(t, w.Put("d", []byte("item-1"), tampered))
	require.NoError(t, w.Finish(nil))
	_ = ctx2

	_, err = d.Get(ctx, "item-1")
	assert.Error(t, err)
}

func TestDict_EraseRejectsNonIdentityKeyChain(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[string, string](e, "d", chain.New(chain.JSONSerializer{}, nil, nil), stringChain())
	require.NoError(t, err)

	err = d.Erase(ctx, "a", "z")
	assert.ErrorIs(t, err, pcerrors.ErrUnsupported)
}

func TestDict_GobValueDecodesAsIntNotBoxed(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[string, int64](e, "d", stringChain(), chain.New(chain.GobSerializer{}, nil, nil))
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a", 7))

	got, err := d.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestDict_TransformValuesAndRemoveIf(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[string, int](e, "d", stringChain(), chain.New(chain.JSONSerializer{}, nil, nil))
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a", 1))
	require.NoError(t, d.Put(ctx, "b", 2))
	require.NoError(t, d.Put(ctx, "c", 3))

	require.NoError(t, d.TransformValues(ctx, func(k string, v int) (int, error) {
		return v * 10, nil
	}))

	got, err := d.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 20, got)

	n, err := d.RemoveIf(ctx, func(k string, v int) (bool, error) {
		return v >= 20, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = d.Get(ctx, "c")
	assert.ErrorIs(t, err, pcerrors.ErrNotFound)
	_, err = d.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestDict_ItemsIteration(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	d, err := cooked.NewDict[string, string](e, "d", stringChain(), stringChain())
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a", "1"))
	require.NoError(t, d.Put(ctx, "b", "2"))

	it, err := d.Items(ctx, false)
	require.NoError(t, err)
	defer it.Close()

	var gotKeys []string
	for it.Next() {
		gotKeys = append(gotKeys, it.Key())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b"}, gotKeys)
}

func TestDict_MoveToRequiresMatchingChains(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	src, err := cooked.NewDict[string, string](e, "src", stringChain(), stringChain())
	require.NoError(t, err)
	dst, err := cooked.NewDict[string, string](e, "dst", stringChain(), chain.New(chain.JSONSerializer{}, nil, nil))
	require.NoError(t, err)

	err = src.MoveTo(ctx, dst)
	assert.ErrorIs(t, err, pcerrors.ErrUnsupported)
}

func TestDict_MoveToSameChains(t *testing.T) {
	ctx := context.Background()
	e := newTempEnv(t)
	src, err := cooked.NewDict[string, string](e, "src", stringChain(), stringChain())
	require.NoError(t, err)
	dst, err := cooked.NewDict[string, string](e, "dst", stringChain(), stringChain())
	require.NoError(t, err)

	require.NoError(t, src.Put(ctx, "a", "1"))
	require.NoError(t, src.MoveTo(ctx, dst))

	n, err := src.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := dst.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}
