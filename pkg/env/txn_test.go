package env_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/env"
)

func TestWriteTxn_NestedCommitFoldsIntoParent(t *testing.T) {
	ctx := context.Background()
	e, err := env.MakeTemp(env.DefaultOptions(), true)
	require.NoError(t, err)
	defer e.Close()

	outer, ctx, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)
	require.NoError(t, outer.Put("b", []byte("k1"), []byte("v1")))

	inner, ctx2, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)
	require.NoError(t, inner.Put("b", []byte("k2"), []byte("v2")))
	require.NoError(t, inner.Commit())
	_ = ctx2

	require.NoError(t, outer.Commit())

	rtxn, err := env.BeginRead(e)
	require.NoError(t, err)
	defer rtxn.Close()
	b := rtxn.Bucket([]byte("b"))
	require.NotNil(t, b)
	assert.Equal(t, []byte("v1"), b.Get([]byte("k1")))
	assert.Equal(t, []byte("v2"), b.Get([]byte("k2")))
}

func TestWriteTxn_NestedAbortOnlyUndoesChildScope(t *testing.T) {
	ctx := context.Background()
	e, err := env.MakeTemp(env.DefaultOptions(), true)
	require.NoError(t, err)
	defer e.Close()

	outer, ctx, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)
	require.NoError(t, outer.Put("b", []byte("k1"), []byte("v1")))

	inner, _, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)
	require.NoError(t, inner.Put("b", []byte("k2"), []byte("v2")))
	require.NoError(t, inner.Abort())

	require.NoError(t, outer.Commit())

	rtxn, err := env.BeginRead(e)
	require.NoError(t, err)
	defer rtxn.Close()
	b := rtxn.Bucket([]byte("b"))
	require.NotNil(t, b)
	assert.Equal(t, []byte("v1"), b.Get([]byte("k1")))
	assert.Nil(t, b.Get([]byte("k2")))
}

func TestWriteBatch_JoinsOuterTransaction(t *testing.T) {
	ctx := context.Background()
	e, err := env.MakeTemp(env.DefaultOptions(), true)
	require.NoError(t, err)
	defer e.Close()

	outer, ctx, err := env.BeginWrite(ctx, e)
	require.NoError(t, err)

	err = env.WriteBatch(ctx, e, func(ctx context.Context) error {
		w, ok := env.TxnFromContext(ctx, e)
		require.True(t, ok)
		return w.Put("b", []byte("k"), []byte("v"))
	})
	require.NoError(t, err)

	require.NoError(t, outer.Commit())

	rtxn, err := env.BeginRead(e)
	require.NoError(t, err)
	defer rtxn.Close()
	b := rtxn.Bucket([]byte("b"))
	require.NotNil(t, b)
	assert.Equal(t, []byte("v"), b.Get([]byte("k")))
}
