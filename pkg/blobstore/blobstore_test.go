package blobstore_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/blobstore"
	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

func newTempStore(t *testing.T) *blobstore.FileStore {
	t.Helper()
	e, err := env.MakeTemp(blobstore.Options(), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	fs, err := blobstore.NewFileStore(e)
	require.NoError(t, err)
	return fs
}

func TestFileStore_CreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id, err := fs.Create(ctx, bytes.NewReader([]byte("hello world")), "greeting.txt", "text/plain")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	f, err := fs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "greeting.txt", f.Filename)
	assert.Equal(t, "text/plain", f.ContentType)
	assert.Equal(t, 11, f.ContentLength)
	assert.Equal(t, []byte("hello world"), f.Content)
	assert.False(t, f.LastModified.IsZero())
}

func TestFileStore_CreateFillsDefaults(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id, err := fs.Create(ctx, bytes.NewReader([]byte("x")), "", "")
	require.NoError(t, err)

	f, err := fs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "unnamed", f.Filename)
	assert.Equal(t, "application/octet-stream", f.ContentType)
}

func TestFileStore_GetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	_, err := fs.Get(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, pcerrors.ErrNotFound)
}

func TestFileStore_ReplaceRequiresExisting(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	err := fs.Replace(ctx, "nonexistent", bytes.NewReader([]byte("x")), "a", "b")
	assert.ErrorIs(t, err, pcerrors.ErrNotFound)
}

func TestFileStore_ReplaceOverwritesContentAndMetadata(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id, err := fs.Create(ctx, bytes.NewReader([]byte("v1")), "v1.txt", "text/plain")
	require.NoError(t, err)

	require.NoError(t, fs.Replace(ctx, id, bytes.NewReader([]byte("version two")), "v2.txt", "text/markdown"))

	f, err := fs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "v2.txt", f.Filename)
	assert.Equal(t, "text/markdown", f.ContentType)
	assert.Equal(t, []byte("version two"), f.Content)
}

func TestFileStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id, err := fs.Create(ctx, bytes.NewReader([]byte("x")), "f", "t")
	require.NoError(t, err)

	require.NoError(t, fs.Delete(ctx, id))
	require.NoError(t, fs.Delete(ctx, id))

	exists, err := fs.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_ExistsAndList(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id1, err := fs.Create(ctx, bytes.NewReader([]byte("a")), "a", "t")
	require.NoError(t, err)
	id2, err := fs.Create(ctx, bytes.NewReader([]byte("b")), "b", "t")
	require.NoError(t, err)

	exists, err := fs.Exists(ctx, id1)
	require.NoError(t, err)
	assert.True(t, exists)

	ids, err := fs.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id1, id2}, ids)
}

func TestFileStore_OpenReturnsReadableContent(t *testing.T) {
	ctx := context.Background()
	fs := newTempStore(t)

	id, err := fs.Create(ctx, bytes.NewReader([]byte("stream me")), "s", "t")
	require.NoError(t, err)

	r, err := fs.Open(ctx, id)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("stream me"), got)
}
