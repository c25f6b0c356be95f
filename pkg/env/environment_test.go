package env_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/env"
)

func TestAcquire_SharesEnvironmentAtSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shared.db")

	e1, err := env.Acquire(path, env.DefaultOptions())
	require.NoError(t, err)
	e2, err := env.Acquire(path, env.DefaultOptions())
	require.NoError(t, err)
	assert.Same(t, e1, e2)

	require.NoError(t, e1.Release())
	require.NoError(t, e2.Release())
}

func TestAcquire_StrictRejectsConflictingOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strict.db")

	e1, err := env.Acquire(path, env.Options{Strict: true})
	require.NoError(t, err)
	defer e1.Release()

	_, err = env.Acquire(path, env.Options{Strict: true, ReadOnly: true})
	assert.Error(t, err)
}

func TestMakeTemp_DestroyFlag(t *testing.T) {
	eKeep, err := env.MakeTemp(env.DefaultOptions(), false)
	require.NoError(t, err)
	keepPath := eKeep.Path()
	require.NoError(t, eKeep.Close())
	_, statErr := os.Stat(keepPath)
	assert.NoError(t, statErr, "directory should persist without destroy=true")
	os.RemoveAll(filepath.Dir(keepPath))

	eDestroy, err := env.MakeTemp(env.DefaultOptions(), true)
	require.NoError(t, err)
	destroyPath := eDestroy.Path()
	require.NoError(t, eDestroy.Close())
	_, statErr = os.Stat(destroyPath)
	assert.Error(t, statErr, "directory should be removed with destroy=true")
}
