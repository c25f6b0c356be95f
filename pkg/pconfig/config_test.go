package pconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/pconfig"
	"github.com/cuemby/pcontainers/pkg/plog"
)

func TestLoad_AppliesFileValuesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
env:
  map_size: 1048576
  max_readers: 4
  read_only: true
log:
  level: debug
  json_output: true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := pconfig.Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1048576), cfg.Env.MapSize)
	assert.Equal(t, 4, cfg.Env.MaxReaders)
	assert.True(t, cfg.Env.ReadOnly)
	assert.Equal(t, plog.DebugLevel, cfg.Log.Level)
	assert.True(t, cfg.Log.JSONOutput)

	opts := cfg.Env.ToOptions()
	assert.Equal(t, int64(1048576), opts.MapSize)
	assert.True(t, opts.ReadOnly)
}

func TestLoad_MissingFieldsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env:\n  max_dbs: 8\n"), 0o644))

	cfg, err := pconfig.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Env.MaxDBs)
	assert.Equal(t, int64(0), cfg.Env.MapSize)
	assert.Equal(t, plog.InfoLevel, cfg.Log.Level)
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	_, err := pconfig.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault_MatchesZeroValueOptions(t *testing.T) {
	cfg := pconfig.Default()
	assert.Equal(t, plog.InfoLevel, cfg.Log.Level)
	assert.False(t, cfg.Log.JSONOutput)
	assert.Equal(t, int64(0), cfg.Env.MapSize)
}
