// Package pconfig loads environment and logger configuration from
// YAML, the way cmd/warren loaded its cluster config: a plain struct decoded
// with gopkg.in/yaml.v3, with a constructor that fills in defaults for
// anything the file omits.
package pconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/pcontainers/pkg/env"
	"github.com/cuemby/pcontainers/pkg/plog"
)

// EnvConfig mirrors env.Options field-for-field so it can be decoded from
// YAML and converted with ToOptions. Kept as a separate struct rather than
// adding yaml tags directly to env.Options so pkg/env stays free of a
// pconfig/yaml.v3 dependency.
type EnvConfig struct {
	MapSize     int64 `yaml:"map_size"`
	MaxReaders  int   `yaml:"max_readers"`
	MaxDBs      int   `yaml:"max_dbs"`
	ReadOnly    bool  `yaml:"read_only"`
	NoSync      bool  `yaml:"no_sync"`
	NoMetaSync  bool  `yaml:"no_meta_sync"`
	WriteMap    bool  `yaml:"write_map"`
	MapAsync    bool  `yaml:"map_async"`
	NoSubDir    bool  `yaml:"no_sub_dir"`
	NoLock      bool  `yaml:"no_lock"`
	NoReadAhead bool  `yaml:"no_read_ahead"`
	NoMemInit   bool  `yaml:"no_mem_init"`
	Strict      bool  `yaml:"strict"`
}

// ToOptions converts c to an env.Options value.
func (c EnvConfig) ToOptions() env.Options {
	return env.Options{
		MapSize:     c.MapSize,
		MaxReaders:  c.MaxReaders,
		MaxDBs:      c.MaxDBs,
		ReadOnly:    c.ReadOnly,
		NoSync:      c.NoSync,
		NoMetaSync:  c.NoMetaSync,
		WriteMap:    c.WriteMap,
		MapAsync:    c.MapAsync,
		NoSubDir:    c.NoSubDir,
		NoLock:      c.NoLock,
		NoReadAhead: c.NoReadAhead,
		NoMemInit:   c.NoMemInit,
		Strict:      c.Strict,
	}
}

// LogConfig mirrors plog.Config for YAML decoding (plog.Config's Output is
// an io.Writer, which has no YAML representation, so it is set separately
// by the caller after loading).
type LogConfig struct {
	Level      plog.Level `yaml:"level"`
	JSONOutput bool       `yaml:"json_output"`
}

// ToPlogConfig converts c to a plog.Config writing to os.Stdout.
func (c LogConfig) ToPlogConfig() plog.Config {
	return plog.Config{Level: c.Level, JSONOutput: c.JSONOutput}
}

// Config is the top-level file format loaded by Load: one Environment's
// storage options plus the logger settings for the process that opens it.
type Config struct {
	Env EnvConfig `yaml:"env"`
	Log LogConfig `yaml:"log"`
}

// Default returns the zero-value-equivalent Config used when no file is
// given, matching env.DefaultOptions() and plog's default discard sink.
func Default() Config {
	return Config{
		Env: EnvConfig{},
		Log: LogConfig{Level: plog.InfoLevel},
	}
}

// Load reads and decodes a Config from path. Missing fields keep Default's
// zero values, since yaml.Unmarshal only overwrites what the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pcontainers: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("pcontainers: parse config %s: %w", path, err)
	}
	return cfg, nil
}
