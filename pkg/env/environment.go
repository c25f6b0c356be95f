// Package env implements the environment registry and the
// transaction/cursor broker: the process-wide registry that opens, shares
// and retires memory-mapped database environments at a filesystem path, and
// the discipline that serializes writers while admitting parallel readers.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/cuemby/pcontainers/pkg/pcerrors"
	"github.com/cuemby/pcontainers/pkg/plog"
)

// Environment represents one on-disk store at a canonical path, shared by
// every Raw/Cooked container opened against that path. Environments are
// reference-counted by the package-level registry: the last Release tears
// the bbolt.DB down.
type Environment struct {
	path string
	opts Options
	db   *bbolt.DB

	mu       sync.Mutex
	refCount int
	closed   bool
	unusable error // set on Corrupted/Panic/VersionMismatch; sticky

	writeMu    sync.Mutex // serializes the single live write transaction
	readCount  int
	dbCountMu  sync.Mutex
	dbNames    map[string]struct{}

	tempDir    string // non-empty when created by MakeTemp
	destroyDir bool
}

// Path returns the canonical filesystem path this Environment was opened at.
func (e *Environment) Path() string { return e.path }

// Options returns the options the Environment was actually opened with.
func (e *Environment) Options() Options { return e.opts }

var (
	registryMu sync.Mutex
	registry   = map[string]*Environment{}
)

// Acquire canonicalizes path, and returns a shared Environment for it. If no
// environment is currently open at that path, one is constructed with opts.
// If one is already open, its existing options win (first-open-wins); in
// Strict mode a structural mismatch returns pcerrors.ErrAlreadyOpenDiffOpt.
func Acquire(path string, opts Options) (*Environment, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return nil, err
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if e, ok := registry[canon]; ok {
		if opts.Strict && !e.opts.Equal(opts) {
			return nil, pcerrors.ErrAlreadyOpenDiffOpt
		}
		e.mu.Lock()
		e.refCount++
		e.mu.Unlock()
		return e, nil
	}

	e, err := openEnvironment(canon, opts)
	if err != nil {
		return nil, err
	}
	registry[canon] = e
	return e, nil
}

// MakeTemp creates a fresh Environment in a newly created temporary
// directory. When destroy is true, the final Release removes that
// directory; otherwise it is left on disk (matching the observed behavior
// of the original implementation's make_temp).
func MakeTemp(opts Options, destroy bool) (*Environment, error) {
	dir, err := os.MkdirTemp("", "pcontainers-")
	if err != nil {
		return nil, fmt.Errorf("pcontainers: create temp dir: %w", err)
	}

	dbPath := filepath.Join(dir, "data.db")

	registryMu.Lock()
	defer registryMu.Unlock()

	e, err := openEnvironment(dbPath, opts)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	e.tempDir = dir
	e.destroyDir = destroy
	registry[dir] = e
	return e, nil
}

func openEnvironment(canon string, opts Options) (*Environment, error) {
	db, err := bbolt.Open(canon, 0600, opts.boltOptions())
	if err != nil {
		return nil, wrapOpenErr(err)
	}
	plog.WithComponent("env").Debug().Str("path", canon).Msg("environment opened")
	return &Environment{
		path:     canon,
		opts:     opts,
		db:       db,
		refCount: 1,
		dbNames:  make(map[string]struct{}),
	}, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("pcontainers: canonicalize path %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	// Parent may not exist yet (first open); abs is the best we can do.
	return abs, nil
}

// Release drops one reference. When the count reaches zero the underlying
// bbolt.DB is closed, and if the Environment was created via MakeTemp with
// destroy=true, its directory is removed.
func (e *Environment) Release() error {
	registryMu.Lock()
	defer registryMu.Unlock()

	e.mu.Lock()
	e.refCount--
	rc := e.refCount
	e.mu.Unlock()
	if rc > 0 {
		return nil
	}

	key := e.path
	if e.tempDir != "" {
		key = e.tempDir
	}
	delete(registry, key)

	e.mu.Lock()
	closed := e.closed
	e.closed = true
	e.mu.Unlock()
	if closed {
		return nil
	}

	err := e.db.Close()
	if e.tempDir != "" && e.destroyDir {
		if rmErr := os.RemoveAll(e.tempDir); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	plog.WithComponent("env").Debug().Str("path", e.path).Msg("environment closed")
	return err
}

// Close is an alias for Release, matching the container-level Close
// convention used throughout this module.
func (e *Environment) Close() error { return e.Release() }

// MarkUnusable marks the Environment as permanently failed after a
// Corrupted/Panic/VersionMismatch error; subsequent operations fail fast
// with the recorded error until the environment is reopened.
func (e *Environment) MarkUnusable(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.unusable == nil {
		e.unusable = err
	}
}

func (e *Environment) checkUsable() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unusable
}

// registerDB records that a named database with the given name is in use,
// enforcing MaxDBs. The empty name (the default database) is recorded and
// counted against the cap like any other distinct name.
func (e *Environment) registerDB(name string) error {
	e.dbCountMu.Lock()
	defer e.dbCountMu.Unlock()
	if _, ok := e.dbNames[name]; ok {
		return nil
	}
	if e.opts.MaxDBs > 0 && len(e.dbNames) >= e.opts.MaxDBs {
		return pcerrors.ErrDbsFull
	}
	e.dbNames[name] = struct{}{}
	return nil
}

func wrapOpenErr(err error) error {
	return fmt.Errorf("pcontainers: open environment: %w", err)
}

// envKey (via ctxKey) exposes the environment pointer used as a context key
// discriminator so nested write transactions on different environments
// never collide.
type envKey struct{ env *Environment }

func (e *Environment) ctxKey() any { return envKey{env: e} }
