package env

import "go.etcd.io/bbolt"

// Options configures an Environment. Names and semantics follow the storage
// engine's recognized option set; several have no direct bbolt equivalent
// and are either advisory (MapSize only pre-sizes the initial mmap, since
// bbolt grows the map on demand with no fixed ceiling) or enforced in this
// package rather than by the underlying engine (MaxReaders).
type Options struct {
	// MapSize seeds bbolt's InitialMmapSize. bbolt has no hard map-size
	// ceiling to enforce, so unlike the engine this spec was modeled on,
	// MapSize never causes a MapFull error on its own.
	MapSize int64

	// MaxReaders caps concurrent read transactions. Zero means unbounded.
	// Enforced by this package (bbolt itself imposes no reader-slot limit).
	MaxReaders int

	// MaxDBs caps the number of distinct named databases an Environment may
	// open. Zero means unbounded. Enforced by this package.
	MaxDBs int

	ReadOnly    bool
	NoSync      bool
	NoMetaSync  bool
	WriteMap    bool
	MapAsync    bool
	NoSubDir    bool
	NoLock      bool
	NoReadAhead bool
	NoMemInit   bool

	// Strict makes Acquire fail with pcerrors.ErrAlreadyOpenDiffOpt when a
	// second caller requests different options for a path that is already
	// open, instead of silently reusing the live Environment's options
	// (first-open-wins).
	Strict bool
}

// DefaultOptions returns the zero-value-equivalent option set used when a
// caller passes none explicitly.
func DefaultOptions() Options {
	return Options{}
}

// Equal reports whether two option sets are structurally identical. Used by
// Acquire in Strict mode to detect a conflicting re-open.
func (o Options) Equal(other Options) bool {
	return o == other
}

func (o Options) boltOptions() *bbolt.Options {
	bo := &bbolt.Options{
		ReadOnly:       o.ReadOnly,
		NoSync:         o.NoSync,
		NoFreelistSync: o.NoMetaSync,
	}
	if o.MapSize > 0 {
		bo.InitialMmapSize = int(o.MapSize)
	}
	// bbolt always treats the path as a single file and has no distinct
	// writable-mmap mode; NoSubDir, WriteMap and MapAsync are accepted for
	// interface fidelity but have no bbolt counterpart to forward to.
	return bo
}
