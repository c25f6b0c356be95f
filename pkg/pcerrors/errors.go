// Package pcerrors defines the sentinel error values surfaced at the
// container and environment boundary. Operational errors (NotFound,
// EmptyKey, ...) are never recovered silently; structural errors from the
// storage engine are surfaced, and those reporting a checksum failure or a
// version mismatch also mark the environment unusable. No operation in this
// module returns ErrMapResized or retries on it.
package pcerrors

import "errors"

var (
	ErrNotInitialized     = errors.New("pcontainers: environment not initialized")
	ErrAccess             = errors.New("pcontainers: access denied")
	ErrKeyExist           = errors.New("pcontainers: key already exists")
	ErrNotFound           = errors.New("pcontainers: key not found")
	ErrEmptyKey           = errors.New("pcontainers: empty key")
	ErrEmptyDatabase      = errors.New("pcontainers: database is empty")
	ErrPageNotFound       = errors.New("pcontainers: page not found")
	ErrCorrupted          = errors.New("pcontainers: database corrupted")
	ErrPanic              = errors.New("pcontainers: fatal internal error")
	ErrVersionMismatch    = errors.New("pcontainers: database version mismatch")
	ErrInvalid            = errors.New("pcontainers: invalid argument or file")
	ErrMapFull            = errors.New("pcontainers: map size limit reached")
	ErrDbsFull            = errors.New("pcontainers: max named databases reached")
	ErrReadersFull        = errors.New("pcontainers: max reader slots reached")
	ErrTlsFull            = errors.New("pcontainers: thread-local storage full")
	ErrTxnFull            = errors.New("pcontainers: transaction too large")
	ErrCursorFull         = errors.New("pcontainers: too many cursors")
	ErrPageFull           = errors.New("pcontainers: page has no room")
	ErrMapResized         = errors.New("pcontainers: map was resized by another process")
	ErrIncompatible       = errors.New("pcontainers: incompatible operation for database flags")
	ErrBadReaderSlot      = errors.New("pcontainers: invalid reader slot")
	ErrBadTransaction     = errors.New("pcontainers: transaction used from wrong goroutine or already closed")
	ErrBadValSize         = errors.New("pcontainers: key or value exceeds the engine's size limit")
	ErrBadDbi             = errors.New("pcontainers: invalid named-database handle")
	ErrSignatureMismatch  = errors.New("pcontainers: signature verification failed")
	ErrCancelled          = errors.New("pcontainers: operation cancelled")
	ErrUnsupported        = errors.New("pcontainers: operation not supported for this chain configuration")
	ErrNotBytes           = errors.New("pcontainers: value must already be bytes for the identity serializer")
	ErrAlreadyOpenDiffOpt = errors.New("pcontainers: environment already open at this path with different options")
)
