// Package chain implements the transform pipeline: a composable triple of
// (serializer, signer, compressor) stages applied symmetrically on write
// (forward: serialize -> sign -> compress) and read (inverse: decompress ->
// verify+strip -> deserialize). Each stage advertises whether it is the
// identity, letting a None/None/None chain bypass the stages: its Forward
// does not allocate, and its Inverse returns a copy of the input.
package chain

// Serializer converts an arbitrary Go value to and from bytes.
type Serializer interface {
	Forward(v any) ([]byte, error)
	Inverse(b []byte) (any, error)
	IsIdentity() bool
}

// Signer appends (Forward) or verifies-and-strips (Inverse) an
// authentication tag over a byte string.
type Signer interface {
	Forward(b []byte) ([]byte, error)
	Inverse(b []byte) ([]byte, error)
	IsIdentity() bool
}

// Compressor compresses (Forward) and decompresses (Inverse) a byte
// string.
type Compressor interface {
	Forward(b []byte) ([]byte, error)
	Inverse(b []byte) ([]byte, error)
	IsIdentity() bool
}
