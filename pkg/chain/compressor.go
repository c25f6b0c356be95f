package chain

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// NoneCompresser passes bytes through unchanged. It is the identity
// compressor.
type NoneCompresser struct{}

func (NoneCompresser) Forward(b []byte) ([]byte, error) { return b, nil }
func (NoneCompresser) Inverse(b []byte) ([]byte, error) { return b, nil }
func (NoneCompresser) IsIdentity() bool                 { return true }

// SnappyCompresser compresses with github.com/golang/snappy, favoring
// throughput over ratio.
type SnappyCompresser struct{}

func (SnappyCompresser) Forward(b []byte) ([]byte, error) {
	return snappy.Encode(nil, b), nil
}

func (SnappyCompresser) Inverse(b []byte) ([]byte, error) {
	return snappy.Decode(nil, b)
}

func (SnappyCompresser) IsIdentity() bool { return false }

// LZ4Compresser compresses with github.com/pierrec/lz4/v4, favoring ratio
// over throughput relative to Snappy.
type LZ4Compresser struct{}

func (LZ4Compresser) Forward(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZ4Compresser) Inverse(b []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(b))
	return io.ReadAll(zr)
}

func (LZ4Compresser) IsIdentity() bool { return false }
