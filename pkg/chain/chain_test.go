package chain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/pcontainers/pkg/chain"
	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

func TestChain_IdentityRoundTrip(t *testing.T) {
	c := chain.Identity()
	assert.True(t, c.IsIdentity())

	out, err := c.Forward([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), out)

	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), back)
}

func TestChain_IdentityRejectsNonBytes(t *testing.T) {
	c := chain.Identity()
	_, err := c.Forward(42)
	assert.ErrorIs(t, err, pcerrors.ErrNotBytes)
}

// Composition law (spec.md §8 item 3): Inverse(Forward(v)) == v for every
// registered stage combination.
func TestChain_JSONRoundTrip(t *testing.T) {
	c := chain.New(chain.JSONSerializer{}, nil, nil)
	v := map[string]any{"a": float64(1), "b": "two"}

	out, err := c.Forward(v)
	require.NoError(t, err)

	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestChain_GobRoundTrip(t *testing.T) {
	c := chain.New(chain.GobSerializer{}, nil, nil)
	v := map[string]any{"n": int64(7), "s": "x"}

	out, err := c.Forward(v)
	require.NoError(t, err)

	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestGobSerializer_InverseIntoDecodesSameStreamAsInverse(t *testing.T) {
	s := chain.GobSerializer{}
	encoded, err := s.Forward(int64(42))
	require.NoError(t, err)

	var out int64
	require.NoError(t, s.InverseInto(encoded, &out))
	assert.Equal(t, int64(42), out)

	back, err := s.Inverse(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(42), back)
}

func TestChain_MessagePackRoundTrip(t *testing.T) {
	c := chain.New(chain.MessagePackSerializer{}, nil, nil)
	v := map[string]any{"k": "v"}

	out, err := c.Forward(v)
	require.NoError(t, err)

	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

// S5 — full JSON + HMAC + LZ4 round trip, plus tamper detection.
func TestChain_JSONHMACLZ4RoundTripAndTamperDetection(t *testing.T) {
	signer, err := chain.NewHMACSigner([]byte("secret-key"), "sha256")
	require.NoError(t, err)
	c := chain.New(chain.JSONSerializer{}, signer, chain.LZ4Compresser{})

	v := map[string]any{"user": "alice", "count": float64(3)}
	out, err := c.Forward(v)
	require.NoError(t, err)

	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, v, back)

	tampered := append([]byte(nil), out...)
	tampered[len(tampered)-1] ^= 0xFF
	_, err = c.Inverse(tampered)
	assert.Error(t, err)
}

func TestChain_SnappyRoundTrip(t *testing.T) {
	c := chain.New(nil, nil, chain.SnappyCompresser{})
	out, err := c.Forward([]byte("repeat repeat repeat repeat"))
	require.NoError(t, err)
	back, err := c.Inverse(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("repeat repeat repeat repeat"), back)
}

func TestHMACSigner_RejectsTruncatedTag(t *testing.T) {
	signer, err := chain.NewHMACSigner([]byte("k"), "sha256")
	require.NoError(t, err)
	_, err = signer.Inverse([]byte("short"))
	assert.ErrorIs(t, err, pcerrors.ErrSignatureMismatch)
}

func TestChain_Equal(t *testing.T) {
	a := chain.New(chain.JSONSerializer{}, nil, chain.SnappyCompresser{})
	b := chain.New(chain.JSONSerializer{}, nil, chain.SnappyCompresser{})
	c := chain.New(chain.JSONSerializer{}, nil, chain.LZ4Compresser{})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
