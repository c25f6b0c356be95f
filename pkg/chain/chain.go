package chain

import "reflect"

// Chain composes a Serializer, Signer and Compressor into one symmetric
// transform: Forward runs serialize -> sign -> compress; Inverse runs the
// exact reverse. A chain whose three stages are all identity skips the
// stages in both directions: Forward returns the input slice itself without
// allocating, while Inverse and InverseBytes return a copy of the input.
type Chain struct {
	Serializer Serializer
	Signer     Signer
	Compressor Compressor
}

// New builds a Chain from its three stages, defaulting any nil stage to its
// identity implementation.
func New(s Serializer, sg Signer, c Compressor) *Chain {
	if s == nil {
		s = NoneSerializer{}
	}
	if sg == nil {
		sg = NoneSigner{}
	}
	if c == nil {
		c = NoneCompresser{}
	}
	return &Chain{Serializer: s, Signer: sg, Compressor: c}
}

// Identity returns the chain with all three stages set to their identity
// implementation.
func Identity() *Chain {
	return New(NoneSerializer{}, NoneSigner{}, NoneCompresser{})
}

// IsIdentity reports whether every stage of the chain is the identity.
func (c *Chain) IsIdentity() bool {
	return c.Serializer.IsIdentity() && c.Signer.IsIdentity() && c.Compressor.IsIdentity()
}

// Forward applies serialize -> sign -> compress in order.
func (c *Chain) Forward(v any) ([]byte, error) {
	if c.IsIdentity() {
		return NoneSerializer{}.Forward(v)
	}
	b, err := c.Serializer.Forward(v)
	if err != nil {
		return nil, err
	}
	b, err = c.Signer.Forward(b)
	if err != nil {
		return nil, err
	}
	return c.Compressor.Forward(b)
}

// Inverse applies decompress -> verify+strip -> deserialize, the exact
// reverse of Forward.
func (c *Chain) Inverse(b []byte) (any, error) {
	if c.IsIdentity() {
		return NoneSerializer{}.Inverse(b)
	}
	payload, err := c.InverseBytes(b)
	if err != nil {
		return nil, err
	}
	return c.Serializer.Inverse(payload)
}

// InverseBytes applies decompress -> verify+strip without the final
// deserialize step, returning the raw serialized payload. Callers that know
// the target type at compile time (pkg/cooked) use this to decode directly
// into a concrete value instead of through Serializer.Inverse's any.
func (c *Chain) InverseBytes(b []byte) ([]byte, error) {
	if c.IsIdentity() {
		return append([]byte(nil), b...), nil
	}
	b, err := c.Compressor.Inverse(b)
	if err != nil {
		return nil, err
	}
	return c.Signer.Inverse(b)
}

// Equal reports whether other applies the same stages with the same
// parameters. Stages carry only plain data (no funcs), so a structural
// comparison is sufficient and avoids each stage needing its own Equal
// method.
func (c *Chain) Equal(other *Chain) bool {
	if other == nil {
		return false
	}
	return reflect.DeepEqual(c.Serializer, other.Serializer) &&
		reflect.DeepEqual(c.Signer, other.Signer) &&
		reflect.DeepEqual(c.Compressor, other.Compressor)
}
