package chain

import (
	"bytes"
	"encoding/gob"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/cuemby/pcontainers/pkg/pcerrors"
)

// NoneSerializer requires the value already be a []byte and passes it
// through unchanged. It is the identity serializer.
type NoneSerializer struct{}

func (NoneSerializer) Forward(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, pcerrors.ErrNotBytes
	}
	return b, nil
}

func (NoneSerializer) Inverse(b []byte) (any, error) {
	return append([]byte(nil), b...), nil
}

func (NoneSerializer) IsIdentity() bool { return true }

// StringSerializer is a thin UTF-8 codec: Forward requires the value be a
// string and returns its bytes; Inverse returns those bytes back as a
// string. It is the usual choice for a string-keyed or string-valued
// container, since NoneSerializer only accepts []byte.
type StringSerializer struct{}

func (StringSerializer) Forward(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, pcerrors.ErrNotBytes
	}
	return []byte(s), nil
}

func (StringSerializer) Inverse(b []byte) (any, error) {
	return string(b), nil
}

func (StringSerializer) InverseInto(b []byte, out any) error {
	ptr, ok := out.(*string)
	if !ok {
		return pcerrors.ErrNotBytes
	}
	*ptr = string(b)
	return nil
}

func (StringSerializer) IsIdentity() bool { return false }

// JSONSerializer encodes values with encoding/json. Inverse decodes into a
// generic any (map[string]any / []any / string / float64 / bool / nil),
// matching the untyped round trip callers get back from a JSON document.
type JSONSerializer struct{}

func (JSONSerializer) Forward(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Inverse(b []byte) (any, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (JSONSerializer) IsIdentity() bool { return false }

func init() {
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register("")
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(true)
	gob.Register([]byte(nil))
}

// gobEnvelope gives gob a concrete target type to decode into even though
// the carried value is an any; gob.Register above covers the JSON-shaped
// value universe (maps, slices, strings, numbers, bools, bytes, nil).
type gobEnvelope struct{ V any }

// GobSerializer encodes values with encoding/gob, the standard library's own
// opaque binary object format — the closest idiomatic Go analogue to an
// in-language pickling serializer.
type GobSerializer struct{}

func (GobSerializer) Forward(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobEnvelope{V: v}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobSerializer) Inverse(b []byte) (any, error) {
	var env gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&env); err != nil {
		return nil, err
	}
	return env.V, nil
}

func (GobSerializer) IsIdentity() bool { return false }

// MessagePackSerializer encodes values with github.com/vmihailenco/msgpack,
// a compact binary alternative to JSON.
type MessagePackSerializer struct{}

func (MessagePackSerializer) Forward(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (MessagePackSerializer) Inverse(b []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (MessagePackSerializer) IsIdentity() bool { return false }
