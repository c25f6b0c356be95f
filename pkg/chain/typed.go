package chain

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// TypedInverter is implemented by serializers that can decode directly into
// a caller-supplied, concretely typed destination instead of returning a
// generic any. pkg/cooked uses it when the target type is known at compile
// time, so a JSON number decodes straight into an int or float64 field
// instead of always landing as float64 the way decoding into any would.
type TypedInverter interface {
	InverseInto(b []byte, out any) error
}

func (JSONSerializer) InverseInto(b []byte, out any) error {
	return json.Unmarshal(b, out)
}

// InverseInto decodes through the same gobEnvelope Forward wraps values in
// (gob requires an interface-typed struct field, not a bare interface{}
// argument, to tag the stream with the concrete type's name), then assigns
// the unwrapped value into out by reflection, same as the generic
// Inverse-plus-assign fallback pkg/cooked uses for serializers with no
// TypedInverter at all.
func (s GobSerializer) InverseInto(b []byte, out any) error {
	v, err := s.Inverse(b)
	if err != nil {
		return err
	}
	if ptr, ok := out.(*any); ok {
		*ptr = v
		return nil
	}
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("pcontainers: InverseInto requires a non-nil pointer, got %T", out)
	}
	src := reflect.ValueOf(v)
	if !src.IsValid() || !src.Type().AssignableTo(dst.Elem().Type()) {
		return fmt.Errorf("pcontainers: decoded value is %T, not assignable to %s", v, dst.Elem().Type())
	}
	dst.Elem().Set(src)
	return nil
}

func (MessagePackSerializer) InverseInto(b []byte, out any) error {
	return msgpack.Unmarshal(b, out)
}
