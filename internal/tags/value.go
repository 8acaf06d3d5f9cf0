package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Value is a sealed interface over tag values.
// Only String, Number, Bool and Array implement it.
type Value interface {
	tagValue()
}

// Scalar is a Value that may appear inside an Array.
type Scalar interface {
	Value
	scalar()
}

// String is a string tag value.
type String string

func (String) tagValue() {}
func (String) scalar()   {}

// Number is a numeric tag value. JSON numbers decode to float64, so 1 and
// 1.0 are the same Number.
type Number float64

func (Number) tagValue() {}
func (Number) scalar()   {}

// Bool is a boolean tag value.
type Bool bool

func (Bool) tagValue() {}
func (Bool) scalar()   {}

// Array is an ordered sequence of scalars.
type Array []Scalar

func (Array) tagValue() {}

// Strings builds an Array of String values.
func Strings(vals ...string) Array {
	arr := make(Array, len(vals))
	for i, v := range vals {
		arr[i] = String(v)
	}
	return arr
}

// Equal reports whether two values are identical without type coercion.
// String("1") is never equal to Number(1). Arrays are equal when they hold
// equal scalars in the same order.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Contains reports whether arr holds a scalar equal to v.
func (arr Array) Contains(v Scalar) bool {
	for _, elem := range arr {
		if Equal(elem, v) {
			return true
		}
	}
	return false
}

// ContainsAll reports whether every element of sub appears in arr.
// Duplicates in sub do not require duplicates in arr, and an empty sub is
// always contained.
func (arr Array) ContainsAll(sub Array) bool {
	for _, v := range sub {
		if !arr.Contains(v) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler for Number.
// Non-finite numbers have no JSON form and are rejected.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("tag number %v is not representable in JSON", f)
	}
	return json.Marshal(f)
}

// MarshalJSON implements json.Marshaler for Array. A nil Array encodes as
// an empty JSON array rather than null.
func (arr Array) MarshalJSON() ([]byte, error) {
	if arr == nil {
		return []byte("[]"), nil
	}
	return encode([]Scalar(arr))
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(Array, 0, len(raw))
	for i, elem := range raw {
		v, err := unmarshalScalar(elem)
		if err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
		*arr = append(*arr, v)
	}
	return nil
}

// UnmarshalValue decodes a JSON document into a tag value.
// JSON null decodes to a nil Value so callers can treat it as absent.
func UnmarshalValue(data []byte) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return nil, fmt.Errorf("invalid JSON value %q", data)
		}
		return nil, nil
	case '[':
		var arr Array
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return unmarshalScalar(data)
	}
}

// unmarshalScalar decodes a JSON string, number or boolean.
func unmarshalScalar(data []byte) (Scalar, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is not a valid tag scalar")
	case '{':
		return nil, fmt.Errorf("objects are not valid tag values")
	case '[':
		return nil, fmt.Errorf("nested arrays are not valid tag values")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", n, err)
		}
		return Number(f), nil
	}
}

// FromAny converts a decoded Go value (from encoding/json or yaml.v3) into
// a tag value. Integer and float kinds become Number, []any becomes Array.
// A nil input yields a nil Value.
func FromAny(v any) (Value, error) {
	if v == nil {
		return nil, nil
	}
	if tv, ok := v.(Value); ok {
		return tv, nil
	}
	if arr, ok := v.([]any); ok {
		out := make(Array, len(arr))
		for i, elem := range arr {
			s, err := scalarFromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = s
		}
		return out, nil
	}
	if arr, ok := v.([]string); ok {
		return Strings(arr...), nil
	}
	return scalarFromAny(v)
}

func scalarFromAny(v any) (Scalar, error) {
	switch val := v.(type) {
	case Scalar:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int8:
		return Number(val), nil
	case int16:
		return Number(val), nil
	case int32:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case uint:
		return Number(val), nil
	case uint8:
		return Number(val), nil
	case uint16:
		return Number(val), nil
	case uint32:
		return Number(val), nil
	case uint64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s: %w", val, err)
		}
		return Number(f), nil
	case nil:
		return nil, fmt.Errorf("null is not a valid tag scalar")
	default:
		return nil, fmt.Errorf("unsupported tag value type %T", v)
	}
}
