package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Reserved tag keys maintained by the store rather than by callers.
const (
	KeyCreatedAt = "created_at"
	KeyUpdatedAt = "updated_at"
)

// TimeLayout renders timestamps as ISO-8601 UTC with millisecond precision,
// e.g. 2024-03-01T12:00:00.000Z.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Map maps tag keys to tag values. A nil entry means "absent" and is
// dropped when encoding.
type Map map[string]Value

// Timestamp formats t for the created_at and updated_at tags.
func Timestamp(t time.Time) String {
	return String(t.UTC().Format(TimeLayout))
}

// Clone returns a shallow copy of m. Arrays are copied so callers may
// mutate the result freely.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if arr, ok := v.(Array); ok {
			v = append(make(Array, 0, len(arr)), arr...)
		}
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with every entry of other applied on top.
func (m Map) Merge(other Map) Map {
	out := m.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of m in byte order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether two maps hold the same keys with equal values.
// Nil entries are ignored.
func (m Map) Equal(other Map) bool {
	if m.len() != other.len() {
		return false
	}
	for k, v := range m {
		if v == nil {
			continue
		}
		if !Equal(v, other[k]) {
			return false
		}
	}
	return true
}

func (m Map) len() int {
	n := 0
	for _, v := range m {
		if v != nil {
			n++
		}
	}
	return n
}

// MarshalJSON encodes m as a JSON object with sorted keys and HTML
// escaping disabled, so output matches what JavaScript's JSON.stringify
// would write for the same map.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	for _, k := range m.SortedKeys() {
		v := m[k]
		if v == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false

		keyBytes, err := encode(k)
		if err != nil {
			return nil, fmt.Errorf("marshal tag key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := encode(v)
		if err != nil {
			return nil, fmt.Errorf("marshal tag %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler for Map.
// Null entries are dropped; objects and nested arrays are rejected.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = make(Map, len(raw))
	for k, v := range raw {
		val, err := UnmarshalValue(v)
		if err != nil {
			return fmt.Errorf("tag %q: %w", k, err)
		}
		if val == nil {
			continue
		}
		(*m)[k] = val
	}
	return nil
}

// ParseMap decodes a JSON-encoded tag map. Empty input yields an empty map.
func ParseMap(data string) (Map, error) {
	if data == "" {
		return Map{}, nil
	}
	var m Map
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return m, nil
}

// FromAnyMap converts a decoded JSON or YAML object into a Map.
func FromAnyMap(raw map[string]any) (Map, error) {
	m := make(Map, len(raw))
	for k, v := range raw {
		val, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", k, err)
		}
		if val == nil {
			continue
		}
		m[k] = val
	}
	return m, nil
}

// encode marshals v without HTML escaping and without the trailing newline
// json.Encoder appends.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
