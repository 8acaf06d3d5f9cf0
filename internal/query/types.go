package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/tagstore/internal/tags"
)

// Reserved combinator keys in the JSON form.
const (
	KeyAnd = "$and"
	KeyOr  = "$or"
	KeyNot = "$not"
)

// ErrUnsupported is returned when a query uses the $not combinator.
// Negation cannot be expressed safely over array-containment semantics, so
// it is a usage error rather than a runtime condition.
var ErrUnsupported = errors.New("$not query is not supported")

// Query is one node of a recursive boolean tag query.
type Query struct {
	// Where holds plain clauses. A nil value means "no constraint".
	Where map[string]tags.Value

	// And is absent when nil. Empty matches.
	And []Query

	// Or is absent when nil. Empty (non-nil) matches nothing.
	Or []Query

	// Not is rejected with ErrUnsupported when non-nil.
	Not *Query
}

// Where builds a simple query from plain clauses.
func Where(clauses tags.Map) Query {
	return Query{Where: map[string]tags.Value(clauses)}
}

// Eq builds a single-clause query.
func Eq(key string, v tags.Value) Query {
	return Query{Where: map[string]tags.Value{key: v}}
}

// All builds a query whose And holds qs. All() is present but empty.
func All(qs ...Query) Query {
	if qs == nil {
		qs = []Query{}
	}
	return Query{And: qs}
}

// Any builds a query whose Or holds qs. Any() is present but empty and
// therefore matches nothing.
func Any(qs ...Query) Query {
	if qs == nil {
		qs = []Query{}
	}
	return Query{Or: qs}
}

// Negate builds a query using the unsupported $not combinator.
func Negate(q Query) Query {
	return Query{Not: &q}
}

// IsEmpty reports whether q has no clauses and no combinators.
func (q Query) IsEmpty() bool {
	return len(q.Where) == 0 && q.And == nil && q.Or == nil && q.Not == nil
}

// FromMap builds a Query from a decoded JSON or YAML object.
func FromMap(raw map[string]any) (Query, error) {
	var q Query
	for key, val := range raw {
		switch key {
		case KeyAnd:
			subs, err := subQueries(key, val)
			if err != nil {
				return Query{}, err
			}
			q.And = subs
		case KeyOr:
			subs, err := subQueries(key, val)
			if err != nil {
				return Query{}, err
			}
			q.Or = subs
		case KeyNot:
			if val == nil {
				continue
			}
			// Any $not is unsupported, so its operand is kept only when
			// it parses; otherwise an empty operand still marks it present.
			q.Not = &Query{}
			if obj, ok := val.(map[string]any); ok {
				if sub, err := FromMap(obj); err == nil {
					q.Not = &sub
				}
			}
		default:
			v, err := tags.FromAny(val)
			if err != nil {
				return Query{}, fmt.Errorf("clause %q: %w", key, err)
			}
			if q.Where == nil {
				q.Where = make(map[string]tags.Value)
			}
			q.Where[key] = v
		}
	}
	return q, nil
}

func subQueries(key string, val any) ([]Query, error) {
	if val == nil {
		return nil, nil
	}
	items, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %T", key, val)
	}

	subs := make([]Query, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected object, got %T", key, i, item)
		}
		sub, err := FromMap(obj)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Parse decodes the JSON form of a query.
func Parse(data []byte) (Query, error) {
	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, err
	}
	return q, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Query) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("decode query: expected object")
	}

	parsed, err := FromMap(raw)
	if err != nil {
		return fmt.Errorf("decode query: %w", err)
	}
	*q = parsed
	return nil
}

// MarshalJSON implements json.Marshaler. Nil clause values are omitted.
func (q Query) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(q.Where)+3)
	for k, v := range q.Where {
		if v == nil {
			continue
		}
		obj[k] = v
	}
	if q.And != nil {
		obj[KeyAnd] = q.And
	}
	if q.Or != nil {
		obj[KeyOr] = q.Or
	}
	if q.Not != nil {
		obj[KeyNot] = q.Not
	}
	return json.Marshal(obj)
}
