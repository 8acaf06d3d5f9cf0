package query

import (
	"fmt"

	"github.com/roach88/tagstore/internal/tags"
)

// Matches evaluates q against a record's tag map.
//
// Evaluation order per node:
//  1. Not present: fail with ErrUnsupported
//  2. Plain clauses, short-circuiting on the first mismatch
//  3. And: every sub-query must match
//  4. Or: at least one sub-query must match
//
// A node with no clauses and no combinators matches vacuously.
func Matches(t tags.Map, q Query) (bool, error) {
	if q.Not != nil {
		return false, ErrUnsupported
	}

	if !matchWhere(t, q.Where) {
		return false, nil
	}

	if q.And != nil {
		for _, sub := range q.And {
			ok, err := Matches(t, sub)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	if q.Or != nil {
		matched := false
		for _, sub := range q.Or {
			ok, err := Matches(t, sub)
			if err != nil {
				return false, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}

	return true, nil
}

// matchWhere evaluates plain clauses as a conjunction.
func matchWhere(t tags.Map, where map[string]tags.Value) bool {
	for key, want := range where {
		if want == nil {
			continue
		}
		if !matchClause(t[key], want) {
			return false
		}
	}
	return true
}

// matchClause applies array containment for Array clauses and exact
// equality otherwise.
func matchClause(got, want tags.Value) bool {
	if wantArr, ok := want.(tags.Array); ok {
		gotArr, ok := got.(tags.Array)
		if !ok {
			return false
		}
		return gotArr.ContainsAll(wantArr)
	}
	return tags.Equal(got, want)
}

// Validate walks the whole query tree and returns ErrUnsupported if any
// node uses $not. Matches stops at the first failing clause, so a $not
// nested under a mismatching node would otherwise go unnoticed.
func Validate(q Query) error {
	return validate(q, "query")
}

func validate(q Query, path string) error {
	if q.Not != nil {
		return fmt.Errorf("%s.%s: %w", path, KeyNot, ErrUnsupported)
	}
	for i, sub := range q.And {
		if err := validate(sub, fmt.Sprintf("%s.%s[%d]", path, KeyAnd, i)); err != nil {
			return err
		}
	}
	for i, sub := range q.Or {
		if err := validate(sub, fmt.Sprintf("%s.%s[%d]", path, KeyOr, i)); err != nil {
			return err
		}
	}
	return nil
}
