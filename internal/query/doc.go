// Package query evaluates boolean tag queries against record tag maps.
//
// A Query node is made of:
//   - Where: plain key/value clauses, implicitly AND-ed together
//   - And: sub-queries that must all match
//   - Or: sub-queries of which at least one must match
//   - Not: negation, which this engine rejects with ErrUnsupported
//
// Clause semantics:
//   - A nil clause value places no constraint on its key.
//   - An Array clause value matches when the tag at that key is an Array
//     containing every element of the clause (subset containment).
//   - Any other clause value matches only an identical tag value; no type
//     coercion is performed, so String("1") never matches Number(1).
//
// Combinator asymmetry:
//   - A nil And or Or is absent and places no constraint.
//   - An empty And matches (every-of-none is true).
//   - An empty non-nil Or matches nothing (some-of-none is false).
//
// The JSON form mirrors the structure: plain members are clauses and the
// reserved members $and, $or and $not hold the combinators. JSON null
// anywhere means "absent".
//
// Evaluation is pure and synchronous; nothing here touches storage.
package query
