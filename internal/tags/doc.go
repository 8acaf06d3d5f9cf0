// Package tags provides the tag-value types attached to stored records.
//
// A tag is a denormalized attribute used for querying a record without
// decoding its full value payload. A tag value is either a scalar
// (String, Number, Bool) or an ordered Array of scalars. Nothing else is
// representable: JSON null, nested objects and nested arrays are rejected
// when decoding and cannot be constructed in Go.
//
// This package imports nothing internal. The record, query and store
// packages all build on it.
package tags
