package query

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned for negative limit or offset values.
var ErrInvalidOptions = errors.New("invalid query options")

// Options controls pagination of query results. Both fields apply after
// filtering, over the filtered results in table order.
type Options struct {
	// Limit caps the number of results. Nil means unlimited.
	Limit *int

	// Offset skips this many filtered results before Limit applies.
	Offset int
}

// WithLimit returns Options with the given limit and offset.
func WithLimit(limit, offset int) Options {
	return Options{Limit: &limit, Offset: offset}
}

// Validate rejects negative values.
func (o Options) Validate() error {
	if o.Offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidOptions, o.Offset)
	}
	if o.Limit != nil && *o.Limit < 0 {
		return fmt.Errorf("%w: limit %d is negative", ErrInvalidOptions, *o.Limit)
	}
	return nil
}

// Paginate applies Offset then Limit to items. Out-of-range offsets yield
// an empty slice. Options are assumed valid.
func Paginate[T any](items []T, o Options) []T {
	start := min(max(o.Offset, 0), len(items))
	end := len(items)
	if o.Limit != nil {
		if n := max(*o.Limit, 0); n < end-start {
			end = start + n
		}
	}
	return items[start:end]
}
