package store

import (
	"context"
	"fmt"

	"github.com/roach88/tagstore/internal/query"
	"github.com/roach88/tagstore/internal/record"
)

// Collection is a typed view of one record type in a Store.
type Collection[T record.Record] struct {
	store *Store
	class record.Class
}

// NewCollection returns a Collection for records of type recordType,
// constructed with newFn when decoding.
func NewCollection[T record.Record](s *Store, recordType string, newFn func() T) *Collection[T] {
	return &Collection[T]{
		store: s,
		class: record.Class{
			Type: recordType,
			New:  func() record.Record { return newFn() },
		},
	}
}

// Class returns the record class backing the collection.
func (c *Collection[T]) Class() record.Class {
	return c.class
}

func (c *Collection[T]) Save(ctx context.Context, rec T) error {
	return c.store.Save(ctx, rec)
}

func (c *Collection[T]) Update(ctx context.Context, rec T) error {
	return c.store.Update(ctx, rec)
}

func (c *Collection[T]) Delete(ctx context.Context, rec T) error {
	return c.store.Delete(ctx, rec)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	return c.store.DeleteByID(ctx, c.class, id)
}

// GetByID returns the record with the given id.
func (c *Collection[T]) GetByID(ctx context.Context, id string) (T, error) {
	var zero T
	rec, err := c.store.GetByID(ctx, c.class, id)
	if err != nil {
		return zero, err
	}
	return c.cast(rec)
}

// GetAll returns every record in the collection in insertion order.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	recs, err := c.store.GetAll(ctx, c.class)
	if err != nil {
		return nil, err
	}
	return c.castAll(recs)
}

// Find returns the records matching q, paginated by opts.
func (c *Collection[T]) Find(ctx context.Context, q query.Query, opts query.Options) ([]T, error) {
	recs, err := c.store.FindByQuery(ctx, c.class, q, opts)
	if err != nil {
		return nil, err
	}
	return c.castAll(recs)
}

func (c *Collection[T]) cast(rec record.Record) (T, error) {
	typed, ok := rec.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("collection %s: decoded %T, want %T", c.class.Type, rec, zero)
	}
	return typed, nil
}

func (c *Collection[T]) castAll(recs []record.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		typed, err := c.cast(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}
