// Package record defines the record capability the store persists.
//
// A Record has a caller-supplied id, a class-level type discriminator, a
// JSON-serializable value payload and a tag map. Tags may be derived by the
// concrete record type (by overriding Tags) and are persisted separately
// from the value payload so they can be queried without decoding it.
//
// Base implements everything except Type and is meant to be embedded.
package record

import (
	"time"

	"github.com/roach88/tagstore/internal/tags"
)

// Record is the contract between the store and application record types.
type Record interface {
	ID() string
	SetID(id string)

	// Type is the discriminator grouping records into a logical collection.
	Type() string

	// Tags returns the record's full tag map, including any derived tags.
	// Implementations may fail, e.g. when a derived tag cannot be computed.
	Tags() (tags.Map, error)

	// SetTags merges t into the record's tags.
	SetTags(t tags.Map)

	// ReplaceTags discards the record's tags and uses t instead.
	ReplaceTags(t tags.Map)

	CreatedAt() time.Time
	UpdatedAt() time.Time
	SetUpdatedAt(t time.Time)
}

// Class describes a record type: its discriminator and how to construct an
// empty instance to decode into.
type Class struct {
	Type string
	New  func() Record
}

// Base holds the fields common to every record. Embed it in a concrete
// record struct and add a Type method.
//
// Tags are unexported so they never appear in the JSON value payload.
type Base struct {
	RecordID string    `json:"id"`
	Created  time.Time `json:"createdAt"`
	Updated  time.Time `json:"updatedAt"`

	tags tags.Map
}

// NewBase returns a Base with the given id, created at the given time.
func NewBase(id string, createdAt time.Time) Base {
	return Base{RecordID: id, Created: createdAt}
}

func (b *Base) ID() string           { return b.RecordID }
func (b *Base) SetID(id string)      { b.RecordID = id }
func (b *Base) CreatedAt() time.Time { return b.Created }
func (b *Base) UpdatedAt() time.Time { return b.Updated }

func (b *Base) SetUpdatedAt(t time.Time) { b.Updated = t }

// Tags returns a copy of the record's own tags. It never fails; record
// types with derived tags override it.
func (b *Base) Tags() (tags.Map, error) {
	if b.tags == nil {
		return tags.Map{}, nil
	}
	return b.tags.Clone(), nil
}

// SetTags merges t into the existing tags.
func (b *Base) SetTags(t tags.Map) {
	if b.tags == nil {
		b.tags = tags.Map{}
	}
	for k, v := range t {
		b.tags[k] = v
	}
}

// ReplaceTags replaces the existing tags with a copy of t.
func (b *Base) ReplaceTags(t tags.Map) {
	b.tags = t.Clone()
}

// OwnTags returns the stored tags without any derived tags. Record types
// that override Tags use it to get at the base map.
func (b *Base) OwnTags() tags.Map {
	if b.tags == nil {
		return tags.Map{}
	}
	return b.tags.Clone()
}
