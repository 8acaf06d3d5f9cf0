package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Generic is a record whose type discriminator is chosen at runtime and
// whose payload is an arbitrary JSON object. It lets tools store and read
// records without a compiled Go type for each collection.
//
// The value payload is Data with the id, createdAt and updatedAt members
// written on top.
type Generic struct {
	Base

	Kind string
	Data json.RawMessage
}

// NewGeneric creates a Generic record of the given kind.
func NewGeneric(kind, id string, data json.RawMessage, createdAt time.Time) *Generic {
	return &Generic{Base: NewBase(id, createdAt), Kind: kind, Data: data}
}

// GenericClass returns the Class for Generic records of the given kind.
func GenericClass(kind string) Class {
	return Class{
		Type: kind,
		New:  func() Record { return &Generic{Kind: kind} },
	}
}

// Type returns the runtime discriminator.
func (g *Generic) Type() string { return g.Kind }

// MarshalJSON writes Data with the base fields set on top of it.
func (g *Generic) MarshalJSON() ([]byte, error) {
	out := []byte(g.Data)
	if len(out) == 0 {
		out = []byte("{}")
	}
	if !gjson.ValidBytes(out) || !gjson.ParseBytes(out).IsObject() {
		return nil, fmt.Errorf("generic record %q: data must be a JSON object", g.RecordID)
	}

	var err error
	if out, err = sjson.SetBytes(out, "id", g.RecordID); err != nil {
		return nil, fmt.Errorf("set id: %w", err)
	}
	if out, err = sjson.SetBytes(out, "createdAt", g.Created); err != nil {
		return nil, fmt.Errorf("set createdAt: %w", err)
	}
	if out, err = sjson.SetBytes(out, "updatedAt", g.Updated); err != nil {
		return nil, fmt.Errorf("set updatedAt: %w", err)
	}
	return out, nil
}

// UnmarshalJSON reads the base fields and keeps the remaining members as
// Data.
func (g *Generic) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("generic record: invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("generic record: value must be a JSON object")
	}

	g.RecordID = doc.Get("id").String()
	if v := doc.Get("createdAt"); v.Exists() {
		if err := g.Created.UnmarshalJSON([]byte(v.Raw)); err != nil {
			return fmt.Errorf("generic record createdAt: %w", err)
		}
	}
	if v := doc.Get("updatedAt"); v.Exists() {
		if err := g.Updated.UnmarshalJSON([]byte(v.Raw)); err != nil {
			return fmt.Errorf("generic record updatedAt: %w", err)
		}
	}

	rest := append([]byte(nil), data...)
	for _, key := range []string{"id", "createdAt", "updatedAt"} {
		var err error
		if rest, err = sjson.DeleteBytes(rest, key); err != nil {
			return fmt.Errorf("generic record: strip %s: %w", key, err)
		}
	}
	g.Data = rest
	return nil
}
