package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
)

// tagsField is the member some record serializers embed their tag map
// under. It is stripped from value payloads; tags live in their own column.
const tagsField = "_tags"

// Row is the persisted form of a record.
type Row struct {
	ID    string
	Type  string
	Value string // JSON-encoded record payload
	Tags  string // JSON-encoded tag map
}

// Encode converts a record and its tag map to a Row. The value payload is
// the record's JSON form without any embedded tag map.
func Encode(rec record.Record, t tags.Map) (Row, error) {
	value, err := marshalValue(rec)
	if err != nil {
		return Row{}, fmt.Errorf("encode record %s: %w", rec.ID(), err)
	}

	tagsJSON, err := t.MarshalJSON()
	if err != nil {
		return Row{}, fmt.Errorf("encode record %s: marshal tags: %w", rec.ID(), err)
	}

	return Row{
		ID:    rec.ID(),
		Type:  rec.Type(),
		Value: value,
		Tags:  string(tagsJSON),
	}, nil
}

// Decode builds a record of the given class from a row. The row's id and
// tags are authoritative and replace whatever the value payload carried.
func Decode(row Row, class record.Class) (record.Record, error) {
	t, err := tags.ParseMap(row.Tags)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", row.ID, err)
	}
	return instantiate(row, t, class)
}

// storedRecord is a row with its tags decoded but its value still encoded,
// so queries can filter on tags before paying for a full decode.
type storedRecord struct {
	row  Row
	tags tags.Map
}

func decodeRow(row Row) (storedRecord, error) {
	t, err := tags.ParseMap(row.Tags)
	if err != nil {
		return storedRecord{}, fmt.Errorf("decode record %s: %w", row.ID, err)
	}
	return storedRecord{row: row, tags: t}, nil
}

func (sr storedRecord) instance(class record.Class) (record.Record, error) {
	return instantiate(sr.row, sr.tags, class)
}

func instantiate(row Row, t tags.Map, class record.Class) (record.Record, error) {
	if class.New == nil {
		return nil, fmt.Errorf("decode record %s: class %q has no constructor", row.ID, class.Type)
	}
	if !gjson.Valid(row.Value) {
		return nil, fmt.Errorf("decode record %s: value is not valid JSON", row.ID)
	}

	inst := class.New()
	if err := json.Unmarshal([]byte(row.Value), inst); err != nil {
		return nil, fmt.Errorf("decode record %s: unmarshal value: %w", row.ID, err)
	}
	inst.SetID(row.ID)
	inst.ReplaceTags(t)
	return inst, nil
}

// marshalValue encodes rec with HTML escaping disabled and strips the
// _tags member if the record's serializer wrote one.
func marshalValue(rec record.Record) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	value := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if !gjson.ParseBytes(value).IsObject() {
		return "", fmt.Errorf("marshal value: record must encode to a JSON object")
	}

	if gjson.GetBytes(value, tagsField).Exists() {
		stripped, err := sjson.DeleteBytes(value, tagsField)
		if err != nil {
			return "", fmt.Errorf("strip %s: %w", tagsField, err)
		}
		value = stripped
	}
	return string(value), nil
}
