package store

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
	"github.com/roach88/tagstore/internal/testutil"
)

// createTestStore creates a new store in a temp directory with a
// deterministic clock and discarded logs.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	base := []Option{
		WithClock(testutil.NewDeterministicClock()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	s, err := Open(path, append(base, opts...)...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testCreatedAt = time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)

// connRecord is a minimal application record of type "Conn".
type connRecord struct {
	record.Base
	Label string `json:"label"`
}

func (*connRecord) Type() string { return "Conn" }

var connClass = record.Class{
	Type: "Conn",
	New:  func() record.Record { return &connRecord{} },
}

// createTestConn creates a Conn record with the given id and tags.
func createTestConn(id string, t tags.Map) *connRecord {
	rec := &connRecord{Base: record.NewBase(id, testCreatedAt), Label: "conn-" + id}
	rec.ReplaceTags(t)
	return rec
}

// otherRecord shares the table with connRecord under a different type.
type otherRecord struct {
	record.Base
}

func (*otherRecord) Type() string { return "Other" }

var otherClass = record.Class{
	Type: "Other",
	New:  func() record.Record { return &otherRecord{} },
}

var errTagsUnavailable = errors.New("tags unavailable")

// brokenTagsRecord fails to derive its tags.
type brokenTagsRecord struct {
	record.Base
}

func (*brokenTagsRecord) Type() string { return "Broken" }

func (*brokenTagsRecord) Tags() (tags.Map, error) {
	return nil, errTagsUnavailable
}

// embeddedTagsRecord serializes its own tags into the value payload under
// _tags, the way some record serializers do.
type embeddedTagsRecord struct {
	record.Base
}

func (*embeddedTagsRecord) Type() string { return "Embedded" }

func (r *embeddedTagsRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID   string   `json:"id"`
		Tags tags.Map `json:"_tags"`
	}{ID: r.ID(), Tags: r.OwnTags()})
}

// rawTags reads the tags column of a row directly.
func rawTags(t *testing.T, s *Store, id string) string {
	t.Helper()
	var raw string
	if err := s.db.QueryRow(`SELECT tags FROM records WHERE id = ?`, id).Scan(&raw); err != nil {
		t.Fatalf("read tags for %s: %v", id, err)
	}
	return raw
}

// rawValue reads the value column of a row directly.
func rawValue(t *testing.T, s *Store, id string) string {
	t.Helper()
	var raw string
	if err := s.db.QueryRow(`SELECT value FROM records WHERE id = ?`, id).Scan(&raw); err != nil {
		t.Fatalf("read value for %s: %v", id, err)
	}
	return raw
}

// ids returns the ids of recs in order.
func ids(recs []record.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID())
	}
	return out
}
