package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagstore/internal/store"
)

// decodeRecords parses a JSON CLIResponse whose data is a record list.
func decodeRecords(t *testing.T, out string) []RecordView {
	t.Helper()
	var resp struct {
		Status string       `json:"status"`
		Data   []RecordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func recordIDs(views []RecordView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestFind_TextGolden(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	out := h.mustRun("find", "Conn", "--query", `{"roles":["x"]}`)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "find_roles_x", []byte(out))
}

func TestFind_ConnScenario(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"state active", `{"state":"active"}`, []string{"1"}},
		{"roles x and y", `{"roles":["x","y"]}`, []string{"2"}},
		{"either state", `{"$or":[{"state":"active"},{"state":"done"}]}`, []string{"1", "2"}},
		{"empty or", `{"$or":[]}`, []string{}},
		{"empty and", `{"$and":[]}`, []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := h.mustRun("--format", "json", "find", "Conn", "--query", tt.query)
			assert.Equal(t, tt.want, recordIDs(decodeRecords(t, out)))
		})
	}
}

func TestFind_Pagination(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	out := h.mustRun("--format", "json", "find", "Conn", "--offset", "1", "--limit", "1")
	assert.Equal(t, []string{"2"}, recordIDs(decodeRecords(t, out)))

	out = h.mustRun("--format", "json", "find", "Conn", "--limit", "0")
	assert.Empty(t, decodeRecords(t, out))
}

func TestFind_Errors(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	_, err := h.run("find", "Conn", "--query", `{"$not":{"state":"active"}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, store.IsQueryUnsupported(err))

	_, err = h.run("find", "Conn", "--query", `{"$not":true}`)
	require.Error(t, err)
	assert.True(t, store.IsQueryUnsupported(err))

	out, err := h.run("--format", "json", "find", "Conn", "--offset", "1", "--limit", "9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, recordIDs(decodeRecords(t, out)))

	_, err = h.run("find", "Conn", "--query", `not json`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --query")

	_, err = h.run("find", "Conn", "--offset=-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestFind_JSONErrorResponse(t *testing.T) {
	h := newCLIHarness(t)

	out, err := h.run("--format", "json", "find", "Conn", "--query", `{"$not":{}}`)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeQueryUnsupported, resp.Error.Code)
}

func TestSave_GeneratesUUIDv7(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("--format", "json", "save", "Note", "--value", `{"text":"hi"}`)

	var resp struct {
		Data RecordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	id, err := uuid.Parse(resp.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, "Note", resp.Data.Type)
	assert.JSONEq(t, `{"text":"hi"}`, string(resp.Data.Value))
}

func TestSave_IDFromValue(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("--format", "json", "save", "Note", "--value", `{"id":"n1","text":"hi"}`)

	var resp struct {
		Data RecordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "n1", resp.Data.ID)
	assert.JSONEq(t, `{"text":"hi"}`, string(resp.Data.Value))
}

func TestSave_Errors(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	_, err := h.run("save", "Other", "--id", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, store.IsDuplicate(err))

	_, err = h.run("save", "Conn", "--tags", `{"k":{"nested":1}}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.run("save", "Conn", "--value", `[1,2]`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --value")
}

func TestGet(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	out := h.mustRun("get", "Conn", "2")
	assert.True(t, strings.HasPrefix(out, "2\tConn\t"), out)
	assert.Contains(t, out, `"roles":["x","y"]`)

	_, err := h.run("get", "Conn", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, store.IsNotFound(err))
}

func TestList(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("list", "Conn")
	assert.Equal(t, "No records found.\n", out)

	h.seedConns()
	out = h.mustRun("--format", "json", "list", "Conn")
	assert.Equal(t, []string{"1", "2"}, recordIDs(decodeRecords(t, out)))
}

func TestCount(t *testing.T) {
	h := newCLIHarness(t)

	assert.Equal(t, "Conn: 0\n", h.mustRun("count", "Conn"))

	h.seedConns()
	h.mustRun("save", "Other", "--id", "3", "--value", `{}`)
	assert.Equal(t, "Conn: 2\n", h.mustRun("count", "Conn"))

	out := h.mustRun("--format", "json", "count", "Other")
	assert.JSONEq(t, `{"status":"ok","data":{"type":"Other","count":1}}`, out)

	h.mustRun("delete", "Conn", "1")
	assert.Equal(t, "Conn: 1\n", h.mustRun("count", "Conn"))
}

func TestUpdate(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	h.mustRun("update", "Conn", "1", "--tags", `{"state":"done"}`, "--value", `{"label":"renamed"}`)

	out := h.mustRun("--format", "json", "get", "Conn", "1")
	var resp struct {
		Data RecordView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "done", mustString(t, resp.Data, "state"))
	assert.Equal(t, "2024-01-01T00:00:04.000Z", mustString(t, resp.Data, "updated_at"))
	assert.Equal(t, "2024-01-01T00:00:00.000Z", mustString(t, resp.Data, "created_at"))
	assert.JSONEq(t, `{"label":"renamed"}`, string(resp.Data.Value))

	out = h.mustRun("--format", "json", "find", "Conn", "--query", `{"state":"done"}`)
	assert.Equal(t, []string{"1", "2"}, recordIDs(decodeRecords(t, out)))
}

func TestUpdate_ReplaceTags(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	h.mustRun("update", "Conn", "2", "--tags", `{"state":"archived"}`, "--replace-tags")

	out := h.mustRun("--format", "json", "find", "Conn", "--query", `{"roles":["x"]}`)
	assert.Equal(t, []string{"1"}, recordIDs(decodeRecords(t, out)))
}

func TestUpdate_Missing(t *testing.T) {
	h := newCLIHarness(t)

	_, err := h.run("update", "Conn", "ghost", "--tags", `{"a":1}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestDelete(t *testing.T) {
	h := newCLIHarness(t)
	h.seedConns()

	out := h.mustRun("delete", "Conn", "1")
	assert.Equal(t, "Deleted Conn/1\n", out)

	out = h.mustRun("delete", "Conn", "1")
	assert.Equal(t, "Deleted Conn/1\n", out, "deleting a missing record succeeds")

	out = h.mustRun("--format", "json", "list", "Conn")
	assert.Equal(t, []string{"2"}, recordIDs(decodeRecords(t, out)))
}

func TestModerncDriver(t *testing.T) {
	h := newCLIHarness(t)

	h.mustRun("--driver", "sqlite", "save", "Conn", "--id", "1", "--tags", `{"state":"active"}`)
	out := h.mustRun("--driver", "sqlite", "--format", "json", "find", "Conn", "--query", `{"state":"active"}`)
	assert.Equal(t, []string{"1"}, recordIDs(decodeRecords(t, out)))
}

func mustString(t *testing.T, v RecordView, key string) string {
	t.Helper()
	val, ok := v.Tags[key]
	require.True(t, ok, "tag %q missing", key)
	b, err := json.Marshal(val)
	require.NoError(t, err)
	var s string
	require.NoError(t, json.Unmarshal(b, &s))
	return s
}
