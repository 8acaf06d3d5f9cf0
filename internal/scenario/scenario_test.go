package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagstore/internal/store"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/conn_lookup.yaml")
	require.NoError(t, err)

	assert.Equal(t, "conn_lookup", sc.Name)
	require.Len(t, sc.Records, 2)
	assert.Equal(t, "Conn", sc.Records[0].Type)
	assert.Equal(t, "1", sc.Records[0].ID)
	assert.Equal(t, []any{"x"}, sc.Records[0].Tags["roles"])
	require.Len(t, sc.Queries, 3)
	assert.Equal(t, []string{"1", "2"}, sc.Queries[2].Expect)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nquerys: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: y\nqueries: [{name: q, type: T}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nqueries: [{name: q, type: T}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no queries",
			content: "name: x\ndescription: y\n",
			wantErr: "queries list is required",
		},
		{
			name:    "record without type",
			content: "name: x\ndescription: y\nrecords: [{id: a}]\nqueries: [{name: q, type: T}]\n",
			wantErr: "records[0]: type is required",
		},
		{
			name:    "query without type",
			content: "name: x\ndescription: y\nqueries: [{name: q}]\n",
			wantErr: "queries[0]: type is required",
		},
		{
			name:    "unknown error kind",
			content: "name: x\ndescription: y\nqueries: [{name: q, type: T, expect_error: boom}]\n",
			wantErr: "unknown expect_error",
		},
		{
			name:    "expect and expect_error",
			content: "name: x\ndescription: y\nqueries: [{name: q, type: T, expect: [a], expect_error: duplicate}]\n",
			wantErr: "exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestRun_ConnLookupGolden(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/conn_lookup.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, sc)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures())
}

func TestRun_Combinators(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/combinators.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures())
	assert.Len(t, result.Steps, len(sc.Records)+len(sc.Queries))
}

func TestRun_ModerncDriver(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/combinators.yaml")
	require.NoError(t, err)

	result, err := NewRunner(store.WithDriver(store.DriverModernc)).Run(context.Background(), sc)
	require.NoError(t, err)
	assert.True(t, result.Passed, "failures: %v", result.Failures())
}

func TestRun_ReportsMismatches(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: mismatch
description: Every expectation is wrong
records:
  - type: T
    id: a
    tags: {k: v}
    expect_error: duplicate
queries:
  - name: wrong_ids
    type: T
    query: {k: v}
    expect: [b]
  - name: wrong_error
    type: T
    expect_error: query_unsupported
  - name: unexpected_error
    type: T
    query:
      $not: {k: v}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, []string{
		"save T/a: expected duplicate error, got success",
		"query wrong_ids: expected ids [b], got [a]",
		"query wrong_error: expected query_unsupported error, got success",
		"query unexpected_error: unexpected error: QUERY_UNSUPPORTED: query.$not: $not query is not supported (type=T)",
	}, result.Failures())
}

func TestRun_InvalidTags(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: bad_tags
description: Nested objects are not tag values
records:
  - type: T
    id: a
    tags:
      k: {nested: true}
queries:
  - name: q
    type: T
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records[0]")
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, KindError, ErrorKind(assert.AnError))
}
