package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
	"github.com/roach88/tagstore/internal/testutil"
)

func TestSave_PersistsTagsWithTimestamps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestConn("1", tags.Map{
		"state": tags.String("active"),
		"roles": tags.Strings("x"),
	})
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t,
		`{"created_at":"2023-12-31T23:00:00.000Z","roles":["x"],"state":"active","updated_at":"2024-01-01T00:00:00.000Z"}`,
		rawTags(t, s, "1"))
}

func TestSave_MirrorsTagsOntoRecord(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestConn("1", tags.Map{"state": tags.String("active")})
	require.NoError(t, s.Save(ctx, rec))

	got, err := rec.Tags()
	require.NoError(t, err)
	assert.Equal(t, tags.String("2023-12-31T23:00:00.000Z"), got[tags.KeyCreatedAt])
	assert.Equal(t, tags.String("2024-01-01T00:00:00.000Z"), got[tags.KeyUpdatedAt])
	assert.Equal(t, tags.String("active"), got["state"])
	assert.True(t, rec.UpdatedAt().Equal(testutil.DefaultEpoch))
}

func TestSave_ZeroCreatedAtUsesNow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &connRecord{Base: record.NewBase("1", time.Time{})}
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t,
		`{"created_at":"2024-01-01T00:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z"}`,
		rawTags(t, s, "1"))
}

func TestSave_TagReadFailureFallsBackToTimestamps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &brokenTagsRecord{Base: record.NewBase("b1", testCreatedAt)}
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t,
		`{"created_at":"2023-12-31T23:00:00.000Z","updated_at":"2024-01-01T00:00:00.000Z"}`,
		rawTags(t, s, "b1"))
}

func TestSave_StripsEmbeddedTagsFromValue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &embeddedTagsRecord{Base: record.NewBase("e1", testCreatedAt)}
	rec.ReplaceTags(tags.Map{"k": tags.String("v")})
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t, `{"id":"e1"}`, rawValue(t, s, "e1"))
	assert.Contains(t, rawTags(t, s, "e1"), `"k":"v"`)
}

func TestSave_DuplicateIDAcrossTypes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, createTestConn("1", tags.Map{"state": tags.String("active")})))
	before := rawTags(t, s, "1")

	other := &otherRecord{Base: record.NewBase("1", testCreatedAt)}
	err := s.Save(ctx, other)
	require.Error(t, err)
	assert.True(t, IsDuplicate(err), "expected duplicate error, got %v", err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "1", se.RecordID)
	assert.Equal(t, "Other", se.RecordType)

	got, err := s.GetByID(ctx, connClass, "1")
	require.NoError(t, err)
	conn := got.(*connRecord)
	assert.Equal(t, "conn-1", conn.Label)
	assert.Equal(t, before, rawTags(t, s, "1"))
}

func TestSave_DuplicateIDSameType(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, createTestConn("1", nil)))
	err := s.Save(ctx, createTestConn("1", nil))
	assert.True(t, IsDuplicate(err), "expected duplicate error, got %v", err)
}

func TestUpdate_RewritesValueAndRefreshesUpdatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestConn("1", tags.Map{
		"state": tags.String("active"),
		"roles": tags.Strings("x"),
	})
	require.NoError(t, s.Save(ctx, rec))

	rec.Label = "renamed"
	rec.SetTags(tags.Map{"state": tags.String("done")})
	require.NoError(t, s.Update(ctx, rec))

	assert.Equal(t,
		`{"created_at":"2023-12-31T23:00:00.000Z","roles":["x"],"state":"done","updated_at":"2024-01-01T00:00:01.000Z"}`,
		rawTags(t, s, "1"))

	got, err := s.GetByID(ctx, connClass, "1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.(*connRecord).Label)
	assert.True(t, got.UpdatedAt().Equal(testutil.DefaultEpoch.Add(time.Second)))
}

func TestUpdate_RestoresMissingCreatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestConn("1", nil)
	require.NoError(t, s.Save(ctx, rec))

	rec.ReplaceTags(tags.Map{"state": tags.String("done")})
	require.NoError(t, s.Update(ctx, rec))

	assert.Equal(t,
		`{"created_at":"2023-12-31T23:00:00.000Z","state":"done","updated_at":"2024-01-01T00:00:01.000Z"}`,
		rawTags(t, s, "1"))
}

func TestUpdate_MissingIDIsNoOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, createTestConn("ghost", nil)))

	n, err := s.Count(ctx, "Conn")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdate_TagReadFailureIsReturned(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &brokenTagsRecord{Base: record.NewBase("b1", testCreatedAt)}
	require.NoError(t, s.Save(ctx, rec))

	err := s.Update(ctx, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, errTagsUnavailable)
}

func TestUpdate_StripsEmbeddedTagsFromValue(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &embeddedTagsRecord{Base: record.NewBase("e1", testCreatedAt)}
	require.NoError(t, s.Save(ctx, rec))
	rec.SetTags(tags.Map{"k": tags.String("v2")})
	require.NoError(t, s.Update(ctx, rec))

	assert.Equal(t, `{"id":"e1"}`, rawValue(t, s, "e1"))
	assert.Contains(t, rawTags(t, s, "e1"), `"k":"v2"`)
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestConn("1", nil)
	require.NoError(t, s.Save(ctx, rec))
	require.NoError(t, s.Delete(ctx, rec))

	_, err := s.GetByID(ctx, connClass, "1")
	assert.True(t, IsNotFound(err), "expected not found, got %v", err)
}

func TestDelete_MissingIsNoOp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.Delete(ctx, createTestConn("ghost", nil)))
	assert.NoError(t, s.DeleteByID(ctx, connClass, "ghost"))
}

func TestDeleteByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, createTestConn("1", nil)))
	require.NoError(t, s.Save(ctx, createTestConn("2", nil)))
	require.NoError(t, s.DeleteByID(ctx, connClass, "1"))

	all, err := s.GetAll(ctx, connClass)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(all))
}
