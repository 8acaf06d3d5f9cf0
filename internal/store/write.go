package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
)

// Save inserts a new record.
//
// Save stamps updatedAt with the current time, merges the created_at and
// updated_at tags into the record's own tags and persists both. If the
// record's tags cannot be read, only the two timestamp tags are stored.
//
// Returns an error with CodeRecordDuplicate if a row with the same id
// already exists, whatever its type.
func (s *Store) Save(ctx context.Context, rec record.Record) error {
	now := s.clock.Now()
	rec.SetUpdatedAt(now)

	own, err := rec.Tags()
	if err != nil {
		s.logger.Warn("record tags unreadable, saving timestamp tags only",
			"id", rec.ID(),
			"type", rec.Type(),
			"error", err,
		)
		own = tags.Map{}
	}
	merged := own.Merge(timestampTags(rec, now))
	rec.SetTags(merged)

	row, err := Encode(rec, merged)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, type, value, tags)
		VALUES (?, ?, ?, ?)
	`, row.ID, row.Type, row.Value, row.Tags)
	if err != nil {
		if isUniqueViolation(err) {
			return newDuplicateError(row.ID, row.Type, err)
		}
		return fmt.Errorf("save record %s: %w", row.ID, err)
	}

	s.logger.Debug("record saved", "id", row.ID, "type", row.Type)
	return nil
}

// Update rewrites the value and tags of an existing record by id.
//
// Update stamps updatedAt and refreshes the updated_at tag. It does not
// check that the record exists: updating a missing id changes nothing and
// returns nil.
func (s *Store) Update(ctx context.Context, rec record.Record) error {
	now := s.clock.Now()
	rec.SetUpdatedAt(now)

	own, err := rec.Tags()
	if err != nil {
		return fmt.Errorf("update record %s: read tags: %w", rec.ID(), err)
	}
	refresh := tags.Map{tags.KeyUpdatedAt: tags.Timestamp(now)}
	if _, ok := own[tags.KeyCreatedAt]; !ok {
		refresh[tags.KeyCreatedAt] = timestampTags(rec, now)[tags.KeyCreatedAt]
	}
	merged := own.Merge(refresh)
	rec.SetTags(refresh)

	row, err := Encode(rec, merged)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET value = ?, tags = ?
		WHERE id = ?
	`, row.Value, row.Tags, row.ID)
	if err != nil {
		return fmt.Errorf("update record %s: %w", row.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug("update matched no record", "id", row.ID, "type", row.Type)
	}
	return nil
}

// Delete removes a record by its id. Deleting a missing record is a no-op.
func (s *Store) Delete(ctx context.Context, rec record.Record) error {
	return s.deleteByID(ctx, rec.Type(), rec.ID())
}

// DeleteByID removes the record with the given id. Deleting a missing
// record is a no-op.
func (s *Store) DeleteByID(ctx context.Context, class record.Class, id string) error {
	return s.deleteByID(ctx, class.Type, id)
}

func (s *Store) deleteByID(ctx context.Context, recordType, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug("delete matched no record", "id", id, "type", recordType)
	}
	return nil
}

// timestampTags derives created_at and updated_at for rec. A zero
// createdAt falls back to now.
func timestampTags(rec record.Record, now time.Time) tags.Map {
	created := rec.CreatedAt()
	if created.IsZero() {
		created = now
	}
	return tags.Map{
		tags.KeyCreatedAt: tags.Timestamp(created),
		tags.KeyUpdatedAt: tags.Timestamp(now),
	}
}
