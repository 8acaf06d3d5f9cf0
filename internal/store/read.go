package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tagstore/internal/query"
	"github.com/roach88/tagstore/internal/record"
)

// GetByID returns the record with the given id decoded as class.
// Returns an error with CodeRecordNotFound if no row matches.
func (s *Store) GetByID(ctx context.Context, class record.Class, id string) (record.Record, error) {
	var row Row
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, value, tags
		FROM records
		WHERE id = ?
	`, id).Scan(&row.ID, &row.Type, &row.Value, &row.Tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, newNotFoundError(id, class.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}

	return Decode(row, class)
}

// GetAll returns every record of the class's type in insertion order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) GetAll(ctx context.Context, class record.Class) ([]record.Record, error) {
	rows, err := s.readType(ctx, class.Type)
	if err != nil {
		return nil, err
	}

	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := Decode(row, class)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindByQuery returns the records of the class's type whose tags match q,
// after applying opts to the filtered results.
//
// The query is validated before the table is read: any $not anywhere in
// q fails with CodeQueryUnsupported. Negative limits or offsets fail with
// query.ErrInvalidOptions.
func (s *Store) FindByQuery(ctx context.Context, class record.Class, q query.Query, opts query.Options) ([]record.Record, error) {
	if err := query.Validate(q); err != nil {
		return nil, newQueryUnsupportedError(class.Type, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	rows, err := s.readType(ctx, class.Type)
	if err != nil {
		return nil, err
	}

	matched := make([]storedRecord, 0, len(rows))
	for _, row := range rows {
		sr, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		ok, err := query.Matches(sr.tags, q)
		if err != nil {
			return nil, newQueryUnsupportedError(class.Type, err)
		}
		if ok {
			matched = append(matched, sr)
		}
	}

	page := query.Paginate(matched, opts)
	out := make([]record.Record, 0, len(page))
	for _, sr := range page {
		rec, err := sr.instance(class)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	s.logger.Debug("query evaluated",
		"type", class.Type,
		"match_all", q.IsEmpty(),
		"scanned", len(rows),
		"matched", len(matched),
		"returned", len(out),
	)
	return out, nil
}

// readType returns every row of a type ordered by rowid, i.e. insertion
// order.
func (s *Store) readType(ctx context.Context, recordType string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, value, tags
		FROM records
		WHERE type = ?
		ORDER BY rowid ASC
	`, recordType)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Type, &row.Value, &row.Tags); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return out, nil
}
