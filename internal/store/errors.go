package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrorCode categorizes storage errors.
type ErrorCode string

const (
	// CodeRecordDuplicate indicates an insert collided with an existing id.
	CodeRecordDuplicate ErrorCode = "RECORD_DUPLICATE"

	// CodeRecordNotFound indicates GetByID found no row for the id.
	CodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	// CodeQueryUnsupported indicates the query used the $not combinator.
	CodeQueryUnsupported ErrorCode = "QUERY_UNSUPPORTED"
)

// Error is a classified storage error. Table failures that are not
// classified are returned wrapped with context but never as *Error.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// RecordID and RecordType identify the affected record, when known.
	RecordID   string
	RecordType string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RecordType != "" {
		return fmt.Sprintf("%s: %s (type=%s)", e.Code, e.Message, e.RecordType)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsDuplicate returns true if err is a duplicate-id error.
// Uses errors.As to handle wrapped errors.
func IsDuplicate(err error) bool {
	return hasCode(err, CodeRecordDuplicate)
}

// IsNotFound returns true if err is a record-not-found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeRecordNotFound)
}

// IsQueryUnsupported returns true if err reports a $not query.
func IsQueryUnsupported(err error) bool {
	return hasCode(err, CodeQueryUnsupported)
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func newDuplicateError(id, recordType string, cause error) *Error {
	return &Error{
		Code:       CodeRecordDuplicate,
		Message:    fmt.Sprintf("record with id %s already exists", id),
		RecordID:   id,
		RecordType: recordType,
		Err:        cause,
	}
}

func newNotFoundError(id, recordType string) *Error {
	return &Error{
		Code:       CodeRecordNotFound,
		Message:    fmt.Sprintf("record with id %s not found", id),
		RecordID:   id,
		RecordType: recordType,
	}
}

func newQueryUnsupportedError(recordType string, cause error) *Error {
	return &Error{
		Code:       CodeQueryUnsupported,
		Message:    cause.Error(),
		RecordType: recordType,
		Err:        cause,
	}
}

// isUniqueViolation reports whether err is a primary-key or unique
// constraint failure from either supported driver. Errors from other
// sources fall back to matching SQLite's message text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		switch mattnErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return true
		}
	}

	var modernErr *msqlite.Error
	if errors.As(err, &modernErr) {
		switch modernErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
