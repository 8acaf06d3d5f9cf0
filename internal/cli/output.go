package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tagstore/internal/query"
	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/store"
	"github.com/roach88/tagstore/internal/tags"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Lookup miss, duplicate id, failed scenarios
	ExitCommandError = 2 // Command error (invalid input, unsupported query, database errors)
)

// Error codes reported in JSON error responses.
const (
	CodeInvalidInput     = "E001"
	CodeNotFound         = "E002"
	CodeDuplicate        = "E003"
	CodeQueryUnsupported = "E004"
	CodeStorage          = "E005"
	CodeScenarioFailed   = "E006"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps a store error to an exit code and a response code.
func classify(err error) (int, string) {
	switch {
	case store.IsNotFound(err):
		return ExitFailure, CodeNotFound
	case store.IsDuplicate(err):
		return ExitFailure, CodeDuplicate
	case store.IsQueryUnsupported(err):
		return ExitCommandError, CodeQueryUnsupported
	case errors.Is(err, query.ErrInvalidOptions):
		return ExitCommandError, CodeInvalidInput
	default:
		return ExitCommandError, CodeStorage
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail returns an ExitError carrying the exit code for err's class. In JSON
// mode the error is also written as a CLIResponse so stdout stays parseable;
// text mode leaves reporting to the caller of Execute.
func (f *OutputFormatter) Fail(message string, err error) error {
	exit, code := classify(err)
	if f.Format == "json" {
		_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	}
	return WrapExitError(exit, message, err)
}

// Invalid is Fail for usage errors: always ExitCommandError.
func (f *OutputFormatter) Invalid(message string, err error) error {
	if f.Format == "json" {
		_ = f.Error(CodeInvalidInput, fmt.Sprintf("%s: %v", message, err), nil)
	}
	return WrapExitError(ExitCommandError, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// RecordView is the output form of a stored record.
type RecordView struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Tags  tags.Map        `json:"tags"`
	Value json.RawMessage `json:"value"`
}

// String renders the view as one tab-separated line: id, type, tags, value.
func (v RecordView) String() string {
	tagsJSON, err := v.Tags.MarshalJSON()
	if err != nil {
		tagsJSON = []byte("{}")
	}
	return strings.Join([]string{v.ID, v.Type, string(tagsJSON), string(v.Value)}, "\t")
}

// RecordList renders one record per line.
type RecordList []RecordView

func (l RecordList) String() string {
	if len(l) == 0 {
		return "No records found."
	}
	lines := make([]string, 0, len(l))
	for _, v := range l {
		lines = append(lines, v.String())
	}
	return strings.Join(lines, "\n")
}

func viewOf(rec record.Record) RecordView {
	t, err := rec.Tags()
	if err != nil {
		t = tags.Map{}
	}
	v := RecordView{ID: rec.ID(), Type: rec.Type(), Tags: t, Value: json.RawMessage("{}")}
	if g, ok := rec.(*record.Generic); ok && len(g.Data) > 0 {
		v.Value = g.Data
	}
	return v
}

func viewsOf(recs []record.Record) RecordList {
	out := make(RecordList, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewOf(rec))
	}
	return out
}
