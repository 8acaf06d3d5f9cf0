package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/tagstore/internal/query"
	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/store"
	"github.com/roach88/tagstore/internal/tags"
	"github.com/roach88/tagstore/internal/testutil"
)

// Error kinds used by expect_error.
const (
	KindDuplicate        = "duplicate"
	KindNotFound         = "not_found"
	KindQueryUnsupported = "query_unsupported"
	KindInvalidOptions   = "invalid_options"
	KindError            = "error"
)

func validKind(kind string) bool {
	switch kind {
	case KindDuplicate, KindNotFound, KindQueryUnsupported, KindInvalidOptions, KindError:
		return true
	}
	return false
}

// ErrorKind classifies a store error. Nil yields "".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case store.IsDuplicate(err):
		return KindDuplicate
	case store.IsNotFound(err):
		return KindNotFound
	case store.IsQueryUnsupported(err):
		return KindQueryUnsupported
	case errors.Is(err, query.ErrInvalidOptions):
		return KindInvalidOptions
	default:
		return KindError
	}
}

// Result is the outcome of one scenario run.
type Result struct {
	Scenario string       `json:"scenario"`
	Passed   bool         `json:"passed"`
	Steps    []StepResult `json:"steps"`
}

// StepResult is the outcome of one record or query step.
type StepResult struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	IDs    []string `json:"ids,omitempty"`
	Error  string   `json:"error,omitempty"`
	Passed bool     `json:"passed"`

	// Failure describes a mismatch with the expectation.
	Failure string `json:"failure,omitempty"`
}

// Failures returns the failure messages of every failed step.
func (r *Result) Failures() []string {
	var out []string
	for _, s := range r.Steps {
		if !s.Passed {
			out = append(out, fmt.Sprintf("%s %s: %s", s.Kind, s.Name, s.Failure))
		}
	}
	return out
}

// Runner executes scenarios against fresh stores.
type Runner struct {
	path   string
	opts   []store.Option
	logger *slog.Logger
}

// NewRunner returns a runner using an in-memory database and discarding
// store logs. opts are applied after those defaults.
func NewRunner(opts ...store.Option) *Runner {
	return &Runner{
		path:   ":memory:",
		opts:   opts,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in scenario runs
	}
}

// Run executes a scenario.
//
// Each run opens a fresh database and a fresh deterministic clock.
// Mismatches are reported in the Result; the error return is reserved for
// scenarios that cannot be executed at all (bad tags or queries, store
// failures to open).
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	return NewRunner().Run(ctx, sc)
}

// Run executes sc. See the package-level Run.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	opts := append([]store.Option{
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithLogger(r.logger),
	}, r.opts...)

	st, err := store.Open(r.path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := &Result{Scenario: sc.Name, Passed: true, Steps: []StepResult{}}

	for i, step := range sc.Records {
		sr, err := runRecord(ctx, st, step)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		result.add(sr)
	}

	for i, step := range sc.Queries {
		sr, err := runQuery(ctx, st, step)
		if err != nil {
			return nil, fmt.Errorf("queries[%d]: %w", i, err)
		}
		result.add(sr)
	}

	return result, nil
}

func (r *Result) add(sr StepResult) {
	r.Steps = append(r.Steps, sr)
	if !sr.Passed {
		r.Passed = false
	}
}

func runRecord(ctx context.Context, st *store.Store, step RecordStep) (StepResult, error) {
	t, err := tags.FromAnyMap(step.Tags)
	if err != nil {
		return StepResult{}, err
	}

	value := step.Value
	if value == nil {
		value = map[string]any{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return StepResult{}, fmt.Errorf("encode value: %w", err)
	}

	rec := record.NewGeneric(step.Type, step.ID, data, time.Time{})
	rec.ReplaceTags(t)

	saveErr := st.Save(ctx, rec)
	sr := StepResult{
		Kind:  "save",
		Name:  step.Type + "/" + step.ID,
		Error: ErrorKind(saveErr),
	}
	sr.Passed, sr.Failure = checkError(step.ExpectError, saveErr)
	return sr, nil
}

func runQuery(ctx context.Context, st *store.Store, step QueryStep) (StepResult, error) {
	q, err := query.FromMap(step.Query)
	if err != nil {
		return StepResult{}, err
	}

	found, findErr := st.FindByQuery(ctx, record.GenericClass(step.Type), q,
		query.Options{Limit: step.Limit, Offset: step.Offset})

	sr := StepResult{Kind: "query", Name: step.Name, Error: ErrorKind(findErr)}
	if findErr == nil {
		sr.IDs = make([]string, 0, len(found))
		for _, rec := range found {
			sr.IDs = append(sr.IDs, rec.ID())
		}
	}

	if step.ExpectError != "" || findErr != nil {
		sr.Passed, sr.Failure = checkError(step.ExpectError, findErr)
		return sr, nil
	}

	want := step.Expect
	if want == nil {
		want = []string{}
	}
	if slices.Equal(want, sr.IDs) {
		sr.Passed = true
	} else {
		sr.Failure = fmt.Sprintf("expected ids %v, got %v", want, sr.IDs)
	}
	return sr, nil
}

// checkError compares err against the expected kind ("" meaning success).
func checkError(want string, err error) (bool, string) {
	got := ErrorKind(err)
	if got == want {
		return true, ""
	}
	if want == "" {
		return false, fmt.Sprintf("unexpected error: %v", err)
	}
	if err == nil {
		return false, fmt.Sprintf("expected %s error, got success", want)
	}
	return false, fmt.Sprintf("expected %s error, got %s: %v", want, got, err)
}
