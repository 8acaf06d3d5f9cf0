package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	ID    string
	Tags  string
	Value string
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <type>",
		Short: "Save a new record",
		Long: `Save a new record of the given type.

The record id is taken from --id, then from an "id" member of --value,
and otherwise generated as a UUIDv7. Saving an id that already exists,
under any type, fails.

Exit codes:
  0 - Record saved
  1 - Duplicate id
  2 - Command error (invalid JSON, database errors)

Examples:
  tagstore save Conn --id 1 --tags '{"state":"active","roles":["x"]}'
  tagstore save Note --value '{"text":"hello"}' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "record id (default: generated UUIDv7)")
	cmd.Flags().StringVar(&opts.Tags, "tags", "{}", "record tags as a JSON object")
	cmd.Flags().StringVar(&opts.Value, "value", "{}", "record value as a JSON object")

	return cmd
}

func runSave(opts *SaveOptions, recordType string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	t, err := tags.ParseMap(opts.Tags)
	if err != nil {
		return f.Invalid("invalid --tags", err)
	}
	data, err := compactObject(opts.Value)
	if err != nil {
		return f.Invalid("invalid --value", err)
	}

	id := opts.ID
	if hint := gjson.GetBytes(data, "id"); id == "" && hint.Type == gjson.String {
		id = hint.String()
	}
	if data, err = sjson.DeleteBytes(data, "id"); err != nil {
		return f.Invalid("invalid --value", err)
	}
	if id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return f.Fail("failed to generate id", err)
		}
		id = generated.String()
	}

	st, closeStore, err := opts.openStorage(cmd.Context())
	if err != nil {
		return f.Fail("failed to open database", err)
	}
	defer closeStore()

	rec := record.NewGeneric(recordType, id, data, opts.now())
	rec.ReplaceTags(t)
	if err := st.Save(cmd.Context(), rec); err != nil {
		return f.Fail("failed to save record", err)
	}

	f.VerboseLog("saved %s/%s", recordType, id)
	return f.Success(viewOf(rec))
}

// now returns the current time from the configured clock.
func (o *RootOptions) now() time.Time {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return time.Now()
}

// compactObject validates that s is a JSON object and returns it compacted.
func compactObject(s string) ([]byte, error) {
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("not valid JSON: %s", s)
	}
	if !gjson.Parse(s).IsObject() {
		return nil, fmt.Errorf("expected a JSON object: %s", s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
