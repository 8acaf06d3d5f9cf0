package cli

import (
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/roach88/tagstore/internal/record"
	"github.com/roach88/tagstore/internal/tags"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Tags        string
	Value       string
	ReplaceTags bool
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <type> <id>",
		Short: "Update an existing record",
		Long: `Update the value and tags of an existing record.

--tags is merged into the record's tags unless --replace-tags is set.
--value replaces the record value. The updated_at tag is refreshed.

Examples:
  tagstore update Conn 1 --tags '{"state":"done"}'
  tagstore update Conn 1 --tags '{"state":"done"}' --replace-tags`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Tags, "tags", "", "tags as a JSON object")
	cmd.Flags().StringVar(&opts.Value, "value", "", "new record value as a JSON object")
	cmd.Flags().BoolVar(&opts.ReplaceTags, "replace-tags", false, "replace tags instead of merging")

	return cmd
}

func runUpdate(opts *UpdateOptions, recordType, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var t tags.Map
	if opts.Tags != "" {
		parsed, err := tags.ParseMap(opts.Tags)
		if err != nil {
			return f.Invalid("invalid --tags", err)
		}
		t = parsed
	}
	var data []byte
	if opts.Value != "" {
		compacted, err := compactObject(opts.Value)
		if err != nil {
			return f.Invalid("invalid --value", err)
		}
		if data, err = sjson.DeleteBytes(compacted, "id"); err != nil {
			return f.Invalid("invalid --value", err)
		}
	}

	st, closeStore, err := opts.openStorage(cmd.Context())
	if err != nil {
		return f.Fail("failed to open database", err)
	}
	defer closeStore()

	found, err := st.GetByID(cmd.Context(), record.GenericClass(recordType), id)
	if err != nil {
		return f.Fail("failed to load record", err)
	}
	rec := found.(*record.Generic)

	if data != nil {
		rec.Data = data
	}
	switch {
	case opts.ReplaceTags:
		rec.ReplaceTags(t)
	case t != nil:
		rec.SetTags(t)
	}

	if err := st.Update(cmd.Context(), rec); err != nil {
		return f.Fail("failed to update record", err)
	}

	f.VerboseLog("updated %s/%s", recordType, id)
	return f.Success(viewOf(rec))
}
