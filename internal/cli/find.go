package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tagstore/internal/query"
	"github.com/roach88/tagstore/internal/record"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Query  string
	Limit  int
	Offset int
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <type>",
		Short: "Find records by tag query",
		Long: `Find records of a type whose tags match a query.

Plain keys must equal the tag value; an array value matches when every
element is present in the tag's array. $and and $or take arrays of
sub-queries. $not is not supported.

--offset and --limit apply after filtering, in insertion order.

Examples:
  tagstore find Conn --query '{"state":"active"}'
  tagstore find Conn --query '{"roles":["x","y"]}'
  tagstore find Conn --query '{"$or":[{"state":"active"},{"state":"done"}]}' --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "{}", "tag query as a JSON object")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of results (default: unlimited)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of matching records to skip")

	return cmd
}

func runFind(opts *FindOptions, recordType string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	q, err := query.Parse([]byte(opts.Query))
	if err != nil {
		return f.Invalid("invalid --query", err)
	}
	qopts := query.Options{Offset: opts.Offset}
	if cmd.Flags().Changed("limit") {
		limit := opts.Limit
		qopts.Limit = &limit
	}

	st, closeStore, err := opts.openStorage(cmd.Context())
	if err != nil {
		return f.Fail("failed to open database", err)
	}
	defer closeStore()

	recs, err := st.FindByQuery(cmd.Context(), record.GenericClass(recordType), q, qopts)
	if err != nil {
		return f.Fail("failed to find records", err)
	}

	f.VerboseLog("%d record(s) matched", len(recs))
	return f.Success(viewsOf(recs))
}
