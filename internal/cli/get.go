package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tagstore/internal/record"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Show one record",
		Long: `Show the record with the given id.

Exit codes:
  0 - Record found
  1 - No record with that id
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			st, closeStore, err := rootOpts.openStorage(cmd.Context())
			if err != nil {
				return f.Fail("failed to open database", err)
			}
			defer closeStore()

			rec, err := st.GetByID(cmd.Context(), record.GenericClass(args[0]), args[1])
			if err != nil {
				return f.Fail("failed to get record", err)
			}
			return f.Success(viewOf(rec))
		},
	}
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <type>",
		Short:         "List every record of a type in insertion order",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)

			st, closeStore, err := rootOpts.openStorage(cmd.Context())
			if err != nil {
				return f.Fail("failed to open database", err)
			}
			defer closeStore()

			recs, err := st.GetAll(cmd.Context(), record.GenericClass(args[0]))
			if err != nil {
				return f.Fail("failed to list records", err)
			}
			return f.Success(viewsOf(recs))
		},
	}
}
