package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tagstore/internal/record"
)

// DeleteResult reports a delete.
type DeleteResult struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("Deleted %s/%s", r.Type, r.ID)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a record",
		Long: `Delete the record with the given id.

Deleting an id that does not exist succeeds.`,
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

			if err := st.DeleteByID(cmd.Context(), record.GenericClass(args[0]), args[1]); err != nil {
				return f.Fail("failed to delete record", err)
			}
			return f.Success(DeleteResult{ID: args[1], Type: args[0]})
		},
	}
}
