package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CountResult reports the number of stored records of a type.
type CountResult struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func (r CountResult) String() string {
	return fmt.Sprintf("%s: %d", r.Type, r.Count)
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <type>",
		Short:         "Count the records of a type",
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

			n, err := st.Count(cmd.Context(), args[0])
			if err != nil {
				return f.Fail("failed to count records", err)
			}
			return f.Success(CountResult{Type: args[0], Count: n})
		},
	}
}
