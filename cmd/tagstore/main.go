// Command tagstore stores and queries tagged records in SQLite.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tagstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
