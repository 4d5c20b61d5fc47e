// Command semquery parses desktop search queries, compiles them to SPARQL
// and manages saved searches.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/semquery/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
