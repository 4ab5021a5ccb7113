// Command transpile renders AST files through the built-in handler tables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/transpiler/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
