// Command mega runs the mega driver and its conformance tooling.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mega/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
