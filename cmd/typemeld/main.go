// Command typemeld generates matching type declarations for several
// languages from one schema.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/glemin5011/typemeld/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own failures; anything else comes from cobra.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
