// Command lsim runs, tests and traces digital logic circuits.
package main

import (
	"fmt"
	"os"

	"github.com/db47h/lsim/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lsim:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
