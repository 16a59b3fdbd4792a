// Command calcsteps differentiates expressions and evaluates limits from the
// command line, printing every step.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/njchilds90/calcsteps/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
