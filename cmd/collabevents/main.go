// Command collabevents manages shared, versioned events from the command
// line and serves the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/collabevents/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// JSON-mode failures are already written to stdout.
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
