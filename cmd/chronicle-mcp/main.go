// Command chronicle-mcp serves local browser history to AI assistants.
package main

import (
	"os"

	"github.com/runnerr0/chronicle-mcp/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	// go-flags prints errors itself.
	if err := cli.Run(version); err != nil {
		os.Exit(1)
	}
}
