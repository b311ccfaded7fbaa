package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// Execute implements the go-flags Commander interface for VersionCommand.
func (c *VersionCommand) Execute(args []string) error {
	return printVersion(c.version, c.globals != nil && c.globals.JSON)
}

func printVersion(version string, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
	}
	fmt.Printf("ChronicleMCP version: %s\n", version)
	return nil
}
