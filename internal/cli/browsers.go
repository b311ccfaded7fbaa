package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
)

type browserJSON struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
}

// Execute implements the go-flags Commander interface for ListBrowsersCommand.
func (c *ListBrowsersCommand) Execute(args []string) error {
	a, err := appFor(c.app, c.globals)
	if err != nil {
		return err
	}
	if c.All {
		return c.printAll(a)
	}
	return c.printAvailable(a)
}

func (c *ListBrowsersCommand) printAvailable(a *app) error {
	names := a.svc.ListBrowsers().Browsers
	if c.globals != nil && c.globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{"browsers": names})
	}
	if len(names) == 0 {
		fmt.Println("No browsers with history found on this system")
		return nil
	}
	fmt.Println("Available browsers:")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
	return nil
}

func (c *ListBrowsersCommand) printAll(a *app) error {
	paths := a.svc.ResolveAll()
	out := make([]browserJSON, 0, len(browser.Names()))
	for _, name := range browser.Names() {
		path := paths[name]
		out = append(out, browserJSON{Name: name, Available: path != "", Path: path})
	}

	if c.globals != nil && c.globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{"browsers": out})
	}
	fmt.Println("Supported browsers:")
	for _, b := range out {
		if b.Available {
			fmt.Printf("  - %-10s found      %s\n", b.Name, b.Path)
		} else {
			fmt.Printf("  - %-10s not found\n", b.Name)
		}
	}
	return nil
}
