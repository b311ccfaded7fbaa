// Package cli implements the chronicle-mcp command line.
package cli

import (
	"errors"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Run          *RunCommand
	Serve        *ServeCommand
	Status       *StatusCommand
	Logs         *LogsCommand
	Version      *VersionCommand
	ListBrowsers *ListBrowsersCommand
	Completion   *CompletionCommand
	Search       *SearchCommand
	Delete       *DeleteCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "chronicle-mcp"
	parser.LongDescription = "Read-only access to local browser history for AI assistants, over MCP, HTTP and the terminal."

	cmds := &commands{
		Run:          &RunCommand{globals: &globals, version: version},
		Serve:        &ServeCommand{globals: &globals, version: version},
		Status:       &StatusCommand{globals: &globals, version: version},
		Logs:         &LogsCommand{globals: &globals, version: version},
		Version:      &VersionCommand{globals: &globals, version: version},
		ListBrowsers: &ListBrowsersCommand{globals: &globals, version: version},
		Completion:   &CompletionCommand{globals: &globals, version: version, parser: parser},
		Search:       &SearchCommand{globals: &globals, version: version},
		Delete:       &DeleteCommand{globals: &globals, version: version},
	}

	parser.AddCommand("run", "Run the tool-call server", "Serve the MCP tools over stdio, or over streamable HTTP with --http.", cmds.Run)
	parser.AddCommand("serve", "Run the HTTP API server", "Serve the JSON HTTP API (and /mcp) in the foreground, or detached with --daemon.", cmds.Serve)
	parser.AddCommand("status", "Check whether the HTTP server is running", "Check the PID file and health endpoint of the HTTP server on a port.", cmds.Status)
	parser.AddCommand("logs", "Show HTTP server logs", "Print the last lines of a daemonized HTTP server's log file.", cmds.Logs)
	parser.AddCommand("version", "Show the version", "Show the version of chronicle-mcp.", cmds.Version)
	parser.AddCommand("list-browsers", "List browsers with history", "List browsers whose history database exists on this system.", cmds.ListBrowsers)
	parser.AddCommand("completion", "Generate shell completion script", "Generate a completion script for bash, zsh or fish.", cmds.Completion)
	parser.AddCommand("search", "Search history", "Search a browser's history by keyword, domain, regex or fuzzy match.", cmds.Search)
	parser.AddCommand("delete", "Delete matching history entries", "Delete matching entries from a history snapshot. Asks for confirmation unless --force.", cmds.Delete)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	asJSON := false
	for _, arg := range checkArgs {
		if arg == "--" {
			break
		}
		if arg == "--json" {
			asJSON = true
		}
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			return printVersion(version, asJSON)
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}

	return nil
}
