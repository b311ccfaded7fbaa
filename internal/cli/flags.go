package cli

import goflags "github.com/jessevdk/go-flags"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (TOML or YAML)" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RunCommand serves the tool-call protocol over stdio or streamable HTTP.
type RunCommand struct {
	HTTP bool   `long:"http" description:"Serve over streamable HTTP instead of stdio"`
	Host string `long:"host" description:"Host to bind (HTTP only)"`
	Port int    `long:"port" description:"Port to bind (HTTP only)"`

	globals *GlobalFlags
	version string
	app     *app // injectable for testing; nil means build from config
}

// ServeCommand runs the HTTP API, in the foreground or as a daemon.
type ServeCommand struct {
	Host    string `long:"host" description:"Host to bind"`
	Port    int    `long:"port" description:"Port to bind"`
	Browser string `long:"browser" description:"Default browser for requests that name none"`
	Daemon  bool   `long:"daemon" description:"Detach and run in the background"`

	globals *GlobalFlags
	version string
	app     *app
}

// StatusCommand reports whether a daemon is running on a port.
type StatusCommand struct {
	Port int `long:"port" description:"Port to check"`

	globals *GlobalFlags
	version string
}

// LogsCommand prints the tail of a daemon's log file.
type LogsCommand struct {
	Port  int `long:"port" description:"Port whose logs to show"`
	Lines int `long:"lines" description:"Number of lines to show (0 for all)" default:"50"`

	globals *GlobalFlags
	version string
}

// VersionCommand prints the version.
type VersionCommand struct {
	globals *GlobalFlags
	version string
}

// ListBrowsersCommand prints browsers with readable history.
type ListBrowsersCommand struct {
	All bool `long:"all" description:"Also list supported browsers that were not found"`

	globals *GlobalFlags
	version string
	app     *app
}

// CompletionCommand prints a shell completion script.
type CompletionCommand struct {
	Args struct {
		Shell string `positional-arg-name:"shell" description:"bash, zsh or fish" required:"yes"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	parser  *goflags.Parser
}

// SearchCommand searches history from the terminal.
type SearchCommand struct {
	Browser string `long:"browser" description:"Browser to search (default from config)"`
	Limit   int    `long:"limit" description:"Maximum results" default:"10"`
	Domain  string `long:"domain" description:"Only pages on this domain"`
	Regex   bool   `long:"regex" description:"Treat the query as a regular expression"`
	Fuzzy   bool   `long:"fuzzy" description:"Rank by fuzzy similarity"`

	globals *GlobalFlags
	version string
	app     *app
}

// DeleteCommand removes matching entries from a history snapshot.
type DeleteCommand struct {
	Browser string `long:"browser" description:"Browser to delete from (default from config)"`
	Limit   int    `long:"limit" description:"Maximum entries to delete" default:"100"`
	Force   bool   `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	app     *app
}
