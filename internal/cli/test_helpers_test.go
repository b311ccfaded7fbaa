package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
	"github.com/runnerr0/chronicle-mcp/internal/config"
	"github.com/runnerr0/chronicle-mcp/internal/history"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/webhook"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-done
}

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	p, g, c := buildParser("test")
	p.Options &^= goflags.PrintErrors
	p.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := p.ParseArgs(args)
	return g, c, err
}

// useRunDir points PID and log files at a fresh temp dir.
func useRunDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old := runDir
	runDir = func() string { return dir }
	t.Cleanup(func() { runDir = old })
	return dir
}

func useStdin(t *testing.T, input string) {
	t.Helper()
	old := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = old })
}

// newTestApp wires an app over a chrome fixture; edge is known but missing.
func newTestApp(t *testing.T) *app {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "History")
	f := storage.Fixture{
		Schema: storage.SchemaChrome,
		Pages: []storage.FixturePage{
			{Title: "Go Documentation", URL: "https://go.dev/doc/", Visited: time.Now().Add(-time.Hour), Visits: 12},
			{Title: "Go Playground", URL: "https://go.dev/play/?token=secret123&page=1", Visited: time.Now().Add(-2 * time.Hour), Visits: 4},
			{Title: "Rust Book", URL: "https://doc.rust-lang.org/book/", Visited: time.Now().Add(-3 * time.Hour), Visits: 7},
		},
	}
	require.NoError(t, f.Write(path))

	templates := browser.Templates{"linux": {
		"chrome": {browser.History: path},
		"edge":   {browser.History: filepath.Join(dir, "missing", "History")},
	}}
	cfg := config.DefaultConfig()
	cfg.Cache.WatchSources = false
	d := webhook.NewDispatcher()
	return &app{
		cfg:        cfg,
		logger:     zap.NewNop(),
		dispatcher: d,
		svc: history.New(cfg,
			history.WithResolver(browser.NewResolver(browser.WithOS("linux"), browser.WithTemplates(templates))),
			history.WithTempDir(t.TempDir()),
			history.WithNotifier(d)),
	}
}
