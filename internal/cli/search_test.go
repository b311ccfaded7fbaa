package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

func TestSearch_HumanOutput(t *testing.T) {
	cmd := &SearchCommand{globals: &GlobalFlags{}, version: "test", app: newTestApp(t), Limit: 10}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(context.Background(), []string{"go"}))
	})

	assert.Contains(t, output, `Found 2 results for "go"`)
	assert.Contains(t, output, "1. Go Documentation")
	assert.Contains(t, output, "https://go.dev/doc/")
	assert.NotContains(t, output, "secret123")
}

func TestSearch_JSONOutput(t *testing.T) {
	cmd := &SearchCommand{globals: &GlobalFlags{JSON: true}, version: "test", app: newTestApp(t), Limit: 10}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(context.Background(), []string{"go"}))
	})

	var got jsonSearchOutput
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "go", got.Query)
	assert.Equal(t, "chrome", got.Browser)
	require.Len(t, got.Results, 2)
}

func TestSearch_Domain(t *testing.T) {
	cmd := &SearchCommand{globals: &GlobalFlags{}, version: "test", app: newTestApp(t), Limit: 10, Domain: "rust-lang.org"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(context.Background(), nil))
	})

	assert.Contains(t, output, "Found 1 result for")
	assert.Contains(t, output, "Rust Book")
}

func TestSearch_NoResults(t *testing.T) {
	cmd := &SearchCommand{globals: &GlobalFlags{}, version: "test", app: newTestApp(t), Limit: 10}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.execute(context.Background(), []string{"nothing"}))
	})

	assert.Contains(t, output, `No results found for "nothing"`)
}

func TestSearch_MissingBrowser(t *testing.T) {
	cmd := &SearchCommand{globals: &GlobalFlags{}, version: "test", app: newTestApp(t), Limit: 10, Browser: "edge"}

	err := cmd.execute(context.Background(), []string{"go"})
	require.Error(t, err)
	assert.Equal(t, history.KindBrowserNotFound, history.KindOf(err))
}
