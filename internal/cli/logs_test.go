package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs_NoFile(t *testing.T) {
	useRunDir(t)
	cmd := &LogsCommand{globals: &GlobalFlags{}, Lines: 50}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.printLogs(8123))
	})

	assert.Equal(t, "No logs found for port 8123\n", output)
}

func TestLogs_Tail(t *testing.T) {
	useRunDir(t)
	require.NoError(t, os.WriteFile(logPath(8123), []byte("one\ntwo\nthree\nfour\n"), 0o644))

	cmd := &LogsCommand{globals: &GlobalFlags{}, Lines: 2}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.printLogs(8123))
	})
	assert.Equal(t, "three\nfour\n", output)

	cmd.Lines = 0
	output = captureOutput(t, func() {
		require.NoError(t, cmd.printLogs(8123))
	})
	assert.Equal(t, "one\ntwo\nthree\nfour\n", output)
}

func TestTail(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, tail("a\nb\nc", 2))
	assert.Equal(t, []string{"a", "b", "c"}, tail("a\nb\nc\n", 10))
	assert.Equal(t, []string{""}, tail("", 5))
}
