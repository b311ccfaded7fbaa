package cli

import (
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_NoPIDFile(t *testing.T) {
	useRunDir(t)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.printStatus(cmd.inspect("127.0.0.1", 8123)))
	})

	assert.Contains(t, output, "ChronicleMCP is NOT running (no PID file at")
	assert.Contains(t, output, "chronicle-mcp-8123.pid")
}

func TestStatus_Running(t *testing.T) {
	useRunDir(t)
	require.NoError(t, writePID(pidPath(8123), os.Getpid()))
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.printStatus(cmd.inspect("127.0.0.1", 8123)))
	})

	assert.Contains(t, output, "ChronicleMCP is running (PID: "+strconv.Itoa(os.Getpid())+")")
	assert.Contains(t, output, "not responding")
}

func TestStatus_StalePID(t *testing.T) {
	useRunDir(t)
	require.NoError(t, writePID(pidPath(8123), 99999999))
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.printStatus(cmd.inspect("127.0.0.1", 8123)))
	})

	assert.Contains(t, output, "ChronicleMCP is NOT running (stale PID file, PID: 99999999)")
}

func TestStatus_JSONWithLog(t *testing.T) {
	useRunDir(t)
	require.NoError(t, os.WriteFile(logPath(8123), []byte("line one\n"), 0o644))
	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.printStatus(cmd.inspect("127.0.0.1", 8123)))
	})

	var got statusJSON
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, "dev", got.Version)
	assert.Equal(t, 8123, got.Port)
	assert.False(t, got.Running)
	assert.False(t, got.Stale)
	assert.Equal(t, logPath(8123), got.LogFile)
	assert.EqualValues(t, 9, got.LogSizeBytes)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2<<20))
	assert.Equal(t, "1.0 GB", formatBytes(1<<30))
}
