package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// runDir holds PID and log files. Tests point it elsewhere.
var runDir = os.TempDir

func pidPath(port int) string {
	return filepath.Join(runDir(), fmt.Sprintf("chronicle-mcp-%d.pid", port))
}

func logPath(port int) string {
	return filepath.Join(runDir(), fmt.Sprintf("chronicle-mcp-%d.log", port))
}

// readPID returns the PID recorded in pidFile. ok is false if the file
// does not exist.
func readPID(pidFile string) (pid int, ok bool, err error) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read PID file: %w", err)
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, true, fmt.Errorf("invalid PID in %s: %w", pidFile, err)
	}
	return pid, true, nil
}

func writePID(pidFile string, pid int) error {
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// claimPID fails if another live process owns pidFile and removes a stale
// one. A daemon child finds its own PID already recorded by its parent.
func claimPID(pidFile string) error {
	pid, ok, err := readPID(pidFile)
	if !ok {
		return err
	}
	if err == nil && pid == os.Getpid() {
		return nil
	}
	if err == nil && processAlive(pid) {
		return fmt.Errorf("server already running with PID %d", pid)
	}
	if err := os.Remove(pidFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale PID file: %w", err)
	}
	return nil
}

// startDaemon re-executes the binary with args, detached, logging to
// logFile, and records the child's PID.
func startDaemon(args []string, pidFile, logFile string) (int, error) {
	logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open log file: %w", err)
	}
	defer logF.Close()

	executable, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("get executable path: %w", err)
	}

	cmd := exec.Command(executable, args...)
	cmd.Stdout = logF
	cmd.Stderr = logF
	cmd.Stdin = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start daemon process: %w", err)
	}
	pid := cmd.Process.Pid
	if err := writePID(pidFile, pid); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	if err := cmd.Process.Release(); err != nil {
		return 0, fmt.Errorf("release process: %w", err)
	}
	return pid, nil
}
