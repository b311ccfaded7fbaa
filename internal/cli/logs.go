package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Execute implements the go-flags Commander interface for LogsCommand.
func (c *LogsCommand) Execute(args []string) error {
	port := c.Port
	if port == 0 {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		port = cfg.Server.Port
	}
	return c.printLogs(port)
}

func (c *LogsCommand) printLogs(port int) error {
	data, err := os.ReadFile(logPath(port))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("No logs found for port %d\n", port)
			return nil
		}
		return fmt.Errorf("read log file: %w", err)
	}
	fmt.Println(strings.Join(tail(string(data), c.Lines), "\n"))
	return nil
}

// tail returns the last n lines of s, or all of them when n <= 0.
func tail(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
