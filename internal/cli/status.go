package cli

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version      string `json:"version"`
	Port         int    `json:"port"`
	Running      bool   `json:"running"`
	PID          int    `json:"pid,omitempty"`
	PIDFile      string `json:"pid_file"`
	Stale        bool   `json:"stale"`
	Healthy      bool   `json:"healthy"`
	LogFile      string `json:"log_file,omitempty"`
	LogSizeBytes int64  `json:"log_size_bytes,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	port := c.Port
	host := ""
	if port == 0 {
		cfg, err := loadConfig(c.globals)
		if err != nil {
			return err
		}
		port, host = cfg.Server.Port, cfg.Server.Host
	}
	return c.printStatus(c.inspect(host, port))
}

func (c *StatusCommand) inspect(host string, port int) statusJSON {
	st := statusJSON{Version: c.version, Port: port, PIDFile: pidPath(port)}

	pid, ok, err := readPID(st.PIDFile)
	if ok {
		st.PID = pid
		st.Running = err == nil && processAlive(pid)
		st.Stale = !st.Running
	}
	if st.Running {
		st.Healthy = checkHealth(host, port)
	}
	if info, err := os.Stat(logPath(port)); err == nil {
		st.LogFile = logPath(port)
		st.LogSizeBytes = info.Size()
	}
	return st
}

func (c *StatusCommand) printStatus(st statusJSON) error {
	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	switch {
	case st.Running:
		fmt.Printf("ChronicleMCP is running (PID: %d)\n", st.PID)
		if st.Healthy {
			fmt.Println("Health:        healthy")
		} else {
			fmt.Println("Health:        not responding")
		}
	case st.Stale:
		fmt.Printf("ChronicleMCP is NOT running (stale PID file, PID: %d)\n", st.PID)
	default:
		fmt.Printf("ChronicleMCP is NOT running (no PID file at %s)\n", st.PIDFile)
	}
	if st.LogFile != "" {
		fmt.Printf("Log:           %s (%s)\n", st.LogFile, formatBytes(st.LogSizeBytes))
	}
	return nil
}

// checkHealth asks the server's /health endpoint, waiting at most a second.
func checkHealth(host string, port int) bool {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	client := &http.Client{Timeout: time.Second}
	resp, err := client.Get("http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
