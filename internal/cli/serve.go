package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/httpapi"
	"github.com/runnerr0/chronicle-mcp/internal/mcpserver"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return c.execute(ctx)
}

func (c *ServeCommand) execute(ctx context.Context) error {
	cfg, err := configFor(c.app, c.globals)
	if err != nil {
		return err
	}
	host := hostOr(c.Host, cfg.Server.Host)
	port := portOr(c.Port, cfg.Server.Port)
	pidFile := pidPath(port)

	if err := claimPID(pidFile); err != nil {
		return err
	}
	if c.Daemon {
		return c.daemonize(host, port, pidFile)
	}

	a, err := appFor(c.app, c.globals)
	if err != nil {
		return err
	}
	if err := writePID(pidFile, os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(pidFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Warn("remove PID file", zap.Error(err))
		}
	}()

	tools := mcpserver.New(a.svc, c.version, a.logger)
	srv := httpapi.New(a.svc,
		httpapi.WithDefaultBrowser(c.Browser),
		httpapi.WithVersion(c.version),
		httpapi.WithLogger(a.logger),
		httpapi.WithMCP(tools.Handler()))

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return a.serve(ctx, func(ctx context.Context) error {
		ln, err := listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		fmt.Printf("Starting ChronicleMCP HTTP server on %s\n", ln.Addr())
		return srv.Serve(ctx, ln)
	})
}

// daemonize starts a detached foreground server with the same settings.
func (c *ServeCommand) daemonize(host string, port int, pidFile string) error {
	var args []string
	if c.globals != nil {
		if c.globals.Config != "" {
			args = append(args, "--config", c.globals.Config)
		}
		if c.globals.Verbose {
			args = append(args, "--verbose")
		}
	}
	args = append(args, "serve", "--host", host, "--port", strconv.Itoa(port))
	if c.Browser != "" {
		args = append(args, "--browser", c.Browser)
	}

	logFile := logPath(port)
	pid, err := startDaemon(args, pidFile, logFile)
	if err != nil {
		return err
	}
	fmt.Printf("Server started in background (PID: %d)\n", pid)
	fmt.Printf("  PID file: %s\n", pidFile)
	fmt.Printf("  Log file: %s\n", logFile)
	return nil
}
