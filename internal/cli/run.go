package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/httpapi"
	"github.com/runnerr0/chronicle-mcp/internal/mcpserver"
)

// listen is replaced in tests to capture the bound address.
var listen = net.Listen

// Execute implements the go-flags Commander interface for RunCommand.
func (c *RunCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return c.execute(ctx)
}

func (c *RunCommand) execute(ctx context.Context) error {
	a, err := appFor(c.app, c.globals)
	if err != nil {
		return err
	}
	srv := mcpserver.New(a.svc, c.version, a.logger)

	return a.serve(ctx, func(ctx context.Context) error {
		if !c.HTTP {
			// stdout carries the protocol; everything else goes to stderr.
			fmt.Fprintln(os.Stderr, "Starting ChronicleMCP tool-call server (stdio)...")
			return srv.RunStdio(ctx)
		}

		addr := net.JoinHostPort(hostOr(c.Host, a.cfg.Server.Host), strconv.Itoa(portOr(c.Port, a.cfg.Server.Port)))
		ln, err := listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/mcp", srv.Handler())
		fmt.Fprintf(os.Stderr, "Starting ChronicleMCP tool-call server on http://%s/mcp\n", ln.Addr())
		a.logger.Info("serving tool calls over http", zap.String("addr", ln.Addr().String()))
		return httpapi.ServeHandler(ctx, ln, mux, a.logger)
	})
}

func hostOr(host, def string) string {
	if host == "" {
		return def
	}
	return host
}

func portOr(port, def int) int {
	if port == 0 {
		return def
	}
	return port
}
