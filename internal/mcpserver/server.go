// Package mcpserver exposes the history service as tool-call protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/format"
	"github.com/runnerr0/chronicle-mcp/internal/history"
)

// Name is the implementation name announced to clients.
const Name = "chronicle-mcp"

// Server wraps an mcp.Server with every history tool registered.
type Server struct {
	mcp    *mcp.Server
	svc    *history.Service
	logger *zap.Logger
}

// New registers the tool table against svc.
func New(svc *history.Service, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:    mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
		svc:    svc,
		logger: logger.Named("mcp"),
	}
	for _, t := range tools {
		t.add(s)
	}
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *mcp.Server { return s.mcp }

// RunStdio serves one client over stdin and stdout until it disconnects
// or ctx is cancelled.
func (s *Server) RunStdio(ctx context.Context) error {
	s.logger.Info("serving tools over stdio", zap.Int("tools", len(tools)))
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

// text renders a tool outcome as a single text block. Failures are reported
// as "Error: <message>" text, never as protocol errors.
func (s *Server) text(tool string, msg string, err error) *mcp.CallToolResult {
	if err != nil {
		var he *history.Error
		if errors.As(err, &he) {
			msg = format.Error(he.Message)
		} else {
			s.logger.Error("unexpected error in tool", zap.String("tool", tool), zap.Error(err))
			msg = format.Error("An unexpected error occurred")
		}
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: msg}}}
}
