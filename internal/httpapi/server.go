// Package httpapi serves the history service as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

const (
	serviceName     = "chronicle-mcp"
	shutdownTimeout = 5 * time.Second
)

// Server routes HTTP requests to a history.Service.
type Server struct {
	svc            *history.Service
	logger         *zap.Logger
	version        string
	defaultBrowser string
	mcp            http.Handler
	metrics        *metrics
	now            func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithDefaultBrowser sets the browser used when a request names none.
func WithDefaultBrowser(name string) Option {
	return func(s *Server) { s.defaultBrowser = name }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMCP mounts a streamable tool-call handler at /mcp.
func WithMCP(h http.Handler) Option {
	return func(s *Server) { s.mcp = h }
}

// New creates a Server. The default browser falls back to the service's
// configured default.
func New(svc *history.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		logger:  zap.NewNop(),
		version: "dev",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultBrowser == "" {
		s.defaultBrowser = svc.Config().Defaults.Browser
	}
	s.logger = s.logger.Named("http")
	s.metrics = newMetrics(svc, s.now)
	return s
}

// Handler returns the routed handler with CORS and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.HandleFunc("GET /metrics", s.metricsJSON)
	mux.Handle("GET /metrics/prometheus", s.metrics.handler())
	mux.HandleFunc("GET /api/browsers", s.browsers)
	s.routes(mux)
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}
	return cors.AllowAll().Handler(s.metrics.middleware(mux))
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return ServeHandler(ctx, ln, s.Handler(), s.logger)
}

// ServeHandler serves h on ln until ctx is cancelled, then gives in-flight
// requests shutdownTimeout to finish.
func ServeHandler(ctx context.Context, ln net.Listener, h http.Handler, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   serviceName,
		"version":   s.version,
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) ready(w http.ResponseWriter, _ *http.Request) {
	browsers := s.svc.ListBrowsers().Browsers
	status := "ready"
	if len(browsers) == 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"service":   serviceName,
		"browsers":  browsers,
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) browsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"browsers": s.svc.ListBrowsers().Browsers})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// statusOf maps service error kinds to HTTP status codes.
func statusOf(k history.Kind) int {
	switch k {
	case history.KindValidation, history.KindInvalidDateRange, history.KindInvalidPattern, history.KindUnsupportedFormat:
		return http.StatusBadRequest
	case history.KindBrowserNotFound, history.KindPathNotFound:
		return http.StatusNotFound
	case history.KindPermissionDenied:
		return http.StatusForbidden
	case history.KindDatabaseLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var he *history.Error
	if !errors.As(err, &he) {
		s.logger.Error("unexpected error in endpoint", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "An unexpected error occurred"})
		return
	}
	writeJSON(w, statusOf(he.Kind), map[string]string{"error": he.Message})
}
