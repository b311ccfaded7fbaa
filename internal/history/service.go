// Package history is the public contract consumed by the transports. Each
// Service method validates its request, snapshots the browser database,
// runs one storage operation and renders the result.
package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
	"github.com/runnerr0/chronicle-mcp/internal/cache"
	"github.com/runnerr0/chronicle-mcp/internal/config"
	"github.com/runnerr0/chronicle-mcp/internal/sanitize"
	"github.com/runnerr0/chronicle-mcp/internal/snapshot"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
)

// Resolver locates the stores of installed browsers.
type Resolver interface {
	Resolve(browser string) (string, bool)
	ResolveStore(browser string, store browser.Store) (string, bool)
	Available() []string
	AvailableStore(store browser.Store) []string
}

// Notifier receives events for operations with side effects.
type Notifier interface {
	Trigger(event string, data map[string]any)
}

// Service runs history operations. It is safe for concurrent use; every
// call works on its own snapshot.
type Service struct {
	cfg       *config.Config
	resolver  Resolver
	opener    *snapshot.Opener
	sanitizer *sanitize.Sanitizer
	cache     *cache.Cache
	notifier  Notifier
	logger    *zap.Logger
	tempDir   string
}

// Option configures a Service.
type Option func(*Service)

// WithResolver replaces the platform resolver.
func WithResolver(r Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithTempDir places snapshots in dir.
func WithTempDir(dir string) Option {
	return func(s *Service) { s.tempDir = dir }
}

// WithCache memoizes read-only results in c.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithNotifier sends delete, export and sync events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service using cfg for defaults and sensitive parameters.
// A nil cfg means config.DefaultConfig().
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Service{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = browser.NewResolver()
	}
	s.sanitizer = sanitize.New(cfg.Security.SensitiveParams)
	s.opener = snapshot.NewOpener(s.resolver,
		snapshot.WithTempDir(s.tempDir),
		snapshot.WithLogger(s.logger))
	return s
}

// Config returns the configuration the Service was built with.
func (s *Service) Config() *config.Config { return s.cfg }

// Cache returns the response cache, which may be nil.
func (s *Service) Cache() *cache.Cache { return s.cache }

// ResolveAll maps every supported browser to its history path, with "" for
// browsers that were not found.
func (s *Service) ResolveAll() map[string]string { return s.resolver.ResolveAll() }

// Sources maps every available browser to its history path.
func (s *Service) Sources() map[string]string {
	out := map[string]string{}
	for name, path := range s.resolver.ResolveAll() {
		if path != "" {
			out[name] = path
		}
	}
	return out
}

func (s *Service) browserOrDefault(name string) string {
	if name == "" {
		return s.cfg.Defaults.Browser
	}
	return name
}

func (s *Service) formatOrDefault(f string) string {
	if f == "" {
		return s.cfg.Defaults.Format
	}
	return f
}

// searchLimit is the configured default limit, bounded by the configured
// query ceiling.
func (s *Service) searchLimit() int {
	n := s.cfg.Defaults.Limit
	if ceiling := s.cfg.Advanced.MaxQueryLimit; ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}

func orDefault(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}

func (s *Service) notify(event string, data map[string]any) {
	if s.notifier != nil {
		s.notifier.Trigger(event, data)
	}
}

// engine builds an Engine for an open snapshot. The schema is detected from
// the database and falls back to the browser's family.
func (s *Service) engine(ctx context.Context, h *snapshot.Handle) (*storage.Engine, error) {
	name, err := storage.DetectSchema(ctx, h.DB)
	if err != nil {
		return nil, err
	}
	schema, ok := storage.SchemaByName(name)
	if !ok {
		schema, _ = storage.SchemaByName(browser.Family(h.Browser))
	}
	return storage.NewEngine(h.DB, schema, s.sanitizer), nil
}

// run executes fn against a fresh snapshot of browserName.
func run[T any](ctx context.Context, s *Service, op, browserName string, fn func(*storage.Engine) (T, error)) (T, error) {
	v, err := snapshot.Run(ctx, s.opener, browserName, func(h *snapshot.Handle) (T, error) {
		e, err := s.engine(ctx, h)
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(e)
	})
	return v, s.remap(op, browserName, err)
}

// cached is run behind the response cache. key must capture every
// normalized request field.
func cached[T any](ctx context.Context, s *Service, op, browserName string, key any, fn func(*storage.Engine) (T, error)) (T, error) {
	if s.cache == nil {
		return run(ctx, s, op, browserName, fn)
	}
	return cache.Do(s.cache, cache.Key(op, key), browserName, func() (T, error) {
		return run(ctx, s, op, browserName, fn)
	})
}
