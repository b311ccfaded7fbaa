package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/chronicle-mcp/internal/cache"
	"github.com/runnerr0/chronicle-mcp/internal/config"
	"github.com/runnerr0/chronicle-mcp/internal/history"
	"github.com/runnerr0/chronicle-mcp/internal/logging"
	"github.com/runnerr0/chronicle-mcp/internal/webhook"
)

const flushTimeout = 5 * time.Second

// app bundles the long-lived components every command builds from config.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	svc        *history.Service
	dispatcher *webhook.Dispatcher
	cache      *cache.Cache
}

// loadConfig loads the config named by --config or found by discovery.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	var explicit string
	if g != nil {
		explicit = g.Config
	}
	cfg, err := config.LoadDefault(explicit)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newApp loads config and wires the service, cache and webhooks.
func newApp(g *GlobalFlags) (*app, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging, g != nil && g.Verbose)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	var c *cache.Cache
	if cfg.Cache.Enabled {
		c = cache.New(cfg.Cache.MaxEntries, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	}
	d := webhook.NewDispatcher(webhook.WithLogger(logger))
	for _, w := range cfg.Webhooks {
		hook := d.Register(w.URL, w.Events, w.Secret)
		logger.Debug("webhook registered", zap.String("id", hook.ID), zap.String("url", hook.URL))
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		dispatcher: d,
		cache:      c,
		svc: history.New(cfg,
			history.WithCache(c),
			history.WithNotifier(d),
			history.WithLogger(logger)),
	}, nil
}

// configFor returns the injected app's config or loads one.
func configFor(injected *app, g *GlobalFlags) (*config.Config, error) {
	if injected != nil {
		return injected.cfg, nil
	}
	return loadConfig(g)
}

// appFor returns the injected app or builds one from the global flags.
func appFor(injected *app, g *GlobalFlags) (*app, error) {
	if injected != nil {
		return injected, nil
	}
	return newApp(g)
}

// serve runs fn next to the webhook dispatcher and, when enabled, a
// watcher that drops cached results as browser databases change. When fn
// returns, the others are stopped and queued webhooks are flushed.
func (a *app) serve(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.dispatcher.Run(gctx) })
	if a.cache != nil && a.cfg.Cache.WatchSources {
		w, err := cache.NewWatcher(a.cache, a.svc.Sources(), a.logger)
		if err != nil {
			a.logger.Warn("history watcher disabled", zap.Error(err))
		} else {
			g.Go(func() error { return w.Run(gctx) })
		}
	}
	g.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	err := g.Wait()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), flushTimeout)
	defer flushCancel()
	a.dispatcher.Flush(flushCtx)
	_ = a.logger.Sync()
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
