package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates a browser's cached results whenever its database
// files change on disk.
type Watcher struct {
	cache   *Cache
	logger  *zap.Logger
	fsw     *fsnotify.Watcher
	sources map[string]string // base file path -> browser
}

// NewWatcher watches the directories holding sources (browser -> database
// path). Sidecar files (-wal, -journal) count as changes to their database.
func NewWatcher(c *Cache, sources map[string]string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{cache: c, logger: logger, fsw: fsw, sources: map[string]string{}}
	dirs := map[string]bool{}
	for browser, path := range sources {
		if path == "" {
			continue
		}
		clean := filepath.Clean(path)
		w.sources[clean] = browser
		dirs[filepath.Dir(clean)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("history watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(ev.Name)
	for _, suffix := range []string{"-wal", "-journal"} {
		name = strings.TrimSuffix(name, suffix)
	}
	browser, ok := w.sources[name]
	if !ok {
		return
	}
	if n := w.cache.InvalidateBrowser(browser); n > 0 {
		w.logger.Debug("history changed, dropped cached results",
			zap.String("browser", browser), zap.Int("entries", n))
	}
}
