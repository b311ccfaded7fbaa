// Package snapshot gives read access to live browser databases by copying
// them to a private temporary file first. Browsers keep their history
// databases locked while running, so the original file is never opened.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
)

// sidecars are the SQLite companion files removed alongside a snapshot.
var sidecars = []string{"-wal", "-shm", "-journal"}

// Resolver locates a browser's history database.
type Resolver interface {
	Resolve(browser string) (string, bool)
}

// Handle is an open snapshot. DB is only valid inside the callback it was
// passed to.
type Handle struct {
	DB      *sql.DB
	Browser string
	Source  string
	Path    string
}

// Opener creates snapshots of browser databases.
type Opener struct {
	resolver Resolver
	logger   *zap.Logger
	tempDir  string
	now      func() time.Time
}

// Option configures an Opener.
type Option func(*Opener)

// WithTempDir places snapshots in dir instead of os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *Opener) { o.tempDir = dir }
}

// WithLogger sets the logger used for cleanup diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *Opener) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOpener creates an Opener that resolves browsers through r.
func NewOpener(r Resolver, opts ...Option) *Opener {
	o := &Opener{
		resolver: r,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run snapshots browser's history, opens it and passes the handle to fn.
// The snapshot and its sidecars are always removed before Run returns.
func Run[T any](ctx context.Context, o *Opener, browserName string, fn func(*Handle) (T, error)) (T, error) {
	var out T
	err := o.With(ctx, browserName, func(h *Handle) error {
		v, err := fn(h)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// With is the non-generic form of Run.
func (o *Opener) With(ctx context.Context, browserName string, fn func(*Handle) error) error {
	name := browser.Normalize(browserName)

	source, ok := o.resolver.Resolve(name)
	if !ok {
		return &Error{Kind: KindBrowserNotFound, Browser: name}
	}
	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return &Error{Kind: KindPermissionDenied, Browser: name, Path: source, Err: err}
		}
		return &Error{Kind: KindPathNotFound, Browser: name, Path: source, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := o.copy(name, source, info)
	if tmp != "" {
		defer o.cleanup(tmp)
	}
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", tmp)
	if err != nil {
		return &Error{Kind: KindFailure, Browser: name, Path: source, Err: err}
	}
	defer func() {
		if err := db.Close(); err != nil {
			o.logger.Warn("closing snapshot", zap.String("path", tmp), zap.Error(err))
		}
	}()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		if isLocked(err) {
			return &Error{Kind: KindLocked, Browser: name, Path: source, Err: err}
		}
		return &Error{Kind: KindFailure, Browser: name, Path: source, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err = fn(&Handle{DB: db, Browser: name, Source: source, Path: tmp})
	if err != nil && isLocked(err) {
		return &Error{Kind: KindLocked, Browser: name, Path: source, Err: err}
	}
	return err
}

// copy duplicates source (and its -wal file, if any) into a fresh temp file.
// The returned path is non-empty whenever a temp file was created, even on
// error, so the caller can clean it up.
func (o *Opener) copy(name, source string, info fs.FileInfo) (string, error) {
	pattern := fmt.Sprintf("chronicle_%s_temp_%d_%d_*.db", name, os.Getpid(), o.now().UnixMilli())
	dst, err := os.CreateTemp(o.tempDir, pattern)
	if err != nil {
		return "", &Error{Kind: KindFailure, Browser: name, Path: source, Err: fmt.Errorf("creating snapshot file: %w", err)}
	}
	tmp := dst.Name()

	if err := copyInto(dst, source); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return tmp, &Error{Kind: KindPermissionDenied, Browser: name, Path: source, Err: err}
		}
		return tmp, &Error{Kind: KindFailure, Browser: name, Path: source, Err: fmt.Errorf("copying history: %w", err)}
	}

	// Mode and times are informational only.
	_ = os.Chmod(tmp, info.Mode().Perm()|0o600)
	_ = os.Chtimes(tmp, info.ModTime(), info.ModTime())

	if _, err := os.Stat(source + "-wal"); err == nil {
		wal, err := os.OpenFile(tmp+"-wal", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err == nil {
			if err := copyInto(wal, source+"-wal"); err != nil {
				o.logger.Debug("skipping wal copy", zap.String("source", source), zap.Error(err))
				_ = os.Remove(tmp + "-wal")
			}
		}
	}
	return tmp, nil
}

// copyInto copies src into dst and closes dst.
func copyInto(dst *os.File, src string) error {
	in, err := os.Open(src)
	if err != nil {
		dst.Close()
		return err
	}
	defer in.Close()

	if _, err := io.Copy(dst, in); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// cleanup removes a snapshot and its sidecars. Failures are logged only.
func (o *Opener) cleanup(tmp string) {
	for _, path := range append([]string{tmp}, sidecarPaths(tmp)...) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			o.logger.Warn("removing snapshot file", zap.String("path", path), zap.Error(err))
		}
	}
}

func sidecarPaths(tmp string) []string {
	out := make([]string, 0, len(sidecars))
	for _, s := range sidecars {
		out = append(out, tmp+s)
	}
	return out
}

// Leftovers lists snapshot files for browserName still present in dir. An
// empty browserName matches every browser.
func Leftovers(dir, browserName string) ([]string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := "*"
	if browserName != "" {
		name = browser.Normalize(browserName)
	}
	return filepath.Glob(filepath.Join(dir, fmt.Sprintf("chronicle_%s_temp_*", name)))
}
