package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
)

// Resolver maps browser names to on-disk store paths for one operating
// system. Results are never cached: every call consults the filesystem.
type Resolver struct {
	goos      string
	templates Templates
	getenv    func(string) string
	home      func() (string, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOS resolves templates for goos instead of runtime.GOOS.
func WithOS(goos string) Option {
	return func(r *Resolver) { r.goos = goos }
}

// WithTemplates replaces the built-in path templates.
func WithTemplates(t Templates) Option {
	return func(r *Resolver) { r.templates = t }
}

// WithEnv replaces the environment lookup used for $VAR and %VAR% expansion.
func WithEnv(getenv func(string) string) Option {
	return func(r *Resolver) { r.getenv = getenv }
}

// WithHome replaces the home directory lookup used for ~ expansion.
func WithHome(home func() (string, error)) Option {
	return func(r *Resolver) { r.home = home }
}

// NewResolver creates a Resolver for the running platform.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		goos:      runtime.GOOS,
		templates: DefaultTemplates(),
		getenv:    os.Getenv,
		home:      os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the history database path for browser. ok is false for
// unknown browsers, browsers with no template on this OS, and templates that
// match nothing on disk.
func (r *Resolver) Resolve(browser string) (string, bool) {
	return r.ResolveStore(browser, History)
}

// ResolveStore returns the path of a specific store for browser.
func (r *Resolver) ResolveStore(browser string, store Store) (string, bool) {
	tmpl, ok := r.template(browser, store)
	if !ok {
		return "", false
	}
	path, err := r.expand(tmpl)
	if err != nil {
		return "", false
	}

	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil || len(matches) == 0 {
			return "", false
		}
		sort.Strings(matches)
		for _, m := range matches {
			if isFile(m) {
				return m, true
			}
		}
		return "", false
	}

	if !isFile(path) {
		return "", false
	}
	return path, true
}

// Available lists browsers whose history store exists, in display order.
func (r *Resolver) Available() []string {
	return r.AvailableStore(History)
}

// AvailableStore lists browsers for which store exists, in display order.
func (r *Resolver) AvailableStore(store Store) []string {
	out := []string{}
	for _, name := range names {
		if _, ok := r.ResolveStore(name, store); ok {
			out = append(out, name)
		}
	}
	return out
}

// ResolveAll maps every supported browser to its history path, with "" for
// browsers that were not found. Intended for diagnostics.
func (r *Resolver) ResolveAll() map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		path, _ := r.Resolve(name)
		out[name] = path
	}
	return out
}

func (r *Resolver) template(browser string, store Store) (string, bool) {
	byBrowser, ok := r.templates[r.goos]
	if !ok {
		return "", false
	}
	stores, ok := byBrowser[Normalize(browser)]
	if !ok {
		return "", false
	}
	tmpl, ok := stores[store]
	return tmpl, ok && tmpl != ""
}

var windowsVar = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// expand resolves ~, %VAR% and $VAR references in a template.
func (r *Resolver) expand(tmpl string) (string, error) {
	path := tmpl
	if strings.HasPrefix(path, "~") {
		home, err := r.home()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	}
	path = windowsVar.ReplaceAllStringFunc(path, func(m string) string {
		return r.getenv(m[1 : len(m)-1])
	})
	path = os.Expand(path, r.getenv)
	return filepath.FromSlash(path), nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
