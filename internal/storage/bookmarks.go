package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
)

// ErrUnsupported is returned when a schema does not keep the requested data
// in its history database.
var ErrUnsupported = errors.New("not supported for this browser")

// Bookmarks returns bookmarks stored in the database whose title or URL
// contains query (all when empty), newest first.
func (e *Engine) Bookmarks(ctx context.Context, query string, limit int) ([]Bookmark, error) {
	relation := e.schema.bookmarks()
	if relation == "" {
		return nil, ErrUnsupported
	}
	rows, err := e.scanEntries(ctx, e.from(relation).text(query).order("ts DESC").limit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]Bookmark, len(rows))
	for i, r := range rows {
		out[i] = Bookmark{Title: r.Title, URL: r.URL}
	}
	return out, nil
}

// Downloads returns downloads whose target path or URL contains query (all when
// empty), newest first.
func (e *Engine) Downloads(ctx context.Context, query string, limit int) ([]Download, error) {
	relation := e.schema.downloads()
	if relation == "" {
		return nil, ErrUnsupported
	}

	q := e.from(relation).text(query).order("ts DESC").limit(limit)
	rows, err := e.scanEntries(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]Download, len(rows))
	for i, r := range rows {
		out[i] = Download{Filename: baseName(r.Title), URL: r.URL, Timestamp: r.Timestamp}
	}
	return out, nil
}

// baseName handles both slash styles and file:// URIs.
func baseName(target string) string {
	target = strings.TrimPrefix(target, "file://")
	target = strings.ReplaceAll(target, `\`, "/")
	if target == "" {
		return ""
	}
	return path.Base(target)
}

type chromeBookmarkNode struct {
	Name      string               `json:"name"`
	Type      string               `json:"type"`
	URL       string               `json:"url,omitempty"`
	DateAdded string               `json:"date_added,omitempty"`
	Children  []chromeBookmarkNode `json:"children,omitempty"`
}

type chromeBookmarkFile struct {
	Roots map[string]chromeBookmarkNode `json:"roots"`
}

// ReadChromeBookmarks parses a Chromium Bookmarks JSON file and returns the
// bookmarks whose title or URL contains query (case-insensitive, all when
// empty), newest first.
func ReadChromeBookmarks(file, query string, limit int, s URLSanitizer) ([]Bookmark, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks: %w", err)
	}
	var doc chromeBookmarkFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing bookmarks: %w", err)
	}
	if s == nil {
		s = passthrough{}
	}

	type dated struct {
		Bookmark
		added int64
	}
	needle := strings.ToLower(query)
	var found []dated
	var walk func(n chromeBookmarkNode)
	walk = func(n chromeBookmarkNode) {
		switch n.Type {
		case "url":
			if needle == "" ||
				strings.Contains(strings.ToLower(n.Name), needle) ||
				strings.Contains(strings.ToLower(n.URL), needle) {
				var added int64
				fmt.Sscan(n.DateAdded, &added)
				found = append(found, dated{Bookmark{Title: n.Name, URL: s.URL(n.URL)}, added})
			}
		default:
			for _, c := range n.Children {
				walk(c)
			}
		}
	}

	roots := make([]string, 0, len(doc.Roots))
	for name := range doc.Roots {
		roots = append(roots, name)
	}
	sort.Strings(roots)
	for _, name := range roots {
		walk(doc.Roots[name])
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].added > found[j].added })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	out := make([]Bookmark, len(found))
	for i, f := range found {
		out[i] = f.Bookmark
	}
	return out, nil
}
