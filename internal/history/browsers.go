package history

import (
	"context"
	"errors"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
	"github.com/runnerr0/chronicle-mcp/internal/format"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/validate"
)

type BrowsersResult struct {
	Browsers []string `json:"browsers"`
	Message  string   `json:"message"`
}

// ListBrowsers lists browsers whose history database exists.
func (s *Service) ListBrowsers() *BrowsersResult {
	names := s.resolver.Available()
	return &BrowsersResult{Browsers: names, Message: format.Browsers(names)}
}

// ListBookmarkBrowsers lists browsers whose bookmarks can be read.
func (s *Service) ListBookmarkBrowsers() *BrowsersResult {
	names := s.resolver.AvailableStore(browser.Bookmarks)
	return &BrowsersResult{Browsers: names, Message: format.Browsers(names)}
}

// ListDownloadBrowsers lists browsers whose download history can be read.
func (s *Service) ListDownloadBrowsers() *BrowsersResult {
	names := s.resolver.AvailableStore(browser.Downloads)
	return &BrowsersResult{Browsers: names, Message: format.Browsers(names)}
}

// ItemsRequest filters bookmarks or downloads. An empty Query matches all.
type ItemsRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Format  string `json:"format"`
}

type BookmarksResult struct {
	Bookmarks []storage.Bookmark `json:"bookmarks"`
	Count     int                `json:"count"`
	Message   string             `json:"message"`
}

type itemsParams struct {
	browser string
	query   string
	limit   int
	format  string
}

func (s *Service) itemsParams(op string, req ItemsRequest) (itemsParams, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return itemsParams{}, s.remap(op, req.Browser, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 50), validate.BookmarkLimit, "limit")
	if err != nil {
		return itemsParams{}, s.remap(op, b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return itemsParams{}, s.remap(op, b, err)
	}
	return itemsParams{browser: b, query: strings.TrimSpace(req.Query), limit: limit, format: f}, nil
}

// Bookmarks lists saved pages. Chromium browsers keep them in a JSON file
// read in place; Firefox keeps them in its history database.
func (s *Service) Bookmarks(ctx context.Context, req ItemsRequest) (*BookmarksResult, error) {
	p, err := s.itemsParams("bookmarks", req)
	if err != nil {
		return nil, err
	}

	path, ok := s.resolver.ResolveStore(p.browser, browser.Bookmarks)
	if !ok {
		return nil, notFound("bookmarks", p.browser)
	}

	var items []storage.Bookmark
	switch browser.Family(p.browser) {
	case browser.FamilyChrome:
		if err := ctx.Err(); err != nil {
			return nil, s.remap("bookmarks", p.browser, err)
		}
		items, err = storage.ReadChromeBookmarks(path, p.query, p.limit, s.sanitizer)
		if err != nil {
			return nil, s.remap("bookmarks", p.browser, err)
		}
	default:
		items, err = run(ctx, s, "bookmarks", p.browser, func(e *storage.Engine) ([]storage.Bookmark, error) {
			items, err := e.Bookmarks(ctx, p.query, p.limit)
			if errors.Is(err, storage.ErrUnsupported) {
				return nil, notFound("bookmarks", p.browser)
			}
			return items, err
		})
		if err != nil {
			return nil, err
		}
	}

	return &BookmarksResult{Bookmarks: items, Count: len(items), Message: format.Bookmarks(items, p.format)}, nil
}

type DownloadsResult struct {
	Downloads []storage.Download `json:"downloads"`
	Count     int                `json:"count"`
	Message   string             `json:"message"`
}

// Downloads lists downloaded files, newest first.
func (s *Service) Downloads(ctx context.Context, req ItemsRequest) (*DownloadsResult, error) {
	p, err := s.itemsParams("downloads", req)
	if err != nil {
		return nil, err
	}
	if _, ok := s.resolver.ResolveStore(p.browser, browser.Downloads); !ok {
		return nil, notFound("downloads", p.browser)
	}

	items, err := run(ctx, s, "downloads", p.browser, func(e *storage.Engine) ([]storage.Download, error) {
		items, err := e.Downloads(ctx, p.query, p.limit)
		if errors.Is(err, storage.ErrUnsupported) {
			return nil, notFound("downloads", p.browser)
		}
		return items, err
	})
	if err != nil {
		return nil, err
	}
	return &DownloadsResult{Downloads: items, Count: len(items), Message: format.Downloads(items, p.format)}, nil
}
