package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

const maxBodyBytes = 1 << 20

func (s *Server) routes(mux *http.ServeMux) {
	mux.Handle("POST /api/search", endpoint(s, s.search))
	mux.Handle("POST /api/recent", endpoint(s, s.recent))
	mux.Handle("POST /api/count", endpoint(s, s.count))
	mux.Handle("POST /api/top-domains", endpoint(s, s.topDomains))
	mux.Handle("POST /api/search-date", endpoint(s, s.searchDate))
	mux.Handle("POST /api/delete", endpoint(s, s.delete))
	mux.Handle("POST /api/domain-search", endpoint(s, s.domainSearch))
	mux.Handle("POST /api/stats", endpoint(s, s.stats))
	mux.Handle("POST /api/most-visited", endpoint(s, s.mostVisited))
	mux.Handle("POST /api/advanced-search", endpoint(s, s.advancedSearch))
	mux.Handle("POST /api/sync", endpoint(s, s.sync))
	mux.Handle("POST /api/bookmarks", endpoint(s, s.bookmarks))
	mux.Handle("POST /api/downloads", endpoint(s, s.downloads))
	mux.HandleFunc("POST /api/export", s.export)
	mux.HandleFunc("GET /api/bookmark-browsers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"browsers": s.svc.ListBookmarkBrowsers().Browsers})
	})
	mux.HandleFunc("GET /api/download-browsers", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"browsers": s.svc.ListDownloadBrowsers().Browsers})
	})
}

// endpoint decodes a JSON body into Req, calls fn and writes its result.
// An empty body decodes as the zero Req.
func endpoint[Req any](s *Server, fn func(context.Context, Req) (any, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := decode(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body: " + err.Error()})
			return
		}
		out, err := fn(r.Context(), req)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	})
}

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) browser(name string) string {
	if strings.TrimSpace(name) == "" {
		return s.defaultBrowser
	}
	return name
}

// wantsJSON reports whether the caller asked for structured rows rather
// than the rendered message.
func (s *Server) wantsJSON(f string) bool {
	if f == "" {
		f = s.svc.Config().Defaults.Format
	}
	return strings.EqualFold(strings.TrimSpace(f), "json")
}

func (s *Server) search(ctx context.Context, req history.SearchRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"results": res.Results, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) recent(ctx context.Context, req history.RecentRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Recent(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"results": res.Results, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) count(ctx context.Context, req history.CountVisitsRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.CountVisits(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]any{"domain": res.Domain, "browser": res.Browser, "count": res.Count}, nil
}

func (s *Server) topDomains(ctx context.Context, req history.TopDomainsRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	req.Format = "json"
	res, err := s.svc.TopDomains(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]any{"domains": res.Domains}, nil
}

func (s *Server) searchDate(ctx context.Context, req history.DateSearchRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.SearchByDate(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"results": res.Results, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) delete(ctx context.Context, req history.DeleteRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	return s.svc.Delete(ctx, req)
}

func (s *Server) domainSearch(ctx context.Context, req history.DomainSearchRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.DomainSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"domain": res.Domain, "results": res.Results, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) stats(ctx context.Context, req history.StatsRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Stats(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Stats, nil
}

func (s *Server) mostVisited(ctx context.Context, req history.MostVisitedRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	req.Format = "json"
	res, err := s.svc.MostVisited(ctx, req)
	if err != nil {
		return nil, err
	}
	return map[string]any{"pages": res.Pages}, nil
}

func (s *Server) advancedSearch(ctx context.Context, req history.AdvancedSearchRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.AdvancedSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{
			"query":   res.Query,
			"results": res.Results,
			"count":   res.Count,
			"options": res.Options,
		}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) sync(ctx context.Context, req history.SyncRequest) (any, error) {
	return s.svc.Sync(ctx, req)
}

func (s *Server) bookmarks(ctx context.Context, req history.ItemsRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Bookmarks(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"bookmarks": res.Bookmarks, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

func (s *Server) downloads(ctx context.Context, req history.ItemsRequest) (any, error) {
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Downloads(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.wantsJSON(req.Format) {
		return map[string]any{"downloads": res.Downloads, "count": res.Count}, nil
	}
	return map[string]any{"results": res.Message}, nil
}

// export writes the rendered document itself rather than a JSON envelope.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	var req history.ExportRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body: " + err.Error()})
		return
	}
	req.Browser = s.browser(req.Browser)
	res, err := s.svc.Export(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ct := "text/csv"
	if res.Format == "json" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, res.Content)
}
