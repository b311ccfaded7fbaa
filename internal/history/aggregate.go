package history

import (
	"context"

	"github.com/runnerr0/chronicle-mcp/internal/format"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/validate"
)

type CountVisitsRequest struct {
	Domain  string `json:"domain"`
	Browser string `json:"browser"`
}

type CountVisitsResult struct {
	Domain  string `json:"domain"`
	Browser string `json:"browser"`
	Count   int64  `json:"count"`
	Message string `json:"message"`
}

// CountVisits sums the visits to pages whose URL contains the domain.
func (s *Service) CountVisits(ctx context.Context, req CountVisitsRequest) (*CountVisitsResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("count_visits", req.Browser, err)
	}
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		return nil, s.remap("count_visits", b, err)
	}

	key := CountVisitsRequest{Domain: domain, Browser: b}
	return cached(ctx, s, "count_visits", b, key, func(e *storage.Engine) (*CountVisitsResult, error) {
		n, err := e.CountDomainVisits(ctx, domain)
		if err != nil {
			return nil, err
		}
		return &CountVisitsResult{Domain: domain, Browser: b, Count: n, Message: format.DomainVisits(domain, b, n)}, nil
	})
}

type TopDomainsRequest struct {
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Format  string `json:"format"`
}

type TopDomainsResult struct {
	Domains []storage.DomainVisits `json:"domains"`
	Count   int                    `json:"count"`
	Message string                 `json:"message"`
}

// TopDomains ranks hosts by summed visit count.
func (s *Service) TopDomains(ctx context.Context, req TopDomainsRequest) (*TopDomainsResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("top_domains", req.Browser, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 10), validate.TopDomainsLimit, "limit")
	if err != nil {
		return nil, s.remap("top_domains", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("top_domains", b, err)
	}

	key := TopDomainsRequest{Limit: limit, Browser: b, Format: f}
	return cached(ctx, s, "top_domains", b, key, func(e *storage.Engine) (*TopDomainsResult, error) {
		domains, err := e.TopDomains(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &TopDomainsResult{Domains: domains, Count: len(domains), Message: format.TopDomains(domains, f)}, nil
	})
}

type StatsRequest struct {
	Browser string `json:"browser"`
}

type StatsResult struct {
	Stats   *storage.Stats `json:"stats"`
	Message string         `json:"message"`
}

// Stats summarizes the browser's history database.
func (s *Service) Stats(ctx context.Context, req StatsRequest) (*StatsResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("stats", req.Browser, err)
	}

	return cached(ctx, s, "stats", b, StatsRequest{Browser: b}, func(e *storage.Engine) (*StatsResult, error) {
		st, err := e.Stats(ctx)
		if err != nil {
			return nil, err
		}
		return &StatsResult{Stats: st, Message: format.Stats(st)}, nil
	})
}

type MostVisitedRequest struct {
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Format  string `json:"format"`
}

type MostVisitedResult struct {
	Pages   []storage.PageVisits `json:"pages"`
	Count   int                  `json:"count"`
	Message string               `json:"message"`
}

// MostVisited ranks individual titled http(s) pages by visit count.
func (s *Service) MostVisited(ctx context.Context, req MostVisitedRequest) (*MostVisitedResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("most_visited", req.Browser, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 20), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap("most_visited", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("most_visited", b, err)
	}

	key := MostVisitedRequest{Limit: limit, Browser: b, Format: f}
	return cached(ctx, s, "most_visited", b, key, func(e *storage.Engine) (*MostVisitedResult, error) {
		pages, err := e.MostVisited(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &MostVisitedResult{Pages: pages, Count: len(pages), Message: format.MostVisited(pages, f)}, nil
	})
}
