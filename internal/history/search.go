package history

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/format"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/validate"
)

type SearchRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Format  string `json:"format"`
}

type SearchResult struct {
	Results []storage.Entry `json:"results"`
	Count   int             `json:"count"`
	Query   string          `json:"query"`
	Message string          `json:"message"`
}

// Search finds pages whose title or URL contains the query.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("search", req.Browser, err)
	}
	q, err := validate.Query(req.Query, "query")
	if err != nil {
		return nil, s.remap("search", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, s.searchLimit()), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap("search", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("search", b, err)
	}

	s.logger.Info("searching history",
		zap.String("query", q), zap.String("browser", b), zap.Int("limit", limit))

	key := SearchRequest{Query: q, Limit: limit, Browser: b, Format: f}
	return cached(ctx, s, "search", b, key, func(e *storage.Engine) (*SearchResult, error) {
		rows, err := e.SearchText(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		return &SearchResult{Results: rows, Count: len(rows), Query: q, Message: format.Results(rows, q, f)}, nil
	})
}

type RecentRequest struct {
	Hours   int    `json:"hours"`
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Format  string `json:"format"`
}

type RecentResult struct {
	Results []storage.Entry `json:"results"`
	Count   int             `json:"count"`
	Hours   int             `json:"hours"`
	Message string          `json:"message"`
}

// Recent lists pages visited within the last Hours (24 by default).
func (s *Service) Recent(ctx context.Context, req RecentRequest) (*RecentResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("recent", req.Browser, err)
	}
	hours, err := validate.Hours(orDefault(req.Hours, 24))
	if err != nil {
		return nil, s.remap("recent", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 20), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap("recent", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("recent", b, err)
	}

	key := RecentRequest{Hours: hours, Limit: limit, Browser: b, Format: f}
	return cached(ctx, s, "recent", b, key, func(e *storage.Engine) (*RecentResult, error) {
		rows, err := e.SearchRecent(ctx, hours, limit)
		if err != nil {
			return nil, err
		}
		return &RecentResult{Results: rows, Count: len(rows), Hours: hours, Message: format.Recent(rows, hours, f)}, nil
	})
}

type DateSearchRequest struct {
	Query     string `json:"query"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Limit     int    `json:"limit"`
	Browser   string `json:"browser"`
	Format    string `json:"format"`
}

type DateSearchResult struct {
	Results   []storage.Entry `json:"results"`
	Count     int             `json:"count"`
	Query     string          `json:"query"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Message   string          `json:"message"`
}

// SearchByDate finds matching pages visited between two ISO-8601 dates,
// both inclusive.
func (s *Service) SearchByDate(ctx context.Context, req DateSearchRequest) (*DateSearchResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("search_by_date", req.Browser, err)
	}
	q, err := validate.Query(req.Query, "query")
	if err != nil {
		return nil, s.remap("search_by_date", b, err)
	}
	start, end, err := validate.DateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, s.remap("search_by_date", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 10), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap("search_by_date", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("search_by_date", b, err)
	}

	key := DateSearchRequest{Query: q, StartDate: start, EndDate: end, Limit: limit, Browser: b, Format: f}
	return cached(ctx, s, "search_by_date", b, key, func(e *storage.Engine) (*DateSearchResult, error) {
		rows, err := e.SearchDateRange(ctx, q, start, end, limit)
		if err != nil {
			return nil, err
		}
		return &DateSearchResult{
			Results:   rows,
			Count:     len(rows),
			Query:     q,
			StartDate: start,
			EndDate:   end,
			Message:   format.Results(rows, q, f),
		}, nil
	})
}

// DomainSearchRequest searches within one domain. ExcludeDomains accepts a
// []string or a decoded JSON array; anything else is rejected.
type DomainSearchRequest struct {
	Domain         string `json:"domain"`
	Query          string `json:"query"`
	Limit          int    `json:"limit"`
	Browser        string `json:"browser"`
	Format         string `json:"format"`
	ExcludeDomains any    `json:"exclude_domains"`
}

type DomainSearchResult struct {
	Results []storage.Entry `json:"results"`
	Count   int             `json:"count"`
	Domain  string          `json:"domain"`
	Query   string          `json:"query"`
	Message string          `json:"message"`
}

// DomainSearch lists pages on a domain, optionally narrowed by a query and
// excluding other domains.
func (s *Service) DomainSearch(ctx context.Context, req DomainSearchRequest) (*DomainSearchResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("domain_search", req.Browser, err)
	}
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		return nil, s.remap("domain_search", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 20), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap("domain_search", b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap("domain_search", b, err)
	}
	exclude, err := validate.ExcludeDomains(req.ExcludeDomains)
	if err != nil {
		return nil, s.remap("domain_search", b, err)
	}
	q := strings.TrimSpace(req.Query)

	key := struct {
		Domain, Query, Browser, Format string
		Limit                          int
		Exclude                        []string
	}{domain, q, b, f, limit, exclude}
	return cached(ctx, s, "domain_search", b, key, func(e *storage.Engine) (*DomainSearchResult, error) {
		rows, err := e.SearchDomain(ctx, domain, q, limit, exclude)
		if err != nil {
			return nil, err
		}
		return &DomainSearchResult{
			Results: rows,
			Count:   len(rows),
			Domain:  domain,
			Query:   q,
			Message: format.DomainResults(rows, domain, q, f),
		}, nil
	})
}

// AdvancedSearchRequest combines the search modes. FuzzyThreshold nil
// means the configured default.
type AdvancedSearchRequest struct {
	Query          string   `json:"query"`
	Limit          int      `json:"limit"`
	Browser        string   `json:"browser"`
	Format         string   `json:"format"`
	ExcludeDomains any      `json:"exclude_domains"`
	SortBy         string   `json:"sort_by"`
	UseRegex       bool     `json:"use_regex"`
	UseFuzzy       bool     `json:"use_fuzzy"`
	FuzzyThreshold *float64 `json:"fuzzy_threshold"`
}

type AdvancedSearchResult struct {
	Results []storage.Entry       `json:"results"`
	Count   int                   `json:"count"`
	Query   string                `json:"query"`
	Options storage.SearchOptions `json:"options"`
	Message string                `json:"message"`
}

// AdvancedSearch runs a substring, regex or fuzzy search with domain
// exclusion and a chosen sort order.
func (s *Service) AdvancedSearch(ctx context.Context, req AdvancedSearchRequest) (*AdvancedSearchResult, error) {
	const op = "advanced_search"
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap(op, req.Browser, err)
	}
	q, err := validate.Query(req.Query, "query")
	if err != nil {
		return nil, s.remap(op, b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 20), validate.SearchLimit, "limit")
	if err != nil {
		return nil, s.remap(op, b, err)
	}
	f, err := validate.Format(s.formatOrDefault(req.Format))
	if err != nil {
		return nil, s.remap(op, b, err)
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = storage.SortDate
	}
	if sortBy, err = validate.SortBy(sortBy); err != nil {
		return nil, s.remap(op, b, err)
	}
	exclude, err := validate.ExcludeDomains(req.ExcludeDomains)
	if err != nil {
		return nil, s.remap(op, b, err)
	}
	threshold := s.cfg.Advanced.FuzzyThreshold
	if req.FuzzyThreshold != nil {
		threshold = *req.FuzzyThreshold
	}
	if threshold, err = validate.FuzzyThreshold(threshold); err != nil {
		return nil, s.remap(op, b, err)
	}
	if err := validate.SearchOptions(req.UseRegex, req.UseFuzzy); err != nil {
		return nil, s.remap(op, b, err)
	}

	opts := storage.SearchOptions{
		Query:          q,
		Limit:          limit,
		ExcludeDomains: exclude,
		SortBy:         sortBy,
		UseRegex:       req.UseRegex,
		UseFuzzy:       req.UseFuzzy,
		FuzzyThreshold: threshold,
	}
	key := struct {
		Options storage.SearchOptions
		Browser string
		Format  string
	}{opts, b, f}
	return cached(ctx, s, op, b, key, func(e *storage.Engine) (*AdvancedSearchResult, error) {
		rows, err := e.SearchAdvanced(ctx, opts)
		if err != nil {
			return nil, err
		}
		return &AdvancedSearchResult{
			Results: rows,
			Count:   len(rows),
			Query:   q,
			Options: opts,
			Message: format.Advanced(rows, opts, f),
		}, nil
	})
}
