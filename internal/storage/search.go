package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// ErrInvalidPattern wraps regular expression compile failures.
var ErrInvalidPattern = errors.New("invalid regex pattern")

// SearchRegex tests the limit most recent rows against pattern
// (case-insensitive) and returns those whose title or URL matches.
func (e *Engine) SearchRegex(ctx context.Context, pattern string, limit int) ([]Entry, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	rows, err := e.scanEntries(ctx, e.from(e.schema.history()).order("ts DESC").limit(limit))
	if err != nil {
		return nil, err
	}

	matches := []Entry{}
	for _, r := range rows {
		if re.MatchString(r.Title) || re.MatchString(r.URL) {
			matches = append(matches, r)
			if len(matches) == limit {
				break
			}
		}
	}
	return matches, nil
}

// SearchFuzzy scores up to 3*limit recent substring matches against query
// and returns those scoring at least threshold, best first. The URL is only
// scored when the title misses.
func (e *Engine) SearchFuzzy(ctx context.Context, query string, threshold float64, limit int) ([]ScoredEntry, error) {
	candidates, err := e.scanEntries(ctx, e.from(e.schema.history()).
		where("(title LIKE ? OR url LIKE ?)", like(query), like(query)).
		order("ts DESC").
		limit(limit*3))
	if err != nil {
		return nil, err
	}

	matches := []ScoredEntry{}
	for _, c := range candidates {
		score := Score(query, c.Title)
		if score < threshold && c.URL != "" {
			score = Score(query, c.URL)
		}
		if score >= threshold {
			matches = append(matches, ScoredEntry{Entry: c, Score: round3(score)})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

var sortColumns = map[string]string{
	SortDate:       "ts DESC",
	SortVisitCount: "visit_count DESC",
	SortTitle:      "title ASC",
}

// SearchAdvanced runs regex or fuzzy search when requested, otherwise a
// substring search with domain exclusion in the requested order. Unknown
// sort orders fall back to newest first.
func (e *Engine) SearchAdvanced(ctx context.Context, opts SearchOptions) ([]Entry, error) {
	switch {
	case opts.UseRegex:
		return e.SearchRegex(ctx, opts.Query, opts.Limit)
	case opts.UseFuzzy:
		scored, err := e.SearchFuzzy(ctx, opts.Query, opts.FuzzyThreshold, opts.Limit)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, len(scored))
		for i, s := range scored {
			out[i] = s.Entry
		}
		return out, nil
	}

	order, ok := sortColumns[opts.SortBy]
	if !ok {
		order = sortColumns[SortDate]
	}

	return e.scanEntries(ctx, e.from(e.schema.history()).
		where("(title LIKE ? OR url LIKE ?)", like(opts.Query), like(opts.Query)).
		exclude(opts.ExcludeDomains).
		order(order).
		limit(opts.Limit))
}
