// Package storage runs read and delete queries against snapshots of browser
// history databases, translating each browser's schema to common shapes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Querier is the subset of *sql.DB the Engine needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// URLSanitizer rewrites URLs before they leave the Engine.
type URLSanitizer interface {
	URL(raw string) string
}

type passthrough struct{}

func (passthrough) URL(raw string) string { return raw }

// Engine queries one open history database. It holds no state beyond its
// handle and is safe to discard after each snapshot.
type Engine struct {
	db       Querier
	schema   Schema
	sanitize URLSanitizer
	now      func() time.Time
}

// NewEngine creates an Engine for db using schema. A nil sanitizer leaves
// URLs untouched.
func NewEngine(db Querier, schema Schema, s URLSanitizer) *Engine {
	if s == nil {
		s = passthrough{}
	}
	return &Engine{db: db, schema: schema, sanitize: s, now: time.Now}
}

// Schema returns the schema the Engine was built with.
func (e *Engine) Schema() Schema { return e.schema }

// SearchText returns rows whose title or URL contains query, newest first.
// query is used verbatim in a LIKE pattern, so % and _ act as wildcards.
func (e *Engine) SearchText(ctx context.Context, query string, limit int) ([]Entry, error) {
	q := e.from(e.schema.history()).
		where("(title LIKE ? OR url LIKE ?)", like(query), like(query)).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// SearchRecent returns rows visited within the last hours, newest first.
// A window longer than a time.Duration can hold covers the whole history.
func (e *Engine) SearchRecent(ctx context.Context, hours, limit int) ([]Entry, error) {
	since := time.Time{}
	if int64(hours) <= math.MaxInt64/int64(time.Hour) {
		since = e.now().Add(-time.Duration(hours) * time.Hour)
	}
	q := e.from(e.schema.history()).
		where("ts > ?", e.schema.Clock().Native(since)).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// SearchDateRange returns rows visited between start and end inclusive,
// optionally filtered by query. Dates without a time mean midnight UTC.
// Malformed dates yield an empty result rather than an error.
func (e *Engine) SearchDateRange(ctx context.Context, query, start, end string, limit int) ([]Entry, error) {
	from, err := ParseDate(start)
	if err != nil {
		return []Entry{}, nil
	}
	to, err := ParseDate(end)
	if err != nil {
		return []Entry{}, nil
	}

	clock := e.schema.Clock()
	q := e.from(e.schema.history()).
		where("ts >= ? AND ts <= ?", clock.Native(from), clock.Native(to)).
		text(query).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// SearchDomain returns rows whose URL contains domain and none of exclude,
// optionally filtered by query, newest first.
func (e *Engine) SearchDomain(ctx context.Context, domain, query string, limit int, exclude []string) ([]Entry, error) {
	q := e.from(e.schema.history()).
		where("url LIKE ?", like(domain)).
		text(query).
		exclude(exclude).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// Export returns up to limit rows, newest first, optionally filtered by query.
func (e *Engine) Export(ctx context.Context, query string, limit int) ([]Entry, error) {
	q := e.from(e.schema.history()).
		text(query).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// UniversalSearch is SearchText over individual visits rather than URLs, so
// a page visited several times appears once per visit.
func (e *Engine) UniversalSearch(ctx context.Context, query string, limit int) ([]Entry, error) {
	q := e.from(e.schema.visits()).
		where("(title LIKE ? OR url LIKE ?)", like(query), like(query)).
		order("ts DESC").
		limit(limit)
	return e.scanEntries(ctx, q)
}

// CountDomainVisits sums visit counts of rows whose URL contains domain.
func (e *Engine) CountDomainVisits(ctx context.Context, domain string) (int64, error) {
	var total int64
	row := e.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(visit_count), 0) FROM (`+e.schema.history()+`) WHERE url LIKE ?`,
		like(domain))
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count domain visits: %w", err)
	}
	return total, nil
}

// hostExpr extracts the text between "//" and the next "/" (or the end).
const hostExpr = `CASE
	WHEN INSTR(SUBSTR(url, INSTR(url, '//') + 2), '/') > 0
	THEN SUBSTR(SUBSTR(url, INSTR(url, '//') + 2), 1, INSTR(SUBSTR(url, INSTR(url, '//') + 2), '/') - 1)
	ELSE SUBSTR(url, INSTR(url, '//') + 2)
END`

// TopDomains returns hosts of http(s) URLs ranked by summed visit count.
// Hosts keep any userinfo or port and are not lower-cased.
func (e *Engine) TopDomains(ctx context.Context, limit int) ([]DomainVisits, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT domain, SUM(COALESCE(visit_count, 0)) AS total FROM (
			SELECT `+hostExpr+` AS domain, visit_count
			FROM (`+e.schema.history()+`)
			WHERE url LIKE 'http%'
		)
		GROUP BY domain
		ORDER BY total DESC, domain ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top domains: %w", err)
	}
	defer rows.Close()

	out := []DomainVisits{}
	for rows.Next() {
		var d DomainVisits
		if err := rows.Scan(&d.Domain, &d.Visits); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MostVisited returns titled http(s) pages ranked by visit count.
func (e *Engine) MostVisited(ctx context.Context, limit int) ([]PageVisits, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT title, url, COALESCE(visit_count, 0) FROM (`+e.schema.history()+`)
		WHERE title IS NOT NULL AND url LIKE 'http%'
		ORDER BY visit_count DESC, ts DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query most visited: %w", err)
	}
	defer rows.Close()

	out := []PageVisits{}
	for rows.Next() {
		var p PageVisits
		if err := rows.Scan(&p.Title, &p.URL, &p.Visits); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.URL = e.sanitize.URL(p.URL)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Stats computes aggregate counts and the first and last visit times.
// Rows never visited (ts of zero or NULL) are ignored for the time bounds.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	var (
		s           Stats
		first, last any
	)
	err := e.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(visit_count), 0),
			MIN(CASE WHEN ts > 0 THEN ts END), MAX(CASE WHEN ts > 0 THEN ts END)
		FROM (`+e.schema.history()+`)`).Scan(&s.TotalEntries, &s.TotalVisits, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	err = e.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT url) FROM (`+e.schema.history()+`) WHERE url LIKE 'http%'`).Scan(&s.UniqueURLs)
	if err != nil {
		return nil, fmt.Errorf("query unique urls: %w", err)
	}

	clock := e.schema.Clock()
	if first != nil {
		v := clock.Format(first)
		s.FirstVisit = &v
	}
	if last != nil {
		v := clock.Format(last)
		s.LastVisit = &v
	}
	return &s, nil
}

// DeleteMatching removes up to limit rows whose title or URL contains query
// and returns the number removed. Only the open database is modified.
func (e *Engine) DeleteMatching(ctx context.Context, query string, limit int) (int64, error) {
	table, key := e.schema.deleteTarget()
	res, err := e.db.ExecContext(ctx, `
		DELETE FROM `+table+` WHERE `+key+` IN (
			SELECT id FROM (`+e.schema.history()+`)
			WHERE title LIKE ? OR url LIKE ?
			LIMIT ?
		)`, like(query), like(query), limit)
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete history: %w", err)
	}
	return n, nil
}

// scanEntries runs q and converts every row into an Entry.
func (e *Engine) scanEntries(ctx context.Context, q *selectQuery) ([]Entry, error) {
	query, args := q.build()
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	clock := e.schema.Clock()
	entries := []Entry{}
	for rows.Next() {
		var (
			title, url sql.NullString
			ts         any
		)
		if err := rows.Scan(&title, &url, &ts); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, Entry{
			Title:     title.String,
			URL:       e.sanitize.URL(url.String),
			Timestamp: clock.Format(ts),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ErrInvalidDate is returned by ParseDate for unrecognized input.
var ErrInvalidDate = errors.New("invalid date format")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 date or datetime. Values without an offset
// are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func like(s string) string { return "%" + s + "%" }
