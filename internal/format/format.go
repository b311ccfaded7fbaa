// Package format renders query results as markdown, JSON or CSV text.
package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/storage"
)

// Output formats.
const (
	Markdown = "markdown"
	JSON     = "json"
	CSV      = "csv"
)

// Error renders an error message for tool-call callers.
func Error(msg string) string {
	return "Error: " + msg
}

func entryMarkdown(e storage.Entry) string {
	return fmt.Sprintf("- **%s**\n  URL: %s\n  Timestamp: %s", e.Title, e.URL, e.Timestamp)
}

func entriesMarkdown(entries []storage.Entry) string {
	items := make([]string, len(entries))
	for i, e := range entries {
		items[i] = entryMarkdown(e)
	}
	return strings.Join(items, "\n\n")
}

func marshal(v any) string {
	return encode(v, "")
}

func marshalIndent(v any) string {
	return encode(v, "  ")
}

// encode leaves &, < and > unescaped so URLs stay readable.
func encode(v any, indent string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return Error(err.Error())
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

type resultsEnvelope struct {
	Results []storage.Entry `json:"results"`
	Count   int             `json:"count"`
}

// Results renders a result list. An empty list renders as the sentinel
// "No history found for: <label>" in every format.
func Results(entries []storage.Entry, label, format string) string {
	if len(entries) == 0 {
		return "No history found for: " + label
	}
	if format == JSON {
		return marshal(resultsEnvelope{Results: entries, Count: len(entries)})
	}
	return entriesMarkdown(entries)
}

// Recent renders the recency window search. JSON output is always an
// envelope, even when empty.
func Recent(entries []storage.Entry, hours int, format string) string {
	if format == JSON {
		return marshal(resultsEnvelope{Results: nonNil(entries), Count: len(entries)})
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No history found in the last %d hours", hours)
	}
	return fmt.Sprintf("History from last %d hours:\n\n", hours) + entriesMarkdown(entries)
}

// DomainVisits renders a visit count for one domain.
func DomainVisits(domain, browser string, count int64) string {
	return fmt.Sprintf("Visits to '%s' in %s: %d", domain, browser, count)
}

// TopDomains renders the domain ranking.
func TopDomains(domains []storage.DomainVisits, format string) string {
	if format == JSON {
		if domains == nil {
			domains = []storage.DomainVisits{}
		}
		return marshal(struct {
			TopDomains []storage.DomainVisits `json:"top_domains"`
		}{domains})
	}
	if len(domains) == 0 {
		return "No domain data found"
	}
	lines := make([]string, len(domains))
	for i, d := range domains {
		lines[i] = fmt.Sprintf("- **%s** (%d visits)", d.Domain, d.Visits)
	}
	return strings.Join(lines, "\n")
}

// MostVisited renders the page ranking.
func MostVisited(pages []storage.PageVisits, format string) string {
	if format == JSON {
		if pages == nil {
			pages = []storage.PageVisits{}
		}
		return marshal(struct {
			TopPages []storage.PageVisits `json:"top_pages"`
		}{pages})
	}
	if len(pages) == 0 {
		return "No page data found"
	}
	items := make([]string, len(pages))
	for i, p := range pages {
		items[i] = fmt.Sprintf("- **%s**\n  URL: %s\n  Visits: %d", p.Title, p.URL, p.Visits)
	}
	return "Most visited pages:\n\n" + strings.Join(items, "\n\n")
}

// DomainResults renders a domain search.
func DomainResults(entries []storage.Entry, domain, query, format string) string {
	if format == JSON {
		return marshal(struct {
			Domain  string          `json:"domain"`
			Results []storage.Entry `json:"results"`
			Count   int             `json:"count"`
		}{domain, nonNil(entries), len(entries)})
	}
	if len(entries) == 0 {
		return "No history found for domain: " + domain
	}
	header := fmt.Sprintf("History for %s:", domain)
	if query != "" {
		header = fmt.Sprintf("History for '%s' in %s:", query, domain)
	}
	return header + "\n\n" + entriesMarkdown(entries)
}

// Advanced renders an advanced search, echoing the options in JSON.
func Advanced(entries []storage.Entry, opts storage.SearchOptions, format string) string {
	if format == JSON {
		if opts.ExcludeDomains == nil {
			opts.ExcludeDomains = []string{}
		}
		return marshal(struct {
			Query   string                `json:"query"`
			Results []storage.Entry       `json:"results"`
			Count   int                   `json:"count"`
			Options storage.SearchOptions `json:"options"`
		}{opts.Query, nonNil(entries), len(entries), opts})
	}
	return Results(entries, opts.Query, Markdown)
}

// Stats renders statistics as indented JSON.
func Stats(s *storage.Stats) string {
	return marshalIndent(s)
}

// Export renders rows for download. CSV has a title,url,timestamp header
// and CRLF line endings; no rows renders as an empty document.
func Export(entries []storage.Entry, format string) (string, error) {
	switch format {
	case CSV:
		if len(entries) == 0 {
			return "", nil
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.UseCRLF = true
		_ = w.Write([]string{"title", "url", "timestamp"})
		for _, e := range entries {
			_ = w.Write([]string{e.Title, e.URL, e.Timestamp})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("writing csv: %w", err)
		}
		return buf.String(), nil
	case JSON:
		return marshalIndent(struct {
			ExportedEntries int             `json:"exported_entries"`
			Entries         []storage.Entry `json:"entries"`
		}{len(entries), nonNil(entries)}), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// DeletePreview describes what a confirmed delete would remove.
func DeletePreview(n int, query string) string {
	return fmt.Sprintf("Permanent delete preview: %d entries would be deleted matching '%s'. Set confirm=true to execute.", n, query)
}

// Deleted reports a completed delete.
func Deleted(n int64, query, browser string) string {
	return fmt.Sprintf("Deleted %d history entries matching '%s' from %s", n, query, browser)
}

// Sync reports a sync or its dry run.
func Sync(n int, source, target, strategy string, dryRun bool) string {
	if dryRun {
		return fmt.Sprintf("Dry run: Would sync %d entries from %s to %s using '%s' strategy", n, source, target, strategy)
	}
	return fmt.Sprintf("Synced %d entries from %s to %s using '%s' strategy", n, source, target, strategy)
}

// Browsers renders the list of browsers found on this machine.
func Browsers(names []string) string {
	if len(names) == 0 {
		return "No browsers with history found on this system"
	}
	return "Available browsers: " + strings.Join(names, ", ")
}

// Bookmarks renders a bookmark list.
func Bookmarks(items []storage.Bookmark, format string) string {
	if format == JSON {
		if items == nil {
			items = []storage.Bookmark{}
		}
		return marshal(struct {
			Bookmarks []storage.Bookmark `json:"bookmarks"`
			Count     int                `json:"count"`
		}{items, len(items)})
	}
	if len(items) == 0 {
		return "No bookmarks found"
	}
	lines := make([]string, len(items))
	for i, b := range items {
		lines[i] = fmt.Sprintf("- **%s**\n  URL: %s", b.Title, b.URL)
	}
	return strings.Join(lines, "\n\n")
}

// Downloads renders a download list.
func Downloads(items []storage.Download, format string) string {
	if format == JSON {
		if items == nil {
			items = []storage.Download{}
		}
		return marshal(struct {
			Downloads []storage.Download `json:"downloads"`
			Count     int                `json:"count"`
		}{items, len(items)})
	}
	if len(items) == 0 {
		return "No downloads found"
	}
	lines := make([]string, len(items))
	for i, d := range items {
		lines[i] = fmt.Sprintf("- **%s**\n  URL: %s\n  Timestamp: %s", d.Filename, d.URL, d.Timestamp)
	}
	return strings.Join(lines, "\n\n")
}

func nonNil(entries []storage.Entry) []storage.Entry {
	if entries == nil {
		return []storage.Entry{}
	}
	return entries
}
