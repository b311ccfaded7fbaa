package storage

// Entry is one history row as returned to callers. URL is always sanitized
// and Timestamp is ISO-8601 or a "<unit>=<raw>" fallback.
type Entry struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// ScoredEntry is an Entry with its fuzzy similarity score.
type ScoredEntry struct {
	Entry
	Score float64 `json:"score"`
}

// DomainVisits pairs a host with its summed visit count.
type DomainVisits struct {
	Domain string `json:"domain"`
	Visits int64  `json:"visits"`
}

// PageVisits pairs a page with its visit count.
type PageVisits struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Visits int64  `json:"visits"`
}

// Stats holds aggregate statistics about one history database.
type Stats struct {
	TotalEntries int64   `json:"total_entries"`
	TotalVisits  int64   `json:"total_visits"`
	UniqueURLs   int64   `json:"unique_urls"`
	FirstVisit   *string `json:"first_visit"`
	LastVisit    *string `json:"last_visit"`
}

// Bookmark is one saved page.
type Bookmark struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Download is one downloaded file.
type Download struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// Sort orders accepted by SearchAdvanced.
const (
	SortDate       = "date"
	SortVisitCount = "visit_count"
	SortTitle      = "title"
)

// SearchOptions bundles the knobs of SearchAdvanced. UseRegex and UseFuzzy
// are mutually exclusive; callers validate that before building one.
type SearchOptions struct {
	Query          string   `json:"query"`
	Limit          int      `json:"limit"`
	ExcludeDomains []string `json:"exclude_domains"`
	SortBy         string   `json:"sort_by"`
	UseRegex       bool     `json:"use_regex"`
	UseFuzzy       bool     `json:"use_fuzzy"`
	FuzzyThreshold float64  `json:"fuzzy_threshold"`
}
