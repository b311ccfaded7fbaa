// Package validate checks caller input before any database work starts.
// Every function returns the normalized value or a typed error.
package validate

import (
	"fmt"
	"slices"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
)

// Error reports a single invalid field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// DateRangeError reports an unparseable or inverted date range.
type DateRangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *DateRangeError) Error() string { return "Invalid date range: " + e.Reason }

// Range is an inclusive bound for integer parameters.
type Range struct{ Min, Max int }

// Limit bounds per operation.
var (
	SearchLimit     = Range{1, 100}
	TopDomainsLimit = Range{1, 50}
	DeleteLimit     = Range{1, 500}
	ExportLimit     = Range{1, 10000}
	BookmarkLimit   = Range{1, 100}
)

var (
	formats         = []string{"markdown", "json"}
	exportFormats   = []string{"csv", "json"}
	sortOrders      = []string{storage.SortDate, storage.SortVisitCount, storage.SortTitle}
	mergeStrategies = []string{"latest", "combine", "dedupe"}
)

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Browser returns the lower-cased name of a supported browser.
func Browser(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", invalid("browser", "Browser cannot be empty")
	}
	lower := browser.Normalize(name)
	if !browser.Supported(lower) {
		return "", invalid("browser", "Invalid browser '%s'. Valid options: %s", name, strings.Join(browser.Names(), ", "))
	}
	return lower, nil
}

// Query returns q trimmed, rejecting blank input. field names the
// parameter in the error message.
func Query(q, field string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", invalid(field, "%s cannot be empty", capitalize(field))
	}
	return q, nil
}

// Limit checks n against r.
func Limit(n int, r Range, field string) (int, error) {
	if n < r.Min || n > r.Max {
		return 0, invalid(field, "%s must be between %d and %d", capitalize(field), r.Min, r.Max)
	}
	return n, nil
}

// Hours requires a positive look-back window.
func Hours(h int) (int, error) {
	if h < 1 {
		return 0, invalid("hours", "Hours must be a positive integer")
	}
	return h, nil
}

// Format accepts markdown or json.
func Format(f string) (string, error) {
	return oneOf(f, "format", "Format", formats)
}

// ExportFormat accepts csv or json.
func ExportFormat(f string) (string, error) {
	return oneOf(f, "format_type", "Format type", exportFormats)
}

// SortBy accepts date, visit_count or title.
func SortBy(s string) (string, error) {
	return oneOf(s, "sort_by", "Sort order", sortOrders)
}

// MergeStrategy accepts latest, combine or dedupe.
func MergeStrategy(s string) (string, error) {
	return oneOf(s, "merge_strategy", "Merge strategy", mergeStrategies)
}

func oneOf(v, field, label string, valid []string) (string, error) {
	if strings.TrimSpace(v) == "" {
		return "", invalid(field, "%s cannot be empty", label)
	}
	lower := strings.ToLower(strings.TrimSpace(v))
	if !slices.Contains(valid, lower) {
		return "", invalid(field, "Invalid %s '%s'. Valid options: %s", field, v, strings.Join(valid, ", "))
	}
	return lower, nil
}

// Domain returns d trimmed, rejecting blank input.
func Domain(d string) (string, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return "", invalid("domain", "Domain cannot be empty")
	}
	return d, nil
}

// DateRange requires two parseable ISO-8601 dates with start <= end and
// returns them trimmed.
func DateRange(start, end string) (string, string, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" {
		return "", "", invalid("start_date", "Start date cannot be empty")
	}
	if end == "" {
		return "", "", invalid("end_date", "End date cannot be empty")
	}
	from, err := storage.ParseDate(start)
	if err != nil {
		return "", "", &DateRangeError{Start: start, End: end, Reason: "Invalid date format: " + err.Error()}
	}
	to, err := storage.ParseDate(end)
	if err != nil {
		return "", "", &DateRangeError{Start: start, End: end, Reason: "Invalid date format: " + err.Error()}
	}
	if from.After(to) {
		return "", "", &DateRangeError{Start: start, End: end, Reason: "Start date must be before or equal to end date"}
	}
	return start, end, nil
}

// FuzzyThreshold requires a value in [0, 1].
func FuzzyThreshold(f float64) (float64, error) {
	if !(f >= 0 && f <= 1) {
		return 0, invalid("fuzzy_threshold", "Fuzzy threshold must be between 0.0 and 1.0")
	}
	return f, nil
}

// SearchOptions rejects enabling regex and fuzzy matching together.
func SearchOptions(useRegex, useFuzzy bool) error {
	if useRegex && useFuzzy {
		return invalid("search_options", "Cannot use both regex and fuzzy matching simultaneously")
	}
	return nil
}

// BrowsersDiffer rejects syncing a browser with itself.
func BrowsersDiffer(source, target string) error {
	if browser.Normalize(source) == browser.Normalize(target) {
		return invalid("browsers", "Source and target browsers must be different")
	}
	return nil
}

// ExcludeDomains accepts nil, []string or a JSON-decoded []any of strings.
// Entries are trimmed and blanks dropped.
func ExcludeDomains(v any) ([]string, error) {
	var raw []string
	switch list := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		raw = list
	case []any:
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, invalid("exclude_domains", "exclude_domains must be a list of strings")
			}
			raw = append(raw, s)
		}
	default:
		return nil, invalid("exclude_domains", "exclude_domains must be a list")
	}

	out := make([]string, 0, len(raw))
	for _, d := range raw {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
