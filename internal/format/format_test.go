package format

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chronicle-mcp/internal/storage"
)

var rows = []storage.Entry{
	{Title: "Go", URL: "https://go.dev/?a=1&b=2", Timestamp: "2024-01-01T00:00:00Z"},
	{Title: "Rust, \"the book\"", URL: "https://doc.rust-lang.org/book/", Timestamp: "2024-01-02T00:00:00Z"},
}

func TestResultsMarkdown(t *testing.T) {
	got := Results(rows, "go", Markdown)
	want := "- **Go**\n  URL: https://go.dev/?a=1&b=2\n  Timestamp: 2024-01-01T00:00:00Z\n\n" +
		"- **Rust, \"the book\"**\n  URL: https://doc.rust-lang.org/book/\n  Timestamp: 2024-01-02T00:00:00Z"
	assert.Equal(t, want, got)
}

func TestResultsJSON(t *testing.T) {
	got := Results(rows, "go", JSON)
	assert.Contains(t, got, `"url":"https://go.dev/?a=1&b=2"`, "ampersands stay unescaped")

	var decoded struct {
		Results []storage.Entry `json:"results"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, 2, decoded.Count)
	assert.Equal(t, rows, decoded.Results)
}

func TestResultsEmptySentinelInEveryFormat(t *testing.T) {
	assert.Equal(t, "No history found for: golang", Results(nil, "golang", Markdown))
	assert.Equal(t, "No history found for: golang", Results([]storage.Entry{}, "golang", JSON))
}

func TestRecent(t *testing.T) {
	assert.Equal(t, "No history found in the last 24 hours", Recent(nil, 24, Markdown))
	assert.Equal(t, `{"results":[],"count":0}`, Recent(nil, 24, JSON))
	assert.True(t, strings.HasPrefix(Recent(rows, 6, Markdown), "History from last 6 hours:\n\n- **Go**"))
}

func TestAggregates(t *testing.T) {
	assert.Equal(t, "Visits to 'go.dev' in chrome: 42", DomainVisits("go.dev", "chrome", 42))

	domains := []storage.DomainVisits{{Domain: "go.dev", Visits: 3}, {Domain: "a.b", Visits: 1}}
	assert.Equal(t, "- **go.dev** (3 visits)\n- **a.b** (1 visits)", TopDomains(domains, Markdown))
	assert.Equal(t, `{"top_domains":[{"domain":"go.dev","visits":3},{"domain":"a.b","visits":1}]}`, TopDomains(domains, JSON))
	assert.Equal(t, "No domain data found", TopDomains(nil, Markdown))
	assert.Equal(t, `{"top_domains":[]}`, TopDomains(nil, JSON))

	pages := []storage.PageVisits{{Title: "Go", URL: "https://go.dev/", Visits: 9}}
	assert.Equal(t, "Most visited pages:\n\n- **Go**\n  URL: https://go.dev/\n  Visits: 9", MostVisited(pages, Markdown))
	assert.Equal(t, "No page data found", MostVisited(nil, Markdown))
	assert.Equal(t, `{"top_pages":[{"title":"Go","url":"https://go.dev/","visits":9}]}`, MostVisited(pages, JSON))
}

func TestDomainResults(t *testing.T) {
	assert.Equal(t, "No history found for domain: go.dev", DomainResults(nil, "go.dev", "", Markdown))
	assert.True(t, strings.HasPrefix(DomainResults(rows, "go.dev", "", Markdown), "History for go.dev:\n\n"))
	assert.True(t, strings.HasPrefix(DomainResults(rows, "go.dev", "doc", Markdown), "History for 'doc' in go.dev:\n\n"))
	assert.Equal(t, `{"domain":"go.dev","results":[],"count":0}`, DomainResults(nil, "go.dev", "", JSON))
}

func TestAdvancedEchoesOptions(t *testing.T) {
	opts := storage.SearchOptions{Query: "go", Limit: 5, SortBy: "title", FuzzyThreshold: 0.6}
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(Advanced(rows[:1], opts, JSON)), &decoded))
	assert.Equal(t, "go", decoded["query"])
	assert.EqualValues(t, 1, decoded["count"])
	options := decoded["options"].(map[string]any)
	assert.Equal(t, "title", options["sort_by"])
	assert.Equal(t, []any{}, options["exclude_domains"])

	assert.Equal(t, "No history found for: go", Advanced(nil, opts, Markdown))
}

func TestStatsIsIndentedJSON(t *testing.T) {
	first := "2024-01-01T00:00:00Z"
	got := Stats(&storage.Stats{TotalEntries: 2, TotalVisits: 5, UniqueURLs: 2, FirstVisit: &first})
	assert.Equal(t, "{\n  \"total_entries\": 2,\n  \"total_visits\": 5,\n  \"unique_urls\": 2,\n  \"first_visit\": \"2024-01-01T00:00:00Z\",\n  \"last_visit\": null\n}", got)
}

func TestExportCSV(t *testing.T) {
	got, err := Export(rows, CSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "title,url,timestamp\r\n"))

	records, err := csv.NewReader(strings.NewReader(got)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(rows)+1)
	assert.Equal(t, []string{rows[1].Title, rows[1].URL, rows[1].Timestamp}, records[2])

	empty, err := Export(nil, CSV)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExportJSON(t *testing.T) {
	got, err := Export(rows, JSON)
	require.NoError(t, err)
	var decoded struct {
		ExportedEntries int             `json:"exported_entries"`
		Entries         []storage.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &decoded))
	assert.Equal(t, 2, decoded.ExportedEntries)
	assert.Equal(t, rows, decoded.Entries)
	assert.Contains(t, got, "\n  \"entries\": [")

	_, err = Export(rows, "xml")
	assert.Error(t, err)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Permanent delete preview: 3 entries would be deleted matching 'ads'. Set confirm=true to execute.", DeletePreview(3, "ads"))
	assert.Equal(t, "Deleted 3 history entries matching 'ads' from chrome", Deleted(3, "ads", "chrome"))
	assert.Equal(t, "Dry run: Would sync 7 entries from chrome to firefox using 'latest' strategy", Sync(7, "chrome", "firefox", "latest", true))
	assert.Equal(t, "Synced 7 entries from chrome to firefox using 'merge' strategy", Sync(7, "chrome", "firefox", "merge", false))
	assert.Equal(t, "Available browsers: chrome, firefox", Browsers([]string{"chrome", "firefox"}))
	assert.Equal(t, "No browsers with history found on this system", Browsers(nil))
	assert.Equal(t, "Error: boom", Error("boom"))
}

func TestBookmarksAndDownloads(t *testing.T) {
	assert.Equal(t, "No bookmarks found", Bookmarks(nil, Markdown))
	assert.Equal(t, "- **Go**\n  URL: https://go.dev/", Bookmarks([]storage.Bookmark{{Title: "Go", URL: "https://go.dev/"}}, Markdown))
	assert.Equal(t, `{"bookmarks":[],"count":0}`, Bookmarks(nil, JSON))

	assert.Equal(t, "No downloads found", Downloads(nil, Markdown))
	d := []storage.Download{{Filename: "a.zip", URL: "https://x/a.zip", Timestamp: "t"}}
	assert.Equal(t, "- **a.zip**\n  URL: https://x/a.zip\n  Timestamp: t", Downloads(d, Markdown))
	assert.Equal(t, `{"downloads":[{"filename":"a.zip","url":"https://x/a.zip","timestamp":"t"}],"count":1}`, Downloads(d, JSON))
}
