package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/chronicle-mcp/internal/browser"
	"github.com/runnerr0/chronicle-mcp/internal/cache"
	"github.com/runnerr0/chronicle-mcp/internal/config"
	"github.com/runnerr0/chronicle-mcp/internal/snapshot"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/webhook"
)

type event struct {
	name string
	data map[string]any
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *recordingNotifier) Trigger(name string, data map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event{name, data})
}

type env struct {
	svc      *Service
	root     string
	tempDir  string
	cache    *cache.Cache
	notifier *recordingNotifier
}

func ago(d time.Duration) time.Time { return time.Now().Add(-d) }

func setup(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	tempDir := t.TempDir()

	chromeDir := filepath.Join(root, "chrome")
	firefoxDir := filepath.Join(root, "firefox")
	require.NoError(t, os.MkdirAll(chromeDir, 0o755))
	require.NoError(t, os.MkdirAll(firefoxDir, 0o755))

	chrome := storage.Fixture{
		Schema: storage.SchemaChrome,
		Pages: []storage.FixturePage{
			{Title: "Go Documentation", URL: "https://go.dev/doc/", Visited: ago(time.Hour), Visits: 12},
			{Title: "Go Playground", URL: "https://go.dev/play/?token=secret123&page=1", Visited: ago(3 * time.Hour), Visits: 4},
			{Title: "Rust Book", URL: "https://doc.rust-lang.org/book/", Visited: ago(30 * time.Hour), Visits: 7},
			{Title: "Example", URL: "https://example.com/", Visited: ago(50 * time.Hour), Visits: 2},
		},
		Downloads: []storage.FixtureDownload{
			{Target: "/home/me/Downloads/go1.24.tar.gz", URL: "https://go.dev/dl/go1.24.tar.gz", Started: ago(2 * time.Hour)},
		},
	}
	require.NoError(t, chrome.Write(filepath.Join(chromeDir, "History")))
	require.NoError(t, storage.WriteChromeBookmarks(filepath.Join(chromeDir, "Bookmarks"), []storage.FixtureBookmark{
		{Title: "Go", URL: "https://go.dev/?session=abc", Added: ago(time.Hour)},
		{Title: "Rust", URL: "https://rust-lang.org/", Added: ago(2 * time.Hour)},
	}))

	firefox := storage.Fixture{
		Schema: storage.SchemaFirefox,
		Pages: []storage.FixturePage{
			{Title: "MDN", URL: "https://developer.mozilla.org/", Visited: ago(time.Hour), Visits: 3},
		},
		Bookmarks: []storage.FixtureBookmark{
			{Title: "MDN", URL: "https://developer.mozilla.org/", Added: ago(time.Hour)},
		},
	}
	require.NoError(t, firefox.Write(filepath.Join(firefoxDir, "places.sqlite")))

	places := filepath.Join(firefoxDir, "places.sqlite")
	templates := browser.Templates{
		"linux": {
			"chrome": {
				browser.History:   filepath.Join(chromeDir, "History"),
				browser.Bookmarks: filepath.Join(chromeDir, "Bookmarks"),
				browser.Downloads: filepath.Join(chromeDir, "History"),
			},
			"edge": {browser.History: filepath.Join(root, "edge", "History")},
			"firefox": {
				browser.History:   places,
				browser.Bookmarks: places,
				browser.Downloads: places,
			},
		},
	}

	c := cache.New(100, time.Minute)
	n := &recordingNotifier{}
	svc := New(config.DefaultConfig(),
		WithResolver(browser.NewResolver(browser.WithOS("linux"), browser.WithTemplates(templates))),
		WithTempDir(tempDir),
		WithCache(c),
		WithNotifier(n))

	t.Cleanup(func() {
		left, err := snapshot.Leftovers(tempDir, "")
		require.NoError(t, err)
		assert.Empty(t, left, "snapshot files left behind")
	})
	return &env{svc: svc, root: root, tempDir: tempDir, cache: c, notifier: n}
}

func requireKind(t *testing.T, err error, k Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var he *Error
	require.ErrorAs(t, err, &he)
	require.Equal(t, k, he.Kind, he.Message)
	return he
}

func TestSearchUsesDefaultsAndSanitizes(t *testing.T) {
	e := setup(t)

	res, err := e.svc.Search(context.Background(), SearchRequest{Query: "go.dev"})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "Go Documentation", res.Results[0].Title)
	assert.Equal(t, "https://go.dev/play/?page=1", res.Results[1].URL)
	assert.NotContains(t, res.Message, "secret123")
	assert.Contains(t, res.Message, "- **Go Documentation**")
}

func TestSearchJSONAndEmpty(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Search(ctx, SearchRequest{Query: "rust", Format: "JSON"})
	require.NoError(t, err)
	var body struct {
		Results []storage.Entry `json:"results"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Message), &body))
	assert.Equal(t, 1, body.Count)

	res, err = e.svc.Search(ctx, SearchRequest{Query: "nothing_here", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, "No history found for: nothing_here", res.Message)
	assert.Empty(t, res.Results)
}

func TestValidationErrorsCarryField(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Search(ctx, SearchRequest{Query: "go", Limit: 101})
	he := requireKind(t, err, KindValidation)
	assert.Equal(t, "limit", he.Field)

	_, err = e.svc.Search(ctx, SearchRequest{Query: "   "})
	he = requireKind(t, err, KindValidation)
	assert.Equal(t, "query", he.Field)

	_, err = e.svc.Search(ctx, SearchRequest{Query: "go", Browser: "netscape"})
	he = requireKind(t, err, KindValidation)
	assert.Equal(t, "browser", he.Field)

	_, err = e.svc.Search(ctx, SearchRequest{Query: "go", Format: "xml"})
	he = requireKind(t, err, KindValidation)
	assert.Equal(t, "format", he.Field)

	_, err = e.svc.TopDomains(ctx, TopDomainsRequest{Limit: 51})
	requireKind(t, err, KindValidation)
}

func TestMissingBrowserIsNotFound(t *testing.T) {
	e := setup(t)

	_, err := e.svc.Search(context.Background(), SearchRequest{Query: "go", Browser: "Edge"})
	he := requireKind(t, err, KindBrowserNotFound)
	assert.Equal(t, "Could not find edge history", he.Message)
}

func TestCorruptDatabaseIsDatabaseError(t *testing.T) {
	e := setup(t)
	edge := filepath.Join(e.root, "edge", "History")
	require.NoError(t, os.MkdirAll(filepath.Dir(edge), 0o755))
	require.NoError(t, os.WriteFile(edge, []byte("this is not sqlite"), 0o644))

	_, err := e.svc.Search(context.Background(), SearchRequest{Query: "go", Browser: "edge"})
	requireKind(t, err, KindDatabase)
}

func TestRecent(t *testing.T) {
	e := setup(t)

	res, err := e.svc.Recent(context.Background(), RecentRequest{})
	require.NoError(t, err)
	assert.Equal(t, 24, res.Hours)
	assert.Equal(t, 2, res.Count)
	assert.Contains(t, res.Message, "History from last 24 hours:")

	res, err = e.svc.Recent(context.Background(), RecentRequest{Hours: 72, Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)

	_, err = e.svc.Recent(context.Background(), RecentRequest{Hours: -1})
	requireKind(t, err, KindValidation)
}

func TestSearchByDate(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	today := time.Now().UTC()

	res, err := e.svc.SearchByDate(ctx, DateSearchRequest{
		Query:     "go",
		StartDate: today.AddDate(0, 0, -1).Format("2006-01-02"),
		EndDate:   today.AddDate(0, 0, 1).Format("2006-01-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	_, err = e.svc.SearchByDate(ctx, DateSearchRequest{Query: "go", StartDate: "2024-12-31", EndDate: "2024-01-01"})
	he := requireKind(t, err, KindInvalidDateRange)
	assert.Contains(t, he.Message, "Invalid date range")

	_, err = e.svc.SearchByDate(ctx, DateSearchRequest{Query: "go", StartDate: "yesterday", EndDate: "2024-01-01"})
	requireKind(t, err, KindInvalidDateRange)
}

func TestCountVisitsAndAggregates(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	count, err := e.svc.CountVisits(ctx, CountVisitsRequest{Domain: "go.dev"})
	require.NoError(t, err)
	assert.Equal(t, int64(16), count.Count)
	assert.Equal(t, "Visits to 'go.dev' in chrome: 16", count.Message)

	top, err := e.svc.TopDomains(ctx, TopDomainsRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, top.Domains, 2)
	assert.Equal(t, storage.DomainVisits{Domain: "go.dev", Visits: 16}, top.Domains[0])

	pages, err := e.svc.MostVisited(ctx, MostVisitedRequest{Limit: 1})
	require.NoError(t, err)
	require.Len(t, pages.Pages, 1)
	assert.Equal(t, "Go Documentation", pages.Pages[0].Title)

	stats, err := e.svc.Stats(ctx, StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Stats.TotalEntries)
	assert.Equal(t, int64(25), stats.Stats.TotalVisits)
	assert.Contains(t, stats.Message, `"total_entries": 4`)
}

func TestDomainSearch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.DomainSearch(ctx, DomainSearchRequest{Domain: "go.dev", Query: "play"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Contains(t, res.Message, "History for 'play' in go.dev:")

	res, err = e.svc.DomainSearch(ctx, DomainSearchRequest{Domain: "dev", ExcludeDomains: []any{"go.dev", " "}})
	require.NoError(t, err)
	assert.Zero(t, res.Count)

	_, err = e.svc.DomainSearch(ctx, DomainSearchRequest{Domain: "go.dev", ExcludeDomains: "go.dev"})
	he := requireKind(t, err, KindValidation)
	assert.Equal(t, "exclude_domains", he.Field)
}

func TestAdvancedSearch(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.AdvancedSearch(ctx, AdvancedSearchRequest{Query: "go", SortBy: "visit_count"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, "Go Documentation", res.Results[0].Title)
	assert.Equal(t, 0.6, res.Options.FuzzyThreshold)

	res, err = e.svc.AdvancedSearch(ctx, AdvancedSearchRequest{Query: `^Go\s`, UseRegex: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	_, err = e.svc.AdvancedSearch(ctx, AdvancedSearchRequest{Query: "(", UseRegex: true})
	requireKind(t, err, KindInvalidPattern)

	_, err = e.svc.AdvancedSearch(ctx, AdvancedSearchRequest{Query: "go", UseRegex: true, UseFuzzy: true})
	requireKind(t, err, KindValidation)

	bad := 1.5
	_, err = e.svc.AdvancedSearch(ctx, AdvancedSearchRequest{Query: "go", UseFuzzy: true, FuzzyThreshold: &bad})
	he := requireKind(t, err, KindValidation)
	assert.Equal(t, "fuzzy_threshold", he.Field)
}

func TestDeletePreviewAndConfirm(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	preview, err := e.svc.Delete(ctx, DeleteRequest{Query: "go.dev"})
	require.NoError(t, err)
	assert.True(t, preview.Preview)
	assert.Equal(t, 2, preview.Count)
	assert.Contains(t, preview.Message, "Set confirm=true to execute.")
	assert.Empty(t, e.notifier.events)

	// Deletes apply to the snapshot, so repeating one deletes the same rows.
	for i := 0; i < 2; i++ {
		res, err := e.svc.Delete(ctx, DeleteRequest{Query: "go.dev", Confirm: true})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Deleted)
		assert.Equal(t, "Deleted 2 history entries matching 'go.dev' from chrome", res.Message)
	}

	none, err := e.svc.Delete(ctx, DeleteRequest{Query: "nonexistent_xyz", Confirm: true})
	require.NoError(t, err)
	assert.Zero(t, none.Deleted)

	require.Len(t, e.notifier.events, 3)
	assert.Equal(t, webhook.EventDeleted, e.notifier.events[0].name)
	assert.Equal(t, "chrome", e.notifier.events[0].data["browser"])
}

func TestDeleteResultJSON(t *testing.T) {
	data, err := json.Marshal(DeleteResult{Preview: true, Query: "q", Count: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"preview":true,"query":"q","count":3,"message":""}`, string(data))

	data, err = json.Marshal(&DeleteResult{Query: "q", Browser: "chrome", Deleted: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":2,"query":"q","browser":"chrome","message":""}`, string(data))
}

func TestResultsAreCachedUntilDelete(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	_, err := e.svc.Search(ctx, SearchRequest{Query: "go"})
	require.NoError(t, err)
	_, err = e.svc.Search(ctx, SearchRequest{Query: "go", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.cache.Stats().Hits)

	_, err = e.svc.Delete(ctx, DeleteRequest{Query: "zzz", Confirm: true})
	require.NoError(t, err)
	assert.Zero(t, e.cache.Stats().Size)
}

func TestExport(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Export(ctx, ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "csv", res.Format)
	assert.Equal(t, 4, res.Count)
	assert.Contains(t, res.Content, "title,url,timestamp\r\n")

	res, err = e.svc.Export(ctx, ExportRequest{FormatType: "json", Query: "rust"})
	require.NoError(t, err)
	var body struct {
		ExportedEntries int             `json:"exported_entries"`
		Entries         []storage.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &body))
	assert.Equal(t, 1, body.ExportedEntries)
	assert.Len(t, body.Entries, 1)

	_, err = e.svc.Export(ctx, ExportRequest{FormatType: "markdown"})
	he := requireKind(t, err, KindValidation)
	assert.Equal(t, "format_type", he.Field)

	_, err = e.svc.Export(ctx, ExportRequest{Limit: 10001})
	requireKind(t, err, KindValidation)

	require.Len(t, e.notifier.events, 2)
	assert.Equal(t, webhook.EventExported, e.notifier.events[0].name)
}

func TestSync(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Sync(ctx, SyncRequest{SourceBrowser: "chrome", TargetBrowser: "firefox"})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 4, res.EntriesCount)
	assert.Equal(t, "latest", res.MergeStrategy)
	assert.Equal(t, "Dry run: Would sync 4 entries from chrome to firefox using 'latest' strategy", res.Message)
	assert.Empty(t, e.notifier.events)

	off := false
	res, err = e.svc.Sync(ctx, SyncRequest{SourceBrowser: "chrome", TargetBrowser: "firefox", MergeStrategy: "dedupe", DryRun: &off})
	require.NoError(t, err)
	assert.False(t, res.DryRun)
	assert.Equal(t, "Synced 4 entries from chrome to firefox using 'dedupe' strategy", res.Message)
	require.Len(t, e.notifier.events, 1)
	assert.Equal(t, webhook.EventSynced, e.notifier.events[0].name)

	_, err = e.svc.Sync(ctx, SyncRequest{SourceBrowser: "chrome", TargetBrowser: "CHROME"})
	requireKind(t, err, KindValidation)

	_, err = e.svc.Sync(ctx, SyncRequest{SourceBrowser: "chrome", TargetBrowser: "edge"})
	he := requireKind(t, err, KindBrowserNotFound)
	assert.Equal(t, "Could not find edge history", he.Message)

	_, err = e.svc.Sync(ctx, SyncRequest{SourceBrowser: "chrome", TargetBrowser: "firefox", MergeStrategy: "overwrite"})
	requireKind(t, err, KindValidation)
}

func TestListBrowsers(t *testing.T) {
	e := setup(t)

	res := e.svc.ListBrowsers()
	assert.Equal(t, []string{"chrome", "firefox"}, res.Browsers)
	assert.Equal(t, "Available browsers: chrome, firefox", res.Message)
	assert.Equal(t, []string{"chrome", "firefox"}, e.svc.ListBookmarkBrowsers().Browsers)
	assert.Equal(t, []string{"chrome", "firefox"}, e.svc.ListDownloadBrowsers().Browsers)
	assert.Len(t, e.svc.Sources(), 2)

	all := e.svc.ResolveAll()
	assert.Len(t, all, len(browser.Names()))
	assert.Equal(t, e.svc.Sources()["chrome"], all["chrome"])
	assert.Empty(t, all["edge"])
}

func TestBookmarks(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Bookmarks(ctx, ItemsRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "Go", res.Bookmarks[0].Title)
	assert.Equal(t, "https://go.dev/", res.Bookmarks[0].URL)

	res, err = e.svc.Bookmarks(ctx, ItemsRequest{Browser: "firefox", Format: "json"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Contains(t, res.Message, `"bookmarks"`)

	_, err = e.svc.Bookmarks(ctx, ItemsRequest{Browser: "safari"})
	he := requireKind(t, err, KindBrowserNotFound)
	assert.Equal(t, "Could not find safari bookmarks", he.Message)
}

func TestDownloads(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	res, err := e.svc.Downloads(ctx, ItemsRequest{Query: "go1.24"})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "go1.24.tar.gz", res.Downloads[0].Filename)

	_, err = e.svc.Downloads(ctx, ItemsRequest{Browser: "edge"})
	requireKind(t, err, KindBrowserNotFound)

	_, err = e.svc.Downloads(ctx, ItemsRequest{Limit: 101})
	requireKind(t, err, KindValidation)
}

func TestCancelledContext(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.svc.Search(ctx, SearchRequest{Query: "go"})
	he := requireKind(t, err, KindDatabase)
	assert.ErrorIs(t, he, context.Canceled)
}

func TestConcurrentRequests(t *testing.T) {
	e := setup(t)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.svc.Search(context.Background(), SearchRequest{Query: "go", Limit: i%5 + 1})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDatabaseLocked, KindOf(&Error{Kind: KindDatabaseLocked}))
	assert.Equal(t, Kind(""), KindOf(os.ErrNotExist))
}
