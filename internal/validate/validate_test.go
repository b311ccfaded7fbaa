package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *Error
	require.True(t, errors.As(err, &ve), "expected *validate.Error, got %T", err)
	return ve.Field
}

func TestBrowser(t *testing.T) {
	got, err := Browser(" Firefox ")
	require.NoError(t, err)
	assert.Equal(t, "firefox", got)

	_, err = Browser("")
	assert.Equal(t, "browser", fieldOf(t, err))
	assert.EqualError(t, err, "Browser cannot be empty")

	_, err = Browser("netscape")
	assert.EqualError(t, err, "Invalid browser 'netscape'. Valid options: chrome, edge, firefox, brave, safari, vivaldi, opera")
}

func TestQueryAndDomain(t *testing.T) {
	got, err := Query("  golang ", "query")
	require.NoError(t, err)
	assert.Equal(t, "golang", got)

	_, err = Query("   ", "query")
	assert.EqualError(t, err, "Query cannot be empty")
	_, err = Query("", "pattern")
	assert.EqualError(t, err, "Pattern cannot be empty")
	assert.Equal(t, "pattern", fieldOf(t, err))

	_, err = Domain(" ")
	assert.EqualError(t, err, "Domain cannot be empty")
}

func TestLimitBounds(t *testing.T) {
	for _, n := range []int{1, 50, 100} {
		got, err := Limit(n, SearchLimit, "limit")
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	for _, n := range []int{0, -1, 101} {
		_, err := Limit(n, SearchLimit, "limit")
		assert.EqualError(t, err, "Limit must be between 1 and 100")
	}
	_, err := Limit(501, DeleteLimit, "limit")
	assert.EqualError(t, err, "Limit must be between 1 and 500")
	_, err = Limit(10001, ExportLimit, "limit")
	assert.Error(t, err)
}

func TestHours(t *testing.T) {
	_, err := Hours(0)
	assert.EqualError(t, err, "Hours must be a positive integer")
	got, err := Hours(48)
	require.NoError(t, err)
	assert.Equal(t, 48, got)
}

func TestFormats(t *testing.T) {
	got, err := Format("JSON")
	require.NoError(t, err)
	assert.Equal(t, "json", got)

	_, err = Format("csv")
	assert.EqualError(t, err, "Invalid format 'csv'. Valid options: markdown, json")

	got, err = ExportFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", got)

	_, err = ExportFormat("markdown")
	assert.EqualError(t, err, "Invalid format_type 'markdown'. Valid options: csv, json")
	_, err = ExportFormat("")
	assert.EqualError(t, err, "Format type cannot be empty")
}

func TestSortAndMerge(t *testing.T) {
	got, err := SortBy("Visit_Count")
	require.NoError(t, err)
	assert.Equal(t, "visit_count", got)
	_, err = SortBy("random")
	assert.EqualError(t, err, "Invalid sort_by 'random'. Valid options: date, visit_count, title")

	_, err = MergeStrategy("overwrite")
	assert.EqualError(t, err, "Invalid merge_strategy 'overwrite'. Valid options: latest, combine, dedupe")
}

func TestDateRange(t *testing.T) {
	start, end, err := DateRange(" 2024-01-01 ", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", start)
	assert.Equal(t, "2024-01-01", end)

	_, _, err = DateRange("", "2024-01-01")
	assert.Equal(t, "start_date", fieldOf(t, err))
	_, _, err = DateRange("2024-01-01", "")
	assert.Equal(t, "end_date", fieldOf(t, err))

	_, _, err = DateRange("2024-02-01", "2024-01-01")
	var dre *DateRangeError
	require.ErrorAs(t, err, &dre)
	assert.EqualError(t, err, "Invalid date range: Start date must be before or equal to end date")

	_, _, err = DateRange("01/02/2024", "2024-01-01")
	require.ErrorAs(t, err, &dre)
	assert.Contains(t, err.Error(), "Invalid date format")
}

func TestFuzzyThresholdAndOptions(t *testing.T) {
	for _, f := range []float64{0, 0.6, 1} {
		_, err := FuzzyThreshold(f)
		assert.NoError(t, err)
	}
	for _, f := range []float64{-0.1, 1.01, math.NaN()} {
		_, err := FuzzyThreshold(f)
		assert.EqualError(t, err, "Fuzzy threshold must be between 0.0 and 1.0")
	}

	err := SearchOptions(true, true)
	assert.Equal(t, "search_options", fieldOf(t, err))
	assert.NoError(t, SearchOptions(true, false))

	err = BrowsersDiffer("Chrome", "chrome")
	assert.Equal(t, "browsers", fieldOf(t, err))
	assert.NoError(t, BrowsersDiffer("chrome", "firefox"))
}

func TestExcludeDomains(t *testing.T) {
	got, err := ExcludeDomains([]any{" ads.example ", "", "  ", "tracker.io"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ads.example", "tracker.io"}, got)

	got, err = ExcludeDomains(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ExcludeDomains("ads.example")
	assert.EqualError(t, err, "exclude_domains must be a list")
	_, err = ExcludeDomains([]any{"ok", 3})
	assert.Equal(t, "exclude_domains", fieldOf(t, err))
}
