package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/runnerr0/chronicle-mcp/internal/history"
)

type tool struct {
	name string
	add  func(*Server)
}

// define binds a named tool to fn. In is decoded from the call arguments.
func define[In any](name, description string, fn func(context.Context, *history.Service, In) (string, error)) tool {
	return tool{
		name: name,
		add: func(s *Server) {
			mcp.AddTool(s.mcp, &mcp.Tool{Name: name, Description: description},
				func(ctx context.Context, _ *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
					msg, err := fn(ctx, s.svc, in)
					return s.text(name, msg, err), nil, nil
				})
		},
	}
}

type noArgs struct{}

type searchArgs struct {
	Query      string `json:"query" jsonschema:"Search term to look for in titles or URLs"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 5)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to search (chrome, edge, firefox, brave, safari, vivaldi, opera)"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

type recentArgs struct {
	Hours      int    `json:"hours,omitempty" jsonschema:"Number of hours to look back (default 24)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 20)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

type countArgs struct {
	Domain  string `json:"domain" jsonschema:"Domain to count, e.g. github.com"`
	Browser string `json:"browser,omitempty" jsonschema:"Browser to search"`
}

type topDomainsArgs struct {
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of domains (1-50, default 10)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

type dateArgs struct {
	Query      string `json:"query" jsonschema:"Search term to look for in titles or URLs"`
	StartDate  string `json:"start_date" jsonschema:"Start date in ISO format (YYYY-MM-DD)"`
	EndDate    string `json:"end_date" jsonschema:"End date in ISO format (YYYY-MM-DD)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 10)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

type deleteArgs struct {
	Query   string `json:"query" jsonschema:"Search term to match for deletion"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of entries to delete (1-500, default 100)"`
	Browser string `json:"browser,omitempty" jsonschema:"Browser to delete from"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"Must be true to delete; false returns a preview"`
}

type domainArgs struct {
	Domain         string   `json:"domain" jsonschema:"Domain to search within, e.g. docs.python.org"`
	Query          string   `json:"query,omitempty" jsonschema:"Optional search term within the domain"`
	Limit          int      `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 20)"`
	Browser        string   `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType     string   `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" jsonschema:"Domains to exclude from results"`
}

type browserArgs struct {
	Browser string `json:"browser,omitempty" jsonschema:"Browser to analyze"`
}

type mostVisitedArgs struct {
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of pages (1-100, default 20)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

type exportArgs struct {
	FormatType string `json:"format_type,omitempty" jsonschema:"Export format (csv or json, default csv)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum entries to export (1-10000, default 1000)"`
	Query      string `json:"query,omitempty" jsonschema:"Optional search filter"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to export from"`
}

type advancedArgs struct {
	Query          string   `json:"query" jsonschema:"Search term, regular expression or fuzzy pattern"`
	Limit          int      `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 20)"`
	Browser        string   `json:"browser,omitempty" jsonschema:"Browser to search"`
	FormatType     string   `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" jsonschema:"Domains to exclude from results"`
	SortBy         string   `json:"sort_by,omitempty" jsonschema:"Sort order (date, visit_count, title)"`
	UseRegex       bool     `json:"use_regex,omitempty" jsonschema:"Treat query as a regular expression"`
	UseFuzzy       bool     `json:"use_fuzzy,omitempty" jsonschema:"Use typo-tolerant fuzzy matching"`
	FuzzyThreshold *float64 `json:"fuzzy_threshold,omitempty" jsonschema:"Minimum fuzzy similarity (0.0-1.0, default 0.6)"`
}

type syncArgs struct {
	SourceBrowser string `json:"source_browser" jsonschema:"Browser to copy history from"`
	TargetBrowser string `json:"target_browser" jsonschema:"Browser to copy history to"`
	MergeStrategy string `json:"merge_strategy,omitempty" jsonschema:"How to handle duplicates (latest, combine, dedupe)"`
	DryRun        *bool  `json:"dry_run,omitempty" jsonschema:"Preview without making changes (default true)"`
}

type itemsArgs struct {
	Query      string `json:"query,omitempty" jsonschema:"Optional search term"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-100, default 50)"`
	Browser    string `json:"browser,omitempty" jsonschema:"Browser to read"`
	FormatType string `json:"format_type,omitempty" jsonschema:"Output format (markdown or json)"`
}

var tools = []tool{
	define("list_available_browsers", "Lists browsers with a history database on this system.",
		func(_ context.Context, svc *history.Service, _ noArgs) (string, error) {
			return svc.ListBrowsers().Message, nil
		}),
	define("search_history", "Searches browser history for keywords in titles or URLs.",
		func(ctx context.Context, svc *history.Service, in searchArgs) (string, error) {
			res, err := svc.Search(ctx, history.SearchRequest{Query: in.Query, Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("get_recent_history", "Gets browsing history from the last N hours.",
		func(ctx context.Context, svc *history.Service, in recentArgs) (string, error) {
			res, err := svc.Recent(ctx, history.RecentRequest{Hours: in.Hours, Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("count_visits", "Counts total visits to a domain.",
		func(ctx context.Context, svc *history.Service, in countArgs) (string, error) {
			res, err := svc.CountVisits(ctx, history.CountVisitsRequest{Domain: in.Domain, Browser: in.Browser})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("list_top_domains", "Lists the most visited domains.",
		func(ctx context.Context, svc *history.Service, in topDomainsArgs) (string, error) {
			res, err := svc.TopDomains(ctx, history.TopDomainsRequest{Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("search_history_by_date", "Searches browser history within a date range.",
		func(ctx context.Context, svc *history.Service, in dateArgs) (string, error) {
			res, err := svc.SearchByDate(ctx, history.DateSearchRequest{
				Query: in.Query, StartDate: in.StartDate, EndDate: in.EndDate,
				Limit: in.Limit, Browser: in.Browser, Format: in.FormatType,
			})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("delete_history", "Deletes history entries matching a query from a snapshot; previews unless confirm is true.",
		func(ctx context.Context, svc *history.Service, in deleteArgs) (string, error) {
			res, err := svc.Delete(ctx, history.DeleteRequest{Query: in.Query, Limit: in.Limit, Browser: in.Browser, Confirm: in.Confirm})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("search_by_domain", "Searches history within a domain, optionally excluding others.",
		func(ctx context.Context, svc *history.Service, in domainArgs) (string, error) {
			res, err := svc.DomainSearch(ctx, history.DomainSearchRequest{
				Domain: in.Domain, Query: in.Query, Limit: in.Limit, Browser: in.Browser,
				Format: in.FormatType, ExcludeDomains: in.ExcludeDomains,
			})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("get_browser_stats", "Gets statistics for a browser's history database as JSON.",
		func(ctx context.Context, svc *history.Service, in browserArgs) (string, error) {
			res, err := svc.Stats(ctx, history.StatsRequest{Browser: in.Browser})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("get_most_visited_pages", "Lists the most visited individual pages.",
		func(ctx context.Context, svc *history.Service, in mostVisitedArgs) (string, error) {
			res, err := svc.MostVisited(ctx, history.MostVisitedRequest{Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("export_history", "Exports history as CSV or JSON.",
		func(ctx context.Context, svc *history.Service, in exportArgs) (string, error) {
			res, err := svc.Export(ctx, history.ExportRequest{FormatType: in.FormatType, Limit: in.Limit, Query: in.Query, Browser: in.Browser})
			if err != nil {
				return "", err
			}
			return res.Content, nil
		}),
	define("search_history_advanced", "Searches with regex or fuzzy matching, domain exclusion and sorting.",
		func(ctx context.Context, svc *history.Service, in advancedArgs) (string, error) {
			res, err := svc.AdvancedSearch(ctx, history.AdvancedSearchRequest{
				Query: in.Query, Limit: in.Limit, Browser: in.Browser, Format: in.FormatType,
				ExcludeDomains: in.ExcludeDomains, SortBy: in.SortBy,
				UseRegex: in.UseRegex, UseFuzzy: in.UseFuzzy, FuzzyThreshold: in.FuzzyThreshold,
			})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("sync_history", "Previews syncing history between two browsers.",
		func(ctx context.Context, svc *history.Service, in syncArgs) (string, error) {
			res, err := svc.Sync(ctx, history.SyncRequest{
				SourceBrowser: in.SourceBrowser, TargetBrowser: in.TargetBrowser,
				MergeStrategy: in.MergeStrategy, DryRun: in.DryRun,
			})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("list_available_bookmarks", "Lists browsers with readable bookmarks on this system.",
		func(_ context.Context, svc *history.Service, _ noArgs) (string, error) {
			return svc.ListBookmarkBrowsers().Message, nil
		}),
	define("list_available_downloads", "Lists browsers with readable download history on this system.",
		func(_ context.Context, svc *history.Service, _ noArgs) (string, error) {
			return svc.ListDownloadBrowsers().Message, nil
		}),
	define("get_bookmarks", "Gets bookmarks from a browser.",
		func(ctx context.Context, svc *history.Service, in itemsArgs) (string, error) {
			res, err := svc.Bookmarks(ctx, history.ItemsRequest{Query: in.Query, Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
	define("get_downloads", "Gets download history from a browser.",
		func(ctx context.Context, svc *history.Service, in itemsArgs) (string, error) {
			res, err := svc.Downloads(ctx, history.ItemsRequest{Query: in.Query, Limit: in.Limit, Browser: in.Browser, Format: in.FormatType})
			if err != nil {
				return "", err
			}
			return res.Message, nil
		}),
}

// ToolNames lists the registered tools in registration order.
func ToolNames() []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.name
	}
	return out
}
