package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/chronicle-mcp/internal/history"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
)

type jsonSearchOutput struct {
	Count   int             `json:"count"`
	Query   string          `json:"query"`
	Browser string          `json:"browser"`
	Results []storage.Entry `json:"results"`
}

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()
	return c.execute(ctx, args)
}

func (c *SearchCommand) execute(ctx context.Context, args []string) error {
	a, err := appFor(c.app, c.globals)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	b := c.Browser
	if b == "" {
		b = a.cfg.Defaults.Browser
	}

	results, err := c.search(ctx, a.svc, query, b)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonSearchOutput{Count: len(results), Query: query, Browser: b, Results: results})
	}
	printResults(query, results)
	return nil
}

// search picks the service operation matching the flags.
func (c *SearchCommand) search(ctx context.Context, svc *history.Service, query, b string) ([]storage.Entry, error) {
	switch {
	case c.Regex || c.Fuzzy:
		res, err := svc.AdvancedSearch(ctx, history.AdvancedSearchRequest{
			Query: query, Limit: c.Limit, Browser: b, Format: "json",
			UseRegex: c.Regex, UseFuzzy: c.Fuzzy,
		})
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	case c.Domain != "":
		res, err := svc.DomainSearch(ctx, history.DomainSearchRequest{
			Domain: c.Domain, Query: query, Limit: c.Limit, Browser: b, Format: "json",
		})
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	default:
		res, err := svc.Search(ctx, history.SearchRequest{Query: query, Limit: c.Limit, Browser: b, Format: "json"})
		if err != nil {
			return nil, err
		}
		return res.Results, nil
	}
}

func printResults(query string, results []storage.Entry) {
	if len(results) == 0 {
		fmt.Printf("No results found for %q\n", query)
		return
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	fmt.Printf("Found %d %s for %q\n\n", len(results), resultWord, query)

	for i, e := range results {
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%d. %s\n", i+1, title)
		fmt.Printf("   %s\n", e.URL)
		fmt.Printf("   %s\n", e.Timestamp)
		if i < len(results)-1 {
			fmt.Println()
		}
	}
}
