package history

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/format"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/validate"
	"github.com/runnerr0/chronicle-mcp/internal/webhook"
)

// syncCountLimit bounds how many source entries Sync counts.
const syncCountLimit = 10000

type DeleteRequest struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Browser string `json:"browser"`
	Confirm bool   `json:"confirm"`
}

// DeleteResult is a preview when Preview is set, otherwise the outcome of
// a confirmed delete.
type DeleteResult struct {
	Preview bool
	Query   string
	Browser string
	Count   int
	Deleted int64
	Message string
}

// MarshalJSON encodes previews as {preview, query, count} and confirmed
// deletes as {deleted, query, browser}.
func (r DeleteResult) MarshalJSON() ([]byte, error) {
	if r.Preview {
		return json.Marshal(struct {
			Preview bool   `json:"preview"`
			Query   string `json:"query"`
			Count   int    `json:"count"`
			Message string `json:"message"`
		}{true, r.Query, r.Count, r.Message})
	}
	return json.Marshal(struct {
		Deleted int64  `json:"deleted"`
		Query   string `json:"query"`
		Browser string `json:"browser"`
		Message string `json:"message"`
	}{r.Deleted, r.Query, r.Browser, r.Message})
}

// Delete previews or removes pages matching the query. Only the snapshot
// is modified: the browser's own database is never written.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("delete", req.Browser, err)
	}
	q, err := validate.Query(req.Query, "query")
	if err != nil {
		return nil, s.remap("delete", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 100), validate.DeleteLimit, "limit")
	if err != nil {
		return nil, s.remap("delete", b, err)
	}

	if !req.Confirm {
		return run(ctx, s, "delete", b, func(e *storage.Engine) (*DeleteResult, error) {
			rows, err := e.SearchText(ctx, q, limit)
			if err != nil {
				return nil, err
			}
			return &DeleteResult{Preview: true, Query: q, Browser: b, Count: len(rows), Message: format.DeletePreview(len(rows), q)}, nil
		})
	}

	res, err := run(ctx, s, "delete", b, func(e *storage.Engine) (*DeleteResult, error) {
		n, err := e.DeleteMatching(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		return &DeleteResult{Query: q, Browser: b, Deleted: n, Message: format.Deleted(n, q, b)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateBrowser(b)
	s.logger.Info("deleted history entries",
		zap.String("browser", b), zap.String("query", q), zap.Int64("count", res.Deleted))
	s.notify(webhook.EventDeleted, map[string]any{"browser": b, "query": q, "count": res.Deleted})
	return res, nil
}

type ExportRequest struct {
	FormatType string `json:"format_type"`
	Limit      int    `json:"limit"`
	Query      string `json:"query"`
	Browser    string `json:"browser"`
}

type ExportResult struct {
	Content string `json:"content"`
	Format  string `json:"format"`
	Browser string `json:"browser"`
	Count   int    `json:"count"`
}

// Export renders up to Limit pages (1000 by default) as csv or json.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	b, err := validate.Browser(s.browserOrDefault(req.Browser))
	if err != nil {
		return nil, s.remap("export", req.Browser, err)
	}
	ft := req.FormatType
	if ft == "" {
		ft = format.CSV
	}
	if ft, err = validate.ExportFormat(ft); err != nil {
		return nil, s.remap("export", b, err)
	}
	limit, err := validate.Limit(orDefault(req.Limit, 1000), validate.ExportLimit, "limit")
	if err != nil {
		return nil, s.remap("export", b, err)
	}
	q := strings.TrimSpace(req.Query)

	res, err := run(ctx, s, "export", b, func(e *storage.Engine) (*ExportResult, error) {
		rows, err := e.Export(ctx, q, limit)
		if err != nil {
			return nil, err
		}
		content, err := format.Export(rows, ft)
		if err != nil {
			return nil, &Error{Kind: KindUnsupportedFormat, Message: err.Error(), Field: "format_type", Err: err}
		}
		return &ExportResult{Content: content, Format: ft, Browser: b, Count: len(rows)}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(webhook.EventExported, map[string]any{"browser": b, "format": ft, "count": res.Count})
	return res, nil
}

// SyncRequest copies history between browsers. DryRun nil means true.
type SyncRequest struct {
	SourceBrowser string `json:"source_browser"`
	TargetBrowser string `json:"target_browser"`
	MergeStrategy string `json:"merge_strategy"`
	DryRun        *bool  `json:"dry_run"`
}

type SyncResult struct {
	DryRun        bool   `json:"dry_run"`
	Source        string `json:"source"`
	Target        string `json:"target"`
	EntriesCount  int    `json:"entries_count"`
	MergeStrategy string `json:"merge_strategy"`
	Message       string `json:"message"`
}

// Sync reports how many source entries would be synced to the target.
// No entries are copied, even when DryRun is false.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	source, err := validate.Browser(req.SourceBrowser)
	if err != nil {
		return nil, s.remap("sync", req.SourceBrowser, err)
	}
	target, err := validate.Browser(req.TargetBrowser)
	if err != nil {
		return nil, s.remap("sync", req.TargetBrowser, err)
	}
	if err := validate.BrowsersDiffer(source, target); err != nil {
		return nil, s.remap("sync", source, err)
	}
	strategy := req.MergeStrategy
	if strategy == "" {
		strategy = "latest"
	}
	if strategy, err = validate.MergeStrategy(strategy); err != nil {
		return nil, s.remap("sync", source, err)
	}
	dryRun := req.DryRun == nil || *req.DryRun

	if _, ok := s.resolver.Resolve(source); !ok {
		return nil, notFound("history", source)
	}
	if _, ok := s.resolver.Resolve(target); !ok {
		return nil, notFound("history", target)
	}

	n, err := run(ctx, s, "sync", source, func(e *storage.Engine) (int, error) {
		rows, err := e.Export(ctx, "", syncCountLimit)
		return len(rows), err
	})
	if err != nil {
		return nil, err
	}

	res := &SyncResult{
		DryRun:        dryRun,
		Source:        source,
		Target:        target,
		EntriesCount:  n,
		MergeStrategy: strategy,
		Message:       format.Sync(n, source, target, strategy, dryRun),
	}
	if !dryRun {
		// Entries are not merged; live browser databases are never written.
		s.logger.Warn("sync reported without copying entries",
			zap.String("source", source), zap.String("target", target))
		s.notify(webhook.EventSynced, map[string]any{
			"source": source, "target": target, "count": n, "merge_strategy": strategy,
		})
	}
	return res, nil
}
