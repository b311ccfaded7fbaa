package storage

import (
	"context"
	"fmt"
)

// Schema names returned by DetectSchema.
const (
	SchemaChrome  = "chrome"
	SchemaFirefox = "firefox"
	SchemaSafari  = "safari"
	SchemaUnknown = "unknown"
)

// Schema adapts one browser family's tables to the common relations the
// Engine queries. Every history relation projects id, title, url, ts and
// visit_count; every visit relation projects title, url and ts.
type Schema interface {
	Name() string
	Clock() Clock
	history() string
	visits() string
	deleteTarget() (table, key string)
	// bookmarks projects title, url and ts, or is "" when bookmarks do not
	// live in the history database.
	bookmarks() string
	// downloads projects the target path as title, url and ts, or is "" when
	// unsupported.
	downloads() string
}

type chromeSchema struct{}

func (chromeSchema) Name() string { return SchemaChrome }
func (chromeSchema) Clock() Clock  { return webkitClock }

func (chromeSchema) history() string {
	return `SELECT id, title, url, last_visit_time AS ts, visit_count FROM urls`
}

func (chromeSchema) visits() string {
	return `SELECT u.title AS title, u.url AS url, v.visit_time AS ts
		FROM visits v JOIN urls u ON u.id = v.url`
}

func (chromeSchema) deleteTarget() (string, string) { return "urls", "id" }
func (chromeSchema) bookmarks() string               { return "" }

func (chromeSchema) downloads() string {
	return `SELECT d.target_path AS title, COALESCE(c.url, '') AS url, d.start_time AS ts
		FROM downloads d
		LEFT JOIN downloads_url_chains c ON c.id = d.id AND c.chain_index = 0`
}

type firefoxSchema struct{}

func (firefoxSchema) Name() string { return SchemaFirefox }
func (firefoxSchema) Clock() Clock  { return prTimeClock }

func (firefoxSchema) history() string {
	return `SELECT id, title, url, last_visit_date AS ts, visit_count FROM moz_places`
}

func (firefoxSchema) visits() string {
	return `SELECT p.title AS title, p.url AS url, v.visit_date AS ts
		FROM moz_historyvisits v JOIN moz_places p ON p.id = v.place_id`
}

func (firefoxSchema) deleteTarget() (string, string) { return "moz_places", "id" }

func (firefoxSchema) bookmarks() string {
	return `SELECT COALESCE(b.title, p.title, '') AS title, p.url AS url, b.dateAdded AS ts
		FROM moz_bookmarks b JOIN moz_places p ON p.id = b.fk
		WHERE b.type = 1`
}

func (firefoxSchema) downloads() string {
	return `SELECT a.content AS title, p.url AS url, a.dateAdded AS ts
		FROM moz_annos a
		JOIN moz_anno_attributes n ON n.id = a.anno_attribute_id
		JOIN moz_places p ON p.id = a.place_id
		WHERE n.name = 'downloads/destinationFileURI'`
}

type safariSchema struct{}

func (safariSchema) Name() string { return SchemaSafari }
func (safariSchema) Clock() Clock  { return cocoaClock }

// Safari keeps titles and times per visit, so the per-URL relation takes
// them from the latest visit.
func (safariSchema) history() string {
	return `SELECT hi.id AS id,
		(SELECT hv.title FROM history_visits hv WHERE hv.history_item = hi.id
			ORDER BY hv.visit_time DESC LIMIT 1) AS title,
		hi.url AS url,
		(SELECT MAX(hv.visit_time) FROM history_visits hv WHERE hv.history_item = hi.id) AS ts,
		hi.visit_count AS visit_count
		FROM history_items hi`
}

func (safariSchema) visits() string {
	return `SELECT hv.title AS title, hi.url AS url, hv.visit_time AS ts
		FROM history_visits hv JOIN history_items hi ON hi.id = hv.history_item`
}

func (safariSchema) deleteTarget() (string, string) { return "history_items", "id" }
func (safariSchema) bookmarks() string               { return "" }
func (safariSchema) downloads() string               { return "" }

// SchemaByName returns the Schema for a family name.
func SchemaByName(name string) (Schema, bool) {
	switch name {
	case SchemaChrome:
		return chromeSchema{}, true
	case SchemaFirefox:
		return firefoxSchema{}, true
	case SchemaSafari:
		return safariSchema{}, true
	default:
		return nil, false
	}
}

// DetectSchema inspects the tables of db and names the browser family that
// created it, or SchemaUnknown.
func DetectSchema(ctx context.Context, db Querier) (string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return SchemaUnknown, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return SchemaUnknown, fmt.Errorf("scan table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return SchemaUnknown, err
	}

	switch {
	case tables["urls"]:
		return SchemaChrome, nil
	case tables["moz_places"]:
		return SchemaFirefox, nil
	case tables["history_items"]:
		return SchemaSafari, nil
	default:
		return SchemaUnknown, nil
	}
}
