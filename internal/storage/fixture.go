package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// FixturePage is one history row written by Fixture.Write. An empty Title
// is stored as NULL, as is a zero Visited time. RawTimestamp, when set, is
// stored verbatim instead of Visited.
type FixturePage struct {
	Title        string
	URL          string
	Visited      time.Time
	Visits       int
	RawTimestamp any
}

// FixtureBookmark is one bookmark written by Fixture.Write or
// WriteChromeBookmarks.
type FixtureBookmark struct {
	Title string
	URL   string
	Added time.Time
}

// FixtureDownload is one download written by Fixture.Write.
type FixtureDownload struct {
	Target  string
	URL     string
	Started time.Time
}

// Fixture describes a small database laid out like a real browser's,
// for tests and local experiments that must not touch real profiles.
type Fixture struct {
	Schema    string
	Pages     []FixturePage
	Bookmarks []FixtureBookmark
	Downloads []FixtureDownload
}

// fixtureTables lists, per schema, the subset of each browser's tables the
// Engine reads. Statements use IF NOT EXISTS so Write can extend a file.
var fixtureTables = map[string][]string{
	SchemaChrome: {
		`CREATE TABLE IF NOT EXISTS urls (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			url             LONGVARCHAR,
			title           LONGVARCHAR,
			visit_count     INTEGER DEFAULT 0 NOT NULL,
			typed_count     INTEGER DEFAULT 0 NOT NULL,
			last_visit_time INTEGER,
			hidden          INTEGER DEFAULT 0 NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS visits (
			id         INTEGER PRIMARY KEY,
			url        INTEGER NOT NULL,
			visit_time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			id          INTEGER PRIMARY KEY,
			target_path LONGVARCHAR NOT NULL,
			start_time  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS downloads_url_chains (
			id          INTEGER NOT NULL,
			chain_index INTEGER NOT NULL,
			url         LONGVARCHAR NOT NULL,
			PRIMARY KEY (id, chain_index)
		)`,
	},
	SchemaFirefox: {
		`CREATE TABLE IF NOT EXISTS moz_places (
			id              INTEGER PRIMARY KEY,
			url             LONGVARCHAR,
			title           LONGVARCHAR,
			visit_count     INTEGER DEFAULT 0,
			last_visit_date INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS moz_historyvisits (
			id         INTEGER PRIMARY KEY,
			place_id   INTEGER,
			visit_date INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS moz_bookmarks (
			id        INTEGER PRIMARY KEY,
			type      INTEGER,
			fk        INTEGER DEFAULT NULL,
			title     LONGVARCHAR,
			dateAdded INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS moz_anno_attributes (
			id   INTEGER PRIMARY KEY,
			name VARCHAR(32) UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS moz_annos (
			id                INTEGER PRIMARY KEY,
			place_id          INTEGER NOT NULL,
			anno_attribute_id INTEGER,
			content           LONGVARCHAR,
			dateAdded         INTEGER DEFAULT 0
		)`,
		`INSERT OR IGNORE INTO moz_anno_attributes (id, name) VALUES (1, 'downloads/destinationFileURI')`,
	},
	SchemaSafari: {
		`CREATE TABLE IF NOT EXISTS history_items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			url         TEXT NOT NULL UNIQUE,
			visit_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS history_visits (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			history_item INTEGER NOT NULL,
			visit_time   REAL NOT NULL,
			title        TEXT
		)`,
	},
}

// Write creates (or extends) a database at path and fills it in one
// transaction.
func (f Fixture) Write(path string) error {
	schema, ok := SchemaByName(f.Schema)
	if !ok {
		return fmt.Errorf("unknown fixture schema %q", f.Schema)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range fixtureTables[f.Schema] {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("create fixture tables: %w", err)
		}
	}

	clock := schema.Clock()
	for _, p := range f.Pages {
		if err := insertPage(tx, f.Schema, clock, p); err != nil {
			return fmt.Errorf("insert page %s: %w", p.URL, err)
		}
	}
	for _, b := range f.Bookmarks {
		if err := insertBookmark(tx, f.Schema, clock, b); err != nil {
			return fmt.Errorf("insert bookmark %s: %w", b.URL, err)
		}
	}
	for _, d := range f.Downloads {
		if err := insertDownload(tx, f.Schema, clock, d); err != nil {
			return fmt.Errorf("insert download %s: %w", d.URL, err)
		}
	}

	return tx.Commit()
}

func stamp(clock Clock, t time.Time, raw any) any {
	if raw != nil {
		return raw
	}
	if t.IsZero() {
		return nil
	}
	if clock.Unit == time.Second {
		return float64(t.UnixNano()-clock.Epoch.UnixNano()) / 1e9
	}
	return clock.Native(t)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func insertPage(tx *sql.Tx, schema string, clock Clock, p FixturePage) error {
	ts := stamp(clock, p.Visited, p.RawTimestamp)
	switch schema {
	case SchemaChrome:
		res, err := tx.Exec(`INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES (?, ?, ?, ?)`,
			p.URL, nullable(p.Title), p.Visits, ts)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		if ts != nil {
			_, err = tx.Exec(`INSERT INTO visits (url, visit_time) VALUES (?, ?)`, id, ts)
		}
		return err
	case SchemaFirefox:
		res, err := tx.Exec(`INSERT INTO moz_places (url, title, visit_count, last_visit_date) VALUES (?, ?, ?, ?)`,
			p.URL, nullable(p.Title), p.Visits, ts)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		if ts != nil {
			_, err = tx.Exec(`INSERT INTO moz_historyvisits (place_id, visit_date) VALUES (?, ?)`, id, ts)
		}
		return err
	default:
		res, err := tx.Exec(`INSERT INTO history_items (url, visit_count) VALUES (?, ?)`, p.URL, p.Visits)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		if ts != nil {
			_, err = tx.Exec(`INSERT INTO history_visits (history_item, visit_time, title) VALUES (?, ?, ?)`,
				id, ts, nullable(p.Title))
		}
		return err
	}
}

func insertBookmark(tx *sql.Tx, schema string, clock Clock, b FixtureBookmark) error {
	if schema != SchemaFirefox {
		return fmt.Errorf("%s keeps bookmarks outside the history database", schema)
	}
	res, err := tx.Exec(`INSERT INTO moz_places (url, title, visit_count) VALUES (?, ?, 0)`, b.URL, nullable(b.Title))
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	_, err = tx.Exec(`INSERT INTO moz_bookmarks (type, fk, title, dateAdded) VALUES (1, ?, ?, ?)`,
		id, nullable(b.Title), stamp(clock, b.Added, nil))
	return err
}

func insertDownload(tx *sql.Tx, schema string, clock Clock, d FixtureDownload) error {
	ts := stamp(clock, d.Started, nil)
	switch schema {
	case SchemaChrome:
		res, err := tx.Exec(`INSERT INTO downloads (target_path, start_time) VALUES (?, ?)`, d.Target, ts)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		_, err = tx.Exec(`INSERT INTO downloads_url_chains (id, chain_index, url) VALUES (?, 0, ?)`, id, d.URL)
		return err
	case SchemaFirefox:
		res, err := tx.Exec(`INSERT INTO moz_places (url, visit_count) VALUES (?, 0)`, d.URL)
		if err != nil {
			return err
		}
		id, _ := res.LastInsertId()
		_, err = tx.Exec(`INSERT INTO moz_annos (place_id, anno_attribute_id, content, dateAdded) VALUES (?, 1, ?, ?)`,
			id, "file://"+d.Target, ts)
		return err
	default:
		return fmt.Errorf("%s downloads are not stored in the history database", schema)
	}
}

// WriteChromeBookmarks writes a Chromium Bookmarks JSON file with every
// bookmark on the bookmark bar.
func WriteChromeBookmarks(path string, bookmarks []FixtureBookmark) error {
	children := make([]chromeBookmarkNode, 0, len(bookmarks))
	for _, b := range bookmarks {
		children = append(children, chromeBookmarkNode{
			Name:      b.Title,
			Type:      "url",
			URL:       b.URL,
			DateAdded: strconv.FormatInt(webkitClock.Native(b.Added), 10),
		})
	}
	doc := chromeBookmarkFile{Roots: map[string]chromeBookmarkNode{
		"bookmark_bar": {Name: "Bookmarks bar", Type: "folder", Children: children},
		"other":        {Name: "Other bookmarks", Type: "folder"},
	}}
	data, err := json.MarshalIndent(doc, "", "   ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
