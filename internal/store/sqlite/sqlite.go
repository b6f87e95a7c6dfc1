// Package sqlite stores the Plugins, Categories and Keywords tables in a
// local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pluginsync/pluginsync/internal/store/schema"
	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

const ddl = `
CREATE TABLE IF NOT EXISTS plugins (
	row_id           TEXT PRIMARY KEY,
	id               TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	description      TEXT,
	github_link      TEXT,
	author           TEXT,
	funding_url      TEXT,
	mobile_friendly  INTEGER,
	last_commit_date TEXT,
	etag             TEXT,
	status           TEXT,
	error            INTEGER NOT NULL DEFAULT 0,
	plugin_available INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS plugins_id ON plugins(id);

CREATE TABLE IF NOT EXISTS categories (
	row_id TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS plugin_categories (
	plugin_row_id   TEXT NOT NULL REFERENCES plugins(row_id) ON DELETE CASCADE,
	category_row_id TEXT NOT NULL,
	PRIMARY KEY (plugin_row_id, category_row_id)
);

CREATE TABLE IF NOT EXISTS keywords (
	keyword         TEXT NOT NULL,
	category_row_id TEXT
);
`

// Store is a SQLite-backed plugin store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapStore("open", path, "", err)
	}
	// One writer; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.WrapStore("open", path, "", fmt.Errorf("%s: %w", pragma, err))
		}
	}
	if _, err := db.Exec(ddl); err != nil {
		_ = db.Close()
		return nil, errors.WrapStore("migrate", path, "", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Rows returns every plugin row in insertion order with its category links.
func (s *Store) Rows(ctx context.Context) ([]plugins.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid LIMIT %d",
		schema.SelectColumns(), schema.PluginsTable, constants.MaxQueryRows)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.WrapStore("query", constants.PluginsTable, "", err)
	}
	defer rows.Close()

	var out []plugins.Record
	for rows.Next() {
		rec, err := schema.ScanRecord(rows.Scan)
		if err != nil {
			return nil, errors.WrapStore("query", constants.PluginsTable, "", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("query", constants.PluginsTable, "", err)
	}

	links, err := s.links(ctx)
	if err != nil {
		return nil, err
	}
	schema.Attach(out, links)
	return out, nil
}

func (s *Store) links(ctx context.Context) (map[string][]plugins.CategoryRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pc.plugin_row_id, pc.category_row_id, c.name
		FROM plugin_categories pc
		LEFT JOIN categories c ON c.row_id = pc.category_row_id
		ORDER BY pc.rowid`)
	if err != nil {
		return nil, errors.WrapStore("query", constants.CategoriesTable, "", err)
	}
	defer rows.Close()

	var links []schema.LinkRow
	for rows.Next() {
		var l schema.LinkRow
		if err := rows.Scan(&l.PluginRowID, &l.CategoryRowID, &l.CategoryName); err != nil {
			return nil, errors.WrapStore("query", constants.CategoriesTable, "", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("query", constants.CategoriesTable, "", err)
	}
	return schema.GroupLinks(links), nil
}

// Keywords returns the keyword table.
func (s *Store) Keywords(ctx context.Context) ([]plugins.Keyword, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.keyword, k.category_row_id, c.name
		FROM keywords k
		LEFT JOIN categories c ON c.row_id = k.category_row_id
		ORDER BY k.rowid`)
	if err != nil {
		return nil, errors.WrapStore("query", constants.KeywordsTable, "", err)
	}
	defer rows.Close()

	var kws []schema.KeywordRow
	for rows.Next() {
		var k schema.KeywordRow
		if err := rows.Scan(&k.Keyword, &k.CategoryRowID, &k.CategoryName); err != nil {
			return nil, errors.WrapStore("query", constants.KeywordsTable, "", err)
		}
		kws = append(kws, k)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("query", constants.KeywordsTable, "", err)
	}
	return schema.GroupKeywords(kws), nil
}

// Append inserts rec under a new row id.
func (s *Store) Append(ctx context.Context, rec plugins.Record) (string, error) {
	rowID := uuid.NewString()
	args := append([]any{rowID}, schema.InsertArgs(rec)...)
	if _, err := s.db.ExecContext(ctx, schema.Insert(schema.Question), args...); err != nil {
		return "", errors.WrapStore("append", constants.PluginsTable, rec.ID, err)
	}
	return rowID, nil
}

// Update writes the given column values to a row.
func (s *Store) Update(ctx context.Context, rowID string, values map[string]any) error {
	query, args, err := schema.Update(rowID, values, schema.Question)
	if err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	return s.affected("update", rowID, res, err)
}

// Delete removes a row and its links.
func (s *Store) Delete(ctx context.Context, rowID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM plugins WHERE row_id = ?", rowID)
	return s.affected("delete", rowID, res, err)
}

// AddLink links a row to a category. Linking twice is a no-op.
func (s *Store) AddLink(ctx context.Context, rowID, categoryRowID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO plugin_categories (plugin_row_id, category_row_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		rowID, categoryRowID)
	if err != nil {
		return errors.WrapStore("link", constants.PluginsTable, rowID, err)
	}
	return nil
}

// RemoveLink removes the link between a row and a category.
func (s *Store) RemoveLink(ctx context.Context, rowID, categoryRowID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM plugin_categories WHERE plugin_row_id = ? AND category_row_id = ?",
		rowID, categoryRowID)
	if err != nil {
		return errors.WrapStore("unlink", constants.PluginsTable, rowID, err)
	}
	return nil
}

// ImportKeywords replaces the keyword table and upserts the categories it
// declares, in a single transaction.
func (s *Store) ImportKeywords(ctx context.Context, kf *schema.KeywordFile) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range kf.Categories {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO categories (row_id, name) VALUES (?, ?) ON CONFLICT(row_id) DO UPDATE SET name = excluded.name",
			c.ID, c.Name); err != nil {
			return errors.WrapStore("import", constants.CategoriesTable, c.ID, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM keywords"); err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	for _, kw := range kf.Keywords {
		if len(kw.Categories) == 0 {
			if _, err = tx.ExecContext(ctx, "INSERT INTO keywords (keyword) VALUES (?)", kw.Keyword); err != nil {
				return errors.WrapStore("import", constants.KeywordsTable, "", err)
			}
			continue
		}
		for _, id := range kw.Categories {
			if _, err = tx.ExecContext(ctx,
				"INSERT INTO keywords (keyword, category_row_id) VALUES (?, ?)", kw.Keyword, id); err != nil {
				return errors.WrapStore("import", constants.KeywordsTable, "", err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	return nil
}

func (s *Store) affected(op, rowID string, res sql.Result, err error) error {
	if err != nil {
		return errors.WrapStore(op, constants.PluginsTable, rowID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapStore(op, constants.PluginsTable, rowID, err)
	}
	if n == 0 {
		return errors.WrapStore(op, constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	return nil
}
