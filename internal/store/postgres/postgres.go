// Package postgres stores the Plugins, Categories and Keywords tables in
// PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pluginsync/pluginsync/internal/store/schema"
	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

const ddl = `
CREATE TABLE IF NOT EXISTS plugins (
	seq              BIGSERIAL,
	row_id           TEXT PRIMARY KEY,
	id               TEXT NOT NULL,
	name             TEXT NOT NULL DEFAULT '',
	description      TEXT,
	github_link      TEXT,
	author           TEXT,
	funding_url      TEXT,
	mobile_friendly  BOOLEAN,
	last_commit_date TEXT,
	etag             TEXT,
	status           TEXT,
	error            BOOLEAN NOT NULL DEFAULT FALSE,
	plugin_available BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS plugins_id ON plugins(id);

CREATE TABLE IF NOT EXISTS categories (
	row_id TEXT PRIMARY KEY,
	name   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS plugin_categories (
	seq             BIGSERIAL,
	plugin_row_id   TEXT NOT NULL REFERENCES plugins(row_id) ON DELETE CASCADE,
	category_row_id TEXT NOT NULL,
	PRIMARY KEY (plugin_row_id, category_row_id)
);

CREATE TABLE IF NOT EXISTS keywords (
	seq             BIGSERIAL,
	keyword         TEXT NOT NULL,
	category_row_id TEXT
);
`

// Config controls the connection pool.
type Config struct {
	DSN      string
	MaxConns int
	// ViaBouncer switches to the simple query protocol, which transaction
	// poolers such as pgbouncer require.
	ViaBouncer bool
}

// Store is a PostgreSQL-backed plugin store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.NewConfigError("postgres", "dsn is required", nil)
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid dsn", err)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 2
	}
	pcfg.MaxConns = int32(cfg.MaxConns)
	if cfg.ViaBouncer {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, errors.WrapStore("open", "postgres", "", err)
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, errors.WrapStore("migrate", "postgres", "", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Rows returns every plugin row in insertion order with its category links.
func (s *Store) Rows(ctx context.Context) ([]plugins.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY seq LIMIT %d",
		schema.SelectColumns(), schema.PluginsTable, constants.MaxQueryRows)
	rows, err := s.pool.Query(ctx, query)
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
	rows, err := s.pool.Query(ctx, `
		SELECT pc.plugin_row_id, pc.category_row_id, c.name
		FROM plugin_categories pc
		LEFT JOIN categories c ON c.row_id = pc.category_row_id
		ORDER BY pc.seq`)
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
	rows, err := s.pool.Query(ctx, `
		SELECT k.keyword, k.category_row_id, c.name
		FROM keywords k
		LEFT JOIN categories c ON c.row_id = k.category_row_id
		ORDER BY k.seq`)
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
	if _, err := s.pool.Exec(ctx, schema.Insert(schema.Dollar), args...); err != nil {
		return "", errors.WrapStore("append", constants.PluginsTable, rec.ID, err)
	}
	return rowID, nil
}

// Update writes the given column values to a row.
func (s *Store) Update(ctx context.Context, rowID string, values map[string]any) error {
	query, args, err := schema.Update(rowID, values, schema.Dollar)
	if err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.WrapStore("update", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	return nil
}

// Delete removes a row and its links.
func (s *Store) Delete(ctx context.Context, rowID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM plugins WHERE row_id = $1", rowID)
	if err != nil {
		return errors.WrapStore("delete", constants.PluginsTable, rowID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.WrapStore("delete", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	return nil
}

// AddLink links a row to a category. Linking twice is a no-op.
func (s *Store) AddLink(ctx context.Context, rowID, categoryRowID string) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO plugin_categories (plugin_row_id, category_row_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		rowID, categoryRowID)
	if err != nil {
		return errors.WrapStore("link", constants.PluginsTable, rowID, err)
	}
	return nil
}

// RemoveLink removes the link between a row and a category.
func (s *Store) RemoveLink(ctx context.Context, rowID, categoryRowID string) error {
	_, err := s.pool.Exec(ctx,
		"DELETE FROM plugin_categories WHERE plugin_row_id = $1 AND category_row_id = $2",
		rowID, categoryRowID)
	if err != nil {
		return errors.WrapStore("unlink", constants.PluginsTable, rowID, err)
	}
	return nil
}

// ImportKeywords replaces the keyword table and upserts the categories it
// declares. The statements are sent as one batch inside a transaction.
func (s *Store) ImportKeywords(ctx context.Context, kf *schema.KeywordFile) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	b := &pgx.Batch{}
	for _, c := range kf.Categories {
		b.Queue(`INSERT INTO categories (row_id, name) VALUES ($1, $2)
			ON CONFLICT (row_id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name)
	}
	b.Queue("DELETE FROM keywords")
	for _, kw := range kf.Keywords {
		if len(kw.Categories) == 0 {
			b.Queue("INSERT INTO keywords (keyword) VALUES ($1)", kw.Keyword)
			continue
		}
		for _, id := range kw.Categories {
			b.Queue("INSERT INTO keywords (keyword, category_row_id) VALUES ($1, $2)", kw.Keyword, id)
		}
	}

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return errors.WrapStore("import", constants.KeywordsTable, "", err)
		}
	}
	if err := br.Close(); err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.WrapStore("import", constants.KeywordsTable, "", err)
	}
	return nil
}
