package seatable

import (
	"context"
	"fmt"
	"sync"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Store adapts a SeaTable base holding the Plugins, Categories and
// "Keywords to Category" tables to the reconciler.
type Store struct {
	client *Client

	mu     sync.Mutex
	linkID string
}

// New creates a store over an authenticated client.
func New(client *Client) *Store {
	return &Store{client: client}
}

// Open creates a client for apiToken and wraps it in a store.
func Open(apiToken string, opts ...Option) (*Store, error) {
	client, err := NewClient(apiToken, opts...)
	if err != nil {
		return nil, err
	}
	return New(client), nil
}

// Client returns the underlying API client.
func (s *Store) Client() *Client {
	return s.client
}

// Rows queries the whole Plugins table.
func (s *Store) Rows(ctx context.Context) ([]plugins.Record, error) {
	result, err := s.client.Query(ctx, selectAll(constants.PluginsTable))
	if err != nil {
		return nil, errors.WrapStore("query", constants.PluginsTable, "", err)
	}
	rows := make([]plugins.Record, 0, len(result.Results))
	for _, raw := range result.Results {
		rec, err := plugins.DecodeRow(raw)
		if err != nil {
			return nil, errors.WrapStore("query", constants.PluginsTable, fmt.Sprint(raw[plugins.FieldRowID]), err)
		}
		rows = append(rows, rec)
	}
	logging.FromContext(ctx).Debug().Int("rows", len(rows)).Msg("Fetched plugins table")
	return rows, nil
}

// Keywords queries the keyword table.
func (s *Store) Keywords(ctx context.Context) ([]plugins.Keyword, error) {
	result, err := s.client.Query(ctx, selectAll(constants.KeywordsTable))
	if err != nil {
		return nil, errors.WrapStore("query", constants.KeywordsTable, "", err)
	}
	keywords := make([]plugins.Keyword, 0, len(result.Results))
	for _, raw := range result.Results {
		kw, err := plugins.DecodeKeywordRow(raw)
		if err != nil {
			return nil, errors.WrapStore("query", constants.KeywordsTable, "", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, nil
}

// Append inserts rec and returns the row id SeaTable assigned.
func (s *Store) Append(ctx context.Context, rec plugins.Record) (string, error) {
	rowID, err := s.client.AppendRow(ctx, constants.PluginsTable, rec.Row())
	if err != nil {
		return "", errors.WrapStore("append", constants.PluginsTable, rec.ID, err)
	}
	return rowID, nil
}

// Update writes column values to a row.
func (s *Store) Update(ctx context.Context, rowID string, values map[string]any) error {
	var scratch plugins.Record
	if err := scratch.Apply(values); err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	if err := s.client.UpdateRow(ctx, constants.PluginsTable, rowID, values); err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	return nil
}

// Delete removes a row.
func (s *Store) Delete(ctx context.Context, rowID string) error {
	if err := s.client.DeleteRow(ctx, constants.PluginsTable, rowID); err != nil {
		return errors.WrapStore("delete", constants.PluginsTable, rowID, err)
	}
	return nil
}

// AddLink links a plugin row to a category row.
func (s *Store) AddLink(ctx context.Context, rowID, categoryRowID string) error {
	link, err := s.link(ctx, rowID, categoryRowID)
	if err == nil {
		err = s.client.AddLink(ctx, link)
	}
	if err != nil {
		return errors.WrapStore("link", constants.PluginsTable, rowID, err)
	}
	return nil
}

// RemoveLink unlinks a plugin row from a category row.
func (s *Store) RemoveLink(ctx context.Context, rowID, categoryRowID string) error {
	link, err := s.link(ctx, rowID, categoryRowID)
	if err == nil {
		err = s.client.RemoveLink(ctx, link)
	}
	if err != nil {
		return errors.WrapStore("unlink", constants.PluginsTable, rowID, err)
	}
	return nil
}

// link resolves the categories link column once per store.
func (s *Store) link(ctx context.Context, rowID, categoryRowID string) (Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkID == "" {
		id, err := s.client.LinkID(ctx, constants.PluginsTable, plugins.FieldCategories)
		if err != nil {
			return Link{}, err
		}
		s.linkID = id
	}
	return Link{
		LinkID:     s.linkID,
		Table:      constants.PluginsTable,
		OtherTable: constants.CategoriesTable,
		RowID:      rowID,
		OtherRowID: categoryRowID,
	}, nil
}

func selectAll(table string) string {
	return fmt.Sprintf("SELECT * FROM `%s` LIMIT %d", table, constants.MaxQueryRows)
}
