// Package memory is an in-process plugin store used by tests and dry
// experiments. Row ids are random UUIDs like the ones a remote store hands out.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Store keeps the Plugins, Categories and Keywords tables in memory.
type Store struct {
	mu         sync.RWMutex
	rows       []plugins.Record
	keywords   []plugins.Keyword
	categories map[string]string
}

// New creates an empty store.
func New() *Store {
	return &Store{categories: make(map[string]string)}
}

// Seed appends rows as-is. Rows without a row id get a new one.
func (s *Store) Seed(rows ...plugins.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if row.RowID == "" {
			row.RowID = uuid.NewString()
		}
		s.rows = append(s.rows, row)
	}
}

// SetKeywords replaces the keyword table and registers the categories it references.
func (s *Store) SetKeywords(keywords []plugins.Keyword) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = slices.Clone(keywords)
	for _, kw := range keywords {
		for _, ref := range kw.Categories {
			s.categories[ref.RowID] = ref.DisplayValue
		}
	}
}

// Rows returns a copy of the Plugins table.
func (s *Store) Rows(context.Context) ([]plugins.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]plugins.Record, len(s.rows))
	for i, row := range s.rows {
		row.Categories = slices.Clone(row.Categories)
		out[i] = row
	}
	return out, nil
}

// Keywords returns the keyword table.
func (s *Store) Keywords(context.Context) ([]plugins.Keyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.keywords), nil
}

// Append inserts rec with a fresh row id. Links are added separately.
func (s *Store) Append(_ context.Context, rec plugins.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.RowID = uuid.NewString()
	rec.Categories = nil
	s.rows = append(s.rows, rec)
	return rec.RowID, nil
}

// Update applies the column values to a row.
func (s *Store) Update(_ context.Context, rowID string, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(rowID)
	if i < 0 {
		return errors.WrapStore("update", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	updated := s.rows[i]
	if err := updated.Apply(values); err != nil {
		return errors.WrapStore("update", constants.PluginsTable, rowID, err)
	}
	s.rows[i] = updated
	return nil
}

// Delete removes a row.
func (s *Store) Delete(_ context.Context, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(rowID)
	if i < 0 {
		return errors.WrapStore("delete", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return nil
}

// AddLink links a row to a category. Linking twice is a no-op.
func (s *Store) AddLink(_ context.Context, rowID, categoryRowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(rowID)
	if i < 0 {
		return errors.WrapStore("link", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	for _, ref := range s.rows[i].Categories {
		if ref.RowID == categoryRowID {
			return nil
		}
	}
	s.rows[i].Categories = append(s.rows[i].Categories, plugins.CategoryRef{
		RowID:        categoryRowID,
		DisplayValue: s.categories[categoryRowID],
	})
	return nil
}

// RemoveLink removes every link between a row and a category.
func (s *Store) RemoveLink(_ context.Context, rowID, categoryRowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(rowID)
	if i < 0 {
		return errors.WrapStore("unlink", constants.PluginsTable, rowID, errors.NewNotFoundError("row", rowID))
	}
	s.rows[i].Categories = slices.DeleteFunc(s.rows[i].Categories, func(ref plugins.CategoryRef) bool {
		return ref.RowID == categoryRowID
	})
	return nil
}

func (s *Store) find(rowID string) int {
	return slices.IndexFunc(s.rows, func(r plugins.Record) bool {
		return r.RowID == rowID
	})
}
