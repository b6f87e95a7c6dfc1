package reconciler

import (
	"context"

	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Store is the remote table the engine reconciles against. Row ids are the
// store's internal identifiers, never the plugin business key.
type Store interface {
	// Rows returns a snapshot of the Plugins table in store order.
	Rows(ctx context.Context) ([]plugins.Record, error)
	// Keywords returns the "Keywords to Category" table.
	Keywords(ctx context.Context) ([]plugins.Keyword, error)
	// Append inserts a new row and returns its row id.
	Append(ctx context.Context, rec plugins.Record) (string, error)
	// Update writes only the given columns of a row.
	Update(ctx context.Context, rowID string, values map[string]any) error
	// Delete removes a row.
	Delete(ctx context.Context, rowID string) error
	// AddLink links a plugin row to a category row.
	AddLink(ctx context.Context, rowID, categoryRowID string) error
	// RemoveLink unlinks a plugin row from a category row.
	RemoveLink(ctx context.Context, rowID, categoryRowID string) error
}

// ArchiveChecker confirms whether a repository has been archived on GitHub.
type ArchiveChecker interface {
	Archived(ctx context.Context, repo string) (bool, error)
}

// ArchiveCheckerFunc adapts a function to ArchiveChecker.
type ArchiveCheckerFunc func(ctx context.Context, repo string) (bool, error)

// Archived calls f.
func (f ArchiveCheckerFunc) Archived(ctx context.Context, repo string) (bool, error) {
	return f(ctx, repo)
}
