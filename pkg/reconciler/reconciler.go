// Package reconciler keeps the store's Plugins table consistent with the
// upstream registry. For each upstream plugin it inserts a missing row or
// patches only the columns that drifted, keeps suggested category links in
// step with the keyword table, then removes orphaned and duplicated rows.
package reconciler

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pluginsync/pluginsync/pkg/categories"
	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Reconciler applies upstream plugins to a Store, one plugin at a time.
type Reconciler struct {
	store   Store
	options *options
}

// New creates a Reconciler for the given store.
func New(store Store, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, &errors.ValidationError{
			Field:   "store",
			Message: "cannot be nil",
		}
	}
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{store: store, options: options}, nil
}

// run holds the state of a single Run call.
type run struct {
	*Reconciler
	logger  *zerolog.Logger
	matcher *categories.Matcher
	result  *Result
	index   map[string]plugins.Record
	seen    map[string]struct{}
	deleted map[string]struct{}
}

// Run reconciles upstream against the rows snapshot. Per-plugin failures are
// recorded in the result and do not stop the run; the returned error is only
// set when the context is canceled.
func (r *Reconciler) Run(ctx context.Context, upstream []plugins.Plugin, rows []plugins.Record, keywords []plugins.Keyword) (*Result, error) {
	rn := &run{
		Reconciler: r,
		logger:     logging.FromContext(ctx),
		matcher:    categories.NewMatcher(keywords),
		result:     NewResult(),
		index:      make(map[string]plugins.Record, len(rows)),
		seen:       make(map[string]struct{}, len(upstream)),
		deleted:    make(map[string]struct{}),
	}
	rn.result.Metadata.DryRun = r.options.dryRun

	// The first row of each id is the one reconciled; the rest are duplicates.
	for _, row := range rows {
		if _, ok := rn.index[row.ID]; !ok {
			rn.index[row.ID] = row
		}
	}

	rn.logger.Info().
		Int("upstream", len(upstream)).
		Int("rows", len(rows)).
		Int("keywords", rn.matcher.Len()).
		Bool("dry_run", r.options.dryRun).
		Msg("Reconciling plugins")

	for _, p := range upstream {
		if err := ctx.Err(); err != nil {
			rn.result.Finalize()
			return rn.result, err
		}
		if _, dup := rn.seen[p.ID]; dup {
			rn.result.Warnings = append(rn.result.Warnings, "upstream lists plugin "+p.ID+" more than once")
			continue
		}
		rn.seen[p.ID] = struct{}{}
		rn.result.Metadata.Stats.Processed++

		pctx := logging.WithPlugin(ctx, p.ID)
		if stored, ok := rn.index[p.ID]; ok {
			rn.update(pctx, stored, p)
		} else {
			rn.insert(pctx, p)
		}
	}

	if err := ctx.Err(); err != nil {
		rn.result.Finalize()
		return rn.result, err
	}
	rn.deleteOrphans(ctx, rows, upstream)
	rn.removeDuplicates(ctx, rows)

	rn.result.Finalize()
	rn.logger.Info().
		Dur("duration", rn.result.Metadata.Duration).
		Msg(rn.result.Summary())
	return rn.result, nil
}

func (rn *run) insert(ctx context.Context, p plugins.Plugin) {
	rec, err := BuildRecord(p, rn.options.classifier)
	if err != nil {
		rn.fail(p.ID, "insert", err)
		return
	}
	rec.Categories = rn.matcher.Match(p.Name, p.Description)

	rn.emit(differ.Event{
		Kind:     differ.EventInsert,
		PluginID: p.ID,
		NewValue: rec.Name,
		Message:  rec.GithubLink,
	})
	for _, ref := range rec.Categories {
		rn.emit(differ.Event{Kind: differ.EventLinkAdd, PluginID: p.ID, NewValue: ref.DisplayValue})
	}

	if !rn.options.dryRun {
		rowID, err := rn.store.Append(ctx, rec)
		if err != nil {
			rn.fail(p.ID, "insert", err)
			return
		}
		for _, ref := range rec.Categories {
			if err := rn.store.AddLink(ctx, rowID, ref.RowID); err != nil {
				rn.fail(p.ID, "link", err)
				return
			}
		}
	}
	rn.result.Metadata.Stats.Inserted++
	rn.result.Metadata.Stats.LinksAdded += len(rec.Categories)
}

func (rn *run) update(ctx context.Context, stored plugins.Record, p plugins.Plugin) {
	archived := false
	repo := plugins.RepoFromURL(p.Repo)
	if repo == "" {
		repo = stored.Repo()
	}
	// Rows without any repository cannot be looked up and keep their status.
	if rn.options.archive != nil && stored.Status != plugins.StateArchived && repo != "" {
		var err error
		archived, err = rn.options.archive.Archived(ctx, repo)
		if err != nil {
			rn.fail(p.ID, "archive", err)
			return
		}
	}

	patch, err := DiffRecord(RecordInput{
		Stored:     stored,
		Fresh:      p,
		Archived:   archived,
		Classifier: rn.options.classifier,
	})
	if err != nil {
		rn.fail(p.ID, "reconcile", err)
		return
	}
	delta := categories.Reconcile(stored.Categories, rn.matcher.Match(p.Name, p.Description))

	if !patch.HasChanges() && delta.Empty() {
		rn.result.Metadata.Stats.Unchanged++
		return
	}

	for _, e := range differ.UpdateEvents(patch) {
		rn.emit(e)
	}
	for _, ref := range delta.ToAdd {
		rn.emit(differ.Event{Kind: differ.EventLinkAdd, PluginID: p.ID, RowID: stored.RowID, NewValue: ref.DisplayValue})
	}
	for _, ref := range delta.ToRemove {
		rn.emit(differ.Event{Kind: differ.EventLinkRemove, PluginID: p.ID, RowID: stored.RowID, OldValue: ref.DisplayValue})
	}

	if !rn.options.dryRun && !rn.apply(ctx, stored.RowID, p.ID, patch, delta) {
		return
	}
	rn.result.Metadata.Stats.Updated++
	rn.result.Metadata.Stats.LinksAdded += len(delta.ToAdd)
	rn.result.Metadata.Stats.LinksRemoved += len(delta.ToRemove)
}

// apply writes a patch and link delta, reporting false on the first failure.
func (rn *run) apply(ctx context.Context, rowID, pluginID string, patch *differ.Patch, delta categories.Delta) bool {
	if patch.HasChanges() {
		if err := rn.store.Update(ctx, rowID, patch.Values()); err != nil {
			rn.fail(pluginID, "update", err)
			return false
		}
	}
	for _, ref := range delta.ToAdd {
		if err := rn.store.AddLink(ctx, rowID, ref.RowID); err != nil {
			rn.fail(pluginID, "link", err)
			return false
		}
	}
	for _, ref := range delta.ToRemove {
		if err := rn.store.RemoveLink(ctx, rowID, ref.RowID); err != nil {
			rn.fail(pluginID, "unlink", err)
			return false
		}
	}
	return true
}

func (rn *run) deleteOrphans(ctx context.Context, rows []plugins.Record, upstream []plugins.Plugin) {
	if !rn.options.complete {
		rn.result.Metadata.OrphansSkipped = true
		rn.logger.Info().Msg("Upstream list is incomplete, skipping orphan deletion")
		return
	}

	for _, row := range Orphans(rows, plugins.IDs(upstream)) {
		rn.emit(differ.Event{
			Kind:     differ.EventDelete,
			PluginID: row.ID,
			RowID:    row.RowID,
			OldValue: row.Name,
		})
		rn.deleted[row.RowID] = struct{}{}
		if !rn.options.dryRun {
			if err := rn.store.Delete(ctx, row.RowID); err != nil {
				rn.fail(row.ID, "delete", err)
				continue
			}
		}
		rn.result.Metadata.Stats.Deleted++
	}
}

func (rn *run) removeDuplicates(ctx context.Context, rows []plugins.Record) {
	for _, row := range Duplicates(rows) {
		if _, gone := rn.deleted[row.RowID]; gone {
			continue
		}
		rn.emit(differ.Event{
			Kind:     differ.EventDuplicate,
			PluginID: row.ID,
			RowID:    row.RowID,
		})
		rn.deleted[row.RowID] = struct{}{}
		if !rn.options.dryRun {
			if err := rn.store.Delete(ctx, row.RowID); err != nil {
				rn.fail(row.ID, "duplicate", err)
				continue
			}
		}
		rn.result.Metadata.Stats.DuplicatesRemoved++
	}
}

func (rn *run) emit(e differ.Event) {
	rn.options.reporter.Report(e)
	rn.result.Changeset.Add(e)
}

func (rn *run) fail(pluginID, stage string, err error) {
	perr := errors.NewPluginError(pluginID, stage, err)
	rn.result.Errors = append(rn.result.Errors, perr)
	rn.result.Metadata.Stats.Failed++
	rn.emit(differ.Event{
		Kind:     differ.EventError,
		PluginID: pluginID,
		Message:  err.Error(),
	})
}
