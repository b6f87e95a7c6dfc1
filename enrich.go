package pluginsync

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/dates"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// seed is what the store already knows about a plugin. Enrichment starts
// from it so a 304 or a failed lookup keeps the stored values.
type seed struct {
	etag        string
	date        *utc.Time
	desktopOnly *bool
}

// seeds indexes the first row of each plugin id.
func seeds(ctx context.Context, rows []plugins.Record) map[string]seed {
	out := make(map[string]seed, len(rows))
	for _, row := range rows {
		if _, ok := out[row.ID]; ok {
			continue
		}
		var s seed
		if row.LastCommitDate != "" {
			date, err := dates.Parse(row.LastCommitDate)
			if err != nil {
				logging.FromContext(ctx).Warn().Err(err).
					Str("plugin_id", row.ID).
					Msg("Ignoring unparseable stored commit date")
			} else {
				s.date = date
			}
		}
		// A 304 only helps when the date it vouches for is known.
		if s.date != nil {
			s.etag = plugins.CleanETag(row.ETag)
		}
		if row.MobileFriendly != nil {
			s.desktopOnly = ptr.Bool(!*row.MobileFriendly)
		}
		out[row.ID] = s
	}
	return out
}

type enrichStats struct {
	enriched    int
	failures    int
	notModified int
}

// enrich fills manifest and commit data into list in place. Per-plugin
// failures are logged and counted; only cancellation stops the pass.
func (c *Client) enrich(ctx context.Context, list []plugins.Plugin, known map[string]seed) (enrichStats, error) {
	var stats enrichStats
	logger := logging.FromContext(ctx)

	for i := range list {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		notModified, err := c.enrichOne(ctx, &list[i], known[list[i].ID])
		if notModified {
			stats.notModified++
		}
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.failures++
			logger.Warn().Err(err).Str("plugin_id", list[i].ID).Msg("Enrichment incomplete")
			continue
		}
		stats.enriched++
		if (i+1)%100 == 0 {
			logger.Debug().Int("done", i+1).Int("total", len(list)).Msg("Enriching plugins")
		}
	}
	return stats, nil
}

// enrichOne runs the manifest and commit lookups for p. Both are attempted
// even when the first fails.
func (c *Client) enrichOne(ctx context.Context, p *plugins.Plugin, s seed) (notModified bool, err error) {
	ctx = logging.WithPlugin(ctx, p.ID)

	p.ETag = s.etag
	p.LastCommitDate = s.date
	if p.IsDesktopOnly == nil {
		p.IsDesktopOnly = s.desktopOnly
	}

	repo := plugins.RepoFromURL(p.Repo)
	if repo == "" {
		return false, errors.NewMissingRepoError(p.ID, p.Repo)
	}
	ctx = logging.WithRepo(ctx, repo)

	var errs []error
	manifest, err := c.registry.Manifest(ctx, repo)
	if err != nil {
		errs = append(errs, err)
	} else {
		// An old manifest without the flag means desktop-only.
		p.IsDesktopOnly = ptr.Bool(ptr.Deref(manifest.IsDesktopOnly, true))
		if url := manifest.FirstFundingURL(); url != "" {
			p.FundingURL = url
		}
	}

	commit, err := c.github.LatestCommit(ctx, repo, s.etag)
	switch {
	case err != nil:
		errs = append(errs, err)
	case commit.NotModified:
		notModified = true
		logging.FromContext(ctx).Debug().Msg("Commit unchanged since last sync")
	default:
		p.LastCommitDate = commit.Date
		if commit.ETag != "" {
			p.ETag = commit.ETag
		}
	}

	if len(errs) > 0 {
		return notModified, errors.NewPluginError(p.ID, "enrich", errors.Join(errs...))
	}
	return notModified, nil
}
