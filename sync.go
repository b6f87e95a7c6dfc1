package pluginsync

import (
	"context"
	"time"

	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

// Sync fetches and enriches the registry, then reconciles the store with it.
// Failing to read the registry, the store snapshot or the keyword table
// aborts the run; per-plugin failures are recorded in the result.
func (c *Client) Sync(ctx context.Context, opts ...sync.Option) (*sync.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	options := sync.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	ctx = logging.WithOperation(ctx, "sync")
	logger := logging.FromContext(ctx)
	start := time.Now()

	logger.Info().
		Bool("dev", options.Dev).
		Bool("archive", options.Archive).
		Bool("dry_run", options.DryRun).
		Int("limit", options.EffectiveLimit()).
		Msg("Starting sync")

	rows, err := c.store.Rows(ctx)
	if err != nil {
		return nil, err
	}
	keywords, err := c.store.Keywords(ctx)
	if err != nil {
		return nil, err
	}

	upstream, result, err := c.fetch(ctx, options, rows)
	if err != nil {
		return nil, err
	}
	result.Rows = len(rows)

	if options.Dev {
		upstream = append(upstream, c.config.testPlugin)
	}

	engine, err := reconciler.New(c.store, c.reconcilerOptions(ctx, options)...)
	if err != nil {
		return nil, err
	}
	reconciled, err := engine.Run(ctx, upstream, rows, keywords)
	result.Reconcile = reconciled
	result.Processed = len(upstream)
	result.RateLimitRemaining = c.github.RateLimitRemaining()
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	logger.Info().
		Dur("duration", result.Duration).
		Int("rate_limit_remaining", result.RateLimitRemaining).
		Msg(result.Summary())
	return result, nil
}

// Fetch returns the enriched upstream list without touching the store
// beyond reading its snapshot for ETag seeding. The cache is refreshed when
// stale.
func (c *Client) Fetch(ctx context.Context, opts ...sync.Option) ([]plugins.Plugin, *sync.Result, error) {
	options := sync.Defaults().Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, nil, err
	}
	ctx = logging.WithOperation(ctx, "fetch")

	rows, err := c.store.Rows(ctx)
	if err != nil {
		return nil, nil, err
	}
	list, result, err := c.fetch(ctx, options, rows)
	if err != nil {
		return nil, nil, err
	}
	result.Rows = len(rows)
	result.Processed = len(list)
	result.RateLimitRemaining = c.github.RateLimitRemaining()
	return list, result, nil
}

// fetch lists the registry and returns the enriched, limited upstream. A
// fresh cache short-circuits enrichment.
func (c *Client) fetch(ctx context.Context, options *sync.Options, rows []plugins.Record) ([]plugins.Plugin, *sync.Result, error) {
	logger := logging.FromContext(ctx)
	result := &sync.Result{DryRun: options.DryRun, RateLimitRemaining: -1}

	list, err := c.registry.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	result.UpstreamCount = len(list)
	limit := options.EffectiveLimit()

	if c.cache != nil && !options.Force {
		cached, err := c.cache.Load()
		switch {
		case err != nil:
			logger.Warn().Err(err).Str("path", c.cache.Path).Msg("Ignoring unreadable plugin cache")
		case c.cache.Fresh(cached, len(list)):
			logger.Info().Str("path", c.cache.Path).Int("plugins", len(cached)).Msg("Using cached plugin list")
			result.CacheHit = true
			return truncate(cached, limit), result, nil
		default:
			logger.Debug().Str("path", c.cache.Path).Msg("Plugin cache is stale")
		}
	}

	list = truncate(list, limit)
	stats, err := c.enrich(ctx, list, seeds(ctx, rows))
	result.Enriched = stats.enriched
	result.EnrichFailures = stats.failures
	result.NotModified = stats.notModified
	if err != nil {
		return nil, nil, err
	}

	// A truncated list would make the cache look stale and hide the full one.
	if c.cache != nil && limit == 0 {
		if err := c.cache.Save(list); err != nil {
			logger.Warn().Err(err).Str("path", c.cache.Path).Msg("Failed to save plugin cache")
		}
	}
	return list, result, nil
}

func (c *Client) reconcilerOptions(ctx context.Context, options *sync.Options) []reconciler.Option {
	var base reconciler.Reporter = reconciler.NewLogReporter(logging.FromContext(ctx))
	if c.config.reporter != nil {
		base = c.config.reporter
	}
	reporter := reconciler.ReporterFunc(func(e differ.Event) {
		base.Report(e)
		c.hooks.Report(e)
	})

	opts := []reconciler.Option{
		reconciler.WithReporter(reporter),
		reconciler.WithClassifier(c.config.classifier),
		reconciler.WithDryRun(options.DryRun),
		reconciler.WithCompleteFetch(options.Complete()),
	}
	if options.Archive {
		opts = append(opts, reconciler.WithArchiveChecker(c.github))
	}
	return opts
}

func truncate(list []plugins.Plugin, limit int) []plugins.Plugin {
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}
