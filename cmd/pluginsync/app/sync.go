package app

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/pluginsync/pluginsync/internal/cmd/output"
	"github.com/pluginsync/pluginsync/internal/matcher"
	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

// syncFlags are shared by sync, fetch and schedule.
type syncFlags struct {
	dev     bool
	archive bool
	dryRun  bool
	force   bool
	limit   int
	timeout time.Duration
}

func (f *syncFlags) bind(cmd *cobra.Command, withWrites bool) {
	cmd.Flags().BoolVar(&f.dev, "dev", false, "development run: dev store token, first 5 plugins plus a test plugin")
	cmd.Flags().BoolVar(&f.force, "force", false, "ignore the local plugins.json cache")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "process only the first N registry plugins (disables orphan deletion)")
	if withWrites {
		cmd.Flags().BoolVar(&f.archive, "archive", false, "confirm archived repositories with GitHub")
		cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "report changes without writing to the store")
		cmd.Flags().DurationVar(&f.timeout, "timeout", constants.SyncTimeout, "timeout for the whole run")
	}
}

func (f *syncFlags) options() []sync.Option {
	opts := []sync.Option{
		sync.WithDev(f.dev),
		sync.WithForce(f.force),
		sync.WithLimit(f.limit),
		sync.WithArchive(f.archive),
		sync.WithDryRun(f.dryRun),
	}
	if f.timeout > 0 {
		opts = append(opts, sync.WithTimeout(f.timeout))
	}
	return opts
}

// NewSyncCommand creates the sync command.
func (a *App) NewSyncCommand() *cobra.Command {
	var flags syncFlags
	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Reconcile the store with the plugin registry",
		Example: `  pluginsync sync
  pluginsync sync --dev --dry-run
  pluginsync sync --archive --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, flags.dev)
			if err != nil {
				return err
			}

			result, err := client.Sync(ctx, flags.options()...)
			if err != nil {
				return err
			}

			format := output.DetectFormat(a.config.Format)
			w := cmd.OutOrStdout()
			if format.IsTable() && flags.dryRun {
				if events := result.Reconcile.Events(); len(events) > 0 {
					if err := output.Write(w, format, nil, output.EventsToTableData(events)); err != nil {
						return err
					}
				}
			}
			return output.Write(w, format, output.NewSyncReport(result), output.ResultToTableData(result))
		},
	}
	flags.bind(cmd, true)
	return cmd
}

// NewFetchCommand creates the fetch command.
func (a *App) NewFetchCommand() *cobra.Command {
	var (
		flags   syncFlags
		filters []string
	)
	cmd := &cobra.Command{
		Use:     "fetch",
		GroupID: "core",
		Short:   "Fetch and enrich the registry without writing to the store",
		Long: `Fetch lists the community registry, enriches each plugin with its
manifest and latest commit and prints the result. The local cache is
refreshed when it is stale; the store is only read to seed ETags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, flags.dev)
			if err != nil {
				return err
			}

			list, result, err := client.Fetch(ctx, flags.options()...)
			if err != nil {
				return err
			}
			a.logger.Info().
				Int("upstream", result.UpstreamCount).
				Bool("cache_hit", result.CacheHit).
				Int("enriched", result.Enriched).
				Int("not_modified", result.NotModified).
				Msg("Fetched registry")

			list, err = matcher.Filter(list, filters...)
			if err != nil {
				return err
			}

			format := output.DetectFormat(a.config.Format)
			return output.Write(cmd.OutOrStdout(), format, list, output.PluginsToTableData(list, format == output.FormatWide))
		},
	}
	flags.bind(cmd, false)
	cmd.Flags().StringSliceVar(&filters, "filter", nil, "print only plugin ids matching these glob or regex patterns")
	return cmd
}

// NewDuplicatesCommand creates the duplicates command.
func (a *App) NewDuplicatesCommand() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:     "duplicates",
		GroupID: "core",
		Short:   "List plugin ids stored in more than one row",
		Long: `Duplicates reports every plugin id held by more than one row. The
first row in store order is kept by sync; the others are removed.
Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, dev)
			if err != nil {
				return err
			}

			groups, err := client.Duplicates(ctx)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				a.logger.Info().Msg("No duplicated plugin ids")
			}

			format := output.DetectFormat(a.config.Format)
			return output.Write(cmd.OutOrStdout(), format, groups, output.DuplicatesToTableData(groups))
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "use the development store")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("pluginsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
