package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pluginsync/pluginsync"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

// DefaultSchedule runs a sync every day at 03:00 (six fields, seconds first).
const DefaultSchedule = "0 0 3 * * *"

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler runs sync on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	cron   *cron.Cron
	client *pluginsync.Client
	opts   []sync.Option
	logger *zerolog.Logger
}

// NewScheduler parses spec and registers the sync job.
func NewScheduler(ctx context.Context, client *pluginsync.Client, spec string, logger *zerolog.Logger, opts ...sync.Option) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		client: client,
		opts:   opts,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Run(ctx) }); err != nil {
		return nil, errors.NewValidationError("cron", spec, err.Error())
	}
	return s, nil
}

// Run performs one sync and logs its outcome.
func (s *Scheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.client.Sync(ctx, s.opts...)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled sync failed")
		return
	}
	s.logger.Info().Dur("duration", result.Duration).Msg(result.Summary())
}

// Start runs the scheduler until ctx is canceled, then waits for a running
// sync to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
}

// NewScheduleCommand creates the schedule command.
func (a *App) NewScheduleCommand() *cobra.Command {
	var (
		flags syncFlags
		spec  string
		now   bool
	)
	cmd := &cobra.Command{
		Use:     "schedule",
		GroupID: "management",
		Short:   "Run sync periodically on a cron schedule",
		Example: `  pluginsync schedule
  pluginsync schedule --cron "0 0 */6 * * *" --archive --now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.Client(ctx, flags.dev)
			if err != nil {
				return err
			}

			s, err := NewScheduler(ctx, client, spec, a.logger, flags.options()...)
			if err != nil {
				return err
			}
			a.logger.Info().Str("cron", spec).Msg("Scheduler started")
			if now {
				s.Run(ctx)
			}
			s.Start(ctx)
			a.logger.Info().Msg("Scheduler stopped")
			return nil
		},
	}
	flags.bind(cmd, true)
	cmd.Flags().StringVar(&spec, "cron", DefaultSchedule, "cron schedule with a leading seconds field")
	cmd.Flags().BoolVar(&now, "now", false, "run once immediately before waiting for the schedule")
	return cmd
}
