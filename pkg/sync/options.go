// Package sync provides options and results for a full pluginsync run:
// fetching the registry, enriching plugins and reconciling the store.
package sync

import (
	"time"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
)

// Options controls the overall sync orchestration in Client.Sync().
type Options struct {
	// Orchestration control
	DryRun  bool          // Report changes without writing to the store
	Timeout time.Duration // Timeout for the entire sync operation

	// Upstream selection
	Limit int  // Process only the first Limit plugins (0 means all)
	Dev   bool // Development run: limited list plus a synthetic test plugin
	Force bool // Ignore the local cache and refetch the registry

	// Remote lookups
	Archive bool // Confirm archived repositories with GitHub
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		Timeout: constants.SyncTimeout,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if s.Limit < 0 {
		return &errors.ValidationError{
			Field:   "Limit",
			Value:   s.Limit,
			Message: "limit must be non-negative",
		}
	}
	return nil
}

// EffectiveLimit returns the number of upstream plugins to process, 0 for all.
// Dev runs are capped at constants.DevPluginLimit.
func (s *Options) EffectiveLimit() int {
	if s.Dev && (s.Limit == 0 || s.Limit > constants.DevPluginLimit) {
		return constants.DevPluginLimit
	}
	return s.Limit
}

// Complete reports whether the run sees the full registry. Orphan deletion
// is only safe for complete runs.
func (s *Options) Complete() bool {
	return s.EffectiveLimit() == 0 && !s.Dev
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithTimeout configures the timeout for the whole run.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithLimit restricts the run to the first n upstream plugins.
func WithLimit(n int) Option {
	return func(opts *Options) {
		opts.Limit = n
	}
}

// WithDev configures a development run.
func WithDev(dev bool) Option {
	return func(opts *Options) {
		opts.Dev = dev
	}
}

// WithForce bypasses the local registry cache.
func WithForce(force bool) Option {
	return func(opts *Options) {
		opts.Force = force
	}
}

// WithArchive enables the GitHub archive check.
func WithArchive(archive bool) Option {
	return func(opts *Options) {
		opts.Archive = archive
	}
}
