package reconciler

import (
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/errors"
)

type options struct {
	reporter   Reporter
	classifier *activity.Classifier
	archive    ArchiveChecker
	dryRun     bool
	complete   bool
}

func defaultOptions() *options {
	return &options{
		reporter:   nopReporter{},
		classifier: activity.New(),
		complete:   true,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithReporter sets the reporter that receives each event before it is applied.
func WithReporter(reporter Reporter) Option {
	return func(o *options) error {
		if reporter == nil {
			return &errors.ValidationError{
				Field:   "reporter",
				Message: "cannot be nil",
			}
		}
		o.reporter = reporter
		return nil
	}
}

// WithClassifier sets the activity classifier.
func WithClassifier(c *activity.Classifier) Option {
	return func(o *options) error {
		if c == nil {
			return &errors.ValidationError{
				Field:   "classifier",
				Message: "cannot be nil",
			}
		}
		o.classifier = c
		return nil
	}
}

// WithArchiveChecker enables the archive pass. Without it no archive
// lookups are made.
func WithArchiveChecker(checker ArchiveChecker) Option {
	return func(o *options) error {
		o.archive = checker
		return nil
	}
}

// WithDryRun reports every event but writes nothing to the store.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithCompleteFetch declares whether the upstream list is the full registry.
// Orphan deletion only runs for complete fetches.
func WithCompleteFetch(complete bool) Option {
	return func(o *options) error {
		o.complete = complete
		return nil
	}
}
