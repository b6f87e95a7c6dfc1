// Package activity classifies plugins as ACTIVE or STALE from the date of
// their most recent commit and guards the manually asserted states.
package activity

import (
	"time"

	"github.com/agentstation/utc"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Classifier maps a last-commit date to a lifecycle state.
type Classifier struct {
	now    func() time.Time
	window int
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithClock overrides the time source. Tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWindow sets the number of days a commit keeps a plugin active.
func WithWindow(days int) Option {
	return func(c *Classifier) {
		if days > 0 {
			c.window = days
		}
	}
}

// New creates a Classifier with a 365 day window and the wall clock.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		now:    time.Now,
		window: constants.ActivityWindowDays,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns ACTIVE when the commit is less than the window old and
// STALE otherwise. A missing date is STALE.
func (c *Classifier) Classify(lastCommit *utc.Time) plugins.State {
	if lastCommit == nil || lastCommit.IsZero() {
		return plugins.StateStale
	}
	if AgeDays(c.now(), lastCommit.Time) < c.window {
		return plugins.StateActive
	}
	return plugins.StateStale
}

// Now returns the classifier's current time.
func (c *Classifier) Now() time.Time {
	return c.now()
}

// AgeDays is the number of whole days between then and now. Future dates
// count as zero days old.
func AgeDays(now, then time.Time) int {
	d := now.Sub(then)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// Resolve picks the state to store given the stored state and a freshly
// computed one. MAINTENANCE and ARCHIVED are never replaced by the classifier.
func Resolve(stored, computed plugins.State) plugins.State {
	if stored.Sticky() {
		return stored
	}
	return computed
}
