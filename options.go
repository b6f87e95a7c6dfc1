package pluginsync

import (
	"github.com/pluginsync/pluginsync/internal/sources/cache"
	"github.com/pluginsync/pluginsync/internal/sources/github"
	"github.com/pluginsync/pluginsync/internal/sources/registry"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

// TestPlugin is appended to the upstream list on dev runs so that every
// dev run exercises the insert path.
var TestPlugin = plugins.Plugin{
	ID:          "pluginsync-test-plugin",
	Name:        "Pluginsync Test Plugin",
	Description: "Synthetic plugin added by development runs.",
	Repo:        "pluginsync/test-plugin",
	Author:      "pluginsync",
}

type config struct {
	classifier *activity.Classifier
	reporter   reconciler.Reporter
	testPlugin plugins.Plugin
}

func defaultConfig() *config {
	return &config{testPlugin: TestPlugin}
}

// Option configures a Client.
type Option func(*Client) error

// WithRegistry sets the registry client.
func WithRegistry(r *registry.Client) Option {
	return func(c *Client) error {
		c.registry = r
		return nil
	}
}

// WithGitHub sets the GitHub client used for commit and archive lookups.
func WithGitHub(g *github.Client) Option {
	return func(c *Client) error {
		c.github = g
		return nil
	}
}

// WithCache enables the local registry cache.
func WithCache(f *cache.File) Option {
	return func(c *Client) error {
		c.cache = f
		return nil
	}
}

// WithClassifier sets the activity classifier.
func WithClassifier(classifier *activity.Classifier) Option {
	return func(c *Client) error {
		if classifier == nil {
			return errors.NewValidationError("classifier", nil, "cannot be nil")
		}
		c.config.classifier = classifier
		return nil
	}
}

// WithReporter replaces the default log reporter. Hooks still fire.
func WithReporter(r reconciler.Reporter) Option {
	return func(c *Client) error {
		if r == nil {
			return errors.NewValidationError("reporter", nil, "cannot be nil")
		}
		c.config.reporter = r
		return nil
	}
}

// WithTestPlugin replaces the synthetic plugin used on dev runs.
func WithTestPlugin(p plugins.Plugin) Option {
	return func(c *Client) error {
		if p.ID == "" {
			return errors.NewValidationError("id", p.ID, "test plugin id is required")
		}
		c.config.testPlugin = p
		return nil
	}
}
