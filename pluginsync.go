// Package pluginsync keeps a plugin store in step with the community plugin
// registry. A Client fetches the registry, enriches every plugin with its
// manifest and latest commit, and hands the result to the reconciler, which
// inserts, patches and deletes store rows.
package pluginsync

import (
	"context"

	"github.com/pluginsync/pluginsync/internal/sources/cache"
	"github.com/pluginsync/pluginsync/internal/sources/github"
	"github.com/pluginsync/pluginsync/internal/sources/registry"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

// Client runs syncs against a single store.
type Client struct {
	store    reconciler.Store
	registry *registry.Client
	github   *github.Client
	cache    *cache.File
	config   *config
	hooks    *hooks
}

// New creates a Client for store. Registry and GitHub clients default to
// the public endpoints; no local cache is used unless WithCache is given.
func New(store reconciler.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, &errors.ValidationError{
			Field:   "store",
			Message: "cannot be nil",
		}
	}

	c := &Client{
		store:  store,
		config: defaultConfig(),
		hooks:  newHooks(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.registry == nil {
		c.registry = registry.New()
	}
	if c.github == nil {
		c.github = github.New()
	}
	if c.config.classifier == nil {
		c.config.classifier = activity.New()
	}
	return c, nil
}

// Store returns the store the client writes to.
func (c *Client) Store() reconciler.Store {
	return c.store
}

// Duplicates reports the groups of store rows that share a plugin id,
// without deleting anything.
func (c *Client) Duplicates(ctx context.Context) ([]reconciler.DuplicateGroup, error) {
	rows, err := c.store.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return reconciler.DuplicateGroups(rows), nil
}
