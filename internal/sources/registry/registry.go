// Package registry fetches the community plugin list and per-plugin
// manifests from GitHub-hosted raw content.
package registry

import (
	"context"
	"net/http"
	"strings"

	"github.com/pluginsync/pluginsync/internal/transport"
	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Service is the name used for registry errors.
const Service = "registry"

// Branches tried, in order, when fetching a manifest.
var Branches = []string{"master", "main"}

// Client reads the upstream registry.
type Client struct {
	transport *transport.Client
	listURL   string
	rawURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithListURL overrides the community-plugins.json location.
func WithListURL(url string) Option {
	return func(c *Client) {
		c.listURL = url
	}
}

// WithRawURL overrides the raw content base used for manifests.
func WithRawURL(url string) Option {
	return func(c *Client) {
		c.rawURL = strings.TrimSuffix(url, "/")
	}
}

// WithTransport replaces the HTTP transport.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// New creates a registry client.
func New(opts ...Option) *Client {
	c := &Client{
		transport: transport.New(Service),
		listURL:   constants.CommunityPluginsURL,
		rawURL:    constants.RawContentURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the plugins listed in the registry in registry order.
func (c *Client) List(ctx context.Context) ([]plugins.Plugin, error) {
	resp, err := c.transport.Get(ctx, c.listURL, nil)
	if err != nil {
		return nil, err
	}
	var list []plugins.Plugin
	if err := transport.DecodeResponse(resp, Service, &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Repo = plugins.RepoFromURL(list[i].Repo)
	}
	logging.FromContext(ctx).Debug().Int("plugins", len(list)).Msg("Fetched registry list")
	return list, nil
}

// Manifest fetches manifest.json for repo, trying the master branch first
// and falling back to main when it does not exist.
func (c *Client) Manifest(ctx context.Context, repo string) (*plugins.Manifest, error) {
	repo = plugins.RepoFromURL(repo)
	if _, _, ok := plugins.SplitRepo(repo); !ok {
		return nil, errors.NewMissingRepoError("", repo)
	}

	var lastErr error
	for _, branch := range Branches {
		m, err := c.manifest(ctx, repo, branch)
		if err == nil {
			return m, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) manifest(ctx context.Context, repo, branch string) (*plugins.Manifest, error) {
	url := c.rawURL + "/" + repo + "/" + branch + "/manifest.json"
	resp, err := c.transport.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		transport.Drain(resp)
		return nil, errors.NewNetworkError(Service, url, http.StatusNotFound, "manifest not found on "+branch)
	}
	var m plugins.Manifest
	if err := transport.DecodeResponse(resp, Service, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
