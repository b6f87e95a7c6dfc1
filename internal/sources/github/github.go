// Package github looks up the latest commit and archive status of plugin
// repositories through the GitHub REST API.
package github

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/agentstation/utc"
	"golang.org/x/time/rate"

	"github.com/pluginsync/pluginsync/internal/transport"
	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/dates"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// Service is the name used for GitHub errors.
const Service = "github"

// minLimit is the floor the limiters back off to after a throttled response.
const minLimit = rate.Limit(0.2)

// Commit is the result of a latest-commit lookup.
type Commit struct {
	Date        *utc.Time
	ETag        string
	NotModified bool
}

// Client talks to the GitHub REST API.
type Client struct {
	transport *transport.Client
	baseURL   string
	commits   *rate.Limiter
	archive   *rate.Limiter
	remaining atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests, raising the hourly quota.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.transport = transport.New(Service,
				transport.WithAuth(&transport.BearerAuth{}, token),
				transport.WithHeader("Accept", "application/vnd.github+json"))
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithCommitLimit sets the request rate for commit lookups.
func WithCommitLimit(perSecond float64) Option {
	return func(c *Client) {
		c.commits = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithArchiveLimit sets the request rate for archive lookups.
func WithArchiveLimit(perSecond float64) Option {
	return func(c *Client) {
		c.archive = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// New creates a GitHub client. Commit and archive lookups are rate limited
// independently.
func New(opts ...Option) *Client {
	c := &Client{
		transport: transport.New(Service, transport.WithHeader("Accept", "application/vnd.github+json")),
		baseURL:   constants.GitHubAPIURL,
		commits:   rate.NewLimiter(rate.Limit(constants.GitHubRequestsPerSecond), 1),
		archive:   rate.NewLimiter(rate.Limit(constants.ArchiveRequestsPerSecond), 1),
	}
	c.remaining.Store(-1)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimitRemaining returns the last X-RateLimit-Remaining seen, -1 if none.
func (c *Client) RateLimitRemaining() int {
	return int(c.remaining.Load())
}

type commitResponse struct {
	Commit struct {
		Author struct {
			Date string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// LatestCommit returns the author date of the newest commit of repo. A
// non-empty etag is sent as If-None-Match; a 304 answer yields NotModified
// with the same etag and no date.
func (c *Client) LatestCommit(ctx context.Context, repo, etag string) (*Commit, error) {
	owner, name, ok := plugins.SplitRepo(repo)
	if !ok {
		return nil, errors.NewMissingRepoError("", repo)
	}
	if err := c.commits.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL + "/repos/" + owner + "/" + name + "/commits?per_page=1"
	header := http.Header{}
	if etag = plugins.CleanETag(etag); etag != "" {
		header.Set("If-None-Match", `"`+etag+`"`)
	}

	resp, err := c.transport.Get(ctx, url, header)
	if err != nil {
		return nil, err
	}
	c.observe(ctx, resp)

	if resp.StatusCode == http.StatusNotModified {
		transport.Drain(resp)
		return &Commit{ETag: etag, NotModified: true}, nil
	}

	var commits []commitResponse
	if err := transport.DecodeResponse(resp, Service, &commits); err != nil {
		return nil, err
	}

	result := &Commit{ETag: plugins.CleanETag(resp.Header.Get("ETag"))}
	if len(commits) > 0 {
		date, err := dates.Parse(commits[0].Commit.Author.Date)
		if err != nil {
			return nil, err
		}
		result.Date = date
	}
	return result, nil
}

// Archived reports whether GitHub marks repo as archived.
func (c *Client) Archived(ctx context.Context, repo string) (bool, error) {
	owner, name, ok := plugins.SplitRepo(repo)
	if !ok {
		return false, errors.NewMissingRepoError("", repo)
	}
	if err := c.archive.Wait(ctx); err != nil {
		return false, err
	}

	resp, err := c.transport.Get(ctx, c.baseURL+"/repos/"+owner+"/"+name, nil)
	if err != nil {
		return false, err
	}
	c.observe(ctx, resp)

	var meta struct {
		Archived bool `json:"archived"`
	}
	if err := transport.DecodeResponse(resp, Service, &meta); err != nil {
		return false, err
	}
	return meta.Archived, nil
}

// observe records the remaining quota and slows both limiters down when
// GitHub starts throttling.
func (c *Client) observe(ctx context.Context, resp *http.Response) {
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.remaining.Store(n)
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		for _, lim := range []*rate.Limiter{c.commits, c.archive} {
			next := lim.Limit() / 2
			if next < minLimit {
				next = minLimit
			}
			lim.SetLimit(next)
		}
		logging.FromContext(ctx).Warn().
			Int("status", resp.StatusCode).
			Int("remaining", c.RateLimitRemaining()).
			Msg("GitHub is throttling requests, slowing down")
	}
}
