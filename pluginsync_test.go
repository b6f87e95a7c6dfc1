package pluginsync_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync"
	"github.com/pluginsync/pluginsync/internal/sources/cache"
	"github.com/pluginsync/pluginsync/internal/sources/github"
	"github.com/pluginsync/pluginsync/internal/sources/registry"
	"github.com/pluginsync/pluginsync/internal/store/memory"
	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/logging"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const registryList = `[
	{"id": "alpha", "name": "Alpha", "description": "Manage your tasks", "repo": "o/alpha", "author": "o"},
	{"id": "beta", "name": "Beta", "description": "Beta plugin", "repo": "o/beta", "author": "o"},
	{"id": "gamma", "name": "Gamma", "description": "No repository", "repo": "", "author": "g"}
]`

// upstream fakes the registry, raw manifests and the GitHub API.
type upstream struct {
	manifestHits atomic.Int32
	archived     map[string]bool
}

func (u *upstream) handler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/community-plugins.json":
		_, _ = w.Write([]byte(registryList))

	case strings.HasPrefix(path, "/raw/"):
		u.manifestHits.Add(1)
		switch path {
		case "/raw/o/alpha/main/manifest.json":
			_, _ = w.Write([]byte(`{"id":"alpha","name":"Alpha","version":"1.0.0","isDesktopOnly":false,"fundingUrl":{"Buy me a coffee":"https://fund.example/alpha"}}`))
		case "/raw/o/beta/master/manifest.json":
			_, _ = w.Write([]byte(`{"id":"beta","name":"Beta","version":"0.1.0"}`))
		default:
			http.NotFound(w, r)
		}

	case path == "/api/repos/o/alpha/commits":
		w.Header().Set("ETag", `W/"e1"`)
		w.Header().Set("X-RateLimit-Remaining", "4990")
		_, _ = w.Write([]byte(`[{"commit":{"author":{"date":"2025-06-10T08:00:00Z"}}}]`))

	case path == "/api/repos/o/beta/commits":
		if r.Header.Get("If-None-Match") == `"e2"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"e2"`)
		_, _ = w.Write([]byte(`[{"commit":{"author":{"date":"2020-01-01T00:00:00Z"}}}]`))

	case strings.HasPrefix(path, "/api/repos/"):
		repo := strings.TrimPrefix(path, "/api/repos/")
		_, _ = fmt.Fprintf(w, `{"full_name":%q,"archived":%t}`, repo, u.archived[repo])

	default:
		http.NotFound(w, r)
	}
}

type fixture struct {
	store    *memory.Store
	upstream *upstream
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), upstream: &upstream{archived: map[string]bool{}}}
	f.server = httptest.NewServer(http.HandlerFunc(f.upstream.handler))
	t.Cleanup(f.server.Close)

	f.store.SetKeywords([]plugins.Keyword{
		{Keyword: "tasks", Categories: []plugins.CategoryRef{{RowID: "c-tasks", DisplayValue: "Tasks"}}},
	})
	f.store.Seed(
		plugins.Record{
			RowID:           "r-beta",
			ID:              "beta",
			Name:            "Beta",
			Description:     "Beta plugin",
			GithubLink:      "https://github.com/o/beta",
			Author:          "o",
			MobileFriendly:  ptr.Bool(false),
			LastCommitDate:  "2020-01-01",
			ETag:            "e2",
			Status:          plugins.StateStale,
			PluginAvailable: true,
		},
		plugins.Record{RowID: "r-old", ID: "old", Name: "Old"},
	)
	return f
}

func (f *fixture) client(t *testing.T, opts ...pluginsync.Option) *pluginsync.Client {
	t.Helper()
	base := []pluginsync.Option{
		pluginsync.WithRegistry(registry.New(
			registry.WithListURL(f.server.URL+"/community-plugins.json"),
			registry.WithRawURL(f.server.URL+"/raw"),
		)),
		pluginsync.WithGitHub(github.New(
			github.WithBaseURL(f.server.URL+"/api"),
			github.WithCommitLimit(1000),
			github.WithArchiveLimit(1000),
		)),
		pluginsync.WithClassifier(activity.New(activity.WithClock(func() time.Time { return testNow }))),
	}
	c, err := pluginsync.New(f.store, append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func rowsByID(t *testing.T, s *memory.Store) map[string]plugins.Record {
	t.Helper()
	rows, err := s.Rows(context.Background())
	require.NoError(t, err)
	out := make(map[string]plugins.Record, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out
}

func TestNewRequiresStore(t *testing.T) {
	_, err := pluginsync.New(nil)
	require.Error(t, err)
}

func TestSync(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result.Reconcile)

	assert.Equal(t, 3, result.UpstreamCount)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.Enriched)
	assert.Equal(t, 1, result.EnrichFailures)
	assert.Equal(t, 1, result.NotModified)
	assert.Equal(t, 4990, result.RateLimitRemaining)
	assert.False(t, result.CacheHit)

	stats := result.Reconcile.Metadata.Stats
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 0, stats.Failed)

	rows := rowsByID(t, f.store)
	require.Len(t, rows, 3)
	assert.NotContains(t, rows, "old")

	alpha := rows["alpha"]
	assert.Equal(t, "https://github.com/o/alpha", alpha.GithubLink)
	assert.Equal(t, "https://fund.example/alpha", alpha.FundingURL)
	assert.False(t, alpha.DesktopOnly())
	assert.Equal(t, "2025-06-10", alpha.LastCommitDate)
	assert.Equal(t, "e1", alpha.ETag)
	assert.Equal(t, plugins.StateActive, alpha.Status)
	assert.Equal(t, []plugins.CategoryRef{{RowID: "c-tasks", DisplayValue: "Tasks"}}, alpha.Categories)

	gamma := rows["gamma"]
	assert.True(t, gamma.DesktopOnly())
	assert.Equal(t, plugins.StateStale, gamma.Status)

	beta := rows["beta"]
	assert.Equal(t, "2020-01-01", beta.LastCommitDate)
	assert.Equal(t, "e2", beta.ETag)
}

func TestSyncRefetchesCommitWithoutStoredDate(t *testing.T) {
	for name, stored := range map[string]string{"empty": "", "unparseable": "someday"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			f.store = memory.New()
			f.store.Seed(plugins.Record{
				RowID:          "r-beta",
				ID:             "beta",
				Name:           "Beta",
				GithubLink:     "https://github.com/o/beta",
				LastCommitDate: stored,
				ETag:           "e2",
			})
			c := f.client(t)

			result, err := c.Sync(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, result.NotModified)

			beta := rowsByID(t, f.store)["beta"]
			assert.Equal(t, "2020-01-01", beta.LastCommitDate)
			assert.Equal(t, "e2", beta.ETag)
		})
	}
}

func TestSyncLogsRepoDuringEnrichment(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)

	_, err := c.Sync(ctx)
	require.NoError(t, err)

	testLogger.AssertContains(t, "Commit unchanged since last sync")
	testLogger.AssertContains(t, `"plugin_id":"beta"`)
	testLogger.AssertContains(t, `"repo":"o/beta"`)
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	result, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.False(t, result.HasChanges(), result.Reconcile.Changeset.String())
}

func TestSyncDryRun(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	result, err := c.Sync(context.Background(), sync.WithDryRun(true))
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.True(t, result.HasChanges())
	assert.Equal(t, 2, result.Reconcile.Metadata.Stats.Inserted)

	rows := rowsByID(t, f.store)
	assert.Len(t, rows, 2)
	assert.Contains(t, rows, "old")
}

func TestSyncDevRun(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	result, err := c.Sync(context.Background(), sync.WithDev(true), sync.WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.True(t, result.Reconcile.Metadata.OrphansSkipped)

	rows := rowsByID(t, f.store)
	assert.Contains(t, rows, "old")
	assert.Contains(t, rows, pluginsync.TestPlugin.ID)
	assert.Contains(t, rows, "alpha")
	assert.NotContains(t, rows, "gamma")
}

func TestSyncArchive(t *testing.T) {
	f := newFixture(t)
	f.upstream.archived["o/beta"] = true
	c := f.client(t)

	_, err := c.Sync(context.Background(), sync.WithArchive(true))
	require.NoError(t, err)
	assert.Equal(t, plugins.StateArchived, rowsByID(t, f.store)["beta"].Status)
}

func TestSyncHooks(t *testing.T) {
	f := newFixture(t)
	c := f.client(t, pluginsync.WithReporter(reporterFunc(func(differ.Event) {})))

	var inserted, deleted, all []string
	c.OnInsert(func(e differ.Event) { inserted = append(inserted, e.PluginID) })
	c.OnDelete(func(e differ.Event) { deleted = append(deleted, e.PluginID) })
	c.OnEvent(func(e differ.Event) { all = append(all, string(e.Kind)) })

	_, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "gamma"}, inserted)
	assert.Equal(t, []string{"old"}, deleted)
	assert.Contains(t, all, string(differ.EventLinkAdd))
}

func TestSyncUsesFreshCache(t *testing.T) {
	f := newFixture(t)
	file := cache.New(filepath.Join(t.TempDir(), "plugins.json"))
	c := f.client(t, pluginsync.WithCache(file))

	list, result, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.False(t, result.CacheHit)
	hits := f.upstream.manifestHits.Load()
	require.Positive(t, hits)

	result2, err := c.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, result2.CacheHit)
	assert.Equal(t, hits, f.upstream.manifestHits.Load())
	assert.Equal(t, 2, result2.Reconcile.Metadata.Stats.Inserted)

	_, result3, err := c.Fetch(context.Background(), sync.WithForce(true))
	require.NoError(t, err)
	assert.False(t, result3.CacheHit)
	assert.Greater(t, f.upstream.manifestHits.Load(), hits)
}

func TestLimitedFetchDoesNotOverwriteCache(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "plugins.json")
	c := f.client(t, pluginsync.WithCache(cache.New(path)))

	_, _, err := c.Fetch(context.Background(), sync.WithLimit(1))
	require.NoError(t, err)
	cached, err := cache.New(path).Load()
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestDuplicates(t *testing.T) {
	f := newFixture(t)
	f.store.Seed(plugins.Record{RowID: "r-beta-2", ID: "beta"})
	c := f.client(t)

	groups, err := c.Duplicates(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "beta", groups[0].ID)
	assert.Equal(t, "r-beta", groups[0].Keep().RowID)
	assert.Len(t, rowsByID(t, f.store), 2)
}

func TestSyncCanceled(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Sync(ctx)
	require.Error(t, err)
	assert.Len(t, rowsByID(t, f.store), 2)
}

type reporterFunc func(differ.Event)

func (f reporterFunc) Report(e differ.Event) { f(e) }
