package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/pkg/errors"
)

const listJSON = `[
  {"id":"dataview","name":"Dataview","author":"Michael Brenan","description":"Complex data views.","repo":"blacksmithgu/obsidian-dataview"},
  {"id":"calendar","name":"Calendar","author":"Liam Cain","description":"Calendar view.","repo":"https://github.com/liamcain/obsidian-calendar-plugin"}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/community-plugins.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listJSON))
	})
	mux.HandleFunc("/blacksmithgu/obsidian-dataview/master/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"dataview","version":"0.5.0","isDesktopOnly":false,"fundingUrl":"https://github.com/sponsors/blacksmithgu"}`))
	})
	mux.HandleFunc("/liamcain/obsidian-calendar-plugin/main/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"calendar","version":"1.5.10"}`))
	})
	mux.HandleFunc("/broken/repo/master/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return New(WithListURL(srv.URL+"/community-plugins.json"), WithRawURL(srv.URL+"/"))
}

func TestList(t *testing.T) {
	c := newTestClient(newTestServer(t))
	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "dataview", list[0].ID)
	assert.Equal(t, "Michael Brenan", list[0].Author)
	assert.Equal(t, "liamcain/obsidian-calendar-plugin", list[1].Repo)
	assert.Nil(t, list[0].IsDesktopOnly)
}

func TestListServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(WithListURL(srv.URL)).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}

func TestManifestMaster(t *testing.T) {
	c := newTestClient(newTestServer(t))
	m, err := c.Manifest(context.Background(), "blacksmithgu/obsidian-dataview")
	require.NoError(t, err)
	require.NotNil(t, m.IsDesktopOnly)
	assert.False(t, *m.IsDesktopOnly)
	assert.Equal(t, "https://github.com/sponsors/blacksmithgu", m.FirstFundingURL())
}

func TestManifestFallsBackToMain(t *testing.T) {
	c := newTestClient(newTestServer(t))
	m, err := c.Manifest(context.Background(), "https://github.com/liamcain/obsidian-calendar-plugin")
	require.NoError(t, err)
	assert.Equal(t, "1.5.10", m.Version)
	assert.Nil(t, m.IsDesktopOnly)
}

func TestManifestMissingEverywhere(t *testing.T) {
	c := newTestClient(newTestServer(t))
	_, err := c.Manifest(context.Background(), "nobody/nothing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestManifestServerErrorDoesNotFallBack(t *testing.T) {
	c := newTestClient(newTestServer(t))
	_, err := c.Manifest(context.Background(), "broken/repo")
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
	assert.False(t, errors.IsNotFound(err))
}

func TestManifestMissingRepo(t *testing.T) {
	c := newTestClient(newTestServer(t))
	_, err := c.Manifest(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsMissingRepo(err))
}
