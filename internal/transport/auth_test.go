package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/pkg/errors"
)

func TestAuthenticators(t *testing.T) {
	tests := []struct {
		name   string
		auth   Authenticator
		header string
		want   string
	}{
		{"none", &NoAuth{}, "Authorization", ""},
		{"bearer", &BearerAuth{}, "Authorization", "Bearer key"},
		{"token", &TokenAuth{}, "Authorization", "Token key"},
		{"header", &HeaderAuth{Header: "X-Api-Key"}, "X-Api-Key", "key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &http.Request{Header: make(http.Header)}
			tt.auth.Apply(req, "key")
			assert.Equal(t, tt.want, req.Header.Get(tt.header))
		})
	}
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, `"abc"`, r.Header.Get("If-None-Match"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	c := New("github",
		WithAuth(&BearerAuth{}, "secret"),
		WithHeader("Accept", "application/vnd.github+json"),
	)
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"If-None-Match": {`"abc"`}})
	require.NoError(t, err)

	var out struct{ Name string }
	require.NoError(t, DecodeResponse(resp, c.Service(), &out))
	assert.Equal(t, "ok", out.Name)
}

func TestDecodeResponseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	c := New("github")
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	err = DecodeResponse(resp, c.Service(), &struct{}{})
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
	assert.True(t, errors.IsRateLimited(err))

	var ne *errors.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "slow down", ne.Message)
	assert.Equal(t, "github", ne.Service)
}

func TestDecodeResponseBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := New("registry")
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	err = DecodeResponse(resp, c.Service(), &struct{}{})
	require.Error(t, err)
	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New("registry").Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}
