package seatable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

var _ reconciler.Store = (*Store)(nil)

const (
	testAPIToken    = "api-token"
	testAccessToken = "access-token"
	testBase        = "base-uuid"
)

// fakeBase serves the subset of the SeaTable API the store uses.
type fakeBase struct {
	t        *testing.T
	mu       sync.Mutex
	authHits int
	rows     []map[string]any
	keywords []map[string]any
	requests []string
	nextID   int
}

func (f *fakeBase) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.URL.Path == "/api/v2.1/dtable/app-access-token/" {
		f.authHits++
		if r.Header.Get("Authorization") != "Token "+testAPIToken {
			writeError(w, http.StatusForbidden, map[string]any{"detail": "Permission denied"})
			return
		}
		writeJSON(w, map[string]any{
			"app_name":     "pluginsync",
			"access_token": testAccessToken,
			"dtable_uuid":  testBase,
			"dtable_name":  "Plugins",
		})
		return
	}

	prefix := "/api-gateway/api/v2/dtables/" + testBase + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	assert.Equal(f.t, "Bearer "+testAccessToken, r.Header.Get("Authorization"))

	var body map[string]any
	if r.Body != nil && r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch strings.TrimPrefix(r.URL.Path, prefix) {
	case "sql/":
		assert.Equal(f.t, true, body["convert_keys"])
		sql, _ := body["sql"].(string)
		switch {
		case strings.Contains(sql, "`Plugins`"):
			writeJSON(w, map[string]any{"results": f.rows, "success": true})
		case strings.Contains(sql, "`Keywords to Category`"):
			writeJSON(w, map[string]any{"results": f.keywords, "success": true})
		default:
			writeError(w, http.StatusBadRequest, map[string]any{"error_msg": "unknown table"})
		}
	case "metadata/":
		writeJSON(w, map[string]any{"metadata": map[string]any{"tables": []any{
			map[string]any{"_id": "0000", "name": "Plugins", "columns": []any{
				map[string]any{"key": "0000", "name": "Name", "type": "text"},
				map[string]any{"key": "a1b2", "name": "Auto-Suggested Categories", "type": "link",
					"data": map[string]any{"link_id": "lnk1", "table_id": "0000", "other_table_id": "c0c0"}},
			}},
		}}})
	case "rows/":
		switch r.Method {
		case http.MethodPost:
			rows := body["rows"].([]any)
			row := rows[0].(map[string]any)
			f.nextID++
			id := fmt.Sprintf("row%d", f.nextID)
			row["_id"] = id
			f.rows = append(f.rows, row)
			writeJSON(w, map[string]any{"inserted_row_count": 1, "row_ids": []any{map[string]any{"_id": id}}})
		case http.MethodPut:
			update := body["updates"].([]any)[0].(map[string]any)
			for _, row := range f.rows {
				if row["_id"] == update["row_id"] {
					for k, v := range update["row"].(map[string]any) {
						row[k] = v
					}
					writeJSON(w, map[string]any{"success": true})
					return
				}
			}
			writeError(w, http.StatusNotFound, map[string]any{"error_msg": "row not found"})
		case http.MethodDelete:
			ids := body["row_ids"].([]any)
			kept := f.rows[:0]
			for _, row := range f.rows {
				if row["_id"] != ids[0] {
					kept = append(kept, row)
				}
			}
			f.rows = kept
			writeJSON(w, map[string]any{"deleted_rows": 1})
		}
	case "links/":
		assert.Equal(f.t, "lnk1", body["link_id"])
		assert.Equal(f.t, "Plugins", body["table_name"])
		assert.Equal(f.t, "Categories", body["other_table_name"])
		for rowID, others := range body["other_rows_ids_map"].(map[string]any) {
			cat := others.([]any)[0].(string)
			for _, row := range f.rows {
				if row["_id"] != rowID {
					continue
				}
				links, _ := row[plugins.FieldCategories].([]any)
				if r.Method == http.MethodPost {
					links = append(links, map[string]any{"row_id": cat, "display_value": "Cat " + cat})
				} else {
					kept := links[:0]
					for _, l := range links {
						if l.(map[string]any)["row_id"] != cat {
							kept = append(kept, l)
						}
					}
					links = kept
				}
				row[plugins.FieldCategories] = links
			}
		}
		writeJSON(w, map[string]any{"success": true})
	default:
		http.NotFound(w, r)
	}
}

func writeError(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestStore(t *testing.T, token string) (*Store, *fakeBase) {
	t.Helper()
	fake := &fakeBase{t: t}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	s, err := Open(token, WithServerURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return s, fake
}

func TestOpenRequiresToken(t *testing.T) {
	_, err := Open("")
	var cfgErr *errors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAuthIsCached(t *testing.T) {
	s, fake := newTestStore(t, testAPIToken)
	ctx := context.Background()
	_, err := s.Rows(ctx)
	require.NoError(t, err)
	_, err = s.Keywords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.authHits)
}

func TestAuthRejected(t *testing.T) {
	s, _ := newTestStore(t, "wrong")
	_, err := s.Rows(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsStore(err))
	assert.True(t, errors.IsNetwork(err))
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestRowsDecode(t *testing.T) {
	s, fake := newTestStore(t, testAPIToken)
	fake.rows = []map[string]any{{
		"_id":              "r1",
		"ID":               "calendar",
		"Name":             "Calendar",
		"Github Link":      "https://github.com/o/calendar",
		"Mobile friendly":  true,
		"Last Commit Date": "2024-01-02",
		"Status":           "ACTIVE",
		"Auto-Suggested Categories": []any{
			map[string]any{"row_id": "c1", "display_value": "Time"},
		},
	}}

	rows, err := s.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0].RowID)
	assert.Equal(t, "o/calendar", rows[0].Repo())
	assert.Equal(t, plugins.StateActive, rows[0].Status)
	assert.False(t, rows[0].DesktopOnly())
	assert.Equal(t, []plugins.CategoryRef{{RowID: "c1", DisplayValue: "Time"}}, rows[0].Categories)
}

func TestKeywordsDecode(t *testing.T) {
	s, fake := newTestStore(t, testAPIToken)
	fake.keywords = []map[string]any{{
		"_id":             "k1",
		"Keyword":         "todo",
		"Category Record": []any{map[string]any{"row_id": "c1", "display_value": "Tasks"}},
	}}
	kws, err := s.Keywords(context.Background())
	require.NoError(t, err)
	require.Len(t, kws, 1)
	assert.Equal(t, "todo", kws[0].Keyword)
	assert.Equal(t, "c1", kws[0].Categories[0].RowID)
}

func TestAppendUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t, testAPIToken)

	rowID, err := s.Append(ctx, plugins.Record{ID: "a", Name: "A", Status: plugins.StateStale})
	require.NoError(t, err)
	assert.Equal(t, "row1", rowID)
	assert.Equal(t, "STALE", fake.rows[0]["Status"])
	assert.NotContains(t, fake.rows[0], plugins.FieldCategories)

	require.NoError(t, s.Update(ctx, rowID, map[string]any{plugins.FieldAuthor: "x"}))
	assert.Equal(t, "x", fake.rows[0]["Author"])

	err = s.Update(ctx, "nope", map[string]any{plugins.FieldAuthor: "x"})
	assert.True(t, errors.IsStore(err))
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "row not found")

	err = s.Update(ctx, rowID, map[string]any{"Bogus": 1})
	assert.True(t, errors.IsValidationError(err))

	require.NoError(t, s.Delete(ctx, rowID))
	assert.Empty(t, fake.rows)
}

func TestLinks(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t, testAPIToken)
	rowID, err := s.Append(ctx, plugins.Record{ID: "a"})
	require.NoError(t, err)

	require.NoError(t, s.AddLink(ctx, rowID, "c1"))
	require.NoError(t, s.AddLink(ctx, rowID, "c2"))
	require.NoError(t, s.RemoveLink(ctx, rowID, "c1"))

	rows, err := s.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []plugins.CategoryRef{{RowID: "c2", DisplayValue: "Cat c2"}}, rows[0].Categories)

	metadataCalls := 0
	for _, req := range fake.requests {
		if strings.HasSuffix(req, "/metadata/") {
			metadataCalls++
		}
	}
	assert.Equal(t, 1, metadataCalls)
}

func TestLinkIDMissingColumn(t *testing.T) {
	s, _ := newTestStore(t, testAPIToken)
	_, err := s.Client().LinkID(context.Background(), "Plugins", "Nope")
	assert.True(t, errors.IsNotFound(err))
	_, err = s.Client().LinkID(context.Background(), "Plugins", "Name")
	assert.True(t, errors.IsValidationError(err))
}
