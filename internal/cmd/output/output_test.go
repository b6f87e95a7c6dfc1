package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("yaml"))
}

func TestPluginsToTableData(t *testing.T) {
	list := []plugins.Plugin{
		{ID: "a", Name: "Alpha", Repo: "o/a", IsDesktopOnly: ptr.To(false)},
		{ID: "b", Name: "Beta", Repo: "o/b"},
	}
	data := PluginsToTableData(list, false)
	assert.Len(t, data.Headers, 5)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"a", "Alpha", "o/a", "false", "-"}, data.Rows[0])
	assert.Equal(t, "true", data.Rows[1][3])

	wide := PluginsToTableData(list, true)
	assert.Len(t, wide.Headers, 8)
	assert.Len(t, wide.Rows[0], 8)
}

func TestDuplicatesToTableData(t *testing.T) {
	groups := []reconciler.DuplicateGroup{{
		ID:   "a",
		Rows: []plugins.Record{{RowID: "r1", ID: "a"}, {RowID: "r2", ID: "a"}},
	}}
	data := DuplicatesToTableData(groups)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "keep", data.Rows[0][4])
	assert.Equal(t, "remove", data.Rows[1][4])
}

func TestEventsToTableData(t *testing.T) {
	data := EventsToTableData([]differ.Event{{Kind: differ.EventLinkAdd, PluginID: "a", NewValue: "c-tasks"}})
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "Link Add", data.Rows[0][0])
}

func TestWriteTableAndJSON(t *testing.T) {
	result := &sync.Result{UpstreamCount: 3, Processed: 3, RateLimitRemaining: -1}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, result, ResultToTableData(result)))
	assert.Contains(t, buf.String(), "Upstream")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatJSON, result, ResultToTableData(result)))
	assert.Contains(t, buf.String(), `"UpstreamCount": 3`)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, map[string]int{"rows": 2}, Data{}))
	assert.Contains(t, buf.String(), "rows: 2")
}
