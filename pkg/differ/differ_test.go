package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchSet(t *testing.T) {
	p := NewPatch("row1", "dataview")
	assert.False(t, p.HasChanges())
	assert.Equal(t, "No changes detected", p.String())

	p.Set("Author", "old", "new")
	p.Set("Status", "ACTIVE", "STALE")
	p.Set("Status", "ACTIVE", "ARCHIVED")
	p.Set("ETAG", nil, "abc")

	require.True(t, p.HasChanges())
	assert.Len(t, p.Changes, 3)
	assert.Equal(t, []string{"Author", "ETAG", "Status"}, p.Fields())

	status, ok := p.Get("Status")
	require.True(t, ok)
	assert.Equal(t, "ACTIVE", status.OldValue)
	assert.Equal(t, "ARCHIVED", status.NewValue)
	assert.Equal(t, ChangeTypeUpdate, status.Type)

	etag, _ := p.Get("ETAG")
	assert.Equal(t, ChangeTypeAdd, etag.Type)

	_, ok = p.Get("Description")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"Author": "new", "Status": "ARCHIVED", "ETAG": "abc"}, p.Values())
	assert.Contains(t, p.String(), "Status: ACTIVE -> ARCHIVED")
}

func TestNilPatch(t *testing.T) {
	var p *Patch
	assert.False(t, p.HasChanges())
	assert.Nil(t, UpdateEvents(p))
}

func TestChangeType(t *testing.T) {
	assert.Equal(t, ChangeTypeAdd, changeType("", "x"))
	assert.Equal(t, ChangeTypeRemove, changeType("x", nil))
	assert.Equal(t, ChangeTypeUpdate, changeType("x", "y"))
	assert.Equal(t, ChangeTypeUpdate, changeType(true, false))
}

func TestFormatValue(t *testing.T) {
	s := "x"
	b := false
	assert.Equal(t, "<empty>", FormatValue(nil))
	assert.Equal(t, "<empty>", FormatValue(""))
	assert.Equal(t, "<empty>", FormatValue((*string)(nil)))
	assert.Equal(t, "x", FormatValue(&s))
	assert.Equal(t, "false", FormatValue(&b))
	assert.Equal(t, "true", FormatValue(true))
}

func TestUpdateEvents(t *testing.T) {
	p := NewPatch("row1", "dataview")
	p.Set("Author", "a", "b")
	p.Set("Mobile friendly", false, true)

	events := UpdateEvents(p)
	require.Len(t, events, 2)
	assert.Equal(t, EventUpdate, events[0].Kind)
	assert.Equal(t, "Author", events[0].Field)
	assert.Equal(t, "row1", events[1].RowID)
	assert.Equal(t, "update dataview: Mobile friendly false -> true", events[1].String())
}

func TestChangeset(t *testing.T) {
	var c Changeset
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "No changes detected", c.String())

	c.Add(
		Event{Kind: EventInsert, PluginID: "a"},
		Event{Kind: EventUpdate, PluginID: "b", Field: "Author"},
		Event{Kind: EventUpdate, PluginID: "b", Field: "Status"},
		Event{Kind: EventDelete, PluginID: "c", RowID: "r3"},
	)
	assert.Equal(t, 2, c.Count(EventUpdate))
	assert.Len(t, c.Filter(EventDelete), 1)
	assert.Equal(t, "1 insert, 2 update, 1 delete", c.String())
	assert.Equal(t, "delete c (r3)", c.Events[3].String())
}
