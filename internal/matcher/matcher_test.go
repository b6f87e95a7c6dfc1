package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

func TestDetectPatternType(t *testing.T) {
	tests := []struct {
		pattern string
		want    PatternType
	}{
		{"dataview", Glob},
		{"obsidian-*", Glob},
		{"calendar-?", Glob},
		{"^obsidian-.*$", Regex},
		{"(tasks|kanban)", Regex},
		{"git\\w+", Regex},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, detectPatternType(tt.pattern))
		})
	}
}

func TestMatch(t *testing.T) {
	m, err := New("Obsidian-*")
	require.NoError(t, err)
	assert.Equal(t, Glob, m.Type())
	assert.True(t, m.Match("obsidian-git"))
	assert.False(t, m.Match("dataview"))

	m, err = New("^(tasks|kanban)$")
	require.NoError(t, err)
	assert.Equal(t, Regex, m.Type())
	assert.True(t, m.Match("Tasks"))
	assert.False(t, m.Match("tasks-extra"))
}

func TestNewInvalid(t *testing.T) {
	_, err := New("(unclosed")
	assert.True(t, errors.IsValidationError(err))

	_, err = New("[a-")
	assert.True(t, errors.IsValidationError(err))
}

func TestFilter(t *testing.T) {
	list := []plugins.Plugin{{ID: "obsidian-git"}, {ID: "dataview"}, {ID: "obsidian-tasks"}, {ID: "calendar"}}

	got, err := Filter(list)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = Filter(list, "obsidian-*", "calendar")
	require.NoError(t, err)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"obsidian-git", "obsidian-tasks", "calendar"}, ids)

	_, err = Filter(list, "(bad")
	assert.Error(t, err)
}
