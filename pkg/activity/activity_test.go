package activity

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"

	"github.com/pluginsync/pluginsync/pkg/plugins"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

func daysAgo(n int) *utc.Time {
	t := utc.New(now.Add(-time.Duration(n) * 24 * time.Hour))
	return &t
}

func TestClassify(t *testing.T) {
	c := New(WithClock(fixedClock))

	tests := []struct {
		name string
		date *utc.Time
		want plugins.State
	}{
		{"absent", nil, plugins.StateStale},
		{"same day", daysAgo(0), plugins.StateActive},
		{"364 days", daysAgo(364), plugins.StateActive},
		{"365 days", daysAgo(365), plugins.StateStale},
		{"366 days", daysAgo(366), plugins.StateStale},
		{"future", daysAgo(-3), plugins.StateActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.date))
		})
	}
}

func TestClassifyZeroDate(t *testing.T) {
	c := New(WithClock(fixedClock))
	zero := utc.Time{}
	assert.Equal(t, plugins.StateStale, c.Classify(&zero))
}

func TestClassifyPartialDay(t *testing.T) {
	c := New(WithClock(fixedClock))
	// 364 days and 23 hours floors to 364
	d := utc.New(now.Add(-(364*24 + 23) * time.Hour))
	assert.Equal(t, plugins.StateActive, c.Classify(&d))
}

func TestWithWindow(t *testing.T) {
	c := New(WithClock(fixedClock), WithWindow(30))
	assert.Equal(t, plugins.StateActive, c.Classify(daysAgo(29)))
	assert.Equal(t, plugins.StateStale, c.Classify(daysAgo(30)))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		stored, computed, want plugins.State
	}{
		{plugins.StateActive, plugins.StateStale, plugins.StateStale},
		{plugins.StateStale, plugins.StateActive, plugins.StateActive},
		{"", plugins.StateActive, plugins.StateActive},
		{plugins.StateMaintenance, plugins.StateActive, plugins.StateMaintenance},
		{plugins.StateMaintenance, plugins.StateStale, plugins.StateMaintenance},
		{plugins.StateArchived, plugins.StateActive, plugins.StateArchived},
		{plugins.StateArchived, plugins.StateStale, plugins.StateArchived},
	}
	for _, tt := range tests {
		t.Run(string(tt.stored)+"->"+string(tt.computed), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.stored, tt.computed))
		})
	}
}

func TestAgeDays(t *testing.T) {
	assert.Equal(t, 0, AgeDays(now, now))
	assert.Equal(t, 1, AgeDays(now, now.Add(-25*time.Hour)))
	assert.Equal(t, 0, AgeDays(now, now.Add(time.Hour)))
}
