package differ

import (
	"fmt"
	"strings"
)

// EventKind classifies a mismatch detected during a sync.
type EventKind string

const (
	// EventInsert is emitted for an upstream plugin with no stored row.
	EventInsert EventKind = "insert"
	// EventUpdate is emitted once per changed field of a stored row.
	EventUpdate EventKind = "update"
	// EventLinkAdd is emitted for each category link created.
	EventLinkAdd EventKind = "link_add"
	// EventLinkRemove is emitted for each category link removed.
	EventLinkRemove EventKind = "link_remove"
	// EventDelete is emitted for a stored row whose plugin left the registry.
	EventDelete EventKind = "delete"
	// EventDuplicate is emitted for each surplus row sharing a plugin id.
	EventDuplicate EventKind = "duplicate"
	// EventError is emitted when a single plugin could not be processed.
	EventError EventKind = "error"
)

// Event is one detected mismatch between the store and upstream, reported
// before it is applied.
type Event struct {
	Kind     EventKind
	PluginID string
	RowID    string
	Field    string
	OldValue any
	NewValue any
	Message  string
}

// String returns a single-line description of the event.
func (e Event) String() string {
	switch e.Kind {
	case EventUpdate:
		return fmt.Sprintf("%s %s: %s %s -> %s", e.Kind, e.PluginID, e.Field, FormatValue(e.OldValue), FormatValue(e.NewValue))
	case EventLinkAdd:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.PluginID, FormatValue(e.NewValue))
	case EventLinkRemove:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.PluginID, FormatValue(e.OldValue))
	case EventError:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.PluginID, e.Message)
	default:
		if e.RowID != "" {
			return fmt.Sprintf("%s %s (%s)", e.Kind, e.PluginID, e.RowID)
		}
		return fmt.Sprintf("%s %s", e.Kind, e.PluginID)
	}
}

// UpdateEvents expands a patch into one update event per changed field.
func UpdateEvents(p *Patch) []Event {
	if !p.HasChanges() {
		return nil
	}
	events := make([]Event, 0, len(p.Changes))
	for _, c := range p.Changes {
		events = append(events, Event{
			Kind:     EventUpdate,
			PluginID: p.PluginID,
			RowID:    p.RowID,
			Field:    c.Field,
			OldValue: c.OldValue,
			NewValue: c.NewValue,
		})
	}
	return events
}

// Changeset is the ordered list of events produced by a run.
type Changeset struct {
	Events []Event
}

// Add appends events to the changeset.
func (c *Changeset) Add(events ...Event) {
	c.Events = append(c.Events, events...)
}

// Count returns the number of events of the given kind.
func (c *Changeset) Count(kind EventKind) int {
	n := 0
	for _, e := range c.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Filter returns the events of the given kind in order.
func (c *Changeset) Filter(kind EventKind) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// IsEmpty returns true if the changeset contains no events.
func (c *Changeset) IsEmpty() bool {
	return len(c.Events) == 0
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}
	var parts []string
	for _, kind := range []EventKind{EventInsert, EventUpdate, EventLinkAdd, EventLinkRemove, EventDelete, EventDuplicate, EventError} {
		if n := c.Count(kind); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, kind))
		}
	}
	return strings.Join(parts, ", ")
}
