// Package differ describes field-level changes between a stored plugin row
// and its upstream counterpart, and the events emitted while applying them.
package differ

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a field (or link) was set where none existed.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a field value was replaced.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates a field (or link) was cleared.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a single store column.
type FieldChange struct {
	Field    string     // Store column name (e.g., "Last Commit Date")
	OldValue any        // Stored value
	NewValue any        // Value to write
	Type     ChangeType // Type of change
}

// String renders the change as `Field: old -> new`.
func (c FieldChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, FormatValue(c.OldValue), FormatValue(c.NewValue))
}

// Patch collects the changes to write to one stored row.
type Patch struct {
	RowID    string
	PluginID string
	Changes  []FieldChange
}

// NewPatch creates an empty patch for a row.
func NewPatch(rowID, pluginID string) *Patch {
	return &Patch{RowID: rowID, PluginID: pluginID}
}

// Set records a change. Setting the same field twice keeps the first old
// value and the last new value.
func (p *Patch) Set(field string, oldValue, newValue any) {
	for i := range p.Changes {
		if p.Changes[i].Field == field {
			p.Changes[i].NewValue = newValue
			p.Changes[i].Type = changeType(p.Changes[i].OldValue, newValue)
			return
		}
	}
	p.Changes = append(p.Changes, FieldChange{
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		Type:     changeType(oldValue, newValue),
	})
}

// Get returns the pending change for field.
func (p *Patch) Get(field string) (FieldChange, bool) {
	for _, c := range p.Changes {
		if c.Field == field {
			return c, true
		}
	}
	return FieldChange{}, false
}

// HasChanges returns true if the patch writes at least one field.
func (p *Patch) HasChanges() bool {
	return p != nil && len(p.Changes) > 0
}

// Fields returns the changed field names in sorted order.
func (p *Patch) Fields() []string {
	fields := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		fields = append(fields, c.Field)
	}
	sort.Strings(fields)
	return fields
}

// Values returns the column map sent to the store.
func (p *Patch) Values() map[string]any {
	values := make(map[string]any, len(p.Changes))
	for _, c := range p.Changes {
		values[c.Field] = c.NewValue
	}
	return values
}

// String returns a human-readable summary of the patch.
func (p *Patch) String() string {
	if !p.HasChanges() {
		return "No changes detected"
	}
	parts := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("%s (%s): %s", p.PluginID, p.RowID, strings.Join(parts, "; "))
}

// FormatValue renders a value for logs and reports. nil and empty strings
// render as "<empty>" and pointers are dereferenced.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<empty>"
	case string:
		if val == "" {
			return "<empty>"
		}
		return val
	case *string:
		if val == nil {
			return "<empty>"
		}
		return FormatValue(*val)
	case *bool:
		if val == nil {
			return "<empty>"
		}
		return fmt.Sprintf("%t", *val)
	case fmt.Stringer:
		return FormatValue(val.String())
	default:
		return fmt.Sprintf("%v", val)
	}
}

func changeType(oldValue, newValue any) ChangeType {
	switch {
	case isEmpty(oldValue) && !isEmpty(newValue):
		return ChangeTypeAdd
	case !isEmpty(oldValue) && isEmpty(newValue):
		return ChangeTypeRemove
	default:
		return ChangeTypeUpdate
	}
}

func isEmpty(v any) bool {
	return FormatValue(v) == "<empty>"
}
