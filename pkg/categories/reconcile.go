package categories

import "github.com/pluginsync/pluginsync/pkg/plugins"

// Delta is the set of link changes for one plugin row.
type Delta struct {
	ToAdd    []plugins.CategoryRef
	ToRemove []plugins.CategoryRef
}

// Empty reports whether no links need to change.
func (d Delta) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// Reconcile compares stored links with freshly matched categories. Stored
// links are deduplicated first so duplicate edges left by earlier runs
// collapse to one.
func Reconcile(stored, fresh []plugins.CategoryRef) Delta {
	stored = Dedupe(stored)
	fresh = Dedupe(fresh)

	storedIDs := ids(stored)
	freshIDs := ids(fresh)

	var d Delta
	for _, ref := range fresh {
		if _, ok := storedIDs[ref.RowID]; !ok {
			d.ToAdd = append(d.ToAdd, ref)
		}
	}
	for _, ref := range stored {
		if _, ok := freshIDs[ref.RowID]; !ok {
			d.ToRemove = append(d.ToRemove, ref)
		}
	}
	return d
}

// Dedupe keeps the first reference seen for each row id, preserving order.
func Dedupe(refs []plugins.CategoryRef) []plugins.CategoryRef {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]plugins.CategoryRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.RowID]; ok {
			continue
		}
		seen[ref.RowID] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// RowIDs returns the row ids of refs in order.
func RowIDs(refs []plugins.CategoryRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.RowID
	}
	return out
}

func ids(refs []plugins.CategoryRef) map[string]struct{} {
	set := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		set[ref.RowID] = struct{}{}
	}
	return set
}
