package reconciler

import "github.com/pluginsync/pluginsync/pkg/plugins"

// DuplicateGroup is a set of rows sharing one plugin id, in snapshot order.
type DuplicateGroup struct {
	ID   string
	Rows []plugins.Record
}

// Keep returns the row that survives duplicate removal.
func (g DuplicateGroup) Keep() plugins.Record {
	return g.Rows[0]
}

// Surplus returns the rows removed by duplicate removal.
func (g DuplicateGroup) Surplus() []plugins.Record {
	return g.Rows[1:]
}

// Orphans returns the rows whose plugin id is absent from upstream. Callers
// must only act on the result when upstream is the complete registry.
func Orphans(rows []plugins.Record, upstream map[string]struct{}) []plugins.Record {
	var orphans []plugins.Record
	for _, row := range rows {
		if _, ok := upstream[row.ID]; !ok {
			orphans = append(orphans, row)
		}
	}
	return orphans
}

// DuplicateGroups returns every id that appears on more than one row, in
// order of first appearance.
func DuplicateGroups(rows []plugins.Record) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			index[row.ID] = len(groups)
			groups = append(groups, DuplicateGroup{ID: row.ID, Rows: []plugins.Record{row}})
			continue
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	dups := groups[:0]
	for _, g := range groups {
		if len(g.Rows) > 1 {
			dups = append(dups, g)
		}
	}
	return dups
}

// Duplicates returns the rows to delete so that each id keeps exactly one
// row: count-1 rows per group, the first row of each group is kept.
func Duplicates(rows []plugins.Record) []plugins.Record {
	var surplus []plugins.Record
	for _, g := range DuplicateGroups(rows) {
		surplus = append(surplus, g.Surplus()...)
	}
	return surplus
}
