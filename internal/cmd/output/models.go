package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/plugins"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
	"github.com/pluginsync/pluginsync/pkg/sync"
)

var title = cases.Title(language.English)

// PluginsToTableData converts upstream plugins to table format.
func PluginsToTableData(list []plugins.Plugin, wide bool) Data {
	headers := []string{"ID", "Name", "Repo", "Desktop Only", "Last Commit"}
	if wide {
		headers = append(headers, "Author", "Funding", "Description")
	}

	rows := make([][]string, 0, len(list))
	for _, p := range list {
		commit := "-"
		if p.LastCommitDate != nil {
			commit = p.LastCommitDate.Time.Format("2006-01-02")
		}
		row := []string{p.ID, p.Name, p.Repo, strconv.FormatBool(p.DesktopOnly()), commit}
		if wide {
			row = append(row, p.Author, p.FundingURL, truncate(p.Description, 60))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// DuplicatesToTableData lists every row of each duplicate group, marking the survivor.
func DuplicatesToTableData(groups []reconciler.DuplicateGroup) Data {
	var rows [][]string
	for _, g := range groups {
		for i, r := range g.Rows {
			action := "remove"
			if i == 0 {
				action = "keep"
			}
			rows = append(rows, []string{g.ID, r.RowID, r.Name, string(r.Status), action})
		}
	}
	return Data{
		Headers: []string{"ID", "Row", "Name", "Status", "Action"},
		Rows:    rows,
	}
}

// EventsToTableData converts reconciliation events to table format.
func EventsToTableData(events []differ.Event) Data {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			title.String(strings.ReplaceAll(string(e.Kind), "_", " ")),
			e.PluginID,
			e.Field,
			differ.FormatValue(e.OldValue),
			differ.FormatValue(e.NewValue),
			e.Message,
		})
	}
	return Data{
		Headers: []string{"Event", "Plugin", "Field", "Old", "New", "Message"},
		Rows:    rows,
	}
}

// ResultToTableData renders the counters of a sync run as a key-value table.
func ResultToTableData(r *sync.Result) Data {
	rows := [][]string{
		{"Upstream", strconv.Itoa(r.UpstreamCount)},
		{"Processed", strconv.Itoa(r.Processed)},
		{"Cache Hit", strconv.FormatBool(r.CacheHit)},
		{"Enriched", strconv.Itoa(r.Enriched)},
		{"Enrich Failures", strconv.Itoa(r.EnrichFailures)},
		{"Not Modified", strconv.Itoa(r.NotModified)},
		{"Rows", strconv.Itoa(r.Rows)},
	}
	if rec := r.Reconcile; rec != nil {
		s := rec.Metadata.Stats
		rows = append(rows,
			[]string{"Inserted", strconv.Itoa(s.Inserted)},
			[]string{"Updated", strconv.Itoa(s.Updated)},
			[]string{"Deleted", strconv.Itoa(s.Deleted)},
			[]string{"Duplicates Removed", strconv.Itoa(s.DuplicatesRemoved)},
			[]string{"Links Added", strconv.Itoa(s.LinksAdded)},
			[]string{"Links Removed", strconv.Itoa(s.LinksRemoved)},
			[]string{"Unchanged", strconv.Itoa(s.Unchanged)},
			[]string{"Failed", strconv.Itoa(s.Failed)},
		)
	}
	if r.RateLimitRemaining >= 0 {
		rows = append(rows, []string{"GitHub Requests Left", strconv.Itoa(r.RateLimitRemaining)})
	}
	rows = append(rows,
		[]string{"Dry Run", strconv.FormatBool(r.DryRun)},
		[]string{"Duration", r.Duration.Round(time.Millisecond).String()},
	)
	return Data{
		Headers:         []string{"Metric", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// Write renders data in the given format. Table formats use tableData; the
// others serialize raw.
func Write(w io.Writer, format Format, raw any, tableData Data) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, tableData)
	}
	return NewFormatter(format).Format(w, raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return fmt.Sprintf("%s...", string(r[:n-3]))
}

// SyncReport is the serialized form of a sync run for JSON and YAML output.
type SyncReport struct {
	Upstream           int                         `json:"upstream" yaml:"upstream"`
	Processed          int                         `json:"processed" yaml:"processed"`
	CacheHit           bool                        `json:"cache_hit" yaml:"cache_hit"`
	Enriched           int                         `json:"enriched" yaml:"enriched"`
	EnrichFailures     int                         `json:"enrich_failures" yaml:"enrich_failures"`
	NotModified        int                         `json:"not_modified" yaml:"not_modified"`
	Rows               int                         `json:"rows" yaml:"rows"`
	RateLimitRemaining int                         `json:"rate_limit_remaining" yaml:"rate_limit_remaining"`
	Stats              reconciler.ResultStatistics `json:"stats" yaml:"stats"`
	Events             []string                    `json:"events" yaml:"events"`
	Errors             []string                    `json:"errors,omitempty" yaml:"errors,omitempty"`
	DryRun             bool                        `json:"dry_run" yaml:"dry_run"`
	Duration           string                      `json:"duration" yaml:"duration"`
}

// NewSyncReport flattens a sync result; events and errors become strings.
func NewSyncReport(r *sync.Result) SyncReport {
	report := SyncReport{
		Upstream:           r.UpstreamCount,
		Processed:          r.Processed,
		CacheHit:           r.CacheHit,
		Enriched:           r.Enriched,
		EnrichFailures:     r.EnrichFailures,
		NotModified:        r.NotModified,
		Rows:               r.Rows,
		RateLimitRemaining: r.RateLimitRemaining,
		Events:             []string{},
		DryRun:             r.DryRun,
		Duration:           r.Duration.Round(time.Millisecond).String(),
	}
	if rec := r.Reconcile; rec != nil {
		report.Stats = rec.Metadata.Stats
		for _, e := range rec.Events() {
			report.Events = append(report.Events, e.String())
		}
		for _, err := range rec.Errors {
			report.Errors = append(report.Errors, err.Error())
		}
	}
	return report
}
