package sync

import (
	"fmt"
	"time"

	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

// Result represents the complete result of a sync operation.
type Result struct {
	// Upstream
	UpstreamCount int  // Plugins in the registry (before any limit)
	Processed     int  // Plugins handed to the reconciler
	CacheHit      bool // Registry list served from the local cache

	// Enrichment
	Enriched       int // Plugins whose manifest and commit lookups succeeded
	EnrichFailures int // Plugins reconciled with partial enrichment
	NotModified    int // Commit lookups answered 304 from the stored ETag

	// Store
	Rows int // Rows in the store snapshot

	// GitHub quota left after the run, -1 when unknown
	RateLimitRemaining int

	Reconcile *reconciler.Result
	DryRun    bool
	Duration  time.Duration
}

// HasChanges returns true if the sync result contains any changes.
func (sr *Result) HasChanges() bool {
	return sr.Reconcile != nil && sr.Reconcile.HasChanges()
}

// Summary returns a human-readable summary of the sync result.
func (sr *Result) Summary() string {
	if sr.Reconcile == nil {
		return "Sync did not run"
	}
	summary := sr.Reconcile.Summary()
	summary += fmt.Sprintf(" (%d/%d plugins, %d rows", sr.Processed, sr.UpstreamCount, sr.Rows)
	if sr.RateLimitRemaining >= 0 {
		summary += fmt.Sprintf(", %d GitHub requests left", sr.RateLimitRemaining)
	}
	return summary + ")"
}
