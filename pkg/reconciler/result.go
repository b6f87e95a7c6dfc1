package reconciler

import (
	"fmt"
	"time"

	"github.com/pluginsync/pluginsync/pkg/differ"
)

// Result represents the outcome of a reconciliation run.
type Result struct {
	// Changeset holds every event in the order it was reported.
	Changeset *differ.Changeset

	// Metadata
	Metadata ResultMetadata

	// Issues
	Errors   []error
	Warnings []string
}

// ResultMetadata contains metadata about the run.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// DryRun indicates no store writes were made
	DryRun bool

	// OrphansSkipped is true when the upstream list was incomplete
	OrphansSkipped bool

	Stats ResultStatistics
}

// ResultStatistics counts what happened to each plugin and row.
type ResultStatistics struct {
	Processed         int
	Inserted          int
	Updated           int
	Unchanged         int
	Failed            int
	Deleted           int
	DuplicatesRemoved int
	LinksAdded        int
	LinksRemoved      int
}

// IsSuccess returns true if every plugin was processed without error.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// HasChanges returns true if any change was detected.
func (r *Result) HasChanges() bool {
	s := r.Metadata.Stats
	return s.Inserted+s.Updated+s.Deleted+s.DuplicatesRemoved > 0
}

// Events returns the ordered events of the run.
func (r *Result) Events() []differ.Event {
	if r.Changeset == nil {
		return nil
	}
	return r.Changeset.Events
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	counts := fmt.Sprintf("%d processed, %d inserted, %d updated, %d unchanged, %d deleted, %d duplicates removed, %d failed",
		s.Processed, s.Inserted, s.Updated, s.Unchanged, s.Deleted, s.DuplicatesRemoved, s.Failed)

	switch {
	case r.Metadata.DryRun:
		return fmt.Sprintf("Dry run completed. %s", counts)
	case !r.IsSuccess():
		return fmt.Sprintf("Sync completed with %d errors. %s", len(r.Errors), counts)
	case r.HasChanges():
		return fmt.Sprintf("Sync successful. %s", counts)
	default:
		return "Sync completed. No changes detected."
	}
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Changeset: &differ.Changeset{},
		Errors:    []error{},
		Warnings:  []string{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}
