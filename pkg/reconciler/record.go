package reconciler

import (
	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/dates"
	"github.com/pluginsync/pluginsync/pkg/differ"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// RecordInput is everything needed to decide which columns of a stored row
// must change.
type RecordInput struct {
	Stored plugins.Record
	Fresh  plugins.Plugin
	// Archived is the result of the archive lookup. It is only consulted
	// when the lookup ran.
	Archived   bool
	Classifier *activity.Classifier
}

// DiffRecord evaluates every field rule and returns the patch for the stored
// row. An empty patch means the row is already up to date. The only error is
// a *errors.FormatError for an unparseable stored commit date.
func DiffRecord(in RecordInput) (*differ.Patch, error) {
	stored, fresh := in.Stored, in.Fresh
	classifier := in.Classifier
	if classifier == nil {
		classifier = activity.New()
	}

	patch := differ.NewPatch(stored.RowID, stored.ID)

	setIfChanged(patch, plugins.FieldAuthor, stored.Author, fresh.Author)
	setIfChanged(patch, plugins.FieldDescription, stored.Description, fresh.Description)
	setIfChanged(patch, plugins.FieldFundingURL, stored.FundingURL, fresh.FundingURL)

	// A row flagged Error has been corrected by hand; its mobile flag is frozen.
	if !stored.Error && stored.DesktopOnly() != fresh.DesktopOnly() {
		patch.Set(plugins.FieldMobileFriendly, ptr.Deref(stored.MobileFriendly, false), !fresh.DesktopOnly())
	}

	storedDate, err := dates.Normalize(stored.LastCommitDate)
	if err != nil {
		return nil, err
	}
	freshDate, err := dates.Normalize(fresh.LastCommitDate)
	if err != nil {
		return nil, err
	}
	if storedDate != freshDate {
		patch.Set(plugins.FieldLastCommitDate, stored.LastCommitDate, nullable(freshDate))
	}

	if etag := plugins.CleanETag(fresh.ETag); etag != "" && etag != plugins.CleanETag(stored.ETag) {
		patch.Set(plugins.FieldETag, stored.ETag, etag)
	}

	status := activity.Resolve(stored.Status, classifier.Classify(fresh.LastCommitDate))
	if in.Archived && stored.Status != plugins.StateArchived {
		status = plugins.StateArchived
	}
	if status != stored.Status {
		patch.Set(plugins.FieldStatus, string(stored.Status), string(status))
	}

	if repo := plugins.RepoFromURL(fresh.Repo); repo != "" && repo != stored.Repo() {
		patch.Set(plugins.FieldGithubLink, stored.GithubLink, plugins.RepoURL(repo))
	}

	return patch, nil
}

func setIfChanged(patch *differ.Patch, field, stored, fresh string) {
	if fresh != "" && fresh != stored {
		patch.Set(field, stored, fresh)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
