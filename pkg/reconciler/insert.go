package reconciler

import (
	"github.com/pluginsync/pluginsync/internal/utils/ptr"
	"github.com/pluginsync/pluginsync/pkg/activity"
	"github.com/pluginsync/pluginsync/pkg/dates"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// BuildRecord maps an upstream plugin to a new store row. Categories are left
// empty; the engine fills them from the keyword matcher.
func BuildRecord(p plugins.Plugin, classifier *activity.Classifier) (plugins.Record, error) {
	if p.ID == "" {
		return plugins.Record{}, errors.NewValidationError("id", p.ID, "plugin id is required")
	}
	if classifier == nil {
		classifier = activity.New()
	}

	date, err := dates.Normalize(p.LastCommitDate)
	if err != nil {
		return plugins.Record{}, err
	}

	return plugins.Record{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		GithubLink:      p.RepoURL(),
		Author:          p.Author,
		FundingURL:      p.FundingURL,
		MobileFriendly:  ptr.Bool(!p.DesktopOnly()),
		LastCommitDate:  date,
		ETag:            plugins.CleanETag(p.ETag),
		Status:          classifier.Classify(p.LastCommitDate),
		Error:           false,
		PluginAvailable: true,
	}, nil
}
