// Package plugins defines the plugin data model shared by the registry
// sources, the reconciliation engine and the store adapters.
package plugins

import (
	"github.com/agentstation/utc"

	"github.com/pluginsync/pluginsync/internal/utils/ptr"
)

// Plugin is an upstream plugin as listed by the community registry and
// enriched from its manifest and GitHub history.
type Plugin struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Description    string    `json:"description" yaml:"description"`
	Repo           string    `json:"repo,omitempty" yaml:"repo,omitempty"`
	Author         string    `json:"author,omitempty" yaml:"author,omitempty"`
	FundingURL     string    `json:"fundingUrl,omitempty" yaml:"funding_url,omitempty"`
	IsDesktopOnly  *bool     `json:"isDesktopOnly,omitempty" yaml:"is_desktop_only,omitempty"`
	LastCommitDate *utc.Time `json:"last_commit_date,omitempty" yaml:"last_commit_date,omitempty"`
	ETag           string    `json:"etag,omitempty" yaml:"etag,omitempty"`
	Status         State     `json:"status,omitempty" yaml:"status,omitempty"`
}

// DesktopOnly resolves the tri-state flag. Plugins whose manifest never declared
// it predate mobile support and count as desktop-only.
func (p Plugin) DesktopOnly() bool {
	return ptr.Deref(p.IsDesktopOnly, true)
}

// RepoURL returns the full GitHub URL of the plugin repository.
func (p Plugin) RepoURL() string {
	return RepoURL(p.Repo)
}

// IDs returns the business keys of the given plugins as a set.
func IDs(list []Plugin) map[string]struct{} {
	ids := make(map[string]struct{}, len(list))
	for _, p := range list {
		ids[p.ID] = struct{}{}
	}
	return ids
}
