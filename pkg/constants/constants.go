// Package constants provides shared constants used throughout pluginsync:
// timeouts, freshness windows, limits and file permissions.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout bounds every call to the registry, GitHub or the store API
	DefaultHTTPTimeout = 30 * time.Second

	// SyncTimeout is the default timeout for a whole reconciliation run
	SyncTimeout = 2 * time.Hour

	// ShutdownTimeout is how long shutdown hooks get after a failed command
	ShutdownTimeout = 5 * time.Second
)

// Freshness constants
const (
	// CacheTTL is how long the local plugins.json cache stays fresh
	CacheTTL = 24 * time.Hour

	// ActivityWindowDays is the age in days below which a plugin counts as ACTIVE
	ActivityWindowDays = 365
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants
const (
	// DevPluginLimit caps the upstream list in dev mode
	DevPluginLimit = 5

	// MaxQueryRows is the row limit used when reading a whole store table
	MaxQueryRows = 10000

	// GitHubRequestsPerSecond paces commit lookups
	GitHubRequestsPerSecond = 10

	// ArchiveRequestsPerSecond paces repository archive lookups separately
	ArchiveRequestsPerSecond = 2
)

// Upstream endpoints
const (
	// CommunityPluginsURL lists every plugin published in the community registry
	CommunityPluginsURL = "https://raw.githubusercontent.com/obsidianmd/obsidian-releases/master/community-plugins.json"

	// RawContentURL serves manifest files from plugin repositories
	RawContentURL = "https://raw.githubusercontent.com"

	// GitHubAPIURL is the GitHub REST API root
	GitHubAPIURL = "https://api.github.com"

	// GitHubURL prefixes repository references stored as links
	GitHubURL = "https://github.com/"

	// SeaTableServerURL is the default SeaTable cloud server
	SeaTableServerURL = "https://cloud.seatable.io"
)

// Store table names
const (
	PluginsTable    = "Plugins"
	CategoriesTable = "Categories"
	KeywordsTable   = "Keywords to Category"
)
