package plugins

import (
	"strings"

	"github.com/pluginsync/pluginsync/pkg/constants"
)

// RepoFromURL converts a stored "Github Link" into the canonical owner/name shape.
// Values already in owner/name form are returned cleaned but otherwise unchanged.
func RepoFromURL(link string) string {
	repo := strings.TrimSpace(link)
	for _, prefix := range []string{constants.GitHubURL, "http://github.com/", "github.com/"} {
		if strings.HasPrefix(strings.ToLower(repo), prefix) {
			repo = repo[len(prefix):]
			break
		}
	}
	repo = strings.TrimSuffix(repo, "/")
	repo = strings.TrimSuffix(repo, ".git")
	return repo
}

// RepoURL builds the stored "Github Link" from an owner/name reference.
func RepoURL(repo string) string {
	repo = RepoFromURL(repo)
	if repo == "" {
		return ""
	}
	return constants.GitHubURL + repo
}

// SplitRepo splits an owner/name reference. ok is false when either part is missing.
func SplitRepo(repo string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(RepoFromURL(repo), "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}

// CleanETag strips the weak validator prefix and surrounding quotes from an entity tag.
func CleanETag(etag string) string {
	etag = strings.TrimSpace(etag)
	etag = strings.TrimPrefix(etag, "W/")
	return strings.Trim(etag, `"`)
}
