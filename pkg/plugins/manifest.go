package plugins

import (
	"encoding/json"
	"sort"
	"strings"
)

// Manifest is the manifest.json published at the root of a plugin repository.
type Manifest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Version       string          `json:"version"`
	MinAppVersion string          `json:"minAppVersion"`
	Description   string          `json:"description"`
	Author        string          `json:"author"`
	AuthorURL     string          `json:"authorUrl"`
	IsDesktopOnly *bool           `json:"isDesktopOnly"`
	FundingURL    json.RawMessage `json:"fundingUrl,omitempty"`
}

// FirstFundingURL returns a single funding URL. fundingUrl may be a string,
// an object of label to URL, or a list of strings or {"url": ...} objects.
// Objects yield the value of their lexically first key.
func (m Manifest) FirstFundingURL() string {
	if len(m.FundingURL) == 0 {
		return ""
	}
	var raw any
	if err := json.Unmarshal(m.FundingURL, &raw); err != nil {
		return ""
	}
	return firstURL(raw)
}

func firstURL(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []any:
		for _, item := range val {
			if u := firstURL(item); u != "" {
				return u
			}
		}
	case map[string]any:
		if u, ok := val["url"].(string); ok {
			return strings.TrimSpace(u)
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := val[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
