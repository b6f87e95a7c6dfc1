// Package categories suggests categories for a plugin from the keyword table
// and computes the link changes needed to bring stored suggestions up to date.
package categories

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// ignoredWord is removed from all text before tokenizing; nearly every plugin
// mentions it and it carries no category signal.
const ignoredWord = "obsidian"

// Matcher matches plugin text against a keyword table. Matching is
// exact-token: a keyword matches when its tokens appear contiguously in the
// name tokens or in the description tokens.
type Matcher struct {
	rules []rule
	lower cases.Caser
}

type rule struct {
	tokens     []string
	categories []plugins.CategoryRef
}

// NewMatcher compiles the keyword table. Keywords that normalize to nothing
// are dropped.
func NewMatcher(keywords []plugins.Keyword) *Matcher {
	m := &Matcher{lower: cases.Lower(language.Und)}
	for _, kw := range keywords {
		tokens := m.tokenize(kw.Keyword)
		if len(tokens) == 0 || len(kw.Categories) == 0 {
			continue
		}
		m.rules = append(m.rules, rule{tokens: tokens, categories: kw.Categories})
	}
	return m
}

// Len returns the number of usable keyword rules.
func (m *Matcher) Len() int {
	return len(m.rules)
}

// Match returns the categories suggested for the plugin, deduplicated by row
// id and sorted by row id.
func (m *Matcher) Match(name, description string) []plugins.CategoryRef {
	nameTokens := m.tokenize(name)
	descTokens := m.tokenize(description)

	var matched []plugins.CategoryRef
	for _, r := range m.rules {
		if containsRun(nameTokens, r.tokens) || containsRun(descTokens, r.tokens) {
			matched = append(matched, r.categories...)
		}
	}

	result := Dedupe(matched)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RowID < result[j].RowID
	})
	return result
}

func (m *Matcher) tokenize(text string) []string {
	text = m.lower.String(text)
	text = strings.ReplaceAll(text, ignoredWord, "")
	text = strings.ReplaceAll(text, "-", " ")
	return strings.Fields(text)
}

// containsRun reports whether needle occurs as a contiguous run in haystack.
func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}
