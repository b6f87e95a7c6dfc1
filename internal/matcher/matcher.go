// Package matcher selects plugins by id with glob or regex patterns.
package matcher

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/plugins"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	default:
		return "unknown"
	}
}

// Matcher matches plugin ids, case-insensitively.
type Matcher struct {
	pattern     string
	patternType PatternType
	glob        string
	compiled    *regexp.Regexp
}

// New compiles pattern, detecting whether it is a glob or a regex.
func New(pattern string) (*Matcher, error) {
	m := &Matcher{pattern: pattern, patternType: detectPatternType(pattern)}

	switch m.patternType {
	case Regex:
		p := pattern
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		compiled, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.NewValidationError("filter", pattern, "invalid regex pattern: "+err.Error())
		}
		m.compiled = compiled
	default:
		m.glob = strings.ToLower(pattern)
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return nil, errors.NewValidationError("filter", pattern, "invalid glob pattern: "+err.Error())
		}
	}
	return m, nil
}

// Match checks if id matches the pattern.
func (m *Matcher) Match(id string) bool {
	if m.patternType == Regex {
		return m.compiled.MatchString(id)
	}
	ok, _ := filepath.Match(m.glob, strings.ToLower(id))
	return ok
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the detected pattern type.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// detectPatternType treats patterns with regex metacharacters not used in
// globs as regexes and everything else as globs.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\D", "\\W", "\\S",
		"(?:", "(?i)", "{", "}", "+", "|", "(", ")",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// Filter keeps the plugins whose id matches any of patterns, preserving
// order. No patterns keeps everything.
func Filter(list []plugins.Plugin, patterns ...string) ([]plugins.Plugin, error) {
	if len(patterns) == 0 {
		return list, nil
	}
	matchers := make([]*Matcher, 0, len(patterns))
	for _, p := range patterns {
		m, err := New(p)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	out := make([]plugins.Plugin, 0, len(list))
	for _, p := range list {
		for _, m := range matchers {
			if m.Match(p.ID) {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}
