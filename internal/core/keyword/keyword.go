// Package keyword classifies titles against configured keyword
// groups. A group matches when all of its required terms appear in
// the title and, if it has normal terms, at least one of them does.
// Exclude terms reject a title globally before any group is tried.
package keyword

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// AllNewsKey labels the synthetic group used when no rules are
// configured, so every title still lands somewhere.
const AllNewsKey = "全部新闻"

// Line prefixes in the rules file.
const (
	requiredPrefix = "+"
	excludePrefix  = "!"
)

// Group is one keyword rule bucket. Key is its display label.
type Group struct {
	Required []string
	Normal   []string
	Key      string
}

// matchesTitle reports whether the lowercased title satisfies the
// group. A group with required terms only is satisfied when all are
// present; normal terms need at least one hit when non-empty.
func (g Group) matchesTitle(titleLower string) bool {
	for _, req := range g.Required {
		if !strings.Contains(titleLower, strings.ToLower(req)) {
			return false
		}
	}

	if len(g.Normal) == 0 {
		return true
	}

	for _, word := range g.Normal {
		if strings.Contains(titleLower, strings.ToLower(word)) {
			return true
		}
	}

	return false
}

// Matcher holds the loaded rule set.
type Matcher struct {
	groups  []Group
	exclude []string
}

// NewMatcher builds a matcher from explicit groups and exclude terms.
func NewMatcher(groups []Group, exclude []string) *Matcher {
	return &Matcher{groups: groups, exclude: exclude}
}

// Load reads the rules file: groups separated by blank lines, one term
// per line, "+" marking required terms and "!" marking global exclude
// terms. A missing file degrades to an empty rule set (match all)
// instead of failing the run.
func Load(path string, logger *zerolog.Logger) (*Matcher, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("path", path).Msg("keyword rules file missing, matching all titles")

			return &Matcher{}, nil
		}

		return nil, err
	}

	groups, exclude := parseRules(string(content))
	logger.Info().Int("groups", len(groups)).Int("exclude_terms", len(exclude)).Msg("keyword rules loaded")

	return &Matcher{groups: groups, exclude: exclude}, nil
}

// parseRules splits the file into blank-line separated blocks and
// classifies each line by prefix. Blocks with neither required nor
// normal terms are dropped.
func parseRules(content string) ([]Group, []string) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	var (
		groups  []Group
		exclude []string
	)

	for _, block := range strings.Split(normalized, "\n\n") {
		var group Group

		for _, line := range strings.Split(block, "\n") {
			word := strings.TrimSpace(line)
			if word == "" {
				continue
			}

			switch {
			case strings.HasPrefix(word, excludePrefix):
				exclude = append(exclude, word[len(excludePrefix):])
			case strings.HasPrefix(word, requiredPrefix):
				group.Required = append(group.Required, word[len(requiredPrefix):])
			default:
				group.Normal = append(group.Normal, word)
			}
		}

		if len(group.Required) == 0 && len(group.Normal) == 0 {
			continue
		}

		if len(group.Normal) > 0 {
			group.Key = strings.Join(group.Normal, " ")
		} else {
			group.Key = strings.Join(group.Required, " ")
		}

		groups = append(groups, group)
	}

	return groups, exclude
}

// Groups returns the configured groups; when none are configured it
// returns the single synthetic match-all group.
func (m *Matcher) Groups() []Group {
	if len(m.groups) == 0 {
		return []Group{{Key: AllNewsKey}}
	}

	return m.groups
}

// HasRules reports whether any real groups are configured.
func (m *Matcher) HasRules() bool {
	return len(m.groups) > 0
}

// Excluded reports whether any exclude term appears in the title
// (case-insensitive substring).
func (m *Matcher) Excluded(title string) bool {
	titleLower := strings.ToLower(title)

	for _, word := range m.exclude {
		if strings.Contains(titleLower, strings.ToLower(word)) {
			return true
		}
	}

	return false
}

// FirstMatch returns the first group, in configuration order, that the
// title satisfies. Exclude terms reject before any group is tried.
// With no configured rules every non-excluded title matches the
// synthetic group.
func (m *Matcher) FirstMatch(title string) (Group, bool) {
	if len(m.groups) == 0 {
		return Group{Key: AllNewsKey}, true
	}

	if m.Excluded(title) {
		return Group{}, false
	}

	titleLower := strings.ToLower(title)

	for _, group := range m.groups {
		if group.matchesTitle(titleLower) {
			return group, true
		}
	}

	return Group{}, false
}

// Matches reports whether any group accepts the title.
func (m *Matcher) Matches(title string) bool {
	_, ok := m.FirstMatch(title)

	return ok
}
