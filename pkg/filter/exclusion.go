// Package filter drops findings whose location matches a policy's
// URL exclusion patterns.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"scanhub/pkg/models"
)

// ExclusionFilter holds the compiled exclusion patterns of one policy
type ExclusionFilter struct {
	patterns []*regexp.Regexp
}

// NewExclusionFilter compiles glob-style patterns where `*` matches any run
// of characters and everything else is literal. Patterns are unanchored, so
// `/api/admin/*` excludes any URL containing that path. An empty pattern
// list yields a pass-through filter.
func NewExclusionFilter(globs []string) (*ExclusionFilter, error) {
	f := &ExclusionFilter{}
	for _, glob := range globs {
		glob = strings.TrimSpace(glob)
		if glob == "" {
			continue
		}
		expr := strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, ".*")
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", glob, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Excluded reports whether a finding location matches any exclusion pattern
func (f *ExclusionFilter) Excluded(location string) bool {
	for _, re := range f.patterns {
		if re.MatchString(location) {
			return true
		}
	}
	return false
}

// Apply returns the findings whose locations are not excluded, preserving
// order. Excluded findings are dropped entirely, not counted anywhere.
func (f *ExclusionFilter) Apply(findings []models.Finding) []models.Finding {
	if len(f.patterns) == 0 {
		return findings
	}
	kept := make([]models.Finding, 0, len(findings))
	for _, finding := range findings {
		if !f.Excluded(finding.Location) {
			kept = append(kept, finding)
		}
	}
	return kept
}
