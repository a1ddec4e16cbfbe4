package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// scopedRule runs its rule only for documents whose path matches one of the
// patterns.
type scopedRule struct {
	rule     Rule
	patterns []string
}

// Scoped restricts rule to documents whose file path matches at least one of
// the doublestar patterns. With no patterns the rule is returned unchanged.
func Scoped(rule Rule, patterns ...string) (Rule, error) {
	if len(patterns) == 0 {
		return rule, nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, p)
		}
	}
	return &scopedRule{rule: rule, patterns: patterns}, nil
}

// Run implements Rule.
func (s *scopedRule) Run(ctx context.Context, phase Phase, rc RuleContext) error {
	if rc.Document == nil {
		return nil
	}
	path := s.matchPath(rc)
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return s.rule.Run(ctx, phase, rc)
		}
	}
	return nil
}

// matchPath is the document path patterns are matched against: relative to
// the root when the document lies under it, otherwise the absolute path
// without its leading slash.
func (s *scopedRule) matchPath(rc RuleContext) string {
	path := rc.URIToFileName(rc.Document.URI)
	if rc.RootURI != "" {
		rel, err := filepath.Rel(rc.URIToFileName(rc.RootURI), path)
		rel = filepath.ToSlash(rel)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, "../") {
			return rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(path), "/")
}
