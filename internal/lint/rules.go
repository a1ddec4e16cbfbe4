package lint

import (
	"fmt"

	"github.com/dshills/embedls/internal/lsp"
)

// Rules is an insertion-ordered registry of named rules. A rule pass runs
// rules in the order they were added.
//
// Rules is not safe for concurrent mutation; build it once and treat it as
// read-only afterwards.
type Rules struct {
	names []string
	rules map[string]Rule
}

// NewRules creates an empty registry.
func NewRules() *Rules {
	return &Rules{rules: make(map[string]Rule)}
}

// Add registers a rule under name.
func (r *Rules) Add(name string, rule Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: %s", ErrNilRule, name)
	}
	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("%w: %s", ErrRuleExists, name)
	}
	r.names = append(r.names, name)
	r.rules[name] = rule
	return nil
}

// Get returns a rule by name.
func (r *Rules) Get(name string) (Rule, bool) {
	if r == nil {
		return nil, false
	}
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns the rule names in insertion order.
func (r *Rules) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Each calls fn for every rule in insertion order until fn returns false.
func (r *Rules) Each(fn func(name string, rule Rule) bool) {
	if r == nil {
		return
	}
	for _, name := range r.names {
		if !fn(name, r.rules[name]) {
			return
		}
	}
}

// Config is the lint configuration of a workspace.
type Config struct {
	Rules *Rules

	// Severities override the severity of everything a rule reports.
	Severities map[string]lsp.DiagnosticSeverity

	// Settings are handed to every rule through RuleContext.Settings.
	Settings map[string]any
}

// Severity returns the configured severity override for a rule.
func (c *Config) Severity(ruleID string) (lsp.DiagnosticSeverity, bool) {
	if c == nil {
		return 0, false
	}
	sev, ok := c.Severities[ruleID]
	return sev, ok
}
