// Package lint defines the rule model used by rule passes: rules, the
// context threaded through a pass, the fixes a rule may attach to a report,
// and the ordered registry rules are configured in.
package lint

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/embedls/internal/lsp"
)

// Phase identifies a rule pass.
type Phase int

// Rule pass phases.
const (
	PhaseSyntax Phase = iota
	PhaseSemantic
	PhaseFormat
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSyntax:
		return "syntax"
	case PhaseSemantic:
		return "semantic"
	case PhaseFormat:
		return "format"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase parses a phase name.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(s) {
	case "syntax", "syntactic":
		return PhaseSyntax, nil
	case "semantic":
		return PhaseSemantic, nil
	case "format":
		return PhaseFormat, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPhase, s)
}

// ConfigurationHost reads editor configuration on behalf of rules.
type ConfigurationHost interface {
	// GetConfiguration returns the value of a dotted configuration section,
	// or nil if it is not set.
	GetConfiguration(ctx context.Context, section string, scopeURI lsp.DocumentURI) (any, error)

	// OnDidChangeConfiguration registers a listener for configuration changes.
	OnDidChangeConfiguration(fn func())
}

// ReportFunc receives a diagnostic and its optional fixes.
type ReportFunc func(diag lsp.Diagnostic, fixes ...RuleFix)

// RuleFix is a code action a rule offers for one of its reports.
type RuleFix struct {
	// Kinds are code action kinds, like quickfix or refactor.
	Kinds []lsp.CodeActionKind
	Title string

	// GetEdits computes edits to the reported document.
	GetEdits func(ctx context.Context, diag lsp.Diagnostic) ([]lsp.TextEdit, error)

	// GetWorkspaceEdit computes cross-file edits.
	GetWorkspaceEdit func(ctx context.Context, diag lsp.Diagnostic) (*lsp.WorkspaceEdit, error)
}

// RuleContext is the environment of one rule invocation. It is a value:
// pipeline hooks return an updated copy, and a rule pass threads the latest
// copy through every rule of the same document.
type RuleContext struct {
	// Project context.
	RootURI       lsp.DocumentURI
	Locale        string
	Configuration ConfigurationHost

	// Settings belong to the current pass. Rules may change them in place;
	// later rules of the same document see the change.
	Settings map[string]any

	// Document context.
	RuleID   string
	Document *lsp.TextDocument
	Report   ReportFunc
}

// URIToFileName converts a file URI to a path.
func (rc RuleContext) URIToFileName(uri lsp.DocumentURI) string {
	return lsp.URIToFilePath(uri)
}

// FileNameToURI converts a path to a file URI.
func (rc RuleContext) FileNameToURI(name string) lsp.DocumentURI {
	return lsp.FilePathToURI(name)
}

// Setting returns a top-level setting, if present.
func (rc RuleContext) Setting(key string) (any, bool) {
	v, ok := rc.Settings[key]
	return v, ok
}

// Rule checks a document during a rule pass. Rules that do not take part in
// a phase return nil without reporting.
type Rule interface {
	Run(ctx context.Context, phase Phase, rc RuleContext) error
}

// PhaseFuncs implements Rule with one optional function per phase.
type PhaseFuncs struct {
	Syntax   func(ctx context.Context, rc RuleContext) error
	Semantic func(ctx context.Context, rc RuleContext) error
	Format   func(ctx context.Context, rc RuleContext) error
}

// Run implements Rule.
func (f PhaseFuncs) Run(ctx context.Context, phase Phase, rc RuleContext) error {
	var fn func(context.Context, RuleContext) error
	switch phase {
	case PhaseSyntax:
		fn = f.Syntax
	case PhaseSemantic:
		fn = f.Semantic
	case PhaseFormat:
		fn = f.Format
	}
	if fn == nil {
		return nil
	}
	return fn(ctx, rc)
}
