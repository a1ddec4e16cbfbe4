package service

import (
	"context"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
)

// Plugin is a feature provider. A plugin implements any subset of the hook
// interfaces in this file; features skip plugins without the relevant hook.
type Plugin interface{}

// HoverProvider answers hover requests.
type HoverProvider interface {
	Hover(ctx context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.Hover, error)
}

// CompletionProvider answers completion requests.
type CompletionProvider interface {
	Complete(ctx context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.CompletionList, error)
}

// PrepareRenameResult is either a renameable range or the reason the
// position cannot be renamed. Exactly one field is set.
type PrepareRenameResult struct {
	Range *lsp.Range
	Err   *lsp.ResponseError
}

// RenamePreparer answers rename-prepare requests.
type RenamePreparer interface {
	PrepareRename(ctx context.Context, doc *lsp.TextDocument, pos lsp.Position) (*PrepareRenameResult, error)
}

// LinkedEditingRangeProvider answers linked editing range requests.
type LinkedEditingRangeProvider interface {
	LinkedEditingRanges(ctx context.Context, doc *lsp.TextDocument, pos lsp.Position) (*lsp.LinkedEditingRanges, error)
}

// ReferencesProvider answers find-references requests.
type ReferencesProvider interface {
	References(ctx context.Context, doc *lsp.TextDocument, pos lsp.Position) ([]lsp.Location, error)
}

// DocumentColorProvider lists the colors in a document.
type DocumentColorProvider interface {
	DocumentColors(ctx context.Context, doc *lsp.TextDocument) ([]lsp.ColorInformation, error)
}

// DocumentSymbolProvider lists the symbols of a document.
type DocumentSymbolProvider interface {
	DocumentSymbols(ctx context.Context, doc *lsp.TextDocument) ([]lsp.SymbolInformation, error)
}

// WorkspaceSymbolProvider searches symbols across the workspace.
type WorkspaceSymbolProvider interface {
	WorkspaceSymbols(ctx context.Context, query string) ([]lsp.SymbolInformation, error)
}

// Validator produces diagnostics for a document. Only the syntax and
// semantic phases reach validators.
type Validator interface {
	Validate(ctx context.Context, doc *lsp.TextDocument, phase lint.Phase) ([]lsp.Diagnostic, error)
}

// RuleHook prepares the rule context and returns the updated copy.
type RuleHook func(ctx context.Context, rc lint.RuleContext) (lint.RuleContext, error)

// RuleHooks are a plugin's rule pipeline hooks. A phase-specific hook takes
// precedence over OnAny.
type RuleHooks struct {
	OnAny      RuleHook
	OnSyntax   RuleHook
	OnSemantic RuleHook
	OnFormat   RuleHook
}

// For returns the hook to run for phase, or nil.
func (h RuleHooks) For(phase lint.Phase) RuleHook {
	var specific RuleHook
	switch phase {
	case lint.PhaseSyntax:
		specific = h.OnSyntax
	case lint.PhaseSemantic:
		specific = h.OnSemantic
	case lint.PhaseFormat:
		specific = h.OnFormat
	}
	if specific != nil {
		return specific
	}
	return h.OnAny
}

// RulePipeline lets a plugin enrich the rule context before rules run.
type RulePipeline interface {
	RuleHooks() RuleHooks
}
