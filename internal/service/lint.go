package service

import (
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// Defaults applied to rule reports.
const (
	DefaultRuleMessage = "No message."
	DefaultRuleSource  = "rules"
)

// RuleFixData is stored in the Data field of every diagnostic a rule pass
// produces. It addresses the fixes the rule attached to the report.
type RuleFixData struct {
	URI     lsp.DocumentURI `json:"uri"`
	Version int             `json:"version"`
	Phase   string          `json:"phase"`
	RuleID  string          `json:"ruleId"`
	Index   int             `json:"index"`

	// Original is the Data the rule set itself.
	Original any `json:"original,omitempty"`
}

// Lint runs the configured rules for phase over a document. Format passes
// only visit virtual files that support formatting, the others only those
// that support diagnostics. progress, if set, receives the diagnostics found
// so far as rules report.
func (s *Service) Lint(ctx context.Context, uri lsp.DocumentURI, phase lint.Phase, progress func([]lsp.Diagnostic)) ([]lsp.Diagnostic, error) {
	cfg := s.LintConfig()

	gate := vfile.FileCapDiagnostic
	if phase == lint.PhaseFormat {
		gate = vfile.FileCapDocumentFormatting
	}

	diags, _, err := RuleFeature(ctx, s, RuleRequest[[]lsp.Diagnostic]{
		Feature: "lint." + phase.String(),
		URI:     uri,
		Phase:   phase,
		Config:  cfg,
		IsValid: hasFileCapability(gate),
		Worker: func(ctx context.Context, name string, rule lint.Rule, rc lint.RuleContext) ([]lsp.Diagnostic, lint.RuleContext, error) {
			key := fixKey{uri: rc.Document.URI, phase: phase.String(), ruleID: name}
			version := rc.Document.Version
			s.fixes.reset(key, version)

			reports := []lsp.Diagnostic{}
			run := rc
			run.Report = func(diag lsp.Diagnostic, fixes ...lint.RuleFix) {
				diag = applyRuleDefaults(cfg, name, diag)
				diag.Data = RuleFixData{
					URI:      key.uri,
					Version:  version,
					Phase:    key.phase,
					RuleID:   name,
					Index:    s.fixes.add(key, version, fixes),
					Original: diag.Data,
				}
				reports = append(reports, diag)
				if rc.Report != nil {
					rc.Report(diag, fixes...)
				}
			}
			if err := rule.Run(ctx, phase, run); err != nil {
				return nil, rc, err
			}
			return reports, rc, nil
		},
		Transform: s.transformDiagnostics,
		Combine:   Flatten[lsp.Diagnostic],
		Progress:  progress,
	})
	return diags, err
}

func applyRuleDefaults(cfg *lint.Config, ruleID string, diag lsp.Diagnostic) lsp.Diagnostic {
	if diag.Message == "" {
		diag.Message = DefaultRuleMessage
	}
	if diag.Source == "" {
		diag.Source = DefaultRuleSource
	}
	if diag.Code == nil {
		diag.Code = ruleID
	}
	if sev, ok := cfg.Severity(ruleID); ok {
		diag.Severity = sev
	} else if diag.Severity == 0 {
		diag.Severity = lsp.DiagnosticSeverityWarning
	}
	return diag
}

// Diagnostics validates a document with every Validator plugin and then runs
// the rule pass of the same phase. Format passes skip validation.
func (s *Service) Diagnostics(ctx context.Context, uri lsp.DocumentURI, phase lint.Phase, progress func([]lsp.Diagnostic)) ([]lsp.Diagnostic, error) {
	var validated []lsp.Diagnostic
	if phase != lint.PhaseFormat {
		var err error
		validated, _, err = DocumentFeature(ctx, s, DocumentRequest[[]lsp.Diagnostic]{
			Feature: "validate." + phase.String(),
			URI:     uri,
			IsValid: hasFileCapability(vfile.FileCapDiagnostic),
			Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, _ *sourcemap.SourceMap) ([]lsp.Diagnostic, error) {
				v, ok := p.(Validator)
				if !ok {
					return nil, nil
				}
				return v.Validate(ctx, doc, phase)
			},
			Transform: s.transformDiagnostics,
			Combine:   Flatten[lsp.Diagnostic],
			Progress:  progress,
		})
		if err != nil {
			return nil, err
		}
	}

	var lintProgress func([]lsp.Diagnostic)
	if progress != nil {
		lintProgress = func(partial []lsp.Diagnostic) {
			progress(slices.Concat(validated, partial))
		}
	}
	linted, err := s.Lint(ctx, uri, phase, lintProgress)
	if err != nil {
		return nil, err
	}
	if validated == nil && linted == nil {
		return nil, nil
	}
	return slices.Concat(validated, linted), nil
}

// transformDiagnostics maps diagnostics produced in a virtual file back to
// the source document. Diagnostics outside diagnostic-enabled segments are
// dropped, as are related locations that cannot be mapped.
func (s *Service) transformDiagnostics(diags []lsp.Diagnostic, m *sourcemap.SourceMap) ([]lsp.Diagnostic, bool) {
	return lo.FilterMap(diags, func(diag lsp.Diagnostic, _ int) (lsp.Diagnostic, bool) {
		rng, ok := m.ToSourceRange(diag.Range, sourcemap.CapDiagnostic)
		if !ok {
			return diag, false
		}
		diag.Range = rng
		if len(diag.RelatedInformation) > 0 {
			diag.RelatedInformation = lo.FilterMap(diag.RelatedInformation, func(info lsp.DiagnosticRelatedInformation, _ int) (lsp.DiagnosticRelatedInformation, bool) {
				loc, ok := s.toSourceLocation(info.Location, sourcemap.CapNone)
				return lsp.DiagnosticRelatedInformation{Location: loc, Message: info.Message}, ok
			})
		}
		return diag, true
	}), true
}

// RuleFixes returns the fixes a rule attached to the report described by
// data during the latest pass. It fails once the document has changed.
func (s *Service) RuleFixes(data RuleFixData) ([]lint.RuleFix, bool) {
	doc, ok := s.docs.TextDocument(data.URI)
	if !ok || doc.Version != data.Version {
		return nil, false
	}
	key := fixKey{uri: data.URI, phase: data.Phase, ruleID: data.RuleID}
	return s.fixes.get(key, data.Version, data.Index)
}

type fixKey struct {
	uri    lsp.DocumentURI
	phase  string
	ruleID string
}

type fixEntry struct {
	version int
	reports [][]lint.RuleFix
}

// fixStore keeps the fixes of the latest pass per document, phase and rule.
type fixStore struct {
	mu      sync.Mutex
	entries map[fixKey]*fixEntry
}

func newFixStore() *fixStore {
	return &fixStore{entries: make(map[fixKey]*fixEntry)}
}

func (f *fixStore) reset(key fixKey, version int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = &fixEntry{version: version}
}

// add records the fixes of one report and returns the report's index.
func (f *fixStore) add(key fixKey, version int, fixes []lint.RuleFix) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[key]
	if !ok || e.version != version {
		e = &fixEntry{version: version}
		f.entries[key] = e
	}
	e.reports = append(e.reports, fixes)
	return len(e.reports) - 1
}

func (f *fixStore) get(key fixKey, version, index int) ([]lint.RuleFix, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[key]
	if !ok || e.version != version || index < 0 || index >= len(e.reports) {
		return nil, false
	}
	return e.reports[index], true
}
