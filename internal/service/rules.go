package service

import (
	"context"
	"errors"
	"maps"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// RuleWorker runs one rule. It returns the rule's result and the context
// the next rule of the same pass starts from.
type RuleWorker[T any] func(ctx context.Context, name string, rule lint.Rule, rc lint.RuleContext) (T, lint.RuleContext, error)

// RuleRequest describes one rule pass.
type RuleRequest[T any] struct {
	Feature string
	URI     lsp.DocumentURI
	Phase   lint.Phase

	// Config is the lint configuration of the pass. Nil uses the service's
	// active configuration.
	Config *lint.Config

	// IsValid gates each virtual file. Nil accepts every file.
	IsValid func(file *vfile.VirtualFile, m *sourcemap.SourceMap) bool

	Worker    RuleWorker[T]
	Transform func(result T, m *sourcemap.SourceMap) (T, bool)
	Combine   func(results []T) T
	Progress  func(partial T)
}

// RuleFeature runs the configured rules over every accepted virtual file of
// the target document, or over the document itself if it is plain.
//
// For each document a fresh rule context is built from the service
// environment and the lint settings. Plugin rule hooks run first, in
// registration order, then the rules in configuration order. Each stage
// receives the context returned by the previous one.
func RuleFeature[T any](ctx context.Context, s *Service, req RuleRequest[T]) (T, bool, error) {
	d := s.begin(req.Feature, req.URI)
	acc := &accumulator[T]{combine: req.Combine, progress: req.Progress}

	err := runRuleFeature(ctx, s, d, acc, req)
	d.end(len(acc.results), err)
	if err != nil {
		var zero T
		return zero, false, err
	}
	res, ok := acc.result()
	return res, ok, nil
}

func runRuleFeature[T any](ctx context.Context, s *Service, d *dispatch, acc *accumulator[T], req RuleRequest[T]) error {
	resolved, err := s.docs.Resolve(req.URI)
	if errors.Is(err, vfile.ErrUnknownDocument) {
		d.logger.Debug("document not open")
		return nil
	}
	if err != nil {
		return err
	}

	cfg := req.Config
	if cfg == nil {
		cfg = s.LintConfig()
	}
	plugins := s.plugins.Snapshot()

	if !resolved.IsVirtual() {
		_, err := runRules(ctx, s, d, acc, req, cfg, plugins, resolved.Document, nil)
		return err
	}

	return s.visit(ctx, d, resolved.Source, func(file *vfile.VirtualFile, m *sourcemap.SourceMap) (bool, error) {
		if req.IsValid != nil && !req.IsValid(file, m) {
			return true, nil
		}
		return runRules(ctx, s, d, acc, req, cfg, plugins, file.Document(), m)
	})
}

// runRules performs the rule pass for one document. It reports whether the
// dispatch should go on.
func runRules[T any](ctx context.Context, s *Service, d *dispatch, acc *accumulator[T], req RuleRequest[T],
	cfg *lint.Config, plugins []Entry, doc *lsp.TextDocument, m *sourcemap.SourceMap) (bool, error) {
	rc := s.newRuleContext(cfg, doc)

	for _, e := range plugins {
		rp, ok := e.Plugin.(RulePipeline)
		if !ok {
			continue
		}
		hook := rp.RuleHooks().For(req.Phase)
		if hook == nil {
			continue
		}
		d.calls++
		next, err := hook(ctx, rc)
		if err != nil {
			return false, &PluginError{PluginID: e.ID, Feature: req.Feature, Err: err}
		}
		rc = next
	}

	cont := true
	var runErr error
	cfg.Rules.Each(func(name string, rule lint.Rule) bool {
		rc.RuleID = name
		d.calls++
		res, next, err := req.Worker(ctx, name, rule, rc)
		if err != nil {
			runErr = &RuleError{RuleID: name, Phase: req.Phase.String(), Err: err}
			return false
		}
		rc = next
		if isNil(res) {
			return true
		}
		if m != nil && req.Transform != nil {
			var ok bool
			if res, ok = req.Transform(res, m); !ok || isNil(res) {
				return true
			}
		}
		cont = acc.add(res)
		return cont
	})
	if runErr != nil {
		return false, runErr
	}
	return cont, nil
}

// newRuleContext seeds a rule context for one document of a pass. Settings
// are copied so a pass cannot leak changes into the next.
func (s *Service) newRuleContext(cfg *lint.Config, doc *lsp.TextDocument) lint.RuleContext {
	settings := maps.Clone(cfg.Settings)
	if settings == nil {
		settings = make(map[string]any)
	}
	return lint.RuleContext{
		RootURI:       s.env.RootURI,
		Locale:        s.env.Locale,
		Configuration: s.env.Configuration,
		Settings:      settings,
		Document:      doc,
		Report:        func(lsp.Diagnostic, ...lint.RuleFix) {},
	}
}
