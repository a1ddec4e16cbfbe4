package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// FeatureRequest describes one dispatch of a position or range feature.
//
// T is the result type and K the argument type. Results are "absent" when
// they are nil (pointer, slice, map or interface); absent results are
// skipped. A non-nil empty slice is a present but empty result.
type FeatureRequest[T, K any] struct {
	// Feature names the dispatch in logs, errors and metrics.
	Feature string
	URI     lsp.DocumentURI
	Arg     K

	// TransformArg maps Arg into the coordinates of a virtual file. It may
	// return no candidates, which skips the file. Nil passes Arg unchanged.
	TransformArg func(arg K, m *sourcemap.SourceMap, file *vfile.VirtualFile) []K

	// Worker invokes one plugin. Plugins without the relevant hook return
	// an absent result. m is nil for plain documents.
	Worker func(ctx context.Context, p Plugin, doc *lsp.TextDocument, arg K, m *sourcemap.SourceMap) (T, error)

	// Transform maps a result produced in a virtual file back to source
	// coordinates. Returning false drops the result. It is not called for
	// plain documents.
	Transform func(result T, m *sourcemap.SourceMap) (T, bool)

	// Combine merges all results. Without it the first result wins and ends
	// the dispatch.
	Combine func(results []T) T

	// Progress receives the combined results after every non-empty result.
	// It is only used together with Combine.
	Progress func(partial T)
}

// LanguageFeature dispatches req over the plugins for every virtual file of
// the target document, or for the document itself if it is plain.
//
// Virtual files are visited in tree order and plugins in registration order.
// It returns false if no plugin produced a usable result, including when the
// document is not open. A plugin error aborts the dispatch and is returned
// wrapped in a *PluginError.
func LanguageFeature[T, K any](ctx context.Context, s *Service, req FeatureRequest[T, K]) (T, bool, error) {
	d := s.begin(req.Feature, req.URI)
	acc := &accumulator[T]{combine: req.Combine, progress: req.Progress}

	err := runLanguageFeature(ctx, s, d, acc, req)
	d.end(len(acc.results), err)
	if err != nil {
		var zero T
		return zero, false, err
	}
	res, ok := acc.result()
	return res, ok, nil
}

func runLanguageFeature[T, K any](ctx context.Context, s *Service, d *dispatch, acc *accumulator[T], req FeatureRequest[T, K]) error {
	resolved, err := s.docs.Resolve(req.URI)
	if errors.Is(err, vfile.ErrUnknownDocument) {
		d.logger.Debug("document not open")
		return nil
	}
	if err != nil {
		return err
	}

	plugins := s.plugins.Snapshot()

	if !resolved.IsVirtual() {
		_, err := callPlugins(ctx, d, acc, req, plugins, resolved.Document, req.Arg, nil)
		return err
	}

	return s.visit(ctx, d, resolved.Source, func(file *vfile.VirtualFile, m *sourcemap.SourceMap) (bool, error) {
		args := []K{req.Arg}
		if req.TransformArg != nil {
			args = req.TransformArg(req.Arg, m, file)
		}
		for _, arg := range args {
			cont, err := callPlugins(ctx, d, acc, req, plugins, file.Document(), arg, m)
			if err != nil || !cont {
				return false, err
			}
		}
		return true, nil
	})
}

// visit walks the tree of a resolved source. A source closed or updated
// since it was resolved yields no result rather than an error.
func (s *Service) visit(ctx context.Context, d *dispatch, src *vfile.SourceFile, fn vfile.Visitor) error {
	visited := false
	_, err := s.docs.Visit(ctx, src, func(file *vfile.VirtualFile, m *sourcemap.SourceMap) (bool, error) {
		visited = true
		return fn(file, m)
	})
	if !visited && (errors.Is(err, vfile.ErrStaleSourceMap) || errors.Is(err, vfile.ErrUnknownDocument)) {
		d.logger.Debug("document changed during dispatch", slog.Any("error", err))
		return nil
	}
	return err
}

// callPlugins runs every plugin against one candidate argument. It reports
// whether the dispatch should go on.
func callPlugins[T, K any](ctx context.Context, d *dispatch, acc *accumulator[T], req FeatureRequest[T, K],
	plugins []Entry, doc *lsp.TextDocument, arg K, m *sourcemap.SourceMap) (bool, error) {
	for _, e := range plugins {
		d.calls++
		res, err := req.Worker(ctx, e.Plugin, doc, arg, m)
		if err != nil {
			return false, &PluginError{PluginID: e.ID, Feature: req.Feature, Err: err}
		}
		if isNil(res) {
			continue
		}
		if m != nil && req.Transform != nil {
			var ok bool
			if res, ok = req.Transform(res, m); !ok || isNil(res) {
				continue
			}
		}
		if !acc.add(res) {
			return false, nil
		}
	}
	return true, nil
}

// DocumentRequest describes one dispatch of a whole-document feature.
type DocumentRequest[T any] struct {
	Feature string
	URI     lsp.DocumentURI

	// IsValid gates each virtual file. Nil accepts every file.
	IsValid func(file *vfile.VirtualFile, m *sourcemap.SourceMap) bool

	Worker    func(ctx context.Context, p Plugin, doc *lsp.TextDocument, m *sourcemap.SourceMap) (T, error)
	Transform func(result T, m *sourcemap.SourceMap) (T, bool)
	Combine   func(results []T) T
	Progress  func(partial T)
}

// DocumentFeature dispatches a feature that takes no position. Each accepted
// virtual file is treated as a single candidate.
func DocumentFeature[T any](ctx context.Context, s *Service, req DocumentRequest[T]) (T, bool, error) {
	return LanguageFeature(ctx, s, FeatureRequest[T, struct{}]{
		Feature: req.Feature,
		URI:     req.URI,
		TransformArg: func(_ struct{}, m *sourcemap.SourceMap, file *vfile.VirtualFile) []struct{} {
			if req.IsValid != nil && !req.IsValid(file, m) {
				return nil
			}
			return []struct{}{{}}
		},
		Worker: func(ctx context.Context, p Plugin, doc *lsp.TextDocument, _ struct{}, m *sourcemap.SourceMap) (T, error) {
			return req.Worker(ctx, p, doc, m)
		},
		Transform: req.Transform,
		Combine:   req.Combine,
		Progress:  req.Progress,
	})
}

// accumulator collects results and applies the first-wins or combine policy.
type accumulator[T any] struct {
	combine  func([]T) T
	progress func(T)
	results  []T
}

// add appends a result and reports whether the dispatch should go on.
func (a *accumulator[T]) add(res T) bool {
	a.results = append(a.results, res)
	if a.combine == nil {
		return false
	}
	if a.progress != nil && !isEmptySlice(res) {
		a.progress(a.combine(a.results))
	}
	return true
}

func (a *accumulator[T]) result() (T, bool) {
	if len(a.results) == 0 {
		var zero T
		return zero, false
	}
	if a.combine != nil {
		return a.combine(a.results), true
	}
	return a.results[0], true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isEmptySlice(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}

// dispatch tracks one feature dispatch for logging and metrics.
type dispatch struct {
	s       *Service
	feature string
	logger  *slog.Logger
	start   time.Time
	calls   int
}

func (s *Service) begin(feature string, uri lsp.DocumentURI) *dispatch {
	return &dispatch{
		s:       s,
		feature: feature,
		logger: s.logger.With(
			slog.String("request_id", uuid.NewString()),
			slog.String("feature", feature),
			slog.String("uri", string(uri)),
		),
		start: time.Now(),
	}
}

func (d *dispatch) end(results int, err error) {
	elapsed := time.Since(d.start)
	d.s.metrics.observe(d.feature, d.calls, results, err != nil, elapsed)
	if err != nil {
		d.logger.Debug("dispatch failed", slog.Int("calls", d.calls), slog.Any("error", err))
		return
	}
	d.logger.Debug("dispatch done",
		slog.Int("calls", d.calls),
		slog.Int("results", results),
		slog.Duration("elapsed", elapsed),
	)
}
