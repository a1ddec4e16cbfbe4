package service

import (
	"log/slog"
	"sync/atomic"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/sourcemap"
	"github.com/dshills/embedls/internal/vfile"
)

// Env is the process-wide environment rule passes are seeded from.
type Env struct {
	RootURI       lsp.DocumentURI
	Locale        string
	Configuration lint.ConfigurationHost
}

// Service answers feature requests for open documents by dispatching them to
// the registered plugins, across the virtual files of composite documents.
type Service struct {
	env     Env
	docs    *vfile.Documents
	plugins *Registry
	lint    atomic.Pointer[lint.Config]

	logger  *slog.Logger
	metrics *Metrics
	fixes   *fixStore
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Dispatches log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics records dispatch statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEnv sets the environment handed to rules.
func WithEnv(env Env) Option {
	return func(s *Service) {
		s.env = env
	}
}

// WithLintConfig sets the initial lint configuration.
func WithLintConfig(cfg *lint.Config) Option {
	return func(s *Service) {
		s.lint.Store(cfg)
	}
}

// New creates a service over a document store and a plugin registry.
func New(docs *vfile.Documents, plugins *Registry, opts ...Option) *Service {
	s := &Service{
		docs:    docs,
		plugins: plugins,
		fixes:   newFixStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.plugins == nil {
		s.plugins = NewRegistry()
	}
	if s.lint.Load() == nil {
		s.lint.Store(&lint.Config{Rules: lint.NewRules()})
	}
	return s
}

// Documents returns the document store.
func (s *Service) Documents() *vfile.Documents {
	return s.docs
}

// Plugins returns the plugin registry.
func (s *Service) Plugins() *Registry {
	return s.plugins
}

// SetLintConfig replaces the lint configuration. Rule passes already running
// keep the configuration they started with.
func (s *Service) SetLintConfig(cfg *lint.Config) {
	if cfg == nil {
		cfg = &lint.Config{Rules: lint.NewRules()}
	}
	s.lint.Store(cfg)
}

// LintConfig returns the active lint configuration.
func (s *Service) LintConfig() *lint.Config {
	return s.lint.Load()
}

// toSourceLocation maps a location inside a virtual file back to its source
// document through segments satisfying mask. Locations outside virtual files
// are returned unchanged.
func (s *Service) toSourceLocation(loc lsp.Location, mask sourcemap.Capabilities) (lsp.Location, bool) {
	if !s.docs.HasVirtualFile(loc.URI) {
		return loc, true
	}
	for _, m := range s.docs.MapsForVirtualFile(loc.URI) {
		if src, ok := m.ToSourceLocation(loc.Range, mask); ok {
			return src, true
		}
	}
	return lsp.Location{}, false
}

// isKnown reports whether uri names an open document or virtual file.
func (s *Service) isKnown(uri lsp.DocumentURI) bool {
	_, ok := s.docs.TextDocument(uri)
	return ok
}
