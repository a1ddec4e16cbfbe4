package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lint/luarule"
	"github.com/dshills/embedls/internal/lsp"
)

// Config is a loaded workspace configuration. It owns the Lua states of its
// rules; Close releases them.
type Config struct {
	// Path is the file the config was loaded from, empty for defaults.
	Path string

	Locale    string
	RootURI   lsp.DocumentURI
	Workspace map[string]any
	Lint      *lint.Config

	scripts []*luarule.Rule
}

// Empty returns a config with no rules.
func Empty() *Config {
	return &Config{
		Workspace: map[string]any{},
		Lint:      &lint.Config{Rules: lint.NewRules()},
	}
}

// Close releases the rules' Lua states.
func (c *Config) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, r := range c.scripts {
		errs = append(errs, r.Close())
	}
	c.scripts = nil
	return errors.Join(errs...)
}

type loadOptions struct {
	fs          FileSystem
	logger      *slog.Logger
	ruleTimeout time.Duration
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFS reads the config and rule scripts from fsys.
func WithFS(fsys FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fs = fsys
	}
}

// WithLogger sets the logger handed to Lua rules.
func WithLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = l
	}
}

// WithRuleTimeout sets the default per-hook timeout of Lua rules. The file's
// lint.rule_timeout takes precedence.
func WithRuleTimeout(d time.Duration) LoadOption {
	return func(o *loadOptions) {
		o.ruleTimeout = d
	}
}

// Load reads the config file at path and builds its rules.
func Load(ctx context.Context, path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		fs:          OSFS{},
		logger:      slog.Default(),
		ruleTimeout: luarule.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := ReadFile(o.fs, path)
	if err != nil {
		return nil, err
	}
	cfg, err := build(ctx, f, filepath.Dir(path), o)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Build builds a config from a decoded file. Relative script paths and root
// are resolved against dir.
func Build(ctx context.Context, f *File, dir string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		fs:          OSFS{},
		logger:      slog.Default(),
		ruleTimeout: luarule.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return build(ctx, f, dir, o)
}

func build(ctx context.Context, f *File, dir string, o loadOptions) (*Config, error) {
	cfg := &Config{
		Locale:    f.Locale,
		Workspace: f.Workspace,
		Lint: &lint.Config{
			Rules:      lint.NewRules(),
			Severities: make(map[string]lsp.DiagnosticSeverity),
			Settings:   maps.Clone(f.Lint.Settings),
		},
	}
	if cfg.Workspace == nil {
		cfg.Workspace = map[string]any{}
	}

	root, err := resolveRoot(f.Root, dir)
	if err != nil {
		return nil, err
	}
	cfg.RootURI = root

	timeout := o.ruleTimeout
	if f.Lint.RuleTimeout != "" {
		if timeout, err = time.ParseDuration(f.Lint.RuleTimeout); err != nil {
			return nil, fmt.Errorf("lint.rule_timeout: %w", err)
		}
	}

	for name, sev := range f.Lint.Severities {
		s, ok := lsp.ParseDiagnosticSeverity(sev)
		if !ok {
			return nil, fmt.Errorf("%w: %q for rule %s", ErrInvalidSeverity, sev, name)
		}
		cfg.Lint.Severities[name] = s
	}

	for i, entry := range f.Lint.Rules {
		if entry.Disabled {
			continue
		}
		if err := cfg.addRule(ctx, i, entry, dir, timeout, o); err != nil {
			cfg.Close()
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) addRule(ctx context.Context, i int, entry RuleEntry, dir string, timeout time.Duration, o loadOptions) error {
	if entry.Name == "" {
		return fmt.Errorf("%w: lint.rules[%d] has no name", ErrInvalidRule, i)
	}

	var (
		source string
		chunk  = entry.Name
	)
	switch {
	case entry.Script != "":
		path := entry.Script
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := o.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRule, entry.Name, err)
		}
		source, chunk = string(data), filepath.Base(path)
	case entry.Source != "":
		source = entry.Source
	default:
		return fmt.Errorf("%w: %s has neither script nor source", ErrInvalidRule, entry.Name)
	}

	script, err := luarule.Load(ctx, entry.Name, chunk, source,
		luarule.WithTimeout(timeout),
		luarule.WithLogger(o.logger))
	if err != nil {
		return err
	}
	c.scripts = append(c.scripts, script)

	var rule lint.Rule = script
	if len(entry.Files) > 0 {
		if rule, err = lint.Scoped(script, entry.Files...); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRule, entry.Name, err)
		}
	}
	if err := c.Lint.Rules.Add(entry.Name, rule); err != nil {
		return err
	}

	if entry.Severity != "" {
		s, ok := lsp.ParseDiagnosticSeverity(entry.Severity)
		if !ok {
			return fmt.Errorf("%w: %q for rule %s", ErrInvalidSeverity, entry.Severity, entry.Name)
		}
		c.Lint.Severities[entry.Name] = s
	}
	return nil
}

func resolveRoot(root, dir string) (lsp.DocumentURI, error) {
	switch {
	case root == "":
		return "", nil
	case strings.Contains(root, "://"):
		return lsp.ParseURI(root)
	case !filepath.IsAbs(root):
		root = filepath.Join(dir, root)
	}
	return lsp.FilePathToURI(root), nil
}
