package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/embedls/internal/config"
	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
	"github.com/dshills/embedls/internal/service"
	"github.com/dshills/embedls/internal/vfile"
)

var languageIDs = map[string]string{
	".vue":  "vue",
	".html": "html",
	".htm":  "html",
	".css":  "css",
	".scss": "scss",
	".js":   "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".json": "json",
	".md":   "markdown",
}

func languageID(path string) string {
	if id, ok := languageIDs[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return "plaintext"
}

// workspace ties a service to the loaded config and the files on the
// command line.
type workspace struct {
	svc    *service.Service
	host   *config.Host
	cfg    *config.Config
	logger *slog.Logger
	reg    *prometheus.Registry

	versions map[lsp.DocumentURI]int
}

func newWorkspace(cfg *config.Config, logger *slog.Logger) (*workspace, error) {
	reg := prometheus.NewRegistry()
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	// No language modules or plugins are installed: every file is linted as
	// a plain document, and the language ID only reaches rules.
	host := config.NewHost(cfg.Workspace)
	svc := service.New(vfile.NewDocuments(), service.NewRegistry(),
		service.WithLogger(logger),
		service.WithMetrics(metrics),
		service.WithEnv(service.Env{
			RootURI:       cfg.RootURI,
			Locale:        cfg.Locale,
			Configuration: host,
		}),
		service.WithLintConfig(cfg.Lint))

	return &workspace{
		svc:      svc,
		host:     host,
		cfg:      cfg,
		logger:   logger,
		reg:      reg,
		versions: make(map[lsp.DocumentURI]int),
	}, nil
}

// swap installs a reloaded config and releases the previous one.
func (w *workspace) swap(cfg *config.Config) {
	old := w.cfg
	w.cfg = cfg
	w.svc.SetLintConfig(cfg.Lint)
	w.host.Update(cfg.Workspace)
	if err := old.Close(); err != nil {
		w.logger.Warn("closing previous config", slog.Any("error", err))
	}
}

func (w *workspace) Close() error {
	return w.cfg.Close()
}

// open reads a file from disk into the document store, bumping its version
// on every read.
func (w *workspace) open(path string) (lsp.DocumentURI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	uri := lsp.FilePathToURI(path)
	w.versions[uri]++
	if err := w.svc.Documents().Update(uri, languageID(path), w.versions[uri], string(data)); err != nil {
		return "", err
	}
	return uri, nil
}

// finding is one output line of the lint command.
type finding struct {
	File     string    `json:"file"`
	Range    lsp.Range `json:"range"`
	Severity string    `json:"severity"`
	Code     any       `json:"code,omitempty"`
	Source   string    `json:"source,omitempty"`
	Message  string    `json:"message"`
}

// lint checks every file and writes one JSON line per diagnostic. It returns
// the number of error-severity diagnostics.
func (w *workspace) lint(ctx context.Context, phase lint.Phase, files []string, out io.Writer) (int, error) {
	enc := json.NewEncoder(out)
	errorCount := 0

	for _, path := range files {
		uri, err := w.open(path)
		if err != nil {
			return errorCount, err
		}

		diags, err := w.svc.Diagnostics(ctx, uri, phase, nil)
		if err != nil {
			return errorCount, fmt.Errorf("%s: %w", path, err)
		}

		for _, d := range diags {
			if d.Severity == lsp.DiagnosticSeverityError {
				errorCount++
			}
			err := enc.Encode(finding{
				File:     path,
				Range:    d.Range,
				Severity: d.Severity.String(),
				Code:     d.Code,
				Source:   d.Source,
				Message:  d.Message,
			})
			if err != nil {
				return errorCount, err
			}
		}
	}
	return errorCount, nil
}

// writeMetrics prints every counter and histogram sample count.
func (w *workspace) writeMetrics(out io.Writer) error {
	families, err := w.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			value := m.GetCounter().GetValue()
			if h := m.GetHistogram(); h != nil {
				value = float64(h.GetSampleCount())
			}
			fmt.Fprintf(out, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
