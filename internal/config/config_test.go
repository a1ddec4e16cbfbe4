package config

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lint"
	"github.com/dshills/embedls/internal/lsp"
)

const noTabs = `
function on_syntax(ctx)
  local s, e = string.find(ctx.text, "\t", 1, true)
  if s then ctx.report{message = "tab", from = s, to = e} end
end
`

const tomlConfig = `
locale = "fr"
root = "file:///ws"

[workspace]
editor.tabSize = 4
html = { format = { enable = true } }

[lint]
rule_timeout = "500ms"
settings = { maxLineLength = 80 }
severities = { "no-tabs" = "error" }

[[lint.rules]]
name = "no-tabs"
script = "rules/no-tabs.lua"
files = ["**/*.vue"]

[[lint.rules]]
name = "inline"
source = "function on_format(ctx) end"
severity = "hint"

[[lint.rules]]
name = "off"
source = "not lua at all ((("
disabled = true
`

const yamlConfig = `
locale: fr
root: sub
workspace:
  editor:
    tabSize: 4
lint:
  severities:
    no-tabs: warn
  rules:
    - name: no-tabs
      script: rules/no-tabs.lua
    - name: inline
      source: "function on_semantic(ctx) end"
`

func testFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, data := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return fsys
}

func TestLoadTOML(t *testing.T) {
	fsys := testFS(map[string]string{
		"embedls.toml":      tomlConfig,
		"rules/no-tabs.lua": noTabs,
	})

	cfg, err := Load(context.Background(), "embedls.toml", WithFS(fsys))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, "embedls.toml", cfg.Path)
	assert.Equal(t, "fr", cfg.Locale)
	assert.Equal(t, lsp.DocumentURI("file:///ws"), cfg.RootURI)
	assert.Equal(t, []string{"no-tabs", "inline"}, cfg.Lint.Rules.Names())
	assert.Equal(t, map[string]lsp.DiagnosticSeverity{
		"no-tabs": lsp.DiagnosticSeverityError,
		"inline":  lsp.DiagnosticSeverityHint,
	}, cfg.Lint.Severities)
	assert.Equal(t, int64(80), cfg.Lint.Settings["maxLineLength"])

	host := NewHost(cfg.Workspace)
	v, err := host.GetConfiguration(context.Background(), "editor.tabSize", "")
	require.NoError(t, err)
	assert.Equal(t, int64(4), v)
	v, _ = host.GetConfiguration(context.Background(), "html.format.enable", "")
	assert.Equal(t, true, v)
}

func TestScopedScriptRule(t *testing.T) {
	fsys := testFS(map[string]string{
		"embedls.toml":      tomlConfig,
		"rules/no-tabs.lua": noTabs,
	})
	cfg, err := Load(context.Background(), "embedls.toml", WithFS(fsys))
	require.NoError(t, err)
	defer cfg.Close()

	rule, ok := cfg.Lint.Rules.Get("no-tabs")
	require.True(t, ok)

	run := func(uri lsp.DocumentURI) int {
		var n int
		rc := lint.RuleContext{
			Document: lsp.NewTextDocument(uri, "vue", 1, "a\tb"),
			Report:   func(lsp.Diagnostic, ...lint.RuleFix) { n++ },
		}
		require.NoError(t, rule.Run(context.Background(), lint.PhaseSyntax, rc))
		return n
	}
	assert.Equal(t, 1, run("file:///ws/App.vue"))
	assert.Equal(t, 0, run("file:///ws/app.js"))
}

func TestLoadYAML(t *testing.T) {
	fsys := testFS(map[string]string{
		"cfg/embedls.yaml":      yamlConfig,
		"cfg/rules/no-tabs.lua": noTabs,
	})

	cfg, err := Load(context.Background(), "cfg/embedls.yaml", WithFS(fsys))
	require.NoError(t, err)
	defer cfg.Close()

	assert.Equal(t, lsp.FilePathToURI("cfg/sub"), cfg.RootURI)
	assert.Equal(t, []string{"no-tabs", "inline"}, cfg.Lint.Rules.Names())
	assert.Equal(t, lsp.DiagnosticSeverityWarning, cfg.Lint.Severities["no-tabs"])

	v, _ := NewHost(cfg.Workspace).GetConfiguration(context.Background(), "editor.tabSize", "")
	assert.Equal(t, 4, v)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("embedls.json", []byte("{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Decode("embedls.toml", []byte("locale = \n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "embedls.toml", perr.Path)
	assert.Positive(t, perr.Line)
	assert.Contains(t, perr.Error(), "line")

	_, err = Decode("embedls.yml", []byte("lint: [unclosed"))
	assert.ErrorAs(t, err, &perr)
}

func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	fsys := testFS(map[string]string{"ok.lua": noTabs})

	tests := []struct {
		name string
		file File
		is   error
	}{
		{
			name: "missing name",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Source: noTabs}}}},
			is:   ErrInvalidRule,
		},
		{
			name: "missing script",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Name: "x", Script: "nope.lua"}}}},
			is:   ErrInvalidRule,
		},
		{
			name: "no code",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Name: "x"}}}},
			is:   ErrInvalidRule,
		},
		{
			name: "bad severity",
			file: File{Lint: LintSection{Severities: map[string]string{"x": "loud"}}},
			is:   ErrInvalidSeverity,
		},
		{
			name: "bad rule severity",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Name: "x", Script: "ok.lua", Severity: "loud"}}}},
			is:   ErrInvalidSeverity,
		},
		{
			name: "bad glob",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Name: "x", Script: "ok.lua", Files: []string{"[a"}}}}},
			is:   lint.ErrBadPattern,
		},
		{
			name: "duplicate rule",
			file: File{Lint: LintSection{Rules: []RuleEntry{{Name: "x", Script: "ok.lua"}, {Name: "x", Script: "ok.lua"}}}},
			is:   lint.ErrRuleExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(ctx, &tt.file, ".", WithFS(fsys))
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := Build(ctx, &File{Lint: LintSection{RuleTimeout: "soon"}}, ".", WithFS(fsys))
	assert.Error(t, err)

	_, err = Build(ctx, &File{Lint: LintSection{Rules: []RuleEntry{{Name: "x", Source: "((("}}}}, ".", WithFS(fsys))
	assert.Error(t, err)
}

func TestRuleTimeoutApplies(t *testing.T) {
	f := &File{Lint: LintSection{
		RuleTimeout: "30ms",
		Rules:       []RuleEntry{{Name: "spin", Source: "function on_syntax(ctx) while true do end end"}},
	}}
	cfg, err := Build(context.Background(), f, ".", WithRuleTimeout(time.Hour))
	require.NoError(t, err)
	defer cfg.Close()

	rule, _ := cfg.Lint.Rules.Get("spin")
	done := make(chan error, 1)
	go func() {
		done <- rule.Run(context.Background(), lint.PhaseSyntax, lint.RuleContext{
			Document: lsp.NewTextDocument("file:///a", "txt", 1, ""),
		})
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("rule_timeout was not applied")
	}
}

func TestFindAndEmpty(t *testing.T) {
	fsys := testFS(map[string]string{"ws/embedls.yml": "locale: en"})
	assert.Equal(t, "ws/embedls.yml", Find(fsys, "ws"))
	assert.Equal(t, "", Find(fsys, "other"))

	cfg := Empty()
	assert.Equal(t, 0, cfg.Lint.Rules.Len())
	assert.NoError(t, cfg.Close())

	var nilCfg *Config
	assert.NoError(t, nilCfg.Close())
}
