package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
locale = "en"

[workspace]
style.indent = "spaces"

[lint]
severities = { "no-tabs" = "error" }

[[lint.rules]]
name = "no-tabs"
script = "no-tabs.lua"

[[lint.rules]]
name = "indent-style"
source = '''
function on_syntax(ctx)
  ctx.report{message = "indent=" .. tostring(ctx.config("style.indent")), line = 0, character = 0}
end
'''
severity = "info"
`

const noTabsRule = `
function on_syntax(ctx)
  local s, e = string.find(ctx.text, "\t", 1, true)
  if s then ctx.report{message = "tab character", from = s, to = e} end
end
`

func writeWorkspace(t *testing.T, text string) (cfgPath, file string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "embedls.toml")
	file = filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no-tabs.lua"), []byte(noTabsRule), 0o644))
	require.NoError(t, os.WriteFile(file, []byte(text), 0o644))
	return cfgPath, file
}

func execute(args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func decodeFindings(t *testing.T, stdout string) []finding {
	t.Helper()
	var out []finding
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line == "" {
			continue
		}
		var f finding
		require.NoError(t, json.Unmarshal([]byte(line), &f))
		out = append(out, f)
	}
	return out
}

func TestLintReportsErrors(t *testing.T) {
	cfgPath, file := writeWorkspace(t, "<p>\tx</p>")

	stdout, _, err := execute("--config", cfgPath, "lint", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")

	findings := decodeFindings(t, stdout)
	require.Len(t, findings, 2)

	assert.Equal(t, file, findings[0].File)
	assert.Equal(t, "error", findings[0].Severity)
	assert.Equal(t, "no-tabs", findings[0].Code)
	assert.Equal(t, "rules", findings[0].Source)
	assert.Equal(t, "tab character", findings[0].Message)
	assert.Equal(t, 3, findings[0].Range.Start.Character)

	assert.Equal(t, "info", findings[1].Severity)
	assert.Equal(t, "indent=spaces", findings[1].Message)
}

func TestLintCleanFileWithMetrics(t *testing.T) {
	cfgPath, file := writeWorkspace(t, "<p>x</p>")

	stdout, stderr, err := execute("--config", cfgPath, "lint", "--metrics", file)
	require.NoError(t, err)

	findings := decodeFindings(t, stdout)
	require.Len(t, findings, 1)
	assert.Equal(t, "indent-style", findings[0].Code)

	assert.Contains(t, stderr, "embedls_dispatch_total{feature=lint.syntax} 1")
}

func TestLintFormatPhaseRunsNoSyntaxRules(t *testing.T) {
	cfgPath, file := writeWorkspace(t, "\t")

	stdout, _, err := execute("--config", cfgPath, "lint", "--phase", "format", file)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(stdout))
}

func TestLintBadInput(t *testing.T) {
	cfgPath, file := writeWorkspace(t, "x")

	_, _, err := execute("--config", cfgPath, "lint", "--phase", "nope", file)
	assert.Error(t, err)

	_, _, err = execute("--config", cfgPath, "lint", filepath.Join(t.TempDir(), "missing.html"))
	assert.Error(t, err)

	_, _, err = execute("--config", filepath.Join(t.TempDir(), "missing.toml"), "lint", file)
	assert.Error(t, err)

	_, _, err = execute("lint")
	assert.Error(t, err)
}

func TestLintHelpNamesPlainDocuments(t *testing.T) {
	stdout, _, err := execute("lint", "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "linted as plain documents")
}

func TestRulesCmd(t *testing.T) {
	cfgPath, _ := writeWorkspace(t, "")

	stdout, _, err := execute("--config", cfgPath, "rules")
	require.NoError(t, err)
	assert.Equal(t, "no-tabs\terror\nindent-style\tinfo\n", stdout)
}

func TestVersionCmd(t *testing.T) {
	stdout, _, err := execute("version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "embedls dev"))
}

func TestLanguageID(t *testing.T) {
	assert.Equal(t, "vue", languageID("a/App.VUE"))
	assert.Equal(t, "typescript", languageID("x.ts"))
	assert.Equal(t, "plaintext", languageID("README"))
}
