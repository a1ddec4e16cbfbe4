package lint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lsp"
)

func TestScopedRuleMatchesPatterns(t *testing.T) {
	var ran []lsp.DocumentURI
	inner := PhaseFuncs{Syntax: func(_ context.Context, rc RuleContext) error {
		ran = append(ran, rc.Document.URI)
		return nil
	}}

	rule, err := Scoped(inner, "**/*.vue", "src/**/*.html")
	require.NoError(t, err)

	for _, uri := range []lsp.DocumentURI{
		"file:///work/App.vue",
		"file:///work/index.html",
		"file:///work/deep/nested/Comp.vue",
	} {
		rc := RuleContext{Document: lsp.NewTextDocument(uri, "x", 1, "")}
		require.NoError(t, rule.Run(context.Background(), PhaseSyntax, rc))
	}

	assert.Equal(t, []lsp.DocumentURI{"file:///work/App.vue", "file:///work/deep/nested/Comp.vue"}, ran)
}

func TestScopedRuleMatchesRelativeToRoot(t *testing.T) {
	var ran []lsp.DocumentURI
	inner := PhaseFuncs{Syntax: func(_ context.Context, rc RuleContext) error {
		ran = append(ran, rc.Document.URI)
		return nil
	}}

	rule, err := Scoped(inner, "src/**/*.vue")
	require.NoError(t, err)

	for _, uri := range []lsp.DocumentURI{
		"file:///work/src/App.vue",
		"file:///work/src/components/Nav.vue",
		"file:///work/lib/src/Other.vue",
		"file:///elsewhere/src/Out.vue",
	} {
		rc := RuleContext{RootURI: "file:///work", Document: lsp.NewTextDocument(uri, "vue", 1, "")}
		require.NoError(t, rule.Run(context.Background(), PhaseSyntax, rc))
	}

	assert.Equal(t, []lsp.DocumentURI{
		"file:///work/src/App.vue",
		"file:///work/src/components/Nav.vue",
	}, ran)
}

func TestScopedWithoutPatternsIsIdentity(t *testing.T) {
	inner := PhaseFuncs{}
	rule, err := Scoped(inner)
	require.NoError(t, err)
	assert.Equal(t, inner, rule)
}

func TestScopedRejectsBadPattern(t *testing.T) {
	_, err := Scoped(PhaseFuncs{}, "[unclosed")
	assert.ErrorIs(t, err, ErrBadPattern)
}
