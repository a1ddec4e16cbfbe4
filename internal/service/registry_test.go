package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lint"
)

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"html", "css", "typescript"} {
		require.NoError(t, r.Register(id, &fakePlugin{name: id}))
	}

	assert.Equal(t, []string{"html", "css", "typescript"}, r.IDs())
	assert.Equal(t, 3, r.Len())

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "css", snap[1].ID)

	p, ok := r.Get("typescript")
	require.True(t, ok)
	assert.Equal(t, "typescript", p.(*fakePlugin).name)

	_, ok = r.Get("json")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicatesAndNil(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("html", &fakePlugin{name: "html"}))

	err := r.Register("html", &fakePlugin{name: "again"})
	assert.True(t, errors.Is(err, ErrPluginExists))

	assert.Error(t, r.Register("nil", nil))
	assert.Equal(t, 1, r.Len())
}

func TestSnapshotIsIsolated(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", &fakePlugin{name: "a"}))
	snap := r.Snapshot()

	require.NoError(t, r.Register("b", &fakePlugin{name: "b"}))
	assert.Len(t, snap, 1)
}

func TestRuleHooksFor(t *testing.T) {
	specific := localeHook("specific").OnSyntax
	fallback := localeHook("fallback").OnSyntax
	hooks := RuleHooks{OnAny: fallback, OnSyntax: specific}

	rc, err := hooks.For(lint.PhaseSyntax)(context.Background(), lint.RuleContext{})
	require.NoError(t, err)
	assert.Equal(t, "specific", rc.Locale)

	rc, err = hooks.For(lint.PhaseFormat)(context.Background(), lint.RuleContext{})
	require.NoError(t, err)
	assert.Equal(t, "fallback", rc.Locale)

	var empty RuleHooks
	assert.Nil(t, empty.For(lint.PhaseSemantic))
}
