package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/embedls/internal/lint"
)

func TestHostLookup(t *testing.T) {
	h := NewHost(map[string]any{
		"editor":      map[string]any{"tabSize": 2, "format": map[string]any{"enable": true}},
		"css.lint":    map[string]any{"level": "warn"},
		"plain.value": 7,
	})
	ctx := context.Background()

	tests := []struct {
		section string
		want    any
	}{
		{"editor.tabSize", 2},
		{"editor.format.enable", true},
		{"editor.format", map[string]any{"enable": true}},
		{"css.lint.level", "warn"},
		{"plain.value", 7},
		{"editor.missing", nil},
		{"nothing", nil},
		{"editor.tabSize.deeper", nil},
	}
	for _, tt := range tests {
		t.Run(tt.section, func(t *testing.T) {
			got, err := h.GetConfiguration(ctx, tt.section, "")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	all, _ := h.GetConfiguration(ctx, "", "")
	assert.Len(t, all, 3)
}

func TestHostUpdateNotifies(t *testing.T) {
	var _ lint.ConfigurationHost = (*Host)(nil)

	h := NewHost(nil)
	calls := 0
	h.OnDidChangeConfiguration(func() { calls++ })
	h.OnDidChangeConfiguration(func() { calls++ })

	h.Update(map[string]any{"a": 1})
	assert.Equal(t, 2, calls)

	v, _ := h.GetConfiguration(context.Background(), "a", "")
	assert.Equal(t, 1, v)
}
