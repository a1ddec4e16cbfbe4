package config

import (
	"context"
	"strings"
	"sync"

	"github.com/dshills/embedls/internal/lsp"
)

// Host serves workspace settings to rules. It implements
// lint.ConfigurationHost.
type Host struct {
	mu        sync.RWMutex
	settings  map[string]any
	listeners []func()
}

// NewHost creates a host over settings.
func NewHost(settings map[string]any) *Host {
	return &Host{settings: settings}
}

// GetConfiguration returns the value at a dotted section path, or nil if any
// segment is missing. The empty section returns every setting. The scope
// URI is accepted for interface compatibility; settings are workspace-wide.
func (h *Host) GetConfiguration(_ context.Context, section string, _ lsp.DocumentURI) (any, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if section == "" {
		return h.settings, nil
	}
	return lookup(h.settings, section), nil
}

// lookup walks nested maps. A literal key containing dots is preferred over
// descending, so YAML keys like "editor.tabSize" resolve too.
func lookup(m map[string]any, section string) any {
	if v, ok := m[section]; ok {
		return v
	}
	for i := strings.IndexByte(section, '.'); i >= 0; {
		head, rest := section[:i], section[i+1:]
		if child, ok := m[head].(map[string]any); ok {
			if v := lookup(child, rest); v != nil {
				return v
			}
		}
		next := strings.IndexByte(rest, '.')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil
}

// OnDidChangeConfiguration registers fn to run after every Update.
func (h *Host) OnDidChangeConfiguration(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Update replaces the settings and notifies listeners.
func (h *Host) Update(settings map[string]any) {
	h.mu.Lock()
	h.settings = settings
	listeners := make([]func(), len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
