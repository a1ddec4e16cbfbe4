package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/embedls/internal/lsp"
)

func TestMetricsRecordDispatches(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s := newTestService(t,
		&fakePlugin{name: "p1"},
		&fakePlugin{name: "p2", hover: func(*lsp.TextDocument, lsp.Position) (*lsp.Hover, error) {
			return &lsp.Hover{Contents: lsp.MarkupContent{Value: "x"}}, nil
		}},
	)
	s.metrics = m

	_, err = s.Hover(context.Background(), notesURI, lsp.Position{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatches.WithLabelValues("hover")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.calls.WithLabelValues("hover")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.results.WithLabelValues("hover")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("hover")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetricsRecordFailures(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)

	s := newTestService(t, &fakePlugin{name: "p1", refs: func(*lsp.TextDocument, lsp.Position) ([]lsp.Location, error) {
		return nil, errors.New("down")
	}})
	s.metrics = m

	_, err = s.References(context.Background(), notesURI, lsp.Position{}, nil)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("references")))
}

func TestNewMetricsReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	require.NoError(t, err)
	second, err := NewMetrics(reg)
	require.NoError(t, err)

	first.observe("hover", 1, 1, false, time.Millisecond)
	second.observe("hover", 1, 0, false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.dispatches.WithLabelValues("hover")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observe("hover", 1, 1, true, time.Second)
	})
}
