package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects dispatch statistics per feature.
// A nil *Metrics records nothing.
type Metrics struct {
	dispatches *prometheus.CounterVec
	calls      *prometheus.CounterVec
	results    *prometheus.CounterVec
	failures   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the dispatch collectors and registers them with reg.
// A nil reg leaves them unregistered. Collectors already registered by an
// earlier Metrics on the same registerer are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedls",
			Name:      "dispatch_total",
			Help:      "Feature dispatches started.",
		}, []string{"feature"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedls",
			Name:      "provider_calls_total",
			Help:      "Plugin and rule invocations made by dispatches.",
		}, []string{"feature"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedls",
			Name:      "results_total",
			Help:      "Source-translated results accumulated by dispatches.",
		}, []string{"feature"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedls",
			Name:      "dispatch_failures_total",
			Help:      "Dispatches aborted by a plugin or rule failure.",
		}, []string{"feature"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embedls",
			Name:      "dispatch_seconds",
			Help:      "Dispatch latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"feature"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.dispatches, err = registerOrReuse(reg, m.dispatches); err != nil {
		return nil, err
	}
	if m.calls, err = registerOrReuse(reg, m.calls); err != nil {
		return nil, err
	}
	if m.results, err = registerOrReuse(reg, m.results); err != nil {
		return nil, err
	}
	if m.failures, err = registerOrReuse(reg, m.failures); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// observe records one finished dispatch.
func (m *Metrics) observe(feature string, calls, results int, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	m.dispatches.WithLabelValues(feature).Inc()
	m.calls.WithLabelValues(feature).Add(float64(calls))
	m.results.WithLabelValues(feature).Add(float64(results))
	if failed {
		m.failures.WithLabelValues(feature).Inc()
	}
	m.duration.WithLabelValues(feature).Observe(d.Seconds())
}
