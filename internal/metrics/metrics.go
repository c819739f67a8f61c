// Package metrics exposes perch's Prometheus collectors on a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "perch"

// Metrics holds the collectors. All methods are safe on a nil receiver so
// callers can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	// resolutions counts resolution queries by query kind and selection rule.
	// Labels: query (window, scene, top, anchor), rule (key, foreground, first-visible, none)
	resolutions *prometheus.CounterVec

	// chainDepth observes how many presentation hops a top-controller query followed.
	chainDepth prometheus.Histogram

	captureDuration prometheus.Histogram
	captureErrors   prometheus.Counter
	mainChanges     prometheus.Counter
}

// New registers all collectors, plus Go runtime and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolution queries by query kind and selection rule",
		}, []string{"query", "rule"}),
		chainDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_depth",
			Help:      "Presentation hops followed to reach the topmost controller",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 16, 32, 64},
		}),
		captureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_duration_seconds",
			Help:      "Time spent reading window state from the display server",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		captureErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Failed window state captures",
		}),
		mainChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "main_window_changes_total",
			Help:      "Times the watcher observed a different main window",
		}),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordResolution counts one query.
func (m *Metrics) RecordResolution(query, rule string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(query, rule).Inc()
}

// ObserveChainDepth records the hop count of a top-controller query.
func (m *Metrics) ObserveChainDepth(depth int) {
	if m == nil {
		return
	}
	m.chainDepth.Observe(float64(depth))
}

// ObserveCapture records one capture attempt.
func (m *Metrics) ObserveCapture(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.captureDuration.Observe(d.Seconds())
	if err != nil {
		m.captureErrors.Inc()
	}
}

// RecordMainWindowChange counts a main window transition seen by the watcher.
func (m *Metrics) RecordMainWindowChange() {
	if m == nil {
		return
	}
	m.mainChanges.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
