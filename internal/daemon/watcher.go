package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/perch/internal/journal"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/presenter"
)

// Sampler resolves the current main window.
type Sampler func() (*presenter.WindowReport, error)

// WatcherConfig holds configuration for the watcher.
type WatcherConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Journal  *journal.Journal
}

// Observation is the watcher's view of the main window.
type Observation struct {
	Window     uint32
	Title      string
	Rule       string
	Changes    int
	LastChange time.Time
}

// Watcher periodically samples the main window and reports changes.
type Watcher struct {
	mu       sync.Mutex
	interval time.Duration
	sample   Sampler
	journal  *journal.Journal
	metrics  *metrics.Metrics
	logger   *slog.Logger
	obs      Observation
	seeded   bool
	resetCh  chan struct{}
	now      func() time.Time
}

// NewWatcher creates a new watcher with the given configuration.
func NewWatcher(cfg WatcherConfig, sample Sampler) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		interval: normalizeInterval(cfg.Interval),
		sample:   sample,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		logger:   logger,
		resetCh:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

func normalizeInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Run starts the sampling loop. Blocks until context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.currentInterval())
	defer ticker.Stop()

	w.logger.Info("watcher started", "interval", w.currentInterval())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return
		case <-w.resetCh:
			ticker.Reset(w.currentInterval())
			w.SampleNow()
		case <-ticker.C:
			w.SampleNow()
		}
	}
}

// Reset swaps the interval and sampler. A running loop picks the change up
// immediately.
func (w *Watcher) Reset(interval time.Duration, sample Sampler) {
	w.mu.Lock()
	w.interval = normalizeInterval(interval)
	w.sample = sample
	w.mu.Unlock()

	select {
	case w.resetCh <- struct{}{}:
	default:
	}
}

// SetJournal replaces the journal used for change entries.
func (w *Watcher) SetJournal(j *journal.Journal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.journal = j
}

// Observation returns the last observation.
func (w *Watcher) Observation() Observation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.obs
}

func (w *Watcher) currentInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// SampleNow performs a single sampling pass.
func (w *Watcher) SampleNow() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("watcher panic recovered", "error", err)
		}
	}()

	w.mu.Lock()
	sample := w.sample
	w.mu.Unlock()
	if sample == nil {
		return
	}

	report, err := sample()
	if err != nil {
		w.logger.Warn("watcher: failed to resolve main window", "error", err)
		return
	}

	var id uint32
	var title string
	if report.Window != nil {
		id = report.Window.ID
		title = report.Window.Title
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	prev := w.obs.Window
	w.obs.Rule = report.Rule
	w.obs.Title = title
	if !w.seeded {
		w.seeded = true
		w.obs.Window = id
		w.logger.Info("main window", "window_id", id, "title", title, "rule", report.Rule)
		return
	}
	if id == prev {
		return
	}

	w.obs.Window = id
	w.obs.Changes++
	w.obs.LastChange = w.now()

	w.logger.Info("main window changed",
		"from", prev,
		"to", id,
		"title", title,
		"rule", report.Rule)
	w.metrics.RecordMainWindowChange()
	w.journal.Record(journal.ActionMainChanged, report.RequestID, map[string]any{
		"from":  prev,
		"to":    id,
		"rule":  report.Rule,
		"title": title,
	})
}
