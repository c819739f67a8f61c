package presenter

import (
	"log/slog"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/journal"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/platform"
)

// CaptureOptions maps the configured class lists onto capture options.
func CaptureOptions(cfg *config.Config, logger *slog.Logger) platform.CaptureOptions {
	return platform.CaptureOptions{
		ExcludeClasses:    cfg.ExcludeClasses.Strings(),
		NavigationClasses: cfg.NavigationClasses.Strings(),
		Logger:            logger,
	}
}

// NewLiveService builds a Service that captures from b on every query.
func NewLiveService(cfg *config.Config, b platform.Backend, m *metrics.Metrics, j *journal.Journal, logger *slog.Logger) *Service {
	return NewService(Options{
		Source:          LiveSource(b, CaptureOptions(cfg, logger), m),
		MaxChainDepth:   cfg.MaxChainDepth,
		StatusBarHeight: cfg.StatusBarHeight,
		Metrics:         m,
		Journal:         j,
	})
}

// OpenJournal opens the journal described by cfg.
func OpenJournal(cfg *config.Config) (*journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return journal.Open(journal.Config{})
	}
	path, err := cfg.JournalPath()
	if err != nil {
		return nil, err
	}
	return journal.Open(journal.Config{
		Enabled:   true,
		Level:     journal.ParseLevel(cfg.Journal.Level),
		FilePath:  path,
		MaxSizeMB: cfg.Journal.MaxSizeMB,
		MaxFiles:  cfg.Journal.MaxFiles,
	})
}
