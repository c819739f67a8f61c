// Package daemon keeps a long-running perch process: it serves queries over
// IPC, watches the main window, and reloads configuration on request.
package daemon

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/perch/internal/config"
	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/journal"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/presenter"
)

// Options configures a Daemon.
type Options struct {
	// ConfigPath overrides the default config lookup.
	ConfigPath string
	Backend    platform.Backend
	// Display is reported by GET_STATUS.
	Display string
	// SocketPath overrides the runtime socket location.
	SocketPath string
	// Logger defaults to a text handler on stderr at the configured level.
	Logger *slog.Logger
}

// Daemon owns the IPC server, the watcher and the current configuration.
type Daemon struct {
	opts     Options
	logger   *slog.Logger
	logLevel *slog.LevelVar
	metrics  *metrics.Metrics
	server   *ipc.Server
	watcher  *Watcher

	mu      sync.Mutex
	loaded  *config.LoadResult
	journal *journal.Journal
}

// New loads configuration and prepares the daemon without starting it.
func New(opts Options) (*Daemon, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("daemon requires a platform backend")
	}

	res, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	d := &Daemon{
		opts:     opts,
		logger:   opts.Logger,
		logLevel: new(slog.LevelVar),
		metrics:  metrics.New(),
		loaded:   res,
	}
	d.logLevel.Set(cfg.SlogLevel())
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: d.logLevel}))
	}

	d.journal, err = presenter.OpenJournal(cfg)
	if err != nil {
		return nil, err
	}

	d.watcher = NewWatcher(WatcherConfig{
		Interval: cfg.WatchInterval,
		Logger:   d.logger,
		Metrics:  d.metrics,
		Journal:  d.journal,
	}, d.sampler(cfg))

	d.server, err = ipc.NewServer(ipc.ServerOptions{
		SocketPath: opts.SocketPath,
		Resolver:   d.service(cfg, d.journal),
		Reload:     d.Reload,
		Status:     d.fillStatus,
	})
	if err != nil {
		d.journal.Close()
		return nil, err
	}

	return d, nil
}

// Metrics returns the daemon's metrics.
func (d *Daemon) Metrics() *metrics.Metrics {
	return d.metrics
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded.Config
}

// Watcher returns the main window watcher.
func (d *Daemon) Watcher() *Watcher {
	return d.watcher
}

// Run serves until ctx is cancelled. SIGHUP reloads the configuration.
func (d *Daemon) Run(ctx context.Context) error {
	d.watcher.SampleNow()

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.watcher.Run(ctx)

	if addr := d.Config().MetricsAddr; addr != "" {
		go func() {
			log.Printf("Metrics listening on %s", addr)
			if err := d.metrics.Serve(ctx, addr); err != nil {
				log.Printf("Metrics server failed: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	log.Println("perch daemon started successfully")

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down perch daemon...")
			return d.Close()
		case <-sigCh:
			log.Println("Received SIGHUP, reloading config...")
			if err := d.Reload(); err != nil {
				log.Printf("Config reload failed: %v", err)
			}
		}
	}
}

// Reload re-reads configuration. An invalid configuration leaves the running
// one in place.
func (d *Daemon) Reload() error {
	res, err := loadConfig(d.opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg := res.Config

	d.mu.Lock()
	prev := d.loaded.Config
	j := d.journal
	if cfg.Journal != prev.Journal {
		nj, err := presenter.OpenJournal(cfg)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		j.Close()
		j = nj
		d.journal = nj
	}
	d.loaded = res
	d.mu.Unlock()

	if cfg.MetricsAddr != prev.MetricsAddr {
		log.Printf("Warning: metrics_addr change takes effect after restart")
	}
	if cfg.Display != prev.Display || cfg.XAuthority != prev.XAuthority {
		log.Printf("Warning: display change takes effect after restart")
	}

	d.logLevel.Set(cfg.SlogLevel())
	d.server.SetResolver(d.service(cfg, j))
	d.watcher.SetJournal(j)
	d.watcher.Reset(cfg.WatchInterval, d.sampler(cfg))

	log.Println("Config reloaded successfully")
	return nil
}

// Close releases the journal. Run calls it on shutdown.
func (d *Daemon) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.journal.Close()
}

func (d *Daemon) service(cfg *config.Config, j *journal.Journal) *presenter.Service {
	return presenter.NewLiveService(cfg, d.opts.Backend, d.metrics, j, d.logger)
}

// sampler resolves without journaling so periodic samples do not flood the
// journal; only changes are recorded.
func (d *Daemon) sampler(cfg *config.Config) Sampler {
	svc := presenter.NewService(presenter.Options{
		Source:          presenter.LiveSource(d.opts.Backend, presenter.CaptureOptions(cfg, d.logger), d.metrics),
		MaxChainDepth:   cfg.MaxChainDepth,
		StatusBarHeight: cfg.StatusBarHeight,
	})
	return func() (*presenter.WindowReport, error) {
		return svc.MainWindow(0)
	}
}

func (d *Daemon) fillStatus(s *ipc.StatusData) {
	s.Display = d.opts.Display

	obs := d.watcher.Observation()
	s.MainWindow = obs.Window
	s.MainWindowTitle = obs.Title
	s.MainWindowRule = obs.Rule
	s.Changes = obs.Changes
	if !obs.LastChange.IsZero() {
		s.LastChange = obs.LastChange.Format(time.RFC3339)
	}

	d.mu.Lock()
	s.ConfigFiles = append([]string(nil), d.loaded.Files...)
	d.mu.Unlock()
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
