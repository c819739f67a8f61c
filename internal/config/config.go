package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/perch/internal/discovery"
)

const (
	DefaultWatchInterval   = 2 * time.Second
	DefaultStatusBarHeight = 24
	DefaultJournalMaxSize  = 10
	DefaultJournalMaxFiles = 3

	minWatchInterval = 100 * time.Millisecond
)

// JournalConfig configures the resolution journal.
type JournalConfig struct {
	// Enabled turns the resolution journal on/off
	Enabled bool `yaml:"enabled"`
	// Level controls verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File is the journal path (default: ~/.local/share/perch/resolutions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files"`
}

// Config holds the application configuration.
type Config struct {
	Display           string        `yaml:"display,omitempty"`
	XAuthority        string        `yaml:"xauthority,omitempty"`
	LogLevel          string        `yaml:"log_level"`
	MetricsAddr       string        `yaml:"metrics_addr,omitempty"`
	WatchInterval     time.Duration `yaml:"watch_interval"`
	MaxChainDepth     int           `yaml:"max_chain_depth"`
	StatusBarHeight   int           `yaml:"status_bar_height"`
	ExcludeClasses    ClassList     `yaml:"exclude_classes"`
	NavigationClasses ClassList     `yaml:"navigation_classes"`
	Journal           JournalConfig `yaml:"journal"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:          "info",
		WatchInterval:     DefaultWatchInterval,
		MaxChainDepth:     discovery.DefaultMaxChainDepth,
		StatusBarHeight:   DefaultStatusBarHeight,
		ExcludeClasses:    BuiltinExcludeClasses(),
		NavigationClasses: BuiltinNavigationClasses(),
		Journal: JournalConfig{
			Level:     "info",
			MaxSizeMB: DefaultJournalMaxSize,
			MaxFiles:  DefaultJournalMaxFiles,
		},
	}
}

// JournalPath returns the configured journal file, or the default location
// under ~/.local/share/perch.
func (c *Config) JournalPath() (string, error) {
	if c != nil && strings.TrimSpace(c.Journal.File) != "" {
		return expandHome(c.Journal.File)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "perch", "resolutions.log"), nil
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	if c == nil {
		return slog.LevelInfo
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Validate() error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if addr := strings.TrimSpace(c.MetricsAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return &ValidationError{Path: "metrics_addr", Err: fmt.Errorf("metrics_addr must be host:port: %w", err)}
		}
	}
	if c.WatchInterval < minWatchInterval {
		return &ValidationError{Path: "watch_interval", Err: fmt.Errorf("watch_interval must be >= %s", minWatchInterval)}
	}
	if c.MaxChainDepth < 1 {
		return &ValidationError{Path: "max_chain_depth", Err: fmt.Errorf("max_chain_depth must be >= 1")}
	}
	if c.StatusBarHeight < 1 {
		return &ValidationError{Path: "status_bar_height", Err: fmt.Errorf("status_bar_height must be >= 1")}
	}
	for i, class := range c.ExcludeClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "exclude_classes", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}
	for i, class := range c.NavigationClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "navigation_classes", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}
	switch c.Journal.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "journal.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Journal.MaxSizeMB < 0 {
		return &ValidationError{Path: "journal.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Journal.MaxFiles < 0 {
		return &ValidationError{Path: "journal.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}

	return nil
}

func (c *Config) validationWarnings() []string {
	if c == nil {
		return nil
	}

	var warnings []string
	for _, class := range c.NavigationClasses {
		if c.ExcludeClasses.Contains(class) {
			warnings = append(warnings, fmt.Sprintf("%q is in both exclude_classes and navigation_classes; it will be excluded", class))
		}
	}
	return warnings
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
