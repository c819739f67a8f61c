package config

import (
	"fmt"
	"strings"
	"time"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies a merged raw config on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.MetricsAddr != nil {
		cfg.MetricsAddr = strings.TrimSpace(*raw.MetricsAddr)
	}
	if raw.WatchInterval != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.WatchInterval))
		if err != nil {
			return nil, &ValidationError{Path: "watch_interval", Err: fmt.Errorf("invalid duration %q", *raw.WatchInterval)}
		}
		cfg.WatchInterval = d
	}
	if raw.MaxChainDepth != nil {
		cfg.MaxChainDepth = *raw.MaxChainDepth
	}
	if raw.StatusBarHeight != nil {
		cfg.StatusBarHeight = *raw.StatusBarHeight
	}
	if raw.ExcludeClasses != nil {
		cfg.ExcludeClasses = raw.ExcludeClasses
	}
	if raw.NavigationClasses != nil {
		cfg.NavigationClasses = raw.NavigationClasses
	}

	if raw.Journal != nil {
		if raw.Journal.Enabled != nil {
			cfg.Journal.Enabled = *raw.Journal.Enabled
		}
		if raw.Journal.Level != nil {
			cfg.Journal.Level = *raw.Journal.Level
		}
		if raw.Journal.File != nil {
			cfg.Journal.File = *raw.Journal.File
		}
		cfg.Journal.MaxSizeMB = derefInt(raw.Journal.MaxSizeMB, cfg.Journal.MaxSizeMB)
		cfg.Journal.MaxFiles = derefInt(raw.Journal.MaxFiles, cfg.Journal.MaxFiles)
	}

	return cfg, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
