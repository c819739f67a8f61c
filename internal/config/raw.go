package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawJournalConfig struct {
	Enabled   *bool   `yaml:"enabled"`
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawConfig struct {
	Include           IncludeList       `yaml:"include"`
	Display           *string           `yaml:"display"`
	XAuthority        *string           `yaml:"xauthority"`
	LogLevel          *string           `yaml:"log_level"`
	MetricsAddr       *string           `yaml:"metrics_addr"`
	WatchInterval     *string           `yaml:"watch_interval"`
	MaxChainDepth     *int              `yaml:"max_chain_depth"`
	StatusBarHeight   *int              `yaml:"status_bar_height"`
	ExcludeClasses    ClassList         `yaml:"exclude_classes"`
	NavigationClasses ClassList         `yaml:"navigation_classes"`
	Journal           *RawJournalConfig `yaml:"journal"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.MetricsAddr != nil {
		out.MetricsAddr = overlay.MetricsAddr
	}
	if overlay.WatchInterval != nil {
		out.WatchInterval = overlay.WatchInterval
	}
	if overlay.MaxChainDepth != nil {
		out.MaxChainDepth = overlay.MaxChainDepth
	}
	if overlay.StatusBarHeight != nil {
		out.StatusBarHeight = overlay.StatusBarHeight
	}
	if overlay.ExcludeClasses != nil {
		out.ExcludeClasses = overlay.ExcludeClasses
	}
	if overlay.NavigationClasses != nil {
		out.NavigationClasses = overlay.NavigationClasses
	}

	if overlay.Journal != nil {
		if out.Journal == nil {
			out.Journal = &RawJournalConfig{}
		} else {
			copied := *out.Journal
			out.Journal = &copied
		}
		if overlay.Journal.Enabled != nil {
			out.Journal.Enabled = overlay.Journal.Enabled
		}
		if overlay.Journal.Level != nil {
			out.Journal.Level = overlay.Journal.Level
		}
		if overlay.Journal.File != nil {
			out.Journal.File = overlay.Journal.File
		}
		if overlay.Journal.MaxSizeMB != nil {
			out.Journal.MaxSizeMB = overlay.Journal.MaxSizeMB
		}
		if overlay.Journal.MaxFiles != nil {
			out.Journal.MaxFiles = overlay.Journal.MaxFiles
		}
	}

	return out
}
