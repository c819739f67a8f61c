package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	display
//	xauthority
//	log_level
//	metrics_addr
//	watch_interval
//	max_chain_depth
//	status_bar_height
//	exclude_classes
//	navigation_classes
//	journal
//	journal.enabled
//	journal.level
//	journal.file
//	journal.max_size_mb
//	journal.max_files
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	switch path {
	case "exclude_classes", "navigation_classes":
		return value, Source{Kind: SourceBuiltin, Name: path}, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if parts[0] == "journal" {
		return lookupJournal(cfg.Journal, path, parts)
	}
	if len(parts) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}

	switch parts[0] {
	case "display":
		return cfg.Display, nil
	case "xauthority":
		return cfg.XAuthority, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "metrics_addr":
		return cfg.MetricsAddr, nil
	case "watch_interval":
		return cfg.WatchInterval.String(), nil
	case "max_chain_depth":
		return cfg.MaxChainDepth, nil
	case "status_bar_height":
		return cfg.StatusBarHeight, nil
	case "exclude_classes":
		return cfg.ExcludeClasses, nil
	case "navigation_classes":
		return cfg.NavigationClasses, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

func lookupJournal(j JournalConfig, path string, parts []string) (any, error) {
	if len(parts) == 1 {
		return j, nil
	}
	if len(parts) != 2 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch parts[1] {
	case "enabled":
		return j.Enabled, nil
	case "level":
		return j.Level, nil
	case "file":
		return j.File, nil
	case "max_size_mb":
		return j.MaxSizeMB, nil
	case "max_files":
		return j.MaxFiles, nil
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}
