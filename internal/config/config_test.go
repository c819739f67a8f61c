package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if !cfg.NavigationClasses.Contains("tabbed") {
		t.Fatalf("expected builtin navigation classes to include tabbed")
	}
	if cfg.MaxChainDepth != 64 {
		t.Fatalf("expected max_chain_depth 64, got %d", cfg.MaxChainDepth)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.WatchInterval != DefaultWatchInterval {
		t.Fatalf("expected default watch_interval, got %s", res.Config.WatchInterval)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.StatusBarHeight != DefaultStatusBarHeight {
		t.Fatalf("expected status_bar_height %d, got %d", DefaultStatusBarHeight, res.Config.StatusBarHeight)
	}
}

func TestLoadFromPath_DisplayAndXAuthority(t *testing.T) {
	data := strings.Join([]string{
		"display: \":1\"",
		"xauthority: \"/tmp/test-xauth\"",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}
	if res.Config.XAuthority != "/tmp/test-xauth" {
		t.Fatalf("expected xauthority /tmp/test-xauth, got %q", res.Config.XAuthority)
	}

	val, src, err := Explain(res, "display")
	if err != nil {
		t.Fatalf("explain display: %v", err)
	}
	if val != ":1" {
		t.Fatalf("expected explain display :1, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected display source file line 1, got %#v", src)
	}
}

func TestLoadFromPath_ResolverSettings(t *testing.T) {
	data := strings.Join([]string{
		"watch_interval: 750ms",
		"max_chain_depth: 8",
		"status_bar_height: 30",
		"metrics_addr: 127.0.0.1:9464",
		"exclude_classes: Polybar",
		"navigation_classes:",
		"  - tabbed",
		"  - Zathura",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.WatchInterval != 750*time.Millisecond {
		t.Fatalf("watch_interval = %s, want 750ms", cfg.WatchInterval)
	}
	if cfg.MaxChainDepth != 8 || cfg.StatusBarHeight != 30 {
		t.Fatalf("unexpected depth/height: %d/%d", cfg.MaxChainDepth, cfg.StatusBarHeight)
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("metrics_addr = %q", cfg.MetricsAddr)
	}
	if len(cfg.ExcludeClasses) != 1 || !cfg.ExcludeClasses.Contains("polybar") {
		t.Fatalf("exclude_classes = %v", cfg.ExcludeClasses)
	}
	if len(cfg.NavigationClasses) != 2 || !cfg.NavigationClasses.Contains("zathura") {
		t.Fatalf("navigation_classes = %v", cfg.NavigationClasses)
	}
}

func TestLoadFromPath_EmptyClassListOverridesBuiltin(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "exclude_classes: []\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.ExcludeClasses) != 0 {
		t.Fatalf("expected empty exclude_classes, got %v", res.Config.ExcludeClasses)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorsCarrySource(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{name: "log level", data: "log_level: loud\n", path: "log_level"},
		{name: "watch interval parse", data: "watch_interval: soon\n", path: "watch_interval"},
		{name: "watch interval too small", data: "watch_interval: 1ms\n", path: "watch_interval"},
		{name: "chain depth", data: "max_chain_depth: 0\n", path: "max_chain_depth"},
		{name: "status bar", data: "status_bar_height: 0\n", path: "status_bar_height"},
		{name: "metrics addr", data: "metrics_addr: nope\n", path: "metrics_addr"},
		{name: "empty class", data: "navigation_classes: [\"\"]\n", path: "navigation_classes"},
		{name: "journal level", data: "journal:\n  level: chatty\n", path: "journal.level"},
		{name: "journal files", data: "journal:\n  max_files: -1\n", path: "journal.max_files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.data)

			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
			if verr.Source.Kind != SourceFile || verr.Source.File == "" {
				t.Fatalf("expected file source, got %#v", verr.Source)
			}
			if !strings.Contains(err.Error(), ":1:") && !strings.Contains(err.Error(), ":2:") {
				t.Fatalf("expected file:line prefix, got %v", err)
			}
		})
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "status_bar_height: 20\nmax_chain_depth: 5\n")
	writeConfig(t, configD, "20-override.yaml", "status_bar_height: 22\n")
	writeConfig(t, configD, "notes.txt", "status_bar_height: nonsense\n")

	// Main file overrides includes.
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"status_bar_height: 26",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.StatusBarHeight != 26 {
		t.Fatalf("expected status_bar_height 26, got %d", res.Config.StatusBarHeight)
	}
	if res.Config.MaxChainDepth != 5 {
		t.Fatalf("expected max_chain_depth from include, got %d", res.Config.MaxChainDepth)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 loaded files, got %v", res.Files)
	}

	_, src, err := Explain(res, "max_chain_depth")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if !strings.HasSuffix(src.File, "10-base.yaml") {
		t.Fatalf("expected source from include, got %#v", src)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_SharedIncludeLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "common.yaml", "max_chain_depth: 7\n")
	writeConfig(t, dir, "left.yaml", "include: common.yaml\nstatus_bar_height: 18\n")
	writeConfig(t, dir, "right.yaml", "include: common.yaml\n")
	path := writeConfig(t, dir, "config.yaml", "include:\n  - left.yaml\n  - right.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 4 {
		t.Fatalf("expected 4 loaded files, got %v", res.Files)
	}
	if !strings.HasSuffix(res.Files[len(res.Files)-1], "config.yaml") {
		t.Fatalf("expected main file last, got %v", res.Files)
	}
	if res.Config.MaxChainDepth != 7 || res.Config.StatusBarHeight != 18 {
		t.Fatalf("unexpected merge result: depth=%d bar=%d", res.Config.MaxChainDepth, res.Config.StatusBarHeight)
	}
	if src := res.Sources["status_bar_height"]; !strings.HasSuffix(src.File, "left.yaml") || src.Line != 2 {
		t.Fatalf("unexpected source for status_bar_height: %#v", src)
	}
}

func TestExplain_SourceKinds(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "journal:\n  enabled: true\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "journal.enabled")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != true || src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("journal.enabled = %#v from %#v", val, src)
	}

	_, src, err = Explain(res, "navigation_classes")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceBuiltin {
		t.Fatalf("expected builtin source, got %#v", src)
	}

	val, src, err = Explain(res, "watch_interval")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != "2s" || src.Kind != SourceDefault {
		t.Fatalf("watch_interval = %#v from %#v", val, src)
	}

	for _, bad := range []string{"", "nope", "journal.nope", "display.extra"} {
		if _, _, err := Explain(res, bad); err == nil {
			t.Fatalf("expected error for path %q", bad)
		}
	}
}

func TestClassList_RejectsNonStrings(t *testing.T) {
	var holder struct {
		Classes ClassList `yaml:"classes"`
	}
	if err := yaml.Unmarshal([]byte("classes:\n  - {a: b}\n"), &holder); err == nil {
		t.Fatalf("expected error for mapping entry")
	}
	if err := yaml.Unmarshal([]byte("classes: 5\n"), &holder); err == nil {
		t.Fatalf("expected error for integer")
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for level, want := range cases {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if got := cfg.SlogLevel(); got != want {
			t.Fatalf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestConfig_JournalPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	got, err := cfg.JournalPath()
	if err != nil {
		t.Fatalf("JournalPath: %v", err)
	}
	if want := filepath.Join(home, ".local", "share", "perch", "resolutions.log"); got != want {
		t.Fatalf("JournalPath = %q, want %q", got, want)
	}

	cfg.Journal.File = "~/logs/perch.log"
	got, err = cfg.JournalPath()
	if err != nil {
		t.Fatalf("JournalPath: %v", err)
	}
	if want := filepath.Join(home, "logs", "perch.log"); got != want {
		t.Fatalf("JournalPath = %q, want %q", got, want)
	}
}

func TestConfig_MarshalRoundTripsWatchInterval(t *testing.T) {
	cfg := DefaultConfig()
	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "watch_interval: 2s") {
		t.Fatalf("expected human-readable watch_interval, got:\n%s", out)
	}
}
