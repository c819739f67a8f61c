package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"

	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/presenter"
	"github.com/1broseidon/perch/internal/scenegraph"
)

// exitNotFound is returned when a query finds nothing eligible.
const exitNotFound = 3

// windowIDFlag parses decimal or 0x-prefixed X11 window IDs.
type windowIDFlag uint32

func (f *windowIDFlag) String() string { return formatWindowID(uint32(*f)) }

func (f *windowIDFlag) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid window id %q", s)
	}
	*f = windowIDFlag(v)
	return nil
}

type queryOptions struct {
	jsonOut *bool
	path    *string
	direct  *bool
}

func addQueryFlags(fs *flag.FlagSet) queryOptions {
	return queryOptions{
		jsonOut: fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)"),
		path:    fs.String("path", "", "Config file path for direct queries (default: ~/.config/perch/config.yaml)"),
		direct:  fs.Bool("direct", false, "Read the display directly instead of asking the daemon"),
	}
}

// resolver asks the daemon and falls back to a direct display connection.
func (o queryOptions) resolver() ipc.Resolver {
	local := func() (ipc.Resolver, error) {
		svc, err := newDirectService(*o.path)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
	if *o.direct {
		return ipc.NewFallbackResolver(nil, local)
	}
	return ipc.NewFallbackResolver(ipc.NewClient(), local)
}

// newDirectService connects to the display for the lifetime of the process.
func newDirectService(path string) (*presenter.Service, error) {
	res, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg := res.Config

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, cfg.XAuthority)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display: %w", err)
	}
	j, err := presenter.OpenJournal(cfg)
	if err != nil {
		backend.Disconnect()
		return nil, err
	}
	return presenter.NewLiveService(cfg, backend, metrics.New(), j, nil), nil
}

func parseQueryFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", fs.Name())
		fs.Usage()
		return 2, false
	}
	return 0, true
}

func queryUsage(fs *flag.FlagSet, usage, summary string) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "Usage: perch "+usage)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, summary)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
}

func runWindow(args []string) int {
	fs := flag.NewFlagSet("window", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var exclude windowIDFlag
	fs.Var(&exclude, "exclude", "Window (or dialog) ID to exclude")
	opts := addQueryFlags(fs)
	fs.Usage = queryUsage(fs, "window [--exclude ID] [--json]", "Resolve the window new UI should attach to.")
	if code, ok := parseQueryFlags(fs, args); !ok {
		return code
	}

	report, err := opts.resolver().MainWindow(uint32(exclude))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printReport(*opts.jsonOut, report, report.Found, func() { printWindowReport(report) })
}

func runScene(args []string) int {
	fs := flag.NewFlagSet("scene", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opts := addQueryFlags(fs)
	fs.Usage = queryUsage(fs, "scene [--json]", "Resolve the scene (desktop) holding the main window.")
	if code, ok := parseQueryFlags(fs, args); !ok {
		return code
	}

	report, err := opts.resolver().MainScene()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printReport(*opts.jsonOut, report, report.Found, func() {
		if report.Scene == nil {
			fmt.Println("scene: none")
			return
		}
		printSceneLine(*report.Scene)
		fmt.Printf("rule:  %s\n", report.Rule)
	})
}

func runTop(args []string) int {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var self windowIDFlag
	fs.Var(&self, "self", "The caller's own window or dialog ID")
	opts := addQueryFlags(fs)
	fs.Usage = queryUsage(fs, "top [--self ID] [--json]", "Resolve the topmost visible controller of the main window.")
	if code, ok := parseQueryFlags(fs, args); !ok {
		return code
	}

	report, err := opts.resolver().TopController(uint32(self))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printReport(*opts.jsonOut, report, report.Found, func() { printTopReport(report) })
}

func runAnchor(args []string) int {
	fs := flag.NewFlagSet("anchor", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var self windowIDFlag
	fs.Var(&self, "self", "The caller's own window or dialog ID")
	opts := addQueryFlags(fs)
	fs.Usage = queryUsage(fs, "anchor [--self ID] [--json]", "Compute a status-bar strip along the top edge of the topmost controller.")
	if code, ok := parseQueryFlags(fs, args); !ok {
		return code
	}

	report, err := opts.resolver().Anchor(uint32(self))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printReport(*opts.jsonOut, report, report.Found, func() { printAnchorReport(report) })
}

func runScenes(args []string) int {
	fs := flag.NewFlagSet("scenes", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	opts := addQueryFlags(fs)
	fs.Usage = queryUsage(fs, "scenes [--json]", "List every scene (desktop) with its activation state.")
	if code, ok := parseQueryFlags(fs, args); !ok {
		return code
	}

	report, err := opts.resolver().Scenes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return printReport(*opts.jsonOut, report, true, func() { printScenes(report) })
}

// wantJSON is true when forced or when stdout is not a terminal.
func wantJSON(forced bool) bool {
	return forced || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printReport(forceJSON bool, report any, found bool, human func()) int {
	if wantJSON(forceJSON) {
		if code := printJSON(report); code != 0 {
			return code
		}
	} else {
		human()
	}
	if !found {
		return exitNotFound
	}
	return 0
}

func formatWindowID(id uint32) string {
	if id == 0 {
		return "none"
	}
	return fmt.Sprintf("0x%x", id)
}

func formatRect(r scenegraph.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

func printWindowLine(label string, w *presenter.WindowInfo) {
	if w == nil {
		fmt.Printf("%-11s none\n", label+":")
		return
	}
	fmt.Printf("%-11s %s %q", label+":", formatWindowID(w.ID), w.Title)
	if w.AppID != "" {
		fmt.Printf(" (%s)", w.AppID)
	}
	fmt.Println()
}

func printWindowReport(r *presenter.WindowReport) {
	printWindowLine("window", r.Window)
	fmt.Printf("rule:       %s\n", r.Rule)
	fmt.Printf("candidates: %d\n", r.Candidates)
	if r.Window != nil {
		fmt.Printf("scene:      %d\n", r.Window.SceneID)
		fmt.Printf("bounds:     %s\n", formatRect(r.Window.Bounds))
	}
}

func printTopReport(r *presenter.TopReport) {
	printWindowLine("window", r.Window)
	if r.Controller != nil {
		fmt.Printf("controller: %s %q\n", formatWindowID(r.Controller.ID), r.Controller.Title)
		fmt.Printf("bounds:     %s\n", formatRect(r.Controller.Bounds))
	} else {
		fmt.Println("controller: none")
	}
	fmt.Printf("outcome:    %s\n", r.Outcome)
	fmt.Printf("rule:       %s\n", r.Rule)
	fmt.Printf("depth:      %d\n", r.Depth)
	if r.Navigation {
		fmt.Println("navigation: true")
	}
}

func printAnchorReport(r *presenter.AnchorReport) {
	printTopReport(&r.TopReport)
	if r.Anchor != nil {
		fmt.Printf("anchor:     %s\n", formatRect(*r.Anchor))
	} else {
		fmt.Println("anchor:     none")
	}
}

func printSceneLine(s presenter.SceneInfo) {
	name := s.Name
	if name == "" {
		name = "-"
	}
	fmt.Printf("scene: %d %s [%s] windows=%d\n", s.ID, name, s.State, s.Windows)
}

func printScenes(r *presenter.ScenesReport) {
	if len(r.Scenes) == 0 {
		fmt.Println("no scenes")
		return
	}
	for _, s := range r.Scenes {
		printSceneLine(s)
	}
}
