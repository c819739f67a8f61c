package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/presenter"
	"github.com/1broseidon/perch/internal/scenegraph"
)

func printSnapshotUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  perch snapshot dump [--path PATH] [--out FILE]")
	fmt.Fprintln(w, "  perch snapshot resolve --file FILE [--exclude ID] [--self ID] [--json] <window|scene|top|anchor|scenes>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Snapshots are YAML captures of the desktop that can be replayed offline.")
}

func runSnapshot(args []string) int {
	if len(args) == 0 {
		printSnapshotUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "dump":
		return runSnapshotDump(args[1:])
	case "resolve":
		return runSnapshotResolve(args[1:])
	case "help", "-h", "--help":
		printSnapshotUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot command: %s\n\n", args[0])
		printSnapshotUsage(os.Stderr)
		return 2
	}
}

func runSnapshotDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/perch/config.yaml)")
	out := fs.String("out", "", "Write the snapshot to FILE instead of stdout")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg := res.Config

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display, cfg.XAuthority)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to display: %v\n", err)
		return 1
	}
	defer backend.Disconnect()

	g, err := platform.Capture(backend, presenter.CaptureOptions(cfg, nil))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		w = f
	}

	if err := scenegraph.Encode(w, g); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSnapshotResolve(args []string) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	file := fs.String("file", "", "Snapshot file to resolve against (required)")
	path := fs.String("path", "", "Config file path for max_chain_depth and status_bar_height")
	jsonOut := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	var exclude, self windowIDFlag
	fs.Var(&exclude, "exclude", "Window (or dialog) ID to exclude (window query)")
	fs.Var(&self, "self", "The caller's own window or dialog ID (top and anchor queries)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *file == "" || fs.NArg() != 1 {
		printSnapshotUsage(os.Stderr)
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	g, err := scenegraph.Decode(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", *file, err)
		return 1
	}

	svc := presenter.NewService(presenter.Options{
		Source:          presenter.SnapshotSource(g),
		MaxChainDepth:   res.Config.MaxChainDepth,
		StatusBarHeight: res.Config.StatusBarHeight,
	})

	switch query := fs.Arg(0); query {
	case "window":
		report, err := svc.MainWindow(uint32(exclude))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printReport(*jsonOut, report, report.Found, func() { printWindowReport(report) })
	case "scene":
		report, err := svc.MainScene()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printReport(*jsonOut, report, report.Found, func() {
			if report.Scene == nil {
				fmt.Println("scene: none")
				return
			}
			printSceneLine(*report.Scene)
		})
	case "top":
		report, err := svc.TopController(uint32(self))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printReport(*jsonOut, report, report.Found, func() { printTopReport(report) })
	case "anchor":
		report, err := svc.Anchor(uint32(self))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printReport(*jsonOut, report, report.Found, func() { printAnchorReport(report) })
	case "scenes":
		report, err := svc.Scenes()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printReport(*jsonOut, report, true, func() { printScenes(report) })
	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot query: %s\n", query)
		return 2
	}
}
