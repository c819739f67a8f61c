package x11

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	getenvFn   = os.Getenv
	setenvFn   = os.Setenv
	readDirFn  = os.ReadDir
	statFn     = os.Stat
	homeDirFn  = os.UserHomeDir
	socketsDir = "/tmp/.X11-unix"
)

// DisplayEnv is the display and authority file a connection should use.
type DisplayEnv struct {
	Display    string
	XAuthority string
}

// ResolveDisplayEnv picks DISPLAY and XAUTHORITY. An explicit configured
// value wins over the environment, which wins over the user's logind session.
// DISPLAY then falls back to the newest socket in /tmp/.X11-unix and
// XAUTHORITY to ~/.Xauthority when that file exists.
func ResolveDisplayEnv(display, xauthority string) (DisplayEnv, error) {
	env := DisplayEnv{
		Display:    strings.TrimSpace(display),
		XAuthority: strings.TrimSpace(xauthority),
	}

	if env.Display == "" {
		env.Display = strings.TrimSpace(getenvFn("DISPLAY"))
	}
	if env.Display == "" || (env.XAuthority == "" && getenvFn("XAUTHORITY") == "") {
		sessionDisplay, sessionXAuth := detectSessionFn()
		if env.Display == "" {
			env.Display = strings.TrimSpace(sessionDisplay)
		}
		if env.XAuthority == "" && getenvFn("XAUTHORITY") == "" {
			env.XAuthority = strings.TrimSpace(sessionXAuth)
		}
	}
	if env.Display == "" {
		env.Display = detectDisplayFromSockets(socketsDir)
	}
	if env.Display == "" {
		return env, fmt.Errorf("no X display found; set display in config (e.g. display: \":0\") or export DISPLAY")
	}

	if env.XAuthority == "" {
		env.XAuthority = strings.TrimSpace(getenvFn("XAUTHORITY"))
	}
	if env.XAuthority == "" {
		if home, err := homeDirFn(); err == nil && home != "" {
			candidate := filepath.Join(home, ".Xauthority")
			if _, err := statFn(candidate); err == nil {
				env.XAuthority = candidate
			}
		}
	}

	return env, nil
}

// Connect resolves the display environment and opens a connection. xgb reads
// the authority cookie from $XAUTHORITY, so a resolved value is exported first.
func Connect(display, xauthority string) (*Connection, error) {
	env, err := ResolveDisplayEnv(display, xauthority)
	if err != nil {
		return nil, err
	}
	if env.XAuthority != "" && getenvFn("XAUTHORITY") != env.XAuthority {
		if err := setenvFn("XAUTHORITY", env.XAuthority); err != nil {
			return nil, fmt.Errorf("failed to set XAUTHORITY: %w", err)
		}
	}
	conn, err := NewConnectionForDisplay(env.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11 display %s: %w", env.Display, err)
	}
	return conn, nil
}

func detectDisplayFromSockets(dir string) string {
	entries, err := readDirFn(dir)
	if err != nil {
		return ""
	}

	var displays []int
	for _, entry := range entries {
		name := entry.Name()
		if len(name) < 2 || name[0] != 'X' {
			continue
		}
		n, err := strconv.Atoi(name[1:])
		if err != nil {
			continue
		}
		displays = append(displays, n)
	}

	if len(displays) == 0 {
		return ""
	}
	sort.Ints(displays)
	return fmt.Sprintf(":%d", displays[len(displays)-1])
}
