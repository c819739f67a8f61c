package x11

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestParseLoginctlSessions(t *testing.T) {
	out := strings.Join([]string{
		"1 1000 george seat0",
		"2 1001 alice seat0",
		"3 1000 george seat1",
		"",
	}, "\n")
	got := parseLoginctlSessions(out, "1000")
	if len(got) != 2 || got[0] != "1" || got[1] != "3" {
		t.Fatalf("parseLoginctlSessions = %v, want [1 3]", got)
	}
}

func TestDetectSessionX11Env_ReadsLeaderEnvironment(t *testing.T) {
	origRun, origRead := runCommandOutputFn, readFileFn
	t.Cleanup(func() { runCommandOutputFn, readFileFn = origRun, origRead })

	uid := os.Getuid()
	runCommandOutputFn = func(name string, args ...string) (string, error) {
		switch strings.Join(args, " ") {
		case "list-sessions --no-legend":
			return fmt.Sprintf("4 %d me seat0\n7 %d me seat0\n", uid, uid), nil
		case "show-session 4 -p Display --value":
			return "n/a\n", nil
		case "show-session 7 -p Display --value":
			return ":0\n", nil
		case "show-session 7 -p Leader --value":
			return "4242\n", nil
		}
		return "", errors.New("unexpected command")
	}
	readFileFn = func(path string) ([]byte, error) {
		if path != "/proc/4242/environ" {
			return nil, os.ErrNotExist
		}
		return []byte("HOME=/home/me\x00DISPLAY=:1\x00XAUTHORITY=/run/user/1000/xauth\x00"), nil
	}

	display, xauth := detectSessionX11Env()
	if display != ":1" {
		t.Fatalf("display = %q, want %q", display, ":1")
	}
	if xauth != "/run/user/1000/xauth" {
		t.Fatalf("xauthority = %q, want %q", xauth, "/run/user/1000/xauth")
	}
}

func TestDetectSessionX11Env_NoLoginctl(t *testing.T) {
	origRun := runCommandOutputFn
	t.Cleanup(func() { runCommandOutputFn = origRun })
	runCommandOutputFn = func(string, ...string) (string, error) {
		return "", errors.New("not found")
	}

	if display, xauth := detectSessionX11Env(); display != "" || xauth != "" {
		t.Fatalf("detectSessionX11Env = (%q, %q), want empty", display, xauth)
	}
}

func TestResolveDisplayEnv_UsesSessionValues(t *testing.T) {
	stubEnv(t, map[string]string{}, t.TempDir())
	detectSessionFn = func() (string, string) { return ":5", "/tmp/xauth-detected" }

	env, err := ResolveDisplayEnv("", "")
	if err != nil {
		t.Fatalf("ResolveDisplayEnv returned error: %v", err)
	}
	if env.Display != ":5" {
		t.Fatalf("Display = %q, want %q", env.Display, ":5")
	}
	if env.XAuthority != "/tmp/xauth-detected" {
		t.Fatalf("XAuthority = %q, want %q", env.XAuthority, "/tmp/xauth-detected")
	}
}
