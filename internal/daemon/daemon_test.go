package daemon

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/perch/internal/ipc"
	"github.com/1broseidon/perch/internal/platform"
)

type staticBackend struct {
	active  platform.WindowID
	clients []platform.Client
}

func (b *staticBackend) ActiveWindow() (platform.WindowID, error) { return b.active, nil }
func (b *staticBackend) CurrentDesktop() (int, error)              { return 0, nil }
func (b *staticBackend) Desktops() ([]platform.Desktop, error) {
	return []platform.Desktop{{Index: 0, Name: "main"}}, nil
}
func (b *staticBackend) Clients() ([]platform.Client, error) { return b.clients, nil }
func (b *staticBackend) EmbeddedChildren(platform.WindowID) ([]platform.Client, error) {
	return nil, nil
}

func newBackend() *staticBackend {
	return &staticBackend{
		active: 0x20,
		clients: []platform.Client{
			{ID: 0x10, AppID: "firefox", Title: "browser", Bounds: platform.Rect{Width: 800, Height: 600}},
			{ID: 0x20, AppID: "code", Title: "editor", Bounds: platform.Rect{X: 800, Width: 800, Height: 600}},
		},
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func testOptions(t *testing.T, configPath string) Options {
	t.Helper()
	dir, err := os.MkdirTemp("", "perch-daemon")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	return Options{
		ConfigPath: configPath,
		Backend:    newBackend(),
		Display:    ":9",
		SocketPath: filepath.Join(dir, "perch.sock"),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "max_chain_depth: 0\n")

	_, err := New(testOptions(t, path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_chain_depth")
}

func TestDaemon_ServesQueriesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "watch_interval: 1h\n")

	opts := testOptions(t, path)
	d, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d.Config().WatchInterval)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	client := ipc.NewClientAt(opts.SocketPath)
	require.Eventually(t, func() bool { return client.Ping() == nil }, 2*time.Second, 10*time.Millisecond)

	win, err := client.MainWindow(0)
	require.NoError(t, err)
	require.True(t, win.Found)
	assert.Equal(t, uint32(0x20), win.Window.ID)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, ":9", status.Display)
	assert.Equal(t, uint32(0x20), status.MainWindow)
	assert.Equal(t, "editor", status.MainWindowTitle)
	assert.Len(t, status.ConfigFiles, 1)

	// Excluding the editor's class leaves only the browser.
	writeFile(t, path, "watch_interval: 1h\nexclude_classes: [code]\n")
	require.NoError(t, client.Reload())
	assert.Equal(t, []string{"code"}, d.Config().ExcludeClasses.Strings())

	win, err = client.MainWindow(0)
	require.NoError(t, err)
	require.True(t, win.Found)
	assert.Equal(t, uint32(0x10), win.Window.ID)
	assert.Equal(t, "first-visible", win.Rule)

	require.Eventually(t, func() bool {
		return d.Watcher().Observation().Window == 0x10
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestDaemon_ReloadKeepsConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "status_bar_height: 30\n")

	d, err := New(testOptions(t, path))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	writeFile(t, path, "status_bar_height: nope\n")
	require.Error(t, d.Reload())
	assert.Equal(t, 30, d.Config().StatusBarHeight)

	writeFile(t, path, "status_bar_height: 18\n")
	require.NoError(t, d.Reload())
	assert.Equal(t, 18, d.Config().StatusBarHeight)
}

func TestDaemon_ReloadReopensJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	journalPath := filepath.Join(dir, "resolutions.log")
	writeFile(t, path, "journal:\n  enabled: false\n")

	opts := testOptions(t, path)
	d, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	writeFile(t, path, "journal:\n  enabled: true\n  file: "+journalPath+"\n")
	require.NoError(t, d.Reload())

	_, err = os.Stat(journalPath)
	assert.NoError(t, err)
}
