package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/perch/internal/journal"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/presenter"
)

// scriptedSampler returns one report per call, repeating the last.
type scriptedSampler struct {
	mu      sync.Mutex
	reports []*presenter.WindowReport
	calls   int
}

func (s *scriptedSampler) sample() (*presenter.WindowReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.reports) {
		i = len(s.reports) - 1
	}
	s.calls++
	r := s.reports[i]
	if r == nil {
		return nil, errors.New("capture failed")
	}
	return r, nil
}

func (s *scriptedSampler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func windowReport(id uint32, title string) *presenter.WindowReport {
	r := &presenter.WindowReport{RequestID: "req", Rule: "none"}
	if id != 0 {
		r.Found = true
		r.Rule = "key"
		r.Window = &presenter.WindowInfo{ID: id, Title: title}
	}
	return r
}

func TestWatcher_RecordsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.log")
	j, err := journal.Open(journal.Config{Enabled: true, Level: journal.LevelInfo, FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)
	m := metrics.New()

	s := &scriptedSampler{reports: []*presenter.WindowReport{
		windowReport(10, "editor"),
		windowReport(10, "editor"),
		nil,
		windowReport(20, "terminal"),
		windowReport(0, ""),
	}}
	w := NewWatcher(WatcherConfig{Metrics: m, Journal: j}, s.sample)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	w.SampleNow()
	obs := w.Observation()
	assert.Equal(t, uint32(10), obs.Window)
	assert.Equal(t, 0, obs.Changes)
	assert.True(t, obs.LastChange.IsZero())

	w.SampleNow() // unchanged
	w.SampleNow() // sampler error keeps the previous observation
	assert.Equal(t, uint32(10), w.Observation().Window)

	w.SampleNow()
	obs = w.Observation()
	assert.Equal(t, uint32(20), obs.Window)
	assert.Equal(t, "terminal", obs.Title)
	assert.Equal(t, 1, obs.Changes)
	assert.Equal(t, fixed, obs.LastChange)

	w.SampleNow()
	obs = w.Observation()
	assert.Equal(t, uint32(0), obs.Window)
	assert.Equal(t, "none", obs.Rule)
	assert.Equal(t, 2, obs.Changes)

	expected := `
# HELP perch_main_window_changes_total Times the watcher observed a different main window
# TYPE perch_main_window_changes_total counter
perch_main_window_changes_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "perch_main_window_changes_total"))

	require.NoError(t, j.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[MAIN-CHANGED] request=req")
	assert.Contains(t, lines[0], "from=10")
	assert.Contains(t, lines[0], "to=20")
	assert.Contains(t, lines[1], "to=0")
}

func TestWatcher_NilSamplerIsNoop(t *testing.T) {
	w := NewWatcher(WatcherConfig{}, nil)
	w.SampleNow()
	assert.Equal(t, Observation{}, w.Observation())
}

func TestWatcher_RecoversFromPanics(t *testing.T) {
	w := NewWatcher(WatcherConfig{}, func() (*presenter.WindowReport, error) {
		panic("boom")
	})
	assert.NotPanics(t, w.SampleNow)
}

func TestWatcher_RunSamplesUntilCancelled(t *testing.T) {
	s := &scriptedSampler{reports: []*presenter.WindowReport{windowReport(10, "editor")}}
	w := NewWatcher(WatcherConfig{Interval: 10 * time.Millisecond}, s.sample)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, uint32(10), w.Observation().Window)
}

func TestWatcher_ResetSwapsSampler(t *testing.T) {
	first := &scriptedSampler{reports: []*presenter.WindowReport{windowReport(10, "editor")}}
	second := &scriptedSampler{reports: []*presenter.WindowReport{windowReport(20, "terminal")}}
	w := NewWatcher(WatcherConfig{Interval: time.Hour}, first.sample)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Reset(time.Hour, second.sample)
	require.Eventually(t, func() bool { return w.Observation().Window == 20 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, first.count())
	assert.Equal(t, time.Hour, w.currentInterval())
}
