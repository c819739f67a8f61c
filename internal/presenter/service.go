// Package presenter answers "where should I present?" queries against a
// freshly captured host graph and records what it answered.
package presenter

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/1broseidon/perch/internal/discovery"
	"github.com/1broseidon/perch/internal/journal"
	"github.com/1broseidon/perch/internal/metrics"
	"github.com/1broseidon/perch/internal/platform"
	"github.com/1broseidon/perch/internal/scenegraph"
)

// GraphSource produces the graph a query resolves against. Each query calls it
// once.
type GraphSource func() (*scenegraph.Graph, error)

// LiveSource captures from a backend on every call.
func LiveSource(b platform.Backend, opts platform.CaptureOptions, m *metrics.Metrics) GraphSource {
	return func() (*scenegraph.Graph, error) {
		start := time.Now()
		g, err := platform.Capture(b, opts)
		m.ObserveCapture(time.Since(start), err)
		return g, err
	}
}

// SnapshotSource always returns g.
func SnapshotSource(g *scenegraph.Graph) GraphSource {
	return func() (*scenegraph.Graph, error) {
		return g, nil
	}
}

// Options configures a Service.
type Options struct {
	Source          GraphSource
	MaxChainDepth   int
	StatusBarHeight int
	Metrics         *metrics.Metrics
	Journal         *journal.Journal
	// NewRequestID defaults to uuid.NewString.
	NewRequestID func() string
}

// Service resolves queries. It holds no per-query state and is safe for
// concurrent use when its source is.
type Service struct {
	opts Options
}

// NewService returns a Service. A nil source yields an error on every query.
func NewService(opts Options) *Service {
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}
	if opts.StatusBarHeight <= 0 {
		opts.StatusBarHeight = 1
	}
	return &Service{opts: opts}
}

// Graph returns a fresh graph from the source.
func (s *Service) Graph() (*scenegraph.Graph, error) {
	if s.opts.Source == nil {
		return nil, fmt.Errorf("no graph source configured")
	}
	g, err := s.opts.Source()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return g, nil
}

func (s *Service) resolve(requestID string) (*scenegraph.Graph, *discovery.Resolver, error) {
	g, err := s.Graph()
	if err != nil {
		s.opts.Journal.Record(journal.ActionCaptureFailed, requestID, map[string]any{"err": err.Error()})
		return nil, nil, err
	}
	return g, discovery.NewResolver(g, discovery.WithMaxChainDepth(s.opts.MaxChainDepth)), nil
}

// MainWindow resolves the main window. excludeID names a window, or a
// controller whose hosting window is excluded; 0 or an unknown ID excludes
// nothing.
func (s *Service) MainWindow(excludeID uint32) (*WindowReport, error) {
	report := &WindowReport{RequestID: s.opts.NewRequestID()}

	g, r, err := s.resolve(report.RequestID)
	if err != nil {
		return nil, err
	}

	res := r.ResolveMainWindow(excludedWindow(g, excludeID))
	report.Rule = res.Rule.String()
	report.Candidates = res.Candidates
	if w, ok := res.Window.(*scenegraph.Window); ok {
		report.Found = true
		report.Window = windowInfo(w)
	}

	s.opts.Metrics.RecordResolution("window", report.Rule)
	s.opts.Journal.Record(journal.ActionResolveWindow, report.RequestID, map[string]any{
		"exclude":    excludeID,
		"rule":       report.Rule,
		"candidates": report.Candidates,
		"window":     reportWindowID(report.Window),
	})
	return report, nil
}

// MainScene resolves the scene that owns the main window.
func (s *Service) MainScene() (*SceneReport, error) {
	report := &SceneReport{RequestID: s.opts.NewRequestID()}

	_, r, err := s.resolve(report.RequestID)
	if err != nil {
		return nil, err
	}

	res := r.ResolveMainWindow(nil)
	report.Rule = res.Rule.String()
	if w, ok := res.Window.(*scenegraph.Window); ok {
		if scene := w.SceneInfo(); scene != nil {
			report.Found = true
			report.Scene = sceneInfo(scene)
		}
	}

	s.opts.Metrics.RecordResolution("scene", report.Rule)
	details := map[string]any{"rule": report.Rule}
	if report.Scene != nil {
		details["scene"] = report.Scene.ID
	}
	s.opts.Journal.Record(journal.ActionResolveScene, report.RequestID, details)
	return report, nil
}

// TopController resolves the topmost controller. selfID names the caller's
// own controller (or window); 0 or an unknown ID means no caller.
func (s *Service) TopController(selfID uint32) (*TopReport, error) {
	requestID := s.opts.NewRequestID()
	g, r, err := s.resolve(requestID)
	if err != nil {
		return nil, err
	}

	report := s.top(g, r, requestID, selfID)
	s.opts.Metrics.RecordResolution("top", report.Rule)
	s.opts.Journal.Record(journal.ActionResolveTop, report.RequestID, topDetails(report, selfID))
	return report, nil
}

// Anchor resolves the topmost controller and returns a status-bar strip
// along the top edge of its bounds. A controller without geometry reports
// outcome no-geometry.
func (s *Service) Anchor(selfID uint32) (*AnchorReport, error) {
	requestID := s.opts.NewRequestID()
	g, r, err := s.resolve(requestID)
	if err != nil {
		return nil, err
	}

	report := &AnchorReport{TopReport: *s.top(g, r, requestID, selfID)}
	if report.Found {
		if bounds := report.Controller.Bounds; !bounds.Empty() {
			anchor := bounds
			if anchor.Height > s.opts.StatusBarHeight {
				anchor.Height = s.opts.StatusBarHeight
			}
			report.Anchor = &anchor
		} else {
			report.Found = false
			report.Outcome = "no-geometry"
		}
	}

	s.opts.Metrics.RecordResolution("anchor", report.Rule)
	details := topDetails(&report.TopReport, selfID)
	if report.Anchor != nil {
		details["anchor"] = fmt.Sprintf("%dx%d+%d+%d", report.Anchor.Width, report.Anchor.Height, report.Anchor.X, report.Anchor.Y)
	}
	s.opts.Journal.Record(journal.ActionAnchor, report.RequestID, details)
	return report, nil
}

// Scenes lists every scene.
func (s *Service) Scenes() (*ScenesReport, error) {
	report := &ScenesReport{RequestID: s.opts.NewRequestID()}

	g, _, err := s.resolve(report.RequestID)
	if err != nil {
		return nil, err
	}

	scenes := g.Scenes()
	report.Scenes = make([]SceneInfo, 0, len(scenes))
	for _, scene := range scenes {
		report.Scenes = append(report.Scenes, *sceneInfo(scene))
	}

	s.opts.Journal.Record(journal.ActionListScenes, report.RequestID, map[string]any{"count": len(report.Scenes)})
	return report, nil
}

func (s *Service) top(g *scenegraph.Graph, r *discovery.Resolver, requestID string, selfID uint32) *TopReport {
	var self discovery.Controller
	if selfID != 0 {
		if n, ok := g.Controller(scenegraph.ID(selfID)); ok {
			self = n
		}
	}

	res := r.ResolveTopController(self)
	report := &TopReport{
		RequestID:  requestID,
		Outcome:    res.Outcome.String(),
		Rule:       res.Window.Rule.String(),
		Depth:      res.Depth,
		Navigation: res.Navigation,
	}
	if w, ok := res.Window.Window.(*scenegraph.Window); ok {
		report.Window = windowInfo(w)
	}
	if n, ok := res.Controller.(scenegraph.Node); ok {
		report.Found = true
		report.Controller = controllerInfo(n)
		s.opts.Metrics.ObserveChainDepth(res.Depth)
	}
	return report
}

func excludedWindow(g *scenegraph.Graph, id uint32) discovery.Window {
	if id == 0 {
		return nil
	}
	if w, ok := g.Window(scenegraph.ID(id)); ok {
		return w
	}
	if n, ok := g.Controller(scenegraph.ID(id)); ok {
		if host := n.Info().Host(); host != nil {
			return host
		}
	}
	return nil
}

func topDetails(report *TopReport, selfID uint32) map[string]any {
	details := map[string]any{
		"self":    selfID,
		"outcome": report.Outcome,
		"rule":    report.Rule,
		"depth":   report.Depth,
		"window":  reportWindowID(report.Window),
	}
	if report.Controller != nil {
		details["controller"] = report.Controller.ID
	}
	return details
}

func reportWindowID(w *WindowInfo) uint32 {
	if w == nil {
		return 0
	}
	return w.ID
}
