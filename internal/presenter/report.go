package presenter

import (
	"github.com/1broseidon/perch/internal/scenegraph"
)

// WindowInfo describes a top-level window in a report.
type WindowInfo struct {
	ID      uint32          `json:"id"`
	Title   string          `json:"title,omitempty"`
	AppID   string          `json:"app_id,omitempty"`
	Key     bool            `json:"key"`
	Hidden  bool            `json:"hidden"`
	Bounds  scenegraph.Rect `json:"bounds"`
	SceneID int             `json:"scene_id"`
}

// ControllerInfo describes a controller in a report.
type ControllerInfo struct {
	ID         uint32          `json:"id"`
	Title      string          `json:"title,omitempty"`
	Bounds     scenegraph.Rect `json:"bounds"`
	Navigation bool            `json:"navigation"`
}

// SceneInfo describes a scene in a report.
type SceneInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name,omitempty"`
	State   string `json:"state"`
	Windows int    `json:"windows"`
}

// WindowReport answers a main window query.
type WindowReport struct {
	RequestID  string      `json:"request_id"`
	Found      bool        `json:"found"`
	Rule       string      `json:"rule"`
	Candidates int         `json:"candidates"`
	Window     *WindowInfo `json:"window,omitempty"`
}

// SceneReport answers a main scene query.
type SceneReport struct {
	RequestID string     `json:"request_id"`
	Found     bool       `json:"found"`
	Rule      string     `json:"rule"`
	Scene     *SceneInfo `json:"scene,omitempty"`
}

// TopReport answers a topmost-controller query.
type TopReport struct {
	RequestID string `json:"request_id"`
	Found     bool   `json:"found"`
	Outcome   string `json:"outcome"`
	Rule      string `json:"rule"`
	Depth     int    `json:"depth"`
	// Navigation is true when the controller is the head of a navigation stack.
	Navigation bool            `json:"navigation"`
	Window     *WindowInfo     `json:"window,omitempty"`
	Controller *ControllerInfo `json:"controller,omitempty"`
}

// AnchorReport places a status-bar strip on the topmost controller.
type AnchorReport struct {
	TopReport
	Anchor *scenegraph.Rect `json:"anchor,omitempty"`
}

// ScenesReport lists every scene in enumeration order.
type ScenesReport struct {
	RequestID string      `json:"request_id"`
	Scenes    []SceneInfo `json:"scenes"`
}

func windowInfo(w *scenegraph.Window) *WindowInfo {
	if w == nil {
		return nil
	}
	info := &WindowInfo{
		ID:     uint32(w.ID),
		Title:  w.Title,
		AppID:  w.AppID,
		Key:    w.Key,
		Hidden: w.Hidden,
		Bounds: w.Bounds,
	}
	if s := w.SceneInfo(); s != nil {
		info.SceneID = s.ID
	}
	return info
}

func controllerInfo(n scenegraph.Node) *ControllerInfo {
	if n == nil {
		return nil
	}
	c := n.Info()
	_, nav := n.(*scenegraph.NavigationController)
	return &ControllerInfo{
		ID:         uint32(c.ID),
		Title:      c.Title,
		Bounds:     c.Bounds,
		Navigation: nav,
	}
}

func sceneInfo(s *scenegraph.Scene) *SceneInfo {
	if s == nil {
		return nil
	}
	return &SceneInfo{
		ID:      s.ID,
		Name:    s.Name,
		State:   s.State.String(),
		Windows: len(s.WindowList()),
	}
}
