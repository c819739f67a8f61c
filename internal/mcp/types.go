package mcp

import (
	"github.com/1broseidon/perch/internal/presenter"
	"github.com/1broseidon/perch/internal/scenegraph"
)

// ResolveMainWindowInput is the input for the resolve_main_window tool.
type ResolveMainWindowInput struct {
	ExcludeID uint32 `json:"exclude_id,omitempty" jsonschema:"X11 window ID to exclude; a dialog or tab ID excludes the window hosting it (default: none)"`
}

// ResolveMainWindowOutput is the output for the resolve_main_window tool.
type ResolveMainWindowOutput = presenter.WindowReport

// ResolveMainSceneInput is the input for the resolve_main_scene tool.
type ResolveMainSceneInput struct{}

// ResolveMainSceneOutput is the output for the resolve_main_scene tool.
type ResolveMainSceneOutput = presenter.SceneReport

// ResolveTopControllerInput is the input for the resolve_top_controller tool.
type ResolveTopControllerInput struct {
	SelfID uint32 `json:"self_id,omitempty" jsonschema:"X11 window ID of the caller's own window or dialog; the search skips its window (default: none)"`
}

// ResolveTopControllerOutput is the output for the resolve_top_controller tool.
type ResolveTopControllerOutput = presenter.TopReport

// StatusBarAnchorInput is the input for the status_bar_anchor tool.
type StatusBarAnchorInput struct {
	SelfID uint32 `json:"self_id,omitempty" jsonschema:"X11 window ID of the caller's own window or dialog (default: none)"`
}

// StatusBarAnchorOutput is the output for the status_bar_anchor tool.
type StatusBarAnchorOutput struct {
	RequestID  string                    `json:"request_id"`
	Found      bool                      `json:"found"`
	Outcome    string                    `json:"outcome"`
	Rule       string                    `json:"rule"`
	Depth      int                       `json:"depth"`
	Navigation bool                      `json:"navigation"`
	Window     *presenter.WindowInfo     `json:"window,omitempty"`
	Controller *presenter.ControllerInfo `json:"controller,omitempty"`
	Anchor     *scenegraph.Rect          `json:"anchor,omitempty"`
}

// ListScenesInput is the input for the list_scenes tool.
type ListScenesInput struct{}

// ListScenesOutput is the output for the list_scenes tool.
type ListScenesOutput = presenter.ScenesReport
