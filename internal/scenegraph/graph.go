// Package scenegraph is an immutable, in-memory host graph implementing the
// discovery interfaces. Graphs are assembled with a Builder (from a live
// capture or a YAML snapshot) and never change afterwards, which makes them
// safe to resolve against from several goroutines.
package scenegraph

import (
	"github.com/1broseidon/perch/internal/discovery"
)

// ID identifies windows and controllers. On X11 it is the window XID.
type ID uint32

// Rect describes a rectangle in screen coordinates.
type Rect struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Scene is a group of windows sharing an activation state.
type Scene struct {
	ID    int
	Name  string
	State discovery.ActivationState

	windows []*Window
}

var _ discovery.Scene = (*Scene)(nil)

func (s *Scene) ActivationState() discovery.ActivationState { return s.State }

func (s *Scene) Windows() []discovery.Window {
	out := make([]discovery.Window, 0, len(s.windows))
	for _, w := range s.windows {
		out = append(out, w)
	}
	return out
}

// WindowList returns the scene's windows with their concrete type.
func (s *Scene) WindowList() []*Window {
	return append([]*Window(nil), s.windows...)
}

// Window is a top-level surface.
type Window struct {
	ID     ID
	Title  string
	AppID  string
	Key    bool
	Hidden bool
	Bounds Rect

	scene *Scene
	root  Node
}

var _ discovery.Window = (*Window)(nil)

func (w *Window) IsKey() bool    { return w.Key }
func (w *Window) IsHidden() bool { return w.Hidden }

func (w *Window) Scene() discovery.Scene {
	if w.scene == nil {
		return nil
	}
	return w.scene
}

func (w *Window) RootController() discovery.Controller {
	if w.root == nil {
		return nil
	}
	return w.root
}

// SceneInfo returns the owning scene with its concrete type.
func (w *Window) SceneInfo() *Scene { return w.scene }

// Root returns the root node, or nil.
func (w *Window) Root() Node { return w.root }

// Node is a controller in the graph: either *Controller or
// *NavigationController.
type Node interface {
	discovery.Controller
	Info() *Controller
}

// Controller is a presentable node. On X11 it is a window's own content or a
// transient dialog.
type Controller struct {
	ID     ID
	Title  string
	Bounds Rect

	presented Node
	window    *Window
}

var _ Node = (*Controller)(nil)

func (c *Controller) PresentedController() discovery.Controller {
	if c.presented == nil {
		return nil
	}
	return c.presented
}

func (c *Controller) Window() discovery.Window {
	if c.window == nil {
		return nil
	}
	return c.window
}

func (c *Controller) Info() *Controller { return c }

// Presented returns the presented node, or nil.
func (c *Controller) Presented() Node { return c.presented }

// Host returns the hosting window, or nil when detached.
func (c *Controller) Host() *Window { return c.window }

// NavigationController is a container whose visible content is the last
// element of its stack.
type NavigationController struct {
	Controller

	stack []Node
}

var _ discovery.Navigator = (*NavigationController)(nil)

func (n *NavigationController) StackedControllers() []discovery.Controller {
	out := make([]discovery.Controller, 0, len(n.stack))
	for _, c := range n.stack {
		out = append(out, c)
	}
	return out
}

// Stack returns the stacked nodes with their concrete type.
func (n *NavigationController) Stack() []Node {
	return append([]Node(nil), n.stack...)
}

// Graph is an immutable scene/window/controller snapshot.
type Graph struct {
	scenes  []*Scene
	windows map[ID]*Window
	nodes   map[ID]Node
}

var _ discovery.SceneProvider = (*Graph)(nil)

func (g *Graph) ConnectedScenes() []discovery.Scene {
	if g == nil {
		return nil
	}
	out := make([]discovery.Scene, 0, len(g.scenes))
	for _, s := range g.scenes {
		out = append(out, s)
	}
	return out
}

// Scenes returns scenes in enumeration order.
func (g *Graph) Scenes() []*Scene {
	if g == nil {
		return nil
	}
	return append([]*Scene(nil), g.scenes...)
}

// Window looks up a top-level window.
func (g *Graph) Window(id ID) (*Window, bool) {
	if g == nil {
		return nil, false
	}
	w, ok := g.windows[id]
	return w, ok
}

// Controller looks up any node (window content, presented or stacked).
func (g *Graph) Controller(id ID) (Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// WindowCount returns the number of top-level windows.
func (g *Graph) WindowCount() int {
	if g == nil {
		return 0
	}
	return len(g.windows)
}
