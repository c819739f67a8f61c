package scenegraph

import (
	"errors"
	"fmt"

	"github.com/1broseidon/perch/internal/discovery"
)

// WindowSpec describes a top-level window. Its root controller shares the
// window's ID; Navigation makes that root a NavigationController.
type WindowSpec struct {
	ID         ID
	Title      string
	AppID      string
	Key        bool
	Hidden     bool
	Bounds     Rect
	Navigation bool
}

// ControllerSpec describes a presented or stacked node.
type ControllerSpec struct {
	ID         ID
	Title      string
	Bounds     Rect
	Navigation bool
}

// Builder assembles a Graph. Methods record the first problem for each call
// and Build reports all of them.
type Builder struct {
	scenes      []*Scene
	sceneByID   map[int]*Scene
	windows     map[ID]*Window
	nodes       map[ID]Node
	presentedBy map[ID]ID
	stackedIn   map[ID]ID
	errs        []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		sceneByID:   make(map[int]*Scene),
		windows:     make(map[ID]*Window),
		nodes:       make(map[ID]Node),
		presentedBy: make(map[ID]ID),
		stackedIn:   make(map[ID]ID),
	}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
	return b
}

// AddScene appends a scene. Scene order is enumeration order.
func (b *Builder) AddScene(id int, name string, state discovery.ActivationState) *Builder {
	if _, ok := b.sceneByID[id]; ok {
		return b.fail("scene %d: duplicate id", id)
	}
	s := &Scene{ID: id, Name: name, State: state}
	b.scenes = append(b.scenes, s)
	b.sceneByID[id] = s
	return b
}

// AddWindow appends a window to a scene and creates its root controller.
func (b *Builder) AddWindow(sceneID int, spec WindowSpec) *Builder {
	s, ok := b.sceneByID[sceneID]
	if !ok {
		return b.fail("window %d: unknown scene %d", spec.ID, sceneID)
	}
	if _, ok := b.nodes[spec.ID]; ok {
		return b.fail("window %d: duplicate id", spec.ID)
	}

	w := &Window{
		ID:     spec.ID,
		Title:  spec.Title,
		AppID:  spec.AppID,
		Key:    spec.Key,
		Hidden: spec.Hidden,
		Bounds: spec.Bounds,
		scene:  s,
	}
	w.root = newNode(ControllerSpec{
		ID:         spec.ID,
		Title:      spec.Title,
		Bounds:     spec.Bounds,
		Navigation: spec.Navigation,
	})

	s.windows = append(s.windows, w)
	b.windows[spec.ID] = w
	b.nodes[spec.ID] = w.root
	return b
}

// AddController registers a node that is later linked with Present or Stack.
func (b *Builder) AddController(spec ControllerSpec) *Builder {
	if _, ok := b.nodes[spec.ID]; ok {
		return b.fail("controller %d: duplicate id", spec.ID)
	}
	b.nodes[spec.ID] = newNode(spec)
	return b
}

// Present records that parent presents child. Each node presents at most one
// node and is presented by at most one node.
func (b *Builder) Present(parent, child ID) *Builder {
	if parent == child {
		return b.fail("present %d -> %d: node cannot present itself", parent, child)
	}
	p, ok := b.nodes[parent]
	if !ok {
		return b.fail("present %d -> %d: unknown parent", parent, child)
	}
	c, ok := b.nodes[child]
	if !ok {
		return b.fail("present %d -> %d: unknown child", parent, child)
	}
	if _, ok := b.windows[child]; ok {
		return b.fail("present %d -> %d: child is a top-level window", parent, child)
	}
	if p.Info().presented != nil {
		return b.fail("present %d -> %d: parent already presents %d", parent, child, p.Info().presented.Info().ID)
	}
	if prev, ok := b.presentedBy[child]; ok {
		return b.fail("present %d -> %d: child already presented by %d", parent, child, prev)
	}
	p.Info().presented = c
	b.presentedBy[child] = parent
	return b
}

// Stack appends children to a navigation container's stack, bottom first.
func (b *Builder) Stack(container ID, children ...ID) *Builder {
	n, ok := b.nodes[container]
	if !ok {
		return b.fail("stack %d: unknown container", container)
	}
	nav, ok := n.(*NavigationController)
	if !ok {
		return b.fail("stack %d: container is not a navigation controller", container)
	}
	for _, id := range children {
		c, ok := b.nodes[id]
		if !ok {
			return b.fail("stack %d: unknown child %d", container, id)
		}
		if _, ok := b.windows[id]; ok {
			return b.fail("stack %d: child %d is a top-level window", container, id)
		}
		if prev, ok := b.stackedIn[id]; ok {
			return b.fail("stack %d: child %d already stacked in %d", container, id, prev)
		}
		nav.stack = append(nav.stack, c)
		b.stackedIn[id] = container
	}
	return b
}

// Build validates the graph and assigns every reachable node to its hosting
// window. Nodes not reachable from any window stay detached.
func (b *Builder) Build() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	for _, s := range b.scenes {
		for _, w := range s.windows {
			assignHost(w.root, w)
		}
	}

	return &Graph{
		scenes:  b.scenes,
		windows: b.windows,
		nodes:   b.nodes,
	}, nil
}

// assignHost walks presented and stacked links from root. Links may form a
// cycle in a malformed host graph, so each node is visited once.
func assignHost(root Node, w *Window) {
	seen := make(map[Node]struct{})
	queue := []Node{root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}

		info := n.Info()
		if info.window == nil {
			info.window = w
		}
		if info.presented != nil {
			queue = append(queue, info.presented)
		}
		if nav, ok := n.(*NavigationController); ok {
			queue = append(queue, nav.stack...)
		}
	}
}

func newNode(spec ControllerSpec) Node {
	c := Controller{ID: spec.ID, Title: spec.Title, Bounds: spec.Bounds}
	if spec.Navigation {
		return &NavigationController{Controller: c}
	}
	return &c
}
