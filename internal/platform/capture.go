package platform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/perch/internal/discovery"
	"github.com/1broseidon/perch/internal/scenegraph"
)

// CaptureOptions controls how backend state is mapped onto a scene graph.
type CaptureOptions struct {
	// ExcludeClasses are WM_CLASS values left out of the capture.
	ExcludeClasses []string
	// NavigationClasses are container classes whose embedded children form a
	// navigation stack.
	NavigationClasses []string
	Logger            *slog.Logger
}

// Capture reads the backend once and builds an immutable host graph.
//
// Each desktop becomes a scene. Windows with no usable WM_TRANSIENT_FOR
// become top-level windows, listed top of the stack first. Visible transients
// become presented controllers; an owner presents its topmost visible
// transient. Sticky windows, and windows whose desktop is unknown, join the
// current desktop's scene.
func Capture(b Backend, opts CaptureOptions) (*scenegraph.Graph, error) {
	if b == nil {
		return nil, fmt.Errorf("capture: backend is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	all, err := b.Clients()
	if err != nil {
		return nil, fmt.Errorf("capture: list clients: %w", err)
	}

	exclude := newClassSet(opts.ExcludeClasses)
	navigation := newClassSet(opts.NavigationClasses)

	clients := make([]Client, 0, len(all))
	byID := make(map[WindowID]Client, len(all))
	for _, c := range all {
		if c.ID == 0 || exclude.has(c.AppID) {
			continue
		}
		if _, dup := byID[c.ID]; dup {
			continue
		}
		clients = append(clients, c)
		byID[c.ID] = c
	}

	topLevel := make(map[WindowID]bool, len(clients))
	for _, c := range clients {
		if _, ok := topOwner(c.ID, byID); !ok || c.TransientFor == 0 {
			topLevel[c.ID] = true
			continue
		}
		if _, known := byID[c.TransientFor]; !known {
			topLevel[c.ID] = true
		}
	}

	// Embedded children of navigation containers, keyed by container.
	embedded := make(map[WindowID][]Client)
	claimed := make(map[WindowID]bool)
	for _, c := range clients {
		if c.Hidden && !topLevel[c.ID] {
			continue
		}
		if !navigation.has(c.AppID) {
			continue
		}
		children, err := b.EmbeddedChildren(c.ID)
		if err != nil {
			logger.Debug("embedded children unavailable", "window", uint32(c.ID), "err", err)
			continue
		}
		for _, child := range children {
			if child.ID == 0 || claimed[child.ID] {
				continue
			}
			if _, isClient := byID[child.ID]; isClient {
				continue
			}
			claimed[child.ID] = true
			embedded[c.ID] = append(embedded[c.ID], child)
		}
	}

	keyID := keyWindow(b, byID, topLevel, embedded)

	current, curErr := b.CurrentDesktop()
	desktops, err := b.Desktops()
	if err != nil || len(desktops) == 0 {
		desktops = inferDesktops(clients, current, curErr == nil)
	}
	sceneFor := desktopMapper(desktops, current, curErr == nil)

	keyOnCurrent := false
	if keyID != 0 && curErr == nil {
		keyOnCurrent = sceneFor(byID[keyID].Desktop) == current
	}

	builder := scenegraph.NewBuilder()
	for _, d := range desktops {
		builder.AddScene(d.Index, d.Name, sceneState(d.Index, current, curErr == nil, keyOnCurrent))
	}

	// Top-level windows, topmost first.
	for i := len(clients) - 1; i >= 0; i-- {
		c := clients[i]
		if !topLevel[c.ID] {
			continue
		}
		builder.AddWindow(sceneFor(c.Desktop), scenegraph.WindowSpec{
			ID:         scenegraph.ID(c.ID),
			Title:      c.Title,
			AppID:      c.AppID,
			Key:        c.ID == keyID,
			Hidden:     c.Hidden,
			Bounds:     toRect(c.Bounds),
			Navigation: navigation.has(c.AppID),
		})
	}

	// Visible transients become controllers.
	added := make(map[WindowID]bool, len(clients))
	for id := range topLevel {
		added[id] = true
	}
	for _, c := range clients {
		if topLevel[c.ID] || c.Hidden {
			continue
		}
		builder.AddController(scenegraph.ControllerSpec{
			ID:         scenegraph.ID(c.ID),
			Title:      c.Title,
			Bounds:     toRect(c.Bounds),
			Navigation: navigation.has(c.AppID),
		})
		added[c.ID] = true
	}

	// Later entries are higher in the stack, so the last visible transient
	// for an owner wins.
	presented := make(map[WindowID]WindowID)
	var owners []WindowID
	for _, c := range clients {
		if topLevel[c.ID] || !added[c.ID] || !added[c.TransientFor] {
			continue
		}
		if _, seen := presented[c.TransientFor]; !seen {
			owners = append(owners, c.TransientFor)
		}
		presented[c.TransientFor] = c.ID
	}
	for _, owner := range owners {
		builder.Present(scenegraph.ID(owner), scenegraph.ID(presented[owner]))
	}

	for _, c := range clients {
		children := embedded[c.ID]
		if !added[c.ID] || len(children) == 0 {
			continue
		}
		ids := make([]scenegraph.ID, 0, len(children))
		for _, child := range children {
			builder.AddController(scenegraph.ControllerSpec{
				ID:     scenegraph.ID(child.ID),
				Title:  child.Title,
				Bounds: toRect(child.Bounds),
			})
			ids = append(ids, scenegraph.ID(child.ID))
		}
		builder.Stack(scenegraph.ID(c.ID), ids...)
	}

	graph, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	return graph, nil
}

// topOwner follows WM_TRANSIENT_FOR to the window that owns a dialog chain.
// It returns false when the chain loops back on itself.
func topOwner(id WindowID, byID map[WindowID]Client) (WindowID, bool) {
	visited := make(map[WindowID]bool)
	cur := id
	for {
		if visited[cur] {
			return 0, false
		}
		visited[cur] = true

		c := byID[cur]
		if c.TransientFor == 0 {
			return cur, true
		}
		if _, ok := byID[c.TransientFor]; !ok {
			return cur, true
		}
		cur = c.TransientFor
	}
}

// keyWindow maps _NET_ACTIVE_WINDOW to the top-level window that hosts it.
func keyWindow(b Backend, byID map[WindowID]Client, topLevel map[WindowID]bool, embedded map[WindowID][]Client) WindowID {
	active, err := b.ActiveWindow()
	if err != nil || active == 0 {
		return 0
	}

	if _, ok := byID[active]; !ok {
		// Focus can sit on an embedded client of a container.
		for container, children := range embedded {
			for _, child := range children {
				if child.ID == active {
					active = container
					break
				}
			}
		}
		if _, ok := byID[active]; !ok {
			return 0
		}
	}

	if topLevel[active] {
		return active
	}
	if owner, ok := topOwner(active, byID); ok && topLevel[owner] {
		return owner
	}
	return 0
}

func inferDesktops(clients []Client, current int, currentKnown bool) []Desktop {
	highest := 0
	if currentKnown && current > highest {
		highest = current
	}
	for _, c := range clients {
		if c.Desktop > highest {
			highest = c.Desktop
		}
	}
	desktops := make([]Desktop, 0, highest+1)
	for i := 0; i <= highest; i++ {
		desktops = append(desktops, Desktop{Index: i})
	}
	return desktops
}

// desktopMapper returns a function placing a window's desktop number on an
// existing scene.
func desktopMapper(desktops []Desktop, current int, currentKnown bool) func(int) int {
	valid := make(map[int]bool, len(desktops))
	for _, d := range desktops {
		valid[d.Index] = true
	}
	fallback := desktops[0].Index
	if currentKnown && valid[current] {
		fallback = current
	}
	return func(desktop int) int {
		if valid[desktop] {
			return desktop
		}
		return fallback
	}
}

func sceneState(index, current int, currentKnown, keyOnCurrent bool) discovery.ActivationState {
	switch {
	case !currentKnown:
		return discovery.StateInactive
	case index != current:
		return discovery.StateBackground
	case keyOnCurrent:
		return discovery.StateForegroundActive
	default:
		return discovery.StateForegroundInactive
	}
}

func toRect(r Rect) scenegraph.Rect {
	return scenegraph.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

type classSet map[string]struct{}

func newClassSet(classes []string) classSet {
	set := make(classSet, len(classes))
	for _, c := range classes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

func (s classSet) has(class string) bool {
	if class == "" {
		return false
	}
	_, ok := s[strings.ToLower(class)]
	return ok
}
