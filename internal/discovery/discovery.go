// Package discovery decides where transient UI should be presented: the main
// window among all connected scenes, and the topmost controller presented on
// top of it.
//
// Everything in this package is a pure read over host objects supplied through
// the interfaces below. Nothing is cached between calls and no host object is
// mutated, so a Resolver may be shared across goroutines as long as the host
// graph it reads does not change during a call.
package discovery

import "reflect"

// ActivationState is the lifecycle state of a Scene.
type ActivationState int

const (
	StateInactive ActivationState = iota
	StateForegroundInactive
	StateForegroundActive
	StateBackground
)

func (s ActivationState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateForegroundInactive:
		return "foreground-inactive"
	case StateForegroundActive:
		return "foreground-active"
	case StateBackground:
		return "background"
	default:
		return "unknown"
	}
}

// ParseActivationState is the inverse of ActivationState.String.
func ParseActivationState(s string) (ActivationState, bool) {
	switch s {
	case "inactive", "":
		return StateInactive, true
	case "foreground-inactive":
		return StateForegroundInactive, true
	case "foreground-active":
		return StateForegroundActive, true
	case "background":
		return StateBackground, true
	default:
		return StateInactive, false
	}
}

// Scene groups windows that share one activation state.
type Scene interface {
	ActivationState() ActivationState
	Windows() []Window
}

// Window is a top-level surface owned by exactly one Scene.
//
// Implementations are compared by identity. Use pointer types: values of a
// non-comparable type are never treated as the same window, so excluding one
// has no effect.
type Window interface {
	IsKey() bool
	IsHidden() bool
	// Scene returns nil when the owning scene is unknown.
	Scene() Scene
	// RootController returns nil when the window has no content.
	RootController() Controller
}

// Controller is a node in a presentation chain. Like Window, it is compared
// by identity.
type Controller interface {
	// PresentedController returns nil when nothing is presented on top.
	PresentedController() Controller
	// Window returns the window hosting this controller, or nil if detached.
	Window() Window
}

// Navigator is implemented by controllers that manage a navigation stack.
// The last element of StackedControllers is the visible head.
type Navigator interface {
	Controller
	StackedControllers() []Controller
}

// SceneProvider enumerates the scenes connected to the host. The windows and
// controllers it hands out should be pointers so identity checks work.
type SceneProvider interface {
	ConnectedScenes() []Scene
}

// SceneProviderFunc adapts a function to SceneProvider.
type SceneProviderFunc func() []Scene

func (f SceneProviderFunc) ConnectedScenes() []Scene { return f() }

// same reports whether a and b are the same host object. Values of a
// non-comparable type are never the same, even to themselves.
func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}
	return a == b
}

// visitSet records the nodes of a chain walk. Non-comparable nodes cannot be
// tracked and are left to the depth bound.
type visitSet map[Controller]struct{}

// add marks c and reports whether it was already marked.
func (v visitSet) add(c Controller) bool {
	if !reflect.TypeOf(c).Comparable() {
		return false
	}
	if _, ok := v[c]; ok {
		return true
	}
	v[c] = struct{}{}
	return false
}
