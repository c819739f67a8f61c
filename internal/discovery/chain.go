package discovery

// ChainOutcome describes how a topmost-controller query ended.
type ChainOutcome int

const (
	OutcomeFound ChainOutcome = iota
	OutcomeNoWindow
	OutcomeNoRoot
	// OutcomeSelf: the topmost controller is the caller itself.
	OutcomeSelf
	// OutcomeMalformed: the chain revisited a node or exceeded the depth bound.
	OutcomeMalformed
)

func (o ChainOutcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNoWindow:
		return "no-window"
	case OutcomeNoRoot:
		return "no-root"
	case OutcomeSelf:
		return "self"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// TopResolution is the outcome of a topmost-controller query.
type TopResolution struct {
	Window     WindowResolution
	Controller Controller
	// Depth counts presentation hops followed from the root controller.
	Depth int
	// Navigation is true when the result is a navigation stack head.
	Navigation bool
	Outcome    ChainOutcome
}

// Found reports whether a controller was selected.
func (t TopResolution) Found() bool { return t.Controller != nil }

// ResolveTopController finds the topmost controller of the main window.
//
// The window hosting self is excluded from the main window search, and self
// is never returned: a caller asking where to present must not be told to
// present on itself. self may be nil.
func (r *Resolver) ResolveTopController(self Controller) TopResolution {
	var hosting Window
	if self != nil {
		hosting = self.Window()
	}

	res := TopResolution{Window: r.ResolveMainWindow(hosting)}
	if res.Window.Window == nil {
		res.Outcome = OutcomeNoWindow
		return res
	}

	top := res.Window.Window.RootController()
	if top == nil {
		res.Outcome = OutcomeNoRoot
		return res
	}

	visited := visitSet{}
	visited.add(top)
	for {
		next := top.PresentedController()
		if next == nil {
			break
		}
		if visited.add(next) || res.Depth >= r.maxDepth {
			res.Outcome = OutcomeMalformed
			return res
		}
		top = next
		res.Depth++
	}

	if nav, ok := top.(Navigator); ok {
		if stack := nav.StackedControllers(); len(stack) > 0 && stack[len(stack)-1] != nil {
			top = stack[len(stack)-1]
			res.Navigation = true
		}
	}

	if self != nil && same(top, self) {
		res.Outcome = OutcomeSelf
		return res
	}

	res.Controller = top
	res.Outcome = OutcomeFound
	return res
}

// TopController is ResolveTopController without the diagnostics.
func (r *Resolver) TopController(self Controller) Controller {
	return r.ResolveTopController(self).Controller
}
