package discovery

// DefaultMaxChainDepth bounds presentation chain walks. Real chains are a
// handful of dialogs deep.
const DefaultMaxChainDepth = 64

// Resolver answers main-window and topmost-controller queries against the
// scenes of a SceneProvider.
type Resolver struct {
	scenes   SceneProvider
	maxDepth int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMaxChainDepth overrides DefaultMaxChainDepth. Values < 1 are ignored.
func WithMaxChainDepth(n int) Option {
	return func(r *Resolver) {
		if n >= 1 {
			r.maxDepth = n
		}
	}
}

// NewResolver creates a resolver reading scenes from provider.
func NewResolver(provider SceneProvider, opts ...Option) *Resolver {
	r := &Resolver{
		scenes:   provider,
		maxDepth: DefaultMaxChainDepth,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WindowResolution is the outcome of a main window query.
type WindowResolution struct {
	Window     Window
	Rule       Rule
	Candidates int
}

// Found reports whether a window was selected.
func (r WindowResolution) Found() bool { return r.Window != nil }

// ResolveMainWindow selects the main window, never returning excluding.
func (r *Resolver) ResolveMainWindow(excluding Window) WindowResolution {
	candidates := Candidates(r.scenes, excluding)
	w, rule := SelectMainWindow(candidates, excluding)
	return WindowResolution{
		Window:     w,
		Rule:       rule,
		Candidates: len(candidates),
	}
}

// MainWindow is ResolveMainWindow without the diagnostics.
func (r *Resolver) MainWindow(excluding Window) Window {
	return r.ResolveMainWindow(excluding).Window
}

// MainScene returns the scene of the main window, or nil.
func (r *Resolver) MainScene() Scene {
	w := r.MainWindow(nil)
	if w == nil {
		return nil
	}
	return w.Scene()
}
