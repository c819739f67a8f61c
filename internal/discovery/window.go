package discovery

// Rule identifies which selection rule picked the main window.
type Rule int

const (
	RuleNone Rule = iota
	// RuleKey: a visible key window. Auxiliary surfaces such as
	// picture-in-picture overlays never become key, so this rule skips them.
	RuleKey
	// RuleForeground: a visible window in a foreground-active scene.
	RuleForeground
	// RuleFirstVisible: the first visible window in enumeration order.
	RuleFirstVisible
)

func (r Rule) String() string {
	switch r {
	case RuleKey:
		return "key"
	case RuleForeground:
		return "foreground"
	case RuleFirstVisible:
		return "first-visible"
	default:
		return "none"
	}
}

// SelectMainWindow applies the selection rules to windows in order and
// returns the first match of the highest-priority rule that matches anything.
// The excluded window is never returned.
func SelectMainWindow(windows []Window, excluding Window) (Window, Rule) {
	eligible := func(w Window) bool {
		return w != nil && !w.IsHidden() && !same(w, excluding)
	}

	for _, w := range windows {
		if eligible(w) && w.IsKey() {
			return w, RuleKey
		}
	}

	for _, w := range windows {
		if !eligible(w) {
			continue
		}
		if scene := w.Scene(); scene != nil && scene.ActivationState() == StateForegroundActive {
			return w, RuleForeground
		}
	}

	for _, w := range windows {
		if eligible(w) {
			return w, RuleFirstVisible
		}
	}

	return nil, RuleNone
}

// Candidates returns the windows considered when excluding the given window.
// A known scene on the excluded window narrows the search to that scene so a
// caller living in one scene does not pick a window from another.
func Candidates(provider SceneProvider, excluding Window) []Window {
	if excluding != nil {
		if scene := excluding.Scene(); scene != nil {
			return scene.Windows()
		}
	}
	if provider == nil {
		return nil
	}

	var all []Window
	for _, scene := range provider.ConnectedScenes() {
		if scene == nil {
			continue
		}
		all = append(all, scene.Windows()...)
	}
	return all
}
