package ipc

import (
	"errors"
	"sync"

	"github.com/1broseidon/perch/internal/presenter"
)

// FallbackResolver asks the daemon first and, when no daemon is running,
// resolves through a locally built resolver. The local resolver is created on
// first use.
type FallbackResolver struct {
	primary  Resolver
	newLocal func() (Resolver, error)

	mu        sync.Mutex
	local     Resolver
	localErr  error
	usedLocal bool
}

// NewFallbackResolver returns a resolver preferring primary.
func NewFallbackResolver(primary Resolver, newLocal func() (Resolver, error)) *FallbackResolver {
	return &FallbackResolver{primary: primary, newLocal: newLocal}
}

// UsedLocal reports whether the last query was answered locally.
func (f *FallbackResolver) UsedLocal() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usedLocal
}

func (f *FallbackResolver) localResolver() (Resolver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usedLocal = true
	if f.local == nil && f.localErr == nil {
		if f.newLocal == nil {
			f.localErr = errors.New("no local resolver available")
		} else {
			f.local, f.localErr = f.newLocal()
		}
	}
	return f.local, f.localErr
}

func (f *FallbackResolver) markPrimary() {
	f.mu.Lock()
	f.usedLocal = false
	f.mu.Unlock()
}

var _ Resolver = (*Client)(nil)

func fallback[T any](f *FallbackResolver, query func(Resolver) (T, error)) (T, error) {
	if f.primary != nil {
		out, err := query(f.primary)
		if err == nil || !errors.Is(err, ErrDaemonUnavailable) {
			f.markPrimary()
			return out, err
		}
	}
	local, err := f.localResolver()
	if err != nil {
		var zero T
		return zero, err
	}
	return query(local)
}

func (f *FallbackResolver) MainWindow(excludeID uint32) (*presenter.WindowReport, error) {
	return fallback(f, func(r Resolver) (*presenter.WindowReport, error) { return r.MainWindow(excludeID) })
}

func (f *FallbackResolver) MainScene() (*presenter.SceneReport, error) {
	return fallback(f, func(r Resolver) (*presenter.SceneReport, error) { return r.MainScene() })
}

func (f *FallbackResolver) TopController(selfID uint32) (*presenter.TopReport, error) {
	return fallback(f, func(r Resolver) (*presenter.TopReport, error) { return r.TopController(selfID) })
}

func (f *FallbackResolver) Anchor(selfID uint32) (*presenter.AnchorReport, error) {
	return fallback(f, func(r Resolver) (*presenter.AnchorReport, error) { return r.Anchor(selfID) })
}

func (f *FallbackResolver) Scenes() (*presenter.ScenesReport, error) {
	return fallback(f, func(r Resolver) (*presenter.ScenesReport, error) { return r.Scenes() })
}
