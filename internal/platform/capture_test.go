package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/perch/internal/discovery"
	"github.com/1broseidon/perch/internal/scenegraph"
)

type fakeBackend struct {
	active      WindowID
	activeErr   error
	current     int
	currentErr  error
	desktops    []Desktop
	desktopsErr error
	clients     []Client
	clientsErr  error
	children    map[WindowID][]Client
}

func (f *fakeBackend) ActiveWindow() (WindowID, error)  { return f.active, f.activeErr }
func (f *fakeBackend) CurrentDesktop() (int, error)     { return f.current, f.currentErr }
func (f *fakeBackend) Desktops() ([]Desktop, error)     { return f.desktops, f.desktopsErr }
func (f *fakeBackend) Clients() ([]Client, error)       { return f.clients, f.clientsErr }
func (f *fakeBackend) EmbeddedChildren(id WindowID) ([]Client, error) {
	children, ok := f.children[id]
	if !ok {
		return nil, errors.New("no such window")
	}
	return children, nil
}

func twoDesktops() []Desktop {
	return []Desktop{{Index: 0, Name: "web"}, {Index: 1, Name: "code"}}
}

func TestCapture_ScenesAndKeyWindow(t *testing.T) {
	b := &fakeBackend{
		active:   0x30,
		current:  1,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x10, AppID: "firefox", Title: "browser", Desktop: 0},
			{ID: 0x20, AppID: "code", Title: "editor", Desktop: 1},
			{ID: 0x30, AppID: "alacritty", Title: "shell", Desktop: 1},
			{ID: 0x40, AppID: "polybar", Title: "bar", Desktop: DesktopSticky},
		},
	}

	g, err := Capture(b, CaptureOptions{ExcludeClasses: []string{"Polybar"}})
	require.NoError(t, err)

	scenes := g.Scenes()
	require.Len(t, scenes, 2)
	assert.Equal(t, "web", scenes[0].Name)
	assert.Equal(t, discovery.StateBackground, scenes[0].State)
	assert.Equal(t, discovery.StateForegroundActive, scenes[1].State)

	// Topmost first within a scene.
	code := scenes[1].WindowList()
	require.Len(t, code, 2)
	assert.Equal(t, scenegraph.ID(0x30), code[0].ID)
	assert.True(t, code[0].Key)
	assert.False(t, code[1].Key)

	_, ok := g.Window(0x40)
	assert.False(t, ok, "excluded class must not be captured")
	assert.Equal(t, 3, g.WindowCount())

	main := discovery.NewResolver(g).MainWindow(nil)
	require.NotNil(t, main)
	assert.Equal(t, scenegraph.ID(0x30), main.(*scenegraph.Window).ID)
}

func TestCapture_ForegroundInactiveWhenFocusElsewhere(t *testing.T) {
	b := &fakeBackend{
		active:   0x10,
		current:  1,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x10, AppID: "firefox", Desktop: 0},
			{ID: 0x20, AppID: "code", Desktop: 1},
		},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)
	assert.Equal(t, discovery.StateBackground, g.Scenes()[0].State)
	assert.Equal(t, discovery.StateForegroundInactive, g.Scenes()[1].State)
}

func TestCapture_UnknownCurrentDesktopMakesScenesInactive(t *testing.T) {
	b := &fakeBackend{
		active:     0x10,
		currentErr: errors.New("no _NET_CURRENT_DESKTOP"),
		desktops:   twoDesktops(),
		clients:    []Client{{ID: 0x10, Desktop: 0}},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)
	for _, s := range g.Scenes() {
		assert.Equal(t, discovery.StateInactive, s.State)
	}
}

func TestCapture_StickyAndUnknownJoinCurrentScene(t *testing.T) {
	b := &fakeBackend{
		current:  1,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x10, Desktop: DesktopSticky},
			{ID: 0x20, Desktop: DesktopUnknown},
			{ID: 0x30, Desktop: 9},
		},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)
	assert.Empty(t, g.Scenes()[0].WindowList())
	assert.Len(t, g.Scenes()[1].WindowList(), 3)
}

func TestCapture_InfersDesktopsWhenUnavailable(t *testing.T) {
	b := &fakeBackend{
		current:     0,
		desktopsErr: errors.New("no _NET_NUMBER_OF_DESKTOPS"),
		clients: []Client{
			{ID: 0x10, Desktop: 0},
			{ID: 0x20, Desktop: 2},
		},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)
	assert.Len(t, g.Scenes(), 3)
	w, ok := g.Window(0x20)
	require.True(t, ok)
	assert.Equal(t, 2, w.SceneInfo().ID)
}

func TestCapture_TransientsFormPresentationChain(t *testing.T) {
	b := &fakeBackend{
		active:   0x12,
		current:  0,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x10, AppID: "gimp", Title: "image", Desktop: 0},
			{ID: 0x11, Title: "old dialog", TransientFor: 0x10, Desktop: 0},
			{ID: 0x13, Title: "hidden dialog", TransientFor: 0x10, Hidden: true, Desktop: 0},
			{ID: 0x12, Title: "export", TransientFor: 0x10, Desktop: 0},
			{ID: 0x14, Title: "confirm", TransientFor: 0x12, Desktop: 0},
		},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)

	require.Equal(t, 1, g.WindowCount(), "transients are not top-level windows")
	w, ok := g.Window(0x10)
	require.True(t, ok)
	assert.True(t, w.Key, "focus on a dialog marks its owner key")

	assert.Equal(t, scenegraph.ID(0x12), w.Root().Info().Presented().Info().ID)
	_, ok = g.Controller(0x13)
	assert.False(t, ok, "hidden transients are skipped")

	top := discovery.NewResolver(g).TopController(nil)
	require.NotNil(t, top)
	node := top.(scenegraph.Node)
	assert.Equal(t, scenegraph.ID(0x14), node.Info().ID)
	assert.Same(t, w, node.Info().Host())
}

func TestCapture_TransientCycleFallsBackToTopLevel(t *testing.T) {
	b := &fakeBackend{
		current:  0,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x10, TransientFor: 0x11, Desktop: 0},
			{ID: 0x11, TransientFor: 0x10, Desktop: 0},
			{ID: 0x12, TransientFor: 0x99, Desktop: 0},
		},
	}

	g, err := Capture(b, CaptureOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, g.WindowCount())
}

func TestCapture_NavigationContainerStacksEmbeddedChildren(t *testing.T) {
	b := &fakeBackend{
		active:   0x51,
		current:  0,
		desktops: twoDesktops(),
		clients: []Client{
			{ID: 0x50, AppID: "tabbed", Title: "tabs", Desktop: 0},
		},
		children: map[WindowID][]Client{
			0x50: {
				{ID: 0x51, AppID: "st", Title: "tab one"},
				{ID: 0x52, AppID: "st", Title: "tab two"},
			},
		},
	}

	g, err := Capture(b, CaptureOptions{NavigationClasses: []string{"tabbed"}})
	require.NoError(t, err)

	w, ok := g.Window(0x50)
	require.True(t, ok)
	assert.True(t, w.Key, "focus on an embedded child marks its container key")

	nav, ok := w.Root().(*scenegraph.NavigationController)
	require.True(t, ok)
	require.Len(t, nav.Stack(), 2)

	top := discovery.NewResolver(g).TopController(nil)
	require.NotNil(t, top)
	assert.Equal(t, scenegraph.ID(0x52), top.(scenegraph.Node).Info().ID)
}

func TestCapture_EmbeddedChildrenErrorLeavesEmptyStack(t *testing.T) {
	b := &fakeBackend{
		current:  0,
		desktops: twoDesktops(),
		clients:  []Client{{ID: 0x50, AppID: "tabbed", Desktop: 0}},
	}

	g, err := Capture(b, CaptureOptions{NavigationClasses: []string{"tabbed"}})
	require.NoError(t, err)

	top := discovery.NewResolver(g).TopController(nil)
	require.NotNil(t, top)
	assert.Equal(t, scenegraph.ID(0x50), top.(scenegraph.Node).Info().ID)
}

func TestCapture_ClientsError(t *testing.T) {
	_, err := Capture(&fakeBackend{clientsErr: errors.New("boom")}, CaptureOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = Capture(nil, CaptureOptions{})
	require.Error(t, err)
}
