package scenegraph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/perch/internal/discovery"
)

func desktopGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewBuilder().
		AddScene(0, "web", discovery.StateBackground).
		AddScene(1, "code", discovery.StateForegroundActive).
		AddWindow(0, WindowSpec{ID: 10, Title: "browser"}).
		AddWindow(1, WindowSpec{ID: 20, Title: "editor", Key: true}).
		AddWindow(1, WindowSpec{ID: 30, Title: "tabbed", Navigation: true}).
		AddController(ControllerSpec{ID: 21, Title: "Save As"}).
		AddController(ControllerSpec{ID: 22, Title: "Overwrite?"}).
		AddController(ControllerSpec{ID: 31, Title: "tab 1"}).
		AddController(ControllerSpec{ID: 32, Title: "tab 2"}).
		Present(20, 21).
		Present(21, 22).
		Stack(30, 31, 32).
		Build()
	require.NoError(t, err)
	return g
}

func TestBuilder_AssignsHostingWindow(t *testing.T) {
	g := desktopGraph(t)

	editor, ok := g.Window(20)
	require.True(t, ok)

	for _, id := range []ID{20, 21, 22} {
		n, ok := g.Controller(id)
		require.True(t, ok, "controller %d", id)
		assert.Same(t, editor, n.Info().Host(), "controller %d", id)
	}

	tab, ok := g.Controller(32)
	require.True(t, ok)
	tabbed, _ := g.Window(30)
	assert.Same(t, tabbed, tab.Info().Host())
}

func TestBuilder_ResolvesWithDiscovery(t *testing.T) {
	g := desktopGraph(t)
	r := discovery.NewResolver(g)

	top := r.ResolveTopController(nil)
	require.True(t, top.Found())
	assert.Equal(t, ID(22), top.Controller.(Node).Info().ID)
	assert.Equal(t, 2, top.Depth)

	editor, _ := g.Window(20)
	res := r.ResolveMainWindow(editor)
	require.True(t, res.Found())
	assert.Equal(t, ID(30), res.Window.(*Window).ID)

	// A caller inside the editor's dialog chain is steered to the other
	// window in its scene, whose visible tab is the navigation head.
	dialog, _ := g.Controller(22)
	fromDialog := r.ResolveTopController(dialog)
	require.True(t, fromDialog.Found())
	assert.Equal(t, ID(32), fromDialog.Controller.(Node).Info().ID)
	assert.True(t, fromDialog.Navigation)

	tab, _ := g.Controller(32)
	fromTab := r.ResolveTopController(tab)
	require.True(t, fromTab.Found())
	assert.Equal(t, ID(22), fromTab.Controller.(Node).Info().ID)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Builder)
		want  string
	}{
		{"unknown scene", func(b *Builder) { b.AddWindow(9, WindowSpec{ID: 1}) }, "unknown scene"},
		{"duplicate scene", func(b *Builder) { b.AddScene(0, "", 0).AddScene(0, "", 0) }, "duplicate id"},
		{"duplicate node", func(b *Builder) {
			b.AddScene(0, "", 0).AddWindow(0, WindowSpec{ID: 1}).AddController(ControllerSpec{ID: 1})
		}, "duplicate id"},
		{"present unknown", func(b *Builder) { b.AddScene(0, "", 0).AddWindow(0, WindowSpec{ID: 1}).Present(1, 2) }, "unknown child"},
		{"present window", func(b *Builder) {
			b.AddScene(0, "", 0).AddWindow(0, WindowSpec{ID: 1}).AddWindow(0, WindowSpec{ID: 2}).Present(1, 2)
		}, "top-level window"},
		{"present self", func(b *Builder) { b.AddController(ControllerSpec{ID: 3}).Present(3, 3) }, "cannot present itself"},
		{"present twice", func(b *Builder) {
			b.AddController(ControllerSpec{ID: 1}).AddController(ControllerSpec{ID: 2}).AddController(ControllerSpec{ID: 3}).
				Present(1, 3).Present(2, 3)
		}, "already presented"},
		{"parent presents twice", func(b *Builder) {
			b.AddController(ControllerSpec{ID: 1}).AddController(ControllerSpec{ID: 2}).AddController(ControllerSpec{ID: 3}).
				Present(1, 2).Present(1, 3)
		}, "already presents"},
		{"stack non-navigation", func(b *Builder) {
			b.AddController(ControllerSpec{ID: 1}).AddController(ControllerSpec{ID: 2}).Stack(1, 2)
		}, "not a navigation controller"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := b.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuilder_DetachedControllerHasNoWindow(t *testing.T) {
	g, err := NewBuilder().AddController(ControllerSpec{ID: 5}).Build()
	require.NoError(t, err)

	n, ok := g.Controller(5)
	require.True(t, ok)
	assert.Nil(t, n.Window())
	assert.Nil(t, n.PresentedController())
}

const sampleSnapshot = `scenes:
  - id: 0
    name: web
    state: background
    windows:
      - id: 10
        title: browser
  - id: 1
    name: code
    state: foreground-active
    windows:
      - id: 20
        title: editor
        key: true
        bounds: {x: 0, y: 0, width: 1280, height: 800}
        presents:
          id: 21
          title: Save As
      - id: 30
        title: tabbed
        stack:
          - id: 31
            title: tab 1
          - id: 32
            title: tab 2
`

func TestDecode(t *testing.T) {
	g, err := Decode(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	require.Len(t, g.Scenes(), 2)
	assert.Equal(t, discovery.StateForegroundActive, g.Scenes()[1].State)
	assert.Equal(t, 3, g.WindowCount())

	editor, ok := g.Window(20)
	require.True(t, ok)
	assert.Equal(t, Rect{Width: 1280, Height: 800}, editor.Bounds)

	tabbed, _ := g.Window(30)
	nav, ok := tabbed.Root().(*NavigationController)
	require.True(t, ok)
	require.Len(t, nav.Stack(), 2)
	assert.Equal(t, ID(32), nav.Stack()[1].Info().ID)

	top := discovery.NewResolver(g).TopController(nil)
	require.NotNil(t, top)
	assert.Equal(t, ID(21), top.(Node).Info().ID)
}

func TestDecode_RejectsUnknownFieldsAndStates(t *testing.T) {
	_, err := Decode(strings.NewReader("scenes:\n  - id: 0\n    state: background\n    colour: red\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader("scenes:\n  - id: 0\n    state: sleeping\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sleeping")
}

func TestDecode_Empty(t *testing.T) {
	g, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, g.Scenes())
	assert.Nil(t, discovery.NewResolver(g).MainWindow(nil))
}

func TestEncodeDecodePreservesResolution(t *testing.T) {
	g := desktopGraph(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	back, err := Decode(&buf)
	require.NoError(t, err)

	want := discovery.NewResolver(g).TopController(nil).(Node).Info().ID
	got := discovery.NewResolver(back).TopController(nil).(Node).Info().ID
	assert.Equal(t, want, got)

	tabbed, _ := back.Window(30)
	_, isNav := tabbed.Root().(*NavigationController)
	assert.True(t, isNav)
}
