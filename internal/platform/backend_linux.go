//go:build linux

package platform

import (
	"fmt"

	"github.com/1broseidon/perch/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection. Empty arguments use
// the environment.
func NewLinuxBackendFromDisplay(display, xauthority string) (*LinuxBackend, error) {
	conn, err := x11.Connect(display, xauthority)
	if err != nil {
		return nil, err
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// ActiveWindow returns the currently active/focused window ID.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.ActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// CurrentDesktop returns the index of the visible desktop.
func (b *LinuxBackend) CurrentDesktop() (int, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	return conn.CurrentDesktop()
}

// Desktops lists virtual desktops with their names.
func (b *LinuxBackend) Desktops() ([]Desktop, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	count, err := conn.DesktopCount()
	if err != nil {
		return nil, err
	}
	names := conn.DesktopNames(count)

	desktops := make([]Desktop, 0, count)
	for i := 0; i < count; i++ {
		desktops = append(desktops, Desktop{Index: i, Name: names[i]})
	}
	return desktops, nil
}

// Clients lists presentable managed windows, bottom to top.
func (b *LinuxBackend) Clients() ([]Client, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	windows, err := conn.ClientsStacking()
	if err != nil {
		return nil, err
	}

	clients := make([]Client, 0, len(windows))
	for _, windowID := range windows {
		if !conn.IsPresentableWindow(windowID) {
			continue
		}

		desktop := DesktopUnknown
		if d, err := conn.WindowDesktop(windowID); err == nil {
			desktop = d
		}

		var owner WindowID
		if o, ok := conn.TransientFor(windowID); ok {
			owner = WindowID(o)
		}

		clients = append(clients, Client{
			ID:           WindowID(windowID),
			AppID:        conn.WindowClass(windowID),
			Title:        conn.WindowTitle(windowID),
			Bounds:       b.windowRect(windowID),
			Desktop:      desktop,
			Hidden:       conn.IsHidden(windowID),
			TransientFor: owner,
		})
	}

	return clients, nil
}

// EmbeddedChildren lists viewable children of a container such as tabbed.
func (b *LinuxBackend) EmbeddedChildren(id WindowID) ([]Client, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	children, err := conn.Children(xproto.Window(id))
	if err != nil {
		return nil, err
	}

	out := make([]Client, 0, len(children))
	for _, child := range children {
		if !conn.IsViewable(child) {
			continue
		}
		out = append(out, Client{
			ID:      WindowID(child),
			AppID:   conn.WindowClass(child),
			Title:   conn.WindowTitle(child),
			Bounds:  b.windowRect(child),
			Desktop: DesktopUnknown,
		})
	}
	return out, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func (b *LinuxBackend) windowRect(windowID xproto.Window) Rect {
	geom, ok := b.conn.WindowGeometry(windowID)
	if !ok {
		return Rect{}
	}
	return Rect{
		X:      geom.X,
		Y:      geom.Y,
		Width:  geom.Width,
		Height: geom.Height,
	}
}
