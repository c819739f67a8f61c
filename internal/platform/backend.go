package platform

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Desktop numbers with special meaning in Client.Desktop.
const (
	DesktopSticky  = -1
	DesktopUnknown = -2
)

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Desktop is a virtual desktop (workspace).
type Desktop struct {
	Index int
	Name  string
}

// Client contains metadata for a managed top-level or transient window.
type Client struct {
	ID     WindowID
	AppID  string
	Title  string
	Bounds Rect
	// Desktop is the desktop index, DesktopSticky or DesktopUnknown.
	Desktop int
	Hidden  bool
	// TransientFor is the owner window of a dialog, or 0.
	TransientFor WindowID
}

// Backend abstracts the read-only window-system queries perch needs.
type Backend interface {
	ActiveWindow() (WindowID, error)
	CurrentDesktop() (int, error)
	Desktops() ([]Desktop, error)
	// Clients lists managed windows bottom to top.
	Clients() ([]Client, error)
	// EmbeddedChildren lists the mapped children of a container window,
	// bottom to top.
	EmbeddedChildren(id WindowID) ([]Client, error)
}
