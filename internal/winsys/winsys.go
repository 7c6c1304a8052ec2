// Package winsys defines the boundary between the window manager core and
// the underlying window system. The core never talks to a display server
// directly; it drives a WindowSystem with committed geometry and focus
// decisions and mirrors committed state into a Publisher. A headless
// in-memory implementation of both lives in this package so the daemon can
// run and the core can be tested without a display.
package winsys

// WindowID is an opaque handle to a window-system client.
type WindowID uint32

// Rect is a screen-space rectangle.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle has zero area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Shrink returns the rectangle inset by the given amount on every side.
// The result is clamped so it never inverts.
func (r Rect) Shrink(by int) Rect {
	if by <= 0 {
		return r
	}
	if r.Width <= 2*by || r.Height <= 2*by {
		return r
	}
	return Rect{X: r.X + by, Y: r.Y + by, Width: r.Width - 2*by, Height: r.Height - 2*by}
}

// WindowSystem is the set of calls the core issues against the display.
// Implementations must be safe for use from the manager's event loop.
// Call failures are reported to the caller, logged, and never undo core
// state: the tree is the source of truth and geometry is reapplied on the
// next committed mutation.
type WindowSystem interface {
	// Map makes the window visible.
	Map(id WindowID) error
	// Unmap hides the window.
	Unmap(id WindowID) error
	// MoveResize applies a committed rectangle to the window.
	MoveResize(id WindowID, r Rect) error
	// Raise lifts the window above its siblings.
	Raise(id WindowID) error
	// SetInputFocus directs keyboard input to the window.
	SetInputFocus(id WindowID) error
	// Close asks the client to terminate gracefully.
	Close(id WindowID) error
	// Kill severs the client forcefully, for windows that ignore Close.
	Kill(id WindowID) error
	// Events delivers window lifecycle events to the core.
	Events() <-chan Event
}

// Event is a window lifecycle notification produced by the window system.
type Event interface {
	isEvent()
}

// WindowAppeared reports a new client window that wants to be managed.
type WindowAppeared struct {
	Window WindowID
}

// WindowDisappeared reports that a managed window is gone.
type WindowDisappeared struct {
	Window WindowID
}

// WindowRequestedResize reports a client-initiated geometry request, for
// example a user drag on a floating handle.
type WindowRequestedResize struct {
	Window WindowID
	Rect   Rect
}

func (WindowAppeared) isEvent()        {}
func (WindowDisappeared) isEvent()     {}
func (WindowRequestedResize) isEvent() {}

// Snapshot is the committed state handed to the Publisher after every
// successful mutation. ClientList ordering follows the focus-cycling
// traversal (pre-order, first child before second) so the published order
// matches what the user observes.
type Snapshot struct {
	ActiveWindow    WindowID // zero when nothing is focused
	ClientList      []WindowID
	DesktopGeometry Rect
	CurrentDesktop  int
	DesktopNames    []string

	// Border styling for a display-backed adapter to draw. Colors are hex
	// strings straight from the configuration.
	BorderWidth   int
	BorderNormal  string
	BorderFocused string
}

// Publisher mirrors committed state into window-system properties (EWMH).
// Publishing failures are the publisher's problem; the core fires and
// forgets.
type Publisher interface {
	Publish(s Snapshot)
}
