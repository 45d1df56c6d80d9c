package platform

import "errors"

// Handle is an opaque native window handle. Zero means "none" or, as a
// parent, the desktop.
type Handle uintptr

// Rect describes a rectangular region. Depending on the call it is either in
// screen coordinates or relative to the parent's client area.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Origin returns a copy of r moved to (0,0).
func (r Rect) Origin() Rect {
	return Rect{Width: r.Width, Height: r.Height}
}

// Style holds the style and extended style words of a window.
type Style struct {
	Bits   uint32
	ExBits uint32
}

// Style bits. Values follow the Win32 WS_* constants; other backends map
// their own window attributes onto them.
const (
	StyleMaximizeBox  uint32 = 0x00010000
	StyleMinimizeBox  uint32 = 0x00020000
	StyleThickFrame   uint32 = 0x00040000
	StyleSysMenu      uint32 = 0x00080000
	StyleDlgFrame     uint32 = 0x00400000
	StyleBorder       uint32 = 0x00800000
	StyleCaption      uint32 = StyleBorder | StyleDlgFrame
	StyleClipChildren uint32 = 0x02000000
	StyleClipSiblings uint32 = 0x04000000
	StyleVisible      uint32 = 0x10000000
	StyleChild        uint32 = 0x40000000
	StylePopup        uint32 = 0x80000000

	// FrameBits are the decoration bits removed from an embedded window.
	FrameBits = StyleCaption | StyleThickFrame | StyleMinimizeBox |
		StyleMaximizeBox | StyleSysMenu | StyleBorder | StyleDlgFrame
)

// Extended style bits (WS_EX_*).
const (
	ExToolWindow uint32 = 0x00000080
	ExAppWindow  uint32 = 0x00040000
)

// ShowCmd selects how Show presents a window.
type ShowCmd int

const (
	ShowHide ShowCmd = iota
	ShowNormal
	ShowRestore
	ShowMinimize
	ShowMaximize
)

func (c ShowCmd) String() string {
	switch c {
	case ShowHide:
		return "hide"
	case ShowNormal:
		return "normal"
	case ShowRestore:
		return "restore"
	case ShowMinimize:
		return "minimize"
	case ShowMaximize:
		return "maximize"
	default:
		return "unknown"
	}
}

// PosFlags modify SetBounds.
type PosFlags uint32

const (
	PosNoZOrder PosFlags = 1 << iota
	PosFrameChanged
	PosShowWindow
	PosNoCopyBits
)

// EventKind identifies a raw window event reported by an EventSource.
type EventKind int

const (
	EventDestroyed EventKind = iota + 1
	EventMoveSizeStart
	EventMoveSizeEnd
	EventMinimizeStart
	EventLocationChanged
)

func (k EventKind) String() string {
	switch k {
	case EventDestroyed:
		return "destroyed"
	case EventMoveSizeStart:
		return "movesize-start"
	case EventMoveSizeEnd:
		return "movesize-end"
	case EventMinimizeStart:
		return "minimize-start"
	case EventLocationChanged:
		return "location-changed"
	default:
		return "unknown"
	}
}

// Event is a raw notification about a window owned by a subscribed process.
type Event struct {
	Kind   EventKind
	Handle Handle
}

// WindowInfo describes a top-level window that may be hosted.
type WindowInfo struct {
	Handle      Handle
	Title       string
	ClassName   string
	ProcessName string
	PID         uint32
}

// FrameHandlers receive notifications about the host frame. They are called
// on a backend-owned thread.
type FrameHandlers struct {
	OnResize   func(width, height int)
	OnClose    func()
	OnActivate func()
}

// ErrUnsupported is returned when no backend exists for the running platform.
var ErrUnsupported = errors.New("platform: windowing backend not supported on this system")

// WindowOps wraps the native window primitives.
type WindowOps interface {
	IsWindow(h Handle) bool
	IsVisible(h Handle) bool
	ClassName(h Handle) (string, error)
	Title(h Handle) (string, error)
	Style(h Handle) (Style, error)
	SetStyle(h Handle, s Style) error
	// WindowRect returns the window bounds in screen coordinates.
	WindowRect(h Handle) (Rect, error)
	// SetParent reparents h under parent (zero is the desktop) and returns
	// the previous parent.
	SetParent(h, parent Handle) (Handle, error)
	// SetBounds moves and resizes h relative to its parent's client area.
	SetBounds(h Handle, r Rect, flags PosFlags) error
	Show(h Handle, cmd ShowCmd) error
	IsMaximized(h Handle) bool
	IsMinimized(h Handle) bool
	// SetClipRegion limits drawing of h to r. A nil r removes the region.
	SetClipRegion(h Handle, r *Rect) error
	ThreadProcessID(h Handle) (tid, pid uint32, err error)
	// FocusWindow moves keyboard focus to h without making it the
	// foreground window.
	FocusWindow(h Handle) error
	PostClose(h Handle) error
	CreateContainer(parent Handle, r Rect) (Handle, error)
	DestroyWindow(h Handle) error
	EnumerateWindows() ([]Handle, error)
}

// ProcessOps wraps process queries used for privilege checks and shutdown.
type ProcessOps interface {
	IsHostElevated() bool
	IsProcessElevated(pid uint32) (bool, error)
	ProcessAlive(pid uint32) bool
	ProcessName(pid uint32) (string, error)
	TerminateProcess(pid uint32) error
}

// Subscription is an active event subscription. Close is idempotent.
type Subscription interface {
	Close() error
}

// EventSource delivers out-of-process window events for the process owning h.
// Backends that can only watch single windows scope to h itself. The
// sink runs on a thread owned by the backend.
type EventSource interface {
	Subscribe(h Handle, pid, tid uint32, sink func(Event)) (Subscription, error)
}

// Shell creates the host's own top-level frame.
type Shell interface {
	CreateFrame(title string, r Rect, handlers FrameHandlers) (Handle, error)
}

// HotkeyRegistrar binds global key sequences.
type HotkeyRegistrar interface {
	RegisterHotkey(sequence string, fn func()) error
}

// Backend abstracts window-system operations across platforms.
type Backend interface {
	WindowOps
	ProcessOps
	EventSource
	Shell
	HotkeyRegistrar
	Close() error
}
