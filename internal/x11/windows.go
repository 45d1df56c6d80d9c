package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// Geometry is a window rectangle in root coordinates.
type Geometry struct {
	X, Y          int
	Width, Height int
}

// Exists reports whether the server still knows the window.
func (c *Connection) Exists(windowID xproto.Window) bool {
	_, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	return err == nil
}

// IsViewable reports whether the window is mapped and all its ancestors are.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}

// IsOverrideRedirect reports whether the window bypasses the window manager.
func (c *Connection) IsOverrideRedirect(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return false
	}
	return attrs.OverrideRedirect
}

// SetOverrideRedirect toggles the override-redirect attribute.
func (c *Connection) SetOverrideRedirect(windowID xproto.Window, on bool) error {
	var v uint32
	if on {
		v = 1
	}
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), windowID,
		xproto.CwOverrideRedirect, []uint32{v}).Check()
}

// RootGeometry returns the window bounds translated to root coordinates.
func (c *Connection) RootGeometry(windowID xproto.Window) (Geometry, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return Geometry{}, err
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{
		X:      int(translate.DstX),
		Y:      int(translate.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// Parent returns the immediate parent from the window tree.
func (c *Connection) Parent(windowID xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return 0, err
	}
	return tree.Parent, nil
}

// Reparent moves windowID under parent at the given offset. A zero parent
// means the root window.
func (c *Connection) Reparent(windowID, parent xproto.Window, x, y int) error {
	if parent == 0 {
		parent = c.Root
	}
	return xproto.ReparentWindowChecked(c.XUtil.Conn(), windowID, parent, int16(x), int16(y)).Check()
}

// MoveResizeWindow moves and resizes a window managed by the window manager.
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}
	// Some window managers ignore geometry requests for maximized windows.
	_ = c.unmaximizeWindow(windowID)

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// Configure sets the geometry of an unmanaged window directly, relative to
// its parent.
func (c *Connection) Configure(windowID xproto.Window, x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d", width, height)
	}
	xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) error {
	if !c.IsMaximized(windowID) {
		return nil
	}
	ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_HORZ")
	return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateRemove, "_NET_WM_STATE_MAXIMIZED_VERT")
}

// IsMaximized reports whether both maximized states are set.
func (c *Connection) IsMaximized(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	var horz, vert bool
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			horz = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			vert = true
		}
	}
	return horz && vert
}

// IsIconic reports whether the window is minimized.
func (c *Connection) IsIconic(windowID xproto.Window) bool {
	if st, err := icccm.WmStateGet(c.XUtil, windowID); err == nil && st.State == icccm.StateIconic {
		return true
	}
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_HIDDEN" {
			return true
		}
	}
	return false
}

// Maximize asks the window manager to maximize a top-level window.
func (c *Connection) Maximize(windowID xproto.Window) error {
	ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateAdd, "_NET_WM_STATE_MAXIMIZED_HORZ")
	return ewmh.WmStateReq(c.XUtil, windowID, ewmh.StateAdd, "_NET_WM_STATE_MAXIMIZED_VERT")
}

// Restore maps the window and clears minimized and maximized states.
func (c *Connection) Restore(windowID xproto.Window) error {
	_ = c.unmaximizeWindow(windowID)
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// Map shows the window.
func (c *Connection) Map(windowID xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// Unmap hides the window.
func (c *Connection) Unmap(windowID xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// Decorations returns the Motif decoration flags of a window. Windows without
// hints are treated as fully decorated.
func (c *Connection) Decorations(windowID xproto.Window) uint {
	hints, err := motif.WmHintsGet(c.XUtil, windowID)
	if err != nil || hints.Flags&motif.HintDecorations == 0 {
		return motif.DecorationAll
	}
	return hints.Decoration
}

// SetDecorations writes Motif decoration hints, keeping the other hint fields.
func (c *Connection) SetDecorations(windowID xproto.Window, decorations uint) error {
	hints, err := motif.WmHintsGet(c.XUtil, windowID)
	if err != nil || hints == nil {
		hints = &motif.Hints{}
	}
	hints.Flags |= motif.HintDecorations
	hints.Decoration = decorations
	return motif.WmHintsSet(c.XUtil, windowID, hints)
}

// SkipsTaskbar reports whether the window asked to be left out of taskbars.
func (c *Connection) SkipsTaskbar(windowID xproto.Window) bool {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return false
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_SKIP_TASKBAR" {
			return true
		}
	}
	return false
}

// SetSkipTaskbar adds or removes the skip-taskbar and skip-pager states.
func (c *Connection) SetSkipTaskbar(windowID xproto.Window, skip bool) error {
	action := ewmh.StateRemove
	if skip {
		action = ewmh.StateAdd
	}
	if c.IsViewable(windowID) {
		ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_SKIP_PAGER")
		return ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_SKIP_TASKBAR")
	}

	// Unmapped windows are not managed: edit the property directly.
	states, _ := ewmh.WmStateGet(c.XUtil, windowID)
	kept := states[:0]
	for _, s := range states {
		if s != "_NET_WM_STATE_SKIP_TASKBAR" && s != "_NET_WM_STATE_SKIP_PAGER" {
			kept = append(kept, s)
		}
	}
	if skip {
		kept = append(kept, "_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER")
	}
	return ewmh.WmStateSet(c.XUtil, windowID, kept)
}

// SetClip sets a rectangular bounding shape. A nil rectangle resets the shape
// to the full window.
func (c *Connection) SetClip(windowID xproto.Window, r *Geometry) error {
	if !c.hasShape {
		return fmt.Errorf("shape extension unavailable")
	}
	if r == nil {
		return shape.MaskChecked(c.XUtil.Conn(), shape.SoSet, shape.SkBounding,
			windowID, 0, 0, xproto.PixmapNone).Check()
	}
	rects := []xproto.Rectangle{{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(r.Width),
		Height: uint16(r.Height),
	}}
	return shape.RectanglesChecked(c.XUtil.Conn(), shape.SoSet, shape.SkBounding,
		xproto.ClipOrderingUnsorted, windowID, 0, 0, rects).Check()
}

// Focus gives keyboard input to the window without activating it through the
// window manager.
func (c *Connection) Focus(windowID xproto.Window) error {
	return xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusPointerRoot,
		windowID, xproto.TimeCurrentTime).Check()
}

// Title returns the EWMH name, falling back to WM_NAME.
func (c *Connection) Title(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// Class returns the WM_CLASS class part.
func (c *Connection) Class(windowID xproto.Window) (string, error) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(wmClass.Class), nil
}

// PID returns _NET_WM_PID.
func (c *Connection) PID(windowID xproto.Window) (uint32, error) {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0, err
	}
	return uint32(pid), nil
}

// Clients returns the managed client list.
func (c *Connection) Clients() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_UTILITY" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}
