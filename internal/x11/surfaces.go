package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// CreateChild creates and maps a plain child window used as an embedding
// container.
func (c *Connection) CreateChild(parent xproto.Window, x, y, width, height int) (xproto.Window, error) {
	if parent == 0 {
		parent = c.Root
	}
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}
	err = win.CreateChecked(parent, x, y, max(width, 1), max(height, 1),
		xproto.CwBackPixel|xproto.CwEventMask,
		0, xproto.EventMaskStructureNotify|xproto.EventMaskSubstructureNotify)
	if err != nil {
		return 0, fmt.Errorf("failed to create container: %w", err)
	}
	win.Map()
	return win.Id, nil
}

// FrameCallbacks receive events for the host frame on the event loop goroutine.
type FrameCallbacks struct {
	Configure func(width, height int)
	Delete    func()
	Focus     func()
}

// CreateFrame creates the host's top-level window and connects its callbacks.
func (c *Connection) CreateFrame(title string, x, y, width, height int, cb FrameCallbacks) (xproto.Window, error) {
	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}
	err = win.CreateChecked(c.Root, x, y, max(width, 1), max(height, 1),
		xproto.CwBackPixel|xproto.CwEventMask,
		0, xproto.EventMaskStructureNotify|xproto.EventMaskFocusChange)
	if err != nil {
		return 0, fmt.Errorf("failed to create frame: %w", err)
	}

	_ = ewmh.WmNameSet(c.XUtil, win.Id, title)
	_ = icccm.WmNameSet(c.XUtil, win.Id, title)
	_ = icccm.WmProtocolsSet(c.XUtil, win.Id, []string{"WM_DELETE_WINDOW"})

	lastW, lastH := width, height
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		w, h := int(ev.Width), int(ev.Height)
		if w == lastW && h == lastH {
			return
		}
		lastW, lastH = w, h
		if cb.Configure != nil {
			cb.Configure(w, h)
		}
	}).Connect(c.XUtil, win.Id)

	xevent.ClientMessageFun(func(_ *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if c.IsDeleteMessage(*ev.ClientMessageEvent) && cb.Delete != nil {
			cb.Delete()
		}
	}).Connect(c.XUtil, win.Id)

	xevent.FocusInFun(func(_ *xgbutil.XUtil, _ xevent.FocusInEvent) {
		if cb.Focus != nil {
			cb.Focus()
		}
	}).Connect(c.XUtil, win.Id)

	win.Map()
	return win.Id, nil
}

// Destroy destroys a window created by this connection.
func (c *Connection) Destroy(windowID xproto.Window) error {
	xevent.Detach(c.XUtil, windowID)
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), windowID).Check()
}

// WatchCallbacks receive guest window events on the event loop goroutine.
type WatchCallbacks struct {
	Destroyed func(xproto.Window)
	Moved     func(xproto.Window)
	State     func(xproto.Window)
}

// Watch selects structure and property events on the window and connects
// the callbacks. Unwatch undoes it.
func (c *Connection) Watch(windowID xproto.Window, cb WatchCallbacks) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("failed to select events: %w", err)
	}

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		if ev.Window == windowID && cb.Destroyed != nil {
			cb.Destroyed(ev.Window)
		}
	}).Connect(c.XUtil, windowID)

	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		if ev.Window == windowID && cb.Moved != nil {
			cb.Moved(ev.Window)
		}
	}).Connect(c.XUtil, windowID)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		if (name == "WM_STATE" || name == "_NET_WM_STATE") && cb.State != nil {
			cb.State(ev.Window)
		}
	}).Connect(c.XUtil, windowID)

	return nil
}

// Unwatch detaches every callback and deselects events on the window.
func (c *Connection) Unwatch(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
	_ = xwindow.New(c.XUtil, windowID).Listen(xproto.EventMaskNoEvent)
}
