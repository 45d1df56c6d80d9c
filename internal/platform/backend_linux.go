//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/wind/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/motif"
)

// LinuxBackend implements Backend on top of an X11 connection.
type LinuxBackend struct {
	unixProcesses

	conn *x11.Connection

	mu sync.Mutex
	// owned holds windows this backend created (frame and containers).
	owned map[xproto.Window]bool
	// embedded maps guests currently reparented into an owned window to
	// that window.
	embedded map[xproto.Window]xproto.Window
}

var _ Backend = (*LinuxBackend)(nil)

// New opens the default display and starts its event loop.
func New() (Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	b := NewLinuxBackend(conn)
	conn.StartEventLoop()
	return b, nil
}

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{
		conn:     conn,
		owned:    make(map[xproto.Window]bool),
		embedded: make(map[xproto.Window]xproto.Window),
	}
}

// Close disconnects from the X server.
func (b *LinuxBackend) Close() error {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
	return nil
}

func win(h Handle) xproto.Window { return xproto.Window(h) }

func (b *LinuxBackend) isUnmanaged(w xproto.Window) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, embedded := b.embedded[w]
	return b.owned[w] || embedded
}

// IsWindow reports whether the server still knows h.
func (b *LinuxBackend) IsWindow(h Handle) bool {
	return h != 0 && b.conn.Exists(win(h))
}

// IsVisible reports whether h is viewable.
func (b *LinuxBackend) IsVisible(h Handle) bool {
	return b.conn.IsViewable(win(h))
}

// ClassName returns the WM_CLASS class.
func (b *LinuxBackend) ClassName(h Handle) (string, error) {
	return b.conn.Class(win(h))
}

// Title returns the window name.
func (b *LinuxBackend) Title(h Handle) (string, error) {
	if !b.IsWindow(h) {
		return "", fmt.Errorf("window 0x%x does not exist", uint32(h))
	}
	return b.conn.Title(win(h)), nil
}

var decorationBits = []struct {
	decoration uint
	bits       uint32
}{
	{motif.DecorationBorder, StyleBorder},
	{motif.DecorationResizeH, StyleThickFrame},
	{motif.DecorationTitle, StyleDlgFrame},
	{motif.DecorationMenu, StyleSysMenu},
	{motif.DecorationMinimize, StyleMinimizeBox},
	{motif.DecorationMaximize, StyleMaximizeBox},
}

// Style synthesizes style words from Motif hints, map state and EWMH state.
func (b *LinuxBackend) Style(h Handle) (Style, error) {
	w := win(h)
	if !b.conn.Exists(w) {
		return Style{}, fmt.Errorf("window 0x%x does not exist", uint32(w))
	}

	var s Style
	deco := b.conn.Decorations(w)
	if deco&motif.DecorationAll != 0 {
		s.Bits |= FrameBits
	} else {
		for _, d := range decorationBits {
			if deco&d.decoration != 0 {
				s.Bits |= d.bits
			}
		}
	}
	if b.conn.IsViewable(w) {
		s.Bits |= StyleVisible
	}
	if b.conn.IsOverrideRedirect(w) {
		s.Bits |= StylePopup
	}
	b.mu.Lock()
	if _, ok := b.embedded[w]; ok {
		s.Bits |= StyleChild
	}
	b.mu.Unlock()
	if b.conn.SkipsTaskbar(w) {
		s.ExBits |= ExToolWindow
	}
	return s, nil
}

// SetStyle writes the decoration, popup and tool-window parts of s. Child and
// visible bits follow from SetParent and Show.
func (b *LinuxBackend) SetStyle(h Handle, s Style) error {
	w := win(h)

	var deco uint
	if s.Bits&FrameBits == FrameBits {
		deco = motif.DecorationAll
	} else {
		for _, d := range decorationBits {
			if s.Bits&d.bits == d.bits {
				deco |= d.decoration
			}
		}
	}
	if err := b.conn.SetDecorations(w, deco); err != nil {
		return err
	}

	popup := s.Bits&StylePopup != 0
	if popup != b.conn.IsOverrideRedirect(w) {
		if err := b.conn.SetOverrideRedirect(w, popup); err != nil {
			return err
		}
	}

	tool := s.ExBits&ExToolWindow != 0
	if tool != b.conn.SkipsTaskbar(w) {
		return b.conn.SetSkipTaskbar(w, tool)
	}
	return nil
}

// WindowRect returns h in root coordinates.
func (b *LinuxBackend) WindowRect(h Handle) (Rect, error) {
	g, err := b.conn.RootGeometry(win(h))
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}, nil
}

// SetParent reparents h. A zero parent returns it to the root window.
func (b *LinuxBackend) SetParent(h, parent Handle) (Handle, error) {
	w := win(h)
	old, err := b.conn.Parent(w)
	if err != nil {
		return 0, err
	}
	if err := b.conn.Reparent(w, win(parent), 0, 0); err != nil {
		return 0, err
	}

	b.mu.Lock()
	if parent == 0 {
		delete(b.embedded, w)
	} else {
		b.embedded[w] = win(parent)
	}
	b.mu.Unlock()

	if old == b.conn.Root {
		old = 0
	}
	return Handle(old), nil
}

// SetBounds configures unmanaged windows directly and asks the window
// manager for everything else.
func (b *LinuxBackend) SetBounds(h Handle, r Rect, flags PosFlags) error {
	w := win(h)
	var err error
	if b.isUnmanaged(w) {
		err = b.conn.Configure(w, r.X, r.Y, r.Width, r.Height)
	} else {
		err = b.conn.MoveResizeWindow(w, r.X, r.Y, r.Width, r.Height)
	}
	if err != nil {
		return err
	}
	if flags&PosShowWindow != 0 {
		return b.conn.Map(w)
	}
	return nil
}

// Show changes the presentation of h.
func (b *LinuxBackend) Show(h Handle, cmd ShowCmd) error {
	w := win(h)
	switch cmd {
	case ShowHide:
		return b.conn.Unmap(w)
	case ShowNormal:
		return b.conn.Map(w)
	case ShowRestore:
		return b.conn.Restore(w)
	case ShowMinimize:
		if b.isUnmanaged(w) {
			return b.conn.Unmap(w)
		}
		return b.conn.Iconify(w)
	case ShowMaximize:
		return b.conn.Maximize(w)
	default:
		return fmt.Errorf("unknown show command %d", cmd)
	}
}

// IsMaximized reports the EWMH maximized state.
func (b *LinuxBackend) IsMaximized(h Handle) bool {
	return b.conn.IsMaximized(win(h))
}

// IsMinimized reports the ICCCM iconic or EWMH hidden state.
func (b *LinuxBackend) IsMinimized(h Handle) bool {
	return b.conn.IsIconic(win(h))
}

// SetClipRegion applies a bounding shape to h.
func (b *LinuxBackend) SetClipRegion(h Handle, r *Rect) error {
	if r == nil {
		return b.conn.SetClip(win(h), nil)
	}
	return b.conn.SetClip(win(h), &x11.Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
}

// ThreadProcessID returns the _NET_WM_PID of h. X11 has no thread id.
func (b *LinuxBackend) ThreadProcessID(h Handle) (uint32, uint32, error) {
	pid, err := b.conn.PID(win(h))
	if err != nil {
		return 0, 0, err
	}
	return 0, pid, nil
}

// FocusWindow sets input focus to h.
func (b *LinuxBackend) FocusWindow(h Handle) error {
	return b.conn.Focus(win(h))
}

// PostClose sends WM_DELETE_WINDOW to h.
func (b *LinuxBackend) PostClose(h Handle) error {
	return b.conn.RequestClose(win(h))
}

// CreateContainer creates a mapped child of parent.
func (b *LinuxBackend) CreateContainer(parent Handle, r Rect) (Handle, error) {
	w, err := b.conn.CreateChild(win(parent), r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	b.owned[w] = true
	b.mu.Unlock()
	return Handle(w), nil
}

// DestroyWindow destroys a window created by CreateContainer or CreateFrame.
func (b *LinuxBackend) DestroyWindow(h Handle) error {
	w := win(h)
	b.forget(w)
	return b.conn.Destroy(w)
}

// forget drops w from the bookkeeping along with any guest still parented to
// it, since the server destroys subwindows with their parent.
func (b *LinuxBackend) forget(w xproto.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.owned, w)
	for guest, parent := range b.embedded {
		if parent == w {
			delete(b.embedded, guest)
		}
	}
}

// EnumerateWindows lists managed top-level clients.
func (b *LinuxBackend) EnumerateWindows() ([]Handle, error) {
	clients, err := b.conn.Clients()
	if err != nil {
		return nil, err
	}
	handles := make([]Handle, 0, len(clients))
	for _, c := range clients {
		if !b.conn.IsNormalWindow(c) {
			continue
		}
		handles = append(handles, Handle(c))
	}
	return handles, nil
}

type x11Subscription struct {
	once sync.Once
	conn *x11.Connection
	w    xproto.Window
}

func (s *x11Subscription) Close() error {
	s.once.Do(func() { s.conn.Unwatch(s.w) })
	return nil
}

// Subscribe watches h itself. X11 reports no move/size brackets, so only
// destroy, location and minimize events are produced.
func (b *LinuxBackend) Subscribe(h Handle, _, _ uint32, sink func(Event)) (Subscription, error) {
	w := win(h)
	err := b.conn.Watch(w, x11.WatchCallbacks{
		Destroyed: func(xproto.Window) {
			sink(Event{Kind: EventDestroyed, Handle: h})
		},
		Moved: func(xproto.Window) {
			sink(Event{Kind: EventLocationChanged, Handle: h})
		},
		State: func(xproto.Window) {
			if b.conn.IsIconic(w) {
				sink(Event{Kind: EventMinimizeStart, Handle: h})
				return
			}
			sink(Event{Kind: EventLocationChanged, Handle: h})
		},
	})
	if err != nil {
		return nil, err
	}
	return &x11Subscription{conn: b.conn, w: w}, nil
}

// CreateFrame creates the host's top-level window.
func (b *LinuxBackend) CreateFrame(title string, r Rect, handlers FrameHandlers) (Handle, error) {
	w, err := b.conn.CreateFrame(title, r.X, r.Y, r.Width, r.Height, x11.FrameCallbacks{
		Configure: handlers.OnResize,
		Delete:    handlers.OnClose,
		Focus:     handlers.OnActivate,
	})
	if err != nil {
		return 0, err
	}
	return Handle(w), nil
}

// RegisterHotkey grabs an xgbutil key sequence such as "Mod4-Tab".
func (b *LinuxBackend) RegisterHotkey(sequence string, fn func()) error {
	return b.conn.BindKey(sequence, fn)
}
