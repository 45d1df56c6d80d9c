//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

func (b *WindowsBackend) IsWindow(h Handle) bool {
	if h == 0 {
		return false
	}
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

func (b *WindowsBackend) IsVisible(h Handle) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

func (b *WindowsBackend) ClassName(h Handle) (string, error) {
	buf := make([]uint16, 256)
	r, _, err := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", fmt.Errorf("get class name: %w", err)
	}
	return windows.UTF16ToString(buf[:r]), nil
}

func (b *WindowsBackend) Title(h Handle) (string, error) {
	n, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if n == 0 {
		return "", nil
	}
	buf := make([]uint16, n+1)
	r, _, err := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", fmt.Errorf("get window text: %w", err)
	}
	return windows.UTF16ToString(buf[:r]), nil
}

func (b *WindowsBackend) Style(h Handle) (Style, error) {
	if !b.IsWindow(h) {
		return Style{}, fmt.Errorf("invalid window 0x%x", uintptr(h))
	}
	style, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(gwlStyle))
	ex, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(gwlExStyle))
	return Style{Bits: uint32(style), ExBits: uint32(ex)}, nil
}

func (b *WindowsBackend) SetStyle(h Handle, s Style) error {
	procSetLastError.Call(0)
	r, _, err := procSetWindowLongW.Call(uintptr(h), uintptr(gwlStyle), uintptr(s.Bits))
	if r == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("set style: %w", err)
	}
	procSetLastError.Call(0)
	r, _, err = procSetWindowLongW.Call(uintptr(h), uintptr(gwlExStyle), uintptr(s.ExBits))
	if r == 0 && err != windows.ERROR_SUCCESS {
		return fmt.Errorf("set extended style: %w", err)
	}
	return nil
}

func (b *WindowsBackend) WindowRect(h Handle) (Rect, error) {
	var rc rect
	r, _, err := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&rc)))
	if r == 0 {
		return Rect{}, fmt.Errorf("get window rect: %w", err)
	}
	return rc.toRect(), nil
}

func (b *WindowsBackend) SetParent(h, parent Handle) (Handle, error) {
	var (
		prev uintptr
		err  error
	)
	callErr := b.call(func() {
		var e error
		prev, _, e = procSetParent.Call(uintptr(h), uintptr(parent))
		if prev == 0 {
			err = fmt.Errorf("set parent: %w", e)
			return
		}
		if parent == 0 {
			delete(b.parents, h)
		} else {
			b.parents[h] = parent
		}
	})
	if callErr != nil {
		return 0, callErr
	}
	return Handle(prev), err
}

// SetBounds takes parent-relative coordinates. Popup windows position in
// screen coordinates even when parented, so they are translated first.
func (b *WindowsBackend) SetBounds(h Handle, r Rect, flags PosFlags) error {
	var parent Handle
	_ = b.call(func() { parent = b.parents[h] })

	if parent != 0 {
		style, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(gwlStyle))
		if uint32(style)&StyleChild == 0 {
			pt := point{X: int32(r.X), Y: int32(r.Y)}
			procMapWindowPoints.Call(uintptr(parent), hwndDesktop, uintptr(unsafe.Pointer(&pt)), 1)
			r.X, r.Y = int(pt.X), int(pt.Y)
		}
	}

	var swp uintptr = swpNoActivate
	if flags&PosNoZOrder != 0 {
		swp |= swpNoZOrder
	}
	if flags&PosFrameChanged != 0 {
		swp |= swpFrameChanged
	}
	if flags&PosShowWindow != 0 {
		swp |= swpShowWindow
	}
	if flags&PosNoCopyBits != 0 {
		swp |= swpNoCopyBits
	}

	ok, _, err := procSetWindowPos.Call(uintptr(h), 0,
		uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height), swp)
	if ok == 0 {
		return fmt.Errorf("set window pos: %w", err)
	}
	return nil
}

func (b *WindowsBackend) Show(h Handle, cmd ShowCmd) error {
	var sw uintptr
	switch cmd {
	case ShowHide:
		sw = swHide
	case ShowNormal:
		sw = swShowNormal
	case ShowRestore:
		sw = swRestore
	case ShowMinimize:
		sw = swMinimize
	case ShowMaximize:
		sw = swMaximize
	default:
		return fmt.Errorf("unknown show command %d", cmd)
	}
	// ShowWindow returns the previous visibility, not success.
	procShowWindow.Call(uintptr(h), sw)
	return nil
}

func (b *WindowsBackend) IsMaximized(h Handle) bool {
	r, _, _ := procIsZoomed.Call(uintptr(h))
	return r != 0
}

func (b *WindowsBackend) IsMinimized(h Handle) bool {
	r, _, _ := procIsIconic.Call(uintptr(h))
	return r != 0
}

func (b *WindowsBackend) SetClipRegion(h Handle, r *Rect) error {
	if r == nil {
		if ok, _, err := procSetWindowRgn.Call(uintptr(h), 0, 1); ok == 0 {
			return fmt.Errorf("clear window region: %w", err)
		}
		return nil
	}

	rgn, _, err := procCreateRectRgn.Call(uintptr(r.X), uintptr(r.Y),
		uintptr(r.X+r.Width), uintptr(r.Y+r.Height))
	if rgn == 0 {
		return fmt.Errorf("create region: %w", err)
	}
	// The system owns the region once SetWindowRgn succeeds.
	if ok, _, err := procSetWindowRgn.Call(uintptr(h), rgn, 1); ok == 0 {
		procDeleteObject.Call(rgn)
		return fmt.Errorf("set window region: %w", err)
	}
	return nil
}

func (b *WindowsBackend) ThreadProcessID(h Handle) (uint32, uint32, error) {
	var pid uint32
	tid, _, err := procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	if tid == 0 {
		return 0, 0, fmt.Errorf("get window thread: %w", err)
	}
	return uint32(tid), pid, nil
}

// FocusWindow joins the pump thread's input state with the guest thread so
// SetFocus is allowed, then detaches again.
func (b *WindowsBackend) FocusWindow(h Handle) error {
	tid, _, err := b.ThreadProcessID(h)
	if err != nil {
		return err
	}
	var focusErr error
	callErr := b.call(func() {
		self := windows.GetCurrentThreadId()
		attached := false
		if tid != self {
			r, _, _ := procAttachThreadInput.Call(uintptr(self), uintptr(tid), 1)
			attached = r != 0
		}
		if r, _, e := procSetFocus.Call(uintptr(h)); r == 0 && e != windows.ERROR_SUCCESS {
			focusErr = fmt.Errorf("set focus: %w", e)
		}
		if attached {
			procAttachThreadInput.Call(uintptr(self), uintptr(tid), 0)
		}
	})
	if callErr != nil {
		return callErr
	}
	return focusErr
}

func (b *WindowsBackend) PostClose(h Handle) error {
	if r, _, err := procPostMessageW.Call(uintptr(h), wmClose, 0, 0); r == 0 {
		return fmt.Errorf("post WM_CLOSE: %w", err)
	}
	return nil
}
