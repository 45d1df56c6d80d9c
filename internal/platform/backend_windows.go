//go:build windows

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	containerClass = "WindHostContainer"
	frameClass     = "WindFrame"
)

var (
	errBackendClosed = errors.New("platform: backend closed")
	errBackendOpen   = errors.New("platform: a windows backend is already open in this process")
)

// current is the single open backend. Native callbacks are process-wide and
// cannot be freed, so they are created once and dispatch through it.
var (
	current       atomic.Pointer[WindowsBackend]
	callbacksOnce sync.Once
	winEventCb    uintptr
	frameProcCb   uintptr
	enumWindowsCb uintptr
)

// WindowsBackend implements Backend with user32. A dedicated locked OS thread
// pumps messages; it owns every window and hook this backend creates and is
// the thread WinEvent callbacks arrive on.
type WindowsBackend struct {
	threadID uint32
	instance windows.Handle

	calls chan func()
	done  chan struct{}

	closeOnce sync.Once

	// The fields below are only touched on the pump thread.
	frames   map[Handle]FrameHandlers
	owned    map[Handle]bool
	parents  map[Handle]Handle
	hooks    map[uintptr]*winSubscription
	hotkeys  map[int]func()
	nextKey  int
	enumBuf  []Handle
	classes  []*uint16
	hostProc uint32
}

var _ Backend = (*WindowsBackend)(nil)

// New starts the message pump thread and registers the window classes.
func New() (Backend, error) {
	b := &WindowsBackend{
		calls:    make(chan func(), 64),
		done:     make(chan struct{}),
		frames:   make(map[Handle]FrameHandlers),
		owned:    make(map[Handle]bool),
		parents:  make(map[Handle]Handle),
		hooks:    make(map[uintptr]*winSubscription),
		hotkeys:  make(map[int]func()),
		hostProc: windows.GetCurrentProcessId(),
	}
	if !current.CompareAndSwap(nil, b) {
		return nil, errBackendOpen
	}

	callbacksOnce.Do(func() {
		winEventCb = windows.NewCallback(winEventProc)
		frameProcCb = windows.NewCallback(frameWndProc)
		enumWindowsCb = windows.NewCallback(enumWindowsProc)
	})

	ready := make(chan error, 1)
	go b.pump(ready)
	if err := <-ready; err != nil {
		current.CompareAndSwap(b, nil)
		return nil, err
	}
	return b, nil
}

func (b *WindowsBackend) pump(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(b.done)

	b.threadID = windows.GetCurrentThreadId()

	// Force creation of the thread message queue before anyone posts to it.
	var m msg
	procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, wmUser, wmUser, pmNoRemove)

	if err := b.registerClasses(); err != nil {
		ready <- err
		return
	}
	ready <- nil

	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
		if m.Hwnd == 0 {
			switch m.Message {
			case wmCall:
				b.drainCalls()
				continue
			case wmHotkey:
				if fn := b.hotkeys[int(m.WParam)]; fn != nil {
					fn()
				}
				continue
			}
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}

	b.drainCalls()
	b.teardown()
}

func (b *WindowsBackend) drainCalls() {
	for {
		select {
		case fn := <-b.calls:
			fn()
		default:
			return
		}
	}
}

// call runs fn on the pump thread and waits for it.
func (b *WindowsBackend) call(fn func()) error {
	if windows.GetCurrentThreadId() == b.threadID {
		fn()
		return nil
	}

	finished := make(chan struct{})
	select {
	case b.calls <- func() { defer close(finished); fn() }:
	case <-b.done:
		return errBackendClosed
	}
	procPostThreadMessageW.Call(uintptr(b.threadID), wmCall, 0, 0)

	select {
	case <-finished:
		return nil
	case <-b.done:
		return errBackendClosed
	}
}

func (b *WindowsBackend) registerClasses() error {
	inst, _, _ := procGetModuleHandleW.Call(0)
	b.instance = windows.Handle(inst)
	cursor, _, _ := procLoadCursorW.Call(0, idcArrow)

	register := func(name string, proc uintptr) error {
		className, err := windows.UTF16PtrFromString(name)
		if err != nil {
			return err
		}
		wc := wndClassEx{
			Style:      csHRedraw | csVRedraw,
			WndProc:    proc,
			Instance:   b.instance,
			Cursor:     windows.Handle(cursor),
			Background: windows.Handle(colorWindow + 1),
			ClassName:  className,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		if r, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
			return fmt.Errorf("register class %s: %w", name, err)
		}
		b.classes = append(b.classes, className)
		return nil
	}

	if err := register(containerClass, procDefWindowProcW.Addr()); err != nil {
		return err
	}
	return register(frameClass, frameProcCb)
}

func (b *WindowsBackend) teardown() {
	for _, sub := range b.hooks {
		sub.unhook()
	}
	for id := range b.hotkeys {
		procUnregisterHotKey.Call(0, uintptr(id))
	}
	for h := range b.owned {
		procDestroyWindow.Call(uintptr(h))
	}
	for _, name := range b.classes {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(name)), uintptr(b.instance))
	}
	current.CompareAndSwap(b, nil)
}

// Close stops the pump thread after destroying owned windows and hooks.
func (b *WindowsBackend) Close() error {
	b.closeOnce.Do(func() {
		procPostThreadMessageW.Call(uintptr(b.threadID), wmQuit, 0, 0)
		<-b.done
	})
	return nil
}

func frameWndProc(hwnd, message, wParam, lParam uintptr) uintptr {
	b := current.Load()
	if b == nil {
		r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
		return r
	}
	handlers := b.frames[Handle(hwnd)]

	switch message {
	case wmSize:
		if handlers.OnResize != nil {
			handlers.OnResize(int(lParam&0xFFFF), int((lParam>>16)&0xFFFF))
		}
		return 0
	case wmClose:
		if handlers.OnClose != nil {
			handlers.OnClose()
			return 0
		}
	case wmActivate:
		if wParam&0xFFFF != waInactive && handlers.OnActivate != nil {
			handlers.OnActivate()
		}
	case wmDestroy:
		delete(b.frames, Handle(hwnd))
		delete(b.owned, Handle(hwnd))
	}
	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
}

func enumWindowsProc(hwnd, _ uintptr) uintptr {
	if b := current.Load(); b != nil {
		b.enumBuf = append(b.enumBuf, Handle(hwnd))
	}
	return 1
}

// CreateFrame creates the host's top-level window on the pump thread.
func (b *WindowsBackend) CreateFrame(title string, r Rect, handlers FrameHandlers) (Handle, error) {
	var (
		h   Handle
		err error
	)
	callErr := b.call(func() {
		name, _ := windows.UTF16PtrFromString(frameClass)
		text, convErr := windows.UTF16PtrFromString(title)
		if convErr != nil {
			err = convErr
			return
		}
		x, y, w, hh := cwUseDefault, cwUseDefault, cwUseDefault, cwUseDefault
		if r.Width > 0 && r.Height > 0 {
			x, y, w, hh = uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height)
		}
		ret, _, e := procCreateWindowExW.Call(
			0,
			uintptr(unsafe.Pointer(name)),
			uintptr(unsafe.Pointer(text)),
			wsOverlappedWnd|uintptr(StyleClipChildren)|uintptr(StyleVisible),
			x, y, w, hh,
			0, 0, uintptr(b.instance), 0,
		)
		if ret == 0 {
			err = fmt.Errorf("create frame: %w", e)
			return
		}
		h = Handle(ret)
		b.frames[h] = handlers
		b.owned[h] = true
	})
	if callErr != nil {
		return 0, callErr
	}
	return h, err
}

// CreateContainer creates a clipping child window of parent.
func (b *WindowsBackend) CreateContainer(parent Handle, r Rect) (Handle, error) {
	var (
		h   Handle
		err error
	)
	callErr := b.call(func() {
		name, _ := windows.UTF16PtrFromString(containerClass)
		style := StyleChild | StyleVisible | StyleClipChildren | StyleClipSiblings
		ret, _, e := procCreateWindowExW.Call(
			0,
			uintptr(unsafe.Pointer(name)),
			0,
			uintptr(style),
			uintptr(r.X), uintptr(r.Y), uintptr(max(r.Width, 1)), uintptr(max(r.Height, 1)),
			uintptr(parent), 0, uintptr(b.instance), 0,
		)
		if ret == 0 {
			err = fmt.Errorf("create container: %w", e)
			return
		}
		h = Handle(ret)
		b.owned[h] = true
	})
	if callErr != nil {
		return 0, callErr
	}
	return h, err
}

// DestroyWindow destroys a window owned by this backend.
func (b *WindowsBackend) DestroyWindow(h Handle) error {
	var err error
	callErr := b.call(func() {
		delete(b.owned, h)
		delete(b.frames, h)
		if r, _, e := procDestroyWindow.Call(uintptr(h)); r == 0 {
			err = fmt.Errorf("destroy window: %w", e)
		}
	})
	if callErr != nil {
		return callErr
	}
	return err
}

// EnumerateWindows lists top-level windows in z-order.
func (b *WindowsBackend) EnumerateWindows() ([]Handle, error) {
	var out []Handle
	err := b.call(func() {
		b.enumBuf = b.enumBuf[:0]
		procEnumWindows.Call(enumWindowsCb, 0)
		out = append([]Handle(nil), b.enumBuf...)
	})
	return out, err
}
