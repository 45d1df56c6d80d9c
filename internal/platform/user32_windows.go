//go:build windows

package platform

import (
	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procAttachThreadInput        = user32.NewProc("AttachThreadInput")
	procCreateWindowExW          = user32.NewProc("CreateWindowExW")
	procDefWindowProcW           = user32.NewProc("DefWindowProcW")
	procDestroyWindow            = user32.NewProc("DestroyWindow")
	procDispatchMessageW         = user32.NewProc("DispatchMessageW")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetMessageW              = user32.NewProc("GetMessageW")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procIsIconic                 = user32.NewProc("IsIconic")
	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsZoomed                 = user32.NewProc("IsZoomed")
	procLoadCursorW              = user32.NewProc("LoadCursorW")
	procMapWindowPoints          = user32.NewProc("MapWindowPoints")
	procPeekMessageW             = user32.NewProc("PeekMessageW")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procPostThreadMessageW       = user32.NewProc("PostThreadMessageW")
	procRegisterClassExW         = user32.NewProc("RegisterClassExW")
	procRegisterHotKey           = user32.NewProc("RegisterHotKey")
	procSetFocus                 = user32.NewProc("SetFocus")
	procSetParent                = user32.NewProc("SetParent")
	procSetWindowLongW           = user32.NewProc("SetWindowLongW")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procSetWindowRgn             = user32.NewProc("SetWindowRgn")
	procSetWinEventHook          = user32.NewProc("SetWinEventHook")
	procShowWindow               = user32.NewProc("ShowWindow")
	procTranslateMessage         = user32.NewProc("TranslateMessage")
	procUnhookWinEvent           = user32.NewProc("UnhookWinEvent")
	procUnregisterClassW         = user32.NewProc("UnregisterClassW")
	procUnregisterHotKey         = user32.NewProc("UnregisterHotKey")

	procCreateRectRgn = gdi32.NewProc("CreateRectRgn")
	procDeleteObject  = gdi32.NewProc("DeleteObject")

	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
	procSetLastError     = kernel32.NewProc("SetLastError")
)

// GetWindowLong indexes are negative; keep them as variables so the
// conversion to uintptr sign-extends.
var (
	gwlStyle   int32 = -16
	gwlExStyle int32 = -20
)

const (
	swpNoZOrder      = 0x0004
	swpNoActivate    = 0x0010
	swpFrameChanged  = 0x0020
	swpShowWindow    = 0x0040
	swpNoCopyBits    = 0x0100
	swHide           = 0
	swShowNormal     = 1
	swMaximize       = 3
	swMinimize       = 6
	swRestore        = 9
	wmDestroy        = 0x0002
	wmSize           = 0x0005
	wmActivate       = 0x0006
	wmClose          = 0x0010
	wmHotkey         = 0x0312
	wmUser           = 0x0400
	wmQuit           = 0x0012
	wmCall           = 0x8000 + 1 // WM_APP + 1
	pmNoRemove       = 0x0000
	waInactive       = 0
	csHRedraw        = 0x0002
	csVRedraw        = 0x0001
	colorWindow      = 5
	idcArrow         = 32512
	cwUseDefault     = ^uintptr(0x7FFFFFFF) // CW_USEDEFAULT, sign extended
	wsOverlappedWnd  = 0x00CF0000
	waitTimeout      = 0x00000102
	errorAccessDeny  = windows.ERROR_ACCESS_DENIED
	modAlt           = 0x0001
	modControl       = 0x0002
	modShift         = 0x0004
	modWin           = 0x0008
	modNoRepeat      = 0x4000
	hwndDesktop      = 0
	objidWindow      = 0
	childidSelf      = 0
	winEventOutOfCtx = 0x0000
	winEventSkipOwn  = 0x0002

	eventSystemMoveSizeStart  = 0x000A
	eventSystemMoveSizeEnd    = 0x000B
	eventSystemMinimizeStart  = 0x0016
	eventObjectDestroy        = 0x8001
	eventObjectLocationChange = 0x800B
)

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

func (r rect) toRect() Rect {
	return Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}

type msg struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}
