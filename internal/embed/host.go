package embed

import (
	"fmt"
	"sync/atomic"

	"github.com/1broseidon/wind/internal/platform"
	"github.com/hashicorp/go-multierror"
)

type lifecycle int32

const (
	stateCaptured lifecycle = iota
	stateAttached
	stateReleased
	stateGone
)

// Handlers receive host notifications. They run on the UI loop.
type Handlers struct {
	// Closed fires once when the guest window is destroyed by its owner.
	Closed func()
	// MinimizeRequested fires when the guest tried to minimize itself.
	MinimizeRequested func()
	// MaximizeRequested fires when the guest tried to maximize itself.
	MaximizeRequested func()
	// MoveRequested fires while the user drags the guest, with the offset
	// the host frame should move by.
	MoveRequested func(dx, dy int)
}

// Host owns one guest window from capture until release or destruction.
//
// All methods except Closed must be called from the UI loop.
type Host struct {
	reg *Registry

	// handle is the guest as captured; guest is cleared on teardown.
	handle    platform.Handle
	guest     platform.Handle
	container platform.Handle
	pid       uint32
	tid       uint32
	class     string
	mode      Mode

	original     platform.Style
	originalRect platform.Rect

	state        atomic.Int32
	bounds       platform.Rect
	moving       bool
	wasMaximized bool

	monitor  *monitor
	handlers Handlers
}

func (h *Host) capture() error {
	ops := h.reg.backend
	h.handle = h.guest

	tid, pid, err := ops.ThreadProcessID(h.guest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	h.tid, h.pid = tid, pid

	if !ops.IsHostElevated() {
		elevated, err := ops.IsProcessElevated(pid)
		if err != nil {
			h.reg.logger.Debug("elevation check failed", "pid", pid, "error", err)
		} else if elevated {
			return ErrElevated
		}
	}

	if ops.IsMinimized(h.guest) {
		if err := ops.Show(h.guest, platform.ShowRestore); err != nil {
			h.reg.logger.Debug("restore before capture failed", "error", err)
		}
	}

	style, err := ops.Style(h.guest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	rect, err := ops.WindowRect(h.guest)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	h.original = style
	h.originalRect = rect

	if class, err := ops.ClassName(h.guest); err == nil {
		h.class = class
	}
	h.mode = ClassifyClass(h.class, h.reg.popupClasses)
	h.bounds = rect.Origin()

	// Drop the taskbar entry and hide before any container exists so the
	// original window never flashes.
	if err := ops.SetStyle(h.guest, platform.Style{Bits: style.Bits, ExBits: toolExBits(style.ExBits)}); err != nil {
		h.reg.logger.Debug("set tool window style failed", "error", err)
	}
	if err := ops.Show(h.guest, platform.ShowHide); err != nil {
		h.reg.logger.Debug("hide guest failed", "error", err)
	}

	h.monitor = newMonitor(h)
	h.state.Store(int32(stateCaptured))
	return nil
}

func toolExBits(ex uint32) uint32 {
	return ex&^platform.ExAppWindow | platform.ExToolWindow
}

// Attach creates the container under parent and moves the guest into it.
// It returns the container handle.
func (h *Host) Attach(parent platform.Handle) (platform.Handle, error) {
	if lifecycle(h.state.Load()) != stateCaptured {
		return 0, ErrNotCaptured
	}
	ops := h.reg.backend

	bounds := h.bounds
	if bounds.Width <= 0 || bounds.Height <= 0 {
		bounds = platform.Rect{Width: 100, Height: 100}
	}
	container, err := ops.CreateContainer(parent, bounds)
	if err != nil {
		return 0, fmt.Errorf("create container: %w", err)
	}
	h.container = container
	h.bounds = bounds

	bits := h.original.Bits &^ platform.FrameBits
	switch h.mode {
	case ClippedPopup:
		bits = bits&^platform.StyleChild | platform.StylePopup | platform.StyleVisible
	default:
		bits = bits&^platform.StylePopup | platform.StyleChild | platform.StyleVisible
	}
	style := platform.Style{Bits: bits, ExBits: toolExBits(h.original.ExBits)}

	// Failures past this point leave a half-embedded foreign window that
	// cannot be rolled back; they are logged and the host stays usable.
	logFail := func(step string, err error) {
		if err != nil {
			h.reg.logger.Warn("attach step failed", "step", step, "handle", h.hexHandle(), "error", err)
		}
	}
	logFail("set style", ops.SetStyle(h.guest, style))
	_, err = ops.SetParent(h.guest, container)
	logFail("set parent", err)
	inner := bounds.Origin()
	logFail("position", ops.SetBounds(h.guest, inner,
		platform.PosNoZOrder|platform.PosFrameChanged|platform.PosShowWindow))
	if h.mode == ClippedPopup {
		logFail("clip", ops.SetClipRegion(h.guest, &inner))
	}
	logFail("show", ops.Show(h.guest, platform.ShowNormal))

	h.state.Store(int32(stateAttached))

	if err := h.monitor.start(ops); err != nil {
		h.reg.logger.Warn("event monitor unavailable", "handle", h.hexHandle(), "error", err)
	}
	return container, nil
}

// SetHandlers replaces the notification handlers.
func (h *Host) SetHandlers(handlers Handlers) {
	h.handlers = handlers
}

// Place positions the container at r inside its parent and fills it with
// the guest.
func (h *Host) Place(r platform.Rect) {
	if !h.live() || h.moving {
		return
	}
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	h.bounds = r
	if err := h.reg.backend.SetBounds(h.container, r, platform.PosNoZOrder); err != nil {
		h.reg.logger.Debug("place container failed", "error", err)
	}
	h.fit(r.Width, r.Height)
}

// Resize sizes the container and the guest to width x height. It does
// nothing while the guest is being dragged.
func (h *Host) Resize(width, height int) {
	if !h.live() || h.moving {
		return
	}
	if width <= 0 || height <= 0 {
		return
	}
	h.bounds.Width, h.bounds.Height = width, height
	if err := h.reg.backend.SetBounds(h.container, h.bounds, platform.PosNoZOrder); err != nil {
		h.reg.logger.Debug("resize container failed", "error", err)
	}
	h.fit(width, height)
}

// fit places the guest at (0,0,width,height) inside the container.
func (h *Host) fit(width, height int) {
	ops := h.reg.backend
	inner := platform.Rect{Width: width, Height: height}
	flags := platform.PosNoZOrder
	if h.mode == ClippedPopup {
		flags |= platform.PosNoCopyBits
	}
	if err := ops.SetBounds(h.guest, inner, flags); err != nil {
		h.reg.logger.Debug("resize guest failed", "error", err)
	}
	if h.mode == ClippedPopup {
		if err := ops.SetClipRegion(h.guest, &inner); err != nil {
			h.reg.logger.Debug("update clip failed", "error", err)
		}
	}
}

// SetVisible shows or hides the container.
func (h *Host) SetVisible(visible bool) {
	if !h.live() {
		return
	}
	cmd := platform.ShowHide
	if visible {
		cmd = platform.ShowNormal
	}
	if err := h.reg.backend.Show(h.container, cmd); err != nil {
		h.reg.logger.Debug("container visibility failed", "visible", visible, "error", err)
	}
}

// Focus gives the guest keyboard focus without making it the foreground
// window.
func (h *Host) Focus() error {
	if !h.live() {
		return nil
	}
	return h.reg.backend.FocusWindow(h.guest)
}

// Release hands the guest back to the desktop with its original style and
// bounds. It is a no-op once the host is released or gone. Every step is
// attempted; failures are aggregated.
func (h *Host) Release() error {
	attached := h.state.CompareAndSwap(int32(stateAttached), int32(stateReleased))
	if !attached && !h.state.CompareAndSwap(int32(stateCaptured), int32(stateReleased)) {
		return nil
	}

	// No notification may arrive once restoration begins.
	h.monitor.stop()

	ops := h.reg.backend
	var result *multierror.Error
	step := func(name string, err error) {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}

	if attached {
		if h.mode == ClippedPopup {
			step("remove clip", ops.SetClipRegion(h.guest, nil))
		}
		_, err := ops.SetParent(h.guest, 0)
		step("set parent", err)
	}
	step("restore style", ops.SetStyle(h.guest, h.original))
	step("restore bounds", ops.SetBounds(h.guest, h.originalRect,
		platform.PosNoZOrder|platform.PosFrameChanged|platform.PosShowWindow))
	step("show", ops.Show(h.guest, platform.ShowRestore))
	if h.container != 0 {
		step("destroy container", ops.DestroyWindow(h.container))
		h.container = 0
	}

	h.guest = 0
	h.reg.remove(h.handle, h)

	if err := result.ErrorOrNil(); err != nil {
		h.reg.logger.Warn("window released with errors", "handle", h.hexHandle(), "error", err)
		return err
	}
	h.reg.logger.Info("window released", "handle", h.hexHandle())
	return nil
}

// Detach hands a guest that has been asked to close back to the desktop
// while keeping it hidden, then destroys the container. The guest keeps
// running so it can finish handling the close request. Style and bounds are
// not restored.
func (h *Host) Detach() error {
	attached := h.state.CompareAndSwap(int32(stateAttached), int32(stateReleased))
	if !attached && !h.state.CompareAndSwap(int32(stateCaptured), int32(stateReleased)) {
		return nil
	}
	h.monitor.stop()

	ops := h.reg.backend
	var result *multierror.Error
	step := func(name string, err error) {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		}
	}

	if attached && ops.IsWindow(h.guest) {
		step("hide", ops.Show(h.guest, platform.ShowHide))
		if h.mode == ClippedPopup {
			step("remove clip", ops.SetClipRegion(h.guest, nil))
		}
		_, err := ops.SetParent(h.guest, 0)
		step("set parent", err)
	}
	if h.container != 0 {
		step("destroy container", ops.DestroyWindow(h.container))
		h.container = 0
	}

	h.guest = 0
	h.reg.remove(h.handle, h)

	if err := result.ErrorOrNil(); err != nil {
		h.reg.logger.Warn("window detached with errors", "handle", h.hexHandle(), "error", err)
		return err
	}
	h.reg.logger.Info("window detached for close", "handle", h.hexHandle())
	return nil
}

// Abandon drops the host without touching the guest. Use it when the guest
// is known to be gone; destroying the container takes any remaining child
// with it.
func (h *Host) Abandon() {
	h.teardown(false)
}

// teardown runs when the guest no longer exists. Only bookkeeping and our
// own container are touched.
func (h *Host) teardown(notify bool) {
	if !h.state.CompareAndSwap(int32(stateAttached), int32(stateGone)) &&
		!h.state.CompareAndSwap(int32(stateCaptured), int32(stateGone)) {
		return
	}
	h.monitor.stop()
	if h.container != 0 {
		if err := h.reg.backend.DestroyWindow(h.container); err != nil {
			h.reg.logger.Debug("destroy container failed", "error", err)
		}
		h.container = 0
	}
	h.guest = 0
	h.reg.remove(h.handle, h)
	h.reg.logger.Info("guest window gone", "handle", h.hexHandle())

	if notify && h.handlers.Closed != nil {
		h.handlers.Closed()
	}
}

func (h *Host) live() bool {
	return lifecycle(h.state.Load()) == stateAttached && h.guest != 0
}

// Handle returns the captured guest handle. It stays valid as an identifier
// after the host is closed.
func (h *Host) Handle() platform.Handle { return h.handle }

// Container returns the container handle, or zero before Attach and after
// close.
func (h *Host) Container() platform.Handle { return h.container }

// PID returns the guest process id.
func (h *Host) PID() uint32 { return h.pid }

// Mode returns the embed mode chosen at capture.
func (h *Host) Mode() Mode { return h.mode }

// Class returns the guest window class.
func (h *Host) Class() string { return h.class }

// Closed reports whether the host was released or its guest is gone.
func (h *Host) Closed() bool {
	s := lifecycle(h.state.Load())
	return s == stateReleased || s == stateGone
}

// Moving reports whether the user is dragging the guest.
func (h *Host) Moving() bool { return h.moving }

// Original returns the style and screen bounds recorded at capture.
func (h *Host) Original() (platform.Style, platform.Rect) {
	return h.original, h.originalRect
}

func (h *Host) hexHandle() string {
	return fmt.Sprintf("0x%x", uintptr(h.handle))
}
