package embed

import (
	"sync"

	"github.com/1broseidon/wind/internal/platform"
)

// monitor forwards window events of the guest process to the UI loop and
// translates them into host behavior there.
type monitor struct {
	host *Host

	mu      sync.Mutex
	sub     platform.Subscription
	stopped bool
}

func newMonitor(h *Host) *monitor {
	return &monitor{host: h}
}

func (m *monitor) start(src platform.EventSource) error {
	h := m.host
	sub, err := src.Subscribe(h.guest, h.pid, h.tid, m.deliver)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return sub.Close()
	}
	m.sub = sub
	m.mu.Unlock()
	return nil
}

// stop unhooks the subscription. Safe to call more than once.
func (m *monitor) stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			m.host.reg.logger.Debug("unhook failed", "error", err)
		}
	}
}

func (m *monitor) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.stopped
}

// deliver runs on the backend's event thread. It never touches host state;
// the event is queued for the UI loop instead.
func (m *monitor) deliver(ev platform.Event) {
	if !m.active() {
		return
	}
	poster := m.host.reg.poster
	task := func() { m.host.handleEvent(ev) }
	if poster.TryPost(task) {
		return
	}
	if ev.Kind == platform.EventDestroyed {
		// Teardown must not be lost to a full queue.
		go poster.Post(task)
		return
	}
	m.host.reg.logger.Debug("event dropped, queue full", "event", ev.Kind.String())
}

// handleEvent runs on the UI loop.
func (h *Host) handleEvent(ev platform.Event) {
	if h.Closed() || ev.Handle != h.guest || h.guest == 0 {
		return
	}
	ops := h.reg.backend

	switch ev.Kind {
	case platform.EventDestroyed:
		h.teardown(true)

	case platform.EventMoveSizeStart:
		h.moving = true

	case platform.EventMoveSizeEnd:
		h.moving = false
		h.fit(h.bounds.Width, h.bounds.Height)

	case platform.EventMinimizeStart:
		if err := ops.Show(h.guest, platform.ShowRestore); err != nil {
			h.reg.logger.Debug("undo minimize failed", "error", err)
		}
		if h.handlers.MinimizeRequested != nil {
			h.handlers.MinimizeRequested()
		}

	case platform.EventLocationChanged:
		if h.moving {
			h.trackDrag()
			return
		}
		maximized := ops.IsMaximized(h.guest)
		switch {
		case maximized && !h.wasMaximized:
			h.wasMaximized = true
			if err := ops.Show(h.guest, platform.ShowRestore); err != nil {
				h.reg.logger.Debug("undo maximize failed", "error", err)
			}
			h.fit(h.bounds.Width, h.bounds.Height)
			if h.handlers.MaximizeRequested != nil {
				h.handlers.MaximizeRequested()
			}
		case !maximized:
			h.wasMaximized = false
		}
	}
}

// trackDrag turns a drag of the guest into a move request for the host
// frame and puts the guest back at the container origin.
func (h *Host) trackDrag() {
	ops := h.reg.backend
	guestRect, err := ops.WindowRect(h.guest)
	if err != nil {
		return
	}
	containerRect, err := ops.WindowRect(h.container)
	if err != nil {
		return
	}
	dx := guestRect.X - containerRect.X
	dy := guestRect.Y - containerRect.Y
	if dx == 0 && dy == 0 {
		return
	}
	if h.handlers.MoveRequested != nil {
		h.handlers.MoveRequested(dx, dy)
	}
	inner := platform.Rect{Width: h.bounds.Width, Height: h.bounds.Height}
	if err := ops.SetBounds(h.guest, inner, platform.PosNoZOrder|platform.PosNoCopyBits); err != nil {
		h.reg.logger.Debug("snap back failed", "error", err)
	}
}
