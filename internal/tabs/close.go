package tabs

import (
	"context"
	"fmt"
	"time"

	"github.com/1broseidon/wind/internal/platform"
	"github.com/hashicorp/go-multierror"
)

// CloseTab closes tab according to action. Content and web tabs are always
// just removed.
func (m *Manager) CloseTab(tab *Tab, action CloseAction) {
	if m.indexOf(tab) < 0 {
		return
	}
	if tab.Kind != KindWindow {
		m.removeTab(tab)
		return
	}

	switch action {
	case ReleaseEmbed:
		m.releaseHost(tab)
		m.removeTab(tab)
	case CloseOuter:
		if m.hooks.OuterCloseRequested != nil {
			m.hooks.OuterCloseRequested()
		}
	default:
		m.requestClose(tab)
		// The request is asynchronous, so a guest that is still closing shows
		// briefly on the desktop. One that stops to ask about unsaved work
		// stays there instead of hidden with nothing left to reap it.
		if tab.host != nil && m.backend.IsWindow(tab.Window.Handle) {
			m.releaseHost(tab)
		} else if tab.host != nil {
			tab.host.Abandon()
		}
		m.removeTab(tab)
	}
}

// detachHost takes a guest that was asked to close out of its container
// without showing it, so destroying the container cannot destroy the guest.
func (m *Manager) detachHost(tab *Tab) {
	if tab.host == nil {
		return
	}
	if err := tab.host.Detach(); err != nil {
		m.logger.Warn("detach failed", "id", tab.ID, "error", err)
	}
}

func (m *Manager) releaseHost(tab *Tab) {
	if tab.host == nil {
		return
	}
	if err := tab.host.Release(); err != nil {
		m.logger.Warn("release failed", "id", tab.ID, "error", err)
	}
}

// requestClose posts a close request to the guest and returns its pid, or
// zero when there is nothing to wait for.
func (m *Manager) requestClose(tab *Tab) uint32 {
	h := tab.Window.Handle
	if h == 0 || tab.host == nil || tab.host.Closed() {
		return 0
	}
	if err := m.backend.PostClose(h); err != nil {
		m.logger.Debug("post close failed", "id", tab.ID, "error", err)
	}
	return tab.host.PID()
}

// BulkClose removes tabs in one pass. Window tabs launched at startup, or
// every window tab when closeAll is set, are asked to close and their
// processes are reaped in the background; the rest are released. The
// returned channel yields the reaper's result once and is then closed.
func (m *Manager) BulkClose(tabs []*Tab, closeAll bool) <-chan error {
	return m.bulkClose(tabs, func(t *Tab) bool { return closeAll || t.LaunchedAtStartup })
}

func (m *Manager) bulkClose(tabs []*Tab, shouldClose func(*Tab) bool) <-chan error {
	var pids []uint32
	for _, tab := range tabs {
		if m.indexOf(tab) < 0 {
			continue
		}
		if tab.Kind == KindWindow && tab.host != nil {
			if shouldClose(tab) {
				if pid := m.requestClose(tab); pid != 0 {
					pids = append(pids, pid)
				}
				m.detachHost(tab)
			} else {
				m.releaseHost(tab)
			}
		}
		m.removeTab(tab)
	}

	done := make(chan error, 1)
	if len(pids) == 0 {
		done <- nil
		close(done)
		return done
	}
	m.logger.Info("waiting for guest processes", "count", len(pids), "timeout", m.killAfter)
	backend, timeout, poll, logger := m.backend, m.killAfter, m.killPoll, m.logger
	go func() {
		defer close(done)
		err := ForceKill(context.Background(), backend, pids, timeout, poll)
		if err != nil {
			logger.Warn("force kill incomplete", "error", err)
		}
		done <- err
	}()
	return done
}

// Shutdown stops tiling and empties the tab list according to mode.
func (m *Manager) Shutdown(mode ExitMode) <-chan error {
	m.StopTile()
	all := m.Tabs()
	switch mode {
	case ExitCloseAll:
		return m.BulkClose(all, true)
	case ExitCloseStartup:
		return m.BulkClose(all, false)
	default:
		return m.bulkClose(all, func(*Tab) bool { return false })
	}
}

// CleanupInvalidTabs removes window tabs whose window or process no longer
// exists, without attempting any restoration. A call made while a pass is
// running, from one of its hooks, returns 0.
func (m *Manager) CleanupInvalidTabs() int {
	if m.cleaning {
		return 0
	}
	m.cleaning = true
	defer func() { m.cleaning = false }()

	var gone []*Tab
	for _, t := range m.tabs {
		if t.Kind == KindWindow && !m.guestAlive(t) {
			gone = append(gone, t)
		}
	}
	for _, t := range gone {
		if m.indexOf(t) < 0 {
			continue
		}
		if t.host != nil {
			t.host.Abandon()
		}
		m.logger.Info("removing tab with vanished window", "id", t.ID, "title", t.Title)
		m.onGuestClosed(t)
	}
	return len(gone)
}

func (m *Manager) guestAlive(t *Tab) bool {
	if t.host == nil || t.host.Closed() || t.Window.Handle == 0 || !m.backend.IsWindow(t.Window.Handle) {
		return false
	}
	pid := t.host.PID()
	return pid == 0 || m.backend.ProcessAlive(pid)
}

// ForceKill waits up to timeout, checking every poll interval, for every pid
// to exit, then terminates the survivors. It does not return before the
// processes are gone or the timeout has passed. Termination failures are
// aggregated. Cancelling ctx only skips the remaining wait.
func ForceKill(ctx context.Context, procs platform.ProcessOps, pids []uint32, timeout, poll time.Duration) error {
	pids = uniquePIDs(pids)
	if len(pids) == 0 {
		return nil
	}
	if poll <= 0 {
		poll = DefaultForceKillPoll
	}

	deadline := time.Now().Add(timeout)
wait:
	for anyAlive(procs, pids) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		timer := time.NewTimer(min(poll, remaining))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			break wait
		}
	}

	var result *multierror.Error
	for _, pid := range pids {
		if !procs.ProcessAlive(pid) {
			continue
		}
		if err := procs.TerminateProcess(pid); err != nil {
			result = multierror.Append(result, fmt.Errorf("terminate %d: %w", pid, err))
		}
	}
	return result.ErrorOrNil()
}

func anyAlive(procs platform.ProcessOps, pids []uint32) bool {
	for _, pid := range pids {
		if procs.ProcessAlive(pid) {
			return true
		}
	}
	return false
}

func uniquePIDs(pids []uint32) []uint32 {
	seen := make(map[uint32]bool, len(pids))
	out := make([]uint32, 0, len(pids))
	for _, pid := range pids {
		if pid == 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		out = append(out, pid)
	}
	return out
}
