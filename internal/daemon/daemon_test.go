package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/platform/platformtest"
	"github.com/1broseidon/wind/internal/tabs"
)

type harness struct {
	fake *platformtest.Fake
	d    *Daemon
	done chan error
}

func startDaemon(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	fake := platformtest.New()
	d, err := New(Options{
		Config:      cfg,
		Backend:     fake,
		SessionPath: filepath.Join(t.TempDir(), "session.json"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := &harness{fake: fake, d: d, done: make(chan error, 1)}
	go func() { h.done <- d.Run(context.Background()) }()

	// The first Status returns once setup has finished and the loop runs.
	if _, err := d.Status(h.ctx(t)); err != nil {
		t.Fatalf("daemon did not start: %v", err)
	}
	t.Cleanup(func() {
		d.RequestShutdown()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Errorf("daemon did not stop")
		}
	})
	return h
}

func (h *harness) ctx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func (h *harness) addGuest(pid uint32, name, title string) platform.Handle {
	if _, ok := h.fake.Process(pid); !ok {
		h.fake.AddProcess(pid, platformtest.Process{Name: name, Alive: true})
	}
	return h.fake.AddWindow(platformtest.Window{
		Class:  "Notepad",
		Title:  title,
		Style:  platform.Style{Bits: platform.FrameBits | platform.StyleVisible},
		Bounds: platform.Rect{X: 10, Y: 10, Width: 400, Height: 300},
		PID:    pid,
	})
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.d.RequestShutdown()
	select {
	case err := <-h.done:
		h.done <- err
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon did not stop")
		return nil
	}
}

func TestContentArea(t *testing.T) {
	tests := []struct {
		position string
		w, h     int
		want     platform.Rect
	}{
		{"top", 800, 600, platform.Rect{Y: 32, Width: 800, Height: 568}},
		{"", 800, 600, platform.Rect{Y: 32, Width: 800, Height: 568}},
		{"bottom", 800, 600, platform.Rect{Width: 800, Height: 568}},
		{"left", 800, 600, platform.Rect{X: 32, Width: 768, Height: 600}},
		{"right", 800, 600, platform.Rect{Width: 768, Height: 600}},
		{"top", 800, 20, platform.Rect{Y: 20, Width: 800, Height: 0}},
		{"left", 10, 600, platform.Rect{X: 10, Width: 0, Height: 600}},
	}
	for _, tt := range tests {
		if got := ContentArea(tt.position, tt.w, tt.h); got != tt.want {
			t.Errorf("ContentArea(%q, %d, %d) = %+v, want %+v", tt.position, tt.w, tt.h, got, tt.want)
		}
	}
}

func TestNewRequiresConfigAndBackend(t *testing.T) {
	if _, err := New(Options{Backend: platformtest.New()}); err == nil {
		t.Errorf("expected error without config")
	}
	if _, err := New(Options{Config: config.DefaultConfig()}); err == nil {
		t.Errorf("expected error without backend")
	}
}

func TestRunReleasesWindowsOnShutdown(t *testing.T) {
	h := startDaemon(t, nil)
	guest := h.addGuest(4101, "notepad.exe", "notes.txt")

	info, err := h.d.AddWindow(h.ctx(t), uint64(guest), true)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if !info.Active || info.ProcessName != "notepad.exe" || info.Kind != "window" {
		t.Fatalf("unexpected tab info %+v", info)
	}
	if !h.d.reg.Contains(guest) {
		t.Fatalf("guest not hosted")
	}
	frame := h.d.Frame()

	if err := h.stop(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	w, ok := h.fake.Window(guest)
	if !ok {
		t.Fatalf("guest destroyed on release")
	}
	if w.Parent != 0 || !w.Visible() {
		t.Errorf("guest not restored: %+v", w)
	}
	if h.d.reg.Len() != 0 {
		t.Errorf("registry still holds %d hosts", h.d.reg.Len())
	}
	if _, ok := h.fake.Window(frame); ok {
		t.Errorf("frame not destroyed")
	}
	if _, err := h.d.Status(context.Background()); err == nil {
		t.Errorf("expected Status to fail after shutdown")
	}
}

func TestFrameCloseStopsDaemon(t *testing.T) {
	h := startDaemon(t, nil)
	h.fake.CloseFrame(h.d.Frame())
	select {
	case err := <-h.done:
		h.done <- err
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("closing the frame did not stop the daemon")
	}
}

func TestFrameResizeRelayouts(t *testing.T) {
	h := startDaemon(t, nil)
	guest := h.addGuest(4102, "notepad.exe", "a")
	if _, err := h.d.AddWindow(h.ctx(t), uint64(guest), true); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	h.fake.ResizeFrame(h.d.Frame(), 1000, 700)
	deadline := time.Now().Add(2 * time.Second)
	for {
		var got platform.Rect
		err := h.d.loop.Do(h.ctx(t), func() error {
			got, _ = h.fake.WindowRect(h.d.mgr.Active().Host().Container())
			return nil
		})
		if err != nil {
			t.Fatalf("Do: %v", err)
		}
		if got.Width == 1000 && got.Height == 700-TabStripSize {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("container not resized, bounds %+v", got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHotkeysSwitchTabs(t *testing.T) {
	h := startDaemon(t, nil)
	a := h.addGuest(4103, "a.exe", "a")
	b := h.addGuest(4104, "b.exe", "b")
	first, err := h.d.AddWindow(h.ctx(t), uint64(a), true)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if _, err := h.d.AddWindow(h.ctx(t), uint64(b), true); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	if !h.fake.PressHotkey(h.d.cfg.Hotkeys.NextTab) {
		t.Fatalf("next_tab hotkey not registered")
	}
	// Status is queued behind the hotkey action.
	st, err := h.d.Status(h.ctx(t))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.ActiveTabID != first.ID {
		t.Fatalf("expected wrap to first tab, active %s", st.ActiveTabID)
	}
}

func TestControllerTabOperations(t *testing.T) {
	h := startDaemon(t, nil)
	ctx := h.ctx(t)
	a := h.addGuest(4105, "a.exe", "alpha")
	b := h.addGuest(4106, "b.exe", "beta")
	ta, err := h.d.AddWindow(ctx, uint64(a), true)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	tb, err := h.d.AddWindow(ctx, uint64(b), false)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	list, err := h.d.ListTabs(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListTabs = %v, %v", list, err)
	}
	if !list[0].Active || list[1].Active || list[0].Mode == "" {
		t.Fatalf("unexpected tabs %+v", list)
	}

	if err := h.d.ActivateTab(ctx, tb.ID[:8]); err != nil {
		t.Fatalf("ActivateTab by prefix: %v", err)
	}
	if st, _ := h.d.Status(ctx); st.ActiveTabID != tb.ID {
		t.Fatalf("expected %s active, got %s", tb.ID, st.ActiveTabID)
	}
	if err := h.d.ActivateTab(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff"); !errors.Is(err, tabs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := h.d.ActivateTab(ctx, ""); err == nil {
		t.Fatalf("expected error for empty id")
	}

	n, err := h.d.Tile(ctx, []string{ta.ID, tb.ID})
	if err != nil || n != 2 {
		t.Fatalf("Tile = %d, %v", n, err)
	}
	if st, _ := h.d.Status(ctx); st.TiledCount != 2 {
		t.Fatalf("expected 2 tiled, got %d", st.TiledCount)
	}
	if _, err := h.d.Tile(ctx, nil); err == nil {
		t.Fatalf("expected error tiling an empty selection")
	}
	if err := h.d.Untile(ctx); err != nil {
		t.Fatalf("Untile: %v", err)
	}
	if st, _ := h.d.Status(ctx); st.TiledCount != 0 {
		t.Fatalf("expected no tiled tabs, got %d", st.TiledCount)
	}

	if err := h.d.CloseTab(ctx, ta.ID, "explode"); err == nil {
		t.Fatalf("expected error for unknown close action")
	}
	if err := h.d.CloseTab(ctx, ta.ID, "release_embed"); err != nil {
		t.Fatalf("CloseTab: %v", err)
	}
	if h.d.reg.Contains(a) {
		t.Fatalf("released window still hosted")
	}
	if p, _ := h.fake.Process(4105); !p.Alive {
		t.Fatalf("release_embed terminated the process")
	}
	if list, _ := h.d.ListTabs(ctx); len(list) != 1 || list[0].ID != tb.ID {
		t.Fatalf("unexpected tabs after close %+v", list)
	}
}

func TestControllerListWindowsSkipsHosted(t *testing.T) {
	h := startDaemon(t, nil)
	ctx := h.ctx(t)
	a := h.addGuest(4107, "a.exe", "alpha")
	b := h.addGuest(4108, "b.exe", "beta")
	if _, err := h.d.AddWindow(ctx, uint64(a), true); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}

	windows, err := h.d.ListWindows(ctx)
	if err != nil {
		t.Fatalf("ListWindows: %v", err)
	}
	if len(windows) != 1 || windows[0].Handle != uint64(b) || windows[0].ProcessName != "b.exe" {
		t.Fatalf("unexpected windows %+v", windows)
	}
}

func TestControllerCleanup(t *testing.T) {
	h := startDaemon(t, nil)
	ctx := h.ctx(t)
	a := h.addGuest(4109, "a.exe", "alpha")
	if _, err := h.d.AddWindow(ctx, uint64(a), true); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	h.fake.KillSilently(4109)

	n, err := h.d.Cleanup(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Cleanup = %d, %v", n, err)
	}
	if st, _ := h.d.Status(ctx); st.TabCount != 0 {
		t.Fatalf("expected no tabs, got %d", st.TabCount)
	}
}

func TestControllerSessionRoundTrip(t *testing.T) {
	h := startDaemon(t, nil)
	ctx := h.ctx(t)

	if _, err := h.d.RestoreSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	a := h.addGuest(4110, "a.exe", "alpha")
	b := h.addGuest(4111, "b.exe", "beta")
	if _, err := h.d.AddWindow(ctx, uint64(a), true); err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	tb, err := h.d.AddWindow(ctx, uint64(b), true)
	if err != nil {
		t.Fatalf("AddWindow: %v", err)
	}
	if err := h.d.loop.Do(ctx, func() error {
		h.d.mgr.AddContentTab("Settings", "settings", false)
		return nil
	}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	saved, err := h.d.SaveSession(ctx)
	if err != nil || saved != 2 {
		t.Fatalf("SaveSession = %d, %v", saved, err)
	}

	list, _ := h.d.ListTabs(ctx)
	for _, tab := range list {
		if tab.Kind != "window" {
			continue
		}
		if err := h.d.CloseTab(ctx, tab.ID, "release_embed"); err != nil {
			t.Fatalf("CloseTab: %v", err)
		}
	}

	restored, err := h.d.RestoreSession(ctx)
	if err != nil || restored != 2 {
		t.Fatalf("RestoreSession = %d, %v", restored, err)
	}
	list, _ = h.d.ListTabs(ctx)
	var active uint64
	for _, tab := range list {
		if tab.Active {
			active = tab.Handle
		}
		if tab.ID == tb.ID {
			t.Fatalf("restored tab reused a closed tab id")
		}
	}
	if active != uint64(b) {
		t.Fatalf("expected the window of the saved active tab to be active, got %#x", active)
	}
}
