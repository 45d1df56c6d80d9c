package tabs

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/wind/internal/dispatch"
	"github.com/1broseidon/wind/internal/embed"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/platform/platformtest"
)

type fixture struct {
	fake  *platformtest.Fake
	loop  *dispatch.Loop
	reg   *embed.Registry
	mgr   *Manager
	frame platform.Handle

	events []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{fake: platformtest.New(), loop: dispatch.New(64, nil)}
	f.reg = embed.NewRegistry(f.fake, f.loop, embed.Options{})
	f.frame = f.fake.AddWindow(platformtest.Window{
		Class:  "WindFrame",
		Style:  platform.Style{Bits: platform.StyleVisible},
		Bounds: platform.Rect{X: 0, Y: 0, Width: 1200, Height: 800},
		Owned:  true,
	})
	f.mgr = NewManager(f.fake, f.reg, Options{
		Frame:            f.frame,
		ForceKillTimeout: 200 * time.Millisecond,
		ForceKillPoll:    10 * time.Millisecond,
		Hooks: Hooks{
			GuestClosed:             func(*Tab) { f.events = append(f.events, "closed") },
			OuterCloseRequested:     func() { f.events = append(f.events, "outer") },
			TileLayoutChanged:       func(l *TileLayout) { f.events = append(f.events, "tile") },
			TileLayoutRebuildNeeded: func() { f.events = append(f.events, "rebuild") },
		},
	})
	return f
}

func (f *fixture) addGuest(pid uint32, p platformtest.Process) platform.Handle {
	if _, ok := f.fake.Process(pid); !ok {
		f.fake.AddProcess(pid, p)
	}
	return f.fake.AddWindow(platformtest.Window{
		Class:  "Notepad",
		Title:  p.Name,
		Style:  platform.Style{Bits: platform.FrameBits | platform.StyleVisible},
		Bounds: platform.Rect{X: 10, Y: 10, Width: 400, Height: 300},
		PID:    pid,
	})
}

func (f *fixture) addTab(t *testing.T, pid uint32, opts AddOptions) *Tab {
	t.Helper()
	h := f.addGuest(pid, platformtest.Process{Name: "app.exe"})
	tab, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, opts)
	if err != nil {
		t.Fatalf("AddWindowTab: %v", err)
	}
	return tab
}

func (f *fixture) count(event string) int {
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

func TestAddWindowTab(t *testing.T) {
	f := newFixture(t)
	h := f.addGuest(10, platformtest.Process{Name: "notepad.exe"})

	tab, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, AddOptions{Activate: true})
	if err != nil {
		t.Fatalf("AddWindowTab: %v", err)
	}
	if tab.Kind != KindWindow || tab.Host() == nil {
		t.Fatalf("tab = %+v, want window tab with host", tab)
	}
	if tab.Window.PID != 10 || tab.Window.ProcessName != "notepad.exe" || tab.Title != "notepad.exe" {
		t.Errorf("window info not filled in: %+v", tab.Window)
	}
	if f.mgr.Active() != tab {
		t.Errorf("new tab not active")
	}

	again, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, AddOptions{Activate: true})
	if err != nil || again != tab {
		t.Fatalf("duplicate add = %v, %v; want existing tab", again, err)
	}
	if n := len(f.mgr.Tabs()); n != 1 {
		t.Fatalf("len(Tabs()) = %d, want 1", n)
	}
}

func TestAddWindowTabDuplicateActivates(t *testing.T) {
	f := newFixture(t)
	first := f.addTab(t, 10, AddOptions{Activate: true})
	second := f.addTab(t, 11, AddOptions{Activate: true})
	if f.mgr.Active() != second {
		t.Fatalf("second tab not active")
	}

	again, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: first.Handle()}, AddOptions{})
	if err != nil || again != first {
		t.Fatalf("duplicate add = %v, %v; want existing tab", again, err)
	}
	if f.mgr.Active() != first {
		t.Fatalf("duplicate add without Activate did not activate the existing tab")
	}
}

func TestAddWindowTabRejects(t *testing.T) {
	f := newFixture(t)
	if _, err := f.mgr.AddWindowTab(platform.WindowInfo{}, AddOptions{}); !errors.Is(err, embed.ErrInvalidHandle) {
		t.Errorf("zero handle error = %v", err)
	}
	h := f.addGuest(20, platformtest.Process{Name: "admin.exe", Elevated: true})
	if _, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, AddOptions{}); !errors.Is(err, embed.ErrElevated) {
		t.Errorf("elevated error = %v", err)
	}
	if n := len(f.mgr.Tabs()); n != 0 {
		t.Fatalf("len(Tabs()) = %d after rejected adds", n)
	}
}

func TestInactiveTabHidden(t *testing.T) {
	f := newFixture(t)
	first := f.addTab(t, 10, AddOptions{Activate: true})
	second := f.addTab(t, 11, AddOptions{})

	if f.mgr.Active() != first {
		t.Fatalf("background add changed the active tab")
	}
	if f.fake.IsVisible(second.Host().Container()) {
		t.Fatalf("inactive container visible")
	}
	f.mgr.Activate(second)
	if !f.fake.IsVisible(second.Host().Container()) || f.fake.IsVisible(first.Host().Container()) {
		t.Fatalf("visibility not switched on activation")
	}
	if f.fake.CallCount("FocusWindow", second.Handle()) == 0 {
		t.Fatalf("activated guest not focused")
	}
}

func TestCloseTabReleaseEmbedKeepsProcess(t *testing.T) {
	f := newFixture(t)
	tab := f.addTab(t, 10, AddOptions{Activate: true})
	h := tab.Handle()

	f.mgr.CloseTab(tab, ReleaseEmbed)
	f.loop.RunPending()

	if len(f.mgr.Tabs()) != 0 {
		t.Fatalf("tab not removed")
	}
	if !f.fake.ProcessAlive(10) {
		t.Fatalf("guest process terminated by ReleaseEmbed")
	}
	w, ok := f.fake.Window(h)
	if !ok || w.Parent != 0 || !w.Visible() {
		t.Fatalf("guest not returned to the desktop: %+v", w)
	}
	if f.fake.CallCount("PostClose", h) != 0 || f.fake.CallCount("TerminateProcess", 0) != 0 {
		t.Fatalf("ReleaseEmbed asked the guest to close")
	}
}

func TestCloseTabCloseApp(t *testing.T) {
	f := newFixture(t)
	tab := f.addTab(t, 10, AddOptions{Activate: true})

	f.mgr.CloseTab(tab, CloseApp)
	if f.fake.CallCount("PostClose", tab.Handle()) != 1 {
		t.Fatalf("close request not posted")
	}
	if len(f.mgr.Tabs()) != 0 {
		t.Fatalf("tab not removed immediately")
	}
	f.loop.RunPending()
	if f.count("closed") != 0 {
		t.Fatalf("late destroy notification reached a removed tab")
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registry still holds the guest")
	}
}

func TestCloseTabCloseAppIgnored(t *testing.T) {
	f := newFixture(t)
	h := f.addGuest(10, platformtest.Process{Name: "editor.exe", IgnoreClose: true})
	tab, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, AddOptions{Activate: true})
	if err != nil {
		t.Fatalf("AddWindowTab: %v", err)
	}

	f.mgr.CloseTab(tab, CloseApp)
	w, ok := f.fake.Window(h)
	if !ok || w.Parent != 0 {
		t.Fatalf("guest that ignored close was not released: %+v", w)
	}
	if !w.Visible() || w.Style.Bits&platform.FrameBits != platform.FrameBits {
		t.Fatalf("guest left on the desktop hidden or undecorated: %+v", w)
	}
	if f.reg.Len() != 0 {
		t.Fatalf("registry still holds the guest")
	}
}

func TestCloseTabCloseOuter(t *testing.T) {
	f := newFixture(t)
	tab := f.addTab(t, 10, AddOptions{Activate: true})

	f.mgr.CloseTab(tab, CloseOuter)
	if f.count("outer") != 1 {
		t.Fatalf("OuterCloseRequested not raised")
	}
	if len(f.mgr.Tabs()) != 1 || tab.Host().Closed() {
		t.Fatalf("CloseOuter touched the tab")
	}
}

func TestRemovalSelectsNeighbour(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{Activate: true})
	c := f.addTab(t, 12, AddOptions{Activate: true})

	f.mgr.Activate(b)
	f.mgr.CloseTab(b, ReleaseEmbed)
	if f.mgr.Active() != c {
		t.Fatalf("Active() after removing middle = %v, want c", f.mgr.Active())
	}
	f.mgr.CloseTab(c, ReleaseEmbed)
	if f.mgr.Active() != a {
		t.Fatalf("Active() after removing last = %v, want a", f.mgr.Active())
	}
	f.mgr.CloseTab(a, ReleaseEmbed)
	if f.mgr.Active() != nil {
		t.Fatalf("Active() on empty list = %v", f.mgr.Active())
	}
}

func TestSelectionWrapsAndMove(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	c := f.mgr.AddContentTab("Settings", "settings", false)

	f.mgr.SelectPrevious()
	if f.mgr.Active() != c {
		t.Fatalf("SelectPrevious from first = %v, want last", f.mgr.Active().Title)
	}
	f.mgr.SelectNext()
	if f.mgr.Active() != a {
		t.Fatalf("SelectNext from last did not wrap")
	}
	f.mgr.SelectIndex(1)
	if f.mgr.Active() != b {
		t.Fatalf("SelectIndex(1) = %v", f.mgr.Active())
	}
	f.mgr.SelectIndex(7)
	if f.mgr.Active() != b {
		t.Fatalf("out-of-range SelectIndex changed the active tab")
	}

	f.mgr.Move(c, 0)
	f.mgr.Move(a, 99)
	got := f.mgr.Tabs()
	if got[0] != c || got[1] != b || got[2] != a {
		t.Fatalf("order after Move = %v, %v, %v", got[0].Title, got[1].Title, got[2].Title)
	}
}

func TestGuestDestroyedRemovesTab(t *testing.T) {
	f := newFixture(t)
	tab := f.addTab(t, 10, AddOptions{Activate: true})

	f.fake.DestroyWindowExternally(tab.Handle())
	f.loop.RunPending()

	if len(f.mgr.Tabs()) != 0 {
		t.Fatalf("tab kept after guest destruction")
	}
	if f.count("closed") != 1 {
		t.Fatalf("GuestClosed raised %d times, want 1", f.count("closed"))
	}
}

func TestContentTabsHaveNoHost(t *testing.T) {
	f := newFixture(t)
	c := f.mgr.AddContentTab("Settings", "settings", true)
	w := f.mgr.AddWebTab("https://example.com", false)
	for _, tab := range []*Tab{c, w} {
		if tab.Host() != nil || tab.Handle() != 0 {
			t.Errorf("%v tab has a host", tab.Kind)
		}
	}
	f.mgr.CloseTab(c, CloseOuter)
	if f.count("outer") != 0 || len(f.mgr.Tabs()) != 1 {
		t.Fatalf("content tab close did not simply remove it")
	}
}

func TestTileLifecycle(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	c := f.addTab(t, 12, AddOptions{})
	d := f.addTab(t, 13, AddOptions{})
	d.MultiSelected = true

	if l := f.mgr.StartTile([]*Tab{a}); l != nil {
		t.Fatalf("StartTile with one tab returned a layout")
	}

	layout := f.mgr.StartTile([]*Tab{a, b, c})
	if layout == nil || f.mgr.Tile() != layout {
		t.Fatalf("StartTile did not activate a layout")
	}
	if layout.Grid.Columns != 2 || layout.Grid.Rows != 2 || layout.Grid.Cells[0].RowSpan != 2 {
		t.Fatalf("grid for 3 = %+v", layout.Grid)
	}
	if d.MultiSelected {
		t.Fatalf("multi-selection not cleared")
	}

	f.mgr.StopTile()
	for _, tab := range []*Tab{a, b, c, d} {
		if tab.Tiled {
			t.Errorf("tab %v still tiled", tab.ID)
		}
	}
	if f.mgr.Tile() != nil {
		t.Fatalf("layout still active")
	}
	if f.count("tile") != 2 {
		t.Fatalf("TileLayoutChanged raised %d times, want 2", f.count("tile"))
	}
}

func TestStopTileLeavesOtherTabs(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	c := f.addTab(t, 12, AddOptions{})
	d := f.addTab(t, 13, AddOptions{})
	e := f.addTab(t, 14, AddOptions{})

	f.mgr.StartTile([]*Tab{d, e})
	// Replacing the tile deactivates the old one.
	f.mgr.StartTile([]*Tab{a, b, c})
	if d.Tiled || e.Tiled {
		t.Fatalf("previous tile members still tiled")
	}
	d.Tiled = true // a flag set outside the layout must survive
	f.mgr.StopTile()
	if a.Tiled || b.Tiled || c.Tiled {
		t.Fatalf("members still tiled")
	}
	if !d.Tiled {
		t.Fatalf("StopTile touched a non-member")
	}
}

func TestTileShrinksOnRemoval(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	c := f.addTab(t, 12, AddOptions{})
	f.mgr.StartTile([]*Tab{a, b, c})

	f.mgr.CloseTab(c, ReleaseEmbed)
	if f.count("rebuild") != 1 {
		t.Fatalf("rebuild not requested")
	}
	if l := f.mgr.Tile(); l == nil || len(l.Tabs) != 2 || l.Grid.Columns != 2 || l.Grid.Rows != 1 {
		t.Fatalf("layout after removal = %+v", l)
	}

	f.mgr.CloseTab(b, ReleaseEmbed)
	if f.mgr.Tile() != nil || a.Tiled {
		t.Fatalf("tile with one member not stopped")
	}
}

func TestLayoutPlacesTiles(t *testing.T) {
	f := newFixture(t)
	f.mgr.tileGap = 0
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	other := f.addTab(t, 12, AddOptions{})

	f.mgr.Layout(platform.Rect{Y: 40, Width: 1000, Height: 600})
	ca, _ := f.fake.Window(a.Host().Container())
	if ca.Bounds != (platform.Rect{Y: 40, Width: 1000, Height: 600}) {
		t.Fatalf("single tab bounds = %+v", ca.Bounds)
	}

	f.mgr.StartTile([]*Tab{a, b})
	ca, _ = f.fake.Window(a.Host().Container())
	cb, _ := f.fake.Window(b.Host().Container())
	if ca.Bounds != (platform.Rect{Y: 40, Width: 500, Height: 600}) {
		t.Errorf("left tile = %+v", ca.Bounds)
	}
	if cb.Bounds != (platform.Rect{X: 500, Y: 40, Width: 500, Height: 600}) {
		t.Errorf("right tile = %+v", cb.Bounds)
	}
	if !f.fake.IsVisible(b.Host().Container()) || f.fake.IsVisible(other.Host().Container()) {
		t.Errorf("tile visibility wrong")
	}
	gb, _ := f.fake.Window(b.Handle())
	if gb.Bounds != (platform.Rect{Width: 500, Height: 600}) {
		t.Errorf("guest in tile = %+v", gb.Bounds)
	}
}

func TestTileSelected(t *testing.T) {
	f := newFixture(t)
	a := f.addTab(t, 10, AddOptions{Activate: true})
	b := f.addTab(t, 11, AddOptions{})
	f.mgr.ToggleMultiSelect(a)
	f.mgr.ToggleMultiSelect(b)
	if n := len(f.mgr.MultiSelected()); n != 2 {
		t.Fatalf("MultiSelected() = %d tabs", n)
	}
	if f.mgr.TileSelected() == nil {
		t.Fatalf("TileSelected did not tile")
	}
	if len(f.mgr.MultiSelected()) != 0 {
		t.Fatalf("selection survived tiling")
	}
}

func TestCleanupInvalidTabs(t *testing.T) {
	f := newFixture(t)
	gone := f.addTab(t, 10, AddOptions{Activate: true})
	kept := f.addTab(t, 11, AddOptions{})
	f.mgr.AddContentTab("Settings", "settings", false)
	h := gone.Handle()

	f.fake.KillSilently(10)
	f.fake.ResetCalls()
	if n := f.mgr.CleanupInvalidTabs(); n != 1 {
		t.Fatalf("CleanupInvalidTabs removed %d, want 1", n)
	}
	if f.mgr.Find(gone.ID) != nil || f.mgr.Find(kept.ID) == nil {
		t.Fatalf("wrong tabs removed")
	}
	if f.fake.CallCount("SetParent", h) != 0 || f.fake.CallCount("SetStyle", h) != 0 {
		t.Fatalf("cleanup tried to restore a vanished window")
	}
	if f.reg.Contains(h) {
		t.Fatalf("registry still holds vanished handle")
	}
	if n := f.mgr.CleanupInvalidTabs(); n != 0 {
		t.Fatalf("second pass removed %d", n)
	}
}

func TestCleanupReentryFromHook(t *testing.T) {
	f := newFixture(t)
	f.addTab(t, 10, AddOptions{Activate: true})
	f.addTab(t, 11, AddOptions{})
	nested := -1
	f.mgr.SetHooks(Hooks{GuestClosed: func(*Tab) { nested = f.mgr.CleanupInvalidTabs() }})

	f.fake.KillSilently(10)
	result := make(chan int, 1)
	go func() { result <- f.mgr.CleanupInvalidTabs() }()
	select {
	case n := <-result:
		if n != 1 {
			t.Fatalf("CleanupInvalidTabs removed %d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("CleanupInvalidTabs did not return when called again from a hook")
	}
	if nested != 0 {
		t.Fatalf("nested pass removed %d, want 0", nested)
	}
	if n := f.mgr.CleanupInvalidTabs(); n != 0 {
		t.Fatalf("follow-up pass removed %d, want 0", n)
	}
}

func TestCleanupRemovesTabOfDeadProcess(t *testing.T) {
	f := newFixture(t)
	tab := f.addTab(t, 10, AddOptions{Activate: true})
	f.addTab(t, 11, AddOptions{})

	// The process is gone but its window handle still answers.
	f.fake.MarkExited(10)
	if !f.fake.IsWindow(tab.Handle()) {
		t.Fatalf("window vanished with the process")
	}

	if n := f.mgr.CleanupInvalidTabs(); n != 1 {
		t.Fatalf("CleanupInvalidTabs removed %d, want 1", n)
	}
	if f.mgr.Find(tab.ID) != nil {
		t.Fatalf("tab of a dead process kept")
	}
}

func TestBulkCloseForceKillsStubbornGuest(t *testing.T) {
	f := newFixture(t)
	stubborn := f.addGuest(10, platformtest.Process{Name: "stubborn.exe", IgnoreClose: true})
	polite := f.addGuest(11, platformtest.Process{Name: "polite.exe"})
	manual := f.addGuest(12, platformtest.Process{Name: "manual.exe", IgnoreClose: true})
	for _, h := range []platform.Handle{stubborn, polite} {
		if _, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: h}, AddOptions{LaunchedAtStartup: true}); err != nil {
			t.Fatalf("AddWindowTab: %v", err)
		}
	}
	if _, err := f.mgr.AddWindowTab(platform.WindowInfo{Handle: manual}, AddOptions{}); err != nil {
		t.Fatalf("AddWindowTab: %v", err)
	}

	start := time.Now()
	done := f.mgr.BulkClose(f.mgr.Tabs(), false)
	if len(f.mgr.Tabs()) != 0 {
		t.Fatalf("bookkeeping not done synchronously")
	}
	w, ok := f.fake.Window(stubborn)
	if !ok {
		t.Fatalf("guest destroyed along with its container before it could handle the close request")
	}
	if w.Parent != 0 || w.Visible() {
		t.Errorf("closing guest parent %#x visible %v, want detached and hidden", w.Parent, w.Visible())
	}
	if f.reg.Len() != 0 {
		t.Errorf("registry still holds %d hosts", f.reg.Len())
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("BulkClose result: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("BulkClose did not finish")
	}
	elapsed := time.Since(start)
	if elapsed < 200*time.Millisecond {
		t.Errorf("finished after %v, before the timeout", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("finished after %v, well past the timeout", elapsed)
	}

	if f.fake.ProcessAlive(10) || f.fake.ProcessAlive(11) {
		t.Errorf("startup-launched guests still alive")
	}
	if !f.fake.ProcessAlive(12) {
		t.Errorf("user-added guest was terminated")
	}
	if w, ok := f.fake.Window(manual); !ok || w.Parent != 0 {
		t.Errorf("user-added guest not released")
	}
	if f.fake.CallCount("TerminateProcess", platform.Handle(10)) != 1 {
		t.Errorf("stubborn guest not force killed exactly once")
	}
	if f.fake.CallCount("TerminateProcess", platform.Handle(11)) != 0 {
		t.Errorf("polite guest was force killed")
	}
}

func TestShutdownModes(t *testing.T) {
	tests := []struct {
		mode      ExitMode
		wantAlive map[uint32]bool
	}{
		{ExitRelease, map[uint32]bool{10: true, 11: true}},
		{ExitCloseStartup, map[uint32]bool{10: false, 11: true}},
		{ExitCloseAll, map[uint32]bool{10: false, 11: false}},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.addTab(t, 10, AddOptions{LaunchedAtStartup: true})
		f.addTab(t, 11, AddOptions{})

		if err := <-f.mgr.Shutdown(tt.mode); err != nil {
			t.Fatalf("%v: Shutdown: %v", tt.mode, err)
		}
		if len(f.mgr.Tabs()) != 0 || f.reg.Len() != 0 {
			t.Fatalf("%v: tabs or hosts left behind", tt.mode)
		}
		for pid, want := range tt.wantAlive {
			if got := f.fake.ProcessAlive(pid); got != want {
				t.Errorf("%v: process %d alive = %v, want %v", tt.mode, pid, got, want)
			}
		}
	}
}

func TestForceKillReturnsEarly(t *testing.T) {
	fake := platformtest.New()
	fake.AddProcess(5, platformtest.Process{Name: "quick"})
	go func() {
		time.Sleep(20 * time.Millisecond)
		fake.KillSilently(5)
	}()
	start := time.Now()
	if err := ForceKill(t.Context(), fake, []uint32{5, 5, 0}, 2*time.Second, 5*time.Millisecond); err != nil {
		t.Fatalf("ForceKill: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("ForceKill waited %v for an exited process", elapsed)
	}
	if fake.CallCount("TerminateProcess", 0) != 0 {
		t.Fatalf("exited process was terminated")
	}
}

func TestParseCloseAction(t *testing.T) {
	tests := []struct {
		in   string
		want CloseAction
		ok   bool
	}{
		{"", CloseApp, true},
		{"close_app", CloseApp, true},
		{"CloseApp", CloseApp, true},
		{"release_embed", ReleaseEmbed, true},
		{"ReleaseEmbed", ReleaseEmbed, true},
		{"close_outer", CloseOuter, true},
		{"CloseWind", CloseOuter, true},
		{"explode", CloseApp, false},
	}
	for _, tt := range tests {
		got, err := ParseCloseAction(tt.in)
		if got != tt.want || (err == nil) != tt.ok {
			t.Errorf("ParseCloseAction(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseExitMode(t *testing.T) {
	for in, want := range map[string]ExitMode{
		"none":         ExitRelease,
		"all":          ExitCloseAll,
		"startup_only": ExitCloseStartup,
	} {
		got, err := ParseExitMode(in)
		if err != nil || got != want {
			t.Errorf("ParseExitMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseExitMode("sometimes"); err == nil {
		t.Errorf("ParseExitMode accepted garbage")
	}
}
