package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/discovery"
	"github.com/1broseidon/wind/internal/dispatch"
	"github.com/1broseidon/wind/internal/embed"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/platform/platformtest"
	"github.com/1broseidon/wind/internal/tabs"
)

func TestFirstTileGroup(t *testing.T) {
	tab := func(title string) *tabs.Tab { return &tabs.Tab{Title: title} }
	a, b, c, d, e := tab("a"), tab("b"), tab("c"), tab("d"), tab("e")
	added := []startupTab{
		{app: config.StartupApp{Name: "a", Tile: "solo"}, tab: a},
		{app: config.StartupApp{Name: "b", Tile: "Main", TilePosition: 2}, tab: b},
		{app: config.StartupApp{Name: "c"}, tab: c},
		{app: config.StartupApp{Name: "d", Tile: "main", TilePosition: 1}, tab: d},
		{app: config.StartupApp{Name: "e", Tile: "main", TilePosition: 1}, tab: e},
	}

	got := firstTileGroup(added)
	want := []*tabs.Tab{d, e, b}
	if len(got) != len(want) {
		t.Fatalf("expected %d tabs, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got[i].Title, want[i].Title)
		}
	}

	if got := firstTileGroup(added[:3]); got != nil {
		t.Errorf("expected no group when every group has one member, got %d tabs", len(got))
	}
}

func TestStartupEmbedsAndTiles(t *testing.T) {
	fake := platformtest.New()
	loop := dispatch.New(64, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	frame := fake.AddWindow(platformtest.Window{
		Class:  "WindFrame",
		Style:  platform.Style{Bits: platform.StyleVisible},
		Bounds: platform.Rect{Width: 1200, Height: 800},
		Owned:  true,
	})
	reg := embed.NewRegistry(fake, loop, embed.Options{})
	mgr := tabs.NewManager(fake, reg, tabs.Options{Frame: frame})
	detector := discovery.NewDetector(0, reg.Contains)

	nextPID := uint32(5000)
	launch := func(app config.StartupApp) (uint32, error) {
		if app.Path == "/missing" {
			return 0, errors.New("not found")
		}
		nextPID++
		fake.AddProcess(nextPID, platformtest.Process{Name: app.Name, Alive: true})
		if app.Path != "/windowless" {
			fake.AddWindow(platformtest.Window{
				Class: "App",
				Title: app.Name,
				Style: platform.Style{Bits: platform.FrameBits | platform.StyleVisible},
				PID:   nextPID,
			})
		}
		return nextPID, nil
	}

	s := NewStartup(StartupConfig{
		Apps: []config.StartupApp{
			{Name: "editor", Path: "/editor", Tile: "main", TilePosition: 2},
			{Name: "broken", Path: "/missing", Tile: "main"},
			{Name: "daemonish", Path: "/windowless"},
			{Name: "shell", Path: "/shell", Tile: "main", TilePosition: 1},
			{Name: "mail", Path: "/mail"},
		},
		PollInterval: time.Millisecond,
		PollAttempts: 2,
	}, launch, func(pid uint32) (platform.WindowInfo, bool) {
		return detector.FindByPID(fake, pid)
	}, loop.Do, mgr)

	if n := s.Run(ctx); n != 3 {
		t.Fatalf("expected 3 embedded apps, got %d", n)
	}

	var all []*tabs.Tab
	var tiled []*tabs.Tab
	err := loop.Do(ctx, func() error {
		all = mgr.Tabs()
		if tile := mgr.Tile(); tile != nil {
			tiled = tile.Tabs
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tabs, got %d", len(all))
	}
	for _, tab := range all {
		if !tab.LaunchedAtStartup {
			t.Errorf("tab %s not marked as launched at startup", tab.Title)
		}
	}
	if len(tiled) != 2 {
		t.Fatalf("expected a two-tab tile, got %d members", len(tiled))
	}
	if tiled[0].Title != "shell" || tiled[1].Title != "editor" {
		t.Errorf("tile order = %s, %s; want shell, editor", tiled[0].Title, tiled[1].Title)
	}
}

func TestStartupStopsOnCancel(t *testing.T) {
	loop := dispatch.New(4, nil)
	var launched int
	s := NewStartup(StartupConfig{
		Apps:  []config.StartupApp{{Name: "x", Path: "/x"}},
		Delay: time.Hour,
	}, func(config.StartupApp) (uint32, error) {
		launched++
		return 1, nil
	}, func(uint32) (platform.WindowInfo, bool) {
		t.Fatalf("find called after cancellation")
		return platform.WindowInfo{}, false
	}, loop.Do, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if n := s.Run(ctx); n != 0 {
		t.Fatalf("expected nothing embedded, got %d", n)
	}
	if launched != 1 {
		t.Fatalf("expected the app to be launched once, got %d", launched)
	}
}
