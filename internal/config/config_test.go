package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/wind/internal/tabs"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.ForceKillTimeout() != 3*time.Second {
		t.Fatalf("expected 3s kill timeout, got %v", cfg.ForceKillTimeout())
	}
	if cfg.ForceKillPoll() != 100*time.Millisecond {
		t.Fatalf("expected 100ms poll, got %v", cfg.ForceKillPoll())
	}
	if cfg.CleanupInterval() != 3*time.Second {
		t.Fatalf("expected 3s cleanup interval, got %v", cfg.CleanupInterval())
	}
	if cfg.TileGap != 4 {
		t.Fatalf("expected tile gap 4, got %d", cfg.TileGap)
	}
	if got := len(cfg.Hotkeys.Bindings()); got != 6 {
		t.Fatalf("expected 6 default bindings, got %d", got)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if res.Config.ParsedCloseAction() != tabs.CloseApp {
		t.Fatalf("expected close_app, got %v", res.Config.ParsedCloseAction())
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Frame.Title != "wind" {
		t.Fatalf("expected default frame title, got %q", res.Config.Frame.Title)
	}
}

func TestLoadFromPath_OverridesKeepOtherDefaults(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"close_action: ReleaseEmbed",
		"close_windows_on_exit: startup_only",
		"frame:",
		"  width: 1600",
		"hotkeys:",
		"  untile: \"\"",
		"popup_classes: [MozillaWindowClass]",
		"startup_apps:",
		"  - name: b",
		"    path: /usr/bin/b",
		"    tile: main",
		"    tile_position: 2",
		"  - name: a",
		"    path: /usr/bin/a",
		"    tile: main",
		"    tile_position: 1",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.ParsedCloseAction() != tabs.ReleaseEmbed {
		t.Fatalf("expected release_embed, got %v", cfg.ParsedCloseAction())
	}
	if cfg.ParsedExitMode() != tabs.ExitCloseStartup {
		t.Fatalf("expected startup_only, got %v", cfg.ParsedExitMode())
	}
	if cfg.Frame.Width != 1600 || cfg.Frame.Height != 800 {
		t.Fatalf("expected 1600x800 frame, got %dx%d", cfg.Frame.Width, cfg.Frame.Height)
	}
	if cfg.Hotkeys.NextTab == "" || cfg.Hotkeys.Untile != "" {
		t.Fatalf("unexpected hotkeys %+v", cfg.Hotkeys)
	}
	if len(cfg.PopupClasses) != 1 || cfg.PopupClasses[0] != "MozillaWindowClass" {
		t.Fatalf("unexpected popup classes %v", cfg.PopupClasses)
	}
	apps := SortByTilePosition(cfg.StartupApps)
	if len(apps) != 2 || apps[0].Name != "a" || apps[1].Name != "b" {
		t.Fatalf("expected startup apps ordered a,b, got %+v", apps)
	}

	src, ok := res.Sources["frame.width"]
	if !ok || src.Line != 4 {
		t.Fatalf("expected frame.width source on line 4, got %+v (ok=%v)", src, ok)
	}
}

func TestLoadFromPath_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadFromPath(writeConfig(t, "tab_positoin: top\n"))
	if err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadFromPath_ValidationCarriesSource(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
		line int
	}{
		{name: "close action", body: "tab_position: top\nclose_action: explode\n", path: "close_action", line: 2},
		{name: "exit mode", body: "close_windows_on_exit: sometimes\n", path: "close_windows_on_exit", line: 1},
		{name: "tab position", body: "tab_position: middle\n", path: "tab_position", line: 1},
		{name: "poll", body: "force_kill_poll_ms: 0\n", path: "force_kill_poll_ms", line: 1},
		{name: "gap", body: "tile_gap: -1\n", path: "tile_gap", line: 1},
		{name: "duplicate hotkey", body: "hotkeys:\n  untile: Mod4-Mod1-Right\n", path: "hotkeys.untile", line: 2},
		{name: "startup path", body: "startup_apps:\n  - name: x\n", path: "startup_apps", line: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.body))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
			if verr.Source.Line != tt.line {
				t.Fatalf("expected line %d, got %d (%v)", tt.line, verr.Source.Line, err)
			}
		})
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.CloseAction = tabs.ReleaseEmbed.String()
	cfg.TileGap = 8
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.CloseAction != "release_embed" || res.Config.TileGap != 8 {
		t.Fatalf("unexpected reloaded config %+v", res.Config)
	}
}

func TestSaveTo_RefusesInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Frame.Width = 0
	if err := cfg.SaveTo(path); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file written, stat err %v", err)
	}
}

func TestExplain_ReportsSources(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "tile_gap: 10\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	settings, err := res.Explain()
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	found := map[string]Setting{}
	for _, s := range settings {
		found[s.Path] = s
	}
	gap, ok := found["tile_gap"]
	if !ok || gap.Source.Kind != SourceFile || gap.Value != 10 {
		t.Fatalf("unexpected tile_gap setting %+v", gap)
	}
	width, ok := found["frame.width"]
	if !ok || width.Source.Kind != SourceDefault {
		t.Fatalf("unexpected frame.width setting %+v", width)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]string{"debug": "DEBUG", "": "INFO", "WARN": "WARN", "error": "ERROR"}
	for in, want := range tests {
		cfg := DefaultConfig()
		cfg.LogLevel = in
		if got := cfg.SlogLevel().String(); got != want {
			t.Errorf("SlogLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
