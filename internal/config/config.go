package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/wind/internal/tabs"
	"gopkg.in/yaml.v3"
)

// Config is the effective wind configuration.
type Config struct {
	CloseAction        string       `yaml:"close_action"`
	CloseWindowsOnExit string       `yaml:"close_windows_on_exit"`
	TabPosition        string       `yaml:"tab_position"`
	Frame              FrameConfig  `yaml:"frame"`
	PopupClasses       []string     `yaml:"popup_classes,omitempty"`
	TileGap            int          `yaml:"tile_gap"`
	CleanupIntervalMs  int          `yaml:"cleanup_interval_ms"`
	ForceKillTimeoutMs int          `yaml:"force_kill_timeout_ms"`
	ForceKillPollMs    int          `yaml:"force_kill_poll_ms"`
	Hotkeys            Hotkeys      `yaml:"hotkeys"`
	StartupApps        []StartupApp `yaml:"startup_apps,omitempty"`
	LogLevel           string       `yaml:"log_level"`
}

// FrameConfig describes the host frame created by the daemon.
type FrameConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Hotkeys maps tab actions to key sequences. An empty sequence leaves the
// action unbound.
type Hotkeys struct {
	NextTab      string `yaml:"next_tab"`
	PrevTab      string `yaml:"prev_tab"`
	CloseTab     string `yaml:"close_tab"`
	TileSelected string `yaml:"tile_selected"`
	Untile       string `yaml:"untile"`
	ReleaseTab   string `yaml:"release_tab"`
}

// Bindings returns the non-empty bindings keyed by action name, in a stable
// order.
func (h Hotkeys) Bindings() []Binding {
	all := []Binding{
		{Action: "next_tab", Sequence: h.NextTab},
		{Action: "prev_tab", Sequence: h.PrevTab},
		{Action: "close_tab", Sequence: h.CloseTab},
		{Action: "tile_selected", Sequence: h.TileSelected},
		{Action: "untile", Sequence: h.Untile},
		{Action: "release_tab", Sequence: h.ReleaseTab},
	}
	out := all[:0]
	for _, b := range all {
		if strings.TrimSpace(b.Sequence) != "" {
			out = append(out, b)
		}
	}
	return out
}

// Binding is one configured hotkey.
type Binding struct {
	Action   string
	Sequence string
}

// StartupApp is an application launched and embedded when the daemon starts.
// Apps naming the same Tile group are shown side by side, ordered by
// TilePosition.
type StartupApp struct {
	Name         string   `yaml:"name"`
	Path         string   `yaml:"path"`
	Args         []string `yaml:"args,omitempty"`
	Tile         string   `yaml:"tile,omitempty"`
	TilePosition int      `yaml:"tile_position,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		CloseAction:        tabs.CloseApp.String(),
		CloseWindowsOnExit: tabs.ExitRelease.String(),
		TabPosition:        "top",
		Frame: FrameConfig{
			Title:  "wind",
			Width:  1280,
			Height: 800,
		},
		TileGap:            tabs.DefaultTileGap,
		CleanupIntervalMs:  3000,
		ForceKillTimeoutMs: int(tabs.DefaultForceKillTimeout / time.Millisecond),
		ForceKillPollMs:    int(tabs.DefaultForceKillPoll / time.Millisecond),
		Hotkeys: Hotkeys{
			NextTab:      "Mod4-Mod1-Right",
			PrevTab:      "Mod4-Mod1-Left",
			CloseTab:     "Mod4-Mod1-w",
			TileSelected: "Mod4-Mod1-t",
			Untile:       "Mod4-Mod1-u",
			ReleaseTab:   "Mod4-Mod1-r",
		},
		LogLevel: "info",
	}
}

// ParsedCloseAction returns the configured close action. Validate has
// already rejected unknown values.
func (c *Config) ParsedCloseAction() tabs.CloseAction {
	a, _ := tabs.ParseCloseAction(c.CloseAction)
	return a
}

// ParsedExitMode returns the configured exit behaviour.
func (c *Config) ParsedExitMode() tabs.ExitMode {
	m, _ := tabs.ParseExitMode(c.CloseWindowsOnExit)
	return m
}

func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMs) * time.Millisecond
}

func (c *Config) ForceKillTimeout() time.Duration {
	return time.Duration(c.ForceKillTimeoutMs) * time.Millisecond
}

func (c *Config) ForceKillPoll() time.Duration {
	return time.Duration(c.ForceKillPollMs) * time.Millisecond
}

// SlogLevel maps log_level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SortByTilePosition orders apps by tile_position, keeping the file order
// for equal positions.
func SortByTilePosition(apps []StartupApp) []StartupApp {
	out := append([]StartupApp(nil), apps...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TilePosition < out[j].TilePosition
	})
	return out
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo validates and writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var validTabPositions = map[string]bool{"top": true, "bottom": true, "left": true, "right": true}

var validLogLevels = map[string]bool{"": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := tabs.ParseCloseAction(c.CloseAction); err != nil {
		return &ValidationError{Path: "close_action", Err: err}
	}
	if _, err := tabs.ParseExitMode(c.CloseWindowsOnExit); err != nil {
		return &ValidationError{Path: "close_windows_on_exit", Err: err}
	}
	if !validTabPositions[strings.ToLower(c.TabPosition)] {
		return &ValidationError{Path: "tab_position", Err: fmt.Errorf("must be top, bottom, left or right (got %q)", c.TabPosition)}
	}
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		return &ValidationError{Path: "frame", Err: fmt.Errorf("width and height must be positive (got %dx%d)", c.Frame.Width, c.Frame.Height)}
	}
	for i, class := range c.PopupClasses {
		if strings.TrimSpace(class) == "" {
			return &ValidationError{Path: "popup_classes", Err: fmt.Errorf("entry %d is empty", i)}
		}
	}
	if c.TileGap < 0 {
		return &ValidationError{Path: "tile_gap", Err: fmt.Errorf("must be >= 0 (got %d)", c.TileGap)}
	}
	if c.CleanupIntervalMs < 100 {
		return &ValidationError{Path: "cleanup_interval_ms", Err: fmt.Errorf("must be >= 100 (got %d)", c.CleanupIntervalMs)}
	}
	if c.ForceKillTimeoutMs < 0 {
		return &ValidationError{Path: "force_kill_timeout_ms", Err: fmt.Errorf("must be >= 0 (got %d)", c.ForceKillTimeoutMs)}
	}
	if c.ForceKillPollMs <= 0 {
		return &ValidationError{Path: "force_kill_poll_ms", Err: fmt.Errorf("must be > 0 (got %d)", c.ForceKillPollMs)}
	}
	if err := c.validateHotkeys(); err != nil {
		return err
	}
	for i, app := range c.StartupApps {
		if strings.TrimSpace(app.Path) == "" {
			return &ValidationError{Path: "startup_apps", Err: fmt.Errorf("entry %d (%q) has no path", i, app.Name)}
		}
	}
	if !validLogLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))] {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("unknown level %q", c.LogLevel)}
	}
	return nil
}

func (c *Config) validateHotkeys() error {
	seen := make(map[string]string)
	for _, b := range c.Hotkeys.Bindings() {
		key := strings.ToLower(strings.TrimSpace(b.Sequence))
		if prev, ok := seen[key]; ok {
			return &ValidationError{
				Path: "hotkeys." + b.Action,
				Err:  fmt.Errorf("sequence %q already bound to %s", b.Sequence, prev),
			}
		}
		seen[key] = b.Action
	}
	return nil
}

// ValidationError reports an invalid value together with the place in the
// YAML that set it, when known.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
