package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/tabs"
)

// Startup timing defaults.
const (
	DefaultStartupDelay        = 1500 * time.Millisecond
	DefaultStartupPollInterval = 250 * time.Millisecond
	DefaultStartupPollAttempts = 20
)

// Launcher starts an application and returns its process id.
type Launcher func(app config.StartupApp) (uint32, error)

// ExecLauncher starts app with os/exec and reaps it in the background.
func ExecLauncher(app config.StartupApp) (uint32, error) {
	cmd := exec.Command(app.Path, app.Args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to launch %s: %w", app.Path, err)
	}
	go cmd.Wait()
	return uint32(cmd.Process.Pid), nil
}

// StartupConfig holds configuration for the startup launcher.
type StartupConfig struct {
	Apps         []config.StartupApp
	Delay        time.Duration
	PollInterval time.Duration
	PollAttempts int
	Logger       *slog.Logger
}

// Startup launches the configured applications and embeds their windows.
type Startup struct {
	cfg    StartupConfig
	launch Launcher
	find   func(pid uint32) (platform.WindowInfo, bool)
	do     func(ctx context.Context, fn func() error) error
	mgr    *tabs.Manager
	logger *slog.Logger
}

type launched struct {
	app config.StartupApp
	pid uint32
}

type startupTab struct {
	app config.StartupApp
	tab *tabs.Tab
}

// NewStartup wires a launcher. find looks up the main window of a process;
// do runs a function on the UI loop that owns mgr.
func NewStartup(cfg StartupConfig, launch Launcher, find func(uint32) (platform.WindowInfo, bool), do func(context.Context, func() error) error, mgr *tabs.Manager) *Startup {
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultStartupPollInterval
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultStartupPollAttempts
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if launch == nil {
		launch = ExecLauncher
	}
	return &Startup{
		cfg:    cfg,
		launch: launch,
		find:   find,
		do:     do,
		mgr:    mgr,
		logger: logger.With("component", "startup"),
	}
}

// Run launches every app, waits for their windows, embeds them and tiles
// the first tile group with at least two members. It returns the number of
// embedded tabs.
func (s *Startup) Run(ctx context.Context) int {
	if len(s.cfg.Apps) == 0 {
		return 0
	}

	var started []launched
	for _, app := range s.cfg.Apps {
		pid, err := s.launch(app)
		if err != nil {
			s.logger.Warn("startup app failed to launch", "name", app.Name, "error", err)
			continue
		}
		s.logger.Info("startup app launched", "name", app.Name, "pid", pid)
		started = append(started, launched{app: app, pid: pid})
	}
	if len(started) == 0 {
		return 0
	}

	if !sleepCtx(ctx, s.cfg.Delay) {
		return 0
	}

	var added []startupTab
	for _, l := range started {
		info, ok := s.waitForWindow(ctx, l.pid)
		if !ok {
			if ctx.Err() != nil {
				break
			}
			s.logger.Warn("startup app has no window", "name", l.app.Name, "pid", l.pid)
			continue
		}

		var tab *tabs.Tab
		err := s.do(ctx, func() error {
			t, err := s.mgr.AddWindowTab(info, tabs.AddOptions{LaunchedAtStartup: true})
			tab = t
			return err
		})
		if err != nil {
			s.logger.Warn("startup app not embedded", "name", l.app.Name, "error", err)
			continue
		}
		added = append(added, startupTab{app: l.app, tab: tab})
	}

	if group := firstTileGroup(added); len(group) >= 2 {
		err := s.do(ctx, func() error {
			s.mgr.StartTile(group)
			return nil
		})
		if err != nil {
			s.logger.Warn("startup tile failed", "error", err)
		}
	}
	return len(added)
}

func (s *Startup) waitForWindow(ctx context.Context, pid uint32) (platform.WindowInfo, bool) {
	for i := 0; i < s.cfg.PollAttempts; i++ {
		if info, ok := s.find(pid); ok {
			return info, true
		}
		if !sleepCtx(ctx, s.cfg.PollInterval) {
			return platform.WindowInfo{}, false
		}
	}
	return platform.WindowInfo{}, false
}

// firstTileGroup returns the tabs of the first named tile group, in
// configuration order, that has at least two members, ordered by
// tile_position.
func firstTileGroup(added []startupTab) []*tabs.Tab {
	var order []string
	groups := make(map[string][]startupTab)
	for _, a := range added {
		name := strings.ToLower(strings.TrimSpace(a.app.Tile))
		if name == "" {
			continue
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], a)
	}

	for _, name := range order {
		members := groups[name]
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].app.TilePosition < members[j].app.TilePosition
		})
		out := make([]*tabs.Tab, 0, len(members))
		for _, m := range members {
			out = append(out, m.tab)
		}
		return out
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
