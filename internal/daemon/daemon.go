// Package daemon runs the window host: it owns the UI loop, the frame, the
// tab manager and every background worker that feeds them.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/discovery"
	"github.com/1broseidon/wind/internal/dispatch"
	"github.com/1broseidon/wind/internal/embed"
	"github.com/1broseidon/wind/internal/hotkeys"
	"github.com/1broseidon/wind/internal/ipc"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/tabs"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// TabStripSize is the space the frame reserves for the tab strip.
const TabStripSize = 32

// shutdownTimeout bounds each step of shutdown that waits on the loop.
const shutdownTimeout = 10 * time.Second

// Options configure a Daemon.
type Options struct {
	Config  *config.Config
	Backend platform.Backend
	// SocketPath enables the IPC server when set.
	SocketPath  string
	SessionPath string
	// Launcher starts startup apps; nil uses ExecLauncher.
	Launcher Launcher
	// StartupDelay overrides DefaultStartupDelay when positive.
	StartupDelay time.Duration
	Logger       *slog.Logger
}

// Daemon hosts embedded windows in a single frame.
type Daemon struct {
	cfg     *config.Config
	backend platform.Backend
	logger  *slog.Logger

	loop     *dispatch.Loop
	reg      *embed.Registry
	mgr      *tabs.Manager
	detector *discovery.Detector
	hotkeys  *hotkeys.Handler
	cleaner  *Cleaner
	startup  *Startup
	server   *ipc.Server

	socketPath  string
	sessionPath string

	frame   platform.Handle
	size    atomic.Pointer[[2]int]
	pending atomic.Bool

	quit     chan struct{}
	quitOnce sync.Once
}

// New wires the daemon's components. Nothing touches the window system
// until Run.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("daemon: config is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("daemon: backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config

	d := &Daemon{
		cfg:         cfg,
		backend:     opts.Backend,
		logger:      logger.With("component", "daemon"),
		socketPath:  opts.SocketPath,
		sessionPath: opts.SessionPath,
		quit:        make(chan struct{}),
	}

	d.loop = dispatch.New(dispatch.DefaultQueueSize, logger)
	d.reg = embed.NewRegistry(opts.Backend, d.loop, embed.Options{
		PopupClasses: cfg.PopupClasses,
		Logger:       logger,
	})
	d.mgr = tabs.NewManager(opts.Backend, d.reg, tabs.Options{
		TileGap:          cfg.TileGap,
		ForceKillTimeout: cfg.ForceKillTimeout(),
		ForceKillPoll:    cfg.ForceKillPoll(),
		Logger:           logger,
	})
	d.mgr.SetHooks(tabs.Hooks{
		MinimizeRequested:   d.minimizeFrame,
		MaximizeRequested:   d.toggleMaximizeFrame,
		MoveRequested:       d.moveFrame,
		OuterCloseRequested: d.RequestShutdown,
	})
	d.detector = discovery.NewDetector(uint32(os.Getpid()), d.reg.Contains)
	d.hotkeys = hotkeys.NewHandler(opts.Backend, d.loop, logger)
	d.cleaner = NewCleaner(CleanerConfig{
		Interval: cfg.CleanupInterval(),
		Logger:   logger,
	}, d.loop, d.mgr.CleanupInvalidTabs)

	delay := DefaultStartupDelay
	if opts.StartupDelay > 0 {
		delay = opts.StartupDelay
	}
	d.startup = NewStartup(StartupConfig{
		Apps:   cfg.StartupApps,
		Delay:  delay,
		Logger: logger,
	}, opts.Launcher, d.findByPID, d.loop.Do, d.mgr)

	if d.socketPath != "" {
		d.server = ipc.NewServer(d.socketPath, d, logger)
	}
	return d, nil
}

// Manager exposes the tab manager. Its methods must run on the loop.
func (d *Daemon) Manager() *tabs.Manager { return d.mgr }

// Loop exposes the UI loop.
func (d *Daemon) Loop() *dispatch.Loop { return d.loop }

// Frame returns the host frame once Run has created it.
func (d *Daemon) Frame() platform.Handle { return d.frame }

// RequestShutdown asks Run to shut down. It is safe from any goroutine.
func (d *Daemon) RequestShutdown() {
	d.quitOnce.Do(func() { close(d.quit) })
}

// Run creates the frame, starts every worker and blocks until shutdown is
// requested or ctx is cancelled. Hosted windows are then closed or released
// according to close_windows_on_exit.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.setup(); err != nil {
		d.loop.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return d.loop.Run(context.Background())
	})
	g.Go(func() error {
		d.cleaner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		if n := d.startup.Run(gctx); n > 0 {
			d.logger.Info("startup apps embedded", "count", n)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-d.quit:
		}
		d.logger.Info("shutting down wind daemon")
		err := d.shutdown()
		cancel()
		return err
	})

	return g.Wait()
}

func (d *Daemon) setup() error {
	frameRect := platform.Rect{X: 80, Y: 80, Width: d.cfg.Frame.Width, Height: d.cfg.Frame.Height}
	d.size.Store(&[2]int{frameRect.Width, frameRect.Height})

	frame, err := d.backend.CreateFrame(d.cfg.Frame.Title, frameRect, platform.FrameHandlers{
		OnResize:   d.onFrameResize,
		OnClose:    d.RequestShutdown,
		OnActivate: d.onFrameActivate,
	})
	if err != nil {
		return fmt.Errorf("failed to create frame: %w", err)
	}
	d.frame = frame
	d.mgr.SetFrame(frame)
	d.mgr.Layout(ContentArea(d.cfg.TabPosition, frameRect.Width, frameRect.Height))
	d.logger.Info("frame created", "handle", uintptr(frame), "width", frameRect.Width, "height", frameRect.Height)

	if err := d.hotkeys.Bind(d.cfg.Hotkeys.Bindings(), d.actions()); err != nil {
		d.logger.Warn("some hotkeys were not registered", "error", err)
	}

	if d.server != nil {
		if err := d.server.Start(); err != nil {
			d.backend.DestroyWindow(frame)
			return err
		}
	}
	return nil
}

func (d *Daemon) actions() hotkeys.Actions {
	return hotkeys.Actions{
		"next_tab": d.mgr.SelectNext,
		"prev_tab": d.mgr.SelectPrevious,
		"close_tab": func() {
			if t := d.mgr.Active(); t != nil {
				d.mgr.CloseTab(t, d.cfg.ParsedCloseAction())
			}
		},
		"tile_selected": func() {
			if d.mgr.TileSelected() == nil {
				d.logger.Info("select at least two window tabs to tile")
			}
		},
		"untile": d.mgr.StopTile,
		"release_tab": func() {
			if t := d.mgr.Active(); t != nil {
				d.mgr.CloseTab(t, tabs.ReleaseEmbed)
			}
		},
	}
}

// onFrameResize runs on the backend thread. Bursts of resizes collapse into
// one relayout using the latest size.
func (d *Daemon) onFrameResize(width, height int) {
	d.size.Store(&[2]int{width, height})
	if !d.pending.CompareAndSwap(false, true) {
		return
	}
	go d.loop.Post(func() {
		d.pending.Store(false)
		sz := d.size.Load()
		d.mgr.Layout(ContentArea(d.cfg.TabPosition, sz[0], sz[1]))
	})
}

func (d *Daemon) onFrameActivate() {
	d.loop.TryPost(func() {
		if t := d.mgr.Active(); t != nil && t.Host() != nil {
			if err := t.Host().Focus(); err != nil {
				d.logger.Debug("focus failed", "error", err)
			}
		}
	})
}

func (d *Daemon) minimizeFrame() {
	if err := d.backend.Show(d.frame, platform.ShowMinimize); err != nil {
		d.logger.Debug("minimize frame failed", "error", err)
	}
}

func (d *Daemon) toggleMaximizeFrame() {
	cmd := platform.ShowMaximize
	if d.backend.IsMaximized(d.frame) {
		cmd = platform.ShowRestore
	}
	if err := d.backend.Show(d.frame, cmd); err != nil {
		d.logger.Debug("maximize frame failed", "error", err)
	}
}

func (d *Daemon) moveFrame(dx, dy int) {
	r, err := d.backend.WindowRect(d.frame)
	if err != nil {
		return
	}
	r.X += dx
	r.Y += dy
	if err := d.backend.SetBounds(d.frame, r, platform.PosNoZOrder); err != nil {
		d.logger.Debug("move frame failed", "error", err)
	}
}

func (d *Daemon) findByPID(pid uint32) (platform.WindowInfo, bool) {
	return d.detector.FindByPID(d.backend, pid)
}

// shutdown empties the tab list on the loop, waits for the reaper, then
// stops the loop and the IPC server.
func (d *Daemon) shutdown() error {
	var result *multierror.Error
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var reaped <-chan error
	mode := d.cfg.ParsedExitMode()
	if err := d.loop.Do(ctx, func() error {
		reaped = d.mgr.Shutdown(mode)
		return nil
	}); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown tabs: %w", err))
	}
	if reaped != nil {
		if err := <-reaped; err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := d.loop.Do(ctx, d.reg.Close); err != nil {
		result = multierror.Append(result, fmt.Errorf("release hosts: %w", err))
	}
	d.loop.Close()

	if d.server != nil {
		d.server.Stop()
	}
	if d.frame != 0 {
		if err := d.backend.DestroyWindow(d.frame); err != nil {
			d.logger.Debug("destroy frame failed", "error", err)
		}
	}
	d.logger.Info("wind daemon stopped", "exit_mode", mode.String())
	return result.ErrorOrNil()
}

// ContentArea is the part of a width x height frame left for hosted windows
// after reserving the tab strip on side position.
func ContentArea(position string, width, height int) platform.Rect {
	r := platform.Rect{Width: width, Height: height}
	switch position {
	case "bottom":
		r.Height -= min(TabStripSize, max(height, 0))
	case "left":
		r.X = min(TabStripSize, max(width, 0))
		r.Width -= r.X
	case "right":
		r.Width -= min(TabStripSize, max(width, 0))
	default:
		r.Y = min(TabStripSize, max(height, 0))
		r.Height -= r.Y
	}
	return r
}
