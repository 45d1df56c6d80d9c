package daemon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/wind/internal/discovery"
	"github.com/1broseidon/wind/internal/ipc"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/session"
	"github.com/1broseidon/wind/internal/tabs"
	"github.com/google/uuid"
)

var _ ipc.Controller = (*Daemon)(nil)

// ErrNoSession is returned when there is no session file to restore.
var ErrNoSession = errors.New("no saved session")

// Status reports tab counts.
func (d *Daemon) Status(ctx context.Context) (ipc.StatusData, error) {
	var out ipc.StatusData
	err := d.loop.Do(ctx, func() error {
		all := d.mgr.Tabs()
		out.TabCount = len(all)
		if a := d.mgr.Active(); a != nil {
			out.ActiveTabID = a.ID.String()
		}
		if tile := d.mgr.Tile(); tile != nil {
			out.TiledCount = len(tile.Tabs)
		}
		return nil
	})
	return out, err
}

// ListTabs returns every tab in strip order.
func (d *Daemon) ListTabs(ctx context.Context) ([]ipc.TabInfo, error) {
	var out []ipc.TabInfo
	err := d.loop.Do(ctx, func() error {
		active := d.mgr.Active()
		for _, t := range d.mgr.Tabs() {
			out = append(out, tabInfo(t, t == active))
		}
		return nil
	})
	return out, err
}

// ListWindows returns the windows that could be embedded.
func (d *Daemon) ListWindows(ctx context.Context) ([]ipc.WindowInfo, error) {
	found, err := d.detector.FindWindows(d.backend)
	if err != nil {
		return nil, err
	}
	out := make([]ipc.WindowInfo, 0, len(found))
	for _, w := range found {
		out = append(out, windowInfo(w))
	}
	return out, nil
}

// AddWindow embeds the window with the given handle in a new tab.
func (d *Daemon) AddWindow(ctx context.Context, handle uint64, activate bool) (ipc.TabInfo, error) {
	info := discovery.Describe(d.backend, platform.Handle(handle))
	var out ipc.TabInfo
	err := d.loop.Do(ctx, func() error {
		tab, err := d.mgr.AddWindowTab(info, tabs.AddOptions{Activate: activate})
		if err != nil {
			return err
		}
		out = tabInfo(tab, tab == d.mgr.Active())
		return nil
	})
	return out, err
}

// ActivateTab selects a tab by id or unique id prefix.
func (d *Daemon) ActivateTab(ctx context.Context, id string) error {
	return d.loop.Do(ctx, func() error {
		tab, err := d.resolveTab(id)
		if err != nil {
			return err
		}
		d.mgr.Activate(tab)
		return nil
	})
}

// CloseTab closes a tab with action, or the configured close action when
// action is empty.
func (d *Daemon) CloseTab(ctx context.Context, id, action string) error {
	closeAction := d.cfg.ParsedCloseAction()
	if strings.TrimSpace(action) != "" {
		a, err := tabs.ParseCloseAction(action)
		if err != nil {
			return err
		}
		closeAction = a
	}
	return d.loop.Do(ctx, func() error {
		tab, err := d.resolveTab(id)
		if err != nil {
			return err
		}
		d.mgr.CloseTab(tab, closeAction)
		return nil
	})
}

// Tile shows the given tabs side by side, or the multi-selection when ids
// is empty.
func (d *Daemon) Tile(ctx context.Context, ids []string) (int, error) {
	var n int
	err := d.loop.Do(ctx, func() error {
		var layout *tabs.TileLayout
		if len(ids) == 0 {
			layout = d.mgr.TileSelected()
		} else {
			members := make([]*tabs.Tab, 0, len(ids))
			for _, id := range ids {
				tab, err := d.resolveTab(id)
				if err != nil {
					return err
				}
				members = append(members, tab)
			}
			layout = d.mgr.StartTile(members)
		}
		if layout == nil {
			return fmt.Errorf("tiling needs at least two live window tabs")
		}
		n = len(layout.Tabs)
		return nil
	})
	return n, err
}

// Untile stops tiling.
func (d *Daemon) Untile(ctx context.Context) error {
	return d.loop.Do(ctx, func() error {
		d.mgr.StopTile()
		return nil
	})
}

// Cleanup removes tabs whose windows have vanished.
func (d *Daemon) Cleanup(ctx context.Context) (int, error) {
	var n int
	err := d.loop.Do(ctx, func() error {
		n = d.mgr.CleanupInvalidTabs()
		return nil
	})
	return n, err
}

// SaveSession writes the window tabs to the session file.
func (d *Daemon) SaveSession(ctx context.Context) (int, error) {
	if d.sessionPath == "" {
		return 0, fmt.Errorf("session path not configured")
	}
	var snap *session.Session
	err := d.loop.Do(ctx, func() error {
		snap = session.FromTabs(d.mgr.Tabs(), d.mgr.Active(), time.Now())
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := session.Write(d.sessionPath, snap); err != nil {
		return 0, err
	}
	d.logger.Info("session saved", "tabs", len(snap.Tabs), "path", d.sessionPath)
	return len(snap.Tabs), nil
}

// RestoreSession embeds the windows that best match the saved session and
// activates the tab that was active when it was saved.
func (d *Daemon) RestoreSession(ctx context.Context) (int, error) {
	if d.sessionPath == "" {
		return 0, fmt.Errorf("session path not configured")
	}
	snap, err := session.Read(d.sessionPath)
	if err != nil {
		return 0, err
	}
	if snap == nil {
		return 0, ErrNoSession
	}
	candidates, err := d.detector.FindWindows(d.backend)
	if err != nil {
		return 0, err
	}
	matches := session.MatchWindows(snap.Tabs, candidates)

	var restored int
	err = d.loop.Do(ctx, func() error {
		var activate *tabs.Tab
		for _, m := range matches {
			tab, err := d.mgr.AddWindowTab(m.Window, tabs.AddOptions{})
			if err != nil {
				d.logger.Warn("session window not restored", "title", m.Window.Title, "error", err)
				continue
			}
			restored++
			if m.Saved.ID == snap.ActiveTabID {
				activate = tab
			}
		}
		if activate != nil {
			d.mgr.Activate(activate)
		}
		return nil
	})
	d.logger.Info("session restored", "saved", len(snap.Tabs), "restored", restored)
	return restored, err
}

// Shutdown asks the daemon to stop. It returns before shutdown completes.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.RequestShutdown()
	return nil
}

// resolveTab finds a tab by full id or unique id prefix. Runs on the loop.
func (d *Daemon) resolveTab(id string) (*tabs.Tab, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("tab id is required")
	}
	if parsed, err := uuid.Parse(id); err == nil {
		if tab := d.mgr.Find(parsed); tab != nil {
			return tab, nil
		}
		return nil, fmt.Errorf("%w: %s", tabs.ErrNotFound, id)
	}

	var found *tabs.Tab
	for _, t := range d.mgr.Tabs() {
		if !strings.HasPrefix(t.ID.String(), id) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("tab id prefix %q is ambiguous", id)
		}
		found = t
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", tabs.ErrNotFound, id)
	}
	return found, nil
}

func tabInfo(t *tabs.Tab, active bool) ipc.TabInfo {
	info := ipc.TabInfo{
		ID:                t.ID.String(),
		Kind:              t.Kind.String(),
		Title:             t.Title,
		Active:            active,
		Tiled:             t.Tiled,
		LaunchedAtStartup: t.LaunchedAtStartup,
	}
	if t.Kind == tabs.KindWindow {
		info.Handle = uint64(t.Window.Handle)
		info.ProcessName = t.Window.ProcessName
		info.PID = t.Window.PID
		if h := t.Host(); h != nil {
			info.Mode = h.Mode().String()
		}
	}
	return info
}

func windowInfo(w platform.WindowInfo) ipc.WindowInfo {
	return ipc.WindowInfo{
		Handle:      uint64(w.Handle),
		Title:       w.Title,
		ClassName:   w.ClassName,
		ProcessName: w.ProcessName,
		PID:         w.PID,
	}
}
