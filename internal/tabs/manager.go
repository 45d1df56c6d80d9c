package tabs

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/wind/internal/embed"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/tiling"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a tab id or handle is unknown.
var ErrNotFound = errors.New("tabs: tab not found")

const (
	DefaultForceKillTimeout = 3 * time.Second
	DefaultForceKillPoll    = 100 * time.Millisecond
	DefaultTileGap          = 4
)

// Backend is the part of platform.Backend the manager needs.
type Backend interface {
	platform.WindowOps
	platform.ProcessOps
}

// Hooks are optional observers. They run on the UI loop.
type Hooks struct {
	GuestClosed             func(tab *Tab)
	MinimizeRequested       func()
	MaximizeRequested       func()
	MoveRequested           func(dx, dy int)
	OuterCloseRequested     func()
	TileLayoutChanged       func(layout *TileLayout)
	TileLayoutRebuildNeeded func()
	ActiveChanged           func(tab *Tab)
	TabAdded                func(tab *Tab)
	TabRemoved              func(tab *Tab)
}

// Options configure a Manager.
type Options struct {
	// Frame is the parent of every container.
	Frame            platform.Handle
	Hooks            Hooks
	TileGap          int
	ForceKillTimeout time.Duration
	ForceKillPoll    time.Duration
	Logger           *slog.Logger
}

// AddOptions control AddWindowTab.
type AddOptions struct {
	Activate          bool
	LaunchedAtStartup bool
}

// Manager owns the tab list. All methods must run on the UI loop.
type Manager struct {
	backend Backend
	reg     *embed.Registry
	frame   platform.Handle
	hooks   Hooks
	logger  *slog.Logger

	tileGap   int
	killAfter time.Duration
	killPoll  time.Duration

	tabs   []*Tab
	active *Tab
	tile   *TileLayout
	area   platform.Rect

	// cleaning is set while CleanupInvalidTabs runs.
	cleaning bool
}

// NewManager creates a manager that captures windows through reg.
func NewManager(backend Backend, reg *embed.Registry, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		backend:   backend,
		reg:       reg,
		frame:     opts.Frame,
		hooks:     opts.Hooks,
		logger:    logger.With("component", "tabs"),
		tileGap:   opts.TileGap,
		killAfter: opts.ForceKillTimeout,
		killPoll:  opts.ForceKillPoll,
	}
	if m.tileGap < 0 {
		m.tileGap = DefaultTileGap
	}
	if m.killAfter <= 0 {
		m.killAfter = DefaultForceKillTimeout
	}
	if m.killPoll <= 0 {
		m.killPoll = DefaultForceKillPoll
	}
	return m
}

// SetFrame changes the parent used for new containers.
func (m *Manager) SetFrame(frame platform.Handle) {
	m.frame = frame
}

// SetHooks replaces the observers.
func (m *Manager) SetHooks(h Hooks) {
	m.hooks = h
}

// AddWindowTab captures info.Handle and hosts it in a new tab. A handle that
// already backs a tab activates that tab instead.
func (m *Manager) AddWindowTab(info platform.WindowInfo, opts AddOptions) (*Tab, error) {
	if info.Handle == 0 {
		return nil, embed.ErrInvalidHandle
	}
	if existing := m.FindByHandle(info.Handle); existing != nil {
		m.Activate(existing)
		return existing, nil
	}

	host, err := m.reg.Capture(info.Handle)
	if err != nil {
		return nil, err
	}
	if _, err := host.Attach(m.frame); err != nil {
		if rerr := host.Release(); rerr != nil {
			m.logger.Warn("release after failed attach", "error", rerr)
		}
		return nil, fmt.Errorf("attach window: %w", err)
	}

	if info.PID == 0 {
		info.PID = host.PID()
	}
	if info.ClassName == "" {
		info.ClassName = host.Class()
	}
	if info.Title == "" {
		info.Title, _ = m.backend.Title(info.Handle)
	}
	if info.ProcessName == "" {
		info.ProcessName, _ = m.backend.ProcessName(info.PID)
	}

	tab := &Tab{
		ID:                uuid.New(),
		Kind:              KindWindow,
		Title:             info.Title,
		Window:            info,
		LaunchedAtStartup: opts.LaunchedAtStartup,
		host:              host,
	}
	host.SetHandlers(embed.Handlers{
		Closed: func() { m.onGuestClosed(tab) },
		MinimizeRequested: func() {
			if m.hooks.MinimizeRequested != nil {
				m.hooks.MinimizeRequested()
			}
		},
		MaximizeRequested: func() {
			if m.hooks.MaximizeRequested != nil {
				m.hooks.MaximizeRequested()
			}
		},
		MoveRequested: func(dx, dy int) {
			if m.hooks.MoveRequested != nil {
				m.hooks.MoveRequested(dx, dy)
			}
		},
	})

	m.tabs = append(m.tabs, tab)
	m.logger.Info("tab added", "id", tab.ID, "title", tab.Title, "mode", host.Mode().String())
	if m.hooks.TabAdded != nil {
		m.hooks.TabAdded(tab)
	}

	if opts.Activate || m.active == nil {
		m.Activate(tab)
	} else {
		host.SetVisible(false)
	}
	return tab, nil
}

// AddContentTab adds a tab that shows host-side content.
func (m *Manager) AddContentTab(title, key string, activate bool) *Tab {
	tab := &Tab{ID: uuid.New(), Kind: KindContent, Title: title, ContentKey: key}
	m.addPlain(tab, activate)
	return tab
}

// AddWebTab adds a tab that shows a URL.
func (m *Manager) AddWebTab(url string, activate bool) *Tab {
	tab := &Tab{ID: uuid.New(), Kind: KindWeb, Title: url, URL: url}
	m.addPlain(tab, activate)
	return tab
}

func (m *Manager) addPlain(tab *Tab, activate bool) {
	m.tabs = append(m.tabs, tab)
	if m.hooks.TabAdded != nil {
		m.hooks.TabAdded(tab)
	}
	if activate {
		m.Activate(tab)
	}
}

// Activate makes tab the visible tab and focuses its guest.
func (m *Manager) Activate(tab *Tab) {
	if m.indexOf(tab) < 0 {
		return
	}
	changed := m.active != tab
	m.active = tab
	m.relayout()
	if tab.host != nil {
		if err := tab.host.Focus(); err != nil {
			m.logger.Debug("focus guest failed", "id", tab.ID, "error", err)
		}
	}
	if changed && m.hooks.ActiveChanged != nil {
		m.hooks.ActiveChanged(tab)
	}
}

// SelectIndex activates the tab at i. Out-of-range indexes are ignored.
func (m *Manager) SelectIndex(i int) {
	if i >= 0 && i < len(m.tabs) {
		m.Activate(m.tabs[i])
	}
}

// SelectNext activates the next tab, wrapping around.
func (m *Manager) SelectNext() {
	m.step(1)
}

// SelectPrevious activates the previous tab, wrapping around.
func (m *Manager) SelectPrevious() {
	m.step(-1)
}

func (m *Manager) step(delta int) {
	if len(m.tabs) == 0 || m.active == nil {
		return
	}
	i := m.indexOf(m.active)
	n := len(m.tabs)
	m.Activate(m.tabs[((i+delta)%n+n)%n])
}

// Move places tab at index, clamped to the list.
func (m *Manager) Move(tab *Tab, index int) {
	old := m.indexOf(tab)
	if old < 0 {
		return
	}
	index = max(0, min(index, len(m.tabs)-1))
	if old == index {
		return
	}
	m.tabs = append(m.tabs[:old], m.tabs[old+1:]...)
	m.tabs = append(m.tabs[:index], append([]*Tab{tab}, m.tabs[index:]...)...)
}

// Tabs returns the tabs in strip order.
func (m *Manager) Tabs() []*Tab {
	return append([]*Tab(nil), m.tabs...)
}

// Active returns the active tab, or nil.
func (m *Manager) Active() *Tab {
	return m.active
}

// Tile returns the active tile layout, or nil.
func (m *Manager) Tile() *TileLayout {
	return m.tile
}

// Find returns the tab with id, or nil.
func (m *Manager) Find(id uuid.UUID) *Tab {
	for _, t := range m.tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// FindByHandle returns the window tab hosting h, or nil.
func (m *Manager) FindByHandle(h platform.Handle) *Tab {
	if h == 0 {
		return nil
	}
	for _, t := range m.tabs {
		if t.Kind == KindWindow && t.Window.Handle == h {
			return t
		}
	}
	return nil
}

func (m *Manager) indexOf(tab *Tab) int {
	for i, t := range m.tabs {
		if t == tab {
			return i
		}
	}
	return -1
}

// Layout records the area available for tab content and places the
// visible hosts inside it.
func (m *Manager) Layout(area platform.Rect) {
	m.area = area
	m.relayout()
}

func (m *Manager) relayout() {
	if m.tile != nil && m.active != nil && m.active.Tiled {
		bounds := tiling.CellBounds(m.tile.Grid, m.area, m.tileGap)
		for _, t := range m.tabs {
			if t.host == nil {
				continue
			}
			if !t.Tiled {
				t.host.SetVisible(false)
			}
		}
		for i, t := range m.tile.Tabs {
			if t.host == nil || i >= len(bounds) {
				continue
			}
			t.host.Place(bounds[i])
			t.host.SetVisible(true)
		}
		return
	}

	for _, t := range m.tabs {
		if t.host == nil {
			continue
		}
		if t == m.active {
			t.host.Place(m.area)
			t.host.SetVisible(true)
			continue
		}
		t.host.SetVisible(false)
	}
}

// removeTab drops tab from the list. The caller has already released or
// abandoned its host.
func (m *Manager) removeTab(tab *Tab) {
	m.UpdateTileForRemovedTab(tab)

	index := m.indexOf(tab)
	if index < 0 {
		return
	}
	m.tabs = append(m.tabs[:index], m.tabs[index+1:]...)
	tab.MultiSelected = false
	m.logger.Info("tab removed", "id", tab.ID, "title", tab.Title)
	if m.hooks.TabRemoved != nil {
		m.hooks.TabRemoved(tab)
	}

	if m.active == tab {
		m.active = nil
		if len(m.tabs) > 0 {
			m.Activate(m.tabs[min(index, len(m.tabs)-1)])
			return
		}
		if m.hooks.ActiveChanged != nil {
			m.hooks.ActiveChanged(nil)
		}
	}
	m.relayout()
}

// onGuestClosed runs when a guest window was destroyed by its owner. A tab
// already removed is ignored.
func (m *Manager) onGuestClosed(tab *Tab) {
	if m.indexOf(tab) < 0 {
		return
	}
	if m.hooks.GuestClosed != nil {
		m.hooks.GuestClosed(tab)
	}
	m.removeTab(tab)
}

// StartTile shows tabs side by side. Any previous tile is stopped first and
// the multi-selection is cleared. Fewer than two usable tabs start nothing.
func (m *Manager) StartTile(tabs []*Tab) *TileLayout {
	m.StopTile()

	var members []*Tab
	seen := make(map[*Tab]bool)
	for _, t := range tabs {
		if t == nil || seen[t] || m.indexOf(t) < 0 || t.host == nil || t.host.Closed() {
			continue
		}
		seen[t] = true
		members = append(members, t)
	}
	if len(members) < 2 {
		return nil
	}

	m.tile = newTileLayout(members)
	m.ClearMultiSelection()
	m.logger.Info("tile started", "tabs", len(members))
	if m.hooks.TileLayoutChanged != nil {
		m.hooks.TileLayoutChanged(m.tile)
	}
	if m.active == nil || !m.active.Tiled {
		m.Activate(members[0])
		return m.tile
	}
	m.relayout()
	return m.tile
}

// StopTile deactivates the current tile layout, if any.
func (m *Manager) StopTile() {
	if m.tile == nil {
		return
	}
	m.tile.Deactivate()
	m.tile = nil
	m.logger.Info("tile stopped")
	if m.hooks.TileLayoutChanged != nil {
		m.hooks.TileLayoutChanged(nil)
	}
	m.relayout()
}

// UpdateTileForRemovedTab shrinks the tile when a member goes away and stops
// it when fewer than two members remain.
func (m *Manager) UpdateTileForRemovedTab(tab *Tab) {
	if m.tile == nil || !tab.Tiled || !m.tile.Contains(tab) {
		return
	}
	if m.tile.remove(tab) {
		if m.hooks.TileLayoutRebuildNeeded != nil {
			m.hooks.TileLayoutRebuildNeeded()
		}
		m.relayout()
		return
	}
	m.StopTile()
}

// ToggleMultiSelect flips the multi-selection flag of tab.
func (m *Manager) ToggleMultiSelect(tab *Tab) {
	if m.indexOf(tab) >= 0 {
		tab.MultiSelected = !tab.MultiSelected
	}
}

// ClearMultiSelection unselects every tab.
func (m *Manager) ClearMultiSelection() {
	for _, t := range m.tabs {
		t.MultiSelected = false
	}
}

// MultiSelected returns the multi-selected tabs in strip order.
func (m *Manager) MultiSelected() []*Tab {
	var out []*Tab
	for _, t := range m.tabs {
		if t.MultiSelected {
			out = append(out, t)
		}
	}
	return out
}

// TileSelected tiles the multi-selected tabs.
func (m *Manager) TileSelected() *TileLayout {
	return m.StartTile(m.MultiSelected())
}
