package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/tabs"
)

type settingsPhase int

const (
	settingsEditing settingsPhase = iota
	settingsPreview               // showing diff, awaiting confirm
	settingsResult                // showing outcome message
)

// settingsModel edits a config with a huh form, previews the YAML diff and
// writes the file on confirmation.
type settingsModel struct {
	path     string
	original *config.Config
	cfg      *config.Config

	phase settingsPhase
	form  *huh.Form
	diff  []diffLine
	err   error
	saved bool

	width  int
	height int

	// Form-bound values, shared by every copy of the model.
	f *settingsFields
}

// settingsFields holds form values as strings for huh, converted on submit.
type settingsFields struct {
	CloseAction string
	ExitMode    string
	TabPosition string
	FrameTitle  string
	FrameWidth  string
	FrameHeight string
	TileGap     string
	CleanupMs   string
	KillMs      string
	LogLevel    string
	NextTab     string
	PrevTab     string
	CloseTab    string
	TileSel     string
	Untile      string
	ReleaseTab  string
}

func newSettingsModel(path string, cfg *config.Config) settingsModel {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	m := settingsModel{
		path:     path,
		original: cloneConfig(cfg),
		cfg:      cfg,
		width:    80,
		f:        &settingsFields{},
	}
	m.loadForm()
	return m
}

func (m *settingsModel) loadForm() {
	cfg := m.cfg
	m.f.CloseAction = cfg.ParsedCloseAction().String()
	m.f.ExitMode = cfg.ParsedExitMode().String()
	m.f.TabPosition = strings.ToLower(displayOrDefault(cfg.TabPosition, "top"))
	m.f.FrameTitle = cfg.Frame.Title
	m.f.FrameWidth = strconv.Itoa(cfg.Frame.Width)
	m.f.FrameHeight = strconv.Itoa(cfg.Frame.Height)
	m.f.TileGap = strconv.Itoa(cfg.TileGap)
	m.f.CleanupMs = strconv.Itoa(cfg.CleanupIntervalMs)
	m.f.KillMs = strconv.Itoa(cfg.ForceKillTimeoutMs)
	m.f.LogLevel = strings.ToLower(cfg.SlogLevel().String())
	m.f.NextTab = cfg.Hotkeys.NextTab
	m.f.PrevTab = cfg.Hotkeys.PrevTab
	m.f.CloseTab = cfg.Hotkeys.CloseTab
	m.f.TileSel = cfg.Hotkeys.TileSelected
	m.f.Untile = cfg.Hotkeys.Untile
	m.f.ReleaseTab = cfg.Hotkeys.ReleaseTab

	w := m.width - 4
	if w < 40 {
		w = 40
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("close_action").
				Title("Close Action").
				Description("What closing a tab does").
				Options(
					huh.NewOption("Close the application", tabs.CloseApp.String()),
					huh.NewOption("Release the window to the desktop", tabs.ReleaseEmbed.String()),
					huh.NewOption("Close wind", tabs.CloseOuter.String()),
				).
				Value(&m.f.CloseAction),

			huh.NewSelect[string]().
				Key("close_windows_on_exit").
				Title("On Exit").
				Description("What happens to hosted windows when wind exits").
				Options(
					huh.NewOption("Release every window", tabs.ExitRelease.String()),
					huh.NewOption("Close every application", tabs.ExitCloseAll.String()),
					huh.NewOption("Close startup apps, release the rest", tabs.ExitCloseStartup.String()),
				).
				Value(&m.f.ExitMode),

			huh.NewSelect[string]().
				Key("tab_position").
				Title("Tab Position").
				Options(huh.NewOptions("top", "bottom", "left", "right")...).
				Value(&m.f.TabPosition),

			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&m.f.LogLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("frame_title").
				Title("Frame Title").
				Value(&m.f.FrameTitle),
			huh.NewInput().
				Key("frame_width").
				Title("Frame Width").
				Validate(positiveInt).
				Value(&m.f.FrameWidth),
			huh.NewInput().
				Key("frame_height").
				Title("Frame Height").
				Validate(positiveInt).
				Value(&m.f.FrameHeight),
			huh.NewInput().
				Key("tile_gap").
				Title("Tile Gap").
				Description("Pixels between tiled windows").
				Validate(nonNegativeInt).
				Value(&m.f.TileGap),
			huh.NewInput().
				Key("cleanup_interval_ms").
				Title("Cleanup Interval (ms)").
				Description("How often vanished windows are swept").
				Validate(positiveInt).
				Value(&m.f.CleanupMs),
			huh.NewInput().
				Key("force_kill_timeout_ms").
				Title("Force Kill Timeout (ms)").
				Description("Grace period before closing applications are terminated").
				Validate(nonNegativeInt).
				Value(&m.f.KillMs),
		),
		huh.NewGroup(
			huh.NewInput().Key("next_tab").Title("Hotkey: Next Tab").Value(&m.f.NextTab),
			huh.NewInput().Key("prev_tab").Title("Hotkey: Previous Tab").Value(&m.f.PrevTab),
			huh.NewInput().Key("close_tab").Title("Hotkey: Close Tab").Value(&m.f.CloseTab),
			huh.NewInput().Key("tile_selected").Title("Hotkey: Tile Selected").Value(&m.f.TileSel),
			huh.NewInput().Key("untile").Title("Hotkey: Untile").Value(&m.f.Untile),
			huh.NewInput().Key("release_tab").Title("Hotkey: Release Tab").Value(&m.f.ReleaseTab),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)
}

func positiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func nonNegativeInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fmt.Errorf("must be zero or more")
	}
	return nil
}

// applyForm copies the form values into cfg. Unparseable numbers keep the
// previous value.
func (m *settingsModel) applyForm() {
	cfg := m.cfg
	cfg.CloseAction = m.f.CloseAction
	cfg.CloseWindowsOnExit = m.f.ExitMode
	cfg.TabPosition = m.f.TabPosition
	cfg.LogLevel = m.f.LogLevel
	cfg.Frame.Title = strings.TrimSpace(m.f.FrameTitle)

	setInt := func(dst *int, s string, floor int) {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= floor {
			*dst = v
		}
	}
	setInt(&cfg.Frame.Width, m.f.FrameWidth, 1)
	setInt(&cfg.Frame.Height, m.f.FrameHeight, 1)
	setInt(&cfg.TileGap, m.f.TileGap, 0)
	setInt(&cfg.CleanupIntervalMs, m.f.CleanupMs, 1)
	setInt(&cfg.ForceKillTimeoutMs, m.f.KillMs, 0)

	cfg.Hotkeys = config.Hotkeys{
		NextTab:      strings.TrimSpace(m.f.NextTab),
		PrevTab:      strings.TrimSpace(m.f.PrevTab),
		CloseTab:     strings.TrimSpace(m.f.CloseTab),
		TileSelected: strings.TrimSpace(m.f.TileSel),
		Untile:       strings.TrimSpace(m.f.Untile),
		ReleaseTab:   strings.TrimSpace(m.f.ReleaseTab),
	}
}

// Init implements tea.Model.
func (m settingsModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model.
func (m settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	switch m.phase {
	case settingsEditing:
		if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
			return m, tea.Quit
		}
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}
		switch m.form.State {
		case huh.StateCompleted:
			m.applyForm()
			m.showPreview()
			return m, nil
		case huh.StateAborted:
			return m, tea.Quit
		}
		return m, cmd

	case settingsPreview:
		if km, ok := msg.(tea.KeyMsg); ok {
			switch km.String() {
			case "esc", "n":
				return m, tea.Quit
			case "enter", "y":
				m.save()
			}
		}

	case settingsResult:
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *settingsModel) showPreview() {
	m.err = m.cfg.Validate()
	m.diff = configDiff(m.original, m.cfg)
	if m.err == nil && len(m.diff) == 0 {
		m.err = fmt.Errorf("no changes to save")
	}
	if m.err != nil {
		m.phase = settingsResult
		return
	}
	m.phase = settingsPreview
}

func (m *settingsModel) save() {
	if m.path == "" {
		m.err = m.cfg.Save()
	} else {
		m.err = m.cfg.SaveTo(m.path)
	}
	m.saved = m.err == nil
	m.phase = settingsResult
}

// View implements tea.Model.
func (m settingsModel) View() string {
	header := titleStyle.Render("wind settings") + dimStyle.Render("  (esc to cancel)")

	var body string
	switch m.phase {
	case settingsEditing:
		body = m.form.View()
	case settingsPreview:
		body = m.viewPreview()
	case settingsResult:
		body = m.viewResult()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body)
}

func (m settingsModel) viewPreview() string {
	added := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removed := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	lines := make([]string, 0, len(m.diff)+3)
	for _, l := range m.diff {
		switch l.kind {
		case diffAdded:
			lines = append(lines, added.Render(l.String()))
		case diffRemoved:
			lines = append(lines, removed.Render(l.String()))
		default:
			lines = append(lines, dimStyle.Render(l.String()))
		}
	}
	if apps := config.SortByTilePosition(m.cfg.StartupApps); len(apps) > 0 {
		names := make([]string, 0, len(apps))
		for _, a := range apps {
			names = append(names, displayOrDefault(a.Name, a.Path))
		}
		lines = append(lines, "", dimStyle.Render("startup apps by tile position: "+strings.Join(names, ", ")))
	}
	lines = append(lines, "", dimStyle.Render("enter/y: save  esc/n: discard"))
	return boxStyle.Width(min(max(m.width-8, 30), 80)).Render(strings.Join(lines, "\n"))
}

func (m settingsModel) viewResult() string {
	var msg string
	if m.err != nil {
		msg = errStyle.Render("Error: " + m.err.Error())
	} else {
		msg = okStyle.Render("Config saved") + "\n" + dimStyle.Render("Restart the daemon to apply the changes")
	}
	content := msg + "\n\n" + dimStyle.Render("press any key to exit")
	return boxStyle.Width(min(max(m.width-8, 30), 60)).Render(content)
}

// RunSettings edits the config at path, or the default location when path
// is empty. It reports whether the file was written.
func RunSettings(path string) (bool, error) {
	if err := requireTerminal(); err != nil {
		return false, err
	}

	var (
		res *config.LoadResult
		err error
	)
	if path == "" {
		res, err = config.LoadWithSources()
	} else {
		res, err = config.LoadFromPath(path)
	}
	if err != nil {
		return false, err
	}

	final, err := tea.NewProgram(newSettingsModel(path, res.Config), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return final.(settingsModel).saved, nil
}
