package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/wind/internal/ipc"
)

// PickerClient is the part of the IPC client the picker needs.
type PickerClient interface {
	ListWindows() ([]ipc.WindowInfo, error)
	AddWindow(handle uint64, activate bool) (*ipc.TabInfo, error)
}

// windowItem implements list.Item for a candidate window.
type windowItem struct {
	info ipc.WindowInfo
}

func (i windowItem) Title() string {
	return i.info.Title
}

func (i windowItem) Description() string {
	return fmt.Sprintf("%s  pid %d  %s  0x%x", displayOrDefault(i.info.ProcessName, "?"), i.info.PID, i.info.ClassName, i.info.Handle)
}

func (i windowItem) FilterValue() string {
	return i.info.ProcessName + " " + i.info.Title
}

type windowsMsg struct {
	windows []ipc.WindowInfo
	err     error
}

type embeddedMsg struct {
	tab *ipc.TabInfo
	err error
}

// pickerModel lists embeddable windows and embeds the chosen one.
type pickerModel struct {
	client PickerClient
	list   list.Model

	loading bool
	busy    bool
	result  *ipc.TabInfo
	err     error

	width  int
	height int
}

func newPickerModel(client PickerClient) pickerModel {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Embed a window"
	l.SetShowStatusBar(true)
	l.SetShowHelp(true)
	l.DisableQuitKeybindings()

	return pickerModel{client: client, list: l, loading: true}
}

func (m pickerModel) fetchWindows() tea.Msg {
	windows, err := m.client.ListWindows()
	return windowsMsg{windows: windows, err: err}
}

func (m pickerModel) embed(handle uint64) tea.Cmd {
	return func() tea.Msg {
		tab, err := m.client.AddWindow(handle, true)
		return embeddedMsg{tab: tab, err: err}
	}
}

// Init implements tea.Model.
func (m pickerModel) Init() tea.Cmd {
	return m.fetchWindows
}

// Update implements tea.Model.
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-2, 1))
		return m, nil

	case windowsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, 0, len(msg.windows))
		for _, w := range msg.windows {
			items = append(items, windowItem{info: w})
		}
		return m, m.list.SetItems(items)

	case embeddedMsg:
		m.busy = false
		m.result = msg.tab
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy || m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "esc":
			if m.list.FilterState() == list.FilterApplied {
				break
			}
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(windowItem)
			if !ok {
				return m, nil
			}
			m.busy = true
			return m, m.embed(item.info.Handle)
		case "r":
			m.loading = true
			return m, m.fetchWindows
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m pickerModel) View() string {
	if m.loading {
		return dimStyle.Render("Loading windows...")
	}
	footer := dimStyle.Render("enter: embed  r: refresh  /: filter  q: quit")
	if m.busy {
		footer = dimStyle.Render("Embedding...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), footer)
}

// RunPicker shows the window picker and embeds the chosen window. It returns
// nil, nil when the user quits without choosing.
func RunPicker(client PickerClient) (*ipc.TabInfo, error) {
	if err := requireTerminal(); err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(newPickerModel(client), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	m := final.(pickerModel)
	return m.result, m.err
}

func displayOrDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
