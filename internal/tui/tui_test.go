package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/ipc"
)

func TestConfigDiff(t *testing.T) {
	original := config.DefaultConfig()
	if d := configDiff(original, cloneConfig(original)); d != nil {
		t.Fatalf("expected no diff for identical configs, got %v", d)
	}

	changed := cloneConfig(original)
	changed.TileGap = 12
	d := configDiff(original, changed)
	var removed, added []string
	for _, l := range d {
		switch l.kind {
		case diffRemoved:
			removed = append(removed, l.text)
		case diffAdded:
			added = append(added, l.text)
		}
	}
	if len(removed) != 1 || removed[0] != "tile_gap: 4" {
		t.Fatalf("removed = %v", removed)
	}
	if len(added) != 1 || added[0] != "tile_gap: 12" {
		t.Fatalf("added = %v", added)
	}
	if len(d) > 5 {
		t.Fatalf("expected only nearby context, got %d lines", len(d))
	}
}

func TestLCSDiffMarksGaps(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f", "g"}
	b := []string{"a", "B", "c", "d", "e", "f", "G"}
	got := withContext(lcsDiff(a, b), 1)
	var rendered []string
	for _, l := range got {
		rendered = append(rendered, l.String())
	}
	want := []string{"  a", "- b", "+ B", "  c", "  ...", "  f", "- g", "+ G"}
	if strings.Join(rendered, "|") != strings.Join(want, "|") {
		t.Fatalf("diff = %q, want %q", rendered, want)
	}
}

type fakePickerClient struct {
	windows []ipc.WindowInfo
	listErr error
	added   []uint64
}

func (f *fakePickerClient) ListWindows() ([]ipc.WindowInfo, error) {
	return f.windows, f.listErr
}

func (f *fakePickerClient) AddWindow(handle uint64, activate bool) (*ipc.TabInfo, error) {
	f.added = append(f.added, handle)
	return &ipc.TabInfo{ID: "tab-1", Handle: handle, Active: activate}, nil
}

func step(t *testing.T, m tea.Model, msg tea.Msg) (tea.Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(msg)
	if cmd == nil {
		return next, nil
	}
	return next, cmd()
}

func TestPickerEmbedsSelection(t *testing.T) {
	client := &fakePickerClient{windows: []ipc.WindowInfo{
		{Handle: 0x10, Title: "notes.txt", ProcessName: "notepad.exe"},
		{Handle: 0x20, Title: "Inbox", ProcessName: "mail"},
	}}
	var m tea.Model = newPickerModel(client)
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	msg := m.Init()()
	m, _ = step(t, m, msg)
	if got := len(m.(pickerModel).list.Items()); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, msg = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.(pickerModel).busy {
		t.Fatalf("expected picker to be busy while embedding")
	}
	embedded, ok := msg.(embeddedMsg)
	if !ok {
		t.Fatalf("expected embeddedMsg, got %T", msg)
	}
	m, _ = m.Update(embedded)

	pm := m.(pickerModel)
	if len(client.added) != 1 || client.added[0] != 0x20 {
		t.Fatalf("embedded %v, want [0x20]", client.added)
	}
	if pm.result == nil || !pm.result.Active || pm.err != nil {
		t.Fatalf("unexpected result %+v, err %v", pm.result, pm.err)
	}
}

func TestPickerReportsListError(t *testing.T) {
	boom := errors.New("daemon is not running")
	var m tea.Model = newPickerModel(&fakePickerClient{listErr: boom})
	m, _ = m.Update(m.Init()())
	if !errors.Is(m.(pickerModel).err, boom) {
		t.Fatalf("expected list error, got %v", m.(pickerModel).err)
	}
}

func TestSettingsApplyAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := newSettingsModel(path, config.DefaultConfig())

	m.f.CloseAction = "release_embed"
	m.f.TabPosition = "left"
	m.f.TileGap = "9"
	m.f.FrameWidth = "nope"
	m.f.Untile = "  "
	m.applyForm()

	if m.cfg.CloseAction != "release_embed" || m.cfg.TabPosition != "left" || m.cfg.TileGap != 9 {
		t.Fatalf("form not applied: %+v", m.cfg)
	}
	if m.cfg.Frame.Width != 1280 {
		t.Fatalf("invalid width overwrote the config: %d", m.cfg.Frame.Width)
	}
	if m.cfg.Hotkeys.Untile != "" {
		t.Fatalf("blank hotkey not cleared: %q", m.cfg.Hotkeys.Untile)
	}

	m.showPreview()
	if m.phase != settingsPreview || len(m.diff) == 0 {
		t.Fatalf("expected preview with a diff, phase %v err %v", m.phase, m.err)
	}
	m.save()
	if !m.saved || m.err != nil {
		t.Fatalf("save failed: %v", m.err)
	}

	res, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.TileGap != 9 || res.Config.TabPosition != "left" {
		t.Fatalf("unexpected saved config %+v", res.Config)
	}
}

func TestSettingsPreviewRejects(t *testing.T) {
	m := newSettingsModel(filepath.Join(t.TempDir(), "config.yaml"), nil)
	m.applyForm()
	m.showPreview()
	if m.phase != settingsResult || m.err == nil || !strings.Contains(m.err.Error(), "no changes") {
		t.Fatalf("expected no-changes result, phase %v err %v", m.phase, m.err)
	}

	m = newSettingsModel(filepath.Join(t.TempDir(), "config.yaml"), nil)
	m.f.CleanupMs = "5"
	m.applyForm()
	m.showPreview()
	if m.phase != settingsResult || m.err == nil {
		t.Fatalf("expected validation error, phase %v err %v", m.phase, m.err)
	}
}
