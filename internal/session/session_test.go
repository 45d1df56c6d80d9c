package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/tabs"
	"github.com/google/uuid"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := Path(filepath.Join(t.TempDir(), "nested"))
	in := &Session{
		SavedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ActiveTabID: "b",
		Tabs: []SavedTab{
			{ID: "a", ProcessName: "notepad.exe", WindowTitle: "a.txt", ProcessID: 10},
			{ID: "b", ProcessName: "code.exe", WindowTitle: "main.go", ProcessID: 11},
		},
	}
	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !out.SavedAt.Equal(in.SavedAt) || out.ActiveTabID != "b" || len(out.Tabs) != 2 || out.Tabs[1] != in.Tabs[1] {
		t.Fatalf("unexpected session %+v", out)
	}
}

func TestReadMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := Read(Path(dir))
	if err != nil || s != nil {
		t.Fatalf("expected nil session for missing file, got %+v, %v", s, err)
	}

	if err := os.WriteFile(Path(dir), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(Path(dir)); err == nil {
		t.Fatalf("expected parse error")
	}

	if err := Delete(Path(dir)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := Delete(Path(dir)); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestFromTabsSkipsNonWindowTabs(t *testing.T) {
	win := &tabs.Tab{
		ID:    uuid.New(),
		Kind:  tabs.KindWindow,
		Title: "fallback",
		Window: platform.WindowInfo{
			Handle:      0x10,
			ProcessName: "notepad.exe",
			PID:         10,
		},
	}
	content := &tabs.Tab{ID: uuid.New(), Kind: tabs.KindContent, Title: "settings"}

	s := FromTabs([]*tabs.Tab{content, win}, win, time.Unix(100, 0))
	if len(s.Tabs) != 1 {
		t.Fatalf("expected one saved tab, got %d", len(s.Tabs))
	}
	got := s.Tabs[0]
	if got.WindowTitle != "fallback" || got.ProcessID != 10 || got.ID != win.ID.String() {
		t.Fatalf("unexpected saved tab %+v", got)
	}
	if s.ActiveTabID != win.ID.String() {
		t.Fatalf("expected active id %s, got %s", win.ID, s.ActiveTabID)
	}
}

func TestMatchWindowsPrecedence(t *testing.T) {
	candidates := []platform.WindowInfo{
		{Handle: 1, ProcessName: "notepad.exe", Title: "other.txt - Notepad", PID: 20},
		{Handle: 2, ProcessName: "Notepad.exe", Title: "A.TXT - Notepad", PID: 21},
		{Handle: 3, ProcessName: "notepad.exe", Title: "a.txt - notepad", PID: 10},
		{Handle: 4, ProcessName: "code.exe", Title: "wind", PID: 30},
	}

	tests := []struct {
		name  string
		saved []SavedTab
		want  []platform.Handle
	}{
		{
			name:  "pid and title",
			saved: []SavedTab{{ProcessName: "notepad.exe", WindowTitle: "A.txt - Notepad", ProcessID: 10}},
			want:  []platform.Handle{3},
		},
		{
			name:  "name and title contains",
			saved: []SavedTab{{ProcessName: "notepad.exe", WindowTitle: "a.txt", ProcessID: 99}},
			want:  []platform.Handle{2},
		},
		{
			name:  "name only",
			saved: []SavedTab{{ProcessName: "code.exe", WindowTitle: "gone", ProcessID: 99}},
			want:  []platform.Handle{4},
		},
		{
			name: "each window used once",
			saved: []SavedTab{
				{ProcessName: "code.exe", WindowTitle: "x"},
				{ProcessName: "code.exe", WindowTitle: "y"},
				{ProcessName: "notepad.exe", WindowTitle: "zzz"},
				{ProcessName: "notepad.exe", WindowTitle: "zzz"},
			},
			want: []platform.Handle{4, 1, 2},
		},
		{
			name:  "no match",
			saved: []SavedTab{{ProcessName: "paint.exe", WindowTitle: "x"}},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchWindows(tt.saved, candidates)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d matches, got %+v", len(tt.want), got)
			}
			for i, h := range tt.want {
				if got[i].Window.Handle != h {
					t.Errorf("match %d: expected handle %v, got %v", i, h, got[i].Window.Handle)
				}
			}
		})
	}
}
