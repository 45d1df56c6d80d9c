// Package session persists the set of hosted windows so it can be re-adopted
// after a restart.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1broseidon/wind/internal/platform"
	"github.com/1broseidon/wind/internal/tabs"
)

const fileName = "session.json"

// Session is the on-disk snapshot.
type Session struct {
	SavedAt     time.Time  `json:"saved_at"`
	ActiveTabID string     `json:"active_tab_id,omitempty"`
	Tabs        []SavedTab `json:"tabs"`
}

// SavedTab identifies a hosted window well enough to find it again.
type SavedTab struct {
	ID          string `json:"id"`
	ProcessName string `json:"process_name"`
	WindowTitle string `json:"window_title"`
	ProcessID   uint32 `json:"process_id"`
}

// Path returns the session file inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// FromTabs snapshots the window tabs. Content and web tabs are skipped.
func FromTabs(all []*tabs.Tab, active *tabs.Tab, now time.Time) *Session {
	s := &Session{SavedAt: now.UTC(), Tabs: make([]SavedTab, 0, len(all))}
	for _, t := range all {
		if t.Kind != tabs.KindWindow {
			continue
		}
		title := t.Window.Title
		if title == "" {
			title = t.Title
		}
		s.Tabs = append(s.Tabs, SavedTab{
			ID:          t.ID.String(),
			ProcessName: t.Window.ProcessName,
			WindowTitle: title,
			ProcessID:   t.Window.PID,
		})
		if t == active {
			s.ActiveTabID = t.ID.String()
		}
	}
	return s
}

// Write stores s at path, creating the directory if needed.
func Write(path string, s *Session) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Read loads the session at path. A missing file returns (nil, nil).
func Read(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &s, nil
}

// Delete removes the session file. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Match pairs a saved tab with the window chosen to restore it.
type Match struct {
	Saved  SavedTab
	Window platform.WindowInfo
}

// MatchWindows picks a window for each saved tab, in order. A window is
// used at most once. For each tab the first candidate wins under, in turn:
// same pid and title, same process name with a title containing the saved
// one, and same process name. Comparisons ignore case.
func MatchWindows(saved []SavedTab, candidates []platform.WindowInfo) []Match {
	used := make([]bool, len(candidates))
	var out []Match

	for _, st := range saved {
		rules := []func(platform.WindowInfo) bool{
			func(w platform.WindowInfo) bool {
				return st.ProcessID != 0 && w.PID == st.ProcessID && strings.EqualFold(w.Title, st.WindowTitle)
			},
			func(w platform.WindowInfo) bool {
				return strings.EqualFold(w.ProcessName, st.ProcessName) &&
					strings.Contains(strings.ToLower(w.Title), strings.ToLower(st.WindowTitle))
			},
			func(w platform.WindowInfo) bool {
				return strings.EqualFold(w.ProcessName, st.ProcessName)
			},
		}
		if idx := firstMatch(candidates, used, rules); idx >= 0 {
			used[idx] = true
			out = append(out, Match{Saved: st, Window: candidates[idx]})
		}
	}
	return out
}

func firstMatch(candidates []platform.WindowInfo, used []bool, rules []func(platform.WindowInfo) bool) int {
	for _, rule := range rules {
		for i, w := range candidates {
			if !used[i] && rule(w) {
				return i
			}
		}
	}
	return -1
}
