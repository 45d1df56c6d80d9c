package tabs

import "github.com/1broseidon/wind/internal/tiling"

// TileLayout is a set of at least two tabs shown side by side.
type TileLayout struct {
	Tabs []*Tab
	Grid tiling.Grid
}

func newTileLayout(tabs []*Tab) *TileLayout {
	l := &TileLayout{Tabs: append([]*Tab(nil), tabs...)}
	for _, t := range l.Tabs {
		t.Tiled = true
	}
	l.Grid = tiling.Plan(len(l.Tabs))
	return l
}

// Deactivate clears the tile flag on every member.
func (l *TileLayout) Deactivate() {
	for _, t := range l.Tabs {
		t.Tiled = false
	}
}

// Contains reports whether tab is a member.
func (l *TileLayout) Contains(tab *Tab) bool {
	for _, t := range l.Tabs {
		if t == tab {
			return true
		}
	}
	return false
}

// remove drops tab, recomputes the grid and reports whether enough members
// remain to keep tiling.
func (l *TileLayout) remove(tab *Tab) bool {
	for i, t := range l.Tabs {
		if t == tab {
			l.Tabs = append(l.Tabs[:i], l.Tabs[i+1:]...)
			tab.Tiled = false
			break
		}
	}
	l.Grid = tiling.Plan(len(l.Tabs))
	return len(l.Tabs) >= 2
}
