package tiling

import (
	"math"

	"github.com/1broseidon/wind/internal/platform"
)

// Cell places one tile in the grid.
type Cell struct {
	Row     int
	Col     int
	RowSpan int
	ColSpan int
}

// Grid is a tile arrangement. Cells are in tile order.
type Grid struct {
	Columns int
	Rows    int
	Cells   []Cell
}

// CalculateGrid determines the optimal grid dimensions for the given number of windows
func CalculateGrid(numWindows int) (rows, cols int) {
	if numWindows <= 0 {
		return 0, 0
	}

	// Calculate columns first (ceiling of square root)
	cols = int(math.Ceil(math.Sqrt(float64(numWindows))))

	// Calculate rows needed
	rows = int(math.Ceil(float64(numWindows) / float64(cols)))

	return rows, cols
}

// Plan maps a tile count to a grid. Small counts use fixed arrangements; from
// five tiles on the grid is square-ish, filled row-major, and the last cell
// stretches over any empty columns of the final row. The result is a pure
// function of count so rebuilt layouts never move.
func Plan(count int) Grid {
	switch {
	case count <= 0:
		return Grid{}
	case count == 1:
		return Grid{Columns: 1, Rows: 1, Cells: []Cell{{0, 0, 1, 1}}}
	case count == 2:
		return Grid{Columns: 2, Rows: 1, Cells: []Cell{
			{0, 0, 1, 1},
			{0, 1, 1, 1},
		}}
	case count == 3:
		return Grid{Columns: 2, Rows: 2, Cells: []Cell{
			{0, 0, 2, 1},
			{0, 1, 1, 1},
			{1, 1, 1, 1},
		}}
	case count == 4:
		return Grid{Columns: 2, Rows: 2, Cells: []Cell{
			{0, 0, 1, 1},
			{0, 1, 1, 1},
			{1, 0, 1, 1},
			{1, 1, 1, 1},
		}}
	}

	rows, cols := CalculateGrid(count)
	cells := make([]Cell, count)
	for i := range cells {
		cells[i] = Cell{Row: i / cols, Col: i % cols, RowSpan: 1, ColSpan: 1}
	}
	if rem := count % cols; rem != 0 {
		cells[count-1].ColSpan = 1 + (cols - rem)
	}
	return Grid{Columns: cols, Rows: rows, Cells: cells}
}

// CellBounds computes the pixel rectangle of every cell inside area, with gap
// pixels between neighbouring cells. Rectangles never have a negative size.
func CellBounds(g Grid, area platform.Rect, gap int) []platform.Rect {
	if g.Columns == 0 || g.Rows == 0 {
		return nil
	}
	if gap < 0 {
		gap = 0
	}

	totalHorizontalGaps := (g.Columns - 1) * gap
	totalVerticalGaps := (g.Rows - 1) * gap
	cellWidth := max((area.Width-totalHorizontalGaps)/g.Columns, 0)
	cellHeight := max((area.Height-totalVerticalGaps)/g.Rows, 0)

	bounds := make([]platform.Rect, len(g.Cells))
	for i, c := range g.Cells {
		r := platform.Rect{
			X:      area.X + c.Col*(cellWidth+gap),
			Y:      area.Y + c.Row*(cellHeight+gap),
			Width:  c.ColSpan*cellWidth + (c.ColSpan-1)*gap,
			Height: c.RowSpan*cellHeight + (c.RowSpan-1)*gap,
		}
		// Cells touching the far edge absorb the rounding remainder.
		if c.Col+c.ColSpan == g.Columns {
			r.Width = area.X + area.Width - r.X
		}
		if c.Row+c.RowSpan == g.Rows {
			r.Height = area.Y + area.Height - r.Y
		}
		r.Width = max(r.Width, 0)
		r.Height = max(r.Height, 0)
		bounds[i] = r
	}
	return bounds
}
