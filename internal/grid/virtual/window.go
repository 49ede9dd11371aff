// Package virtual computes the visible cell window for a scroll position,
// caches the cells in and around it, and predicts where scrolling is headed
// so that window can be warmed before it is needed.
package virtual

import (
	"fmt"

	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/geometry"
)

// Viewport describes the scrollable body area.
type Viewport struct {
	ScrollX, ScrollY float64
	Width, Height    float64 // body area, excluding the header and frozen rows
	OverscanX        int     // extra columns on each side
	OverscanY        int     // extra rows on each side
	FrozenRows       int     // trailing rows drawn separately, excluded from the window
}

// Window is an inclusive range of visible rows plus the mapped columns.
// An empty window has LastRow < FirstRow.
type Window struct {
	FirstCol, LastCol int
	FirstRow, LastRow int
	Columns           []geometry.MappedColumn

	cols map[int]struct{}
}

// EmptyWindow returns a window containing nothing.
func EmptyWindow() Window {
	return Window{FirstCol: 0, LastCol: -1, FirstRow: 0, LastRow: -1}
}

// IsEmpty reports whether the window contains no cells.
func (w Window) IsEmpty() bool {
	return w.LastRow < w.FirstRow || len(w.Columns) == 0
}

// Rows returns the number of rows in the window.
func (w Window) Rows() int {
	if w.LastRow < w.FirstRow {
		return 0
	}
	return w.LastRow - w.FirstRow + 1
}

// Cells returns the number of cells in the window.
func (w Window) Cells() int {
	return w.Rows() * len(w.Columns)
}

// ContainsRow reports whether row is in the window.
func (w Window) ContainsRow(row int) bool {
	return row >= w.FirstRow && row <= w.LastRow
}

// ContainsCol reports whether a source column index is mapped.
func (w Window) ContainsCol(col int) bool {
	if w.cols != nil {
		_, ok := w.cols[col]
		return ok
	}
	for _, m := range w.Columns {
		if m.SourceIndex == col {
			return true
		}
	}
	return false
}

// Contains reports whether item is in the window.
func (w Window) Contains(item core.Item) bool {
	return w.ContainsRow(item.Row) && w.ContainsCol(item.Col)
}

// Items returns every cell in the window in draw order: columns as mapped,
// rows ascending within each column.
func (w Window) Items() []core.Item {
	out := make([]core.Item, 0, w.Cells())
	for _, m := range w.Columns {
		for r := w.FirstRow; r <= w.LastRow; r++ {
			out = append(out, core.NewItem(m.SourceIndex, r))
		}
	}
	return out
}

// Equal reports whether two windows cover the same cells.
func (w Window) Equal(o Window) bool {
	if w.FirstRow != o.FirstRow || w.LastRow != o.LastRow || len(w.Columns) != len(o.Columns) {
		return false
	}
	for i := range w.Columns {
		if w.Columns[i].SourceIndex != o.Columns[i].SourceIndex {
			return false
		}
	}
	return true
}

func (w Window) String() string {
	if w.IsEmpty() {
		return "window(empty)"
	}
	return fmt.Sprintf("window(cols %d..%d, rows %d..%d)", w.FirstCol, w.LastCol, w.FirstRow, w.LastRow)
}

// ComputeWindow returns the minimal window covering the viewport plus
// overscan. Zero-sized viewports and empty grids produce an empty window.
func ComputeWindow(cols *geometry.ColumnLayout, rows *geometry.RowLayout, vp Viewport) Window {
	if cols == nil || rows == nil || vp.Width <= 0 || vp.Height <= 0 {
		return EmptyWindow()
	}
	body := rows.RowCount() - min(max(vp.FrozenRows, 0), rows.RowCount())
	if body <= 0 || cols.Len() == 0 {
		return EmptyWindow()
	}

	first, ok := rows.RowAt(max(vp.ScrollY, 0))
	if !ok || first >= body {
		return EmptyWindow()
	}
	bottom := max(vp.ScrollY, 0) + vp.Height
	last, ok := rows.RowAt(bottom)
	if !ok || last >= body {
		last = body - 1
	} else if rows.Offset(last) >= bottom && last > first {
		last--
	}

	first = max(first-max(vp.OverscanY, 0), 0)
	last = min(last+max(vp.OverscanY, 0), body-1)

	mapped := cols.Map(vp.Width, vp.ScrollX, vp.OverscanX)
	if len(mapped) == 0 {
		return EmptyWindow()
	}

	w := Window{
		FirstRow: first,
		LastRow:  last,
		FirstCol: mapped[0].SourceIndex,
		LastCol:  mapped[0].SourceIndex,
		Columns:  mapped,
		cols:     make(map[int]struct{}, len(mapped)),
	}
	for _, m := range mapped {
		w.FirstCol = min(w.FirstCol, m.SourceIndex)
		w.LastCol = max(w.LastCol, m.SourceIndex)
		w.cols[m.SourceIndex] = struct{}{}
	}
	return w
}
