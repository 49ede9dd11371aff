// Package selection provides the grid selection value type.
//
// A Selection combines an optional current cell selection (a focused cell,
// the rectangle it anchors and any additional rectangles) with whole-column
// and whole-row selections stored as range sets. Selections are immutable:
// every setter returns a new value, so readers never observe a half-updated
// selection.
package selection

import (
	"errors"
	"slices"

	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/rangeset"
)

// ErrCellOutsideRange is returned when a current range does not contain its cell.
var ErrCellOutsideRange = errors.New("selection range does not contain its cell")

// Range is a rectangle of cells: columns [X, X+Width), rows [Y, Y+Height).
type Range struct {
	X, Y          int
	Width, Height int
}

// CellRange returns the 1x1 range covering item.
func CellRange(item core.Item) Range {
	return Range{X: item.Col, Y: item.Row, Width: 1, Height: 1}
}

// RangeBetween returns the smallest range covering both items.
func RangeBetween(a, b core.Item) Range {
	x0, x1 := min(a.Col, b.Col), max(a.Col, b.Col)
	y0, y1 := min(a.Row, b.Row), max(a.Row, b.Row)
	return Range{X: x0, Y: y0, Width: x1 - x0 + 1, Height: y1 - y0 + 1}
}

// Contains returns true if item is inside the range.
func (r Range) Contains(item core.Item) bool {
	return item.Col >= r.X && item.Col < r.X+r.Width &&
		item.Row >= r.Y && item.Row < r.Y+r.Height
}

// IsEmpty returns true if the range covers no cells.
func (r Range) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Current is the active cell selection.
type Current struct {
	Cell       core.Item
	Range      Range
	RangeStack []Range
}

// Contains returns true if item is in the range or any stacked range.
func (c *Current) Contains(item core.Item) bool {
	if c == nil {
		return false
	}
	if c.Range.Contains(item) {
		return true
	}
	for _, r := range c.RangeStack {
		if r.Contains(item) {
			return true
		}
	}
	return false
}

// Selection is the full grid selection.
// The zero value selects nothing.
type Selection struct {
	current *Current
	Columns rangeset.Set
	Rows    rangeset.Set
}

// Empty returns a selection with nothing selected.
func Empty() Selection {
	return Selection{}
}

// Current returns a copy of the current cell selection, or nil.
func (s Selection) Current() *Current {
	if s.current == nil {
		return nil
	}
	c := *s.current
	c.RangeStack = slices.Clone(s.current.RangeStack)
	return &c
}

// WithCell returns a selection whose current cell is item with a 1x1 range.
// Stacked ranges are dropped; row and column selections are kept.
func (s Selection) WithCell(item core.Item) Selection {
	s.current = &Current{Cell: item, Range: CellRange(item)}
	return s
}

// WithRange returns a selection whose current range is r anchored at cell.
func (s Selection) WithRange(cell core.Item, r Range) (Selection, error) {
	if !r.Contains(cell) {
		return s, ErrCellOutsideRange
	}
	var stack []Range
	if s.current != nil {
		stack = s.current.RangeStack
	}
	s.current = &Current{Cell: cell, Range: r, RangeStack: stack}
	return s, nil
}

// PushRange moves the current range onto the stack and starts a new
// range at cell.
func (s Selection) PushRange(cell core.Item) Selection {
	var stack []Range
	if s.current != nil {
		stack = append(slices.Clone(s.current.RangeStack), s.current.Range)
	}
	s.current = &Current{Cell: cell, Range: CellRange(cell), RangeStack: stack}
	return s
}

// ClearCurrent returns the selection without a current cell.
func (s Selection) ClearCurrent() Selection {
	s.current = nil
	return s
}

// WithColumns replaces the column selection.
func (s Selection) WithColumns(cols rangeset.Set) Selection {
	s.Columns = cols
	return s
}

// WithRows replaces the row selection.
func (s Selection) WithRows(rows rangeset.Set) Selection {
	s.Rows = rows
	return s
}

// ToggleRow adds or removes a row from the row selection.
func (s Selection) ToggleRow(row int) Selection {
	if s.Rows.HasIndex(row) {
		s.Rows = s.Rows.RemoveIndex(row)
	} else {
		s.Rows = s.Rows.AddIndex(row)
	}
	return s
}

// ToggleColumn adds or removes a column from the column selection.
func (s Selection) ToggleColumn(col int) Selection {
	if s.Columns.HasIndex(col) {
		s.Columns = s.Columns.RemoveIndex(col)
	} else {
		s.Columns = s.Columns.AddIndex(col)
	}
	return s
}

// IsColumnSelected returns true if the whole column is selected.
func (s Selection) IsColumnSelected(col int) bool {
	return s.Columns.HasIndex(col)
}

// IsRowSelected returns true if the whole row is selected.
func (s Selection) IsRowSelected(row int) bool {
	return s.Rows.HasIndex(row)
}

// InCurrentRange returns true if item is covered by the current range stack.
func (s Selection) InCurrentRange(item core.Item) bool {
	return s.current.Contains(item)
}

// IsSelected returns true if the cell is covered by any part of the selection.
func (s Selection) IsSelected(item core.Item) bool {
	if !item.IsData() {
		return false
	}
	return s.Columns.HasIndex(item.Col) || s.Rows.HasIndex(item.Row) || s.current.Contains(item)
}

// IsFocused returns true if item is the current cell.
func (s Selection) IsFocused(item core.Item) bool {
	return s.current != nil && s.current.Cell == item
}

// IsEmpty returns true if nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.current == nil && s.Columns.IsEmpty() && s.Rows.IsEmpty()
}

// Equals returns true if both selections select the same cells the same way.
func (s Selection) Equals(other Selection) bool {
	if !s.Columns.Equals(other.Columns) || !s.Rows.Equals(other.Rows) {
		return false
	}
	if (s.current == nil) != (other.current == nil) {
		return false
	}
	if s.current == nil {
		return true
	}
	return s.current.Cell == other.current.Cell &&
		s.current.Range == other.current.Range &&
		slices.Equal(s.current.RangeStack, other.current.RangeStack)
}

// IsTinted returns true if item is drawn with the selection tint. A
// focused cell whose selection is only itself shows the focus ring alone.
func (s Selection) IsTinted(item core.Item) bool {
	return s.IsSelected(item) && !s.isSoleFocus(item)
}

func (s Selection) isSoleFocus(item core.Item) bool {
	c := s.current
	if c == nil || c.Cell != item {
		return false
	}
	return c.Range.Width*c.Range.Height <= 1 && len(c.RangeStack) == 0 &&
		!s.Columns.HasIndex(item.Col) && !s.Rows.HasIndex(item.Row)
}

// Changed returns the items in rows firstRow..lastRow of cols whose selected,
// tinted or focused state differs between a and b. cols lists the visible source columns, so
// the work is proportional to the visible cells, not the column span.
func Changed(a, b Selection, cols []int, firstRow, lastRow int) []core.Item {
	if a.Equals(b) {
		return nil
	}
	var out []core.Item
	for _, col := range cols {
		for row := firstRow; row <= lastRow; row++ {
			item := core.Item{Col: col, Row: row}
			if a.IsSelected(item) != b.IsSelected(item) || a.IsTinted(item) != b.IsTinted(item) ||
				a.IsFocused(item) != b.IsFocused(item) {
				out = append(out, item)
			}
		}
	}
	return out
}
