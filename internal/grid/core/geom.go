package core

import "fmt"

// Header and group header sentinels for Item.Row and Item.Col.
const (
	HeaderIndex      = -1
	GroupHeaderIndex = -2
)

// Item addresses one cell by (column, row).
// Negative values are sentinels (see HeaderIndex), not data indices.
type Item struct {
	Col int
	Row int
}

// NewItem creates an item.
func NewItem(col, row int) Item {
	return Item{Col: col, Row: row}
}

// IsHeader returns true for the column header row.
func (i Item) IsHeader() bool {
	return i.Row == HeaderIndex
}

// IsGroupHeader returns true for the group header row.
func (i Item) IsGroupHeader() bool {
	return i.Row == GroupHeaderIndex
}

// IsData returns true when both indices address data.
func (i Item) IsData() bool {
	return i.Col >= 0 && i.Row >= 0
}

// Before orders items by column, then row.
func (i Item) Before(other Item) bool {
	if i.Col != other.Col {
		return i.Col < other.Col
	}
	return i.Row < other.Row
}

func (i Item) String() string {
	return fmt.Sprintf("(%d,%d)", i.Col, i.Row)
}

// Rect is a rectangle in surface pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// NewRect creates a rectangle.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Right returns the exclusive right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// IsEmpty returns true if the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains returns true if the point lies within the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ContainsRect returns true if other lies entirely within r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

// Intersects returns true if two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && r.Right() > other.X &&
		r.Y < other.Bottom() && r.Bottom() > other.Y
}

// Intersection returns the overlapping region of two rectangles.
func (r Rect) Intersection(other Rect) Rect {
	if !r.Intersects(other) {
		return Rect{}
	}
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  min(r.Right(), other.Right()) - x,
		Height: min(r.Bottom(), other.Bottom()) - y,
	}
}

// Union returns the smallest rectangle containing both rectangles.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  max(r.Right(), other.Right()) - x,
		Height: max(r.Bottom(), other.Bottom()) - y,
	}
}

// Inset returns a rectangle shrunk by dx on the left and right and dy
// on the top and bottom.
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// Translate returns the rectangle moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rect) String() string {
	return fmt.Sprintf("[%g,%g %gx%g]", r.X, r.Y, r.Width, r.Height)
}
