// Package geometry maps logical columns and rows to surface coordinates.
//
// Column positions are prefix sums over the (group-collapsed) column order
// and are recomputed only when the column definitions change; each frame
// then costs a binary search plus the number of visible columns. Row
// positions use a fixed closed form or, for per-row heights, a prefix-sum
// checkpoint cache keyed by row index.
package geometry

import (
	"sort"

	"github.com/dshills/gridstorm/internal/grid/cell"
)

// Column defines one logical column.
type Column struct {
	ID    string    `yaml:"id"`
	Title string    `yaml:"title"`
	Width float64   `yaml:"width"`
	Group string    `yaml:"group,omitempty"`
	Kind  cell.Kind `yaml:"kind,omitempty"`
	Icon  string    `yaml:"icon,omitempty"`
}

// MappedColumn is a column resolved to its on-surface position for one frame.
type MappedColumn struct {
	Column
	SourceIndex int
	X           float64
	Width       float64
	Sticky      bool
}

// Right returns the exclusive right edge.
func (m MappedColumn) Right() float64 {
	return m.X + m.Width
}

// ColumnLayout caches column offsets for a fixed column set.
type ColumnLayout struct {
	cols    []Column
	order   []int     // source indices that survive group collapsing
	pos     []int     // pos[source] is the index into order, or -1 when collapsed
	offsets []float64 // offsets[i] is the left edge of order[i]; len(order)+1
	sticky  int       // number of leading entries of order that are sticky
}

// NewColumnLayout builds a layout. The first freeze source columns are
// sticky. Every column of a collapsed group except its first is dropped.
func NewColumnLayout(cols []Column, freeze int, collapsed map[string]bool) *ColumnLayout {
	l := &ColumnLayout{cols: cols, pos: make([]int, len(cols))}

	seenGroup := make(map[string]bool)
	for i, c := range cols {
		if c.Group != "" && collapsed[c.Group] {
			if seenGroup[c.Group] && i >= freeze {
				l.pos[i] = -1
				continue
			}
			seenGroup[c.Group] = true
		}
		l.pos[i] = len(l.order)
		l.order = append(l.order, i)
		if i < freeze {
			l.sticky++
		}
	}

	l.offsets = make([]float64, len(l.order)+1)
	for i, src := range l.order {
		l.offsets[i+1] = l.offsets[i] + max(cols[src].Width, 0)
	}
	return l
}

// Len returns the number of mapped (non-collapsed) columns.
func (l *ColumnLayout) Len() int {
	return len(l.order)
}

// Columns returns the column definitions.
func (l *ColumnLayout) Columns() []Column {
	return l.cols
}

// TotalWidth returns the width of all mapped columns.
func (l *ColumnLayout) TotalWidth() float64 {
	return l.offsets[len(l.offsets)-1]
}

// StickyWidth returns the width of the sticky block.
func (l *ColumnLayout) StickyWidth() float64 {
	return l.offsets[l.sticky]
}

// StickyCount returns the number of sticky columns.
func (l *ColumnLayout) StickyCount() int {
	return l.sticky
}

// Extent returns the unscrolled left edge and width of a source column and
// whether it is sticky. ok is false for unknown or collapsed columns.
func (l *ColumnLayout) Extent(source int) (x, width float64, sticky, ok bool) {
	if source < 0 || source >= len(l.pos) || l.pos[source] < 0 {
		return 0, 0, false, false
	}
	p := l.pos[source]
	return l.offsets[p], l.offsets[p+1] - l.offsets[p], p < l.sticky, true
}

// MaxScrollX returns the largest useful horizontal scroll offset.
func (l *ColumnLayout) MaxScrollX(viewportWidth float64) float64 {
	return max(l.TotalWidth()-viewportWidth, 0)
}

func (l *ColumnLayout) mapped(pos int, scrollX float64) MappedColumn {
	src := l.order[pos]
	m := MappedColumn{
		Column:      l.cols[src],
		SourceIndex: src,
		X:           l.offsets[pos],
		Width:       l.offsets[pos+1] - l.offsets[pos],
		Sticky:      pos < l.sticky,
	}
	if !m.Sticky {
		m.X -= scrollX
	}
	return m
}

// Map returns the columns visible for the given viewport, sticky columns
// first. overscan extra scrolling columns are added on each side.
func (l *ColumnLayout) Map(viewportWidth, scrollX float64, overscan int) []MappedColumn {
	if viewportWidth <= 0 || len(l.order) == 0 {
		return nil
	}

	out := make([]MappedColumn, 0, l.sticky+16)
	for pos := 0; pos < l.sticky; pos++ {
		m := l.mapped(pos, scrollX)
		if m.X >= viewportWidth {
			break
		}
		out = append(out, m)
	}

	stickyEdge := l.StickyWidth()
	n := len(l.order)
	// First scrolling column whose right edge is past the sticky block.
	first := l.sticky + sort.Search(n-l.sticky, func(i int) bool {
		return l.offsets[l.sticky+i+1]-scrollX > stickyEdge
	})
	if first >= n {
		return out
	}
	last := first
	for last+1 < n && l.offsets[last+1]-scrollX < viewportWidth {
		last++
	}
	if l.offsets[first]-scrollX >= viewportWidth {
		return out
	}

	first = max(first-max(overscan, 0), l.sticky)
	last = min(last+max(overscan, 0), n-1)
	for pos := first; pos <= last; pos++ {
		out = append(out, l.mapped(pos, scrollX))
	}
	return out
}

// MapColumns is a one-shot NewColumnLayout(...).Map(..., 0).
func MapColumns(cols []Column, freeze int, viewportWidth, scrollX float64, collapsed map[string]bool) []MappedColumn {
	return NewColumnLayout(cols, freeze, collapsed).Map(viewportWidth, scrollX, 0)
}

// Find returns the mapped column for a source index.
func Find(mapped []MappedColumn, source int) (MappedColumn, bool) {
	for _, m := range mapped {
		if m.SourceIndex == source {
			return m, true
		}
	}
	return MappedColumn{}, false
}

// ColumnAt hit-tests x against mapped columns. Sticky columns win over
// scrolling columns underneath them.
func ColumnAt(mapped []MappedColumn, x float64) (MappedColumn, bool) {
	stickyEnd := 0
	for i, m := range mapped {
		if !m.Sticky {
			break
		}
		stickyEnd = i + 1
		if x >= m.X && x < m.Right() {
			return m, true
		}
	}
	rest := mapped[stickyEnd:]
	i := sort.Search(len(rest), func(i int) bool {
		return rest[i].Right() > x
	})
	if i < len(rest) && rest[i].X <= x {
		return rest[i], true
	}
	return MappedColumn{}, false
}
