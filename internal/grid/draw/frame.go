// Package draw implements the damage-tracked draw loop.
//
// A frame paints, in order: the header band, the sticky columns of the
// scrolling body, the scrolling columns, the span overlays, and finally the
// frozen trailing rows. Every cell goes through the same fixed sequence (see
// drawCell). When the frame carries a damage set only the listed cells are
// visited; everything else is assumed correct on the retained surface.
package draw

import (
	"time"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/damage"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/selection"
	"github.com/dshills/gridstorm/internal/grid/surface"
	"github.com/dshills/gridstorm/internal/grid/virtual"
)

// Hover is the cell under the pointer.
type Hover struct {
	Item core.Item
	X, Y float64 // surface coordinates of the pointer
}

// Frame is the input to one draw pass.
type Frame struct {
	Surface surface.Surface
	Theme   core.Theme

	Window  virtual.Window // visible body window, columns included
	Rows    *geometry.RowLayout
	Header  geometry.Header
	ScrollY float64
	Frozen  geometry.FrozenRows

	// Damage lists the cells to repaint. Nil repaints everything.
	Damage damage.Set

	Selection selection.Selection
	Hover     *Hover
	HasFocus  bool

	RowTheme        func(row int) *core.Theme
	DisabledRow     func(row int) bool
	CleanRegions    []core.Rect
	VerticalBorders bool

	// DrawOverride runs before kind dispatch. Returning true means the
	// hook painted the content itself.
	DrawOverride func(args *cellrender.DrawArgs) bool

	Content        func(item core.Item) cell.Content
	Registry       *cellrender.Registry
	Store          cellrender.StateStore
	AnimationFrame func(item core.Item)
	Now            time.Time
}

// Stats describes what a frame painted.
type Stats struct {
	Cells       int // cells taken through the per-cell sequence
	Headers     int
	Spans       int
	Panics      int
	Unsupported int
	Prepares    int
	SkippedBg   int // background fills skipped over clean regions
	Duration    time.Duration
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Cells += o.Cells
	s.Headers += o.Headers
	s.Spans += o.Spans
	s.Panics += o.Panics
	s.Unsupported += o.Unsupported
	s.Prepares += o.Prepares
	s.SkippedBg += o.SkippedBg
	s.Duration += o.Duration
}

func (f *Frame) bodyTop() float64 {
	return f.Header.Total()
}

// bodyBottom is the top of the frozen rows, or the surface bottom.
func (f *Frame) bodyBottom() float64 {
	if f.Frozen.Count > 0 {
		return f.Frozen.Y
	}
	_, h := f.Surface.Size()
	return h
}

func (f *Frame) stickyEdge() float64 {
	edge := 0.0
	for _, m := range f.Window.Columns {
		if m.Sticky {
			edge = max(edge, m.Right())
		}
	}
	return edge
}

func (f *Frame) isClean(r core.Rect) bool {
	for _, c := range f.CleanRegions {
		if c.ContainsRect(r) {
			return true
		}
	}
	return false
}

func (f *Frame) content(item core.Item) cell.Content {
	if f.Content == nil {
		return nil
	}
	return f.Content(item)
}
