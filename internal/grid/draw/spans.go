package draw

import (
	"slices"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/geometry"
)

// spanEntry is a cell whose content overflows into neighboring columns.
type spanEntry struct {
	item   core.Item
	rect   core.Rect
	cell   cell.Content
	theme  core.Theme
	sticky bool
}

// spanRect returns the union of rect with every mapped column in sp.
func spanRect(cols []geometry.MappedColumn, sp cell.Span, rect core.Rect) core.Rect {
	out := rect
	for _, m := range cols {
		if m.SourceIndex < sp.Start || m.SourceIndex > sp.End {
			continue
		}
		out = out.Union(core.NewRect(m.X, rect.Y, m.Width, rect.Height))
	}
	return out
}

// firstMapped returns the source index of the leftmost mapped column inside
// sp, or -1 when none of its columns are mapped. Cells covered by a span
// carry the same span, so the first visible one records the overlay even
// when the owning column has scrolled out.
func firstMapped(cols []geometry.MappedColumn, sp cell.Span) int {
	for _, m := range cols {
		if m.SourceIndex >= sp.Start && m.SourceIndex <= sp.End {
			return m.SourceIndex
		}
	}
	return -1
}

// drawSpans paints recorded span overlays in (col,row) order, each clipped
// to its own span rectangle.
func (p *pass) drawSpans() {
	if len(p.spans) == 0 {
		return
	}
	f := p.f
	s := f.Surface
	edge := f.stickyEdge()

	slices.SortStableFunc(p.spans, func(a, b spanEntry) int {
		switch {
		case a.item.Before(b.item):
			return -1
		case b.item.Before(a.item):
			return 1
		}
		return 0
	})

	for _, sp := range p.spans {
		p.stats.Spans++
		rect := sp.rect
		if !sp.sticky && rect.X < edge {
			rect = rect.Intersection(core.NewRect(edge, rect.Y, rect.Right()-edge, rect.Height))
			if rect.IsEmpty() {
				continue
			}
		}

		s.Save()
		s.Clip(rect)
		bg := sp.theme.BgCell
		if f.DisabledRow != nil && f.DisabledRow(sp.item.Row) {
			bg = sp.theme.BgCellMedium
		}
		s.FillRect(sp.rect, bg)

		args := &cellrender.DrawArgs{
			Surface:        s,
			Theme:          sp.theme,
			Rect:           sp.rect,
			Cell:           sp.cell,
			Item:           sp.item,
			Highlighted:    f.Selection.IsSelected(sp.item),
			FrameTime:      f.Now,
			Store:          f.Store,
			AnimationFrame: f.AnimationFrame,
		}
		if f.Hover != nil && f.Hover.Item == sp.item {
			args.Hovered = true
			args.HoverX = f.Hover.X - sp.rect.X
			args.HoverY = f.Hover.Y - sp.rect.Y
		}
		p.paintContent(args)
		p.finishRun()

		if f.Selection.IsTinted(sp.item) {
			s.FillRect(sp.rect, sp.theme.AccentLight)
		}
		if f.HasFocus && f.Selection.IsFocused(sp.item) {
			s.StrokeRect(sp.rect.Inset(1, 1), sp.theme.AccentColor, 2)
		}
		s.Restore()
	}
	p.spans = p.spans[:0]
}
