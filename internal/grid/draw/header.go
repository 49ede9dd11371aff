package draw

import (
	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

// drawHeaders paints the group header band and the column headers.
// Header items are damaged as (col, -1) and group headers as (first col, -2).
func (d *Drawer) drawHeaders(f *Frame, stats *Stats) {
	if f.Header.Total() <= 0 || len(f.Window.Columns) == 0 {
		return
	}
	s := f.Surface
	w, _ := s.Size()
	edge := f.stickyEdge()
	theme := f.Theme

	s.Save()
	s.Clip(core.NewRect(0, 0, w, f.Header.Total()))
	defer s.Restore()

	if f.Header.GroupHeight > 0 {
		for _, g := range geometry.GroupSpans(f.Window.Columns) {
			item := core.NewItem(g.First, core.GroupHeaderIndex)
			if !f.Damage.Has(item) {
				continue
			}
			stats.Headers++
			r := core.NewRect(g.X, 0, g.Width, f.Header.GroupHeight)
			s.Save()
			s.Clip(r)
			s.FillRect(r, theme.BgHeader)
			cellrender.DrawText(s, theme, r, g.Group, headerStyle(theme, theme.TextMedium), cell.AlignLeft)
			s.Line(r.X, r.Bottom()-0.5, r.Right(), r.Bottom()-0.5, theme.BorderColor, 1)
			s.Line(r.Right()-0.5, r.Y, r.Right()-0.5, r.Bottom(), theme.BorderColor, 1)
			s.Restore()
		}
	}

	for _, sticky := range []bool{true, false} {
		if !sticky {
			s.Save()
			s.Clip(core.NewRect(edge, 0, w-edge, f.Header.Total()))
		}
		for _, m := range f.Window.Columns {
			if m.Sticky != sticky {
				continue
			}
			item := core.NewItem(m.SourceIndex, core.HeaderIndex)
			if !f.Damage.Has(item) {
				continue
			}
			stats.Headers++
			d.drawHeader(f, m, item)
		}
		if !sticky {
			s.Restore()
		}
	}
}

func (d *Drawer) drawHeader(f *Frame, m geometry.MappedColumn, item core.Item) {
	s := f.Surface
	theme := f.Theme
	r := core.NewRect(m.X, f.Header.GroupHeight, m.Width, f.Header.Height)

	s.Save()
	s.Clip(r)
	defer s.Restore()

	bg, fg := theme.BgHeader, theme.TextHeader
	switch {
	case f.Selection.IsColumnSelected(m.SourceIndex):
		bg, fg = theme.AccentColor, theme.AccentForeground
	case f.Hover != nil && f.Hover.Item == item:
		bg = theme.BgHeaderHovered
	}
	s.FillRect(r, bg)

	title := m.Title
	if m.Icon != "" {
		title = m.Icon + " " + title
	}
	cellrender.DrawText(s, theme, r, title, headerStyle(theme, fg), cell.AlignLeft)

	s.Line(r.X, r.Bottom()-0.5, r.Right(), r.Bottom()-0.5, theme.BorderColor, 1)
	if f.VerticalBorders {
		s.Line(r.Right()-0.5, r.Y, r.Right()-0.5, r.Bottom(), theme.BorderColor, 1)
	}
}

func headerStyle(theme core.Theme, c core.Color) surface.TextStyle {
	return surface.TextStyle{Color: c, Size: theme.HeaderFontSize, Bold: true}
}
