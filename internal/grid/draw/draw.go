package draw

import (
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/damage"
	"github.com/dshills/gridstorm/internal/grid/geometry"
)

// Drawer runs frames. It remembers which unknown kinds were already
// reported so each is logged once.
type Drawer struct {
	mu     sync.Mutex
	logger core.Logger
	warned map[cell.Kind]bool
}

// NewDrawer creates a drawer. A nil logger discards messages.
func NewDrawer(logger core.Logger) *Drawer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Drawer{logger: logger, warned: make(map[cell.Kind]bool)}
}

// pass holds per-pass mutable state.
type pass struct {
	f     *Frame
	d     *Drawer
	stats *Stats
	spans []spanEntry

	// current Preparer run
	prepRenderer cellrender.Renderer
	prepKey      string
	prepArgs     *cellrender.DrawArgs
}

// Draw paints one frame and returns what it did.
func (d *Drawer) Draw(f *Frame) Stats {
	start := time.Now()
	var stats Stats
	if f.Surface == nil || f.Rows == nil {
		return stats
	}
	if f.Registry == nil {
		f.Registry = cellrender.NewRegistry()
	}
	if f.Now.IsZero() {
		f.Now = start
	}

	if f.Damage != nil {
		f.Damage = expandSpanDamage(f)
	}

	d.drawHeaders(f, &stats)

	p := &pass{f: f, d: d, stats: &stats}
	w, _ := f.Surface.Size()
	top, bottom := f.bodyTop(), f.bodyBottom()
	edge := f.stickyEdge()

	if !f.Window.IsEmpty() && bottom > top {
		y0 := top + f.Rows.Offset(f.Window.FirstRow) - f.ScrollY

		f.Surface.Save()
		f.Surface.Clip(core.NewRect(0, top, w, bottom-top))
		// Sticky columns first, then scrolling columns clipped to the
		// right of the sticky block.
		p.drawColumns(true, f.Window.FirstRow, f.Window.LastRow, y0)
		f.Surface.Save()
		f.Surface.Clip(core.NewRect(edge, top, w-edge, bottom-top))
		p.drawColumns(false, f.Window.FirstRow, f.Window.LastRow, y0)
		f.Surface.Restore()
		p.finishRun()
		p.drawSpans()
		f.Surface.Restore()
	}

	if f.Frozen.Count > 0 && len(f.Window.Columns) > 0 {
		fp := &pass{f: f, d: d, stats: &stats}
		last := f.Frozen.First + f.Frozen.Count - 1
		f.Surface.Save()
		f.Surface.Clip(core.NewRect(0, f.Frozen.Y, w, f.Frozen.Height))
		fp.drawColumns(true, f.Frozen.First, last, f.Frozen.Y)
		f.Surface.Save()
		f.Surface.Clip(core.NewRect(edge, f.Frozen.Y, w-edge, f.Frozen.Height))
		fp.drawColumns(false, f.Frozen.First, last, f.Frozen.Y)
		f.Surface.Restore()
		fp.finishRun()
		fp.drawSpans()
		f.Surface.Restore()
	}

	stats.Duration = time.Since(start)
	return stats
}

// drawColumns paints rows first..last of the sticky or scrolling columns.
// y0 is the surface y of row first.
func (p *pass) drawColumns(sticky bool, first, last int, y0 float64) {
	f := p.f
	for _, m := range f.Window.Columns {
		if m.Sticky != sticky {
			continue
		}
		y := y0
		for row := first; row <= last; row++ {
			h := f.Rows.Height(row)
			item := core.NewItem(m.SourceIndex, row)
			if f.Damage.Has(item) {
				p.drawCell(m, item, core.NewRect(m.X, y, m.Width, h))
			}
			y += h
		}
	}
}

// drawCell runs the fixed per-cell sequence.
func (p *pass) drawCell(col geometry.MappedColumn, item core.Item, rect core.Rect) {
	f := p.f
	s := f.Surface
	p.stats.Cells++

	c := f.content(item)
	var rowOverride *core.Theme
	if f.RowTheme != nil {
		rowOverride = f.RowTheme(item.Row)
	}
	var cellOverride *core.Theme
	if c != nil {
		cellOverride = c.Base().ThemeOverride
	}
	theme := core.Resolve(f.Theme, rowOverride, cellOverride)

	s.Save()
	s.Clip(rect)
	defer s.Restore()

	// 1. background
	if f.isClean(rect) {
		p.stats.SkippedBg++
	} else {
		bg := f.Theme.BgCell
		if f.DisabledRow != nil && f.DisabledRow(item.Row) {
			bg = f.Theme.BgCellMedium
		}
		if rowOverride != nil && rowOverride.BgCell.IsSet() {
			bg = rowOverride.BgCell
		}
		if cellOverride != nil && cellOverride.BgCell.IsSet() {
			bg = cellOverride.BgCell
		}
		s.FillRect(rect, bg)
	}

	hovered := f.Hover != nil && f.Hover.Item == item
	args := &cellrender.DrawArgs{
		Surface:        s,
		Theme:          theme,
		Rect:           rect,
		Cell:           c,
		Item:           item,
		Hovered:        hovered,
		Highlighted:    f.Selection.IsSelected(item),
		FrameTime:      f.Now,
		Store:          f.Store,
		AnimationFrame: f.AnimationFrame,
	}
	if hovered {
		args.HoverX = f.Hover.X - rect.X
		args.HoverY = f.Hover.Y - rect.Y
	}

	if c != nil {
		// 2. host override, 3. kind dispatch
		p.paintContent(args)
	}

	// 4. borders
	if f.VerticalBorders {
		s.Line(rect.Right()-0.5, rect.Y, rect.Right()-0.5, rect.Bottom(), theme.BorderColor, 1)
	}
	s.Line(rect.X, rect.Bottom()-0.5, rect.Right(), rect.Bottom()-0.5, theme.HorizontalBorderColor, 1)

	// 5. edit affordance
	if hovered && c != nil && cell.Editable(c) && !isStructural(c.Kind()) {
		drawEditAffordance(args)
	}

	// 6. selection tint
	if f.Selection.IsTinted(item) {
		s.FillRect(rect, theme.AccentLight)
	}

	// 7. focus ring
	if f.HasFocus && f.Selection.IsFocused(item) {
		s.StrokeRect(rect.Inset(1, 1), theme.AccentColor, 2)
	}

	// 8. spans
	if c != nil {
		if sp := c.Base().Span; sp != nil && sp.Width() > 1 && firstMapped(f.Window.Columns, *sp) == item.Col {
			entry := spanEntry{
				item:   item,
				rect:   spanRect(f.Window.Columns, *sp, rect),
				cell:   c,
				theme:  theme,
				sticky: col.Sticky,
			}
			// The owning cell is scrolled out; paint its content over the
			// columns that remain.
			if sp.Start != item.Col {
				start := core.NewItem(sp.Start, item.Row)
				if owner := f.content(start); owner != nil {
					entry.item = start
					entry.cell = owner
					entry.theme = core.Resolve(f.Theme, rowOverride, owner.Base().ThemeOverride)
				}
			}
			p.spans = append(p.spans, entry)
		}
	}
}

func isStructural(k cell.Kind) bool {
	return k == cell.KindNewRow || k == cell.KindMarker
}

func drawEditAffordance(args *cellrender.DrawArgs) {
	r := args.Rect
	size := min(8, r.Height/2)
	if size <= 0 {
		return
	}
	x := r.Right() - args.Theme.CellHorizontalPadding - size
	y := r.Y + (r.Height-size)/2
	args.Surface.FillRect(core.NewRect(x, y, size, size), args.Theme.TextLight)
}

// paintContent runs the override hook and kind dispatch for one cell,
// recovering renderer panics so one bad cell cannot blank the grid.
func (p *pass) paintContent(args *cellrender.DrawArgs) {
	f := p.f
	defer func() {
		if r := recover(); r != nil {
			p.stats.Panics++
			p.d.logger.Error("cell %s (%s) draw panic: %v\n%s", args.Item, kindOf(args.Cell), r, debug.Stack())
			p.abortRun()
			cellrender.DrawError(args)
		}
	}()

	if f.DrawOverride != nil && f.DrawOverride(args) {
		return
	}

	kind := args.Cell.Kind()
	switch kind {
	case cell.KindNewRow:
		cellrender.DrawNewRow(args)
		return
	case cell.KindMarker:
		cellrender.DrawMarker(args)
		return
	}

	rend, ok := f.Registry.Dispatch(kind)
	if !ok {
		p.stats.Unsupported++
		p.d.warnUnknown(kind)
		rend.Draw(args)
		return
	}

	p.prepare(rend, args)
	rend.Draw(args)
}

// prepare starts a new Preparer run when the renderer or style changes.
func (p *pass) prepare(rend cellrender.Renderer, args *cellrender.DrawArgs) {
	key := cell.StyleKey(args.Cell)
	if p.prepRenderer == rend && p.prepKey == key {
		if p.prepArgs != nil {
			args.Prepared = p.prepArgs.Prepared
		}
		return
	}
	p.finishRun()

	p.prepRenderer = rend
	p.prepKey = key
	if pr, ok := rend.(cellrender.Preparer); ok {
		pr.Prepare(args)
		p.prepArgs = args
		p.stats.Prepares++
	}
}

// finishRun calls Cleanup for the active Preparer run.
func (p *pass) finishRun() {
	if pr, ok := p.prepRenderer.(cellrender.Preparer); ok && p.prepArgs != nil {
		pr.Cleanup(p.prepArgs)
	}
	p.prepRenderer = nil
	p.prepKey = ""
	p.prepArgs = nil
}

// abortRun drops the active run without calling Cleanup.
func (p *pass) abortRun() {
	p.prepRenderer = nil
	p.prepKey = ""
	p.prepArgs = nil
}

func (d *Drawer) warnUnknown(kind cell.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.warned[kind] {
		return
	}
	d.warned[kind] = true
	d.logger.Warn("no renderer for cell kind %q, drawing placeholder", kind)
}

func kindOf(c cell.Content) string {
	if c == nil {
		return "<nil>"
	}
	return string(c.Kind())
}

// expandSpanDamage adds every cell covered by a span to the damage set when
// any cell under that span is damaged, so a repainted neighbor never clips
// overflow from an earlier cell. It only scans rows that have damage.
func expandSpanDamage(f *Frame) damage.Set {
	rows := make(map[int]bool)
	for it := range f.Damage {
		if it.IsData() {
			rows[it.Row] = true
		}
	}
	if len(rows) == 0 {
		return f.Damage
	}
	out := make(damage.Set, len(f.Damage))
	for it := range f.Damage {
		out[it] = struct{}{}
	}
	sorted := make([]int, 0, len(rows))
	for r := range rows {
		sorted = append(sorted, r)
	}
	slices.Sort(sorted)

	for _, row := range sorted {
		for _, m := range f.Window.Columns {
			c := f.content(core.NewItem(m.SourceIndex, row))
			if c == nil {
				continue
			}
			sp := c.Base().Span
			if sp == nil || sp.Width() <= 1 || firstMapped(f.Window.Columns, *sp) != m.SourceIndex {
				continue
			}
			hit := false
			for col := sp.Start; col <= sp.End; col++ {
				if f.Damage.Has(core.NewItem(col, row)) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
			for col := sp.Start; col <= sp.End; col++ {
				out[core.NewItem(col, row)] = struct{}{}
			}
		}
	}
	return out
}

// String renders stats for logs.
func (s Stats) String() string {
	return fmt.Sprintf("cells=%d headers=%d spans=%d panics=%d unsupported=%d in %s",
		s.Cells, s.Headers, s.Spans, s.Panics, s.Unsupported, s.Duration)
}
