package grid

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/damage"
	"github.com/dshills/gridstorm/internal/grid/draw"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/provider"
	"github.com/dshills/gridstorm/internal/grid/selection"
	"github.com/dshills/gridstorm/internal/grid/surface"
	"github.com/dshills/gridstorm/internal/grid/virtual"
)

// visibleArea is the part of the grid UpdateCells filters against. It is
// swapped atomically so content callbacks never wait on a frame.
type visibleArea struct {
	window virtual.Window
	frozen geometry.FrozenRows
}

func (v *visibleArea) contains(item core.Item) bool {
	if item.Row < 0 {
		return v.window.ContainsCol(item.Col)
	}
	if v.frozen.Contains(item.Row) {
		return v.window.ContainsCol(item.Col)
	}
	return v.window.Contains(item)
}

// Grid is a virtualized, damage-tracked data grid.
type Grid struct {
	mu sync.Mutex

	id     uuid.UUID
	opts   Options
	logger core.Logger
	now    func() time.Time

	// Components
	registry  *cellrender.Registry
	drawer    *draw.Drawer
	tracker   *damage.Tracker
	cache     *virtual.ItemCache
	predictor *virtual.Predictor

	// Geometry
	columns   []geometry.Column
	collapsed map[string]bool
	cols      *geometry.ColumnLayout
	rows      *geometry.RowLayout
	header    geometry.Header
	frozen    geometry.FrozenRows
	window    virtual.Window
	visible   atomic.Pointer[visibleArea]

	// Viewport
	width, height    float64
	scrollX, scrollY float64

	// Content and interaction
	content     provider.Getter
	sel         selection.Selection
	hover       *draw.Hover
	focused     bool
	rowTheme    func(row int) *core.Theme
	disabledRow func(row int) bool
	override    func(args *cellrender.DrawArgs) bool
	clean       []core.Rect

	// Frame accounting
	frames     uint64
	last       draw.Stats
	total      draw.Stats
	prefetched int
}

// New creates a grid that reads cells from content.
func New(content provider.Getter, opts Options, logger core.Logger) *Grid {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = DefaultOptions().RowHeight
	}
	if !opts.Theme.BgCell.IsSet() {
		opts.Theme = core.DefaultTheme()
	}

	tracker := damage.NewTracker(opts.MaxDamageCells)
	if opts.CoalesceRatio != 0 {
		tracker.SetCoalesceThreshold(opts.CoalesceRatio)
	}

	g := &Grid{
		id:        uuid.New(),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		registry:  cellrender.NewRegistry(),
		drawer:    draw.NewDrawer(logger),
		tracker:   tracker,
		cache:     virtual.NewItemCache(opts.CacheSize),
		predictor: virtual.NewPredictor(),
		collapsed: make(map[string]bool),
		rows:      geometry.NewRowLayout(0, geometry.FixedRows(opts.RowHeight)),
		content:   content,
		sel:       selection.Empty(),
	}
	g.cols = geometry.NewColumnLayout(nil, opts.FreezeColumns, g.collapsed)
	g.relayout()
	return g
}

// ID returns the grid's unique identifier.
func (g *Grid) ID() uuid.UUID {
	return g.id
}

// Registry returns the grid's renderer registry.
func (g *Grid) Registry() *cellrender.Registry {
	return g.registry
}

// SetClock replaces the time source used for frames and prediction.
func (g *Grid) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// SetColumns replaces the column definitions. Cached content is dropped
// since column indices may now address different data.
func (g *Grid) SetColumns(cols []geometry.Column) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.columns = append([]geometry.Column(nil), cols...)
	g.cache.Clear()
	g.rebuildColumns()
}

// Columns returns the column definitions.
func (g *Grid) Columns() []geometry.Column {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]geometry.Column(nil), g.columns...)
}

// SetFreeze sets the number of leading sticky columns.
func (g *Grid) SetFreeze(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts.FreezeColumns = max(n, 0)
	g.rebuildColumns()
}

// SetGroupCollapsed collapses or expands a column group. A collapsed group
// shows only its first column.
func (g *Grid) SetGroupCollapsed(group string, collapsed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if collapsed {
		g.collapsed[group] = true
	} else {
		delete(g.collapsed, group)
	}
	g.rebuildColumns()
}

func (g *Grid) rebuildColumns() {
	g.cols = geometry.NewColumnLayout(g.columns, g.opts.FreezeColumns, g.collapsed)
	g.relayout()
	g.tracker.MarkFull()
}

// SetRowCount sets the number of data rows.
func (g *Grid) SetRowCount(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows.SetRowCount(max(n, 0))
	g.relayout()
	g.tracker.MarkFull()
}

// RowCount returns the number of data rows.
func (g *Grid) RowCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows.RowCount()
}

// SetRowSizer replaces the row height function.
func (g *Grid) SetRowSizer(sizer geometry.RowSizer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows.SetSizer(sizer)
	g.relayout()
	g.tracker.MarkFull()
}

// SetFrozenTrailingRows pins the last n rows to the bottom edge.
func (g *Grid) SetFrozenTrailingRows(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts.FrozenTrailingRows = max(n, 0)
	g.relayout()
	g.tracker.MarkFull()
}

// SetTheme replaces the base theme.
func (g *Grid) SetTheme(theme core.Theme) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.opts.Theme = theme
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeTheme})
}

// SetVerticalBorders toggles the vertical cell borders.
func (g *Grid) SetVerticalBorders(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.opts.VerticalBorders != on {
		g.opts.VerticalBorders = on
		g.tracker.MarkFull()
	}
}

// SetContent replaces the content source.
func (g *Grid) SetContent(content provider.Getter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.content = content
	g.cache.Clear()
	g.tracker.MarkFull()
}

// SetRowTheme installs a per-row theme override.
func (g *Grid) SetRowTheme(fn func(row int) *core.Theme) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rowTheme = fn
	g.tracker.MarkFull()
}

// SetDisabledRow installs a predicate for rows painted as disabled.
func (g *Grid) SetDisabledRow(fn func(row int) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disabledRow = fn
	g.tracker.MarkFull()
}

// SetDrawOverride installs a hook that runs before kind dispatch.
func (g *Grid) SetDrawOverride(fn func(args *cellrender.DrawArgs) bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.override = fn
	g.tracker.MarkFull()
}

// SetCleanRegions lists surface areas the host repaints itself, for
// example under an overlay editor. Backgrounds inside them are skipped.
func (g *Grid) SetCleanRegions(regions []core.Rect) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clean = append([]core.Rect(nil), regions...)
}

// Resize sets the surface size.
func (g *Grid) Resize(width, height float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resize(width, height)
}

func (g *Grid) resize(width, height float64) {
	if width == g.width && height == g.height {
		return
	}
	g.width, g.height = max(width, 0), max(height, 0)
	g.relayout()
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeResize})
}

// Scroll returns the scroll offsets.
func (g *Grid) Scroll() (x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scrollX, g.scrollY
}

// ScrollTo scrolls to an absolute position, clamped to the content. It
// reports whether the position changed. A scroll repaints the whole new
// window; nothing outside it is painted.
func (g *Grid) ScrollTo(x, y float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scrollTo(x, y)
}

// ScrollBy scrolls relative to the current position.
func (g *Grid) ScrollBy(dx, dy float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scrollTo(g.scrollX+dx, g.scrollY+dy)
}

func (g *Grid) scrollTo(x, y float64) bool {
	maxX, maxY := g.maxScroll()
	x = min(max(x, 0), maxX)
	y = min(max(y, 0), maxY)
	if x == g.scrollX && y == g.scrollY {
		return false
	}
	g.scrollX, g.scrollY = x, y
	if g.opts.Prediction {
		g.predictor.Record(g.now(), x, y)
	}
	g.relayout()
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeScroll})
	return true
}

// ScrollToCell scrolls the least distance that brings a data cell fully
// into view. Sticky columns and frozen rows never need scrolling. It
// reports whether the position changed.
func (g *Grid) ScrollToCell(item core.Item) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !item.IsData() || item.Row >= g.rows.RowCount() {
		return false
	}
	x, y := g.scrollX, g.scrollY
	if left, w, sticky, ok := g.cols.Extent(item.Col); ok && !sticky {
		edge := g.cols.StickyWidth()
		switch {
		case left-x < edge:
			x = left - edge
		case left+w-x > g.width:
			x = min(left+w-g.width, left-edge)
		}
	}
	if !g.frozen.Contains(item.Row) {
		top := g.rows.Offset(item.Row)
		bottom := top + g.rows.Height(item.Row)
		body := g.frozen.Y - g.header.Total()
		switch {
		case top < y:
			y = top
		case bottom > y+body:
			y = min(bottom-body, top)
		}
	}
	return g.scrollTo(x, y)
}

// maxScroll returns the scroll limits. The frozen rows are excluded from
// the scrollable height.
func (g *Grid) maxScroll() (float64, float64) {
	maxX := g.cols.MaxScrollX(g.width)
	bodyRows := g.rows.RowCount() - g.frozen.Count
	bodyHeight := g.frozen.Y - g.header.Total()
	maxY := max(g.rows.Offset(bodyRows)-bodyHeight, 0)
	return max(maxX, 0), maxY
}

func (g *Grid) viewport() virtual.Viewport {
	return virtual.Viewport{
		ScrollX:    g.scrollX,
		ScrollY:    g.scrollY,
		Width:      g.width,
		Height:     g.frozen.Y - g.header.Total(),
		OverscanX:  g.opts.OverscanX,
		OverscanY:  g.opts.OverscanY,
		FrozenRows: g.frozen.Count,
	}
}

// relayout recomputes derived geometry and the visible window. Caller
// holds mu.
func (g *Grid) relayout() {
	g.header = geometry.NewHeader(g.opts.HeaderHeight, g.opts.GroupHeaderHeight, g.columns)
	g.frozen = g.rows.FrozenRowsLayout(g.opts.FrozenTrailingRows, g.height)

	maxX, maxY := g.maxScroll()
	g.scrollX = min(g.scrollX, maxX)
	g.scrollY = min(g.scrollY, maxY)

	g.window = virtual.ComputeWindow(g.cols, g.rows, g.viewport())
	frozenCells := g.frozen.Count * len(g.window.Columns)
	g.tracker.SetWindowCells(g.window.Cells() + frozenCells)
	g.visible.Store(&visibleArea{window: g.window, frozen: g.frozen})
}

// Window returns the visible body window.
func (g *Grid) Window() virtual.Window {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.window
}

// SetSelection replaces the selection and damages the cells whose
// selected or focused state changed.
func (g *Grid) SetSelection(sel selection.Selection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := g.sel
	g.sel = sel
	if old.Equals(sel) || g.window.IsEmpty() {
		return
	}
	w := g.window
	cols := make([]int, len(w.Columns))
	for i, m := range w.Columns {
		cols[i] = m.SourceIndex
	}
	items := selection.Changed(old, sel, cols, w.FirstRow, w.LastRow)
	if g.frozen.Count > 0 {
		items = append(items, selection.Changed(old, sel, cols,
			g.frozen.First, g.frozen.First+g.frozen.Count-1)...)
	}
	for _, col := range cols {
		if old.IsColumnSelected(col) != sel.IsColumnSelected(col) {
			items = append(items, core.NewItem(col, core.HeaderIndex))
		}
	}
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeSelection, Items: items})
}

// Selection returns the current selection.
func (g *Grid) Selection() selection.Selection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sel
}

// SetHover moves the pointer to surface position (x, y). The previously
// and newly hovered cells are damaged.
func (g *Grid) SetHover(x, y float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	item, ok := g.cellAt(x, y)
	var next *draw.Hover
	if ok {
		next = &draw.Hover{Item: item, X: x, Y: y}
	}
	g.setHover(next)
}

// ClearHover removes the hover, for example when the pointer leaves.
func (g *Grid) ClearHover() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setHover(nil)
}

func (g *Grid) setHover(next *draw.Hover) {
	prev := g.hover
	if prev == nil && next == nil {
		return
	}
	var items []core.Item
	if prev != nil {
		items = append(items, prev.Item)
	}
	if next != nil && (prev == nil || prev.Item != next.Item || next.Item.IsData()) {
		items = append(items, next.Item)
	}
	g.hover = next
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeHover, Items: items})
}

// Hover returns the hovered cell.
func (g *Grid) Hover() (core.Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hover == nil {
		return core.Item{}, false
	}
	return g.hover.Item, true
}

// SetFocus records whether the grid has keyboard focus. Only the focused
// cell is damaged.
func (g *Grid) SetFocus(focused bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.focused == focused {
		return
	}
	g.focused = focused
	if cur := g.sel.Current(); cur != nil {
		g.tracker.MarkChange(damage.Change{Type: damage.ChangeFocus, Items: []core.Item{cur.Cell}})
	}
}

// UpdateCells reports that content changed for items. Cached content is
// dropped and the visible ones are damaged. It is safe to call from any
// goroutine, including content provider callbacks.
func (g *Grid) UpdateCells(items []core.Item) {
	if len(items) == 0 {
		return
	}
	g.cache.Invalidate(items...)
	area := g.visible.Load()
	damaged := make([]core.Item, 0, len(items))
	for _, it := range items {
		if area == nil || area.contains(it) {
			damaged = append(damaged, it)
		}
	}
	if len(damaged) > 0 {
		g.tracker.MarkChange(damage.Change{Type: damage.ChangeContent, Items: damaged})
	}
}

// Invalidate forces a full repaint on the next frame.
func (g *Grid) Invalidate() {
	g.tracker.MarkFull()
}

// NeedsRender reports whether the next Render would paint anything.
func (g *Grid) NeedsRender() bool {
	return g.tracker.IsDirty()
}

// Render paints the damaged part of the grid onto s and flushes it. A
// surface whose size differs from the last one resizes the grid first. It
// returns the frame statistics; a frame with nothing to paint returns
// zero stats without touching s.
func (g *Grid) Render(ctx context.Context, s surface.Surface) (draw.Stats, error) {
	if err := ctx.Err(); err != nil {
		return draw.Stats{}, err
	}
	if s == nil {
		return draw.Stats{}, fmt.Errorf("render grid %s: nil surface", g.id)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	w, h := s.Size()
	g.resize(w, h)

	dmg := g.tracker.Take()
	if dmg != nil && len(dmg) == 0 {
		return draw.Stats{}, nil
	}

	now := g.now()
	g.cache.MarkVisible(func(it core.Item) bool {
		return g.window.Contains(it) || (g.frozen.Contains(it.Row) && g.window.ContainsCol(it.Col))
	})

	frame := &draw.Frame{
		Surface:         s,
		Theme:           g.opts.Theme,
		Window:          g.window,
		Rows:            g.rows,
		Header:          g.header,
		ScrollY:         g.scrollY,
		Frozen:          g.frozen,
		Damage:          dmg,
		Selection:       g.sel,
		Hover:           g.hover,
		HasFocus:        g.focused,
		RowTheme:        g.rowTheme,
		DisabledRow:     g.disabledRow,
		CleanRegions:    g.clean,
		VerticalBorders: g.opts.VerticalBorders,
		DrawOverride:    g.override,
		Content:         g.cellContent,
		Registry:        g.registry,
		Store:           g.cache,
		AnimationFrame:  g.requestAnimationFrame,
		Now:             now,
	}
	stats := g.drawer.Draw(frame)
	s.Flush()

	g.frames++
	g.last = stats
	g.total.Add(stats)
	if stats.Panics > 0 {
		g.logger.Warn("grid %s frame %d: %d cell renderers panicked", g.id, g.frames, stats.Panics)
	}

	if g.opts.Prediction {
		g.prefetch(ctx, now)
	}
	return stats, nil
}

func (g *Grid) cellContent(item core.Item) cell.Content {
	if g.content == nil {
		return nil
	}
	return g.cache.Content(item, g.content)
}

func (g *Grid) requestAnimationFrame(item core.Item) {
	g.tracker.MarkChange(damage.Change{Type: damage.ChangeAnimation, Items: []core.Item{item}})
}

// prefetch warms the cache for the window the predictor expects next.
// Caller holds mu.
func (g *Grid) prefetch(ctx context.Context, now time.Time) {
	if g.content == nil || ctx.Err() != nil {
		return
	}
	pred, ok := g.predictor.Predict(now)
	if !ok || g.predictor.IsStale(pred) {
		return
	}
	maxX, maxY := g.maxScroll()
	vp := g.viewport()
	vp.ScrollX = min(max(pred.X, 0), maxX)
	vp.ScrollY = min(max(pred.Y, 0), maxY)
	next := virtual.ComputeWindow(g.cols, g.rows, vp)
	if next.IsEmpty() || next.Equal(g.window) {
		return
	}

	var items []core.Item
	for _, it := range next.Items() {
		if !g.window.Contains(it) {
			items = append(items, it)
		}
	}
	n := g.cache.Prefetch(items, g.content)
	g.prefetched += n
	if n > 0 {
		g.logger.Debug("grid %s prefetched %d cells (confidence %.2f)", g.id, n, pred.Confidence)
	}
}

// CellAt hit-tests a surface position. Header cells have Row
// core.HeaderIndex and group header cells core.GroupHeaderIndex, with Col
// set to the first column of the group.
func (g *Grid) CellAt(x, y float64) (core.Item, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cellAt(x, y)
}

func (g *Grid) cellAt(x, y float64) (core.Item, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return core.Item{}, false
	}
	col, ok := geometry.ColumnAt(g.window.Columns, x)
	if !ok {
		return core.Item{}, false
	}

	switch {
	case y < g.header.GroupHeight:
		for _, gs := range geometry.GroupSpans(g.window.Columns) {
			if x >= gs.X && x < gs.X+gs.Width {
				return core.NewItem(gs.First, core.GroupHeaderIndex), true
			}
		}
		return core.NewItem(col.SourceIndex, core.GroupHeaderIndex), true
	case y < g.header.Total():
		return core.NewItem(col.SourceIndex, core.HeaderIndex), true
	case g.frozen.Count > 0 && y >= g.frozen.Y:
		for row := g.frozen.First; row < g.frozen.First+g.frozen.Count; row++ {
			top := g.rows.FrozenRowY(g.frozen, row)
			if y >= top && y < top+g.rows.Height(row) {
				return core.NewItem(col.SourceIndex, row), true
			}
		}
		return core.Item{}, false
	}

	row, ok := g.rows.RowAt(y - g.header.Total() + g.scrollY)
	if !ok || row >= g.frozen.First {
		return core.Item{}, false
	}
	return core.NewItem(col.SourceIndex, row), true
}

// CellRect returns the surface rectangle of a visible data cell.
func (g *Grid) CellRect(item core.Item) (core.Rect, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := geometry.Find(g.window.Columns, item.Col)
	if !ok || item.Row < 0 || item.Row >= g.rows.RowCount() {
		return core.Rect{}, false
	}
	var y float64
	switch {
	case g.frozen.Contains(item.Row):
		y = g.rows.FrozenRowY(g.frozen, item.Row)
	case g.window.ContainsRow(item.Row):
		y = g.header.Total() + g.rows.Offset(item.Row) - g.scrollY
	default:
		return core.Rect{}, false
	}
	return core.NewRect(m.X, y, m.Width, g.rows.Height(item.Row)), true
}

// Paste parses tab-separated text and offers each field to the renderer
// of the cell it lands on, starting at the current cell. Accepted cells
// are returned for the host to store; nothing is applied here.
func (g *Grid) Paste(text string) ([]cellrender.PasteResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.sel.Current()
	if cur == nil {
		return nil, nil
	}
	matrix, err := cellrender.ParseTSV(text)
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	get := func(item core.Item) cell.Content {
		if g.content == nil {
			return nil
		}
		return g.content(item)
	}
	return cellrender.PasteMatrix(g.registry, matrix, cur.Cell, len(g.columns), g.rows.RowCount(), get), nil
}

// Stats describes the grid's rendering activity.
type Stats struct {
	Frames             uint64
	Last               draw.Stats
	Total              draw.Stats
	Cache              virtual.CacheStats
	Prefetched         int
	PredictionFailures uint64
	Window             virtual.Window
}

// Stats returns rendering statistics.
func (g *Grid) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		Frames:             g.frames,
		Last:               g.last,
		Total:              g.total,
		Cache:              g.cache.Stats(),
		Prefetched:         g.prefetched,
		PredictionFailures: g.predictor.Failures(),
		Window:             g.window,
	}
}
