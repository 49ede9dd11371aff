package grid

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/provider"
	"github.com/dshills/gridstorm/internal/grid/rangeset"
	"github.com/dshills/gridstorm/internal/grid/selection"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

const (
	testCols      = 5
	testRows      = 100
	testColWidth  = 100
	testRowHeight = 20
	testHeader    = 30
	testWidth     = 500
	testHeight    = 230 // header plus ten rows
)

func textContent(item core.Item) cell.Content {
	return cell.NewText(fmt.Sprintf("%d,%d", item.Col, item.Row))
}

func testColumns(n int) []geometry.Column {
	cols := make([]geometry.Column, n)
	for i := range cols {
		cols[i] = geometry.Column{ID: fmt.Sprintf("c%d", i), Title: fmt.Sprintf("C%d", i), Width: testColWidth}
	}
	return cols
}

func newTestGrid(get func(core.Item) cell.Content) (*Grid, *surface.Recorder) {
	opts := DefaultOptions()
	opts.RowHeight = testRowHeight
	opts.HeaderHeight = testHeader
	opts.VerticalBorders = false
	opts.Prediction = false
	g := New(get, opts, nil)
	g.SetColumns(testColumns(testCols))
	g.SetRowCount(testRows)
	g.Resize(testWidth, testHeight)
	return g, surface.NewRecorder(testWidth, testHeight)
}

func render(t *testing.T, g *Grid, rec *surface.Recorder) {
	t.Helper()
	rec.Reset()
	if _, err := g.Render(context.Background(), rec); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

// paintedCells returns the body cells whose clip appears in the op log.
func paintedCells(rec *surface.Recorder, scrollY float64) map[core.Item]bool {
	out := make(map[core.Item]bool)
	for _, op := range rec.OpsOfKind(surface.OpClip) {
		r := op.Rect
		if r.Width != testColWidth || r.Height != testRowHeight || r.Y < testHeader {
			continue
		}
		col := int(r.X) / testColWidth
		row := int(r.Y-testHeader+scrollY) / testRowHeight
		out[core.NewItem(col, row)] = true
	}
	return out
}

func TestNewGrid(t *testing.T) {
	a := New(textContent, DefaultOptions(), nil)
	b := New(textContent, DefaultOptions(), nil)
	if a.ID() == b.ID() {
		t.Error("grids share an ID")
	}
	if a.Registry() == b.Registry() {
		t.Error("grids share a registry")
	}
	if !a.NeedsRender() {
		t.Error("new grid should need a first render")
	}
}

func TestRenderFullFrame(t *testing.T) {
	g, rec := newTestGrid(textContent)
	render(t, g, rec)

	st := g.Stats()
	if st.Frames != 1 {
		t.Errorf("Frames = %d, want 1", st.Frames)
	}
	if st.Last.Cells != 50 || st.Last.Headers != 5 {
		t.Errorf("Last = %+v, want 50 cells and 5 headers", st.Last)
	}
	ops := rec.Ops()
	if ops[len(ops)-1].Kind != surface.OpFlush {
		t.Errorf("last op = %v, want flush", ops[len(ops)-1])
	}
	if g.NeedsRender() {
		t.Error("NeedsRender() after a full frame")
	}

	// Nothing changed: the next frame paints nothing.
	render(t, g, rec)
	if n := len(rec.Ops()); n != 0 {
		t.Errorf("idle frame recorded %d ops, want 0", n)
	}
}

func TestScrollRepaintsOnlyNewWindow(t *testing.T) {
	g, rec := newTestGrid(textContent)
	if !g.ScrollTo(0, 200) {
		t.Fatal("ScrollTo(0, 200) reported no change")
	}
	render(t, g, rec)
	if w := g.Window(); w.FirstRow != 10 || w.LastRow != 19 {
		t.Fatalf("window rows = %d..%d, want 10..19", w.FirstRow, w.LastRow)
	}

	g.ScrollBy(0, testRowHeight)
	render(t, g, rec)

	w := g.Window()
	if w.FirstRow != 11 || w.LastRow != 20 {
		t.Errorf("window rows = %d..%d, want 11..20", w.FirstRow, w.LastRow)
	}
	painted := paintedCells(rec, 220)
	if len(painted) != 50 {
		t.Errorf("painted %d cells, want 50", len(painted))
	}
	for it := range painted {
		if it.Row < 11 || it.Row > 20 {
			t.Errorf("painted %v outside rows 11..20", it)
		}
	}
}

func TestScrollClamps(t *testing.T) {
	g, _ := newTestGrid(textContent)

	g.ScrollTo(-50, 1e9)
	x, y := g.Scroll()
	if x != 0 || y != 1800 {
		t.Errorf("Scroll() = %v,%v, want 0,1800", x, y)
	}
	if g.ScrollTo(0, 1800) {
		t.Error("ScrollTo to the same position reported a change")
	}

	g.SetRowCount(5)
	if _, y := g.Scroll(); y != 0 {
		t.Errorf("scroll after shrinking = %v, want 0", y)
	}
}

func TestScrollToCell(t *testing.T) {
	g, _ := newTestGrid(textContent)

	tests := []struct {
		item    core.Item
		wantY   float64
		changed bool
	}{
		{core.NewItem(0, 50), 820, true}, // bottom-aligned
		{core.NewItem(1, 45), 820, false},
		{core.NewItem(2, 10), 200, true}, // top-aligned
		{core.NewItem(3, 15), 200, false},
		{core.NewItem(0, core.HeaderIndex), 200, false},
	}
	for _, tt := range tests {
		changed := g.ScrollToCell(tt.item)
		_, y := g.Scroll()
		if changed != tt.changed || y != tt.wantY {
			t.Errorf("ScrollToCell(%v) = %v, scrollY %v; want %v, %v", tt.item, changed, y, tt.changed, tt.wantY)
		}
	}
}

func TestHoverDamagesOnlyHoveredCells(t *testing.T) {
	g, rec := newTestGrid(textContent)
	g.ScrollTo(0, 200)
	render(t, g, rec)

	g.SetHover(250, 75) // column 2, row 12
	if it, ok := g.Hover(); !ok || it != core.NewItem(2, 12) {
		t.Fatalf("Hover() = %v, %v, want (2,12)", it, ok)
	}
	render(t, g, rec)
	painted := paintedCells(rec, 200)
	if len(painted) != 1 || !painted[core.NewItem(2, 12)] {
		t.Errorf("painted %v, want only (2,12)", painted)
	}

	g.SetHover(350, 75)
	render(t, g, rec)
	painted = paintedCells(rec, 200)
	if len(painted) != 2 || !painted[core.NewItem(2, 12)] || !painted[core.NewItem(3, 12)] {
		t.Errorf("painted %v, want (2,12) and (3,12)", painted)
	}

	g.ClearHover()
	render(t, g, rec)
	if st := g.Stats(); st.Last.Cells != 1 {
		t.Errorf("cells after ClearHover = %d, want 1", st.Last.Cells)
	}
}

func TestSelectionDamage(t *testing.T) {
	g, rec := newTestGrid(textContent)
	render(t, g, rec)

	g.SetSelection(selection.Empty().WithCell(core.NewItem(1, 3)))
	render(t, g, rec)
	if st := g.Stats(); st.Last.Cells != 1 {
		t.Errorf("cells after cell selection = %d, want 1", st.Last.Cells)
	}

	g.SetFocus(true)
	render(t, g, rec)
	if st := g.Stats(); st.Last.Cells != 1 {
		t.Errorf("cells after focus = %d, want 1", st.Last.Cells)
	}
	strokes := rec.OpsOfKind(surface.OpStroke)
	if len(strokes) != 1 {
		t.Fatalf("strokes = %v, want the focus ring", strokes)
	}

	sel := g.Selection().WithColumns(rangeset.FromIndex(3))
	g.SetSelection(sel)
	render(t, g, rec)
	st := g.Stats()
	if st.Last.Cells != 10 || st.Last.Headers != 1 {
		t.Errorf("column selection painted %d cells, %d headers, want 10 and 1", st.Last.Cells, st.Last.Headers)
	}

	g.SetSelection(sel)
	if g.NeedsRender() {
		t.Error("setting an equal selection damaged cells")
	}
}

func TestUpdateCells(t *testing.T) {
	calls := 0
	get := func(item core.Item) cell.Content {
		calls++
		return textContent(item)
	}
	g, rec := newTestGrid(get)
	render(t, g, rec)
	if calls != 50 {
		t.Fatalf("content calls = %d, want 50", calls)
	}

	g.UpdateCells([]core.Item{core.NewItem(0, 90)})
	if g.NeedsRender() {
		t.Error("update outside the window damaged the grid")
	}

	g.UpdateCells([]core.Item{core.NewItem(4, 9), core.NewItem(0, 90)})
	render(t, g, rec)
	if calls != 51 {
		t.Errorf("content calls = %d, want 51", calls)
	}
	painted := paintedCells(rec, 0)
	if len(painted) != 1 || !painted[core.NewItem(4, 9)] {
		t.Errorf("painted %v, want only (4,9)", painted)
	}
}

// hasText reports whether the op log painted s.
func hasText(rec *surface.Recorder, s string) bool {
	for _, op := range rec.OpsOfKind(surface.OpText) {
		if op.Text == s {
			return true
		}
	}
	return false
}

func TestAsyncUpdateBeforeCacheStore(t *testing.T) {
	kinds := make([]cell.Kind, testCols)
	for i := range kinds {
		kinds[i] = cell.KindText
	}
	var content *provider.Async
	// The first page finishes loading, and reports its cells, before the
	// getter hands its placeholder back to the cache.
	get := func(item core.Item) cell.Content {
		c := content.Get(item)
		if c != nil && c.Kind() == cell.KindLoading {
			content.Wait()
		}
		return c
	}
	g, rec := newTestGrid(get)
	content = provider.NewAsync(context.Background(), provider.NewSynthetic(kinds...), provider.AsyncConfig{
		Columns:  testCols,
		Rows:     testRows,
		PageRows: 64,
		OnUpdate: g.UpdateCells,
	})
	defer content.Close()

	render(t, g, rec)
	if e, ok := g.cache.Get(core.NewItem(0, 0)); ok && e.Content != nil && e.Content.Kind() == cell.KindLoading {
		t.Fatal("placeholder cached after its page loaded")
	}
	if !g.NeedsRender() {
		t.Fatal("loaded page did not damage the grid")
	}

	render(t, g, rec)
	if !paintedCells(rec, 0)[core.NewItem(0, 0)] {
		t.Error("loaded cell (0,0) was not repainted")
	}
	if !hasText(rec, "R0 C0") {
		t.Error("repaint did not draw the loaded text")
	}

	g.Invalidate()
	render(t, g, rec)
	if !hasText(rec, "R0 C0") {
		t.Error("full repaint drew the placeholder for (0,0)")
	}
	if !hasText(rec, "R9 C4") {
		t.Error("full repaint missed (4,9)")
	}
}

func TestSelectionRangeResizeRepaintsFocus(t *testing.T) {
	g, rec := newTestGrid(textContent)
	render(t, g, rec)

	focus := core.NewItem(2, 2)
	next := core.NewItem(3, 2)
	g.SetSelection(selection.Empty().WithCell(focus))
	render(t, g, rec)

	// Growing the range tints the focused cell as well as the new one.
	grown, err := g.Selection().WithRange(focus, selection.RangeBetween(focus, next))
	if err != nil {
		t.Fatalf("WithRange: %v", err)
	}
	g.SetSelection(grown)
	render(t, g, rec)
	painted := paintedCells(rec, 0)
	if len(painted) != 2 || !painted[focus] || !painted[next] {
		t.Errorf("grow painted %v, want %v and %v", painted, focus, next)
	}

	g.SetSelection(g.Selection().WithCell(focus))
	render(t, g, rec)
	painted = paintedCells(rec, 0)
	if len(painted) != 2 || !painted[focus] || !painted[next] {
		t.Errorf("shrink painted %v, want %v and %v", painted, focus, next)
	}
}

func TestRowSelectionDamagesMappedColumns(t *testing.T) {
	g, rec := newTestGrid(textContent)
	g.SetColumns(testColumns(6000))
	g.SetFreeze(1)
	g.ScrollTo(5000*testColWidth, 0)
	render(t, g, rec)

	w := g.Window()
	if w.LastCol-w.FirstCol < 1000 {
		t.Fatalf("window columns = %d..%d, want the sticky column and a far scroll", w.FirstCol, w.LastCol)
	}

	g.SetSelection(selection.Empty().WithRows(rangeset.FromIndex(3)))
	if n, want := g.tracker.Len(), len(w.Columns); n != want {
		t.Errorf("damaged cells = %d, want %d", n, want)
	}
}

func TestCustomRendererDispatch(t *testing.T) {
	target := core.NewItem(1, 2)
	get := func(item core.Item) cell.Content {
		if item == target {
			return &cell.Custom{KindName: "custom-progress", Data: 0.5}
		}
		return textContent(item)
	}
	g, rec := newTestGrid(get)

	draws := 0
	err := g.Registry().Register(&cellrender.Func{
		KindName: "custom-progress",
		DrawFunc: func(args *cellrender.DrawArgs) {
			if args.Item != target {
				t.Errorf("custom renderer drew %v", args.Item)
			}
			draws++
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	render(t, g, rec)
	if draws != 1 {
		t.Errorf("draws after first frame = %d, want 1", draws)
	}
	if st := g.Stats(); st.Last.Unsupported != 0 {
		t.Errorf("Unsupported = %d, want 0", st.Last.Unsupported)
	}

	render(t, g, rec)
	if draws != 1 {
		t.Errorf("draws after idle frame = %d, want 1", draws)
	}

	g.UpdateCells([]core.Item{target})
	render(t, g, rec)
	if draws != 2 {
		t.Errorf("draws after update = %d, want 2", draws)
	}
}

func TestCellAt(t *testing.T) {
	g, _ := newTestGrid(textContent)
	g.ScrollTo(0, 200)

	tests := []struct {
		x, y float64
		want core.Item
		ok   bool
	}{
		{250, 75, core.NewItem(2, 12), true},
		{0, 30, core.NewItem(0, 10), true},
		{499, 229, core.NewItem(4, 19), true},
		{250, 10, core.NewItem(2, core.HeaderIndex), true},
		{-1, 50, core.Item{}, false},
		{250, 230, core.Item{}, false},
	}
	for _, tt := range tests {
		got, ok := g.CellAt(tt.x, tt.y)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CellAt(%v, %v) = %v, %v, want %v, %v", tt.x, tt.y, got, ok, tt.want, tt.ok)
		}
	}

	r, ok := g.CellRect(core.NewItem(2, 12))
	if !ok || r != core.NewRect(200, 70, 100, 20) {
		t.Errorf("CellRect(2,12) = %v, %v", r, ok)
	}
	if _, ok := g.CellRect(core.NewItem(2, 50)); ok {
		t.Error("CellRect for an off-window row succeeded")
	}
}

func TestFrozenTrailingRows(t *testing.T) {
	g, rec := newTestGrid(textContent)
	g.SetFrozenTrailingRows(2)
	render(t, g, rec)

	// Body is 230 - 30 header - 40 frozen = 160 high: rows 0..7.
	if w := g.Window(); w.FirstRow != 0 || w.LastRow != 7 {
		t.Errorf("window rows = %d..%d, want 0..7", w.FirstRow, w.LastRow)
	}
	if it, ok := g.CellAt(10, 195); !ok || it != core.NewItem(0, 98) {
		t.Errorf("CellAt in frozen band = %v, %v, want (0,98)", it, ok)
	}
	if it, ok := g.CellAt(10, 215); !ok || it != core.NewItem(0, 99) {
		t.Errorf("CellAt in frozen band = %v, %v, want (0,99)", it, ok)
	}
	if r, ok := g.CellRect(core.NewItem(1, 99)); !ok || r != core.NewRect(100, 210, 100, 20) {
		t.Errorf("CellRect(1,99) = %v, %v", r, ok)
	}

	g.ScrollTo(0, 1e9)
	if _, y := g.Scroll(); y != 1800 {
		t.Errorf("max scroll with frozen rows = %v, want 1800", y)
	}

	// Frozen rows are damaged by content updates even though they are
	// outside the body window.
	render(t, g, rec)
	g.UpdateCells([]core.Item{core.NewItem(0, 99)})
	if !g.NeedsRender() {
		t.Error("update of a frozen row did not damage it")
	}
}

func TestResizeOnRender(t *testing.T) {
	g, _ := newTestGrid(textContent)
	rec := surface.NewRecorder(200, 130)
	if _, err := g.Render(context.Background(), rec); err != nil {
		t.Fatalf("Render: %v", err)
	}
	w := g.Window()
	if len(w.Columns) != 2 || w.LastRow != 4 {
		t.Errorf("window after resize = %v, want 2 columns and rows 0..4", w)
	}
}

func TestRenderCanceled(t *testing.T) {
	g, rec := newTestGrid(textContent)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Render(ctx, rec); err == nil {
		t.Error("Render with a canceled context succeeded")
	}
	if _, err := g.Render(context.Background(), nil); err == nil {
		t.Error("Render with a nil surface succeeded")
	}
}

func TestPredictionPrefetches(t *testing.T) {
	opts := DefaultOptions()
	opts.RowHeight = testRowHeight
	opts.HeaderHeight = testHeader
	opts.Prediction = true
	g := New(textContent, opts, nil)
	g.SetColumns(testColumns(testCols))
	g.SetRowCount(testRows)

	now := time.Unix(1000, 0)
	g.SetClock(func() time.Time { return now })
	rec := surface.NewRecorder(testWidth, testHeight)
	render(t, g, rec)

	for range 5 {
		now = now.Add(10 * time.Millisecond)
		g.ScrollBy(0, 40)
		render(t, g, rec)
	}

	st := g.Stats()
	if st.Prefetched == 0 {
		t.Error("no cells were prefetched while scrolling steadily")
	}
	if st.PredictionFailures != 0 {
		t.Errorf("PredictionFailures = %d, want 0", st.PredictionFailures)
	}
}

func TestPaste(t *testing.T) {
	get := func(item core.Item) cell.Content {
		c := textContent(item).(*cell.Text)
		c.B.Readonly = item.Col == 1
		return c
	}
	g, _ := newTestGrid(get)

	if res, err := g.Paste("x"); err != nil || res != nil {
		t.Errorf("Paste without a current cell = %v, %v", res, err)
	}

	g.SetSelection(selection.Empty().WithCell(core.NewItem(0, 98)))
	res, err := g.Paste("a\tb\tc\nd\te\tf\ng\th\ti")
	if err != nil {
		t.Fatalf("Paste: %v", err)
	}
	// Column 1 is read-only and row 100 does not exist.
	want := []core.Item{core.NewItem(0, 98), core.NewItem(2, 98), core.NewItem(0, 99), core.NewItem(2, 99)}
	if len(res) != len(want) {
		t.Fatalf("Paste results = %v, want %v", res, want)
	}
	for i, r := range res {
		if r.Item != want[i] {
			t.Errorf("result %d item = %v, want %v", i, r.Item, want[i])
		}
	}
	if got := res[3].Cell.(*cell.Text).Data; got != "f" {
		t.Errorf("pasted (2,99) = %q, want f", got)
	}
}

func BenchmarkRenderScroll(b *testing.B) {
	g, rec := newTestGrid(textContent)
	ctx := context.Background()
	for i := 0; b.Loop(); i++ {
		g.ScrollTo(0, float64(i%90)*testRowHeight)
		rec.Reset()
		_, _ = g.Render(ctx, rec)
	}
}
