package draw

import (
	"fmt"
	"slices"
	"testing"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/damage"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/selection"
	"github.com/dshills/gridstorm/internal/grid/surface"
	"github.com/dshills/gridstorm/internal/grid/virtual"
)

const (
	testCols      = 5
	testRows      = 100
	testColWidth  = 100
	testRowHeight = 20
	testHeader    = 30
	testWidth     = 500
	testHeight    = 330
)

type captureLogger struct {
	warns  []string
	errors []string
}

func (l *captureLogger) Debug(string, ...any) {}
func (l *captureLogger) Warn(msg string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(msg, args...))
}
func (l *captureLogger) Error(msg string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(msg, args...))
}

func textContent(item core.Item) cell.Content {
	return cell.NewText(fmt.Sprintf("%d,%d", item.Col, item.Row))
}

// newFrame builds a 5x100 grid frame on a recorder, scrolled to scrollY.
func newFrame(get func(core.Item) cell.Content, frozen int, scrollY float64) (*Frame, *surface.Recorder) {
	rec := surface.NewRecorder(testWidth, testHeight)
	defs := make([]geometry.Column, testCols)
	for i := range defs {
		defs[i] = geometry.Column{ID: fmt.Sprintf("c%d", i), Title: fmt.Sprintf("C%d", i), Width: testColWidth}
	}
	cols := geometry.NewColumnLayout(defs, 0, nil)
	rows := geometry.NewRowLayout(testRows, geometry.FixedRows(testRowHeight))
	header := geometry.NewHeader(testHeader, 0, defs)
	fr := rows.FrozenRowsLayout(frozen, testHeight)
	win := virtual.ComputeWindow(cols, rows, virtual.Viewport{
		ScrollY:    scrollY,
		Width:      testWidth,
		Height:     fr.Y - header.Total(),
		FrozenRows: frozen,
	})
	return &Frame{
		Surface:   rec,
		Theme:     core.DefaultTheme(),
		Window:    win,
		Rows:      rows,
		Header:    header,
		ScrollY:   scrollY,
		Frozen:    fr,
		Selection: selection.Empty(),
		Content:   get,
		Registry:  cellrender.NewRegistry(),
	}, rec
}

func cellRect(col, row int, scrollY float64) core.Rect {
	return core.NewRect(float64(col*testColWidth), testHeader+float64(row*testRowHeight)-scrollY, testColWidth, testRowHeight)
}

// cellOps returns the op kinds painted for the cell whose clip is rect.
func cellOps(ops []surface.Op, rect core.Rect) []surface.OpKind {
	start := -1
	for i, op := range ops {
		if op.Kind == surface.OpClip && op.Rect == rect {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	var out []surface.OpKind
	for _, op := range ops[start+1:] {
		if op.Kind == surface.OpRestore {
			break
		}
		out = append(out, op.Kind)
	}
	return out
}

func indexOfClip(ops []surface.Op, rect core.Rect) int {
	for i, op := range ops {
		if op.Kind == surface.OpClip && op.Rect == rect {
			return i
		}
	}
	return -1
}

func TestDrawFullFrame(t *testing.T) {
	f, rec := newFrame(textContent, 0, 0)
	stats := NewDrawer(nil).Draw(f)

	if stats.Cells != testCols*15 {
		t.Errorf("Cells = %d, want %d", stats.Cells, testCols*15)
	}
	if stats.Headers != testCols {
		t.Errorf("Headers = %d, want %d", stats.Headers, testCols)
	}
	if rec.Depth() != 0 {
		t.Errorf("Depth() = %d, want balanced save/restore", rec.Depth())
	}
	texts := rec.OpsOfKind(surface.OpText)
	if texts[0].Text != "C0" {
		t.Errorf("first text = %q, want header C0", texts[0].Text)
	}
}

func TestDrawDeterministic(t *testing.T) {
	sel, err := selection.Empty().WithRange(core.NewItem(1, 1), selection.Range{X: 1, Y: 1, Width: 2, Height: 3})
	if err != nil {
		t.Fatal(err)
	}

	var runs [][]surface.Op
	for i := 0; i < 3; i++ {
		f, rec := newFrame(textContent, 2, 45)
		f.Selection = sel
		f.HasFocus = true
		f.Hover = &Hover{Item: core.NewItem(2, 4), X: 250, Y: 100}
		NewDrawer(nil).Draw(f)
		runs = append(runs, rec.Ops())
	}
	for i := 1; i < len(runs); i++ {
		if !slices.Equal(runs[0], runs[i]) {
			t.Fatalf("run %d produced a different op sequence", i)
		}
	}
}

func TestDrawDamageMinimality(t *testing.T) {
	f, rec := newFrame(textContent, 0, 0)
	f.Damage = damage.NewSet(core.NewItem(3, 4))
	stats := NewDrawer(nil).Draw(f)

	if stats.Cells != 1 {
		t.Errorf("Cells = %d, want 1", stats.Cells)
	}
	if stats.Headers != 0 {
		t.Errorf("Headers = %d, want 0", stats.Headers)
	}
	target := cellRect(3, 4, 0)
	fills := rec.OpsOfKind(surface.OpFill)
	if len(fills) != 1 {
		t.Fatalf("fills = %v, want exactly one background fill", fills)
	}
	if fills[0].Rect != target {
		t.Errorf("fill rect = %v, want %v", fills[0].Rect, target)
	}
	texts := rec.OpsOfKind(surface.OpText)
	if len(texts) != 1 || texts[0].Text != "3,4" {
		t.Errorf("texts = %v, want only 3,4", texts)
	}
}

func TestDrawCellSequence(t *testing.T) {
	editable := func(item core.Item) cell.Content {
		return &cell.Text{B: cell.Base{AllowOverlay: true}, Data: "hi"}
	}
	f, rec := newFrame(editable, 0, 0)
	item := core.NewItem(1, 1)
	sel, err := selection.Empty().WithRange(item, selection.Range{X: 1, Y: 1, Width: 2, Height: 2})
	if err != nil {
		t.Fatal(err)
	}
	rect := cellRect(1, 1, 0)
	f.Selection = sel
	f.HasFocus = true
	f.Hover = &Hover{Item: item, X: rect.X + 5, Y: rect.Y + 5}
	f.VerticalBorders = true
	f.Damage = damage.NewSet(item)

	NewDrawer(nil).Draw(f)

	want := []surface.OpKind{
		surface.OpFill,   // 1. background
		surface.OpText,   // 3. content
		surface.OpLine,   // 4. vertical border
		surface.OpLine,   //    horizontal border
		surface.OpFill,   // 5. edit affordance
		surface.OpFill,   // 6. selection tint
		surface.OpStroke, // 7. focus ring
	}
	got := cellOps(rec.Ops(), rect)
	if !slices.Equal(got, want) {
		t.Errorf("cell ops = %v, want %v", got, want)
	}

	fills := rec.OpsOfKind(surface.OpFill)
	theme := core.DefaultTheme()
	if fills[len(fills)-1].Color != theme.AccentLight {
		t.Errorf("tint color = %v, want %v", fills[len(fills)-1].Color, theme.AccentLight)
	}
}

func TestDrawSoleFocusNotTinted(t *testing.T) {
	f, rec := newFrame(textContent, 0, 0)
	item := core.NewItem(2, 2)
	f.Selection = selection.Empty().WithCell(item)
	f.HasFocus = true
	f.Damage = damage.NewSet(item)
	NewDrawer(nil).Draw(f)

	got := cellOps(rec.Ops(), cellRect(2, 2, 0))
	want := []surface.OpKind{surface.OpFill, surface.OpText, surface.OpLine, surface.OpStroke}
	if !slices.Equal(got, want) {
		t.Errorf("cell ops = %v, want %v", got, want)
	}

	f2, rec2 := newFrame(textContent, 0, 0)
	f2.Selection = selection.Empty().WithCell(item)
	f2.HasFocus = false
	f2.Damage = damage.NewSet(item)
	NewDrawer(nil).Draw(f2)
	if n := len(rec2.OpsOfKind(surface.OpStroke)); n != 0 {
		t.Errorf("focus ring drawn without focus: %d strokes", n)
	}
}

func TestDrawCustomRendererDispatch(t *testing.T) {
	calls := 0
	progress := &cellrender.Func{
		KindName: "custom-progress",
		DrawFunc: func(args *cellrender.DrawArgs) {
			calls++
			args.Surface.FillRect(args.Rect.Inset(4, 4), core.MustHex("#00FF00"))
		},
	}
	target := core.NewItem(2, 3)
	get := func(item core.Item) cell.Content {
		if item == target {
			return &cell.Custom{KindName: "custom-progress", Data: 0.5}
		}
		return textContent(item)
	}

	f, _ := newFrame(get, 0, 0)
	if err := f.Registry.Register(progress); err != nil {
		t.Fatal(err)
	}
	d := NewDrawer(nil)

	stats := d.Draw(f)
	if calls != 1 {
		t.Errorf("calls after first frame = %d, want 1", calls)
	}
	if stats.Unsupported != 0 {
		t.Errorf("Unsupported = %d, want 0", stats.Unsupported)
	}

	f.Surface = surface.NewRecorder(testWidth, testHeight)
	stats = d.Draw(f)
	if calls != 2 {
		t.Errorf("calls after second frame = %d, want 2", calls)
	}
	if stats.Unsupported != 0 {
		t.Errorf("Unsupported = %d, want 0", stats.Unsupported)
	}
}

func TestDrawUnknownKind(t *testing.T) {
	get := func(item core.Item) cell.Content {
		if item == core.NewItem(0, 0) {
			return &cell.Custom{KindName: "mystery"}
		}
		return textContent(item)
	}
	log := &captureLogger{}
	d := NewDrawer(log)

	for i := 0; i < 2; i++ {
		f, rec := newFrame(get, 0, 0)
		stats := d.Draw(f)
		if stats.Unsupported != 1 {
			t.Errorf("frame %d: Unsupported = %d, want 1", i, stats.Unsupported)
		}
		found := false
		for _, op := range rec.OpsOfKind(surface.OpFill) {
			if op.Color == cellrender.UnsupportedColor && op.Rect == cellRect(0, 0, 0) {
				found = true
			}
		}
		if !found {
			t.Errorf("frame %d: placeholder not painted", i)
		}
	}
	if len(log.warns) != 1 {
		t.Errorf("warnings = %v, want exactly one", log.warns)
	}
}

func TestDrawRecoversPanics(t *testing.T) {
	boom := &cellrender.Func{
		KindName: "boom",
		DrawFunc: func(*cellrender.DrawArgs) { panic("bad cell") },
	}
	get := func(item core.Item) cell.Content {
		if item == core.NewItem(1, 1) {
			return &cell.Custom{KindName: "boom"}
		}
		return textContent(item)
	}
	log := &captureLogger{}
	f, rec := newFrame(get, 0, 0)
	if err := f.Registry.Register(boom); err != nil {
		t.Fatal(err)
	}

	stats := NewDrawer(log).Draw(f)
	if stats.Panics != 1 {
		t.Errorf("Panics = %d, want 1", stats.Panics)
	}
	if stats.Cells != testCols*15 {
		t.Errorf("Cells = %d, want the whole window", stats.Cells)
	}
	if len(log.errors) != 1 {
		t.Errorf("errors logged = %d, want 1", len(log.errors))
	}
	found := false
	for _, op := range rec.OpsOfKind(surface.OpFill) {
		if op.Color == cellrender.ErrorColor && op.Rect == cellRect(1, 1, 0) {
			found = true
		}
	}
	if !found {
		t.Error("error placeholder not painted")
	}
	if rec.Depth() != 0 {
		t.Errorf("Depth() = %d after panic, want 0", rec.Depth())
	}
}

func spanContent(item core.Item) cell.Content {
	if item == core.NewItem(0, 2) {
		c := cell.NewText("a long title spanning three columns")
		c.B.Span = &cell.Span{Start: 0, End: 2}
		return c
	}
	if item.Row == 2 && item.Col <= 2 {
		return cell.NewText("")
	}
	return textContent(item)
}

func TestDrawSpanOverlay(t *testing.T) {
	f, rec := newFrame(spanContent, 0, 0)
	stats := NewDrawer(nil).Draw(f)

	if stats.Spans != 1 {
		t.Fatalf("Spans = %d, want 1", stats.Spans)
	}
	ops := rec.Ops()
	spanClip := indexOfClip(ops, core.NewRect(0, testHeader+40, 300, testRowHeight))
	lastCell := indexOfClip(ops, cellRect(4, 14, 0))
	if spanClip < 0 || lastCell < 0 {
		t.Fatalf("clips not found: span=%d last=%d", spanClip, lastCell)
	}
	if spanClip < lastCell {
		t.Errorf("span overlay at op %d painted before last body cell at op %d", spanClip, lastCell)
	}
}

func TestDrawSpanOwnerScrolledOut(t *testing.T) {
	get := func(item core.Item) cell.Content {
		if item.Row == 2 && item.Col <= 2 {
			text := ""
			if item.Col == 0 {
				text = "owner"
			}
			c := cell.NewText(text)
			c.B.Span = &cell.Span{Start: 0, End: 2}
			return c
		}
		return textContent(item)
	}
	f, rec := newFrame(get, 0, 0)
	defs := make([]geometry.Column, testCols)
	for i := range defs {
		defs[i] = geometry.Column{ID: fmt.Sprintf("c%d", i), Width: testColWidth}
	}
	f.Window = virtual.ComputeWindow(geometry.NewColumnLayout(defs, 0, nil), f.Rows, virtual.Viewport{
		ScrollX: 150,
		Width:   testWidth,
		Height:  testHeight - testHeader,
	})
	if f.Window.ContainsCol(0) {
		t.Fatalf("window %s still maps column 0", f.Window)
	}

	stats := NewDrawer(nil).Draw(f)
	if stats.Spans != 1 {
		t.Fatalf("Spans = %d, want 1", stats.Spans)
	}
	found := false
	for _, op := range rec.OpsOfKind(surface.OpText) {
		if op.Text == "owner" {
			found = true
		}
	}
	if !found {
		t.Error("owner content was not painted over the visible span columns")
	}
}

func TestDrawSpanDamageExpands(t *testing.T) {
	f, _ := newFrame(spanContent, 0, 0)
	f.Damage = damage.NewSet(core.NewItem(1, 2))
	stats := NewDrawer(nil).Draw(f)

	if stats.Cells != 3 {
		t.Errorf("Cells = %d, want 3 (whole span repainted)", stats.Cells)
	}
	if stats.Spans != 1 {
		t.Errorf("Spans = %d, want 1", stats.Spans)
	}
}

func TestDrawFrozenRowsLast(t *testing.T) {
	for _, scrollY := range []float64{0, 500} {
		f, rec := newFrame(textContent, 2, scrollY)
		NewDrawer(nil).Draw(f)

		ops := rec.Ops()
		frozen98 := indexOfClip(ops, core.NewRect(0, 290, testColWidth, testRowHeight))
		frozen99 := indexOfClip(ops, core.NewRect(0, 310, testColWidth, testRowHeight))
		if frozen98 < 0 || frozen99 < 0 {
			t.Fatalf("scrollY=%v: frozen rows not drawn at the bottom", scrollY)
		}
		lastBody := f.Window.LastRow
		body := indexOfClip(ops, cellRect(4, lastBody, scrollY))
		if body < 0 {
			t.Fatalf("scrollY=%v: last body cell not found", scrollY)
		}
		if frozen98 < body {
			t.Errorf("scrollY=%v: frozen row drawn before body", scrollY)
		}
		if f.Window.LastRow >= 98 {
			t.Errorf("scrollY=%v: body window includes frozen rows", scrollY)
		}
	}
}

func TestDrawCleanRegionSkipsBackground(t *testing.T) {
	f, rec := newFrame(textContent, 0, 0)
	clean := cellRect(0, 0, 0)
	f.CleanRegions = []core.Rect{clean}
	stats := NewDrawer(nil).Draw(f)

	if stats.SkippedBg != 1 {
		t.Errorf("SkippedBg = %d, want 1", stats.SkippedBg)
	}
	for _, op := range rec.OpsOfKind(surface.OpFill) {
		if op.Rect == clean {
			t.Error("background painted over clean region")
		}
	}
}

func TestDrawPreparerRuns(t *testing.T) {
	f, _ := newFrame(textContent, 0, 0)
	stats := NewDrawer(nil).Draw(f)
	if stats.Prepares != 1 {
		t.Errorf("Prepares = %d, want 1 for uniformly styled text", stats.Prepares)
	}

	alternating := func(item core.Item) cell.Content {
		c := cell.NewText("x")
		if item.Row%2 == 1 {
			c.B.Style = "faded"
		}
		return c
	}
	f2, _ := newFrame(alternating, 0, 0)
	f2.Damage = damage.NewSet(core.NewItem(0, 0), core.NewItem(0, 1), core.NewItem(0, 2))
	stats = NewDrawer(nil).Draw(f2)
	if stats.Prepares != 3 {
		t.Errorf("Prepares = %d, want 3 for alternating styles", stats.Prepares)
	}
}

func TestDrawRowThemeAndDisabled(t *testing.T) {
	red := core.MustHex("#FF0000")
	f, rec := newFrame(textContent, 0, 0)
	f.RowTheme = func(row int) *core.Theme {
		if row == 2 {
			return &core.Theme{BgCell: red}
		}
		return nil
	}
	f.DisabledRow = func(row int) bool { return row == 2 || row == 3 }
	f.Damage = damage.NewSet(core.NewItem(0, 2), core.NewItem(0, 3))
	NewDrawer(nil).Draw(f)

	fills := rec.OpsOfKind(surface.OpFill)
	if len(fills) != 2 {
		t.Fatalf("fills = %v, want 2", fills)
	}
	if fills[0].Color != red {
		t.Errorf("row 2 bg = %v, want override %v", fills[0].Color, red)
	}
	if fills[1].Color != f.Theme.BgCellMedium {
		t.Errorf("row 3 bg = %v, want disabled %v", fills[1].Color, f.Theme.BgCellMedium)
	}
}

func TestDrawOverrideHook(t *testing.T) {
	f, rec := newFrame(textContent, 0, 0)
	hooked := 0
	f.DrawOverride = func(args *cellrender.DrawArgs) bool {
		if args.Item.Col != 0 {
			return false
		}
		hooked++
		return true
	}
	NewDrawer(nil).Draw(f)

	if hooked != 15 {
		t.Errorf("hooked = %d, want 15", hooked)
	}
	for _, op := range rec.OpsOfKind(surface.OpText) {
		if op.Text == "0,0" {
			t.Error("column 0 content painted despite override")
		}
	}
}

func TestDrawStructuralKinds(t *testing.T) {
	get := func(item core.Item) cell.Content {
		switch item.Col {
		case 0:
			return &cell.Marker{Row: item.Row}
		case 1:
			if item.Row == 0 {
				return &cell.NewRow{Hint: "Add row"}
			}
		}
		return textContent(item)
	}
	f, rec := newFrame(get, 0, 0)
	f.Registry = cellrender.NewEmptyRegistry()
	f.Damage = damage.NewSet(core.NewItem(0, 4), core.NewItem(1, 0))
	stats := NewDrawer(nil).Draw(f)

	if stats.Unsupported != 0 {
		t.Errorf("Unsupported = %d, want 0 for structural kinds", stats.Unsupported)
	}
	var texts []string
	for _, op := range rec.OpsOfKind(surface.OpText) {
		texts = append(texts, op.Text)
	}
	if !slices.Contains(texts, "5") || !slices.Contains(texts, "+ Add row") {
		t.Errorf("texts = %q, want row number 5 and new-row hint", texts)
	}
}

func BenchmarkDrawFullFrame(b *testing.B) {
	f, rec := newFrame(textContent, 0, 0)
	d := NewDrawer(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec.Reset()
		d.Draw(f)
	}
}
