package luacell

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

const progressScript = `
return {
  kind = "progress",
  draw = function(cell, rect)
    grid.fill(rect.x, rect.y, rect.w * cell.data, rect.h, "#4F5DFF")
    grid.text(rect.x + 4, rect.y + rect.h / 2, cell.text)
  end,
  accessibility = function(cell)
    return string.format("%d%%", cell.data * 100)
  end,
  paste = function(cell, text)
    local v = tonumber(text)
    if v == nil or v < 0 or v > 1 then return nil end
    return v
  end,
}
`

func progressCell(v float64, label string) *cell.Custom {
	return &cell.Custom{B: cell.Base{AllowOverlay: true}, KindName: "progress", Data: v, CopyData: label}
}

func drawArgs(rec *surface.Recorder, c cell.Content) *cellrender.DrawArgs {
	return &cellrender.DrawArgs{
		Surface: rec,
		Theme:   core.DefaultTheme(),
		Rect:    core.NewRect(100, 50, 200, 20),
		Cell:    c,
		Item:    core.NewItem(1, 2),
	}
}

func TestLoadAndDraw(t *testing.T) {
	r, err := Load("progress.lua", progressScript)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	if r.Kind() != "progress" {
		t.Errorf("Kind() = %q, want progress", r.Kind())
	}

	rec := surface.NewRecorder(400, 200)
	r.Draw(drawArgs(rec, progressCell(0.5, "half")))

	ops := rec.Ops()
	if len(ops) != 2 {
		t.Fatalf("ops = %v, want fill and text", ops)
	}
	if ops[0].Kind != surface.OpFill || ops[0].Rect != core.NewRect(100, 50, 100, 20) {
		t.Errorf("fill = %v, want 100,50 100x20", ops[0])
	}
	if ops[0].Color != core.MustHex("#4F5DFF") {
		t.Errorf("fill color = %v", ops[0].Color)
	}
	if ops[1].Kind != surface.OpText || ops[1].Text != "half" || ops[1].Rect.X != 104 || ops[1].Rect.Y != 60 {
		t.Errorf("text = %v, want \"half\" at 104,60", ops[1])
	}
	if ops[1].Color != core.DefaultTheme().TextDark {
		t.Errorf("text color = %v, want theme TextDark", ops[1].Color)
	}
}

func TestAccessibilityAndMatch(t *testing.T) {
	r, err := Load("progress.lua", progressScript)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	c := progressCell(0.25, "quarter")
	if got := r.AccessibilityString(c); got != "25%" {
		t.Errorf("AccessibilityString() = %q, want %q", got, "25%")
	}
	if !r.IsMatch(c, "25") {
		t.Error("IsMatch(25) = false, want true")
	}
	if r.IsMatch(c, "99") {
		t.Error("IsMatch(99) = true, want false")
	}
}

func TestPaste(t *testing.T) {
	r, err := Load("progress.lua", progressScript)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	orig := progressCell(0.1, "")
	got, ok := r.OnPaste("0.75", orig)
	if !ok {
		t.Fatal("OnPaste(0.75) rejected")
	}
	if v := got.(*cell.Custom).Data; v != 0.75 {
		t.Errorf("pasted data = %v, want 0.75", v)
	}
	if orig.Data != 0.1 {
		t.Error("OnPaste modified the original cell")
	}
	if _, ok := r.OnPaste("2", orig); ok {
		t.Error("OnPaste(2) accepted, want rejection")
	}
	if _, ok := r.OnPaste("0.5", cell.NewText("x")); ok {
		t.Error("OnPaste on a non-custom cell accepted")
	}
}

func TestDrawErrorPanics(t *testing.T) {
	r, err := Load("bad.lua", `return { kind = "bad", draw = function(cell, rect) error("boom") end }`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	defer func() {
		p := recover()
		if p == nil {
			t.Fatal("Draw did not panic")
		}
		if !strings.Contains(p.(error).Error(), "boom") {
			t.Errorf("panic = %v, want it to mention boom", p)
		}
	}()
	r.Draw(drawArgs(surface.NewRecorder(10, 10), &cell.Custom{KindName: "bad"}))
}

func TestDrawBadColorPanics(t *testing.T) {
	r, err := Load("color.lua", `return { kind = "c", draw = function() grid.fill(0, 0, 1, 1, "nope") end }`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	defer func() {
		if recover() == nil {
			t.Error("Draw with a bad color did not panic")
		}
	}()
	r.Draw(drawArgs(surface.NewRecorder(10, 10), &cell.Custom{KindName: "c"}))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `return {`, "load"},
		{"not a table", `return 42`, "want table"},
		{"no kind", `return { draw = function() end }`, ErrNoKind.Error()},
		{"no draw", `return { kind = "x" }`, ErrNoDraw.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.name, tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSandbox(t *testing.T) {
	for _, fn := range []string{"dofile", "loadfile", "load", "require"} {
		src := `assert(` + fn + ` == nil) return { kind = "s", draw = function() end }`
		r, err := Load("sandbox", src)
		if err != nil {
			t.Errorf("%s is reachable: %v", fn, err)
			continue
		}
		r.Close()
	}
	if _, err := Load("io", `return { kind = io.open("x") }`); err == nil {
		t.Error("io library is reachable")
	}
}

func TestCallTimeout(t *testing.T) {
	r, err := LoadWithTimeout("loop.lua", `return { kind = "loop", draw = function() while true do end end }`, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	defer func() {
		if recover() == nil {
			t.Error("runaway draw did not panic")
		}
	}()
	r.Draw(drawArgs(surface.NewRecorder(10, 10), &cell.Custom{KindName: "loop"}))
}

func TestClosedState(t *testing.T) {
	r, err := Load("progress.lua", progressScript)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r.Close()
	r.Close()
	if got := r.AccessibilityString(progressCell(0.5, "")); got != "" {
		t.Errorf("AccessibilityString after Close = %q, want empty", got)
	}
}

func TestRegisterDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a_progress.lua", progressScript)
	write("b_broken.lua", `return 1`)
	write("c_dup.lua", `return { kind = "progress", draw = function() end }`)
	write("notes.txt", `ignored`)

	reg := cellrender.NewEmptyRegistry()
	loaded, err := RegisterDir(reg, dir, nil)
	if err != nil {
		t.Fatalf("RegisterDir: %v", err)
	}
	defer func() {
		for _, r := range loaded {
			r.Close()
		}
	}()

	if len(loaded) != 2 {
		t.Errorf("loaded %d renderers, want 2", len(loaded))
	}
	if _, ok := reg.Lookup("progress"); !ok {
		t.Error("progress renderer not registered")
	}
}

func TestConvert(t *testing.T) {
	r, err := Load("echo.lua", `return {
	  kind = "echo",
	  draw = function() end,
	  paste = function(cell, text) return { n = 1, list = { "a", "b" } } end,
	}`)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer r.Close()

	got, ok := r.OnPaste("x", &cell.Custom{KindName: "echo", Data: map[string]any{"k": []any{1, "two"}}})
	if !ok {
		t.Fatal("OnPaste rejected")
	}
	m, ok := got.(*cell.Custom).Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v, want map", got.(*cell.Custom).Data)
	}
	if m["n"] != 1.0 {
		t.Errorf("n = %v, want 1", m["n"])
	}
	list, ok := m["list"].([]any)
	if !ok || len(list) != 2 || list[1] != "b" {
		t.Errorf("list = %#v, want [a b]", m["list"])
	}
}
