package luacell

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// Renderer is a cell renderer implemented by a Lua script.
type Renderer struct {
	st   *state
	kind cell.Kind

	draw  *lua.LFunction
	acc   *lua.LFunction
	paste *lua.LFunction
	match *lua.LFunction

	// cur is the draw in progress; only read by the grid module functions,
	// which run while st is locked.
	cur *cellrender.DrawArgs
}

// Load compiles source and returns the renderer it defines.
func Load(name, source string) (*Renderer, error) {
	return LoadWithTimeout(name, source, DefaultCallTimeout)
}

// LoadWithTimeout is Load with a custom per-call timeout; zero disables it.
func LoadWithTimeout(name, source string, timeout time.Duration) (*Renderer, error) {
	r := &Renderer{st: newState(timeout)}
	r.st.L.SetGlobal("grid", r.st.L.SetFuncs(r.st.L.NewTable(), map[string]lua.LGFunction{
		"fill":    r.luaFill,
		"stroke":  r.luaStroke,
		"text":    r.luaText,
		"measure": r.luaMeasure,
	}))

	ret, err := r.st.run(name, source)
	if err != nil {
		r.st.close()
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		r.st.close()
		return nil, fmt.Errorf("load %s: script returned %s, want table", name, ret.Type())
	}

	kind, _ := tbl.RawGetString("kind").(lua.LString)
	if kind == "" {
		r.st.close()
		return nil, fmt.Errorf("load %s: %w", name, ErrNoKind)
	}
	r.kind = cell.Kind(kind)

	r.draw, _ = tbl.RawGetString("draw").(*lua.LFunction)
	if r.draw == nil {
		r.st.close()
		return nil, fmt.Errorf("load %s: %w", name, ErrNoDraw)
	}
	r.acc, _ = tbl.RawGetString("accessibility").(*lua.LFunction)
	r.paste, _ = tbl.RawGetString("paste").(*lua.LFunction)
	r.match, _ = tbl.RawGetString("match").(*lua.LFunction)
	return r, nil
}

// LoadFile loads a renderer script from disk.
func LoadFile(path string) (*Renderer, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(filepath.Base(path), string(src))
}

// RegisterDir loads every *.lua file in dir into reg. Scripts that fail to
// load are logged and skipped; the loaded renderers are returned so the
// caller can close them.
func RegisterDir(reg *cellrender.Registry, dir string, logger core.Logger) ([]*Renderer, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []*Renderer
	for _, p := range paths {
		r, err := LoadFile(p)
		if err != nil {
			logger.Warn("skipping renderer script %s: %v", p, err)
			continue
		}
		if err := reg.Register(r); err != nil {
			logger.Warn("skipping renderer script %s: %v", p, err)
			r.Close()
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Close releases the Lua state.
func (r *Renderer) Close() {
	r.st.close()
}

func (r *Renderer) Kind() cell.Kind { return r.kind }

// Draw calls the script's draw function. Script errors panic.
func (r *Renderer) Draw(args *cellrender.DrawArgs) {
	_, err := r.st.call(r.draw, func(L *lua.LState) []lua.LValue {
		r.cur = args
		return []lua.LValue{cellTable(L, args.Cell, args), rectTable(L, args.Rect)}
	})
	r.cur = nil
	if err != nil {
		panic(fmt.Errorf("lua renderer %s: %w", r.kind, err))
	}
}

// AccessibilityString returns the script's text for c, falling back to the
// custom cell's copy data.
func (r *Renderer) AccessibilityString(c cell.Content) string {
	if r.acc != nil {
		rets, err := r.st.call(r.acc, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{cellTable(L, c, nil)}
		})
		if err == nil && len(rets) > 0 {
			if s, ok := rets[0].(lua.LString); ok {
				return string(s)
			}
		}
		return ""
	}
	if cc, ok := c.(*cell.Custom); ok {
		return cc.CopyData
	}
	return ""
}

// OnPaste asks the script's paste function for the new data. A nil result
// rejects the paste.
func (r *Renderer) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	cc, ok := c.(*cell.Custom)
	if !ok || r.paste == nil {
		return nil, false
	}
	rets, err := r.st.call(r.paste, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{cellTable(L, c, nil), lua.LString(text)}
	})
	if err != nil || len(rets) == 0 || rets[0] == lua.LNil {
		return nil, false
	}
	out := *cc
	out.Data = fromLua(rets[0])
	out.CopyData = text
	return &out, true
}

// IsMatch uses the script's match function, or a case-insensitive search
// of the accessibility string.
func (r *Renderer) IsMatch(c cell.Content, text string) bool {
	if r.match != nil {
		rets, err := r.st.call(r.match, func(L *lua.LState) []lua.LValue {
			return []lua.LValue{cellTable(L, c, nil), lua.LString(text)}
		})
		return err == nil && len(rets) > 0 && lua.LVAsBool(rets[0])
	}
	return strings.Contains(strings.ToLower(r.AccessibilityString(c)), strings.ToLower(text))
}

func (r *Renderer) args(L *lua.LState) *cellrender.DrawArgs {
	if r.cur == nil {
		L.RaiseError("grid drawing is only available inside draw")
	}
	return r.cur
}

func checkColor(L *lua.LState, n int) core.Color {
	c, err := core.ColorFromHex(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return c
}

func checkRect(L *lua.LState) core.Rect {
	return core.NewRect(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)),
		float64(L.CheckNumber(3)), float64(L.CheckNumber(4)))
}

// grid.fill(x, y, w, h, color)
func (r *Renderer) luaFill(L *lua.LState) int {
	a := r.args(L)
	a.Surface.FillRect(checkRect(L), checkColor(L, 5))
	return 0
}

// grid.stroke(x, y, w, h, color [, width])
func (r *Renderer) luaStroke(L *lua.LState) int {
	a := r.args(L)
	a.Surface.StrokeRect(checkRect(L), checkColor(L, 5), float64(L.OptNumber(6, 1)))
	return 0
}

// grid.text(x, y, s [, color])
func (r *Renderer) luaText(L *lua.LState) int {
	a := r.args(L)
	color := a.Theme.TextDark
	if L.GetTop() >= 4 {
		color = checkColor(L, 4)
	}
	a.Surface.Text(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), L.CheckString(3),
		cellrender.TextStyle(a.Theme, color))
	return 0
}

// grid.measure(s)
func (r *Renderer) luaMeasure(L *lua.LState) int {
	a := r.args(L)
	w := a.Surface.MeasureText(L.CheckString(1), cellrender.TextStyle(a.Theme, a.Theme.TextDark))
	L.Push(lua.LNumber(w))
	return 1
}
