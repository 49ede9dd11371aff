package luacell

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/cellrender"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// cellTable exposes c to a script. args adds the draw-time fields.
func cellTable(L *lua.LState, c cell.Content, args *cellrender.DrawArgs) *lua.LTable {
	t := L.NewTable()
	if c == nil {
		return t
	}
	b := c.Base()
	t.RawSetString("kind", lua.LString(c.Kind()))
	t.RawSetString("readonly", lua.LBool(b.Readonly))
	t.RawSetString("style", lua.LString(b.Style))

	switch v := c.(type) {
	case *cell.Custom:
		t.RawSetString("data", toLua(L, v.Data))
		t.RawSetString("text", lua.LString(v.CopyData))
	case *cell.Text:
		t.RawSetString("data", lua.LString(v.Data))
		t.RawSetString("text", lua.LString(v.DisplayData))
	case *cell.Number:
		if v.Data != nil {
			t.RawSetString("data", lua.LNumber(*v.Data))
		}
		t.RawSetString("text", lua.LString(v.DisplayData))
	case *cell.Boolean:
		if v.Data != nil {
			t.RawSetString("data", lua.LBool(*v.Data))
		}
	case *cell.URI:
		t.RawSetString("data", lua.LString(v.Data))
		t.RawSetString("text", lua.LString(v.DisplayData))
	}

	if args != nil {
		t.RawSetString("col", lua.LNumber(args.Item.Col))
		t.RawSetString("row", lua.LNumber(args.Item.Row))
		t.RawSetString("hovered", lua.LBool(args.Hovered))
		t.RawSetString("highlighted", lua.LBool(args.Highlighted))
	}
	return t
}

func rectTable(L *lua.LState, r core.Rect) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(r.X))
	t.RawSetString("y", lua.LNumber(r.Y))
	t.RawSetString("w", lua.LNumber(r.Width))
	t.RawSetString("h", lua.LNumber(r.Height))
	return t
}

// toLua converts a Go value to a Lua value.
func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case string:
		return lua.LString(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float32:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case []any:
		t := L.CreateTable(len(x), 0)
		for _, e := range x {
			t.Append(toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(x))
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, x[k]))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", x))
	}
}

// fromLua converts a Lua value to a Go value. Tables with keys 1..n become
// slices; other tables become maps keyed by the string form of the key.
func fromLua(lv lua.LValue) any {
	return fromLuaVisited(lv, make(map[*lua.LTable]bool))
}

func fromLuaVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		if n := v.Len(); n > 0 && countKeys(v) == n {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, fromLuaVisited(v.RawGetInt(i), visited))
			}
			return out
		}
		out := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			out[k.String()] = fromLuaVisited(val, visited)
		})
		return out
	default:
		return nil
	}
}

func countKeys(t *lua.LTable) int {
	n := 0
	t.ForEach(func(lua.LValue, lua.LValue) { n++ })
	return n
}
