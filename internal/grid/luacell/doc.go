// Package luacell lets Lua scripts define cell renderers.
//
// A script is a chunk that returns a table:
//
//	return {
//	  kind = "progress",
//	  draw = function(cell, rect)
//	    grid.fill(rect.x, rect.y, rect.w * cell.data, rect.h, "#4F5DFF40")
//	    grid.text(rect.x + 4, rect.y + rect.h / 2, cell.text, "#313139")
//	  end,
//	  accessibility = function(cell) return cell.text end,  -- optional
//	  paste = function(cell, text) return tonumber(text) end, -- optional
//	}
//
// The grid module available to scripts provides fill, stroke, text and
// measure. Coordinates are surface units; colors are "#RRGGBB" or
// "#RRGGBBAA" strings.
//
// Each script runs in its own sandboxed gopher-lua state with only the base,
// table, string and math libraries. A state is not goroutine-safe, so calls
// are serialized. Errors raised by draw are re-raised as Go panics so the
// draw loop's per-cell recovery paints its error placeholder.
package luacell
