package cellrender

import (
	"strconv"

	"github.com/dshills/gridstorm/internal/grid/cell"
)

// DrawNewRow paints the trailing "add a row" affordance. Only the first
// column carries the hint text; the other columns stay blank.
func DrawNewRow(args *DrawArgs) {
	c, ok := args.Cell.(*cell.NewRow)
	if !ok {
		return
	}
	color := args.Theme.TextMedium
	if args.Hovered {
		color = args.Theme.TextDark
	}
	icon := c.Icon
	if icon == "" {
		icon = "+"
	}
	text := icon
	if c.Hint != "" {
		text += " " + c.Hint
	}
	DrawText(args.Surface, args.Theme, args.Rect, text, TextStyle(args.Theme, color), cell.AlignLeft)
}

// DrawMarker paints the row marker column: the row number, a selection
// checkbox, or the number switching to a checkbox while hovered or checked.
func DrawMarker(args *DrawArgs) {
	c, ok := args.Cell.(*cell.Marker)
	if !ok {
		return
	}
	showBox := c.Markers == cell.MarkerCheckbox ||
		(c.Markers == cell.MarkerBoth && (args.Hovered || c.Checked))
	if !showBox {
		DrawText(args.Surface, args.Theme, args.Rect, strconv.Itoa(c.Row+1),
			TextStyle(args.Theme, args.Theme.TextLight), cell.AlignCenter)
		return
	}

	box := checkboxRect(args.Rect, args.Theme, cell.AlignCenter)
	if box.IsEmpty() {
		return
	}
	if c.Checked {
		args.Surface.FillRect(box, args.Theme.AccentColor)
		return
	}
	args.Surface.StrokeRect(box, args.Theme.TextLight, 1)
}
