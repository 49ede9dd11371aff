package cellrender

import (
	"strings"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
)

const checkboxSize = 14

// BooleanRenderer paints cell.Boolean as a checkbox and toggles on click.
type BooleanRenderer struct{}

func (BooleanRenderer) Kind() cell.Kind { return cell.KindBoolean }

// checkboxRect returns the box centered in rect (or aligned per the cell).
func checkboxRect(rect core.Rect, theme core.Theme, align cell.Align) core.Rect {
	size := min(checkboxSize, rect.Height-2*theme.CellVerticalPadding, rect.Width-2*theme.CellHorizontalPadding)
	size = max(size, 0)
	x := rect.X + (rect.Width-size)/2
	switch align {
	case cell.AlignLeft:
		x = rect.X + theme.CellHorizontalPadding
	case cell.AlignRight:
		x = rect.Right() - theme.CellHorizontalPadding - size
	}
	return core.NewRect(x, rect.Y+(rect.Height-size)/2, size, size)
}

func (BooleanRenderer) Draw(args *DrawArgs) {
	c, ok := args.Cell.(*cell.Boolean)
	if !ok {
		return
	}
	box := checkboxRect(args.Rect, args.Theme, alignOrCenter(c.B.ContentAlign))
	if box.IsEmpty() {
		return
	}
	s := args.Surface
	switch {
	case c.Data == nil:
		s.StrokeRect(box, args.Theme.TextLight, 1)
		mid := box.Y + box.Height/2
		s.Line(box.X+3, mid, box.Right()-3, mid, args.Theme.TextMedium, 2)
	case *c.Data:
		s.FillRect(box, args.Theme.AccentColor)
		s.Line(box.X+3, box.Y+box.Height/2, box.X+box.Width/2-1, box.Bottom()-4, args.Theme.AccentForeground, 2)
		s.Line(box.X+box.Width/2-1, box.Bottom()-4, box.Right()-3, box.Y+3, args.Theme.AccentForeground, 2)
	default:
		s.StrokeRect(box, args.Theme.TextMedium, 1)
	}
}

// alignOrCenter treats the zero alignment as centered, which is how
// checkboxes are laid out by default.
func alignOrCenter(a cell.Align) cell.Align {
	if a == cell.AlignLeft {
		return cell.AlignCenter
	}
	return a
}

func (BooleanRenderer) AccessibilityString(c cell.Content) string {
	b, ok := c.(*cell.Boolean)
	if !ok || b.Data == nil {
		return ""
	}
	if *b.Data {
		return "true"
	}
	return "false"
}

// ParseBool accepts the usual spellings of a checkbox value.
func ParseBool(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "t", "yes", "y", "1", "checked", "x":
		return true, true
	case "false", "f", "no", "n", "0", "unchecked", "":
		return false, true
	}
	return false, false
}

func (BooleanRenderer) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	b, ok := c.(*cell.Boolean)
	if !ok || b.B.Readonly {
		return nil, false
	}
	v, ok := ParseBool(text)
	if !ok {
		return nil, false
	}
	out := *b
	out.Data = &v
	return &out, true
}

func (BooleanRenderer) IsMatch(c cell.Content, text string) bool {
	b, ok := c.(*cell.Boolean)
	if !ok || b.Data == nil {
		return false
	}
	v, ok := ParseBool(text)
	return ok && text != "" && v == *b.Data
}

// OnClick toggles the value when the click lands inside the checkbox.
func (BooleanRenderer) OnClick(ev ClickEvent) (cell.Content, bool) {
	b, ok := ev.Cell.(*cell.Boolean)
	if !ok || b.B.Readonly {
		return nil, false
	}
	local := core.NewRect(0, 0, ev.Rect.Width, ev.Rect.Height)
	box := checkboxRect(local, ev.Theme, alignOrCenter(b.B.ContentAlign))
	if !box.Contains(ev.X, ev.Y) {
		return nil, false
	}
	v := b.Data == nil || !*b.Data
	out := *b
	out.Data = &v
	return &out, true
}
