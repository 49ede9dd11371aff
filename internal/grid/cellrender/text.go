package cellrender

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

const ellipsis = "…"

// TextStyle returns the body text style for theme.
func TextStyle(theme core.Theme, c core.Color) surface.TextStyle {
	return surface.TextStyle{Color: c, Size: theme.FontSize}
}

// FitText truncates s at a grapheme boundary so it fits in width,
// appending an ellipsis when anything was cut.
func FitText(s surface.Surface, text string, style surface.TextStyle, width float64) string {
	if width <= 0 {
		return ""
	}
	if s.MeasureText(text, style) <= width {
		return text
	}
	budget := width - s.MeasureText(ellipsis, style)
	if budget <= 0 {
		return ""
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		next := b.String() + g.Str()
		if s.MeasureText(next, style) > budget {
			break
		}
		b.WriteString(g.Str())
	}
	return b.String() + ellipsis
}

// DrawText paints single-line text inside rect honoring the theme padding
// and alignment.
func DrawText(s surface.Surface, theme core.Theme, rect core.Rect, text string, style surface.TextStyle, align cell.Align) {
	if text == "" {
		return
	}
	pad := theme.CellHorizontalPadding
	avail := rect.Width - 2*pad
	text = FitText(s, text, style, avail)
	if text == "" {
		return
	}
	x := rect.X + pad
	switch align {
	case cell.AlignCenter:
		x = rect.X + (rect.Width-s.MeasureText(text, style))/2
	case cell.AlignRight:
		x = rect.Right() - pad - s.MeasureText(text, style)
	}
	s.Text(x, rect.Y+rect.Height/2, text, style)
}

func textColor(theme core.Theme, b *cell.Base) core.Color {
	if b.Style == "faded" {
		return theme.TextLight
	}
	return theme.TextDark
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// TextRenderer paints cell.Text.
type TextRenderer struct{}

func (TextRenderer) Kind() cell.Kind { return cell.KindText }

type preparedText struct {
	style surface.TextStyle
}

func (TextRenderer) Prepare(args *DrawArgs) {
	args.Prepared = preparedText{style: TextStyle(args.Theme, textColor(args.Theme, args.Cell.Base()))}
}

func (TextRenderer) Cleanup(args *DrawArgs) {
	args.Prepared = nil
}

func (TextRenderer) Draw(args *DrawArgs) {
	c, ok := args.Cell.(*cell.Text)
	if !ok {
		return
	}
	style := TextStyle(args.Theme, textColor(args.Theme, &c.B))
	if p, ok := args.Prepared.(preparedText); ok {
		style = p.style
	}
	DrawText(args.Surface, args.Theme, args.Rect, displayText(c), style, c.B.ContentAlign)
}

func displayText(c *cell.Text) string {
	if c.DisplayData != "" {
		return c.DisplayData
	}
	return c.Data
}

func (TextRenderer) Measure(s surface.Surface, c cell.Content, theme core.Theme) float64 {
	t, ok := c.(*cell.Text)
	if !ok {
		return 0
	}
	return s.MeasureText(displayText(t), TextStyle(theme, theme.TextDark)) + 2*theme.CellHorizontalPadding
}

func (TextRenderer) AccessibilityString(c cell.Content) string {
	if t, ok := c.(*cell.Text); ok {
		return displayText(t)
	}
	return ""
}

func (TextRenderer) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	t, ok := c.(*cell.Text)
	if !ok || t.B.Readonly {
		return nil, false
	}
	out := *t
	out.Data = text
	out.DisplayData = text
	return &out, true
}

func (TextRenderer) IsMatch(c cell.Content, text string) bool {
	t, ok := c.(*cell.Text)
	return ok && containsFold(t.Data, text)
}

// URIRenderer paints cell.URI as an underlined link.
type URIRenderer struct{}

func (URIRenderer) Kind() cell.Kind { return cell.KindURI }

func (URIRenderer) Draw(args *DrawArgs) {
	c, ok := args.Cell.(*cell.URI)
	if !ok {
		return
	}
	text := c.DisplayData
	if text == "" {
		text = c.Data
	}
	style := TextStyle(args.Theme, args.Theme.LinkColor)
	DrawText(args.Surface, args.Theme, args.Rect, text, style, c.B.ContentAlign)

	if args.Hovered && text != "" {
		s := args.Surface
		pad := args.Theme.CellHorizontalPadding
		w := min(s.MeasureText(text, style), args.Rect.Width-2*pad)
		y := args.Rect.Y + args.Rect.Height/2 + args.Theme.FontSize/2
		s.Line(args.Rect.X+pad, y, args.Rect.X+pad+w, y, args.Theme.LinkColor, 1)
	}
}

func (URIRenderer) AccessibilityString(c cell.Content) string {
	if u, ok := c.(*cell.URI); ok {
		return u.Data
	}
	return ""
}

func (URIRenderer) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	u, ok := c.(*cell.URI)
	if !ok || u.B.Readonly {
		return nil, false
	}
	out := *u
	out.Data = strings.TrimSpace(text)
	out.DisplayData = ""
	return &out, true
}

func (URIRenderer) IsMatch(c cell.Content, text string) bool {
	u, ok := c.(*cell.URI)
	return ok && (containsFold(u.Data, text) || containsFold(u.DisplayData, text))
}

// RowIDRenderer paints cell.RowID in a muted style.
type RowIDRenderer struct{}

func (RowIDRenderer) Kind() cell.Kind { return cell.KindRowID }

func (RowIDRenderer) Draw(args *DrawArgs) {
	c, ok := args.Cell.(*cell.RowID)
	if !ok {
		return
	}
	DrawText(args.Surface, args.Theme, args.Rect, c.Data, TextStyle(args.Theme, args.Theme.TextLight), c.B.ContentAlign)
}

func (RowIDRenderer) AccessibilityString(c cell.Content) string {
	if r, ok := c.(*cell.RowID); ok {
		return r.Data
	}
	return ""
}

func (RowIDRenderer) OnPaste(string, cell.Content) (cell.Content, bool) {
	return nil, false
}

func (RowIDRenderer) IsMatch(c cell.Content, text string) bool {
	r, ok := c.(*cell.RowID)
	return ok && containsFold(r.Data, text)
}

// ProtectedRenderer masks its value.
type ProtectedRenderer struct{}

func (ProtectedRenderer) Kind() cell.Kind { return cell.KindProtected }

func (ProtectedRenderer) Draw(args *DrawArgs) {
	r := args.Rect.Inset(args.Theme.CellHorizontalPadding, args.Theme.CellVerticalPadding+2)
	if r.IsEmpty() {
		return
	}
	args.Surface.FillRect(r, args.Theme.BgCellMedium)
	DrawText(args.Surface, args.Theme, args.Rect, "******", TextStyle(args.Theme, args.Theme.TextMedium), cell.AlignLeft)
}

func (ProtectedRenderer) AccessibilityString(cell.Content) string { return "" }

func (ProtectedRenderer) OnPaste(string, cell.Content) (cell.Content, bool) {
	return nil, false
}

func (ProtectedRenderer) IsMatch(cell.Content, string) bool { return false }
