package cellrender

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber formats v with grouping separators. fixed < 0 formats
// compactly, otherwise exactly fixed fraction digits are shown.
func FormatNumber(v float64, fixed int) string {
	if fixed < 0 {
		return numberPrinter.Sprint(number.Decimal(v))
	}
	return numberPrinter.Sprint(number.Decimal(v, number.Scale(fixed)))
}

// ParseNumber parses user input, ignoring grouping separators and spaces.
func ParseNumber(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NumberRenderer paints cell.Number, right aligned unless the cell says
// otherwise.
type NumberRenderer struct{}

func (NumberRenderer) Kind() cell.Kind { return cell.KindNumber }

func numberText(c *cell.Number) string {
	if c.DisplayData != "" {
		return c.DisplayData
	}
	if c.Data == nil {
		return ""
	}
	return FormatNumber(*c.Data, c.Fixed)
}

func (NumberRenderer) Draw(args *DrawArgs) {
	c, ok := args.Cell.(*cell.Number)
	if !ok {
		return
	}
	align := c.B.ContentAlign
	if align == cell.AlignLeft {
		align = cell.AlignRight
	}
	DrawText(args.Surface, args.Theme, args.Rect, numberText(c), TextStyle(args.Theme, textColor(args.Theme, &c.B)), align)
}

func (NumberRenderer) Measure(s surface.Surface, c cell.Content, theme core.Theme) float64 {
	n, ok := c.(*cell.Number)
	if !ok {
		return 0
	}
	return s.MeasureText(numberText(n), TextStyle(theme, theme.TextDark)) + 2*theme.CellHorizontalPadding
}

func (NumberRenderer) AccessibilityString(c cell.Content) string {
	if n, ok := c.(*cell.Number); ok {
		return numberText(n)
	}
	return ""
}

func (NumberRenderer) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	n, ok := c.(*cell.Number)
	if !ok || n.B.Readonly {
		return nil, false
	}
	v, ok := ParseNumber(text)
	if !ok {
		return nil, false
	}
	out := *n
	out.Data = &v
	out.DisplayData = ""
	return &out, true
}

func (NumberRenderer) IsMatch(c cell.Content, text string) bool {
	n, ok := c.(*cell.Number)
	return ok && containsFold(numberText(n), text)
}
