package cellrender

import (
	"fmt"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
)

// LoadingRenderer paints the skeleton bar shown while content is fetched.
type LoadingRenderer struct{}

func (LoadingRenderer) Kind() cell.Kind { return cell.KindLoading }

func (LoadingRenderer) Draw(args *DrawArgs) {
	r := args.Rect.Inset(args.Theme.CellHorizontalPadding, max(args.Rect.Height/2-4, 0))
	r.Width = min(r.Width, 60)
	if r.IsEmpty() {
		return
	}
	args.Surface.FillRect(r, args.Theme.BgBubble)
}

func (LoadingRenderer) AccessibilityString(cell.Content) string { return "" }

func (LoadingRenderer) OnPaste(string, cell.Content) (cell.Content, bool) {
	return nil, false
}

func (LoadingRenderer) IsMatch(cell.Content, string) bool { return false }

// Unsupported is the fallback renderer for unregistered kinds. It paints a
// visible marker so the problem is noticed without breaking the frame.
type Unsupported struct{}

// UnsupportedColor tints cells with no renderer.
var UnsupportedColor = core.RGBA(0xE5, 0x48, 0x4D, 0x33)

func (Unsupported) Kind() cell.Kind { return "" }

func (Unsupported) Draw(args *DrawArgs) {
	args.Surface.FillRect(args.Rect, UnsupportedColor)
	label := "?"
	if args.Cell != nil {
		label = fmt.Sprintf("unsupported: %s", args.Cell.Kind())
	}
	DrawText(args.Surface, args.Theme, args.Rect, label, TextStyle(args.Theme, args.Theme.TextMedium), cell.AlignLeft)
}

func (Unsupported) AccessibilityString(cell.Content) string { return "" }

func (Unsupported) OnPaste(string, cell.Content) (cell.Content, bool) {
	return nil, false
}

func (Unsupported) IsMatch(cell.Content, string) bool { return false }

// ErrorColor tints a cell whose renderer panicked.
var ErrorColor = core.RGBA(0xE5, 0x48, 0x4D, 0x66)

// DrawError paints the diagnostic placeholder for a cell whose renderer
// failed.
func DrawError(args *DrawArgs) {
	args.Surface.FillRect(args.Rect, ErrorColor)
	DrawText(args.Surface, args.Theme, args.Rect, "error", TextStyle(args.Theme, args.Theme.TextDark), cell.AlignLeft)
}

// Builtins returns fresh instances of the built-in renderers.
func Builtins() []Renderer {
	return []Renderer{
		TextRenderer{},
		NumberRenderer{},
		BooleanRenderer{},
		URIRenderer{},
		LoadingRenderer{},
		ProtectedRenderer{},
		RowIDRenderer{},
	}
}
