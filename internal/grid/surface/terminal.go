package surface

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/gridstorm/internal/grid/core"
)

// termCell is one retained terminal cell.
type termCell struct {
	text      string // one grapheme cluster; "" marks a wide-char continuation
	fg, bg    core.Color
	bold      bool
	underline bool
}

// Terminal implements Surface on a tcell screen. One surface unit is one
// terminal cell. Translucent fills are composited against the retained
// background because terminals have no alpha channel.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	width  int
	height int
	cells  []termCell
	clips  []core.Rect
	saved  []int
	bg     core.Color
}

// NewTerminal creates a terminal surface on a fresh tcell screen.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminalForScreen(screen)
}

// NewTerminalForScreen wraps an existing screen, initializing it.
// Tests pass a tcell simulation screen.
func NewTerminalForScreen(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()
	screen.EnablePaste()

	t := &Terminal{screen: screen, bg: core.ColorWhite}
	w, h := screen.Size()
	t.resize(w, h)
	return t, nil
}

// Screen returns the underlying screen for event polling.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
}

// Sync re-reads the screen size after a resize event.
func (t *Terminal) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, h := t.screen.Size()
	t.resize(w, h)
	t.screen.Sync()
}

func (t *Terminal) resize(w, h int) {
	t.width = max(w, 0)
	t.height = max(h, 0)
	t.cells = make([]termCell, t.width*t.height)
	for i := range t.cells {
		t.cells[i] = termCell{text: " ", bg: t.bg}
	}
}

func (t *Terminal) Size() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.width), float64(t.height)
}

// span converts a surface rectangle into covered cell bounds, clipped.
func (t *Terminal) span(r core.Rect) (x0, y0, x1, y1 int) {
	for _, c := range t.clips {
		r = r.Intersection(c)
	}
	if r.IsEmpty() {
		return 0, 0, 0, 0
	}
	x0 = max(int(math.Floor(r.X)), 0)
	y0 = max(int(math.Floor(r.Y)), 0)
	x1 = min(int(math.Ceil(r.Right())), t.width)
	y1 = min(int(math.Ceil(r.Bottom())), t.height)
	return x0, y0, x1, y1
}

func (t *Terminal) visible(x, y int) bool {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return false
	}
	fx, fy := float64(x)+0.5, float64(y)+0.5
	for _, c := range t.clips {
		if !c.Contains(fx, fy) {
			return false
		}
	}
	return true
}

func (t *Terminal) at(x, y int) *termCell {
	return &t.cells[y*t.width+x]
}

func (t *Terminal) FillRect(r core.Rect, c core.Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !c.IsSet() {
		return
	}
	x0, y0, x1, y1 := t.span(r)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cell := t.at(x, y)
			if c.IsOpaque() {
				*cell = termCell{text: " ", bg: c}
				continue
			}
			cell.bg = c.Over(cell.bg)
		}
	}
}

// StrokeRect underlines the bottom edge and tints the text of the outlined
// cells; a one-cell-high rectangle cannot show a box outline.
func (t *Terminal) StrokeRect(r core.Rect, c core.Color, _ float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	x0, y0, x1, y1 := t.span(r)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cell := t.at(x, y)
			if y == y1-1 {
				cell.underline = true
			}
			if cell.text == " " || x == x0 || x == x1-1 {
				cell.fg = c
			}
		}
	}
}

func (t *Terminal) Line(x1, y1, x2, y2 float64, c core.Color, _ float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case x1 == x2:
		x := int(math.Floor(x1))
		for y := int(math.Floor(min(y1, y2))); y < int(math.Ceil(max(y1, y2))); y++ {
			if t.visible(x, y) {
				cell := t.at(x, y)
				cell.text = "│"
				cell.fg = c.Over(cell.bg)
			}
		}
	case y1 == y2:
		y := int(math.Floor(y1))
		for x := int(math.Floor(min(x1, x2))); x < int(math.Ceil(max(x1, x2))); x++ {
			if t.visible(x, y) {
				cell := t.at(x, y)
				cell.underline = true
			}
		}
	}
}

func (t *Terminal) Text(x, y float64, s string, style TextStyle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	col := int(math.Floor(x))
	row := int(math.Floor(y))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		w := gr.Width()
		if w == 0 {
			continue
		}
		if t.visible(col, row) && (w == 1 || t.visible(col+1, row)) {
			cell := t.at(col, row)
			cell.text = gr.Str()
			cell.fg = style.Color
			cell.bold = style.Bold
			if w == 2 {
				next := t.at(col+1, row)
				next.text = ""
				next.bg = cell.bg
			}
		}
		col += w
	}
}

func (t *Terminal) MeasureText(s string, _ TextStyle) float64 {
	return float64(uniseg.StringWidth(s))
}

func (t *Terminal) Save() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved = append(t.saved, len(t.clips))
}

func (t *Terminal) Restore() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.saved) == 0 {
		return
	}
	n := t.saved[len(t.saved)-1]
	t.saved = t.saved[:len(t.saved)-1]
	t.clips = t.clips[:n]
}

func (t *Terminal) Clip(r core.Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clips = append(t.clips, r)
}

// Flush copies the retained cells to the screen and shows it.
func (t *Terminal) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			cell := t.at(x, y)
			if cell.text == "" {
				continue
			}
			runes := []rune(cell.text)
			t.screen.SetContent(x, y, runes[0], runes[1:], convertStyle(cell))
		}
	}
	t.screen.Show()
}

// CellText returns the grapheme retained at (x, y), for tests and diagnostics.
func (t *Terminal) CellText(x, y int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return ""
	}
	return t.at(x, y).text
}

// CellBackground returns the retained background at (x, y).
func (t *Terminal) CellBackground(x, y int) core.Color {
	t.mu.Lock()
	defer t.mu.Unlock()
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return core.Color{}
	}
	return t.at(x, y).bg
}

// convertStyle converts a retained cell to a tcell.Style.
func convertStyle(c *termCell) tcell.Style {
	style := tcell.StyleDefault
	if c.fg.IsSet() {
		style = style.Foreground(convertColor(c.fg))
	}
	if c.bg.IsSet() {
		style = style.Background(convertColor(c.bg))
	}
	if c.bold {
		style = style.Bold(true)
	}
	if c.underline {
		style = style.Underline(true)
	}
	return style
}

func convertColor(c core.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
