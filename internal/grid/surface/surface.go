// Package surface provides the drawing surface abstraction for the grid.
// Implementations handle actual pixel or terminal output; the draw loop and
// cell renderers only ever talk to the Surface interface.
//
// Surfaces are retained: whatever was painted in a previous frame stays in
// place until painted over, which is what makes damage-limited repaints
// possible.
package surface

import "github.com/dshills/gridstorm/internal/grid/core"

// TextStyle describes how a string is painted.
type TextStyle struct {
	Color core.Color
	Size  float64
	Bold  bool
}

// Surface defines the interface for drawing targets.
type Surface interface {
	// Size returns the drawable dimensions in surface units.
	Size() (width, height float64)

	// FillRect fills a rectangle. Translucent colors blend over what is
	// already on the surface.
	FillRect(r core.Rect, c core.Color)

	// StrokeRect outlines a rectangle with the given line width.
	StrokeRect(r core.Rect, c core.Color, width float64)

	// Line draws a straight line.
	Line(x1, y1, x2, y2 float64, c core.Color, width float64)

	// Text paints s with its left edge at x, vertically centered on y.
	Text(x, y float64, s string, style TextStyle)

	// MeasureText returns the advance width of s.
	MeasureText(s string, style TextStyle) float64

	// Save pushes the clip state.
	Save()

	// Restore pops the clip state pushed by the matching Save.
	Restore()

	// Clip intersects the current clip region with r.
	Clip(r core.Rect)

	// Flush makes everything painted so far visible.
	Flush()
}
