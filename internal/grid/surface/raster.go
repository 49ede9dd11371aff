package surface

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/dshills/gridstorm/internal/grid/core"
)

// Raster implements Surface on a gogpu/gg software context.
type Raster struct {
	dc      *gg.Context
	regular *text.FontSource
	bold    *text.FontSource
	faces   map[faceKey]text.Face
	depth   int
	err     error
}

type faceKey struct {
	size float64
	bold bool
}

// NewRaster creates a raster surface of the given pixel size using the Go fonts.
func NewRaster(width, height int) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	regular, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading regular font: %w", err)
	}
	bold, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("loading bold font: %w", err)
	}
	return &Raster{
		dc:      gg.NewContext(width, height),
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]text.Face),
	}, nil
}

func (r *Raster) face(style TextStyle) text.Face {
	size := style.Size
	if size <= 0 {
		size = 13
	}
	key := faceKey{size: size, bold: style.Bold}
	if f, ok := r.faces[key]; ok {
		return f
	}
	src := r.regular
	if style.Bold {
		src = r.bold
	}
	f := src.Face(size)
	r.faces[key] = f
	return f
}

func (r *Raster) setColor(c core.Color) {
	red, green, blue, alpha := c.Float()
	r.dc.SetRGBA(red, green, blue, alpha)
}

func (r *Raster) record(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) FillRect(rect core.Rect, c core.Color) {
	if rect.IsEmpty() || !c.IsSet() {
		return
	}
	r.setColor(c)
	r.dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
	r.record(r.dc.Fill())
}

func (r *Raster) StrokeRect(rect core.Rect, c core.Color, width float64) {
	if rect.IsEmpty() || !c.IsSet() {
		return
	}
	r.setColor(c)
	r.dc.SetLineWidth(width)
	r.dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
	r.record(r.dc.Stroke())
}

func (r *Raster) Line(x1, y1, x2, y2 float64, c core.Color, width float64) {
	if !c.IsSet() {
		return
	}
	r.setColor(c)
	r.dc.SetLineWidth(width)
	r.dc.DrawLine(x1, y1, x2, y2)
	r.record(r.dc.Stroke())
}

func (r *Raster) Text(x, y float64, s string, style TextStyle) {
	if s == "" {
		return
	}
	r.dc.SetFont(r.face(style))
	r.setColor(style.Color)
	r.dc.DrawStringAnchored(s, x, y, 0, 0.35)
}

func (r *Raster) MeasureText(s string, style TextStyle) float64 {
	r.dc.SetFont(r.face(style))
	w, _ := r.dc.MeasureString(s)
	return w
}

func (r *Raster) Save() {
	r.depth++
	r.dc.Push()
}

func (r *Raster) Restore() {
	if r.depth == 0 {
		return
	}
	r.depth--
	r.dc.Pop()
}

func (r *Raster) Clip(rect core.Rect) {
	r.dc.ClipRect(rect.X, rect.Y, rect.Width, rect.Height)
}

func (r *Raster) Flush() {}

// Err returns the first rasterization error, if any.
func (r *Raster) Err() error {
	return r.err
}

// SavePNG writes the surface to a PNG file.
func (r *Raster) SavePNG(path string) error {
	return r.dc.SavePNG(path)
}

// EncodePNG writes the surface as PNG to w.
func (r *Raster) EncodePNG(w io.Writer) error {
	return r.dc.EncodePNG(w)
}

// Close releases the context.
func (r *Raster) Close() error {
	return r.dc.Close()
}

// Image returns the rendered pixels.
func (r *Raster) Image() image.Image {
	return r.dc.Image()
}
