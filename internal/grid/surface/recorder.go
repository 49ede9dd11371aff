package surface

import (
	"fmt"
	"strings"

	"github.com/dshills/gridstorm/internal/grid/core"
)

// OpKind identifies a recorded drawing call.
type OpKind uint8

const (
	OpFill OpKind = iota
	OpStroke
	OpLine
	OpText
	OpSave
	OpRestore
	OpClip
	OpFlush
)

// String returns the string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpFill:
		return "fill"
	case OpStroke:
		return "stroke"
	case OpLine:
		return "line"
	case OpText:
		return "text"
	case OpSave:
		return "save"
	case OpRestore:
		return "restore"
	case OpClip:
		return "clip"
	case OpFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// Op is one recorded drawing call.
type Op struct {
	Kind  OpKind
	Rect  core.Rect
	Color core.Color
	Text  string
	Width float64
}

func (o Op) String() string {
	switch o.Kind {
	case OpText:
		return fmt.Sprintf("%s %q @%g,%g %s", o.Kind, o.Text, o.Rect.X, o.Rect.Y, o.Color)
	case OpSave, OpRestore, OpFlush:
		return o.Kind.String()
	default:
		return fmt.Sprintf("%s %s %s", o.Kind, o.Rect, o.Color)
	}
}

// Recorder is a surface that records every call. It is used by tests and
// for draw-order diagnostics.
type Recorder struct {
	width, height float64
	ops           []Op
	depth         int

	// CharWidth is the advance used by MeasureText per rune.
	CharWidth float64
}

// NewRecorder creates a recorder with the given dimensions.
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height, CharWidth: 7}
}

func (r *Recorder) Size() (float64, float64) {
	return r.width, r.height
}

// Resize changes the reported size.
func (r *Recorder) Resize(width, height float64) {
	r.width = width
	r.height = height
}

func (r *Recorder) FillRect(rect core.Rect, c core.Color) {
	r.ops = append(r.ops, Op{Kind: OpFill, Rect: rect, Color: c})
}

func (r *Recorder) StrokeRect(rect core.Rect, c core.Color, width float64) {
	r.ops = append(r.ops, Op{Kind: OpStroke, Rect: rect, Color: c, Width: width})
}

func (r *Recorder) Line(x1, y1, x2, y2 float64, c core.Color, width float64) {
	r.ops = append(r.ops, Op{
		Kind:  OpLine,
		Rect:  core.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1},
		Color: c,
		Width: width,
	})
}

func (r *Recorder) Text(x, y float64, s string, style TextStyle) {
	r.ops = append(r.ops, Op{Kind: OpText, Rect: core.Rect{X: x, Y: y}, Color: style.Color, Text: s})
}

func (r *Recorder) MeasureText(s string, _ TextStyle) float64 {
	return float64(len([]rune(s))) * r.CharWidth
}

func (r *Recorder) Save() {
	r.depth++
	r.ops = append(r.ops, Op{Kind: OpSave})
}

func (r *Recorder) Restore() {
	if r.depth == 0 {
		return
	}
	r.depth--
	r.ops = append(r.ops, Op{Kind: OpRestore})
}

func (r *Recorder) Clip(rect core.Rect) {
	r.ops = append(r.ops, Op{Kind: OpClip, Rect: rect})
}

func (r *Recorder) Flush() {
	r.ops = append(r.ops, Op{Kind: OpFlush})
}

// Ops returns a copy of the recorded calls.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// OpsOfKind returns the recorded calls of one kind.
func (r *Recorder) OpsOfKind(kind OpKind) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Depth returns the current Save nesting depth.
func (r *Recorder) Depth() int {
	return r.depth
}

// Reset discards recorded calls.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
	r.depth = 0
}

// Dump renders the op log one call per line.
func (r *Recorder) Dump() string {
	var b strings.Builder
	for _, op := range r.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
