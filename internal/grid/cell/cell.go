// Package cell defines the content displayed by grid cells.
//
// Content is a closed-over-kinds sum type: every concrete struct in this
// package reports its Kind, and extension renderers use Custom with their
// own kind string. The draw loop never inspects concrete types; it looks the
// kind up in a renderer registry.
package cell

import (
	"github.com/dshills/gridstorm/internal/grid/core"
)

// Kind discriminates the payload shape and selects the renderer.
type Kind string

// Built-in kinds.
const (
	KindText      Kind = "text"
	KindNumber    Kind = "number"
	KindBoolean   Kind = "boolean"
	KindURI       Kind = "uri"
	KindLoading   Kind = "loading"
	KindProtected Kind = "protected"
	KindRowID     Kind = "row-id"

	// Structural kinds. These are only produced by the grid itself and are
	// painted inline by the draw loop.
	KindNewRow Kind = "new-row"
	KindMarker Kind = "marker"
)

// Align is the horizontal alignment of cell content.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Span is an inclusive column range that a cell's content overflows into.
type Span struct {
	Start int
	End   int
}

// Width returns the number of columns covered.
func (s Span) Width() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// Base carries attributes shared by every kind.
type Base struct {
	AllowOverlay  bool
	Readonly      bool
	Style         string // "normal" or "faded"
	ThemeOverride *core.Theme
	Span          *Span
	ContentAlign  Align
	Cursor        string
}

// Content is the data for one cell.
type Content interface {
	Kind() Kind
	Base() *Base
}

// Editable reports whether the cell accepts edits.
func Editable(c Content) bool {
	if c == nil {
		return false
	}
	b := c.Base()
	return b.AllowOverlay && !b.Readonly
}

// StyleKey identifies consecutive cells that share drawing state.
func StyleKey(c Content) string {
	if c == nil {
		return ""
	}
	return string(c.Kind()) + "/" + c.Base().Style
}

// Text is a plain string cell.
type Text struct {
	B           Base
	Data        string
	DisplayData string
	AllowWrap   bool
}

func (c *Text) Kind() Kind  { return KindText }
func (c *Text) Base() *Base { return &c.B }

// Number is a numeric cell. A nil Data is an empty cell.
type Number struct {
	B           Base
	Data        *float64
	DisplayData string
	Fixed       int // digits after the decimal point; -1 formats compactly
}

func (c *Number) Kind() Kind  { return KindNumber }
func (c *Number) Base() *Base { return &c.B }

// Boolean is a tri-state checkbox cell; nil Data is indeterminate.
type Boolean struct {
	B    Base
	Data *bool
}

func (c *Boolean) Kind() Kind  { return KindBoolean }
func (c *Boolean) Base() *Base { return &c.B }

// URI is a hyperlink cell.
type URI struct {
	B           Base
	Data        string
	DisplayData string
}

func (c *URI) Kind() Kind  { return KindURI }
func (c *URI) Base() *Base { return &c.B }

// Loading is the placeholder returned while content is fetched.
type Loading struct {
	B Base
}

func (c *Loading) Kind() Kind  { return KindLoading }
func (c *Loading) Base() *Base { return &c.B }

// Protected hides its value.
type Protected struct {
	B Base
}

func (c *Protected) Kind() Kind  { return KindProtected }
func (c *Protected) Base() *Base { return &c.B }

// RowID shows an opaque identifier in a muted style.
type RowID struct {
	B    Base
	Data string
}

func (c *RowID) Kind() Kind  { return KindRowID }
func (c *RowID) Base() *Base { return &c.B }

// NewRow is the trailing "add a row" affordance.
type NewRow struct {
	B    Base
	Hint string
	Icon string
}

func (c *NewRow) Kind() Kind  { return KindNewRow }
func (c *NewRow) Base() *Base { return &c.B }

// MarkerKind selects what the row marker column shows.
type MarkerKind uint8

const (
	MarkerNumber MarkerKind = iota
	MarkerCheckbox
	MarkerBoth
)

// Marker is the row marker column cell.
type Marker struct {
	B       Base
	Row     int
	Checked bool
	Markers MarkerKind
}

func (c *Marker) Kind() Kind  { return KindMarker }
func (c *Marker) Base() *Base { return &c.B }

// Custom carries data for renderers registered outside this package.
type Custom struct {
	B        Base
	KindName Kind
	Data     any
	CopyData string
}

func (c *Custom) Kind() Kind  { return c.KindName }
func (c *Custom) Base() *Base { return &c.B }

// NewText is a convenience constructor for read-only text.
func NewText(s string) *Text {
	return &Text{B: Base{AllowOverlay: true, Readonly: true}, Data: s, DisplayData: s}
}

// NewNumber is a convenience constructor for a numeric cell.
func NewNumber(v float64) *Number {
	return &Number{B: Base{AllowOverlay: true}, Data: &v, Fixed: -1}
}

// NewBoolean is a convenience constructor for a checkbox cell.
func NewBoolean(v bool) *Boolean {
	return &Boolean{Data: &v}
}

// NewLoading returns a loading placeholder.
func NewLoading() *Loading {
	return &Loading{B: Base{Readonly: true}}
}
