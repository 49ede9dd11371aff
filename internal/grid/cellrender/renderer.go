// Package cellrender defines the per-kind cell renderer contract and the
// registry that dispatches cells to renderers.
//
// A renderer only ever sees one cell at a time through DrawArgs. It has no
// implicit state across frames; anything it wants to remember (a hover
// fade, say) goes through the explicit State slot, which the engine keys by
// cell coordinate and evicts with the rest of the item cache. Animation is
// pull based: a renderer that wants another frame calls
// RequestAnimationFrame, otherwise it is not drawn again until damaged.
package cellrender

import (
	"time"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

// Renderer paints and edits one cell kind.
type Renderer interface {
	// Kind returns the unique kind this renderer handles.
	Kind() cell.Kind

	// Draw paints the cell into args.Rect.
	Draw(args *DrawArgs)

	// AccessibilityString returns the text read by assistive technology.
	AccessibilityString(c cell.Content) string

	// OnPaste returns the cell updated with pasted text. A false result
	// rejects the paste and leaves the cell unchanged.
	OnPaste(text string, c cell.Content) (cell.Content, bool)

	// IsMatch reports whether the cell matches a search string.
	IsMatch(c cell.Content, text string) bool
}

// Measurer is implemented by renderers that can report a preferred width.
type Measurer interface {
	Measure(s surface.Surface, c cell.Content, theme core.Theme) float64
}

// Preparer is implemented by renderers that amortize setup across a run of
// consecutive cells sharing a style. Prepare is called before the first cell
// of the run and Cleanup after the last; whatever Prepare stores in
// args.Prepared is handed to every Draw in the run.
type Preparer interface {
	Prepare(args *DrawArgs)
	Cleanup(args *DrawArgs)
}

// ClickEvent describes a pointer activation inside a cell. X and Y are
// relative to the cell's top left corner.
type ClickEvent struct {
	Cell  cell.Content
	Item  core.Item
	Rect  core.Rect
	Theme core.Theme
	X, Y  float64
}

// Clicker is implemented by renderers that react to clicks.
type Clicker interface {
	OnClick(ev ClickEvent) (cell.Content, bool)
}

// Selecter is implemented by renderers that react to the cell becoming
// selected.
type Selecter interface {
	OnSelect(ev ClickEvent) (cell.Content, bool)
}

// StateStore holds per-cell state across frames.
type StateStore interface {
	DrawState(item core.Item) any
	SetDrawState(item core.Item, v any)
}

// DrawArgs is everything a renderer may read while painting a cell.
type DrawArgs struct {
	Surface     surface.Surface
	Theme       core.Theme
	Rect        core.Rect
	Cell        cell.Content
	Item        core.Item
	Hovered     bool
	HoverX      float64 // pointer position relative to Rect, valid when Hovered
	HoverY      float64
	Highlighted bool
	FrameTime   time.Time

	// Prepared is the value stored by Preparer.Prepare for the current run.
	Prepared any

	Store          StateStore
	AnimationFrame func(item core.Item)
}

// State returns the cell's draw state, or nil.
func (a *DrawArgs) State() any {
	if a.Store == nil {
		return nil
	}
	return a.Store.DrawState(a.Item)
}

// SetState replaces the cell's draw state.
func (a *DrawArgs) SetState(v any) {
	if a.Store != nil {
		a.Store.SetDrawState(a.Item, v)
	}
}

// RequestAnimationFrame asks for the cell to be repainted next frame.
func (a *DrawArgs) RequestAnimationFrame() {
	if a.AnimationFrame != nil {
		a.AnimationFrame(a.Item)
	}
}

// Func adapts plain functions to Renderer. Nil hooks fall back to inert
// defaults: no accessibility text, pastes rejected, no matches.
type Func struct {
	KindName      cell.Kind
	DrawFunc      func(args *DrawArgs)
	Accessibility func(c cell.Content) string
	Paste         func(text string, c cell.Content) (cell.Content, bool)
	Match         func(c cell.Content, text string) bool
}

func (f *Func) Kind() cell.Kind { return f.KindName }

func (f *Func) Draw(args *DrawArgs) {
	if f.DrawFunc != nil {
		f.DrawFunc(args)
	}
}

func (f *Func) AccessibilityString(c cell.Content) string {
	if f.Accessibility == nil {
		return ""
	}
	return f.Accessibility(c)
}

func (f *Func) OnPaste(text string, c cell.Content) (cell.Content, bool) {
	if f.Paste == nil {
		return nil, false
	}
	return f.Paste(text, c)
}

func (f *Func) IsMatch(c cell.Content, text string) bool {
	return f.Match != nil && f.Match(c, text)
}
