// Package damage tracks which cells need repainting.
package damage

import (
	"slices"
	"sync"

	"github.com/dshills/gridstorm/internal/grid/core"
)

// ChangeType represents the reason cells were damaged.
type ChangeType uint8

const (
	// ChangeContent indicates cell data changed out of band.
	ChangeContent ChangeType = iota

	// ChangeHover indicates the hovered cell moved.
	ChangeHover

	// ChangeFocus indicates the focused cell moved or focus was gained/lost.
	ChangeFocus

	// ChangeSelection indicates selection changed.
	ChangeSelection

	// ChangeAnimation indicates a renderer requested another frame.
	ChangeAnimation

	// ChangeScroll indicates the viewport scrolled.
	ChangeScroll

	// ChangeResize indicates the surface was resized.
	ChangeResize

	// ChangeTheme indicates the theme or layout options changed.
	ChangeTheme
)

// String returns the string representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeContent:
		return "content"
	case ChangeHover:
		return "hover"
	case ChangeFocus:
		return "focus"
	case ChangeSelection:
		return "selection"
	case ChangeAnimation:
		return "animation"
	case ChangeScroll:
		return "scroll"
	case ChangeResize:
		return "resize"
	case ChangeTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// Change represents a single damage event.
type Change struct {
	Type  ChangeType
	Items []core.Item
}

// Set is a snapshot of damaged cells. A nil Set means everything is
// damaged; an empty non-nil Set means nothing is.
type Set map[core.Item]struct{}

// NewSet returns a set holding items.
func NewSet(items ...core.Item) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// IsFull reports whether s stands for a full repaint.
func (s Set) IsFull() bool {
	return s == nil
}

// Has reports whether item must be repainted.
func (s Set) Has(item core.Item) bool {
	if s == nil {
		return true
	}
	_, ok := s[item]
	return ok
}

// HasRow reports whether any damaged item is in row.
func (s Set) HasRow(row int) bool {
	if s == nil {
		return true
	}
	for it := range s {
		if it.Row == row {
			return true
		}
	}
	return false
}

// Items returns the damaged items in draw order.
func (s Set) Items() []core.Item {
	out := make([]core.Item, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b core.Item) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	return out
}

// Tracker accumulates damage between frames and coalesces it into a full
// repaint when it grows large.
type Tracker struct {
	mu sync.RWMutex

	// cells contains the currently damaged cells.
	cells map[core.Item]struct{}

	// fullRedraw indicates everything needs repainting.
	fullRedraw bool

	// maxCells is the number of damaged cells that forces a full repaint.
	maxCells int

	// windowCells is the number of cells in the visible window.
	windowCells int

	// coalesceThreshold is the fraction of the window that triggers a full repaint.
	coalesceThreshold float64
}

// NewTracker creates a tracker. A fresh tracker starts with a full repaint
// pending since nothing has been painted yet.
func NewTracker(maxCells int) *Tracker {
	if maxCells <= 0 {
		maxCells = 4096
	}
	return &Tracker{
		cells:             make(map[core.Item]struct{}, 16),
		fullRedraw:        true,
		maxCells:          maxCells,
		coalesceThreshold: 0.5,
	}
}

// SetWindowCells updates the visible cell count used for coalescing.
func (t *Tracker) SetWindowCells(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.windowCells = max(n, 0)
}

// SetCoalesceThreshold sets the damaged fraction of the window above which
// damage is coalesced into a full repaint. Values <= 0 disable ratio
// coalescing.
func (t *Tracker) SetCoalesceThreshold(ratio float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.coalesceThreshold = ratio
}

// MarkFull marks everything as needing a repaint.
func (t *Tracker) MarkFull() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markFull()
}

func (t *Tracker) markFull() {
	t.fullRedraw = true
	clear(t.cells)
}

// MarkCell marks one cell.
func (t *Tracker) MarkCell(item core.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fullRedraw {
		return
	}
	t.cells[item] = struct{}{}
	t.coalesce()
}

// MarkCells marks several cells.
func (t *Tracker) MarkCells(items []core.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fullRedraw {
		return
	}
	for _, it := range items {
		t.cells[it] = struct{}{}
	}
	t.coalesce()
}

// MarkChange marks damage based on a change event.
func (t *Tracker) MarkChange(change Change) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fullRedraw {
		return
	}
	switch change.Type {
	case ChangeScroll, ChangeResize, ChangeTheme:
		t.markFull()
	default:
		for _, it := range change.Items {
			t.cells[it] = struct{}{}
		}
		t.coalesce()
	}
}

func (t *Tracker) coalesce() {
	if len(t.cells) > t.maxCells {
		t.markFull()
		return
	}
	if t.windowCells > 0 && t.coalesceThreshold > 0 &&
		float64(len(t.cells))/float64(t.windowCells) > t.coalesceThreshold {
		t.markFull()
	}
}

// IsDirty returns true if anything needs repainting.
func (t *Tracker) IsDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw || len(t.cells) > 0
}

// NeedsFullRedraw returns true if a full repaint is needed.
func (t *Tracker) NeedsFullRedraw() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fullRedraw
}

// IsCellDirty returns true if item needs repainting.
func (t *Tracker) IsCellDirty(item core.Item) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fullRedraw {
		return true
	}
	_, ok := t.cells[item]
	return ok
}

// Len returns the number of individually damaged cells.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cells)
}

// Snapshot returns a copy of the current damage. The result is nil when a
// full repaint is pending.
func (t *Tracker) Snapshot() Set {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() Set {
	if t.fullRedraw {
		return nil
	}
	s := make(Set, len(t.cells))
	for it := range t.cells {
		s[it] = struct{}{}
	}
	return s
}

// Take returns the current damage and clears the tracker atomically.
func (t *Tracker) Take() Set {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.snapshot()
	t.fullRedraw = false
	clear(t.cells)
	return s
}

// Clear clears all damage after rendering.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fullRedraw = false
	clear(t.cells)
}
