package geometry

import "sort"

// checkpointStride is the number of rows between cached prefix-sum offsets.
const checkpointStride = 64

// RowSizer resolves row heights: a fixed scalar, or a per-row function when
// Func is non-nil.
type RowSizer struct {
	Fixed float64
	Func  func(row int) float64
}

// FixedRows returns a sizer where every row has height h.
func FixedRows(h float64) RowSizer {
	return RowSizer{Fixed: h}
}

// DynamicRows returns a sizer backed by fn.
func DynamicRows(fn func(row int) float64) RowSizer {
	return RowSizer{Func: fn}
}

// IsFixed reports whether every row has the same height.
func (s RowSizer) IsFixed() bool {
	return s.Func == nil
}

func (s RowSizer) height(row int) float64 {
	if s.Func == nil {
		return max(s.Fixed, 0)
	}
	return max(s.Func(row), 0)
}

// RowLayout maps row indices to vertical offsets relative to the top of the
// body. Offsets under a dynamic sizer are cached at every checkpointStride
// rows and filled lazily, so the first lookup deep into the grid pays for
// the prefix once and later lookups cost at most checkpointStride heights.
//
// RowLayout is not safe for concurrent use; lookups fill the cache.
type RowLayout struct {
	count       int
	sizer       RowSizer
	checkpoints []float64
}

// NewRowLayout creates a layout for count rows.
func NewRowLayout(count int, sizer RowSizer) *RowLayout {
	l := &RowLayout{sizer: sizer}
	l.SetRowCount(count)
	return l
}

// SetRowCount changes the number of rows and drops cached offsets.
func (l *RowLayout) SetRowCount(count int) {
	l.count = max(count, 0)
	l.Invalidate()
}

// SetSizer changes the sizing function and drops cached offsets.
func (l *RowLayout) SetSizer(sizer RowSizer) {
	l.sizer = sizer
	l.Invalidate()
}

// Invalidate drops cached offsets. Call it when a dynamic sizer's results
// change without the sizer itself being replaced.
func (l *RowLayout) Invalidate() {
	l.checkpoints = l.checkpoints[:0]
	l.checkpoints = append(l.checkpoints, 0)
}

// RowCount returns the number of rows.
func (l *RowLayout) RowCount() int {
	return l.count
}

// Sizer returns the current sizer.
func (l *RowLayout) Sizer() RowSizer {
	return l.sizer
}

// Height returns the height of row, or 0 when out of range.
func (l *RowLayout) Height(row int) float64 {
	if row < 0 || row >= l.count {
		return 0
	}
	return l.sizer.height(row)
}

// CachedCheckpoints returns how many checkpoints are currently filled.
func (l *RowLayout) CachedCheckpoints() int {
	return len(l.checkpoints)
}

// extend fills checkpoints up to and including index k.
func (l *RowLayout) extend(k int) {
	maxK := l.count / checkpointStride
	k = min(k, maxK)
	for len(l.checkpoints) <= k {
		last := len(l.checkpoints) - 1
		off := l.checkpoints[last]
		start := last * checkpointStride
		end := min(start+checkpointStride, l.count)
		for r := start; r < end; r++ {
			off += l.sizer.height(r)
		}
		l.checkpoints = append(l.checkpoints, off)
	}
}

// Offset returns the top of row. Offset(RowCount()) is the total height.
func (l *RowLayout) Offset(row int) float64 {
	row = min(max(row, 0), l.count)
	if l.sizer.IsFixed() {
		return float64(row) * l.sizer.height(0)
	}
	k := row / checkpointStride
	l.extend(k)
	off := l.checkpoints[k]
	for r := k * checkpointStride; r < row; r++ {
		off += l.sizer.height(r)
	}
	return off
}

// TotalHeight returns the height of all rows.
func (l *RowLayout) TotalHeight() float64 {
	return l.Offset(l.count)
}

// RowAt returns the row containing body offset y.
func (l *RowLayout) RowAt(y float64) (int, bool) {
	if y < 0 || l.count == 0 {
		return 0, false
	}
	if l.sizer.IsFixed() {
		h := l.sizer.height(0)
		if h <= 0 {
			return 0, false
		}
		row := int(y / h)
		if row >= l.count {
			return 0, false
		}
		return row, true
	}

	maxK := l.count / checkpointStride
	for len(l.checkpoints)-1 < maxK && l.checkpoints[len(l.checkpoints)-1] <= y {
		l.extend(len(l.checkpoints))
	}
	// Largest checkpoint at or before y.
	k := sort.Search(len(l.checkpoints), func(i int) bool {
		return l.checkpoints[i] > y
	}) - 1
	k = max(k, 0)

	off := l.checkpoints[k]
	for r := k * checkpointStride; r < l.count; r++ {
		h := l.sizer.height(r)
		if y < off+h {
			return r, true
		}
		off += h
	}
	return 0, false
}

// FrozenRows describes the trailing rows pinned to the bottom edge.
type FrozenRows struct {
	First  int     // first frozen row index
	Count  int     // number of frozen rows
	Y      float64 // surface y of the first frozen row
	Height float64 // combined height
}

// Contains reports whether row is frozen.
func (f FrozenRows) Contains(row int) bool {
	return f.Count > 0 && row >= f.First && row < f.First+f.Count
}

// FrozenRowsLayout anchors the last frozen rows to the bottom of a viewport
// of height viewportHeight. The result does not depend on vertical scroll.
func (l *RowLayout) FrozenRowsLayout(frozen int, viewportHeight float64) FrozenRows {
	frozen = min(max(frozen, 0), l.count)
	if frozen == 0 {
		return FrozenRows{First: l.count, Y: viewportHeight}
	}
	first := l.count - frozen
	h := l.TotalHeight() - l.Offset(first)
	return FrozenRows{
		First:  first,
		Count:  frozen,
		Y:      viewportHeight - h,
		Height: h,
	}
}

// FrozenRowY returns the surface y of a frozen row.
func (l *RowLayout) FrozenRowY(f FrozenRows, row int) float64 {
	return f.Y + l.Offset(row) - l.Offset(f.First)
}
