// Package rangeset provides an immutable set of integer indices stored as
// sorted, disjoint, half-open intervals.
//
// Row and column selections over millions of indices typically collapse to a
// handful of intervals, so every operation is linear (or n log n) in the
// number of intervals rather than in the number of indices.
//
// Invariants held by every Set value:
//   - intervals are sorted ascending by Start
//   - intervals are non-empty (Start < End)
//   - no two intervals overlap or touch; [0,5) and [5,10) are stored as [0,10)
//
// Sets are values: every mutation returns a new Set and never modifies the
// receiver, so a Set can be shared freely between readers.
package rangeset

import (
	"cmp"
	"iter"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Slice is a half-open interval [Start, End).
type Slice struct {
	Start int
	End   int
}

// NewSlice creates a slice, swapping the bounds when end < start.
func NewSlice(start, end int) Slice {
	if end < start {
		start, end = end, start
	}
	return Slice{Start: start, End: end}
}

// Single returns the slice containing only index.
func Single(index int) Slice {
	return Slice{Start: index, End: index + 1}
}

// Len returns the number of indices in the slice.
func (s Slice) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// IsEmpty returns true if the slice contains no indices.
func (s Slice) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains returns true if index is inside the slice.
func (s Slice) Contains(index int) bool {
	return index >= s.Start && index < s.End
}

func (s Slice) normalize() Slice {
	return NewSlice(s.Start, s.End)
}

func (s Slice) String() string {
	return "[" + strconv.Itoa(s.Start) + "," + strconv.Itoa(s.End) + ")"
}

// Set is an immutable set of integer indices.
// The zero value is the empty set.
type Set struct {
	items []Slice
}

// Empty returns the empty set.
func Empty() Set {
	return Set{}
}

// FromSingle returns a set containing exactly the given slice.
func FromSingle(s Slice) Set {
	s = s.normalize()
	if s.IsEmpty() {
		return Set{}
	}
	return Set{items: []Slice{s}}
}

// FromIndex returns a set containing exactly one index.
func FromIndex(index int) Set {
	return Set{items: []Slice{Single(index)}}
}

// FromArray builds a set from arbitrary indices; duplicates are ignored.
func FromArray(indices []int) Set {
	if len(indices) == 0 {
		return Set{}
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)

	items := make([]Slice, 0, 4)
	cur := Single(sorted[0])
	for _, idx := range sorted[1:] {
		if idx <= cur.End {
			cur.End = max(cur.End, idx+1)
			continue
		}
		items = append(items, cur)
		cur = Single(idx)
	}
	items = append(items, cur)
	return Set{items: items}
}

// Add returns the union of the set and the slice.
// Reversed slices are normalized; empty slices leave the set unchanged.
func (s Set) Add(sl Slice) Set {
	sl = sl.normalize()
	if sl.IsEmpty() || s.HasAll(sl) {
		return s
	}

	items := make([]Slice, 0, len(s.items)+1)
	items = append(items, s.items...)
	items = append(items, sl)
	slices.SortFunc(items, func(a, b Slice) int {
		return cmp.Compare(a.Start, b.Start)
	})

	merged := items[:1]
	for _, next := range items[1:] {
		last := &merged[len(merged)-1]
		// Touching intervals merge as well as overlapping ones.
		if next.Start <= last.End {
			last.End = max(last.End, next.End)
			continue
		}
		merged = append(merged, next)
	}
	return Set{items: merged}
}

// AddIndex is Add(Single(index)).
func (s Set) AddIndex(index int) Set {
	return s.Add(Single(index))
}

// Remove returns the set without the indices of the slice.
// Intervals straddling the slice are split into up to two remainders.
func (s Set) Remove(sl Slice) Set {
	sl = sl.normalize()
	if sl.IsEmpty() || len(s.items) == 0 {
		return s
	}

	items := make([]Slice, 0, len(s.items)+1)
	changed := false
	for _, r := range s.items {
		if r.End <= sl.Start || r.Start >= sl.End {
			items = append(items, r)
			continue
		}
		changed = true
		if r.Start < sl.Start {
			items = append(items, Slice{Start: r.Start, End: sl.Start})
		}
		if sl.End < r.End {
			items = append(items, Slice{Start: sl.End, End: r.End})
		}
	}
	if !changed {
		return s
	}
	if len(items) == 0 {
		return Set{}
	}
	return Set{items: items}
}

// RemoveIndex is Remove(Single(index)).
func (s Set) RemoveIndex(index int) Set {
	return s.Remove(Single(index))
}

// find returns the position of the first interval whose End is past index.
func (s Set) find(index int) int {
	return sort.Search(len(s.items), func(i int) bool {
		return s.items[i].End > index
	})
}

// HasIndex returns true if index is in the set.
func (s Set) HasIndex(index int) bool {
	i := s.find(index)
	return i < len(s.items) && s.items[i].Start <= index
}

// HasAll returns true if every index of the slice is in the set.
// An empty slice is trivially contained.
func (s Set) HasAll(sl Slice) bool {
	sl = sl.normalize()
	if sl.IsEmpty() {
		return true
	}
	i := s.find(sl.Start)
	if i >= len(s.items) {
		return false
	}
	r := s.items[i]
	return r.Start <= sl.Start && sl.End <= r.End
}

// Intersects returns true if any index of the slice is in the set.
func (s Set) Intersects(sl Slice) bool {
	sl = sl.normalize()
	if sl.IsEmpty() {
		return false
	}
	i := s.find(sl.Start)
	return i < len(s.items) && s.items[i].Start < sl.End
}

// First returns the smallest index.
func (s Set) First() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	return s.items[0].Start, true
}

// Last returns the largest index.
func (s Set) Last() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	return s.items[len(s.items)-1].End - 1, true
}

// Offset returns the set with every index shifted by amount.
func (s Set) Offset(amount int) Set {
	if amount == 0 || len(s.items) == 0 {
		return s
	}
	items := make([]Slice, len(s.items))
	for i, r := range s.items {
		items[i] = Slice{Start: r.Start + amount, End: r.End + amount}
	}
	return Set{items: items}
}

// Length returns the number of indices in the set.
func (s Set) Length() int {
	n := 0
	for _, r := range s.items {
		n += r.Len()
	}
	return n
}

// IsEmpty returns true if the set has no indices.
func (s Set) IsEmpty() bool {
	return len(s.items) == 0
}

// RangeCount returns the number of disjoint intervals.
func (s Set) RangeCount() int {
	return len(s.items)
}

// ToArray returns every index in ascending order.
func (s Set) ToArray() []int {
	out := make([]int, 0, s.Length())
	for idx := range s.All() {
		out = append(out, idx)
	}
	return out
}

// All iterates every index in ascending order.
func (s Set) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, r := range s.items {
			for i := r.Start; i < r.End; i++ {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// Ranges iterates the disjoint intervals in ascending order.
func (s Set) Ranges() iter.Seq[Slice] {
	return func(yield func(Slice) bool) {
		for _, r := range s.items {
			if !yield(r) {
				return
			}
		}
	}
}

// Equals returns true if both sets contain the same indices.
func (s Set) Equals(other Set) bool {
	return slices.Equal(s.items, other.items)
}

func (s Set) String() string {
	parts := make([]string, len(s.items))
	for i, r := range s.items {
		parts[i] = r.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
