package rangeset

import (
	"math"
	"math/rand"
	"reflect"
	"slices"
	"testing"
	"testing/quick"
)

// checkInvariants fails the test if s breaks the sorted/disjoint/non-touching rules.
func checkInvariants(t *testing.T, s Set) {
	t.Helper()
	for i, r := range s.items {
		if r.Start >= r.End {
			t.Fatalf("interval %d %v is empty", i, r)
		}
		if i > 0 && s.items[i-1].End >= r.Start {
			t.Fatalf("intervals %v and %v overlap or touch", s.items[i-1], r)
		}
	}
}

func TestAddIndexThenSlice(t *testing.T) {
	s := Empty().AddIndex(5).Add(NewSlice(10, 15))

	want := []int{5, 10, 11, 12, 13, 14}
	if got := s.ToArray(); !slices.Equal(got, want) {
		t.Errorf("ToArray() = %v, want %v", got, want)
	}
}

func TestRemoveSplitsInterval(t *testing.T) {
	s := FromSingle(NewSlice(2, 8)).RemoveIndex(3)

	if !s.HasIndex(2) {
		t.Error("HasIndex(2) should be true")
	}
	if s.HasIndex(3) {
		t.Error("HasIndex(3) should be false")
	}
	if !s.HasIndex(4) {
		t.Error("HasIndex(4) should be true")
	}
	if s.Length() != 5 {
		t.Errorf("Length() = %d, want 5", s.Length())
	}
	if s.RangeCount() != 2 {
		t.Errorf("RangeCount() = %d, want 2", s.RangeCount())
	}
}

func TestAddOrdersExtremeStarts(t *testing.T) {
	high := NewSlice(math.MaxInt-10, math.MaxInt-5)
	low := NewSlice(math.MinInt+5, math.MinInt+10)
	s := FromSingle(high).Add(low)

	checkInvariants(t, s)
	if s.RangeCount() != 2 {
		t.Fatalf("RangeCount() = %d, want 2 (%v)", s.RangeCount(), s)
	}
	if first, _ := s.First(); first != math.MinInt+5 {
		t.Errorf("First() = %d, want %d", first, math.MinInt+5)
	}
	if s.HasIndex(0) {
		t.Error("HasIndex(0) should be false")
	}
}

func TestTouchingIntervalsMerge(t *testing.T) {
	s := Empty().Add(NewSlice(0, 5)).Add(NewSlice(5, 10))

	if s.RangeCount() != 1 {
		t.Fatalf("RangeCount() = %d, want 1 (%v)", s.RangeCount(), s)
	}
	if s.items[0] != (Slice{0, 10}) {
		t.Errorf("merged = %v, want [0,10)", s.items[0])
	}
}

func TestAddIsImmutable(t *testing.T) {
	a := FromSingle(NewSlice(0, 3))
	b := a.Add(NewSlice(10, 12))

	if a.Length() != 3 {
		t.Errorf("receiver changed: %v", a)
	}
	if b.Length() != 5 {
		t.Errorf("result Length() = %d, want 5", b.Length())
	}

	c := b.Remove(NewSlice(0, 1))
	if b.Length() != 5 {
		t.Errorf("Remove changed receiver: %v", b)
	}
	if c.Length() != 4 {
		t.Errorf("Remove result Length() = %d, want 4", c.Length())
	}
}

func TestReversedSliceNormalized(t *testing.T) {
	s := Empty().Add(Slice{Start: 8, End: 3})

	if got := s.ToArray(); !slices.Equal(got, []int{3, 4, 5, 6, 7}) {
		t.Errorf("ToArray() = %v", got)
	}
	if got := s.Remove(Slice{Start: 6, End: 4}).ToArray(); !slices.Equal(got, []int{3, 6, 7}) {
		t.Errorf("Remove reversed = %v", got)
	}
}

func TestEmptySliceRejected(t *testing.T) {
	s := FromIndex(1)

	if got := s.Add(NewSlice(4, 4)); !got.Equals(s) {
		t.Errorf("Add(empty) = %v, want unchanged", got)
	}
	if got := s.Remove(NewSlice(1, 1)); !got.Equals(s) {
		t.Errorf("Remove(empty) = %v, want unchanged", got)
	}
	if !FromSingle(NewSlice(3, 3)).IsEmpty() {
		t.Error("FromSingle(empty) should be empty")
	}
}

func TestRemoveCases(t *testing.T) {
	base := FromSingle(NewSlice(10, 20))

	tests := []struct {
		name   string
		remove Slice
		want   []Slice
	}{
		{"disjoint left", NewSlice(0, 5), []Slice{{10, 20}}},
		{"disjoint right", NewSlice(20, 25), []Slice{{10, 20}}},
		{"trim left", NewSlice(5, 12), []Slice{{12, 20}}},
		{"trim right", NewSlice(18, 30), []Slice{{10, 18}}},
		{"split", NewSlice(12, 15), []Slice{{10, 12}, {15, 20}}},
		{"whole", NewSlice(0, 100), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Remove(tt.remove)
			checkInvariants(t, got)
			if !reflect.DeepEqual(got.items, tt.want) && !(len(got.items) == 0 && len(tt.want) == 0) {
				t.Errorf("Remove(%v) = %v, want %v", tt.remove, got.items, tt.want)
			}
		})
	}
}

func TestFirstLast(t *testing.T) {
	if _, ok := Empty().First(); ok {
		t.Error("First() on empty set should report false")
	}
	if _, ok := Empty().Last(); ok {
		t.Error("Last() on empty set should report false")
	}

	s := FromArray([]int{9, 3, 4, 20})
	if first, _ := s.First(); first != 3 {
		t.Errorf("First() = %d, want 3", first)
	}
	if last, _ := s.Last(); last != 20 {
		t.Errorf("Last() = %d, want 20", last)
	}
}

func TestHasAllAndIntersects(t *testing.T) {
	s := Empty().Add(NewSlice(0, 10)).Add(NewSlice(20, 30))

	if !s.HasAll(NewSlice(2, 8)) {
		t.Error("HasAll([2,8)) should be true")
	}
	if s.HasAll(NewSlice(5, 25)) {
		t.Error("HasAll([5,25)) spans a gap and should be false")
	}
	if !s.Intersects(NewSlice(5, 25)) {
		t.Error("Intersects([5,25)) should be true")
	}
	if s.Intersects(NewSlice(10, 20)) {
		t.Error("Intersects([10,20)) covers only the gap and should be false")
	}
}

func TestIterationStopsEarly(t *testing.T) {
	s := FromSingle(NewSlice(0, 1_000_000))

	count := 0
	for range s.All() {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("iterated %d, want 3", count)
	}
}

func TestPropertyInvariantsHold(t *testing.T) {
	type op struct {
		Remove bool
		Start  uint8
		Len    uint8
	}

	f := func(ops []op) bool {
		s := Empty()
		model := map[int]bool{}
		for _, o := range ops {
			sl := NewSlice(int(o.Start), int(o.Start)+int(o.Len%16))
			if o.Remove {
				s = s.Remove(sl)
				for i := sl.Start; i < sl.End; i++ {
					delete(model, i)
				}
			} else {
				s = s.Add(sl)
				for i := sl.Start; i < sl.End; i++ {
					model[i] = true
				}
			}
			for i, r := range s.items {
				if r.Start >= r.End {
					return false
				}
				if i > 0 && s.items[i-1].End >= r.Start {
					return false
				}
			}
		}
		if s.Length() != len(model) {
			return false
		}
		for idx := range model {
			if !s.HasIndex(idx) {
				return false
			}
		}
		return true
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyFromArrayRoundTrip(t *testing.T) {
	f := func(raw []int16) bool {
		xs := make([]int, len(raw))
		for i, v := range raw {
			xs[i] = int(v)
		}
		want := slices.Clone(xs)
		slices.Sort(want)
		want = slices.Compact(want)

		got := FromArray(xs).ToArray()
		if len(want) == 0 {
			return len(got) == 0
		}
		return slices.Equal(got, want)
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyOffset(t *testing.T) {
	f := func(raw []uint16, a, b int16) bool {
		xs := make([]int, len(raw))
		for i, v := range raw {
			xs[i] = int(v)
		}
		s := FromArray(xs)
		if !s.Offset(0).Equals(s) {
			return false
		}
		return s.Offset(int(a)).Offset(int(b)).Equals(s.Offset(int(a) + int(b)))
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestPropertyHasAllAfterAdd(t *testing.T) {
	f := func(starts []uint16, lens []uint8, index uint16) bool {
		s := Empty()
		var added []Slice
		for i, st := range starts {
			l := 1
			if i < len(lens) {
				l = int(lens[i]%32) + 1
			}
			sl := NewSlice(int(st), int(st)+l)
			s = s.Add(sl)
			added = append(added, sl)
		}
		for _, sl := range added {
			if !s.HasAll(sl) {
				return false
			}
		}
		inside := false
		for _, sl := range added {
			if sl.Contains(int(index)) {
				inside = true
				break
			}
		}
		return inside == s.HasIndex(int(index))
	}

	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func BenchmarkAddManyRanges(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	starts := make([]int, 100)
	for i := range starts {
		starts[i] = rng.Intn(10_000_000)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := Empty()
		for _, st := range starts {
			s = s.Add(NewSlice(st, st+50))
		}
	}
}
