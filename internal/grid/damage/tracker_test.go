package damage

import (
	"sync"
	"testing"

	"github.com/dshills/gridstorm/internal/grid/core"
)

func TestNewTrackerStartsFull(t *testing.T) {
	tracker := NewTracker(0)

	if !tracker.NeedsFullRedraw() {
		t.Error("new tracker should need full redraw")
	}
	if tracker.maxCells != 4096 {
		t.Errorf("maxCells = %d, want 4096", tracker.maxCells)
	}
	if s := tracker.Snapshot(); !s.IsFull() {
		t.Errorf("Snapshot() = %v, want full", s)
	}
}

func TestTrackerMarkCell(t *testing.T) {
	tracker := NewTracker(100)
	tracker.Clear()

	if tracker.IsDirty() {
		t.Fatal("cleared tracker should not be dirty")
	}

	tracker.MarkCell(core.NewItem(3, 4))
	if !tracker.IsDirty() {
		t.Error("should be dirty after MarkCell")
	}
	if !tracker.IsCellDirty(core.NewItem(3, 4)) {
		t.Error("(3,4) should be dirty")
	}
	if tracker.IsCellDirty(core.NewItem(4, 3)) {
		t.Error("(4,3) should not be dirty")
	}

	s := tracker.Snapshot()
	if s.IsFull() || len(s) != 1 || !s.Has(core.NewItem(3, 4)) {
		t.Errorf("Snapshot() = %v, want {(3,4)}", s)
	}
}

func TestTrackerMarkChange(t *testing.T) {
	tests := []struct {
		change   Change
		wantFull bool
	}{
		{Change{Type: ChangeContent, Items: []core.Item{{Col: 1, Row: 1}}}, false},
		{Change{Type: ChangeHover, Items: []core.Item{{Col: 1, Row: 1}, {Col: 2, Row: 1}}}, false},
		{Change{Type: ChangeScroll}, true},
		{Change{Type: ChangeResize}, true},
		{Change{Type: ChangeTheme}, true},
	}
	for _, tt := range tests {
		tracker := NewTracker(100)
		tracker.Clear()
		tracker.MarkChange(tt.change)
		if got := tracker.NeedsFullRedraw(); got != tt.wantFull {
			t.Errorf("MarkChange(%s) full = %v, want %v", tt.change.Type, got, tt.wantFull)
		}
		if !tt.wantFull && tracker.Len() != len(tt.change.Items) {
			t.Errorf("MarkChange(%s) Len() = %d, want %d", tt.change.Type, tracker.Len(), len(tt.change.Items))
		}
	}
}

func TestTrackerCoalescesByCount(t *testing.T) {
	tracker := NewTracker(3)
	tracker.Clear()

	tracker.MarkCells([]core.Item{{Col: 0, Row: 0}, {Col: 1, Row: 0}, {Col: 2, Row: 0}})
	if tracker.NeedsFullRedraw() {
		t.Fatal("3 cells should not coalesce with maxCells 3")
	}
	tracker.MarkCell(core.NewItem(3, 0))
	if !tracker.NeedsFullRedraw() {
		t.Error("4 cells should coalesce with maxCells 3")
	}
	if tracker.Len() != 0 {
		t.Errorf("Len() after coalesce = %d, want 0", tracker.Len())
	}
}

func TestTrackerCoalescesByRatio(t *testing.T) {
	tracker := NewTracker(1000)
	tracker.Clear()
	tracker.SetWindowCells(10)

	for i := 0; i < 5; i++ {
		tracker.MarkCell(core.NewItem(i, 0))
	}
	if tracker.NeedsFullRedraw() {
		t.Fatal("50% of window should not coalesce")
	}
	tracker.MarkCell(core.NewItem(5, 0))
	if !tracker.NeedsFullRedraw() {
		t.Error("60% of window should coalesce")
	}

	tracker.Clear()
	tracker.SetCoalesceThreshold(0)
	for i := 0; i < 9; i++ {
		tracker.MarkCell(core.NewItem(i, 0))
	}
	if tracker.NeedsFullRedraw() {
		t.Error("ratio coalescing should be disabled")
	}
}

func TestTrackerTake(t *testing.T) {
	tracker := NewTracker(100)

	if s := tracker.Take(); !s.IsFull() {
		t.Errorf("first Take() = %v, want full", s)
	}
	if tracker.IsDirty() {
		t.Error("tracker should be clean after Take")
	}

	tracker.MarkCell(core.NewItem(1, 2))
	s := tracker.Take()
	if s.IsFull() || !s.Has(core.NewItem(1, 2)) {
		t.Errorf("Take() = %v, want {(1,2)}", s)
	}
	if s := tracker.Take(); s.IsFull() || len(s) != 0 {
		t.Errorf("Take() on clean tracker = %v, want empty", s)
	}
}

func TestSetHelpers(t *testing.T) {
	var full Set
	if !full.Has(core.NewItem(9, 9)) || !full.HasRow(9) {
		t.Error("nil set should contain everything")
	}

	s := NewSet(core.NewItem(2, 1), core.NewItem(0, 1), core.NewItem(5, 0))
	if !s.HasRow(1) || s.HasRow(2) {
		t.Error("HasRow mismatch")
	}
	items := s.Items()
	want := []core.Item{{Col: 0, Row: 1}, {Col: 2, Row: 1}, {Col: 5, Row: 0}}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("Items()[%d] = %v, want %v", i, items[i], want[i])
		}
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tracker := NewTracker(1 << 20)
	tracker.Clear()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tracker.MarkCell(core.NewItem(g, i))
				tracker.IsCellDirty(core.NewItem(g, i))
			}
		}(g)
	}
	wg.Wait()

	if tracker.Len() != 800 {
		t.Errorf("Len() = %d, want 800", tracker.Len())
	}
}
