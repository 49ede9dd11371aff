package geometry

// Header holds the heights of the header band.
type Header struct {
	Height      float64
	GroupHeight float64
}

// NewHeader returns the header layout for cols. The group header band is
// only present when some column belongs to a group.
func NewHeader(height, groupHeight float64, cols []Column) Header {
	h := Header{Height: max(height, 0)}
	for _, c := range cols {
		if c.Group != "" {
			h.GroupHeight = max(groupHeight, 0)
			break
		}
	}
	return h
}

// Total returns the combined header height, which is also the top of the body.
func (h Header) Total() float64 {
	return h.Height + h.GroupHeight
}

// GroupSpan is a run of adjacent mapped columns sharing a group name.
type GroupSpan struct {
	Group string
	X     float64
	Width float64
	First int // source index of the first column in the run
}

// GroupSpans returns the group header runs for mapped columns. Sticky and
// scrolling columns never share a run.
func GroupSpans(mapped []MappedColumn) []GroupSpan {
	var out []GroupSpan
	for i, m := range mapped {
		if m.Group == "" {
			continue
		}
		if i > 0 && len(out) > 0 {
			prev := mapped[i-1]
			last := &out[len(out)-1]
			if prev.Group == m.Group && prev.Sticky == m.Sticky && prev.Right() == m.X {
				last.Width = m.Right() - last.X
				continue
			}
		}
		out = append(out, GroupSpan{Group: m.Group, X: m.X, Width: m.Width, First: m.SourceIndex})
	}
	return out
}
