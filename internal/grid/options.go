package grid

import "github.com/dshills/gridstorm/internal/grid/core"

// Options configures a Grid.
type Options struct {
	// Geometry
	RowHeight          float64 // fixed row height when no sizer is set
	HeaderHeight       float64
	GroupHeaderHeight  float64 // only used when some column has a group
	FreezeColumns      int     // leading sticky columns
	FrozenTrailingRows int     // trailing rows pinned to the bottom

	// Virtualization
	OverscanX int // extra columns painted on each side
	OverscanY int // extra rows painted on each side
	CacheSize int // item cache capacity

	// Damage
	MaxDamageCells int     // damaged cells before coalescing to a full repaint
	CoalesceRatio  float64 // damaged fraction of the window that coalesces

	// Appearance
	Theme           core.Theme
	VerticalBorders bool

	// Prediction warms the item cache for where scrolling is headed.
	Prediction bool
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	return Options{
		RowHeight:         34,
		HeaderHeight:      36,
		GroupHeaderHeight: 28,
		OverscanX:         0,
		OverscanY:         0,
		CacheSize:         8192,
		MaxDamageCells:    4096,
		CoalesceRatio:     0.5,
		Theme:             core.DefaultTheme(),
		VerticalBorders:   true,
		Prediction:        true,
	}
}
