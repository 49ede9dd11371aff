package app

import (
	"context"
	"math"

	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/luacell"
	"github.com/dshills/gridstorm/internal/grid/provider"
)

// Scale selects the unit of the target surface.
type Scale int

const (
	// ScalePixels keeps configured sizes, for raster output.
	ScalePixels Scale = iota
	// ScaleCells converts sizes to terminal cells.
	ScaleCells
)

// pixelsPerCell is the horizontal size of one terminal cell in config units.
const pixelsPerCell = 8

// View is a grid wired to an async content provider and any scripted
// renderers.
type View struct {
	Grid    *grid.Grid
	Content *provider.Async
	scale   Scale
	scripts []*luacell.Renderer
}

// NewView builds a grid over src using cfg.
func NewView(ctx context.Context, cfg *config.Config, src *Source, scale Scale, logger *Logger) (*View, error) {
	opts, err := cfg.GridOptions()
	if err != nil {
		return nil, NewComponentError("grid", "options", err)
	}
	cols := src.Columns
	if scale == ScaleCells {
		opts = cellOptions(opts)
		cols = cellColumns(cols)
	}

	content := provider.NewAsync(ctx, src.Fetcher, provider.AsyncConfig{
		Columns:  len(cols),
		Rows:     src.Rows,
		PageRows: cfg.Data.PageRows,
		Logger:   logger.WithComponent("source"),
	})
	g := grid.New(content.Get, opts, logger.WithComponent("grid"))
	content.SetUpdateFunc(g.UpdateCells)
	g.SetColumns(cols)
	g.SetRowCount(src.Rows)

	v := &View{Grid: g, Content: content, scale: scale}
	if dir := cfg.Grid.ScriptsDir; dir != "" {
		scripts, err := luacell.RegisterDir(g.Registry(), dir, logger.WithComponent("scripts"))
		if err != nil {
			content.Close()
			return nil, NewComponentError("scripts", "load "+dir, err)
		}
		v.scripts = scripts
		logger.Info("loaded %d renderer scripts from %s", len(scripts), dir)
	}
	return v, nil
}

// Apply re-applies the reloadable parts of cfg: theme, frozen columns and
// rows, and vertical borders.
func (v *View) Apply(cfg *config.Config) error {
	opts, err := cfg.GridOptions()
	if err != nil {
		return err
	}
	if v.scale == ScaleCells {
		opts = cellOptions(opts)
	}
	v.Grid.SetTheme(opts.Theme)
	v.Grid.SetFreeze(opts.FreezeColumns)
	v.Grid.SetFrozenTrailingRows(opts.FrozenTrailingRows)
	v.Grid.SetVerticalBorders(opts.VerticalBorders)
	v.Grid.Invalidate()
	return nil
}

// Close stops outstanding fetches and releases script states.
func (v *View) Close() {
	v.Content.Close()
	for _, s := range v.scripts {
		s.Close()
	}
}

// cellOptions converts options to terminal cells: one line per row and
// header, one cell of padding.
func cellOptions(opts grid.Options) grid.Options {
	opts.RowHeight = 1
	opts.HeaderHeight = 1
	opts.GroupHeaderHeight = 1
	opts.Theme.CellHorizontalPadding = 1
	opts.Theme.CellVerticalPadding = 0
	opts.Theme.RoundingRadius = 0
	return opts
}

func cellColumns(cols []geometry.Column) []geometry.Column {
	out := make([]geometry.Column, len(cols))
	for i, c := range cols {
		c.Width = max(math.Round(c.Width/pixelsPerCell), 4)
		out[i] = c
	}
	return out
}
