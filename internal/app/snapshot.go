package app

import (
	"context"

	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/grid"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

// Snapshot renders the top of the grid at width x height pixels and writes
// it to path as PNG. The first frame schedules the visible pages; the
// second paints them once loaded.
func Snapshot(ctx context.Context, cfg *config.Config, width, height int, path string, logger *Logger) (grid.Stats, error) {
	if logger == nil {
		logger = GetLogger()
	}
	src, err := OpenSource(ctx, cfg)
	if err != nil {
		return grid.Stats{}, err
	}
	defer src.Close()

	view, err := NewView(ctx, cfg, src, ScalePixels, logger)
	if err != nil {
		return grid.Stats{}, err
	}
	defer view.Close()

	raster, err := surface.NewRaster(width, height)
	if err != nil {
		return grid.Stats{}, NewOperationError("snapshot", path, err)
	}
	defer raster.Close()

	for range 2 {
		if _, err := view.Grid.Render(ctx, raster); err != nil {
			return grid.Stats{}, NewOperationError("snapshot", path, err)
		}
		view.Content.Wait()
	}
	if err := raster.Err(); err != nil {
		return grid.Stats{}, NewOperationError("snapshot", path, err)
	}
	if err := raster.SavePNG(path); err != nil {
		return grid.Stats{}, NewOperationError("snapshot", path, err)
	}

	stats := view.Grid.Stats()
	logger.Info("snapshot %s: %d frames, %s", path, stats.Frames, stats.Total)
	return stats, nil
}
