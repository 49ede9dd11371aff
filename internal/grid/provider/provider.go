// Package provider supplies cell content to the grid.
//
// The draw loop asks for content synchronously, one visible cell at a time,
// through a Getter. Slow sources implement RangeFetcher instead and are
// wrapped in Async, which answers with a loading placeholder immediately,
// fetches whole pages in the background and reports the cells that arrived
// through a damage callback.
package provider

import (
	"context"
	"errors"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/selection"
)

// ErrClosed is returned by sources used after Close.
var ErrClosed = errors.New("provider closed")

// Getter returns the content for one cell. It must not block.
type Getter func(item core.Item) cell.Content

// RangeFetcher fetches a rectangle of cells. The result is indexed
// [row][col] relative to the rectangle and may be shorter than requested
// at the end of the data. Implementations must return promptly with
// ctx.Err() once ctx is cancelled.
type RangeFetcher interface {
	FetchRange(ctx context.Context, r selection.Range) ([][]cell.Content, error)
}

// RangeFetcherFunc adapts a function to RangeFetcher.
type RangeFetcherFunc func(ctx context.Context, r selection.Range) ([][]cell.Content, error)

func (f RangeFetcherFunc) FetchRange(ctx context.Context, r selection.Range) ([][]cell.Content, error) {
	return f(ctx, r)
}

// FetchWithGetter builds a range result by calling get for every cell,
// checking ctx between rows.
func FetchWithGetter(ctx context.Context, r selection.Range, get Getter) ([][]cell.Content, error) {
	out := make([][]cell.Content, 0, max(r.Height, 0))
	for dy := 0; dy < r.Height; dy++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make([]cell.Content, r.Width)
		for dx := 0; dx < r.Width; dx++ {
			row[dx] = get(core.NewItem(r.X+dx, r.Y+dy))
		}
		out = append(out, row)
	}
	return out, nil
}
