package app

import (
	"context"
	"time"

	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/geometry"
	"github.com/dshills/gridstorm/internal/grid/provider"
)

// Source is an opened content source with its column definitions.
type Source struct {
	Fetcher provider.RangeFetcher
	Columns []geometry.Column
	Rows    int

	close func()
}

// Close releases the source's connection, if any.
func (s *Source) Close() {
	if s.close != nil {
		s.close()
	}
}

// DefaultColumns returns the demo column set used when no columns file is
// configured for the synthetic source.
func DefaultColumns() []geometry.Column {
	return []geometry.Column{
		{ID: "marker", Title: "", Width: 48, Kind: cell.KindMarker},
		{ID: "name", Title: "Name", Width: 180, Group: "Item", Kind: cell.KindText},
		{ID: "price", Title: "Price", Width: 120, Group: "Item", Kind: cell.KindNumber},
		{ID: "active", Title: "Active", Width: 96, Group: "Status", Kind: cell.KindBoolean},
		{ID: "link", Title: "Link", Width: 260, Group: "Status", Kind: cell.KindURI},
		{ID: "id", Title: "ID", Width: 300, Kind: cell.KindRowID},
		{ID: "secret", Title: "Secret", Width: 120, Kind: cell.KindProtected},
	}
}

// OpenSource opens the content source selected by cfg.Data.
func OpenSource(ctx context.Context, cfg *config.Config) (*Source, error) {
	var cols []geometry.Column
	if cfg.Data.ColumnsFile != "" {
		loaded, err := config.LoadColumns(cfg.Data.ColumnsFile)
		if err != nil {
			return nil, NewOperationError("load", cfg.Data.ColumnsFile, err).WithContext("columns")
		}
		cols = loaded
	}

	switch cfg.Data.Source {
	case config.SourcePostgres:
		return openPostgres(ctx, cfg, cols)
	default:
		if cols == nil {
			cols = DefaultColumns()
		}
		kinds := make([]cell.Kind, len(cols))
		for i, c := range cols {
			kinds[i] = c.Kind
		}
		syn := provider.NewSynthetic(kinds...)
		syn.Delay = time.Duration(cfg.Data.DelayMS) * time.Millisecond
		return &Source{Fetcher: syn, Columns: cols, Rows: cfg.Data.Rows}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, cols []geometry.Column) (*Source, error) {
	if len(cols) == 0 {
		return nil, NewOperationError("connect", cfg.Data.Table, ErrNoColumns).WithContext("postgres needs data.columns_file")
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.ID
	}
	src, err := provider.ConnectSQL(ctx, cfg.Data.DatabaseURL, cfg.Data.Table, names, cfg.Data.OrderBy)
	if err != nil {
		return nil, NewOperationError("connect", cfg.Data.Table, err)
	}
	rows, err := src.Count(ctx)
	if err != nil {
		src.Close()
		return nil, NewOperationError("count", cfg.Data.Table, err)
	}
	if cfg.Data.Rows > 0 {
		rows = min(rows, cfg.Data.Rows)
	}
	return &Source{Fetcher: src, Columns: cols, Rows: rows, close: src.Close}, nil
}
