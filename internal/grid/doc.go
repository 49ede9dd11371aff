// Package grid is the data grid facade.
//
// A Grid owns everything needed to paint a virtualized table onto a
// surface: the column and row geometry, the visible window, the selection,
// the per-instance renderer registry, the damage tracker and the item
// cache. Hosts feed it input (scroll, hover, selection, content updates)
// and call Render once per frame; Render paints only what changed since
// the previous frame.
//
// Architecture:
//
//	Grid
//	  ├── geometry  (column/row layout, header bands)
//	  ├── virtual   (visible window, item cache, scroll predictor)
//	  ├── damage    (damaged cell tracking)
//	  ├── draw      (the per-frame draw loop)
//	  ├── cellrender (renderers by cell kind)
//	  └── surface   (recorder, raster and terminal targets)
//
// Content comes from a provider.Getter. The getter must not block; slow
// sources go through provider.Async, whose update callback is wired to
// UpdateCells.
package grid
