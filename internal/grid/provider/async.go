package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/gridstorm/internal/grid/cell"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/selection"
)

// DefaultPageRows is the number of rows fetched per request.
const DefaultPageRows = 64

// request is one in-flight page fetch.
type request struct {
	id     uuid.UUID
	page   int
	cancel context.CancelFunc
}

// Async turns a RangeFetcher into a non-blocking Getter. Unknown cells come
// back as cell.Loading while their page is fetched; when a page lands the
// loaded cells are passed to the update callback, which the grid wires to
// UpdateCells so only those cells are repainted.
type Async struct {
	mu       sync.Mutex
	fetcher  RangeFetcher
	cols     int
	rows     int
	pageRows int
	store    map[core.Item]cell.Content
	pending  map[int]*request
	onUpdate func(items []core.Item)
	logger   core.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	fetched  int
	canceled int
	failed   int
}

// AsyncConfig configures an Async provider.
type AsyncConfig struct {
	Columns  int
	Rows     int
	PageRows int
	OnUpdate func(items []core.Item)
	Logger   core.Logger
}

// NewAsync wraps fetcher. Cancelling ctx aborts every outstanding fetch.
func NewAsync(ctx context.Context, fetcher RangeFetcher, cfg AsyncConfig) *Async {
	if cfg.PageRows <= 0 {
		cfg.PageRows = DefaultPageRows
	}
	if cfg.Logger == nil {
		cfg.Logger = core.NopLogger{}
	}
	cctx, cancel := context.WithCancel(ctx)
	return &Async{
		fetcher:  fetcher,
		cols:     cfg.Columns,
		rows:     cfg.Rows,
		pageRows: cfg.PageRows,
		store:    make(map[core.Item]cell.Content),
		pending:  make(map[int]*request),
		onUpdate: cfg.OnUpdate,
		logger:   cfg.Logger,
		ctx:      cctx,
		cancel:   cancel,
	}
}

// SetUpdateFunc replaces the callback invoked with loaded cells.
func (a *Async) SetUpdateFunc(fn func(items []core.Item)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onUpdate = fn
}

// Get returns the cached content for item or a loading placeholder,
// scheduling a fetch of item's page when needed.
func (a *Async) Get(item core.Item) cell.Content {
	if !item.IsData() {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if c, ok := a.store[item]; ok {
		return c
	}
	if a.rows > 0 && item.Row >= a.rows {
		return nil
	}
	a.schedule(item.Row / a.pageRows)
	return cell.NewLoading()
}

// Getter returns a.Get as a Getter.
func (a *Async) Getter() Getter {
	return a.Get
}

// schedule starts fetching page unless it is already in flight. Caller holds mu.
func (a *Async) schedule(page int) {
	if a.closed {
		return
	}
	if _, ok := a.pending[page]; ok {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	req := &request{id: uuid.New(), page: page, cancel: cancel}
	a.pending[page] = req

	a.wg.Add(1)
	go a.fetch(ctx, req)
}

func (a *Async) fetch(ctx context.Context, req *request) {
	defer a.wg.Done()
	defer req.cancel()

	r := selection.Range{X: 0, Y: req.page * a.pageRows, Width: a.cols, Height: a.pageRows}
	if a.rows > 0 {
		r.Height = min(r.Height, a.rows-r.Y)
	}
	a.logger.Debug("fetch %s rows %d..%d", req.id, r.Y, r.Y+r.Height-1)

	matrix, err := a.fetcher.FetchRange(ctx, r)

	a.mu.Lock()
	// A newer request may have replaced this one after a cancel.
	if cur, ok := a.pending[req.page]; ok && cur.id == req.id {
		delete(a.pending, req.page)
	}
	if err != nil || ctx.Err() != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			a.canceled++
			a.logger.Debug("fetch %s canceled", req.id)
		} else {
			a.failed++
			a.logger.Warn("fetch %s rows %d..%d failed: %v", req.id, r.Y, r.Y+r.Height-1, err)
		}
		a.mu.Unlock()
		return
	}

	items := make([]core.Item, 0, len(matrix)*a.cols)
	for dy, row := range matrix {
		for dx, c := range row {
			if c == nil {
				continue
			}
			item := core.NewItem(r.X+dx, r.Y+dy)
			a.store[item] = c
			items = append(items, item)
		}
	}
	a.fetched++
	onUpdate := a.onUpdate
	a.mu.Unlock()

	if onUpdate != nil && len(items) > 0 {
		onUpdate(items)
	}
}

// CancelOutside aborts fetches for pages that do not intersect rows
// first..last and returns how many were cancelled.
func (a *Async) CancelOutside(first, last int) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := 0
	for page, req := range a.pending {
		start := page * a.pageRows
		end := start + a.pageRows - 1
		if end < first || start > last {
			req.cancel()
			delete(a.pending, page)
			n++
		}
	}
	return n
}

// Set stores content for item directly, for example after an edit.
func (a *Async) Set(item core.Item, c cell.Content) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store[item] = c
}

// Invalidate drops cached content so the next Get refetches it.
func (a *Async) Invalidate(items ...core.Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, it := range items {
		delete(a.store, it)
	}
}

// Pending returns the number of in-flight page fetches.
func (a *Async) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// AsyncStats counts fetch outcomes.
type AsyncStats struct {
	Fetched  int
	Canceled int
	Failed   int
	Cached   int
}

// Stats returns fetch counters.
func (a *Async) Stats() AsyncStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AsyncStats{Fetched: a.fetched, Canceled: a.canceled, Failed: a.failed, Cached: len(a.store)}
}

// Wait blocks until every started fetch has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Close cancels outstanding fetches and waits for them to exit.
func (a *Async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cancel()
	a.wg.Wait()
}
