// Package app runs gridstorm: it opens the configured content source,
// builds the grid, and drives it from terminal input or renders a single
// snapshot.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/config"
	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/surface"
)

// Frame pacing for the interactive loop.
const (
	targetFPS = 60
	frameTime = time.Second / targetFPS
)

// Options configures the application.
type Options struct {
	// Config is the loaded configuration. Nil uses config.Default().
	Config *config.Config

	// Watch reloads the config file when it changes on disk.
	Watch bool

	// Screen is the terminal screen. Nil opens the real terminal.
	Screen tcell.Screen

	// Logger receives application logs. Nil uses GetLogger().
	Logger *Logger
}

// Application is the interactive grid viewer.
type Application struct {
	cfg     *config.Config
	source  *Source
	view    *View
	term    *surface.Terminal
	watcher *config.Watcher
	logger  *Logger
	metrics *Metrics

	reloads chan *config.Config

	// Input state, only touched from the loop goroutine.
	rangeEnd core.Item
	pasting  bool
	pasteBuf []rune

	running  atomic.Bool
	done     chan struct{}
	stopOnce sync.Once

	opts Options
}

// New opens the content source and builds the grid. Close releases
// everything New acquired.
func New(ctx context.Context, opts Options) (*Application, error) {
	app := &Application{
		cfg:     opts.Config,
		logger:  opts.Logger,
		metrics: NewMetrics(),
		reloads: make(chan *config.Config, 1),
		done:    make(chan struct{}),
		opts:    opts,
	}
	if app.cfg == nil {
		app.cfg = config.Default()
	}
	if app.logger == nil {
		app.logger = GetLogger()
	}

	src, err := OpenSource(ctx, app.cfg)
	if err != nil {
		return nil, err
	}
	app.source = src

	view, err := NewView(ctx, app.cfg, src, ScaleCells, app.logger)
	if err != nil {
		src.Close()
		return nil, err
	}
	app.view = view

	if opts.Watch && app.cfg.Path() != "" {
		w, err := config.NewWatcher(app.cfg.Path(), app.onReload)
		if err != nil {
			_ = app.Close()
			return nil, NewComponentError("watcher", "start", err)
		}
		app.watcher = w
	}

	app.logger.Info("opened %s source: %d rows, %d columns", app.cfg.Data.Source, src.Rows, len(src.Columns))
	return app, nil
}

// View returns the grid view.
func (app *Application) View() *View {
	return app.view
}

// Run drives the grid from terminal input until quit, Stop or ctx ends.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	term, err := app.openTerminal()
	if err != nil {
		return NewComponentError("terminal", "init", err)
	}
	app.term = term
	defer term.Shutdown()

	g := app.view.Grid
	g.SetFocus(true)
	if g.Selection().Current() == nil {
		app.moveFocus(0, 0, false)
	}

	events := app.startInputPolling(term.Screen())
	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	app.renderFrame(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-app.done:
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := app.handleEvent(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				app.logger.Error("event: %v", err)
			}

		case cfg := <-app.reloads:
			app.applyConfig(cfg)

		case <-ticker.C:
			app.renderFrame(ctx)
		}
	}
}

func (app *Application) openTerminal() (*surface.Terminal, error) {
	var (
		term *surface.Terminal
		err  error
	)
	if app.opts.Screen != nil {
		term, err = surface.NewTerminalForScreen(app.opts.Screen)
	} else {
		term, err = surface.NewTerminal()
	}
	if err != nil {
		return nil, err
	}
	term.Screen().EnableFocus()
	return term, nil
}

// renderFrame paints pending damage and drops fetches for pages that
// scrolled away.
func (app *Application) renderFrame(ctx context.Context) {
	g := app.view.Grid
	if !g.NeedsRender() {
		app.metrics.RecordIdleFrame()
		return
	}
	timer := StartTimer()
	stats, err := g.Render(ctx, app.term)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			app.logger.Error("render: %v", err)
		}
		return
	}
	app.metrics.RecordFrame(timer.Elapsed(), stats)

	w := g.Window()
	if !w.IsEmpty() {
		margin := w.LastRow - w.FirstRow + 1
		if n := app.view.Content.CancelOutside(w.FirstRow-margin, w.LastRow+margin); n > 0 {
			app.logger.Debug("cancelled %d fetches outside rows %d..%d", n, w.FirstRow, w.LastRow)
		}
	}
}

// onReload runs on the watcher goroutine. Only the newest config is kept.
func (app *Application) onReload(cfg *config.Config, err error) {
	if err != nil {
		app.logger.Warn("config reload: %v", err)
		return
	}
	for {
		select {
		case app.reloads <- cfg:
			return
		default:
		}
		select {
		case <-app.reloads:
		default:
		}
	}
}

func (app *Application) applyConfig(cfg *config.Config) {
	if err := app.view.Apply(cfg); err != nil {
		app.logger.Warn("config reload: %v", err)
		return
	}
	app.logger.SetLevel(ParseLogLevel(cfg.Logging.Level))
	app.cfg = cfg
	app.metrics.RecordReload()
	app.logger.Info("config reloaded from %s", cfg.Path())
}

// Stop asks Run to return.
func (app *Application) Stop() {
	app.stopOnce.Do(func() { close(app.done) })
}

// Close stops the watcher, cancels fetches and closes the source.
func (app *Application) Close() error {
	app.Stop()
	errs := NewErrorList()
	if app.watcher != nil {
		errs.Add(app.watcher.Close())
	}
	if app.view != nil {
		app.view.Close()
	}
	if app.source != nil {
		app.source.Close()
	}
	return errs.AsError()
}
