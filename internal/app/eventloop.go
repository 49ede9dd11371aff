package app

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/gridstorm/internal/grid/core"
	"github.com/dshills/gridstorm/internal/grid/selection"
)

// Scroll steps in terminal cells.
const (
	wheelRows    = 3
	wheelColumns = 8
)

// handleEvent routes one terminal event. A panic while handling is
// returned as a *RecoveredPanicError so the loop keeps running.
func (app *Application) handleEvent(ev tcell.Event) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = NewRecoveredPanicError(eventName(ev), r, string(debug.Stack()))
		}
		app.metrics.RecordInput(time.Since(start))
	}()

	switch ev := ev.(type) {
	case *tcell.EventResize:
		app.term.Sync()
		app.view.Grid.Invalidate()
	case *tcell.EventKey:
		return app.handleKey(ev)
	case *tcell.EventMouse:
		app.handleMouse(ev)
	case *tcell.EventPaste:
		app.handlePaste(ev)
	case *tcell.EventFocus:
		app.view.Grid.SetFocus(ev.Focused)
	}
	return nil
}

func eventName(ev tcell.Event) string {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ev.Name()
	case *tcell.EventMouse:
		x, y := ev.Position()
		return fmt.Sprintf("mouse %d,%d", x, y)
	default:
		return fmt.Sprintf("%T", ev)
	}
}

func (app *Application) handleKey(ev *tcell.EventKey) error {
	if app.pasting {
		app.bufferPaste(ev)
		return nil
	}

	extend := ev.Modifiers()&tcell.ModShift != 0
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return ErrQuit
	case tcell.KeyUp:
		app.moveFocus(0, -1, extend)
	case tcell.KeyDown:
		app.moveFocus(0, 1, extend)
	case tcell.KeyLeft:
		app.moveFocus(-1, 0, extend)
	case tcell.KeyRight:
		app.moveFocus(1, 0, extend)
	case tcell.KeyTab:
		app.moveFocus(1, 0, false)
	case tcell.KeyBacktab:
		app.moveFocus(-1, 0, false)
	case tcell.KeyPgDn:
		app.moveFocus(0, app.pageRows(), extend)
	case tcell.KeyPgUp:
		app.moveFocus(0, -app.pageRows(), extend)
	case tcell.KeyHome:
		app.moveFocus(0, -app.view.Grid.RowCount(), extend)
	case tcell.KeyEnd:
		app.moveFocus(0, app.view.Grid.RowCount(), extend)
	case tcell.KeyCtrlL:
		app.view.Grid.Invalidate()
	case tcell.KeyRune:
		return app.handleRune(ev.Rune())
	}
	return nil
}

func (app *Application) handleRune(r rune) error {
	g := app.view.Grid
	switch r {
	case 'q':
		return ErrQuit
	case 'h':
		app.moveFocus(-1, 0, false)
	case 'j':
		app.moveFocus(0, 1, false)
	case 'k':
		app.moveFocus(0, -1, false)
	case 'l':
		app.moveFocus(1, 0, false)
	case ' ':
		if cur := g.Selection().Current(); cur != nil {
			g.SetSelection(g.Selection().ToggleRow(cur.Cell.Row))
		}
	case 'c':
		if cur := g.Selection().Current(); cur != nil {
			g.SetSelection(g.Selection().ToggleColumn(cur.Cell.Col))
		}
	}
	return nil
}

// pageRows returns the number of body rows on screen.
func (app *Application) pageRows() int {
	w := app.view.Grid.Window()
	return max(w.LastRow-w.FirstRow, 1)
}

// moveFocus moves the current cell by (dc, dr), clamped to the grid, and
// scrolls it into view. With extend the current range grows from the
// focused cell instead.
func (app *Application) moveFocus(dc, dr int, extend bool) {
	g := app.view.Grid
	cols, rows := len(g.Columns()), g.RowCount()
	if cols == 0 || rows == 0 {
		return
	}

	sel := g.Selection()
	cur := sel.Current()
	from := core.NewItem(0, 0)
	if cur != nil {
		from = cur.Cell
		if extend {
			from = app.rangeEnd
		}
	}
	to := core.NewItem(
		min(max(from.Col+dc, 0), cols-1),
		min(max(from.Row+dr, 0), rows-1),
	)

	if extend && cur != nil {
		next, err := sel.WithRange(cur.Cell, selection.RangeBetween(cur.Cell, to))
		if err != nil {
			return
		}
		sel = next
	} else {
		sel = sel.WithCell(to)
	}
	app.rangeEnd = to
	g.SetSelection(sel)
	g.ScrollToCell(to)
}

func (app *Application) handleMouse(ev *tcell.EventMouse) {
	g := app.view.Grid
	x, y := ev.Position()
	// Cell centres keep hit-testing away from column edges.
	fx, fy := float64(x)+0.5, float64(y)+0.5

	buttons := ev.Buttons()
	switch {
	case buttons&tcell.WheelUp != 0:
		g.ScrollBy(0, -wheelRows)
	case buttons&tcell.WheelDown != 0:
		g.ScrollBy(0, wheelRows)
	case buttons&tcell.WheelLeft != 0:
		g.ScrollBy(-wheelColumns, 0)
	case buttons&tcell.WheelRight != 0:
		g.ScrollBy(wheelColumns, 0)
	case buttons&tcell.Button1 != 0:
		app.click(fx, fy, ev.Modifiers()&tcell.ModShift != 0)
	}
	g.SetHover(fx, fy)
}

func (app *Application) click(x, y float64, extend bool) {
	g := app.view.Grid
	item, ok := g.CellAt(x, y)
	if !ok {
		return
	}
	sel := g.Selection()
	switch item.Row {
	case core.HeaderIndex:
		g.SetSelection(sel.ToggleColumn(item.Col))
	case core.GroupHeaderIndex:
		// Group headers do nothing on click.
	default:
		if cur := sel.Current(); extend && cur != nil {
			if next, err := sel.WithRange(cur.Cell, selection.RangeBetween(cur.Cell, item)); err == nil {
				sel = next
			}
		} else {
			sel = sel.WithCell(item)
		}
		app.rangeEnd = item
		g.SetSelection(sel)
	}
}

// handlePaste brackets a paste. Keys between start and end are buffered
// and offered to the grid as tab-separated text when the paste ends.
func (app *Application) handlePaste(ev *tcell.EventPaste) {
	if ev.Start() {
		app.pasting = true
		app.pasteBuf = app.pasteBuf[:0]
		return
	}
	app.pasting = false
	text := string(app.pasteBuf)
	app.pasteBuf = app.pasteBuf[:0]

	results, err := app.view.Grid.Paste(text)
	if err != nil {
		app.logger.Warn("%v", err)
		return
	}
	var items []core.Item
	for _, r := range results {
		app.view.Content.Set(r.Item, r.Cell)
		items = append(items, r.Item)
	}
	app.view.Grid.UpdateCells(items)
	app.logger.Debug("pasted %d cells", len(items))
}

func (app *Application) bufferPaste(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyRune:
		app.pasteBuf = append(app.pasteBuf, ev.Rune())
	case tcell.KeyEnter, tcell.KeyCtrlJ:
		app.pasteBuf = append(app.pasteBuf, '\n')
	case tcell.KeyTab:
		app.pasteBuf = append(app.pasteBuf, '\t')
	}
}

// startInputPolling polls the screen on its own goroutine. PollEvent
// returns nil once the screen is finalized, which ends the goroutine.
func (app *Application) startInputPolling(screen tcell.Screen) <-chan tcell.Event {
	events := make(chan tcell.Event, 100)

	go func() {
		defer close(events)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-app.done:
				return
			default:
				app.metrics.RecordInputDropped()
			}
		}
	}()
	return events
}
