// Package tui draws the game in a terminal and turns mouse clicks and keys
// into controller inputs.
package tui

import (
	"log"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/stockterm/pkg/game"
	"github.com/rivo/tview"
)

type UI struct {
	App    *tview.Application
	Board  *tview.Table
	Status *tview.TextView
	Moves  *tview.TextView
	Layout *tview.Grid

	ctrl    *game.Controller
	in      chan<- game.Input
	theme   Theme
	name    string
	clicked bool

	// redraw holds at most one pending redraw request; Render reads a fresh
	// snapshot so requests can be merged.
	redraw   chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func New(ctrl *game.Controller, in chan<- game.Input, theme Theme, name string) *UI {
	app := tview.NewApplication()

	board := tview.NewTable()
	status := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	status.SetBorder(true).SetTitle(" " + name + " ")
	moves := tview.NewTextView()
	moves.SetBorder(true).SetTitle(" Moves ")

	panel := tview.NewGrid().
		SetRows(7, moveRows+2, -1).
		SetColumns(-1).
		AddItem(status, 0, 0, 1, 1, 0, 0, false).
		AddItem(moves, 1, 0, 1, 1, 0, 0, false)

	layout := tview.NewGrid().
		SetRows(-1, numrows+1, -1).
		SetColumns(-1, 4*numcols+4, 32, -1).
		AddItem(tview.NewBox(), 0, 0, 1, 4, 0, 0, false).
		AddItem(tview.NewBox(), 1, 0, 1, 1, 0, 0, false).
		AddItem(board, 1, 1, 1, 1, 0, 0, true).
		AddItem(panel, 1, 2, 2, 1, 0, 0, false).
		AddItem(tview.NewBox(), 1, 3, 1, 1, 0, 0, false).
		AddItem(tview.NewBox(), 2, 0, 1, 2, 0, 0, false)

	ui := &UI{
		App:     app,
		Board:   board,
		Status:  status,
		Moves:   moves,
		Layout:  layout,
		ctrl:    ctrl,
		in:      in,
		theme:   theme,
		name:    name,
		redraw:  make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	ui.initTable()
	ui.initKeys()
	ui.Render()
	app.SetRoot(layout, true).SetFocus(board).EnableMouse(true)
	go ui.redrawLoop()
	return ui
}

func (ui *UI) initTable() {
	ui.Board.SetSelectable(true, true)
	ui.Board.Select(0, 1)
	// Enter on the keyboard cursor behaves like a click.
	ui.Board.SetSelectedFunc(func(row, col int) {
		ui.click(row, col)
	})
	// A mouse click moves the table selection; the changed callback then
	// fires with the cell under the pointer.
	ui.Board.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseLeftClick {
			ui.clicked = true
		}
		return action, event
	})
	ui.Board.SetSelectionChangedFunc(func(row, col int) {
		if ui.clicked {
			ui.clicked = false
			ui.click(row, col)
		}
	})
}

func (ui *UI) initKeys() {
	ui.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		ui.clicked = false
		switch {
		case event.Key() == tcell.KeyEscape, event.Rune() == 'q':
			if ui.ctrl.Outcome().Over() {
				ui.Stop()
				return nil
			}
			ui.send(game.Quit())
			return nil
		case event.Rune() == 'r':
			ui.send(game.Retry())
			return nil
		}
		return event
	})
}

func (ui *UI) click(row, col int) {
	if row < 0 || row >= numrows || col < 1 || col > numcols {
		return
	}
	snap := ui.ctrl.Snapshot()
	ui.send(game.Click(posToSquare(row, col, snap.Human)))
}

// send never blocks the UI goroutine; the controller may itself be waiting
// for a redraw to be queued.
func (ui *UI) send(in game.Input) {
	select {
	case ui.in <- in:
	default:
		log.Printf("input queue full, dropping %s", in.Action)
	}
}

// Render redraws every widget from a fresh snapshot. Call it on the UI
// goroutine.
func (ui *UI) Render() {
	snap := ui.ctrl.Snapshot()
	renderBoard(ui.Board, snap, ui.theme)
	ui.Status.SetTextColor(ui.theme.Msg)
	ui.Status.SetText(statusText(snap, ui.name))
	ui.Moves.SetText(movesText(snap))
}

// HandleEvent is a game.Listener: it schedules a redraw for every event. It
// never blocks, so the controller keeps running after the UI has stopped.
func (ui *UI) HandleEvent(ev game.Event) {
	switch e := ev.(type) {
	case game.MoveApplied:
		if e.Capture {
			log.Printf("%s captured with %s", e.Side, e.Move)
		}
	case game.GameEnded:
		log.Printf("game ended: %s", e.Outcome)
	}
	select {
	case ui.redraw <- struct{}{}:
	default:
	}
}

// redrawLoop hands redraw requests to the application. QueueUpdateDraw waits
// for the event loop, so it may stay blocked here once the app is gone.
func (ui *UI) redrawLoop() {
	for {
		select {
		case <-ui.stopped:
			return
		case <-ui.redraw:
			ui.App.QueueUpdateDraw(ui.Render)
		}
	}
}

// Run blocks until Stop is called or the terminal fails.
func (ui *UI) Run() error {
	defer ui.markStopped()
	return ui.App.Run()
}

func (ui *UI) Stop() {
	ui.markStopped()
	ui.App.Stop()
}

func (ui *UI) markStopped() {
	ui.stopOnce.Do(func() { close(ui.stopped) })
}
