package game

import (
	"github.com/qnkhuat/stockterm/pkg/outcome"
	"github.com/qnkhuat/stockterm/pkg/position"
)

// Event is pushed to listeners. The concrete types below are the only ones.
type Event interface {
	event()
}

type MoveApplied struct {
	Move     position.Move
	Side     position.Side
	Capture  bool
	ByEngine bool
}

type GameEnded struct {
	Outcome outcome.Outcome
}

type SelectionChanged struct {
	Origin       *position.Square
	Destinations []DestinationView
}

type EngineThinking struct {
	Side position.Side
}

type EngineFailed struct {
	Err error
}

func (MoveApplied) event()      {}
func (GameEnded) event()        {}
func (SelectionChanged) event() {}
func (EngineThinking) event()   {}
func (EngineFailed) event()     {}

// Listener is called on the goroutine running the controller. It must not
// block and must not call back into the controller except for Snapshot.
type Listener func(Event)
