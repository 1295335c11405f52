package game

import "github.com/qnkhuat/stockterm/pkg/position"

type Action int

const (
	ActionClick Action = iota
	ActionQuit
	// ActionRetry asks the engine again after a failed request.
	ActionRetry
)

func (a Action) String() string {
	switch a {
	case ActionClick:
		return "Click"
	case ActionQuit:
		return "Quit"
	case ActionRetry:
		return "Retry"
	default:
		return "Unknown"
	}
}

// Input is one event from the input source. Square is only set for clicks.
type Input struct {
	Action Action
	Square position.Square
}

func Click(sq position.Square) Input {
	return Input{Action: ActionClick, Square: sq}
}

func Quit() Input {
	return Input{Action: ActionQuit}
}

func Retry() Input {
	return Input{Action: ActionRetry}
}
