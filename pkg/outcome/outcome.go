// Package outcome classifies whether a position ends the game.
package outcome

import (
	"fmt"

	"github.com/qnkhuat/stockterm/pkg/position"
)

type Kind int

const (
	InProgress Kind = iota
	Checkmate
	Draw
)

func (k Kind) String() string {
	switch k {
	case InProgress:
		return "InProgress"
	case Checkmate:
		return "Checkmate"
	case Draw:
		return "Draw"
	default:
		return "Unknown"
	}
}

type Reason int

const (
	NoReason Reason = iota
	Stalemate
	InsufficientMaterial
	SeventyFiveMoveRule
	FivefoldRepetition
)

func (r Reason) String() string {
	switch r {
	case Stalemate:
		return "Stalemate"
	case InsufficientMaterial:
		return "InsufficientMaterial"
	case SeventyFiveMoveRule:
		return "SeventyFiveMoveRule"
	case FivefoldRepetition:
		return "FivefoldRepetition"
	default:
		return "None"
	}
}

const (
	// seventyFiveMovePlies is 75 moves by each side without capture or pawn move.
	seventyFiveMovePlies = 150
	fivefold             = 5
)

// Outcome is InProgress, Checkmate with a Winner, or Draw with a Reason.
type Outcome struct {
	Kind   Kind
	Winner position.Side
	Reason Reason
}

func (o Outcome) Over() bool {
	return o.Kind != InProgress
}

// Result returns the PGN style score: "1-0", "0-1", "1/2-1/2" or "*".
func (o Outcome) Result() string {
	switch o.Kind {
	case Checkmate:
		if o.Winner == position.White {
			return "1-0"
		}
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case Checkmate:
		return fmt.Sprintf("%s (Checkmate, %s wins)", o.Result(), o.Winner)
	case Draw:
		return fmt.Sprintf("%s (%s)", o.Result(), o.Reason)
	default:
		return "*"
	}
}

// Detect evaluates pos. Positions without legal moves are classified first so
// a mate or stalemate is never reported as a draw by rule.
func Detect(pos position.Model) Outcome {
	if len(pos.LegalMoves()) == 0 {
		if pos.InCheck() {
			return Outcome{Kind: Checkmate, Winner: pos.SideToMove().Other()}
		}
		return Outcome{Kind: Draw, Reason: Stalemate}
	}
	if pos.InsufficientMaterial() {
		return Outcome{Kind: Draw, Reason: InsufficientMaterial}
	}
	if pos.HalfMoveClock() >= seventyFiveMovePlies {
		return Outcome{Kind: Draw, Reason: SeventyFiveMoveRule}
	}
	if pos.Repetitions() >= fivefold {
		return Outcome{Kind: Draw, Reason: FivefoldRepetition}
	}
	return Outcome{Kind: InProgress}
}
