package game

import (
	"github.com/google/uuid"
	"github.com/qnkhuat/stockterm/pkg/outcome"
	"github.com/qnkhuat/stockterm/pkg/position"
)

// DestinationView is a highlighted destination of the current selection.
type DestinationView struct {
	Square  position.Square
	Capture bool
}

// Snapshot is a read-only copy of everything a renderer needs for one frame.
type Snapshot struct {
	ID           uuid.UUID
	FEN          string
	Board        [position.NumRanks][position.NumFiles]position.Piece
	SideToMove   position.Side
	Human        position.Side
	InCheck      bool
	Origin       *position.Square
	Destinations []DestinationView
	LastMove     *position.Move
	Moves        []string
	Outcome      outcome.Outcome
	Thinking     bool
	EngineErr    error

	// FirstMove and FirstSide number the first entry of Moves.
	FirstMove int
	FirstSide position.Side
}

// PieceAt returns the piece on sq, with Kind NoKind for an empty square.
func (s Snapshot) PieceAt(sq position.Square) position.Piece {
	if !sq.Valid() {
		return position.Piece{}
	}
	return s.Board[sq.Rank][sq.File]
}

// Destination reports whether sq is highlighted and whether it is a capture.
func (s Snapshot) Destination(sq position.Square) (highlighted, capture bool) {
	for _, d := range s.Destinations {
		if d.Square == sq {
			return true, d.Capture
		}
	}
	return false, false
}
