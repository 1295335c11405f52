// Package position is the single point through which the rest of the program
// touches board state. Chess rules live behind the Model interface.
package position

import (
	"errors"

	"github.com/notnil/chess/uci"
)

var (
	// ErrIllegalMove is returned by Apply for moves outside LegalMoves.
	ErrIllegalMove = errors.New("illegal move")
	// ErrRulesFault means the rules implementation itself failed.
	ErrRulesFault = errors.New("rules engine fault")
)

// StartFEN is the standard initial layout.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Model is a chess position together with the predicates needed to play and
// terminate a game. Apply is atomic: it either replaces the position or fails
// without touching it.
type Model interface {
	LegalMoves() []Move
	Apply(m Move) error
	PieceAt(sq Square) (Piece, bool)
	SideToMove() Side

	// IsCapture reports whether a legal move takes a piece, en passant included.
	IsCapture(m Move) bool
	InCheck() bool
	InsufficientMaterial() bool
	// HalfMoveClock counts plies since the last capture or pawn move.
	HalfMoveClock() int
	// Repetitions counts how often the current position occurred in the game.
	Repetitions() int

	FEN() string
	// MoveList returns the moves played so far in standard algebraic notation.
	MoveList() []string
	// FirstMove is the move number and side of the first entry of MoveList.
	FirstMove() (number int, side Side)
	// Clone copies the position and its history. A failure is a rules fault.
	Clone() (Model, error)
	// PositionCommand is the "position" command that sets up this game,
	// history included, in a UCI engine.
	PositionCommand() uci.CmdPosition
}
