package position

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/chess"
	"github.com/notnil/chess/uci"
)

// Game implements Model on top of github.com/notnil/chess.
type Game struct {
	game *chess.Game
}

var _ Model = (*Game)(nil)

// NewGame starts from the standard initial layout.
func NewGame() *Game {
	return &Game{game: chess.NewGame(chess.UseNotation(chess.UCINotation{}))}
}

func NewGameFromFEN(fen string) (*Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	return &Game{game: chess.NewGame(opt, chess.UseNotation(chess.UCINotation{}))}, nil
}

func toSquare(sq chess.Square) Square {
	return Square{File: int(sq.File()), Rank: int(sq.Rank())}
}

func fromSquare(sq Square) chess.Square {
	return chess.Square(sq.Rank*8 + sq.File)
}

func toKind(t chess.PieceType) PieceKind {
	switch t {
	case chess.King:
		return King
	case chess.Queen:
		return Queen
	case chess.Rook:
		return Rook
	case chess.Bishop:
		return Bishop
	case chess.Knight:
		return Knight
	case chess.Pawn:
		return Pawn
	default:
		return NoKind
	}
}

func toSide(c chess.Color) Side {
	if c == chess.Black {
		return Black
	}
	return White
}

func toMove(m *chess.Move) Move {
	return Move{From: toSquare(m.S1()), To: toSquare(m.S2()), Promotion: toKind(m.Promo())}
}

// find returns the library's own move value so its tags are available.
func (g *Game) find(m Move) *chess.Move {
	if !m.From.Valid() || !m.To.Valid() {
		return nil
	}
	for _, valid := range g.game.Position().ValidMoves() {
		if toMove(valid) == m {
			return valid
		}
	}
	return nil
}

func (g *Game) LegalMoves() []Move {
	valid := g.game.Position().ValidMoves()
	moves := make([]Move, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, toMove(m))
	}
	return moves
}

func (g *Game) Apply(m Move) error {
	valid := g.find(m)
	if valid == nil {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	if err := g.game.Move(valid); err != nil {
		return fmt.Errorf("%w: applying %s: %v", ErrRulesFault, m, err)
	}
	return nil
}

func (g *Game) PieceAt(sq Square) (Piece, bool) {
	if !sq.Valid() {
		return Piece{}, false
	}
	p := g.game.Position().Board().Piece(fromSquare(sq))
	if p == chess.NoPiece {
		return Piece{}, false
	}
	return Piece{Kind: toKind(p.Type()), Side: toSide(p.Color())}, true
}

func (g *Game) SideToMove() Side {
	return toSide(g.game.Position().Turn())
}

func (g *Game) IsCapture(m Move) bool {
	valid := g.find(m)
	if valid == nil {
		return false
	}
	return valid.HasTag(chess.Capture) || valid.HasTag(chess.EnPassant)
}

// InCheck uses the check tag of the last move played. A position loaded from
// FEN without history only reports check through its checkmate status.
func (g *Game) InCheck() bool {
	moves := g.game.Moves()
	if len(moves) > 0 {
		return moves[len(moves)-1].HasTag(chess.Check)
	}
	return g.game.Position().Status() == chess.Checkmate
}

// InsufficientMaterial covers K v K, K+minor v K and bishops all on one color.
func (g *Game) InsufficientMaterial() bool {
	var (
		knights int
		bishops = map[int]int{}
	)
	for sq, p := range g.game.Position().Board().SquareMap() {
		switch p.Type() {
		case chess.King:
		case chess.Knight:
			knights++
		case chess.Bishop:
			bishops[(int(sq.File())+int(sq.Rank()))%2]++
		default:
			return false
		}
	}
	minors := knights + bishops[0] + bishops[1]
	if minors <= 1 {
		return true
	}
	return knights == 0 && (bishops[0] == 0 || bishops[1] == 0)
}

// fenNumber reads the numeric FEN field i, or returns def.
func fenNumber(fen string, i, def int) int {
	fields := strings.Fields(fen)
	if len(fields) <= i {
		return def
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return def
	}
	return n
}

func (g *Game) HalfMoveClock() int {
	return fenNumber(g.FEN(), 4, 0)
}

// repetitionKey keeps placement, turn, castling and en passant. The en
// passant square only counts while a capture onto it is legal.
func repetitionKey(pos *chess.Position) string {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	if len(fields) == 4 && fields[3] != "-" && !enPassantAvailable(pos) {
		fields[3] = "-"
	}
	return strings.Join(fields, " ")
}

func enPassantAvailable(pos *chess.Position) bool {
	for _, m := range pos.ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return true
		}
	}
	return false
}

func (g *Game) Repetitions() int {
	current := repetitionKey(g.game.Position())
	count := 0
	for _, pos := range g.game.Positions() {
		if repetitionKey(pos) == current {
			count++
		}
	}
	return count
}

func (g *Game) FEN() string {
	return g.game.Position().String()
}

func (g *Game) MoveList() []string {
	positions := g.game.Positions()
	moves := g.game.Moves()
	list := make([]string, 0, len(moves))
	for i, m := range moves {
		list = append(list, chess.AlgebraicNotation{}.Encode(positions[i], m))
	}
	return list
}

func (g *Game) FirstMove() (int, Side) {
	start := g.game.Positions()[0]
	return fenNumber(start.String(), 5, 1), toSide(start.Turn())
}

// Clone replays the move history on a fresh game so that no position is
// shared with g.
func (g *Game) Clone() (Model, error) {
	positions := g.game.Positions()
	clone, err := NewGameFromFEN(positions[0].String())
	if err != nil {
		return nil, fmt.Errorf("%w: cloning: %v", ErrRulesFault, err)
	}
	for _, m := range g.game.Moves() {
		if err := clone.game.Move(m); err != nil {
			return nil, fmt.Errorf("%w: replaying %s: %v", ErrRulesFault, toMove(m), err)
		}
	}
	return clone, nil
}

// PositionCommand describes the game to an engine: the start position and
// every move played since.
func (g *Game) PositionCommand() uci.CmdPosition {
	return uci.CmdPosition{Position: g.game.Positions()[0], Moves: g.game.Moves()}
}

// PGN renders the game with its move history.
func (g *Game) PGN() string {
	return g.game.String()
}
