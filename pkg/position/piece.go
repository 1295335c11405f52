package position

type PieceKind int

const (
	NoKind PieceKind = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

func (k PieceKind) String() string {
	switch k {
	case King:
		return "King"
	case Queen:
		return "Queen"
	case Rook:
		return "Rook"
	case Bishop:
		return "Bishop"
	case Knight:
		return "Knight"
	case Pawn:
		return "Pawn"
	default:
		return "None"
	}
}

// Letter returns the lower case UCI suffix used for promotions ("q", "n", ...).
func (k PieceKind) Letter() string {
	switch k {
	case King:
		return "k"
	case Queen:
		return "q"
	case Rook:
		return "r"
	case Bishop:
		return "b"
	case Knight:
		return "n"
	case Pawn:
		return "p"
	default:
		return ""
	}
}

// ParsePromotion maps a UCI promotion letter to its kind.
func ParsePromotion(s string) (PieceKind, bool) {
	switch s {
	case "q", "Q":
		return Queen, true
	case "r", "R":
		return Rook, true
	case "b", "B":
		return Bishop, true
	case "n", "N":
		return Knight, true
	}
	return NoKind, false
}

type Piece struct {
	Kind PieceKind
	Side Side
}

var glyphs = map[Side]map[PieceKind]string{
	White: {King: "♔", Queen: "♕", Rook: "♖", Bishop: "♗", Knight: "♘", Pawn: "♙"},
	Black: {King: "♚", Queen: "♛", Rook: "♜", Bishop: "♝", Knight: "♞", Pawn: "♟"},
}

// String returns the unicode chess glyph, or a blank for an empty square.
func (p Piece) String() string {
	if p.Kind == NoKind {
		return " "
	}
	return glyphs[p.Side][p.Kind]
}
