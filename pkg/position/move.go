package position

import "fmt"

// Move is compared structurally; it only has meaning relative to a position.
type Move struct {
	From      Square
	To        Square
	Promotion PieceKind
}

func NewMove(from, to Square) Move {
	return Move{From: from, To: to}
}

// String encodes the move in UCI long algebraic notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	return m.From.String() + m.To.String() + m.Promotion.Letter()
}

// ParseMove parses UCI long algebraic notation. It checks syntax only.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("position: invalid move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("position: invalid move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("position: invalid move %q: %w", s, err)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		kind, ok := ParsePromotion(s[4:])
		if !ok {
			return Move{}, fmt.Errorf("position: invalid promotion in %q", s)
		}
		m.Promotion = kind
	}
	return m, nil
}

// Contains reports whether m is a member of moves.
func Contains(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}
