package position

import "fmt"

type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	switch s {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

// Other returns the opponent of s.
func (s Side) Other() Side {
	if s == White {
		return Black
	}
	return White
}

// ParseSide accepts "white"/"w" and "black"/"b" in any case.
func ParseSide(s string) (Side, error) {
	switch s {
	case "white", "White", "w", "W":
		return White, nil
	case "black", "Black", "b", "B":
		return Black, nil
	}
	return White, fmt.Errorf("position: unknown side %q", s)
}
