// Package selection turns a sequence of square clicks into candidate moves.
package selection

import (
	"github.com/qnkhuat/stockterm/pkg/position"
)

type State int

const (
	Idle State = iota
	OriginSelected
)

func (s State) String() string {
	if s == OriginSelected {
		return "OriginSelected"
	}
	return "Idle"
}

// Destination is a square reachable from the selected origin. Occupied is set
// when a piece stands there, letting renderers tell captures from quiet moves.
type Destination struct {
	Square   position.Square
	Occupied bool
}

// Machine is the two state click machine: Idle and OriginSelected.
// The zero value is Idle and promotes to a queen.
type Machine struct {
	state     State
	origin    position.Square
	promotion position.PieceKind
}

// NewMachine returns an idle machine that completes promotions with kind.
func NewMachine(promotion position.PieceKind) *Machine {
	return &Machine{promotion: promotion}
}

func (m *Machine) State() State {
	return m.state
}

// Origin returns the selected square when the machine is in OriginSelected.
func (m *Machine) Origin() (position.Square, bool) {
	return m.origin, m.state == OriginSelected
}

func (m *Machine) Reset() {
	m.state = Idle
	m.origin = position.Square{}
}

func (m *Machine) promotionKind() position.PieceKind {
	if m.promotion == position.NoKind {
		return position.Queen
	}
	return m.promotion
}

// Click feeds one square. It returns a legal move when the click completes
// one. Any destination that is not legal, the origin itself included, cancels
// the selection.
func (m *Machine) Click(pos position.Model, sq position.Square) (position.Move, bool) {
	if m.state == Idle {
		if p, ok := pos.PieceAt(sq); ok && p.Side == pos.SideToMove() {
			m.state = OriginSelected
			m.origin = sq
		}
		return position.Move{}, false
	}

	origin := m.origin
	m.Reset()

	legal := pos.LegalMoves()
	move := position.NewMove(origin, sq)
	if position.Contains(legal, move) {
		return move, true
	}
	move.Promotion = m.promotionKind()
	if position.Contains(legal, move) {
		return move, true
	}
	return position.Move{}, false
}

// Destinations returns the legal destinations of the current selection.
func (m *Machine) Destinations(pos position.Model) []Destination {
	if m.state != OriginSelected {
		return nil
	}
	return LegalDestinations(pos, m.origin)
}

// LegalDestinations lists every square a piece on origin can move to, once
// each even when several promotions reach it.
func LegalDestinations(pos position.Model, origin position.Square) []Destination {
	var (
		dests []Destination
		seen  = make(map[position.Square]bool)
	)
	for _, mv := range pos.LegalMoves() {
		if mv.From != origin || seen[mv.To] {
			continue
		}
		seen[mv.To] = true
		_, occupied := pos.PieceAt(mv.To)
		dests = append(dests, Destination{Square: mv.To, Occupied: occupied})
	}
	return dests
}
