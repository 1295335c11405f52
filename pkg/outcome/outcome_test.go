package outcome

import (
	"testing"

	"github.com/qnkhuat/stockterm/pkg/position"
)

// stubPosition lets the draw counters be set independently of the board.
type stubPosition struct {
	*position.Game
	halfMoves   int
	repetitions int
	inCheck     bool
	noMoves     bool
}

func (s stubPosition) HalfMoveClock() int { return s.halfMoves }
func (s stubPosition) Repetitions() int   { return s.repetitions }
func (s stubPosition) InCheck() bool      { return s.inCheck }
func (s stubPosition) LegalMoves() []position.Move {
	if s.noMoves {
		return nil
	}
	return s.Game.LegalMoves()
}

func fromFEN(t *testing.T, fen string) *position.Game {
	t.Helper()
	g, err := position.NewGameFromFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func play(t *testing.T, g *position.Game, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := position.ParseMove(s)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Apply(m); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDetect(t *testing.T) {
	for _, d := range []struct {
		name string
		fen  string
		want Outcome
	}{
		{"initial", position.StartFEN, Outcome{Kind: InProgress}},
		{"back rank mate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", Outcome{Kind: Checkmate, Winner: position.White}},
		{"stalemate", "k7/8/1QK5/8/8/8/8/8 b - - 0 1", Outcome{Kind: Draw, Reason: Stalemate}},
		{"bare kings", "8/8/8/4k3/8/8/8/4K3 w - - 0 1", Outcome{Kind: Draw, Reason: InsufficientMaterial}},
		{"seventy five moves", "8/8/8/4k3/8/8/3R4/4K3 w - - 150 120", Outcome{Kind: Draw, Reason: SeventyFiveMoveRule}},
		{"fifty moves is not enough", "8/8/8/4k3/8/8/3R4/4K3 w - - 100 120", Outcome{Kind: InProgress}},
		{"mate beats move counter", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 150 120", Outcome{Kind: Checkmate, Winner: position.White}},
		{"stalemate beats move counter", "k7/8/1QK5/8/8/8/8/8 b - - 150 120", Outcome{Kind: Draw, Reason: Stalemate}},
	} {
		got := Detect(fromFEN(t, d.fen))
		if got != d.want {
			t.Errorf("%s: got %v, want %v", d.name, got, d.want)
		}
	}
}

func TestDetectFoolsMate(t *testing.T) {
	g := position.NewGame()
	play(t, g, "f2f3", "e7e5", "g2g4", "d8h4")
	got := Detect(g)
	if got.Kind != Checkmate || got.Winner != position.Black {
		t.Fatalf("expected Black to win by checkmate, got %v", got)
	}
	if got.Result() != "0-1" {
		t.Fatalf("unexpected result %s", got.Result())
	}
}

func TestDetectFivefoldRepetition(t *testing.T) {
	g := position.NewGame()
	for i := 0; i < 3; i++ {
		play(t, g, "g1f3", "g8f6", "f3g1", "f6g8")
	}
	if got := Detect(g); got.Over() {
		t.Fatalf("fourfold repetition should not end the game, got %v", got)
	}
	play(t, g, "g1f3", "g8f6", "f3g1", "f6g8")
	if got := Detect(g); got != (Outcome{Kind: Draw, Reason: FivefoldRepetition}) {
		t.Fatalf("expected fivefold repetition, got %v", got)
	}
}

func TestDetectFivefoldAfterDoublePawnPush(t *testing.T) {
	g := position.NewGame()
	play(t, g, "e2e4", "e7e5")
	for i := 0; i < 3; i++ {
		play(t, g, "g1f3", "g8f6", "f3g1", "f6g8")
	}
	if got := Detect(g); got.Over() {
		t.Fatalf("fourfold repetition should not end the game, got %v", got)
	}
	play(t, g, "g1f3", "g8f6", "f3g1", "f6g8")
	if got := Detect(g); got != (Outcome{Kind: Draw, Reason: FivefoldRepetition}) {
		t.Fatalf("expected fivefold repetition, got %v", got)
	}
}

func TestCheckmatePrecedence(t *testing.T) {
	base := position.NewGame()
	for _, s := range []stubPosition{
		{Game: base, noMoves: true, inCheck: true, halfMoves: 150},
		{Game: base, noMoves: true, inCheck: true, repetitions: 5},
		{Game: base, noMoves: true, inCheck: true, halfMoves: 300, repetitions: 9},
	} {
		got := Detect(s)
		if got.Kind != Checkmate {
			t.Errorf("halfMoves=%d repetitions=%d: got %v, want Checkmate", s.halfMoves, s.repetitions, got)
		}
		if got.Winner != position.Black {
			t.Errorf("expected the side not to move to win, got %s", got.Winner)
		}
	}
}
