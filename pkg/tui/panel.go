package tui

import (
	"fmt"
	"strings"

	"github.com/qnkhuat/stockterm/pkg/game"
	"github.com/qnkhuat/stockterm/pkg/position"
)

// moveRows is how many move pairs the side panel shows.
const moveRows = 5

// moveLines pairs the SAN history into numbered rows and keeps the most
// recent ones. first and side describe moves[0]; a game that starts with
// Black gets "..." in the White column of its first row.
func moveLines(moves []string, first int, side position.Side, rows int) []string {
	if len(moves) == 0 {
		return nil
	}
	if side == position.Black {
		moves = append([]string{"..."}, moves...)
	}
	if first < 1 {
		first = 1
	}
	var lines []string
	for i := 0; i < len(moves); i += 2 {
		black := ""
		if i+1 < len(moves) {
			black = moves[i+1]
		}
		lines = append(lines, fmt.Sprintf("%-4s %-7s %-7s", fmt.Sprintf("%d.", first+i/2), moves[i], black))
	}
	if len(lines) > rows {
		lines = lines[len(lines)-rows:]
	}
	return lines
}

func statusText(snap game.Snapshot, name string) string {
	switch {
	case snap.Outcome.Over():
		return fmt.Sprintf("[yellow]Game over: %s[-]\n\nPress q to leave", snap.Outcome)
	case snap.EngineErr != nil:
		return fmt.Sprintf("[red]%v[-]\n\nPress r to retry, q to quit", snap.EngineErr)
	case snap.Thinking:
		return fmt.Sprintf("Engine (%s) is thinking...", snap.SideToMove)
	case snap.SideToMove == snap.Human:
		check := ""
		if snap.InCheck {
			check = " [red]check![-]"
		}
		return fmt.Sprintf("%s (%s) to move%s", name, snap.Human, check)
	default:
		return fmt.Sprintf("Engine (%s) to move", snap.SideToMove)
	}
}

func movesText(snap game.Snapshot) string {
	return strings.Join(moveLines(snap.Moves, snap.FirstMove, snap.FirstSide, moveRows), "\n")
}
