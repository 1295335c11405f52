package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/qnkhuat/stockterm/pkg/game"
	"github.com/qnkhuat/stockterm/pkg/position"
	"github.com/rivo/tview"
)

const (
	numrows = position.NumRanks
	numcols = position.NumFiles
)

// posToSquare maps a table cell to a square. Column 0 holds the rank labels
// and the board is drawn from the human's side.
func posToSquare(row, col int, human position.Side) position.Square {
	file := col - 1
	rank := numrows - row - 1
	if human == position.Black {
		file = numcols - col
		rank = row
	}
	return position.NewSquare(file, rank)
}

func squareBg(sq position.Square, t Theme) tcell.Color {
	if (sq.File+sq.Rank)%2 == 0 {
		return t.SquareDark
	}
	return t.SquareLight
}

// squareColor picks the background of sq for snap. The selection wins over
// destinations, which win over check and the last move.
func squareColor(sq position.Square, snap game.Snapshot, t Theme) tcell.Color {
	if snap.Origin != nil && *snap.Origin == sq {
		return t.SquareOrigin
	}
	if hl, capture := snap.Destination(sq); hl {
		if capture {
			return t.SquareCapture
		}
		return t.SquareMove
	}
	if p := snap.PieceAt(sq); snap.InCheck && p.Kind == position.King && p.Side == snap.SideToMove {
		return t.SquareCheck
	}
	if snap.LastMove != nil && (snap.LastMove.From == sq || snap.LastMove.To == sq) {
		return t.SquareLast
	}
	return squareBg(sq, t)
}

func pieceColor(p position.Piece, t Theme) tcell.Color {
	if p.Side == position.White {
		return t.White
	}
	return t.Black
}

// renderBoard fills table with the board of snap, ranks on the left and files
// on the bottom row.
func renderBoard(table *tview.Table, snap game.Snapshot, t Theme) {
	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			if f == 0 && r != numrows {
				rank := posToSquare(r, 1, snap.Human).Rank
				cell := tview.NewTableCell(fmt.Sprintf("%d", rank+1)).
					SetAlign(tview.AlignCenter).
					SetTextColor(t.Rank).
					SetSelectable(false)
				table.SetCell(r, f, cell)
				continue
			}

			if r == numrows && f > 0 {
				file := posToSquare(0, f, snap.Human).File
				cell := tview.NewTableCell(fmt.Sprintf(" %c ", 'a'+file)).
					SetAlign(tview.AlignCenter).
					SetTextColor(t.File).
					SetSelectable(false)
				table.SetCell(r, f, cell)
				continue
			}

			if r == numrows && f == 0 {
				table.SetCell(r, f, tview.NewTableCell("").SetSelectable(false))
				continue
			}

			sq := posToSquare(r, f, snap.Human)
			p := snap.PieceAt(sq)
			cell := tview.NewTableCell(fmt.Sprintf(" %s ", p)).
				SetAlign(tview.AlignCenter).
				SetTextColor(pieceColor(p, t)).
				SetBackgroundColor(squareColor(sq, snap, t))
			table.SetCell(r, f, cell)
		}
	}
}
