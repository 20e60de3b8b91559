// Package render draws boards as SVG.
package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/kollin78/chess/internal/chess"
)

const (
	lightSquare = "fill:#f0d9b5"
	darkSquare  = "fill:#b58863"
	highlight   = "fill:#cdd26a;fill-opacity:0.8"
	checkMark   = "fill:#e05a4f;fill-opacity:0.8"
)

var glyphs = map[chess.Color]map[chess.PieceType]string{
	chess.White: {
		chess.King: "♔", chess.Queen: "♕", chess.Rook: "♖",
		chess.Bishop: "♗", chess.Knight: "♘", chess.Pawn: "♙",
	},
	chess.Black: {
		chess.King: "♚", chess.Queen: "♛", chess.Rook: "♜",
		chess.Bishop: "♝", chess.Knight: "♞", chess.Pawn: "♟",
	},
}

// Options controls how a board is drawn.
type Options struct {
	// SquareSize is the edge of one square in pixels. Zero means 60.
	SquareSize int
	// Flip draws the board from Black's side.
	Flip bool
	// LastMove, if set, highlights its two squares.
	LastMove *chess.Move
	// Check, if set, marks the square of a king in check.
	Check *chess.Position
	// Coordinates adds file and rank labels.
	Coordinates bool
}

// Board writes b as an SVG document to w.
func Board(w io.Writer, b *chess.Board, opts Options) error {
	size := opts.SquareSize
	if size <= 0 {
		size = 60
	}
	cw := &errWriter{w: w}
	canvas := svg.New(cw)
	canvas.Start(8*size, 8*size)
	canvas.Title("chess board")

	// (x, y) is the top-left corner of the square in pixels.
	corner := func(pos chess.Position) (int, int) {
		if opts.Flip {
			return (8 - pos.Col) * size, (pos.Row - 1) * size
		}
		return (pos.Col - 1) * size, (8 - pos.Row) * size
	}

	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := chess.Position{Row: row, Col: col}
			x, y := corner(pos)
			style := lightSquare
			if (row+col)%2 == 0 {
				style = darkSquare
			}
			canvas.Rect(x, y, size, size, style)
		}
	}

	if opts.LastMove != nil {
		for _, pos := range []chess.Position{opts.LastMove.From, opts.LastMove.To} {
			if pos.Valid() {
				x, y := corner(pos)
				canvas.Rect(x, y, size, size, highlight)
			}
		}
	}
	if opts.Check != nil && opts.Check.Valid() {
		x, y := corner(*opts.Check)
		canvas.Rect(x, y, size, size, checkMark)
	}

	if opts.Coordinates {
		label := fmt.Sprintf("font-size:%dpx;font-family:sans-serif;fill:#333", size/5)
		for i := 1; i <= 8; i++ {
			x, y := corner(chess.Position{Row: i, Col: i})
			canvas.Text(x+size-size/5, 8*size-size/20, string(rune('a'+i-1)), label)
			canvas.Text(size/20, y+size/4, fmt.Sprint(i), label)
		}
	}

	pieceStyle := fmt.Sprintf("font-size:%dpx;text-anchor:middle;dominant-baseline:central", size*3/4)
	b.Each(func(pos chess.Position, p *chess.Piece) {
		x, y := corner(pos)
		canvas.Text(x+size/2, y+size/2, glyphs[p.Color()][p.Type()], pieceStyle)
	})

	canvas.End()
	return cw.err
}

// errWriter keeps the first write error, since svgo does not report one.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
