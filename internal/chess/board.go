package chess

import "strings"

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Board is an 8x8 grid holding at most one piece per square. It has no
// knowledge of the rules.
type Board struct {
	squares [8][8]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

// NewStartingBoard returns a board in the standard opening layout.
func NewStartingBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// Piece returns the piece on the square, or nil if it is empty or off the board.
func (b *Board) Piece(pos Position) *Piece {
	if !pos.Valid() {
		return nil
	}
	return b.squares[pos.Row-1][pos.Col-1]
}

// SetPiece places a piece on the square; nil clears it. Off-board positions are ignored.
func (b *Board) SetPiece(pos Position, piece *Piece) {
	if !pos.Valid() {
		return
	}
	b.squares[pos.Row-1][pos.Col-1] = piece
}

// Reset clears the board and sets up the standard 32 piece opening array.
func (b *Board) Reset() {
	b.squares = [8][8]*Piece{}
	for col := 1; col <= 8; col++ {
		b.SetPiece(Position{Row: 1, Col: col}, NewPiece(White, backRank[col-1]))
		b.SetPiece(Position{Row: 2, Col: col}, NewPiece(White, Pawn))
		b.SetPiece(Position{Row: 7, Col: col}, NewPiece(Black, Pawn))
		b.SetPiece(Position{Row: 8, Col: col}, NewPiece(Black, backRank[col-1]))
	}
}

// Each calls fn for every occupied square, rows 1-8 then files 1-8.
func (b *Board) Each(fn func(pos Position, piece *Piece)) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			if piece := b.squares[row-1][col-1]; piece != nil {
				fn(Position{Row: row, Col: col}, piece)
			}
		}
	}
}

// Equal compares piece color and type on every square.
func (b *Board) Equal(o *Board) bool {
	if b == nil || o == nil {
		return b == o
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if !b.squares[row][col].Equal(o.squares[row][col]) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the board, moved flags included.
func (b *Board) Clone() *Board {
	c := &Board{}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b.squares[row][col]; p != nil {
				cp := *p
				c.squares[row][col] = &cp
			}
		}
	}
	return c
}

// String draws the board with rank 8 at the top.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 8; row >= 1; row-- {
		sb.WriteByte(byte('0' + row))
		for col := 1; col <= 8; col++ {
			sb.WriteByte(' ')
			sb.WriteString(b.Piece(Position{Row: row, Col: col}).String())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

// Edit sets one square to a piece, or clears it when Piece is nil.
type Edit struct {
	Pos   Position
	Piece *Piece
}

// Undo restores the squares touched by an Apply.
type Undo struct {
	board *Board
	prev  []Edit
}

// Apply performs the edits in order and returns the token that reverts them.
func (b *Board) Apply(edits ...Edit) Undo {
	u := Undo{board: b, prev: make([]Edit, 0, len(edits))}
	for _, e := range edits {
		u.prev = append(u.prev, Edit{Pos: e.Pos, Piece: b.Piece(e.Pos)})
		b.SetPiece(e.Pos, e.Piece)
	}
	return u
}

// Restore puts back every square the Apply changed, in reverse order.
func (u Undo) Restore() {
	for i := len(u.prev) - 1; i >= 0; i-- {
		u.board.SetPiece(u.prev[i].Pos, u.prev[i].Piece)
	}
}
