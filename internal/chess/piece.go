package chess

import "strings"

var (
	rookDirs   = []Position{{Row: 1, Col: 0}, {Row: -1, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: -1}}
	bishopDirs = []Position{{Row: 1, Col: 1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: -1, Col: -1}}
	queenDirs  = append(append([]Position{}, rookDirs...), bishopDirs...)
	kingDirs   = queenDirs
	knightDirs = []Position{{Row: 2, Col: 1}, {Row: 2, Col: -1}, {Row: -2, Col: 1}, {Row: -2, Col: -1}, {Row: 1, Col: 2}, {Row: 1, Col: -2}, {Row: -1, Col: 2}, {Row: -1, Col: -2}}
)

// Piece is a chess piece. Color and type never change; the moved flag is set
// the first time the piece completes a move in the game.
type Piece struct {
	color Color
	kind  PieceType
	moved bool
}

func NewPiece(color Color, kind PieceType) *Piece {
	return &Piece{color: color, kind: kind}
}

func (p *Piece) Color() Color {
	return p.color
}

func (p *Piece) Type() PieceType {
	return p.kind
}

// HasMoved reports whether the piece has completed a move in the game.
func (p *Piece) HasMoved() bool {
	return p.moved
}

// Equal compares color and type only.
func (p *Piece) Equal(o *Piece) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.color == o.color && p.kind == o.kind
}

// String returns the FEN letter of the piece: upper case for white.
func (p *Piece) String() string {
	if p == nil {
		return "."
	}
	if p.color == White {
		return strings.ToUpper(p.kind.notation())
	}
	return p.kind.notation()
}

// Moves returns every move the piece could make from the given square by its
// geometry alone. Whether the move leaves the own king attacked is not checked,
// and neither castling nor en passant are produced here.
func (p *Piece) Moves(board *Board, from Position) []Move {
	switch p.kind {
	case Bishop:
		return p.slidingMoves(board, from, bishopDirs)
	case Rook:
		return p.slidingMoves(board, from, rookDirs)
	case Queen:
		return p.slidingMoves(board, from, queenDirs)
	case Knight:
		return p.steppingMoves(board, from, knightDirs)
	case King:
		return p.steppingMoves(board, from, kingDirs)
	case Pawn:
		return p.pawnMoves(board, from)
	default:
		return nil
	}
}

func (p *Piece) canCapture(target *Piece) bool {
	return target != nil && target.color != p.color
}

func (p *Piece) slidingMoves(board *Board, from Position, dirs []Position) []Move {
	moves := []Move{}
	for _, dir := range dirs {
		to := from.offset(dir.Row, dir.Col)
		for to.Valid() {
			target := board.Piece(to)
			if target == nil {
				moves = append(moves, Move{From: from, To: to})
			} else {
				if p.canCapture(target) {
					moves = append(moves, Move{From: from, To: to})
				}
				break
			}
			to = to.offset(dir.Row, dir.Col)
		}
	}
	return moves
}

func (p *Piece) steppingMoves(board *Board, from Position, offsets []Position) []Move {
	moves := []Move{}
	for _, off := range offsets {
		to := from.offset(off.Row, off.Col)
		if !to.Valid() {
			continue
		}
		if target := board.Piece(to); target == nil || p.canCapture(target) {
			moves = append(moves, Move{From: from, To: to})
		}
	}
	return moves
}

func (p *Piece) pawnMoves(board *Board, from Position) []Move {
	moves := []Move{}
	dir := p.color.forward()
	startRow := p.color.homeRow() + dir
	promotionRow := p.color.Opponent().homeRow()

	add := func(to Position) {
		if to.Row == promotionRow {
			for _, kind := range promotionTypes {
				moves = append(moves, Move{From: from, To: to, Promotion: kind})
			}
			return
		}
		moves = append(moves, Move{From: from, To: to})
	}

	// Forward one, then two from the starting rank.
	one := from.offset(dir, 0)
	if one.Valid() && board.Piece(one) == nil {
		add(one)
		two := from.offset(2*dir, 0)
		if from.Row == startRow && two.Valid() && board.Piece(two) == nil {
			add(two)
		}
	}

	// Diagonal captures
	for _, dCol := range []int{-1, 1} {
		to := from.offset(dir, dCol)
		if to.Valid() && p.canCapture(board.Piece(to)) {
			add(to)
		}
	}
	return moves
}
