package chess

import "slices"

// Status describes the position from the point of view of the side to move.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCheck     Status = "check"
	StatusCheckmate Status = "checkmate"
	StatusStalemate Status = "stalemate"
)

// Over reports whether no further moves can be played.
func (s Status) Over() bool {
	return s == StatusCheckmate || s == StatusStalemate
}

// Game holds a board, the side to move and the previous move, which is the
// only history needed (for en passant).
//
// A Game is not safe for concurrent use. Legality checks temporarily rearrange
// the board, so a caller sharing a Game must hold one lock around the whole
// validate-and-commit sequence.
type Game struct {
	turn     Color
	board    *Board
	lastMove *Move
}

// NewGame returns a game in the standard opening position with White to move.
func NewGame() *Game {
	return &Game{
		turn:  White,
		board: NewStartingBoard(),
	}
}

func (g *Game) Turn() Color {
	return g.turn
}

func (g *Game) SetTurn(color Color) {
	g.turn = color
}

func (g *Game) Board() *Board {
	return g.board
}

// SetBoard replaces the board. The previous move belongs to the old board and is dropped.
func (g *Game) SetBoard(board *Board) {
	g.board = board
	g.lastMove = nil
}

func (g *Game) LastMove() (Move, bool) {
	if g.lastMove == nil {
		return Move{}, false
	}
	return *g.lastMove, true
}

// ValidMoves returns the legal moves of the piece on the square. An empty
// square has none.
func (g *Game) ValidMoves(from Position) []Move {
	piece := g.board.Piece(from)
	if piece == nil {
		return []Move{}
	}

	candidates := piece.Moves(g.board, from)
	switch piece.Type() {
	case Pawn:
		if m, ok := g.enPassant(from, piece); ok {
			candidates = append(candidates, m)
		}
	case King:
		candidates = append(candidates, g.castlingMoves(from, piece)...)
	}

	legal := make([]Move, 0, len(candidates))
	for _, m := range candidates {
		if g.leavesKingSafe(m, piece.Color()) {
			legal = append(legal, m)
		}
	}
	return legal
}

// LegalMoves returns every legal move of the color.
func (g *Game) LegalMoves(color Color) []Move {
	moves := []Move{}
	g.board.Each(func(pos Position, piece *Piece) {
		if piece.Color() == color {
			moves = append(moves, g.ValidMoves(pos)...)
		}
	})
	return moves
}

// MakeMove validates and plays the move. A rejected move returns an
// *InvalidMoveError and leaves the game unchanged.
func (g *Game) MakeMove(m Move) error {
	piece := g.board.Piece(m.From)
	if piece == nil {
		return &InvalidMoveError{Move: m, Reason: ErrNoPiece}
	}
	if piece.Color() != g.turn {
		return &InvalidMoveError{Move: m, Reason: ErrWrongTurn}
	}
	if !slices.Contains(g.ValidMoves(m.From), m) {
		return &InvalidMoveError{Move: m, Reason: ErrIllegalMove}
	}
	g.play(m)
	return nil
}

// IsInCheck reports whether the color's king is attacked. A board without
// that king is never in check, so partial positions can be set up freely.
func (g *Game) IsInCheck(color Color) bool {
	kingPos, ok := g.findKing(color)
	if !ok {
		return false
	}
	return g.isAttacked(kingPos, color.Opponent())
}

func (g *Game) IsInCheckmate(color Color) bool {
	return g.IsInCheck(color) && !g.hasLegalMove(color)
}

func (g *Game) IsInStalemate(color Color) bool {
	return !g.IsInCheck(color) && !g.hasLegalMove(color)
}

// Status reports check, checkmate or stalemate for the side to move.
func (g *Game) Status() Status {
	check := g.IsInCheck(g.turn)
	canMove := g.hasLegalMove(g.turn)
	switch {
	case canMove && check:
		return StatusCheck
	case canMove:
		return StatusOngoing
	case check:
		return StatusCheckmate
	default:
		return StatusStalemate
	}
}

func (g *Game) hasLegalMove(color Color) bool {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			if piece := g.board.Piece(pos); piece != nil && piece.Color() == color && len(g.ValidMoves(pos)) > 0 {
				return true
			}
		}
	}
	return false
}

func (g *Game) findKing(color Color) (Position, bool) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			if piece := g.board.Piece(pos); piece != nil && piece.Type() == King && piece.Color() == color {
				return pos, true
			}
		}
	}
	return Position{}, false
}

// isAttacked reports whether any piece of the color could move to target by geometry.
func (g *Game) isAttacked(target Position, by Color) bool {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			attacker := g.board.Piece(pos)
			if attacker == nil || attacker.Color() != by {
				continue
			}
			for _, m := range attacker.Moves(g.board, pos) {
				if m.To == target {
					return true
				}
			}
		}
	}
	return false
}

// plan returns every square the move changes: the mover, a captured en
// passant pawn and a castling rook. Simulation and commit both use it.
func (g *Game) plan(m Move) []Edit {
	piece := g.board.Piece(m.From)
	placed := piece
	if m.Promotion != NoPieceType {
		placed = NewPiece(piece.Color(), m.Promotion)
	}
	edits := []Edit{{Pos: m.From}, {Pos: m.To, Piece: placed}}

	switch piece.Type() {
	case Pawn:
		// A diagonal step onto an empty square can only be en passant.
		if m.From.Col != m.To.Col && g.board.Piece(m.To) == nil {
			edits = append(edits, Edit{Pos: Position{Row: m.From.Row, Col: m.To.Col}})
		}
	case King:
		if abs(m.To.Col-m.From.Col) == 2 {
			rookFrom, rookTo := castlingRook(m)
			edits = append(edits, Edit{Pos: rookFrom}, Edit{Pos: rookTo, Piece: g.board.Piece(rookFrom)})
		}
	}
	return edits
}

// play commits the move without validating it and returns a function that
// takes it back.
func (g *Game) play(m Move) (takeBack func()) {
	edits := g.plan(m)
	undo := g.board.Apply(edits...)

	var flagged []*Piece
	for _, e := range edits {
		if e.Piece != nil && !e.Piece.moved {
			e.Piece.moved = true
			flagged = append(flagged, e.Piece)
		}
	}
	prevMove, prevTurn := g.lastMove, g.turn
	g.lastMove = &m
	g.turn = g.turn.Opponent()

	return func() {
		for _, p := range flagged {
			p.moved = false
		}
		undo.Restore()
		g.lastMove, g.turn = prevMove, prevTurn
	}
}

// leavesKingSafe plays the move on the board, checks the mover's king and
// puts the board back. Moved flags are not touched.
func (g *Game) leavesKingSafe(m Move, color Color) bool {
	undo := g.board.Apply(g.plan(m)...)
	defer undo.Restore()
	return !g.IsInCheck(color)
}

// kingSafeAt reports whether the king would be attacked standing on to.
func (g *Game) kingSafeAt(from, to Position, color Color) bool {
	undo := g.board.Apply(Edit{Pos: from}, Edit{Pos: to, Piece: g.board.Piece(from)})
	defer undo.Restore()
	return !g.IsInCheck(color)
}

func (g *Game) enPassant(from Position, pawn *Piece) (Move, bool) {
	if g.lastMove == nil {
		return Move{}, false
	}
	last := *g.lastMove
	prev := g.board.Piece(last.To)
	if prev == nil || prev.Type() != Pawn || prev.Color() == pawn.Color() {
		return Move{}, false
	}
	if abs(last.To.Row-last.From.Row) != 2 {
		return Move{}, false
	}
	if last.To.Row != from.Row || abs(last.To.Col-from.Col) != 1 {
		return Move{}, false
	}
	to := Position{Row: from.Row + pawn.Color().forward(), Col: last.To.Col}
	if !to.Valid() || g.board.Piece(to) != nil {
		return Move{}, false
	}
	return Move{From: from, To: to}, true
}

func (g *Game) castlingMoves(from Position, king *Piece) []Move {
	color := king.Color()
	row := color.homeRow()
	if from != (Position{Row: row, Col: 5}) || g.IsInCheck(color) {
		return nil
	}
	var moves []Move
	if g.canCastle(row, 8, []int{6, 7}, color) {
		moves = append(moves, Move{From: from, To: Position{Row: row, Col: 7}})
	}
	if g.canCastle(row, 1, []int{2, 3, 4}, color) {
		moves = append(moves, Move{From: from, To: Position{Row: row, Col: 3}})
	}
	return moves
}

// canCastle checks that king and rook are home and unmoved, that pathCols are
// empty and that the two squares the king crosses are not attacked.
func (g *Game) canCastle(row, rookCol int, pathCols []int, color Color) bool {
	kingPos := Position{Row: row, Col: 5}
	king := g.board.Piece(kingPos)
	rook := g.board.Piece(Position{Row: row, Col: rookCol})
	if king == nil || king.Type() != King || king.Color() != color || king.HasMoved() {
		return false
	}
	if rook == nil || rook.Type() != Rook || rook.Color() != color || rook.HasMoved() {
		return false
	}
	for _, col := range pathCols {
		if g.board.Piece(Position{Row: row, Col: col}) != nil {
			return false
		}
	}

	dir := 1
	if rookCol < kingPos.Col {
		dir = -1
	}
	for _, col := range []int{kingPos.Col + dir, kingPos.Col + 2*dir} {
		if !g.kingSafeAt(kingPos, Position{Row: row, Col: col}, color) {
			return false
		}
	}
	return true
}

// castlingRook returns where the rook starts and lands for a castling king move.
func castlingRook(m Move) (from, to Position) {
	row := m.From.Row
	if m.To.Col > m.From.Col {
		return Position{Row: row, Col: 8}, Position{Row: row, Col: m.To.Col - 1}
	}
	return Position{Row: row, Col: 1}, Position{Row: row, Col: m.To.Col + 1}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
