package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the FEN string of the standard opening position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a game from a FEN string. Kings and rooks are marked as
// moved unless the castling field still grants them a castle, and an en
// passant square becomes the double pawn step that produced it. The move
// clocks are validated and otherwise ignored.
func ParseFEN(fen string) (*Game, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	board, err := parsePlacement(parts[0])
	if err != nil {
		return nil, err
	}
	g := &Game{board: board}

	switch parts[1] {
	case "w":
		g.SetTurn(White)
	case "b":
		g.SetTurn(Black)
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	if err := applyCastlingRights(board, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		target, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		// The pawn that just moved belongs to the side not on move.
		dir := g.turn.Opponent().forward()
		if target.Row != g.turn.Opponent().homeRow()+2*dir {
			return nil, fmt.Errorf("invalid en passant square for %s to move: %s", g.turn, parts[3])
		}
		g.lastMove = &Move{
			From: target.offset(-dir, 0),
			To:   target.offset(dir, 0),
		}
	}

	for i, name := range []string{"half-move clock", "full-move number"} {
		if len(parts) > 4+i {
			if _, err := strconv.Atoi(parts[4+i]); err != nil {
				return nil, fmt.Errorf("invalid %s: %s", name, parts[4+i])
			}
		}
	}

	return g, nil
}

func parsePlacement(placement string) (*Board, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	board := NewBoard()
	for i, rankStr := range ranks {
		row := 8 - i
		col := 1
		for _, c := range rankStr {
			if col > 8 {
				return nil, fmt.Errorf("too many squares in rank %d", row)
			}
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			kind := pieceTypeFromNotation(byte(c))
			if kind == NoPieceType {
				return nil, fmt.Errorf("invalid piece character: %c", c)
			}
			color := Black
			if c >= 'A' && c <= 'Z' {
				color = White
			}
			board.SetPiece(Position{Row: row, Col: col}, NewPiece(color, kind))
			col++
		}
		if col != 9 {
			return nil, fmt.Errorf("invalid number of squares in rank %d: got %d", row, col-1)
		}
	}
	return board, nil
}

// applyCastlingRights marks every king and rook as moved, then clears the flag
// on the ones the castling field says can still castle.
func applyCastlingRights(board *Board, rights string) error {
	board.Each(func(_ Position, p *Piece) {
		if p.kind == King || p.kind == Rook {
			p.moved = true
		}
	})
	if rights == "-" {
		return nil
	}
	for _, c := range rights {
		color, rookCol := White, 0
		switch c {
		case 'K':
			rookCol = 8
		case 'Q':
			rookCol = 1
		case 'k':
			color, rookCol = Black, 8
		case 'q':
			color, rookCol = Black, 1
		default:
			return fmt.Errorf("invalid castling rights: %s", rights)
		}
		row := color.homeRow()
		king := board.Piece(Position{Row: row, Col: 5})
		rook := board.Piece(Position{Row: row, Col: rookCol})
		if king == nil || king.kind != King || king.color != color || rook == nil || rook.kind != Rook || rook.color != color {
			return fmt.Errorf("castling right %c without king and rook on their home squares", c)
		}
		king.moved = false
		rook.moved = false
	}
	return nil
}

// FEN returns the position as a FEN string. Move clocks are always "0 1".
func (g *Game) FEN() string {
	var sb strings.Builder
	for row := 8; row >= 1; row-- {
		empty := 0
		for col := 1; col <= 8; col++ {
			p := g.board.Piece(Position{Row: row, Col: col})
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row > 1 {
			sb.WriteByte('/')
		}
	}

	side := "w"
	if g.turn == Black {
		side = "b"
	}
	return fmt.Sprintf("%s %s %s %s 0 1", sb.String(), side, g.castlingField(), g.enPassantField())
}

func (g *Game) castlingField() string {
	var sb strings.Builder
	for _, right := range []struct {
		letter  byte
		color   Color
		rookCol int
	}{{'K', White, 8}, {'Q', White, 1}, {'k', Black, 8}, {'q', Black, 1}} {
		row := right.color.homeRow()
		king := g.board.Piece(Position{Row: row, Col: 5})
		rook := g.board.Piece(Position{Row: row, Col: right.rookCol})
		if king != nil && king.kind == King && king.color == right.color && !king.moved &&
			rook != nil && rook.kind == Rook && rook.color == right.color && !rook.moved {
			sb.WriteByte(right.letter)
		}
	}
	if sb.Len() == 0 {
		return "-"
	}
	return sb.String()
}

func (g *Game) enPassantField() string {
	if g.lastMove == nil {
		return "-"
	}
	last := *g.lastMove
	p := g.board.Piece(last.To)
	if p == nil || p.kind != Pawn || abs(last.To.Row-last.From.Row) != 2 {
		return "-"
	}
	return Position{Row: (last.From.Row + last.To.Row) / 2, Col: last.To.Col}.String()
}
